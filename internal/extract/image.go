package extract

import (
	"context"
	"errors"

	"github.com/ppiankov/judolscan/internal/model"
	"github.com/ppiankov/judolscan/internal/ocr"
)

// Step names reported in step outcomes
const (
	StepOCR      = "ocr"
	StepProbe    = "probe"
	StepFrames   = "frames"
	StepAudio    = "audio"
	StepFetch    = "fetch"
	StepMetadata = "metadata"
	StepDownload = "download"
)

// Image reads the text printed on an uploaded image
type Image struct {
	engine ocr.Engine
}

// NewImage creates an image extractor. engine may be nil.
func NewImage(engine ocr.Engine) *Image {
	return &Image{engine: engine}
}

// Extract OCRs the raw image bytes without writing them to disk
func (x *Image) Extract(ctx context.Context, data []byte) model.StepOutcome {
	if x.engine == nil {
		return model.Skipped(StepOCR, model.ErrCollaboratorUnavailable)
	}

	text, err := x.engine.ExtractText(ctx, data)
	switch {
	case errors.Is(err, model.ErrCollaboratorUnavailable):
		return model.Skipped(StepOCR, err)
	case err != nil:
		return model.Failed(StepOCR, &model.ExtractionError{Step: StepOCR, Err: err})
	}

	return model.Succeeded(StepOCR, model.Fragment{Origin: model.OriginOCR, Source: "image", Text: text})
}
