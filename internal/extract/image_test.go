package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/ppiankov/judolscan/internal/model"
	"github.com/stretchr/testify/assert"
)

type stubEngine struct {
	text  string
	err   error
	calls int
}

func (s *stubEngine) Name() string { return "stub" }

func (s *stubEngine) ExtractText(ctx context.Context, image []byte) (string, error) {
	s.calls++
	return s.text, s.err
}

func TestImage_Extract(t *testing.T) {
	tests := []struct {
		name   string
		engine *stubEngine
		state  model.StepState
		text   string
	}{
		{"ok", &stubEngine{text: "DEPO 25K BONUS 100%"}, model.StepSuccess, "DEPO 25K BONUS 100%"},
		{"unavailable", &stubEngine{err: model.ErrCollaboratorUnavailable}, model.StepSkip, ""},
		{"failure", &stubEngine{err: errors.New("bad image")}, model.StepFail, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := NewImage(tt.engine).Extract(context.Background(), []byte("png"))
			assert.Equal(t, tt.state, out.State)
			assert.Equal(t, StepOCR, out.Name)
			if tt.state == model.StepSuccess {
				assert.Equal(t, []model.Fragment{{Origin: model.OriginOCR, Source: "image", Text: tt.text}}, out.Fragments)
			}
			if tt.state == model.StepFail {
				var xe *model.ExtractionError
				assert.True(t, errors.As(out.Err, &xe))
			}
		})
	}
}

func TestImage_NoEngine(t *testing.T) {
	out := NewImage(nil).Extract(context.Background(), []byte("png"))
	assert.Equal(t, model.StepSkip, out.State)
	assert.ErrorIs(t, out.Err, model.ErrCollaboratorUnavailable)
}
