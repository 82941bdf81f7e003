package pipeline

import (
	"context"
	"fmt"
	"io"
	"runtime/debug"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ppiankov/judolscan/internal/extract"
	"github.com/ppiankov/judolscan/internal/lexicon"
	"github.com/ppiankov/judolscan/internal/metrics"
	"github.com/ppiankov/judolscan/internal/model"
	"github.com/rs/zerolog/log"
)

// Preview lengths of extracted text in responses
const (
	videoPreview   = 300
	contentPreview = 500
	pagePreview    = 3000
)

const metadataOnlyNote = "Video tidak dapat diunduh, analisis berdasarkan metadata saja"

// Pipeline runs checks: extract, match, score, clean up, respond
type Pipeline struct {
	deps *Deps
}

// New creates a pipeline over prepared dependencies
func New(deps *Deps) *Pipeline {
	deps.Metrics.SetClassifierAvailable(deps.Classifier.Available())
	return &Pipeline{deps: deps}
}

// NewPipeline builds the dependencies from cfg and returns a pipeline
func NewPipeline(cfg *model.Config) (*Pipeline, error) {
	deps, err := NewDeps(cfg)
	if err != nil {
		return nil, err
	}
	return New(deps), nil
}

// Deps returns the pipeline's dependencies
func (p *Pipeline) Deps() *Deps {
	return p.deps
}

// Profile returns the active detection profile
func (p *Pipeline) Profile() *lexicon.Profile {
	return p.deps.Profile
}

// CheckText classifies free text
func (p *Pipeline) CheckText(ctx context.Context, text string) (*model.TextResult, error) {
	var res *model.TextResult
	err := p.run(model.ModalityText, func() (*model.Verdict, error) {
		var err error
		if res, err = p.checkText(ctx, text); err != nil {
			return nil, err
		}
		return &res.Verdict, nil
	})
	return res, err
}

// CheckImage classifies the text printed on an image
func (p *Pipeline) CheckImage(ctx context.Context, data []byte) (*model.ImageResult, error) {
	var res *model.ImageResult
	err := p.run(model.ModalityImage, func() (*model.Verdict, error) {
		var err error
		if res, err = p.checkImage(ctx, data); err != nil {
			return nil, err
		}
		return &res.Verdict, nil
	})
	return res, err
}

// CheckVideo classifies an uploaded video from its frames and audio.
// name is the uploaded file name, used only for its extension.
func (p *Pipeline) CheckVideo(ctx context.Context, video io.Reader, name string) (*model.VideoResult, error) {
	var res *model.VideoResult
	err := p.run(model.ModalityVideo, func() (*model.Verdict, error) {
		var err error
		if res, err = p.checkVideo(ctx, video, name); err != nil {
			return nil, err
		}
		return &res.Verdict, nil
	})
	return res, err
}

// CheckURL classifies the visible text of a web page
func (p *Pipeline) CheckURL(ctx context.Context, rawURL string) (*model.URLResult, error) {
	var res *model.URLResult
	err := p.run(model.ModalityURL, func() (*model.Verdict, error) {
		var err error
		if res, err = p.checkURL(ctx, rawURL); err != nil {
			return nil, err
		}
		return &res.Verdict, nil
	})
	return res, err
}

// CheckMedia classifies a remote video from its metadata and, when it can
// be downloaded, its content
func (p *Pipeline) CheckMedia(ctx context.Context, rawURL string) (*model.MediaResult, error) {
	var res *model.MediaResult
	err := p.run(model.ModalityMedia, func() (*model.Verdict, error) {
		var err error
		if res, err = p.checkMedia(ctx, rawURL); err != nil {
			return nil, err
		}
		return &res.Verdict, nil
	})
	return res, err
}

// FetchWebpage returns the visible text of a page without classifying it
func (p *Pipeline) FetchWebpage(ctx context.Context, rawURL string) (extract.PageText, error) {
	return p.deps.Webpage.Extract(ctx, rawURL)
}

// run is the boundary of every check: it turns panics into errors and
// records the outcome. Deferred workspace releases inside check still run
// while a panic unwinds.
func (p *Pipeline) run(modality model.Modality, check func() (*model.Verdict, error)) (err error) {
	start := time.Now()
	var verdict *model.Verdict

	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("modality", string(modality)).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("check panicked")
			verdict = nil
			err = fmt.Errorf("%s check: internal error: %v", modality, r)
		}
		p.observe(modality, start, verdict, err)
	}()

	verdict, err = check()
	return err
}

func (p *Pipeline) observe(modality model.Modality, start time.Time, verdict *model.Verdict, err error) {
	took := time.Since(start)
	if err != nil {
		p.deps.Metrics.RecordCheck(string(modality), metrics.OutcomeError, 0, took)
		log.Warn().Err(err).Str("modality", string(modality)).Dur("took", took).Msg("check failed")
		return
	}
	p.deps.Metrics.RecordCheck(string(modality), string(verdict.Status), len(verdict.Keywords), took)
	log.Info().
		Str("modality", string(modality)).
		Str("status", string(verdict.Status)).
		Float64("confidence", verdict.Confidence).
		Str("method", string(verdict.Method)).
		Strs("keywords", verdict.Keywords).
		Dur("took", took).
		Msg("check complete")
}

func (p *Pipeline) recordSteps(outcomes []model.StepOutcome) {
	for _, o := range outcomes {
		p.deps.Metrics.RecordStep(o.Name, string(o.State))
		if o.State == model.StepFail {
			log.Debug().Err(o.Err).Str("step", o.Name).Msg("step failed")
		}
	}
}

// openWorkspace creates the per-request directory for transient files
func (p *Pipeline) openWorkspace() (*extract.Workspace, func(), error) {
	ws, err := extract.NewWorkspace(p.deps.Config.Media.TempDir)
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		if err := ws.Release(); err != nil {
			log.Error().Err(err).Str("dir", ws.Dir()).Msg("failed to release workspace")
		}
	}
	return ws, release, nil
}

func (p *Pipeline) result(modality model.Modality, v model.Verdict, outcomes []model.StepOutcome) model.CheckResult {
	labels := p.deps.Profile.LabelsFor(modality)
	return model.CheckResult{
		Success:          true,
		Status:           labels.Label(v.Status),
		Confidence:       model.FormatConfidence(v.Confidence),
		RawConfidence:    v.Confidence,
		GamblingKeywords: v.Keywords,
		KeywordCount:     len(v.Keywords),
		Method:           v.Method,
		Signals:          v.Signals,
		Steps:            reports(outcomes),
		Verdict:          v,
	}
}

func (p *Pipeline) checkText(ctx context.Context, text string) (*model.TextResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, model.NewInputError("text", "text must not be empty")
	}

	keywords := p.deps.Matcher.Find(text)
	verdict := p.deps.Policy.Decide(ctx, model.ModalityText, keywords, text)

	return &model.TextResult{
		CheckResult: p.result(model.ModalityText, verdict, nil),
		TextLength:  utf8.RuneCountInString(text),
	}, nil
}

func (p *Pipeline) checkImage(ctx context.Context, data []byte) (*model.ImageResult, error) {
	if len(data) == 0 {
		return nil, model.NewInputError("image", "image file is required")
	}

	outcome := p.deps.Image.Extract(ctx, data)
	outcomes := []model.StepOutcome{outcome}
	p.recordSteps(outcomes)

	raw := collect(outcomes).JoinOrigin(model.OriginOCR, " ")
	analysed, normalized := raw, ""
	if p.deps.Profile.NormalizeImage {
		normalized = p.deps.Normalizer.Normalize(raw)
		analysed = normalized
	}

	keywords := p.deps.Matcher.Find(analysed)
	verdict := p.deps.Policy.Decide(ctx, model.ModalityImage, keywords, analysed)

	return &model.ImageResult{
		CheckResult:    p.result(model.ModalityImage, verdict, outcomes),
		OCRText:        raw,
		NormalizedText: normalized,
		TextLength:     utf8.RuneCountInString(analysed),
	}, nil
}

func (p *Pipeline) checkVideo(ctx context.Context, video io.Reader, name string) (*model.VideoResult, error) {
	if video == nil {
		return nil, model.NewInputError("video", "video file is required")
	}

	ws, release, err := p.openWorkspace()
	if err != nil {
		return nil, err
	}
	defer release()

	path, size, err := ws.Save(name, video)
	if err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}
	if size == 0 {
		return nil, model.NewInputError("video", "video file is empty")
	}

	ev := p.deps.Video.Extract(ctx, ws, path, p.deps.Profile.Sampling)
	p.recordSteps(ev.Outcomes)

	evidence := collect(ev.Outcomes)
	ocrText := evidence.JoinOrigin(model.OriginOCR, " | ")
	transcript := evidence.JoinOrigin(model.OriginASR, " ")
	combined := joinNonEmpty(ocrText, transcript)

	matches := p.deps.Matcher.FindIn(evidence)
	keywords := lexicon.Merge(lexicon.Terms(matches), p.deps.Matcher.FindPatterns(combined))
	verdict := p.deps.Policy.Decide(ctx, model.ModalityVideo, keywords, combined)

	check := p.result(model.ModalityVideo, verdict, ev.Outcomes)
	check.KeywordOrigins = matches
	return &model.VideoResult{
		CheckResult:     check,
		CombinedOCRText: head(ocrText, videoPreview),
		AudioTranscript: head(transcript, videoPreview),
		FramesProcessed: ev.FramesProcessed,
		FramesSampled:   ev.FramesSampled,
		VideoInfo: model.VideoInfo{
			TotalFrames:     ev.Info.TotalFrames,
			FPS:             ev.Info.FPS,
			DurationSeconds: ev.Info.Duration,
		},
	}, nil
}

func (p *Pipeline) checkURL(ctx context.Context, rawURL string) (*model.URLResult, error) {
	page, err := p.deps.Webpage.Extract(ctx, rawURL)
	if err != nil {
		p.recordSteps([]model.StepOutcome{model.Failed(extract.StepFetch, err)})
		return nil, err
	}

	outcomes := []model.StepOutcome{model.Succeeded(extract.StepFetch,
		model.Fragment{Origin: model.OriginHTML, Source: page.FinalURL, Text: page.Text})}
	p.recordSteps(outcomes)

	keywords := p.deps.Matcher.Find(page.Text)
	verdict := p.deps.Policy.Decide(ctx, model.ModalityURL, keywords, page.Text)

	return &model.URLResult{
		CheckResult:     p.result(model.ModalityURL, verdict, outcomes),
		SourceURL:       page.URL,
		ExtractedText:   preview(page.Text, pagePreview),
		FullTextLength:  utf8.RuneCountInString(page.Text),
		DetectionMethod: detectionMethod(verdict),
	}, nil
}

// detectionMethod names how a page verdict was reached
func detectionMethod(v model.Verdict) string {
	switch v.Method {
	case model.MethodNoEvidence:
		return "no_gambling_keywords"
	case model.MethodDensityFusion:
		return "view_source_analysis"
	default:
		return "keyword_analysis"
	}
}

func (p *Pipeline) checkMedia(ctx context.Context, rawURL string) (*model.MediaResult, error) {
	if _, err := extract.ValidateMediaURL(rawURL); err != nil {
		return nil, err
	}
	rawURL = strings.TrimSpace(rawURL)

	ws, release, err := p.openWorkspace()
	if err != nil {
		return nil, err
	}
	defer release()

	m := p.deps.Matcher
	meta, metaOutcome := p.deps.Remote.Metadata(ctx, rawURL)
	outcomes := []model.StepOutcome{metaOutcome}

	metadata := collect(outcomes)
	metadataText := metadata.JoinOrigin(model.OriginMetadata, " ")
	metaKeywords := m.Find(metadataText)
	breakdown := model.MetadataAnalysis{
		TitleKeywords:       m.Find(metadata.BySource(extract.SourceTitle)),
		DescriptionKeywords: m.Find(metadata.BySource(extract.SourceDescription)),
		TagsKeywords:        m.Find(metadata.BySource(extract.SourceTags)),
	}

	videoPath, downloadOutcome := p.deps.Remote.Download(ctx, ws, rawURL, meta)
	outcomes = append(outcomes, downloadOutcome)

	res := &model.MediaResult{
		MediaURL:         rawURL,
		VideoTitle:       meta.Title,
		VideoDuration:    meta.Duration,
		MetadataAnalysis: breakdown,
	}

	if videoPath == "" {
		p.recordSteps(outcomes)
		verdict := p.deps.Policy.DecideKeywords(model.ModalityMedia, metaKeywords)
		res.CheckResult = p.result(model.ModalityMedia, verdict, outcomes)
		res.AnalysisMethod = model.MediaMetadataOnly
		res.Note = metadataOnlyNote
		return res, nil
	}

	ev := p.deps.Video.Extract(ctx, ws, videoPath, p.deps.Profile.Sampling)
	outcomes = append(outcomes, ev.Outcomes...)
	p.recordSteps(outcomes)

	evidence := collect(outcomes)
	ocrText := evidence.JoinOrigin(model.OriginOCR, " | ")
	transcript := evidence.JoinOrigin(model.OriginASR, " ")
	all := joinNonEmpty(metadataText, ocrText, transcript)

	matches := m.FindIn(evidence)
	keywords := lexicon.Merge(metaKeywords, lexicon.Terms(matches))
	verdict := p.deps.Policy.Decide(ctx, model.ModalityMedia, keywords, all)

	res.CheckResult = p.result(model.ModalityMedia, verdict, outcomes)
	res.CheckResult.KeywordOrigins = matches
	res.AnalysisMethod = model.MediaFullAnalysis
	res.ContentAnalysis = &model.ContentAnalysis{
		OCRTextSamples:  head(ocrText, contentPreview),
		AudioTranscript: head(transcript, contentPreview),
		FramesProcessed: ev.FramesProcessed,
	}
	return res, nil
}
