package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ppiankov/judolscan/internal/asr"
	"github.com/ppiankov/judolscan/internal/imgproc"
	"github.com/ppiankov/judolscan/internal/lexicon"
	"github.com/ppiankov/judolscan/internal/media"
	"github.com/ppiankov/judolscan/internal/model"
	"github.com/ppiankov/judolscan/internal/ocr"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// VideoTimeouts bounds each collaborator call of a video check
type VideoTimeouts struct {
	Probe   time.Duration
	Extract time.Duration
}

// Video gathers OCR text from sampled frames and a transcript of the audio track
type Video struct {
	prober      media.Prober
	sampler     media.FrameSampler
	audio       media.AudioExtractor
	engine      ocr.Engine
	transcriber asr.Transcriber
	timeouts    VideoTimeouts
}

// NewVideo creates a video extractor. engine and transcriber may be nil.
func NewVideo(prober media.Prober, sampler media.FrameSampler, audio media.AudioExtractor,
	engine ocr.Engine, transcriber asr.Transcriber, timeouts VideoTimeouts) *Video {
	return &Video{
		prober:      prober,
		sampler:     sampler,
		audio:       audio,
		engine:      engine,
		transcriber: transcriber,
		timeouts:    timeouts,
	}
}

// VideoEvidence is everything extracted from one video
type VideoEvidence struct {
	Info            media.Info
	Outcomes        []model.StepOutcome
	FramesProcessed int // Frames scanned from the start of the video
	FramesSampled   int // Frames OCR was attempted on
}

// Extract probes the video, then OCRs sampled frames while the audio is
// transcribed. Every file it creates lives in ws and is removed as soon as
// it has been read. Failures become step outcomes; Extract itself never fails.
func (v *Video) Extract(ctx context.Context, ws *Workspace, videoPath string, sampling lexicon.Sampling) VideoEvidence {
	var ev VideoEvidence

	info, probeOutcome := v.probe(ctx, videoPath)
	ev.Info = info
	ev.Outcomes = append(ev.Outcomes, probeOutcome)

	var (
		mu            sync.Mutex
		frameOutcomes []model.StepOutcome
		audioOutcome  model.StepOutcome
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var sampled int
		outcomes := guard(StepFrames, func() []model.StepOutcome {
			var out []model.StepOutcome
			out, sampled = v.frames(gctx, ws, videoPath, sampling)
			return out
		})
		mu.Lock()
		frameOutcomes = outcomes
		ev.FramesSampled = sampled
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		outcomes := guard(StepAudio, func() []model.StepOutcome {
			return []model.StepOutcome{v.transcribe(gctx, ws, videoPath, info, probeOutcome.State == model.StepSuccess)}
		})
		mu.Lock()
		audioOutcome = outcomes[0]
		mu.Unlock()
		return nil
	})
	_ = g.Wait()

	ev.Outcomes = append(ev.Outcomes, frameOutcomes...)
	ev.Outcomes = append(ev.Outcomes, audioOutcome)

	ev.FramesProcessed = sampling.MaxFrames
	if info.TotalFrames > 0 && info.TotalFrames < sampling.MaxFrames {
		ev.FramesProcessed = info.TotalFrames
	}
	if probeOutcome.State != model.StepSuccess {
		ev.FramesProcessed = ev.FramesSampled * sampling.Stride
	}
	return ev
}

func (v *Video) probe(ctx context.Context, videoPath string) (media.Info, model.StepOutcome) {
	if v.prober == nil {
		return media.Info{}, model.Skipped(StepProbe, model.ErrCollaboratorUnavailable)
	}
	ctx, cancel := withTimeout(ctx, v.timeouts.Probe)
	defer cancel()

	info, err := v.prober.Probe(ctx, videoPath)
	if err != nil {
		log.Warn().Err(err).Str("step", StepProbe).Msg("video probe failed")
		return media.Info{}, outcomeFor(StepProbe, err)
	}
	return info, model.Succeeded(StepProbe)
}

// frames samples, enhances and OCRs frames one at a time
func (v *Video) frames(ctx context.Context, ws *Workspace, videoPath string, sampling lexicon.Sampling) ([]model.StepOutcome, int) {
	if v.sampler == nil || v.engine == nil {
		return []model.StepOutcome{model.Skipped(StepFrames, model.ErrCollaboratorUnavailable)}, 0
	}

	dir, err := ws.Mkdir("frames")
	if err != nil {
		return []model.StepOutcome{model.Failed(StepFrames, err)}, 0
	}
	defer func() { _ = os.RemoveAll(dir) }()

	sctx, cancel := withTimeout(ctx, v.timeouts.Extract)
	frames, err := v.sampler.SampleFrames(sctx, videoPath, dir, media.SampleOptions{
		MaxFrames: sampling.MaxFrames,
		Stride:    sampling.Stride,
	})
	cancel()
	if err != nil {
		log.Warn().Err(err).Str("step", StepFrames).Msg("frame sampling failed")
		return []model.StepOutcome{outcomeFor(StepFrames, err)}, 0
	}

	opts := imgproc.DefaultOptions(sampling.MaxWidth)
	outcomes := make([]model.StepOutcome, 0, len(frames))
	for _, frame := range frames {
		outcomes = append(outcomes, v.frame(ctx, frame, opts))
	}
	return outcomes, len(frames)
}

// frame OCRs one frame file and deletes it whatever the outcome
func (v *Video) frame(ctx context.Context, frame media.Frame, opts imgproc.Options) model.StepOutcome {
	name := fmt.Sprintf("frame:%d", frame.Index)
	defer func() { _ = os.Remove(frame.Path) }()

	data, err := imgproc.EnhanceFile(frame.Path, opts)
	if err != nil {
		log.Debug().Err(err).Int("frame", frame.Index).Msg("frame enhancement failed")
		return model.Failed(name, &model.ExtractionError{Step: name, Err: err})
	}

	text, err := v.engine.ExtractText(ctx, data)
	if err != nil {
		log.Debug().Err(err).Int("frame", frame.Index).Msg("frame ocr failed")
		return outcomeFor(name, err)
	}
	return model.Succeeded(name, model.Fragment{Origin: model.OriginOCR, Source: name, Text: text})
}

// transcribe extracts the audio track and runs speech recognition
func (v *Video) transcribe(ctx context.Context, ws *Workspace, videoPath string, info media.Info, probed bool) model.StepOutcome {
	if v.audio == nil || v.transcriber == nil {
		return model.Skipped(StepAudio, model.ErrCollaboratorUnavailable)
	}
	if probed && !info.HasAudio {
		return model.Skipped(StepAudio, errors.New("no audio stream"))
	}

	audioPath := ws.Path("audio.wav")
	defer func() { _ = os.Remove(audioPath) }()

	actx, cancel := withTimeout(ctx, v.timeouts.Extract)
	err := v.audio.ExtractAudio(actx, videoPath, audioPath)
	cancel()
	if err != nil {
		log.Warn().Err(err).Str("step", StepAudio).Msg("audio extraction failed")
		return outcomeFor(StepAudio, err)
	}

	text, err := v.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		log.Warn().Err(err).Str("step", StepAudio).Msg("transcription failed")
		return outcomeFor(StepAudio, err)
	}
	return model.Succeeded(StepAudio, model.Fragment{Origin: model.OriginASR, Source: "audio", Text: text})
}

// guard runs a step on an extraction goroutine, where a panic would
// otherwise escape every recover on the request path
func guard(step string, fn func() []model.StepOutcome) (out []model.StepOutcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("step", step).Msg("extraction step panicked")
			out = []model.StepOutcome{model.Failed(step, fmt.Errorf("%s: panic: %v", step, r))}
		}
	}()
	return fn()
}

// outcomeFor maps an unavailable collaborator to a skip and anything else to a failure
func outcomeFor(step string, err error) model.StepOutcome {
	if errors.Is(err, model.ErrCollaboratorUnavailable) {
		return model.Skipped(step, err)
	}
	return model.Failed(step, &model.ExtractionError{Step: step, Err: err})
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
