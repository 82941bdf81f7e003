package pipeline

import (
	"fmt"

	"github.com/ppiankov/judolscan/internal/asr"
	"github.com/ppiankov/judolscan/internal/cache"
	"github.com/ppiankov/judolscan/internal/classifier"
	"github.com/ppiankov/judolscan/internal/extract"
	"github.com/ppiankov/judolscan/internal/lexicon"
	"github.com/ppiankov/judolscan/internal/media"
	"github.com/ppiankov/judolscan/internal/metrics"
	"github.com/ppiankov/judolscan/internal/model"
	"github.com/ppiankov/judolscan/internal/ocr"
	"github.com/ppiankov/judolscan/internal/score"
	"github.com/rs/zerolog/log"
)

// Deps holds everything a check needs. All of it is built once at startup
// and shared read-only between concurrent requests.
type Deps struct {
	Config     *model.Config
	Profile    *lexicon.Profile
	Matcher    *lexicon.Matcher
	Normalizer *lexicon.Normalizer
	Classifier *classifier.Adapter
	Policy     *score.Policy
	Cache      cache.Cache
	Fetcher    *extract.Fetcher
	Image      *extract.Image
	Video      *extract.Video
	Webpage    *extract.Webpage
	Remote     *extract.Remote
	Metrics    *metrics.Collector // Optional
}

// NewDeps wires the collaborators described by cfg. Missing OCR, speech
// recognition or classifier backends are logged and leave the matching
// steps skipped; only an unusable lexicon is fatal.
func NewDeps(cfg *model.Config) (*Deps, error) {
	profile, err := lexicon.Load(cfg.Profile, cfg.LexiconFile)
	if err != nil {
		return nil, fmt.Errorf("load lexicon: %w", err)
	}
	matcher, err := lexicon.ForProfile(profile)
	if err != nil {
		return nil, fmt.Errorf("compile lexicon: %w", err)
	}

	clf := classifier.New(cfg.Classifier, profile.SequenceLength)
	if !clf.Available() {
		log.Warn().Str("backend", cfg.Classifier.Backend).Str("reason", clf.Reason()).
			Msg("classifier unavailable, running keyword-only")
	}

	var engine ocr.Engine
	if e, err := ocr.New(cfg.OCR); err != nil {
		log.Warn().Err(err).Msg("OCR disabled")
	} else {
		engine = e
	}

	var transcriber asr.Transcriber
	if t, err := asr.New(cfg.ASR); asr.IsUnavailable(err) {
		log.Info().Err(err).Msg("speech recognition disabled")
	} else if err != nil {
		log.Warn().Err(err).Msg("speech recognition misconfigured, disabled")
	} else {
		transcriber = t
	}

	c := cache.New(cfg.Cache)

	pageTimeout := cfg.HTTP.Timeout
	if pageTimeout == 0 {
		pageTimeout = profile.PageTimeout
	}
	fetcher := extract.NewFetcher(cfg.HTTP, pageTimeout)

	ffmpeg := &media.FFmpeg{Binary: cfg.Media.FFmpeg}
	ytdlp := &media.YTDLP{
		Binary:      cfg.Media.YTDLP,
		MaxHeight:   cfg.Media.MaxHeight,
		MaxDuration: cfg.Media.MaxDuration,
	}

	return &Deps{
		Config:     cfg,
		Profile:    profile,
		Matcher:    matcher,
		Normalizer: lexicon.NewNormalizer(profile.Corrections),
		Classifier: clf,
		Policy:     score.NewPolicy(profile, clf),
		Cache:      c,
		Fetcher:    fetcher,
		Image:      extract.NewImage(engine),
		Video: extract.NewVideo(&media.FFprobe{Binary: cfg.Media.FFprobe}, ffmpeg, ffmpeg, engine, transcriber,
			extract.VideoTimeouts{Probe: cfg.Media.ProbeTimeout, Extract: cfg.Media.ExtractTimeout}),
		Webpage: extract.NewWebpage(fetcher, c, cfg.Cache.MemoryTTL, profile.MinPageText),
		Remote: extract.NewRemote(ytdlp, c, cfg.Cache.DiskTTL, cfg.Media.MaxDuration,
			extract.RemoteTimeouts{Metadata: cfg.Media.MetadataTimeout, Download: cfg.Media.DownloadTimeout}),
	}, nil
}

// WithFetcher rebuilds the webpage extractor around f, typically a
// rate-limited clone of the default fetcher
func (d *Deps) WithFetcher(f *extract.Fetcher) *Deps {
	clone := *d
	clone.Fetcher = f
	clone.Webpage = extract.NewWebpage(f, d.Cache, d.Config.Cache.MemoryTTL, d.Profile.MinPageText)
	return &clone
}
