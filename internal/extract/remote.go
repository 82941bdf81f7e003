package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ppiankov/judolscan/internal/cache"
	"github.com/ppiankov/judolscan/internal/media"
	"github.com/ppiankov/judolscan/internal/model"
	"github.com/rs/zerolog/log"
)

var mediaURLPattern = regexp.MustCompile(`^(https?://)?(www\.)?(youtube\.com/watch\?v=|youtu\.be/)([a-zA-Z0-9_-]{11})(\S*)?$`)

// Metadata fragment sources
const (
	SourceTitle       = "title"
	SourceDescription = "description"
	SourceTags        = "tags"
)

// ValidateMediaURL checks a YouTube watch or short link and returns the video ID
func ValidateMediaURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", model.NewInputError("youtube_url", "URL is required")
	}
	m := mediaURLPattern.FindStringSubmatch(raw)
	if m == nil {
		return "", model.NewInputError("youtube_url", "not a YouTube watch or youtu.be URL")
	}
	return m[4], nil
}

// RemoteTimeouts bounds remote media calls
type RemoteTimeouts struct {
	Metadata time.Duration
	Download time.Duration
}

// Remote reads metadata of and downloads remote videos
type Remote struct {
	fetcher     media.RemoteFetcher
	cache       cache.Cache
	cacheTTL    time.Duration
	maxDuration time.Duration
	timeouts    RemoteTimeouts
}

// NewRemote creates a remote media extractor. c may be nil.
func NewRemote(fetcher media.RemoteFetcher, c cache.Cache, cacheTTL, maxDuration time.Duration, timeouts RemoteTimeouts) *Remote {
	return &Remote{
		fetcher:     fetcher,
		cache:       c,
		cacheTTL:    cacheTTL,
		maxDuration: maxDuration,
		timeouts:    timeouts,
	}
}

// Metadata returns title, description and tags as fragments. A failure
// yields empty metadata and a failed outcome; the check continues.
func (r *Remote) Metadata(ctx context.Context, rawURL string) (media.RemoteMetadata, model.StepOutcome) {
	if r.fetcher == nil {
		return media.RemoteMetadata{}, model.Skipped(StepMetadata, model.ErrCollaboratorUnavailable)
	}

	key := cache.Key("media", rawURL)
	meta, ok := r.cached(key)
	if !ok {
		mctx, cancel := withTimeout(ctx, r.timeouts.Metadata)
		var err error
		meta, err = r.fetcher.Metadata(mctx, rawURL)
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("url", rawURL).Msg("media metadata unavailable")
			return media.RemoteMetadata{}, outcomeFor(StepMetadata, err)
		}
		r.store(key, meta)
	}

	return meta, model.Succeeded(StepMetadata, MetadataFragments(meta)...)
}

// MetadataFragments converts metadata fields to evidence fragments
func MetadataFragments(meta media.RemoteMetadata) []model.Fragment {
	return []model.Fragment{
		{Origin: model.OriginMetadata, Source: SourceTitle, Text: meta.Title},
		{Origin: model.OriginMetadata, Source: SourceDescription, Text: meta.Description},
		{Origin: model.OriginMetadata, Source: SourceTags, Text: strings.Join(meta.Tags, " ")},
	}
}

// Download saves the video into the workspace when it is short enough
func (r *Remote) Download(ctx context.Context, ws *Workspace, rawURL string, meta media.RemoteMetadata) (string, model.StepOutcome) {
	if r.fetcher == nil {
		return "", model.Skipped(StepDownload, model.ErrCollaboratorUnavailable)
	}
	if r.maxDuration > 0 && meta.Duration > r.maxDuration.Seconds() {
		return "", model.Skipped(StepDownload, fmt.Errorf("%.0fs: %w", meta.Duration, media.ErrTooLong))
	}

	dir, err := ws.Mkdir("download")
	if err != nil {
		return "", model.Failed(StepDownload, err)
	}

	dctx, cancel := withTimeout(ctx, r.timeouts.Download)
	defer cancel()

	path, err := r.fetcher.Download(dctx, rawURL, dir)
	if err != nil {
		log.Warn().Err(err).Str("url", rawURL).Msg("media download failed, using metadata only")
		return "", outcomeFor(StepDownload, err)
	}
	return path, model.Succeeded(StepDownload)
}

func (r *Remote) cached(key string) (media.RemoteMetadata, bool) {
	if r.cache == nil {
		return media.RemoteMetadata{}, false
	}
	data, ok := r.cache.Get(key)
	if !ok {
		return media.RemoteMetadata{}, false
	}
	var meta media.RemoteMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return media.RemoteMetadata{}, false
	}
	return meta, true
}

func (r *Remote) store(key string, meta media.RemoteMetadata) {
	if r.cache == nil {
		return
	}
	data, err := json.Marshal(meta)
	if err == nil {
		err = r.cache.Set(key, data, r.cacheTTL)
	}
	if err != nil {
		log.Warn().Err(err).Msg("failed to cache media metadata")
	}
}
