// Package media wraps the ffmpeg, ffprobe and yt-dlp command line tools.
//
// Every tool is an external binary invoked with exec.CommandContext. A
// binary missing from PATH is reported as model.ErrCollaboratorUnavailable
// so callers can skip the step instead of failing the request.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/ppiankov/judolscan/internal/model"
)

// Info describes a probed video file
type Info struct {
	TotalFrames int
	FPS         float64
	Duration    float64 // seconds
	Width       int
	Height      int
	HasAudio    bool
}

// Prober reads stream metadata from a media file
type Prober interface {
	Probe(ctx context.Context, path string) (Info, error)
}

// SampleOptions bounds frame sampling
type SampleOptions struct {
	MaxFrames int // Only frames with index < MaxFrames are considered
	Stride    int // Every Stride-th considered frame is written
}

// Frame is one sampled frame written to disk
type Frame struct {
	Index int    // Source frame number
	Path  string // PNG file inside the caller's workspace
}

// FrameSampler writes sampled frames of a video into a directory
type FrameSampler interface {
	SampleFrames(ctx context.Context, videoPath, outDir string, opts SampleOptions) ([]Frame, error)
}

// AudioExtractor writes the audio track of a video as mono 16 kHz PCM WAV
type AudioExtractor interface {
	ExtractAudio(ctx context.Context, videoPath, outPath string) error
}

// run executes binary and returns stdout, folding stderr into the error
func run(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return nil, fmt.Errorf("%s: %w: %v", binary, model.ErrCollaboratorUnavailable, err)
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s: %w", binary, ctx.Err())
		}
		return nil, fmt.Errorf("%s: %w: %s", binary, err, lastLine(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// lastLine keeps error messages short; tools print the cause last
func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
