package media

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
)

// FFmpeg samples frames and extracts audio with ffmpeg
type FFmpeg struct {
	Binary string
}

// SampleFrames writes frames n < MaxFrames with n % Stride == 0 as PNG files
func (f *FFmpeg) SampleFrames(ctx context.Context, videoPath, outDir string, opts SampleOptions) ([]Frame, error) {
	if opts.MaxFrames <= 0 || opts.Stride <= 0 {
		return nil, errors.New("ffmpeg: max frames and stride must be positive")
	}

	want := (opts.MaxFrames + opts.Stride - 1) / opts.Stride
	filter := fmt.Sprintf(`select='lt(n\,%d)*not(mod(n\,%d))'`, opts.MaxFrames, opts.Stride)
	pattern := filepath.Join(outDir, "frame_%04d.png")

	_, err := run(ctx, binaryOr(f.Binary, "ffmpeg"),
		"-v", "error", "-hide_banner", "-nostdin", "-y",
		"-i", videoPath,
		"-vf", filter,
		"-vsync", "vfr",
		"-frames:v", fmt.Sprint(want),
		pattern)
	if err != nil {
		return nil, err
	}

	paths, err := filepath.Glob(filepath.Join(outDir, "frame_*.png"))
	if err != nil {
		return nil, fmt.Errorf("ffmpeg: list frames: %w", err)
	}
	sort.Strings(paths)

	frames := make([]Frame, len(paths))
	for i, p := range paths {
		frames[i] = Frame{Index: i * opts.Stride, Path: p}
	}
	return frames, nil
}

// ExtractAudio writes the first audio track as mono 16 kHz PCM WAV
func (f *FFmpeg) ExtractAudio(ctx context.Context, videoPath, outPath string) error {
	_, err := run(ctx, binaryOr(f.Binary, "ffmpeg"),
		"-v", "error", "-hide_banner", "-nostdin", "-y",
		"-i", videoPath,
		"-vn", "-acodec", "pcm_s16le", "-ar", "16000", "-ac", "1",
		outPath)
	return err
}
