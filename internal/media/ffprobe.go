package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FFprobe probes media files with ffprobe
type FFprobe struct {
	Binary string
}

type probeResult struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	CodecType    string `json:"codec_type"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	RFrameRate   string `json:"r_frame_rate"`
	AvgFrameRate string `json:"avg_frame_rate"`
	NBFrames     string `json:"nb_frames"`
	Duration     string `json:"duration"`
}

type probeFormat struct {
	Duration string `json:"duration"`
}

// Probe runs ffprobe and derives frame count, rate and duration
func (f *FFprobe) Probe(ctx context.Context, path string) (Info, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Info{}, errors.New("ffprobe: empty path")
	}

	out, err := run(ctx, binaryOr(f.Binary, "ffprobe"),
		"-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	if err != nil {
		return Info{}, err
	}

	var res probeResult
	if err := json.Unmarshal(out, &res); err != nil {
		return Info{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return res.info()
}

func (r probeResult) info() (Info, error) {
	var info Info
	var video *probeStream
	for i := range r.Streams {
		switch strings.ToLower(r.Streams[i].CodecType) {
		case "video":
			if video == nil {
				video = &r.Streams[i]
			}
		case "audio":
			info.HasAudio = true
		}
	}
	if video == nil {
		return Info{}, errors.New("ffprobe: no video stream")
	}

	info.Width = video.Width
	info.Height = video.Height
	info.FPS = parseRate(video.AvgFrameRate)
	if info.FPS == 0 {
		info.FPS = parseRate(video.RFrameRate)
	}

	info.Duration = parseFloat(r.Format.Duration)
	if info.Duration == 0 {
		info.Duration = parseFloat(video.Duration)
	}

	if n, err := strconv.Atoi(strings.TrimSpace(video.NBFrames)); err == nil && n > 0 {
		info.TotalFrames = n
	} else {
		info.TotalFrames = int(math.Round(info.Duration * info.FPS))
	}
	return info, nil
}

// parseRate reads ffprobe rationals such as "30000/1001"
func parseRate(rate string) float64 {
	num, den, ok := strings.Cut(strings.TrimSpace(rate), "/")
	if !ok {
		return parseFloat(num)
	}
	n := parseFloat(num)
	d := parseFloat(den)
	if d == 0 {
		return 0
	}
	return n / d
}

func parseFloat(value string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func binaryOr(binary, fallback string) string {
	if b := strings.TrimSpace(binary); b != "" {
		return b
	}
	return fallback
}
