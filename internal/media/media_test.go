package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/ppiankov/judolscan/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeBinary(t *testing.T, name, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script binaries require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755))
	return path
}

const probeJSON = `{
  "streams": [
    {"codec_type": "video", "width": 1920, "height": 1080, "r_frame_rate": "30000/1001", "avg_frame_rate": "30000/1001", "nb_frames": "450"},
    {"codec_type": "audio"}
  ],
  "format": {"duration": "15.015"}
}`

func TestFFprobe_Probe(t *testing.T) {
	bin := fakeBinary(t, "ffprobe", "cat <<'JSON'\n"+probeJSON+"\nJSON\n")

	info, err := (&FFprobe{Binary: bin}).Probe(context.Background(), "/tmp/in.mp4")
	require.NoError(t, err)
	assert.Equal(t, 450, info.TotalFrames)
	assert.InDelta(t, 29.97, info.FPS, 0.01)
	assert.InDelta(t, 15.015, info.Duration, 0.0001)
	assert.True(t, info.HasAudio)
	assert.Equal(t, 1920, info.Width)
}

func TestProbeResult_FrameCountFromDuration(t *testing.T) {
	res := probeResult{
		Streams: []probeStream{{CodecType: "video", RFrameRate: "25/1", AvgFrameRate: "0/0"}},
		Format:  probeFormat{Duration: "4.0"},
	}
	info, err := res.info()
	require.NoError(t, err)
	assert.Equal(t, 25.0, info.FPS)
	assert.Equal(t, 100, info.TotalFrames)
	assert.False(t, info.HasAudio)
}

func TestProbeResult_NoVideo(t *testing.T) {
	_, err := probeResult{Streams: []probeStream{{CodecType: "audio"}}}.info()
	assert.Error(t, err)
}

func TestParseRate(t *testing.T) {
	tests := map[string]float64{
		"30/1":       30,
		"30000/1001": 30000.0 / 1001.0,
		"0/0":        0,
		"25":         25,
		"":           0,
		"bad/1":      0,
	}
	for in, want := range tests {
		assert.InDelta(t, want, parseRate(in), 1e-9, in)
	}
}

func TestFFprobe_MissingBinary(t *testing.T) {
	_, err := (&FFprobe{Binary: filepath.Join(t.TempDir(), "nope")}).Probe(context.Background(), "x.mp4")
	assert.True(t, errors.Is(err, model.ErrCollaboratorUnavailable))
}

func TestFFmpeg_SampleFrames(t *testing.T) {
	// Writes three frames to the output pattern and records the filter it was given
	bin := fakeBinary(t, "ffmpeg", `for last; do :; done
dir=$(dirname "$last")
for i in 1 2 3; do printf png > "$dir/frame_000$i.png"; done
printf '%s ' "$@" > "$dir/args.txt"
`)
	dir := t.TempDir()

	frames, err := (&FFmpeg{Binary: bin}).SampleFrames(context.Background(), "in.mp4", dir, SampleOptions{MaxFrames: 30, Stride: 3})
	require.NoError(t, err)
	require.Len(t, frames, 3)
	assert.Equal(t, 0, frames[0].Index)
	assert.Equal(t, 6, frames[2].Index)
	assert.Equal(t, filepath.Join(dir, "frame_0002.png"), frames[1].Path)

	args, err := os.ReadFile(filepath.Join(dir, "args.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(args), `select='lt(n\,30)*not(mod(n\,3))'`)
	assert.Contains(t, string(args), "-frames:v 10")
}

func TestFFmpeg_SampleFramesInvalidOptions(t *testing.T) {
	_, err := (&FFmpeg{}).SampleFrames(context.Background(), "in.mp4", t.TempDir(), SampleOptions{})
	assert.Error(t, err)
}

func TestFFmpeg_ExtractAudio(t *testing.T) {
	bin := fakeBinary(t, "ffmpeg", `for last; do :; done
printf '%s ' "$@" > "$last"
`)
	out := filepath.Join(t.TempDir(), "audio.wav")

	require.NoError(t, (&FFmpeg{Binary: bin}).ExtractAudio(context.Background(), "in.mp4", out))
	args, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(args), "-vn -acodec pcm_s16le -ar 16000 -ac 1")
}

func TestFFmpeg_ExtractAudioFailure(t *testing.T) {
	bin := fakeBinary(t, "ffmpeg", `echo "noise" >&2
echo "Output file #0 does not contain any stream" >&2
exit 1
`)
	err := (&FFmpeg{Binary: bin}).ExtractAudio(context.Background(), "in.mp4", filepath.Join(t.TempDir(), "a.wav"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not contain any stream")
	assert.NotContains(t, err.Error(), "noise")
}

func TestYTDLP_Metadata(t *testing.T) {
	bin := fakeBinary(t, "yt-dlp", `cat <<'JSON'
{"id": "dQw4w9WgXcQ", "title": "Slot Gacor Hari Ini", "description": "link daftar di bio", "duration": 212.0, "view_count": 1200, "uploader": "promo", "upload_date": "20240101", "tags": ["slot", "maxwin"], "categories": ["Gaming"]}
JSON
`)
	meta, err := (&YTDLP{Binary: bin}).Metadata(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, "Slot Gacor Hari Ini", meta.Title)
	assert.Equal(t, 212.0, meta.Duration)
	assert.Equal(t, []string{"slot", "maxwin"}, meta.Tags)
}

func TestYTDLP_Download(t *testing.T) {
	bin := fakeBinary(t, "yt-dlp", `while [ "$1" != "-o" ]; do shift; done
out=$(echo "$2" | sed 's/%(id)s/abc/; s/%(ext)s/mp4/')
printf video > "$out"
`)
	dir := t.TempDir()
	y := &YTDLP{Binary: bin, MaxHeight: 720, MaxDuration: 300 * time.Second}

	path, err := y.Download(context.Background(), "https://youtu.be/abc", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "abc.mp4"), path)
	assert.Equal(t, "best[height<=720]", y.format())
}

func TestYTDLP_DownloadFilteredOut(t *testing.T) {
	bin := fakeBinary(t, "yt-dlp", "exit 0\n")
	_, err := (&YTDLP{Binary: bin}).Download(context.Background(), "https://youtu.be/abc", t.TempDir())
	assert.True(t, errors.Is(err, ErrTooLong))
}

func TestLastLine(t *testing.T) {
	assert.Equal(t, "b", lastLine("a\nb\n"))
	assert.Equal(t, "only", lastLine(" only "))
	assert.Equal(t, "", lastLine("\n"))
}
