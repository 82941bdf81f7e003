package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RemoteMetadata is what yt-dlp reports about a remote video without downloading it
type RemoteMetadata struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Duration    float64  `json:"duration"`
	ViewCount   int64    `json:"view_count"`
	Uploader    string   `json:"uploader"`
	UploadDate  string   `json:"upload_date"`
	Tags        []string `json:"tags"`
	Categories  []string `json:"categories"`
}

// ErrTooLong marks a remote video over the download duration cap
var ErrTooLong = errors.New("video exceeds maximum download duration")

// RemoteFetcher reads metadata of and downloads remote videos
type RemoteFetcher interface {
	Metadata(ctx context.Context, url string) (RemoteMetadata, error)
	Download(ctx context.Context, url, dir string) (string, error)
}

// YTDLP drives the yt-dlp CLI
type YTDLP struct {
	Binary      string
	MaxHeight   int
	MaxDuration time.Duration
}

// Metadata dumps the video JSON without downloading media
func (y *YTDLP) Metadata(ctx context.Context, url string) (RemoteMetadata, error) {
	out, err := run(ctx, binaryOr(y.Binary, "yt-dlp"),
		"-J", "--skip-download", "--no-playlist", "--no-warnings", "--", url)
	if err != nil {
		return RemoteMetadata{}, err
	}

	var meta RemoteMetadata
	if err := json.Unmarshal(out, &meta); err != nil {
		return RemoteMetadata{}, fmt.Errorf("yt-dlp parse: %w", err)
	}
	return meta, nil
}

// Download saves the video into dir, refusing videos longer than MaxDuration
func (y *YTDLP) Download(ctx context.Context, url, dir string) (string, error) {
	args := []string{
		"-f", y.format(),
		"--no-playlist", "--no-warnings", "--no-part", "--no-progress",
		"-o", filepath.Join(dir, "%(id)s.%(ext)s"),
	}
	if y.MaxDuration > 0 {
		args = append(args, "--match-filter", fmt.Sprintf("duration <= %d", int(y.MaxDuration.Seconds())))
	}
	args = append(args, "--", url)

	if _, err := run(ctx, binaryOr(y.Binary, "yt-dlp"), args...); err != nil {
		return "", err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("yt-dlp: list download dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || strings.HasSuffix(e.Name(), ".part") {
			continue
		}
		return filepath.Join(dir, e.Name()), nil
	}
	// --match-filter skips long videos without failing
	return "", fmt.Errorf("yt-dlp: %w", ErrTooLong)
}

func (y *YTDLP) format() string {
	height := y.MaxHeight
	if height <= 0 {
		height = 720
	}
	return fmt.Sprintf("best[height<=%d]", height)
}
