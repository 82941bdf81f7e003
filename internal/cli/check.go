package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/judolscan/internal/model"
	"github.com/ppiankov/judolscan/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	outJSON      string
	checkTimeout time.Duration
	userAgent    string
	noCache      bool
)

// checkCmd groups the single-item checks
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check one text, image, video, web page or remote video",
	Long: `Check runs one detection and prints the JSON result to stdout.
A one-line verdict summary goes to stderr.

Example:
  judolscan check text "daftar slot gacor maxwin hari ini"
  judolscan check image banner.jpg
  judolscan check video ad.mp4 --profile precision
  judolscan check url https://example.com --json result.json
  judolscan check media https://www.youtube.com/watch?v=dQw4w9WgXcQ`,
}

var checkTextCmd = &cobra.Command{
	Use:   "text <text>|-",
	Short: "Check free text (use - to read stdin)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		if text == "-" {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			text = string(data)
		}
		return runCheck(cmd, func(ctx context.Context, p *pipeline.Pipeline) (interface{}, *model.CheckResult, error) {
			res, err := p.CheckText(ctx, text)
			if err != nil {
				return nil, nil, err
			}
			return res, &res.CheckResult, nil
		})
	},
}

var checkImageCmd = &cobra.Command{
	Use:   "image <file>",
	Short: "Check an image with OCR",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}
		return runCheck(cmd, func(ctx context.Context, p *pipeline.Pipeline) (interface{}, *model.CheckResult, error) {
			res, err := p.CheckImage(ctx, data)
			if err != nil {
				return nil, nil, err
			}
			return res, &res.CheckResult, nil
		})
	},
}

var checkVideoCmd = &cobra.Command{
	Use:   "video <file>",
	Short: "Check a video clip with frame OCR and speech recognition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open video: %w", err)
		}
		defer func() { _ = f.Close() }()

		return runCheck(cmd, func(ctx context.Context, p *pipeline.Pipeline) (interface{}, *model.CheckResult, error) {
			res, err := p.CheckVideo(ctx, f, filepath.Base(args[0]))
			if err != nil {
				return nil, nil, err
			}
			return res, &res.CheckResult, nil
		})
	},
}

var checkURLCmd = &cobra.Command{
	Use:   "url <url>",
	Short: "Check the visible text of a web page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCheck(cmd, func(ctx context.Context, p *pipeline.Pipeline) (interface{}, *model.CheckResult, error) {
			res, err := p.CheckURL(ctx, args[0])
			if err != nil {
				return nil, nil, err
			}
			return res, &res.CheckResult, nil
		})
	},
}

var checkMediaCmd = &cobra.Command{
	Use:   "media <url>",
	Short: "Check a remote video by metadata and, when downloadable, content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCheck(cmd, func(ctx context.Context, p *pipeline.Pipeline) (interface{}, *model.CheckResult, error) {
			res, err := p.CheckMedia(ctx, args[0])
			if err != nil {
				return nil, nil, err
			}
			return res, &res.CheckResult, nil
		})
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.AddCommand(checkTextCmd, checkImageCmd, checkVideoCmd, checkURLCmd, checkMediaCmd)

	checkCmd.PersistentFlags().StringVar(&outJSON, "json", "", "write the JSON result to this path instead of stdout")
	checkCmd.PersistentFlags().DurationVar(&checkTimeout, "timeout", 10*time.Minute, "overall check timeout")
	checkCmd.PersistentFlags().StringVar(&userAgent, "ua", "", "HTTP User-Agent (default: desktop Chrome)")
	checkCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh fetch)")
}

type checkFunc func(ctx context.Context, p *pipeline.Pipeline) (interface{}, *model.CheckResult, error)

func runCheck(cmd *cobra.Command, check checkFunc) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyFetchFlags(cfg)

	p, err := pipeline.NewPipeline(cfg)
	if err != nil {
		return fmt.Errorf("init pipeline: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
	defer cancel()

	res, summary, err := check(ctx, p)
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "✓ %s (%s, %d keywords, %s)\n", summary.Status, summary.Confidence, summary.KeywordCount, summary.Method)
	return writeJSON(res, outJSON)
}

// applyFetchFlags copies explicitly set fetch flags over the loaded config
func applyFetchFlags(cfg *model.Config) {
	if userAgent != "" {
		cfg.HTTP.UserAgent = userAgent
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
}

// writeJSON writes v indented to path, or to stdout when path is empty
func writeJSON(v interface{}, path string) (err error) {
	out := io.Writer(os.Stdout)
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("close %s: %w", path, closeErr)
			}
		}()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}
