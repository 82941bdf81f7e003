package cli

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/ppiankov/judolscan/internal/model"
	"github.com/ppiankov/judolscan/internal/pipeline"
	"github.com/ppiankov/judolscan/internal/worker"
	"github.com/spf13/cobra"
)

var (
	concurrency  int
	batchOut     string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Check multiple URLs from a file in parallel",
	Long: `Batch checks many URLs concurrently:
- Read URLs from input file (one per line, # comments allowed)
- Route video links to the remote media check, everything else to the web page check
- Throttle requests per domain (rate_limiting in the config)
- Write every result to one JSON file

Example:
  judolscan batch urls.txt
  judolscan batch urls.txt --concurrency 8 --json results.json
  judolscan batch urls.txt --profile precision --timeout 30m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers (0 uses concurrency.workers)")
	batchCmd.Flags().StringVar(&batchOut, "json", "judolscan-batch.json", "output JSON path")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().StringVar(&userAgent, "ua", "", "HTTP User-Agent (default: desktop Chrome)")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh fetch)")
}

// batchEntry is one line of the batch output file
type batchEntry struct {
	URL      string         `json:"url"`
	Modality model.Modality `json:"modality"`
	Error    string         `json:"error,omitempty"`
	Result   interface{}    `json:"result,omitempty"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyFetchFlags(cfg)
	if concurrency <= 0 {
		concurrency = cfg.Concurrency.Workers
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  judolscan Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Profile:      %s\n", cfg.Profile)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Rate limit:   %.2f req/s per domain (burst %d)\n", cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	fmt.Fprintf(os.Stderr, "  Output:       %s\n", batchOut)
	fmt.Fprintf(os.Stderr, "\n")

	deps, err := pipeline.NewDeps(cfg)
	if err != nil {
		return fmt.Errorf("init pipeline: %w", err)
	}

	// One limiter throttles both page fetches and media downloads
	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	p := pipeline.New(deps.WithFetcher(deps.Fetcher.WithLimiter(limiter)))
	processor := worker.NewBatchProcessor(p, concurrency, limiter)

	fmt.Fprintf(os.Stderr, "⚙️  Reading URLs from file...\n")
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	entries := make([]batchEntry, 0, len(results))
	successCount, failureCount, gamblingCount := 0, 0, 0

	for _, result := range results {
		entry := batchEntry{URL: result.URL, Modality: result.Modality}

		if result.Error != nil {
			failureCount++
			entry.Error = result.Error.Error()
			entries = append(entries, entry)
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.URL, result.Error)
			continue
		}

		successCount++
		if result.Page != nil {
			entry.Result = result.Page
		} else {
			entry.Result = result.Media
		}
		entries = append(entries, entry)

		check := result.Check()
		if check.Verdict.IsGambling() {
			gamblingCount++
		}
		fmt.Fprintf(os.Stderr, "✓ %s: %s (%s)\n", result.URL, check.Status, check.Confidence)
	}

	if err := writeJSON(entries, batchOut); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d URLs\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Gambling:  %d\n", gamblingCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", batchOut)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}
