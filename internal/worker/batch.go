package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/judolscan/internal/extract"
	"github.com/ppiankov/judolscan/internal/model"
)

// Checker is the part of the pipeline a batch needs
type Checker interface {
	CheckURL(ctx context.Context, rawURL string) (*model.URLResult, error)
	CheckMedia(ctx context.Context, rawURL string) (*model.MediaResult, error)
}

// CheckJob checks one line of a batch file. Media links go through the
// remote media check, everything else through the web page check.
type CheckJob struct {
	Index   int
	URL     string
	Checker Checker
	Limiter *Limiter // Throttles media downloads; web fetches are throttled by the fetcher
}

// Execute executes the check job
func (j *CheckJob) Execute(ctx context.Context) Result {
	res := &CheckResult{Index: j.Index, URL: j.URL, Modality: modalityOf(j.URL)}

	if res.Modality == model.ModalityMedia {
		if j.Limiter != nil {
			if err := j.Limiter.Wait(ctx, j.URL); err != nil {
				res.Error = fmt.Errorf("rate limit: %w", err)
				return res
			}
		}
		res.Media, res.Error = j.Checker.CheckMedia(ctx, j.URL)
		return res
	}

	res.Page, res.Error = j.Checker.CheckURL(ctx, j.URL)
	return res
}

// Fail builds a failed result for this job
func (j *CheckJob) Fail(err error) Result {
	return &CheckResult{Index: j.Index, URL: j.URL, Modality: modalityOf(j.URL), Error: err}
}

func modalityOf(rawURL string) model.Modality {
	if _, err := extract.ValidateMediaURL(rawURL); err == nil {
		return model.ModalityMedia
	}
	return model.ModalityURL
}

// CheckResult represents the result of a check job
type CheckResult struct {
	Index    int
	URL      string
	Modality model.Modality
	Page     *model.URLResult
	Media    *model.MediaResult
	Error    error
}

// GetError returns the error from the check result
func (r *CheckResult) GetError() error {
	return r.Error
}

// Check returns the shared verdict fields, nil on error
func (r *CheckResult) Check() *model.CheckResult {
	switch {
	case r.Page != nil:
		return &r.Page.CheckResult
	case r.Media != nil:
		return &r.Media.CheckResult
	}
	return nil
}

// BatchProcessor processes multiple URLs concurrently
type BatchProcessor struct {
	checker     Checker
	concurrency int
	limiter     *Limiter
}

// NewBatchProcessor creates a new batch processor. limiter may be nil.
func NewBatchProcessor(checker Checker, concurrency int, limiter *Limiter) *BatchProcessor {
	return &BatchProcessor{
		checker:     checker,
		concurrency: concurrency,
		limiter:     limiter,
	}
}

// ProcessURLs checks every URL and returns one result per URL in input
// order. URLs left unchecked when ctx is cancelled carry ctx's error.
func (b *BatchProcessor) ProcessURLs(ctx context.Context, urls []string) []*CheckResult {
	if len(urls) == 0 {
		return []*CheckResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, url := range urls {
		pool.Submit(&CheckJob{
			Index:   i,
			URL:     url,
			Checker: b.checker,
			Limiter: b.limiter,
		})
	}

	results := pool.Wait()

	checkResults := make([]*CheckResult, len(results))
	for i, result := range results {
		checkResults[i] = result.(*CheckResult)
	}
	sort.Slice(checkResults, func(i, j int) bool { return checkResults[i].Index < checkResults[j].Index })

	return checkResults
}

// ProcessFile reads URLs from a file and processes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*CheckResult, error) {
	urls, err := ReadURLsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read URLs: %w", err)
	}

	return b.ProcessURLs(ctx, urls), nil
}

// ReadURLsFromFile reads URLs from a file (one per line)
func ReadURLsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var urls []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			urls = append(urls, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return urls, nil
}
