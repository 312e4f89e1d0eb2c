package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/claimcheck/internal/model"
)

// Analyzer defines the interface for analyzing one video URL
type Analyzer interface {
	AnalyzeURL(ctx context.Context, url string) (*model.AnalysisReport, error)
}

// AnalyzeJob represents one video analysis job
type AnalyzeJob struct {
	Index    int
	URL      string
	Analyzer Analyzer
}

// Execute executes the analysis job. A panicking analyzer becomes an error
// result for this URL only.
func (j *AnalyzeJob) Execute(ctx context.Context) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = &AnalyzeResult{Index: j.Index, URL: j.URL, Error: fmt.Errorf("analysis panicked: %v", r)}
		}
	}()

	report, err := j.Analyzer.AnalyzeURL(ctx, j.URL)
	if err != nil {
		return &AnalyzeResult{Index: j.Index, URL: j.URL, Error: err}
	}
	return &AnalyzeResult{Index: j.Index, URL: j.URL, Report: report}
}

// AnalyzeResult represents the result of an analysis job
type AnalyzeResult struct {
	Index  int
	URL    string
	Report *model.AnalysisReport
	Error  error
}

// GetError returns the error from the analysis result
func (r *AnalyzeResult) GetError() error {
	return r.Error
}

// BatchProcessor analyzes multiple videos concurrently
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(analyzer Analyzer, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
	}
}

// ProcessURLs analyzes multiple URLs concurrently. Results are returned in
// input order regardless of completion order.
func (b *BatchProcessor) ProcessURLs(ctx context.Context, urls []string) []*AnalyzeResult {
	if len(urls) == 0 {
		return []*AnalyzeResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	// Submitting runs alongside Collect so a full queue never stalls the workers
	go func() {
		defer pool.Close()
		for i, url := range urls {
			if pool.Submit(&AnalyzeJob{Index: i, URL: url, Analyzer: b.analyzer}) != nil {
				return
			}
		}
	}()

	ordered := make([]*AnalyzeResult, len(urls))
	var stray error
	for _, result := range pool.Collect() {
		r, ok := result.(*AnalyzeResult)
		if !ok {
			stray = result.GetError()
			continue
		}
		ordered[r.Index] = r
	}

	// Jobs dropped by cancellation still get a result slot
	for i, r := range ordered {
		if r == nil {
			err := ctx.Err()
			if err == nil {
				err = stray
			}
			if err == nil {
				err = fmt.Errorf("analysis not run")
			}
			ordered[i] = &AnalyzeResult{Index: i, URL: urls[i], Error: err}
		}
	}

	return ordered
}

// ProcessFile reads URLs from a file and analyzes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*AnalyzeResult, error) {
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
