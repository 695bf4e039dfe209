package worker

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/ppiankov/dialectic/internal/model"
)

// Analyzer produces a report for one session
type Analyzer interface {
	Analyze(ctx context.Context, sessionID string) (*model.Report, error)
}

// AnalyzeJob represents one session analysis
type AnalyzeJob struct {
	SessionID string
	Analyzer  Analyzer
}

// Execute executes the analysis job
func (j *AnalyzeJob) Execute(ctx context.Context) Result {
	report, err := j.Analyzer.Analyze(ctx, j.SessionID)
	return &AnalyzeResult{
		SessionID: j.SessionID,
		Report:    report,
		Error:     err,
	}
}

// AnalyzeResult represents the result of an analysis job
type AnalyzeResult struct {
	SessionID string
	Report    *model.Report
	Error     error
}

// GetError returns the error from the analysis
func (r *AnalyzeResult) GetError() error {
	return r.Error
}

// BatchProcessor analyzes many sessions concurrently
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
	logger      *slog.Logger
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(analyzer Analyzer, concurrency int, logger *slog.Logger) *BatchProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
		logger:      logger,
	}
}

// ProcessSessions analyzes every id and returns one result per analyzed
// session, in input order. Sessions not reached before ctx is cancelled
// are reported with the context error.
func (b *BatchProcessor) ProcessSessions(ctx context.Context, ids []string) []*AnalyzeResult {
	if len(ids) == 0 {
		return []*AnalyzeResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, id := range ids {
		pool.Submit(&AnalyzeJob{SessionID: id, Analyzer: b.analyzer})
	}

	done := make(map[string]*AnalyzeResult, len(ids))
	for _, r := range pool.Wait() {
		ar := r.(*AnalyzeResult)
		done[ar.SessionID] = ar
	}

	out := make([]*AnalyzeResult, 0, len(ids))
	for _, id := range ids {
		r, ok := done[id]
		if !ok {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			r = &AnalyzeResult{SessionID: id, Error: err}
		}
		if r.Error != nil {
			b.logger.Warn("session analysis failed", "session_id", id, "error", r.Error)
		}
		out = append(out, r)
	}
	return out
}

// FilterIDs returns the ids matching a doublestar glob. An empty pattern
// matches everything.
func FilterIDs(ids []string, pattern string) ([]string, error) {
	if pattern == "" {
		return ids, nil
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid match pattern: %q", pattern)
	}

	var matched []string
	for _, id := range ids {
		ok, err := doublestar.Match(pattern, id)
		if err != nil {
			return nil, fmt.Errorf("match %q: %w", pattern, err)
		}
		if ok {
			matched = append(matched, id)
		}
	}
	return matched, nil
}

// ReadIDsFromFile reads session ids from a file (one per line)
func ReadIDsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var ids []string
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
			ids = append(ids, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return ids, nil
}
