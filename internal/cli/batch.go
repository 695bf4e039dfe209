package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/dialectic/internal/worker"
)

var (
	batchMatch       string
	batchFrom        string
	batchConcurrency int
	batchOutputDir   string
	batchTimeout     time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Analyze many sessions in parallel",
	Long: `Batch analyzes every session in the data directory, or a subset:
- --match filters session ids with a glob (** supported)
- --from reads session ids from a file (one per line, # comments)
- sessions are analyzed by a bounded worker pool
- one failing session never stops the others

A JSON array with one entry per session, in input order, is printed to
stdout. With --output-dir each report is also written as <id>.json and
<id>.md.

Example:
  dialectic batch
  dialectic batch --match '8f2c*' --concurrency 8
  dialectic batch --from ids.txt --output-dir ./dialectic-reports --timeout 5m`,
	Args: cobra.NoArgs,
	RunE: runBatch,
}

type batchEntry struct {
	SessionID string  `json:"session_id" yaml:"session_id"`
	Title     string  `json:"title,omitempty" yaml:"title,omitempty"`
	Coherence float64 `json:"coherence" yaml:"coherence"`
	Band      string  `json:"band,omitempty" yaml:"band,omitempty"`
	Error     string  `json:"error,omitempty" yaml:"error,omitempty"`
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVar(&batchMatch, "match", "", "glob pattern selecting session ids")
	batchCmd.Flags().StringVar(&batchFrom, "from", "", "file listing session ids (one per line)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "number of concurrent workers (default: concurrency.workers)")
	batchCmd.Flags().StringVar(&batchOutputDir, "output-dir", "", "write <id>.json and <id>.md reports here")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	addLLMFlags(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	workers := batchConcurrency
	if workers <= 0 {
		workers = cfg.Concurrency.Workers
	}

	store := newStore(cfg)
	var ids []string
	if batchFrom != "" {
		ids, err = worker.ReadIDsFromFile(batchFrom)
	} else {
		ids, err = store.IDs()
	}
	if err != nil {
		return err
	}
	ids, err = worker.FilterIDs(ids, batchMatch)
	if err != nil {
		return err
	}

	p, err := newPipeline(cmd, cfg, store)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	errOut := cmd.ErrOrStderr()
	fmt.Fprintf(errOut, "\n")
	fmt.Fprintf(errOut, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(errOut, "  Dialectic Batch Analysis\n")
	fmt.Fprintf(errOut, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(errOut, "\n")
	fmt.Fprintf(errOut, "  Sessions:     %d\n", len(ids))
	fmt.Fprintf(errOut, "  Workers:      %d\n", workers)
	fmt.Fprintf(errOut, "  Timeout:      %v\n", batchTimeout)
	if batchOutputDir != "" {
		fmt.Fprintf(errOut, "  Output dir:   %s\n", batchOutputDir)
		if err := os.MkdirAll(batchOutputDir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	fmt.Fprintf(errOut, "\n")

	processor := worker.NewBatchProcessor(p, workers, nil)
	results := processor.ProcessSessions(ctx, ids)

	entries := make([]batchEntry, 0, len(results))
	failures := 0
	for _, r := range results {
		if r.Error != nil {
			failures++
			fmt.Fprintf(errOut, "✗ %s: %v\n", r.SessionID, r.Error)
			entries = append(entries, batchEntry{SessionID: r.SessionID, Error: r.Error.Error()})
			continue
		}

		entry := batchEntry{
			SessionID: r.SessionID,
			Title:     r.Report.Title,
			Coherence: r.Report.Metrics.Coherence,
			Band:      string(r.Report.Assessment.Band),
		}

		if batchOutputDir != "" {
			jsonPath := filepath.Join(batchOutputDir, r.SessionID+".json")
			mdPath := filepath.Join(batchOutputDir, r.SessionID+".md")
			if err := p.RenderReport(r.Report, jsonPath, mdPath); err != nil {
				failures++
				fmt.Fprintf(errOut, "✗ %s: write report: %v\n", r.SessionID, err)
				entry.Error = err.Error()
				entries = append(entries, entry)
				continue
			}
		}

		fmt.Fprintf(errOut, "✓ %s (coherence: %.3f, %s)\n", r.SessionID, entry.Coherence, entry.Band)
		entries = append(entries, entry)
	}

	fmt.Fprintf(errOut, "\n")
	fmt.Fprintf(errOut, "  Total:     %d sessions\n", len(results))
	fmt.Fprintf(errOut, "  Success:   %d\n", len(results)-failures)
	fmt.Fprintf(errOut, "  Failures:  %d\n", failures)
	fmt.Fprintf(errOut, "\n")

	return printData(cmd, cfg, entries)
}
