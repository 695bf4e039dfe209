package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/dialectic/internal/model"
	"github.com/ppiankov/dialectic/internal/watch"
)

var watchDebounce time.Duration

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch [id...]",
	Short: "Re-analyze sessions whenever they change",
	Long: `Watch follows the sessions directory and recomputes metrics each time a
session file is written, by the desktop app or by another dialectic command.
Bursts of writes are coalesced by a debounce window.

One line is printed per analysis. A warning is logged when coherence drops
by at least thresholds.regression_delta since the previous analysis.

Example:
  dialectic watch
  dialectic watch 8f2c 91ab --debounce 1s`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 0, "quiet period before re-analysis (default: watch.debounce)")
	addLLMFlags(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if watchDebounce > 0 {
		cfg.Watch.Debounce = watchDebounce
	}

	store := newStore(cfg)
	if err := os.MkdirAll(store.Root(), 0755); err != nil {
		return fmt.Errorf("create sessions directory: %w", err)
	}

	p, err := newPipeline(cmd, cfg, store)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger := slog.Default()
	tracker := watch.NewTracker()
	var mu sync.Mutex

	analyze := func(ctx context.Context, id string) {
		report, err := p.Analyze(ctx, id)
		if err != nil {
			logger.Warn("analysis failed", "session_id", id, "error", err)
			return
		}

		delta, seen := tracker.Observe(id, report.Metrics.Coherence)

		mu.Lock()
		printWatchLine(cmd, report, delta, seen)
		if report.LLM != nil && report.LLM.Enabled {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", report.LLM.SummaryMD)
		}
		mu.Unlock()

		if seen && delta <= -cfg.Thresholds.RegressionDelta {
			logger.Warn("coherence regression",
				"session_id", id,
				"coherence", report.Metrics.Coherence,
				"delta", delta)
		}
	}

	ids := args
	if len(ids) == 0 {
		ids, err = store.IDs()
		if err != nil {
			return err
		}
	}
	for _, id := range ids {
		analyze(ctx, id)
	}

	w := watch.New(store.Root(),
		watch.WithDebounce(cfg.Watch.Debounce),
		watch.WithLogger(logger),
		watch.WithSessions(args...),
	)
	fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s (Ctrl+C to stop)\n", store.Root())
	return w.Run(ctx, analyze)
}

func printWatchLine(cmd *cobra.Command, report *model.Report, delta float64, seen bool) {
	change := "-"
	if seen {
		change = fmt.Sprintf("%+.3f", delta)
	}
	core := report.CoreClaimID()
	if core == "" {
		core = "-"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  coherence=%.3f (%s) change=%s claims=%d edges=%d open=%d core=%s\n",
		time.Now().Format(time.TimeOnly),
		report.SessionID,
		report.Metrics.Coherence,
		report.Assessment.Band,
		change,
		report.Metrics.ClaimCount,
		report.Metrics.EdgeCount,
		report.Metrics.UnresolvedCount,
		core,
	)
}
