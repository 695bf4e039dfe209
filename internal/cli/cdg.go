package cli

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ppiankov/dialectic/internal/cdg"
	"github.com/ppiankov/dialectic/internal/model"
	"github.com/ppiankov/dialectic/internal/session"
	"github.com/ppiankov/dialectic/internal/validate"
)

var (
	edgeSource     string
	edgeTarget     string
	edgeType       string
	edgeWeight     float64
	edgeResolution string

	resolveIndex  int
	resolveStatus string

	snapshotPassID string

	reportJSON string
	reportMD   string
)

// cdgCmd groups claim dependency graph commands
var cdgCmd = &cobra.Command{
	Use:   "cdg",
	Short: "Inspect and edit a session's claim dependency graph",
	Long: `Claim dependency graph commands.

Edges connect claims: SUPPORT, REQUIRE, TENSION, DERIVE, QUALIFY.
REQUIRE edges decide the structure: the claim most others require is the
core, and claims that require their way to it are structural.

Example:
  dialectic cdg metrics 8f2c
  dialectic cdg add-edge 8f2c --source c1 --target c2 --type require
  dialectic cdg resolve 8f2c --edge-index 3 --status accepted
  dialectic cdg snapshot 8f2c --pass-id pass-2
  dialectic cdg diff 8f2c`,
}

var cdgMetricsCmd = &cobra.Command{
	Use:   "metrics <id>",
	Short: "Compute all graph metrics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		sess, err := newStore(cfg).Load(args[0])
		if err != nil {
			return err
		}
		return printData(cmd, cfg, sess.Metrics())
	},
}

var cdgStrataCmd = &cobra.Command{
	Use:   "strata <id>",
	Short: "Classify every claim as CORE, STRUCTURAL, EVIDENTIAL or PERIPHERAL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		sess, err := newStore(cfg).Load(args[0])
		if err != nil {
			return err
		}
		// map keys encode sorted, so output is ordered by claim id
		return printData(cmd, cfg, cdg.ComputeStrata(sess.Claims, sess.CdgEdges))
	},
}

var cdgOrphansCmd = &cobra.Command{
	Use:   "orphans <id>",
	Short: "List claims with no edges",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		sess, err := newStore(cfg).Load(args[0])
		if err != nil {
			return err
		}
		orphans := cdg.FindOrphans(sess.Claims, sess.CdgEdges)
		if orphans == nil {
			orphans = []string{}
		}
		return printData(cmd, cfg, map[string]any{
			"orphans":      orphans,
			"count":        len(orphans),
			"total_claims": len(sess.Claims),
		})
	},
}

var cdgAddEdgeCmd = &cobra.Command{
	Use:   "add-edge <id>",
	Short: "Add an edge between two claims",
	Long: `Add an edge between two existing claims.

Types: support, require, tension, derive, qualify.
The weight is clamped into [0, 1]. A tension edge starts unresolved unless
--resolution is given; --resolution is rejected on other types.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		in := validate.EdgeInput{
			Source:     edgeSource,
			Target:     edgeTarget,
			Type:       edgeType,
			Weight:     edgeWeight,
			Resolution: edgeResolution,
		}
		sess, err := newStore(cfg).Update(cmd.Context(), args[0], func(s *session.Session) error {
			_, err := s.AddEdge(in, time.Now())
			return err
		})
		if err != nil {
			return err
		}
		return printData(cmd, cfg, map[string]any{
			"status":     "added",
			"edge_count": len(sess.CdgEdges),
		})
	},
}

var cdgResolveCmd = &cobra.Command{
	Use:   "resolve <id>",
	Short: "Resolve or accept a tension edge",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		_, err = newStore(cfg).Update(cmd.Context(), args[0], func(s *session.Session) error {
			return s.ResolveTension(resolveIndex, resolveStatus)
		})
		if err != nil {
			return err
		}
		return printData(cmd, cfg, map[string]any{
			"status":     "resolved",
			"edge_index": resolveIndex,
		})
	},
}

var cdgSnapshotCmd = &cobra.Command{
	Use:   "snapshot <id>",
	Short: "Record the current metrics as a pass for later diffs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		passID := snapshotPassID
		if passID == "" {
			passID = uuid.NewString()
		}

		var snap model.Snapshot
		sess, err := newStore(cfg).Update(cmd.Context(), args[0], func(s *session.Session) error {
			snap = s.TakeSnapshot(passID, time.Now())
			return nil
		})
		if err != nil {
			return err
		}
		return printData(cmd, cfg, map[string]any{
			"status":         "snapshot_created",
			"pass_id":        passID,
			"metrics":        snap.Metrics,
			"snapshot_count": len(sess.CdgSnapshots),
		})
	},
}

var cdgDiffCmd = &cobra.Command{
	Use:   "diff <id>",
	Short: "Compare current metrics with the latest snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		sess, err := newStore(cfg).Load(args[0])
		if err != nil {
			return err
		}
		diff, err := sess.Diff()
		if errors.Is(err, session.ErrNoSnapshot) {
			return printData(cmd, cfg, map[string]any{
				"error":   "No previous snapshot. Use 'cdg snapshot' to create one.",
				"current": sess.Metrics(),
			})
		}
		if err != nil {
			return err
		}
		return printData(cmd, cfg, diff)
	},
}

var cdgReportCmd = &cobra.Command{
	Use:   "report <id>",
	Short: "Produce the full coherence report",
	Long: `Report computes metrics, strata, orphans and the change since the last
snapshot, then assesses them against the configured thresholds.

Without --json or --md the report is printed to stdout. With them, files
are written and a summary is printed to stderr. With --llm a narrative is
generated after scoring and written next to the Markdown report as
<name>.llm.md; it never changes any number.

Example:
  dialectic cdg report 8f2c
  dialectic cdg report 8f2c --json report.json --md report.md --llm --llm-provider ollama --llm-model mistral`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		p, err := newPipeline(cmd, cfg, newStore(cfg))
		if err != nil {
			return err
		}

		report, err := p.Analyze(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if reportJSON == "" && reportMD == "" {
			return printData(cmd, cfg, report)
		}
		return p.RenderReport(report, reportJSON, reportMD)
	},
}

func init() {
	rootCmd.AddCommand(cdgCmd)
	cdgCmd.AddCommand(cdgMetricsCmd, cdgStrataCmd, cdgOrphansCmd, cdgAddEdgeCmd,
		cdgResolveCmd, cdgSnapshotCmd, cdgDiffCmd, cdgReportCmd)

	cdgAddEdgeCmd.Flags().StringVar(&edgeSource, "source", "", "source claim id")
	cdgAddEdgeCmd.Flags().StringVar(&edgeTarget, "target", "", "target claim id")
	cdgAddEdgeCmd.Flags().StringVar(&edgeType, "type", "", "edge type: support, require, tension, derive, qualify")
	cdgAddEdgeCmd.Flags().Float64Var(&edgeWeight, "weight", 1.0, "edge weight (0.0-1.0)")
	cdgAddEdgeCmd.Flags().StringVar(&edgeResolution, "resolution", "", "tension resolution: unresolved, resolved, accepted")
	_ = cdgAddEdgeCmd.MarkFlagRequired("source")
	_ = cdgAddEdgeCmd.MarkFlagRequired("target")
	_ = cdgAddEdgeCmd.MarkFlagRequired("type")

	cdgResolveCmd.Flags().IntVar(&resolveIndex, "edge-index", -1, "index of the edge in the session's edge list")
	cdgResolveCmd.Flags().StringVar(&resolveStatus, "status", "", "resolved or accepted")
	_ = cdgResolveCmd.MarkFlagRequired("edge-index")
	_ = cdgResolveCmd.MarkFlagRequired("status")

	cdgSnapshotCmd.Flags().StringVar(&snapshotPassID, "pass-id", "", "label for this pass (default: a new uuid)")

	cdgReportCmd.Flags().StringVar(&reportJSON, "json", "", "output JSON path")
	cdgReportCmd.Flags().StringVar(&reportMD, "md", "", "output Markdown path")
	addLLMFlags(cdgReportCmd)
}
