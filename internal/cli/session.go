package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/dialectic/internal/cdg"
	"github.com/ppiankov/dialectic/internal/extract"
	"github.com/ppiankov/dialectic/internal/model"
	"github.com/ppiankov/dialectic/internal/session"
)

var (
	importSource string
	createMode   string
	forkTitle    string
	deleteYes    bool
)

// sessionCmd groups session management commands
var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "List, inspect and manage sessions",
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions, most recently updated first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		sessions, err := newStore(cfg).List()
		if err != nil {
			return err
		}

		type item struct {
			ID         string `json:"id" yaml:"id"`
			Title      string `json:"title" yaml:"title"`
			Status     string `json:"status" yaml:"status"`
			Mode       string `json:"mode" yaml:"mode"`
			Updated    string `json:"updated" yaml:"updated"`
			ClaimCount int    `json:"claim_count" yaml:"claim_count"`
			EdgeCount  int    `json:"edge_count" yaml:"edge_count"`
		}
		items := make([]item, 0, len(sessions))
		for _, s := range sessions {
			items = append(items, item{
				ID:         s.ID,
				Title:      s.Title,
				Status:     s.Status,
				Mode:       s.Mode,
				Updated:    s.Updated.Format(time.RFC3339),
				ClaimCount: len(s.Claims),
				EdgeCount:  len(s.CdgEdges),
			})
		}
		return printData(cmd, cfg, items)
	},
}

type edgeView struct {
	Index      int                     `json:"index" yaml:"index"`
	Source     string                  `json:"source" yaml:"source"`
	Target     string                  `json:"target" yaml:"target"`
	Type       model.EdgeType          `json:"type" yaml:"type"`
	Weight     float64                 `json:"weight" yaml:"weight"`
	Resolution *model.ResolutionStatus `json:"resolution,omitempty" yaml:"resolution,omitempty"`
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a session's claims and edges",
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

		edges := make([]edgeView, 0, len(sess.CdgEdges))
		for i, e := range sess.CdgEdges {
			edges = append(edges, edgeView{
				Index:      i,
				Source:     e.SourceClaimID,
				Target:     e.TargetClaimID,
				Type:       e.EdgeType,
				Weight:     e.Weight,
				Resolution: e.Resolution,
			})
		}

		return printData(cmd, cfg, map[string]any{
			"id":                sess.ID,
			"title":             sess.Title,
			"status":            sess.Status,
			"mode":              sess.Mode,
			"created":           sess.Created.Format(time.RFC3339),
			"updated":           sess.Updated.Format(time.RFC3339),
			"parent_session_id": sess.ParentSessionID,
			"claims":            sess.Claims,
			"edges":             edges,
			"snapshot_count":    len(sess.CdgSnapshots),
		})
	},
}

// suggestedActions maps a session status to the next step
var suggestedActions = map[string]string{
	session.StatusBacklog:      "Begin exploration to develop an initial thesis",
	session.StatusExploring:    "Continue exploring to surface tensions",
	session.StatusTensions:     "Work through open tensions: resolve or accept them",
	session.StatusSynthesizing: "Synthesize findings into a coherent thesis",
	session.StatusFormed:       "Review and finalize the thesis",
}

var sessionResumeCmd = &cobra.Command{
	Use:   "resume <id>",
	Short: "Show where a session stands and what to do next",
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

		m := sess.Metrics()
		out := map[string]any{
			"session_id":       sess.ID,
			"title":            sess.Title,
			"status":           sess.Status,
			"claim_count":      m.ClaimCount,
			"open_tensions":    m.UnresolvedCount,
			"coherence":        m.Coherence,
			"suggested_action": suggestedActions[sess.Status],
		}

		strata := cdg.ComputeStrata(sess.Claims, sess.CdgEdges)
		for _, c := range sess.Claims {
			if strata[c.ID] == model.StratumCore {
				out["core_claim"] = c.Content
				break
			}
		}
		if m.UnresolvedCount > 0 && sess.Status != session.StatusTensions {
			out["suggested_action"] = suggestedActions[session.StatusTensions]
		}
		return printData(cmd, cfg, out)
	},
}

var sessionImportCmd = &cobra.Command{
	Use:   "import <id> <file>",
	Short: "Import marked claims from a Markdown or HTML note",
	Long: `Import scans a note for semantic markers and appends each marked span
as a claim:

  [INSIGHT] [EVIDENCE] [RISK] [COUNTER] [PATTERN] [ASSUMPTION]

A span runs from its marker to the next marker or the end of the line.
Claims whose content is already in the session are skipped, so importing
the same note twice adds nothing.

Example:
  dialectic session import 8f2c notes.md
  dialectic session import 8f2c export.html --source interview-3`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		path := args[1]
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read note: %w", err)
		}

		source := importSource
		if source == "" {
			source = filepath.Base(path)
		}

		extractor := extract.NewMarkerExtractor()
		var claims []model.Claim
		switch strings.ToLower(filepath.Ext(path)) {
		case ".html", ".htm":
			claims, err = extractor.ExtractHTML(string(data), source)
			if err != nil {
				return fmt.Errorf("parse HTML: %w", err)
			}
		default:
			claims = extractor.Extract(string(data), source)
		}

		added := 0
		sess, err := newStore(cfg).Update(cmd.Context(), args[0], func(s *session.Session) error {
			added = s.ImportClaims(claims)
			return nil
		})
		if err != nil {
			return err
		}

		return printData(cmd, cfg, map[string]any{
			"status":      "imported",
			"extracted":   len(claims),
			"added":       added,
			"claim_count": len(sess.Claims),
		})
	},
}

var sessionCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create an empty session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store := newStore(cfg)
		sess, err := store.Create(args[0], createMode)
		if err != nil {
			return err
		}
		path, _ := store.Path(sess.ID)
		return printData(cmd, cfg, map[string]any{
			"status": "created",
			"id":     sess.ID,
			"title":  sess.Title,
			"mode":   sess.Mode,
			"path":   path,
		})
	},
}

var sessionForkCmd = &cobra.Command{
	Use:   "fork <id>",
	Short: "Copy a session's claims and edges into a new session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		forked, err := newStore(cfg).Fork(args[0], forkTitle)
		if err != nil {
			return err
		}
		return printData(cmd, cfg, map[string]any{
			"status":            "forked",
			"id":                forked.ID,
			"title":             forked.Title,
			"parent_session_id": forked.ParentSessionID,
			"claim_count":       len(forked.Claims),
			"edge_count":        len(forked.CdgEdges),
		})
	},
}

var sessionDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a session and everything in its directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !deleteYes {
			return errors.New("refusing to delete without --yes")
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := newStore(cfg).Delete(args[0]); err != nil {
			return err
		}
		return printData(cmd, cfg, map[string]any{"status": "deleted", "id": args[0]})
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionListCmd, sessionShowCmd, sessionResumeCmd, sessionImportCmd,
		sessionCreateCmd, sessionForkCmd, sessionDeleteCmd)

	sessionImportCmd.Flags().StringVar(&importSource, "source", "", "source id recorded on imported claims (default: file name)")
	sessionCreateCmd.Flags().StringVar(&createMode, "mode", session.ModeIdea, "session mode (idea, decision)")
	sessionForkCmd.Flags().StringVar(&forkTitle, "title", "", "title of the new session (default: \"<title> (fork)\")")
	sessionDeleteCmd.Flags().BoolVar(&deleteYes, "yes", false, "confirm deletion")
}
