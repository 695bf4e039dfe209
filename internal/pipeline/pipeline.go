package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ppiankov/dialectic/internal/cdg"
	"github.com/ppiankov/dialectic/internal/llm"
	"github.com/ppiankov/dialectic/internal/model"
	"github.com/ppiankov/dialectic/internal/score"
	"github.com/ppiankov/dialectic/internal/session"
	"github.com/ppiankov/dialectic/internal/validate"
)

// SessionLoader reads sessions by id
type SessionLoader interface {
	Load(id string) (*session.Session, error)
}

// Pipeline orchestrates the complete analysis of a session
type Pipeline struct {
	sessions   SessionLoader
	assessor   *score.Assessor
	renderer   *Renderer
	summarizer *llm.Summarizer // Optional narrator (nil if disabled)
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithSummarizer enables narration after scoring
func WithSummarizer(s *llm.Summarizer) Option {
	return func(p *Pipeline) { p.summarizer = s }
}

// WithLogger sets the logger; the default is slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithRenderer replaces the default renderer
func WithRenderer(r *Renderer) Option {
	return func(p *Pipeline) { p.renderer = r }
}

// WithClock replaces time.Now for report timestamps
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(sessions SessionLoader, cfg *model.Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		sessions: sessions,
		assessor: score.NewAssessor(cfg.Thresholds),
		renderer: NewRenderer(cfg.Output.IncludeFooter, nil),
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Analyze loads a session and produces its report
func (p *Pipeline) Analyze(ctx context.Context, sessionID string) (*model.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sess, err := p.sessions.Load(sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return p.AnalyzeSession(ctx, sess)
}

// AnalyzeSession produces the report for an already loaded session
func (p *Pipeline) AnalyzeSession(ctx context.Context, sess *session.Session) (*model.Report, error) {
	if dangling := validate.DanglingEdges(sess.Claims, sess.CdgEdges); len(dangling) > 0 {
		p.logger.Warn("session has edges referencing unknown claims; they are ignored",
			"session_id", sess.ID, "edge_indexes", dangling)
	}

	// 1. Engine
	metrics := sess.Metrics()
	report := &model.Report{
		SessionID:  sess.ID,
		Title:      sess.Title,
		ComputedAt: p.now().UTC(),
		Metrics:    metrics,
		Strata:     cdg.SortedStrata(cdg.ComputeStrata(sess.Claims, sess.CdgEdges)),
		Orphans:    cdg.FindOrphans(sess.Claims, sess.CdgEdges),
	}

	// 2. Change since the last pass
	diff, err := sess.Diff()
	switch {
	case err == nil:
		report.Diff = &diff
	case !errors.Is(err, session.ErrNoSnapshot):
		return nil, fmt.Errorf("diff: %w", err)
	}

	// 3. Assessment
	report.Assessment = p.assessor.Assess(metrics, report.Diff)

	// 4. Narration runs after scoring and never changes it
	if p.summarizer != nil && p.summarizer.IsEnabled() {
		summary, err := p.summarizer.GenerateSummary(ctx, *report, sess.Claims)
		if err != nil {
			p.logger.Warn("LLM summary generation failed", "session_id", sess.ID, "error", err)
		} else if summary != nil {
			report.LLM = summary
		}
	}

	p.logger.Debug("analyzed session", "session_id", sess.ID,
		"coherence", metrics.Coherence, "band", report.Assessment.Band)
	return report, nil
}

// RenderReport writes the report to the requested files and prints a
// summary. The narrative, when present, goes to a separate .llm.md file
// next to the Markdown report.
func (p *Pipeline) RenderReport(report *model.Report, jsonPath, mdPath string) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		p.logger.Info("wrote JSON report", "path", jsonPath)
	}

	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		p.logger.Info("wrote Markdown report", "path", mdPath)
	}

	if report.LLM != nil && report.LLM.Enabled && mdPath != "" {
		llmPath := strings.TrimSuffix(mdPath, ".md") + ".llm.md"
		if err := p.renderer.RenderLLMMarkdown(llm.RenderSeparateMarkdown(report.LLM), llmPath); err != nil {
			p.logger.Warn("failed to write LLM summary", "path", llmPath, "error", err)
		} else {
			p.logger.Info("wrote LLM summary", "path", llmPath)
		}
	}

	p.renderer.RenderSummary(report)
	return nil
}
