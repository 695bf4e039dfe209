package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ppiankov/dialectic/internal/cache"
	"github.com/ppiankov/dialectic/internal/model"
)

// Waiter blocks until a request for key may proceed
type Waiter interface {
	Wait(ctx context.Context, key string) error
}

// Summarizer runs narration after scoring. Failures never propagate as
// errors; they come back as warnings on the summary.
type Summarizer struct {
	provider Provider
	config   Config

	cache    cache.Cache
	cacheTTL time.Duration
	limiter  Waiter
	logger   *slog.Logger
}

// SummarizerOption configures a Summarizer
type SummarizerOption func(*Summarizer)

// WithCache stores summaries keyed by session, model and graph fingerprint
func WithCache(c cache.Cache, ttl time.Duration) SummarizerOption {
	return func(s *Summarizer) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

// WithLimiter makes every provider call wait on w first
func WithLimiter(w Waiter) SummarizerOption {
	return func(s *Summarizer) { s.limiter = w }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) SummarizerOption {
	return func(s *Summarizer) { s.logger = l }
}

// NewSummarizer creates a summarizer for config; an empty provider yields a
// disabled summarizer.
func NewSummarizer(config Config, opts ...SummarizerOption) (*Summarizer, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}
	return newSummarizer(provider, config, opts...), nil
}

func newSummarizer(provider Provider, config Config, opts ...SummarizerOption) *Summarizer {
	s := &Summarizer{
		provider: provider,
		config:   config,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsEnabled reports whether a provider is configured
func (s *Summarizer) IsEnabled() bool {
	return s.provider != nil
}

// ProviderName returns the configured provider name or ""
func (s *Summarizer) ProviderName() string {
	if s.provider == nil {
		return ""
	}
	return s.provider.Name()
}

// GenerateSummary narrates report. It returns nil, nil when disabled.
func (s *Summarizer) GenerateSummary(ctx context.Context, report model.Report, claims []model.Claim) (*model.LLMSummary, error) {
	if s.provider == nil {
		return nil, nil
	}

	key := s.cacheKey(report, claims)
	if cached := s.fromCache(key); cached != nil {
		s.logger.Debug("narration cache hit", "session_id", report.SessionID)
		return cached, nil
	}

	summary := &model.LLMSummary{
		Enabled:    true,
		Provider:   s.provider.Name(),
		Model:      s.config.Model,
		StrictRefs: s.config.StrictRefs,
	}

	if !s.provider.IsAvailable(ctx) {
		summary.Enabled = false
		summary.Warnings = append(summary.Warnings,
			fmt.Sprintf("LLM provider '%s' is not available (check API key or connection)", s.provider.Name()))
		return summary, nil
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, s.provider.Name()); err != nil {
			summary.Warnings = append(summary.Warnings, fmt.Sprintf("Summary skipped: rate limiter: %v", err))
			return summary, nil
		}
	}

	resp, err := s.provider.Summarize(ctx, SummarizeRequest{
		Report:    report,
		Claims:    claims,
		Model:     s.config.Model,
		MaxTokens: s.config.MaxTokens,
	})
	if err != nil {
		s.logger.Warn("narration failed", "session_id", report.SessionID, "provider", s.provider.Name(), "error", err)
		summary.Warnings = append(summary.Warnings, fmt.Sprintf("Summary generation failed: %v", err))
		return summary, nil
	}

	summary.SummaryMD = resp.Summary
	summary.CitedClaims = resp.CitedClaims
	if resp.Model != "" {
		summary.Model = resp.Model
	}
	summary.Warnings = append(summary.Warnings, fmt.Sprintf("Tokens used: %d", resp.TokensUsed))
	if s.config.StrictRefs {
		summary.Warnings = append(summary.Warnings,
			fmt.Sprintf("Verified %d claim references against the session", len(resp.CitedClaims)))
	}

	s.toCache(key, summary)
	return summary, nil
}

// cacheKey changes whenever anything the prompt is built from changes
func (s *Summarizer) cacheKey(report model.Report, claims []model.Claim) string {
	h := sha256.New()
	_ = json.NewEncoder(h).Encode(struct {
		Metrics    model.Metrics
		Strata     []model.StratumEntry
		Band       model.Band
		Diff       *model.PassDiff
		Claims     []model.Claim
		StrictRefs bool
	}{report.Metrics, report.Strata, report.Assessment.Band, report.Diff, claims, s.config.StrictRefs})
	return cache.Key("summary", s.provider.Name(), s.config.Model, report.SessionID, hex.EncodeToString(h.Sum(nil)))
}

func (s *Summarizer) fromCache(key string) *model.LLMSummary {
	if s.cache == nil {
		return nil
	}
	raw, ok := s.cache.Get(key)
	if !ok {
		return nil
	}
	var summary model.LLMSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		_ = s.cache.Delete(key)
		return nil
	}
	summary.Cached = true
	return &summary
}

func (s *Summarizer) toCache(key string, summary *model.LLMSummary) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		return
	}
	if err := s.cache.Set(key, raw, s.cacheTTL); err != nil {
		s.logger.Warn("narration cache write failed", "error", err)
	}
}

// RenderSeparateMarkdown renders a summary as a standalone Markdown file,
// kept apart from the computed report.
func RenderSeparateMarkdown(summary *model.LLMSummary) string {
	if summary == nil || !summary.Enabled {
		return ""
	}

	var b strings.Builder
	b.WriteString("# LLM Summary\n\n")
	b.WriteString("> **GENERATED CONTENT.** This narrative was written by a language model from the computed report.\n")
	b.WriteString("> All metrics, strata and signals were determined independently and are not influenced by it.\n\n")

	fmt.Fprintf(&b, "- **Provider:** %s\n", summary.Provider)
	if summary.Model != "" {
		fmt.Fprintf(&b, "- **Model:** %s\n", summary.Model)
	}
	fmt.Fprintf(&b, "- **Strict Claim References:** %t\n", summary.StrictRefs)
	if summary.Cached {
		b.WriteString("- **Cached:** true\n")
	}
	b.WriteString("\n## Summary\n\n")

	if summary.SummaryMD == "" {
		b.WriteString("_No summary generated._\n")
	} else {
		b.WriteString(summary.SummaryMD)
		b.WriteString("\n")
	}

	if len(summary.CitedClaims) > 0 {
		b.WriteString("\n## Cited Claims\n\n")
		for _, id := range summary.CitedClaims {
			fmt.Fprintf(&b, "- `%s`\n", id)
		}
	}

	if len(summary.Warnings) > 0 {
		b.WriteString("\n## Notes\n\n")
		for _, w := range summary.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	return b.String()
}
