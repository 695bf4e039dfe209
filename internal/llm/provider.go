package llm

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ppiankov/dialectic/internal/model"
)

// ErrUnknownClaimRef is returned in strict mode when a response cites a
// claim id that was not offered in the prompt.
var ErrUnknownClaimRef = errors.New("response cites a claim outside the allowlist")

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Summarize narrates a coherence report
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)

	// IsAvailable checks if the provider is configured and reachable
	IsAvailable(ctx context.Context) bool
}

// SummarizeRequest contains the input for narration
type SummarizeRequest struct {
	Report model.Report

	// Claims are the session's claims. Their ids form the allowlist of
	// [claim:<id>] references the response may contain.
	Claims []model.Claim

	// Prompt overrides BuildPrompt when set
	Prompt string

	Model     string
	MaxTokens int
}

// SummarizeResponse contains the narration output
type SummarizeResponse struct {
	Summary     string
	CitedClaims []string // claim ids referenced as [claim:<id>]
	Model       string
	TokensUsed  int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama" or "" to disable
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	Timeout  int // seconds

	// StrictRefs rejects responses citing claims not in the request
	StrictRefs bool
	MaxTokens  int

	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns the narration defaults; narration is off
func DefaultConfig() Config {
	return Config{
		Timeout:    30,
		StrictRefs: true,
		MaxTokens:  600,
	}
}

func (c Config) model(requested, fallback string) string {
	if requested != "" {
		return requested
	}
	if c.Model != "" {
		return c.Model
	}
	return fallback
}

func (c Config) maxTokens(requested int) int {
	if requested > 0 {
		return requested
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 600
}

func (c Config) timeout(fallback time.Duration) time.Duration {
	if c.Timeout > 0 {
		return time.Duration(c.Timeout) * time.Second
	}
	return fallback
}

const systemPrompt = "You narrate claim dependency graph reports. You describe structure, never whether claims are true."

// maxPromptClaims bounds the claim listing in the prompt
const maxPromptClaims = 40

// BuildPrompt constructs the default narration prompt
func BuildPrompt(report model.Report, claims []model.Claim) string {
	var b strings.Builder
	m := report.Metrics

	fmt.Fprintf(&b, `Summarize the coherence of the reasoning session %q.
The numbers below were computed deterministically; do not recompute or dispute them.

RULES:
1. Refer to claims ONLY as [claim:<id>] using ids from the list below.
2. Do not invent claims, ids, or metrics.
3. Describe structure (what depends on what, what is disconnected, which tensions are open), not truth.

Metrics:
- Coherence: %.3f (band: %s)
- Structural dependency density: %.3f
- Core reachability: %.3f
- Tension resolution rate: %.3f (%d of %d tensions open)
- Load-bearing ratio: %.3f
- Orphan ratio: %.3f
`, report.Title, m.Coherence, report.Assessment.Band, m.SDD, m.CoreReachability,
		m.TRR, m.UnresolvedCount, m.TensionCount, m.LBR, m.OrphanRatio)

	if core := report.CoreClaimID(); core != "" {
		fmt.Fprintf(&b, "- Core claim: [claim:%s]\n", core)
	} else {
		b.WriteString("- Core claim: none\n")
	}
	if report.Diff != nil {
		fmt.Fprintf(&b, "- Coherence change since pass %s: %+.3f\n", report.Diff.PreviousPassID, report.Diff.DeltaCoherence)
	}

	b.WriteString("\nClaims:\n")
	b.WriteString(joinClaims(claims, strataOf(report)))

	if len(report.Assessment.Signals) > 0 {
		b.WriteString("\nSignals:\n")
		for _, s := range report.Assessment.Signals {
			fmt.Fprintf(&b, "- %s (%s): %s\n", s.Type, s.Severity, s.Description)
		}
	}

	b.WriteString("\nWrite 3-5 sentences. Point at the weakest part of the structure first.")
	return b.String()
}

func strataOf(report model.Report) map[string]model.Stratum {
	out := make(map[string]model.Stratum, len(report.Strata))
	for _, e := range report.Strata {
		out[e.ClaimID] = e.Stratum
	}
	return out
}

func joinClaims(claims []model.Claim, strata map[string]model.Stratum) string {
	if len(claims) == 0 {
		return "(no claims)\n"
	}
	var b strings.Builder
	for i, c := range claims {
		if i >= maxPromptClaims {
			fmt.Fprintf(&b, "... and %d more claims\n", len(claims)-maxPromptClaims)
			break
		}
		fmt.Fprintf(&b, "- [claim:%s] %s %s\n", c.ID, strata[c.ID], truncate(c.Content, 160))
	}
	return b.String()
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var claimRefPattern = regexp.MustCompile(`\[claim:([^\]\s]+)\]`)

// extractClaimRefs returns the distinct claim ids cited in text, in order
func extractClaimRefs(text string) []string {
	seen := make(map[string]bool)
	var refs []string
	for _, m := range claimRefPattern.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			refs = append(refs, m[1])
		}
	}
	return refs
}

// checkClaimRefs extracts references and, in strict mode, rejects any id
// not present in claims.
func checkClaimRefs(summary string, claims []model.Claim, strict bool) ([]string, error) {
	refs := extractClaimRefs(summary)
	if !strict {
		return refs, nil
	}
	allowed := model.ClaimIDs(claims)
	for _, id := range refs {
		if _, ok := allowed[id]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownClaimRef, id)
		}
	}
	return refs, nil
}
