package model

import "time"

// Report is the complete coherence analysis of one session
type Report struct {
	SessionID  string    `json:"sessionId" yaml:"sessionId"`
	Title      string    `json:"title" yaml:"title"`
	ComputedAt time.Time `json:"computedAt" yaml:"computedAt"`

	Metrics Metrics        `json:"metrics" yaml:"metrics"`
	Strata  []StratumEntry `json:"strata" yaml:"strata"`   // Ordered by claim id
	Orphans []string       `json:"orphans" yaml:"orphans"` // Ordered by claim id
	Diff    *PassDiff      `json:"diff,omitempty" yaml:"diff,omitempty"`

	Assessment Assessment `json:"assessment" yaml:"assessment"`

	LLM *LLMSummary `json:"llm,omitempty" yaml:"llm,omitempty"` // Optional narrative (never affects metrics)
}

// CoreClaimID returns the id of the Core claim, or "" when the graph has none
func (r Report) CoreClaimID() string {
	for _, e := range r.Strata {
		if e.Stratum == StratumCore {
			return e.ClaimID
		}
	}
	return ""
}

// Assessment summarizes metrics into a band and diagnostic signals
type Assessment struct {
	Band    Band     `json:"band" yaml:"band"`
	Signals []Signal `json:"signals" yaml:"signals"`
}

// Band is a coarse coherence classification
type Band string

const (
	BandEmpty  Band = "empty"
	BandLow    Band = "low"
	BandMedium Band = "medium"
	BandHigh   Band = "high"
)

// Signal represents a diagnostic signal with transparent scoring data
type Signal struct {
	Type        SignalType     `json:"type" yaml:"type"`
	Severity    SignalSeverity `json:"severity" yaml:"severity"`
	Description string         `json:"description" yaml:"description"`
	Data        map[string]any `json:"data,omitempty" yaml:"data,omitempty"` // Inputs and formula behind the signal
}

// SignalType classifies the type of diagnostic signal
type SignalType string

const (
	SignalCoherence           SignalType = "coherence"            // Composite score, always present
	SignalNoCore              SignalType = "no_core"              // No claim anchors the REQUIRE chain
	SignalLowDensity          SignalType = "low_density"          // Sparse or weak dependencies
	SignalOrphans             SignalType = "orphans"              // Disconnected claims
	SignalUnresolvedTensions  SignalType = "unresolved_tensions"  // Open TENSION edges
	SignalLowLoadBearing      SignalType = "low_load_bearing"     // Few claims carry the structure
	SignalCoherenceRegression SignalType = "coherence_regression" // Coherence dropped since last pass
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)

// HasSignal reports whether the assessment carries a signal of type t
func (a Assessment) HasSignal(t SignalType) bool {
	for _, s := range a.Signals {
		if s.Type == t {
			return true
		}
	}
	return false
}

// LLMSummary contains an optional LLM-generated narrative.
// It is produced after scoring and is never read back by it.
type LLMSummary struct {
	Enabled     bool     `json:"enabled" yaml:"enabled"`
	Provider    string   `json:"provider,omitempty" yaml:"provider,omitempty"`
	Model       string   `json:"model,omitempty" yaml:"model,omitempty"`
	StrictRefs  bool     `json:"strictRefs" yaml:"strictRefs"` // Whether claim reference enforcement was on
	SummaryMD   string   `json:"summaryMd,omitempty" yaml:"summaryMd,omitempty"`
	CitedClaims []string `json:"citedClaims,omitempty" yaml:"citedClaims,omitempty"`
	Cached      bool     `json:"cached,omitempty" yaml:"cached,omitempty"`
	Warnings    []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}
