package score

import (
	"fmt"

	"github.com/ppiankov/dialectic/internal/cdg"
	"github.com/ppiankov/dialectic/internal/model"
)

// Assessor turns graph metrics into a coherence band and diagnostic signals.
// It reads thresholds only; the coherence formula itself is fixed in cdg.
type Assessor struct {
	thresholds model.Thresholds
}

// NewAssessor creates an assessor with the given thresholds
func NewAssessor(thresholds model.Thresholds) *Assessor {
	return &Assessor{thresholds: thresholds}
}

// Assess classifies metrics. diff may be nil when no snapshot exists.
func (a *Assessor) Assess(m model.Metrics, diff *model.PassDiff) model.Assessment {
	if m.ClaimCount == 0 {
		return model.Assessment{
			Band: model.BandEmpty,
			Signals: []model.Signal{{
				Type:        model.SignalCoherence,
				Severity:    model.SeverityInfo,
				Description: "Session has no claims",
				Data:        map[string]any{"claims": 0},
			}},
		}
	}

	signals := []model.Signal{a.coherenceSignal(m)}
	for _, check := range []func(model.Metrics) (model.Signal, bool){
		a.checkCore,
		a.checkDensity,
		a.checkOrphans,
		a.checkTensions,
		a.checkLoadBearing,
	} {
		if sig, fired := check(m); fired {
			signals = append(signals, sig)
		}
	}
	if diff != nil {
		if sig, fired := a.checkRegression(*diff); fired {
			signals = append(signals, sig)
		}
	}

	return model.Assessment{
		Band:    a.band(m.Coherence),
		Signals: signals,
	}
}

func (a *Assessor) band(coherence float64) model.Band {
	switch {
	case coherence >= a.thresholds.High:
		return model.BandHigh
	case coherence >= a.thresholds.Medium:
		return model.BandMedium
	default:
		return model.BandLow
	}
}

// coherenceSignal breaks the composite score into its weighted terms
func (a *Assessor) coherenceSignal(m model.Metrics) model.Signal {
	return model.Signal{
		Type:        model.SignalCoherence,
		Severity:    model.SeverityInfo,
		Description: fmt.Sprintf("Coherence %.3f (%s)", m.Coherence, a.band(m.Coherence)),
		Data: map[string]any{
			"coherence":          m.Coherence,
			"sdd_term":           cdg.CoherenceWeightSDD * m.SDD,
			"reachability_term":  cdg.CoherenceWeightCR * m.CoreReachability,
			"trr_term":           cdg.CoherenceWeightTRR * m.TRR,
			"connectedness_term": cdg.CoherenceWeightConnected * (1 - m.OrphanRatio),
			"threshold_high":     a.thresholds.High,
			"threshold_medium":   a.thresholds.Medium,
			"formula":            "0.35*sdd + 0.25*core_reachability + 0.25*trr + 0.15*(1 - orphan_ratio)",
		},
	}
}

func (a *Assessor) checkCore(m model.Metrics) (model.Signal, bool) {
	if m.CoreReachability > 0 {
		return model.Signal{}, false
	}
	return model.Signal{
		Type:        model.SignalNoCore,
		Severity:    model.SeverityWarning,
		Description: "No core claim: nothing is required by others without itself requiring something",
		Data: map[string]any{
			"claims":            m.ClaimCount,
			"core_reachability": m.CoreReachability,
			"lbr":               m.LBR,
		},
	}, true
}

func (a *Assessor) checkDensity(m model.Metrics) (model.Signal, bool) {
	if m.SDD >= a.thresholds.MinSDD {
		return model.Signal{}, false
	}
	return model.Signal{
		Type:        model.SignalLowDensity,
		Severity:    model.SeverityWarning,
		Description: fmt.Sprintf("Sparse dependencies: density %.3f below %.3f", m.SDD, a.thresholds.MinSDD),
		Data: map[string]any{
			"sdd":       m.SDD,
			"edges":     m.EdgeCount,
			"claims":    m.ClaimCount,
			"threshold": a.thresholds.MinSDD,
			"formula":   "sum(weight * type_weight * resolution_bonus) / (n * (n - 1))",
		},
	}, true
}

func (a *Assessor) checkOrphans(m model.Metrics) (model.Signal, bool) {
	if m.OrphanRatio <= a.thresholds.MaxOrphanRatio {
		return model.Signal{}, false
	}
	severity := model.SeverityWarning
	if m.OrphanRatio > 2*a.thresholds.MaxOrphanRatio {
		severity = model.SeverityCritical
	}
	return model.Signal{
		Type:        model.SignalOrphans,
		Severity:    severity,
		Description: fmt.Sprintf("%.0f%% of claims are not connected to any other", m.OrphanRatio*100),
		Data: map[string]any{
			"orphan_ratio": m.OrphanRatio,
			"threshold":    a.thresholds.MaxOrphanRatio,
			"formula":      "orphans / claims",
		},
	}, true
}

func (a *Assessor) checkTensions(m model.Metrics) (model.Signal, bool) {
	if m.UnresolvedCount == 0 {
		return model.Signal{}, false
	}
	severity := model.SeverityInfo
	if m.TRR < a.thresholds.MinTRR {
		severity = model.SeverityWarning
	}
	return model.Signal{
		Type:        model.SignalUnresolvedTensions,
		Severity:    severity,
		Description: fmt.Sprintf("%d of %d tensions unresolved", m.UnresolvedCount, m.TensionCount),
		Data: map[string]any{
			"tensions":   m.TensionCount,
			"resolved":   m.ResolvedCount,
			"accepted":   m.AcceptedCount,
			"unresolved": m.UnresolvedCount,
			"trr":        m.TRR,
			"threshold":  a.thresholds.MinTRR,
			"formula":    "(resolved + accepted) / tensions",
		},
	}, true
}

func (a *Assessor) checkLoadBearing(m model.Metrics) (model.Signal, bool) {
	if m.LBR >= a.thresholds.MinLBR {
		return model.Signal{}, false
	}
	return model.Signal{
		Type:        model.SignalLowLoadBearing,
		Severity:    model.SeverityInfo,
		Description: fmt.Sprintf("Only %.0f%% of claims are core or structural", m.LBR*100),
		Data: map[string]any{
			"lbr":       m.LBR,
			"threshold": a.thresholds.MinLBR,
			"formula":   "(core + structural) / claims",
		},
	}, true
}

func (a *Assessor) checkRegression(d model.PassDiff) (model.Signal, bool) {
	if d.DeltaCoherence > -a.thresholds.RegressionDelta {
		return model.Signal{}, false
	}
	return model.Signal{
		Type:     model.SignalCoherenceRegression,
		Severity: model.SeverityCritical,
		Description: fmt.Sprintf("Coherence fell %.3f since pass %s (%.3f -> %.3f)",
			-d.DeltaCoherence, d.PreviousPassID, d.Previous.Coherence, d.Current.Coherence),
		Data: map[string]any{
			"previous_pass_id": d.PreviousPassID,
			"delta_coherence":  d.DeltaCoherence,
			"delta_sdd":        d.DeltaSDD,
			"delta_trr":        d.DeltaTRR,
			"delta_orphans":    d.DeltaOrphanRatio,
			"threshold":        a.thresholds.RegressionDelta,
		},
	}, true
}
