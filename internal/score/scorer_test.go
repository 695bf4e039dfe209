package score

import (
	"testing"
	"time"

	"github.com/ppiankov/dialectic/internal/cdg"
	"github.com/ppiankov/dialectic/internal/model"
)

func claim(id string) model.Claim {
	return model.Claim{ID: id, Content: "claim " + id, SourceID: "s", CreatedAt: time.Unix(0, 0)}
}

func edge(src, tgt string, t model.EdgeType, w float64) model.Edge {
	return model.Edge{SourceClaimID: src, TargetClaimID: tgt, EdgeType: t, Weight: w}
}

// wellFormed is the A->B->C REQUIRE chain with D supporting B and E orphaned
func wellFormed() model.Metrics {
	claims := []model.Claim{claim("A"), claim("B"), claim("C"), claim("D"), claim("E")}
	edges := []model.Edge{
		edge("A", "B", model.EdgeRequire, 1),
		edge("B", "C", model.EdgeRequire, 1),
		edge("D", "B", model.EdgeSupport, 0.7),
	}
	return cdg.ComputeMetrics(claims, edges)
}

func signalOf(a model.Assessment, t model.SignalType) (model.Signal, bool) {
	for _, s := range a.Signals {
		if s.Type == t {
			return s, true
		}
	}
	return model.Signal{}, false
}

func TestAssessor_WellFormedGraph(t *testing.T) {
	a := NewAssessor(model.DefaultThresholds())
	result := a.Assess(wellFormed(), nil)

	if result.Band != model.BandMedium {
		t.Errorf("Expected medium band, got %s", result.Band)
	}
	if len(result.Signals) != 1 || result.Signals[0].Type != model.SignalCoherence {
		t.Errorf("Expected only the coherence signal, got %+v", result.Signals)
	}

	data := result.Signals[0].Data
	if _, ok := data["formula"]; !ok {
		t.Error("Expected coherence signal to carry its formula")
	}

	sum := data["sdd_term"].(float64) + data["reachability_term"].(float64) +
		data["trr_term"].(float64) + data["connectedness_term"].(float64)
	if diff := sum - data["coherence"].(float64); diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Expected terms to add up to coherence, off by %v", diff)
	}
}

func TestAssessor_Empty(t *testing.T) {
	a := NewAssessor(model.DefaultThresholds())
	result := a.Assess(model.Metrics{}, nil)

	if result.Band != model.BandEmpty {
		t.Errorf("Expected empty band, got %s", result.Band)
	}
	if result.HasSignal(model.SignalNoCore) {
		t.Error("Expected no structural signals for an empty session")
	}
}

func TestAssessor_Bands(t *testing.T) {
	a := NewAssessor(model.DefaultThresholds())

	tests := []struct {
		coherence float64
		want      model.Band
	}{
		{0.95, model.BandHigh},
		{0.7, model.BandHigh},
		{0.69, model.BandMedium},
		{0.4, model.BandMedium},
		{0.39, model.BandLow},
		{0, model.BandLow},
		{1.3, model.BandHigh},
	}

	for _, tt := range tests {
		m := model.Metrics{ClaimCount: 3, Coherence: tt.coherence, CoreReachability: 1, SDD: 1, TRR: 1, LBR: 1}
		if got := a.Assess(m, nil).Band; got != tt.want {
			t.Errorf("coherence %v: expected %s, got %s", tt.coherence, tt.want, got)
		}
	}
}

func TestAssessor_StructuralSignals(t *testing.T) {
	a := NewAssessor(model.DefaultThresholds())

	// Three claims, one unresolved tension, nothing else.
	claims := []model.Claim{claim("A"), claim("B"), claim("C")}
	tension := edge("A", "B", model.EdgeTension, 1)
	tension.Resolution = model.Resolution(model.ResolutionUnresolved)
	m := cdg.ComputeMetrics(claims, []model.Edge{tension})

	result := a.Assess(m, nil)

	for _, want := range []model.SignalType{
		model.SignalNoCore,
		model.SignalOrphans,
		model.SignalUnresolvedTensions,
		model.SignalLowLoadBearing,
	} {
		if !result.HasSignal(want) {
			t.Errorf("Expected %s signal", want)
		}
	}
	if result.Band != model.BandLow {
		t.Errorf("Expected low band, got %s", result.Band)
	}

	tensions, _ := signalOf(result, model.SignalUnresolvedTensions)
	if tensions.Severity != model.SeverityWarning {
		t.Errorf("Expected warning for TRR 0, got %s", tensions.Severity)
	}
	if tensions.Data["unresolved"] != 1 {
		t.Errorf("Expected 1 unresolved tension in data, got %v", tensions.Data["unresolved"])
	}
}

func TestAssessor_LowDensity(t *testing.T) {
	a := NewAssessor(model.DefaultThresholds())
	m := model.Metrics{ClaimCount: 10, SDD: 0.01, CoreReachability: 1, TRR: 1, LBR: 1, Coherence: 0.6}

	sig, ok := signalOf(a.Assess(m, nil), model.SignalLowDensity)
	if !ok {
		t.Fatal("Expected low_density signal")
	}
	if sig.Data["threshold"] != 0.05 {
		t.Errorf("Expected threshold 0.05 in data, got %v", sig.Data["threshold"])
	}
}

func TestAssessor_OrphanSeverity(t *testing.T) {
	a := NewAssessor(model.DefaultThresholds())

	tests := []struct {
		ratio    float64
		fired    bool
		severity model.SignalSeverity
	}{
		{0.25, false, ""},
		{0.3, true, model.SeverityWarning},
		{0.5, true, model.SeverityWarning},
		{0.6, true, model.SeverityCritical},
	}

	for _, tt := range tests {
		m := model.Metrics{ClaimCount: 10, OrphanRatio: tt.ratio, SDD: 1, CoreReachability: 1, TRR: 1, LBR: 1}
		sig, ok := signalOf(a.Assess(m, nil), model.SignalOrphans)
		if ok != tt.fired {
			t.Errorf("ratio %v: expected fired=%v", tt.ratio, tt.fired)
			continue
		}
		if ok && sig.Severity != tt.severity {
			t.Errorf("ratio %v: expected %s, got %s", tt.ratio, tt.severity, sig.Severity)
		}
	}
}

func TestAssessor_Regression(t *testing.T) {
	a := NewAssessor(model.DefaultThresholds())
	current := wellFormed()

	tests := []struct {
		name  string
		delta float64
		fired bool
	}{
		{"improved", 0.1, false},
		{"unchanged", 0, false},
		{"small drop", -0.04, false},
		{"at threshold", -0.05, true},
		{"large drop", -0.3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diff := &model.PassDiff{PreviousPassID: "p1", Current: current, DeltaCoherence: tt.delta}
			sig, ok := signalOf(a.Assess(current, diff), model.SignalCoherenceRegression)
			if ok != tt.fired {
				t.Fatalf("Expected fired=%v for delta %v", tt.fired, tt.delta)
			}
			if ok && sig.Severity != model.SeverityCritical {
				t.Errorf("Expected critical severity, got %s", sig.Severity)
			}
		})
	}
}

func TestAssessor_CustomThresholds(t *testing.T) {
	th := model.DefaultThresholds()
	th.High = 0.5
	a := NewAssessor(th)

	if got := a.Assess(wellFormed(), nil).Band; got != model.BandHigh {
		t.Errorf("Expected high band with lowered threshold, got %s", got)
	}
}
