package cdg

import "github.com/ppiankov/dialectic/internal/model"

// Composite coherence weights; they sum to 1.0
const (
	CoherenceWeightSDD       = 0.35
	CoherenceWeightCR        = 0.25
	CoherenceWeightTRR       = 0.25
	CoherenceWeightConnected = 0.15 // applied to 1 - orphan ratio
)

// ComputeMetrics computes the six coherence scores and the edge counts.
//
//	SDD       = sum(EdgeWeight(valid)) / (n * (n-1))
//	OR        = |FindOrphans| / n
//	CR        = |claims reaching CORE over any valid edge| / n, or 0 without CORE
//	TRR       = (resolved + accepted) / tensions, or 1 without tensions
//	LBR       = |CORE + STRUCTURAL| / n
//	coherence = 0.35*SDD + 0.25*CR + 0.25*TRR + 0.15*(1 - OR)
//
// With no claims every field is zero.
func ComputeMetrics(claims []model.Claim, edges []model.Edge) model.Metrics {
	n := len(claims)
	if n == 0 {
		return model.Metrics{}
	}

	ids := model.ClaimIDs(claims)
	valid := validEdges(ids, edges)

	var sdd float64
	if maxEdges := n * (n - 1); maxEdges > 0 {
		var sum float64
		for _, e := range valid {
			sum += EdgeWeight(e)
		}
		sdd = sum / float64(maxEdges)
	}

	orphanRatio := float64(len(FindOrphans(claims, edges))) / float64(n)

	strata := ComputeStrata(claims, edges)

	var coreReachability float64
	if core, ok := coreOf(strata); ok {
		reach := reachBackward(core, reverseAdjacency(valid))
		coreReachability = float64(len(reach)) / float64(n)
	}

	var tensions, resolved, accepted int
	for _, e := range valid {
		if e.EdgeType != model.EdgeTension {
			continue
		}
		tensions++
		switch e.ResolutionOf() {
		case model.ResolutionResolved:
			resolved++
		case model.ResolutionAccepted:
			accepted++
		}
	}
	trr := 1.0
	if tensions > 0 {
		trr = float64(resolved+accepted) / float64(tensions)
	}

	var loadBearing int
	for _, s := range strata {
		if s.IsLoadBearing() {
			loadBearing++
		}
	}
	lbr := float64(loadBearing) / float64(n)

	return model.Metrics{
		SDD:              sdd,
		OrphanRatio:      orphanRatio,
		CoreReachability: coreReachability,
		TRR:              trr,
		LBR:              lbr,
		Coherence:        Coherence(sdd, coreReachability, trr, orphanRatio),
		ClaimCount:       n,
		EdgeCount:        len(valid),
		TensionCount:     tensions,
		ResolvedCount:    resolved,
		AcceptedCount:    accepted,
		UnresolvedCount:  tensions - resolved - accepted,
	}
}

// Coherence combines the component scores with the fixed weights
func Coherence(sdd, coreReachability, trr, orphanRatio float64) float64 {
	return CoherenceWeightSDD*sdd +
		CoherenceWeightCR*coreReachability +
		CoherenceWeightTRR*trr +
		CoherenceWeightConnected*(1-orphanRatio)
}
