package cdg

import "github.com/ppiankov/dialectic/internal/model"

// Edge type weights. Fixed by the coherence model, not configuration.
const (
	WeightRequire = 1.0
	WeightDerive  = 0.9
	WeightSupport = 0.7
	WeightTension = 0.5 // base; scaled by ResolutionBonus
	WeightQualify = 0.3
)

// Tension resolution multipliers
const (
	BonusResolved   = 1.5
	BonusAccepted   = 1.0
	BonusUnresolved = 0.3
)

// TypeWeight returns the fixed weight of an edge type.
// Unknown types weigh 0; parsing them is the caller's job.
func TypeWeight(t model.EdgeType) float64 {
	switch t {
	case model.EdgeRequire:
		return WeightRequire
	case model.EdgeDerive:
		return WeightDerive
	case model.EdgeSupport:
		return WeightSupport
	case model.EdgeTension:
		return WeightTension
	case model.EdgeQualify:
		return WeightQualify
	default:
		return 0
	}
}

// ResolutionBonus scales TENSION edges by how they were handled.
// Every other edge type gets 1.0.
func ResolutionBonus(e model.Edge) float64 {
	if e.EdgeType != model.EdgeTension {
		return 1.0
	}
	switch e.ResolutionOf() {
	case model.ResolutionResolved:
		return BonusResolved
	case model.ResolutionAccepted:
		return BonusAccepted
	default:
		return BonusUnresolved
	}
}

// EdgeWeight is weight * type weight * resolution bonus.
// The product is not guaranteed to stay within [0,1].
func EdgeWeight(e model.Edge) float64 {
	return e.Weight * TypeWeight(e.EdgeType) * ResolutionBonus(e)
}
