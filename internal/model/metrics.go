package model

import "time"

// Stratum is a claim's structural role derived from REQUIRE topology
type Stratum string

const (
	StratumCore       Stratum = "CORE"
	StratumStructural Stratum = "STRUCTURAL"
	StratumEvidential Stratum = "EVIDENTIAL"
	StratumPeripheral Stratum = "PERIPHERAL"
)

// IsLoadBearing reports whether the stratum is Core or Structural
func (s Stratum) IsLoadBearing() bool {
	return s == StratumCore || s == StratumStructural
}

// StratumEntry is one row of an ordered strata listing
type StratumEntry struct {
	ClaimID string  `json:"claimId" yaml:"claimId"`
	Stratum Stratum `json:"stratum" yaml:"stratum"`
}

// Metrics is the structural-coherence bundle for a claim graph at one point in time.
//
// SDD and therefore Coherence are not bounded to [0,1]: a resolved tension edge
// weighs up to 0.75 and dense graphs can sum past n*(n-1). Values are reported
// as computed, never clamped.
type Metrics struct {
	SDD              float64 `json:"sdd" yaml:"sdd"`
	OrphanRatio      float64 `json:"orphanRatio" yaml:"orphanRatio"`
	CoreReachability float64 `json:"coreReachability" yaml:"coreReachability"`
	TRR              float64 `json:"trr" yaml:"trr"`
	LBR              float64 `json:"lbr" yaml:"lbr"`
	Coherence        float64 `json:"coherence" yaml:"coherence"`

	ClaimCount      int `json:"claimCount" yaml:"claimCount"`
	EdgeCount       int `json:"edgeCount" yaml:"edgeCount"` // Valid edges only
	TensionCount    int `json:"tensionCount" yaml:"tensionCount"`
	ResolvedCount   int `json:"resolvedCount" yaml:"resolvedCount"`
	AcceptedCount   int `json:"acceptedCount" yaml:"acceptedCount"`
	UnresolvedCount int `json:"unresolvedCount" yaml:"unresolvedCount"`
}

// Snapshot marks a pass: metrics frozen for later comparison.
// Append-only; created explicitly by the caller.
type Snapshot struct {
	PassID    string    `json:"passId" yaml:"passId"`
	Metrics   Metrics   `json:"metrics" yaml:"metrics"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// PassDiff compares current metrics against a stored snapshot
type PassDiff struct {
	PreviousPassID string  `json:"previousPassId" yaml:"previousPassId"`
	Current        Metrics `json:"current" yaml:"current"`
	Previous       Metrics `json:"previous" yaml:"previous"`

	DeltaSDD              float64 `json:"deltaSdd" yaml:"deltaSdd"`
	DeltaOrphanRatio      float64 `json:"deltaOrphanRatio" yaml:"deltaOrphanRatio"`
	DeltaCoreReachability float64 `json:"deltaCoreReachability" yaml:"deltaCoreReachability"`
	DeltaTRR              float64 `json:"deltaTrr" yaml:"deltaTrr"`
	DeltaLBR              float64 `json:"deltaLbr" yaml:"deltaLbr"`
	DeltaCoherence        float64 `json:"deltaCoherence" yaml:"deltaCoherence"`
}
