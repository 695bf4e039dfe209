package model

import "time"

// EdgeType classifies the relation an edge expresses
type EdgeType string

const (
	EdgeSupport EdgeType = "SUPPORT" // Source backs up target
	EdgeRequire EdgeType = "REQUIRE" // Source depends on target
	EdgeTension EdgeType = "TENSION" // Source conflicts with target
	EdgeDerive  EdgeType = "DERIVE"  // Source follows from target
	EdgeQualify EdgeType = "QUALIFY" // Source narrows target
)

// EdgeTypes lists every edge type in declaration order
var EdgeTypes = []EdgeType{EdgeSupport, EdgeRequire, EdgeTension, EdgeDerive, EdgeQualify}

// ResolutionStatus tracks how a tension was handled.
// Only meaningful on TENSION edges.
type ResolutionStatus string

const (
	ResolutionUnresolved ResolutionStatus = "UNRESOLVED"
	ResolutionResolved   ResolutionStatus = "RESOLVED"
	ResolutionAccepted   ResolutionStatus = "ACCEPTED"
)

// Edge is a typed, weighted, directed relation between two claims.
// Source "depends on / relates to" target.
type Edge struct {
	SourceClaimID string            `json:"sourceClaimId" yaml:"sourceClaimId"`
	TargetClaimID string            `json:"targetClaimId" yaml:"targetClaimId"`
	EdgeType      EdgeType          `json:"edgeType" yaml:"edgeType"`
	Weight        float64           `json:"weight" yaml:"weight"` // Caller clamps to [0,1]
	Resolution    *ResolutionStatus `json:"resolution,omitempty" yaml:"resolution,omitempty"`
	CreatedAt     time.Time         `json:"createdAt" yaml:"createdAt"`
}

// ResolutionOf returns the edge resolution, treating absent as unresolved
func (e Edge) ResolutionOf() ResolutionStatus {
	if e.Resolution == nil {
		return ResolutionUnresolved
	}
	return *e.Resolution
}

// Resolution returns a pointer to s, for building edges
func Resolution(s ResolutionStatus) *ResolutionStatus {
	return &s
}
