package validate

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ppiankov/dialectic/internal/model"
)

var (
	ErrUnknownEdgeType        = errors.New("unknown edge type")
	ErrUnknownResolution      = errors.New("unknown resolution status")
	ErrClaimNotFound          = errors.New("claim not found")
	ErrEdgeIndexOutOfRange    = errors.New("edge index out of range")
	ErrNotTension             = errors.New("edge is not a tension")
	ErrResolutionOnNonTension = errors.New("resolution is only valid on tension edges")
)

// ParseEdgeType accepts an edge type name in any case
func ParseEdgeType(s string) (model.EdgeType, error) {
	t := model.EdgeType(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range model.EdgeTypes {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q (expected support, require, tension, derive or qualify)", ErrUnknownEdgeType, s)
}

// ParseResolution accepts unresolved, resolved or accepted in any case
func ParseResolution(s string) (model.ResolutionStatus, error) {
	switch r := model.ResolutionStatus(strings.ToUpper(strings.TrimSpace(s))); r {
	case model.ResolutionUnresolved, model.ResolutionResolved, model.ResolutionAccepted:
		return r, nil
	}
	return "", fmt.Errorf("%w: %q (expected unresolved, resolved or accepted)", ErrUnknownResolution, s)
}

// ParseResolveStatus is ParseResolution restricted to the two closing
// statuses a tension can be moved to.
func ParseResolveStatus(s string) (model.ResolutionStatus, error) {
	r, err := ParseResolution(s)
	if err != nil {
		return "", err
	}
	if r == model.ResolutionUnresolved {
		return "", fmt.Errorf("%w: %q (expected resolved or accepted)", ErrUnknownResolution, s)
	}
	return r, nil
}

// ClampWeight forces a weight into [0, 1]. NaN becomes 0.
func ClampWeight(w float64) float64 {
	if math.IsNaN(w) || w < 0 {
		return 0
	}
	if w > 1 {
		return 1
	}
	return w
}

// EdgeInput is an edge as typed by a user, before validation
type EdgeInput struct {
	Source     string
	Target     string
	Type       string
	Weight     float64
	Resolution string // optional
}

// NewEdge validates in against claims and builds the edge to append.
// Both endpoints must exist, the weight is clamped, and a tension without
// an explicit resolution starts UNRESOLVED.
func NewEdge(claims []model.Claim, in EdgeInput, now time.Time) (model.Edge, error) {
	ids := model.ClaimIDs(claims)
	if _, ok := ids[in.Source]; !ok {
		return model.Edge{}, fmt.Errorf("source %q: %w", in.Source, ErrClaimNotFound)
	}
	if _, ok := ids[in.Target]; !ok {
		return model.Edge{}, fmt.Errorf("target %q: %w", in.Target, ErrClaimNotFound)
	}

	edgeType, err := ParseEdgeType(in.Type)
	if err != nil {
		return model.Edge{}, err
	}

	edge := model.Edge{
		SourceClaimID: in.Source,
		TargetClaimID: in.Target,
		EdgeType:      edgeType,
		Weight:        ClampWeight(in.Weight),
		CreatedAt:     now.UTC(),
	}

	switch {
	case in.Resolution != "" && edgeType != model.EdgeTension:
		return model.Edge{}, fmt.Errorf("%s edge: %w", edgeType, ErrResolutionOnNonTension)
	case in.Resolution != "":
		r, err := ParseResolution(in.Resolution)
		if err != nil {
			return model.Edge{}, err
		}
		edge.Resolution = model.Resolution(r)
	case edgeType == model.EdgeTension:
		edge.Resolution = model.Resolution(model.ResolutionUnresolved)
	}

	return edge, nil
}

// CheckResolvable reports whether edges[index] exists and is a tension
func CheckResolvable(edges []model.Edge, index int) error {
	if index < 0 || index >= len(edges) {
		return fmt.Errorf("%w: %d (have %d edges)", ErrEdgeIndexOutOfRange, index, len(edges))
	}
	if t := edges[index].EdgeType; t != model.EdgeTension {
		return fmt.Errorf("edge %d is %s: %w", index, t, ErrNotTension)
	}
	return nil
}

// DanglingEdges returns the indices of edges with an endpoint that is not a
// known claim. The engine ignores these; callers surface them as warnings.
func DanglingEdges(claims []model.Claim, edges []model.Edge) []int {
	ids := model.ClaimIDs(claims)
	var out []int
	for i, e := range edges {
		_, src := ids[e.SourceClaimID]
		_, tgt := ids[e.TargetClaimID]
		if !src || !tgt {
			out = append(out, i)
		}
	}
	return out
}
