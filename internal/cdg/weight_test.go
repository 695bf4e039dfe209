package cdg

import (
	"math"
	"testing"

	"github.com/ppiankov/dialectic/internal/model"
)

const epsilon = 1e-9

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestTypeWeight(t *testing.T) {
	tests := []struct {
		edgeType model.EdgeType
		want     float64
	}{
		{model.EdgeRequire, 1.0},
		{model.EdgeDerive, 0.9},
		{model.EdgeSupport, 0.7},
		{model.EdgeTension, 0.5},
		{model.EdgeQualify, 0.3},
		{model.EdgeType("BOGUS"), 0},
	}

	for _, tt := range tests {
		if got := TypeWeight(tt.edgeType); got != tt.want {
			t.Errorf("TypeWeight(%s) = %v, want %v", tt.edgeType, got, tt.want)
		}
	}
}

func TestResolutionBonus(t *testing.T) {
	tests := []struct {
		name string
		edge model.Edge
		want float64
	}{
		{"resolved tension", makeTension("A", "B", 1, model.ResolutionResolved), 1.5},
		{"accepted tension", makeTension("A", "B", 1, model.ResolutionAccepted), 1.0},
		{"unresolved tension", makeTension("A", "B", 1, model.ResolutionUnresolved), 0.3},
		{"tension without status", makeEdge("A", "B", model.EdgeTension, 1), 0.3},
		{"support", makeEdge("A", "B", model.EdgeSupport, 1), 1.0},
		{"require", makeEdge("A", "B", model.EdgeRequire, 1), 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolutionBonus(tt.edge); got != tt.want {
				t.Errorf("ResolutionBonus() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolutionBonus_IgnoredOnNonTension(t *testing.T) {
	// A resolution on a non-tension edge is a caller bug; the engine ignores it.
	e := makeEdge("A", "B", model.EdgeSupport, 1)
	e.Resolution = model.Resolution(model.ResolutionResolved)

	if got := ResolutionBonus(e); got != 1.0 {
		t.Errorf("expected bonus 1.0 for support edge, got %v", got)
	}
}

func TestEdgeWeight(t *testing.T) {
	tests := []struct {
		name string
		edge model.Edge
		want float64
	}{
		{"full require", makeEdge("A", "B", model.EdgeRequire, 1.0), 1.0},
		{"support 0.7", makeEdge("A", "B", model.EdgeSupport, 0.7), 0.49},
		{"half derive", makeEdge("A", "B", model.EdgeDerive, 0.5), 0.45},
		{"qualify", makeEdge("A", "B", model.EdgeQualify, 1.0), 0.3},
		{"resolved tension", makeTension("A", "B", 1.0, model.ResolutionResolved), 0.75},
		{"accepted tension", makeTension("A", "B", 1.0, model.ResolutionAccepted), 0.5},
		{"unresolved tension", makeTension("A", "B", 1.0, model.ResolutionUnresolved), 0.15},
		{"zero weight", makeEdge("A", "B", model.EdgeRequire, 0), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EdgeWeight(tt.edge); !approxEqual(got, tt.want) {
				t.Errorf("EdgeWeight() = %v, want %v", got, tt.want)
			}
		})
	}
}
