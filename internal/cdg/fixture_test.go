package cdg

import (
	"time"

	"github.com/ppiankov/dialectic/internal/model"
)

var testTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func makeClaim(id string) model.Claim {
	return model.Claim{
		ID:        id,
		Content:   "Claim " + id,
		SourceID:  "src1",
		CreatedAt: testTime,
	}
}

func makeClaims(ids ...string) []model.Claim {
	claims := make([]model.Claim, len(ids))
	for i, id := range ids {
		claims[i] = makeClaim(id)
	}
	return claims
}

func makeEdge(src, tgt string, t model.EdgeType, weight float64) model.Edge {
	return model.Edge{
		SourceClaimID: src,
		TargetClaimID: tgt,
		EdgeType:      t,
		Weight:        weight,
		CreatedAt:     testTime,
	}
}

func makeTension(src, tgt string, weight float64, status model.ResolutionStatus) model.Edge {
	e := makeEdge(src, tgt, model.EdgeTension, weight)
	e.Resolution = model.Resolution(status)
	return e
}

// fixture builds:
//
//	A --REQUIRE--> B --REQUIRE--> C (core)
//	D --SUPPORT--> B
//	E (orphan)
func fixture() ([]model.Claim, []model.Edge) {
	claims := makeClaims("A", "B", "C", "D", "E")
	edges := []model.Edge{
		makeEdge("A", "B", model.EdgeRequire, 1.0),
		makeEdge("B", "C", model.EdgeRequire, 1.0),
		makeEdge("D", "B", model.EdgeSupport, 0.7),
	}
	return claims, edges
}
