package cdg

import (
	"slices"

	"github.com/ppiankov/dialectic/internal/model"
)

// FindOrphans returns the ids of claims that appear in no edge, sorted.
//
// Unlike the metrics, this looks at every edge, including edges whose other
// endpoint is not a known claim.
func FindOrphans(claims []model.Claim, edges []model.Edge) []string {
	connected := make(map[string]struct{}, len(edges)*2)
	for _, e := range edges {
		connected[e.SourceClaimID] = struct{}{}
		connected[e.TargetClaimID] = struct{}{}
	}

	orphans := []string{}
	for _, c := range claims {
		if _, ok := connected[c.ID]; !ok {
			orphans = append(orphans, c.ID)
		}
	}
	slices.Sort(orphans)
	return orphans
}
