package cdg

import "github.com/ppiankov/dialectic/internal/model"

// ValidEdges returns the edges whose endpoints both exist in claims, in input order
func ValidEdges(claims []model.Claim, edges []model.Edge) []model.Edge {
	return validEdges(model.ClaimIDs(claims), edges)
}

func validEdges(ids map[string]struct{}, edges []model.Edge) []model.Edge {
	valid := make([]model.Edge, 0, len(edges))
	for _, e := range edges {
		if isValid(ids, e) {
			valid = append(valid, e)
		}
	}
	return valid
}

func isValid(ids map[string]struct{}, e model.Edge) bool {
	_, src := ids[e.SourceClaimID]
	_, tgt := ids[e.TargetClaimID]
	return src && tgt
}

// reverseAdjacency maps target -> sources for the given edges
func reverseAdjacency(edges []model.Edge) map[string][]string {
	adj := make(map[string][]string)
	for _, e := range edges {
		adj[e.TargetClaimID] = append(adj[e.TargetClaimID], e.SourceClaimID)
	}
	return adj
}

// reachBackward returns every node that reaches start by following adj
// (target -> sources) breadth-first. start is included.
func reachBackward(start string, adj map[string][]string) map[string]bool {
	seen := map[string]bool{start: true}
	queue := []string{start}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, src := range adj[node] {
			if !seen[src] {
				seen[src] = true
				queue = append(queue, src)
			}
		}
	}
	return seen
}
