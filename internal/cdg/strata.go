package cdg

import (
	"slices"

	"github.com/ppiankov/dialectic/internal/model"
)

// ComputeStrata assigns every claim exactly one stratum from REQUIRE topology.
//
//   - CORE: the claim with incoming but no outgoing REQUIRE edges. When several
//     qualify, the one with the most incoming REQUIRE edges wins (duplicates
//     count); equal counts go to the smallest id.
//   - STRUCTURAL: claims that require CORE, directly or transitively.
//   - EVIDENTIAL: claims with a SUPPORT edge into CORE or STRUCTURAL that are
//     not load-bearing themselves.
//   - PERIPHERAL: everything else, including every claim when there is no CORE.
func ComputeStrata(claims []model.Claim, edges []model.Edge) map[string]model.Stratum {
	ids := model.ClaimIDs(claims)
	strata := make(map[string]model.Stratum, len(ids))

	var require []model.Edge
	for _, e := range edges {
		if e.EdgeType == model.EdgeRequire && isValid(ids, e) {
			require = append(require, e)
		}
	}

	if core, ok := selectCore(ids, require); ok {
		loadBearing := reachBackward(core, reverseAdjacency(require))
		for id := range loadBearing {
			if id == core {
				strata[id] = model.StratumCore
			} else {
				strata[id] = model.StratumStructural
			}
		}

		for _, e := range edges {
			if e.EdgeType != model.EdgeSupport {
				continue
			}
			if _, ok := ids[e.SourceClaimID]; !ok {
				continue
			}
			if !loadBearing[e.TargetClaimID] || loadBearing[e.SourceClaimID] {
				continue
			}
			if _, set := strata[e.SourceClaimID]; !set {
				strata[e.SourceClaimID] = model.StratumEvidential
			}
		}
	}

	for _, c := range claims {
		if _, set := strata[c.ID]; !set {
			strata[c.ID] = model.StratumPeripheral
		}
	}

	return strata
}

// selectCore picks the REQUIRE sink with the highest incoming count
func selectCore(ids map[string]struct{}, require []model.Edge) (string, bool) {
	incoming := make(map[string]int)
	outgoing := make(map[string]bool)
	for _, e := range require {
		incoming[e.TargetClaimID]++
		outgoing[e.SourceClaimID] = true
	}

	var candidates []string
	for id := range ids {
		if incoming[id] > 0 && !outgoing[id] {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		return "", false
	}
	slices.Sort(candidates)

	best := candidates[0]
	for _, id := range candidates[1:] {
		if incoming[id] > incoming[best] {
			best = id
		}
	}
	return best, true
}

// coreOf returns the Core claim id in strata, if any
func coreOf(strata map[string]model.Stratum) (string, bool) {
	for id, s := range strata {
		if s == model.StratumCore {
			return id, true
		}
	}
	return "", false
}

// SortedStrata returns strata as entries ordered by claim id
func SortedStrata(strata map[string]model.Stratum) []model.StratumEntry {
	entries := make([]model.StratumEntry, 0, len(strata))
	for id, s := range strata {
		entries = append(entries, model.StratumEntry{ClaimID: id, Stratum: s})
	}
	slices.SortFunc(entries, func(a, b model.StratumEntry) int {
		switch {
		case a.ClaimID < b.ClaimID:
			return -1
		case a.ClaimID > b.ClaimID:
			return 1
		}
		return 0
	})
	return entries
}

// CountStrata tallies claims per stratum
func CountStrata(strata map[string]model.Stratum) map[model.Stratum]int {
	counts := make(map[model.Stratum]int, 4)
	for _, s := range strata {
		counts[s]++
	}
	return counts
}
