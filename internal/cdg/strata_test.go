package cdg

import (
	"testing"

	"github.com/ppiankov/dialectic/internal/model"
)

func TestComputeStrata(t *testing.T) {
	claims, edges := fixture()
	strata := ComputeStrata(claims, edges)

	want := map[string]model.Stratum{
		"A": model.StratumStructural,
		"B": model.StratumStructural,
		"C": model.StratumCore,
		"D": model.StratumEvidential,
		"E": model.StratumPeripheral,
	}

	if len(strata) != len(want) {
		t.Fatalf("expected %d strata, got %d: %v", len(want), len(strata), strata)
	}
	for id, s := range want {
		if strata[id] != s {
			t.Errorf("claim %s: expected %s, got %s", id, s, strata[id])
		}
	}
}

func TestComputeStrata_NoCore(t *testing.T) {
	claims := makeClaims("A", "B", "C")
	edges := []model.Edge{
		makeEdge("A", "B", model.EdgeSupport, 1.0),
		makeEdge("B", "C", model.EdgeDerive, 1.0),
	}

	strata := ComputeStrata(claims, edges)

	for _, c := range claims {
		if strata[c.ID] != model.StratumPeripheral {
			t.Errorf("claim %s: expected PERIPHERAL without core, got %s", c.ID, strata[c.ID])
		}
	}
}

func TestComputeStrata_RequireCycleHasNoCore(t *testing.T) {
	// Every claim in a cycle has an outgoing REQUIRE edge, so none qualifies.
	claims := makeClaims("A", "B")
	edges := []model.Edge{
		makeEdge("A", "B", model.EdgeRequire, 1.0),
		makeEdge("B", "A", model.EdgeRequire, 1.0),
	}

	strata := ComputeStrata(claims, edges)

	if strata["A"] != model.StratumPeripheral || strata["B"] != model.StratumPeripheral {
		t.Errorf("expected both PERIPHERAL, got %v", strata)
	}
}

func TestComputeStrata_MultipleCoreCandidates(t *testing.T) {
	// X has two incoming REQUIRE edges, Y has one.
	claims := makeClaims("P", "Q", "R", "X", "Y")
	edges := []model.Edge{
		makeEdge("R", "Y", model.EdgeRequire, 1.0),
		makeEdge("P", "X", model.EdgeRequire, 1.0),
		makeEdge("Q", "X", model.EdgeRequire, 1.0),
	}

	strata := ComputeStrata(claims, edges)

	if strata["X"] != model.StratumCore {
		t.Errorf("expected X to be CORE, got %s", strata["X"])
	}
	if strata["Y"] != model.StratumPeripheral {
		t.Errorf("expected losing candidate Y to be PERIPHERAL, got %s", strata["Y"])
	}
	if strata["P"] != model.StratumStructural || strata["Q"] != model.StratumStructural {
		t.Errorf("expected P and Q STRUCTURAL, got P=%s Q=%s", strata["P"], strata["Q"])
	}
	if strata["R"] != model.StratumPeripheral {
		t.Errorf("expected R (requires losing candidate) PERIPHERAL, got %s", strata["R"])
	}
}

func TestComputeStrata_DuplicateEdgesCountTowardCore(t *testing.T) {
	// Y receives the same REQUIRE edge twice and beats X with one.
	claims := makeClaims("A", "B", "X", "Y")
	edges := []model.Edge{
		makeEdge("A", "X", model.EdgeRequire, 1.0),
		makeEdge("B", "Y", model.EdgeRequire, 1.0),
		makeEdge("B", "Y", model.EdgeRequire, 0.5),
	}

	strata := ComputeStrata(claims, edges)

	if strata["Y"] != model.StratumCore {
		t.Errorf("expected Y to be CORE, got %s", strata["Y"])
	}
}

func TestComputeStrata_TieIsDeterministic(t *testing.T) {
	claims := makeClaims("M", "N", "S", "T")
	edges := []model.Edge{
		makeEdge("S", "N", model.EdgeRequire, 1.0),
		makeEdge("T", "M", model.EdgeRequire, 1.0),
	}

	for i := 0; i < 50; i++ {
		strata := ComputeStrata(claims, edges)
		if strata["M"] != model.StratumCore {
			t.Fatalf("run %d: expected tie to resolve to M, got M=%s N=%s", i, strata["M"], strata["N"])
		}
	}
}

func TestComputeStrata_TransitiveStructural(t *testing.T) {
	claims := makeClaims("A", "B", "C", "D")
	edges := []model.Edge{
		makeEdge("A", "B", model.EdgeRequire, 1.0),
		makeEdge("B", "C", model.EdgeRequire, 1.0),
		makeEdge("C", "D", model.EdgeRequire, 1.0),
	}

	strata := ComputeStrata(claims, edges)

	if strata["D"] != model.StratumCore {
		t.Fatalf("expected D CORE, got %s", strata["D"])
	}
	for _, id := range []string{"A", "B", "C"} {
		if strata[id] != model.StratumStructural {
			t.Errorf("expected %s STRUCTURAL, got %s", id, strata[id])
		}
	}
}

func TestComputeStrata_SupportIntoCoreIsEvidential(t *testing.T) {
	claims := makeClaims("A", "C", "S")
	edges := []model.Edge{
		makeEdge("A", "C", model.EdgeRequire, 1.0),
		makeEdge("S", "C", model.EdgeSupport, 1.0),
	}

	strata := ComputeStrata(claims, edges)

	if strata["S"] != model.StratumEvidential {
		t.Errorf("expected S EVIDENTIAL, got %s", strata["S"])
	}
}

func TestComputeStrata_StructuralStaysStructuralWhenSupporting(t *testing.T) {
	// A is STRUCTURAL and also supports B; it must not be demoted.
	claims := makeClaims("A", "B", "C")
	edges := []model.Edge{
		makeEdge("A", "B", model.EdgeRequire, 1.0),
		makeEdge("B", "C", model.EdgeRequire, 1.0),
		makeEdge("A", "B", model.EdgeSupport, 1.0),
	}

	strata := ComputeStrata(claims, edges)

	if strata["A"] != model.StratumStructural {
		t.Errorf("expected A STRUCTURAL, got %s", strata["A"])
	}
}

func TestComputeStrata_SupportIntoPeripheralIsPeripheral(t *testing.T) {
	claims, edges := fixture()
	edges = append(edges, makeEdge("F", "E", model.EdgeSupport, 1.0))
	claims = append(claims, makeClaim("F"))

	strata := ComputeStrata(claims, edges)

	if strata["F"] != model.StratumPeripheral {
		t.Errorf("expected F PERIPHERAL, got %s", strata["F"])
	}
}

func TestComputeStrata_IgnoresDanglingRequire(t *testing.T) {
	// Z is not a claim: A -> Z would otherwise make A a non-candidate and
	// Z the core.
	claims := makeClaims("A", "B")
	edges := []model.Edge{
		makeEdge("B", "A", model.EdgeRequire, 1.0),
		makeEdge("A", "Z", model.EdgeRequire, 1.0),
	}

	strata := ComputeStrata(claims, edges)

	if _, ok := strata["Z"]; ok {
		t.Error("unknown claim Z must not receive a stratum")
	}
	if strata["A"] != model.StratumCore {
		t.Errorf("expected A CORE, got %s", strata["A"])
	}
	if strata["B"] != model.StratumStructural {
		t.Errorf("expected B STRUCTURAL, got %s", strata["B"])
	}
}

func TestComputeStrata_Empty(t *testing.T) {
	strata := ComputeStrata(nil, nil)
	if len(strata) != 0 {
		t.Errorf("expected empty strata, got %v", strata)
	}
}

func TestSortedStrata(t *testing.T) {
	claims, edges := fixture()
	entries := SortedStrata(ComputeStrata(claims, edges))

	wantIDs := []string{"A", "B", "C", "D", "E"}
	if len(entries) != len(wantIDs) {
		t.Fatalf("expected %d entries, got %d", len(wantIDs), len(entries))
	}
	for i, id := range wantIDs {
		if entries[i].ClaimID != id {
			t.Errorf("entry %d: expected %s, got %s", i, id, entries[i].ClaimID)
		}
	}
	if entries[2].Stratum != model.StratumCore {
		t.Errorf("expected C CORE, got %s", entries[2].Stratum)
	}
}

func TestCountStrata(t *testing.T) {
	claims, edges := fixture()
	counts := CountStrata(ComputeStrata(claims, edges))

	if counts[model.StratumCore] != 1 || counts[model.StratumStructural] != 2 ||
		counts[model.StratumEvidential] != 1 || counts[model.StratumPeripheral] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
}
