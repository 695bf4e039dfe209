// Demo program walking one claim graph through two passes.
// It prints metrics and strata, resolves a tension, and prints the diff.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/dialectic/internal/cdg"
	"github.com/ppiankov/dialectic/internal/model"
	"github.com/ppiankov/dialectic/internal/validate"
)

func main() {
	fmt.Println("=== Claim Dependency Graph Demo ===")
	fmt.Println()

	now := time.Now()
	var claims []model.Claim
	for _, c := range []struct{ id, content string }{
		{"A", "Remote teams ship slower without written decisions"},
		{"B", "Written decisions reduce rework"},
		{"C", "Rework dominates delivery time"},
		{"D", "Survey: 60% of rework traced to undocumented choices"},
		{"E", "Most teams use chat as their primary channel"},
		{"F", "Written decisions slow down early exploration"},
	} {
		claims = append(claims, model.Claim{ID: c.id, Content: c.content, SourceID: "demo", CreatedAt: now})
	}

	var edges []model.Edge
	for _, in := range []validate.EdgeInput{
		{Source: "A", Target: "B", Type: "require", Weight: 1},
		{Source: "B", Target: "C", Type: "require", Weight: 1},
		{Source: "D", Target: "B", Type: "support", Weight: 0.7},
		{Source: "F", Target: "B", Type: "tension", Weight: 0.8},
	} {
		e, err := validate.NewEdge(claims, in, now)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid edge: %v\n", err)
			os.Exit(1)
		}
		edges = append(edges, e)
	}

	first := cdg.ComputeMetrics(claims, edges)
	printPass("Pass 1", claims, edges, first)
	snap := model.Snapshot{PassID: "pass-1", Metrics: first, Timestamp: now}

	// Resolve the tension and connect the orphan
	edges[3].Resolution = model.Resolution(model.ResolutionResolved)
	e, err := validate.NewEdge(claims, validate.EdgeInput{Source: "E", Target: "A", Type: "qualify", Weight: 0.5}, now)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid edge: %v\n", err)
		os.Exit(1)
	}
	edges = append(edges, e)

	second := cdg.ComputeMetrics(claims, edges)
	printPass("Pass 2", claims, edges, second)

	d := cdg.ComputePassDiff(second, snap)
	fmt.Println("Change since pass-1")
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("  Coherence:          %+.3f\n", d.DeltaCoherence)
	fmt.Printf("  SDD:                %+.3f\n", d.DeltaSDD)
	fmt.Printf("  Orphan ratio:       %+.3f\n", d.DeltaOrphanRatio)
	fmt.Printf("  TRR:                %+.3f\n", d.DeltaTRR)
	fmt.Println()
}

func printPass(name string, claims []model.Claim, edges []model.Edge, m model.Metrics) {
	fmt.Println(name)
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("  Coherence:          %.3f\n", m.Coherence)
	fmt.Printf("  SDD:                %.3f\n", m.SDD)
	fmt.Printf("  Core reachability:  %.3f\n", m.CoreReachability)
	fmt.Printf("  Orphan ratio:       %.3f\n", m.OrphanRatio)
	fmt.Printf("  TRR:                %.3f (%d of %d tensions settled)\n", m.TRR, m.ResolvedCount+m.AcceptedCount, m.TensionCount)
	fmt.Printf("  LBR:                %.3f\n", m.LBR)
	fmt.Println("  Strata:")
	for _, s := range cdg.SortedStrata(cdg.ComputeStrata(claims, edges)) {
		fmt.Printf("    %s  %s\n", s.ClaimID, s.Stratum)
	}
	fmt.Println()
}
