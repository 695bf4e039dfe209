package llm

import (
	"time"

	"github.com/ppiankov/dialectic/internal/model"
)

func testClaims() []model.Claim {
	ts := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return []model.Claim{
		{ID: "c1", Content: "Usage pricing aligns revenue with value", SourceID: "s", CreatedAt: ts},
		{ID: "c2", Content: "Customers accept metered billing", SourceID: "s", CreatedAt: ts},
		{ID: "c3", Content: "Infrastructure cost scales with usage", SourceID: "s", CreatedAt: ts},
	}
}

func testReport() model.Report {
	return model.Report{
		SessionID: "sess1",
		Title:     "Pricing",
		Metrics: model.Metrics{
			SDD: 0.12, OrphanRatio: 0.33, CoreReachability: 0.66, TRR: 0.5, LBR: 0.66,
			Coherence: 0.51, ClaimCount: 3, EdgeCount: 2, TensionCount: 2, ResolvedCount: 1, UnresolvedCount: 1,
		},
		Strata: []model.StratumEntry{
			{ClaimID: "c1", Stratum: model.StratumCore},
			{ClaimID: "c2", Stratum: model.StratumStructural},
			{ClaimID: "c3", Stratum: model.StratumPeripheral},
		},
		Orphans: []string{"c3"},
		Assessment: model.Assessment{
			Band: model.BandMedium,
			Signals: []model.Signal{
				{Type: model.SignalOrphans, Severity: model.SeverityWarning, Description: "33% of claims are not connected to any other"},
			},
		},
	}
}
