package cdg

import "github.com/ppiankov/dialectic/internal/model"

// ComputePassDiff subtracts a snapshot's metrics from current ones
func ComputePassDiff(current model.Metrics, previous model.Snapshot) model.PassDiff {
	prev := previous.Metrics
	return model.PassDiff{
		PreviousPassID:        previous.PassID,
		Current:               current,
		Previous:              prev,
		DeltaSDD:              current.SDD - prev.SDD,
		DeltaOrphanRatio:      current.OrphanRatio - prev.OrphanRatio,
		DeltaCoreReachability: current.CoreReachability - prev.CoreReachability,
		DeltaTRR:              current.TRR - prev.TRR,
		DeltaLBR:              current.LBR - prev.LBR,
		DeltaCoherence:        current.Coherence - prev.Coherence,
	}
}
