package session

import (
	"time"

	"github.com/ppiankov/dialectic/internal/cdg"
	"github.com/ppiankov/dialectic/internal/extract"
	"github.com/ppiankov/dialectic/internal/model"
	"github.com/ppiankov/dialectic/internal/validate"
)

// AddEdge validates in and appends the resulting edge
func (s *Session) AddEdge(in validate.EdgeInput, now time.Time) (model.Edge, error) {
	edge, err := validate.NewEdge(s.Claims, in, now)
	if err != nil {
		return model.Edge{}, err
	}
	s.CdgEdges = append(s.CdgEdges, edge)
	return edge, nil
}

// ResolveTension sets the resolution of the tension edge at index.
// status must be resolved or accepted.
func (s *Session) ResolveTension(index int, status string) error {
	if err := validate.CheckResolvable(s.CdgEdges, index); err != nil {
		return err
	}
	r, err := validate.ParseResolveStatus(status)
	if err != nil {
		return err
	}
	s.CdgEdges[index].Resolution = model.Resolution(r)
	return nil
}

// Metrics computes the current graph metrics
func (s *Session) Metrics() model.Metrics {
	return cdg.ComputeMetrics(s.Claims, s.CdgEdges)
}

// TakeSnapshot records the current metrics under passID
func (s *Session) TakeSnapshot(passID string, now time.Time) model.Snapshot {
	snap := model.Snapshot{
		PassID:    passID,
		Metrics:   s.Metrics(),
		Timestamp: now.UTC(),
	}
	s.CdgSnapshots = append(s.CdgSnapshots, snap)
	return snap
}

// LatestSnapshot returns the most recently appended snapshot
func (s *Session) LatestSnapshot() (model.Snapshot, bool) {
	if len(s.CdgSnapshots) == 0 {
		return model.Snapshot{}, false
	}
	return s.CdgSnapshots[len(s.CdgSnapshots)-1], true
}

// Diff compares the current metrics with the latest snapshot.
// It returns ErrNoSnapshot when none has been taken.
func (s *Session) Diff() (model.PassDiff, error) {
	prev, ok := s.LatestSnapshot()
	if !ok {
		return model.PassDiff{}, ErrNoSnapshot
	}
	return cdg.ComputePassDiff(s.Metrics(), prev), nil
}

// ImportClaims appends claims whose id and normalized content are new to
// the session, and returns how many were added.
func (s *Session) ImportClaims(claims []model.Claim) int {
	ids := model.ClaimIDs(s.Claims)
	seen := make(map[string]struct{}, len(s.Claims))
	for _, c := range s.Claims {
		seen[extract.NormalizeContent(c.Content)] = struct{}{}
	}

	added := 0
	for _, c := range claims {
		key := extract.NormalizeContent(c.Content)
		if _, dup := seen[key]; dup {
			continue
		}
		if _, dup := ids[c.ID]; dup {
			continue
		}
		seen[key] = struct{}{}
		ids[c.ID] = struct{}{}
		s.Claims = append(s.Claims, c)
		added++
	}
	return added
}
