package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/dialectic/internal/model"
	"github.com/ppiankov/dialectic/internal/validate"
)

func graphSession() *Session {
	claims := []model.Claim{
		{ID: "A", Content: "a", SourceID: "s", CreatedAt: fixedNow},
		{ID: "B", Content: "b", SourceID: "s", CreatedAt: fixedNow},
		{ID: "C", Content: "c", SourceID: "s", CreatedAt: fixedNow},
	}
	return &Session{ID: "g", Title: "graph", Claims: claims}
}

func TestSession_AddEdge(t *testing.T) {
	s := graphSession()

	edge, err := s.AddEdge(validate.EdgeInput{Source: "A", Target: "B", Type: "Require", Weight: 3}, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 1.0, edge.Weight)
	assert.Len(t, s.CdgEdges, 1)

	_, err = s.AddEdge(validate.EdgeInput{Source: "A", Target: "B", Type: "support", Resolution: "resolved"}, fixedNow)
	assert.ErrorIs(t, err, validate.ErrResolutionOnNonTension)
	assert.Len(t, s.CdgEdges, 1)
}

func TestSession_ResolveTension(t *testing.T) {
	s := graphSession()
	_, err := s.AddEdge(validate.EdgeInput{Source: "A", Target: "B", Type: "support", Weight: 1}, fixedNow)
	require.NoError(t, err)
	_, err = s.AddEdge(validate.EdgeInput{Source: "B", Target: "C", Type: "tension", Weight: 1}, fixedNow)
	require.NoError(t, err)

	before := s.Metrics()
	require.NoError(t, s.ResolveTension(1, "resolved"))
	assert.Equal(t, model.ResolutionResolved, s.CdgEdges[1].ResolutionOf())
	assert.Greater(t, s.Metrics().TRR, before.TRR)

	assert.ErrorIs(t, s.ResolveTension(0, "resolved"), validate.ErrNotTension)
	assert.ErrorIs(t, s.ResolveTension(5, "resolved"), validate.ErrEdgeIndexOutOfRange)
	assert.ErrorIs(t, s.ResolveTension(1, "unresolved"), validate.ErrUnknownResolution)
}

func TestSession_SnapshotAndDiff(t *testing.T) {
	s := graphSession()

	_, err := s.Diff()
	assert.ErrorIs(t, err, ErrNoSnapshot)

	snap := s.TakeSnapshot("p1", fixedNow)
	assert.Equal(t, "p1", snap.PassID)
	assert.Equal(t, 3, snap.Metrics.ClaimCount)

	_, err = s.AddEdge(validate.EdgeInput{Source: "A", Target: "B", Type: "require", Weight: 1}, fixedNow)
	require.NoError(t, err)

	diff, err := s.Diff()
	require.NoError(t, err)
	assert.Equal(t, "p1", diff.PreviousPassID)
	assert.Greater(t, diff.DeltaCoherence, 0.0)

	s.TakeSnapshot("p2", fixedNow)
	latest, ok := s.LatestSnapshot()
	require.True(t, ok)
	assert.Equal(t, "p2", latest.PassID)
}

func TestSession_ImportClaims(t *testing.T) {
	s := graphSession()

	added := s.ImportClaims([]model.Claim{
		{ID: "D", Content: "new idea"},
		{ID: "E", Content: "  A  "},       // same content as A
		{ID: "F", Content: "New   Idea"},  // same as D after normalization
		{ID: "B", Content: "different b"}, // id collision
		{ID: "G", Content: "another"},
	})

	assert.Equal(t, 2, added)
	assert.Len(t, s.Claims, 5)
	assert.Equal(t, "D", s.Claims[3].ID)
	assert.Equal(t, "G", s.Claims[4].ID)
}
