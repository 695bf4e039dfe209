// Package session reads and writes dialectic session files.
//
// A session lives at <data_dir>/sessions/sess_<id>/session.json. Only the
// fields this tool works with are typed; everything else in the file is
// carried through a load/save cycle untouched.
package session

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/ppiankov/dialectic/internal/model"
)

// Session statuses, in board order
const (
	StatusBacklog      = "backlog"
	StatusExploring    = "exploring"
	StatusTensions     = "tensions"
	StatusSynthesizing = "synthesizing"
	StatusFormed       = "formed"
)

// Session modes
const (
	ModeIdea     = "idea"
	ModeDecision = "decision"
)

// Session is one reasoning session and its claim dependency graph
type Session struct {
	ID              string           `json:"id"`
	Title           string           `json:"title"`
	Status          string           `json:"status"`
	Mode            string           `json:"mode"`
	Created         time.Time        `json:"created"`
	Updated         time.Time        `json:"updated"`
	ParentSessionID string           `json:"parentSessionId,omitempty"`
	Category        string           `json:"category,omitempty"`
	Summary         string           `json:"summary,omitempty"`
	Claims          []model.Claim    `json:"claims"`
	CdgEdges        []model.Edge     `json:"cdgEdges"`
	CdgSnapshots    []model.Snapshot `json:"cdgSnapshots"`

	// unknown top-level fields, written back verbatim
	extra map[string]json.RawMessage
}

// knownFields are the JSON keys owned by the typed fields above
var knownFields = []string{
	"id", "title", "status", "mode", "created", "updated",
	"parentSessionId", "category", "summary",
	"claims", "cdgEdges", "cdgSnapshots",
}

type sessionFields Session

func (s *Session) UnmarshalJSON(data []byte) error {
	var f sessionFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, k := range knownFields {
		delete(all, k)
	}

	*s = Session(f)
	if len(all) > 0 {
		s.extra = all
	}
	s.normalize()
	return nil
}

func (s Session) MarshalJSON() ([]byte, error) {
	s.normalize()
	known, err := json.Marshal(sessionFields(s))
	if err != nil || len(s.extra) == 0 {
		return known, err
	}

	merged := make(map[string]json.RawMessage, len(s.extra)+len(knownFields))
	for k, v := range s.extra {
		merged[k] = v
	}
	var typed map[string]json.RawMessage
	if err := json.Unmarshal(known, &typed); err != nil {
		return nil, err
	}
	for k, v := range typed {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// normalize fills defaults so the file stays readable by the desktop app,
// which rejects null lists.
func (s *Session) normalize() {
	if s.Claims == nil {
		s.Claims = []model.Claim{}
	}
	if s.CdgEdges == nil {
		s.CdgEdges = []model.Edge{}
	}
	if s.CdgSnapshots == nil {
		s.CdgSnapshots = []model.Snapshot{}
	}
	if s.Status == "" {
		s.Status = StatusBacklog
	}
	if s.Mode == "" {
		s.Mode = ModeIdea
	}
}

// Extra returns the raw value of a field this package does not model
func (s *Session) Extra(key string) (json.RawMessage, bool) {
	v, ok := s.extra[key]
	return v, ok
}

// Clone returns a copy that shares no mutable state with s
func (s *Session) Clone() *Session {
	c := *s
	c.Claims = slices.Clone(s.Claims)
	c.CdgEdges = make([]model.Edge, len(s.CdgEdges))
	for i, e := range s.CdgEdges {
		if e.Resolution != nil {
			e.Resolution = model.Resolution(*e.Resolution)
		}
		c.CdgEdges[i] = e
	}
	c.CdgSnapshots = slices.Clone(s.CdgSnapshots)
	if s.extra != nil {
		c.extra = make(map[string]json.RawMessage, len(s.extra))
		for k, v := range s.extra {
			c.extra[k] = v
		}
	}
	return &c
}
