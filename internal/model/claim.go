package model

import "time"

// Claim is an atomic proposition tracked within a reasoning session.
// Claims are owned by the session store; graph computations only read them.
type Claim struct {
	ID        string    `json:"id" yaml:"id"`
	Content   string    `json:"content" yaml:"content"`
	SourceID  string    `json:"sourceId" yaml:"sourceId"`
	Marker    *string   `json:"marker,omitempty" yaml:"marker,omitempty"` // [INSIGHT], [EVIDENCE], [RISK], [COUNTER]
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
}

// MarkerText returns the claim marker or "" when none is set
func (c Claim) MarkerText() string {
	if c.Marker == nil {
		return ""
	}
	return *c.Marker
}

// ClaimIDs returns the set of ids present in claims
func ClaimIDs(claims []Claim) map[string]struct{} {
	ids := make(map[string]struct{}, len(claims))
	for _, c := range claims {
		ids[c.ID] = struct{}{}
	}
	return ids
}
