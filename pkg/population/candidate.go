// Package population maintains the bounded, fitness-ranked collection of
// evaluated candidates that drives the search: acceptance and eviction of
// members, best-ever tracking that survives eviction, and elite-biased
// sampling of parents for the next round of generation.
package population

import (
	"time"

	"github.com/google/uuid"
)

// Candidate is one evaluated program together with its fitness and lineage.
// A Candidate is immutable once stored; derived candidates are new values
// carrying the parent's ID, never a pointer to the parent.
type Candidate struct {
	ID         string                 `json:"id"`
	Source     string                 `json:"source"`
	Fitness    float64                `json:"fitness"`
	Metadata   map[string]interface{} `json:"metadata"`
	Generation int                    `json:"generation"`
	ParentID   string                 `json:"parent_id,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// NewCandidate builds a candidate with a fresh ID. ParentID may be empty for
// seed candidates.
func NewCandidate(source string, fitness float64, metadata map[string]interface{}, generation int, parentID string) *Candidate {
	return &Candidate{
		ID:         uuid.New().String(),
		Source:     source,
		Fitness:    fitness,
		Metadata:   metadata,
		Generation: generation,
		ParentID:   parentID,
		CreatedAt:  time.Now(),
	}
}
