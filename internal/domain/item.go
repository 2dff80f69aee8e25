package domain

import "time"

// StatusPending is the only match status this core assigns. Progression to
// confirmed/declined is owned by an external review workflow.
const StatusPending = "pending"

// Coordinates is a geographic point in degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Item is a lost or found report. Ingestion sets the semantic fields once;
// the match list is mutated only through the ledger and never shrinks.
type Item struct {
	ID                  string
	Kind                Kind
	Name                string
	Category            string
	RawDescription      string
	Location            string
	LocationDescription string
	Coordinates         *Coordinates
	ImageURL            string
	ImageAnalysis       string
	SemanticDescription string
	EmbeddingID         string
	UserID              string
	Matches             []MatchRecord
	CreatedAt           time.Time
	LastCheckedAt       time.Time
}

// Processed reports whether ingestion has completed for the item.
// Recheck requires it.
func (i *Item) Processed() bool {
	return i.SemanticDescription != ""
}

// MatchRecord is one side of an accepted pair, stored on an item's match list.
type MatchRecord struct {
	ItemID    string    `json:"item_id"`
	UserID    string    `json:"user_id"`
	Score     float64   `json:"score"`
	Kind      Kind      `json:"kind"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	Category  string    `json:"category"`
}

// MatchCandidate is a raw neighbor from the vector index, before filtering.
// Never persisted.
type MatchCandidate struct {
	ItemID string
	Score  float64
}

// MatchPair is the symmetric outcome of an accepted decision: Source goes on
// the source item's list, Target on the candidate's. Both carry the same score
// and timestamp.
type MatchPair struct {
	SourceKind   Kind
	SourceItemID string
	TargetItemID string
	Source       MatchRecord
	Target       MatchRecord
}
