// Package match runs the multi-signal decision pipeline that turns vector
// neighbors into accepted match pairs.
package match

import (
	"context"
	"fmt"

	"github.com/refind-app/refind/internal/domain"
)

// DefaultSelfMatchScore is the raw similarity at or above which a hit is
// treated as the query item itself (or a byte-identical duplicate).
const DefaultSelfMatchScore = 0.9999

// DefaultTopK bounds the raw neighbor count per query.
const DefaultTopK = 10

// Retriever queries the shared index and reduces raw hits to candidates of
// the requested kind, in the index's descending-score order.
type Retriever struct {
	index          Index
	topK           int
	selfMatchScore float64
}

// NewRetriever creates a candidate retriever. Non-positive topK and
// selfMatchScore fall back to the defaults.
func NewRetriever(index Index, topK int, selfMatchScore float64) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if selfMatchScore <= 0 {
		selfMatchScore = DefaultSelfMatchScore
	}
	return &Retriever{index: index, topK: topK, selfMatchScore: selfMatchScore}
}

// Retrieve implements CandidateSource. Hits of the wrong kind, hits with
// malformed entry ids and near-exact self matches are dropped; order is
// preserved.
func (r *Retriever) Retrieve(
	ctx context.Context, vec []float32, want domain.Kind,
) ([]domain.MatchCandidate, error) {
	hits, err := r.index.Query(ctx, vec, r.topK)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}

	candidates := make([]domain.MatchCandidate, 0, len(hits))
	for _, h := range hits {
		kind, itemID, ok := domain.SplitEmbeddingID(h.EntryID)
		if !ok || kind != want {
			continue
		}
		if h.Score >= r.selfMatchScore {
			continue
		}
		candidates = append(candidates, domain.MatchCandidate{ItemID: itemID, Score: h.Score})
	}
	return candidates, nil
}
