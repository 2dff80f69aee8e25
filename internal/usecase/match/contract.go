package match

import (
	"context"

	"github.com/refind-app/refind/internal/domain"
)

// ItemReader loads candidate items for decision making.
type ItemReader interface {
	Get(ctx context.Context, kind domain.Kind, id string) (*domain.Item, error)
}

// Index queries the shared KNN index spanning both report kinds.
type Index interface {
	Query(ctx context.Context, vec []float32, topK int) ([]domain.IndexHit, error)
}

// CandidateSource yields filtered opposite-kind candidates for a query vector.
type CandidateSource interface {
	Retrieve(ctx context.Context, vec []float32, want domain.Kind) ([]domain.MatchCandidate, error)
}
