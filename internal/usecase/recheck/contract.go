package recheck

import (
	"context"
	"time"

	"github.com/refind-app/refind/internal/domain"
)

// ItemStore reads items and records when they were last rechecked.
type ItemStore interface {
	Get(ctx context.Context, kind domain.Kind, id string) (*domain.Item, error)
	SetLastChecked(ctx context.Context, kind domain.Kind, id string, checkedAt time.Time) error
}

// Pipeline runs the match decision pipeline against a fresh embedding.
type Pipeline interface {
	Run(ctx context.Context, trigger string, source *domain.Item, vec []float32) ([]domain.MatchPair, error)
}

// Ledger commits accepted pairs to both item ledgers.
type Ledger interface {
	Commit(ctx context.Context, pairs []domain.MatchPair) (int, error)
}
