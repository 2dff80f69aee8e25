// Package recheck re-runs matching for an already processed item on demand.
package recheck

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/refind-app/refind/internal/domain"
	"github.com/refind-app/refind/internal/logger"
	"github.com/refind-app/refind/internal/usecase/ingest"
)

// TriggerRecheck labels pipeline runs started by a manual recheck.
const TriggerRecheck = "recheck"

// Service re-evaluates one item against the current opposite-kind population.
// Existing match records are never mutated; a recheck can only add.
type Service struct {
	items    ItemStore
	embedder domain.Embedder
	pipeline Pipeline
	ledger   Ledger
	now      func() time.Time
}

// New creates a recheck service.
func New(items ItemStore, embedder domain.Embedder, pipeline Pipeline, ledger Ledger) *Service {
	return &Service{
		items:    items,
		embedder: embedder,
		pipeline: pipeline,
		ledger:   ledger,
		now:      time.Now,
	}
}

// Run rechecks one item and returns the number of newly committed pairs.
// The item must have completed ingestion; otherwise ErrPreconditionFailed.
// The embedding input is rebuilt with the exact template ingestion used, so
// the fresh vector is comparable with everything already indexed.
func (s *Service) Run(ctx context.Context, kind domain.Kind, id string) (int, error) {
	log := logger.FromContext(ctx).With(
		zap.String("kind", string(kind)),
		zap.String("item_id", id),
	)

	it, err := s.items.Get(ctx, kind, id)
	if err != nil {
		return 0, fmt.Errorf("get item: %w", err)
	}

	if !it.Processed() {
		return 0, fmt.Errorf("item %s/%s has no semantic description: %w",
			kind, id, domain.ErrPreconditionFailed)
	}

	result, err := s.embedder.Embed(ctx, ingest.EmbeddingInput(it))
	if err != nil {
		return 0, fmt.Errorf("embed item: %w", err)
	}

	pairs, err := s.pipeline.Run(ctx, TriggerRecheck, it, result.Embedding)
	if err != nil {
		return 0, fmt.Errorf("match pipeline: %w", err)
	}

	committed, err := s.ledger.Commit(ctx, pairs)
	if err != nil {
		return committed, fmt.Errorf("commit matches: %w", err)
	}

	if err := s.items.SetLastChecked(ctx, kind, id, s.now().UTC()); err != nil {
		return committed, fmt.Errorf("set last checked: %w", err)
	}

	log.Info("recheck finished",
		zap.Int("accepted", len(pairs)),
		zap.Int("committed", committed),
	)
	return committed, nil
}
