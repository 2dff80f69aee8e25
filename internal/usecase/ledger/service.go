// Package ledger commits accepted match pairs to both item ledgers.
package ledger

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/refind-app/refind/internal/domain"
	"github.com/refind-app/refind/internal/logger"
	"github.com/refind-app/refind/internal/metrics"
)

// Service writes match records bidirectionally. Appends are idempotent:
// re-committing a pair never duplicates or rewrites existing records.
type Service struct {
	items MatchWriter
}

// New creates a ledger service.
func New(items MatchWriter) *Service {
	return &Service{items: items}
}

// Commit writes both sides of every accepted pair. Each side is an
// independent first-write-wins append, so a crash between the two writes
// leaves a one-sided pair that the next commit of the same pair repairs.
// Returns the number of pairs whose source-side record was newly written.
func (s *Service) Commit(ctx context.Context, pairs []domain.MatchPair) (int, error) {
	log := logger.FromContext(ctx)

	committed := 0
	for _, p := range pairs {
		sourceAdded, err := s.items.AppendMatch(ctx, p.SourceKind, p.SourceItemID, p.Source)
		if err != nil {
			return committed, fmt.Errorf("append match %s/%s: %w", p.SourceKind, p.SourceItemID, err)
		}

		targetKind := p.SourceKind.Opposite()
		targetAdded, err := s.items.AppendMatch(ctx, targetKind, p.TargetItemID, p.Target)
		if err != nil {
			return committed, fmt.Errorf("append match %s/%s: %w", targetKind, p.TargetItemID, err)
		}

		if sourceAdded {
			committed++
			metrics.MatchesCommittedTotal.Inc()
		}

		log.Debug("match pair committed",
			zap.String("source_kind", string(p.SourceKind)),
			zap.String("source_item", p.SourceItemID),
			zap.String("target_item", p.TargetItemID),
			zap.Bool("source_added", sourceAdded),
			zap.Bool("target_added", targetAdded),
		)
	}

	return committed, nil
}
