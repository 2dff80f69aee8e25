package ingest

import (
	"context"

	"github.com/refind-app/refind/internal/domain"
)

// ItemStore reads items and records ingestion outputs on them.
type ItemStore interface {
	Get(ctx context.Context, kind domain.Kind, id string) (*domain.Item, error)
	SetProcessingResults(ctx context.Context, kind domain.Kind, id,
		semanticDescription, embeddingID, imageAnalysis string) error
}

// VectorStore upserts item embeddings into the shared index.
type VectorStore interface {
	Upsert(ctx context.Context, kind domain.Kind, itemID string, vec []float32) (string, error)
	Delete(ctx context.Context, kind domain.Kind, itemID string) error
}

// Pipeline runs the match decision pipeline for a freshly embedded item.
type Pipeline interface {
	Run(ctx context.Context, trigger string, source *domain.Item, vec []float32) ([]domain.MatchPair, error)
}

// Ledger commits accepted pairs to both item ledgers.
type Ledger interface {
	Commit(ctx context.Context, pairs []domain.MatchPair) (int, error)
}
