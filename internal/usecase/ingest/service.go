// Package ingest processes newly created items: image analysis, semantic
// summary, embedding, index upsert and the first match pipeline run.
package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/refind-app/refind/internal/domain"
	"github.com/refind-app/refind/internal/logger"
)

// DefaultUpsertTimeout bounds the embed-and-upsert path of one ingestion.
const DefaultUpsertTimeout = 30 * time.Second

// TriggerIngest labels pipeline runs started by item creation.
const TriggerIngest = "ingest"

// Service runs ingestion for one item-created event. Processing is
// idempotent: an item that already carries an embedding id is skipped, and
// re-delivered events re-run the pipeline safely.
type Service struct {
	items         ItemStore
	vectors       VectorStore
	vision        domain.ImageAnalyzer
	summarizer    domain.Summarizer
	embedder      domain.Embedder
	pipeline      Pipeline
	ledger        Ledger
	upsertTimeout time.Duration
}

// New creates an ingestion service. vision may be nil when no multimodal
// model is configured; items then embed from text fields only.
func New(
	items ItemStore, vectors VectorStore,
	vision domain.ImageAnalyzer, summarizer domain.Summarizer, embedder domain.Embedder,
	pipeline Pipeline, ledger Ledger,
	upsertTimeout time.Duration,
) *Service {
	if upsertTimeout <= 0 {
		upsertTimeout = DefaultUpsertTimeout
	}
	return &Service{
		items:         items,
		vectors:       vectors,
		vision:        vision,
		summarizer:    summarizer,
		embedder:      embedder,
		pipeline:      pipeline,
		ledger:        ledger,
		upsertTimeout: upsertTimeout,
	}
}

// ProcessCreated handles one item-created event and returns the number of
// newly committed match pairs. A second delivery for an already processed
// item returns 0 without calling any model.
func (s *Service) ProcessCreated(ctx context.Context, kind domain.Kind, id string) (int, error) {
	log := logger.FromContext(ctx).With(
		zap.String("kind", string(kind)),
		zap.String("item_id", id),
	)

	it, err := s.items.Get(ctx, kind, id)
	if err != nil {
		return 0, fmt.Errorf("get item: %w", err)
	}

	if it.EmbeddingID != "" {
		log.Info("item already processed, skipping")
		return 0, nil
	}

	if it.ImageURL != "" && s.vision != nil {
		analysis, err := s.vision.AnalyzeImage(ctx, it.ImageURL)
		if err != nil {
			return 0, fmt.Errorf("analyze image: %w", err)
		}
		it.ImageAnalysis = analysis
	}

	summary, err := s.summarizer.Summarize(ctx, domain.SummaryInput{
		Name:                it.Name,
		RawDescription:      it.RawDescription,
		ImageAnalysis:       it.ImageAnalysis,
		Category:            it.Category,
		Location:            it.Location,
		LocationDescription: it.LocationDescription,
	})
	if err != nil {
		return 0, fmt.Errorf("summarize item: %w", err)
	}
	it.SemanticDescription = summary

	vec, entryID, err := s.embedAndUpsert(ctx, it)
	if err != nil {
		return 0, err
	}
	it.EmbeddingID = entryID

	if err := s.items.SetProcessingResults(ctx, kind, id,
		it.SemanticDescription, it.EmbeddingID, it.ImageAnalysis); err != nil {
		// Without the persisted embedding id the item reads as unprocessed
		// and would be re-embedded on redelivery, orphaning this entry.
		if delErr := s.vectors.Delete(ctx, kind, id); delErr != nil {
			log.Warn("failed to roll back vector entry", zap.Error(delErr))
		}
		return 0, fmt.Errorf("persist processing results: %w", err)
	}

	log.Info("item processed", zap.String("embedding_id", entryID))

	pairs, err := s.pipeline.Run(ctx, TriggerIngest, it, vec)
	if err != nil {
		return 0, fmt.Errorf("match pipeline: %w", err)
	}

	committed, err := s.ledger.Commit(ctx, pairs)
	if err != nil {
		return committed, fmt.Errorf("commit matches: %w", err)
	}
	return committed, nil
}

// embedAndUpsert vectorizes the canonical embedding input and stores the
// vector, both under one timeout.
func (s *Service) embedAndUpsert(ctx context.Context, it *domain.Item) ([]float32, string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.upsertTimeout)
	defer cancel()

	result, err := s.embedder.Embed(ctx, EmbeddingInput(it))
	if err != nil {
		return nil, "", fmt.Errorf("embed item: %w", err)
	}

	entryID, err := s.vectors.Upsert(ctx, it.Kind, it.ID, result.Embedding)
	if err != nil {
		return nil, "", fmt.Errorf("upsert vector: %w", err)
	}
	return result.Embedding, entryID, nil
}
