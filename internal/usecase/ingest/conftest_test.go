package ingest

import (
	"context"

	"github.com/refind-app/refind/internal/domain"
)

type mockItems struct {
	get                  func(ctx context.Context, kind domain.Kind, id string) (*domain.Item, error)
	setProcessingResults func(ctx context.Context, kind domain.Kind, id,
		semanticDescription, embeddingID, imageAnalysis string) error
}

func (m *mockItems) Get(ctx context.Context, kind domain.Kind, id string) (*domain.Item, error) {
	if m.get != nil {
		return m.get(ctx, kind, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockItems) SetProcessingResults(ctx context.Context, kind domain.Kind, id,
	semanticDescription, embeddingID, imageAnalysis string) error {
	if m.setProcessingResults != nil {
		return m.setProcessingResults(ctx, kind, id, semanticDescription, embeddingID, imageAnalysis)
	}
	return nil
}

type mockVectors struct {
	upsert func(ctx context.Context, kind domain.Kind, itemID string, vec []float32) (string, error)
	delete func(ctx context.Context, kind domain.Kind, itemID string) error
}

func (m *mockVectors) Upsert(ctx context.Context, kind domain.Kind, itemID string, vec []float32) (string, error) {
	if m.upsert != nil {
		return m.upsert(ctx, kind, itemID, vec)
	}
	return domain.EmbeddingEntryID(kind, itemID), nil
}

func (m *mockVectors) Delete(ctx context.Context, kind domain.Kind, itemID string) error {
	if m.delete != nil {
		return m.delete(ctx, kind, itemID)
	}
	return nil
}

type mockVision struct {
	analyze func(ctx context.Context, imageURL string) (string, error)
}

func (m *mockVision) AnalyzeImage(ctx context.Context, imageURL string) (string, error) {
	if m.analyze != nil {
		return m.analyze(ctx, imageURL)
	}
	return "", nil
}

type mockSummarizer struct {
	summarize func(ctx context.Context, in domain.SummaryInput) (string, error)
}

func (m *mockSummarizer) Summarize(ctx context.Context, in domain.SummaryInput) (string, error) {
	if m.summarize != nil {
		return m.summarize(ctx, in)
	}
	return "summary", nil
}

type mockEmbedder struct {
	embed func(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if m.embed != nil {
		return m.embed(ctx, text)
	}
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}}, nil
}

type mockPipeline struct {
	run func(ctx context.Context, trigger string, source *domain.Item, vec []float32) ([]domain.MatchPair, error)
}

func (m *mockPipeline) Run(ctx context.Context, trigger string, source *domain.Item, vec []float32) ([]domain.MatchPair, error) {
	if m.run != nil {
		return m.run(ctx, trigger, source, vec)
	}
	return nil, nil
}

type mockLedger struct {
	commit func(ctx context.Context, pairs []domain.MatchPair) (int, error)
}

func (m *mockLedger) Commit(ctx context.Context, pairs []domain.MatchPair) (int, error) {
	if m.commit != nil {
		return m.commit(ctx, pairs)
	}
	return len(pairs), nil
}
