package recheck

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/refind-app/refind/internal/domain"
)

type mockItems struct {
	get            func(ctx context.Context, kind domain.Kind, id string) (*domain.Item, error)
	setLastChecked func(ctx context.Context, kind domain.Kind, id string, checkedAt time.Time) error
}

func (m *mockItems) Get(ctx context.Context, kind domain.Kind, id string) (*domain.Item, error) {
	if m.get != nil {
		return m.get(ctx, kind, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockItems) SetLastChecked(ctx context.Context, kind domain.Kind, id string, checkedAt time.Time) error {
	if m.setLastChecked != nil {
		return m.setLastChecked(ctx, kind, id, checkedAt)
	}
	return nil
}

type mockEmbedder struct {
	embed func(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if m.embed != nil {
		return m.embed(ctx, text)
	}
	return domain.EmbeddingResult{Embedding: []float32{0.1}}, nil
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

func processedItem() *domain.Item {
	return &domain.Item{
		ID:                  "item-1",
		Kind:                domain.KindLost,
		Name:                "Black wallet",
		Category:            "personal_items",
		RawDescription:      "lost near the library",
		ImageAnalysis:       "Black leather wallet.",
		SemanticDescription: "Wallet - Black - Leather",
		EmbeddingID:         "lost_item-1",
		UserID:              "user-a",
	}
}

func TestRun_HappyPath(t *testing.T) {
	var embeddedText string
	var checkedAt time.Time

	items := &mockItems{
		get: func(_ context.Context, _ domain.Kind, _ string) (*domain.Item, error) {
			return processedItem(), nil
		},
		setLastChecked: func(_ context.Context, kind domain.Kind, id string, at time.Time) error {
			if kind != domain.KindLost || id != "item-1" {
				t.Errorf("unexpected SetLastChecked target: %s/%s", kind, id)
			}
			checkedAt = at
			return nil
		},
	}

	pipeline := &mockPipeline{
		run: func(_ context.Context, trigger string, source *domain.Item, _ []float32) ([]domain.MatchPair, error) {
			if trigger != TriggerRecheck {
				t.Errorf("trigger = %q", trigger)
			}
			if source.ID != "item-1" {
				t.Errorf("source = %q", source.ID)
			}
			return []domain.MatchPair{
				{SourceItemID: "item-1", TargetItemID: "found-1"},
				{SourceItemID: "item-1", TargetItemID: "found-2"},
			}, nil
		},
	}

	// One of the two pairs is already on the ledger.
	ledger := &mockLedger{
		commit: func(_ context.Context, pairs []domain.MatchPair) (int, error) {
			return len(pairs) - 1, nil
		},
	}

	svc := New(items,
		&mockEmbedder{embed: func(_ context.Context, text string) (domain.EmbeddingResult, error) {
			embeddedText = text
			return domain.EmbeddingResult{Embedding: []float32{0.3}}, nil
		}},
		pipeline, ledger)

	committed, err := svc.Run(context.Background(), domain.KindLost, "item-1")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if committed != 1 {
		t.Errorf("committed = %d, expected 1", committed)
	}

	// Recheck embeds the same canonical template as ingestion.
	if strings.Count(embeddedText, "Black leather wallet.") != 3 {
		t.Error("embedding input must repeat the image analysis three times")
	}
	if !strings.Contains(embeddedText, "SEMANTIC SUMMARY:\nWallet - Black - Leather") {
		t.Error("embedding input missing the stored semantic summary")
	}

	if checkedAt.IsZero() {
		t.Error("lastCheckedAt must be updated")
	}
}

func TestRun_UnprocessedItemFailsPrecondition(t *testing.T) {
	it := processedItem()
	it.SemanticDescription = ""

	embedCalled := false
	svc := New(
		&mockItems{get: func(_ context.Context, _ domain.Kind, _ string) (*domain.Item, error) {
			return it, nil
		}},
		&mockEmbedder{embed: func(_ context.Context, _ string) (domain.EmbeddingResult, error) {
			embedCalled = true
			return domain.EmbeddingResult{}, nil
		}},
		&mockPipeline{}, &mockLedger{})

	_, err := svc.Run(context.Background(), domain.KindLost, "item-1")
	if !errors.Is(err, domain.ErrPreconditionFailed) {
		t.Errorf("expected ErrPreconditionFailed, got %v", err)
	}
	if embedCalled {
		t.Error("unprocessed item must not reach the embedder")
	}
}

func TestRun_ItemNotFound(t *testing.T) {
	svc := New(&mockItems{}, &mockEmbedder{}, &mockPipeline{}, &mockLedger{})

	_, err := svc.Run(context.Background(), domain.KindLost, "nope")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRun_NoNewMatches(t *testing.T) {
	lastCheckedSet := false
	items := &mockItems{
		get: func(_ context.Context, _ domain.Kind, _ string) (*domain.Item, error) {
			return processedItem(), nil
		},
		setLastChecked: func(_ context.Context, _ domain.Kind, _ string, _ time.Time) error {
			lastCheckedSet = true
			return nil
		},
	}

	svc := New(items, &mockEmbedder{}, &mockPipeline{}, &mockLedger{})

	committed, err := svc.Run(context.Background(), domain.KindLost, "item-1")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if committed != 0 {
		t.Errorf("committed = %d, expected 0", committed)
	}
	if !lastCheckedSet {
		t.Error("lastCheckedAt must be updated even when nothing new is found")
	}
}
