package match

import (
	"context"
	"errors"
	"testing"

	"github.com/refind-app/refind/internal/domain"
)

func TestRetrieve_FiltersKindAndSelfMatches(t *testing.T) {
	index := &mockIndex{
		query: func(_ context.Context, _ []float32, topK int) ([]domain.IndexHit, error) {
			if topK != 10 {
				t.Errorf("topK = %d, want 10", topK)
			}
			return []domain.IndexHit{
				{EntryID: "lost_self", Score: 0.99995}, // the query item itself
				{EntryID: "found_f-1", Score: 0.92},
				{EntryID: "lost_l-2", Score: 0.88}, // wrong kind
				{EntryID: "found_f-3", Score: 0.75},
				{EntryID: "garbage", Score: 0.74}, // malformed entry id
			}, nil
		},
	}

	r := NewRetriever(index, 10, DefaultSelfMatchScore)
	got, err := r.Retrieve(context.Background(), []float32{0.1}, domain.KindFound)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	want := []domain.MatchCandidate{
		{ItemID: "f-1", Score: 0.92},
		{ItemID: "f-3", Score: 0.75},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d candidates, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("candidate[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestRetrieve_DropsOppositeKindSelfScore(t *testing.T) {
	// A near-exact duplicate of the opposite kind is still suppressed.
	index := &mockIndex{
		query: func(_ context.Context, _ []float32, _ int) ([]domain.IndexHit, error) {
			return []domain.IndexHit{{EntryID: "found_dup", Score: 0.9999}}, nil
		},
	}

	r := NewRetriever(index, 10, DefaultSelfMatchScore)
	got, err := r.Retrieve(context.Background(), []float32{0.1}, domain.KindFound)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no candidates, got %+v", got)
	}
}

func TestRetrieve_IndexError(t *testing.T) {
	indexErr := errors.New("search down")
	index := &mockIndex{
		query: func(_ context.Context, _ []float32, _ int) ([]domain.IndexHit, error) {
			return nil, indexErr
		},
	}

	r := NewRetriever(index, 0, 0)
	_, err := r.Retrieve(context.Background(), []float32{0.1}, domain.KindFound)
	if !errors.Is(err, indexErr) {
		t.Errorf("expected wrapped index error, got %v", err)
	}
}
