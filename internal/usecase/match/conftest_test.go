package match

import (
	"context"

	"github.com/refind-app/refind/internal/domain"
)

// mockItems is a function-field mock of ItemReader.
type mockItems struct {
	get func(ctx context.Context, kind domain.Kind, id string) (*domain.Item, error)
}

func (m *mockItems) Get(ctx context.Context, kind domain.Kind, id string) (*domain.Item, error) {
	if m.get != nil {
		return m.get(ctx, kind, id)
	}
	return nil, domain.ErrNotFound
}

// mockIndex is a function-field mock of Index.
type mockIndex struct {
	query func(ctx context.Context, vec []float32, topK int) ([]domain.IndexHit, error)
}

func (m *mockIndex) Query(ctx context.Context, vec []float32, topK int) ([]domain.IndexHit, error) {
	if m.query != nil {
		return m.query(ctx, vec, topK)
	}
	return nil, nil
}

// mockCandidates is a function-field mock of CandidateSource.
type mockCandidates struct {
	retrieve func(ctx context.Context, vec []float32, want domain.Kind) ([]domain.MatchCandidate, error)
}

func (m *mockCandidates) Retrieve(
	ctx context.Context, vec []float32, want domain.Kind,
) ([]domain.MatchCandidate, error) {
	if m.retrieve != nil {
		return m.retrieve(ctx, vec, want)
	}
	return nil, nil
}

// itemsByID serves candidate items from a fixed map, keyed "{kind}/{id}".
func itemsByID(items map[string]*domain.Item) *mockItems {
	return &mockItems{
		get: func(_ context.Context, kind domain.Kind, id string) (*domain.Item, error) {
			if it, ok := items[string(kind)+"/"+id]; ok {
				return it, nil
			}
			return nil, domain.ErrNotFound
		},
	}
}
