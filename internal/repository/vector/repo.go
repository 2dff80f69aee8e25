// Package vector adapts the Redis FT vector index into the embedding store
// the retriever queries. Entries are keyed "{kind}_{itemID}" so one index
// spans both report kinds.
package vector

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/refind-app/refind/internal/db"
	"github.com/refind-app/refind/internal/domain"
)

// store is the consumer interface for vector operations (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	Del(ctx context.Context, key string) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Repo implements vector upsert and KNN query over the shared index.
type Repo struct {
	store     store
	keyPrefix string
}

// New creates a vector index repository.
func New(s store, keyPrefix string) *Repo {
	if keyPrefix == "" {
		keyPrefix = "refind:"
	}
	return &Repo{store: s, keyPrefix: keyPrefix}
}

// EnsureIndex creates the KNN index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context, dim, hnswM, hnswEFConstruct int) error {
	def := &db.IndexDefinition{
		Name:        r.indexName(),
		StorageType: db.StorageHash,
		Prefixes:    []string{r.entryPrefix()},
		Fields: []db.IndexField{
			{
				Name:              "vector",
				Alias:             "vector",
				Type:              db.IndexFieldVector,
				VectorAlgo:        db.VectorHNSW,
				VectorDim:         dim,
				VectorDistance:    db.DistanceCosine,
				VectorM:           hnswM,
				VectorEFConstruct: hnswEFConstruct,
			},
		},
	}

	if err := r.store.CreateIndex(ctx, def); err != nil && err != db.ErrIndexExists {
		return storeErr("create vector index", err)
	}
	return nil
}

// Upsert stores an item's embedding under its kind-prefixed entry id and
// returns that id.
func (r *Repo) Upsert(ctx context.Context, kind domain.Kind, itemID string, vec []float32) (string, error) {
	entryID := domain.EmbeddingEntryID(kind, itemID)
	key := r.entryPrefix() + entryID

	fields := map[string]string{"vector": vectorToBytes(vec)}
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return "", storeErr("upsert vector "+entryID, err)
	}
	return entryID, nil
}

// Delete removes an item's embedding from the index.
func (r *Repo) Delete(ctx context.Context, kind domain.Kind, itemID string) error {
	key := r.entryPrefix() + domain.EmbeddingEntryID(kind, itemID)
	if err := r.store.Del(ctx, key); err != nil {
		return storeErr("delete vector", err)
	}
	return nil
}

// Query returns up to topK nearest entries across BOTH kinds, descending by
// similarity. Callers filter by kind prefix.
func (r *Repo) Query(ctx context.Context, vec []float32, topK int) ([]domain.IndexHit, error) {
	q := &db.KNNQuery{
		IndexName: r.indexName(),
		Vector:    vec,
		K:         topK,
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, storeErr("knn query", err)
	}
	if sr == nil || sr.Total == 0 {
		return nil, nil
	}

	prefix := r.entryPrefix()
	hits := make([]domain.IndexHit, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		hits = append(hits, domain.IndexHit{
			EntryID: strings.TrimPrefix(e.Key, prefix),
			Score:   e.Score,
		})
	}
	return hits, nil
}

// storeErr classifies a driver failure as upstream unavailability, keeping
// the cause in the chain.
func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrUpstreamUnavailable, err)
}

func (r *Repo) indexName() string {
	return r.keyPrefix + "vec:idx"
}

func (r *Repo) entryPrefix() string {
	return r.keyPrefix + "vec:"
}

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
