// Package item adapts the Redis store into the item repository: JSON
// documents for report bodies, a sibling hash per item for the match ledger.
package item

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/refind-app/refind/internal/db"
	"github.com/refind-app/refind/internal/domain"
)

// store is the consumer interface for item persistence (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	HSetNX(ctx context.Context, key, field, value string) (bool, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// Repo persists items and their match ledgers.
type Repo struct {
	store     store
	keyPrefix string
}

// New creates an item repository.
func New(s store, keyPrefix string) *Repo {
	if keyPrefix == "" {
		keyPrefix = "refind:"
	}
	return &Repo{store: s, keyPrefix: keyPrefix}
}

// Get returns an item with its match list hydrated from the ledger hash.
func (r *Repo) Get(ctx context.Context, kind domain.Kind, id string) (*domain.Item, error) {
	key := r.itemKey(kind, id)
	raw, err := r.store.JSONGet(ctx, key, "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, storeErr("json.get", key, err)
	}

	doc, err := parseItemJSON(raw)
	if err != nil {
		return nil, err
	}

	it := doc.toDomain()
	it.Matches, err = r.matches(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	return it, nil
}

// Put stores the full item body. The match ledger is untouched.
func (r *Repo) Put(ctx context.Context, it *domain.Item) error {
	data, err := json.Marshal(docFromDomain(it))
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}
	key := r.itemKey(it.Kind, it.ID)
	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return storeErr("json.set", key, err)
	}
	return nil
}

// SetProcessingResults records the ingestion outputs on an existing item.
// Only the named fields are written; everything else persists (merge semantics).
func (r *Repo) SetProcessingResults(
	ctx context.Context, kind domain.Kind, id,
	semanticDescription, embeddingID, imageAnalysis string,
) error {
	fields := map[string]string{
		"semantic_description": semanticDescription,
		"embedding_id":         embeddingID,
		"image_analysis":       imageAnalysis,
	}
	return r.setFields(ctx, kind, id, fields)
}

// SetLastChecked records the recheck timestamp.
func (r *Repo) SetLastChecked(ctx context.Context, kind domain.Kind, id string, checkedAt time.Time) error {
	return r.setFields(ctx, kind, id, map[string]string{
		"last_checked_at": checkedAt.UTC().Format(time.RFC3339Nano),
	})
}

// AppendMatch writes one match record under the opposite item's id,
// first-write-wins. Returns false without touching the stored record when an
// entry for that opposite id already exists.
func (r *Repo) AppendMatch(
	ctx context.Context, kind domain.Kind, id string, rec domain.MatchRecord,
) (bool, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return false, fmt.Errorf("marshal match record: %w", err)
	}

	key := r.matchesKey(kind, id)
	added, err := r.store.HSetNX(ctx, key, rec.ItemID, string(data))
	if err != nil {
		return false, storeErr("hsetnx", key, err)
	}
	return added, nil
}

// matches hydrates the ledger hash into an ordered list: creation time, then
// opposite id for records written in the same instant.
func (r *Repo) matches(ctx context.Context, kind domain.Kind, id string) ([]domain.MatchRecord, error) {
	key := r.matchesKey(kind, id)
	raw, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return nil, storeErr("hgetall", key, err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	records := make([]domain.MatchRecord, 0, len(raw))
	for oppositeID, data := range raw {
		var rec domain.MatchRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal match record %s/%s: %w", key, oppositeID, err)
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.Before(records[j].CreatedAt)
		}
		return records[i].ItemID < records[j].ItemID
	})
	return records, nil
}

func (r *Repo) setFields(ctx context.Context, kind domain.Kind, id string, fields map[string]string) error {
	key := r.itemKey(kind, id)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return storeErr("exists", key, err)
	}
	if !exists {
		return domain.ErrNotFound
	}

	for field, value := range fields {
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("marshal field %s: %w", field, err)
		}
		if err := r.store.JSONSet(ctx, key, "$."+field, data); err != nil {
			return storeErr("json.set "+field, key, err)
		}
	}
	return nil
}

// storeErr classifies a driver failure as upstream unavailability so the
// transport layer maps a store outage to 502, keeping the cause in the chain.
func storeErr(op, key string, err error) error {
	return fmt.Errorf("%s %s: %w: %w", op, key, domain.ErrUpstreamUnavailable, err)
}

func (r *Repo) itemKey(kind domain.Kind, id string) string {
	return fmt.Sprintf("%s%s:%s", r.keyPrefix, kind, id)
}

func (r *Repo) matchesKey(kind domain.Kind, id string) string {
	return fmt.Sprintf("%s%s:%s:matches", r.keyPrefix, kind, id)
}
