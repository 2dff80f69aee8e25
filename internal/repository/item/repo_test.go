package item

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/refind-app/refind/internal/db"
	"github.com/refind-app/refind/internal/domain"
)

func TestGet_NotFound(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.jsonGetFn = func(_ context.Context, _ string, _ ...string) ([]byte, error) {
		return nil, db.ErrKeyNotFound
	}

	_, err := repo.Get(context.Background(), domain.KindLost, "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGet_HydratesMatchesSorted(t *testing.T) {
	repo, ms := newTestRepo(t)

	doc, _ := json.Marshal(docFromDomain(testItem(t)))
	ms.jsonGetFn = func(_ context.Context, key string, _ ...string) ([]byte, error) {
		if key != "refind:lost:item-1" {
			t.Errorf("unexpected item key %q", key)
		}
		return doc, nil
	}

	older := domain.MatchRecord{
		ItemID: "f-2", Score: 0.8, Kind: domain.KindFound, Status: domain.StatusPending,
		CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	newer := domain.MatchRecord{
		ItemID: "f-1", Score: 0.9, Kind: domain.KindFound, Status: domain.StatusPending,
		CreatedAt: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	}
	olderJSON, _ := json.Marshal(older)
	newerJSON, _ := json.Marshal(newer)

	ms.hgetAllFn = func(_ context.Context, key string) (map[string]string, error) {
		if key != "refind:lost:item-1:matches" {
			t.Errorf("unexpected matches key %q", key)
		}
		return map[string]string{"f-1": string(newerJSON), "f-2": string(olderJSON)}, nil
	}

	it, err := repo.Get(context.Background(), domain.KindLost, "item-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(it.Matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(it.Matches))
	}
	if it.Matches[0].ItemID != "f-2" || it.Matches[1].ItemID != "f-1" {
		t.Errorf("matches not ordered by creation time: %s, %s",
			it.Matches[0].ItemID, it.Matches[1].ItemID)
	}
}

func TestGet_ArrayShapedJSONGetResult(t *testing.T) {
	repo, ms := newTestRepo(t)

	doc, _ := json.Marshal([]itemDoc{docFromDomain(testItem(t))})
	ms.jsonGetFn = func(_ context.Context, _ string, _ ...string) ([]byte, error) {
		return doc, nil
	}

	it, err := repo.Get(context.Background(), domain.KindLost, "item-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if it.ID != "item-1" || it.Kind != domain.KindLost {
		t.Errorf("unexpected item: %+v", it)
	}
}

func TestAppendMatch_FirstWriteWins(t *testing.T) {
	repo, ms := newTestRepo(t)

	var gotField, gotValue string
	ms.hsetNXFn = func(_ context.Context, key, field, value string) (bool, error) {
		if key != "refind:found:f-1:matches" {
			t.Errorf("unexpected key %q", key)
		}
		gotField, gotValue = field, value
		return true, nil
	}

	rec := domain.MatchRecord{
		ItemID: "l-9", UserID: "u-2", Score: 0.82,
		Kind: domain.KindLost, Status: domain.StatusPending,
		CreatedAt: time.Now().UTC(), Category: "wallet",
	}
	added, err := repo.AppendMatch(context.Background(), domain.KindFound, "f-1", rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !added {
		t.Error("expected added=true")
	}
	if gotField != "l-9" {
		t.Errorf("ledger field = %q, want opposite item id l-9", gotField)
	}

	var stored domain.MatchRecord
	if err := json.Unmarshal([]byte(gotValue), &stored); err != nil {
		t.Fatalf("stored value is not a match record: %v", err)
	}
	if stored.Score != 0.82 || stored.Status != domain.StatusPending {
		t.Errorf("stored record mangled: %+v", stored)
	}
}

func TestAppendMatch_DuplicateIsNoOp(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.hsetNXFn = func(_ context.Context, _, _, _ string) (bool, error) {
		return false, nil // field already present
	}

	added, err := repo.AppendMatch(context.Background(), domain.KindLost, "l-1", domain.MatchRecord{ItemID: "f-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if added {
		t.Error("duplicate append must report added=false")
	}
}

func TestSetProcessingResults_MissingItem(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.existsFn = func(_ context.Context, _ string) (bool, error) { return false, nil }

	err := repo.SetProcessingResults(context.Background(), domain.KindLost, "ghost", "desc", "lost_ghost", "")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSetProcessingResults_WritesOnlyNamedFields(t *testing.T) {
	repo, ms := newTestRepo(t)

	paths := map[string]string{}
	ms.jsonSetFn = func(_ context.Context, _, path string, data []byte) error {
		paths[path] = string(data)
		return nil
	}

	err := repo.SetProcessingResults(
		context.Background(), domain.KindFound, "f-1",
		"Blue bottle", "found_f-1", "Water bottle, blue",
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("expected 3 field writes, got %d: %v", len(paths), paths)
	}
	if paths["$.semantic_description"] != `"Blue bottle"` {
		t.Errorf("semantic_description = %s", paths["$.semantic_description"])
	}
	if paths["$.embedding_id"] != `"found_f-1"` {
		t.Errorf("embedding_id = %s", paths["$.embedding_id"])
	}
}

func TestPut_RoundTrip(t *testing.T) {
	repo, ms := newTestRepo(t)

	var written []byte
	ms.jsonSetFn = func(_ context.Context, key, path string, data []byte) error {
		if key != "refind:lost:item-1" || path != "$" {
			t.Errorf("unexpected write target %s %s", key, path)
		}
		written = data
		return nil
	}

	src := testItem(t)
	if err := repo.Put(context.Background(), src); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	doc, err := parseItemJSON(written)
	if err != nil {
		t.Fatalf("written doc unparsable: %v", err)
	}
	got := doc.toDomain()
	if got.ID != src.ID || got.Category != src.Category || got.UserID != src.UserID {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.Coordinates == nil || got.Coordinates.Lat != src.Coordinates.Lat {
		t.Error("coordinates lost in round trip")
	}
}

func TestGet_StoreFailureIsUpstreamUnavailable(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.jsonGetFn = func(_ context.Context, _ string, _ ...string) ([]byte, error) {
		return nil, errors.New("connection refused")
	}

	_, err := repo.Get(context.Background(), domain.KindLost, "item-1")
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Errorf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestAppendMatch_StoreFailureIsUpstreamUnavailable(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.hsetNXFn = func(_ context.Context, _, _, _ string) (bool, error) {
		return false, errors.New("connection refused")
	}

	_, err := repo.AppendMatch(context.Background(), domain.KindLost, "item-1",
		domain.MatchRecord{ItemID: "found-1"})
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Errorf("expected ErrUpstreamUnavailable, got %v", err)
	}
}
