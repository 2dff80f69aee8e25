package item

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/refind-app/refind/internal/domain"
)

// itemDoc is the RedisJSON shape of an item. The match list is NOT part of
// the document: it lives in a sibling hash so ledger appends never rewrite
// the item body.
type itemDoc struct {
	ID                  string              `json:"id"`
	Kind                string              `json:"kind"`
	Name                string              `json:"name,omitempty"`
	Category            string              `json:"category,omitempty"`
	RawDescription      string              `json:"raw_description,omitempty"`
	Location            string              `json:"location,omitempty"`
	LocationDescription string              `json:"location_description,omitempty"`
	Coordinates         *domain.Coordinates `json:"coordinates,omitempty"`
	ImageURL            string              `json:"image_url,omitempty"`
	ImageAnalysis       string              `json:"image_analysis,omitempty"`
	SemanticDescription string              `json:"semantic_description,omitempty"`
	EmbeddingID         string              `json:"embedding_id,omitempty"`
	UserID              string              `json:"user_id,omitempty"`
	CreatedAt           time.Time           `json:"created_at,omitempty"`
	LastCheckedAt       time.Time           `json:"last_checked_at,omitempty"`
}

func docFromDomain(it *domain.Item) itemDoc {
	return itemDoc{
		ID:                  it.ID,
		Kind:                string(it.Kind),
		Name:                it.Name,
		Category:            it.Category,
		RawDescription:      it.RawDescription,
		Location:            it.Location,
		LocationDescription: it.LocationDescription,
		Coordinates:         it.Coordinates,
		ImageURL:            it.ImageURL,
		ImageAnalysis:       it.ImageAnalysis,
		SemanticDescription: it.SemanticDescription,
		EmbeddingID:         it.EmbeddingID,
		UserID:              it.UserID,
		CreatedAt:           it.CreatedAt,
		LastCheckedAt:       it.LastCheckedAt,
	}
}

func (d *itemDoc) toDomain() *domain.Item {
	return &domain.Item{
		ID:                  d.ID,
		Kind:                domain.Kind(d.Kind),
		Name:                d.Name,
		Category:            d.Category,
		RawDescription:      d.RawDescription,
		Location:            d.Location,
		LocationDescription: d.LocationDescription,
		Coordinates:         d.Coordinates,
		ImageURL:            d.ImageURL,
		ImageAnalysis:       d.ImageAnalysis,
		SemanticDescription: d.SemanticDescription,
		EmbeddingID:         d.EmbeddingID,
		UserID:              d.UserID,
		CreatedAt:           d.CreatedAt,
		LastCheckedAt:       d.LastCheckedAt,
	}
}

// parseItemJSON handles both bare objects and the single-element array shape
// JSON.GET returns for a "$" path.
func parseItemJSON(raw []byte) (*itemDoc, error) {
	trimmed := raw
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var docs []itemDoc
		if err := json.Unmarshal(trimmed, &docs); err != nil {
			return nil, fmt.Errorf("unmarshal item array: %w", err)
		}
		if len(docs) == 0 {
			return nil, domain.ErrNotFound
		}
		return &docs[0], nil
	}

	var doc itemDoc
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return &doc, nil
}
