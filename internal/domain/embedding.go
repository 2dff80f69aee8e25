package domain

import (
	"context"
	"fmt"
	"strings"
)

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// ImageAnalyzer describes item photos in text form suitable for embedding.
type ImageAnalyzer interface {
	AnalyzeImage(ctx context.Context, imageURL string) (string, error)
}

// Summarizer condenses item fields into a semantic description.
type Summarizer interface {
	Summarize(ctx context.Context, in SummaryInput) (string, error)
}

// SummaryInput holds the item fields fed into semantic summarization.
type SummaryInput struct {
	Name                string
	RawDescription      string
	ImageAnalysis       string
	Category            string
	Location            string
	LocationDescription string
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// IndexHit is one raw KNN result before any filtering: a kind-prefixed entry
// id and its similarity score.
type IndexHit struct {
	EntryID string
	Score   float64
}

// EmbeddingEntryID builds the kind-prefixed id a vector is indexed under.
// The same value is stored on the item as EmbeddingID.
func EmbeddingEntryID(kind Kind, itemID string) string {
	return fmt.Sprintf("%s_%s", kind, itemID)
}

// SplitEmbeddingID decodes a kind-prefixed entry id. ok is false when the
// prefix is not a known kind or the item id part is empty.
func SplitEmbeddingID(entryID string) (Kind, string, bool) {
	prefix, rest, found := strings.Cut(entryID, "_")
	if !found {
		return "", "", false
	}
	kind := Kind(prefix)
	if !kind.Valid() || rest == "" {
		return "", "", false
	}
	return kind, rest, true
}
