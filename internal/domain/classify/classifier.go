package classify

import (
	"strings"

	"github.com/refind-app/refind/internal/domain/taxonomy"
)

// Reason explains a compatibility decision. Consumed by the pipeline and by
// observability tooling instead of log narration.
type Reason string

const (
	// ReasonSharedToken means both extracted types share a significant word.
	ReasonSharedToken Reason = "shared_object_token"
	// ReasonSemanticGroup means both extracted types hit the same word-group.
	ReasonSemanticGroup Reason = "semantic_group"
	// ReasonCategoryExact means the category tags match case-insensitively.
	ReasonCategoryExact Reason = "category_exact"
	// ReasonCategoryGroup means both categories fall in the same taxonomy group.
	ReasonCategoryGroup Reason = "category_group"
	// ReasonNoSignal means no rule fired; the pair is incompatible.
	ReasonNoSignal Reason = "no_signal"
)

// Decision is the structured classifier verdict.
type Decision struct {
	Compatible bool
	Reason     Reason
}

// Classifier applies the static compatibility heuristics. It is stateless
// beyond the taxonomy tables and safe for concurrent use.
type Classifier struct {
	tax *taxonomy.Taxonomy
}

// New creates a classifier over the given taxonomy tables.
func New(tax *taxonomy.Taxonomy) *Classifier {
	return &Classifier{tax: tax}
}

// Input is one side of a compatibility check.
type Input struct {
	Category    string
	Description string // free-text image analysis, may be empty
}

// Classify decides whether two items plausibly refer to the same kind of
// thing. Rules short-circuit in priority order; the function is symmetric in
// its two inputs.
func (c *Classifier) Classify(a, b Input) Decision {
	typeA := ExtractObjectType(c.tax, a.Description)
	typeB := ExtractObjectType(c.tax, b.Description)

	// 1. Direct text evidence: a significant word shared by the two extracted
	// types. Only the canonical tokens count; adjectives from the rest of the
	// line (colors, materials) carry no object identity.
	if a.Description != "" && b.Description != "" && sharesSignificantWord(typeA, typeB) {
		return Decision{Compatible: true, Reason: ReasonSharedToken}
	}

	// 2. Semantic word-groups over the extracted types.
	if c.sameSemanticGroup(typeA, typeB) {
		return Decision{Compatible: true, Reason: ReasonSemanticGroup}
	}

	// 3. Exact category match, case-insensitive.
	catA := strings.TrimSpace(a.Category)
	catB := strings.TrimSpace(b.Category)
	if catA != "" && strings.EqualFold(catA, catB) {
		return Decision{Compatible: true, Reason: ReasonCategoryExact}
	}

	// 4. Coarse category taxonomy, the fallback when no image evidence exists.
	if gA, ok := c.tax.CategoryGroup(catA); ok {
		if gB, ok := c.tax.CategoryGroup(catB); ok && gA == gB {
			return Decision{Compatible: true, Reason: ReasonCategoryGroup}
		}
	}

	return Decision{Compatible: false, Reason: ReasonNoSignal}
}

// sharesSignificantWord reports whether a word longer than 3 characters
// appears on both sides.
func sharesSignificantWord(typeA, typeB string) bool {
	wordsB := make(map[string]bool)
	for _, w := range tokenWords(typeB) {
		if len(w) > 3 {
			wordsB[w] = true
		}
	}
	for _, w := range tokenWords(typeA) {
		if len(w) > 3 && wordsB[w] {
			return true
		}
	}
	return false
}

// sameSemanticGroup reports whether some word-group has a member contained in
// each extracted type.
func (c *Classifier) sameSemanticGroup(typeA, typeB string) bool {
	if typeA == "" || typeB == "" {
		return false
	}
	for _, group := range c.tax.SemanticGroups() {
		if containsAny(typeA, group) && containsAny(typeB, group) {
			return true
		}
	}
	return false
}

func containsAny(token string, words []string) bool {
	for _, w := range words {
		if strings.Contains(token, w) {
			return true
		}
	}
	return false
}
