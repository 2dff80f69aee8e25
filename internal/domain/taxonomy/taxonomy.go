// Package taxonomy holds the static tables driving object-type extraction and
// category compatibility: an ordered keyword list, semantic word-groups, and a
// category→group mapping. The tables are data, not code, so deployments can
// substitute their own and tests can load fixtures.
package taxonomy

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var defaultTables []byte

// Taxonomy is an immutable set of matching tables, loaded once at startup.
type Taxonomy struct {
	objectKeywords []string
	semanticGroups [][]string
	categoryGroups map[string][]string

	categoryToGroup map[string]string
}

type tablesFile struct {
	ObjectKeywords []string            `yaml:"object_keywords"`
	SemanticGroups [][]string          `yaml:"semantic_groups"`
	CategoryGroups map[string][]string `yaml:"category_groups"`
}

// Default loads the embedded tables. Panics only on a broken build.
func Default() *Taxonomy {
	t, err := Parse(defaultTables)
	if err != nil {
		panic("taxonomy: embedded tables invalid: " + err.Error())
	}
	return t
}

// Parse loads taxonomy tables from YAML.
func Parse(data []byte) (*Taxonomy, error) {
	var f tablesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse taxonomy tables: %w", err)
	}
	if len(f.ObjectKeywords) == 0 {
		return nil, fmt.Errorf("taxonomy tables must define object_keywords")
	}

	t := &Taxonomy{
		objectKeywords:  lowerAll(f.ObjectKeywords),
		semanticGroups:  make([][]string, 0, len(f.SemanticGroups)),
		categoryGroups:  make(map[string][]string, len(f.CategoryGroups)),
		categoryToGroup: make(map[string]string),
	}
	for _, g := range f.SemanticGroups {
		t.semanticGroups = append(t.semanticGroups, lowerAll(g))
	}
	for name, members := range f.CategoryGroups {
		lowered := lowerAll(members)
		t.categoryGroups[name] = lowered
		for _, m := range lowered {
			t.categoryToGroup[m] = name
		}
	}
	return t, nil
}

// ObjectKeywords returns the ordered keyword table. Earlier entries win.
func (t *Taxonomy) ObjectKeywords() []string {
	return t.objectKeywords
}

// SemanticGroups returns the word-groups linking related object terms.
func (t *Taxonomy) SemanticGroups() [][]string {
	return t.semanticGroups
}

// CategoryGroup returns the group a category tag belongs to, if any.
// Lookup is case-insensitive.
func (t *Taxonomy) CategoryGroup(category string) (string, bool) {
	g, ok := t.categoryToGroup[strings.ToLower(strings.TrimSpace(category))]
	return g, ok
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(strings.TrimSpace(s))
	}
	return out
}
