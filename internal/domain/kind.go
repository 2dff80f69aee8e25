package domain

import "fmt"

// Kind distinguishes the two report types. Every match pairs one of each.
type Kind string

const (
	// KindLost is a report filed by someone who lost an item.
	KindLost Kind = "lost"
	// KindFound is a report filed by someone who found an item.
	KindFound Kind = "found"
)

// ParseKind validates a kind string from an external request.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindLost, KindFound:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("kind must be %q or %q, got %q: %w", KindLost, KindFound, s, ErrInvalidInput)
	}
}

// Opposite returns the kind matches are searched against.
func (k Kind) Opposite() Kind {
	if k == KindLost {
		return KindFound
	}
	return KindLost
}

// Valid reports whether k is one of the two known kinds.
func (k Kind) Valid() bool {
	return k == KindLost || k == KindFound
}
