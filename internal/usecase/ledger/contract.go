package ledger

import (
	"context"

	"github.com/refind-app/refind/internal/domain"
)

// MatchWriter appends match records to item ledgers, first-write-wins.
type MatchWriter interface {
	AppendMatch(ctx context.Context, kind domain.Kind, id string, rec domain.MatchRecord) (bool, error)
}
