package ledger

import (
	"context"

	"github.com/refind-app/refind/internal/domain"
)

type appendCall struct {
	kind domain.Kind
	id   string
	rec  domain.MatchRecord
}

// mockWriter is a function-field mock of MatchWriter.
type mockWriter struct {
	calls       []appendCall
	appendMatch func(ctx context.Context, kind domain.Kind, id string, rec domain.MatchRecord) (bool, error)
}

func (m *mockWriter) AppendMatch(ctx context.Context, kind domain.Kind, id string, rec domain.MatchRecord) (bool, error) {
	m.calls = append(m.calls, appendCall{kind: kind, id: id, rec: rec})
	if m.appendMatch != nil {
		return m.appendMatch(ctx, kind, id, rec)
	}
	return true, nil
}
