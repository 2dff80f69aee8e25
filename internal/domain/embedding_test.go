package domain

import "testing"

func TestEmbeddingEntryID(t *testing.T) {
	if got := EmbeddingEntryID(KindLost, "abc"); got != "lost_abc" {
		t.Errorf("EmbeddingEntryID = %q, want lost_abc", got)
	}
	if got := EmbeddingEntryID(KindFound, "x_y"); got != "found_x_y" {
		t.Errorf("EmbeddingEntryID = %q, want found_x_y", got)
	}
}

func TestSplitEmbeddingID(t *testing.T) {
	tests := []struct {
		in       string
		wantKind Kind
		wantID   string
		wantOK   bool
	}{
		{"lost_abc", KindLost, "abc", true},
		{"found_x_y", KindFound, "x_y", true},
		{"other_abc", "", "", false},
		{"lost_", "", "", false},
		{"plain", "", "", false},
		{"", "", "", false},
	}

	for _, tt := range tests {
		kind, id, ok := SplitEmbeddingID(tt.in)
		if ok != tt.wantOK || kind != tt.wantKind || id != tt.wantID {
			t.Errorf("SplitEmbeddingID(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.in, kind, id, ok, tt.wantKind, tt.wantID, tt.wantOK)
		}
	}
}
