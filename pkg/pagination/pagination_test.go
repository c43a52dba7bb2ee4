package pagination

import (
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCursorRoundTrip(t *testing.T) {
	in := Cursor{
		CreatedAt: time.Date(2026, 3, 14, 9, 26, 53, 589793000, time.UTC),
		ID:        uuid.New(),
	}

	out, err := ParseCursor(in.Encode())
	if err != nil {
		t.Fatalf("ParseCursor: %v", err)
	}
	if !out.CreatedAt.Equal(in.CreatedAt) {
		t.Fatalf("created_at drifted: got %v want %v", out.CreatedAt, in.CreatedAt)
	}
	if out.ID != in.ID {
		t.Fatalf("id drifted: got %s want %s", out.ID, in.ID)
	}
}

func TestCursorSurvivesQueryString(t *testing.T) {
	encoded := Cursor{CreatedAt: time.Now(), ID: uuid.New()}.Encode()
	if escaped := url.QueryEscape(encoded); escaped != encoded {
		t.Fatalf("cursor is not query-string safe: %q escapes to %q", encoded, escaped)
	}
}

func TestParseCursorEmptyMeansFirstPage(t *testing.T) {
	cursor, err := ParseCursor("  ")
	if err != nil {
		t.Fatalf("ParseCursor: %v", err)
	}
	if cursor != nil {
		t.Fatalf("expected nil cursor for blank value, got %+v", cursor)
	}
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	for _, value := range []string{"not base64!", "bm8tcGlwZQ"} {
		if _, err := ParseCursor(value); err == nil {
			t.Fatalf("expected error for %q", value)
		}
	}
}

func TestNormalizeLimit(t *testing.T) {
	if got := NormalizeLimit(0); got != DefaultLimit {
		t.Fatalf("zero limit: got %d want %d", got, DefaultLimit)
	}
	if got := NormalizeLimit(-3); got != DefaultLimit {
		t.Fatalf("negative limit: got %d want %d", got, DefaultLimit)
	}
	if got := NormalizeLimit(MaxLimit + 50); got != MaxLimit {
		t.Fatalf("oversized limit: got %d want %d", got, MaxLimit)
	}
	if got := LimitWithBuffer(10); got != 11 {
		t.Fatalf("buffered limit: got %d want 11", got)
	}
}
