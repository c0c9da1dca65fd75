package browse

import (
	"strings"
	"testing"

	runewidth "github.com/mattn/go-runewidth"
)

func TestTruncate(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly-ten", 11, "exactly-ten"},
		{"a very long value that keeps going", 10, "a very ..."},
		{"abcdef", 3, "abc"},
		{"anything", 0, "anything"},
	}
	for _, c := range cases {
		if got := Truncate(c.in, c.max); got != c.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", c.in, c.max, got, c.want)
		}
	}
}

func TestRenderTableOneLinePerRecord(t *testing.T) {
	rows := []map[string]string{
		{"nconst": "nm0000001", "primary_name": "Fred Astaire"},
		{"nconst": "nm0000158", "primary_name": "Tom Hanks"},
		{"nconst": "nm0362766", "primary_name": "Tom Hardy"},
	}
	out := RenderTable([]string{"nconst", "primary_name"}, rows)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2+len(rows) {
		t.Fatalf("expected header, separator and %d rows, got %d lines:\n%s", len(rows), len(lines), out)
	}
	if !strings.HasPrefix(lines[1], "---") {
		t.Errorf("expected a separator line, got %q", lines[1])
	}
	for i, row := range rows {
		if !strings.Contains(lines[2+i], row["primary_name"]) {
			t.Errorf("line %d missing %q: %q", 2+i, row["primary_name"], lines[2+i])
		}
	}
}

func TestRenderTableAlignsColumns(t *testing.T) {
	rows := []map[string]string{
		{"id": "1", "name": "ab"},
		{"id": "1000", "name": "cd"},
	}
	out := RenderTable([]string{"id", "name"}, rows)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	first := strings.Index(lines[2], "ab")
	second := strings.Index(lines[3], "cd")
	if first != second {
		t.Fatalf("expected the name column to align, got offsets %d and %d:\n%s", first, second, out)
	}
}

func TestRenderTableAlignsWideRunes(t *testing.T) {
	rows := []map[string]string{
		{"primary_name": "许鞍华", "birth_year": "1947"},
		{"primary_name": "Ann Hui", "birth_year": "1947"},
	}
	out := RenderTable([]string{"primary_name", "birth_year"}, rows)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	widthBefore := func(line string) int {
		idx := strings.Index(line, "1947")
		if idx < 0 {
			t.Fatalf("row missing birth year: %q", line)
		}
		return runewidth.StringWidth(line[:idx])
	}
	if a, b := widthBefore(lines[2]), widthBefore(lines[3]); a != b {
		t.Fatalf("expected display-width alignment, got %d and %d:\n%s", a, b, out)
	}
}

func TestRenderTableTruncatesLongValues(t *testing.T) {
	long := strings.Repeat("x", maxCellWidth+20)
	out := RenderTable([]string{"v"}, []map[string]string{{"v": long}})

	if strings.Contains(out, long) {
		t.Fatal("expected the long value to be truncated")
	}
	if !strings.Contains(out, "...") {
		t.Fatal("expected an ellipsis on the truncated value")
	}
}

func TestRenderTableEmpty(t *testing.T) {
	if out := RenderTable(nil, nil); out != "" {
		t.Fatalf("expected empty output for no columns, got %q", out)
	}

	out := RenderTable([]string{"a"}, nil)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected just header and separator, got %q", out)
	}
}
