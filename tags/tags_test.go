package tags

import (
	"strings"
	"testing"
)

func TestValidateTagName(t *testing.T) {
	cases := []struct {
		in       string
		expected string
		errPart  string
	}{
		{"hello", "hello", ""},
		{"Hello World", "Hello World", ""},
		{"  padded  ", "padded", ""},
		{"`cool`", "cool", ""},
		{"**bold** _name_", "bold name", ""},
		{"***", "", "Missing tag name."},
		{"", "", "Missing tag name."},
		{strings.Repeat("a", 101), "", "maximum of 100"},
		{"create something", "", "reserved word"},
		{"remove this one", "", "reserved word"},
		{"Info", "", "reserved word"},
		{"get in line", "get in line", ""},
	}

	for _, c := range cases {
		got, err := validateTagName(c.in)
		if c.errPart != "" {
			if err == nil {
				t.Errorf("validateTagName(%q) = %q, expected error containing %q", c.in, got, c.errPart)
			} else if !strings.Contains(err.Error(), c.errPart) {
				t.Errorf("validateTagName(%q) error = %q, expected it to contain %q", c.in, err, c.errPart)
			}
			continue
		}

		if err != nil {
			t.Errorf("validateTagName(%q) errored: %v", c.in, err)
			continue
		}

		if got != c.expected {
			t.Errorf("validateTagName(%q) = %q, expected %q", c.in, got, c.expected)
		}
	}
}

func TestIsReservedTagWord(t *testing.T) {
	reserved := []string{"create", "add", "alias", "delete", "remove", "deleteid", "removeid", "info", "owner", "stats", "purge"}
	for _, word := range reserved {
		if !isReservedTagWord(word) {
			t.Errorf("%q should be reserved", word)
		}
	}

	free := []string{"get", "hello", "creation", "lister"}
	for _, word := range free {
		if isReservedTagWord(word) {
			t.Errorf("%q should not be reserved", word)
		}
	}
}

func TestMarkdownEscaper(t *testing.T) {
	got := markdownEscaper.Replace("*hi* `there` <@123>")
	expected := "\\*hi\\* \\`there\\` \\<@123>"
	if got != expected {
		t.Errorf("escaped = %q, expected %q", got, expected)
	}
}

func TestTopThreeLines(t *testing.T) {
	got := topThreeLines(nil, "Nothing!")
	lines := strings.Split(got, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d:\n%s", len(lines), got)
	}

	for _, line := range lines {
		if !strings.HasSuffix(line, ": Nothing!") {
			t.Errorf("filler line %q missing filler text", line)
		}
	}

	got = topThreeLines([]string{"epona (5 uses)"}, "Nothing!")
	lines = strings.Split(got, "\n")
	if !strings.HasSuffix(lines[0], ": epona (5 uses)") {
		t.Errorf("first line = %q, expected the entry", lines[0])
	}

	if !strings.HasSuffix(lines[1], ": Nothing!") || !strings.HasSuffix(lines[2], ": Nothing!") {
		t.Errorf("padding lines wrong:\n%s", got)
	}

	if !strings.HasPrefix(lines[0], "🥇") || !strings.HasPrefix(lines[1], "🥈") || !strings.HasPrefix(lines[2], "🥉") {
		t.Errorf("medal prefixes wrong:\n%s", got)
	}
}

func makeEntries(n int) []*TagListEntry {
	entries := make([]*TagListEntry, n)
	for i := 0; i < n; i++ {
		entries[i] = &TagListEntry{ID: int64(i + 1), Name: "tag" + strings.Repeat("x", i%5)}
	}

	return entries
}

func TestTagListEmbeds(t *testing.T) {
	embeds := tagListEmbeds(makeEntries(45))
	if len(embeds) != 3 {
		t.Fatalf("expected 3 embeds for 45 entries, got %d", len(embeds))
	}

	if !strings.HasPrefix(embeds[0].Description, "1. tag (ID: 1)") {
		t.Errorf("first line wrong:\n%s", embeds[0].Description)
	}

	if embeds[0].Footer.Text != "Page 1/3 (45 entries)" {
		t.Errorf("first footer = %q", embeds[0].Footer.Text)
	}

	if embeds[2].Footer.Text != "Page 3/3 (45 entries)" {
		t.Errorf("last footer = %q", embeds[2].Footer.Text)
	}

	// third page holds entries 41-45
	if !strings.Contains(embeds[2].Description, "41. ") || !strings.Contains(embeds[2].Description, "45. ") {
		t.Errorf("last page contents wrong:\n%s", embeds[2].Description)
	}
}

func TestTagListEmbedsTruncates(t *testing.T) {
	embeds := tagListEmbeds(makeEntries(150))
	if len(embeds) != 5 {
		t.Fatalf("expected 5 embeds for 150 entries, got %d", len(embeds))
	}

	last := embeds[len(embeds)-1].Footer.Text
	if !strings.Contains(last, "Showing 100 of 150 entries") {
		t.Errorf("truncation footer = %q", last)
	}
}

func TestTagListEmbedsClipsLongNames(t *testing.T) {
	entries := []*TagListEntry{{ID: 9, Name: strings.Repeat("n", 60)}}
	embeds := tagListEmbeds(entries)
	if len(embeds) != 1 {
		t.Fatalf("expected 1 embed, got %d", len(embeds))
	}

	if !strings.Contains(embeds[0].Description, "...") {
		t.Errorf("long name not clipped:\n%s", embeds[0].Description)
	}

	if strings.Contains(embeds[0].Description, strings.Repeat("n", 60)) {
		t.Errorf("full name leaked into the page:\n%s", embeds[0].Description)
	}
}

func TestRenderTagTable(t *testing.T) {
	rows := []*TagTableRow{
		{ID: 1, Name: "epona", OwnerID: 123, Uses: 42, IsAlias: false},
		{ID: 2, Name: "horse", OwnerID: 456, Uses: 42, IsAlias: true},
	}

	out := renderTagTable(rows)
	// headers render uppercased
	if !strings.Contains(out, "NAME") || !strings.Contains(out, "USES") {
		t.Errorf("missing headers:\n%s", out)
	}

	if !strings.Contains(out, "epona") || !strings.Contains(out, "123") {
		t.Errorf("missing row values:\n%s", out)
	}

	if !strings.Contains(out, "true") {
		t.Errorf("alias flag not rendered:\n%s", out)
	}
}
