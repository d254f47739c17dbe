package todos

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"
)

func testTodo(id int64, content, jumpURL string) *Todo {
	return &Todo{
		ID:        id,
		CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		OwnerID:   100,
		Content:   content,
		JumpURL:   jumpURL,
	}
}

func TestTodoLine(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC).Unix()

	linked := todoLine(testTodo(7, "water the plants", "https://discord.com/channels/1/2/3"))
	expected := fmt.Sprintf("[__`7`__](https://discord.com/channels/1/2/3): <t:%d:R> :: water the plants", created)
	if linked != expected {
		t.Errorf("linked line was %q, expected %q", linked, expected)
	}

	plain := todoLine(testTodo(7, "water the plants", ""))
	expected = fmt.Sprintf("__`7`__: <t:%d:R> :: water the plants", created)
	if plain != expected {
		t.Errorf("plain line was %q, expected %q", plain, expected)
	}
}

func TestTodoLineShortensContent(t *testing.T) {
	line := todoLine(testTodo(1, strings.Repeat("long ", 40), ""))
	if !strings.HasSuffix(line, "...") {
		t.Errorf("line %q should end with an ellipsis", line)
	}
}

func TestTodoListEmbeds(t *testing.T) {
	if embeds := todoListEmbeds(nil); embeds != nil {
		t.Errorf("got %d embeds for no todos", len(embeds))
	}

	var todos []*Todo
	for i := int64(1); i <= 25; i++ {
		todos = append(todos, testTodo(i, "something", ""))
	}

	embeds := todoListEmbeds(todos)
	if len(embeds) != 3 {
		t.Fatalf("got %d pages for 25 todos, expected 3", len(embeds))
	}

	for i, embed := range embeds {
		if embed.Footer == nil || embed.Footer.Text != "Use todo info ## for more details." {
			t.Errorf("page %d has wrong footer", i)
		}
	}

	if lines := strings.Count(embeds[0].Description, "\n"); lines != 9 {
		t.Errorf("first page has %d line breaks, expected 9", lines)
	}
	if lines := strings.Count(embeds[2].Description, "\n"); lines != 4 {
		t.Errorf("last page has %d line breaks, expected 4", lines)
	}
}

func TestShortenContent(t *testing.T) {
	collapsed := shortenContent("finish  the\n\treport", 100)
	if collapsed != "finish the report" {
		t.Errorf("got %q, expected collapsed whitespace", collapsed)
	}

	clipped := shortenContent(strings.Repeat("a", 150), 100)
	if len(clipped) != 100 || !strings.HasSuffix(clipped, "...") {
		t.Errorf("got %d chars ending %q, expected 100 ending in ellipsis", len(clipped), clipped[len(clipped)-3:])
	}
}

func TestFormatTodoIDs(t *testing.T) {
	if got := formatTodoIDs([]int64{1}); got != "__**`#1`**__" {
		t.Errorf("got %q", got)
	}

	if got := formatTodoIDs([]int64{1, 2, 30}); got != "__**`#1`**__, __**`#2`**__, __**`#30`**__" {
		t.Errorf("got %q", got)
	}
}

func TestParseIDList(t *testing.T) {
	cases := []struct {
		input    string
		expected []int64
	}{
		{"1 2 3", []int64{1, 2, 3}},
		{"  4\t5 ", []int64{4, 5}},
		{"1 abc 3", []int64{1, 3}},
		{"-5 0", nil},
		{"", nil},
	}

	for _, c := range cases {
		if got := parseIDList(c.input); !reflect.DeepEqual(got, c.expected) {
			t.Errorf("parseIDList(%q) = %v, expected %v", c.input, got, c.expected)
		}
	}
}
