package commands

import (
	"testing"
	"time"
)

func TestSplitArgs(t *testing.T) {
	cases := []struct {
		in       string
		expected []string
	}{
		{"hello world", []string{"hello", "world"}},
		{`"hello world" again`, []string{"hello world", "again"}},
		{`a "b c" d`, []string{"a", "b c", "d"}},
		{"  padded   out  ", []string{"padded", "out"}},
		{"", nil},
	}

	for _, c := range cases {
		got := SplitArgs(c.in)
		if len(got) != len(c.expected) {
			t.Errorf("SplitArgs(%q) = %v, expected %v", c.in, got, c.expected)
			continue
		}

		for i := range got {
			if got[i] != c.expected[i] {
				t.Errorf("SplitArgs(%q)[%d] = %q, expected %q", c.in, i, got[i], c.expected[i])
			}
		}
	}
}

func TestParseArgsPositional(t *testing.T) {
	cmd := &MedliCommand{
		Name: "Test",
		Arguments: []*ArgDef{
			{Name: "user", Type: UserID},
			{Name: "count", Type: Int, Default: int64(1)},
		},
		RequiredArgs: 1,
	}

	parsed, err := cmd.parseArgs("<@123456789> 5")
	if err != nil {
		t.Fatal("unexpected error:", err)
	}

	if parsed[0].Int64() != 123456789 {
		t.Error("expected user id 123456789, got", parsed[0].Int64())
	}

	if parsed[1].Int() != 5 {
		t.Error("expected count 5, got", parsed[1].Int())
	}

	// optional arg keeps its default
	parsed, err = cmd.parseArgs("123456789")
	if err != nil {
		t.Fatal("unexpected error:", err)
	}

	if parsed[1].Int() != 1 {
		t.Error("expected default count 1, got", parsed[1].Int())
	}

	// missing required arg
	_, err = cmd.parseArgs("")
	if err == nil {
		t.Error("expected an error for missing required arg")
	}
}

func TestParseArgsRest(t *testing.T) {
	cmd := &MedliCommand{
		Name: "Test",
		Arguments: []*ArgDef{
			{Name: "name", Type: String},
			{Name: "content", Type: Rest},
		},
		RequiredArgs: 2,
	}

	parsed, err := cmd.parseArgs(`"my tag" some long content here`)
	if err != nil {
		t.Fatal("unexpected error:", err)
	}

	if parsed[0].Str() != "my tag" {
		t.Errorf("expected name %q, got %q", "my tag", parsed[0].Str())
	}

	if parsed[1].Str() != "some long content here" {
		t.Errorf("expected content preserved, got %q", parsed[1].Str())
	}
}

func TestParseArgsDuration(t *testing.T) {
	cmd := &MedliCommand{
		Name: "Test",
		Arguments: []*ArgDef{
			{Name: "when", Type: Duration},
		},
		RequiredArgs: 1,
	}

	parsed, err := cmd.parseArgs("1h30m")
	if err != nil {
		t.Fatal("unexpected error:", err)
	}

	if parsed[0].Duration() != time.Hour+time.Minute*30 {
		t.Error("expected 1h30m, got", parsed[0].Duration())
	}

	_, err = cmd.parseArgs("notaduration")
	if err == nil {
		t.Error("expected an error for a bad duration")
	}
}

func TestParseArgsCombos(t *testing.T) {
	cmd := &MedliCommand{
		Name: "Test",
		Arguments: []*ArgDef{
			{Name: "zone", Type: String},
			{Name: "offset", Type: Int},
		},
		ArgumentCombos: [][]int{{1}, {0}},
	}

	parsed, err := cmd.parseArgs("2")
	if err != nil {
		t.Fatal("unexpected error:", err)
	}

	if parsed[1].Int() != 2 {
		t.Error("expected the int combo to win, got", parsed[1].Value)
	}

	if parsed[0].Value != nil {
		t.Error("expected the zone arg to stay empty")
	}

	parsed, err = cmd.parseArgs("Europe/Oslo")
	if err != nil {
		t.Fatal("unexpected error:", err)
	}

	if parsed[0].Str() != "Europe/Oslo" {
		t.Error("expected the string combo to win, got", parsed[0].Value)
	}
}

func TestFindCommandFromInput(t *testing.T) {
	oldRoots := rootCommands
	defer func() { rootCommands = oldRoots }()
	rootCommands = nil

	tag := &MedliCommand{
		Name:    "Tag",
		Aliases: []string{"t"},
		RunFunc: func(data *Data) (interface{}, error) { return nil, nil },
		Subcommands: []*MedliCommand{
			{Name: "Create", Aliases: []string{"add"}},
		},
	}
	AddRootCommands(nil, tag)

	cmd, rest := findCommandFromInput("tag create foo bar")
	if cmd == nil || cmd.FullName() != "Tag Create" {
		t.Fatal("expected Tag Create, got", cmd)
	}
	if rest != "foo bar" {
		t.Errorf("expected rest %q, got %q", "foo bar", rest)
	}

	cmd, rest = findCommandFromInput("t something")
	if cmd == nil || cmd.Name != "Tag" {
		t.Fatal("expected the alias to resolve to Tag")
	}
	if rest != "something" {
		t.Errorf("expected rest %q, got %q", "something", rest)
	}

	cmd, _ = findCommandFromInput("nosuchcommand")
	if cmd != nil {
		t.Error("expected no command, got", cmd.Name)
	}
}
