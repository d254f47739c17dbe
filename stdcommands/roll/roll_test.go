package roll

import (
	"fmt"
	"strings"
	"testing"

	"github.com/lurelin/medli/commands"
)

func rollData(expr interface{}, sides interface{}) *commands.Data {
	return &commands.Data{
		Args: []*commands.ParsedArg{
			{Def: Command.Arguments[0], Value: expr},
			{Def: Command.Arguments[1], Value: sides},
		},
	}
}

func TestRollExpression(t *testing.T) {
	response, err := Command.RunFunc(rollData("2d6", nil))
	if err != nil {
		t.Fatal(err)
	}

	if response.(string) == "" {
		t.Error("got an empty response for 2d6")
	}
}

func TestRollBadExpression(t *testing.T) {
	response, err := Command.RunFunc(rollData("notdice", nil))
	if err != nil {
		t.Fatal(err)
	}

	// parse failures come back as the reply, not as an error
	if response.(string) == "" {
		t.Error("got an empty response for a bad expression")
	}
}

func TestRollSides(t *testing.T) {
	for i := 0; i < 50; i++ {
		response, err := Command.RunFunc(rollData(nil, int64(20)))
		if err != nil {
			t.Fatal(err)
		}

		var rolled, max int
		if _, err := fmt.Sscanf(response.(string), "🎲 %d (1 - %d)", &rolled, &max); err != nil {
			t.Fatalf("unexpected response %q: %v", response, err)
		}

		if rolled < 1 || rolled > 20 || max != 20 {
			t.Fatalf("rolled %d out of %d", rolled, max)
		}
	}
}

func TestRollDefaultSides(t *testing.T) {
	response, err := Command.RunFunc(rollData(nil, nil))
	if err != nil {
		t.Fatal(err)
	}

	if !strings.HasSuffix(response.(string), "(1 - 6)") {
		t.Errorf("got %q, expected a six sided default", response)
	}
}
