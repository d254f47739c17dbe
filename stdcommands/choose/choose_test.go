package choose

import (
	"testing"

	"github.com/lurelin/medli/commands"
)

func chooseData(raw string) *commands.Data {
	return &commands.Data{
		Args: []*commands.ParsedArg{
			{Def: Command.Arguments[0], Value: raw},
		},
	}
}

func TestChooseTooFew(t *testing.T) {
	response, err := Command.RunFunc(chooseData("onlyone"))
	if err != nil {
		t.Fatal(err)
	}

	if response != "Not enough choices to pick from." {
		t.Errorf("got %q", response)
	}
}

func TestChoosePicksAnOption(t *testing.T) {
	options := map[string]bool{"sleep in": true, "get up early": true}

	for i := 0; i < 20; i++ {
		response, err := Command.RunFunc(chooseData(`"sleep in" "get up early"`))
		if err != nil {
			t.Fatal(err)
		}

		if !options[response.(string)] {
			t.Fatalf("picked %q, not one of the options", response)
		}
	}
}
