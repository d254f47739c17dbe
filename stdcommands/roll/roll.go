package roll

import (
	"fmt"
	"math/rand"

	"github.com/justinian/dice"
	"github.com/lurelin/medli/commands"
)

var Command = &commands.MedliCommand{
	CmdCategory:     commands.CategoryFun,
	Name:            "Roll",
	Description:     "Rolls dice, nothing for 6 sides, a number for max sides, or RPG dice syntax",
	LongDescription: "Example: `roll 2d6+3`",
	RunInDM:         true,
	ArgumentCombos:  [][]int{{1}, {0}, {}},
	Arguments: []*commands.ArgDef{
		{Name: "dice", Type: commands.String, Help: "RPG dice expression like 2d6+3"},
		{Name: "sides", Type: commands.Int, Help: "Sides on a single die"},
	},

	SlashCommandEnabled: true,

	RunFunc: func(data *commands.Data) (interface{}, error) {
		if data.Args[0].Value != nil {
			result, _, err := dice.Roll(data.Args[0].Str())
			if err != nil {
				return err.Error(), nil
			}

			output := result.String()
			if len(output) > 100 {
				output = output[:100] + "..."
			}

			return output, nil
		}

		sides := 6
		if data.Args[1].Value != nil && data.Args[1].Int() > 0 {
			sides = data.Args[1].Int()
		}

		return fmt.Sprintf("🎲 %d (1 - %d)", rand.Intn(sides)+1, sides), nil
	},
}
