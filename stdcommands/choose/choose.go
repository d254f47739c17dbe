package choose

import (
	"math/rand"

	"github.com/lurelin/medli/commands"
)

var Command = &commands.MedliCommand{
	CmdCategory: commands.CategoryFun,
	Name:        "Choose",
	Description: "Chooses between multiple options",
	LongDescription: "Chooses between multiple options.\n" +
		`Wrap options containing spaces in double quotes: choose "sleep in" "get up early".`,
	RunInDM:      true,
	RequiredArgs: 1,
	Arguments: []*commands.ArgDef{
		{Name: "choices", Type: commands.Rest, Help: "The options, quote any with spaces"},
	},

	SlashCommandEnabled: true,

	RunFunc: func(data *commands.Data) (interface{}, error) {
		choices := commands.SplitArgs(data.Args[0].Str())
		if len(choices) < 2 {
			return "Not enough choices to pick from.", nil
		}

		return choices[rand.Intn(len(choices))], nil
	},
}
