package currenttime

import (
	"strings"
	"time"

	"github.com/lurelin/medli/commands"
	"github.com/lurelin/medli/common"
	"github.com/lurelin/medli/timezones"
)

var Command = &commands.MedliCommand{
	CmdCategory:    commands.CategoryTool,
	Name:           "CurrentTime",
	Aliases:        []string{"ctime", "gettime"},
	Description:    "Shows the current time in a timezone, your stored one by default",
	RunInDM:        true,
	ArgumentCombos: [][]int{{1}, {0}, {}},
	Arguments: []*commands.ArgDef{
		{Name: "zone", Type: commands.Rest, Help: "Timezone name or abbreviation"},
		{Name: "offset", Type: commands.Int, Help: "Hours offset from UTC"},
	},

	SlashCommandEnabled: true,

	RunFunc: cmdFuncCurrentTime,
}

const timeFormat = "Mon Jan 02 15:04:05 (UTC -07:00)"

func cmdFuncCurrentTime(data *commands.Data) (interface{}, error) {
	now := time.Now()

	if data.Args[0].Value != nil {
		zone, suggestions := timezones.MatchZone(data.Args[0].Str())
		if zone == "" {
			response := "Unknown timezone."
			if len(suggestions) > 0 {
				response += " Did you mean: " + strings.Join(suggestions, ", ") + "?"
			}

			return response, nil
		}

		location, err := time.LoadLocation(zone)
		if err != nil {
			return nil, err
		}

		return now.In(location).Format(timeFormat), nil
	}

	if data.Args[1].Value != nil {
		location := time.FixedZone("", data.Args[1].Int()*60*60)
		return now.In(location).Format(timeFormat), nil
	}

	if loc := timezones.GetUserTimezone(common.MustParseInt(data.Author.ID)); loc != nil {
		return now.In(loc).Format(timeFormat), nil
	}

	return now.Format(timeFormat), nil
}
