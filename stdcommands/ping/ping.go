package ping

import (
	"fmt"
	"time"

	"github.com/lurelin/medli/commands"
)

var Command = &commands.MedliCommand{
	CmdCategory: commands.CategoryGeneral,
	Name:        "Ping",
	Description: "Shows the latency to the Discord gateway",
	RunInDM:     true,

	SlashCommandEnabled: true,
	IsResponseEphemeral: true,

	RunFunc: func(data *commands.Data) (interface{}, error) {
		return fmt.Sprintf("Pong! Gateway latency: %s", data.Session.HeartbeatLatency().Round(time.Millisecond)), nil
	},
}
