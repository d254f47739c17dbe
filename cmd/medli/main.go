package main

import (
	"github.com/lurelin/medli/commands"
	"github.com/lurelin/medli/common/prom"
	"github.com/lurelin/medli/common/run"
	"github.com/lurelin/medli/common/scheduledevents"

	// Plugins
	"github.com/lurelin/medli/hyrule"
	"github.com/lurelin/medli/moderation"
	"github.com/lurelin/medli/reminders"
	"github.com/lurelin/medli/starboard"
	"github.com/lurelin/medli/stdcommands"
	"github.com/lurelin/medli/synth"
	"github.com/lurelin/medli/tags"
	"github.com/lurelin/medli/timezones"
	"github.com/lurelin/medli/todos"
)

func main() {
	run.Init()

	// Setup plugins
	commands.RegisterPlugin()
	scheduledevents.RegisterPlugin()
	prom.RegisterPlugin()

	stdcommands.RegisterPlugin()
	tags.RegisterPlugin()
	reminders.RegisterPlugin()
	timezones.RegisterPlugin()
	starboard.RegisterPlugin()
	moderation.RegisterPlugin()
	todos.RegisterPlugin()
	hyrule.RegisterPlugin()
	synth.RegisterPlugin()

	run.Run()
}
