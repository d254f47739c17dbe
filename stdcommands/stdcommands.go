// Package stdcommands carries the small standalone commands that don't
// warrant a plugin of their own, one package per command.
package stdcommands

import (
	"github.com/lurelin/medli/commands"
	"github.com/lurelin/medli/common"
	"github.com/lurelin/medli/stdcommands/choose"
	"github.com/lurelin/medli/stdcommands/currenttime"
	"github.com/lurelin/medli/stdcommands/ping"
	"github.com/lurelin/medli/stdcommands/roll"
)

var _ commands.CommandProvider = (*Plugin)(nil)

type Plugin struct{}

func (p *Plugin) PluginInfo() *common.PluginInfo {
	return &common.PluginInfo{
		Name:     "Standard Commands",
		SysName:  "standard_commands",
		Category: common.PluginCategoryCore,
	}
}

func (p *Plugin) AddCommands() {
	commands.AddRootCommands(p,
		ping.Command,
		roll.Command,
		choose.Command,
		currenttime.Command,
	)
}

func RegisterPlugin() {
	common.RegisterPlugin(&Plugin{})
}
