package bot

import (
	"sync"

	"github.com/lurelin/medli/common"
)

type botPlugin struct{}

func (p *botPlugin) PluginInfo() *common.PluginInfo {
	return &common.PluginInfo{
		Name:     "Bot Core",
		SysName:  "bot_core",
		Category: common.PluginCategoryCore,
	}
}

// BotInitHandler runs after the session is created but before the gateway
// connection is opened, use this to add discord handlers.
type BotInitHandler interface {
	BotInit()
}

// LateBotInitHandler runs after the gateway connection has been opened
type LateBotInitHandler interface {
	LateBotInit()
}

// BotStopperHandler runs when the bot is shutting down.
// wg.Done should be called when the plugin has finished shutting down.
type BotStopperHandler interface {
	StopBot(wg *sync.WaitGroup)
}

// RemoveGuildHandler runs when the bot leaves a guild, or a guild is deleted
type RemoveGuildHandler interface {
	RemoveGuild(guildID int64)
}

// NewGuildHandler runs when the bot joins a new guild
type NewGuildHandler interface {
	NewGuild(guildID int64)
}

// EmitGuildRemoved calls RemoveGuild on all plugins that implement RemoveGuildHandler
func EmitGuildRemoved(guildID int64) {
	for _, v := range common.Plugins {
		remover, ok := v.(RemoveGuildHandler)
		if ok {
			remover.RemoveGuild(guildID)
		}
	}
}
