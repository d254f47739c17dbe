// Package bot owns the gateway connection and the plugin lifecycle around it.
package bot

import (
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/lurelin/medli/common"
	"github.com/mediocregopher/radix/v3"
)

var (
	// Started is the time the gateway connection was opened
	Started = time.Now()

	// Enabled is set by the run package when this process should run the bot
	Enabled bool

	// Running is true once the gateway connection is up and plugins are initialized
	Running bool

	logger = common.GetPluginLogger(&botPlugin{})

	stopOnce sync.Once
)

// Run connects to discord and starts all the plugins, this blocks until the
// gateway handshake has finished.
func Run() {
	setup()

	logger.Info("Running bot")

	InitPlugins()

	err := common.BotSession.Open()
	if err != nil {
		logger.WithError(err).Fatal("Failed opening gateway connection")
	}

	Started = time.Now()
	Running = true

	LateInitPlugins()
}

func setup() {
	token := common.ConfBotToken.GetString()
	if token == "" {
		logger.Fatal("No bot token set, set the medli.bot_token config value")
	}

	if !strings.HasPrefix(token, "Bot ") {
		token = "Bot " + token
	}

	session, err := discordgo.New(token)
	if err != nil {
		logger.WithError(err).Fatal("Failed creating discord session")
	}

	session.Identify.Intents = discordgo.IntentGuilds |
		discordgo.IntentGuildMembers |
		discordgo.IntentGuildBans |
		discordgo.IntentGuildMessages |
		discordgo.IntentGuildMessageReactions |
		discordgo.IntentDirectMessages |
		discordgo.IntentMessageContent

	// messages are kept around for the reaction handling in starboard
	session.State.MaxMessageCount = 1000
	session.State.TrackPresences = false
	session.State.TrackVoice = false

	session.AddHandler(onReady)
	session.AddHandler(onConnect)
	session.AddHandler(onDisconnect)
	session.AddHandler(onResumed)
	session.AddHandler(handleGuildCreate)
	session.AddHandler(handleGuildDelete)

	// has to be set before plugins run their BotInit
	common.BotSession = session
}

// InitPlugins runs the BotInit handlers, this is called before the gateway
// connection is opened so plugins can add their discord handlers.
func InitPlugins() {
	for _, plugin := range common.Plugins {
		if initBot, ok := plugin.(BotInitHandler); ok {
			initBot.BotInit()
		}
	}
}

// LateInitPlugins runs the LateBotInit handlers, after the gateway connection
// has been opened.
func LateInitPlugins() {
	for _, plugin := range common.Plugins {
		if lateInit, ok := plugin.(LateBotInitHandler); ok {
			lateInit.LateBotInit()
		}
	}
}

// Stop stops all plugins and closes the gateway connection, wg.Done is called
// when the bot itself is done, plugins add their own entries to the group.
func Stop(wg *sync.WaitGroup) {
	StopAllPlugins(wg)

	if common.BotSession != nil {
		common.BotSession.Close()
	}

	wg.Done()
}

// StopAllPlugins sends the stop event to all plugins that handle it, only
// does something the first time it's called.
func StopAllPlugins(wg *sync.WaitGroup) {
	stopOnce.Do(func() {
		for _, v := range common.Plugins {
			stopper, ok := v.(BotStopperHandler)
			if ok {
				wg.Add(1)
				logger.Debug("Sending stop event to stopper: ", v.PluginInfo().Name)
				go stopper.StopBot(wg)
			}
		}
	})
}

func onReady(s *discordgo.Session, r *discordgo.Ready) {
	logger.Info("Ready received! Connected as ", r.User.Username, " on ", len(r.Guilds), " servers")

	err := s.UpdateGameStatus(0, common.ConfDefaultPrefix.GetString()+"help")
	if err != nil {
		logger.WithError(err).Error("Failed setting the status")
	}
}

func onConnect(s *discordgo.Session, c *discordgo.Connect) {
	logger.Info("Connected to the gateway")
}

func onDisconnect(s *discordgo.Session, d *discordgo.Disconnect) {
	logger.Warn("Disconnected from the gateway")
}

func onResumed(s *discordgo.Session, r *discordgo.Resumed) {
	logger.Info("Resumed gateway session")
}

// handleGuildCreate fires both when joining a new server and when the gateway
// replays the server list after a connect, the connected_guilds set tells the
// two apart.
func handleGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	var added int
	err := common.RedisPool.Do(radix.Cmd(&added, "SADD", "connected_guilds", g.ID))
	if err != nil {
		logger.WithError(err).Error("Failed adding server to connected_guilds")
		return
	}

	if added < 1 {
		return
	}

	logger.WithField("guild", g.ID).Info("Joined new server: ", g.Name)

	guildID := common.MustParseInt(g.ID)
	for _, v := range common.Plugins {
		if h, ok := v.(NewGuildHandler); ok {
			h.NewGuild(guildID)
		}
	}
}

func handleGuildDelete(s *discordgo.Session, g *discordgo.GuildDelete) {
	if g.Unavailable {
		// just an outage, we're still on the server
		return
	}

	logger.WithField("guild", g.ID).Info("Removed from server")

	err := common.RedisPool.Do(radix.Cmd(nil, "SREM", "connected_guilds", g.ID))
	if err != nil {
		logger.WithError(err).Error("Failed removing server from connected_guilds")
	}

	EmitGuildRemoved(common.MustParseInt(g.ID))
}

// GuildCount returns the number of servers in the state.
func GuildCount() int {
	if common.BotSession == nil {
		return 0
	}

	state := common.BotSession.State
	state.RLock()
	defer state.RUnlock()
	return len(state.Guilds)
}
