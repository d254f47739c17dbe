package commands

import (
	"time"

	"github.com/lurelin/medli/common"
	"github.com/lurelin/medli/common/config"
	"github.com/mediocregopher/radix/v3"
)

var logger = common.GetPluginLogger(&Plugin{})

var confSetTyping = config.RegisterOption("medli.commands.typing", "Whether to set typing or not when running commands", true)

type Plugin struct{}

func (p *Plugin) PluginInfo() *common.PluginInfo {
	return &common.PluginInfo{
		Name:     "Commands",
		SysName:  "commands",
		Category: common.PluginCategoryCore,
	}
}

func RegisterPlugin() {
	plugin := &Plugin{}
	common.RegisterPlugin(plugin)

	err := common.GORM.AutoMigrate(&LoggedExecutedCommand{}).Error
	if err != nil {
		logger.WithError(err).Fatal("Failed migrating logged commands database")
	}

	common.InitSchemas("commands", DBSchemas...)
}

type LoggedExecutedCommand struct {
	ID uint `gorm:"primary_key"`

	UserID    string
	ChannelID string
	GuildID   string

	Command      string
	RawCommand   string
	TimeStamp    time.Time
	ResponseTime int64
}

func (l LoggedExecutedCommand) TableName() string {
	return "executed_commands"
}

type Category struct {
	Name       string
	Emoji      string
	EmbedColor int
}

var (
	CategoryGeneral = &Category{
		Name:       "General",
		Emoji:      "ℹ️",
		EmbedColor: 0xe53939,
	}
	CategoryTool = &Category{
		Name:       "Tools & Utilities",
		Emoji:      "🔨",
		EmbedColor: 0xeaed40,
	}
	CategoryModeration = &Category{
		Name:       "Moderation",
		Emoji:      "👮",
		EmbedColor: 0xdb0606,
	}
	CategoryFun = &Category{
		Name:       "Fun",
		Emoji:      "🎉",
		EmbedColor: 0x5ae26c,
	}
)

// CommandProvider is implemented by plugins that add commands, AddCommands is
// called during InitCommands.
type CommandProvider interface {
	AddCommands()
}

var rootCommands []*MedliCommand

// AddRootCommands registers top level commands, subcommands are picked up
// through their parent.
func AddRootCommands(plugin common.Plugin, cmds ...*MedliCommand) {
	for _, cmd := range cmds {
		cmd.Plugin = plugin
		cmd.bindSubcommands()
		rootCommands = append(rootCommands, cmd)
	}
}

// AllCommands returns all registered top level commands.
func AllCommands() []*MedliCommand {
	return rootCommands
}

// FindRootCommand matches name against command names and aliases, case
// insensitive.
func FindRootCommand(name string) *MedliCommand {
	for _, cmd := range rootCommands {
		if cmd.matchesName(name) {
			return cmd
		}
	}

	return nil
}

// InitCommands sets up the command system and collects the commands from all
// registered plugins.
func InitCommands() {
	AddRootCommands(&Plugin{}, cmdHelp, cmdPrefix)

	for _, v := range common.Plugins {
		if adder, ok := v.(CommandProvider); ok {
			adder.AddCommands()
		}
	}
}

// GetCommandPrefix returns the command prefix for the given server, the
// default one if none is set.
func GetCommandPrefix(guildID int64) (string, error) {
	var prefix string
	err := common.RedisPool.Do(radix.Cmd(&prefix, "GET", "command_prefix:"+common.StrID(guildID)))
	if prefix == "" {
		prefix = common.ConfDefaultPrefix.GetString()
	}

	return prefix, err
}

func SetCommandPrefix(guildID int64, prefix string) error {
	return common.RedisPool.Do(radix.Cmd(nil, "SET", "command_prefix:"+common.StrID(guildID), prefix))
}
