package moderation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/lurelin/medli/commands"
	"github.com/lurelin/medli/common"
)

var _ commands.CommandProvider = (*Plugin)(nil)

func (p *Plugin) AddCommands() {
	commands.AddRootCommands(p, cmdRaid, cmdMentionspam)
}

var cmdRaid = &commands.MedliCommand{
	Name:        "Raid",
	Aliases:     []string{"raids", "raidmode"},
	Description: "Controls raid mode on the server",
	LongDescription: "Controls raid mode on the server.\n" +
		"Calling this command with no arguments will show the current raid mode information.\n" +
		"You must have Manage Server permissions to use this command or its subcommands.",
	CmdCategory:         commands.CategoryModeration,
	RequireDiscordPerms: []int64{discordgo.PermissionManageServer},

	SlashCommandEnabled: true,
	SlashFallbackSub:    "info",

	RunFunc: cmdFuncRaidInfo,

	Subcommands: []*commands.MedliCommand{
		{
			Name:        "On",
			Aliases:     []string{"enable", "enabled"},
			Description: "Enables basic raid mode on the server",
			LongDescription: "Enables basic raid mode on the server.\n" +
				"When enabled, the server verification level is raised and new members joining are broadcast " +
				"to a specified channel.\n" +
				"If no channel is given, then the bot will broadcast join messages to the channel this " +
				"command was used in.",
			Arguments: []*commands.ArgDef{
				{Name: "channel", Type: commands.ChannelID, Help: "The channel to broadcast join messages to"},
			},
			RequireDiscordPerms: []int64{discordgo.PermissionManageServer},

			SlashCommandEnabled: true,

			RunFunc: cmdFuncRaidOn,
		},
		{
			Name:        "Off",
			Aliases:     []string{"disable", "disabled"},
			Description: "Disables raid mode on the server",
			LongDescription: "Disables raid mode on the server.\n" +
				"When disabled, the server verification level is set back to low and the bot stops " +
				"broadcasting join messages.",
			RequireDiscordPerms: []int64{discordgo.PermissionManageServer},

			SlashCommandEnabled: true,

			RunFunc: cmdFuncRaidOff,
		},
		{
			Name:        "Strict",
			Description: "Enables strict raid mode on the server",
			LongDescription: "Enables strict raid mode on the server.\n" +
				"Strict mode is similar to regular enabled raid mode, with the added benefit of auto-banning " +
				"members that are spamming. The threshold for spamming depends on a per-content basis and " +
				"also on a per-user basis of 15 messages per 17 seconds.\n" +
				"If this is considered too strict, it is recommended to fall back to regular raid mode.",
			Arguments: []*commands.ArgDef{
				{Name: "channel", Type: commands.ChannelID, Help: "The channel to broadcast join messages to"},
			},
			RequireDiscordPerms: []int64{discordgo.PermissionManageServer},

			SlashCommandEnabled: true,

			RunFunc: cmdFuncRaidStrict,
		},
	},
}

var cmdMentionspam = &commands.MedliCommand{
	Name:        "Mentionspam",
	Description: "Enables auto-banning accounts that spam mentions",
	LongDescription: "Enables auto-banning accounts that spam mentions.\n" +
		"If a message contains `count` or more mentions then the bot will automatically attempt to " +
		"auto-ban the member. The `count` must be greater than 3. If the `count` is 0 then this is disabled.\n" +
		"This only applies for user mentions. Everyone or Role mentions are not included.\n" +
		"To use this command you must have the Ban Members permission.",
	CmdCategory: commands.CategoryModeration,
	Arguments: []*commands.ArgDef{
		{Name: "count", Type: commands.Int, Help: "The mention threshold, 0 disables auto-banning"},
	},
	RequireDiscordPerms: []int64{discordgo.PermissionBanMembers},

	SlashCommandEnabled: true,
	SlashFallbackSub:    "threshold",

	RunFunc: cmdFuncMentionspam,

	Subcommands: []*commands.MedliCommand{
		{
			Name:        "Ignore",
			Aliases:     []string{"bypass"},
			Description: "Specifies what channels ignore mentionspam auto-bans",
			LongDescription: "Specifies what channels ignore mentionspam auto-bans.\n" +
				"If a channel is given then that channel will no longer be protected by auto-banning " +
				"from mention spammers.",
			RequiredArgs: 1,
			Arguments: []*commands.ArgDef{
				{Name: "channels", Type: commands.Rest, Help: "The channels to ignore"},
			},
			RequireDiscordPerms: []int64{discordgo.PermissionBanMembers},

			SlashCommandEnabled: true,

			RunFunc: cmdFuncMentionspamIgnore,
		},
		{
			Name:         "Unignore",
			Aliases:      []string{"protect"},
			Description:  "Specifies what channels to take off the mentionspam ignore list",
			RequiredArgs: 1,
			Arguments: []*commands.ArgDef{
				{Name: "channels", Type: commands.Rest, Help: "The channels to protect again"},
			},
			RequireDiscordPerms: []int64{discordgo.PermissionBanMembers},

			SlashCommandEnabled: true,

			RunFunc: cmdFuncMentionspamUnignore,
		},
	},
}

func cmdFuncRaidInfo(data *commands.Data) (interface{}, error) {
	config, err := GetConfig(data.GuildID)
	if err != nil {
		return nil, err
	}

	channel := "None"
	if config.BroadcastChannel != 0 {
		channel = fmt.Sprintf("<#%d>", config.BroadcastChannel)
	}

	return fmt.Sprintf("Raid Mode: %s\nBroadcast Channel: %s", config.RaidMode, channel), nil
}

func cmdFuncRaidOn(data *commands.Data) (interface{}, error) {
	channelID := data.Args[0].Int64()
	if channelID == 0 {
		channelID = data.ChannelID
	}

	var lines []string
	if !setVerificationLevel(data, discordgo.VerificationLevelHigh) {
		lines = append(lines, "⚠ Could not set verification level.")
	}

	err := SetRaidMode(data.GuildID, RaidModeOn, channelID)
	if err != nil {
		return nil, err
	}

	lines = append(lines, fmt.Sprintf("Raid mode enabled. Broadcasting join messages to <#%d>.", channelID))
	return strings.Join(lines, "\n"), nil
}

func cmdFuncRaidOff(data *commands.Data) (interface{}, error) {
	var lines []string
	if !setVerificationLevel(data, discordgo.VerificationLevelLow) {
		lines = append(lines, "⚠ Could not set verification level.")
	}

	err := disableRaidMode(data.GuildID)
	if err != nil {
		return nil, err
	}

	lines = append(lines, "Raid mode disabled. No longer broadcasting join messages.")
	return strings.Join(lines, "\n"), nil
}

func cmdFuncRaidStrict(data *commands.Data) (interface{}, error) {
	channelID := data.Args[0].Int64()
	if channelID == 0 {
		channelID = data.ChannelID
	}

	perms, err := data.Session.UserChannelPermissions(data.Session.State.User.ID, common.StrID(data.ChannelID))
	if err != nil || perms&discordgo.PermissionKickMembers == 0 || perms&discordgo.PermissionBanMembers == 0 {
		return "🚫 I do not have permissions to kick and ban members.", nil
	}

	var lines []string
	if !setVerificationLevel(data, discordgo.VerificationLevelHigh) {
		lines = append(lines, "⚠ Could not set verification level.")
	}

	err = SetRaidMode(data.GuildID, RaidModeStrict, channelID)
	if err != nil {
		return nil, err
	}

	lines = append(lines, fmt.Sprintf("Raid mode enabled strictly. Broadcasting join messages to <#%d>.", channelID))
	return strings.Join(lines, "\n"), nil
}

func setVerificationLevel(data *commands.Data, level discordgo.VerificationLevel) bool {
	_, err := data.Session.GuildEdit(common.StrID(data.GuildID), &discordgo.GuildParams{VerificationLevel: &level})
	return err == nil
}

func cmdFuncMentionspam(data *commands.Data) (interface{}, error) {
	if data.Args[0].Value == nil {
		config, err := GetConfig(data.GuildID)
		if err != nil {
			return nil, err
		}

		if config.MentionCount == 0 {
			return "This server has not set up mention spam banning.", nil
		}

		ignores := "None"
		if len(config.SafeMentionChannels) > 0 {
			ignores = channelMentions(config.SafeMentionChannels)
		}

		return fmt.Sprintf("- Threshold: %d mentions\n- Ignored Channels: %s", config.MentionCount, ignores), nil
	}

	count := data.Args[0].Int()
	if count == 0 {
		err := SetMentionCount(data.GuildID, 0)
		if err != nil {
			return nil, err
		}

		return "Auto-banning members has been disabled.", nil
	}

	if count <= 3 {
		return "🚫 Auto-ban threshold must be greater than three.", nil
	}

	err := SetMentionCount(data.GuildID, count)
	if err != nil {
		return nil, err
	}

	return fmt.Sprintf("Now auto-banning members that mention more than %d users.", count), nil
}

func cmdFuncMentionspamIgnore(data *commands.Data) (interface{}, error) {
	channels := parseChannelList(data.Args[0].Str())
	if len(channels) == 0 {
		return "Missing channels to ignore.", nil
	}

	err := IgnoreMentionChannels(data.GuildID, channels)
	if err != nil {
		return nil, err
	}

	return fmt.Sprintf("Mentions are now ignored on %s.", channelMentions(channels)), nil
}

func cmdFuncMentionspamUnignore(data *commands.Data) (interface{}, error) {
	channels := parseChannelList(data.Args[0].Str())
	if len(channels) == 0 {
		return "Missing channels to protect.", nil
	}

	err := UnignoreMentionChannels(data.GuildID, channels)
	if err != nil {
		return nil, err
	}

	return "Updated mentionspam ignore list.", nil
}

// parseChannelList pulls channel ids out of a list of mentions or raw ids,
// unparseable tokens are skipped.
func parseChannelList(input string) []int64 {
	var ids []int64
	for _, token := range strings.Fields(input) {
		token = strings.TrimSuffix(strings.TrimPrefix(token, "<#"), ">")
		id, err := strconv.ParseInt(token, 10, 64)
		if err == nil && id > 0 {
			ids = append(ids, id)
		}
	}

	return ids
}

func channelMentions(channelIDs []int64) string {
	mentions := make([]string, 0, len(channelIDs))
	for _, id := range channelIDs {
		mentions = append(mentions, fmt.Sprintf("<#%d>", id))
	}

	return strings.Join(mentions, ", ")
}
