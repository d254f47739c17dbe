package starboard

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/bwmarrin/discordgo"
	"github.com/lurelin/medli/commands"
	"github.com/lurelin/medli/common"
)

var _ commands.CommandProvider = (*Plugin)(nil)

func (p *Plugin) AddCommands() {
	commands.AddRootCommands(p, cmdStarboard, cmdStar, cmdUnstar)
}

const goldColor = 0xf1c40f

var statsMedals = []string{"🥇", "🥈", "🥉"}

var cmdStarboard = &commands.MedliCommand{
	Name:        "Starboard",
	Description: "Sets up the starboard for this server",
	LongDescription: "Sets up the starboard for this server.\n" +
		"This creates a new channel with the specified name and makes it into the server's starboard. " +
		"If no name is passed in then it defaults to `starboard`.",
	CmdCategory: commands.CategoryFun,
	Arguments: []*commands.ArgDef{
		{Name: "name", Type: commands.String, Help: "The starboard channel name", Default: "starboard"},
	},
	RequireDiscordPerms: []int64{discordgo.PermissionManageServer},

	SlashCommandEnabled: true,
	SlashFallbackSub:    "create",

	RunFunc: cmdFuncStarboardCreate,

	Subcommands: []*commands.MedliCommand{
		{
			Name:        "Info",
			Description: "Shows meta information about the starboard",

			SlashCommandEnabled: true,

			RunFunc: cmdFuncStarboardInfo,
		},
	},
}

var cmdStar = &commands.MedliCommand{
	Name:        "Star",
	Description: "Stars a message via message ID",
	LongDescription: "Stars a message via message ID.\n" +
		"To star a message you should right click on a message and then click \"Copy ID\". " +
		"You must have Developer Mode enabled to get that functionality.\n" +
		"It is recommended that you react to a message with ⭐ instead.\n" +
		"You can only star a message once.",
	CmdCategory:  commands.CategoryFun,
	RequiredArgs: 1,
	Arguments: []*commands.ArgDef{
		{Name: "message", Type: commands.String, Help: "The message ID to star"},
	},

	SlashCommandEnabled: true,
	SlashFallbackSub:    "post",
	IsResponseEphemeral: true,

	RunFunc: cmdFuncStarPost,

	Subcommands: []*commands.MedliCommand{
		cmdStarShow,
		cmdStarWho,
		cmdStarRandom,
		cmdStarStats,
		cmdStarLock,
		cmdStarUnlock,
		cmdStarLimit,
		cmdStarAge,
		cmdStarClean,
	},
}

var cmdUnstar = &commands.MedliCommand{
	Name:        "Unstar",
	Description: "Unstars a message via message ID",
	LongDescription: "Unstars a message via message ID.\n" +
		"To unstar a message you should right click on a message and then click \"Copy ID\". " +
		"You must have Developer Mode enabled to get that functionality.",
	CmdCategory:  commands.CategoryFun,
	RequiredArgs: 1,
	Arguments: []*commands.ArgDef{
		{Name: "message", Type: commands.String, Help: "The message ID to remove a star from"},
	},

	SlashCommandEnabled: true,
	IsResponseEphemeral: true,

	RunFunc: cmdFuncUnstar,
}

var cmdStarShow = &commands.MedliCommand{
	Name:        "Show",
	Description: "Shows a starred message via its ID",
	LongDescription: "Shows a starred message via its ID.\n" +
		"The ID can either be the starred message ID or the message ID in the starboard channel.",
	RequiredArgs: 1,
	Arguments: []*commands.ArgDef{
		{Name: "message", Type: commands.String, Help: "The message ID to show star information of"},
	},
	Cooldown: 10,

	SlashCommandEnabled: true,

	RunFunc: cmdFuncStarShow,
}

var cmdStarWho = &commands.MedliCommand{
	Name:        "Who",
	Description: "Shows who starred a message",
	LongDescription: "Shows who starred a message.\n" +
		"The ID can either be the starred message ID or the message ID in the starboard channel.",
	RequiredArgs: 1,
	Arguments: []*commands.ArgDef{
		{Name: "message", Type: commands.String, Help: "The message ID to show starrer information of"},
	},

	SlashCommandEnabled: true,

	RunFunc: cmdFuncStarWho,
}

var cmdStarRandom = &commands.MedliCommand{
	Name:        "Random",
	Description: "Shows a random starred message",
	Arguments: []*commands.ArgDef{
		{Name: "member", Type: commands.UserID, Help: "The member to show random stars of, if not given then shows a random star in the server"},
	},

	SlashCommandEnabled: true,

	RunFunc: cmdFuncStarRandom,
}

var cmdStarStats = &commands.MedliCommand{
	Name:        "Stats",
	Description: "Shows statistics on the starboard usage of the server or a member",
	Arguments: []*commands.ArgDef{
		{Name: "member", Type: commands.UserID, Help: "The member to show stats of, if not given then shows server stats"},
	},

	SlashCommandEnabled: true,

	RunFunc: cmdFuncStarStats,
}

var cmdStarLock = &commands.MedliCommand{
	Name:        "Lock",
	Description: "Locks the starboard from being processed",
	LongDescription: "Locks the starboard from being processed.\n" +
		"This is a moderation tool that allows you to temporarily disable the starboard to aid in dealing with star spam. " +
		"When the starboard is locked, no new entries are added as the bot no longer listens to reactions or star/unstar commands.",
	RequireDiscordPerms: []int64{discordgo.PermissionManageServer},

	SlashCommandEnabled: true,

	RunFunc: cmdFuncStarLock,
}

var cmdStarUnlock = &commands.MedliCommand{
	Name:                "Unlock",
	Description:         "Unlocks the starboard for re-processing",
	RequireDiscordPerms: []int64{discordgo.PermissionManageServer},

	SlashCommandEnabled: true,

	RunFunc: cmdFuncStarUnlock,
}

var cmdStarLimit = &commands.MedliCommand{
	Name:        "Limit",
	Aliases:     []string{"threshold"},
	Description: "Sets the minimum number of stars required to show up",
	LongDescription: "Sets the minimum number of stars required to show up.\n" +
		"Messages must have this number or more to show up in the starboard channel, between 1 and 100.\n" +
		"Messages that previously did not meet the limit but now do will still not show up until starred again.",
	RequiredArgs: 1,
	Arguments: []*commands.ArgDef{
		{Name: "stars", Type: commands.Int, Help: "The number of stars required before it shows up on the board"},
	},
	RequireDiscordPerms: []int64{discordgo.PermissionManageServer},

	SlashCommandEnabled: true,

	RunFunc: cmdFuncStarLimit,
}

var cmdStarAge = &commands.MedliCommand{
	Name:        "Age",
	Description: "Sets the maximum age of a message valid for starring",
	LongDescription: "Sets the maximum age of a message valid for starring.\n" +
		"By default the maximum age is 7 days, any message older than the specified age cannot be starred.\n" +
		"Specify a number followed by a unit, the valid units are `days`, `weeks`, `months` or `years` and the default is `days`. " +
		"The number must be a maximum of 35, or 10 when the unit is years.",
	RequiredArgs: 1,
	Arguments: []*commands.ArgDef{
		{Name: "number", Type: commands.Int, Help: "The number of units to set the maximum age to"},
		{Name: "units", Type: commands.String, Help: "The unit of time to use for the number", Default: "days"},
	},
	RequireDiscordPerms: []int64{discordgo.PermissionManageServer},

	SlashCommandEnabled: true,

	RunFunc: cmdFuncStarAge,
}

var cmdStarClean = &commands.MedliCommand{
	Name:        "Clean",
	Description: "Cleans the starboard",
	LongDescription: "Cleans the starboard.\n" +
		"This removes messages in the starboard that have less than or equal to the specified number of stars, defaulting to 1.\n" +
		"Note that this only checks the last 100 messages in the starboard.",
	Arguments: []*commands.ArgDef{
		{Name: "stars", Type: commands.Int, Help: "Remove messages that have less than or equal to this number", Default: int64(1)},
	},
	RequireDiscordPerms: []int64{discordgo.PermissionManageServer},

	SlashCommandEnabled: true,

	RunFunc: cmdFuncStarClean,
}

func cmdFuncStarboardCreate(data *commands.Data) (interface{}, error) {
	name := strings.TrimSpace(data.Args[0].Str())
	if name == "" {
		name = "starboard"
	}

	// read through to the database, the cache might predate the setup
	config, err := FetchConfig(data.GuildID)
	if err != nil {
		return nil, err
	}

	if config.ChannelID != 0 {
		if _, cerr := data.Session.State.Channel(common.StrID(config.ChannelID)); cerr == nil {
			return starboardInfoResponse(data, config), nil
		}

		// the configured channel was deleted at some point, start over
		err = DeleteBoard(data.GuildID)
		if err != nil {
			return nil, err
		}
	}

	perms, err := data.Session.UserChannelPermissions(data.Session.State.User.ID, common.StrID(data.ChannelID))
	if err != nil {
		return nil, err
	}

	if perms&discordgo.PermissionManageRoles == 0 || perms&discordgo.PermissionManageChannels == 0 {
		return "🚫 I do not have proper permissions (Manage Roles and Manage Channel)", nil
	}

	me := data.Session.State.User
	overwrites := []*discordgo.PermissionOverwrite{
		{
			ID:    me.ID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionManageMessages | discordgo.PermissionEmbedLinks | discordgo.PermissionReadMessageHistory,
		},
		{
			// the everyone role shares the server's id
			ID:    common.StrID(data.GuildID),
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionReadMessageHistory,
			Deny:  discordgo.PermissionSendMessages,
		},
	}

	channel, err := data.Session.GuildChannelCreateComplex(common.StrID(data.GuildID), discordgo.GuildChannelCreateData{
		Name:                 name,
		Type:                 discordgo.ChannelTypeGuildText,
		PermissionOverwrites: overwrites,
	})
	if err != nil {
		if cast, ok := errors.Cause(err).(*discordgo.RESTError); ok && cast.Response != nil && cast.Response.StatusCode == 403 {
			return "🚫 I do not have permissions to create a channel.", nil
		}

		return "🚫 This channel name is bad or an unknown error happened.", nil
	}

	err = CreateBoard(data.GuildID, common.MustParseInt(channel.ID))
	if err != nil {
		data.Session.ChannelDelete(channel.ID)
		logger.WithError(err).Error("failed saving new starboard")
		return "Could not create the channel due to an internal error.", nil
	}

	return "🌟 Starboard created at <#" + channel.ID + ">.", nil
}

func cmdFuncStarboardInfo(data *commands.Data) (interface{}, error) {
	config, err := requireBoard(data.GuildID)
	if err != nil {
		return starErrorResponse(err)
	}

	return starboardInfoResponse(data, config), nil
}

func starboardInfoResponse(data *commands.Data, config *Config) string {
	var lines []string

	channel, err := data.Session.State.Channel(common.StrID(config.ChannelID))
	if err != nil {
		lines = append(lines, "Channel: #deleted-channel")
	} else {
		lines = append(lines, "Channel: <#"+channel.ID+">")
		lines = append(lines, fmt.Sprintf("NSFW: %t", channel.NSFW))
	}

	lines = append(lines,
		fmt.Sprintf("Locked: %t", config.Locked),
		"Limit: "+plural(config.Threshold, "star"),
		"Max Age: "+plural(int(config.MaxAge.Hours()/24), "day"))

	return strings.Join(lines, "\n")
}

func cmdFuncStarPost(data *commands.Data) (interface{}, error) {
	messageID, err := parseMessageID(data.Args[0].Str())
	if err != nil {
		return nil, err
	}

	err = starMessage(data.GuildID, data.ChannelID, messageID, common.MustParseInt(data.Author.ID), false)
	if err != nil {
		return starErrorResponse(err)
	}

	return ackOrDeleteTrigger(data, "Successfully starred message")
}

func cmdFuncUnstar(data *commands.Data) (interface{}, error) {
	messageID, err := parseMessageID(data.Args[0].Str())
	if err != nil {
		return nil, err
	}

	err = unstarMessage(data.GuildID, data.ChannelID, messageID, common.MustParseInt(data.Author.ID), false)
	if err != nil {
		return starErrorResponse(err)
	}

	return ackOrDeleteTrigger(data, "Successfully unstarred message")
}

func cmdFuncStarShow(data *commands.Data) (interface{}, error) {
	config, err := requireBoard(data.GuildID)
	if err != nil {
		return starErrorResponse(err)
	}

	messageID, err := parseMessageID(data.Args[0].Str())
	if err != nil {
		return nil, err
	}

	snapshot, found, err := GetEntrySnapshot(data.GuildID, messageID)
	if err != nil {
		return nil, err
	}

	if !found {
		return "This message has not been starred.", nil
	}

	if snapshot.BotMessageID.Valid {
		// fast path, just mirror the board message
		msg := getMessage(config.ChannelID, snapshot.BotMessageID.Int64)
		if msg != nil {
			send := &discordgo.MessageSend{Content: msg.Content}
			if len(msg.Embeds) > 0 {
				send.Embeds = []*discordgo.MessageEmbed{msg.Embeds[0]}
			}

			return send, nil
		}

		// the board message got deleted somehow, purge the stale entry
		if _, _, derr := DeleteEntryByMessage(snapshot.MessageID); derr != nil {
			return nil, derr
		}

		return "This message has not been starred.", nil
	}

	if _, cerr := data.Session.State.Channel(common.StrID(snapshot.ChannelID)); cerr != nil {
		return "The message's channel has been deleted.", nil
	}

	msg := getMessage(snapshot.ChannelID, snapshot.MessageID)
	if msg == nil {
		return "The message has been deleted.", nil
	}

	content, embed := starMessageContent(msg, data.GuildID, snapshot.Stars)
	return &discordgo.MessageSend{
		Content: content,
		Embeds:  []*discordgo.MessageEmbed{embed},
	}, nil
}

func cmdFuncStarWho(data *commands.Data) (interface{}, error) {
	_, err := requireBoard(data.GuildID)
	if err != nil {
		return starErrorResponse(err)
	}

	messageID, err := parseMessageID(data.Args[0].Str())
	if err != nil {
		return nil, err
	}

	starrers, err := Starrers(messageID)
	if err != nil {
		return nil, err
	}

	if len(starrers) == 0 {
		return "No one starred this message or this is an invalid message ID.", nil
	}

	var names []string
	for _, userID := range starrers {
		if name, ok := resolveMemberName(data.GuildID, userID); ok {
			names = append(names, name)
		}
	}

	title := plural(len(starrers), "star")
	if len(starrers) > len(names) {
		title += fmt.Sprintf(" (%d left server)", len(starrers)-len(names))
	}

	const perPage = 20
	shown := names
	if len(shown) > perPage {
		shown = shown[:perPage]
	}

	var builder strings.Builder
	for i, name := range shown {
		fmt.Fprintf(&builder, "%d. %s\n", i+1, name)
	}

	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: builder.String(),
		Color:       goldColor,
	}

	if len(names) > len(shown) {
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Showing %d of %d members", len(shown), len(names)),
		}
	}

	return embed, nil
}

func cmdFuncStarRandom(data *commands.Data) (interface{}, error) {
	config, err := requireBoard(data.GuildID)
	if err != nil {
		return starErrorResponse(err)
	}

	botMessageID, found, err := RandomEntry(data.GuildID, data.Args[0].Int64())
	if err != nil {
		return nil, err
	}

	if !found {
		return "Could not find anything.", nil
	}

	msg := getMessage(config.ChannelID, botMessageID)
	if msg == nil {
		return fmt.Sprintf("Message %d has been deleted somehow.", botMessageID), nil
	}

	send := &discordgo.MessageSend{Content: msg.Content}
	if len(msg.Embeds) > 0 {
		send.Embeds = []*discordgo.MessageEmbed{msg.Embeds[0]}
	}

	return send, nil
}

func cmdFuncStarStats(data *commands.Data) (interface{}, error) {
	config, err := requireBoard(data.GuildID)
	if err != nil {
		return starErrorResponse(err)
	}

	// get the aggregates refreshed soonish
	markGiversStale(data.GuildID)

	memberID := data.Args[0].Int64()
	if memberID == 0 {
		return guildStarStats(data, config)
	}

	return memberStarStats(data, memberID)
}

func guildStarStats(data *commands.Data, config *Config) (interface{}, error) {
	messages, stars, err := GuildStarTotals(data.GuildID)
	if err != nil {
		return nil, err
	}

	posts, err := TopPosts(data.GuildID, 0, 10)
	if err != nil {
		return nil, err
	}

	receivers, err := TopStarReceivers(data.GuildID)
	if err != nil {
		return nil, err
	}

	givers, err := TopStarGivers(data.GuildID)
	if err != nil {
		return nil, err
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Top Starred Posts",
		Description: medalLines(postLines(data.GuildID, posts), "None!"),
		Color:       goldColor,
		Author:      &discordgo.MessageEmbedAuthor{Name: "Server Starboard Stats"},
		Footer:      &discordgo.MessageEmbedFooter{Text: "Adding stars since"},
	}

	embed.Timestamp = common.TimeOfSnowflake(config.ChannelID).Format(time.RFC3339)

	embed.Fields = append(embed.Fields,
		&discordgo.MessageEmbedField{Name: "Top Star Receivers", Value: medalLines(userLines(receivers), "No one!")},
		&discordgo.MessageEmbedField{Name: "Top Star Givers", Value: medalLines(userLines(givers), "No one!")},
		&discordgo.MessageEmbedField{Name: "Messages Starred", Value: strconv.FormatInt(messages, 10), Inline: true},
		&discordgo.MessageEmbedField{Name: "Total Stars Given", Value: strconv.FormatInt(stars, 10), Inline: true},
	)

	return embed, nil
}

func memberStarStats(data *commands.Data, memberID int64) (interface{}, error) {
	received, err := MemberStarsReceived(data.GuildID, memberID)
	if err != nil {
		return nil, err
	}

	given, err := MemberStarsGiven(data.GuildID, memberID)
	if err != nil {
		return nil, err
	}

	posts, err := TopPosts(data.GuildID, memberID, 10)
	if err != nil {
		return nil, err
	}

	starred, err := CountMemberEntries(data.GuildID, memberID)
	if err != nil {
		return nil, err
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Top Starred Posts",
		Description: medalLines(postLines(data.GuildID, posts), "None!"),
		Color:       goldColor,
		Author:      data.EmbedAuthor(memberID),
	}

	embed.Fields = append(embed.Fields,
		&discordgo.MessageEmbedField{Name: "Messages Starred", Value: strconv.FormatInt(starred, 10), Inline: true},
		&discordgo.MessageEmbedField{Name: "Stars Received", Value: strconv.FormatInt(received, 10), Inline: true},
		&discordgo.MessageEmbedField{Name: "Stars Given", Value: strconv.FormatInt(given, 10), Inline: true},
	)

	return embed, nil
}

func cmdFuncStarLock(data *commands.Data) (interface{}, error) {
	_, err := requireBoard(data.GuildID)
	if err != nil {
		return starErrorResponse(err)
	}

	err = SetLocked(data.GuildID, true)
	if err != nil {
		return nil, err
	}

	return "Starboard is now locked.", nil
}

func cmdFuncStarUnlock(data *commands.Data) (interface{}, error) {
	_, err := requireBoard(data.GuildID)
	if err != nil {
		return starErrorResponse(err)
	}

	err = SetLocked(data.GuildID, false)
	if err != nil {
		return nil, err
	}

	return "Starboard is now unlocked.", nil
}

func cmdFuncStarLimit(data *commands.Data) (interface{}, error) {
	_, err := requireBoard(data.GuildID)
	if err != nil {
		return starErrorResponse(err)
	}

	stars := data.Args[0].Int()
	if stars < 1 {
		stars = 1
	} else if stars > 100 {
		stars = 100
	}

	err = SetThreshold(data.GuildID, stars)
	if err != nil {
		return nil, err
	}

	return fmt.Sprintf("Messages now require %s to show up in the starboard.", plural(stars, "star")), nil
}

func cmdFuncStarAge(data *commands.Data) (interface{}, error) {
	_, err := requireBoard(data.GuildID)
	if err != nil {
		return starErrorResponse(err)
	}

	unit := strings.ToLower(strings.TrimSpace(data.Args[1].Str()))
	if unit == "" {
		unit = "days"
	}

	if !strings.HasSuffix(unit, "s") {
		unit += "s"
	}

	switch unit {
	case "days", "weeks", "months", "years":
	default:
		return nil, commands.NewUserError("The unit has to be days, weeks, months or years.")
	}

	number := data.Args[0].Int()
	if number < 1 {
		number = 1
	} else if number > 35 {
		number = 35
	}

	if unit == "years" && number > 10 {
		return "The maximum is 10 years!", nil
	}

	err = SetMaxAge(data.GuildID, number, unit)
	if err != nil {
		return nil, err
	}

	age := fmt.Sprintf("%d %s", number, unit)
	if number == 1 {
		age = "1 " + strings.TrimSuffix(unit, "s")
	}

	return fmt.Sprintf("Messages must now be less than %s old to be starred.", age), nil
}

func cmdFuncStarClean(data *commands.Data) (interface{}, error) {
	config, err := requireBoard(data.GuildID)
	if err != nil {
		return starErrorResponse(err)
	}

	stars := data.Args[0].Int()
	if stars < 1 {
		stars = 1
	}

	msgs, err := data.Session.ChannelMessages(common.StrID(config.ChannelID), 100, "", "", "")
	if err != nil {
		return nil, err
	}

	lastMessages := make([]int64, 0, len(msgs))
	for _, m := range msgs {
		lastMessages = append(lastMessages, common.MustParseInt(m.ID))
	}

	deleted, err := CleanEntries(data.GuildID, lastMessages, stars)
	if err != nil {
		return nil, err
	}

	// bulk deletion only reaches messages younger than two weeks
	minSnowflake := common.SnowflakeOfTime(time.Now().Add(-14 * 24 * time.Hour))

	toDelete := make([]string, 0, len(deleted))
	toMark := make([]int64, 0, len(deleted))
	for _, id := range deleted {
		if id > minSnowflake {
			toDelete = append(toDelete, common.StrID(id))
			toMark = append(toMark, id)
		}
	}

	markAboutToBeDeleted(toMark...)
	err = data.Session.ChannelMessagesBulkDelete(common.StrID(config.ChannelID), toDelete)
	if err != nil {
		return "Could not delete messages.", nil
	}

	return fmt.Sprintf("🚮 Deleted %s.", plural(len(toDelete), "message")), nil
}

// requireBoard resolves the board config, servers without one get the not
// found star error.
func requireBoard(guildID int64) (*Config, error) {
	config, err := GetConfig(guildID)
	if err != nil {
		return nil, err
	}

	if config.ChannelID == 0 {
		return nil, ErrBoardNotFound
	}

	return config, nil
}

// starErrorResponse turns a star refusal into the command reply, anything
// else stays an error.
func starErrorResponse(err error) (interface{}, error) {
	if cast, ok := errors.Cause(err).(*StarError); ok {
		return cast.Msg, nil
	}

	return nil, err
}

// ackOrDeleteTrigger confirms a star/unstar, the message trigger is deleted
// instead of answered since the reply would just repeat a message id.
func ackOrDeleteTrigger(data *commands.Data, resp string) (interface{}, error) {
	if data.TriggerType == commands.TriggerMessage && data.TraditionalTriggerData != nil {
		err := data.Session.ChannelMessageDelete(common.StrID(data.ChannelID), data.TraditionalTriggerData.Message.ID)
		if err != nil {
			logger.WithError(err).Debug("failed deleting star command invocation")
		}

		return nil, nil
	}

	return resp, nil
}

func parseMessageID(input string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(input), 10, 64)
	if err != nil || id <= 0 {
		return 0, commands.NewUserError(fmt.Sprintf("%q is not a valid message ID. Use Developer Mode to get the Copy ID option.", input))
	}

	return id, nil
}

func resolveMemberName(guildID, userID int64) (string, bool) {
	member, err := common.BotSession.State.Member(common.StrID(guildID), common.StrID(userID))
	if err != nil {
		member, err = common.BotSession.GuildMember(common.StrID(guildID), common.StrID(userID))
		if err != nil {
			return "", false
		}
	}

	if member.User == nil {
		return "", false
	}

	return member.User.String(), true
}

func plural(count int, word string) string {
	if count == 1 {
		return "1 " + word
	}

	return fmt.Sprintf("%d %ss", count, word)
}

// medalLines prefixes each line with its placement medal the way the stats
// listings render them.
func medalLines(lines []string, placeholder string) string {
	if len(lines) == 0 {
		return placeholder
	}

	out := make([]string, len(lines))
	for i, line := range lines {
		medal := "🏅"
		if i < len(statsMedals) {
			medal = statsMedals[i]
		}

		out[i] = medal + ": " + line
	}

	return strings.Join(out, "\n")
}

func postLines(guildID int64, posts []*StarPost) []string {
	lines := make([]string, 0, len(posts))
	for _, post := range posts {
		url := messageJumpLink(guildID, common.StrID(post.ChannelID), common.StrID(post.MessageID))
		lines = append(lines, fmt.Sprintf("[%d](%s) (%s)", post.MessageID, url, plural(post.Total, "star")))
	}

	return lines
}

func userLines(rows []*UserStars) []string {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, fmt.Sprintf("<@%d> (%s)", row.AuthorID, plural(int(row.Stars), "star")))
	}

	return lines
}
