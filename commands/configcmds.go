package commands

import (
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/lurelin/medli/common"
)

func (p *Plugin) AddCommands() {
	AddRootCommands(p, cmdConfig)
}

// findCommandByPath resolves "tag create" style paths to a command.
func findCommandByPath(path string) *MedliCommand {
	fields := strings.Fields(strings.ToLower(path))
	if len(fields) == 0 {
		return nil
	}

	cmd := FindRootCommand(fields[0])
	for _, f := range fields[1:] {
		if cmd == nil {
			return nil
		}

		cmd = cmd.findSubcommand(f)
	}

	return cmd
}

// protected commands can't be disabled, losing them would lock the server out
// of the config system itself.
func isProtectedCommand(path string) bool {
	root := strings.Fields(strings.ToLower(path))[0]
	return root == "config" || root == "help"
}

// parseEntityIDs pulls user/channel mentions and raw ids out of the input,
// falling back to the invoking channel when there are none.
func parseEntityIDs(data *Data, raw string) []int64 {
	var out []int64
	for _, token := range strings.Fields(raw) {
		if id, ok := parseMentionOrID(token, "<@"); ok {
			out = append(out, id)
			continue
		}

		if id, ok := parseMentionOrID(token, "<#"); ok {
			out = append(out, id)
		}
	}

	if len(out) == 0 {
		out = append(out, data.ChannelID)
	}

	return out
}

func checkToggleTarget(data *Data) (string, error) {
	name := strings.TrimSpace(strings.ToLower(data.Args[0].Str()))
	if findCommandByPath(name) == nil {
		return "", NewUserError("No command named `" + common.CutStringShort(name, 50) + "` found.")
	}

	if isProtectedCommand(name) {
		return "", NewUserError("This command can't be disabled.")
	}

	return name, nil
}

var cmdConfig = &MedliCommand{
	Name:                "Config",
	Description:         "Controls where and by whom commands can be used on this server",
	CmdCategory:         CategoryModeration,
	RequireDiscordPerms: []int64{discordgo.PermissionManageServer},
	Subcommands: []*MedliCommand{
		{
			Name:        "Ignore",
			Description: "Ignores commands from the mentioned users/channels, the current channel if none given",
			Arguments: []*ArgDef{
				{Name: "entities", Type: Rest, Help: "User and channel mentions"},
			},
			RunFunc: cmdFuncConfigIgnore,
			Subcommands: []*MedliCommand{
				{
					Name:        "List",
					Description: "Shows everything currently ignored on this server",
					RunFunc:     cmdFuncConfigIgnoreList,
				},
				{
					Name:        "All",
					Description: "Ignores commands everywhere on this server",
					RunFunc:     cmdFuncConfigIgnoreAll,
				},
				{
					Name:        "Clear",
					Description: "Stops ignoring everything on this server",
					RunFunc:     cmdFuncConfigIgnoreClear,
				},
			},
		},
		{
			Name:        "Unignore",
			Description: "Stops ignoring the mentioned users/channels, the current channel if none given",
			Arguments: []*ArgDef{
				{Name: "entities", Type: Rest, Help: "User and channel mentions"},
			},
			RunFunc: cmdFuncConfigUnignore,
			Subcommands: []*MedliCommand{
				{
					Name:        "All",
					Description: "Stops ignoring everything on this server",
					RunFunc:     cmdFuncConfigIgnoreClear,
				},
			},
		},
		{
			Name:        "Server",
			Description: "Server wide command toggles",
			Subcommands: []*MedliCommand{
				{
					Name:         "Disable",
					Description:  "Disables a command on the whole server",
					Arguments:    []*ArgDef{{Name: "command", Type: Rest}},
					RequiredArgs: 1,
					RunFunc:      cmdFuncToggle(0, false),
				},
				{
					Name:         "Enable",
					Description:  "Enables a command on the whole server",
					Arguments:    []*ArgDef{{Name: "command", Type: Rest}},
					RequiredArgs: 1,
					RunFunc:      cmdFuncToggle(0, true),
				},
			},
		},
		{
			Name:        "Channel",
			Description: "Per channel command toggles",
			Subcommands: []*MedliCommand{
				{
					Name:         "Disable",
					Description:  "Disables a command in the current channel",
					Arguments:    []*ArgDef{{Name: "command", Type: Rest}},
					RequiredArgs: 1,
					RunFunc:      cmdFuncToggle(-1, false),
				},
				{
					Name:         "Enable",
					Description:  "Enables a command in the current channel",
					Arguments:    []*ArgDef{{Name: "command", Type: Rest}},
					RequiredArgs: 1,
					RunFunc:      cmdFuncToggle(-1, true),
				},
			},
		},
		{
			Name:        "Disabled",
			Description: "Lists the commands disabled in the given channel, the current one if none given",
			Arguments: []*ArgDef{
				{Name: "channel", Type: ChannelID},
			},
			RunFunc: cmdFuncConfigDisabled,
		},
	},
}

func cmdFuncConfigIgnore(data *Data) (interface{}, error) {
	entities := parseEntityIDs(data, data.Args[0].Str())

	added, err := PlonkEntities(data.GuildID, entities)
	if err != nil {
		return nil, err
	}

	if added == 0 {
		return "Nothing new to ignore.", nil
	}

	return "👌 now ignoring those.", nil
}

func cmdFuncConfigUnignore(data *Data) (interface{}, error) {
	entities := parseEntityIDs(data, data.Args[0].Str())

	err := UnplonkEntities(data.GuildID, entities)
	if err != nil {
		return nil, err
	}

	return "👌 no longer ignoring those.", nil
}

func cmdFuncConfigIgnoreAll(data *Data) (interface{}, error) {
	_, err := PlonkEntities(data.GuildID, []int64{data.GuildID})
	if err != nil {
		return nil, err
	}

	return "👌 ignoring every channel on this server.", nil
}

func cmdFuncConfigIgnoreClear(data *Data) (interface{}, error) {
	err := ClearPlonks(data.GuildID)
	if err != nil {
		return nil, err
	}

	return "👌 no longer ignoring anything on this server.", nil
}

func cmdFuncConfigIgnoreList(data *Data) (interface{}, error) {
	plonks, err := ListPlonks(data.GuildID)
	if err != nil {
		return nil, err
	}

	if len(plonks) == 0 {
		return "Nothing is ignored on this server.", nil
	}

	var sb strings.Builder
	for _, id := range plonks {
		switch {
		case id == data.GuildID:
			sb.WriteString("the whole server\n")
		case isKnownChannel(data, id):
			sb.WriteString("<#" + common.StrID(id) + ">\n")
		default:
			sb.WriteString("<@" + common.StrID(id) + ">\n")
		}
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Ignored on this server",
		Description: common.CutStringShort(sb.String(), 4000),
		Color:       CategoryModeration.EmbedColor,
	}

	return embed, nil
}

func isKnownChannel(data *Data, id int64) bool {
	ch, err := data.Session.State.Channel(common.StrID(id))
	return err == nil && ch != nil
}

// cmdFuncToggle builds the enable/disable run funcs, channelScope -1 means
// the channel the command ran in.
func cmdFuncToggle(channelScope int64, enable bool) func(data *Data) (interface{}, error) {
	return func(data *Data) (interface{}, error) {
		name, err := checkToggleTarget(data)
		if err != nil {
			return nil, err
		}

		channelID := channelScope
		if channelID == -1 {
			channelID = data.ChannelID
		}

		err = ToggleCommand(data.GuildID, channelID, name, enable)
		if err != nil {
			return nil, err
		}

		state := "disabled"
		if enable {
			state = "enabled"
		}

		scope := "on the whole server"
		if channelID != 0 {
			scope = "in <#" + common.StrID(channelID) + ">"
		}

		return "Command `" + name + "` " + state + " " + scope + ".", nil
	}
}

func cmdFuncConfigDisabled(data *Data) (interface{}, error) {
	channelID := data.Args[0].Int64()
	if channelID == 0 {
		channelID = data.ChannelID
	}

	settings, err := GetGuildSettings(data.GuildID)
	if err != nil {
		return nil, err
	}

	var blocked []string
	for _, root := range AllCommands() {
		collectBlocked(settings.Permissions, channelID, root, &blocked)
	}

	if len(blocked) == 0 {
		return "No commands are disabled in <#" + common.StrID(channelID) + ">.", nil
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Disabled in #" + channelName(data, channelID),
		Description: "`" + strings.Join(blocked, "`\n`") + "`",
		Color:       CategoryModeration.EmbedColor,
	}

	return embed, nil
}

func collectBlocked(perms *CommandPermissions, channelID int64, cmd *MedliCommand, out *[]string) {
	if cmd.RunFunc != nil && perms.IsBlocked(channelID, cmd.namePrefixes()) {
		*out = append(*out, strings.ToLower(cmd.FullName()))
	}

	for _, sub := range cmd.Subcommands {
		collectBlocked(perms, channelID, sub, out)
	}
}

func channelName(data *Data, channelID int64) string {
	ch, err := data.Session.State.Channel(common.StrID(channelID))
	if err != nil {
		return common.StrID(channelID)
	}

	return ch.Name
}

// RemoveGuild drops the server's command control rows when the bot leaves.
func (p *Plugin) RemoveGuild(guildID int64) {
	_, err := common.PQ.Exec("DELETE FROM command_config WHERE guild_id=$1", guildID)
	if err != nil {
		logger.WithError(err).WithField("guild", guildID).Error("Failed removing command_config rows")
	}

	_, err = common.PQ.Exec("DELETE FROM plonks WHERE guild_id=$1", guildID)
	if err != nil {
		logger.WithError(err).WithField("guild", guildID).Error("Failed removing plonk rows")
	}

	settingsCache.Delete(guildID)
}
