package commands

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/lurelin/medli/common"
	"github.com/lurelin/medli/common/fuzzy"
)

var cmdHelp = &MedliCommand{
	Name:        "Help",
	Aliases:     []string{"commands", "h"},
	Description: "Shows help about all or one specific command",
	CmdCategory: CategoryGeneral,
	RunInDM:     true,
	Arguments: []*ArgDef{
		{Name: "command", Type: Rest},
	},

	SlashCommandEnabled: true,
	IsResponseEphemeral: true,

	RunFunc: cmdFuncHelp,
}

func cmdFuncHelp(data *Data) (interface{}, error) {
	target := strings.TrimSpace(data.Args[0].Str())
	if target != "" {
		return targettedHelp(data, target)
	}

	return generalHelp(data), nil
}

func generalHelp(data *Data) []*discordgo.MessageEmbed {
	byCategory := make(map[*Category][]*MedliCommand)
	var categories []*Category
	for _, cmd := range AllCommands() {
		if cmd.HideFromHelp {
			continue
		}

		if _, ok := byCategory[cmd.CmdCategory]; !ok {
			categories = append(categories, cmd.CmdCategory)
		}

		byCategory[cmd.CmdCategory] = append(byCategory[cmd.CmdCategory], cmd)
	}

	prefix := common.ConfDefaultPrefix.GetString()
	if data.GuildID != 0 {
		prefix, _ = GetCommandPrefix(data.GuildID)
	}

	var out []*discordgo.MessageEmbed
	for _, cat := range categories {
		var sb strings.Builder
		for _, cmd := range byCategory[cat] {
			sb.WriteString("`" + strings.ToLower(cmd.Name) + "` - " + cmd.Description + "\n")
		}

		out = append(out, &discordgo.MessageEmbed{
			Title:       cat.Emoji + " " + cat.Name,
			Description: common.CutStringShort(sb.String(), 4000),
			Color:       cat.EmbedColor,
			Footer: &discordgo.MessageEmbedFooter{
				Text: fmt.Sprintf("Use %shelp <command> for more details", prefix),
			},
		})
	}

	return out
}

func targettedHelp(data *Data, target string) (interface{}, error) {
	cmd := findCommandByPath(target)
	if cmd == nil {
		resp := "Couldn't find the command '" + common.CutStringShort(target, 50) + "'"

		if suggestions := suggestCommands(target); len(suggestions) > 0 {
			resp += ", did you mean:\n`" + strings.Join(suggestions, "`\n`") + "`"
		}

		return resp, nil
	}

	desc := cmd.LongDescription
	if desc == "" {
		desc = cmd.Description
	}

	embed := &discordgo.MessageEmbed{
		Title:       strings.ToLower(cmd.FullName()),
		Description: desc,
		Color:       cmd.CmdCategory.EmbedColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Usage", Value: "```\n" + cmd.UsageString() + "\n```"},
		},
	}

	if len(cmd.Aliases) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Aliases",
			Value: strings.Join(cmd.Aliases, ", "),
		})
	}

	for _, arg := range cmd.Arguments {
		if arg.Help != "" {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name:  arg.Name,
				Value: arg.Help,
			})
		}
	}

	return embed, nil
}

// suggestCommands fuzzy matches the query against all command paths.
func suggestCommands(query string) []string {
	var names []string
	for _, root := range AllCommands() {
		collectCommandNames(root, &names)
	}

	matches := fuzzy.Extract(query, names, fuzzy.AdaptiveThreshold, false, 5)

	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Value)
	}

	return out
}

func collectCommandNames(cmd *MedliCommand, out *[]string) {
	if cmd.RunFunc != nil && !cmd.HideFromHelp {
		*out = append(*out, strings.ToLower(cmd.FullName()))
	}

	for _, sub := range cmd.Subcommands {
		collectCommandNames(sub, out)
	}
}

var cmdPrefix = &MedliCommand{
	Name:        "Prefix",
	Description: "Shows the command prefix on this server, or changes it",
	CmdCategory: CategoryTool,
	Arguments: []*ArgDef{
		{Name: "new-prefix", Type: String},
	},

	RunFunc: cmdFuncPrefix,
}

func cmdFuncPrefix(data *Data) (interface{}, error) {
	newPrefix := data.Args[0].Str()
	if newPrefix == "" {
		prefix, err := GetCommandPrefix(data.GuildID)
		if err != nil {
			return nil, err
		}

		return "The command prefix on this server is `" + prefix + "`", nil
	}

	perms, err := data.MemberPermissions()
	if err != nil {
		return nil, err
	}

	if perms&discordgo.PermissionManageServer != discordgo.PermissionManageServer && !common.IsOwner(data.Author.ID) {
		return "You need the manage server permission to change the prefix.", nil
	}

	if len(newPrefix) > 10 {
		return nil, NewUserError("That prefix is too long.")
	}

	err = SetCommandPrefix(data.GuildID, newPrefix)
	if err != nil {
		return nil, err
	}

	return "Command prefix set to `" + newPrefix + "`", nil
}
