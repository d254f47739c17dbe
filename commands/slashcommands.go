package commands

import (
	"runtime/debug"
	"strings"

	"emperror.dev/errors"
	"github.com/bwmarrin/discordgo"
	"github.com/lurelin/medli/common"
)

// LateBotInit registers the slash command set, the gateway is open at this
// point so the application id is known.
func (p *Plugin) LateBotInit() {
	err := registerSlashCommands()
	if err != nil {
		logger.WithError(err).Error("Failed registering slash commands")
	}
}

func registerSlashCommands() error {
	var out []*discordgo.ApplicationCommand
	for _, cmd := range rootCommands {
		if !cmd.SlashCommandEnabled {
			continue
		}

		out = append(out, buildSlashCommand(cmd))
	}

	_, err := common.BotSession.ApplicationCommandBulkOverwrite(common.BotSession.State.User.ID, "", out)
	if err != nil {
		return errors.WithStackIf(err)
	}

	logger.Info("Registered ", len(out), " slash commands")
	return nil
}

func slashName(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "-")
}

func slashDescription(cmd *MedliCommand) string {
	desc := cmd.Description
	if desc == "" {
		desc = cmd.Name
	}

	return common.CutStringShort(desc, 100)
}

func buildSlashCommand(cmd *MedliCommand) *discordgo.ApplicationCommand {
	out := &discordgo.ApplicationCommand{
		Name:        slashName(cmd.Name),
		Description: slashDescription(cmd),
	}

	if len(cmd.Subcommands) == 0 {
		out.Options = buildSlashArgOptions(cmd)
		return out
	}

	// a group can't have direct options, the group's own run func is reached
	// through the fallback subcommand instead
	if cmd.RunFunc != nil && cmd.SlashFallbackSub != "" {
		out.Options = append(out.Options, &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        slashName(cmd.SlashFallbackSub),
			Description: slashDescription(cmd),
			Options:     buildSlashArgOptions(cmd),
		})
	}

	for _, sub := range cmd.Subcommands {
		out.Options = append(out.Options, buildSlashSubOption(sub))
	}

	return out
}

func buildSlashSubOption(sub *MedliCommand) *discordgo.ApplicationCommandOption {
	if len(sub.Subcommands) == 0 {
		return &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        slashName(sub.Name),
			Description: slashDescription(sub),
			Options:     buildSlashArgOptions(sub),
		}
	}

	group := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionSubCommandGroup,
		Name:        slashName(sub.Name),
		Description: slashDescription(sub),
	}

	for _, nested := range sub.Subcommands {
		group.Options = append(group.Options, &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        slashName(nested.Name),
			Description: slashDescription(nested),
			Options:     buildSlashArgOptions(nested),
		})
	}

	return group
}

func buildSlashArgOptions(cmd *MedliCommand) []*discordgo.ApplicationCommandOption {
	var out []*discordgo.ApplicationCommandOption
	for i, arg := range cmd.Arguments {
		desc := arg.Help
		if desc == "" {
			desc = arg.Name
		}

		out = append(out, &discordgo.ApplicationCommandOption{
			Type:        slashOptionType(arg.Type),
			Name:        slashName(arg.Name),
			Description: common.CutStringShort(desc, 100),
			Required:    i < cmd.RequiredArgs && len(cmd.ArgumentCombos) == 0,
		})
	}

	return out
}

func (p *Plugin) handleInteractionCreate(s *discordgo.Session, ic *discordgo.InteractionCreate) {
	if ic.Type != discordgo.InteractionApplicationCommand {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("recovered from panic handling slash command\n%v\n%v", r, string(debug.Stack()))
		}
	}()

	idata := ic.ApplicationCommandData()

	cmd := FindRootCommand(idata.Name)
	if cmd == nil {
		return
	}

	cmd, opts := descendSlashOptions(cmd, idata.Options)
	if cmd == nil || cmd.RunFunc == nil {
		return
	}

	source := SourceGuild
	var guildID int64
	var author *discordgo.User

	if ic.Member != nil {
		author = ic.Member.User
		guildID = common.MustParseInt(ic.GuildID)
	} else {
		author = ic.User
		source = SourceDM
	}

	if author == nil || author.Bot {
		return
	}

	data := &Data{
		Cmd:       cmd,
		GuildID:   guildID,
		ChannelID: common.MustParseInt(ic.ChannelID),
		Author:    author,
		Source:    source,

		TriggerType: TriggerSlash,
		SlashTriggerData: &SlashTriggerData{
			Interaction: ic,
			Member:      ic.Member,
		},

		Session: s,
	}

	data.Args = parseSlashArgs(cmd, opts)

	execSlashCommand(cmd, data)
}

// descendSlashOptions walks subcommand/group options down to the command that
// actually runs, mapping the fallback subcommand back onto the group itself.
func descendSlashOptions(cmd *MedliCommand, opts []*discordgo.ApplicationCommandInteractionDataOption) (*MedliCommand, []*discordgo.ApplicationCommandInteractionDataOption) {
	for len(opts) == 1 && (opts[0].Type == discordgo.ApplicationCommandOptionSubCommand || opts[0].Type == discordgo.ApplicationCommandOptionSubCommandGroup) {
		name := opts[0].Name

		if opts[0].Type == discordgo.ApplicationCommandOptionSubCommand &&
			cmd.RunFunc != nil && strings.EqualFold(name, cmd.SlashFallbackSub) {
			return cmd, opts[0].Options
		}

		sub := cmd.findSubcommand(name)
		if sub == nil {
			return nil, nil
		}

		cmd = sub
		opts = opts[0].Options
	}

	return cmd, opts
}

func parseSlashArgs(cmd *MedliCommand, opts []*discordgo.ApplicationCommandInteractionDataOption) []*ParsedArg {
	parsed := make([]*ParsedArg, len(cmd.Arguments))
	for i, def := range cmd.Arguments {
		parsed[i] = def.NewParsed()

		for _, opt := range opts {
			if opt.Name != slashName(def.Name) {
				continue
			}

			if v, ok := parseSlashOption(def, opt); ok {
				parsed[i].Value = v
			}
			break
		}
	}

	return parsed
}

func execSlashCommand(cmd *MedliCommand, data *Data) {
	canExecute, resp, err := cmd.checkCanExecuteCommand(data)
	if err != nil {
		cmd.Logger(data).WithError(err).Error("Failed checking if the command can execute")
	}

	if !canExecute {
		if resp == "" {
			resp = "You can't use this command here."
		}

		ephemeralInteractionReply(data, resp)
		return
	}

	err = ackInteraction(data)
	if err != nil {
		cmd.Logger(data).WithError(err).Error("Failed acknowledging interaction")
		return
	}

	r, runErr := cmd.Run(data)
	sendSlashResponse(data, r, runErr)
}

func ephemeralInteractionReply(data *Data, content string) {
	err := data.Session.InteractionRespond(data.SlashTriggerData.Interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})

	if err != nil {
		data.Cmd.Logger(data).WithError(err).Error("Failed sending interaction reply")
	}
}

// ackInteraction defers the response, the real reply follows as a followup
// message which inherits the ephemeral flag set here.
func ackInteraction(data *Data) error {
	var flags discordgo.MessageFlags
	if data.Cmd.IsResponseEphemeral {
		flags = discordgo.MessageFlagsEphemeral
	}

	err := data.Session.InteractionRespond(data.SlashTriggerData.Interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: flags},
	})

	return errors.WithStackIf(err)
}

func sendSlashResponse(data *Data, resp interface{}, cmdErr error) {
	if cmdErr != nil {
		data.Cmd.Logger(data).WithError(cmdErr).Error("Command returned an error")
	}

	msgSend := buildResponseMessage(resp)
	if msgSend == nil {
		// a deferred interaction has to get some reply or the thinking state
		// never resolves
		msgSend = &discordgo.MessageSend{Content: "👌"}
	}

	params := &discordgo.WebhookParams{
		Content:         msgSend.Content,
		Embeds:          msgSend.Embeds,
		Files:           msgSend.Files,
		AllowedMentions: msgSend.AllowedMentions,
	}

	_, err := data.Session.FollowupMessageCreate(data.SlashTriggerData.Interaction.Interaction, true, params)
	if err != nil {
		data.Cmd.Logger(data).WithError(err).Error("Failed sending slash command response")
	}
}
