package commands

import (
	"runtime/debug"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/lurelin/medli/bot"
	"github.com/lurelin/medli/common"
)

var _ bot.BotInitHandler = (*Plugin)(nil)
var _ bot.LateBotInitHandler = (*Plugin)(nil)
var _ bot.RemoveGuildHandler = (*Plugin)(nil)

func (p *Plugin) BotInit() {
	common.BotSession.AddHandler(p.handleMessageCreate)
	common.BotSession.AddHandler(p.handleInteractionCreate)
}

func (p *Plugin) handleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.WebhookID != "" {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("recovered from panic handling command\n%v\n%v", r, string(debug.Stack()))
		}
	}()

	source := SourceGuild
	var guildID int64
	if m.GuildID == "" {
		source = SourceDM
	} else {
		guildID = common.MustParseInt(m.GuildID)
	}

	stripped, prefix, ok := stripCommandPrefix(s, m.Message, source, guildID)
	if !ok {
		return
	}

	cmd, rawArgs := findCommandFromInput(stripped)
	if cmd == nil {
		return
	}

	data := &Data{
		Cmd:       cmd,
		GuildID:   guildID,
		ChannelID: common.MustParseInt(m.ChannelID),
		Author:    m.Author,
		Source:    source,

		TriggerType: TriggerMessage,
		TraditionalTriggerData: &TraditionalTriggerData{
			Message: m.Message,
			Prefix:  prefix,
		},

		Session: s,
	}

	executeCommand(cmd, data, rawArgs)
}

// stripCommandPrefix checks for the server's prefix or a bot mention, in DMs
// the prefix is optional.
func stripCommandPrefix(s *discordgo.Session, m *discordgo.Message, source Source, guildID int64) (stripped string, prefix string, ok bool) {
	content := strings.TrimSpace(m.Content)
	if content == "" {
		return "", "", false
	}

	if s.State.User != nil {
		botID := s.State.User.ID
		for _, mention := range []string{"<@" + botID + ">", "<@!" + botID + ">"} {
			if strings.HasPrefix(content, mention) {
				rest := strings.TrimSpace(strings.TrimPrefix(content, mention))
				if rest != "" {
					return rest, mention + " ", true
				}
				return "", "", false
			}
		}
	}

	cmdPrefix := common.ConfDefaultPrefix.GetString()
	if source != SourceDM {
		var err error
		cmdPrefix, err = GetCommandPrefix(guildID)
		if err != nil {
			logger.WithError(err).Error("Failed fetching command prefix")
		}
	}

	if strings.HasPrefix(content, cmdPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(content, cmdPrefix)), cmdPrefix, true
	}

	if source == SourceDM {
		return content, "", true
	}

	return "", "", false
}

// findCommandFromInput resolves the command path at the start of the input,
// returning the command and the remaining raw arguments.
func findCommandFromInput(stripped string) (*MedliCommand, string) {
	name, rest := popToken(stripped)
	if name == "" {
		return nil, ""
	}

	cmd := FindRootCommand(name)
	if cmd == nil {
		return nil, ""
	}

	for {
		next, nextRest := popToken(rest)
		if next == "" {
			break
		}

		sub := cmd.findSubcommand(next)
		if sub == nil {
			break
		}

		cmd = sub
		rest = nextRest
	}

	return cmd, rest
}

func popToken(in string) (token string, rest string) {
	in = strings.TrimSpace(in)
	if in == "" {
		return "", ""
	}

	idx := strings.IndexByte(in, ' ')
	if idx == -1 {
		return in, ""
	}

	return in[:idx], strings.TrimSpace(in[idx:])
}

// executeCommand runs the full pipeline for a message triggered command.
func executeCommand(cmd *MedliCommand, data *Data, rawArgs string) {
	if cmd.RunFunc == nil {
		// a bare group, point at the subcommands
		sendCommandResponse(data, "Usage:\n```\n"+cmd.UsageString()+"\n```", nil)
		return
	}

	canExecute, resp, err := cmd.checkCanExecuteCommand(data)
	if err != nil {
		cmd.Logger(data).WithError(err).Error("Failed checking if the command can execute")
	}

	if resp != "" {
		common.SendTempMessage(time.Second*10, common.StrID(data.ChannelID), resp)
	}

	if !canExecute {
		return
	}

	args, err := cmd.parseArgs(rawArgs)
	if err != nil {
		sendCommandResponse(data, err.Error(), nil)
		return
	}

	data.Args = args

	r, runErr := cmd.Run(data)
	sendCommandResponse(data, r, runErr)
}

// sendCommandResponse delivers the run func's response, mention pings are
// suppressed unless the response brings its own allowed mentions.
func sendCommandResponse(data *Data, resp interface{}, cmdErr error) {
	if cmdErr != nil {
		data.Cmd.Logger(data).WithError(cmdErr).Error("Command returned an error")
	}

	msgSend := buildResponseMessage(resp)
	if msgSend == nil {
		return
	}

	_, err := data.Session.ChannelMessageSendComplex(common.StrID(data.ChannelID), msgSend)
	if err != nil {
		data.Cmd.Logger(data).WithError(err).Error("Failed sending command response")
	}
}

func buildResponseMessage(resp interface{}) *discordgo.MessageSend {
	switch t := resp.(type) {
	case string:
		if t == "" {
			return nil
		}
		return &discordgo.MessageSend{
			Content:         common.CutStringShort(t, 2000),
			AllowedMentions: &discordgo.MessageAllowedMentions{},
		}
	case *discordgo.MessageEmbed:
		return &discordgo.MessageSend{
			Embeds:          []*discordgo.MessageEmbed{t},
			AllowedMentions: &discordgo.MessageAllowedMentions{},
		}
	case []*discordgo.MessageEmbed:
		if len(t) == 0 {
			return nil
		}
		if len(t) > 10 {
			t = t[:10]
		}
		return &discordgo.MessageSend{
			Embeds:          t,
			AllowedMentions: &discordgo.MessageAllowedMentions{},
		}
	case *discordgo.MessageSend:
		return t
	}

	return nil
}
