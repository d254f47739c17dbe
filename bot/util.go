package bot

import (
	"emperror.dev/errors"
	"github.com/bwmarrin/discordgo"
	"github.com/lurelin/medli/common"
)

// SendDM sends a private message to the given user.
func SendDM(userID string, msg string) error {
	channel, err := common.BotSession.UserChannelCreate(userID)
	if err != nil {
		return errors.WithStackIf(err)
	}

	_, err = common.BotSession.ChannelMessageSend(channel.ID, msg)
	return errors.WithStackIf(err)
}

// SendDMEmbed sends an embed in a private message to the given user.
func SendDMEmbed(userID string, embed *discordgo.MessageEmbed) error {
	channel, err := common.BotSession.UserChannelCreate(userID)
	if err != nil {
		return errors.WithStackIf(err)
	}

	_, err = common.BotSession.ChannelMessageSendEmbed(channel.ID, embed)
	return errors.WithStackIf(err)
}

// GuildName returns the server's name from the state, or a placeholder if
// we don't have it.
func GuildName(guildID int64) string {
	g, err := common.BotSession.State.Guild(common.StrID(guildID))
	if err != nil {
		return "unknown server"
	}

	return g.Name
}
