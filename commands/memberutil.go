package commands

import (
	"github.com/bwmarrin/discordgo"
	"github.com/lurelin/medli/common"
)

// UserDisplayName resolves a display name for the user, state first and the
// api after, falling back to the raw id.
func (d *Data) UserDisplayName(userID int64) string {
	if d.GuildID != 0 {
		member, err := d.Session.State.Member(common.StrID(d.GuildID), common.StrID(userID))
		if err == nil && member.User != nil {
			if member.Nick != "" {
				return member.Nick
			}

			return member.User.Username
		}
	}

	user, err := d.Session.User(common.StrID(userID))
	if err == nil {
		return user.Username
	}

	return "user " + common.StrID(userID)
}

// EmbedAuthor builds an embed author block for the user, resolved the same
// way as UserDisplayName but with the avatar attached.
func (d *Data) EmbedAuthor(userID int64) *discordgo.MessageEmbedAuthor {
	if d.GuildID != 0 {
		member, err := d.Session.State.Member(common.StrID(d.GuildID), common.StrID(userID))
		if err == nil && member.User != nil {
			name := member.Nick
			if name == "" {
				name = member.User.Username
			}

			return &discordgo.MessageEmbedAuthor{Name: name, IconURL: member.User.AvatarURL("")}
		}
	}

	user, err := d.Session.User(common.StrID(userID))
	if err == nil {
		return &discordgo.MessageEmbedAuthor{Name: user.Username, IconURL: user.AvatarURL("")}
	}

	return &discordgo.MessageEmbedAuthor{Name: "user " + common.StrID(userID)}
}
