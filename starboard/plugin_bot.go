package starboard

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"emperror.dev/errors"
	"github.com/bwmarrin/discordgo"
	"github.com/lurelin/medli/bot"
	"github.com/lurelin/medli/commands"
	"github.com/lurelin/medli/common"
	"github.com/patrickmn/go-cache"
)

var _ bot.BotInitHandler = (*Plugin)(nil)

func (p *Plugin) BotInit() {
	common.BotSession.AddHandler(p.handleReactionAdd)
	common.BotSession.AddHandler(p.handleReactionRemove)
	common.BotSession.AddHandler(p.handleMessageDelete)
	common.BotSession.AddHandler(p.handleMessageDeleteBulk)
	common.BotSession.AddHandler(p.handleReactionRemoveAll)
	common.BotSession.AddHandler(p.handleChannelDelete)
}

// star and unstar for one server are serialized, the count checks and the
// board message bookkeeping race otherwise.
var (
	guildLocks   = make(map[int64]*sync.Mutex)
	guildLocksMu sync.Mutex
)

func lockGuild(guildID int64) *sync.Mutex {
	guildLocksMu.Lock()
	defer guildLocksMu.Unlock()

	lock := guildLocks[guildID]
	if lock == nil {
		lock = &sync.Mutex{}
		guildLocks[guildID] = lock
	}

	return lock
}

// board messages the bot is deleting itself, the delete handlers skip these
// so they don't purge the entry rows behind them.
var (
	aboutToBeDeleted   = make(map[int64]struct{})
	aboutToBeDeletedMu sync.Mutex
)

func markAboutToBeDeleted(messageIDs ...int64) {
	aboutToBeDeletedMu.Lock()
	defer aboutToBeDeletedMu.Unlock()

	for _, id := range messageIDs {
		aboutToBeDeleted[id] = struct{}{}
	}
}

// consumeAboutToBeDeleted reports whether the message was one of our own
// deletions and unmarks it.
func consumeAboutToBeDeleted(messageID int64) bool {
	aboutToBeDeletedMu.Lock()
	defer aboutToBeDeletedMu.Unlock()

	if _, ok := aboutToBeDeleted[messageID]; !ok {
		return false
	}

	delete(aboutToBeDeleted, messageID)
	return true
}

// consumeAllAboutToBeDeleted unmarks the whole batch if every message in it
// was one of our own deletions.
func consumeAllAboutToBeDeleted(messageIDs []int64) bool {
	aboutToBeDeletedMu.Lock()
	defer aboutToBeDeletedMu.Unlock()

	for _, id := range messageIDs {
		if _, ok := aboutToBeDeleted[id]; !ok {
			return false
		}
	}

	for _, id := range messageIDs {
		delete(aboutToBeDeleted, id)
	}

	return true
}

// messageCache saves discord some repeat message fetches, dropped again after
// an hour.
var messageCache = cache.New(time.Hour, time.Hour)

// getMessage resolves a message through the cache, the gateway state and
// finally the api, nil when it can't be found at all.
func getMessage(channelID, messageID int64) *discordgo.Message {
	if cached, ok := messageCache.Get(common.StrID(messageID)); ok {
		return cached.(*discordgo.Message)
	}

	if msg, err := common.BotSession.State.Message(common.StrID(channelID), common.StrID(messageID)); err == nil {
		return msg
	}

	msg, err := common.BotSession.ChannelMessage(common.StrID(channelID), common.StrID(messageID))
	if err != nil {
		return nil
	}

	messageCache.Set(msg.ID, msg, cache.DefaultExpiration)
	return msg
}

func (p *Plugin) handleReactionAdd(s *discordgo.Session, evt *discordgo.MessageReactionAdd) {
	if evt.GuildID == "" || evt.Emoji.Name != "⭐" {
		return
	}

	if evt.Member != nil && evt.Member.User != nil {
		if evt.Member.User.Bot {
			return
		}
	} else if reactorIsBot(evt.GuildID, evt.UserID) {
		return
	}

	if _, err := s.State.Channel(evt.ChannelID); err != nil {
		return
	}

	err := starMessage(common.MustParseInt(evt.GuildID), common.MustParseInt(evt.ChannelID),
		common.MustParseInt(evt.MessageID), common.MustParseInt(evt.UserID), true)
	logReactionResult("star", err)
}

func (p *Plugin) handleReactionRemove(s *discordgo.Session, evt *discordgo.MessageReactionRemove) {
	if evt.GuildID == "" || evt.Emoji.Name != "⭐" {
		return
	}

	if reactorIsBot(evt.GuildID, evt.UserID) {
		return
	}

	if _, err := s.State.Channel(evt.ChannelID); err != nil {
		return
	}

	err := unstarMessage(common.MustParseInt(evt.GuildID), common.MustParseInt(evt.ChannelID),
		common.MustParseInt(evt.MessageID), common.MustParseInt(evt.UserID), true)
	logReactionResult("unstar", err)
}

// reactorIsBot also reports true when the member can't be resolved at all, an
// unresolvable reactor is dropped the same way a bot is.
func reactorIsBot(guildID, userID string) bool {
	if member, err := common.BotSession.State.Member(guildID, userID); err == nil {
		return member.User != nil && member.User.Bot
	}

	member, err := common.BotSession.GuildMember(guildID, userID)
	if err != nil {
		return true
	}

	return member.User != nil && member.User.Bot
}

// logReactionResult swallows star refusals on the reaction path, reacting to
// an unstarrable message is not an error.
func logReactionResult(action string, err error) {
	if err == nil {
		return
	}

	if cast, ok := errors.Cause(err).(*StarError); ok {
		logger.WithField("action", action).Debug("refused star reaction: ", cast.Msg)
		return
	}

	logger.WithField("action", action).WithError(err).Error("failed handling star reaction")
}

func (p *Plugin) handleMessageDelete(s *discordgo.Session, evt *discordgo.MessageDelete) {
	messageID := common.MustParseInt(evt.ID)
	if consumeAboutToBeDeleted(messageID) {
		return
	}

	if evt.GuildID == "" {
		return
	}

	config, err := GetConfig(common.MustParseInt(evt.GuildID))
	if err != nil {
		logger.WithError(err).Error("failed fetching starboard config")
		return
	}

	if config.ChannelID == 0 || common.StrID(config.ChannelID) != evt.ChannelID {
		return
	}

	// something got deleted in the board channel itself, drop the entry
	err = DeleteEntryByBotMessage(messageID)
	if err != nil {
		logger.WithError(err).Error("failed removing starboard entry of deleted message")
	}
}

func (p *Plugin) handleMessageDeleteBulk(s *discordgo.Session, evt *discordgo.MessageDeleteBulk) {
	messageIDs := make([]int64, 0, len(evt.Messages))
	for _, raw := range evt.Messages {
		messageIDs = append(messageIDs, common.MustParseInt(raw))
	}

	if consumeAllAboutToBeDeleted(messageIDs) {
		return
	}

	if evt.GuildID == "" {
		return
	}

	config, err := GetConfig(common.MustParseInt(evt.GuildID))
	if err != nil {
		logger.WithError(err).Error("failed fetching starboard config")
		return
	}

	if config.ChannelID == 0 || common.StrID(config.ChannelID) != evt.ChannelID {
		return
	}

	err = DeleteEntriesByBotMessages(messageIDs)
	if err != nil {
		logger.WithError(err).Error("failed removing starboard entries of bulk deleted messages")
	}
}

func (p *Plugin) handleReactionRemoveAll(s *discordgo.Session, evt *discordgo.MessageReactionRemoveAll) {
	if evt.GuildID == "" {
		return
	}

	config, err := GetConfig(common.MustParseInt(evt.GuildID))
	if err != nil {
		logger.WithError(err).Error("failed fetching starboard config")
		return
	}

	if config.ChannelID == 0 {
		return
	}

	botMessageID, found, err := DeleteEntryByMessage(common.MustParseInt(evt.MessageID))
	if err != nil {
		logger.WithError(err).Error("failed removing starboard entry of cleared message")
		return
	}

	if !found || botMessageID == 0 {
		return
	}

	err = common.BotSession.ChannelMessageDelete(common.StrID(config.ChannelID), common.StrID(botMessageID))
	if err != nil {
		logger.WithError(err).Error("failed deleting board message of cleared message")
	}
}

func (p *Plugin) handleChannelDelete(s *discordgo.Session, evt *discordgo.ChannelDelete) {
	if evt.GuildID == "" || evt.Type != discordgo.ChannelTypeGuildText {
		return
	}

	guildID := common.MustParseInt(evt.GuildID)
	config, err := GetConfig(guildID)
	if err != nil {
		logger.WithError(err).Error("failed fetching starboard config")
		return
	}

	if config.ChannelID == 0 || common.StrID(config.ChannelID) != evt.ID {
		return
	}

	// the board channel itself is gone, drop everything
	err = DeleteBoard(guildID)
	if err != nil {
		logger.WithError(err).Error("failed removing starboard of deleted channel")
	}
}

// starAllowed applies the server's ignore and command block rules to a
// reaction, the command triggers get the same checks from the command
// pipeline itself.
func starAllowed(guildID, channelID, starrerID int64) (bool, error) {
	settings, err := commands.GetGuildSettings(guildID)
	if err != nil {
		return false, err
	}

	if settings.IsPlonked(starrerID, channelID) {
		return false, nil
	}

	if settings.Permissions.IsBlocked(channelID, []string{"star"}) {
		return false, nil
	}

	return true, nil
}

func starMessage(guildID, channelID, messageID, starrerID int64, verify bool) error {
	lock := lockGuild(guildID)
	lock.Lock()
	defer lock.Unlock()

	if verify {
		allowed, err := starAllowed(guildID, channelID, starrerID)
		if err != nil {
			return err
		}

		if !allowed {
			return nil
		}
	}

	return starMessageInner(guildID, channelID, messageID, starrerID)
}

func starMessageInner(guildID, channelID, messageID, starrerID int64) error {
	config, err := GetConfig(guildID)
	if err != nil {
		return err
	}

	if config.ChannelID == 0 {
		return ErrBoardNotFound
	}

	boardChannel, err := common.BotSession.State.Channel(common.StrID(config.ChannelID))
	if err != nil {
		return ErrBoardNotFound
	}

	if config.Locked {
		return ErrBoardLocked
	}

	sourceChannel, _ := common.BotSession.State.Channel(common.StrID(channelID))
	if sourceChannel != nil && sourceChannel.NSFW && !boardChannel.NSFW {
		return newStarError("🚫 Cannot star NSFW in non-NSFW starboard channel.")
	}

	if channelID == config.ChannelID {
		// starring the mirror stars the original message
		originChannelID, originMessageID, found, err := EntryOrigin(messageID)
		if err != nil {
			return err
		}

		if !found {
			return newStarError("Could not find message in the starboard.")
		}

		if _, err = common.BotSession.State.Channel(common.StrID(originChannelID)); err != nil {
			return newStarError("Could not find original channel.")
		}

		return starMessageInner(guildID, originChannelID, originMessageID, starrerID)
	}

	perms, err := common.BotSession.State.UserChannelPermissions(common.BotSession.State.User.ID, common.StrID(config.ChannelID))
	if err != nil || perms&discordgo.PermissionSendMessages == 0 {
		return newStarError("🚫 Cannot post messages in starboard channel.")
	}

	msg := getMessage(channelID, messageID)
	if msg == nil {
		return newStarError("❓ This message could not be found.")
	}

	if msg.Author != nil && common.MustParseInt(msg.Author.ID) == starrerID {
		return newStarError("🚫 You cannot star your own message.")
	}

	emptyMessage := len(msg.Content) == 0 && len(msg.Attachments) == 0
	if emptyMessage || (msg.Type != discordgo.MessageTypeDefault && msg.Type != discordgo.MessageTypeReply) {
		return newStarError("🚫 This message cannot be starred.")
	}

	if time.Since(msg.Timestamp) > config.MaxAge {
		return newStarError("🚫 This message is too old.")
	}

	entryID, err := AddStar(messageID, channelID, guildID, common.MustParseInt(msg.Author.ID), starrerID)
	if err != nil {
		return err
	}

	count, err := CountStarrers(entryID)
	if err != nil {
		return err
	}

	markGiversStale(guildID)

	if count < config.Threshold {
		return SetEntryTotal(entryID, count)
	}

	content, embed := starMessageContent(msg, guildID, count)

	botMessageID, err := EntryBotMessage(entryID)
	if err != nil {
		return err
	}

	if botMessageID == 0 {
		sent, err := common.BotSession.ChannelMessageSendComplex(common.StrID(config.ChannelID), &discordgo.MessageSend{
			Content: content,
			Embeds:  []*discordgo.MessageEmbed{embed},
		})
		if err != nil {
			return errors.WithStackIf(err)
		}

		return SetEntryBotMessage(entryID, common.MustParseInt(sent.ID), count)
	}

	boardMsg := getMessage(config.ChannelID, botMessageID)
	if boardMsg == nil {
		// the board message got deleted behind our back, purge the entry
		return DeleteEntry(entryID)
	}

	err = SetEntryTotal(entryID, count)
	if err != nil {
		return err
	}

	_, err = common.BotSession.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel: common.StrID(config.ChannelID),
		ID:      common.StrID(botMessageID),
		Content: &content,
		Embeds:  []*discordgo.MessageEmbed{embed},
	})
	return errors.WithStackIf(err)
}

func unstarMessage(guildID, channelID, messageID, starrerID int64, verify bool) error {
	lock := lockGuild(guildID)
	lock.Lock()
	defer lock.Unlock()

	if verify {
		allowed, err := starAllowed(guildID, channelID, starrerID)
		if err != nil {
			return err
		}

		if !allowed {
			return nil
		}
	}

	return unstarMessageInner(guildID, channelID, messageID, starrerID)
}

func unstarMessageInner(guildID, channelID, messageID, starrerID int64) error {
	config, err := GetConfig(guildID)
	if err != nil {
		return err
	}

	if config.ChannelID == 0 {
		return ErrBoardNotFound
	}

	if _, err = common.BotSession.State.Channel(common.StrID(config.ChannelID)); err != nil {
		return ErrBoardNotFound
	}

	if config.Locked {
		return ErrBoardLocked
	}

	if channelID == config.ChannelID {
		originChannelID, originMessageID, found, err := EntryOrigin(messageID)
		if err != nil {
			return err
		}

		if !found {
			return newStarError("Could not find message in the starboard.")
		}

		if _, err = common.BotSession.State.Channel(common.StrID(originChannelID)); err != nil {
			return newStarError("Could not find original channel.")
		}

		return unstarMessageInner(guildID, originChannelID, originMessageID, starrerID)
	}

	perms, err := common.BotSession.State.UserChannelPermissions(common.BotSession.State.User.ID, common.StrID(config.ChannelID))
	if err != nil || perms&discordgo.PermissionSendMessages == 0 {
		return newStarError("🚫 Cannot edit messages in starboard channel.")
	}

	entryID, botMessageID, err := RemoveStar(messageID, starrerID)
	if err != nil {
		return err
	}

	count, err := CountStarrers(entryID)
	if err != nil {
		return err
	}

	markGiversStale(guildID)

	if count == 0 {
		err = DeleteEntry(entryID)
		if err != nil {
			return err
		}
	}

	if botMessageID == 0 {
		return nil
	}

	boardMsg := getMessage(config.ChannelID, botMessageID)
	if boardMsg == nil {
		return nil
	}

	if count < config.Threshold {
		markAboutToBeDeleted(botMessageID)
		if count > 0 {
			err = ClearEntryBotMessage(entryID, count)
			if err != nil {
				return err
			}
		}

		err = common.BotSession.ChannelMessageDelete(common.StrID(config.ChannelID), common.StrID(botMessageID))
		return errors.WithStackIf(err)
	}

	err = SetEntryTotal(entryID, count)
	if err != nil {
		return err
	}

	msg := getMessage(channelID, messageID)
	if msg == nil {
		return newStarError("❓ This message could not be found.")
	}

	content, embed := starMessageContent(msg, guildID, count)
	_, err = common.BotSession.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel: common.StrID(config.ChannelID),
		ID:      common.StrID(botMessageID),
		Content: &content,
		Embeds:  []*discordgo.MessageEmbed{embed},
	})
	return errors.WithStackIf(err)
}

func starEmoji(stars int) string {
	switch {
	case stars < 5:
		return "⭐"
	case stars < 10:
		return "🌟"
	case stars < 25:
		return "💫"
	default:
		return "✨"
	}
}

// starGradientColor interpolates from 0xfffdf7 towards 0xffc20c, 13 stars is
// the full gradient.
func starGradientColor(stars int) int {
	p := float64(stars) / 13
	if p > 1.0 {
		p = 1.0
	}

	red := 255
	green := int((194 * p) + (253 * (1 - p)))
	blue := int((12 * p) + (247 * (1 - p)))
	return (red << 16) + (green << 8) + blue
}

var spoilerRegex = regexp.MustCompile(`\|\|(.+?)\|\|`)

// isURLSpoiler reports whether the url sits inside a ||spoiler|| span of the
// content, spoilered images stay hidden on the board.
func isURLSpoiler(content string, url string) bool {
	for _, match := range spoilerRegex.FindAllStringSubmatch(content, -1) {
		if strings.Contains(match[1], url) {
			return true
		}
	}

	return false
}

var imageSuffixes = []string{"png", "jpeg", "jpg", "gif", "webp"}

func hasImageSuffix(url string) bool {
	lower := strings.ToLower(url)
	for _, suffix := range imageSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}

	return false
}

func messageJumpLink(guildID int64, channelID, messageID string) string {
	return fmt.Sprintf("https://discord.com/channels/%d/%s/%s", guildID, channelID, messageID)
}

// starMessageContent builds the board rendition of a message, the content
// line with the star count and an embed mirroring the original.
func starMessageContent(msg *discordgo.Message, guildID int64, stars int) (string, *discordgo.MessageEmbed) {
	emoji := starEmoji(stars)

	var content string
	if stars > 1 {
		content = fmt.Sprintf("%s **%d** <#%s> ID: %s", emoji, stars, msg.ChannelID, msg.ID)
	} else {
		content = fmt.Sprintf("%s <#%s> ID: %s", emoji, msg.ChannelID, msg.ID)
	}

	embed := &discordgo.MessageEmbed{
		Description: msg.Content,
		Color:       starGradientColor(stars),
		Timestamp:   msg.Timestamp.Format(time.RFC3339),
	}

	if len(msg.Embeds) > 0 {
		data := msg.Embeds[0]
		if data.Type == discordgo.EmbedTypeImage && data.URL != "" && !isURLSpoiler(msg.Content, data.URL) {
			embed.Image = &discordgo.MessageEmbedImage{URL: data.URL}
		}
	}

	if len(msg.Attachments) > 0 {
		file := msg.Attachments[0]
		spoiler := strings.HasPrefix(file.Filename, "SPOILER_")
		switch {
		case !spoiler && hasImageSuffix(file.URL):
			embed.Image = &discordgo.MessageEmbedImage{URL: file.URL}
		case spoiler:
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name:  "Attachment",
				Value: fmt.Sprintf("||[%s](%s)||", file.Filename, file.URL),
			})
		default:
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name:  "Attachment",
				Value: fmt.Sprintf("[%s](%s)", file.Filename, file.URL),
			})
		}
	}

	if msg.MessageReference != nil && msg.ReferencedMessage != nil && msg.ReferencedMessage.Author != nil {
		referenced := msg.ReferencedMessage
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Replying to...",
			Value: fmt.Sprintf("[%s](%s)", referenced.Author.String(), messageJumpLink(guildID, referenced.ChannelID, referenced.ID)),
		})
	}

	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:  "Original",
		Value: fmt.Sprintf("[Jump!](%s)", messageJumpLink(guildID, msg.ChannelID, msg.ID)),
	})

	if msg.Author != nil {
		embed.Author = &discordgo.MessageEmbedAuthor{
			Name:    msg.Author.Username,
			IconURL: msg.Author.AvatarURL(""),
		}
	}

	return content, embed
}
