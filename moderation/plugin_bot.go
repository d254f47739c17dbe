package moderation

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"emperror.dev/errors"
	"github.com/bwmarrin/discordgo"
	"github.com/lurelin/medli/bot"
	"github.com/lurelin/medli/common"
)

var (
	_ bot.BotInitHandler    = (*Plugin)(nil)
	_ bot.BotStopperHandler = (*Plugin)(nil)
)

func (p *Plugin) BotInit() {
	common.BotSession.AddHandler(p.handleMessageCreate)
	common.BotSession.AddHandler(p.handleMemberJoin)

	go p.runBroadcasts()
}

func (p *Plugin) StopBot(wg *sync.WaitGroup) {
	p.stopBroadcasts <- wg
}

// autoban notices are collected per channel and flushed together so a raid
// doesn't turn into a wall of single ban messages.
type broadcastKey struct {
	guildID   int64
	channelID int64
}

var (
	broadcastBatches = make(map[broadcastKey][]string)
	broadcastsMu     sync.Mutex
)

func queueBroadcast(guildID, channelID int64, message string) {
	broadcastsMu.Lock()
	defer broadcastsMu.Unlock()

	key := broadcastKey{guildID: guildID, channelID: channelID}
	broadcastBatches[key] = append(broadcastBatches[key], message)
}

func (p *Plugin) runBroadcasts() {
	t := time.NewTicker(10 * time.Second)
	defer t.Stop()

	for {
		select {
		case wg := <-p.stopBroadcasts:
			p.flushBroadcasts()
			wg.Done()
			return
		case <-t.C:
			p.flushBroadcasts()
		}
	}
}

func (p *Plugin) flushBroadcasts() {
	broadcastsMu.Lock()
	batches := broadcastBatches
	broadcastBatches = make(map[broadcastKey][]string)
	broadcastsMu.Unlock()

	for key, messages := range batches {
		for _, page := range paginateLines(messages, 2000) {
			_, err := common.BotSession.ChannelMessageSend(common.StrID(key.channelID), page)
			if err != nil {
				logger.WithError(err).Error("failed sending autoban notices")
				break
			}
		}
	}
}

// paginateLines joins the lines into pages of at most maxSize characters,
// lines longer than a page get one of their own.
func paginateLines(lines []string, maxSize int) []string {
	var pages []string
	var current strings.Builder

	for _, line := range lines {
		if current.Len() > 0 && current.Len()+len(line)+1 > maxSize {
			pages = append(pages, current.String())
			current.Reset()
		}

		if current.Len() > 0 {
			current.WriteByte('\n')
		}

		current.WriteString(line)
	}

	if current.Len() > 0 {
		pages = append(pages, current.String())
	}

	return pages
}

func (p *Plugin) handleMessageCreate(s *discordgo.Session, evt *discordgo.MessageCreate) {
	if evt.GuildID == "" || evt.Author == nil || evt.Author.Bot {
		return
	}

	if evt.Author.ID == s.State.User.ID || common.IsOwner(evt.Author.ID) {
		return
	}

	guildID := common.MustParseInt(evt.GuildID)
	config, err := GetConfig(guildID)
	if err != nil {
		logger.WithError(err).Error("failed fetching moderation config")
		return
	}

	if config.RaidMode != RaidModeStrict && config.MentionCount == 0 {
		return
	}

	// members holding manage messages are left alone
	perms, err := s.UserChannelPermissions(evt.Author.ID, evt.ChannelID)
	if err != nil || perms&discordgo.PermissionManageMessages != 0 {
		return
	}

	p.checkRaidSpam(config, evt)
	p.checkMentionSpam(config, evt)
}

func (p *Plugin) checkRaidSpam(config *Config, evt *discordgo.MessageCreate) {
	if config.RaidMode != RaidModeStrict {
		return
	}

	var joined time.Time
	if evt.Member != nil {
		joined = evt.Member.JoinedAt
	}

	created, _ := discordgo.SnowflakeTimestamp(evt.Author.ID)

	checker := guildSpamChecker(config.GuildID)
	if !checker.checkSpam(evt.Author.ID, evt.ChannelID, evt.Content, created, joined) {
		return
	}

	err := common.BotSession.GuildBanCreateWithReason(evt.GuildID, evt.Author.ID, "Auto-ban from spam (strict raid mode ban)", 1)
	if err != nil {
		logger.Infof("[raid mode] failed to ban %s (ID: %s) in server %s via strict mode", evt.Author.String(), evt.Author.ID, evt.GuildID)
		return
	}

	logger.Infof("[raid mode] banned %s (ID: %s) in server %s via strict mode", evt.Author.String(), evt.Author.ID, evt.GuildID)
}

func (p *Plugin) checkMentionSpam(config *Config, evt *discordgo.MessageCreate) {
	if config.MentionCount == 0 || len(evt.Mentions) <= 3 {
		return
	}

	// only other humans count towards the threshold
	mentions := 0
	for _, mentioned := range evt.Mentions {
		if !mentioned.Bot && mentioned.ID != evt.Author.ID {
			mentions++
		}
	}

	if mentions < config.MentionCount {
		return
	}

	if config.IsSafeMentionChannel(common.MustParseInt(evt.ChannelID)) {
		return
	}

	reason := fmt.Sprintf("Spamming mentions (%d mentions)", mentions)
	err := common.BotSession.GuildBanCreateWithReason(evt.GuildID, evt.Author.ID, reason, 1)
	if err != nil {
		logger.Infof("failed to autoban member %s (ID: %s) in server %s", evt.Author.String(), evt.Author.ID, evt.GuildID)
		return
	}

	queueBroadcast(config.GuildID, common.MustParseInt(evt.ChannelID),
		fmt.Sprintf("Banned %s (ID: %s) for spamming %d mentions.", evt.Author.String(), evt.Author.ID, mentions))
	logger.Infof("member %s (ID: %s) has been autobanned in server %s", evt.Author.String(), evt.Author.ID, evt.GuildID)
}

func (p *Plugin) handleMemberJoin(s *discordgo.Session, evt *discordgo.GuildMemberAdd) {
	if evt.User == nil {
		return
	}

	guildID := common.MustParseInt(evt.GuildID)
	config, err := GetConfig(guildID)
	if err != nil {
		logger.WithError(err).Error("failed fetching moderation config")
		return
	}

	if config.RaidMode == RaidModeOff {
		return
	}

	created, _ := discordgo.SnowflakeTimestamp(evt.User.ID)
	isNew := created.After(time.Now().AddDate(0, 0, -7))

	checker := guildSpamChecker(guildID)
	fastJoin := checker.checkFastJoin(evt.User.ID, evt.JoinedAt)

	if config.BroadcastChannel == 0 {
		return
	}

	embed := memberJoinEmbed(evt.User, evt.JoinedAt, created, fastJoin, isNew)
	_, err = common.BotSession.ChannelMessageSendEmbed(common.StrID(config.BroadcastChannel), embed)
	if err != nil {
		if cast, ok := errors.Cause(err).(*discordgo.RESTError); ok && cast.Response != nil && cast.Response.StatusCode == 403 {
			// can't post to the broadcast channel anymore, shut raid mode off
			if derr := disableRaidMode(guildID); derr != nil {
				logger.WithError(derr).Error("failed disabling raid mode after forbidden broadcast")
			}

			return
		}

		logger.WithError(err).Error("failed broadcasting member join")
	}
}

const (
	joinColorNormal   = 0x53dda4
	joinColorNew      = 0xdda453
	joinColorFastJoin = 0xdd5f53
)

func memberJoinEmbed(user *discordgo.User, joined, created time.Time, fastJoin, isNew bool) *discordgo.MessageEmbed {
	title := "Member Joined"
	color := joinColorNormal

	if fastJoin {
		color = joinColorFastJoin
		if isNew {
			title = "Member Joined (Very New Member)"
		}
	} else if isNew {
		color = joinColorNew
		title = "Member Joined (Very New Member)"
	}

	return &discordgo.MessageEmbed{
		Title:     title,
		Color:     color,
		Timestamp: time.Now().Format(time.RFC3339),
		Author: &discordgo.MessageEmbedAuthor{
			Name:    user.String(),
			IconURL: user.AvatarURL(""),
		},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "ID", Value: user.ID, Inline: true},
			{Name: "Joined", Value: fmt.Sprintf("<t:%d:F>", joined.Unix()), Inline: true},
			{Name: "Created", Value: fmt.Sprintf("<t:%d:R>", created.Unix())},
		},
	}
}

// disableRaidMode turns raid mode off and forgets the server's spam
// tracking.
func disableRaidMode(guildID int64) error {
	err := SetRaidMode(guildID, RaidModeOff, 0)
	if err != nil {
		return err
	}

	removeSpamChecker(guildID)
	return nil
}
