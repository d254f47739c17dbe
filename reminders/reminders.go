package reminders

import (
	"fmt"
	"time"

	"emperror.dev/errors"
	"github.com/bwmarrin/discordgo"
	"github.com/jinzhu/gorm"
	"github.com/lurelin/medli/common"
	"github.com/lurelin/medli/common/scheduledevents"
)

var logger = common.GetPluginLogger(&Plugin{})

type Plugin struct{}

func (p *Plugin) PluginInfo() *common.PluginInfo {
	return &common.PluginInfo{
		Name:     "Reminders",
		SysName:  "reminders",
		Category: common.PluginCategoryTool,
	}
}

func RegisterPlugin() {
	err := common.GORM.AutoMigrate(&Reminder{}).Error
	if err != nil {
		logger.WithError(err).Fatal("failed migrating reminders database")
	}

	common.RegisterPlugin(&Plugin{})
}

type Reminder struct {
	ID        int64 `gorm:"primary_key"`
	CreatedAt time.Time

	UserID    int64 `gorm:"index"`
	ChannelID int64
	GuildID   int64 `gorm:"index"`
	Message   string
	// unix seconds, the scheduler wakes the user's reminders up and this
	// decides which of them are actually due
	When int64
}

func GetUserReminders(userID int64) (results []*Reminder, err error) {
	err = common.GORM.Where(&Reminder{UserID: userID}).Order("\"when\" asc").Find(&results).Error
	if err == gorm.ErrRecordNotFound {
		err = nil
	}

	return results, errors.WithStackIf(err)
}

func GetGuildUserReminders(userID int64, guildID int64) (results []*Reminder, err error) {
	err = common.GORM.Where("user_id = ? AND guild_id = ?", userID, guildID).Order("\"when\" asc").Find(&results).Error
	if err == gorm.ErrRecordNotFound {
		err = nil
	}

	return results, errors.WithStackIf(err)
}

func GetChannelReminders(channelID int64) (results []*Reminder, err error) {
	err = common.GORM.Where(&Reminder{ChannelID: channelID}).Order("\"when\" asc").Find(&results).Error
	if err == gorm.ErrRecordNotFound {
		err = nil
	}

	return results, errors.WithStackIf(err)
}

func CountUserReminders(userID int64) (count int, err error) {
	err = common.GORM.Model(&Reminder{}).Where("user_id = ?", userID).Count(&count).Error
	return count, errors.WithStackIf(err)
}

func NewReminder(userID int64, guildID int64, channelID int64, message string, when time.Time) (*Reminder, error) {
	reminder := &Reminder{
		UserID:    userID,
		ChannelID: channelID,
		GuildID:   guildID,
		Message:   message,
		When:      when.Unix(),
	}

	err := common.GORM.Create(reminder).Error
	if err != nil {
		return nil, errors.WithStackIf(err)
	}

	err = scheduledevents.ScheduleEvent("reminders_check_user", guildID, when, userID)
	return reminder, errors.WithMessage(err, "schedule")
}

// Trigger deletes the reminder and delivers it to the channel it was created
// in. Deleting first keeps a failing send from double delivering on retry.
func (r *Reminder) Trigger() error {
	rows := common.GORM.Delete(r).RowsAffected
	if rows < 1 {
		logger.Info("reminder triggered concurrently, skipping")
		return nil
	}

	logger.WithField("user", r.UserID).WithField("channel", r.ChannelID).WithField("id", r.ID).Info("triggered reminder")

	since := common.HumanizeDuration(common.DurationPrecisionMinutes, time.Since(r.CreatedAt))
	content := fmt.Sprintf("**Reminder** <@%d>, from %s ago: %s", r.UserID, since, r.Message)

	_, err := common.BotSession.ChannelMessageSendComplex(common.StrID(r.ChannelID), &discordgo.MessageSend{
		Content: content,
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Users: []string{common.StrID(r.UserID)},
		},
	})

	return errors.WithStackIf(err)
}

func checkUserScheduledEvent(evt *scheduledevents.ScheduledEvent, data interface{}) (retry bool, err error) {
	userID := *data.(*int64)

	reminders, err := GetUserReminders(userID)
	if err != nil {
		return true, err
	}

	nowUnix := time.Now().Unix()
	for _, reminder := range reminders {
		if reminder.When > nowUnix {
			continue
		}

		err = reminder.Trigger()
		if err != nil {
			return scheduledevents.CheckDiscordErrRetry(err), err
		}
	}

	return false, nil
}

func (p *Plugin) RemoveGuild(guildID int64) {
	err := common.GORM.Where("guild_id = ?", guildID).Delete(&Reminder{}).Error
	if err != nil {
		logger.WithError(err).WithField("guild", guildID).Error("failed removing reminders of left guild")
	}
}
