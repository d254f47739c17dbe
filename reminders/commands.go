package reminders

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"emperror.dev/errors"
	"github.com/bwmarrin/discordgo"
	"github.com/jinzhu/gorm"
	"github.com/lurelin/medli/bot"
	"github.com/lurelin/medli/commands"
	"github.com/lurelin/medli/common"
	"github.com/lurelin/medli/common/scheduledevents"
	"github.com/lurelin/medli/dateparser"
	"github.com/lurelin/medli/timezones"
	"github.com/mediocregopher/radix/v3"
)

var _ bot.BotInitHandler = (*Plugin)(nil)
var _ bot.RemoveGuildHandler = (*Plugin)(nil)
var _ commands.CommandProvider = (*Plugin)(nil)

func (p *Plugin) BotInit() {
	scheduledevents.RegisterHandler("reminders_check_user", int64(0), checkUserScheduledEvent)
}

func (p *Plugin) AddCommands() {
	commands.AddRootCommands(p, cmdRemindMe, cmdReminders, cmdCReminders, cmdDelReminder, cmdClearReminders)
}

const (
	MaxReminders = 25

	MinReminderOffset = 59 * time.Second
	MaxReminderOffset = time.Hour * 24 * 366

	maxReminderLength = 500
)

var cmdRemindMe = &commands.MedliCommand{
	Name:        "RemindMe",
	Aliases:     []string{"remind", "reminder"},
	Description: "Schedules a reminder, either a duration or a phrase like 'tomorrow at 9am'",
	LongDescription: "Schedules a reminder.\n" +
		"Durations work anywhere: `remindme 1h30m stretch your legs`.\n" +
		"Phrases need to sit at the start or the end: `remindme tomorrow at 9am water the plants` or `remindme water the plants in two hours`. " +
		"Wall clock phrases use your stored timezone, see `settimezone`.",
	CmdCategory:  commands.CategoryTool,
	RunInDM:      true,
	RequiredArgs: 1,
	Arguments: []*commands.ArgDef{
		{Name: "time-and-message", Type: commands.Rest, Help: "When to remind you, plus the message"},
	},

	SlashCommandEnabled: true,

	RunFunc: func(data *commands.Data) (interface{}, error) {
		userID := common.MustParseInt(data.Author.ID)

		count, err := CountUserReminders(userID)
		if err != nil {
			return nil, err
		}

		if count >= MaxReminders {
			return fmt.Sprintf("You can have at most %d active reminders, clear some out with the `delreminder` command.", MaxReminders), nil
		}

		loc := timezones.GetUserTimezone(userID)
		when, message, err := parseWhenAndMessage(data.Context(), data.Args[0].Str(), time.Now(), loc)
		if err != nil {
			if errors.Is(err, dateparser.ErrNoTimeFound) {
				return nil, commands.NewUserError("Couldn't find a time in there, try a duration like `1h30m` or a phrase like `tomorrow at 9am`.")
			}

			if errors.Is(err, dateparser.ErrTimeAmbiguous) {
				return nil, commands.NewUserError("Couldn't tell the time apart from the message, put the time first or last.")
			}

			return nil, err
		}

		offset := time.Until(when)
		if offset < MinReminderOffset {
			return nil, commands.NewUserError("That's less than a minute away, surely you can keep it in your head that long.")
		}

		if offset > MaxReminderOffset {
			return nil, commands.NewUserError("Can be max 1 year from now...")
		}

		if message == "" {
			message = "…"
		}

		message = common.CutStringShort(message, maxReminderLength)

		_, err = NewReminder(userID, data.GuildID, data.ChannelID, message, when)
		if err != nil {
			return nil, err
		}

		durString := common.HumanizeDuration(common.DurationPrecisionSeconds, offset)
		return fmt.Sprintf("Set a reminder in %s from now (<t:%d:f>)\nView reminders with the `reminders` command", durString, when.Unix()), nil
	},
}

// parseWhenAndMessage tries the compact duration form first, falling back to
// the natural language parser. A duration has to lead with its own token so
// "me in 2 hours" never reads as a duration.
func parseWhenAndMessage(ctx context.Context, input string, ref time.Time, loc *time.Location) (time.Time, string, error) {
	input = strings.TrimSpace(input)

	parts := strings.SplitN(input, " ", 2)
	first := parts[0]
	rest := ""
	if len(parts) > 1 {
		rest = parts[1]
	}

	if strings.IndexFunc(first, unicode.IsDigit) >= 0 {
		if dur, err := common.ParseDuration(first); err == nil && dur > 0 {
			return ref.Add(dur), strings.TrimSpace(rest), nil
		}
	}

	return dateparser.SplitWhenAndWhat(ctx, input, ref, loc)
}

var cmdReminders = &commands.MedliCommand{
	Name:        "Reminders",
	Description: "Lists your active reminders on this server, use in DM to see all of them",
	CmdCategory: commands.CategoryTool,
	RunInDM:     true,

	SlashCommandEnabled: true,
	IsResponseEphemeral: true,

	RunFunc: func(data *commands.Data) (interface{}, error) {
		userID := common.MustParseInt(data.Author.ID)

		var reminders []*Reminder
		var err error
		inServerSuffix := ""
		if data.GuildID != 0 {
			inServerSuffix = " on this server"
			reminders, err = GetGuildUserReminders(userID, data.GuildID)
		} else {
			reminders, err = GetUserReminders(userID)
		}

		if err != nil {
			return nil, err
		}

		if len(reminders) == 0 {
			return fmt.Sprintf("You have no reminders%s. Create reminders with the `remindme` command.", inServerSuffix), nil
		}

		out := fmt.Sprintf("Your reminders%s:\n", inServerSuffix)
		out += displayReminders(reminders, false)
		out += "\nRemove a reminder with `delreminder <id>`, clear them all with `clearreminders`."
		return out, nil
	},
}

var cmdCReminders = &commands.MedliCommand{
	Name:                "CReminders",
	Aliases:             []string{"channelreminders"},
	Description:         "Lists the reminders everyone set in this channel",
	CmdCategory:         commands.CategoryTool,
	RequireDiscordPerms: []int64{discordgo.PermissionManageChannels},

	SlashCommandEnabled: true,
	IsResponseEphemeral: true,

	RunFunc: func(data *commands.Data) (interface{}, error) {
		reminders, err := GetChannelReminders(data.ChannelID)
		if err != nil {
			return nil, err
		}

		if len(reminders) == 0 {
			return "There are no reminders in this channel.", nil
		}

		out := "Reminders in this channel:\n"
		out += displayReminders(reminders, true)
		out += "\nRemove a reminder with `delreminder <id>`."
		return out, nil
	},
}

var cmdDelReminder = &commands.MedliCommand{
	Name:         "DelReminder",
	Aliases:      []string{"rmreminder"},
	Description:  "Deletes a reminder by its id, see the `reminders` command for ids",
	CmdCategory:  commands.CategoryTool,
	RunInDM:      true,
	RequiredArgs: 1,
	Arguments: []*commands.ArgDef{
		{Name: "id", Type: commands.Int},
	},

	SlashCommandEnabled: true,
	IsResponseEphemeral: true,

	RunFunc: func(data *commands.Data) (interface{}, error) {
		var reminder Reminder
		err := common.GORM.Where("id = ?", data.Args[0].Int64()).First(&reminder).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return "No reminder with that id found.", nil
			}

			return nil, errors.WithStackIf(err)
		}

		if reminder.UserID != common.MustParseInt(data.Author.ID) {
			if data.GuildID == 0 || reminder.GuildID != data.GuildID {
				return "You can only delete someone else's reminder on the server it was created in.", nil
			}

			perms, err := data.MemberPermissions()
			if err != nil {
				return nil, err
			}

			if perms&discordgo.PermissionManageChannels == 0 && !common.IsOwner(data.Author.ID) {
				return "You need the manage channels permission to delete reminders that are not your own.", nil
			}
		}

		err = common.GORM.Delete(&reminder).Error
		if err != nil {
			return nil, errors.WithStackIf(err)
		}

		return fmt.Sprintf("Deleted reminder **#%d**: %q", reminder.ID, common.CutStringShort(reminder.Message, 100)), nil
	},
}

func clearConfirmKey(userID int64) string {
	return fmt.Sprintf("reminders_clear_confirm:%d", userID)
}

var cmdClearReminders = &commands.MedliCommand{
	Name:        "ClearReminders",
	Aliases:     []string{"clearreminder"},
	Description: "Removes all your reminders, asks once before going through with it",
	CmdCategory: commands.CategoryTool,
	RunInDM:     true,

	SlashCommandEnabled: true,
	IsResponseEphemeral: true,

	RunFunc: func(data *commands.Data) (interface{}, error) {
		userID := common.MustParseInt(data.Author.ID)

		var confirmed bool
		err := common.RedisPool.Do(radix.Cmd(&confirmed, "EXISTS", clearConfirmKey(userID)))
		if err != nil {
			return nil, errors.WithStackIf(err)
		}

		if !confirmed {
			count, err := CountUserReminders(userID)
			if err != nil {
				return nil, err
			}

			if count == 0 {
				return "You have no reminders to clear.", nil
			}

			err = common.RedisPool.Do(radix.Cmd(nil, "SET", clearConfirmKey(userID), "1", "EX", "60"))
			if err != nil {
				return nil, errors.WithStackIf(err)
			}

			return fmt.Sprintf("This removes all %d of your reminders, run the command again within a minute to confirm.", count), nil
		}

		common.RedisPool.Do(radix.Cmd(nil, "DEL", clearConfirmKey(userID)))

		result := common.GORM.Where("user_id = ?", userID).Delete(&Reminder{})
		if result.Error != nil {
			return nil, errors.WithStackIf(result.Error)
		}

		return fmt.Sprintf("Cleared %d reminders.", result.RowsAffected), nil
	},
}

func displayReminders(reminders []*Reminder, displayUsernames bool) string {
	var sb strings.Builder
	for _, v := range reminders {
		shortened := common.CutStringShort(v.Message, 70)
		if displayUsernames {
			sb.WriteString(fmt.Sprintf("**%d**: <@%d>: %q - <t:%d:R> (<t:%d:f>)\n", v.ID, v.UserID, shortened, v.When, v.When))
		} else {
			sb.WriteString(fmt.Sprintf("**%d**: <#%d>: %q - <t:%d:R> (<t:%d:f>)\n", v.ID, v.ChannelID, shortened, v.When, v.When))
		}
	}

	return sb.String()
}
