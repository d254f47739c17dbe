package timezones

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/lurelin/medli/commands"
	"github.com/lurelin/medli/common"
)

var _ commands.CommandProvider = (*Plugin)(nil)

func (p *Plugin) AddCommands() {
	commands.AddRootCommands(p, cmdSetTimezone, cmdTimezone, cmdTimezoneBoard, cmdDelTimezone)
}

const wallClockFormat = "Mon Jan 02 15:04:05 (UTC -07:00)"

var cmdSetTimezone = &commands.MedliCommand{
	Name:        "SetTimezone",
	Aliases:     []string{"settz", "tzset"},
	Description: "Sets your timezone, used when interpreting times you type",
	LongDescription: "Sets your timezone, used when interpreting times you type.\n" +
		"Use names like `Europe/London`, `America/New York` or `Asia/Tokyo`, abbreviations such as `JST` work when they only fit one zone.\n" +
		"On a server this also lists you on that server's timezone board.",
	CmdCategory: commands.CategoryTool,
	RunInDM:     true,
	Arguments: []*commands.ArgDef{
		{Name: "timezone", Type: commands.Rest, Help: "An IANA timezone name, leave empty to show your current setting"},
	},

	SlashCommandEnabled: true,
	IsResponseEphemeral: true,

	RunFunc: cmdFuncSetTimezone,
}

func cmdFuncSetTimezone(data *commands.Data) (interface{}, error) {
	input := strings.TrimSpace(data.Args[0].Str())
	userID := common.MustParseInt(data.Author.ID)

	if input == "" {
		record, err := getUserTimezone(userID)
		if err != nil {
			return nil, err
		}

		if record == nil {
			return "You don't have a timezone set, use `settimezone <zone>` to set one.", nil
		}

		loc, err := time.LoadLocation(record.TimezoneName)
		if err != nil {
			return nil, err
		}

		return fmt.Sprintf("Your timezone is `%s`, the current time there is %s.", record.TimezoneName, time.Now().In(loc).Format(wallClockFormat)), nil
	}

	zone, suggestions := MatchZone(input)
	if zone == "" {
		resp := "That's not a timezone I know."
		if len(suggestions) > 0 {
			resp += " Did you mean:\n`" + strings.Join(suggestions, "`\n`") + "`"
		}

		return nil, commands.NewUserError(resp)
	}

	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, err
	}

	err = setUserTimezone(userID, zone, data.GuildID)
	if err != nil {
		return nil, err
	}

	resp := fmt.Sprintf("Set your timezone to `%s`, the current time there is %s.", zone, time.Now().In(loc).Format(wallClockFormat))
	if data.GuildID != 0 {
		resp += "\nYou now show up on this server's timezone board."
	}

	return resp, nil
}

var cmdTimezone = &commands.MedliCommand{
	Name:        "Timezone",
	Aliases:     []string{"tz", "time"},
	Description: "Shows the current time for a member, or yourself",
	CmdCategory: commands.CategoryTool,
	RunInDM:     true,
	Arguments: []*commands.ArgDef{
		{Name: "member", Type: commands.UserID, Help: "Whose clock to read, defaults to your own"},
	},

	SlashCommandEnabled: true,

	RunFunc: cmdFuncTimezone,
}

func cmdFuncTimezone(data *commands.Data) (interface{}, error) {
	targetID := data.Args[0].Int64()
	targetName := data.Author.Username
	if targetID == 0 {
		targetID = common.MustParseInt(data.Author.ID)
	} else {
		targetName = data.UserDisplayName(targetID)
	}

	record, err := getUserTimezone(targetID)
	if err != nil {
		return nil, err
	}

	if record == nil {
		return fmt.Sprintf("No timezone set for **%s**.", targetName), nil
	}

	loc, err := time.LoadLocation(record.TimezoneName)
	if err != nil {
		return nil, err
	}

	return &discordgo.MessageEmbed{
		Title:       "Time for " + targetName,
		Description: "```\n" + time.Now().In(loc).Format(wallClockFormat) + "\n```",
		Color:       commands.CategoryTool.EmbedColor,
		Footer:      &discordgo.MessageEmbedFooter{Text: record.TimezoneName},
		Timestamp:   time.Now().Format(time.RFC3339),
	}, nil
}

var cmdTimezoneBoard = &commands.MedliCommand{
	Name:        "TimezoneBoard",
	Aliases:     []string{"tzboard", "timeboard"},
	Description: "Shows the local time of everyone on this server who registered a timezone",
	CmdCategory: commands.CategoryTool,

	SlashCommandEnabled: true,
	IsResponseEphemeral: true,

	RunFunc: cmdFuncTimezoneBoard,
}

func cmdFuncTimezoneBoard(data *commands.Data) (interface{}, error) {
	records, err := guildTimezoneRecords(data.GuildID)
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return "No timezones registered on this server yet, use `settimezone` to add yours.", nil
	}

	now := time.Now()

	type boardEntry struct {
		offset int
		line   string
	}

	entries := make([]boardEntry, 0, len(records))
	for _, record := range records {
		loc, err := time.LoadLocation(record.TimezoneName)
		if err != nil {
			logger.WithError(err).WithField("timezone", record.TimezoneName).Warn("skipping unloadable timezone on board")
			continue
		}

		localized := now.In(loc)
		_, offset := localized.Zone()
		entries = append(entries, boardEntry{
			offset: offset,
			line:   fmt.Sprintf("%s: %s", data.UserDisplayName(record.UserID), localized.Format("15:04 (Mon)")),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].offset < entries[j].offset
	})

	embed := &discordgo.MessageEmbed{
		Title:     "Timezone board",
		Color:     commands.CategoryTool.EmbedColor,
		Timestamp: now.Format(time.RFC3339),
	}

	var current *discordgo.MessageEmbedField
	lastOffset := 0
	for _, entry := range entries {
		if current == nil || entry.offset != lastOffset {
			current = &discordgo.MessageEmbedField{Name: FormatUTCOffset(entry.offset)}
			embed.Fields = append(embed.Fields, current)
			lastOffset = entry.offset
		}

		current.Value += entry.line + "\n"
	}

	return embed, nil
}

var cmdDelTimezone = &commands.MedliCommand{
	Name:        "DelTimezone",
	Aliases:     []string{"deltz", "removetimezone"},
	Description: "Removes your stored timezone",
	CmdCategory: commands.CategoryTool,
	RunInDM:     true,

	SlashCommandEnabled: true,
	IsResponseEphemeral: true,

	RunFunc: func(data *commands.Data) (interface{}, error) {
		deleted, err := removeUserTimezone(common.MustParseInt(data.Author.ID))
		if err != nil {
			return nil, err
		}

		if !deleted {
			return "You don't have a timezone set.", nil
		}

		return "Removed your timezone.", nil
	},
}

// FormatUTCOffset renders an offset in seconds as UTC+2 or UTC+5:30.
func FormatUTCOffset(seconds int) string {
	if seconds == 0 {
		return "UTC"
	}

	sign := "+"
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}

	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	if minutes == 0 {
		return fmt.Sprintf("UTC%s%d", sign, hours)
	}

	return fmt.Sprintf("UTC%s%d:%02d", sign, hours, minutes)
}
