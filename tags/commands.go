package tags

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"emperror.dev/errors"
	"github.com/bwmarrin/discordgo"
	"github.com/jedib0t/go-pretty/table"
	"github.com/lurelin/medli/commands"
	"github.com/lurelin/medli/common"
	"github.com/mediocregopher/radix/v3"
)

var _ commands.CommandProvider = (*Plugin)(nil)

func (p *Plugin) AddCommands() {
	commands.AddRootCommands(p, cmdTag, cmdTags)
}

const (
	maxTagNameLength    = 100
	maxTagContentLength = 2000

	tagsPerPage  = 20
	maxTagEmbeds = 5
)

var cmdTag = &commands.MedliCommand{
	Name:        "Tag",
	Description: "Retrieves a tagged text snippet from this server",
	LongDescription: "Retrieves a tagged text snippet from this server.\n" +
		"Create your own with `tag create`, the subcommands cover aliases, editing, transfers and statistics.",
	CmdCategory:  commands.CategoryTool,
	RequiredArgs: 1,
	Arguments: []*commands.ArgDef{
		{Name: "name", Type: commands.Rest, Help: "Name of the tag to retrieve"},
	},

	SlashCommandEnabled: true,
	SlashFallbackSub:    "get",
}

// Assigned in init rather than in the composite literal above: the run
// funcs reach cmdTag through isReservedTagWord, which would otherwise
// be an initialization cycle.
func init() {
	cmdTag.RunFunc = cmdFuncTagGet
	cmdTag.Subcommands = []*commands.MedliCommand{
		cmdTagCreate,
		cmdTagAlias,
		cmdTagEdit,
		cmdTagDelete,
		cmdTagDeleteID,
		cmdTagInfo,
		cmdTagRaw,
		cmdTagList,
		cmdTagAll,
		cmdTagSearch,
		cmdTagClaim,
		cmdTagTransfer,
		cmdTagPurge,
		cmdTagStats,
	}
}

var cmdTags = &commands.MedliCommand{
	Name:        "Tags",
	Description: "Lists the tags a member owns on this server",
	CmdCategory: commands.CategoryTool,
	Arguments: []*commands.ArgDef{
		{Name: "member", Type: commands.UserID, Help: "Defaults to you"},
	},

	SlashCommandEnabled: true,

	RunFunc: cmdFuncTagList,
}

func cmdFuncTagGet(data *commands.Data) (interface{}, error) {
	name, err := validateTagName(data.Args[0].Str())
	if err != nil {
		return nil, err
	}

	tag, err := GetTag(data.GuildID, name)
	if err != nil {
		if errors.Is(err, ErrTagNotFound) {
			return tagNotFoundMessage(data.GuildID, name), nil
		}

		return nil, err
	}

	if err := BumpUses(tag.ID); err != nil {
		logger.WithError(err).Error("failed bumping tag uses")
	}

	return tag.Content, nil
}

func tagNotFoundMessage(locationID int64, name string) string {
	similar, err := SimilarTagNames(locationID, name)
	if err != nil {
		logger.WithError(err).Error("failed looking up similar tag names")
	}

	if len(similar) == 0 {
		return "Tag not found."
	}

	return "Tag not found. Did you mean...\n" + strings.Join(similar, "\n")
}

var cmdTagCreate = &commands.MedliCommand{
	Name:         "Create",
	Aliases:      []string{"add"},
	Description:  "Creates a new tag owned by you",
	RequiredArgs: 2,
	Arguments: []*commands.ArgDef{
		{Name: "name", Type: commands.String, Help: "Multi word names need quotes"},
		{Name: "content", Type: commands.Rest},
	},

	SlashCommandEnabled: true,

	RunFunc: func(data *commands.Data) (interface{}, error) {
		name, err := validateTagName(data.Args[0].Str())
		if err != nil {
			return nil, err
		}

		content := strings.TrimSpace(data.Args[1].Str())
		if utf8.RuneCountInString(content) > maxTagContentLength {
			return nil, commands.NewUserError("Tag content is a maximum of 2000 characters.")
		}

		err = CreateTag(data.GuildID, common.MustParseInt(data.Author.ID), name, content)
		if err != nil {
			if errors.Is(err, ErrTagExists) {
				return "This tag already exists.", nil
			}

			return nil, err
		}

		return fmt.Sprintf("Tag %s successfully created.", name), nil
	},
}

var cmdTagAlias = &commands.MedliCommand{
	Name:        "Alias",
	Description: "Creates an alias pointing at an existing tag",
	LongDescription: "Creates an alias pointing at an existing tag.\n" +
		"You don't need to own the original, deleting the original removes every alias with it.",
	RequiredArgs: 2,
	Arguments: []*commands.ArgDef{
		{Name: "new-name", Type: commands.String, Help: "Multi word names need quotes"},
		{Name: "old-name", Type: commands.Rest, Help: "The tag the alias points at"},
	},

	SlashCommandEnabled: true,

	RunFunc: func(data *commands.Data) (interface{}, error) {
		newName, err := validateTagName(data.Args[0].Str())
		if err != nil {
			return nil, err
		}

		oldName, err := validateTagName(data.Args[1].Str())
		if err != nil {
			return nil, err
		}

		err = CreateAlias(data.GuildID, common.MustParseInt(data.Author.ID), newName, oldName)
		if err != nil {
			if errors.Is(err, ErrTagExists) {
				return "A tag with this name already exists.", nil
			}

			if errors.Is(err, ErrTagNotFound) {
				return fmt.Sprintf("A tag with the name of %q does not exist.", oldName), nil
			}

			return nil, err
		}

		return fmt.Sprintf("Tag alias %q that points to %q successfully created.", newName, oldName), nil
	},
}

var cmdTagEdit = &commands.MedliCommand{
	Name:         "Edit",
	Description:  "Replaces the content of a tag you own",
	RequiredArgs: 2,
	Arguments: []*commands.ArgDef{
		{Name: "name", Type: commands.String, Help: "Multi word names need quotes"},
		{Name: "content", Type: commands.Rest},
	},

	SlashCommandEnabled: true,

	RunFunc: func(data *commands.Data) (interface{}, error) {
		name, err := validateTagName(data.Args[0].Str())
		if err != nil {
			return nil, err
		}

		content := strings.TrimSpace(data.Args[1].Str())
		if utf8.RuneCountInString(content) > maxTagContentLength {
			return nil, commands.NewUserError("Tag content is a maximum of 2000 characters.")
		}

		edited, err := EditTag(data.GuildID, common.MustParseInt(data.Author.ID), name, content)
		if err != nil {
			return nil, err
		}

		if !edited {
			return "Could not edit that tag. Are you sure it exists and you own it?", nil
		}

		return "Successfully edited tag.", nil
	},
}

var cmdTagDelete = &commands.MedliCommand{
	Name:        "Delete",
	Aliases:     []string{"remove"},
	Description: "Deletes a tag or alias by name",
	LongDescription: "Deletes a tag or alias by name.\n" +
		"Removing a tags main name takes every alias with it, removing an alias only drops that alias. Members with Manage Messages can delete tags they don't own.",
	RequiredArgs: 1,
	Arguments: []*commands.ArgDef{
		{Name: "name", Type: commands.Rest},
	},

	SlashCommandEnabled: true,

	RunFunc: func(data *commands.Data) (interface{}, error) {
		name, err := validateTagName(data.Args[0].Str())
		if err != nil {
			return nil, err
		}

		requireOwner, err := deleteOwnerRestriction(data)
		if err != nil {
			return nil, err
		}

		wasTag, err := DeleteTag(data.GuildID, name, requireOwner)
		if err != nil {
			if errors.Is(err, ErrTagNotFound) {
				return "Could not delete tag. Either it does not exist or you do not have permissions to do so.", nil
			}

			return nil, err
		}

		if !wasTag {
			return "Tag alias successfully deleted.", nil
		}

		return "Tag and corresponding aliases successfully deleted.", nil
	},
}

var cmdTagDeleteID = &commands.MedliCommand{
	Name:         "DeleteID",
	Aliases:      []string{"removeid"},
	Description:  "Deletes a tag or alias by its numeric id",
	RequiredArgs: 1,
	Arguments: []*commands.ArgDef{
		{Name: "id", Type: commands.Int, Help: "The id shown by tag list and tag info"},
	},

	SlashCommandEnabled: true,

	RunFunc: func(data *commands.Data) (interface{}, error) {
		requireOwner, err := deleteOwnerRestriction(data)
		if err != nil {
			return nil, err
		}

		wasTag, err := DeleteTagByID(data.GuildID, data.Args[0].Int64(), requireOwner)
		if err != nil {
			if errors.Is(err, ErrTagNotFound) {
				return "Could not delete tag. Either it does not exist or you do not have permissions to do so.", nil
			}

			return nil, err
		}

		if !wasTag {
			return "Tag alias successfully deleted.", nil
		}

		return "Tag and corresponding aliases successfully deleted.", nil
	},
}

// deleteOwnerRestriction returns the owner id deletes have to match, 0 means
// no restriction. The bot owner and members with manage messages can delete
// anything.
func deleteOwnerRestriction(data *commands.Data) (int64, error) {
	if common.IsOwner(data.Author.ID) {
		return 0, nil
	}

	perms, err := data.MemberPermissions()
	if err != nil {
		return 0, errors.WithStackIf(err)
	}

	if perms&discordgo.PermissionManageMessages != 0 {
		return 0, nil
	}

	return common.MustParseInt(data.Author.ID), nil
}

var cmdTagInfo = &commands.MedliCommand{
	Name:         "Info",
	Aliases:      []string{"owner"},
	Description:  "Shows owner, uses and rank of a tag",
	RequiredArgs: 1,
	Arguments: []*commands.ArgDef{
		{Name: "name", Type: commands.Rest},
	},

	SlashCommandEnabled: true,

	RunFunc: func(data *commands.Data) (interface{}, error) {
		name, err := validateTagName(data.Args[0].Str())
		if err != nil {
			return nil, err
		}

		record, err := GetTagInfo(data.GuildID, name)
		if err != nil {
			if errors.Is(err, ErrTagNotFound) {
				return "Tag not found.", nil
			}

			return nil, err
		}

		if record.IsAlias {
			return aliasInfoEmbed(data, record), nil
		}

		return tagInfoEmbed(data, record)
	},
}

func aliasInfoEmbed(data *commands.Data, record *TagInfoRecord) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:     record.LookupName,
		Color:     commands.CategoryTool.EmbedColor,
		Author:    data.EmbedAuthor(record.LookupOwnerID),
		Timestamp: record.LookupCreatedAt.Format(time.RFC3339),
		Footer:    &discordgo.MessageEmbedFooter{Text: "Alias created at"},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Owner", Value: fmt.Sprintf("<@%d>", record.LookupOwnerID), Inline: true},
			{Name: "Original", Value: record.Name, Inline: true},
		},
	}
}

func tagInfoEmbed(data *commands.Data, record *TagInfoRecord) (*discordgo.MessageEmbed, error) {
	embed := &discordgo.MessageEmbed{
		Title:     record.Name,
		Color:     commands.CategoryTool.EmbedColor,
		Author:    data.EmbedAuthor(record.OwnerID),
		Timestamp: record.CreatedAt.Format(time.RFC3339),
		Footer:    &discordgo.MessageEmbedFooter{Text: "Tag created at"},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Owner", Value: fmt.Sprintf("<@%d>", record.OwnerID), Inline: true},
			{Name: "Uses", Value: strconv.Itoa(record.Uses), Inline: true},
		},
	}

	rank, err := TagRank(record.ID)
	if err != nil && !errors.Is(err, ErrTagNotFound) {
		return nil, err
	}

	if rank > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Rank",
			Value:  strconv.FormatInt(rank, 10),
			Inline: true,
		})
	}

	return embed, nil
}

// markdownEscaper neutralizes formatting characters, the extra backslash in
// front of < stops mentions and channel links from resolving.
var markdownEscaper = strings.NewReplacer(
	"\\", "\\\\",
	"`", "\\`",
	"*", "\\*",
	"_", "\\_",
	"~", "\\~",
	"|", "\\|",
	"<", "\\<",
)

var cmdTagRaw = &commands.MedliCommand{
	Name:         "Raw",
	Description:  "Shows the content of a tag with markdown escaped",
	RequiredArgs: 1,
	Arguments: []*commands.ArgDef{
		{Name: "name", Type: commands.Rest},
	},

	SlashCommandEnabled: true,

	RunFunc: func(data *commands.Data) (interface{}, error) {
		name, err := validateTagName(data.Args[0].Str())
		if err != nil {
			return nil, err
		}

		tag, err := GetTag(data.GuildID, name)
		if err != nil {
			if errors.Is(err, ErrTagNotFound) {
				return tagNotFoundMessage(data.GuildID, name), nil
			}

			return nil, err
		}

		return markdownEscaper.Replace(tag.Content), nil
	},
}

var cmdTagList = &commands.MedliCommand{
	Name:        "List",
	Description: "Lists the tags a member owns on this server",
	Arguments: []*commands.ArgDef{
		{Name: "member", Type: commands.UserID, Help: "Defaults to you"},
	},

	SlashCommandEnabled: true,

	RunFunc: cmdFuncTagList,
}

func cmdFuncTagList(data *commands.Data) (interface{}, error) {
	targetID := data.Args[0].Int64()
	if targetID == 0 {
		targetID = common.MustParseInt(data.Author.ID)
	}

	entries, err := UserTags(data.GuildID, targetID)
	if err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		return fmt.Sprintf("%s has no tags.", data.UserDisplayName(targetID)), nil
	}

	embeds := tagListEmbeds(entries)
	embeds[0].Author = data.EmbedAuthor(targetID)
	return embeds, nil
}

// tagListEmbeds renders entries as numbered pages. Everything past the page
// cap is cut, the last footer says so and points at the file dump.
func tagListEmbeds(entries []*TagListEntry) []*discordgo.MessageEmbed {
	total := len(entries)

	shown := entries
	truncated := false
	if total > tagsPerPage*maxTagEmbeds {
		shown = entries[:tagsPerPage*maxTagEmbeds]
		truncated = true
	}

	var embeds []*discordgo.MessageEmbed
	for start := 0; start < len(shown); start += tagsPerPage {
		end := start + tagsPerPage
		if end > len(shown) {
			end = len(shown)
		}

		var b strings.Builder
		for i := start; i < end; i++ {
			fmt.Fprintf(&b, "%d. %s (ID: %d)\n", i+1, common.CutStringShort(shown[i].Name, 32), shown[i].ID)
		}

		embeds = append(embeds, &discordgo.MessageEmbed{
			Description: b.String(),
			Color:       commands.CategoryTool.EmbedColor,
		})
	}

	pages := len(embeds)
	for i, embed := range embeds {
		footer := fmt.Sprintf("Page %d/%d (%d entries)", i+1, pages, total)
		if truncated && i == pages-1 {
			footer = fmt.Sprintf("Showing %d of %d entries, tag all --file has the full list", len(shown), total)
		}

		embed.Footer = &discordgo.MessageEmbedFooter{Text: footer}
	}

	return embeds
}

var cmdTagAll = &commands.MedliCommand{
	Name:        "All",
	Description: "Lists every tag on the server",
	LongDescription: "Lists every tag on the server.\n" +
		"Pass `--file` to get the complete list as a text file with owners and use counts.",
	Arguments: []*commands.ArgDef{
		{Name: "flags", Type: commands.Rest, Help: "--file for a text file dump"},
	},

	SlashCommandEnabled: true,

	RunFunc: func(data *commands.Data) (interface{}, error) {
		if strings.Contains(data.Args[0].Str(), "--file") {
			return tagAllFile(data)
		}

		entries, err := GuildTags(data.GuildID)
		if err != nil {
			return nil, err
		}

		if len(entries) == 0 {
			return "This server has no server-specific tags.", nil
		}

		return tagListEmbeds(entries), nil
	},
}

func tagAllFile(data *commands.Data) (interface{}, error) {
	rows, err := GuildTagsDetailed(data.GuildID)
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return "This server has no server-specific tags.", nil
	}

	return &discordgo.MessageSend{
		Files: []*discordgo.File{
			{
				Name:        "tags.txt",
				ContentType: "text/plain",
				Reader:      strings.NewReader(renderTagTable(rows)),
			},
		},
	}, nil
}

func renderTagTable(rows []*TagTableRow) string {
	tb := table.NewWriter()
	tb.AppendHeader(table.Row{"id", "name", "owner", "uses", "alias"})

	for _, row := range rows {
		tb.AppendRow(table.Row{row.ID, row.Name, row.OwnerID, row.Uses, row.IsAlias})
	}

	return tb.Render()
}

var cmdTagSearch = &commands.MedliCommand{
	Name:         "Search",
	Description:  "Searches tags on this server by name similarity",
	RequiredArgs: 1,
	Arguments: []*commands.ArgDef{
		{Name: "query", Type: commands.Rest, Help: "At least three characters"},
	},

	SlashCommandEnabled: true,

	RunFunc: func(data *commands.Data) (interface{}, error) {
		query := strings.TrimSpace(data.Args[0].Str())
		if utf8.RuneCountInString(query) < 3 {
			return nil, commands.NewUserError("The query length must be at least three characters.")
		}

		entries, err := SearchTags(data.GuildID, query)
		if err != nil {
			return nil, err
		}

		if len(entries) == 0 {
			return "No tags found.", nil
		}

		return tagListEmbeds(entries), nil
	},
}

var cmdTagClaim = &commands.MedliCommand{
	Name:        "Claim",
	Description: "Claims a tag whose owner left the server",
	LongDescription: "Claims a tag whose owner left the server.\n" +
		"Claiming through an alias only takes over the alias, the tag itself keeps its owner.",
	RequiredArgs: 1,
	Arguments: []*commands.ArgDef{
		{Name: "name", Type: commands.Rest},
	},

	SlashCommandEnabled: true,

	RunFunc: func(data *commands.Data) (interface{}, error) {
		name, err := validateTagName(data.Args[0].Str())
		if err != nil {
			return nil, err
		}

		tagID, ownerID, isAlias, err := FindTagOwnership(data.GuildID, name)
		if err != nil {
			if errors.Is(err, ErrTagNotFound) {
				return fmt.Sprintf("A tag with the name of %q does not exist.", name), nil
			}

			return nil, err
		}

		present, err := memberInGuild(data, ownerID)
		if err != nil {
			return nil, err
		}

		if present {
			return "Tag owner is still in server.", nil
		}

		err = SetTagOwner(tagID, common.MustParseInt(data.Author.ID), isAlias)
		if err != nil {
			return nil, err
		}

		return "Successfully transferred tag ownership to you.", nil
	},
}

// memberInGuild checks the state first and the api after. An unknown member
// response means they left, anything else bubbles up as a real error.
func memberInGuild(data *commands.Data, userID int64) (bool, error) {
	_, err := data.Session.State.Member(common.StrID(data.GuildID), common.StrID(userID))
	if err == nil {
		return true, nil
	}

	_, err = data.Session.GuildMember(common.StrID(data.GuildID), common.StrID(userID))
	if err == nil {
		return true, nil
	}

	if restErr, ok := err.(*discordgo.RESTError); ok && restErr.Message != nil && restErr.Message.Code == discordgo.ErrCodeUnknownMember {
		return false, nil
	}

	return false, errors.WithStackIf(err)
}

var cmdTagTransfer = &commands.MedliCommand{
	Name:         "Transfer",
	Description:  "Transfers a tag you own to another member",
	RequiredArgs: 2,
	Arguments: []*commands.ArgDef{
		{Name: "member", Type: commands.UserID},
		{Name: "name", Type: commands.Rest},
	},

	SlashCommandEnabled: true,

	RunFunc: func(data *commands.Data) (interface{}, error) {
		targetID := data.Args[0].Int64()

		name, err := validateTagName(data.Args[1].Str())
		if err != nil {
			return nil, err
		}

		target, err := data.Session.User(common.StrID(targetID))
		if err != nil {
			return nil, errors.WithStackIf(err)
		}

		if target.Bot {
			return "You cannot transfer a tag to a bot.", nil
		}

		tagID, err := GetOwnedTagID(data.GuildID, name, common.MustParseInt(data.Author.ID))
		if err != nil {
			if errors.Is(err, ErrTagNotFound) {
				return fmt.Sprintf("A tag with the name of %q does not exist or is not owned by you.", name), nil
			}

			return nil, err
		}

		err = SetTagOwner(tagID, targetID, false)
		if err != nil {
			return nil, err
		}

		return fmt.Sprintf("Successfully transferred tag ownership to %s.", target.Username), nil
	},
}

var cmdTagPurge = &commands.MedliCommand{
	Name:         "Purge",
	Description:  "Deletes every tag a member owns on this server",
	RequiredArgs: 1,
	Arguments: []*commands.ArgDef{
		{Name: "member", Type: commands.UserID},
	},

	RequireDiscordPerms: []int64{discordgo.PermissionManageMessages},
	SlashCommandEnabled: true,

	RunFunc: func(data *commands.Data) (interface{}, error) {
		targetID := data.Args[0].Int64()

		count, err := CountUserTags(data.GuildID, targetID)
		if err != nil {
			return nil, err
		}

		confirmKey := fmt.Sprintf("tags_purge_confirm:%d:%s:%d", data.GuildID, data.Author.ID, targetID)

		var confirmed bool
		err = common.RedisPool.Do(radix.Cmd(&confirmed, "EXISTS", confirmKey))
		if err != nil {
			return nil, errors.WithStackIf(err)
		}

		if !confirmed {
			if count == 0 {
				return fmt.Sprintf("%s does not have any tags to purge.", data.UserDisplayName(targetID)), nil
			}

			err = common.RedisPool.Do(radix.Cmd(nil, "SET", confirmKey, "1", "EX", "60"))
			if err != nil {
				return nil, errors.WithStackIf(err)
			}

			return fmt.Sprintf("This will delete all %d tags that belong to %s, run the command again within a minute to confirm. **This action cannot be reversed**.",
				count, data.UserDisplayName(targetID)), nil
		}

		common.RedisPool.Do(radix.Cmd(nil, "DEL", confirmKey))

		purged, err := PurgeUserTags(data.GuildID, targetID)
		if err != nil {
			return nil, err
		}

		return fmt.Sprintf("Successfully removed all %d tags that belong to %s.", purged, data.UserDisplayName(targetID)), nil
	},
}

var cmdTagStats = &commands.MedliCommand{
	Name:        "Stats",
	Description: "Tag statistics for the server or a single member",
	Arguments: []*commands.ArgDef{
		{Name: "member", Type: commands.UserID, Help: "Leave out for server wide statistics"},
	},

	SlashCommandEnabled: true,

	RunFunc: func(data *commands.Data) (interface{}, error) {
		memberID := data.Args[0].Int64()
		if memberID != 0 {
			return memberTagStats(data, memberID)
		}

		return guildTagStats(data)
	},
}

var statsMedals = []string{"🥇", "🥈", "🥉"}

// topThreeLines always renders three medal lines, the filler shows where
// fewer entries exist.
func topThreeLines(lines []string, filler string) string {
	out := make([]string, 3)
	for i := 0; i < 3; i++ {
		value := filler
		if i < len(lines) {
			value = lines[i]
		}

		out[i] = statsMedals[i] + ": " + value
	}

	return strings.Join(out, "\n")
}

func guildTagStats(data *commands.Data) (interface{}, error) {
	embed := &discordgo.MessageEmbed{
		Title:  "Tag Stats",
		Color:  commands.CategoryTool.EmbedColor,
		Footer: &discordgo.MessageEmbedFooter{Text: "These statistics are server-specific."},
	}

	topTags, err := GuildTopTags(data.GuildID)
	if err != nil {
		return nil, err
	}

	if len(topTags) == 0 {
		embed.Description = "No tag statistics here."
	} else {
		embed.Description = fmt.Sprintf("%d tags, %d tag uses", topTags[0].TotalCount, topTags[0].TotalUses)
	}

	tagLines := make([]string, 0, len(topTags))
	for _, row := range topTags {
		tagLines = append(tagLines, fmt.Sprintf("%s (%d uses)", row.Name, row.Uses))
	}

	topUsers, err := GuildTopTagUsers(data.GuildID)
	if err != nil {
		return nil, err
	}

	userLines := make([]string, 0, len(topUsers))
	for _, row := range topUsers {
		userLines = append(userLines, fmt.Sprintf("<@%s> (%d times)", row.UserID, row.Uses))
	}

	creators, err := GuildTopTagCreators(data.GuildID)
	if err != nil {
		return nil, err
	}

	creatorLines := make([]string, 0, len(creators))
	for _, row := range creators {
		creatorLines = append(creatorLines, fmt.Sprintf("<@%d> (%d tags)", row.OwnerID, row.Owned))
	}

	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Top Tags", Value: topThreeLines(tagLines, "Nothing!")},
		{Name: "Top Tag Users", Value: topThreeLines(userLines, "No one!")},
		{Name: "Top Tag Creators", Value: topThreeLines(creatorLines, "No one!")},
	}

	return embed, nil
}

func memberTagStats(data *commands.Data, memberID int64) (interface{}, error) {
	commandUses, err := MemberTagCommandUses(data.GuildID, memberID)
	if err != nil {
		return nil, err
	}

	topTags, err := MemberTopTags(data.GuildID, memberID)
	if err != nil {
		return nil, err
	}

	owned := "None"
	var uses int64
	if len(topTags) > 0 {
		owned = strconv.FormatInt(topTags[0].TotalCount, 10)
		uses = topTags[0].TotalUses
	}

	embed := &discordgo.MessageEmbed{
		Color:  commands.CategoryTool.EmbedColor,
		Author: data.EmbedAuthor(memberID),
		Footer: &discordgo.MessageEmbedFooter{Text: "These statistics are server-specific."},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Owned Tags", Value: owned, Inline: true},
			{Name: "Owned Tag Uses", Value: strconv.FormatInt(uses, 10), Inline: true},
			{Name: "Tag Command Uses", Value: strconv.FormatInt(commandUses, 10), Inline: true},
		},
	}

	for i := 0; i < 3; i++ {
		value := "Nothing!"
		if i < len(topTags) {
			value = fmt.Sprintf("%s (%d uses)", topTags[i].Name, topTags[i].Uses)
		}

		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   statsMedals[i] + " Owned Tag",
			Value:  value,
			Inline: true,
		})
	}

	return embed, nil
}

// validateTagName cleans a tag name and rejects ones that can't work,
// formatting characters are stripped so names always render literally. The
// original casing is kept, matching happens lowercased.
func validateTagName(name string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '`', '*', '_', '~', '|':
			return -1
		}

		return r
	}, name)

	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return "", commands.NewUserError("Missing tag name.")
	}

	if utf8.RuneCountInString(cleaned) > maxTagNameLength {
		return "", commands.NewUserError("Tag name is a maximum of 100 characters.")
	}

	firstWord := strings.ToLower(cleaned)
	if idx := strings.IndexByte(firstWord, ' '); idx != -1 {
		firstWord = firstWord[:idx]
	}

	if isReservedTagWord(firstWord) {
		return "", commands.NewUserError("This tag name starts with a reserved word.")
	}

	return cleaned, nil
}

// isReservedTagWord reports whether the word collides with a tag subcommand,
// a name starting with one would be unreachable.
func isReservedTagWord(word string) bool {
	for _, sub := range cmdTag.Subcommands {
		if strings.EqualFold(sub.Name, word) {
			return true
		}

		for _, alias := range sub.Aliases {
			if strings.EqualFold(alias, word) {
				return true
			}
		}
	}

	return false
}
