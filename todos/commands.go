package todos

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/lurelin/medli/commands"
	"github.com/lurelin/medli/common"
	"github.com/mediocregopher/radix/v3"
)

var _ commands.CommandProvider = (*Plugin)(nil)

func (p *Plugin) AddCommands() {
	commands.AddRootCommands(p, cmdTodo, cmdTodos)
}

var cmdTodo = &commands.MedliCommand{
	Name:        "Todo",
	Description: "Adds something to your todo list",
	LongDescription: "Adds something to your todo list.\n" +
		"Your todos follow you across servers and DMs, see the subcommands for managing them.",
	CmdCategory: commands.CategoryTool,
	RunInDM:     true,
	Arguments: []*commands.ArgDef{
		{Name: "content", Type: commands.Rest, Help: "The thing to do later"},
	},

	SlashCommandEnabled: true,
	SlashFallbackSub:    "add",

	RunFunc: cmdFuncTodoAdd,

	Subcommands: []*commands.MedliCommand{
		{
			Name:        "List",
			Description: "Lists your todos",
			Cooldown:    15,
			RunInDM:     true,

			SlashCommandEnabled: true,
			IsResponseEphemeral: true,

			RunFunc: cmdFuncTodoList,
		},
		{
			Name:         "Edit",
			Description:  "Rewrites one of your todos",
			RequiredArgs: 2,
			Arguments: []*commands.ArgDef{
				{Name: "id", Type: commands.Int, Help: "The todo to rewrite"},
				{Name: "content", Type: commands.Rest, Help: "The new wording"},
			},
			RunInDM: true,

			SlashCommandEnabled: true,

			RunFunc: cmdFuncTodoEdit,
		},
		{
			Name:         "Info",
			Description:  "Shows the full details of one of your todos",
			RequiredArgs: 1,
			Arguments: []*commands.ArgDef{
				{Name: "id", Type: commands.Int, Help: "The todo to show"},
			},
			RunInDM: true,

			SlashCommandEnabled: true,
			IsResponseEphemeral: true,

			RunFunc: cmdFuncTodoInfo,
		},
		{
			Name:         "Delete",
			Aliases:      []string{"remove", "bin", "done"},
			Description:  "Deletes todos by their ids, since you did them already",
			RequiredArgs: 1,
			Arguments: []*commands.ArgDef{
				{Name: "ids", Type: commands.Rest, Help: "The todos to delete"},
			},
			RunInDM: true,

			SlashCommandEnabled: true,

			RunFunc: cmdFuncTodoDelete,
		},
		{
			Name:        "Clear",
			Description: "Wipes your whole todo list",
			Cooldown:    60,
			RunInDM:     true,

			SlashCommandEnabled: true,

			RunFunc: cmdFuncTodoClear,
		},
	},
}

var cmdTodos = &commands.MedliCommand{
	Name:        "Todos",
	Description: "Lists your todos",
	CmdCategory: commands.CategoryTool,
	RunInDM:     true,
	Cooldown:    15,

	SlashCommandEnabled: true,
	IsResponseEphemeral: true,

	RunFunc: cmdFuncTodoList,
}

func cmdFuncTodoAdd(data *commands.Data) (interface{}, error) {
	content := strings.TrimSpace(data.Args[0].Str())
	if content == "" {
		return "Nothing to do? Add a todo with `todo <content>`, see them with `todo list`.\n" +
			"Subcommands: `edit <id> <content>`, `info <id>`, `delete <ids...>`, `clear`.", nil
	}

	todo, err := AddTodo(common.MustParseInt(data.Author.ID), content, triggerJumpURL(data))
	if err != nil {
		return nil, err
	}

	return fmt.Sprintf("✅: created todo #__`%d`__ for you!", todo.ID), nil
}

func cmdFuncTodoList(data *commands.Data) (interface{}, error) {
	todos, err := GetUserTodos(common.MustParseInt(data.Author.ID))
	if err != nil {
		return nil, err
	}

	if len(todos) == 0 {
		return "You appear to have no active todos, look at how productive you are.", nil
	}

	return todoListEmbeds(todos), nil
}

func cmdFuncTodoEdit(data *commands.Data) (interface{}, error) {
	id := data.Args[0].Int64()
	content := strings.TrimSpace(data.Args[1].Str())

	updated, err := UpdateTodo(common.MustParseInt(data.Author.ID), id, content, triggerJumpURL(data))
	if err != nil {
		return nil, err
	}

	if !updated {
		return "That doesn't seem to be your todo, or the ID is incorrect.", nil
	}

	return fmt.Sprintf("Neat. So todo #__`%d`__ has been updated for you. Go be productive!", id), nil
}

func cmdFuncTodoInfo(data *commands.Data) (interface{}, error) {
	ownerID := common.MustParseInt(data.Author.ID)
	todo, err := GetTodo(ownerID, data.Args[0].Int64())
	if err != nil {
		return nil, err
	}

	if todo == nil {
		return "No todo of yours with that ID. Is it correct?", nil
	}

	description := todo.Content
	if todo.JumpURL != "" {
		description += fmt.Sprintf("\n[Message link!](%s)", todo.JumpURL)
	}

	return &discordgo.MessageEmbed{
		Title:       "Extra todo info",
		Description: description,
		Timestamp:   todo.CreatedAt.Format(time.RFC3339),
		Author:      data.EmbedAuthor(ownerID),
	}, nil
}

func cmdFuncTodoDelete(data *commands.Data) (interface{}, error) {
	ids := parseIDList(data.Args[0].Str())
	if len(ids) == 0 {
		return "You must provide some numbers...", nil
	}

	err := DeleteTodos(common.MustParseInt(data.Author.ID), ids)
	if err != nil {
		return nil, err
	}

	word := "todo"
	if len(ids) > 1 {
		word = "todos"
	}

	return fmt.Sprintf("Okay well done. I removed the %s %s for you.", formatTodoIDs(ids), word), nil
}

func clearConfirmKey(ownerID int64) string {
	return fmt.Sprintf("todos_clear_confirm:%d", ownerID)
}

func cmdFuncTodoClear(data *commands.Data) (interface{}, error) {
	ownerID := common.MustParseInt(data.Author.ID)

	var confirmed bool
	err := common.RedisPool.Do(radix.Cmd(&confirmed, "EXISTS", clearConfirmKey(ownerID)))
	if err != nil {
		return nil, err
	}

	if !confirmed {
		count, err := CountUserTodos(ownerID)
		if err != nil {
			return nil, err
		}

		if count == 0 {
			return "You appear to have no active todos, look at how productive you are.", nil
		}

		err = common.RedisPool.Do(radix.Cmd(nil, "SET", clearConfirmKey(ownerID), "1", "EX", "60"))
		if err != nil {
			return nil, err
		}

		return fmt.Sprintf("This will wipe all %d of your todos from my memory. Are you sure? Run the command again within a minute to confirm.", count), nil
	}

	common.RedisPool.Do(radix.Cmd(nil, "DEL", clearConfirmKey(ownerID)))

	err = ClearTodos(ownerID)
	if err != nil {
		return nil, err
	}

	return "✅ Wiped your todos.", nil
}

const todosPerPage = 10

func todoListEmbeds(todos []*Todo) []*discordgo.MessageEmbed {
	var embeds []*discordgo.MessageEmbed
	for start := 0; start < len(todos); start += todosPerPage {
		end := start + todosPerPage
		if end > len(todos) {
			end = len(todos)
		}

		lines := make([]string, 0, end-start)
		for _, todo := range todos[start:end] {
			lines = append(lines, todoLine(todo))
		}

		embeds = append(embeds, &discordgo.MessageEmbed{
			Description: strings.Join(lines, "\n"),
			Footer:      &discordgo.MessageEmbedFooter{Text: "Use todo info ## for more details."},
		})
	}

	return embeds
}

func todoLine(todo *Todo) string {
	id := fmt.Sprintf("__`%d`__", todo.ID)
	if todo.JumpURL != "" {
		id = fmt.Sprintf("[__`%d`__](%s)", todo.ID, todo.JumpURL)
	}

	return fmt.Sprintf("%s: <t:%d:R> :: %s", id, todo.CreatedAt.Unix(), shortenContent(todo.Content, 100))
}

// shortenContent collapses runs of whitespace then clips to the listing
// width.
func shortenContent(content string, maxLen int) string {
	return common.CutStringShort(strings.Join(strings.Fields(content), " "), maxLen)
}

func formatTodoIDs(ids []int64) string {
	formatted := make([]string, 0, len(ids))
	for _, id := range ids {
		formatted = append(formatted, fmt.Sprintf("__**`#%d`**__", id))
	}

	return strings.Join(formatted, ", ")
}

func parseIDList(input string) []int64 {
	var ids []int64
	for _, token := range strings.Fields(input) {
		id, err := strconv.ParseInt(token, 10, 64)
		if err == nil && id > 0 {
			ids = append(ids, id)
		}
	}

	return ids
}

func triggerJumpURL(data *commands.Data) string {
	if data.TriggerType != commands.TriggerMessage || data.TraditionalTriggerData == nil {
		return ""
	}

	guildPart := "@me"
	if data.GuildID != 0 {
		guildPart = strconv.FormatInt(data.GuildID, 10)
	}

	return fmt.Sprintf("https://discord.com/channels/%s/%d/%s", guildPart, data.ChannelID, data.TraditionalTriggerData.Message.ID)
}
