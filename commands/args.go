package commands

import (
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/lurelin/medli/common"
)

type ArgType int

const (
	// String is a single word, or a quoted sequence of words
	String ArgType = iota
	// Int is a whole number
	Int
	// UserID accepts a user mention or a raw id
	UserID
	// ChannelID accepts a channel mention or a raw id
	ChannelID
	// Duration is a compact duration like 1d3h5m
	Duration
	// Rest swallows the remaining input, has to be the last argument
	Rest
)

type ArgDef struct {
	Name    string
	Type    ArgType
	Help    string
	Default interface{}
}

func (def *ArgDef) NewParsed() *ParsedArg {
	return &ParsedArg{
		Def:   def,
		Value: def.Default,
	}
}

type ParsedArg struct {
	Def   *ArgDef
	Value interface{}
}

func (p *ParsedArg) Str() string {
	if p == nil || p.Value == nil {
		return ""
	}

	switch t := p.Value.(type) {
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	}

	return ""
}

func (p *ParsedArg) Int() int {
	return int(p.Int64())
}

func (p *ParsedArg) Int64() int64 {
	if p == nil || p.Value == nil {
		return 0
	}

	switch t := p.Value.(type) {
	case int64:
		return t
	case string:
		parsed, _ := strconv.ParseInt(t, 10, 64)
		return parsed
	}

	return 0
}

func (p *ParsedArg) Duration() time.Duration {
	if p == nil || p.Value == nil {
		return 0
	}

	if d, ok := p.Value.(time.Duration); ok {
		return d
	}

	return 0
}

// SplitArgs splits the input on spaces, keeping double quoted sections
// together.
func SplitArgs(in string) []string {
	var out []string

	var cur strings.Builder
	inQuotes := false
	for _, r := range in {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ' ' && !inQuotes:
			if cur.Len() > 0 {
				out = append(out, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}

	if cur.Len() > 0 {
		out = append(out, cur.String())
	}

	return out
}

func parseArgToken(def *ArgDef, token string) (interface{}, bool) {
	switch def.Type {
	case String, Rest:
		return token, true
	case Int:
		parsed, err := strconv.ParseInt(token, 10, 64)
		if err != nil {
			return nil, false
		}
		return parsed, true
	case UserID:
		id, ok := parseMentionOrID(token, "<@")
		return id, ok
	case ChannelID:
		id, ok := parseMentionOrID(token, "<#")
		return id, ok
	case Duration:
		parsed, err := common.ParseDuration(token)
		if err != nil {
			return nil, false
		}
		return parsed, true
	}

	return nil, false
}

func parseMentionOrID(token string, mentionPrefix string) (int64, bool) {
	if strings.HasPrefix(token, mentionPrefix) && strings.HasSuffix(token, ">") {
		token = strings.TrimSuffix(strings.TrimPrefix(token, mentionPrefix), ">")
		token = strings.TrimPrefix(token, "!")
	}

	id, err := strconv.ParseInt(token, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}

	return id, true
}

// parseArgs fills the command's argument defs from the raw input following
// the command name. The returned slice always has the same length as
// yc.Arguments, unfilled optional arguments keep their default value.
func (yc *MedliCommand) parseArgs(raw string) ([]*ParsedArg, error) {
	parsed := make([]*ParsedArg, len(yc.Arguments))
	for i, def := range yc.Arguments {
		parsed[i] = def.NewParsed()
	}

	if len(yc.Arguments) == 0 {
		return parsed, nil
	}

	tokens := yc.splitTokens(raw)

	if len(yc.ArgumentCombos) > 0 {
		if yc.parseCombos(parsed, tokens) {
			return parsed, nil
		}

		return nil, NewUserError("Couldn't understand the arguments, usage:\n```\n" + yc.UsageString() + "\n```")
	}

	if len(tokens) < yc.RequiredArgs {
		return nil, NewUserError("Too few arguments, usage:\n```\n" + yc.UsageString() + "\n```")
	}

	for i, def := range yc.Arguments {
		if i >= len(tokens) {
			break
		}

		token := tokens[i]
		if def.Type == Rest {
			token = strings.Join(tokens[i:], " ")
		}

		v, ok := parseArgToken(def, token)
		if !ok {
			return nil, NewUserError("Couldn't parse `" + common.CutStringShort(token, 50) + "` as " + def.Name + ", usage:\n```\n" + yc.UsageString() + "\n```")
		}

		parsed[i].Value = v
	}

	return parsed, nil
}

// splitTokens splits raw input but keeps a trailing Rest argument in one
// piece, quotes only matter for the leading args.
func (yc *MedliCommand) splitTokens(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	restIndex := -1
	for i, def := range yc.Arguments {
		if def.Type == Rest {
			restIndex = i
			break
		}
	}

	// combos lay out their own token positions
	if restIndex == -1 || len(yc.ArgumentCombos) > 0 {
		return SplitArgs(raw)
	}

	head, rest := splitArgsN(raw, restIndex)
	if rest != "" {
		head = append(head, rest)
	}

	return head
}

// splitArgsN pops up to n quote aware tokens off the front of in, returning
// them along with the untouched remainder.
func splitArgsN(in string, n int) ([]string, string) {
	var out []string
	var cur strings.Builder
	inQuotes := false

	for i, r := range in {
		if len(out) >= n {
			return out, strings.TrimSpace(in[i:])
		}

		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ' ' && !inQuotes:
			if cur.Len() > 0 {
				out = append(out, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}

	if cur.Len() > 0 {
		out = append(out, cur.String())
	}

	return out, ""
}

// parseCombos tries each combo in order, the first one where every token
// parses wins.
func (yc *MedliCommand) parseCombos(parsed []*ParsedArg, tokens []string) bool {
OUTER:
	for _, combo := range yc.ArgumentCombos {
		if len(tokens) < len(combo) {
			continue
		}

		if len(tokens) > len(combo) {
			// only allowed if the combo ends in a rest arg
			if len(combo) == 0 || yc.Arguments[combo[len(combo)-1]].Type != Rest {
				continue
			}
		}

		values := make([]interface{}, len(combo))
		for i, argIndex := range combo {
			def := yc.Arguments[argIndex]

			token := tokens[i]
			if def.Type == Rest {
				token = strings.Join(tokens[i:], " ")
			}

			v, ok := parseArgToken(def, token)
			if !ok {
				continue OUTER
			}

			values[i] = v
		}

		for i, argIndex := range combo {
			parsed[argIndex].Value = values[i]
		}

		return true
	}

	return false
}

// slashOptionType maps an arg type to the discord application command option
// type it's exposed as.
func slashOptionType(t ArgType) discordgo.ApplicationCommandOptionType {
	switch t {
	case Int:
		return discordgo.ApplicationCommandOptionInteger
	case UserID:
		return discordgo.ApplicationCommandOptionUser
	case ChannelID:
		return discordgo.ApplicationCommandOptionChannel
	default:
		return discordgo.ApplicationCommandOptionString
	}
}

// parseSlashOption converts an interaction option into the arg def's value
// space.
func parseSlashOption(def *ArgDef, opt *discordgo.ApplicationCommandInteractionDataOption) (interface{}, bool) {
	switch def.Type {
	case String, Rest:
		return opt.StringValue(), true
	case Int:
		return opt.IntValue(), true
	case UserID:
		u := opt.UserValue(nil)
		if u == nil {
			return nil, false
		}
		return common.MustParseInt(u.ID), true
	case ChannelID:
		c := opt.ChannelValue(nil)
		if c == nil {
			return nil, false
		}
		return common.MustParseInt(c.ID), true
	case Duration:
		parsed, err := common.ParseDuration(opt.StringValue())
		if err != nil {
			return nil, false
		}
		return parsed, true
	}

	return nil, false
}
