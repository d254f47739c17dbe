package run

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/lurelin/medli/commands"
	"github.com/lurelin/medli/common/config"
)

// GenCommandDocs writes markdown docs for every registered command to stdout.
func GenCommandDocs() {
	var out bytes.Buffer

	out.WriteString("## Legend\n\n")
	out.WriteString("`<required arg>` `[optional arg]`\n\n")
	out.WriteString("Text arguments containing multiple words need to be put in quotes (\"arg here\") if it's not the last argument and there's more than 1 text argument.\n\n")

	byCategory := make(map[*commands.Category][]*commands.MedliCommand)
	var categories []*commands.Category
	for _, cmd := range commands.AllCommands() {
		if _, ok := byCategory[cmd.CmdCategory]; !ok {
			categories = append(categories, cmd.CmdCategory)
		}

		byCategory[cmd.CmdCategory] = append(byCategory[cmd.CmdCategory], cmd)
	}

	for _, cat := range categories {
		out.WriteString("## " + cat.Name + " " + cat.Emoji + "\n\n")

		for _, cmd := range byCategory[cat] {
			out.WriteString("### " + cmd.Name + "\n\n")
			if len(cmd.Aliases) > 0 {
				out.WriteString("**Aliases:** " + strings.Join(cmd.Aliases, "/") + "\n\n")
			}

			desc := cmd.LongDescription
			if desc == "" {
				desc = cmd.Description
			}

			out.WriteString(desc)
			out.WriteString("\n\n**Usage:**\n")
			out.WriteString("```\n" + cmd.UsageString() + "\n```\n\n")
		}
	}

	os.Stdout.Write(out.Bytes())
}

// GenConfigDocs writes docs for every registered config option to stdout.
func GenConfigDocs() {
	keys := make([]string, 0, len(config.Singleton.Options))
	for k := range config.Singleton.Options {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	var out bytes.Buffer

	for _, k := range keys {
		v := config.Singleton.Options[k]

		out.WriteString("**" + v.Description + "**")

		typeStr := ""
		def := ""
		switch t := v.DefaultValue.(type) {
		case string:
			typeStr = "string"
			def = t
		case bool:
			typeStr = "true/false"
			def = "false"
			if t {
				def = "true"
			}
		case int, uint, float32, float64, int8, int16, int32, int64, uint8, uint16, uint32, uint64:
			typeStr = "number"
			def = fmt.Sprint(t)
		}

		if typeStr != "" {
			out.WriteString(" (" + typeStr)
			if def != "" {
				out.WriteString(", default: " + def)
			}
			out.WriteString(")")
		}
		out.WriteString("\n")

		properKey := strings.ToUpper(strings.ReplaceAll(v.Name, ".", "_"))
		out.WriteString(properKey + "\n\n")
	}

	os.Stdout.Write(out.Bytes())
}
