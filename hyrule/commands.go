package hyrule

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/lurelin/medli/commands"
	"github.com/lurelin/medli/common/fuzzy"
)

const hyruleGold = 0xcbb36a

var _ commands.CommandProvider = (*Plugin)(nil)

func (p *Plugin) AddCommands() {
	commands.AddRootCommands(p, cmdArmor, cmdArmorset, cmdMaterial)
}

var cmdArmor = &commands.MedliCommand{
	Name:         "Armor",
	Aliases:      []string{"armour"},
	Description:  "Shows the upgrade path of a Breath of the Wild armor piece",
	CmdCategory:  commands.CategoryFun,
	RunInDM:      true,
	RequiredArgs: 1,
	Arguments: []*commands.ArgDef{
		{Name: "name", Type: commands.Rest, Help: "The armor piece, typos allowed"},
	},

	SlashCommandEnabled: true,

	RunFunc: cmdFuncArmor,
}

var cmdArmorset = &commands.MedliCommand{
	Name:         "Armorset",
	Aliases:      []string{"armourset"},
	Description:  "Lists the pieces of a Breath of the Wild armor set",
	CmdCategory:  commands.CategoryFun,
	RunInDM:      true,
	RequiredArgs: 1,
	Arguments: []*commands.ArgDef{
		{Name: "set", Type: commands.Rest, Help: "The armor set, typos allowed"},
	},

	SlashCommandEnabled: true,

	RunFunc: cmdFuncArmorset,
}

var cmdMaterial = &commands.MedliCommand{
	Name:         "Material",
	Description:  "Shows which Breath of the Wild armor upgrades need a material",
	CmdCategory:  commands.CategoryFun,
	RunInDM:      true,
	RequiredArgs: 1,
	Arguments: []*commands.ArgDef{
		{Name: "name", Type: commands.Rest, Help: "The material, typos allowed"},
	},

	SlashCommandEnabled: true,

	RunFunc: cmdFuncMaterial,
}

func cmdFuncArmor(data *commands.Data) (interface{}, error) {
	input := data.Args[0].Str()

	armor, err := FindArmor(input)
	if err != nil {
		return nil, err
	}

	if armor == nil {
		names, err := ArmorNames()
		if err != nil {
			return nil, err
		}

		match, suggestions := resolveName(input, names)
		if match == "" {
			return missResponse("an armor piece", input, suggestions), nil
		}

		armor, err = FindArmor(match)
		if err != nil {
			return nil, err
		}
	}

	upgrades, err := ArmorUpgrades(armor.ID)
	if err != nil {
		return nil, err
	}

	return armorEmbed(armor, upgrades), nil
}

func cmdFuncArmorset(data *commands.Data) (interface{}, error) {
	input := data.Args[0].Str()

	pieces, err := SetPieces(input)
	if err != nil {
		return nil, err
	}

	if len(pieces) == 0 {
		names, err := SetNames()
		if err != nil {
			return nil, err
		}

		match, suggestions := resolveName(input, names)
		if match == "" {
			return missResponse("an armor set", input, suggestions), nil
		}

		pieces, err = SetPieces(match)
		if err != nil {
			return nil, err
		}
	}

	maxed, err := MaxedDefense(pieces[0].SetName)
	if err != nil {
		return nil, err
	}

	return setEmbed(pieces, maxed), nil
}

func cmdFuncMaterial(data *commands.Data) (interface{}, error) {
	input := data.Args[0].Str()

	uses, err := MaterialUses(input)
	if err != nil {
		return nil, err
	}

	if len(uses) == 0 {
		names, err := MaterialNames()
		if err != nil {
			return nil, err
		}

		match, suggestions := resolveName(input, names)
		if match == "" {
			return missResponse("a material", input, suggestions), nil
		}

		uses, err = MaterialUses(match)
		if err != nil {
			return nil, err
		}
	}

	return materialEmbed(uses), nil
}

// resolveName fuzzy matches input against the catalog, accepting a lone or
// clearly best hit and returning suggestions otherwise.
func resolveName(input string, names []string) (match string, suggestions []string) {
	matches := fuzzy.Extract(input, names, fuzzy.AdaptiveThreshold, false, 5)
	if len(matches) == 0 {
		return "", nil
	}

	if len(matches) == 1 || matches[0].Score-matches[1].Score >= 0.05 {
		return matches[0].Value, nil
	}

	for _, m := range matches {
		suggestions = append(suggestions, m.Value)
	}

	return "", suggestions
}

func missResponse(kind, input string, suggestions []string) string {
	response := fmt.Sprintf("I don't know %s called %q.", kind, input)
	if len(suggestions) > 0 {
		response += " Did you mean: " + strings.Join(suggestions, ", ") + "?"
	}

	return response
}

func armorEmbed(armor *Armor, upgrades []*Upgrade) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       armor.Name,
		Description: fmt.Sprintf("%s piece of the %s set. Base defense %d.", armor.BodyPart, armor.SetName, armor.BaseDefense),
		Color:       hyruleGold,
	}

	for _, upgrade := range upgrades {
		lines := make([]string, 0, len(upgrade.Materials)+1)
		lines = append(lines, fmt.Sprintf("Defense %d", upgrade.Defense))
		for _, material := range upgrade.Materials {
			lines = append(lines, fmt.Sprintf("%d× %s", material.Quantity, material.Name))
		}

		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   strings.Repeat("★", upgrade.Tier),
			Value:  strings.Join(lines, "\n"),
			Inline: true,
		})
	}

	return embed
}

func setEmbed(pieces []*Armor, maxedDefense int) *discordgo.MessageEmbed {
	lines := make([]string, 0, len(pieces))
	for _, piece := range pieces {
		lines = append(lines, fmt.Sprintf("**%s**: %s (base defense %d)", piece.BodyPart, piece.Name, piece.BaseDefense))
	}

	return &discordgo.MessageEmbed{
		Title:       pieces[0].SetName + " set",
		Description: strings.Join(lines, "\n"),
		Color:       hyruleGold,
		Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Fully upgraded the set totals %d defense.", maxedDefense)},
	}
}

func materialEmbed(uses []*MaterialUse) *discordgo.MessageEmbed {
	lines := make([]string, 0, len(uses))
	total := 0
	for _, use := range uses {
		total += use.Quantity
		lines = append(lines, fmt.Sprintf("%s %s (%d×)", use.ArmorName, strings.Repeat("★", use.Tier), use.Quantity))
	}

	word := "upgrades"
	if len(uses) == 1 {
		word = "upgrade"
	}

	return &discordgo.MessageEmbed{
		Title:       uses[0].Material,
		Description: strings.Join(lines, "\n"),
		Color:       hyruleGold,
		Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Needed for %d %s, %d in total.", len(uses), word, total)},
	}
}
