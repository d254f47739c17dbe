package synth

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"emperror.dev/errors"
	"github.com/bwmarrin/discordgo"
	"github.com/lurelin/medli/commands"
)

const maxSynthLength = 280

var _ commands.CommandProvider = (*Plugin)(nil)

func (p *Plugin) AddCommands() {
	commands.AddRootCommands(p, cmdSynth, cmdSynthVoices)
}

var cmdSynth = &commands.MedliCommand{
	Name:        "Synth",
	Description: "Synthesizes Japanese text into a voice clip",
	LongDescription: "Synthesizes Japanese text into a voice clip.\n" +
		"Engine ids come from the `synthvoices` listing, the reply includes the kana reading the engine settled on.",
	CmdCategory:  commands.CategoryFun,
	RunInDM:      true,
	Cooldown:     10,
	RequiredArgs: 2,
	Arguments: []*commands.ArgDef{
		{Name: "engine", Type: commands.Int, Help: "Voice engine id, see synthvoices"},
		{Name: "text", Type: commands.Rest, Help: "What to say"},
	},

	SlashCommandEnabled: true,

	RunFunc: cmdFuncSynth,
}

var cmdSynthVoices = &commands.MedliCommand{
	Name:        "Synthvoices",
	Aliases:     []string{"synthengines"},
	Description: "Lists the available speech synthesis voices",
	CmdCategory: commands.CategoryFun,
	RunInDM:     true,
	Cooldown:    10,

	SlashCommandEnabled: true,
	IsResponseEphemeral: true,

	RunFunc: cmdFuncSynthVoices,
}

func cmdFuncSynth(data *commands.Data) (interface{}, error) {
	engineID := int(data.Args[0].Int64())
	text := data.Args[1].Str()

	if utf8.RuneCountInString(text) > maxSynthLength {
		return fmt.Sprintf("That's too long to synthesize, keep it under %d characters.", maxSynthLength), nil
	}

	engines, err := Engines(data.Context())
	if err != nil {
		return synthErrorResponse(err)
	}

	if findEngine(engines, engineID) == nil {
		return fmt.Sprintf("No voice engine `%d`, check `synthvoices` for the list.", engineID), nil
	}

	wav, kana, err := Synthesize(data.Context(), engineID, text)
	if err != nil {
		return synthErrorResponse(err)
	}

	send := &discordgo.MessageSend{
		Files: []*discordgo.File{{
			Name:        "synth.wav",
			ContentType: "audio/wav",
			Reader:      bytes.NewReader(wav),
		}},
	}

	if kana != "" {
		send.Content = "`" + kana + "`"
	}

	return send, nil
}

func cmdFuncSynthVoices(data *commands.Data) (interface{}, error) {
	engines, err := Engines(data.Context())
	if err != nil {
		return synthErrorResponse(err)
	}

	if len(engines) == 0 {
		return "The synthesis engine reports no voices.", nil
	}

	lines := make([]string, 0, len(engines))
	for _, engine := range engines {
		lines = append(lines, engine.String())
	}

	return voiceEmbeds(lines), nil
}

func synthErrorResponse(err error) (interface{}, error) {
	if errors.Is(err, ErrDisabled) {
		return "Speech synthesis is not set up here.", nil
	}

	return nil, err
}

// voiceEmbeds splits the listing across embeds, descriptions cap out well
// before the 4096 character limit.
func voiceEmbeds(lines []string) []*discordgo.MessageEmbed {
	var embeds []*discordgo.MessageEmbed
	var current []string
	size := 0

	flush := func() {
		if len(current) == 0 {
			return
		}

		embeds = append(embeds, &discordgo.MessageEmbed{
			Title:       "Synth voices",
			Description: strings.Join(current, "\n"),
		})
		current = nil
		size = 0
	}

	for _, line := range lines {
		if size+len(line)+1 > 4000 {
			flush()
		}

		current = append(current, line)
		size += len(line) + 1
	}
	flush()

	return embeds
}
