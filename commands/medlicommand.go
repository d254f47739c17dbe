package commands

import (
	"context"
	"strconv"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/bwmarrin/discordgo"
	"github.com/lurelin/medli/common"
	"github.com/mediocregopher/radix/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
)

var (
	RKeyCommandCooldown      = func(uID int64, cmd string) string { return "cmd_cd:" + common.StrID(uID) + ":" + cmd }
	RKeyCommandCooldownGuild = func(gID int64, cmd string) string { return "cmd_guild_cd:" + common.StrID(gID) + ":" + cmd }

	CommandExecTimeout = time.Minute
)

// MedliCommand is a command definition, the same struct is used for top level
// commands and subcommands.
type MedliCommand struct {
	Name            string   // Name of command, what its called from
	Aliases         []string // Aliases which it can also be called from
	Description     string   // Description shown in the overall help
	LongDescription string   // Longer description shown when this command is targetted

	Arguments      []*ArgDef // Argument definitions, data.Args is always the same size as this slice
	RequiredArgs   int       // Number of required arguments, ignored if combos is specified
	ArgumentCombos [][]int   // Argument layouts to try in order, overrides RequiredArgs if specified

	Cooldown           int // Cooldown in seconds before a user can run it again
	GuildScopeCooldown int // Cooldown in seconds before anyone on the server can run it again

	CmdCategory *Category

	RunInDM      bool // Set to enable this command in DMs
	HideFromHelp bool // Set to hide from help

	RequireDiscordPerms []int64 // The user needs one of these permission sets to run the command
	OwnerOnly           bool    // Restricted to the bot owner, silently ignored for everyone else

	SlashCommandEnabled bool   // Set to expose this command as a slash command
	SlashFallbackSub    string // Subcommand name carrying the group's own run func in the slash version
	IsResponseEphemeral bool   // Slash responses are only shown to the invoker

	Subcommands []*MedliCommand

	// RunFunc is invoked once the command is parsed, the response can be a
	// string, *discordgo.MessageEmbed, []*discordgo.MessageEmbed or
	// *discordgo.MessageSend
	RunFunc func(data *Data) (interface{}, error)

	Plugin common.Plugin

	parent *MedliCommand
}

func (yc *MedliCommand) bindSubcommands() {
	for _, sub := range yc.Subcommands {
		sub.parent = yc
		sub.Plugin = yc.Plugin
		if sub.CmdCategory == nil {
			sub.CmdCategory = yc.CmdCategory
		}
		sub.bindSubcommands()
	}
}

func (yc *MedliCommand) matchesName(name string) bool {
	if strings.EqualFold(yc.Name, name) {
		return true
	}

	for _, alias := range yc.Aliases {
		if strings.EqualFold(alias, name) {
			return true
		}
	}

	return false
}

func (yc *MedliCommand) findSubcommand(name string) *MedliCommand {
	for _, sub := range yc.Subcommands {
		if sub.matchesName(name) {
			return sub
		}
	}

	return nil
}

// FullName is the space separated path to this command, "tag create" style.
func (yc *MedliCommand) FullName() string {
	if yc.parent == nil {
		return yc.Name
	}

	return yc.parent.FullName() + " " + yc.Name
}

// namePrefixes returns the accumulated name paths checked against the
// command_config rules, for "tag create" that's ["tag", "tag create"].
func (yc *MedliCommand) namePrefixes() []string {
	if yc.parent == nil {
		return []string{strings.ToLower(yc.Name)}
	}

	parents := yc.parent.namePrefixes()
	return append(parents, parents[len(parents)-1]+" "+strings.ToLower(yc.Name))
}

// UsageString renders the usage lines for this command and its subcommands.
func (yc *MedliCommand) UsageString() string {
	var lines []string
	yc.usageLines(&lines)
	return strings.Join(lines, "\n")
}

func (yc *MedliCommand) usageLines(out *[]string) {
	if yc.RunFunc != nil {
		line := strings.ToLower(yc.FullName())
		for i, arg := range yc.Arguments {
			if i < yc.RequiredArgs && len(yc.ArgumentCombos) == 0 {
				line += " <" + arg.Name + ">"
			} else {
				line += " [" + arg.Name + "]"
			}
		}

		*out = append(*out, line)
	}

	for _, sub := range yc.Subcommands {
		sub.usageLines(out)
	}
}

// Source tells a run func whether it was triggered on a server or in a DM.
type Source int

const (
	SourceGuild Source = iota
	SourceDM
)

type TriggerType int

const (
	TriggerMessage TriggerType = iota
	TriggerSlash
)

type TraditionalTriggerData struct {
	Message *discordgo.Message
	Prefix  string
}

type SlashTriggerData struct {
	Interaction *discordgo.InteractionCreate
	Member      *discordgo.Member
}

// Data is handed to run funcs, built the same way for message and slash
// triggers.
type Data struct {
	Cmd  *MedliCommand
	Args []*ParsedArg

	GuildID   int64
	ChannelID int64
	Author    *discordgo.User

	Source      Source
	TriggerType TriggerType

	TraditionalTriggerData *TraditionalTriggerData
	SlashTriggerData       *SlashTriggerData

	Session *discordgo.Session

	ctx context.Context
}

func (d *Data) Context() context.Context {
	if d.ctx == nil {
		return context.Background()
	}

	return d.ctx
}

func (d *Data) WithContext(ctx context.Context) *Data {
	cop := *d
	cop.ctx = ctx
	return &cop
}

// Switch returns the parsed arg with the given def name, nil if the command
// has no such argument.
func (d *Data) Switch(name string) *ParsedArg {
	for _, v := range d.Args {
		if v.Def.Name == name {
			return v
		}
	}

	return nil
}

// MemberPermissions returns the invoking member's permissions in the channel
// the command ran in.
func (d *Data) MemberPermissions() (int64, error) {
	if d.TriggerType == TriggerSlash && d.SlashTriggerData.Member != nil {
		return d.SlashTriggerData.Member.Permissions, nil
	}

	return d.Session.UserChannelPermissions(d.Author.ID, common.StrID(d.ChannelID))
}

// UserError is an error in how the user invoked the command, it's shown to
// them but not logged or reported as an actual error.
type UserError struct {
	Msg string
}

func (u *UserError) Error() string {
	return u.Msg
}

func (u *UserError) IsUserError() bool {
	return true
}

func NewUserError(msg string) error {
	return &UserError{Msg: msg}
}

// PublicError is shown to the user as-is but still treated as a real error.
type PublicError struct {
	Msg string
}

func (p *PublicError) Error() string {
	return p.Msg
}

func NewPublicError(msg string) error {
	return &PublicError{Msg: msg}
}

var metricsExecutedCommands = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "medli_commands_total",
	Help: "Commands the bot executed",
}, []string{"name"})

// Run invokes the command's run func with a timeout, records the execution
// and sets cooldowns afterwards.
func (yc *MedliCommand) Run(data *Data) (interface{}, error) {
	if !yc.RunInDM && data.Source == SourceDM {
		return nil, nil
	}

	if confSetTyping.GetBool() && data.TriggerType == TriggerMessage {
		common.BotSession.ChannelTyping(common.StrID(data.ChannelID))
	}

	logger := yc.Logger(data)

	started := time.Now()
	defer func() {
		yc.logExecutionTime(time.Since(started), data)
	}()

	logEntry := &LoggedExecutedCommand{
		UserID:    data.Author.ID,
		ChannelID: common.StrID(data.ChannelID),
		GuildID:   common.StrID(data.GuildID),

		Command:   strings.ToLower(yc.FullName()),
		TimeStamp: time.Now(),
	}

	if data.TraditionalTriggerData != nil {
		logEntry.RawCommand = data.TraditionalTriggerData.Message.Content
	}

	metricsExecutedCommands.With(prometheus.Labels{"name": logEntry.Command}).Inc()

	runCtx, cancelExec := context.WithTimeout(data.Context(), CommandExecTimeout)
	defer cancelExec()

	r, cmdErr := yc.RunFunc(data.WithContext(runCtx))
	if cmdErr != nil {
		if errors.Cause(cmdErr) == context.Canceled || errors.Cause(cmdErr) == context.DeadlineExceeded {
			r = "Took longer than " + CommandExecTimeout.String() + " to run, cancelled the command."
		}
	}

	if (r == nil || r == "") && cmdErr != nil {
		r = yc.humanizeError(cmdErr)
	}

	logEntry.ResponseTime = int64(time.Since(started))

	if cmdErr == nil {
		err := yc.SetCooldowns(data.Author.ID, data.GuildID)
		if err != nil {
			logger.WithError(err).Error("Failed setting cooldown")
		}
	}

	// user errors are the user's problem, not ours
	if cmdErr != nil && isUserError(cmdErr) {
		cmdErr = nil
	}

	err := common.GORM.Create(logEntry).Error
	if err != nil {
		logger.WithError(err).Error("Failed creating command execution log")
	}

	return r, cmdErr
}

func isUserError(err error) bool {
	type userError interface {
		IsUserError() bool
	}

	_, ok := errors.Cause(err).(userError)
	return ok
}

func (yc *MedliCommand) humanizeError(err error) string {
	cause := errors.Cause(err)

	switch t := cause.(type) {
	case *PublicError:
		return "The command returned an error: " + t.Error()
	case *UserError:
		return "Unable to run the command: " + t.Error()
	case *discordgo.RESTError:
		if t.Message != nil && t.Message.Message != "" {
			if t.Response != nil && t.Response.StatusCode == 403 {
				return "The bot is missing permissions to do that: " + t.Message.Message
			}

			return "The bot was not able to perform the action, discord responded with: " + t.Message.Message
		}
	}

	return "Something went wrong when running this command, either discord or the bot may be having issues."
}

func (yc *MedliCommand) logExecutionTime(dur time.Duration, data *Data) {
	raw := strings.ToLower(yc.FullName())
	if data.TraditionalTriggerData != nil {
		raw = data.TraditionalTriggerData.Message.Content
	}

	logger.Infof("Handled Command [%4dms] %s: %s", int(dur.Seconds()*1000), data.Author.Username, raw)
}

func (yc *MedliCommand) Logger(data *Data) *logrus.Entry {
	l := logger.WithField("cmd", yc.FullName())
	if data != nil {
		if data.Author != nil {
			l = l.WithField("user_n", data.Author.Username)
			l = l.WithField("user_id", data.Author.ID)
		}

		l = l.WithField("channel", data.ChannelID)

		if data.GuildID != 0 {
			l = l.WithField("guild", data.GuildID)
		}
	}

	return l
}

const (
	ReasonError            = "An error occurred"
	ReasonUserMissingPerms = "You're missing permissions to run this command"
)

// checkCanExecuteCommand checks cooldowns, per server rules and permissions,
// a non empty resp is sent back to the user as a temporary message.
func (yc *MedliCommand) checkCanExecuteCommand(data *Data) (canExecute bool, resp string, err error) {
	if yc.OwnerOnly && !common.IsOwner(data.Author.ID) {
		return false, "", nil
	}

	if data.Source == SourceDM {
		if !yc.RunInDM {
			return false, "", nil
		}
	} else {
		settings, serr := GetGuildSettings(data.GuildID)
		if serr != nil {
			return false, ReasonError, errors.WithMessage(serr, "GetGuildSettings")
		}

		authorID := common.MustParseInt(data.Author.ID)

		bypass := common.IsOwner(data.Author.ID)
		if !bypass {
			perms, perr := data.MemberPermissions()
			if perr == nil && perms&discordgo.PermissionManageServer == discordgo.PermissionManageServer {
				bypass = true
			}
		}

		if !bypass {
			if settings.IsPlonked(authorID, data.ChannelID) {
				return false, "", nil
			}

			if settings.Permissions.IsBlocked(data.ChannelID, yc.namePrefixes()) {
				return false, "", nil
			}
		}

		if len(yc.RequireDiscordPerms) > 0 && !common.IsOwner(data.Author.ID) {
			perms, perr := data.MemberPermissions()
			if perr != nil {
				return false, ReasonError, errors.WithMessage(perr, "MemberPermissions")
			}

			foundMatch := false
			for _, permSet := range yc.RequireDiscordPerms {
				if permSet&perms == permSet {
					foundMatch = true
					break
				}
			}

			if !foundMatch {
				return false, ReasonUserMissingPerms, nil
			}
		}
	}

	cdLeft, err := yc.LongestCooldownLeft(common.MustParseInt(data.Author.ID), data.GuildID)
	if err != nil {
		// pretend the cooldown is off
		yc.Logger(data).WithError(err).Error("Failed checking command cooldown")
		err = nil
	}

	if cdLeft > 0 {
		return false, "This command is on cooldown for another " + strconv.Itoa(cdLeft) + " seconds.", nil
	}

	return true, "", nil
}

// LongestCooldownLeft returns the longest cooldown for this command, either
// user scoped or server scoped.
func (yc *MedliCommand) LongestCooldownLeft(userID int64, guildID int64) (int, error) {
	cdUser, err := yc.UserScopeCooldownLeft(userID)
	if err != nil {
		return 0, err
	}

	cdGuild, err := yc.GuildScopeCooldownLeft(guildID)
	if err != nil {
		return 0, err
	}

	if cdUser > cdGuild {
		return cdUser, nil
	}

	return cdGuild, nil
}

// UserScopeCooldownLeft returns the number of seconds before the command can
// be used by this user again.
func (yc *MedliCommand) UserScopeCooldownLeft(userID int64) (int, error) {
	if yc.Cooldown < 1 {
		return 0, nil
	}

	var ttl int
	err := common.RedisPool.Do(radix.Cmd(&ttl, "TTL", RKeyCommandCooldown(userID, yc.FullName())))
	if err != nil {
		return 0, errors.WithStackIf(err)
	}

	return ttl, nil
}

// GuildScopeCooldownLeft returns the number of seconds before the command can
// be used on this server again.
func (yc *MedliCommand) GuildScopeCooldownLeft(guildID int64) (int, error) {
	if yc.GuildScopeCooldown < 1 || guildID == 0 {
		return 0, nil
	}

	var ttl int
	err := common.RedisPool.Do(radix.Cmd(&ttl, "TTL", RKeyCommandCooldownGuild(guildID, yc.FullName())))
	if err != nil {
		return 0, errors.WithStackIf(err)
	}

	return ttl, nil
}

// SetCooldowns sets both the user scoped and server scoped cooldowns.
func (yc *MedliCommand) SetCooldowns(userID string, guildID int64) error {
	err := yc.SetCooldownUser(common.MustParseInt(userID))
	if err != nil {
		return errors.WithStackIf(err)
	}

	err = yc.SetCooldownGuild(guildID)
	if err != nil {
		return errors.WithStackIf(err)
	}

	return nil
}

func (yc *MedliCommand) SetCooldownUser(userID int64) error {
	if yc.Cooldown < 1 {
		return nil
	}

	now := time.Now().Unix()
	err := common.RedisPool.Do(radix.FlatCmd(nil, "SET", RKeyCommandCooldown(userID, yc.FullName()), now, "EX", yc.Cooldown))
	return errors.WithStackIf(err)
}

func (yc *MedliCommand) SetCooldownGuild(guildID int64) error {
	if yc.GuildScopeCooldown < 1 || guildID == 0 {
		return nil
	}

	now := time.Now().Unix()
	err := common.RedisPool.Do(radix.FlatCmd(nil, "SET", RKeyCommandCooldownGuild(guildID, yc.FullName()), now, "EX", yc.GuildScopeCooldown))
	return errors.WithStackIf(err)
}
