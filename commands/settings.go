package commands

import (
	"database/sql"
	"strings"

	"emperror.dev/errors"
	"github.com/lib/pq"
	"github.com/lurelin/medli/common"
	"github.com/lurelin/medli/common/pubsub"
	"github.com/volatiletech/null/v8"
)

// GuildSettings is the resolved command control state for one server, cached
// in process and invalidated through pubsub when it changes.
type GuildSettings struct {
	GuildID     int64
	Plonked     map[int64]bool
	Permissions *CommandPermissions
}

// IsPlonked reports whether the user, the channel or the whole server is
// ignored.
func (g *GuildSettings) IsPlonked(userID int64, channelID int64) bool {
	return g.Plonked[g.GuildID] || g.Plonked[userID] || g.Plonked[channelID]
}

// CommandPermissions holds the enable/disable rules from command_config in
// lookup form.
type CommandPermissions struct {
	guildAllow map[string]bool
	guildDeny  map[string]bool

	channelAllow map[int64]map[string]bool
	channelDeny  map[int64]map[string]bool
}

type commandConfigRow struct {
	GuildID   int64      `db:"guild_id"`
	ChannelID null.Int64 `db:"channel_id"`
	Name      string     `db:"name"`
	Whitelist bool       `db:"whitelist"`
}

func buildCommandPermissions(rows []*commandConfigRow) *CommandPermissions {
	p := &CommandPermissions{
		guildAllow:   make(map[string]bool),
		guildDeny:    make(map[string]bool),
		channelAllow: make(map[int64]map[string]bool),
		channelDeny:  make(map[int64]map[string]bool),
	}

	for _, row := range rows {
		name := strings.ToLower(row.Name)

		if !row.ChannelID.Valid {
			if row.Whitelist {
				p.guildAllow[name] = true
			} else {
				p.guildDeny[name] = true
			}
			continue
		}

		target := p.channelDeny
		if row.Whitelist {
			target = p.channelAllow
		}

		if target[row.ChannelID.Int64] == nil {
			target[row.ChannelID.Int64] = make(map[string]bool)
		}
		target[row.ChannelID.Int64][name] = true
	}

	return p
}

// IsBlocked resolves the rules for a command, namePrefixes is the accumulated
// name path ("tag", "tag create"). Server wide rules apply first, channel
// rules override them, and within each scope a rule on the full name beats
// one on the group.
func (p *CommandPermissions) IsBlocked(channelID int64, namePrefixes []string) bool {
	blocked := false

	for _, name := range namePrefixes {
		if p.guildDeny[name] {
			blocked = true
		}
		if p.guildAllow[name] {
			blocked = false
		}
	}

	for _, name := range namePrefixes {
		if p.channelDeny[channelID][name] {
			blocked = true
		}
		if p.channelAllow[channelID][name] {
			blocked = false
		}
	}

	return blocked
}

var settingsCache = common.CacheSet.RegisterSlot("command_settings", func() interface{} { return new(int64) }, 1000)

// GetGuildSettings returns the cached settings for the server, loading them
// from postgres on a miss.
func GetGuildSettings(guildID int64) (*GuildSettings, error) {
	v, err := settingsCache.GetCustomFetch(guildID, func(key interface{}) (interface{}, error) {
		return fetchGuildSettings(guildID)
	})

	if err != nil {
		return nil, err
	}

	return v.(*GuildSettings), nil
}

func fetchGuildSettings(guildID int64) (*GuildSettings, error) {
	var rows []*commandConfigRow
	err := common.SQLX.Select(&rows, "SELECT guild_id, channel_id, name, whitelist FROM command_config WHERE guild_id=$1", guildID)
	if err != nil {
		return nil, errors.WithMessage(err, "select command_config")
	}

	var plonkRows []int64
	err = common.SQLX.Select(&plonkRows, "SELECT entity_id FROM plonks WHERE guild_id=$1", guildID)
	if err != nil {
		return nil, errors.WithMessage(err, "select plonks")
	}

	plonked := make(map[int64]bool, len(plonkRows))
	for _, v := range plonkRows {
		plonked[v] = true
	}

	return &GuildSettings{
		GuildID:     guildID,
		Plonked:     plonked,
		Permissions: buildCommandPermissions(rows),
	}, nil
}

func invalidateGuildSettings(guildID int64) {
	pubsub.EvictCacheSet(settingsCache, guildID)
}

// PlonkEntities ignores the given users/channels, already ignored entities
// are skipped. Returns how many were actually added.
func PlonkEntities(guildID int64, entityIDs []int64) (int, error) {
	added := 0
	for _, id := range entityIDs {
		result, err := common.PQ.Exec("INSERT INTO plonks (guild_id, entity_id) VALUES ($1, $2) ON CONFLICT DO NOTHING", guildID, id)
		if err != nil {
			return added, errors.WithStackIf(err)
		}

		rows, _ := result.RowsAffected()
		added += int(rows)
	}

	invalidateGuildSettings(guildID)
	return added, nil
}

// UnplonkEntities stops ignoring the given users/channels.
func UnplonkEntities(guildID int64, entityIDs []int64) error {
	_, err := common.PQ.Exec("DELETE FROM plonks WHERE guild_id=$1 AND entity_id = ANY($2)", guildID, pq.Array(entityIDs))
	if err != nil {
		return errors.WithStackIf(err)
	}

	invalidateGuildSettings(guildID)
	return nil
}

// ClearPlonks removes every ignore entry for the server.
func ClearPlonks(guildID int64) error {
	_, err := common.PQ.Exec("DELETE FROM plonks WHERE guild_id=$1", guildID)
	if err != nil {
		return errors.WithStackIf(err)
	}

	invalidateGuildSettings(guildID)
	return nil
}

// ListPlonks returns all ignored entity ids for the server.
func ListPlonks(guildID int64) ([]int64, error) {
	var out []int64
	err := common.SQLX.Select(&out, "SELECT entity_id FROM plonks WHERE guild_id=$1 ORDER BY created_at", guildID)
	return out, errors.WithStackIf(err)
}

var (
	ErrAlreadyDisabled = NewUserError("This command is already disabled.")
	ErrAlreadyEnabled  = NewUserError("This command is already enabled.")
)

// ToggleCommand writes an allow or deny rule for a command, channelID 0 means
// the whole server. The old rule for the same scope is replaced.
func ToggleCommand(guildID int64, channelID int64, name string, whitelist bool) error {
	tx, err := common.PQ.Begin()
	if err != nil {
		return errors.WithStackIf(err)
	}

	var oldWhitelist bool
	if channelID != 0 {
		err = tx.QueryRow("DELETE FROM command_config WHERE guild_id=$1 AND channel_id=$2 AND name=$3 RETURNING whitelist",
			guildID, channelID, name).Scan(&oldWhitelist)
	} else {
		err = tx.QueryRow("DELETE FROM command_config WHERE guild_id=$1 AND channel_id IS NULL AND name=$2 RETURNING whitelist",
			guildID, name).Scan(&oldWhitelist)
	}

	existed := true
	if err == sql.ErrNoRows {
		existed = false
	} else if err != nil {
		tx.Rollback()
		return errors.WithStackIf(err)
	}

	if existed && oldWhitelist == whitelist {
		tx.Rollback()
		if whitelist {
			return ErrAlreadyEnabled
		}
		return ErrAlreadyDisabled
	}

	var chID interface{}
	if channelID != 0 {
		chID = channelID
	}

	_, err = tx.Exec("INSERT INTO command_config (guild_id, channel_id, name, whitelist) VALUES ($1, $2, $3, $4)",
		guildID, chID, name, whitelist)
	if err != nil {
		tx.Rollback()
		return errors.WithStackIf(err)
	}

	err = tx.Commit()
	if err != nil {
		return errors.WithStackIf(err)
	}

	invalidateGuildSettings(guildID)
	return nil
}
