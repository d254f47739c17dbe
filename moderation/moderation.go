// Package moderation holds the anti-raid tooling: a raid mode that announces
// joins to a broadcast channel and, in strict mode, autobans spammers, plus
// an auto-ban for mention spam.
package moderation

import (
	"database/sql"
	"sync"

	"emperror.dev/errors"
	"github.com/lib/pq"
	"github.com/lurelin/medli/common"
	"github.com/lurelin/medli/common/pubsub"
)

var logger = common.GetPluginLogger(&Plugin{})

type Plugin struct {
	stopBroadcasts chan *sync.WaitGroup
}

func (p *Plugin) PluginInfo() *common.PluginInfo {
	return &common.PluginInfo{
		Name:     "Moderation",
		SysName:  "moderation",
		Category: common.PluginCategoryModeration,
	}
}

func RegisterPlugin() {
	common.InitSchemas("moderation", DBSchemas...)
	common.RegisterPlugin(&Plugin{
		stopBroadcasts: make(chan *sync.WaitGroup),
	})
}

type RaidMode int

const (
	RaidModeOff RaidMode = iota
	RaidModeOn
	RaidModeStrict
)

func (r RaidMode) String() string {
	switch r {
	case RaidModeOn:
		return "on"
	case RaidModeStrict:
		return "strict"
	default:
		return "off"
	}
}

// Config is the moderation settings for one server. Servers without a row get
// the zero value, which disables everything.
type Config struct {
	GuildID             int64
	RaidMode            RaidMode
	BroadcastChannel    int64
	MentionCount        int
	SafeMentionChannels []int64
}

func (c *Config) IsSafeMentionChannel(channelID int64) bool {
	for _, id := range c.SafeMentionChannels {
		if id == channelID {
			return true
		}
	}

	return false
}

var configCache = common.CacheSet.RegisterSlot("moderation_config", func() interface{} { return new(int64) }, 1000)

// GetConfig returns the server's moderation settings through the process
// local cache, this sits on the message hot path.
func GetConfig(guildID int64) (*Config, error) {
	v, err := configCache.GetCustomFetch(guildID, func(key interface{}) (interface{}, error) {
		return FetchConfig(guildID)
	})
	if err != nil {
		return nil, err
	}

	return v.(*Config), nil
}

func invalidateConfig(guildID int64) {
	pubsub.EvictCacheSet(configCache, guildID)
}

func FetchConfig(guildID int64) (*Config, error) {
	row := struct {
		RaidMode            int           `db:"raid_mode"`
		BroadcastChannel    int64         `db:"broadcast_channel"`
		MentionCount        int           `db:"mention_count"`
		SafeMentionChannels pq.Int64Array `db:"safe_mention_channel_ids"`
	}{}

	err := common.SQLX.Get(&row, `
		SELECT raid_mode, COALESCE(broadcast_channel, 0) AS broadcast_channel,
		       COALESCE(mention_count, 0) AS mention_count,
		       COALESCE(safe_mention_channel_ids, '{}') AS safe_mention_channel_ids
		FROM guild_mod_config
		WHERE id = $1`, guildID)
	if err != nil {
		if err == sql.ErrNoRows {
			return &Config{GuildID: guildID}, nil
		}

		return nil, errors.WithStackIf(err)
	}

	return &Config{
		GuildID:             guildID,
		RaidMode:            RaidMode(row.RaidMode),
		BroadcastChannel:    row.BroadcastChannel,
		MentionCount:        row.MentionCount,
		SafeMentionChannels: row.SafeMentionChannels,
	}, nil
}

// SetRaidMode stores the raid mode and its broadcast channel, 0 clears the
// channel.
func SetRaidMode(guildID int64, mode RaidMode, broadcastChannel int64) error {
	_, err := common.SQLX.Exec(`
		INSERT INTO guild_mod_config (id, raid_mode, broadcast_channel)
		VALUES ($1, $2, NULLIF($3::BIGINT, 0))
		ON CONFLICT (id) DO UPDATE SET
			raid_mode = EXCLUDED.raid_mode,
			broadcast_channel = EXCLUDED.broadcast_channel`, guildID, int(mode), broadcastChannel)
	if err != nil {
		return errors.WithStackIf(err)
	}

	invalidateConfig(guildID)
	return nil
}

// SetMentionCount stores the mention spam auto-ban threshold, 0 disables it.
func SetMentionCount(guildID int64, count int) error {
	var err error
	if count == 0 {
		_, err = common.SQLX.Exec("UPDATE guild_mod_config SET mention_count = NULL WHERE id = $1", guildID)
	} else {
		_, err = common.SQLX.Exec(`
			INSERT INTO guild_mod_config (id, mention_count, safe_mention_channel_ids)
			VALUES ($1, $2, '{}')
			ON CONFLICT (id) DO UPDATE SET mention_count = $2`, guildID, count)
	}

	if err != nil {
		return errors.WithStackIf(err)
	}

	invalidateConfig(guildID)
	return nil
}

// IgnoreMentionChannels adds the channels to the mention spam safe list.
// Servers that never set up mention spam banning have no row to update, the
// ignore list only matters alongside a threshold anyway.
func IgnoreMentionChannels(guildID int64, channelIDs []int64) error {
	_, err := common.SQLX.Exec(`
		UPDATE guild_mod_config
		SET safe_mention_channel_ids =
			ARRAY(SELECT DISTINCT * FROM unnest(COALESCE(safe_mention_channel_ids, '{}') || $2::bigint[]))
		WHERE id = $1`, guildID, pq.Array(channelIDs))
	if err != nil {
		return errors.WithStackIf(err)
	}

	invalidateConfig(guildID)
	return nil
}

// UnignoreMentionChannels removes the channels from the mention spam safe
// list.
func UnignoreMentionChannels(guildID int64, channelIDs []int64) error {
	_, err := common.SQLX.Exec(`
		UPDATE guild_mod_config
		SET safe_mention_channel_ids =
			ARRAY(SELECT element FROM unnest(safe_mention_channel_ids) AS element
			      WHERE NOT(element = ANY($2::bigint[])))
		WHERE id = $1`, guildID, pq.Array(channelIDs))
	if err != nil {
		return errors.WithStackIf(err)
	}

	invalidateConfig(guildID)
	return nil
}
