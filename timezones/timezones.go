// Package timezones stores a timezone per user and answers wall clock
// questions about it. Other plugins use the stored zone to interpret
// times the way the user meant them.
package timezones

import (
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"emperror.dev/errors"
	"github.com/lib/pq"
	"github.com/lurelin/medli/common"
	"github.com/lurelin/medli/common/fuzzy"
	"github.com/tkuchiki/go-timezone"
)

var logger = common.GetPluginLogger(&Plugin{})

type Plugin struct{}

func (p *Plugin) PluginInfo() *common.PluginInfo {
	return &common.PluginInfo{
		Name:     "Timezones",
		SysName:  "timezones",
		Category: common.PluginCategoryTool,
	}
}

func RegisterPlugin() {
	common.InitSchemas("timezones", DBSchemas...)
	common.RegisterPlugin(&Plugin{})
}

// UserTimezone is a row in user_timezones. GuildIDs holds the servers where
// the user opted into being listed on the timezone board.
type UserTimezone struct {
	UserID       int64         `db:"user_id"`
	TimezoneName string        `db:"timezone_name"`
	GuildIDs     pq.Int64Array `db:"guild_ids"`
}

// GetUserTimezone returns the users stored timezone, nil if none is set.
func GetUserTimezone(userID int64) *time.Location {
	record, err := getUserTimezone(userID)
	if err != nil {
		logger.WithError(err).WithField("user", userID).Error("failed retrieving user timezone")
		return nil
	}

	if record == nil {
		return nil
	}

	loc, err := time.LoadLocation(record.TimezoneName)
	if err != nil {
		logger.WithError(err).WithField("timezone", record.TimezoneName).Error("failed loading stored timezone")
		return nil
	}

	return loc
}

func getUserTimezone(userID int64) (*UserTimezone, error) {
	record := &UserTimezone{}
	err := common.SQLX.Get(record, "SELECT user_id, timezone_name, guild_ids FROM user_timezones WHERE user_id = $1", userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, errors.WithStackIf(err)
	}

	return record, nil
}

// setUserTimezone upserts the users zone, adding guildID to the board opt-in
// list when its nonzero.
func setUserTimezone(userID int64, zone string, guildID int64) error {
	current, err := getUserTimezone(userID)
	if err != nil {
		return err
	}

	guildIDs := pq.Int64Array{}
	if current != nil {
		guildIDs = current.GuildIDs
	}

	if guildID != 0 && !common.ContainsInt64Slice(guildIDs, guildID) {
		guildIDs = append(guildIDs, guildID)
	}

	_, err = common.SQLX.Exec(`
		INSERT INTO user_timezones (user_id, timezone_name, guild_ids) VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET timezone_name = $2, guild_ids = $3`, userID, zone, guildIDs)

	return errors.WithStackIf(err)
}

func removeUserTimezone(userID int64) (deleted bool, err error) {
	result, err := common.SQLX.Exec("DELETE FROM user_timezones WHERE user_id = $1", userID)
	if err != nil {
		return false, errors.WithStackIf(err)
	}

	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func guildTimezoneRecords(guildID int64) ([]*UserTimezone, error) {
	var records []*UserTimezone
	err := common.SQLX.Select(&records, "SELECT user_id, timezone_name, guild_ids FROM user_timezones WHERE $1 = ANY(guild_ids)", guildID)
	if err != nil {
		return nil, errors.WithStackIf(err)
	}

	return records, nil
}

func (p *Plugin) RemoveGuild(guildID int64) {
	_, err := common.SQLX.Exec("UPDATE user_timezones SET guild_ids = array_remove(guild_ids, $1) WHERE $1 = ANY(guild_ids)", guildID)
	if err != nil {
		logger.WithError(err).WithField("guild", guildID).Error("failed clearing guild from timezone boards")
	}
}

var (
	tzData = timezone.New()

	zoneIndex     []string
	zoneIndexOnce sync.Once
)

// ZoneNames returns every zone name in the tzdata index, sorted.
func ZoneNames() []string {
	zoneIndexOnce.Do(func() {
		seen := make(map[string]bool)
		for _, zones := range tzData.Timezones() {
			for _, name := range zones {
				if seen[name] {
					continue
				}

				seen[name] = true
				zoneIndex = append(zoneIndex, name)
			}
		}

		sort.Strings(zoneIndex)
	})

	return zoneIndex
}

// MatchZone resolves user input to a canonical zone name. Spaces stand in
// for underscores and casing is ignored; abbreviations such as "JST" work
// when they map to a single zone. When nothing matches exactly it returns
// an empty zone together with up to 5 suggestions.
func MatchZone(input string) (zone string, suggestions []string) {
	normalized := strings.ReplaceAll(strings.TrimSpace(input), " ", "_")

	for _, name := range ZoneNames() {
		if strings.EqualFold(name, normalized) {
			return name, nil
		}
	}

	if zones, err := tzData.GetTimezones(strings.ToUpper(strings.TrimSpace(input))); err == nil && len(zones) > 0 {
		if len(zones) == 1 {
			return zones[0], nil
		}

		if len(zones) > 5 {
			zones = zones[:5]
		}

		return "", zones
	}

	matches := fuzzy.Extract(normalized, ZoneNames(), fuzzy.AdaptiveThreshold, false, 5)
	for _, m := range matches {
		suggestions = append(suggestions, m.Value)
	}

	return "", suggestions
}
