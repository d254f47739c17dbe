// Package starboard mirrors popular messages into a dedicated channel. A ⭐
// reaction stars a message, once enough people agree the bot posts a copy to
// the board and keeps its star count fresh as reactions come and go.
package starboard

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"emperror.dev/errors"
	"github.com/lib/pq"
	"github.com/lurelin/medli/common"
	"github.com/lurelin/medli/common/pubsub"
	"github.com/mediocregopher/radix/v3"
)

var logger = common.GetPluginLogger(&Plugin{})

type Plugin struct {
	stopStarGivers chan *sync.WaitGroup
}

func (p *Plugin) PluginInfo() *common.PluginInfo {
	return &common.PluginInfo{
		Name:     "Starboard",
		SysName:  "starboard",
		Category: common.PluginCategoryFeature,
	}
}

func RegisterPlugin() {
	common.InitSchemas("starboard", DBSchemas...)
	common.RegisterPlugin(&Plugin{
		stopStarGivers: make(chan *sync.WaitGroup),
	})
}

// StarError is a user facing refusal, the reaction path drops these silently
// and the commands show them as the reply.
type StarError struct {
	Msg string
}

func (s *StarError) Error() string {
	return s.Msg
}

func newStarError(msg string) error {
	return &StarError{Msg: msg}
}

var (
	ErrAlreadyStarred = newStarError("🚫 You already starred this message.")
	ErrNotStarred     = newStarError("🚫 You have not starred this message.")
	ErrBoardNotFound  = newStarError("⚠ Starboard channel not found.")
	ErrBoardLocked    = newStarError("🚫 Starboard is locked.")
)

// Config is the board settings for one server. A zero ChannelID means no
// board is set up.
type Config struct {
	ID        int64
	ChannelID int64
	Threshold int
	Locked    bool
	MaxAge    time.Duration
}

var configCache = common.CacheSet.RegisterSlot("starboard_config", func() interface{} { return new(int64) }, 1000)

// GetConfig returns the board settings for the server, going through the
// process local cache.
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

// FetchConfig reads the board settings straight from postgres, servers
// without a board get a config with ChannelID 0 and the defaults filled in.
func FetchConfig(guildID int64) (*Config, error) {
	row := struct {
		ChannelID     int64 `db:"channel_id"`
		Threshold     int   `db:"threshold"`
		Locked        bool  `db:"locked"`
		MaxAgeSeconds int64 `db:"max_age_seconds"`
	}{}

	err := common.SQLX.Get(&row, `
		SELECT channel_id, threshold, locked, EXTRACT(EPOCH FROM max_age)::BIGINT AS max_age_seconds
		FROM starboard
		WHERE id = $1`, guildID)
	if err != nil {
		if err == sql.ErrNoRows {
			return &Config{ID: guildID, Threshold: 1, MaxAge: 7 * 24 * time.Hour}, nil
		}

		return nil, errors.WithStackIf(err)
	}

	return &Config{
		ID:        guildID,
		ChannelID: row.ChannelID,
		Threshold: row.Threshold,
		Locked:    row.Locked,
		MaxAge:    time.Duration(row.MaxAgeSeconds) * time.Second,
	}, nil
}

func CreateBoard(guildID, channelID int64) error {
	_, err := common.SQLX.Exec("INSERT INTO starboard (id, channel_id) VALUES ($1, $2)", guildID, channelID)
	if err != nil {
		return errors.WithStackIf(err)
	}

	invalidateConfig(guildID)
	return nil
}

// DeleteBoard drops the board config, the cascades take the entries and
// starrers with it.
func DeleteBoard(guildID int64) error {
	_, err := common.SQLX.Exec("DELETE FROM starboard WHERE id = $1", guildID)
	if err != nil {
		return errors.WithStackIf(err)
	}

	invalidateConfig(guildID)
	return nil
}

func SetLocked(guildID int64, locked bool) error {
	_, err := common.SQLX.Exec("UPDATE starboard SET locked = $2 WHERE id = $1", guildID, locked)
	if err != nil {
		return errors.WithStackIf(err)
	}

	invalidateConfig(guildID)
	return nil
}

func SetThreshold(guildID int64, threshold int) error {
	_, err := common.SQLX.Exec("UPDATE starboard SET threshold = $2 WHERE id = $1", guildID, threshold)
	if err != nil {
		return errors.WithStackIf(err)
	}

	invalidateConfig(guildID)
	return nil
}

// SetMaxAge sets how old a message is allowed to be when it gets its first
// star. The unit has to come from the validated command choices, it's spliced
// into the statement.
func SetMaxAge(guildID int64, number int, unit string) error {
	var expr string
	switch unit {
	case "days":
		expr = "make_interval(days => $2)"
	case "weeks":
		expr = "make_interval(weeks => $2)"
	case "months":
		expr = "make_interval(months => $2)"
	case "years":
		expr = "make_interval(years => $2)"
	default:
		return errors.NewPlain("invalid max age unit")
	}

	_, err := common.SQLX.Exec(fmt.Sprintf("UPDATE starboard SET max_age = %s WHERE id = $1", expr), guildID, number)
	if err != nil {
		return errors.WithStackIf(err)
	}

	invalidateConfig(guildID)
	return nil
}

// AddStar records a star, creating the entry on first star and the starrer
// row in one statement so double stars trip the unique index.
func AddStar(messageID, channelID, guildID, authorID, starrerID int64) (entryID int64, err error) {
	err = common.SQLX.Get(&entryID, `
		WITH to_insert AS (
			INSERT INTO starboard_entries AS entries (message_id, channel_id, guild_id, author_id)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (message_id) DO NOTHING
			RETURNING entries.id
		)
		INSERT INTO starrers (author_id, entry_id)
		SELECT $5, entry.id
		FROM (
			SELECT id FROM to_insert
			UNION ALL
			SELECT id FROM starboard_entries WHERE message_id = $1
			LIMIT 1
		) AS entry
		RETURNING entry_id`, messageID, channelID, guildID, authorID, starrerID)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrAlreadyStarred
		}

		return 0, errors.WithStackIf(err)
	}

	return entryID, nil
}

// RemoveStar deletes the callers starrer row, reporting which entry it
// belonged to and the board message if one was posted.
func RemoveStar(messageID, starrerID int64) (entryID int64, botMessageID int64, err error) {
	row := struct {
		EntryID      int64         `db:"entry_id"`
		BotMessageID sql.NullInt64 `db:"bot_message_id"`
	}{}

	err = common.SQLX.Get(&row, `
		DELETE FROM starrers USING starboard_entries entry
		WHERE entry.message_id = $1 AND entry.id = starrers.entry_id AND starrers.author_id = $2
		RETURNING starrers.entry_id, entry.bot_message_id`, messageID, starrerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, 0, ErrNotStarred
		}

		return 0, 0, errors.WithStackIf(err)
	}

	return row.EntryID, row.BotMessageID.Int64, nil
}

func CountStarrers(entryID int64) (int, error) {
	var count int
	err := common.SQLX.Get(&count, "SELECT COUNT(*) FROM starrers WHERE entry_id = $1", entryID)
	if err != nil {
		return 0, errors.WithStackIf(err)
	}

	return count, nil
}

// EntryOrigin resolves a board message back to the starred message, used
// when someone stars the mirror instead of the original.
func EntryOrigin(botMessageID int64) (channelID int64, messageID int64, found bool, err error) {
	row := struct {
		ChannelID int64 `db:"channel_id"`
		MessageID int64 `db:"message_id"`
	}{}

	err = common.SQLX.Get(&row, "SELECT channel_id, message_id FROM starboard_entries WHERE bot_message_id = $1", botMessageID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, 0, false, nil
		}

		return 0, 0, false, errors.WithStackIf(err)
	}

	return row.ChannelID, row.MessageID, true, nil
}

// EntryBotMessage returns the board message id for the entry, 0 when none
// has been posted yet.
func EntryBotMessage(entryID int64) (int64, error) {
	var id sql.NullInt64
	err := common.SQLX.Get(&id, "SELECT bot_message_id FROM starboard_entries WHERE id = $1", entryID)
	if err != nil {
		return 0, errors.WithStackIf(err)
	}

	return id.Int64, nil
}

func SetEntryTotal(entryID int64, total int) error {
	_, err := common.SQLX.Exec("UPDATE starboard_entries SET total = $2 WHERE id = $1", entryID, total)
	return errors.WithStackIf(err)
}

func SetEntryBotMessage(entryID, botMessageID int64, total int) error {
	_, err := common.SQLX.Exec("UPDATE starboard_entries SET bot_message_id = $2, total = $3 WHERE id = $1", entryID, botMessageID, total)
	return errors.WithStackIf(err)
}

// ClearEntryBotMessage detaches the board message, used right before the bot
// deletes its own mirror so the delete handler doesn't purge the entry.
func ClearEntryBotMessage(entryID int64, total int) error {
	_, err := common.SQLX.Exec("UPDATE starboard_entries SET bot_message_id = NULL, total = $2 WHERE id = $1", entryID, total)
	return errors.WithStackIf(err)
}

func DeleteEntry(entryID int64) error {
	_, err := common.SQLX.Exec("DELETE FROM starboard_entries WHERE id = $1", entryID)
	return errors.WithStackIf(err)
}

func DeleteEntryByBotMessage(botMessageID int64) error {
	_, err := common.SQLX.Exec("DELETE FROM starboard_entries WHERE bot_message_id = $1", botMessageID)
	return errors.WithStackIf(err)
}

func DeleteEntriesByBotMessages(botMessageIDs []int64) error {
	_, err := common.SQLX.Exec("DELETE FROM starboard_entries WHERE bot_message_id = ANY($1)", pq.Array(botMessageIDs))
	return errors.WithStackIf(err)
}

// DeleteEntryByMessage purges the entry for a starred message, reporting the
// board message so the caller can clean that up too.
func DeleteEntryByMessage(messageID int64) (botMessageID int64, found bool, err error) {
	var id sql.NullInt64
	err = common.SQLX.Get(&id, "DELETE FROM starboard_entries WHERE message_id = $1 RETURNING bot_message_id", messageID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}

		return 0, false, errors.WithStackIf(err)
	}

	return id.Int64, true, nil
}

// EntrySnapshot is the star show lookup, the id can be either side of the
// mirror.
type EntrySnapshot struct {
	ChannelID    int64         `db:"channel_id"`
	MessageID    int64         `db:"message_id"`
	BotMessageID sql.NullInt64 `db:"bot_message_id"`
	Stars        int           `db:"stars"`
}

func GetEntrySnapshot(guildID, messageID int64) (*EntrySnapshot, bool, error) {
	snapshot := &EntrySnapshot{}
	err := common.SQLX.Get(snapshot, `
		SELECT entry.channel_id, entry.message_id, entry.bot_message_id,
		       COUNT(*) OVER (PARTITION BY entry_id) AS stars
		FROM starrers
		INNER JOIN starboard_entries entry ON entry.id = starrers.entry_id
		WHERE entry.guild_id = $1 AND (entry.message_id = $2 OR entry.bot_message_id = $2)
		LIMIT 1`, guildID, messageID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}

		return nil, false, errors.WithStackIf(err)
	}

	return snapshot, true, nil
}

// Starrers lists who starred a message, the id can be either side of the
// mirror.
func Starrers(messageID int64) ([]int64, error) {
	var authorIDs []int64
	err := common.SQLX.Select(&authorIDs, `
		SELECT starrers.author_id
		FROM starrers
		INNER JOIN starboard_entries entry ON entry.id = starrers.entry_id
		WHERE entry.message_id = $1 OR entry.bot_message_id = $1`, messageID)
	if err != nil {
		return nil, errors.WithStackIf(err)
	}

	return authorIDs, nil
}

// RandomEntry picks a random posted entry, authorID 0 means anyone's.
func RandomEntry(guildID, authorID int64) (botMessageID int64, found bool, err error) {
	where := "WHERE guild_id = $1 AND bot_message_id IS NOT NULL"
	args := []interface{}{guildID}
	if authorID != 0 {
		where += " AND author_id = $2"
		args = append(args, authorID)
	}

	query := fmt.Sprintf(`
		SELECT bot_message_id
		FROM starboard_entries
		%s
		OFFSET FLOOR(RANDOM() * (
			SELECT COUNT(*)
			FROM starboard_entries
			%s
		))
		LIMIT 1`, where, where)

	err = common.SQLX.Get(&botMessageID, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}

		return 0, false, errors.WithStackIf(err)
	}

	return botMessageID, true, nil
}

// CleanEntries drops entries among the given board messages with too few
// starrers, returning the board messages to delete.
func CleanEntries(guildID int64, botMessageIDs []int64, maxStars int) ([]int64, error) {
	var deleted []int64
	err := common.SQLX.Select(&deleted, `
		WITH bad_entries AS (
			SELECT entry_id
			FROM starrers
			INNER JOIN starboard_entries ON starboard_entries.id = starrers.entry_id
			WHERE starboard_entries.guild_id = $1
			  AND starboard_entries.bot_message_id = ANY($2)
			GROUP BY entry_id
			HAVING COUNT(*) <= $3
		)
		DELETE FROM starboard_entries USING bad_entries
		WHERE starboard_entries.id = bad_entries.entry_id
		RETURNING starboard_entries.bot_message_id`, guildID, pq.Array(botMessageIDs), maxStars)
	if err != nil {
		return nil, errors.WithStackIf(err)
	}

	return deleted, nil
}

// StarPost is one row of the top posts listings.
type StarPost struct {
	MessageID int64 `db:"message_id"`
	ChannelID int64 `db:"channel_id"`
	Total     int   `db:"total"`
}

// UserStars is one row of the receiver/giver listings.
type UserStars struct {
	AuthorID int64 `db:"author_id"`
	Stars    int64 `db:"stars"`
}

func GuildStarTotals(guildID int64) (messages int64, stars int64, err error) {
	row := struct {
		Messages int64 `db:"messages"`
		Stars    int64 `db:"stars"`
	}{}

	err = common.SQLX.Get(&row,
		"SELECT COUNT(*) AS messages, COALESCE(SUM(total), 0) AS stars FROM starboard_entries WHERE guild_id = $1", guildID)
	if err != nil {
		return 0, 0, errors.WithStackIf(err)
	}

	return row.Messages, row.Stars, nil
}

func TopPosts(guildID, authorID int64, limit int) ([]*StarPost, error) {
	query := `
		SELECT message_id, channel_id, total
		FROM starboard_entries
		WHERE bot_message_id IS NOT NULL AND guild_id = $1`
	args := []interface{}{guildID}
	if authorID != 0 {
		query += " AND author_id = $2"
		args = append(args, authorID)
	}

	query += fmt.Sprintf(" ORDER BY total DESC LIMIT %d", limit)

	var posts []*StarPost
	err := common.SQLX.Select(&posts, query, args...)
	if err != nil {
		return nil, errors.WithStackIf(err)
	}

	return posts, nil
}

func TopStarReceivers(guildID int64) ([]*UserStars, error) {
	var rows []*UserStars
	err := common.SQLX.Select(&rows, `
		SELECT author_id, SUM(total) AS stars
		FROM starboard_entries
		WHERE guild_id = $1
		GROUP BY author_id
		ORDER BY stars DESC
		LIMIT 5`, guildID)
	if err != nil {
		return nil, errors.WithStackIf(err)
	}

	return rows, nil
}

func TopStarGivers(guildID int64) ([]*UserStars, error) {
	var rows []*UserStars
	err := common.SQLX.Select(&rows, `
		SELECT author_id, total AS stars
		FROM star_givers
		WHERE guild_id = $1
		ORDER BY total DESC
		LIMIT 5`, guildID)
	if err != nil {
		return nil, errors.WithStackIf(err)
	}

	return rows, nil
}

func MemberStarsReceived(guildID, authorID int64) (int64, error) {
	var received int64
	err := common.SQLX.Get(&received,
		"SELECT COALESCE(SUM(total), 0) FROM starboard_entries WHERE guild_id = $1 AND author_id = $2", guildID, authorID)
	if err != nil {
		return 0, errors.WithStackIf(err)
	}

	return received, nil
}

func MemberStarsGiven(guildID, authorID int64) (int64, error) {
	var given int64
	err := common.SQLX.Get(&given,
		"SELECT total FROM star_givers WHERE guild_id = $1 AND author_id = $2", guildID, authorID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}

		return 0, errors.WithStackIf(err)
	}

	return given, nil
}

func CountMemberEntries(guildID, authorID int64) (int64, error) {
	var count int64
	err := common.SQLX.Get(&count,
		"SELECT COUNT(*) FROM starboard_entries WHERE guild_id = $1 AND author_id = $2", guildID, authorID)
	if err != nil {
		return 0, errors.WithStackIf(err)
	}

	return count, nil
}

const keyStaleGivers = "starboard_stale_givers"

// markGiversStale queues the server for the next star givers refresh, the
// background worker drains the set.
func markGiversStale(guildID int64) {
	err := common.RedisPool.Do(radix.FlatCmd(nil, "SADD", keyStaleGivers, guildID))
	if err != nil {
		logger.WithError(err).Error("failed marking star givers stale")
	}
}

// RefreshStarGivers recomputes the star_givers aggregate for the servers.
func RefreshStarGivers(guildIDs []int64) error {
	_, err := common.SQLX.Exec(`
		INSERT INTO star_givers (author_id, guild_id, total)
		SELECT starrers.author_id, entry.guild_id, COUNT(*)
		FROM starrers
		INNER JOIN starboard_entries AS entry ON entry.id = starrers.entry_id
		WHERE entry.guild_id = ANY($1)
		GROUP BY starrers.author_id, entry.guild_id
		ON CONFLICT (author_id, guild_id) DO UPDATE SET total = EXCLUDED.total`, pq.Array(guildIDs))
	return errors.WithStackIf(err)
}

func isUniqueViolation(err error) bool {
	if cast, ok := errors.Cause(err).(*pq.Error); ok {
		return cast.Code == "23505"
	}

	return false
}
