// Package tags stores named text snippets per server. Every name, the
// canonical one included, is a row in the lookup table pointing at the tag
// that holds the content, which keeps retrieval to a single join and lets
// any number of aliases share one tag.
package tags

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/lib/pq"
	"github.com/lurelin/medli/common"
)

var logger = common.GetPluginLogger(&Plugin{})

type Plugin struct{}

func (p *Plugin) PluginInfo() *common.PluginInfo {
	return &common.PluginInfo{
		Name:     "Tags",
		SysName:  "tags",
		Category: common.PluginCategoryTool,
	}
}

func RegisterPlugin() {
	common.InitSchemas("tags", DBSchemas...)
	common.RegisterPlugin(&Plugin{})
}

var (
	ErrTagNotFound = errors.NewPlain("tag not found")
	ErrTagExists   = errors.NewPlain("a tag with that name already exists")
)

// Tag is a row in tags, the canonical entry holding the content.
type Tag struct {
	ID         int64     `db:"id"`
	CreatedAt  time.Time `db:"created_at"`
	Name       string    `db:"name"`
	Content    string    `db:"content"`
	OwnerID    int64     `db:"owner_id"`
	Uses       int       `db:"uses"`
	LocationID int64     `db:"location_id"`
}

// TagListEntry is a name and lookup id pair, the id is what the delete by id
// command takes.
type TagListEntry struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

// GetTag resolves a name through the lookup table, matching is case
// insensitive.
func GetTag(locationID int64, name string) (*Tag, error) {
	tag := &Tag{}
	err := common.SQLX.Get(tag, `
		SELECT tags.id, tags.created_at, tags.name, tags.content, tags.owner_id, tags.uses, tags.location_id
		FROM tag_lookup
		INNER JOIN tags ON tags.id = tag_lookup.tag_id
		WHERE tag_lookup.location_id = $1 AND LOWER(tag_lookup.name) = $2`, locationID, strings.ToLower(name))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTagNotFound
		}

		return nil, errors.WithStackIf(err)
	}

	return tag, nil
}

// SimilarTagNames returns up to 3 trigram neighbours of the name, used for
// the did you mean suggestions after a miss.
func SimilarTagNames(locationID int64, name string) ([]string, error) {
	var names []string
	err := common.SQLX.Select(&names, `
		SELECT tag_lookup.name
		FROM tag_lookup
		WHERE tag_lookup.location_id = $1 AND LOWER(tag_lookup.name) % $2
		ORDER BY similarity(LOWER(tag_lookup.name), $2) DESC
		LIMIT 3`, locationID, strings.ToLower(name))
	if err != nil {
		return nil, errors.WithStackIf(err)
	}

	return names, nil
}

func BumpUses(tagID int64) error {
	_, err := common.SQLX.Exec("UPDATE tags SET uses = uses + 1 WHERE id = $1", tagID)
	return errors.WithStackIf(err)
}

// CreateTag inserts the tag together with its lookup entry in one
// transaction, the unique indexes on the lowered name guard both tables.
func CreateTag(locationID, ownerID int64, name, content string) error {
	tx, err := common.SQLX.Beginx()
	if err != nil {
		return errors.WithStackIf(err)
	}

	_, err = tx.Exec(`
		WITH tag_insert AS (
			INSERT INTO tags (name, content, owner_id, location_id)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		)
		INSERT INTO tag_lookup (name, owner_id, location_id, tag_id)
		VALUES ($1, $3, $4, (SELECT id FROM tag_insert))`, name, content, ownerID, locationID)
	if err != nil {
		tx.Rollback()
		if isUniqueViolation(err) {
			return ErrTagExists
		}

		return errors.WithStackIf(err)
	}

	return errors.WithStackIf(tx.Commit())
}

// CreateAlias points a new name at an existing entry. The alias copies the
// target's tag id, deleting the tag takes the alias with it.
func CreateAlias(locationID, ownerID int64, newName, oldName string) error {
	result, err := common.SQLX.Exec(`
		INSERT INTO tag_lookup (name, owner_id, location_id, tag_id)
		SELECT $1, $2, tag_lookup.location_id, tag_lookup.tag_id
		FROM tag_lookup
		WHERE tag_lookup.location_id = $3 AND LOWER(tag_lookup.name) = $4`,
		newName, ownerID, locationID, strings.ToLower(oldName))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrTagExists
		}

		return errors.WithStackIf(err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrTagNotFound
	}

	return nil
}

// EditTag replaces the content, only the owner can edit and only through the
// tags main name.
func EditTag(locationID, ownerID int64, name, content string) (edited bool, err error) {
	result, err := common.SQLX.Exec(
		"UPDATE tags SET content = $1 WHERE LOWER(name) = $2 AND location_id = $3 AND owner_id = $4",
		content, strings.ToLower(name), locationID, ownerID)
	if err != nil {
		return false, errors.WithStackIf(err)
	}

	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// DeleteTag removes the lookup entry with the given name. When that entry is
// the tags main name the tag row goes too and the cascade clears every other
// alias. requireOwnerID restricts the delete to entries owned by that user,
// 0 skips the check. Reports whether the whole tag was removed rather than
// just an alias.
func DeleteTag(locationID int64, name string, requireOwnerID int64) (wasTag bool, err error) {
	tx, err := common.SQLX.Beginx()
	if err != nil {
		return false, errors.WithStackIf(err)
	}

	clause := "LOWER(name) = $1 AND location_id = $2"
	args := []interface{}{strings.ToLower(name), locationID}
	if requireOwnerID != 0 {
		clause += " AND owner_id = $3"
		args = append(args, requireOwnerID)
	}

	var tagID int64
	err = tx.Get(&tagID, "DELETE FROM tag_lookup WHERE "+clause+" RETURNING tag_id", args...)
	if err != nil {
		tx.Rollback()
		if err == sql.ErrNoRows {
			return false, ErrTagNotFound
		}

		return false, errors.WithStackIf(err)
	}

	// the same conditions apply to the tag row itself, this delete only lands
	// when the removed entry carried the main name
	args = append(args, tagID)
	result, err := tx.Exec(fmt.Sprintf("DELETE FROM tags WHERE %s AND id = $%d", clause, len(args)), args...)
	if err != nil {
		tx.Rollback()
		return false, errors.WithStackIf(err)
	}

	rows, _ := result.RowsAffected()
	return rows > 0, errors.WithStackIf(tx.Commit())
}

// DeleteTagByID is DeleteTag keyed on the lookup row id, that's the id the
// list commands display.
func DeleteTagByID(locationID int64, lookupID int64, requireOwnerID int64) (wasTag bool, err error) {
	tx, err := common.SQLX.Beginx()
	if err != nil {
		return false, errors.WithStackIf(err)
	}

	ownerClause := ""
	args := []interface{}{lookupID, locationID}
	if requireOwnerID != 0 {
		ownerClause = " AND owner_id = $3"
		args = append(args, requireOwnerID)
	}

	var tagID int64
	err = tx.Get(&tagID, "DELETE FROM tag_lookup WHERE id = $1 AND location_id = $2"+ownerClause+" RETURNING tag_id", args...)
	if err != nil {
		tx.Rollback()
		if err == sql.ErrNoRows {
			return false, ErrTagNotFound
		}

		return false, errors.WithStackIf(err)
	}

	args[0] = tagID
	result, err := tx.Exec("DELETE FROM tags WHERE id = $1 AND location_id = $2"+ownerClause, args...)
	if err != nil {
		tx.Rollback()
		return false, errors.WithStackIf(err)
	}

	rows, _ := result.RowsAffected()
	return rows > 0, errors.WithStackIf(tx.Commit())
}

// UserTags lists every entry a user owns on a server, aliases included.
func UserTags(locationID, ownerID int64) ([]*TagListEntry, error) {
	var entries []*TagListEntry
	err := common.SQLX.Select(&entries,
		"SELECT name, id FROM tag_lookup WHERE location_id = $1 AND owner_id = $2 ORDER BY name",
		locationID, ownerID)
	if err != nil {
		return nil, errors.WithStackIf(err)
	}

	return entries, nil
}

// GuildTags lists every entry on a server, aliases included.
func GuildTags(locationID int64) ([]*TagListEntry, error) {
	var entries []*TagListEntry
	err := common.SQLX.Select(&entries,
		"SELECT name, id FROM tag_lookup WHERE location_id = $1 ORDER BY name", locationID)
	if err != nil {
		return nil, errors.WithStackIf(err)
	}

	return entries, nil
}

// SearchTags does a trigram search over the lookup names.
func SearchTags(locationID int64, query string) ([]*TagListEntry, error) {
	var entries []*TagListEntry
	err := common.SQLX.Select(&entries, `
		SELECT name, id
		FROM tag_lookup
		WHERE location_id = $1 AND LOWER(name) % $2
		ORDER BY similarity(LOWER(name), $2) DESC
		LIMIT 100`, locationID, strings.ToLower(query))
	if err != nil {
		return nil, errors.WithStackIf(err)
	}

	return entries, nil
}

// TagTableRow feeds the text file dump of tag all.
type TagTableRow struct {
	ID      int64  `db:"id"`
	Name    string `db:"name"`
	OwnerID int64  `db:"owner_id"`
	Uses    int    `db:"uses"`
	IsAlias bool   `db:"is_alias"`
}

func GuildTagsDetailed(locationID int64) ([]*TagTableRow, error) {
	var rows []*TagTableRow
	err := common.SQLX.Select(&rows, `
		SELECT tag_lookup.id, tag_lookup.name, tag_lookup.owner_id, tags.uses,
		       LOWER(tag_lookup.name) <> LOWER(tags.name) AS is_alias
		FROM tag_lookup
		INNER JOIN tags ON tags.id = tag_lookup.tag_id
		WHERE tag_lookup.location_id = $1
		ORDER BY tags.uses DESC`, locationID)
	if err != nil {
		return nil, errors.WithStackIf(err)
	}

	return rows, nil
}

// TagInfoRecord is a lookup row joined with its tag, IsAlias tells the two
// presentation modes apart.
type TagInfoRecord struct {
	Tag
	IsAlias         bool      `db:"is_alias"`
	LookupName      string    `db:"lookup_name"`
	LookupCreatedAt time.Time `db:"lookup_created_at"`
	LookupOwnerID   int64     `db:"lookup_owner_id"`
}

func GetTagInfo(locationID int64, name string) (*TagInfoRecord, error) {
	record := &TagInfoRecord{}
	err := common.SQLX.Get(record, `
		SELECT LOWER(tag_lookup.name) <> LOWER(tags.name) AS is_alias,
		       tag_lookup.name AS lookup_name,
		       tag_lookup.created_at AS lookup_created_at,
		       tag_lookup.owner_id AS lookup_owner_id,
		       tags.id, tags.created_at, tags.name, tags.content, tags.owner_id, tags.uses, tags.location_id
		FROM tag_lookup
		INNER JOIN tags ON tag_lookup.tag_id = tags.id
		WHERE LOWER(tag_lookup.name) = $1 AND tag_lookup.location_id = $2`, strings.ToLower(name), locationID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTagNotFound
		}

		return nil, errors.WithStackIf(err)
	}

	return record, nil
}

// TagRank is the tags place on its server ordered by uses, ties broken by
// insertion order.
func TagRank(tagID int64) (int64, error) {
	var rank int64
	err := common.SQLX.Get(&rank, `
		SELECT (
			SELECT COUNT(*)
			FROM tags second
			WHERE (second.uses, second.id) >= (first.uses, first.id)
			  AND second.location_id = first.location_id
		) AS rank
		FROM tags first
		WHERE first.id = $1`, tagID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrTagNotFound
		}

		return 0, errors.WithStackIf(err)
	}

	return rank, nil
}

// TagStatsRow carries one of the top tags together with server wide totals
// from the window functions, the totals repeat on every row.
type TagStatsRow struct {
	Name       string `db:"name"`
	Uses       int    `db:"uses"`
	TotalCount int64  `db:"total_count"`
	TotalUses  int64  `db:"total_uses"`
}

// GuildTopTags returns the three most used tags plus totals for the server.
func GuildTopTags(locationID int64) ([]*TagStatsRow, error) {
	var rows []*TagStatsRow
	err := common.SQLX.Select(&rows, `
		SELECT name, uses,
		       COUNT(*) OVER () AS total_count,
		       SUM(uses) OVER () AS total_uses
		FROM tags
		WHERE location_id = $1
		ORDER BY uses DESC
		LIMIT 3`, locationID)
	if err != nil {
		return nil, errors.WithStackIf(err)
	}

	return rows, nil
}

// MemberTopTags is GuildTopTags scoped to a single owner.
func MemberTopTags(locationID, ownerID int64) ([]*TagStatsRow, error) {
	var rows []*TagStatsRow
	err := common.SQLX.Select(&rows, `
		SELECT name, uses,
		       COUNT(*) OVER () AS total_count,
		       SUM(uses) OVER () AS total_uses
		FROM tags
		WHERE location_id = $1 AND owner_id = $2
		ORDER BY uses DESC
		LIMIT 3`, locationID, ownerID)
	if err != nil {
		return nil, errors.WithStackIf(err)
	}

	return rows, nil
}

// TagUserStatsRow ranks who fetches tags the most, counted from the command
// execution log which keeps its ids as strings.
type TagUserStatsRow struct {
	Uses   int64  `db:"uses"`
	UserID string `db:"user_id"`
}

func GuildTopTagUsers(guildID int64) ([]*TagUserStatsRow, error) {
	var rows []*TagUserStatsRow
	err := common.SQLX.Select(&rows, `
		SELECT COUNT(*) AS uses, user_id
		FROM executed_commands
		WHERE guild_id = $1 AND command = 'tag'
		GROUP BY user_id
		ORDER BY COUNT(*) DESC
		LIMIT 3`, common.StrID(guildID))
	if err != nil {
		return nil, errors.WithStackIf(err)
	}

	return rows, nil
}

type TagOwnerStatsRow struct {
	Owned   int64 `db:"owned"`
	OwnerID int64 `db:"owner_id"`
}

func GuildTopTagCreators(locationID int64) ([]*TagOwnerStatsRow, error) {
	var rows []*TagOwnerStatsRow
	err := common.SQLX.Select(&rows, `
		SELECT COUNT(*) AS owned, owner_id
		FROM tags
		WHERE location_id = $1
		GROUP BY owner_id
		ORDER BY COUNT(*) DESC
		LIMIT 3`, locationID)
	if err != nil {
		return nil, errors.WithStackIf(err)
	}

	return rows, nil
}

func MemberTagCommandUses(guildID, userID int64) (int64, error) {
	var count int64
	err := common.SQLX.Get(&count,
		"SELECT COUNT(*) FROM executed_commands WHERE guild_id = $1 AND command = 'tag' AND user_id = $2",
		common.StrID(guildID), common.StrID(userID))
	if err != nil {
		return 0, errors.WithStackIf(err)
	}

	return count, nil
}

// CountUserTags counts the tags a user owns on a server, aliases they own on
// other peoples tags don't count.
func CountUserTags(locationID, ownerID int64) (int64, error) {
	var count int64
	err := common.SQLX.Get(&count,
		"SELECT COUNT(*) FROM tags WHERE location_id = $1 AND owner_id = $2", locationID, ownerID)
	if err != nil {
		return 0, errors.WithStackIf(err)
	}

	return count, nil
}

// PurgeUserTags deletes every tag a user owns on a server, the cascade takes
// all aliases pointing at them. Aliases the user owns on other peoples tags
// stay.
func PurgeUserTags(locationID, ownerID int64) (int64, error) {
	result, err := common.SQLX.Exec(
		"DELETE FROM tags WHERE location_id = $1 AND owner_id = $2", locationID, ownerID)
	if err != nil {
		return 0, errors.WithStackIf(err)
	}

	rows, _ := result.RowsAffected()
	return rows, nil
}

// FindTagOwnership resolves a name to the canonical tag id and the current
// owner, falling back to the alias layer when the name isn't a main name.
func FindTagOwnership(locationID int64, name string) (tagID int64, ownerID int64, isAlias bool, err error) {
	row := struct {
		ID      int64 `db:"id"`
		OwnerID int64 `db:"owner_id"`
	}{}

	err = common.SQLX.Get(&row,
		"SELECT id, owner_id FROM tags WHERE location_id = $1 AND LOWER(name) = $2",
		locationID, strings.ToLower(name))
	if err == nil {
		return row.ID, row.OwnerID, false, nil
	}

	if err != sql.ErrNoRows {
		return 0, 0, false, errors.WithStackIf(err)
	}

	err = common.SQLX.Get(&row,
		"SELECT tag_id AS id, owner_id FROM tag_lookup WHERE location_id = $1 AND LOWER(name) = $2",
		locationID, strings.ToLower(name))
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, 0, false, ErrTagNotFound
		}

		return 0, 0, false, errors.WithStackIf(err)
	}

	return row.ID, row.OwnerID, true, nil
}

// GetOwnedTagID looks a tag up by its main name requiring the given owner.
func GetOwnedTagID(locationID int64, name string, ownerID int64) (int64, error) {
	var id int64
	err := common.SQLX.Get(&id,
		"SELECT id FROM tags WHERE location_id = $1 AND LOWER(name) = $2 AND owner_id = $3",
		locationID, strings.ToLower(name), ownerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrTagNotFound
		}

		return 0, errors.WithStackIf(err)
	}

	return id, nil
}

// SetTagOwner moves ownership of the tag row and every lookup entry pointing
// at it. lookupOnly leaves the tag row alone, claiming through an alias only
// takes over the alias layer.
func SetTagOwner(tagID int64, newOwnerID int64, lookupOnly bool) error {
	tx, err := common.SQLX.Beginx()
	if err != nil {
		return errors.WithStackIf(err)
	}

	if !lookupOnly {
		_, err = tx.Exec("UPDATE tags SET owner_id = $1 WHERE id = $2", newOwnerID, tagID)
		if err != nil {
			tx.Rollback()
			return errors.WithStackIf(err)
		}
	}

	_, err = tx.Exec("UPDATE tag_lookup SET owner_id = $1 WHERE tag_id = $2", newOwnerID, tagID)
	if err != nil {
		tx.Rollback()
		return errors.WithStackIf(err)
	}

	return errors.WithStackIf(tx.Commit())
}

func isUniqueViolation(err error) bool {
	if cast, ok := errors.Cause(err).(*pq.Error); ok {
		return cast.Code == "23505"
	}

	return false
}
