// Package hyrule answers Breath of the Wild armor upgrade questions from a
// reference dataset seeded with the schema. The data never changes at
// runtime, commands only ever read it.
package hyrule

import (
	"database/sql"

	"emperror.dev/errors"
	"github.com/lurelin/medli/common"
)

type Plugin struct{}

func (p *Plugin) PluginInfo() *common.PluginInfo {
	return &common.PluginInfo{
		Name:     "Hyrule",
		SysName:  "hyrule",
		Category: common.PluginCategoryFun,
	}
}

func RegisterPlugin() {
	common.InitSchemas("hyrule", DBSchemas...)
	common.RegisterPlugin(&Plugin{})
}

type BodyPart int

const (
	BodyPartHead BodyPart = iota
	BodyPartBody
	BodyPartLegs
)

func (b BodyPart) String() string {
	switch b {
	case BodyPartHead:
		return "Head"
	case BodyPartBody:
		return "Body"
	case BodyPartLegs:
		return "Legs"
	default:
		return "Unknown"
	}
}

type Armor struct {
	ID          int      `db:"id"`
	Name        string   `db:"name"`
	SetName     string   `db:"set_name"`
	BodyPart    BodyPart `db:"body_part"`
	BaseDefense int      `db:"base_defense"`
}

// Material is one ingredient of an upgrade tier.
type Material struct {
	Name     string
	Quantity int
}

// Upgrade is a single Great Fairy tier with everything it asks for.
type Upgrade struct {
	Tier      int
	Defense   int
	Materials []Material
}

// MaterialUse is one upgrade tier that needs a given material.
type MaterialUse struct {
	ArmorName string `db:"armor_name"`
	Tier      int    `db:"tier"`
	Material  string `db:"material"`
	Quantity  int    `db:"quantity"`
}

// FindArmor looks a piece up by exact name, case insensitively. Returns nil
// when nothing matches.
func FindArmor(name string) (*Armor, error) {
	armor := &Armor{}
	err := common.SQLX.Get(armor,
		"SELECT id, name, set_name, body_part, base_defense FROM botw_armor WHERE LOWER(name) = LOWER($1)", name)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, errors.WithStackIf(err)
	}

	return armor, nil
}

func ArmorNames() ([]string, error) {
	var names []string
	err := common.SQLX.Select(&names, "SELECT name FROM botw_armor ORDER BY name")
	return names, errors.WithStackIf(err)
}

func SetNames() ([]string, error) {
	var names []string
	err := common.SQLX.Select(&names, "SELECT DISTINCT set_name FROM botw_armor ORDER BY set_name")
	return names, errors.WithStackIf(err)
}

func MaterialNames() ([]string, error) {
	var names []string
	err := common.SQLX.Select(&names, "SELECT DISTINCT material FROM botw_upgrade_materials ORDER BY material")
	return names, errors.WithStackIf(err)
}

// ArmorUpgrades returns the four tiers of a piece in order, materials
// included.
func ArmorUpgrades(armorID int) ([]*Upgrade, error) {
	rows, err := common.SQLX.Query(`
SELECT u.tier, u.defense, m.material, m.quantity
FROM botw_armor_upgrades u
LEFT JOIN botw_upgrade_materials m ON m.upgrade_id = u.id
WHERE u.armor_id = $1
ORDER BY u.tier, m.id`, armorID)
	if err != nil {
		return nil, errors.WithStackIf(err)
	}
	defer rows.Close()

	var upgrades []*Upgrade
	for rows.Next() {
		var (
			tier, defense int
			material      sql.NullString
			quantity      sql.NullInt64
		)

		err = rows.Scan(&tier, &defense, &material, &quantity)
		if err != nil {
			return nil, errors.WithStackIf(err)
		}

		if len(upgrades) == 0 || upgrades[len(upgrades)-1].Tier != tier {
			upgrades = append(upgrades, &Upgrade{Tier: tier, Defense: defense})
		}

		if material.Valid {
			current := upgrades[len(upgrades)-1]
			current.Materials = append(current.Materials, Material{Name: material.String, Quantity: int(quantity.Int64)})
		}
	}

	return upgrades, errors.WithStackIf(rows.Err())
}

// SetPieces returns the pieces of a set head first, nil when the set is
// unknown.
func SetPieces(setName string) ([]*Armor, error) {
	var pieces []*Armor
	err := common.SQLX.Select(&pieces,
		"SELECT id, name, set_name, body_part, base_defense FROM botw_armor WHERE LOWER(set_name) = LOWER($1) ORDER BY body_part", setName)
	return pieces, errors.WithStackIf(err)
}

// MaterialUses is the reverse lookup, every upgrade tier that needs the
// material.
func MaterialUses(material string) ([]*MaterialUse, error) {
	var uses []*MaterialUse
	err := common.SQLX.Select(&uses, `
SELECT a.name AS armor_name, u.tier, m.material, m.quantity
FROM botw_upgrade_materials m
JOIN botw_armor_upgrades u ON u.id = m.upgrade_id
JOIN botw_armor a ON a.id = u.armor_id
WHERE LOWER(m.material) = LOWER($1)
ORDER BY a.name, u.tier`, material)
	return uses, errors.WithStackIf(err)
}

// MaxedDefense sums the tier four defense of every piece in a set.
func MaxedDefense(setName string) (int, error) {
	var total int
	err := common.SQLX.Get(&total, `
SELECT COALESCE(SUM(u.defense), 0)
FROM botw_armor a
JOIN botw_armor_upgrades u ON u.armor_id = a.id AND u.tier = 4
WHERE LOWER(a.set_name) = LOWER($1)`, setName)
	return total, errors.WithStackIf(err)
}
