package hyrule

// Reference data for Breath of the Wild armor upgrades, split over three
// tables so material lookups don't have to parse anything. The seed rows
// below re-run on every schema init and rely on the unique constraints to
// stay idempotent.
var DBSchemas = []string{`
CREATE TABLE IF NOT EXISTS botw_armor (
	id SERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	set_name TEXT NOT NULL,
	-- 0 = head, 1 = body, 2 = legs
	body_part SMALLINT NOT NULL,
	base_defense SMALLINT NOT NULL
);
`, `
CREATE TABLE IF NOT EXISTS botw_armor_upgrades (
	id SERIAL PRIMARY KEY,
	armor_id INT NOT NULL REFERENCES botw_armor (id) ON DELETE CASCADE,
	tier SMALLINT NOT NULL CHECK (tier >= 1 AND tier <= 4),
	defense INT NOT NULL,
	UNIQUE (armor_id, tier)
);
`, `
CREATE TABLE IF NOT EXISTS botw_upgrade_materials (
	id SERIAL PRIMARY KEY,
	upgrade_id INT NOT NULL REFERENCES botw_armor_upgrades (id) ON DELETE CASCADE,
	material TEXT NOT NULL,
	quantity INT NOT NULL,
	UNIQUE (upgrade_id, material)
);
`, `
INSERT INTO botw_armor (name, set_name, body_part, base_defense) VALUES
	('Hylian Hood', 'Hylian', 0, 3),
	('Hylian Tunic', 'Hylian', 1, 3),
	('Hylian Trousers', 'Hylian', 2, 3),
	('Zora Helm', 'Zora', 0, 3),
	('Zora Armor', 'Zora', 1, 3),
	('Zora Greaves', 'Zora', 2, 3),
	('Snowquill Headdress', 'Snowquill', 0, 3),
	('Snowquill Tunic', 'Snowquill', 1, 3),
	('Snowquill Trousers', 'Snowquill', 2, 3),
	('Desert Voe Headband', 'Desert Voe', 0, 3),
	('Desert Voe Spaulder', 'Desert Voe', 1, 3),
	('Desert Voe Trousers', 'Desert Voe', 2, 3),
	('Ancient Helm', 'Ancient', 0, 4),
	('Ancient Cuirass', 'Ancient', 1, 4),
	('Ancient Greaves', 'Ancient', 2, 4)
ON CONFLICT (name) DO NOTHING;
`, `
-- every piece of a set shares the same defense ladder, the join fans the
-- per-set rows out to the three pieces
INSERT INTO botw_armor_upgrades (armor_id, tier, defense)
SELECT a.id, v.tier, v.defense
FROM botw_armor a
JOIN (VALUES
	('Hylian', 1, 5), ('Hylian', 2, 8), ('Hylian', 3, 12), ('Hylian', 4, 20),
	('Zora', 1, 5), ('Zora', 2, 8), ('Zora', 3, 12), ('Zora', 4, 20),
	('Snowquill', 1, 5), ('Snowquill', 2, 8), ('Snowquill', 3, 12), ('Snowquill', 4, 20),
	('Desert Voe', 1, 5), ('Desert Voe', 2, 8), ('Desert Voe', 3, 12), ('Desert Voe', 4, 20),
	('Ancient', 1, 7), ('Ancient', 2, 12), ('Ancient', 3, 18), ('Ancient', 4, 28)
) AS v(set_name, tier, defense) ON a.set_name = v.set_name
ON CONFLICT (armor_id, tier) DO NOTHING;
`, `
INSERT INTO botw_upgrade_materials (upgrade_id, material, quantity)
SELECT u.id, v.material, v.quantity
FROM botw_armor a
JOIN botw_armor_upgrades u ON u.armor_id = a.id
JOIN (VALUES
	('Hylian', 1, 'Bokoblin Horn', 5),
	('Hylian', 2, 'Bokoblin Horn', 8), ('Hylian', 2, 'Bokoblin Fang', 5),
	('Hylian', 3, 'Bokoblin Fang', 10), ('Hylian', 3, 'Bokoblin Guts', 5),
	('Hylian', 4, 'Bokoblin Guts', 15), ('Hylian', 4, 'Amber', 30),
	('Zora', 1, 'Lizalfos Horn', 3),
	('Zora', 2, 'Lizalfos Talon', 5), ('Zora', 2, 'Hyrule Bass', 5),
	('Zora', 3, 'Lizalfos Tail', 5), ('Zora', 3, 'Hearty Bass', 5),
	('Zora', 4, 'Lizalfos Tail', 10), ('Zora', 4, 'Opal', 15),
	('Snowquill', 1, 'Red Chuchu Jelly', 3),
	('Snowquill', 2, 'Red Chuchu Jelly', 5), ('Snowquill', 2, 'Warm Safflina', 3),
	('Snowquill', 3, 'Fire Keese Wing', 8), ('Snowquill', 3, 'Sunshroom', 5),
	('Snowquill', 4, 'Red Lizalfos Tail', 10), ('Snowquill', 4, 'Ruby', 5),
	('Desert Voe', 1, 'White Chuchu Jelly', 3),
	('Desert Voe', 2, 'White Chuchu Jelly', 5), ('Desert Voe', 2, 'Cool Safflina', 3),
	('Desert Voe', 3, 'Ice Keese Wing', 8), ('Desert Voe', 3, 'Chillshroom', 5),
	('Desert Voe', 4, 'Ice Lizalfos Tail', 10), ('Desert Voe', 4, 'Sapphire', 5),
	('Ancient', 1, 'Ancient Screw', 5), ('Ancient', 1, 'Ancient Spring', 5),
	('Ancient', 2, 'Ancient Spring', 15), ('Ancient', 2, 'Ancient Gear', 10),
	('Ancient', 3, 'Ancient Shaft', 15), ('Ancient', 3, 'Ancient Core', 5),
	('Ancient', 4, 'Giant Ancient Core', 2), ('Ancient', 4, 'Star Fragment', 1)
) AS v(set_name, tier, material, quantity) ON a.set_name = v.set_name AND u.tier = v.tier
ON CONFLICT (upgrade_id, material) DO NOTHING;
`}
