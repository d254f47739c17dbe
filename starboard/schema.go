package starboard

// starboard is keyed on the guild id. Entries hang off it and starrers hang
// off entries, both over cascading foreign keys so dropping a board clears
// everything underneath it in one statement.
var DBSchemas = []string{`
CREATE TABLE IF NOT EXISTS starboard (
	id BIGINT PRIMARY KEY,
	channel_id BIGINT NOT NULL,
	threshold INT NOT NULL DEFAULT 1,
	locked BOOLEAN NOT NULL DEFAULT false,
	max_age INTERVAL NOT NULL DEFAULT '7 days'
);
`, `
CREATE TABLE IF NOT EXISTS starboard_entries (
	id BIGSERIAL PRIMARY KEY,
	bot_message_id BIGINT,
	message_id BIGINT NOT NULL UNIQUE,
	channel_id BIGINT NOT NULL,
	author_id BIGINT NOT NULL,
	guild_id BIGINT NOT NULL REFERENCES starboard (id) ON DELETE CASCADE,
	total INT NOT NULL DEFAULT 0
);
`, `
CREATE INDEX IF NOT EXISTS starboard_entries_bot_message_id_idx ON starboard_entries (bot_message_id);
`, `
CREATE INDEX IF NOT EXISTS starboard_entries_guild_id_idx ON starboard_entries (guild_id);
`, `
CREATE TABLE IF NOT EXISTS starrers (
	id BIGSERIAL PRIMARY KEY,
	author_id BIGINT NOT NULL,
	entry_id BIGINT NOT NULL REFERENCES starboard_entries (id) ON DELETE CASCADE,
	UNIQUE (author_id, entry_id)
);
`, `
CREATE INDEX IF NOT EXISTS starrers_entry_id_idx ON starrers (entry_id);
`, `
CREATE TABLE IF NOT EXISTS star_givers (
	id BIGSERIAL PRIMARY KEY,
	author_id BIGINT NOT NULL,
	guild_id BIGINT NOT NULL,
	total INT NOT NULL DEFAULT 0,
	UNIQUE (author_id, guild_id)
);
`}
