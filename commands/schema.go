package commands

var DBSchemas = []string{`
CREATE TABLE IF NOT EXISTS command_config (
	id BIGSERIAL PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),

	guild_id BIGINT NOT NULL,
	-- null means the rule applies to the whole server
	channel_id BIGINT,
	name TEXT NOT NULL,
	whitelist BOOLEAN NOT NULL
);
`, `
CREATE UNIQUE INDEX IF NOT EXISTS command_config_channel_uniq_idx ON command_config (guild_id, channel_id, name) WHERE channel_id IS NOT NULL;
`, `
CREATE UNIQUE INDEX IF NOT EXISTS command_config_guild_uniq_idx ON command_config (guild_id, name) WHERE channel_id IS NULL;
`, `
CREATE INDEX IF NOT EXISTS command_config_guild_idx ON command_config (guild_id);
`, `
CREATE TABLE IF NOT EXISTS plonks (
	id BIGSERIAL PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),

	guild_id BIGINT NOT NULL,
	-- a user or channel id, or the guild id itself to ignore the whole server
	entity_id BIGINT NOT NULL
);
`, `
CREATE UNIQUE INDEX IF NOT EXISTS plonks_guild_entity_uniq_idx ON plonks (guild_id, entity_id);
`}
