package moderation

var DBSchemas = []string{`
CREATE TABLE IF NOT EXISTS guild_mod_config (
	id BIGINT PRIMARY KEY,
	raid_mode SMALLINT NOT NULL DEFAULT 0,
	broadcast_channel BIGINT,
	mention_count SMALLINT,
	safe_mention_channel_ids BIGINT[]
);
`}
