package timezones

var DBSchemas = []string{`
CREATE TABLE IF NOT EXISTS user_timezones (
	user_id BIGINT PRIMARY KEY,
	timezone_name TEXT NOT NULL,
	-- servers where the user opted into being listed on the timezone board
	guild_ids BIGINT[] NOT NULL DEFAULT '{}'
);
`}
