package common

import (
	"strconv"

	"github.com/lurelin/medli/common/config"
)

// Core config options, the feature specific ones live next to their plugins.
var (
	ConfBotToken = config.RegisterOption("medli.bot_token", "Discord bot token", "")
	ConfOwner    = config.RegisterOption("medli.owner", "ID of the bot owner", 0)

	confRedis      = config.RegisterOption("medli.redis", "Address of the redis server", "localhost:6379")
	confPQHost     = config.RegisterOption("medli.pq_host", "Postgres server hostname", "localhost")
	confPQUsername = config.RegisterOption("medli.pq_username", "Postgres user", "postgres")
	confPQPassword = config.RegisterOption("medli.pq_password", "Postgres password", "")
	confPQDB       = config.RegisterOption("medli.pq_db", "Postgres database name", "medli")

	confMaxSQLConns  = config.RegisterOption("medli.max_sql_connections", "Max open postgres connections", 5)
	confNoSchemaInit = config.RegisterOption("medli.no_schema_init", "Skip schema initialization on startup", false)

	ConfDefaultPrefix = config.RegisterOption("medli.default_prefix", "Default command prefix", "?")
)

// BotOwnerID returns the configured owner, 0 if not set.
func BotOwnerID() int64 {
	return int64(ConfOwner.GetInt())
}

// IsOwner reports whether the given discord user id string is the bot owner.
func IsOwner(userID string) bool {
	parsed, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return false
	}

	owner := BotOwnerID()
	return owner != 0 && parsed == owner
}
