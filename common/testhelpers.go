package common

import (
	"os"

	"github.com/jinzhu/gorm"
	"github.com/jmoiron/sqlx"
	"github.com/lurelin/medli/common/testutils"
)

// InitTest connects the shared postgres and redis handles against local test
// services. Connections that can't be established are left nil, tests check
// for that and skip themselves.
func InitTest() {
	Testing = true

	conn, err := testutils.ConnectPQ()
	if err == nil && conn.Ping() == nil {
		PQ = conn
		SQLX = sqlx.NewDb(PQ, "postgres")

		if gdb, gerr := gorm.Open("postgres", conn); gerr == nil {
			GORM = gdb
		}
	}

	redisAddr := os.Getenv("MEDLI_TEST_REDIS")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	err = connectRedis(redisAddr)
	if err != nil {
		RedisPool = nil
	}
}
