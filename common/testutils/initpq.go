package testutils

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	// postgres driver
	_ "github.com/lib/pq"
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}

// ConnectPQ connects to the test postgres database, configured through the
// MEDLI_TEST_PQ_* environment variables.
func ConnectPQ() (*sql.DB, error) {
	host := envOr("MEDLI_TEST_PQ_HOST", "localhost")
	user := envOr("MEDLI_TEST_PQ_USER", "medli_test")
	password := os.Getenv("MEDLI_TEST_PQ_PASSWORD")
	sslMode := envOr("MEDLI_TEST_PQ_SSLMODE", "disable")
	dbName := envOr("MEDLI_TEST_PQ_DB", "medli_test")

	// tests drop and truncate tables freely, refuse anything that doesn't
	// look like a dedicated test database
	if !strings.Contains(dbName, "test") {
		panic("test database name has to contain 'test', refusing to run against " + dbName)
	}

	connStr := fmt.Sprintf("host=%s user=%s dbname=%s sslmode=%s password='%s'", host, user, dbName, sslMode, password)
	fmt.Printf("Postgres connection string being used: host=%s user=%s dbname=%s sslmode=%s password='***'\n", host, user, dbName, sslMode)

	return sql.Open("postgres", connStr)
}

// InitTables drops the provided tables and runs the schema statements fresh.
func InitTables(db *sql.DB, dropTables []string, initQueries []string) error {
	for _, v := range dropTables {
		_, err := db.Exec("DROP TABLE IF EXISTS " + v)
		if err != nil {
			return err
		}
	}

	for _, v := range initQueries {
		_, err := db.Exec(v)
		if err != nil {
			return err
		}
	}

	return nil
}

// InitPQ is a helper that calls both ConnectPQ and InitTables.
func InitPQ(dropTables []string, initQueries []string) (*sql.DB, error) {
	db, err := ConnectPQ()
	if err != nil {
		return nil, err
	}

	err = InitTables(db, dropTables, initQueries)
	return db, err
}

// ClearTables deletes all rows from the tables and panics on error, meant
// for test cleanup defers.
func ClearTables(db *sql.DB, tables ...string) {
	for _, v := range tables {
		_, err := db.Exec("DELETE FROM " + v + ";")
		if err != nil {
			panic(err)
		}
	}
}
