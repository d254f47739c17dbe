package common

import (
	"database/sql"
	"fmt"
	"math/rand"
	"time"

	"emperror.dev/errors"
	"github.com/bwmarrin/discordgo"
	"github.com/cenkalti/backoff"
	"github.com/jinzhu/gorm"
	"github.com/jmoiron/sqlx"
	"github.com/lurelin/medli/common/cacheset"
	"github.com/lurelin/medli/common/config"
	"github.com/mediocregopher/radix/v3"
	"github.com/sirupsen/logrus"

	_ "github.com/jinzhu/gorm/dialects/postgres"
	_ "github.com/lib/pq"
)

const (
	VERSION = "1.6.0"
)

var (
	RedisPool *radix.Pool

	// RedisAddr is the resolved redis address, some places need to open
	// their own connections outside the pool (pubsub subscriptions).
	RedisAddr string

	PQ   *sql.DB
	SQLX *sqlx.DB
	GORM *gorm.DB

	// CacheSet holds the process local caches that get evicted through pubsub.
	CacheSet = cacheset.NewManager(time.Minute * 10)

	// BotSession is the main discord session, set by the bot package during
	// setup, before any plugin init runs.
	BotSession *discordgo.Session

	Testing bool // set by the test harness, relaxes some fatal paths

	logger = GetFixedPrefixLogger("common")
)

// CoreInit sets up redis and the config system, everything else depends on
// those two being up first.
func CoreInit(loadConfig bool) error {
	rand.Seed(time.Now().UnixNano())

	config.AddSource(&config.EnvSource{})

	// the redis address itself can only come from the env
	config.Load()

	err := connectRedis(confRedis.GetString())
	if err != nil {
		return err
	}

	// values stored in redis override the env
	config.AddSource(&config.RedisConfigStore{Pool: RedisPool})

	if loadConfig {
		config.Load()
	}

	return nil
}

// Init connects the rest: postgres and gorm/sqlx on top of it. CoreInit has
// to have been called before this.
func Init() error {
	err := connectDB(confPQHost.GetString(), confPQUsername.GetString(),
		confPQPassword.GetString(), confPQDB.GetString(), confMaxSQLConns.GetInt())
	if err != nil {
		return errors.WithMessage(err, "connectDB")
	}

	return nil
}

func connectRedis(addr string) error {
	RedisAddr = addr

	var err error
	// periodic pings so dead pool connections get replaced
	RedisPool, err = radix.NewPool("tcp", addr, 25, radix.PoolPingInterval(time.Second*10))
	if err != nil {
		logger.WithError(err).Error("failed connecting to redis")
	}

	return err
}

func connectDB(host, user, pass, dbName string, maxConns int) error {
	if host == "" {
		host = "localhost"
	}

	passwordPart := ""
	if pass != "" {
		passwordPart = " password='" + pass + "'"
	}

	dsn := fmt.Sprintf("host=%s user=%s dbname=%s sslmode=disable%s", host, user, dbName, passwordPart)

	var db *gorm.DB
	// retry for a little while on startup, we're most likely racing the
	// postgres container coming up
	err := backoff.Retry(func() error {
		var innerErr error
		db, innerErr = gorm.Open("postgres", dsn)
		if innerErr != nil {
			logger.WithError(innerErr).Warn("failed connecting to postgres, retrying...")
		}
		return innerErr
	}, backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Second), 30))

	if err != nil {
		return errors.WithStackIf(err)
	}

	GORM = db
	PQ = db.DB()
	SQLX = sqlx.NewDb(PQ, "postgres")
	PQ.SetMaxOpenConns(maxConns)
	GORM.SetLogger(&GORMLogger{})

	return nil
}

type GORMLogger struct{}

func (g *GORMLogger) Print(params ...interface{}) {
	logger.WithField("part", "gorm").Error(params...)
}

var shutdownFunc func()

// SetShutdownFunc sets the function called by Shutdown, may only be called
// once, by the run package.
func SetShutdownFunc(f func()) {
	if shutdownFunc != nil {
		panic("shutdown function already set")
	}

	shutdownFunc = f
}

// Shutdown performs a graceful shutdown of the whole process.
func Shutdown() {
	if shutdownFunc == nil {
		logrus.Error("no shutdown function set")
		return
	}

	shutdownFunc()
}
