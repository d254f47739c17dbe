package config

import (
	"strings"

	"github.com/mediocregopher/radix/v3"
	"github.com/sirupsen/logrus"
)

// RedisConfigStore reads options from the medli_config redis hash, which is
// how settings get changed at runtime without restarting with new env vars.
type RedisConfigStore struct {
	Pool *radix.Pool
}

func (rs *RedisConfigStore) GetValue(key string) interface{} {
	prefixStripped := strings.TrimPrefix(key, "medli.")

	var v string
	err := rs.Pool.Do(radix.Cmd(&v, "HGET", "medli_config", prefixStripped))
	if err != nil {
		logrus.WithError(err).Error("[redis_config_source] failed retrieving value")
		return nil
	}

	if v == "" {
		return nil
	}

	return v
}

func (rs *RedisConfigStore) SaveValue(key, value string) error {
	prefixStripped := strings.TrimPrefix(key, "medli.")

	return rs.Pool.Do(radix.Cmd(nil, "HSET", "medli_config", prefixStripped, value))
}

func (rs *RedisConfigStore) Name() string {
	return "redis"
}
