package common

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/mediocregopher/radix/v3"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// GetRedisJson runs a GET on key and unmarshals the value into out, a
// missing key leaves out untouched.
func GetRedisJson(key string, out interface{}) error {
	var raw []byte
	err := RedisPool.Do(radix.Cmd(&raw, "GET", key))
	if err != nil {
		return err
	}

	if len(raw) < 1 {
		return nil
	}

	return json.Unmarshal(raw, out)
}

// SetRedisJson marshals value and stores it at key.
func SetRedisJson(key string, value interface{}) error {
	serialized, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return RedisPool.Do(radix.Cmd(nil, "SET", key, string(serialized)))
}
