package config

import (
	"os"
	"strings"
)

// EnvSource maps option names onto environment variables, "medli.pq_host"
// is looked up as MEDLI_PQ_HOST.
type EnvSource struct{}

func (e *EnvSource) GetValue(key string) interface{} {
	properKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))

	v := os.Getenv(properKey)
	if v == "" {
		return nil
	}

	return v
}

func (e *EnvSource) Name() string {
	return "env"
}
