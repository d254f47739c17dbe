package common

import (
	"log"

	"github.com/sirupsen/logrus"
)

// GetPluginLogger returns a logger prefixed with the plugin's sysname.
func GetPluginLogger(plugin Plugin) *logrus.Entry {
	return GetFixedPrefixLogger(plugin.PluginInfo().SysName)
}

// GetFixedPrefixLogger returns a logger with the "p" field set to prefix.
func GetFixedPrefixLogger(prefix string) *logrus.Entry {
	return logrus.WithField("p", prefix)
}

func AddLogHook(hook logrus.Hook) {
	logrus.AddHook(hook)
}

func SetLogFormatter(formatter logrus.Formatter) {
	logrus.SetFormatter(formatter)
}

func SetLoggingLevel(level logrus.Level) {
	logrus.SetLevel(level)
}

// RedirectStdLog routes the standard library logger (used by some
// dependencies) through logrus.
func RedirectStdLog() {
	log.SetFlags(0)
	log.SetOutput(&STDLogProxy{})
}
