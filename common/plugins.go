package common

import (
	"github.com/sirupsen/logrus"
)

var (
	Plugins []Plugin
)

type PluginCategory struct {
	Name string
}

var (
	PluginCategoryCore       = &PluginCategory{Name: "Core"}
	PluginCategoryModeration = &PluginCategory{Name: "Moderation"}
	PluginCategoryFeature    = &PluginCategory{Name: "Feature"}
	PluginCategoryTool       = &PluginCategory{Name: "Tool"}
	PluginCategoryFun        = &PluginCategory{Name: "Fun"}
)

type PluginInfo struct {
	Name     string // Human readable name of the plugin
	SysName  string // snake_case version of the name in lower case
	Category *PluginCategory
}

// Plugin is the bare minimum all plugins need to implement, the optional
// lifecycle hooks live in the bot and backgroundworkers packages.
type Plugin interface {
	PluginInfo() *PluginInfo
}

// RegisterPlugin registers a plugin, call this from the plugin's
// RegisterPlugin function during startup.
func RegisterPlugin(plugin Plugin) {
	Plugins = append(Plugins, plugin)
	logrus.Debug("registered plugin: " + plugin.PluginInfo().Name)
}

// FindPlugin returns the registered plugin with the given sysname, nil if not
// found.
func FindPlugin(sysName string) Plugin {
	for _, v := range Plugins {
		if v.PluginInfo().SysName == sysName {
			return v
		}
	}

	return nil
}
