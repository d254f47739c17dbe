package web

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lurelin/medli/bot"
	"github.com/lurelin/medli/common"
	"github.com/lurelin/medli/common/scheduledevents"
	"github.com/mediocregopher/radix/v3"
	"github.com/shirou/gopsutil/load"
	"github.com/shirou/gopsutil/mem"
)

type healthzResponse struct {
	OK       bool   `json:"ok"`
	Redis    string `json:"redis"`
	Postgres string `json:"postgres"`
}

// handleHealthz pings both stores, a single broken one fails the whole check.
func handleHealthz(c *gin.Context) {
	resp := &healthzResponse{OK: true, Redis: "ok", Postgres: "ok"}

	if err := common.RedisPool.Do(radix.Cmd(nil, "PING")); err != nil {
		resp.OK = false
		resp.Redis = err.Error()
	}

	if err := common.PQ.Ping(); err != nil {
		resp.OK = false
		resp.Postgres = err.Error()
	}

	status := http.StatusOK
	if !resp.OK {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, resp)
}

type statusResponse struct {
	Version       string  `json:"version"`
	GoVersion     string  `json:"go_version"`
	Uptime        string  `json:"uptime"`
	Guilds        int     `json:"guilds"`
	Goroutines    int     `json:"goroutines"`
	HeapAllocMB   float64 `json:"heap_alloc_mb"`
	SysMB         float64 `json:"sys_mb"`
	SysMemUsedPct float64 `json:"sys_mem_used_pct"`
	Load1         float64 `json:"load_1"`
	Load5         float64 `json:"load_5"`
	Load15        float64 `json:"load_15"`
	PendingTimers int64   `json:"pending_timers"`
	BotRunning    bool    `json:"bot_running"`
}

func handleStatus(c *gin.Context) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	resp := &statusResponse{
		Version:     common.VERSION,
		GoVersion:   runtime.Version(),
		Uptime:      common.HumanizeDuration(common.DurationPrecisionSeconds, time.Since(bot.Started)),
		Guilds:      bot.GuildCount(),
		Goroutines:  runtime.NumGoroutine(),
		HeapAllocMB: float64(memStats.Alloc) / 1000000,
		SysMB:       float64(memStats.Sys) / 1000000,
		BotRunning:  bot.Running,
	}

	if sysMem, err := mem.VirtualMemory(); err == nil {
		resp.SysMemUsedPct = sysMem.UsedPercent
	} else {
		logger.WithError(err).Error("Failed collecting memory stats")
	}

	if sysLoad, err := load.Avg(); err == nil {
		resp.Load1 = sysLoad.Load1
		resp.Load5 = sysLoad.Load5
		resp.Load15 = sysLoad.Load15
	} else {
		logger.WithError(err).Error("Failed collecting load stats")
	}

	pending, err := scheduledevents.PendingCount()
	if err != nil {
		logger.WithError(err).Error("Failed counting pending timers")
	}
	resp.PendingTimers = pending

	c.JSON(http.StatusOK, resp)
}
