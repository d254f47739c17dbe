// Package web runs the internal ops api, a small gin server the host pokes
// for liveness and runtime stats. It binds to localhost by default and
// carries no auth, anything that can reach it is already on the box.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/gin-gonic/gin"
	"github.com/lurelin/medli/common"
	"github.com/lurelin/medli/common/config"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	confListenAddr = config.RegisterOption("medli.web.listen_addr", "Ops api listen address", "localhost:5000")
	confAccessLog  = config.RegisterOption("medli.web.access_log", "Ops api access log path, empty logs through the process logger", "access.log")

	server *http.Server

	logger = common.GetFixedPrefixLogger("web")
)

// Run starts the ops api and blocks until Stop shuts it down.
func Run() {
	addr := confListenAddr.GetString()
	logger.Info("Starting the ops api on ", addr)

	server = &http.Server{
		Addr:    addr,
		Handler: gziphandler.GzipHandler(setupEngine()),
	}

	err := server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		logger.WithError(err).Error("Ops api server failed")
	}
}

func setupEngine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(accessLogger())

	engine.GET("/healthz", handleHealthz)
	engine.GET("/status", handleStatus)

	return engine
}

// Stop drains in flight requests before tearing the listener down.
func Stop() {
	if server == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	server.Shutdown(ctx)
}

// accessLogger writes one line per request, to a rotated file when a path is
// configured, otherwise through the process logger.
func accessLogger() gin.HandlerFunc {
	target := logrus.NewEntry(logrus.StandardLogger())

	if path := confAccessLog.GetString(); path != "" {
		accessLog := logrus.New()
		accessLog.SetFormatter(&logrus.TextFormatter{DisableColors: true})
		accessLog.SetOutput(&lumberjack.Logger{
			Filename:   path,
			MaxSize:    10,
			MaxBackups: 3,
		})
		target = logrus.NewEntry(accessLog)
	}

	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		target.WithFields(logrus.Fields{
			"status": c.Writer.Status(),
			"took":   time.Since(started).Round(time.Millisecond).String(),
			"remote": c.ClientIP(),
		}).Info(c.Request.Method, " ", c.Request.URL.Path)
	}
}
