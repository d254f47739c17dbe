// Package backgroundworkers runs the plugins' periodic jobs in a process
// separate from the bot, they talk to the rest of the world through redis,
// postgres and a small rest server.
package backgroundworkers

import (
	"context"
	"net/http"
	"sync"

	"github.com/NYTimes/gziphandler"
	"github.com/lurelin/medli/common"
	"github.com/lurelin/medli/common/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"goji.io"
	"goji.io/pat"
)

var confHTTPAddr = config.RegisterOption("medli.bgworker_http_server_addr", "Background worker rest server address", "localhost:5004")

var RESTServerMuxer *goji.Mux

var restServer *http.Server

var logger = common.GetFixedPrefixLogger("bgworkers")

type BackgroundWorkerPlugin interface {
	RunBackgroundWorker()
	StopBackgroundWorker(wg *sync.WaitGroup)
}

func RunWorkers() {
	RESTServerMuxer = goji.NewMux()
	RESTServerMuxer.Use(gziphandler.GzipHandler)
	RESTServerMuxer.Handle(pat.Get("/metrics"), promhttp.Handler())

	for _, p := range common.Plugins {
		if bwc, ok := p.(BackgroundWorkerPlugin); ok {
			logger.Info("Running background worker: ", p.PluginInfo().Name)
			go bwc.RunBackgroundWorker()
		}
	}

	go runWebserver()
}

func StopWorkers(wg *sync.WaitGroup) {
	logger.Info("Shutting down http server...")
	if restServer != nil {
		restServer.Shutdown(context.Background())
	}

	for _, p := range common.Plugins {
		if bwc, ok := p.(BackgroundWorkerPlugin); ok {
			logger.Info("Stopping background worker: ", p.PluginInfo().Name)
			wg.Add(1)
			go bwc.StopBackgroundWorker(wg)
		}
	}
}

func runWebserver() {
	addr := confHTTPAddr.GetString()
	logger.Info("Starting bgworker http server on ", addr)

	restServer = &http.Server{
		Handler: RESTServerMuxer,
		Addr:    addr,
	}

	err := restServer.ListenAndServe()
	if err != nil {
		logger.WithError(err).Error("Failed starting http server")
	}
}
