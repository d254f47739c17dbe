// Package run ties the processes together, one binary runs as the bot, the
// background worker, the ops web server or all of them based on flags.
package run

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/lurelin/medli/bot"
	"github.com/lurelin/medli/commands"
	"github.com/lurelin/medli/common"
	"github.com/lurelin/medli/common/backgroundworkers"
	"github.com/lurelin/medli/common/config"
	"github.com/lurelin/medli/common/pubsub"
	"github.com/lurelin/medli/common/sentryhook"
	"github.com/lurelin/medli/web"
	log "github.com/sirupsen/logrus"
)

var (
	flagRunBot        bool
	flagRunWeb        bool
	flagRunBWC        bool
	flagRunEverything bool

	flagDryRun bool

	flagLogTimestamp bool

	flagSysLog        bool
	flagGenCmdDocs    bool
	flagGenConfigDocs bool

	flagLogAppName string

	flagVersion bool
)

var confSentryDSN = config.RegisterOption("medli.sentry_dsn", "Sentry credentials for the sentry logging hook", nil)

func init() {
	flag.BoolVar(&flagRunBot, "bot", false, "Set to run the discord bot")
	flag.BoolVar(&flagRunWeb, "web", false, "Set to run the ops webserver")
	flag.BoolVar(&flagRunBWC, "backgroundworkers", false, "Run the background workers, at least one process needs this")
	flag.BoolVar(&flagRunEverything, "all", false, "Set to run everything (bot, webserver and background workers)")
	flag.BoolVar(&flagDryRun, "dry", false, "Do a dry run, initialize all plugins but don't actually start anything")
	flag.BoolVar(&flagSysLog, "syslog", false, "Set to log to syslog (only linux)")
	flag.StringVar(&flagLogAppName, "logappname", "medli", "When using syslog, the application name will be set to this")
	flag.BoolVar(&flagGenCmdDocs, "gencmddocs", false, "Generate command docs and exit")
	flag.BoolVar(&flagGenConfigDocs, "genconfigdocs", false, "Generate config docs and exit")

	flag.BoolVar(&flagLogTimestamp, "ts", false, "Set to include timestamps in log")
	flag.BoolVar(&flagVersion, "version", false, "Print the version and exit")
}

func Init() {
	if !flag.Parsed() {
		flag.Parse()
	}

	if flagVersion {
		fmt.Println(common.VERSION)
		os.Exit(0)
	}

	common.AddLogHook(common.ContextHook{})

	common.SetLogFormatter(&log.TextFormatter{
		DisableTimestamp: !flagLogTimestamp && !common.Testing,
		ForceColors:      common.Testing,
		SortingFunc:      logrusSortingFunc,
	})

	if flagSysLog {
		AddSyslogHooks()
	}

	if !flagRunBot && !flagRunWeb && !flagRunBWC && !flagRunEverything && !flagDryRun && !flagGenCmdDocs && !flagGenConfigDocs {
		log.Error("Didn't specify what to run, see -h for more info")
		os.Exit(1)
	}

	log.Info("Starting medli version " + common.VERSION)

	err := common.CoreInit(true)
	if err != nil {
		log.WithError(err).Fatal("Failed running core init")
	}

	if confSentryDSN.GetString() != "" {
		addSentryHook()
	}

	err = common.Init()
	if err != nil {
		log.WithError(err).Fatal("Failed initializing")
	}

	log.Info("Starting plugins")
}

func Run() {
	if flagDryRun {
		log.Println("This is a dry run, exiting")
		return
	}

	if flagRunBot || flagRunEverything {
		bot.Enabled = true
	}

	commands.InitCommands()

	if flagGenCmdDocs {
		GenCommandDocs()
		return
	}

	if flagGenConfigDocs {
		GenConfigDocs()
		return
	}

	if flagRunWeb || flagRunEverything {
		go web.Run()
	}

	if flagRunBot || flagRunEverything {
		bot.Run()
	}

	if flagRunBWC || flagRunEverything {
		go backgroundworkers.RunWorkers()
	}

	go pubsub.PollEvents()

	common.SetShutdownFunc(shutdown)
	listenSignal()
}

func listenSignal() {
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	<-c
	common.Shutdown()
}

func shutdown() {
	log.Info("SHUTTING DOWN...")

	shouldWait := false
	wg := new(sync.WaitGroup)

	if flagRunBot || flagRunEverything {
		wg.Add(1)
		go bot.Stop(wg)
		shouldWait = true
	}

	if flagRunWeb || flagRunEverything {
		web.Stop()
	}

	if flagRunBWC || flagRunEverything {
		backgroundworkers.StopWorkers(wg)
		shouldWait = true
	}

	if shouldWait {
		log.Info("Waiting for things to shut down...")
		wg.Wait()
	}

	// some work runs in untracked goroutines, give it a moment to finish
	log.Info("Sleeping for a second to allow work to finish")
	time.Sleep(time.Second)

	log.Info("Bye..")
	os.Exit(0)
}

func addSentryHook() {
	err := sentry.Init(sentry.ClientOptions{
		Dsn: confSentryDSN.GetString(),
	})

	if err != nil {
		log.WithError(err).Error("Failed adding sentry hook")
		return
	}

	common.AddLogHook(&sentryhook.Hook{})
	log.Info("Added Sentry Hook")
}

var logSortPriority = []string{
	"time",
	"level",
	"p",
	"msg",
	"stck",
}

func logrusSortingFunc(fields []string) {
	sort.Slice(fields, func(i, j int) bool {
		iPriority := findStringIndex(logSortPriority, fields[i])
		jPriority := findStringIndex(logSortPriority, fields[j])

		if iPriority != -1 && jPriority == -1 {
			return true
		} else if jPriority != -1 && iPriority == -1 {
			return false
		} else if iPriority == -1 && jPriority == -1 {
			return strings.Compare(fields[i], fields[j]) < 0
		}

		// both have priority
		return iPriority < jPriority
	})
}

func findStringIndex(slice []string, s string) int {
	for i, v := range slice {
		if v == s {
			return i
		}
	}

	return -1
}
