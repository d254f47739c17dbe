// Package pubsub propagates events between the running processes over redis,
// for example the bot invalidating a config cache entry that the background
// worker process also holds.
package pubsub

import (
	"encoding/json"
	"fmt"
	"reflect"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lurelin/medli/common"
	"github.com/mediocregopher/radix/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Event struct {
	TargetGuild    string // the guild this event was meant for, -1 for all
	TargetGuildInt int64
	EventName      string
	Data           interface{}
}

type eventHandler struct {
	evt     string
	handler func(*Event)
}

var (
	eventHandlers = make([]*eventHandler, 0)
	handlersMU    sync.RWMutex
	eventTypes    = make(map[string]reflect.Type)

	logger = common.GetFixedPrefixLogger("pubsub")
)

var metricsPubsubHandled = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "medli_pubsub_events_handled_total",
	Help: "Pubsub events handled",
}, []string{"event"})

var metricsPubsubSent = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "medli_pubsub_events_sent_total",
	Help: "Pubsub events sent",
}, []string{"event"})

var metricsPubsubSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "medli_pubsub_events_skipped_total",
	Help: "Pubsub events skipped (no handler, bad payload)",
}, []string{"event"})

// AddHandler registers a handler for the named event, t is an instance of
// the payload type or nil for payload-less events. Only call during startup.
func AddHandler(evt string, cb func(*Event), t interface{}) {
	handlersMU.Lock()
	defer handlersMU.Unlock()

	if t != nil {
		eventTypes[evt] = reflect.TypeOf(t)
	}

	eventHandlers = append(eventHandlers, &eventHandler{
		evt:     evt,
		handler: cb,
	})

	logger.WithField("evt", evt).Debug("Added event handler")
}

// Publish publishes the event to all processes, set target to -1 to address
// all guilds.
func Publish(evt string, target int64, data interface{}) error {
	dataStr := ""
	if data != nil {
		encoded, err := json.Marshal(data)
		if err != nil {
			return err
		}
		dataStr = string(encoded)
	}

	value := fmt.Sprintf("%d,%s,%s", target, evt, dataStr)
	metricsPubsubSent.With(prometheus.Labels{"event": evt}).Inc()
	return common.RedisPool.Do(radix.Cmd(nil, "PUBLISH", "events", value))
}

func PublishLogErr(evt string, target int64, data interface{}) {
	err := Publish(evt, target, data)
	if err != nil {
		logger.WithError(err).WithField("evt", evt).WithField("target", target).Error("failed publishing event")
	}
}

// PollEvents subscribes to the event channel and dispatches forever,
// resubscribing if the connection dies. Meant to be run as a goroutine.
func PollEvents() {
	registerBuiltinHandlers()

	for {
		err := runPollEvents()
		logger.WithError(err).Error("subscription for events ended, starting a new one...")
		time.Sleep(time.Second)
	}
}

func runPollEvents() error {
	logger.Info("Listening for pubsub events")

	conn, err := radix.PersistentPubSubWithOpts("tcp", common.RedisAddr)
	if err != nil {
		return err
	}

	msgChan := make(chan radix.PubSubMessage, 100)
	if err := conn.Subscribe(msgChan, "events"); err != nil {
		return err
	}

	for msg := range msgChan {
		if len(msg.Message) < 1 {
			continue
		}

		handlersMU.RLock()
		handleEvent(string(msg.Message))
		handlersMU.RUnlock()
	}

	logger.Error("Stopped listening for pubsub events")
	return nil
}

func handleEvent(evt string) {
	split := strings.SplitN(evt, ",", 3)
	if len(split) < 3 {
		logger.WithField("evt", evt).Error("Invalid event")
		return
	}

	target := split[0]
	name := split[1]
	data := split[2]

	t, hasType := eventTypes[name]
	if !hasType && data != "" {
		logger.WithField("evt", name).Debug("No handler for pubsub event")
		metricsPubsubSkipped.With(prometheus.Labels{"event": name}).Inc()
		return
	}

	var decoded interface{}
	if data != "" && t != nil {
		decoded = reflect.New(t).Interface()
		err := json.Unmarshal([]byte(data), decoded)
		if err != nil {
			logger.WithError(err).Error("Failed unmarshaling event")
			return
		}
	} else if t != nil {
		logger.WithField("evt", name).Error("No data provided for event that requires data")
		return
	}

	parsedTarget, _ := strconv.ParseInt(target, 10, 64)
	event := &Event{
		TargetGuild:    target,
		TargetGuildInt: parsedTarget,
		EventName:      name,
		Data:           decoded,
	}

	defer func() {
		if r := recover(); r != nil {
			stack := string(debug.Stack())
			logger.Error("Recovered from panic in pubsub event handler", r, "\n", stack)
		}
	}()

	metricsPubsubHandled.With(prometheus.Labels{"event": name}).Inc()

	for _, handler := range eventHandlers {
		if handler.evt != name {
			continue
		}

		handler.handler(event)
	}
}
