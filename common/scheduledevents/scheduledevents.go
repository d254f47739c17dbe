// Package scheduledevents persists timers in postgres so they survive
// restarts. Events triggering within the next hour get mirrored into a redis
// sorted set that the bot polls every second, everything further out is
// picked up by the flush loop as its time approaches.
package scheduledevents

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"reflect"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"emperror.dev/errors"
	"github.com/bwmarrin/discordgo"
	"github.com/lurelin/medli/bot"
	"github.com/lurelin/medli/common"
	"github.com/mediocregopher/radix/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/volatiletech/null/v8"
)

var _ bot.LateBotInitHandler = (*ScheduledEvents)(nil)
var _ bot.BotStopperHandler = (*ScheduledEvents)(nil)

const soonQueueKey = "scheduled_events_soon"

type ScheduledEvent struct {
	ID         int64       `db:"id"`
	CreatedAt  time.Time   `db:"created_at"`
	TriggersAt time.Time   `db:"triggers_at"`
	GuildID    int64       `db:"guild_id"`
	EventName  string      `db:"event_name"`
	Data       []byte      `db:"data"`
	Processed  bool        `db:"processed"`
	Error      null.String `db:"error"`
}

type ScheduledEvents struct {
	stop chan *sync.WaitGroup

	currentlyProcessingMU sync.Mutex
	currentlyProcessing   map[int64]bool

	stopBGWorker chan *sync.WaitGroup
}

func newScheduledEventsPlugin() *ScheduledEvents {
	return &ScheduledEvents{
		stop:                make(chan *sync.WaitGroup),
		currentlyProcessing: make(map[int64]bool),
		stopBGWorker:        make(chan *sync.WaitGroup),
	}
}

func (p *ScheduledEvents) PluginInfo() *common.PluginInfo {
	return &common.PluginInfo{
		Name:     "Scheduled Events",
		SysName:  "scheduled_events",
		Category: common.PluginCategoryCore,
	}
}

func RegisterPlugin() {
	common.InitSchemas("scheduledevents", DBSchemas...)

	common.RegisterPlugin(newScheduledEventsPlugin())
}

type HandlerFunc func(evt *ScheduledEvent, data interface{}) (retry bool, err error)

type RegisteredHandler struct {
	EvtName    string
	DataFormat interface{}
	Handler    HandlerFunc
}

var (
	registeredHandlers = make(map[string]*RegisteredHandler)
	running            bool
	logger             = common.GetPluginLogger(&ScheduledEvents{})
)

var errNotOnGuild = errors.NewPlain("no longer on this server")

// RegisterHandler registers a handler for the specified event name,
// dataFormat should not be a pointer and has to match the type passed into
// ScheduleEvent. Only call during startup.
func RegisterHandler(eventName string, dataFormat interface{}, handler HandlerFunc) {
	if running {
		panic("tried adding scheduled event handler after startup")
	}

	registeredHandlers[eventName] = &RegisteredHandler{
		EvtName:    eventName,
		DataFormat: dataFormat,
		Handler:    handler,
	}

	logger.Debug("Registered handler for ", eventName)
}

// ScheduleEvent stores the event for execution at runAt.
func ScheduleEvent(evtName string, guildID int64, runAt time.Time, data interface{}) error {
	encoded := []byte("{}")
	if data != nil {
		var err error
		encoded, err = json.Marshal(data)
		if err != nil {
			return errors.WithMessage(err, "marshal")
		}
	}

	const q = `INSERT INTO scheduled_events (created_at, triggers_at, guild_id, event_name, data, processed)
VALUES (now(), $1, $2, $3, $4, false) RETURNING id`

	var id int64
	err := common.PQ.QueryRow(q, runAt, guildID, evtName, encoded).Scan(&id)
	if err != nil {
		return errors.WithStackIf(err)
	}

	if time.Now().Add(time.Hour).After(runAt) {
		err = flushEventToRedis(id, guildID, runAt)
	}

	return errors.WithMessage(err, "flush")
}

func (se *ScheduledEvents) LateBotInit() {
	running = true
	go se.runCheckLoop()
	go se.runFlushLoop()
}

func (se *ScheduledEvents) StopBot(wg *sync.WaitGroup) {
	// one done for the check loop, one for the flush loop
	wg.Add(1)
	se.stop <- wg
	se.stop <- wg
}

func (se *ScheduledEvents) runCheckLoop() {
	t := time.NewTicker(time.Second)
	for {
		select {
		case wg := <-se.stop:
			wg.Done()
			return
		case <-t.C:
			se.check()
		}
	}
}

// runFlushLoop mirrors upcoming events from postgres into the redis queue,
// ScheduleEvent only does that itself for events less than an hour out.
func (se *ScheduledEvents) runFlushLoop() {
	t := time.NewTicker(time.Minute)
	for {
		se.flushUpcoming()

		select {
		case wg := <-se.stop:
			wg.Done()
			return
		case <-t.C:
		}
	}
}

func (se *ScheduledEvents) flushUpcoming() {
	type upcoming struct {
		ID         int64     `db:"id"`
		GuildID    int64     `db:"guild_id"`
		TriggersAt time.Time `db:"triggers_at"`
	}

	var evts []upcoming
	err := common.SQLX.Select(&evts, "SELECT id, guild_id, triggers_at FROM scheduled_events WHERE processed=false AND triggers_at < $1", time.Now().Add(time.Hour))
	if err != nil {
		logger.WithError(err).Error("failed flushing upcoming events")
		return
	}

	for _, evt := range evts {
		err = flushEventToRedis(evt.ID, evt.GuildID, evt.TriggersAt)
		if err != nil {
			logger.WithError(err).Error("failed flushing event to redis")
		}
	}
}

func flushEventToRedis(id int64, guildID int64, triggersAt time.Time) error {
	return common.RedisPool.Do(radix.FlatCmd(nil, "ZADD", soonQueueKey,
		triggersAt.UTC().Unix(), fmt.Sprintf("%d:%d", id, guildID)))
}

// PendingCount returns the number of events waiting to trigger.
func PendingCount() (int64, error) {
	var count int64
	err := common.PQ.QueryRow("SELECT COUNT(*) FROM scheduled_events WHERE processed=false").Scan(&count)
	return count, errors.WithStackIf(err)
}

var metricsScheduledEventsProcessed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "medli_scheduledevents_processed_total",
	Help: "Total scheduled events processed",
})

var metricsScheduledEventsSkipped = promauto.NewCounter(prometheus.CounterOpts{
	Name: "medli_scheduledevents_skipped_total",
	Help: "Total scheduled events skipped",
})

func (se *ScheduledEvents) check() {
	se.currentlyProcessingMU.Lock()
	defer se.currentlyProcessingMU.Unlock()

	var pairs []string
	err := common.RedisPool.Do(radix.FlatCmd(&pairs, "ZRANGEBYSCORE", soonQueueKey, 0, time.Now().UTC().Unix()))
	if err != nil {
		logger.WithError(err).Error("failed checking for scheduled events to process")
		return
	}

	numSkipped := 0
	numHandling := 0
	for _, pair := range pairs {
		id, guildID, err := parseIDGuildIDPair(pair)
		if err != nil {
			logger.WithError(err).Error("failed parsing id:guild_id pair")
			continue
		}

		skip, remove := se.checkShouldSkipRemove(id, guildID)
		if remove {
			logger.WithField("id", id).WithField("guild", guildID).Info("removing event for a server we're no longer on")
			go se.markDoneID(id, guildID, errNotOnGuild)
			numSkipped++
			continue
		}

		if skip {
			numSkipped++
			continue
		}

		numHandling++
		se.currentlyProcessing[id] = true
		go se.processItem(id, guildID)
	}

	metricsScheduledEventsProcessed.Add(float64(numHandling))
	metricsScheduledEventsSkipped.Add(float64(numSkipped))

	if numHandling > 0 {
		logger.Info("triggered ", numHandling, " scheduled events (skipped ", numSkipped, ")")
	}
}

func (se *ScheduledEvents) checkShouldSkipRemove(id int64, guildID int64) (skip bool, remove bool) {
	if se.currentlyProcessing[id] {
		return true, false
	}

	// events not tied to a server (DM reminders) always run
	if guildID == 0 {
		return false, false
	}

	state := common.BotSession.State

	// hold off until the gateway has delivered the initial guilds
	state.RLock()
	ready := len(state.Guilds) > 0
	state.RUnlock()
	if !ready {
		return true, false
	}

	g, err := state.Guild(common.StrID(guildID))
	if err != nil {
		return true, true
	}

	if g.Unavailable {
		// wait until the guild comes back before handling this event
		return true, false
	}

	return false, false
}

var errBadPairLength = errors.NewPlain("id:guild_id pair corrupted")

func parseIDGuildIDPair(pair string) (id int64, guildID int64, err error) {
	split := strings.Split(pair, ":")
	if len(split) < 2 {
		err = errBadPairLength
		return
	}

	id, err = strconv.ParseInt(split[0], 10, 64)
	if err != nil {
		return
	}

	guildID, err = strconv.ParseInt(split[1], 10, 64)
	return
}

func (se *ScheduledEvents) processItem(id int64, guildID int64) {
	l := logger.WithField("id", id).WithField("guild", guildID)

	defer func() {
		se.currentlyProcessingMU.Lock()
		delete(se.currentlyProcessing, id)
		se.currentlyProcessingMU.Unlock()
	}()

	item := &ScheduledEvent{}
	err := common.SQLX.Get(item, "SELECT * FROM scheduled_events WHERE id=$1", id)
	if err != nil {
		if err == sql.ErrNoRows {
			// deleted under us, drop it from the queue
			se.markDoneID(id, guildID, nil)
		} else {
			l.WithError(err).Error("failed finding scheduled event")
		}
		return
	}

	if item.Processed {
		se.markDoneID(id, guildID, nil)
		return
	}

	// the event may have been rescheduled after it was flushed
	if time.Until(item.TriggersAt) > time.Second*5 {
		err = flushEventToRedis(item.ID, item.GuildID, item.TriggersAt)
		if err != nil {
			l.WithError(err).Error("failed re-flushing event")
		}
		return
	}

	handler, ok := registeredHandlers[item.EventName]
	if !ok {
		l.Error("unknown scheduled event: ", item.EventName)
		se.markDoneID(item.ID, item.GuildID, errors.NewPlain("no registered handler"))
		return
	}

	var decodedData interface{}
	if handler.DataFormat != nil {
		typ := reflect.TypeOf(handler.DataFormat)

		decodedData = reflect.New(typ).Interface()
		err := json.Unmarshal(item.Data, decodedData)
		if err != nil {
			l.WithError(err).Error("failed decoding event data")
			se.markDoneID(item.ID, item.GuildID, errors.WithMessage(err, "json"))
			return
		}
	}

	defer func() {
		if r := recover(); r != nil {
			stack := string(debug.Stack())
			l.Errorf("recovered from panic in scheduled event handler\n%v\n%v", r, stack)
		}
	}()

	retryDelay := time.Second
	for nRetry := 0; nRetry < 10; nRetry++ {
		var retry bool
		retry, err = handler.Handler(item, decodedData)
		if err != nil {
			l.WithError(err).Error("scheduled event handler returned an error")
		}

		if !retry {
			break
		}

		l.WithError(err).Warn("retrying handling scheduled event")
		time.Sleep(retryDelay)
		retryDelay *= 2
		if retryDelay > time.Second*10 {
			retryDelay = time.Second * 10
		}
	}

	se.markDoneID(item.ID, item.GuildID, err)
}

func (se *ScheduledEvents) markDoneID(id int64, guildID int64, runErr error) {
	var updateErr null.String
	if runErr != nil {
		updateErr = null.StringFrom(runErr.Error())
	}

	defer func() {
		se.currentlyProcessingMU.Lock()
		delete(se.currentlyProcessing, id)
		se.currentlyProcessingMU.Unlock()
	}()

	const q = "UPDATE scheduled_events SET processed=true, error=$2 WHERE id=$1"
	_, err := common.PQ.Exec(q, id, updateErr)
	if err != nil {
		logger.WithError(err).Error("failed marking item as processed")
		return
	}

	err = common.RedisPool.Do(radix.Cmd(nil, "ZREM", soonQueueKey, fmt.Sprintf("%d:%d", id, guildID)))
	if err != nil {
		logger.WithError(err).Error("failed removing item from the soon queue")
	}
}

// CheckDiscordErrRetry reports whether an error from a discord api call is
// worth retrying, proper api error responses won't change on a retry.
func CheckDiscordErrRetry(err error) bool {
	if err == nil {
		return false
	}

	err = errors.Cause(err)

	if cast, ok := err.(*discordgo.RESTError); ok {
		if cast.Message != nil && cast.Message.Code != 0 {
			return false
		}
	}

	if err == discordgo.ErrStateNotFound {
		return false
	}

	// unknown error unrelated to the discord api (502s for example)
	return true
}
