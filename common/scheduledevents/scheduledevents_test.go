package scheduledevents

import (
	"sync"
	"testing"
	"time"

	"github.com/lurelin/medli/common"
	"github.com/lurelin/medli/common/testutils"
)

var servicesUp = false

func init() {
	common.InitTest()

	if common.PQ == nil || common.RedisPool == nil {
		return
	}

	err := testutils.InitTables(common.PQ, []string{"scheduled_events"}, DBSchemas)
	if err == nil {
		servicesUp = true
	}
}

func testStopPlugin(p *ScheduledEvents) {
	var wg sync.WaitGroup
	wg.Add(1)
	p.stop <- &wg
	wg.Wait()

	registeredHandlers = make(map[string]*RegisteredHandler)
	running = false
}

func TestScheduleHandle(t *testing.T) {
	if !servicesUp {
		t.Skip("postgres or redis not available, skipping.")
		return
	}

	doneChan := make(chan bool)
	RegisterHandler("test", nil, func(evt *ScheduledEvent, data interface{}) (retry bool, err error) {
		doneChan <- true
		return false, nil
	})

	p := newScheduledEventsPlugin()
	go p.runCheckLoop()
	defer testStopPlugin(p)

	err := ScheduleEvent("test", 0, time.Now().Add(time.Second), nil)
	if err != nil {
		t.Error("failed scheduling event: ", err)
		return
	}

	select {
	case <-time.After(time.Second * 5):
		t.Error("never handled event")
	case <-doneChan:
	}
}

func TestScheduleHandleSlow(t *testing.T) {
	if !servicesUp {
		t.Skip("postgres or redis not available, skipping.")
		return
	}

	doneChan := make(chan bool)
	RegisterHandler("test", nil, func(evt *ScheduledEvent, data interface{}) (retry bool, err error) {
		doneChan <- true
		return false, nil
	})

	p := newScheduledEventsPlugin()
	go p.runCheckLoop()
	defer testStopPlugin(p)

	sent := time.Now()

	err := ScheduleEvent("test", 0, sent.Add(time.Second*3), nil)
	if err != nil {
		t.Error("failed scheduling event: ", err)
		return
	}

	select {
	case <-time.After(time.Second * 10):
		t.Error("never handled event")
	case <-doneChan:
		since := time.Since(sent)
		if since < time.Second*2 {
			t.Error("too fast: ", since)
		} else if since > time.Second*5 {
			t.Error("too slow: ", since)
		}
	}
}

func TestScheduleRetry(t *testing.T) {
	if !servicesUp {
		t.Skip("postgres or redis not available, skipping.")
		return
	}

	attempts := 0
	var first, second time.Time
	doneChan := make(chan bool)
	RegisterHandler("test", nil, func(evt *ScheduledEvent, data interface{}) (retry bool, err error) {
		attempts++
		if attempts == 1 {
			first = time.Now()
			return true, nil
		}

		second = time.Now()
		doneChan <- true
		return false, nil
	})

	p := newScheduledEventsPlugin()
	go p.runCheckLoop()
	defer testStopPlugin(p)

	err := ScheduleEvent("test", 0, time.Now(), nil)
	if err != nil {
		t.Error("failed scheduling event: ", err)
		return
	}

	select {
	case <-time.After(time.Second * 10):
		t.Error("never retried event")
	case <-doneChan:
		if attempts != 2 {
			t.Error("wrong attempt count: ", attempts)
		}

		// the first retry waits a second
		gap := second.Sub(first)
		if gap < time.Second/2 {
			t.Error("retried too fast: ", gap)
		} else if gap > time.Second*3 {
			t.Error("retried too slow: ", gap)
		}
	}
}

type testData struct {
	A bool
	B string
}

func TestScheduleHandleWithData(t *testing.T) {
	if !servicesUp {
		t.Skip("postgres or redis not available, skipping.")
		return
	}

	input := testData{
		A: true,
		B: "hello",
	}

	doneChan := make(chan bool)
	RegisterHandler("test", testData{}, func(evt *ScheduledEvent, data interface{}) (retry bool, err error) {
		cast, ok := data.(*testData)
		if !ok {
			t.Error("failed casting data")
		} else {
			if cast.A != input.A {
				t.Error("cast.A != ", input.A)
			} else if cast.B != input.B {
				t.Error("cast.B (", cast.B, ") != ", input.B)
			}
		}

		doneChan <- true
		return false, nil
	})

	p := newScheduledEventsPlugin()
	go p.runCheckLoop()
	defer testStopPlugin(p)

	err := ScheduleEvent("test", 0, time.Now(), input)
	if err != nil {
		t.Error("failed scheduling event: ", err)
		return
	}

	select {
	case <-time.After(time.Second * 5):
		t.Error("never handled event")
	case <-doneChan:
	}
}
