package scheduledevents

import (
	"sync"
	"time"

	"github.com/lurelin/medli/common"
	"github.com/lurelin/medli/common/backgroundworkers"
)

var _ backgroundworkers.BackgroundWorkerPlugin = (*ScheduledEvents)(nil)

// RunBackgroundWorker deletes processed events once an hour, they're kept
// around for a while so failures can be inspected through the error column.
func (se *ScheduledEvents) RunBackgroundWorker() {
	t := time.NewTicker(time.Hour)
	for {
		se.runCleanup()

		select {
		case wg := <-se.stopBGWorker:
			wg.Done()
			return
		case <-t.C:
		}
	}
}

func (se *ScheduledEvents) StopBackgroundWorker(wg *sync.WaitGroup) {
	se.stopBGWorker <- wg
}

func (se *ScheduledEvents) runCleanup() {
	result, err := common.PQ.Exec("DELETE FROM scheduled_events WHERE processed=true AND triggers_at < $1", time.Now().Add(-time.Hour*24))
	if err != nil {
		logger.WithError(err).Error("error running scheduled events cleanup")
		return
	}

	if n, _ := result.RowsAffected(); n > 0 {
		logger.Info("cleaned up ", n, " processed scheduled events")
	}
}
