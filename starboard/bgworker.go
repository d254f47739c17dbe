package starboard

import (
	"sync"
	"time"

	"github.com/lurelin/medli/common"
	"github.com/lurelin/medli/common/backgroundworkers"
	"github.com/mediocregopher/radix/v3"
)

var _ backgroundworkers.BackgroundWorkerPlugin = (*Plugin)(nil)

const starGiversInterval = time.Minute * 30

// RunBackgroundWorker periodically rebuilds the star_givers aggregates of the
// servers the bot marked stale since the last run.
func (p *Plugin) RunBackgroundWorker() {
	t := time.NewTicker(starGiversInterval)
	defer t.Stop()

	for {
		p.refreshStaleGivers()

		select {
		case wg := <-p.stopStarGivers:
			wg.Done()
			return
		case <-t.C:
		}
	}
}

func (p *Plugin) StopBackgroundWorker(wg *sync.WaitGroup) {
	p.stopStarGivers <- wg
}

func (p *Plugin) refreshStaleGivers() {
	var guildIDs []int64
	err := common.RedisPool.Do(radix.Cmd(&guildIDs, "SPOP", keyStaleGivers, "25000"))
	if err != nil {
		logger.WithError(err).Error("failed popping stale star giver servers")
		return
	}

	if len(guildIDs) == 0 {
		return
	}

	started := time.Now()
	err = RefreshStarGivers(guildIDs)
	if err != nil {
		logger.WithError(err).Error("failed refreshing star givers")

		// put them back so the next run picks them up again
		if rerr := common.RedisPool.Do(radix.FlatCmd(nil, "SADD", keyStaleGivers, guildIDs)); rerr != nil {
			logger.WithError(rerr).Error("failed requeueing stale star giver servers")
		}

		return
	}

	logger.Infof("refreshed star givers for %d servers in %s", len(guildIDs), time.Since(started))
}
