package common

import (
	"time"

	"emperror.dev/errors"
	"github.com/mediocregopher/radix/v3"
)

var ErrMaxLockAttemptsExceeded = errors.New("max lock attempts exceeded")

// TryLockRedisKey attempts to lock the given key, and if successful sets it
// to expire after maxDur seconds so crashed holders don't wedge it forever.
func TryLockRedisKey(key string, maxDur int) (bool, error) {
	var resp string
	err := RedisPool.Do(radix.FlatCmd(&resp, "SET", key, true, "NX", "EX", maxDur))
	if err != nil {
		return false, ErrWithCaller(err)
	}

	return resp == "OK", nil
}

// BlockingLockRedisKey blocks until the key is locked, up to maxTryDuration
// (0 means forever).
func BlockingLockRedisKey(key string, maxTryDuration time.Duration, maxLockDurSeconds int) error {
	started := time.Now()
	sleepDur := time.Millisecond * 100
	maxSleep := time.Second
	for {
		if maxTryDuration != 0 && time.Since(started) > maxTryDuration {
			return ErrMaxLockAttemptsExceeded
		}

		locked, err := TryLockRedisKey(key, maxLockDurSeconds)
		if err != nil {
			return err
		}

		if locked {
			return nil
		}

		time.Sleep(sleepDur)
		sleepDur *= 2
		if sleepDur > maxSleep {
			sleepDur = maxSleep
		}
	}
}

func UnlockRedisKey(key string) {
	RedisPool.Do(radix.Cmd(nil, "DEL", key))
}
