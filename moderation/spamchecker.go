package moderation

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// rateBuckets is a keyed set of token buckets, stale keys expire so content
// keys don't pile up forever.
type rateBuckets struct {
	limit   rate.Limit
	burst   int
	buckets *cache.Cache
}

func newRateBuckets(events int, window time.Duration) *rateBuckets {
	return &rateBuckets{
		limit:   rate.Every(window / time.Duration(events)),
		burst:   events,
		buckets: cache.New(10*time.Minute, 15*time.Minute),
	}
}

// exceeded consumes one event for the key, true when the bucket ran dry.
func (r *rateBuckets) exceeded(key string) bool {
	limiter, ok := r.buckets.Get(key)
	if !ok {
		limiter = rate.NewLimiter(r.limit, r.burst)
		r.buckets.Set(key, limiter, cache.DefaultExpiration)
	}

	return !limiter.(*rate.Limiter).Allow()
}

// spamChecker watches one server for raid spam. Thresholds:
//
//  1. a single user sending more than 10 messages in 12 seconds
//  2. the same content repeated more than 15 times in 17 seconds per channel
//  3. new accounts or fresh joins sending more than 30 messages in 35 seconds
//     per channel
//  4. fast joiners (joined within 2 seconds of the previous join) sending
//     more than 10 messages in 12 seconds per channel
//
// The content bucket catches alternating spam bots, the user bucket the
// plain ones. These limits aren't reached by people actually talking.
type spamChecker struct {
	mu sync.Mutex

	byUser    *rateBuckets
	byContent *rateBuckets
	newUsers  *rateBuckets
	hitAndRun *rateBuckets

	fastJoiners *cache.Cache
	lastJoin    time.Time
}

func newSpamChecker() *spamChecker {
	return &spamChecker{
		byUser:      newRateBuckets(10, 12*time.Second),
		byContent:   newRateBuckets(15, 17*time.Second),
		newUsers:    newRateBuckets(30, 35*time.Second),
		hitAndRun:   newRateBuckets(10, 12*time.Second),
		fastJoiners: cache.New(30*time.Minute, 30*time.Minute),
	}
}

// isNewMember considers an account suspicious when it was created within the
// last 90 days or joined within the last 7.
func isNewMember(created, joined time.Time) bool {
	now := time.Now()
	return created.After(now.AddDate(0, 0, -90)) || joined.After(now.AddDate(0, 0, -7))
}

func (s *spamChecker) checkSpam(userID, channelID, content string, authorCreated, joined time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.fastJoiners.Get(userID); ok {
		if s.hitAndRun.exceeded(channelID) {
			return true
		}
	}

	if isNewMember(authorCreated, joined) {
		if s.newUsers.exceeded(channelID) {
			return true
		}
	}

	if s.byUser.exceeded(userID) {
		return true
	}

	return s.byContent.exceeded(channelID + ":" + content)
}

// checkFastJoin tracks the join pace, members joining within 2 seconds of
// the previous join are remembered as fast joiners for half an hour.
func (s *spamChecker) checkFastJoin(userID string, joined time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	last := s.lastJoin
	s.lastJoin = joined
	if last.IsZero() {
		return false
	}

	fast := joined.Sub(last) <= 2*time.Second
	if fast {
		s.fastJoiners.Set(userID, true, cache.DefaultExpiration)
	}

	return fast
}

var (
	spamCheckers   = make(map[int64]*spamChecker)
	spamCheckersMu sync.Mutex
)

func guildSpamChecker(guildID int64) *spamChecker {
	spamCheckersMu.Lock()
	defer spamCheckersMu.Unlock()

	checker := spamCheckers[guildID]
	if checker == nil {
		checker = newSpamChecker()
		spamCheckers[guildID] = checker
	}

	return checker
}

func removeSpamChecker(guildID int64) {
	spamCheckersMu.Lock()
	defer spamCheckersMu.Unlock()

	delete(spamCheckers, guildID)
}
