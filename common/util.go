package common

import (
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

func init() {
	// discord ids count from the discord epoch, not the unix one
	snowflake.Epoch = 1420070400000
}

// MustParseInt parses a snowflake string from the discord api, these are
// always numeric so failing that is a bug somewhere upstream.
func MustParseInt(s string) int64 {
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		panic("Failed parsing int: " + s)
	}

	return i
}

// StrID formats a snowflake for the discord api.
func StrID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// SnowflakeOfTime returns the lowest id a message created at t can carry,
// usable as an age cutoff when filtering ids.
func SnowflakeOfTime(t time.Time) int64 {
	return (t.UnixMilli() - snowflake.Epoch) << 22
}

// TimeOfSnowflake is the creation time encoded in a discord id.
func TimeOfSnowflake(id int64) time.Time {
	return time.Unix(0, snowflake.ID(id).Time()*int64(time.Millisecond))
}

func ContainsInt64Slice(slice []int64, search int64) bool {
	for _, v := range slice {
		if v == search {
			return true
		}
	}

	return false
}

func ContainsStringSlice(strs []string, search string) bool {
	for _, v := range strs {
		if v == search {
			return true
		}
	}

	return false
}

func ContainsStringSliceFold(strs []string, search string) bool {
	for _, v := range strs {
		if strings.EqualFold(v, search) {
			return true
		}
	}

	return false
}

// CutStringShort stops a string at maxLen-3 and adds "...", rune aware so
// multibyte content doesn't get split in the middle.
func CutStringShort(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}

	return s
}

// DelayedMessageDelete deletes a message after the delay, runs in the calling
// goroutine.
func DelayedMessageDelete(delay time.Duration, cID, mID string) {
	time.Sleep(delay)
	err := BotSession.ChannelMessageDelete(cID, mID)
	if err != nil {
		logger.WithError(err).Error("Failed deleting message")
	}
}

// SendTempMessage sends a message that gets deleted after duration.
func SendTempMessage(duration time.Duration, cID, msg string) {
	m, err := BotSession.ChannelMessageSend(cID, msg)
	if err != nil {
		return
	}

	go DelayedMessageDelete(duration, cID, m.ID)
}
