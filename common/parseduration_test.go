package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDuration(t *testing.T) {
	cases := []struct {
		in       string
		expected time.Duration
	}{
		{"10s", time.Second * 10},
		{"5m", time.Minute * 5},
		{"1h", time.Hour},
		{"2d", time.Hour * 24 * 2},
		{"1w", time.Hour * 24 * 7},
		{"1mo", time.Hour * 24 * 30},
		{"1y", time.Hour * 24 * 365},
		{"1d12h", time.Hour * 36},
		{"1h30m10s", time.Hour + time.Minute*30 + time.Second*10},
		{"10 minutes 30s", time.Minute*10 + time.Second*30},
		{"2 hours", time.Hour * 2},
		// bare numbers are minutes
		{"10", time.Minute * 10},
		// bare unit counts as 1
		{"h", time.Hour},
	}

	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			parsed, err := ParseDuration(c.in)
			assert.NoError(t, err)
			assert.Equal(t, c.expected, parsed)
		})
	}
}

func TestParseDurationUnknownUnit(t *testing.T) {
	_, err := ParseDuration("10 bananas")
	assert.Error(t, err)
}

func TestParseDurationMonthBeforeMinute(t *testing.T) {
	// "mo" has to win over "m"
	parsed, err := ParseDuration("1mo")
	assert.NoError(t, err)
	assert.Equal(t, time.Hour*24*30, parsed)

	parsed, err = ParseDuration("1m")
	assert.NoError(t, err)
	assert.Equal(t, time.Minute, parsed)
}
