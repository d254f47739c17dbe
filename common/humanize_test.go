package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHumanizeDuration(t *testing.T) {
	cases := []struct {
		name      string
		precision DurationFormatPrecision
		in        time.Duration
		expected  string
	}{
		{"seconds", DurationPrecisionSeconds, time.Second * 30, "30 seconds"},
		{"single unit", DurationPrecisionSeconds, time.Second, "1 second"},
		{"two units", DurationPrecisionSeconds, time.Minute*2 + time.Second*3, "2 minutes and 3 seconds"},
		{"three units", DurationPrecisionSeconds, time.Hour + time.Minute*2 + time.Second*3, "1 hour 2 minutes and 3 seconds"},
		{"truncated to minutes", DurationPrecisionMinutes, time.Minute*5 + time.Second*30, "5 minutes"},
		{"below precision", DurationPrecisionMinutes, time.Second * 30, "less than 1 minute"},
		{"days", DurationPrecisionSeconds, time.Hour * 24 * 3, "3 days"},
		{"weeks", DurationPrecisionSeconds, time.Hour * 24 * 14, "2 weeks"},
		{"years", DurationPrecisionSeconds, time.Hour * 24 * 365 * 7, "7 years"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.expected, HumanizeDuration(c.precision, c.in))
		})
	}
}

func TestHumanizeTime(t *testing.T) {
	past := time.Now().Add(-time.Hour * 2)
	assert.Equal(t, "2 hours ago", HumanizeTime(DurationPrecisionHours, past))

	future := time.Now().Add(time.Hour*2 + time.Minute)
	assert.Equal(t, "in 2 hours", HumanizeTime(DurationPrecisionHours, future))
}
