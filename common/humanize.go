package common

import (
	"fmt"
	"time"
)

type DurationFormatPrecision int

const (
	DurationPrecisionSeconds DurationFormatPrecision = iota
	DurationPrecisionMinutes
	DurationPrecisionHours
	DurationPrecisionDays
	DurationPrecisionWeeks
	DurationPrecisionYears
)

func (d DurationFormatPrecision) String() string {
	switch d {
	case DurationPrecisionSeconds:
		return "second"
	case DurationPrecisionMinutes:
		return "minute"
	case DurationPrecisionHours:
		return "hour"
	case DurationPrecisionDays:
		return "day"
	case DurationPrecisionWeeks:
		return "week"
	case DurationPrecisionYears:
		return "year"
	}

	return "unknown"
}

func (d DurationFormatPrecision) FromSeconds(in int64) int64 {
	switch d {
	case DurationPrecisionSeconds:
		return in % 60
	case DurationPrecisionMinutes:
		return (in / 60) % 60
	case DurationPrecisionHours:
		return ((in / 60) / 60) % 24
	case DurationPrecisionDays:
		return (((in / 60) / 60) / 24) % 7
	case DurationPrecisionWeeks:
		// a year is 52 weeks and change, the change is swallowed here
		days := (((in / 60) / 60) / 24) % 365
		return days / 7
	case DurationPrecisionYears:
		return (((in / 60) / 60) / 24) / 365
	}

	panic("unknown duration precision")
}

// HumanizeDuration writes out a duration in english down to the given
// precision, e.g. "1 hour 2 minutes and 3 seconds".
func HumanizeDuration(precision DurationFormatPrecision, in time.Duration) string {
	seconds := int64(in.Seconds())

	out := make([]string, 0)
	for i := int(precision); i <= int(DurationPrecisionYears); i++ {
		curPrec := DurationFormatPrecision(i)

		units := curPrec.FromSeconds(seconds)
		if units < 1 {
			continue
		}

		unitStr := curPrec.String()
		if units > 1 {
			unitStr += "s"
		}

		out = append(out, fmt.Sprintf("%d %s", units, unitStr))
	}

	outStr := ""
	for i := len(out) - 1; i >= 0; i-- {
		if i == 0 && len(out) > 1 {
			outStr += " and "
		} else if i != len(out)-1 {
			outStr += " "
		}

		outStr += out[i]
	}

	if outStr == "" {
		outStr = "less than 1 " + precision.String()
	}

	return outStr
}

// HumanizeTime formats the time relative to now, "x ago" or "in x".
func HumanizeTime(precision DurationFormatPrecision, in time.Time) string {
	now := time.Now()
	if now.After(in) {
		return HumanizeDuration(precision, now.Sub(in)) + " ago"
	}

	return "in " + HumanizeDuration(precision, in.Sub(now))
}
