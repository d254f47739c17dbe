package common

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"emperror.dev/errors"
)

// longest prefixes first so "mo" wins over "m"
var durationUnits = []struct {
	prefix string
	unit   time.Duration
}{
	{"mo", time.Hour * 24 * 30},
	{"y", time.Hour * 24 * 365},
	{"w", time.Hour * 24 * 7},
	{"d", time.Hour * 24},
	{"h", time.Hour},
	{"m", time.Minute},
	{"s", time.Second},
}

// ParseDuration parses compact duration strings like "1d12h" or
// "10 minutes 30s", a bare number is taken as minutes.
func ParseDuration(str string) (time.Duration, error) {
	var total time.Duration

	numBuf := ""
	unitBuf := ""

	flush := func() error {
		if numBuf == "" && unitBuf == "" {
			return nil
		}

		if numBuf == "" {
			numBuf = "1"
		}

		n, err := strconv.ParseInt(numBuf, 10, 64)
		if err != nil {
			return err
		}

		unit, err := resolveDurationUnit(unitBuf)
		if err != nil {
			return err
		}

		total += time.Duration(n) * unit
		numBuf = ""
		unitBuf = ""
		return nil
	}

	for _, r := range str {
		switch {
		case unicode.IsSpace(r):
			continue
		case unicode.IsDigit(r):
			// a digit after a unit starts the next component
			if unitBuf != "" {
				if err := flush(); err != nil {
					return 0, err
				}
			}

			numBuf += string(r)
		default:
			unitBuf += string(r)
		}
	}

	if err := flush(); err != nil {
		return 0, errors.WrapIf(err, "not a duration")
	}

	return total, nil
}

func resolveDurationUnit(s string) (time.Duration, error) {
	if s == "" {
		return time.Minute, nil
	}

	for _, v := range durationUnits {
		if strings.HasPrefix(s, v.prefix) {
			return v.unit, nil
		}
	}

	return 0, errors.New("couldn't figure out what '" + s + "' was")
}
