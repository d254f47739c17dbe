package timezones

import (
	"testing"
)

func TestMatchZoneExact(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"Europe/London", "Europe/London"},
		{"europe/london", "Europe/London"},
		{"America/New York", "America/New_York"},
		{"  Asia/Tokyo ", "Asia/Tokyo"},
	}

	for _, c := range cases {
		zone, suggestions := MatchZone(c.in)
		if zone != c.expected {
			t.Errorf("MatchZone(%q) = %q, expected %q (suggestions %v)", c.in, zone, c.expected, suggestions)
		}
	}
}

func TestMatchZoneAbbreviation(t *testing.T) {
	zone, _ := MatchZone("JST")
	if zone != "Asia/Tokyo" {
		t.Errorf("MatchZone(JST) = %q, expected Asia/Tokyo", zone)
	}

	// CST is used on several continents, has to come back as suggestions
	zone, suggestions := MatchZone("CST")
	if zone != "" {
		t.Errorf("MatchZone(CST) = %q, expected ambiguity", zone)
	}

	if len(suggestions) == 0 {
		t.Error("MatchZone(CST) returned no suggestions")
	}
}

func TestMatchZoneFuzzy(t *testing.T) {
	zone, suggestions := MatchZone("Europ/Londn")
	if zone != "" {
		t.Errorf("MatchZone(Europ/Londn) = %q, expected no direct match", zone)
	}

	found := false
	for _, s := range suggestions {
		if s == "Europe/London" {
			found = true
			break
		}
	}

	if !found {
		t.Errorf("MatchZone(Europ/Londn) suggestions = %v, expected Europe/London among them", suggestions)
	}
}

func TestMatchZoneGarbage(t *testing.T) {
	zone, suggestions := MatchZone("zzzzzz")
	if zone != "" || len(suggestions) != 0 {
		t.Errorf("MatchZone(zzzzzz) = %q, %v, expected nothing", zone, suggestions)
	}
}

func TestFormatUTCOffset(t *testing.T) {
	cases := []struct {
		seconds  int
		expected string
	}{
		{0, "UTC"},
		{2 * 3600, "UTC+2"},
		{-5 * 3600, "UTC-5"},
		{5*3600 + 30*60, "UTC+5:30"},
		{-(9*3600 + 30*60), "UTC-9:30"},
	}

	for _, c := range cases {
		if got := FormatUTCOffset(c.seconds); got != c.expected {
			t.Errorf("FormatUTCOffset(%d) = %q, expected %q", c.seconds, got, c.expected)
		}
	}
}
