package reminders

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestParseWhenAndMessageDurations(t *testing.T) {
	ref := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		in       string
		expected time.Time
		message  string
	}{
		{"1h30m stretch your legs", ref.Add(90 * time.Minute), "stretch your legs"},
		{"45 check the oven", ref.Add(45 * time.Minute), "check the oven"},
		{"2d12h rotate the logs", ref.Add(60 * time.Hour), "rotate the logs"},
		{"10s", ref.Add(10 * time.Second), ""},
	}

	for _, c := range cases {
		when, message, err := parseWhenAndMessage(context.Background(), c.in, ref, nil)
		if err != nil {
			t.Errorf("parseWhenAndMessage(%q) errored: %v", c.in, err)
			continue
		}

		if !when.Equal(c.expected) {
			t.Errorf("parseWhenAndMessage(%q) when = %s, expected %s", c.in, when, c.expected)
		}

		if message != c.message {
			t.Errorf("parseWhenAndMessage(%q) message = %q, expected %q", c.in, message, c.message)
		}
	}
}

func TestParseWhenAndMessageRejectsBareWords(t *testing.T) {
	// "me" must never read as a one minute duration, inputs like
	// "me in 2 hours ..." belong to the phrase parser
	ref := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	when, _, err := parseWhenAndMessage(context.Background(), "me do the thing", ref, nil)
	if err == nil && when.Sub(ref) == time.Minute {
		t.Error("bare word was parsed as a duration")
	}
}

func TestDisplayReminders(t *testing.T) {
	reminders := []*Reminder{
		{ID: 3, UserID: 100, ChannelID: 55, Message: "walk the dog", When: 1700000000},
		{ID: 7, UserID: 101, ChannelID: 55, Message: "water plants", When: 1700003600},
	}

	out := displayReminders(reminders, false)
	if !strings.Contains(out, "**3**: <#55>:") || !strings.Contains(out, "\"walk the dog\"") {
		t.Errorf("channel display missing fields:\n%s", out)
	}

	if !strings.Contains(out, "<t:1700000000:R>") {
		t.Errorf("expected discord timestamp markup:\n%s", out)
	}

	withUsers := displayReminders(reminders, true)
	if !strings.Contains(withUsers, "<@101>") {
		t.Errorf("user display missing mention:\n%s", withUsers)
	}
}
