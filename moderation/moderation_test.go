package moderation

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
)

func TestRaidModeString(t *testing.T) {
	cases := []struct {
		mode     RaidMode
		expected string
	}{
		{RaidModeOff, "off"},
		{RaidModeOn, "on"},
		{RaidModeStrict, "strict"},
		{RaidMode(99), "off"},
	}

	for _, c := range cases {
		if got := c.mode.String(); got != c.expected {
			t.Errorf("RaidMode(%d).String() = %q, expected %q", int(c.mode), got, c.expected)
		}
	}
}

func TestIsSafeMentionChannel(t *testing.T) {
	config := &Config{SafeMentionChannels: []int64{10, 20}}
	if !config.IsSafeMentionChannel(10) {
		t.Error("10 should be safe")
	}

	if config.IsSafeMentionChannel(30) {
		t.Error("30 should not be safe")
	}

	empty := &Config{}
	if empty.IsSafeMentionChannel(10) {
		t.Error("empty safe list should match nothing")
	}
}

func TestParseChannelList(t *testing.T) {
	got := parseChannelList("<#123> 456 garbage <#bad> <#789>")
	expected := []int64{123, 456, 789}
	if len(got) != len(expected) {
		t.Fatalf("parseChannelList = %v, expected %v", got, expected)
	}

	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("parseChannelList[%d] = %d, expected %d", i, got[i], expected[i])
		}
	}

	if parseChannelList("nothing here") != nil {
		t.Error("expected no ids from garbage input")
	}
}

func TestChannelMentions(t *testing.T) {
	got := channelMentions([]int64{1, 2})
	if got != "<#1>, <#2>" {
		t.Errorf("channelMentions = %q", got)
	}
}

func TestPaginateLines(t *testing.T) {
	if pages := paginateLines(nil, 100); pages != nil {
		t.Errorf("expected no pages for no lines, got %v", pages)
	}

	pages := paginateLines([]string{"a", "b", "c"}, 100)
	if len(pages) != 1 || pages[0] != "a\nb\nc" {
		t.Errorf("small batch should fit one page: %v", pages)
	}

	long := strings.Repeat("x", 60)
	pages = paginateLines([]string{long, long, long}, 100)
	if len(pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(pages))
	}

	for _, page := range pages {
		if len(page) > 100 {
			t.Errorf("page over the size limit: %d chars", len(page))
		}
	}
}

func TestRateBuckets(t *testing.T) {
	buckets := newRateBuckets(3, time.Minute)

	for i := 0; i < 3; i++ {
		if buckets.exceeded("a") {
			t.Fatalf("event %d should be within the burst", i+1)
		}
	}

	if !buckets.exceeded("a") {
		t.Error("4th event should exceed the bucket")
	}

	if buckets.exceeded("b") {
		t.Error("a fresh key should have its own bucket")
	}
}

func TestCheckSpamByUser(t *testing.T) {
	checker := newSpamChecker()
	created := time.Now().AddDate(-2, 0, 0)
	joined := time.Now().AddDate(-1, 0, 0)

	for i := 0; i < 10; i++ {
		if checker.checkSpam("user", "chan", fmt.Sprintf("message %d", i), created, joined) {
			t.Fatalf("message %d should not count as spam", i+1)
		}
	}

	if !checker.checkSpam("user", "chan", "one more", created, joined) {
		t.Error("11th rapid message from one user should count as spam")
	}
}

func TestCheckSpamByContent(t *testing.T) {
	checker := newSpamChecker()
	created := time.Now().AddDate(-2, 0, 0)
	joined := time.Now().AddDate(-1, 0, 0)

	for i := 0; i < 15; i++ {
		user := fmt.Sprintf("user%d", i)
		if checker.checkSpam(user, "chan", "free nitro click here", created, joined) {
			t.Fatalf("repeat %d should not count as spam yet", i+1)
		}
	}

	if !checker.checkSpam("user99", "chan", "free nitro click here", created, joined) {
		t.Error("16th repeat of the same content should count as spam")
	}
}

func TestCheckSpamNewUsers(t *testing.T) {
	checker := newSpamChecker()
	created := time.Now().Add(-time.Hour)
	joined := time.Now().Add(-time.Minute)

	for i := 0; i < 30; i++ {
		user := fmt.Sprintf("fresh%d", i)
		if checker.checkSpam(user, "chan", fmt.Sprintf("hello %d", i), created, joined) {
			t.Fatalf("new member message %d should not count as spam yet", i+1)
		}
	}

	if !checker.checkSpam("fresh99", "chan", "hello again", created, joined) {
		t.Error("31st rapid new member message should count as spam")
	}
}

func TestCheckFastJoin(t *testing.T) {
	checker := newSpamChecker()
	base := time.Now()

	if checker.checkFastJoin("user0", base) {
		t.Error("first join can never be fast")
	}

	if !checker.checkFastJoin("user1", base.Add(time.Second)) {
		t.Error("join one second after the previous should be fast")
	}

	if checker.checkFastJoin("user2", base.Add(time.Minute)) {
		t.Error("join a minute later should not be fast")
	}
}

func TestFastJoinersHitAndRun(t *testing.T) {
	checker := newSpamChecker()
	base := time.Now()
	created := time.Now().AddDate(-2, 0, 0)

	// a burst of joins one second apart, everyone after the first is fast
	checker.checkFastJoin("user0", base)
	for i := 1; i <= 11; i++ {
		if !checker.checkFastJoin(fmt.Sprintf("user%d", i), base.Add(time.Duration(i)*time.Second)) {
			t.Fatalf("join %d should be fast", i)
		}
	}

	joined := time.Now()
	for i := 1; i <= 10; i++ {
		user := fmt.Sprintf("user%d", i)
		if checker.checkSpam(user, "chan", fmt.Sprintf("raid %d", i), created, joined) {
			t.Fatalf("fast joiner message %d should not count as spam yet", i)
		}
	}

	if !checker.checkSpam("user11", "chan", "raid 11", created, joined) {
		t.Error("11th rapid fast joiner message in the channel should count as spam")
	}
}

func TestIsNewMember(t *testing.T) {
	oldCreated := time.Now().AddDate(-2, 0, 0)
	oldJoined := time.Now().AddDate(-1, 0, 0)

	if isNewMember(oldCreated, oldJoined) {
		t.Error("long standing member should not be new")
	}

	if !isNewMember(time.Now().AddDate(0, 0, -30), oldJoined) {
		t.Error("account created 30 days ago should be new")
	}

	if !isNewMember(oldCreated, time.Now().AddDate(0, 0, -2)) {
		t.Error("member joined 2 days ago should be new")
	}
}

func TestMemberJoinEmbed(t *testing.T) {
	user := &discordgo.User{ID: "42", Username: "link", Discriminator: "0001"}
	now := time.Now()

	cases := []struct {
		fastJoin bool
		isNew    bool
		title    string
		color    int
	}{
		{false, false, "Member Joined", joinColorNormal},
		{false, true, "Member Joined (Very New Member)", joinColorNew},
		{true, false, "Member Joined", joinColorFastJoin},
		{true, true, "Member Joined (Very New Member)", joinColorFastJoin},
	}

	for _, c := range cases {
		embed := memberJoinEmbed(user, now, now, c.fastJoin, c.isNew)
		if embed.Title != c.title {
			t.Errorf("fast=%t new=%t title = %q, expected %q", c.fastJoin, c.isNew, embed.Title, c.title)
		}

		if embed.Color != c.color {
			t.Errorf("fast=%t new=%t color = %#x, expected %#x", c.fastJoin, c.isNew, embed.Color, c.color)
		}

		if len(embed.Fields) != 3 || embed.Fields[0].Value != "42" {
			t.Errorf("embed fields wrong: %+v", embed.Fields)
		}
	}
}
