package starboard

import (
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
)

func TestStarEmoji(t *testing.T) {
	cases := []struct {
		stars    int
		expected string
	}{
		{0, "⭐"},
		{1, "⭐"},
		{4, "⭐"},
		{5, "🌟"},
		{9, "🌟"},
		{10, "💫"},
		{24, "💫"},
		{25, "✨"},
		{500, "✨"},
	}

	for _, c := range cases {
		if got := starEmoji(c.stars); got != c.expected {
			t.Errorf("starEmoji(%d) = %q, expected %q", c.stars, got, c.expected)
		}
	}
}

func TestStarGradientColor(t *testing.T) {
	if got := starGradientColor(0); got != 0xfffdf7 {
		t.Errorf("starGradientColor(0) = %#x, expected 0xfffdf7", got)
	}

	if got := starGradientColor(13); got != 0xffc20c {
		t.Errorf("starGradientColor(13) = %#x, expected 0xffc20c", got)
	}

	// clamps beyond the full gradient
	if got := starGradientColor(1000); got != 0xffc20c {
		t.Errorf("starGradientColor(1000) = %#x, expected 0xffc20c", got)
	}

	for _, stars := range []int{1, 3, 7, 12} {
		got := starGradientColor(stars)
		if got>>16 != 0xff {
			t.Errorf("starGradientColor(%d) = %#x, red channel should stay maxed", stars, got)
		}
	}
}

func TestIsURLSpoiler(t *testing.T) {
	cases := []struct {
		content  string
		url      string
		expected bool
	}{
		{"||https://cdn.example/pic.png||", "https://cdn.example/pic.png", true},
		{"look at this ||https://cdn.example/pic.png|| wow", "https://cdn.example/pic.png", true},
		{"https://cdn.example/pic.png", "https://cdn.example/pic.png", false},
		{"||spoiled text|| https://cdn.example/pic.png", "https://cdn.example/pic.png", false},
		{"", "https://cdn.example/pic.png", false},
		{"||nothing to see||", "https://cdn.example/pic.png", false},
	}

	for _, c := range cases {
		if got := isURLSpoiler(c.content, c.url); got != c.expected {
			t.Errorf("isURLSpoiler(%q, %q) = %t, expected %t", c.content, c.url, got, c.expected)
		}
	}
}

func TestHasImageSuffix(t *testing.T) {
	images := []string{
		"https://cdn.example/pic.png",
		"https://cdn.example/PIC.PNG",
		"https://cdn.example/photo.jpeg",
		"https://cdn.example/photo.jpg",
		"https://cdn.example/anim.gif",
		"https://cdn.example/modern.webp",
	}
	for _, url := range images {
		if !hasImageSuffix(url) {
			t.Errorf("hasImageSuffix(%q) = false, expected true", url)
		}
	}

	others := []string{
		"https://cdn.example/clip.mp4",
		"https://cdn.example/notes.txt",
		"https://cdn.example/pic.png?size=large",
	}
	for _, url := range others {
		if hasImageSuffix(url) {
			t.Errorf("hasImageSuffix(%q) = true, expected false", url)
		}
	}
}

func TestPlural(t *testing.T) {
	cases := []struct {
		count    int
		word     string
		expected string
	}{
		{0, "star", "0 stars"},
		{1, "star", "1 star"},
		{2, "star", "2 stars"},
		{14, "message", "14 messages"},
	}

	for _, c := range cases {
		if got := plural(c.count, c.word); got != c.expected {
			t.Errorf("plural(%d, %q) = %q, expected %q", c.count, c.word, got, c.expected)
		}
	}
}

func TestMedalLines(t *testing.T) {
	if got := medalLines(nil, "None!"); got != "None!" {
		t.Errorf("empty medalLines = %q, expected the placeholder", got)
	}

	got := medalLines([]string{"first", "second", "third", "fourth", "fifth"}, "None!")
	lines := strings.Split(got, "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d:\n%s", len(lines), got)
	}

	expected := []string{"🥇: first", "🥈: second", "🥉: third", "🏅: fourth", "🏅: fifth"}
	for i, line := range lines {
		if line != expected[i] {
			t.Errorf("line %d = %q, expected %q", i, line, expected[i])
		}
	}
}

func TestMessageJumpLink(t *testing.T) {
	got := messageJumpLink(10, "20", "30")
	expected := "https://discord.com/channels/10/20/30"
	if got != expected {
		t.Errorf("messageJumpLink = %q, expected %q", got, expected)
	}
}

func findField(embed *discordgo.MessageEmbed, name string) *discordgo.MessageEmbedField {
	for _, field := range embed.Fields {
		if field.Name == name {
			return field
		}
	}

	return nil
}

func testMessage() *discordgo.Message {
	return &discordgo.Message{
		ID:        "222",
		ChannelID: "111",
		Content:   "hello there",
		Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Author: &discordgo.User{
			ID:            "42",
			Username:      "link",
			Discriminator: "0001",
		},
	}
}

func TestStarMessageContentSingleStar(t *testing.T) {
	content, embed := starMessageContent(testMessage(), 10, 1)

	if content != "⭐ <#111> ID: 222" {
		t.Errorf("content = %q", content)
	}

	if embed.Description != "hello there" {
		t.Errorf("description = %q", embed.Description)
	}

	if embed.Author == nil || embed.Author.Name != "link" {
		t.Errorf("embed author wrong: %+v", embed.Author)
	}

	original := findField(embed, "Original")
	if original == nil {
		t.Fatal("missing Original field")
	}

	if original.Value != "[Jump!](https://discord.com/channels/10/111/222)" {
		t.Errorf("Original field = %q", original.Value)
	}
}

func TestStarMessageContentManyStars(t *testing.T) {
	content, _ := starMessageContent(testMessage(), 10, 7)
	if content != "🌟 **7** <#111> ID: 222" {
		t.Errorf("content = %q", content)
	}
}

func TestStarMessageContentAttachments(t *testing.T) {
	msg := testMessage()
	msg.Attachments = []*discordgo.MessageAttachment{
		{Filename: "pic.png", URL: "https://cdn.example/pic.png"},
	}

	_, embed := starMessageContent(msg, 10, 1)
	if embed.Image == nil || embed.Image.URL != "https://cdn.example/pic.png" {
		t.Errorf("image attachment not inlined: %+v", embed.Image)
	}

	if findField(embed, "Attachment") != nil {
		t.Error("inlined image should not also get an Attachment field")
	}

	msg.Attachments = []*discordgo.MessageAttachment{
		{Filename: "SPOILER_pic.png", URL: "https://cdn.example/SPOILER_pic.png"},
	}

	_, embed = starMessageContent(msg, 10, 1)
	if embed.Image != nil {
		t.Error("spoilered image should stay hidden")
	}

	field := findField(embed, "Attachment")
	if field == nil {
		t.Fatal("missing Attachment field for spoilered image")
	}

	if !strings.HasPrefix(field.Value, "||[") || !strings.HasSuffix(field.Value, ")||") {
		t.Errorf("spoiler attachment field = %q", field.Value)
	}

	msg.Attachments = []*discordgo.MessageAttachment{
		{Filename: "clip.mp4", URL: "https://cdn.example/clip.mp4"},
	}

	_, embed = starMessageContent(msg, 10, 1)
	if embed.Image != nil {
		t.Error("non-image attachment should not be inlined")
	}

	field = findField(embed, "Attachment")
	if field == nil || field.Value != "[clip.mp4](https://cdn.example/clip.mp4)" {
		t.Errorf("plain attachment field wrong: %+v", field)
	}
}

func TestStarMessageContentReply(t *testing.T) {
	msg := testMessage()
	msg.MessageReference = &discordgo.MessageReference{MessageID: "333"}
	msg.ReferencedMessage = &discordgo.Message{
		ID:        "333",
		ChannelID: "111",
		Author: &discordgo.User{
			Username:      "zelda",
			Discriminator: "0002",
		},
	}

	_, embed := starMessageContent(msg, 10, 1)
	field := findField(embed, "Replying to...")
	if field == nil {
		t.Fatal("missing Replying to... field")
	}

	expected := "[zelda#0002](https://discord.com/channels/10/111/333)"
	if field.Value != expected {
		t.Errorf("reply field = %q, expected %q", field.Value, expected)
	}
}

func TestConsumeAboutToBeDeleted(t *testing.T) {
	markAboutToBeDeleted(101, 102)

	// a batch with a foreign id leaves the marks in place
	if consumeAllAboutToBeDeleted([]int64{101, 102, 103}) {
		t.Error("batch with unknown id should not be consumed")
	}

	if !consumeAllAboutToBeDeleted([]int64{101, 102}) {
		t.Error("fully marked batch should be consumed")
	}

	if consumeAboutToBeDeleted(101) {
		t.Error("consumed id should not consume twice")
	}

	markAboutToBeDeleted(104)
	if !consumeAboutToBeDeleted(104) {
		t.Error("marked id should consume")
	}
}

func TestParseMessageID(t *testing.T) {
	id, err := parseMessageID(" 123456789 ")
	if err != nil {
		t.Fatalf("parseMessageID errored: %v", err)
	}

	if id != 123456789 {
		t.Errorf("parseMessageID = %d, expected 123456789", id)
	}

	for _, bad := range []string{"abc", "-5", "0", "12.5", ""} {
		_, err := parseMessageID(bad)
		if err == nil {
			t.Errorf("parseMessageID(%q) should error", bad)
			continue
		}

		if !strings.Contains(err.Error(), "not a valid message ID") {
			t.Errorf("parseMessageID(%q) error = %q", bad, err)
		}
	}
}

func TestPostLines(t *testing.T) {
	lines := postLines(10, []*StarPost{
		{MessageID: 222, ChannelID: 111, Total: 1},
		{MessageID: 333, ChannelID: 111, Total: 5},
	})

	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	if lines[0] != "[222](https://discord.com/channels/10/111/222) (1 star)" {
		t.Errorf("first line = %q", lines[0])
	}

	if lines[1] != "[333](https://discord.com/channels/10/111/333) (5 stars)" {
		t.Errorf("second line = %q", lines[1])
	}
}

func TestUserLines(t *testing.T) {
	lines := userLines([]*UserStars{{AuthorID: 42, Stars: 3}})
	if len(lines) != 1 || lines[0] != "<@42> (3 stars)" {
		t.Errorf("userLines = %v", lines)
	}
}
