package commands

import (
	"testing"

	"github.com/volatiletech/null/v8"
)

func configRow(channelID int64, name string, whitelist bool) *commandConfigRow {
	row := &commandConfigRow{
		GuildID:   100,
		Name:      name,
		Whitelist: whitelist,
	}

	if channelID != 0 {
		row.ChannelID = null.Int64From(channelID)
	}

	return row
}

func TestPermissionResolution(t *testing.T) {
	cases := []struct {
		name      string
		rows      []*commandConfigRow
		channelID int64
		prefixes  []string
		blocked   bool
	}{
		{
			name:      "no rules",
			rows:      nil,
			channelID: 1,
			prefixes:  []string{"tag"},
			blocked:   false,
		},
		{
			name:      "guild wide deny",
			rows:      []*commandConfigRow{configRow(0, "tag", false)},
			channelID: 1,
			prefixes:  []string{"tag"},
			blocked:   true,
		},
		{
			name:      "guild deny covers subcommands",
			rows:      []*commandConfigRow{configRow(0, "tag", false)},
			channelID: 1,
			prefixes:  []string{"tag", "tag create"},
			blocked:   true,
		},
		{
			name: "more specific guild allow wins over group deny",
			rows: []*commandConfigRow{
				configRow(0, "tag", false),
				configRow(0, "tag create", true),
			},
			channelID: 1,
			prefixes:  []string{"tag", "tag create"},
			blocked:   false,
		},
		{
			name: "group stays denied when only the subcommand is allowed",
			rows: []*commandConfigRow{
				configRow(0, "tag", false),
				configRow(0, "tag create", true),
			},
			channelID: 1,
			prefixes:  []string{"tag"},
			blocked:   true,
		},
		{
			name: "channel allow overrides guild deny",
			rows: []*commandConfigRow{
				configRow(0, "tag", false),
				configRow(1, "tag", true),
			},
			channelID: 1,
			prefixes:  []string{"tag"},
			blocked:   false,
		},
		{
			name: "channel allow only applies in that channel",
			rows: []*commandConfigRow{
				configRow(0, "tag", false),
				configRow(1, "tag", true),
			},
			channelID: 2,
			prefixes:  []string{"tag"},
			blocked:   true,
		},
		{
			name: "channel deny overrides guild allow",
			rows: []*commandConfigRow{
				configRow(0, "tag", true),
				configRow(1, "tag", false),
			},
			channelID: 1,
			prefixes:  []string{"tag"},
			blocked:   true,
		},
		{
			name: "channel group allow beats guild subcommand deny",
			rows: []*commandConfigRow{
				configRow(0, "tag create", false),
				configRow(1, "tag", true),
			},
			channelID: 1,
			prefixes:  []string{"tag", "tag create"},
			blocked:   false,
		},
		{
			name: "channel subcommand deny under channel group allow",
			rows: []*commandConfigRow{
				configRow(1, "tag create", false),
				configRow(1, "tag", true),
			},
			channelID: 1,
			prefixes:  []string{"tag", "tag create"},
			blocked:   true,
		},
		{
			name:      "rule names are matched lowercased",
			rows:      []*commandConfigRow{configRow(0, "Tag", false)},
			channelID: 1,
			prefixes:  []string{"tag"},
			blocked:   true,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			perms := buildCommandPermissions(c.rows)
			if got := perms.IsBlocked(c.channelID, c.prefixes); got != c.blocked {
				t.Errorf("IsBlocked(%d, %v) = %v, expected %v", c.channelID, c.prefixes, got, c.blocked)
			}
		})
	}
}

func TestIsPlonked(t *testing.T) {
	settings := &GuildSettings{
		GuildID: 100,
		Plonked: map[int64]bool{
			10: true, // a user
			20: true, // a channel
		},
	}

	if !settings.IsPlonked(10, 99) {
		t.Error("expected plonked user to be ignored")
	}

	if !settings.IsPlonked(11, 20) {
		t.Error("expected plonked channel to be ignored")
	}

	if settings.IsPlonked(11, 99) {
		t.Error("expected unrelated user and channel to not be ignored")
	}

	settings.Plonked[100] = true
	if !settings.IsPlonked(11, 99) {
		t.Error("expected everyone to be ignored when the server itself is plonked")
	}
}

func TestNamePrefixes(t *testing.T) {
	root := &MedliCommand{Name: "Config"}
	root.Subcommands = []*MedliCommand{
		{Name: "Server", Subcommands: []*MedliCommand{{Name: "Disable"}}},
	}
	root.bindSubcommands()

	leaf := root.Subcommands[0].Subcommands[0]
	got := leaf.namePrefixes()

	expected := []string{"config", "config server", "config server disable"}
	if len(got) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, got)
	}

	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("prefix %d: expected %q, got %q", i, expected[i], got[i])
		}
	}
}
