package hyrule

import (
	"strings"
	"testing"
)

var testCatalog = []string{
	"Hylian Hood", "Hylian Tunic", "Hylian Trousers",
	"Zora Helm", "Zora Armor", "Zora Greaves",
	"Snowquill Headdress", "Snowquill Tunic", "Snowquill Trousers",
	"Desert Voe Headband", "Desert Voe Spaulder", "Desert Voe Trousers",
	"Ancient Helm", "Ancient Cuirass", "Ancient Greaves",
}

func TestBodyPartString(t *testing.T) {
	cases := []struct {
		part     BodyPart
		expected string
	}{
		{BodyPartHead, "Head"},
		{BodyPartBody, "Body"},
		{BodyPartLegs, "Legs"},
		{BodyPart(9), "Unknown"},
	}

	for _, c := range cases {
		if got := c.part.String(); got != c.expected {
			t.Errorf("BodyPart(%d).String() = %q, expected %q", c.part, got, c.expected)
		}
	}
}

func TestResolveNameTypo(t *testing.T) {
	match, suggestions := resolveName("hylian hod", testCatalog)
	if match != "Hylian Hood" {
		t.Errorf("got match %q, expected Hylian Hood", match)
	}
	if suggestions != nil {
		t.Errorf("got suggestions %v for a clear match", suggestions)
	}
}

func TestResolveNameExact(t *testing.T) {
	match, _ := resolveName("hylian hood", testCatalog)
	if match != "Hylian Hood" {
		t.Errorf("got match %q, expected Hylian Hood", match)
	}
}

func TestResolveNameAmbiguous(t *testing.T) {
	match, suggestions := resolveName("zora", testCatalog)
	if match != "" {
		t.Errorf("got match %q for an ambiguous query", match)
	}
	if len(suggestions) != 3 {
		t.Errorf("got %d suggestions, expected the 3 Zora pieces: %v", len(suggestions), suggestions)
	}
}

func TestResolveNameMiss(t *testing.T) {
	match, suggestions := resolveName("xyzzy", testCatalog)
	if match != "" || suggestions != nil {
		t.Errorf("got match %q suggestions %v for garbage input", match, suggestions)
	}
}

func TestMissResponse(t *testing.T) {
	plain := missResponse("a material", "wood", nil)
	if plain != `I don't know a material called "wood".` {
		t.Errorf("got %q", plain)
	}

	suggested := missResponse("an armor piece", "zora", []string{"Zora Helm", "Zora Armor"})
	if !strings.HasSuffix(suggested, "Did you mean: Zora Helm, Zora Armor?") {
		t.Errorf("got %q", suggested)
	}
}

func TestArmorEmbed(t *testing.T) {
	armor := &Armor{ID: 1, Name: "Hylian Hood", SetName: "Hylian", BodyPart: BodyPartHead, BaseDefense: 3}
	upgrades := []*Upgrade{
		{Tier: 1, Defense: 5, Materials: []Material{{"Bokoblin Horn", 5}}},
		{Tier: 2, Defense: 8, Materials: []Material{{"Bokoblin Horn", 8}, {"Bokoblin Fang", 5}}},
		{Tier: 3, Defense: 12, Materials: []Material{{"Bokoblin Fang", 10}, {"Bokoblin Guts", 5}}},
		{Tier: 4, Defense: 20, Materials: []Material{{"Bokoblin Guts", 15}, {"Amber", 30}}},
	}

	embed := armorEmbed(armor, upgrades)
	if embed.Title != "Hylian Hood" {
		t.Errorf("title was %q", embed.Title)
	}
	if embed.Description != "Head piece of the Hylian set. Base defense 3." {
		t.Errorf("description was %q", embed.Description)
	}
	if len(embed.Fields) != 4 {
		t.Fatalf("got %d fields, expected 4", len(embed.Fields))
	}
	if embed.Fields[0].Name != "★" || embed.Fields[3].Name != "★★★★" {
		t.Errorf("tier field names were %q and %q", embed.Fields[0].Name, embed.Fields[3].Name)
	}
	if embed.Fields[1].Value != "Defense 8\n8× Bokoblin Horn\n5× Bokoblin Fang" {
		t.Errorf("tier 2 value was %q", embed.Fields[1].Value)
	}
}

func TestSetEmbed(t *testing.T) {
	pieces := []*Armor{
		{Name: "Zora Helm", SetName: "Zora", BodyPart: BodyPartHead, BaseDefense: 3},
		{Name: "Zora Armor", SetName: "Zora", BodyPart: BodyPartBody, BaseDefense: 3},
		{Name: "Zora Greaves", SetName: "Zora", BodyPart: BodyPartLegs, BaseDefense: 3},
	}

	embed := setEmbed(pieces, 60)
	if embed.Title != "Zora set" {
		t.Errorf("title was %q", embed.Title)
	}
	if !strings.Contains(embed.Description, "**Body**: Zora Armor (base defense 3)") {
		t.Errorf("description was %q", embed.Description)
	}
	if embed.Footer.Text != "Fully upgraded the set totals 60 defense." {
		t.Errorf("footer was %q", embed.Footer.Text)
	}
}

func TestMaterialEmbed(t *testing.T) {
	uses := []*MaterialUse{
		{ArmorName: "Zora Helm", Tier: 3, Material: "Lizalfos Tail", Quantity: 5},
		{ArmorName: "Zora Helm", Tier: 4, Material: "Lizalfos Tail", Quantity: 10},
	}

	embed := materialEmbed(uses)
	if embed.Title != "Lizalfos Tail" {
		t.Errorf("title was %q", embed.Title)
	}
	if !strings.Contains(embed.Description, "Zora Helm ★★★ (5×)") {
		t.Errorf("description was %q", embed.Description)
	}
	if embed.Footer.Text != "Needed for 2 upgrades, 15 in total." {
		t.Errorf("footer was %q", embed.Footer.Text)
	}
}

func TestMaterialEmbedSingular(t *testing.T) {
	uses := []*MaterialUse{
		{ArmorName: "Ancient Helm", Tier: 4, Material: "Star Fragment", Quantity: 1},
	}

	if footer := materialEmbed(uses).Footer.Text; footer != "Needed for 1 upgrade, 1 in total." {
		t.Errorf("footer was %q", footer)
	}
}
