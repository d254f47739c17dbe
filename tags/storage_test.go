package tags

import (
	"testing"

	"github.com/lurelin/medli/common"
	"github.com/lurelin/medli/common/testutils"
)

var servicesUp = false

func init() {
	common.InitTest()

	if common.PQ == nil {
		return
	}

	err := testutils.InitTables(common.PQ, []string{"tag_lookup", "tags"}, DBSchemas)
	if err == nil {
		servicesUp = true
	}
}

func TestCreateTagNameUniquePerServer(t *testing.T) {
	if !servicesUp {
		t.Skip("postgres not available, skipping.")
		return
	}
	defer testutils.ClearTables(common.PQ, "tag_lookup", "tags")

	err := CreateTag(10, 100, "Recipe", "tomato soup")
	if err != nil {
		t.Fatal("failed creating tag: ", err)
	}

	// different casing, same server
	if err = CreateTag(10, 101, "recipe", "chicken soup"); err != ErrTagExists {
		t.Error("expected ErrTagExists, got: ", err)
	}

	// same name on another server is fine
	if err = CreateTag(11, 101, "recipe", "pea soup"); err != nil {
		t.Error("failed creating tag on another server: ", err)
	}

	tag, err := GetTag(10, "RECIPE")
	if err != nil {
		t.Fatal("failed fetching tag: ", err)
	}

	if tag.Content != "tomato soup" {
		t.Error("wrong content: ", tag.Content)
	}
}

func TestDeleteTagTakesAliases(t *testing.T) {
	if !servicesUp {
		t.Skip("postgres not available, skipping.")
		return
	}
	defer testutils.ClearTables(common.PQ, "tag_lookup", "tags")

	if err := CreateTag(10, 100, "pasta", "boil the water first"); err != nil {
		t.Fatal("failed creating tag: ", err)
	}

	if err := CreateAlias(10, 100, "noodles", "pasta"); err != nil {
		t.Fatal("failed creating alias: ", err)
	}

	// deleting an alias leaves the tag itself alone
	wasTag, err := DeleteTag(10, "noodles", 0)
	if err != nil {
		t.Fatal("failed deleting alias: ", err)
	}
	if wasTag {
		t.Error("alias delete reported a full tag delete")
	}

	if _, err = GetTag(10, "pasta"); err != nil {
		t.Error("tag should have survived the alias delete: ", err)
	}

	// deleting the main name drops every remaining entry through the cascade
	if err := CreateAlias(10, 100, "noodles", "pasta"); err != nil {
		t.Fatal("failed recreating alias: ", err)
	}

	wasTag, err = DeleteTag(10, "pasta", 0)
	if err != nil {
		t.Fatal("failed deleting tag: ", err)
	}
	if !wasTag {
		t.Error("main name delete didn't report a full tag delete")
	}

	if _, err = GetTag(10, "noodles"); err != ErrTagNotFound {
		t.Error("alias should be gone after the tag delete, got: ", err)
	}
}
