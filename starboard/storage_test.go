package starboard

import (
	"testing"

	"github.com/lurelin/medli/common"
	"github.com/lurelin/medli/common/testutils"
)

var servicesUp = false

func init() {
	common.InitTest()

	if common.PQ == nil || common.RedisPool == nil {
		return
	}

	err := testutils.InitTables(common.PQ, []string{"starrers", "star_givers", "starboard_entries", "starboard"}, DBSchemas)
	if err == nil {
		servicesUp = true
	}
}

func TestAddStarOncePerStarrer(t *testing.T) {
	if !servicesUp {
		t.Skip("postgres or redis not available, skipping.")
		return
	}
	defer testutils.ClearTables(common.PQ, "starrers", "starboard_entries", "starboard")

	if err := CreateBoard(1000, 2000); err != nil {
		t.Fatal("failed creating board: ", err)
	}

	entryID, err := AddStar(3000, 3001, 1000, 42, 43)
	if err != nil {
		t.Fatal("failed adding star: ", err)
	}

	if _, err = AddStar(3000, 3001, 1000, 42, 43); err != ErrAlreadyStarred {
		t.Error("expected ErrAlreadyStarred, got: ", err)
	}

	// a second starrer lands on the same entry
	secondID, err := AddStar(3000, 3001, 1000, 42, 44)
	if err != nil {
		t.Fatal("failed adding second star: ", err)
	}
	if secondID != entryID {
		t.Errorf("second star created entry %d, expected %d", secondID, entryID)
	}

	count, err := CountStarrers(entryID)
	if err != nil {
		t.Fatal("failed counting starrers: ", err)
	}
	if count != 2 {
		t.Error("wrong starrer count: ", count)
	}
}

func TestDeleteBoardCascades(t *testing.T) {
	if !servicesUp {
		t.Skip("postgres or redis not available, skipping.")
		return
	}
	defer testutils.ClearTables(common.PQ, "starrers", "starboard_entries", "starboard")

	if err := CreateBoard(1000, 2000); err != nil {
		t.Fatal("failed creating board: ", err)
	}

	entryID, err := AddStar(3000, 3001, 1000, 42, 43)
	if err != nil {
		t.Fatal("failed adding star: ", err)
	}
	if _, err = AddStar(3000, 3001, 1000, 42, 44); err != nil {
		t.Fatal("failed adding second star: ", err)
	}

	if err = DeleteBoard(1000); err != nil {
		t.Fatal("failed deleting board: ", err)
	}

	entries, err := CountMemberEntries(1000, 42)
	if err != nil {
		t.Fatal("failed counting entries: ", err)
	}
	if entries != 0 {
		t.Error("entries survived the board delete: ", entries)
	}

	count, err := CountStarrers(entryID)
	if err != nil {
		t.Fatal("failed counting starrers: ", err)
	}
	if count != 0 {
		t.Error("starrers survived the board delete: ", count)
	}
}
