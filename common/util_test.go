package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCutStringShort(t *testing.T) {
	assert.Equal(t, "short", CutStringShort("short", 10))
	assert.Equal(t, "exactly10!", CutStringShort("exactly10!", 10))
	assert.Equal(t, "this is...", CutStringShort("this is too long", 10))

	// rune aware, no split multibyte sequences
	assert.Equal(t, "ああ...", CutStringShort("ああああああ", 5))
}

func TestTimeOfSnowflake(t *testing.T) {
	// the worked example from the discord id documentation
	when := TimeOfSnowflake(175928847299117063)
	assert.EqualValues(t, 1462015105796, when.UnixMilli())
}

func TestSnowflakeOfTime(t *testing.T) {
	when := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	id := SnowflakeOfTime(when)
	assert.EqualValues(t, when.UnixMilli(), TimeOfSnowflake(id).UnixMilli())

	// ids assigned before t sort below the cutoff
	assert.Less(t, SnowflakeOfTime(when.Add(-time.Second)), id)
}

func TestContainsStringSliceFold(t *testing.T) {
	strs := []string{"Foo", "BAR"}
	assert.True(t, ContainsStringSliceFold(strs, "foo"))
	assert.True(t, ContainsStringSliceFold(strs, "bar"))
	assert.False(t, ContainsStringSliceFold(strs, "baz"))
}
