package ids

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrawFormat(t *testing.T) {
	g := NewGenerator(1)
	pattern := regexp.MustCompile(`^VIS\d{3}$`)
	for i := 0; i < 200; i++ {
		assert.Regexp(t, pattern, g.Draw(PrefixVisitor, WidthDefault))
	}
	assert.Regexp(t, regexp.MustCompile(`^STU\d{4}$`), g.Draw(PrefixStudent, WidthStudent))
}

func TestMatches(t *testing.T) {
	assert.True(t, Matches("VIS001", PrefixVisitor, WidthDefault))
	assert.True(t, Matches("STU1001", PrefixStudent, WidthStudent))
	assert.True(t, Matches("LOST0001", PrefixLostItem, WidthDefault), "widened ids stay valid")

	assert.False(t, Matches("VIS1", PrefixVisitor, WidthDefault))
	assert.False(t, Matches("STU001", PrefixStudent, WidthStudent))
	assert.False(t, Matches("VEH001", PrefixVisitor, WidthDefault))
	assert.False(t, Matches("VIS00a", PrefixVisitor, WidthDefault))
	assert.False(t, Matches("foo", PrefixUser, WidthDefault))
}

func TestDrawIsReproducible(t *testing.T) {
	a, b := NewGenerator(42), NewGenerator(42)
	for i := 0; i < 20; i++ {
		require.Equal(t, a.Draw(PrefixEvent, 3), b.Draw(PrefixEvent, 3))
	}
}

func TestUniqueAvoidsTakenIDs(t *testing.T) {
	g := NewGenerator(7)
	taken := map[string]bool{}
	for i := 0; i < 10; i++ {
		id := g.Unique(PrefixLostItem, 1, func(s string) bool { return taken[s] })
		require.False(t, taken[id], "duplicate id %s", id)
		taken[id] = true
	}
	assert.Len(t, taken, 10)

	// the one-digit space is full now, so the width grows
	id := g.Unique(PrefixLostItem, 1, func(s string) bool { return taken[s] })
	assert.Equal(t, "LOST00", id)
}

func TestTokenSortable(t *testing.T) {
	a := Token()
	b := Token()
	assert.Len(t, a, 26)
	assert.Less(t, a, b)
}
