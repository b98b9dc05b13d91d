package suggestion

import (
	"testing"

	"cursorsuggest/assert"
	"cursorsuggest/types"
)

func single(id string) Group {
	return Group{Source: "src-" + id, Suggestions: []types.CodeSuggestion{{ID: id}}}
}

func ids(l *CircularList) []string {
	var out []string
	for _, s := range l.Suggestions() {
		out = append(out, s.ID)
	}
	return out
}

func TestActualIndex(t *testing.T) {
	tests := []struct {
		name                    string
		external, anchor, count int
		want                    int
	}{
		{"identity", 2, 0, 4, 2},
		{"rotated", 1, 2, 4, 3},
		{"wraps forward", 3, 2, 4, 1},
		{"negative wraps back", -1, 0, 4, 3},
		{"large negative", -9, 0, 4, 3},
		{"large positive", 13, 1, 4, 2},
		{"empty list", 5, 3, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ActualIndex(tt.external, tt.anchor, tt.count), "actual index")
		})
	}
}

func TestCircularList_CyclesForwardBackToStart(t *testing.T) {
	l := NewCircularList([]Group{single("a"), single("b"), single("c"), single("d")})
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(l), "initial order")

	l.OffsetAnchor(1)
	assert.Equal(t, []string{"b", "c", "d", "a"}, ids(l), "after one step")
	l.OffsetAnchor(1)
	l.OffsetAnchor(1)
	l.OffsetAnchor(1)

	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(l), "back to start")
	assert.Equal(t, 0, l.Anchor(), "anchor")
}

func TestCircularList_BackwardWraps(t *testing.T) {
	l := NewCircularList([]Group{single("a"), single("b"), single("c"), single("d")})

	l.OffsetAnchor(-1)

	assert.Equal(t, []string{"d", "a", "b", "c"}, ids(l), "external order")
	active, ok := l.Active()
	assert.True(t, ok, "has active")
	assert.Equal(t, "d", active.ID, "active")
	assert.Equal(t, "src-d", l.ActiveSource(), "active source")
}

func TestCircularList_RotationComposes(t *testing.T) {
	groups := []Group{single("a"), single("b"), single("c"), single("d"), single("e")}

	for a := -7; a <= 7; a++ {
		for b := -7; b <= 7; b++ {
			twice := NewCircularList(groups)
			twice.OffsetAnchor(a)
			twice.OffsetAnchor(b)

			once := NewCircularList(groups)
			once.OffsetAnchor(a + b)

			assert.Equal(t, once.Anchor(), twice.Anchor(), "offset(a); offset(b) == offset(a+b)")
		}
	}

	l := NewCircularList(groups)
	l.OffsetAnchor(2)
	l.OffsetAnchor(l.Count())
	assert.Equal(t, 2, l.Anchor(), "offset by count is a no-op")
}

func TestCircularList_FlattensGroups(t *testing.T) {
	l := NewCircularList([]Group{
		{Source: "model", Suggestions: []types.CodeSuggestion{{ID: "m1"}, {ID: "m2"}}},
		{Source: "snippet", Suggestions: []types.CodeSuggestion{{ID: "s1"}}},
	})

	assert.Equal(t, 3, l.Count(), "count is per suggestion")
	l.OffsetAnchor(1)
	active, _ := l.Active()
	assert.Equal(t, "m2", active.ID, "cycles within a group")
	assert.Equal(t, "model", l.ActiveSource(), "source")

	l.OffsetAnchor(1)
	assert.Equal(t, "snippet", l.ActiveSource(), "next group")
	assert.Len(t, l.Groups(), 2, "groups untouched")
}

func TestCircularList_Empty(t *testing.T) {
	l := NewCircularList(nil)

	l.OffsetAnchor(3)
	assert.Equal(t, 0, l.Anchor(), "anchor stays")
	assert.True(t, l.IsEmpty(), "empty")

	_, ok := l.At(2)
	assert.False(t, ok, "nothing to return")
	assert.Equal(t, "", l.ActiveSource(), "no source")
	assert.Len(t, l.Suggestions(), 0, "no suggestions")
}

func TestCircularList_ReplaceResetsAnchor(t *testing.T) {
	l := NewCircularList([]Group{single("a"), single("b")})
	l.OffsetAnchor(1)

	l.Replace([]Group{single("x"), single("y"), single("z")})

	assert.Equal(t, 0, l.Anchor(), "anchor reset")
	assert.Equal(t, []string{"x", "y", "z"}, ids(l), "new order")

	l.Clear()
	assert.True(t, l.IsEmpty(), "cleared")
}
