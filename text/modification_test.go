package text

import (
	"testing"

	"cursorsuggest/assert"
)

// fakeArray records how many single element inserts it received
type fakeArray struct {
	items   []string
	inserts int
}

func (a *fakeArray) Count() int { return len(a.items) }

func (a *fakeArray) RemoveRange(index, count int) {
	a.items = append(a.items[:index], a.items[index+count:]...)
}

func (a *fakeArray) InsertAt(index int, line string) {
	a.inserts++
	a.items = append(a.items, "")
	copy(a.items[index+1:], a.items[index:])
	a.items[index] = line
}

func TestApply(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		mods  []Modification
		want  []string
	}{
		{
			name:  "replace a line",
			lines: []string{"a", "b", "c"},
			mods:  []Modification{NewDeleted(1, 1, nil), NewInserted(1, []string{"x", "y"})},
			want:  []string{"a", "x", "y", "c"},
		},
		{
			name:  "delete clamps past the end",
			lines: []string{"a", "b", "c"},
			mods:  []Modification{NewDeleted(2, 10, nil)},
			want:  []string{"a", "b"},
		},
		{
			name:  "delete clamps negative start",
			lines: []string{"a", "b", "c"},
			mods:  []Modification{NewDeleted(-3, 0, nil)},
			want:  []string{"b", "c"},
		},
		{
			name:  "delete on empty buffer is a no-op",
			lines: []string{},
			mods:  []Modification{NewDeleted(0, 3, nil)},
			want:  []string{},
		},
		{
			name:  "insert past the end appends",
			lines: []string{"a"},
			mods:  []Modification{NewInserted(99, []string{"z"})},
			want:  []string{"a", "z"},
		},
		{
			name:  "later entries see earlier ones",
			lines: []string{"a", "b"},
			mods:  []Modification{NewInserted(0, []string{"x"}), NewDeleted(2, 2, nil)},
			want:  []string{"x", "a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := append([]string(nil), tt.lines...)
			got := Apply(tt.lines, tt.mods)
			assert.Equal(t, tt.want, got, "applied lines")
			assert.Equal(t, before, tt.lines, "input untouched")

			arr := &fakeArray{items: append([]string(nil), tt.lines...)}
			ApplyToArray(arr, tt.mods)
			assert.Equal(t, tt.want, arr.items, "array replay matches")
		})
	}
}

func TestApplyToArray_KeepsInsertOrder(t *testing.T) {
	arr := &fakeArray{items: []string{"first", "last"}}
	ApplyToArray(arr, []Modification{NewInserted(1, []string{"one", "two", "three"})})

	assert.Equal(t, []string{"first", "one", "two", "three", "last"}, arr.items, "order preserved")
	assert.Equal(t, 3, arr.inserts, "one insert per line")
}

func TestInvert(t *testing.T) {
	original := []string{"a\n", "b\n", "c\n"}
	mods := []Modification{
		NewDeleted(1, 2, []string{"b\n", "c\n"}),
		NewInserted(1, []string{"x\n"}),
		NewInserted(0, []string{"y\n", "z\n"}),
	}

	edited := Apply(original, mods)
	assert.Equal(t, []string{"y\n", "z\n", "a\n", "x\n"}, edited, "edited")

	restored := Apply(edited, Invert(mods))
	assert.Equal(t, original, restored, "inverse restores")
}

func TestInvert_SkipsEntriesWithoutLines(t *testing.T) {
	inverse := Invert([]Modification{NewDeleted(0, 1, nil), NewInserted(0, []string{"a"})})

	assert.Len(t, inverse, 1, "only the insertion inverts")
	assert.Equal(t, Deleted, inverse[0].Kind, "kind")
	assert.Equal(t, 0, inverse[0].End, "end")
}

func TestLineCountDelta(t *testing.T) {
	mods := []Modification{NewDeleted(0, 2, nil), NewInserted(0, []string{"a"})}
	assert.Equal(t, -2, LineCountDelta(mods), "delta")
}

func TestModificationString(t *testing.T) {
	assert.Equal(t, "deleted(1...3)", NewDeleted(1, 3, nil).String(), "deleted")
	assert.Equal(t, "inserted(2, 1 lines)", NewInserted(2, []string{"a"}).String(), "inserted")
}
