package text

import (
	"math/rand"
	"testing"

	"cursorsuggest/assert"
)

func TestDiffModifications_Equal(t *testing.T) {
	lines := []string{"a\n", "b\n"}
	assert.Nil(t, DiffModifications(lines, lines), "no modifications")
}

func TestDiffModifications_ReplayProducesNewLines(t *testing.T) {
	tests := []struct {
		name     string
		old, new []string
	}{
		{"replace middle and append", []string{"a\n", "b\n", "c\n"}, []string{"a\n", "x\n", "c\n", "d\n"}},
		{"from empty", nil, []string{"a\n", "b\n"}},
		{"to empty", []string{"a\n", "b\n"}, nil},
		{"duplicate lines", []string{"x\n", "x\n", "y\n"}, []string{"y\n", "x\n", "x\n", "x\n"}},
		{"unicode lines", []string{"😀\n", "é\n"}, []string{"é\n", "😀\n"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mods := DiffModifications(tt.old, tt.new)
			assert.Equal(t, tt.new, Apply(tt.old, mods), "replayed")
			assert.Equal(t, tt.old, Apply(tt.new, Invert(mods)), "inverted")
		})
	}
}

func TestLineStats(t *testing.T) {
	additions, deletions := LineStats([]string{"a\n", "b\n", "c\n"}, []string{"a\n", "x\n", "c\n", "d\n"})
	assert.Equal(t, 2, additions, "additions")
	assert.Equal(t, 1, deletions, "deletions")
}

func TestDiffModifications_RandomBuffers(t *testing.T) {
	r := rand.New(rand.NewSource(3))

	for i := 0; i < 500; i++ {
		old := randomBuffer(r)
		updated := randomBuffer(r)
		mods := DiffModifications(old, updated)
		assert.Equal(t, updated, Apply(old, mods), "replayed")
	}
}
