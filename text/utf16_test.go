package text

import (
	"testing"

	"cursorsuggest/assert"
)

func TestUTF16Len(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"abc", 3},
		{"é", 1},
		{"😀", 2},
		{"a😀b", 4},
		{"\xffa", 2}, // invalid byte counts as one replacement char
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, UTF16Len(tt.in), tt.in)
	}
}

func TestByteOffset(t *testing.T) {
	s := "a😀b"

	tests := []struct {
		name  string
		units int
		want  int
	}{
		{"negative", -1, 0},
		{"zero", 0, 0},
		{"before emoji", 1, 1},
		{"inside surrogate pair rounds down", 2, 1},
		{"after emoji", 3, 5},
		{"end", 4, 6},
		{"past end", 10, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ByteOffset(s, tt.units), "byte offset")
		})
	}
}

func TestByteOffset_InvalidUTF8(t *testing.T) {
	assert.Equal(t, 1, ByteOffset("\xffa", 1), "invalid byte is one unit wide")
	assert.Equal(t, 2, ByteOffset("\xffa", 2), "end")
}

func TestUTF16Offset(t *testing.T) {
	s := "a😀b"

	assert.Equal(t, 0, UTF16Offset(s, 0), "start")
	assert.Equal(t, 1, UTF16Offset(s, 3), "inside emoji counts to its start")
	assert.Equal(t, 3, UTF16Offset(s, 5), "after emoji")
	assert.Equal(t, 4, UTF16Offset(s, 100), "clamped")
}

func TestByteOffset_RoundTrip(t *testing.T) {
	s := "héllo 😀 wörld"
	for units := 0; units <= UTF16Len(s); units++ {
		b := ByteOffset(s, units)
		back := UTF16Offset(s, b)
		assert.LessOrEqual(t, back, units, "round trip never moves forward")
		assert.GreaterOrEqual(t, back, units-1, "round trip moves back at most one unit")
	}
}
