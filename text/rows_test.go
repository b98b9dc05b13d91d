package text

import (
	"testing"

	"cursorsuggest/assert"
	"cursorsuggest/types"
)

func TestEditorRows(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"abc\n", []string{"abc"}},
		{"abc", []string{"abc"}},
		{"\n", []string{""}},
		{"", []string{""}},
		{"struct Dog {}\n\n", []string{"struct Dog {}\n", ""}},
		{"x\r\n\r\n", []string{"x\r\n", ""}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, EditorRows(tt.line), tt.line)
	}
}

func TestSameContent(t *testing.T) {
	assert.True(t, SameContent([]string{"a\n\n", "b\n"}, []string{"a\n", "\n", "b\n"}), "split differently")
	assert.False(t, SameContent([]string{"a\n"}, []string{"a"}), "break differs")
}

func TestRowPosition_RoundTrip(t *testing.T) {
	lines := []string{"struct Cat {}\n", "\n", "struct Dog {}\n\n", "end\n"}
	tests := []struct {
		name string
		pos  types.CursorPosition
		row  types.CursorPosition
	}{
		{"first line", types.CursorPosition{Line: 0, Character: 3}, types.CursorPosition{Line: 0, Character: 3}},
		{"end of struct", types.CursorPosition{Line: 2, Character: 13}, types.CursorPosition{Line: 2, Character: 13}},
		{"kept blank line", types.CursorPosition{Line: 2, Character: 14}, types.CursorPosition{Line: 3, Character: 0}},
		{"after the blank line", types.CursorPosition{Line: 3, Character: 2}, types.CursorPosition{Line: 4, Character: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.row, RowPosition(lines, tt.pos), "to rows")
			assert.Equal(t, tt.pos, LinePosition(lines, tt.row), "back to lines")
		})
	}
}

func TestRowPosition_PastTheEnd(t *testing.T) {
	lines := []string{"a\n\n"}
	assert.Equal(t, types.CursorPosition{Line: 3, Character: 1}, RowPosition(lines, types.CursorPosition{Line: 2, Character: 1}), "rows")
	assert.Equal(t, types.CursorPosition{Line: 2, Character: 1}, LinePosition(lines, types.CursorPosition{Line: 3, Character: 1}), "lines")
}
