package text

import (
	"strings"

	"cursorsuggest/types"
)

// EditorRows splits a buffer line into the rows an editor shows for it. Rows
// keep their breaks except the last one. A line is normally one row; a line
// carrying a kept blank line after its text spans two.
func EditorRows(line string) []string {
	inner := DropLineBreak(line)
	rows := SplitContent(inner)
	if inner == "" || LineBreak(inner) != "" {
		rows = append(rows, "")
	}
	return rows
}

// SameContent reports whether a and b hold the same text, however it is
// split into lines.
func SameContent(a, b []string) bool {
	return strings.Join(a, "") == strings.Join(b, "")
}

// RowPosition maps pos, a position in lines, to editor rows. The row's
// character is still in UTF-16 units.
func RowPosition(lines []string, pos types.CursorPosition) types.CursorPosition {
	row := 0
	for i, line := range lines {
		if i == pos.Line {
			ch := max(pos.Character, 0)
			rows := EditorRows(line)
			for j, r := range rows {
				w := UTF16Len(DropLineBreak(r))
				if ch <= w || j == len(rows)-1 {
					return types.CursorPosition{Line: row + j, Character: ch}
				}
				ch -= UTF16Len(r)
			}
		}
		row += len(EditorRows(line))
	}
	return types.CursorPosition{Line: row + pos.Line - len(lines), Character: pos.Character}
}

// LinePosition is the inverse of RowPosition: it maps a position given in
// editor rows onto lines.
func LinePosition(lines []string, pos types.CursorPosition) types.CursorPosition {
	row := pos.Line
	for i, line := range lines {
		rows := EditorRows(line)
		if row < len(rows) {
			ch := pos.Character
			for _, r := range rows[:row] {
				ch += UTF16Len(r)
			}
			return types.CursorPosition{Line: i, Character: ch}
		}
		row -= len(rows)
	}
	return types.CursorPosition{Line: len(lines) + row, Character: pos.Character}
}
