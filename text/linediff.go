package text

import (
	"slices"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffModifications computes a modification log that turns oldLines into
// newLines. Lines are compared whole, line breaks included. Returns nil when
// both are equal.
func DiffModifications(oldLines, newLines []string) []Modification {
	if slices.Equal(oldLines, newLines) {
		return nil
	}

	runes1, runes2, lineArray := linesToRunes(oldLines, newLines)
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMainRunes(runes1, runes2, false)

	var mods []Modification
	oldIdx, newIdx, pos := 0, 0, 0
	for _, d := range diffs {
		n := utf8.RuneCountInString(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			oldIdx += n
			newIdx += n
			pos += n
		case diffmatchpatch.DiffDelete:
			removed := slices.Clone(oldLines[oldIdx : oldIdx+n])
			mods = append(mods, NewDeleted(pos, pos+n-1, removed))
			oldIdx += n
		case diffmatchpatch.DiffInsert:
			added := make([]string, 0, n)
			for _, r := range d.Text {
				added = append(added, lineArray[runeIndex(r)])
			}
			mods = append(mods, NewInserted(pos, added))
			newIdx += n
			pos += n
		}
	}
	return mods
}

// linesToRunes maps every distinct line to one rune so the diff runs over
// lines instead of characters.
func linesToRunes(a, b []string) ([]rune, []rune, []string) {
	index := make(map[string]rune)
	var lineArray []string
	encode := func(lines []string) []rune {
		out := make([]rune, len(lines))
		for i, line := range lines {
			r, ok := index[line]
			if !ok {
				r = indexRune(len(lineArray))
				index[line] = r
				lineArray = append(lineArray, line)
			}
			out[i] = r
		}
		return out
	}
	return encode(a), encode(b), lineArray
}

// indexRune skips the surrogate block, which cannot round-trip through a
// Go string.
func indexRune(i int) rune {
	r := rune(i)
	if r >= 0xD800 {
		r += 0x800
	}
	return r
}

func runeIndex(r rune) int {
	if r >= 0xD800+0x800 {
		r -= 0x800
	}
	return int(r)
}

// LineStats counts the lines added to and removed from oldLines to get
// newLines.
func LineStats(oldLines, newLines []string) (additions, deletions int) {
	for _, m := range DiffModifications(oldLines, newLines) {
		switch m.Kind {
		case Inserted:
			additions += len(m.Lines)
		case Deleted:
			deletions += len(m.Lines)
		}
	}
	return additions, deletions
}
