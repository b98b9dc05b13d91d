package text

import (
	"unicode/utf16"
	"unicode/utf8"
)

// UTF16Len returns the length of s in UTF-16 code units, the unit editor
// hosts and LSP use for character offsets.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16Width(r)
	}
	return n
}

// ByteOffset converts a UTF-16 offset into a byte index into s. Offsets are
// clamped to [0, len(s)]. An offset that lands between the two halves of a
// surrogate pair rounds down to the start of that rune so slicing never splits
// UTF-8 sequences.
func ByteOffset(s string, units int) int {
	if units <= 0 {
		return 0
	}
	seen := 0
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		w := utf16Width(r)
		if seen+w > units {
			return i
		}
		seen += w
		i += size
		if seen == units {
			return i
		}
	}
	return len(s)
}

// UTF16Offset converts a byte index into s into UTF-16 units. Indices inside
// a UTF-8 sequence count up to the start of that rune.
func UTF16Offset(s string, byteIdx int) int {
	if byteIdx > len(s) {
		byteIdx = len(s)
	}
	n := 0
	for i := 0; i < byteIdx; {
		r, size := utf8.DecodeRuneInString(s[i:])
		if i+size > byteIdx {
			break
		}
		n += utf16Width(r)
		i += size
	}
	return n
}

func utf16Width(r rune) int {
	if w := utf16.RuneLen(r); w > 0 {
		return w
	}
	// invalid code points are replaced by U+FFFD, one unit
	return 1
}
