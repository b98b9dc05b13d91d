package types

import "fmt"

// OutOfScope marks a coordinate that is undefined.
const OutOfScope = -1

// CursorPosition is a zero-based line and UTF-16 character offset
type CursorPosition struct {
	Line      int // 0-indexed
	Character int // 0-indexed, UTF-16 code units
}

// OutOfScopePosition is the undefined position (-1, -1)
var OutOfScopePosition = CursorPosition{Line: OutOfScope, Character: OutOfScope}

// Compare orders positions lexicographically, line first.
// Returns -1, 0 or 1.
func (p CursorPosition) Compare(o CursorPosition) int {
	switch {
	case p.Line < o.Line:
		return -1
	case p.Line > o.Line:
		return 1
	case p.Character < o.Character:
		return -1
	case p.Character > o.Character:
		return 1
	default:
		return 0
	}
}

func (p CursorPosition) Less(o CursorPosition) bool { return p.Compare(o) < 0 }

func (p CursorPosition) IsOutOfScope() bool {
	return p.Line == OutOfScope && p.Character == OutOfScope
}

func (p CursorPosition) String() string {
	return fmt.Sprintf("(%d,%d)", p.Line, p.Character)
}

// CursorRange spans Start to End. Well-formed ranges have Start <= End;
// malformed ranges are tolerated and treated as empty.
type CursorRange struct {
	Start CursorPosition
	End   CursorPosition
}

// NewCursorRange builds a range from line/character pairs
func NewCursorRange(startLine, startChar, endLine, endChar int) CursorRange {
	return CursorRange{
		Start: CursorPosition{Line: startLine, Character: startChar},
		End:   CursorPosition{Line: endLine, Character: endChar},
	}
}

// IsValid reports whether Start <= End
func (r CursorRange) IsValid() bool { return r.Start.Compare(r.End) <= 0 }

// IsEmpty is true for zero-width and malformed ranges
func (r CursorRange) IsEmpty() bool { return r.Start.Compare(r.End) >= 0 }

// Contains reports whether p lies in [Start, End]. Always false for
// malformed ranges.
func (r CursorRange) Contains(p CursorPosition) bool {
	if !r.IsValid() {
		return false
	}
	return r.Start.Compare(p) <= 0 && p.Compare(r.End) <= 0
}

// LineCount is the number of lines the range touches, 0 when malformed
func (r CursorRange) LineCount() int {
	if r.End.Line < r.Start.Line {
		return 0
	}
	return r.End.Line - r.Start.Line + 1
}

// ShiftLines moves both ends of the range by delta lines
func (r CursorRange) ShiftLines(delta int) CursorRange {
	r.Start.Line += delta
	r.End.Line += delta
	return r
}

func (r CursorRange) String() string {
	return fmt.Sprintf("%s-%s", r.Start, r.End)
}

// CodeSuggestion is one candidate completion for a document.
type CodeSuggestion struct {
	ID   string
	Text string // Full replacement text, may span several lines
	// Position is where the cursor was when the suggestion was requested.
	// Diagnostics only, placement uses Range.
	Position CursorPosition
	// Range is the span of the current buffer the suggestion replaces
	Range CursorRange
}
