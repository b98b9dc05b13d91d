package text

import (
	"fmt"
	"slices"
)

// ModificationKind tags a Modification
type ModificationKind int

const (
	Deleted ModificationKind = iota
	Inserted
)

func (k ModificationKind) String() string {
	switch k {
	case Deleted:
		return "deleted"
	case Inserted:
		return "inserted"
	default:
		return "unknown"
	}
}

// Modification is one line-level edit. A log of modifications is only
// meaningful when replayed in order against the buffer state it was recorded
// from, since every index is relative to the state left by the entries
// before it.
type Modification struct {
	Kind ModificationKind
	// Deleted: first removed line. Inserted: insertion index.
	Start int
	// Deleted: last removed line, inclusive. Unused for Inserted.
	End int
	// Inserted: the new lines. Deleted: the removed lines, kept so the log
	// can be inverted; replay ignores them.
	Lines []string
}

func NewDeleted(start, end int, removed []string) Modification {
	return Modification{Kind: Deleted, Start: start, End: end, Lines: removed}
}

func NewInserted(at int, lines []string) Modification {
	return Modification{Kind: Inserted, Start: at, End: at + len(lines) - 1, Lines: lines}
}

func (m Modification) String() string {
	if m.Kind == Deleted {
		return fmt.Sprintf("deleted(%d...%d)", m.Start, m.End)
	}
	return fmt.Sprintf("inserted(%d, %d lines)", m.Start, len(m.Lines))
}

// LineSink is a line buffer a modification log can be replayed into.
// Indices passed by ApplyTo are already clamped to the sink's bounds.
type LineSink interface {
	Len() int
	// RemoveLines removes the half-open span [start, end)
	RemoveLines(start, end int)
	// InsertLines inserts lines before index at, 0 <= at <= Len()
	InsertLines(at int, lines []string)
}

// ApplyTo replays mods into sink in order.
func ApplyTo(sink LineSink, mods []Modification) {
	for _, m := range mods {
		applyModification(sink, m)
	}
}

func applyModification(sink LineSink, m Modification) {
	n := sink.Len()
	switch m.Kind {
	case Deleted:
		if n == 0 {
			return
		}
		start := max(m.Start, 0)
		end := min(m.End, n-1)
		if start > end {
			return
		}
		sink.RemoveLines(start, end+1)
	case Inserted:
		if len(m.Lines) == 0 {
			return
		}
		sink.InsertLines(min(max(m.Start, 0), n), m.Lines)
	}
}

// Apply replays mods over a copy of lines and returns the result
func Apply(lines []string, mods []Modification) []string {
	s := &lineSlice{lines: slices.Clone(lines)}
	ApplyTo(s, mods)
	return s.lines
}

type lineSlice struct {
	lines []string
}

func (s *lineSlice) Len() int { return len(s.lines) }

func (s *lineSlice) RemoveLines(start, end int) {
	s.lines = slices.Delete(s.lines, start, end)
}

func (s *lineSlice) InsertLines(at int, lines []string) {
	s.lines = slices.Insert(s.lines, at, lines...)
}

// MutableArray is a shared, reference-typed line array owned by someone else
// (a widget's text storage, for instance) that only supports single element
// inserts.
type MutableArray interface {
	Count() int
	RemoveRange(index, count int)
	InsertAt(index int, line string)
}

// ApplyToArray replays mods into array with the same semantics as ApplyTo.
func ApplyToArray(array MutableArray, mods []Modification) {
	ApplyTo(arraySink{array: array}, mods)
}

type arraySink struct {
	array MutableArray
}

func (a arraySink) Len() int { return a.array.Count() }

func (a arraySink) RemoveLines(start, end int) {
	a.array.RemoveRange(start, end-start)
}

// InsertLines inserts back to front at the same index so the lines end up in
// their original order.
func (a arraySink) InsertLines(at int, lines []string) {
	for i := len(lines) - 1; i >= 0; i-- {
		a.array.InsertAt(at, lines[i])
	}
}

// Invert returns the log that undoes mods when replayed against the state mods
// produced. Deletions that did not record their removed lines cannot be
// restored and are skipped, as are empty insertions.
func Invert(mods []Modification) []Modification {
	inverse := make([]Modification, 0, len(mods))
	for i := len(mods) - 1; i >= 0; i-- {
		m := mods[i]
		if len(m.Lines) == 0 {
			continue
		}
		switch m.Kind {
		case Inserted:
			inverse = append(inverse, NewDeleted(m.Start, m.Start+len(m.Lines)-1, m.Lines))
		case Deleted:
			inverse = append(inverse, NewInserted(m.Start, m.Lines))
		}
	}
	return inverse
}

// LineCountDelta is the net number of lines mods add
func LineCountDelta(mods []Modification) int {
	delta := 0
	for _, m := range mods {
		switch m.Kind {
		case Deleted:
			delta -= m.End - m.Start + 1
		case Inserted:
			delta += len(m.Lines)
		}
	}
	return delta
}
