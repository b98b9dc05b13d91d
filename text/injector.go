package text

import (
	"cmp"
	"slices"

	"cursorsuggest/types"
)

// ExtraInfo collects what one accept or reject call did. It is scoped to that
// call and not meant to be kept.
type ExtraInfo struct {
	DidChangeContent        bool
	DidChangeCursorPosition bool
	// ModificationRanges maps a suggestion ID to the span it now occupies,
	// from the start of its range to the cursor placed after it.
	ModificationRanges map[string]types.CursorRange
	Modifications      []Modification
}

func NewExtraInfo() *ExtraInfo {
	return &ExtraInfo{ModificationRanges: make(map[string]types.CursorRange)}
}

// Presented describes a suggestion currently shown in a buffer: the span it
// occupies and the log that put it there.
type Presented struct {
	ID            string
	Range         types.CursorRange
	Modifications []Modification
}

// pendingSuggestion is the working copy of a suggestion during one call.
// replacingLines holds the lines its range spans, captured right before the
// edit is applied.
type pendingSuggestion struct {
	types.CodeSuggestion
	replacingLines []string
}

// AcceptSuggestion merges one suggestion into lines. It returns the edited
// lines and the cursor placed at the end of the inserted text, replacing
// cursor. The input slice is not modified. The call never fails: out of range
// coordinates are clamped and a malformed range inserts without deleting.
func AcceptSuggestion(lines []string, cursor types.CursorPosition, suggestion types.CodeSuggestion, extra *ExtraInfo) ([]string, types.CursorPosition) {
	if extra == nil {
		extra = NewExtraInfo()
	}
	content := slices.Clone(lines)
	p := pendingSuggestion{
		CodeSuggestion: suggestion,
		replacingLines: linesInRange(content, suggestion.Range),
	}
	return acceptSuggestion(content, p, extra)
}

// AcceptSuggestions merges several suggestions whose ranges are all expressed
// against lines. They are applied in order of their range start, each one
// shifted by the lines added or removed by the ones before it. A suggestion
// starting on the line the previous one ended on, right of that end, is also
// shifted along the line. Overlapping ranges give an unspecified, but
// well-formed, result.
func AcceptSuggestions(lines []string, cursor types.CursorPosition, suggestions []types.CodeSuggestion, extra *ExtraInfo) ([]string, types.CursorPosition) {
	if extra == nil {
		extra = NewExtraInfo()
	}
	content := slices.Clone(lines)

	sorted := slices.Clone(suggestions)
	slices.SortStableFunc(sorted, func(a, b types.CodeSuggestion) int {
		if c := cmp.Compare(a.Range.Start.Line, b.Range.Start.Line); c != 0 {
			return c
		}
		return cmp.Compare(a.Range.Start.Character, b.Range.Start.Character)
	})

	batchStart := len(extra.Modifications)
	var prevEnd, prevCursor types.CursorPosition
	chained := false
	for _, s := range sorted {
		original := s.Range
		if chained && followsOnLine(original, prevEnd) {
			// starts on the line the previous suggestion ended on, right of
			// its end: that text now sits after prevCursor
			s.Range.Start = onLine(original.Start, prevEnd, prevCursor)
			if original.End.Line == prevEnd.Line {
				s.Range.End = onLine(original.End, prevEnd, prevCursor)
			} else {
				s.Range.End.Line += lineDelta(extra.Modifications[batchStart:], original.End.Line)
			}
			if s.Position.Line >= 0 {
				s.Position.Line += s.Range.Start.Line - original.Start.Line
			}
		} else if delta := lineDelta(extra.Modifications[batchStart:], original.Start.Line); delta != 0 {
			s.Range = s.Range.ShiftLines(delta)
			if s.Position.Line >= 0 {
				s.Position.Line += delta
			}
		}
		p := pendingSuggestion{
			CodeSuggestion: s,
			replacingLines: linesInRange(content, s.Range),
		}
		content, cursor = acceptSuggestion(content, p, extra)
		prevEnd, prevCursor, chained = original.End, cursor, original.IsValid()
	}
	return content, cursor
}

func followsOnLine(r types.CursorRange, prevEnd types.CursorPosition) bool {
	return r.IsValid() && r.Start.Line == prevEnd.Line && r.Start.Character >= prevEnd.Character
}

// onLine moves pos, on the line the previous suggestion ended on, to where
// that line's recovered suffix was placed.
func onLine(pos, prevEnd, prevCursor types.CursorPosition) types.CursorPosition {
	return types.CursorPosition{
		Line:      prevCursor.Line,
		Character: prevCursor.Character + pos.Character - max(prevEnd.Character, 0),
	}
}

// lineDelta returns how far line, given in the coordinates the log starts
// from, has moved once every modification in mods is replayed. Each entry is
// compared against the line's position at that point of the log.
func lineDelta(mods []Modification, line int) int {
	pos := line
	for _, m := range mods {
		switch m.Kind {
		case Deleted:
			switch {
			case m.End < pos:
				pos -= m.End - m.Start + 1
			case m.Start < pos:
				// straddles: only the lines above move it
				pos = m.Start
			}
		case Inserted:
			if m.Start <= pos {
				pos += len(m.Lines)
			}
		}
	}
	return pos - line
}

func acceptSuggestion(content []string, p pendingSuggestion, extra *ExtraInfo) ([]string, types.CursorPosition) {
	extra.DidChangeContent = true
	extra.DidChangeCursorPosition = true

	start, end := p.Range.Start, p.Range.End
	ending := LineEnding(content)
	startLine := max(start.Line, 0)

	var firstRemovedLine, lastRemovedLine string
	var hasFirst, hasLast bool

	if p.Range.IsValid() && startLine < len(content) {
		endLine := min(end.Line, len(content)-1)
		if endLine >= startLine {
			removed := slices.Clone(content[startLine : endLine+1])
			content = slices.Delete(content, startLine, endLine+1)
			extra.Modifications = append(extra.Modifications, NewDeleted(startLine, endLine, removed))

			firstRemovedLine, hasFirst = removed[0], true
			if idx := end.Line - startLine; idx < len(p.replacingLines) {
				lastRemovedLine, hasLast = p.replacingLines[idx], true
			}
		}
	}

	toBeInserted := BreakLines(p.Text, ending, true)

	// keep what sits left of the range on its first line
	if hasFirst && !IsEmptyOrNewline(firstRemovedLine) &&
		start.Character > 0 && start.Character < UTF16Len(firstRemovedLine) {
		leftover := DropLineBreak(firstRemovedLine[:ByteOffset(firstRemovedLine, start.Character)])
		toBeInserted[0] = leftover + toBeInserted[0]
	}

	recovered := 0
	if hasLast {
		recovered = recoverSuffix(end, toBeInserted, lastRemovedLine, ending)
	}

	last := len(toBeInserted) - 1
	at := min(startLine, len(content))
	content = slices.Insert(content, at, toBeInserted...)
	extra.Modifications = append(extra.Modifications, NewInserted(at, slices.Clone(toBeInserted)))

	character := max(UTF16Len(DropLineBreak(toBeInserted[last]))-recovered, 0)
	cursor := types.CursorPosition{Line: at + last, Character: character}

	if extra.ModificationRanges == nil {
		extra.ModificationRanges = make(map[string]types.CursorRange)
	}
	extra.ModificationRanges[p.ID] = types.CursorRange{Start: start, End: cursor}

	return content, cursor
}

// recoverSuffix appends the part of lastRemovedLine right of the range end to
// the last line of toBeInserted. Returns the recovered length in UTF-16 units.
// A removed blank line is kept whole: its break follows the inserted text,
// so the last element then holds two breaks.
func recoverSuffix(end types.CursorPosition, toBeInserted []string, lastRemovedLine, ending string) int {
	if lastRemovedLine == "" {
		return 0
	}
	last := len(toBeInserted) - 1
	if IsEmptyOrNewline(lastRemovedLine) {
		toBeInserted[last] += ending
		return UTF16Len(ending)
	}
	line := DropLineBreak(lastRemovedLine)
	suffix := RemoveLeadingPlaceholder(line[ByteOffset(line, end.Character):])
	if suffix == "" {
		return 0
	}
	toBeInserted[last] = RecoverLineBreak(DropLineBreak(toBeInserted[last])+suffix, ending)
	return UTF16Len(suffix)
}

// linesInRange copies the lines r spans, clamped to the buffer. Malformed
// ranges span nothing.
func linesInRange(lines []string, r types.CursorRange) []string {
	if !r.IsValid() {
		return nil
	}
	start := max(r.Start.Line, 0)
	end := min(r.End.Line, len(lines)-1)
	if start > end {
		return nil
	}
	return slices.Clone(lines[start : end+1])
}

// RejectSuggestion restores lines to their state before presented was
// accepted by replaying the inverse of its log. The cursor goes back to the
// start of the suggestion if it was still where accepting left it, one line
// above that start if it had moved elsewhere inside the suggestion, and stays
// on its text otherwise.
func RejectSuggestion(lines []string, cursor types.CursorPosition, presented Presented, extra *ExtraInfo) ([]string, types.CursorPosition) {
	if extra == nil {
		extra = NewExtraInfo()
	}
	inverse := Invert(presented.Modifications)
	if len(inverse) == 0 {
		return slices.Clone(lines), cursor
	}

	s := &lineSlice{lines: slices.Clone(lines)}
	before := s.Len()
	ApplyTo(s, inverse)
	extra.Modifications = append(extra.Modifications, inverse...)
	extra.DidChangeContent = true

	newCursor := rejectedCursor(cursor, presented.Range, s.Len()-before)
	newCursor.Line = min(newCursor.Line, max(s.Len()-1, 0))
	if newCursor != cursor {
		extra.DidChangeCursorPosition = true
	}
	return s.lines, newCursor
}

func rejectedCursor(cursor types.CursorPosition, span types.CursorRange, delta int) types.CursorPosition {
	start := types.CursorPosition{Line: max(span.Start.Line, 0), Character: max(span.Start.Character, 0)}
	switch {
	case cursor == span.End:
		return start
	case cursor.Line >= span.Start.Line && cursor.Line <= span.End.Line:
		return types.CursorPosition{Line: max(span.Start.Line-1, 0), Character: 0}
	case cursor.Line > span.End.Line:
		return types.CursorPosition{Line: max(cursor.Line+delta, 0), Character: cursor.Character}
	default:
		return cursor
	}
}
