package trace

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"cursorsuggest/logger"
	"cursorsuggest/text"
	"cursorsuggest/types"
)

// Divergence is the first place two line buffers disagree
type Divergence struct {
	Line      int
	Character int // UTF-16 offset of the first differing character
	Want, Got string
}

func (d Divergence) String() string {
	return fmt.Sprintf("line %d char %d: want %q got %q", d.Line, d.Character, d.Want, d.Got)
}

// FirstDivergence compares want and got line by line. ok is false when they
// are equal.
func FirstDivergence(want, got []string) (d Divergence, ok bool) {
	for i := 0; i < max(len(want), len(got)); i++ {
		var w, g string
		if i < len(want) {
			w = want[i]
		}
		if i < len(got) {
			g = got[i]
		}
		if i >= len(want) || i >= len(got) || w != g {
			return Divergence{Line: i, Character: text.CommonPrefixLength(w, g), Want: w, Got: g}, true
		}
	}
	return Divergence{}, false
}

// Mismatch describes a record whose replay does not reproduce its result
type Mismatch struct {
	Index  int
	Op     Op
	Reason string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("#%d %s: %s", m.Index, m.Op, m.Reason)
}

// Verify re-runs the call described by rec. It checks the result against the
// recorded one, and that replaying the produced log over the input lines
// yields the same result.
func Verify(rec Record) []string {
	extra := text.NewExtraInfo()
	var got []string
	var cursor types.CursorPosition

	switch rec.Op {
	case OpAccept:
		if len(rec.Suggestions) != 1 {
			return []string{fmt.Sprintf("accept needs one suggestion, got %d", len(rec.Suggestions))}
		}
		got, cursor = text.AcceptSuggestion(rec.Lines, rec.Cursor, rec.Suggestions[0].Suggestion(), extra)
	case OpAcceptBatch:
		suggestions := make([]types.CodeSuggestion, len(rec.Suggestions))
		for i, w := range rec.Suggestions {
			suggestions[i] = w.Suggestion()
		}
		got, cursor = text.AcceptSuggestions(rec.Lines, rec.Cursor, suggestions, extra)
	case OpReject:
		if rec.Presented == nil {
			return []string{"reject without presented suggestion"}
		}
		presented := text.Presented{
			ID:            rec.Presented.ID,
			Range:         rec.Presented.Range,
			Modifications: rec.Presented.Modifications,
		}
		got, cursor = text.RejectSuggestion(rec.Lines, rec.Cursor, presented, extra)
	default:
		return []string{fmt.Sprintf("unknown op %q", rec.Op)}
	}

	var problems []string
	if d, ok := FirstDivergence(rec.Result, got); ok {
		problems = append(problems, "result differs at "+d.String())
	}
	if cursor != rec.ResultCursor {
		problems = append(problems, fmt.Sprintf("cursor %s, recorded %s", cursor, rec.ResultCursor))
	}
	if d, ok := FirstDivergence(got, text.Apply(rec.Lines, extra.Modifications)); ok {
		problems = append(problems, "log replay differs at "+d.String())
	}
	if !modificationsEqual(rec.Modifications, extra.Modifications) {
		problems = append(problems, "modification log differs from recorded log")
	}
	return problems
}

func modificationsEqual(a, b []text.Modification) bool {
	return slices.EqualFunc(a, b, func(x, y text.Modification) bool {
		return x.Kind == y.Kind && x.Start == y.Start && x.End == y.End && slices.Equal(x.Lines, y.Lines)
	})
}

// Replay verifies every record read from r and returns the mismatches found
// along with the number of records checked.
func Replay(r io.Reader) (checked int, mismatches []Mismatch, err error) {
	defer logger.Trace("trace.Replay")()
	reader := NewReader(r)
	for {
		rec, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return checked, mismatches, nil
		}
		if err != nil {
			return checked, mismatches, fmt.Errorf("read record %d: %w", checked, err)
		}
		for _, reason := range Verify(rec) {
			mismatches = append(mismatches, Mismatch{Index: checked, Op: rec.Op, Reason: reason})
		}
		checked++
	}
}
