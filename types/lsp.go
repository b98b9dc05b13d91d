package types

import (
	lsp "github.com/sourcegraph/go-lsp"
)

// Completion sources speak LSP, whose character offsets are UTF-16 code
// units. The conversions below are therefore plain field copies.

func PositionFromLSP(p lsp.Position) CursorPosition {
	return CursorPosition{Line: p.Line, Character: p.Character}
}

func (p CursorPosition) LSP() lsp.Position {
	return lsp.Position{Line: p.Line, Character: p.Character}
}

func RangeFromLSP(r lsp.Range) CursorRange {
	return CursorRange{Start: PositionFromLSP(r.Start), End: PositionFromLSP(r.End)}
}

func (r CursorRange) LSP() lsp.Range {
	return lsp.Range{Start: r.Start.LSP(), End: r.End.LSP()}
}

// WireSuggestion is the JSON shape completion sources send
type WireSuggestion struct {
	ID       string       `json:"id"`
	Text     string       `json:"text"`
	Position lsp.Position `json:"position"`
	Range    lsp.Range    `json:"range"`
}

func (w WireSuggestion) Suggestion() CodeSuggestion {
	return CodeSuggestion{
		ID:       w.ID,
		Text:     w.Text,
		Position: PositionFromLSP(w.Position),
		Range:    RangeFromLSP(w.Range),
	}
}

func (s CodeSuggestion) Wire() WireSuggestion {
	return WireSuggestion{
		ID:       s.ID,
		Text:     s.Text,
		Position: s.Position.LSP(),
		Range:    s.Range.LSP(),
	}
}
