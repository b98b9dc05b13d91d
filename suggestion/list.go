package suggestion

import "cursorsuggest/types"

// Group holds the suggestions produced by one source, best first.
type Group struct {
	Source      string
	Suggestions []types.CodeSuggestion
}

// ActualIndex maps an external index to a position in a list of count items
// rotated by anchor. Negative and oversized values wrap.
func ActualIndex(external, anchor, count int) int {
	if count <= 0 {
		return 0
	}
	return ((external+anchor)%count + count) % count
}

type entry struct {
	source     string
	suggestion types.CodeSuggestion
}

// CircularList cycles through grouped suggestions. Groups are flattened in
// order and the anchor rotates over individual suggestions, so the item at
// external index 0 is always the active one. Rotation never reorders the
// underlying groups.
//
// Not safe for concurrent use.
type CircularList struct {
	groups  []Group
	entries []entry
	anchor  int
}

func NewCircularList(groups []Group) *CircularList {
	l := &CircularList{}
	l.Replace(groups)
	return l
}

// Replace swaps in a fresh batch of groups and resets the anchor
func (l *CircularList) Replace(groups []Group) {
	l.groups = groups
	l.entries = l.entries[:0]
	for _, g := range groups {
		for _, s := range g.Suggestions {
			l.entries = append(l.entries, entry{source: g.Source, suggestion: s})
		}
	}
	l.anchor = 0
}

// Clear drops every suggestion
func (l *CircularList) Clear() { l.Replace(nil) }

// OffsetAnchor rotates the list by delta. A no-op when empty.
func (l *CircularList) OffsetAnchor(delta int) {
	if len(l.entries) == 0 {
		return
	}
	l.anchor = ActualIndex(delta, l.anchor, len(l.entries))
}

func (l *CircularList) Count() int    { return len(l.entries) }
func (l *CircularList) Anchor() int   { return l.anchor }
func (l *CircularList) IsEmpty() bool { return len(l.entries) == 0 }

// At returns the suggestion at external index k. ok is false only when the
// list is empty.
func (l *CircularList) At(k int) (types.CodeSuggestion, bool) {
	if len(l.entries) == 0 {
		return types.CodeSuggestion{}, false
	}
	return l.entries[ActualIndex(k, l.anchor, len(l.entries))].suggestion, true
}

// Active is the suggestion at the anchor
func (l *CircularList) Active() (types.CodeSuggestion, bool) { return l.At(0) }

// ActiveSource names the group the active suggestion came from
func (l *CircularList) ActiveSource() string {
	if len(l.entries) == 0 {
		return ""
	}
	return l.entries[l.anchor].source
}

// Suggestions returns every suggestion in external order, active first
func (l *CircularList) Suggestions() []types.CodeSuggestion {
	out := make([]types.CodeSuggestion, len(l.entries))
	for k := range out {
		out[k], _ = l.At(k)
	}
	return out
}

// Groups returns the groups as they were given to Replace
func (l *CircularList) Groups() []Group { return l.groups }
