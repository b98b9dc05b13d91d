package engine

import (
	"encoding/json"
	"fmt"

	"cursorsuggest/suggestion"
	"cursorsuggest/text"
	"cursorsuggest/types"

	"github.com/sourcegraph/go-lsp"
)

type EventType string

// Event type constants
const (
	EventTextChanged      EventType = "text_changed"
	EventSuggestionsReady EventType = "suggestions_ready"
	EventNext             EventType = "next"
	EventPrevious         EventType = "previous"
	EventAccept           EventType = "accept"
	EventAcceptGroup      EventType = "accept_group"
	EventReject           EventType = "reject"
	EventClose            EventType = "close"
)

var eventTypeMap map[string]EventType

func init() {
	eventTypeMap = make(map[string]EventType)
	for _, eventType := range []EventType{
		EventTextChanged,
		EventSuggestionsReady,
		EventNext,
		EventPrevious,
		EventAccept,
		EventAcceptGroup,
		EventReject,
		EventClose,
	} {
		eventTypeMap[string(eventType)] = eventType
	}
}

// EventTypeFromString returns "" for unknown names
func EventTypeFromString(s string) EventType {
	return eventTypeMap[s]
}

// Event is one command for a document. Data is a Snapshot for
// EventTextChanged, a []suggestion.Group for EventSuggestionsReady and nil
// otherwise.
type Event struct {
	Type EventType
	Data any
}

// Snapshot is the live content of a document as the editor shows it
type Snapshot struct {
	Lines  []string
	Cursor types.CursorPosition
}

type wireSnapshot struct {
	Lines  []string     `json:"lines"`
	Cursor lsp.Position `json:"cursor"`
}

type wireGroup struct {
	Source      string                 `json:"source"`
	Suggestions []types.WireSuggestion `json:"suggestions"`
}

type wireSuggestions struct {
	Groups []wireGroup `json:"groups"`
}

// DecodeEvent builds an Event from the editor's RPC arguments. Snapshot lines
// may come without line breaks, as Neovim stores them; each gets "\n".
func DecodeEvent(name, payload string) (Event, error) {
	eventType := EventTypeFromString(name)
	if eventType == "" {
		return Event{}, fmt.Errorf("unknown event %q", name)
	}
	event := Event{Type: eventType}

	switch eventType {
	case EventTextChanged:
		var w wireSnapshot
		if err := json.Unmarshal([]byte(payload), &w); err != nil {
			return Event{}, fmt.Errorf("decode %s payload: %w", name, err)
		}
		lines := make([]string, len(w.Lines))
		for i, line := range w.Lines {
			if text.LineBreak(line) == "" {
				line += text.DefaultLineEnding
			}
			lines[i] = line
		}
		event.Data = Snapshot{Lines: lines, Cursor: types.PositionFromLSP(w.Cursor)}
	case EventSuggestionsReady:
		var w wireSuggestions
		if err := json.Unmarshal([]byte(payload), &w); err != nil {
			return Event{}, fmt.Errorf("decode %s payload: %w", name, err)
		}
		groups := make([]suggestion.Group, len(w.Groups))
		for i, g := range w.Groups {
			groups[i].Source = g.Source
			for _, s := range g.Suggestions {
				groups[i].Suggestions = append(groups[i].Suggestions, s.Suggestion())
			}
		}
		event.Data = groups
	}
	return event, nil
}
