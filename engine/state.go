package engine

import (
	"slices"

	"cursorsuggest/logger"
	"cursorsuggest/metrics"
	"cursorsuggest/suggestion"
	"cursorsuggest/text"
	"cursorsuggest/trace"
	"cursorsuggest/types"
)

// String returns a human-readable name for the state
func (s state) String() string {
	switch s {
	case stateIdle:
		return "Idle"
	case stateHasSuggestion:
		return "HasSuggestion"
	default:
		return "Unknown"
	}
}

// Transition represents a valid state transition in the engine's state machine
type Transition struct {
	From   state
	Event  EventType
	Action func(*Engine, *Document, Event)
}

// transitions defines all valid state transitions of a document.
//
//	stateIdle
//	├─[TextChanged]──► adopt live lines as base, stays idle
//	└─[SuggestionsReady]──► present active suggestion ──► stateHasSuggestion
//
//	stateHasSuggestion
//	├─[Next/Previous]──► reject, rotate, present
//	├─[SuggestionsReady]──► reject, replace list, present
//	├─[TextChanged + same content]──► cursor update only
//	├─[TextChanged + other content]──► invalidate ──► stateIdle
//	├─[Accept/AcceptGroup]──► commit ──► stateIdle
//	└─[Reject]──► restore base ──► stateIdle
//
// Close drops the document from any state.
var transitions = []Transition{
	// From stateIdle
	{stateIdle, EventTextChanged, (*Engine).doAdopt},
	{stateIdle, EventSuggestionsReady, (*Engine).doPresentNew},
	{stateIdle, EventClose, (*Engine).doClose},

	// From stateHasSuggestion
	{stateHasSuggestion, EventTextChanged, (*Engine).doTextChangeWithSuggestion},
	{stateHasSuggestion, EventSuggestionsReady, (*Engine).doReplaceSuggestions},
	{stateHasSuggestion, EventNext, (*Engine).doNext},
	{stateHasSuggestion, EventPrevious, (*Engine).doPrevious},
	{stateHasSuggestion, EventAccept, (*Engine).doAccept},
	{stateHasSuggestion, EventAcceptGroup, (*Engine).doAcceptGroup},
	{stateHasSuggestion, EventReject, (*Engine).doReject},
	{stateHasSuggestion, EventClose, (*Engine).doClose},
}

// transitionMap provides O(1) lookup for transitions by (state, event) pair
var transitionMap map[transitionKey]*Transition

type transitionKey struct {
	from  state
	event EventType
}

func init() {
	transitionMap = make(map[transitionKey]*Transition)
	for i := range transitions {
		t := &transitions[i]
		transitionMap[transitionKey{from: t.From, event: t.Event}] = t
	}
}

// findTransition returns nil if no valid transition exists
func findTransition(from state, event EventType) *Transition {
	return transitionMap[transitionKey{from: from, event: event}]
}

// dispatch runs the transition for event. Returns false when the event is
// not valid in the document's state; such events are ignored.
func (e *Engine) dispatch(d *Document, event Event) bool {
	t := findTransition(d.state, event.Type)
	if t == nil {
		logger.Debug("no handler: state=%s event=%s", d.state, event.Type)
		return false
	}
	t.Action(e, d, event)
	return true
}

// Action functions. Each one leaves the document in its next state.

func (e *Engine) doAdopt(d *Document, event Event) {
	snap, ok := event.Data.(Snapshot)
	if !ok {
		logger.Warn("text_changed without snapshot on %s", d.path)
		return
	}
	e.adopt(d, snap)
}

func (e *Engine) doTextChangeWithSuggestion(d *Document, event Event) {
	snap, ok := event.Data.(Snapshot)
	if !ok {
		logger.Warn("text_changed without snapshot on %s", d.path)
		return
	}
	if text.SameContent(snap.Lines, d.lines) {
		// the editor splits kept blank lines into their own rows
		d.cursor = text.LinePosition(d.lines, snap.Cursor)
		return
	}

	logger.Debug("document changed under suggestion %s, invalidating", d.presented.ID)
	e.tracker.TrackInvalidated(d.shown)
	d.clearSuggestions()
	e.adopt(d, snap)
}

func (e *Engine) doPresentNew(d *Document, event Event) {
	groups, ok := event.Data.([]suggestion.Group)
	if !ok {
		logger.Warn("suggestions_ready without groups on %s", d.path)
		return
	}
	d.list.Replace(groups)
	e.presentActive(d)
}

func (e *Engine) doReplaceSuggestions(d *Document, event Event) {
	if _, ok := event.Data.([]suggestion.Group); !ok {
		logger.Warn("suggestions_ready without groups on %s", d.path)
		return
	}
	e.unpresent(d)
	e.doPresentNew(d, event)
}

func (e *Engine) doNext(d *Document, event Event)     { e.cycle(d, 1) }
func (e *Engine) doPrevious(d *Document, event Event) { e.cycle(d, -1) }

func (e *Engine) doAccept(d *Document, event Event) {
	logger.Info("accepted suggestion %s on %s", d.presented.ID, d.path)
	e.commit(d)
}

// doAcceptGroup replaces the presented suggestion with every suggestion of
// its group applied at once, then commits.
func (e *Engine) doAcceptGroup(d *Document, event Event) {
	source := d.list.ActiveSource()
	var batch []types.CodeSuggestion
	for _, g := range d.list.Groups() {
		if g.Source == source {
			batch = append(batch, g.Suggestions...)
		}
	}
	shown := d.shown

	e.unpresent(d)

	extra := text.NewExtraInfo()
	lines, cursor := text.AcceptSuggestions(d.base, d.baseCursor, batch, extra)
	e.forward(d, extra.Modifications, cursor)
	e.record(d, trace.OpAcceptBatch, batch, nil, lines, cursor, extra.Modifications)
	d.lines, d.cursor = lines, cursor
	e.verify(d)

	logger.Info("accepted %d suggestions from %s on %s", len(batch), source, d.path)
	d.shown = &metrics.SuggestionMetrics{ID: shown.ID, Source: source, ShownAt: shown.ShownAt}
	e.commit(d)
}

func (e *Engine) doReject(d *Document, event Event) {
	shown := d.shown
	e.unpresent(d)
	e.tracker.TrackRejected(shown)
	d.clearSuggestions()
}

func (e *Engine) doClose(d *Document, event Event) {
	d.clearSuggestions()
	d.sink = nil
	d.closed = true
	logger.Debug("closed %s", d.path)
}

// adopt takes the editor's content as the new base. The mirror follows
// through a diff of the old and new lines; the sink already shows them.
func (e *Engine) adopt(d *Document, snap Snapshot) {
	if !slices.Equal(snap.Lines, d.lines) {
		mods := text.DiffModifications(d.lines, snap.Lines)
		text.ApplyToArray(d.mirror, mods)
		if d.sink != nil {
			d.sink.Reset(snap.Lines)
		}
	}
	d.lines = slices.Clone(snap.Lines)
	d.cursor = snap.Cursor
	d.base = d.lines
	d.baseCursor = d.cursor
	d.state = stateIdle
	e.verify(d)
}

func (e *Engine) cycle(d *Document, delta int) {
	e.unpresent(d)
	d.list.OffsetAnchor(delta)
	e.presentActive(d)
}

// presentActive shows the active suggestion over the base
func (e *Engine) presentActive(d *Document) {
	s, ok := d.list.Active()
	if !ok {
		d.state = stateIdle
		return
	}

	extra := text.NewExtraInfo()
	lines, cursor := text.AcceptSuggestion(d.base, d.baseCursor, s, extra)
	e.forward(d, extra.Modifications, cursor)
	e.record(d, trace.OpAccept, []types.CodeSuggestion{s}, nil, lines, cursor, extra.Modifications)

	d.lines, d.cursor = lines, cursor
	d.presented = &text.Presented{
		ID:            s.ID,
		Range:         extra.ModificationRanges[s.ID],
		Modifications: extra.Modifications,
	}
	additions, deletions := text.LineStats(d.base, lines)
	d.shown = &metrics.SuggestionMetrics{
		ID:        s.ID,
		Source:    d.list.ActiveSource(),
		Additions: additions,
		Deletions: deletions,
		ShownAt:   e.clock.Now(),
	}
	e.tracker.TrackShown(d.shown)
	d.state = stateHasSuggestion
	e.verify(d)
}

// unpresent restores the base content the presented suggestion replaced
func (e *Engine) unpresent(d *Document) {
	if d.presented == nil {
		return
	}
	extra := text.NewExtraInfo()
	lines, cursor := text.RejectSuggestion(d.lines, d.cursor, *d.presented, extra)
	e.forward(d, extra.Modifications, cursor)
	e.record(d, trace.OpReject, nil, d.presented, lines, cursor, extra.Modifications)

	d.lines, d.cursor = lines, cursor
	d.baseCursor = cursor
	d.presented = nil
	d.state = stateIdle
	e.verify(d)
}

// commit makes what the editor shows the new base
func (e *Engine) commit(d *Document) {
	additions, deletions := text.LineStats(d.base, d.lines)
	d.shown.Additions, d.shown.Deletions = additions, deletions
	e.tracker.TrackAccepted(d.shown)

	d.base = d.lines
	d.baseCursor = d.cursor
	d.clearSuggestions()
}

func (d *Document) clearSuggestions() {
	d.list.Clear()
	d.presented = nil
	d.shown = nil
	d.state = stateIdle
}

// forward replays mods into the mirror and the sink
func (e *Engine) forward(d *Document, mods []text.Modification, cursor types.CursorPosition) {
	logger.Debug("forward %d modifications on %s, %+d lines", len(mods), d.path, text.LineCountDelta(mods))
	text.ApplyToArray(d.mirror, mods)
	if d.sink == nil {
		return
	}
	text.ApplyTo(d.sink, mods)
	if err := d.sink.Flush(cursor); err != nil {
		logger.Error("error flushing %s: %v", d.path, err)
	}
}

func (e *Engine) verify(d *Document) {
	if !e.config.VerifyReplay {
		return
	}
	if div, ok := trace.FirstDivergence(d.lines, d.mirror.Lines()); ok {
		e.divergences.Add(1)
		logger.Error("mirror of %s diverged at %s", d.path, div)
	}
}

func (e *Engine) record(d *Document, op trace.Op, suggestions []types.CodeSuggestion, presented *text.Presented, result []string, cursor types.CursorPosition, mods []text.Modification) {
	if e.recorder == nil {
		return
	}
	rec := trace.Record{
		Op:            op,
		Path:          d.path,
		Lines:         d.lines,
		Cursor:        d.cursor,
		Result:        result,
		ResultCursor:  cursor,
		Modifications: mods,
	}
	if op == trace.OpAccept || op == trace.OpAcceptBatch {
		rec.Lines, rec.Cursor = d.base, d.baseCursor
	}
	for _, s := range suggestions {
		rec.Suggestions = append(rec.Suggestions, s.Wire())
	}
	if presented != nil {
		rec.Presented = &trace.Presented{
			ID:            presented.ID,
			Range:         presented.Range,
			Modifications: presented.Modifications,
		}
	}
	if err := e.recorder.Record(rec); err != nil {
		logger.Error("error recording trace: %v", err)
	}
}
