package engine

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"cursorsuggest/buffer"
	"cursorsuggest/logger"
	"cursorsuggest/metrics"
	"cursorsuggest/suggestion"
	"cursorsuggest/text"
	"cursorsuggest/trace"
	"cursorsuggest/types"
)

type state int

const (
	stateIdle state = iota
	stateHasSuggestion
)

// Sink is a second copy of a document kept in step by replaying the
// modification logs the engine produces. Implemented by buffer.NvimBuffer.
type Sink interface {
	text.LineSink
	// Reset replaces the sink's copy without editing anything, used when
	// the content came from the sink's own side.
	Reset(lines []string)
	Flush(cursor types.CursorPosition) error
}

// Clock is the time source, replaced in tests
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type EngineConfig struct {
	// VerifyReplay compares every document's mirror with the injector output
	// after each call and logs divergences.
	VerifyReplay bool
}

// Engine owns the documents open in the editor. Calls for one document are
// serialized, calls for different documents run in parallel.
type Engine struct {
	mu   sync.Mutex
	docs map[string]*Document

	config   EngineConfig
	tracker  *metrics.Tracker
	recorder *trace.Recorder // nil when tracing is off
	clock    Clock

	divergences atomic.Int64
}

// Document is the per-file state: the content without any suggestion (base),
// what the editor currently shows (lines), and the suggestions to cycle
// through.
type Document struct {
	mu     sync.Mutex
	path   string
	state  state
	closed bool

	base       []string
	baseCursor types.CursorPosition
	lines      []string
	cursor     types.CursorPosition

	list      *suggestion.CircularList
	presented *text.Presented
	shown     *metrics.SuggestionMetrics

	mirror *buffer.Mirror
	sink   Sink
}

// Status is reported back to the editor after every event
type Status struct {
	State     string `json:"state"`
	ID        string `json:"id"`
	Index     int    `json:"index"`
	Count     int    `json:"count"`
	Source    string `json:"source"`
	Line      int    `json:"line"`
	Character int    `json:"character"`
}

func (s Status) Map() map[string]any {
	return map[string]any{
		"state":     s.State,
		"id":        s.ID,
		"index":     s.Index,
		"count":     s.Count,
		"source":    s.Source,
		"line":      s.Line,
		"character": s.Character,
	}
}

// NewEngine creates an engine. tracker is required, recorder may be nil.
func NewEngine(config EngineConfig, tracker *metrics.Tracker, recorder *trace.Recorder) *Engine {
	return &Engine{
		docs:     make(map[string]*Document),
		config:   config,
		tracker:  tracker,
		recorder: recorder,
		clock:    systemClock{},
	}
}

// Handle applies event to the document at path and returns its new status.
func (e *Engine) Handle(path string, event Event) (status Status, err error) {
	defer logger.Trace("engine.Handle")()

	d := e.lockDocument(path, event.Type != EventClose)
	if d == nil {
		return Status{State: stateIdle.String()}, nil
	}
	defer d.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("event handler panic recovered for event %v on %s: %v", event.Type, path, r)
			err = fmt.Errorf("handle %s: %v", event.Type, r)
		}
		if d.closed {
			e.remove(d)
		}
	}()

	logger.Debug("handle event: path=%s state=%s event=%s", path, d.state, event.Type)
	e.dispatch(d, event)
	return d.status(), nil
}

// lockDocument returns the locked, still open document for path
func (e *Engine) lockDocument(path string, create bool) *Document {
	for {
		d := e.document(path, create)
		if d == nil {
			return nil
		}
		d.mu.Lock()
		if !d.closed {
			return d
		}
		// lost a race with close
		d.mu.Unlock()
	}
}

// Attach sets the sink that receives the logs of the document at path,
// creating the document when needed. A nil sink detaches.
func (e *Engine) Attach(path string, sink Sink) {
	d := e.lockDocument(path, true)
	defer d.mu.Unlock()
	d.sink = sink
	if sink != nil {
		sink.Reset(d.lines)
	}
}

// Lines returns what the editor shows for path
func (e *Engine) Lines(path string) ([]string, types.CursorPosition, bool) {
	d := e.lockDocument(path, false)
	if d == nil {
		return nil, types.CursorPosition{}, false
	}
	defer d.mu.Unlock()
	return slices.Clone(d.lines), d.cursor, true
}

// MirrorLines returns the content of the mirror of path
func (e *Engine) MirrorLines(path string) []string {
	d := e.document(path, false)
	if d == nil {
		return nil
	}
	return d.mirror.Lines()
}

// Divergences counts mirror mismatches seen with VerifyReplay on
func (e *Engine) Divergences() int64 { return e.divergences.Load() }

// DocumentCount is the number of open documents
func (e *Engine) DocumentCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.docs)
}

// Stop drops every document and logs the session summary
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.docs = make(map[string]*Document)
	logger.Info("engine stopped: %s", e.tracker.Summary())
}

func (e *Engine) document(path string, create bool) *Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, ok := e.docs[path]
	if !ok && create {
		d = &Document{
			path:   path,
			state:  stateIdle,
			list:   suggestion.NewCircularList(nil),
			mirror: buffer.NewMirror(nil),
		}
		e.docs[path] = d
	}
	return d
}

func (e *Engine) remove(d *Document) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.docs[d.path] == d {
		delete(e.docs, d.path)
	}
}

func (d *Document) status() Status {
	s := Status{
		State:     d.state.String(),
		Count:     d.list.Count(),
		Index:     d.list.Anchor(),
		Source:    d.list.ActiveSource(),
		Line:      d.cursor.Line,
		Character: d.cursor.Character,
	}
	if d.presented != nil {
		s.ID = d.presented.ID
	}
	return s
}
