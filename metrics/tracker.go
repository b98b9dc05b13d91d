package metrics

import (
	"fmt"
	"sync"
	"time"

	"cursorsuggest/logger"
)

const (
	EventShown       = "suggestion_shown"
	EventAccepted    = "suggestion_accepted"
	EventRejected    = "suggestion_rejected"
	EventInvalidated = "suggestion_invalidated"
)

// SuggestionMetrics describes one presented suggestion
type SuggestionMetrics struct {
	ID        string
	Source    string
	Additions int
	Deletions int
	ShownAt   time.Time
}

// Summary is a snapshot of the tracker counters
type Summary struct {
	Shown       int
	Accepted    int
	Rejected    int
	Invalidated int
	Additions   int // lines added by accepted suggestions
	Deletions   int // lines removed by accepted suggestions
}

func (s Summary) String() string {
	return fmt.Sprintf("shown=%d accepted=%d rejected=%d invalidated=%d +%d -%d",
		s.Shown, s.Accepted, s.Rejected, s.Invalidated, s.Additions, s.Deletions)
}

// Tracker counts suggestion outcomes for the lifetime of the process. Safe
// for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	summary Summary
	now     func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{now: time.Now}
}

func (t *Tracker) TrackShown(m *SuggestionMetrics) {
	t.mu.Lock()
	t.summary.Shown++
	t.mu.Unlock()
	logger.Debug("metrics: %s id=%s source=%s +%d -%d", EventShown, m.ID, m.Source, m.Additions, m.Deletions)
}

func (t *Tracker) TrackAccepted(m *SuggestionMetrics) {
	t.mu.Lock()
	t.summary.Accepted++
	t.summary.Additions += m.Additions
	t.summary.Deletions += m.Deletions
	t.mu.Unlock()
	logger.Debug("metrics: %s id=%s lifespan=%s", EventAccepted, m.ID, t.lifespan(m))
}

func (t *Tracker) TrackRejected(m *SuggestionMetrics) {
	t.mu.Lock()
	t.summary.Rejected++
	t.mu.Unlock()
	logger.Debug("metrics: %s id=%s lifespan=%s", EventRejected, m.ID, t.lifespan(m))
}

// TrackInvalidated records a suggestion dropped because the document changed
// under it
func (t *Tracker) TrackInvalidated(m *SuggestionMetrics) {
	t.mu.Lock()
	t.summary.Invalidated++
	t.mu.Unlock()
	logger.Debug("metrics: %s id=%s lifespan=%s", EventInvalidated, m.ID, t.lifespan(m))
}

func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.summary
}

func (t *Tracker) lifespan(m *SuggestionMetrics) time.Duration {
	if m.ShownAt.IsZero() {
		return 0
	}
	return t.now().Sub(m.ShownAt).Round(time.Millisecond)
}
