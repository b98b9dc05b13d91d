package metrics

import (
	"sync"
	"testing"
	"time"

	"cursorsuggest/assert"
)

func TestTracker_Counts(t *testing.T) {
	tr := NewTracker()
	m := &SuggestionMetrics{ID: "a", Additions: 3, Deletions: 1}

	tr.TrackShown(m)
	tr.TrackShown(m)
	tr.TrackAccepted(m)
	tr.TrackRejected(m)
	tr.TrackInvalidated(m)

	assert.Equal(t, Summary{Shown: 2, Accepted: 1, Rejected: 1, Invalidated: 1, Additions: 3, Deletions: 1}, tr.Summary(), "summary")
	assert.Equal(t, "shown=2 accepted=1 rejected=1 invalidated=1 +3 -1", tr.Summary().String(), "string")
}

func TestTracker_Lifespan(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := NewTracker()
	tr.now = func() time.Time { return start.Add(1500 * time.Millisecond) }

	assert.Equal(t, 1500*time.Millisecond, tr.lifespan(&SuggestionMetrics{ShownAt: start}), "lifespan")
	assert.Equal(t, time.Duration(0), tr.lifespan(&SuggestionMetrics{}), "never shown")
}

func TestTracker_Concurrent(t *testing.T) {
	tr := NewTracker()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.TrackShown(&SuggestionMetrics{ID: "x"})
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, tr.Summary().Shown, "all counted")
}
