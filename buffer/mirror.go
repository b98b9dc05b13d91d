package buffer

import (
	"slices"
	"sync"
)

// Mirror is a reference-typed line array kept in step with a document by
// replaying modification logs through text.ApplyToArray. It stands in for
// storage owned by a UI layer, which only knows single element edits.
type Mirror struct {
	mu      sync.RWMutex
	lines   []string
	version int
}

func NewMirror(lines []string) *Mirror {
	return &Mirror{lines: slices.Clone(lines)}
}

// Count implements text.MutableArray
func (m *Mirror) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.lines)
}

// RemoveRange implements text.MutableArray
func (m *Mirror) RemoveRange(index, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 || count <= 0 || index >= len(m.lines) {
		return
	}
	m.lines = slices.Delete(m.lines, index, min(index+count, len(m.lines)))
	m.version++
}

// InsertAt implements text.MutableArray
func (m *Mirror) InsertAt(index int, line string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	index = min(max(index, 0), len(m.lines))
	m.lines = slices.Insert(m.lines, index, line)
	m.version++
}

// Lines returns a copy of the current content
func (m *Mirror) Lines() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.lines)
}

// Reset replaces the whole content, used when the document is resynced
// from the editor instead of edited through a log.
func (m *Mirror) Reset(lines []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = slices.Clone(lines)
	m.version++
}

// Version counts the edits applied since creation
func (m *Mirror) Version() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}
