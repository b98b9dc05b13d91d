package buffer

import (
	"fmt"
	"slices"
	"strconv"

	"cursorsuggest/logger"
	"cursorsuggest/text"
	"cursorsuggest/types"

	"github.com/neovim/go-client/nvim"
)

// EventHandlerName is the RPC method the editor plugin calls
const EventHandlerName = "cursorsuggest_event"

type Config struct {
	NsID int
}

// SyncResult is the editor state read by Sync. Lines carry a trailing "\n"
// each, Cursor is in UTF-16 units and zero when the buffer is not focused.
type SyncResult struct {
	Focused bool
	Path    string
	Lines   []string
	Cursor  types.CursorPosition
}

// Lookup finds the editor buffer showing path
type Lookup func(path string) (nvim.Buffer, error)

// NvimBuffer is the Neovim buffer of one path, used as a secondary line
// buffer. Modification logs replayed into it through text.ApplyTo are queued
// and sent to the editor in a single batch by Flush.
//
// A line may span several editor rows when it carries a kept blank line, so
// queued edits are in row coordinates.
type NvimBuffer struct {
	client *nvim.Nvim // stored internally, set via SetClient

	id     nvim.Buffer // 0 until resolved, never the current buffer
	path   string
	lookup Lookup
	lines  []string // document lines without their last line break
	edits  []lineEdit
	config Config
}

// lineEdit replaces the half-open row span [start, end) with rows
type lineEdit struct {
	start, end int
	rows       [][]byte
}

func New(path string, config Config) *NvimBuffer {
	b := &NvimBuffer{
		path:   path,
		lines:  []string{},
		config: config,
	}
	b.lookup = b.lookupByName
	return b
}

// SetClient stores the nvim client for all buffer operations
func (b *NvimBuffer) SetClient(n *nvim.Nvim) {
	b.client = n
}

// SetLookup replaces how the buffer handle is found. The handle is looked up
// again on next use.
func (b *NvimBuffer) SetLookup(lookup Lookup) {
	b.lookup = lookup
	b.id = 0
}

func (b *NvimBuffer) Path() string { return b.path }

// Handle returns the editor buffer of the path, looking it up on first use
func (b *NvimBuffer) Handle() (nvim.Buffer, error) {
	if b.id != 0 {
		return b.id, nil
	}
	id, err := b.lookup(b.path)
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, fmt.Errorf("no editor buffer for %s", b.path)
	}
	b.id = id
	return id, nil
}

// lookupByName matches the path against the editor's buffer names. A path
// that is a buffer number is taken as is.
func (b *NvimBuffer) lookupByName(path string) (nvim.Buffer, error) {
	if n, err := strconv.Atoi(path); err == nil && n > 0 {
		return nvim.Buffer(n), nil
	}
	if b.client == nil {
		return 0, fmt.Errorf("nvim client not set")
	}

	bufs, err := b.client.Buffers()
	if err != nil {
		return 0, fmt.Errorf("list buffers: %w", err)
	}
	names := make([]string, len(bufs))
	batch := b.client.NewBatch()
	for i, buf := range bufs {
		batch.BufferName(buf, &names[i])
	}
	if err := batch.Execute(); err != nil {
		return 0, fmt.Errorf("buffer names: %w", err)
	}
	for i, name := range names {
		if name == path {
			return bufs[i], nil
		}
	}
	return 0, fmt.Errorf("no editor buffer for %s", path)
}

// Lines returns the buffer content in document form
func (b *NvimBuffer) Lines() []string {
	out := make([]string, len(b.lines))
	for i, line := range b.lines {
		out[i] = line + text.DefaultLineEnding
	}
	return out
}

// rowOf returns the editor row line starts on
func (b *NvimBuffer) rowOf(line int) int {
	row := 0
	for _, l := range b.lines[:line] {
		row += len(text.EditorRows(l))
	}
	return row
}

// Len implements text.LineSink
func (b *NvimBuffer) Len() int { return len(b.lines) }

// RemoveLines implements text.LineSink
func (b *NvimBuffer) RemoveLines(start, end int) {
	edit := lineEdit{start: b.rowOf(start), end: b.rowOf(end), rows: [][]byte{}}
	b.lines = slices.Delete(b.lines, start, end)
	b.edits = append(b.edits, edit)
}

// InsertLines implements text.LineSink. Line breaks are dropped, Neovim
// stores rows without them.
func (b *NvimBuffer) InsertLines(at int, lines []string) {
	row := b.rowOf(at)
	stripped := make([]string, len(lines))
	var rows [][]byte
	for i, line := range lines {
		stripped[i] = text.DropLineBreak(line)
		for _, r := range text.EditorRows(line) {
			rows = append(rows, []byte(text.DropLineBreak(r)))
		}
	}
	b.lines = slices.Insert(b.lines, at, stripped...)
	b.edits = append(b.edits, lineEdit{start: row, end: row, rows: rows})
}

// Reset replaces the local copy with lines the editor already shows. Nothing
// is sent.
func (b *NvimBuffer) Reset(lines []string) {
	b.lines = make([]string, len(lines))
	for i, line := range lines {
		b.lines[i] = text.DropLineBreak(line)
	}
	b.edits = nil
}

// Flush sends the queued edits to the editor in one batch, then places the
// cursor if the buffer is focused. Queued edits are dropped even when the
// batch fails; the next Sync reconciles the local copy.
func (b *NvimBuffer) Flush(cursor types.CursorPosition) error {
	defer logger.Trace("buffer.Flush")()
	edits := b.edits
	b.edits = nil

	id, err := b.Handle()
	if err != nil {
		return fmt.Errorf("flush %s: %w", b.path, err)
	}
	if b.client == nil {
		return fmt.Errorf("nvim client not set")
	}

	var current nvim.Buffer
	batch := b.client.NewBatch()
	batch.ClearBufferNamespace(id, b.config.NsID, 0, -1)
	for _, e := range edits {
		batch.SetBufferLines(id, e.start, e.end, false, e.rows)
	}
	batch.CurrentBuffer(&current)

	if err := batch.Execute(); err != nil {
		logger.Error("error executing flush batch: %v", err)
		return fmt.Errorf("flush %d edits: %w", len(edits), err)
	}

	if current != id || cursor.Line < 0 || cursor.Line >= len(b.lines) {
		return nil
	}
	row, col := b.editorCursor(cursor)
	if err := b.client.SetWindowCursor(0, [2]int{row + 1, col}); err != nil {
		return fmt.Errorf("set cursor: %w", err)
	}
	return nil
}

// editorCursor converts a document cursor to a 0-based row and byte column
func (b *NvimBuffer) editorCursor(cursor types.CursorPosition) (int, int) {
	pos := text.RowPosition(b.Lines(), cursor)
	rows := text.EditorRows(b.lines[cursor.Line])
	r := min(max(pos.Line-b.rowOf(cursor.Line), 0), len(rows)-1)
	return pos.Line, text.ByteOffset(text.DropLineBreak(rows[r]), pos.Character)
}

// Sync reads the buffer of the path and, when it is focused, the cursor
func (b *NvimBuffer) Sync() (*SyncResult, error) {
	defer logger.Trace("buffer.Sync")()
	id, err := b.Handle()
	if err != nil {
		return nil, fmt.Errorf("sync %s: %w", b.path, err)
	}
	if b.client == nil {
		return nil, fmt.Errorf("nvim client not set")
	}

	// Use batch API to make all calls in a single round-trip
	batch := b.client.NewBatch()

	var current nvim.Buffer
	var lines [][]byte
	var cursor [2]int

	batch.CurrentBuffer(&current)
	batch.BufferLines(id, 0, -1, false, &lines)
	batch.WindowCursor(nvim.Window(0), &cursor)

	if err := batch.Execute(); err != nil {
		logger.Error("error executing sync batch: %v", err)
		return nil, err
	}

	b.adopt(lines)
	b.edits = nil

	res := &SyncResult{
		Focused: current == id,
		Path:    b.path,
		Lines:   b.Lines(),
	}
	if res.Focused {
		res.Cursor = b.cursorFromEditor(cursor[0], cursor[1])
	}
	return res, nil
}

func (b *NvimBuffer) adopt(lines [][]byte) {
	b.lines = make([]string, len(lines))
	for i, line := range lines {
		b.lines[i] = string(line)
	}
}

// cursorFromEditor converts a Neovim (1-based row, byte column) cursor
func (b *NvimBuffer) cursorFromEditor(row, col int) types.CursorPosition {
	line := row - 1
	if line < 0 || line >= len(b.lines) {
		return types.CursorPosition{Line: max(line, 0), Character: 0}
	}
	return types.CursorPosition{Line: line, Character: text.UTF16Offset(b.lines[line], col)}
}

// RegisterEventHandler registers handler for the editor's event RPC. The
// returned status is sent back as the RPC result.
func RegisterEventHandler(client *nvim.Nvim, handler func(path, event, payload string) (map[string]any, error)) error {
	if client == nil {
		return fmt.Errorf("nvim client not set")
	}
	return client.RegisterHandler(EventHandlerName, func(_ *nvim.Nvim, path, event, payload string) (map[string]any, error) {
		return handler(path, event, payload)
	})
}
