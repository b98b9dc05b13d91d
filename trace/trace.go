package trace

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"cursorsuggest/logger"
	"cursorsuggest/text"
	"cursorsuggest/types"

	"github.com/andybalholm/brotli"
)

type Op string

const (
	OpAccept      Op = "accept"
	OpAcceptBatch Op = "accept_batch"
	OpReject      Op = "reject"
)

// Presented is the serialized form of text.Presented
type Presented struct {
	ID            string              `json:"id"`
	Range         types.CursorRange   `json:"range"`
	Modifications []text.Modification `json:"modifications"`
}

// Record is one injector call with its inputs and outputs
type Record struct {
	Op          Op                     `json:"op"`
	Path        string                 `json:"path,omitempty"`
	Lines       []string               `json:"lines"`
	Cursor      types.CursorPosition   `json:"cursor"`
	Suggestions []types.WireSuggestion `json:"suggestions,omitempty"`
	Presented   *Presented             `json:"presented,omitempty"`

	Result        []string             `json:"result"`
	ResultCursor  types.CursorPosition `json:"result_cursor"`
	Modifications []text.Modification  `json:"modifications"`
}

// Recorder appends records to a brotli-compressed JSON lines stream. Each
// record is flushed so a trace cut short by a crash stays readable up to the
// last complete record. Safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	closer io.Closer
	bw     *brotli.Writer
	enc    *json.Encoder
	count  int
}

// Create truncates path and records into it
func Create(path string) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create trace: %w", err)
	}
	r := NewRecorder(f)
	r.closer = f
	return r, nil
}

func NewRecorder(w io.Writer) *Recorder {
	// quality 1 for speed, the recorder sits on the edit path
	bw := brotli.NewWriterLevel(w, 1)
	return &Recorder{bw: bw, enc: json.NewEncoder(bw)}
}

func (r *Recorder) Record(rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enc.Encode(rec); err != nil {
		return fmt.Errorf("encode trace record: %w", err)
	}
	if err := r.bw.Flush(); err != nil {
		return fmt.Errorf("flush trace: %w", err)
	}
	r.count++
	return nil
}

// Count is the number of records written
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Close finishes the brotli stream and closes the file opened by Create
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	err := r.bw.Close()
	if r.closer != nil {
		err = errors.Join(err, r.closer.Close())
	}
	return err
}

// Reader reads records written by a Recorder
type Reader struct {
	dec *json.Decoder
}

func NewReader(r io.Reader) *Reader {
	return &Reader{dec: json.NewDecoder(brotli.NewReader(r))}
}

// Next returns the next record, or io.EOF after the last one. A stream that
// was never closed ends at its last complete record.
func (r *Reader) Next() (Record, error) {
	var rec Record
	err := r.dec.Decode(&rec)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		logger.Warn("trace ends without a closed stream")
		return Record{}, io.EOF
	}
	return rec, err
}
