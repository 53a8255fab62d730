package source

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/rankgo/codec"
)

// DefaultMaxLineBytes bounds a single input line.
const DefaultMaxLineBytes = 64 << 20

// RecordEdge is one outgoing edge of a record.
type RecordEdge struct {
	Dest   int64   `json:"dest"`
	Weight float64 `json:"weight"`
}

// Record is one source node and all of its outgoing edges.
type Record struct {
	Source int64        `json:"source"`
	Edges  []RecordEdge `json:"edges,omitempty"`
	Bias   *float64     `json:"bias,omitempty"`
}

// wireEdge distinguishes a missing weight from an explicit zero.
type wireEdge struct {
	Dest   *int64   `json:"dest"`
	Weight *float64 `json:"weight"`
}

type wireRecord struct {
	Source *int64     `json:"source"`
	Edges  []wireEdge `json:"edges"`
	Bias   *float64   `json:"bias"`
}

// DecodeError reports a malformed input line.
type DecodeError struct {
	Line int
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("source: line %d: %v", e.Line, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

var (
	errMissingSource = errors.New("missing source")
	errMissingDest   = errors.New("missing dest")
)

// Decoder reads records from JSON lines.
type Decoder struct {
	scanner *bufio.Scanner
	codec   codec.Codec
	line    int
}

// NewDecoder creates a Decoder. A nil codec selects codec.Default.
func NewDecoder(r io.Reader, c codec.Codec) *Decoder {
	if c == nil {
		c = codec.Default
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), DefaultMaxLineBytes)
	return &Decoder{scanner: scanner, codec: c}
}

// Line returns the number of the last line read.
func (d *Decoder) Line() int { return d.line }

// Next returns the next record, or io.EOF after the last one.
func (d *Decoder) Next() (Record, error) {
	for d.scanner.Scan() {
		d.line++
		line := bytes.TrimSpace(d.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var w wireRecord
		if err := d.codec.Unmarshal(line, &w); err != nil {
			return Record{}, &DecodeError{Line: d.line, Err: err}
		}
		rec, err := w.record()
		if err != nil {
			return Record{}, &DecodeError{Line: d.line, Err: err}
		}
		return rec, nil
	}
	if err := d.scanner.Err(); err != nil {
		return Record{}, &DecodeError{Line: d.line + 1, Err: err}
	}
	return Record{}, io.EOF
}

func (w wireRecord) record() (Record, error) {
	if w.Source == nil {
		return Record{}, errMissingSource
	}
	rec := Record{Source: *w.Source, Bias: w.Bias}
	if len(w.Edges) > 0 {
		rec.Edges = make([]RecordEdge, len(w.Edges))
	}
	for i, e := range w.Edges {
		if e.Dest == nil {
			return Record{}, fmt.Errorf("edge %d: %w", i, errMissingDest)
		}
		weight := 1.0
		if e.Weight != nil {
			weight = *e.Weight
		}
		rec.Edges[i] = RecordEdge{Dest: *e.Dest, Weight: weight}
	}
	return rec, nil
}
