package edgestore

import (
	"errors"
	"io"
)

// Reader is a forward-only, single-pass cursor over the stored words.
type Reader struct {
	src    source
	chunk  []int32
	pos    int
	err    error
	done   bool
	closed bool
}

// Next returns the next word. It returns false at the end of the data or on
// error; check Err afterwards.
func (r *Reader) Next() (int32, bool) {
	for r.pos >= len(r.chunk) {
		if r.done {
			return 0, false
		}
		chunk, err := r.src.next()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				r.err = err
			}
			r.done = true
			return 0, false
		}
		r.chunk, r.pos = chunk, 0
	}
	v := r.chunk[r.pos]
	r.pos++
	return v, true
}

// Err returns the first error encountered by Next.
func (r *Reader) Err() error {
	return r.err
}

// Close releases the reader's file handle. It is idempotent.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.done = true
	r.chunk = nil
	return r.src.close()
}
