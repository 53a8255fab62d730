package edgestore

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"iter"
	"os"

	"github.com/hupe1980/rankgo/internal/blockcodec"
	"github.com/hupe1980/rankgo/internal/container"
	"github.com/hupe1980/rankgo/internal/conv"
	"github.com/hupe1980/rankgo/internal/fs"
)

const (
	// blockWords is the number of words per spill block (64 KiB).
	blockWords   = 16384
	blockBytes   = blockWords * 4
	ioBufferSize = 256 * 1024
	tempPattern  = "rankgo-edges-*.bin"
)

// backend is one of the two storage variants.
type backend interface {
	append(ctx context.Context, v int32) error
	source(ctx context.Context) (source, error)
}

// source yields the stored words in chunks. It returns io.EOF after the last
// chunk.
type source interface {
	next() ([]int32, error)
	close() error
}

// memoryBackend keeps the words in a segmented array.
type memoryBackend struct {
	buf *container.SegmentedArray[int32]
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{buf: container.NewSegmentedArray[int32]()}
}

func (m *memoryBackend) append(_ context.Context, v int32) error {
	m.buf.Append(v)
	return nil
}

func (m *memoryBackend) source(context.Context) (source, error) {
	next, stop := iter.Pull(m.buf.Chunks())
	return &memorySource{pull: next, stop: stop}, nil
}

func (m *memoryBackend) reset() {
	m.buf.Reset()
}

type memorySource struct {
	pull func() ([]int32, bool)
	stop func()
}

func (m *memorySource) next() ([]int32, error) {
	chunk, ok := m.pull()
	if !ok {
		return nil, io.EOF
	}
	return chunk, nil
}

func (m *memorySource) close() error {
	m.stop()
	return nil
}

// diskBackend appends words to a temp file of framed blocks.
type diskBackend struct {
	fs       fs.FileSystem
	file     fs.File
	path     string
	bw       *bufio.Writer
	cw       *blockcodec.Writer
	typ      blockcodec.Type
	throttle Throttle
	block    []byte
}

func createDiskBackend(cfg Config) (*diskBackend, error) {
	f, err := cfg.FS.CreateTemp(cfg.Dir, tempPattern)
	if err != nil {
		return nil, &SpillError{Op: "create", Path: cfg.Dir, Err: err}
	}
	bw := bufio.NewWriterSize(f, ioBufferSize)
	return &diskBackend{
		fs:       cfg.FS,
		file:     f,
		path:     f.Name(),
		bw:       bw,
		cw:       blockcodec.NewWriter(bw, cfg.Compression),
		typ:      cfg.Compression,
		throttle: cfg.Throttle,
		block:    make([]byte, 0, blockBytes),
	}, nil
}

func (d *diskBackend) append(ctx context.Context, v int32) error {
	d.block = binary.LittleEndian.AppendUint32(d.block, conv.Int32ToUint32(v))
	if len(d.block) == blockBytes {
		return d.writeBlock(ctx)
	}
	return nil
}

func (d *diskBackend) appendWords(ctx context.Context, words []int32) error {
	for _, v := range words {
		if err := d.append(ctx, v); err != nil {
			return err
		}
	}
	return nil
}

func (d *diskBackend) writeBlock(ctx context.Context) error {
	if len(d.block) == 0 {
		return nil
	}
	if d.throttle != nil {
		if err := d.throttle.AcquireIO(ctx, len(d.block)); err != nil {
			return &SpillError{Op: "write", Path: d.path, Err: err}
		}
	}
	if err := d.cw.WriteBlock(d.block); err != nil {
		return &SpillError{Op: "write", Path: d.path, Err: err}
	}
	d.block = d.block[:0]
	return nil
}

// flush pushes the pending partial block and buffered bytes to the file.
func (d *diskBackend) flush(ctx context.Context) error {
	if err := d.writeBlock(ctx); err != nil {
		return err
	}
	if err := d.bw.Flush(); err != nil {
		return &SpillError{Op: "write", Path: d.path, Err: err}
	}
	return nil
}

func (d *diskBackend) bytesWritten() int64 {
	return d.cw.BytesWritten() + int64(len(d.block))
}

func (d *diskBackend) source(ctx context.Context) (source, error) {
	if err := d.flush(ctx); err != nil {
		return nil, err
	}
	f, err := d.fs.OpenFile(d.path, os.O_RDONLY, 0)
	if err != nil {
		return nil, &SpillError{Op: "open", Path: d.path, Err: err}
	}
	return &diskSource{
		ctx:      ctx,
		file:     f,
		path:     d.path,
		cr:       blockcodec.NewReader(bufio.NewReaderSize(f, ioBufferSize), d.typ),
		throttle: d.throttle,
		words:    make([]int32, 0, blockWords),
	}, nil
}

// remove closes the write handle and deletes the file.
func (d *diskBackend) remove() error {
	closeErr := d.file.Close()
	if err := d.fs.Remove(d.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &SpillError{Op: "remove", Path: d.path, Err: err}
	}
	if closeErr != nil {
		return &SpillError{Op: "remove", Path: d.path, Err: closeErr}
	}
	return nil
}

type diskSource struct {
	ctx      context.Context
	file     fs.File
	path     string
	cr       *blockcodec.Reader
	throttle Throttle
	words    []int32
}

func (d *diskSource) next() ([]int32, error) {
	block, err := d.cr.ReadBlock()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, &SpillError{Op: "read", Path: d.path, Err: err}
	}
	if len(block)%4 != 0 {
		return nil, &SpillError{Op: "read", Path: d.path, Err: blockcodec.ErrCorruptBlock}
	}
	if d.throttle != nil {
		if err := d.throttle.AcquireIO(d.ctx, len(block)); err != nil {
			return nil, &SpillError{Op: "read", Path: d.path, Err: err}
		}
	}

	words := d.words[:0]
	for i := 0; i < len(block); i += 4 {
		words = append(words, conv.Uint32ToInt32(binary.LittleEndian.Uint32(block[i:])))
	}
	d.words = words
	return words, nil
}

func (d *diskSource) close() error {
	return d.file.Close()
}
