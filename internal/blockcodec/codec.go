// Package blockcodec frames byte blocks for sequential spill files, optionally
// compressing each block with LZ4 or Zstandard.
//
// Block format: [UncompressedSize uint32][CompressedSize uint32]
// [CRC32C uint32][Data...], little endian. The checksum covers the
// uncompressed bytes. CompressedSize == 0 marks a block stored as-is, which
// is also used when compression does not pay off.
package blockcodec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/hupe1980/rankgo/internal/hash"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Type defines the compression algorithm used.
type Type uint8

const (
	// None stores blocks uncompressed.
	None Type = 0
	// LZ4 uses LZ4 block compression (fast, modest ratio).
	LZ4 Type = 1
	// Zstd uses Zstandard (better ratio, more CPU).
	Zstd Type = 2
)

// HeaderSize is the size of a block header in bytes.
const HeaderSize = 12

// ErrCorruptBlock is returned when a block header or payload is inconsistent.
var ErrCorruptBlock = errors.New("blockcodec: corrupt block")

// String returns the configuration name of t.
func (t Type) String() string {
	switch t {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case Zstd:
		return "zstd"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// ParseType parses a configuration name ("", "none", "lz4", "zstd").
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return None, nil
	case "lz4":
		return LZ4, nil
	case "zstd", "zstandard":
		return Zstd, nil
	default:
		return None, fmt.Errorf("blockcodec: unknown compression %q", s)
	}
}

// ZSTD encoder/decoder pools for efficiency
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest), zstd.WithEncoderConcurrency(1))
	return enc
}

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// compress returns the compressed payload, or nil if the block should be
// stored as-is.
func compress(t Type, data, scratch []byte) ([]byte, error) {
	switch t {
	case LZ4:
		bound := lz4.CompressBlockBound(len(data))
		if cap(scratch) < bound {
			scratch = make([]byte, bound)
		}
		n, err := lz4.CompressBlock(data, scratch[:bound], nil)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, nil // Incompressible
		}
		return scratch[:n], nil
	case Zstd:
		enc := getZstdEncoder()
		defer putZstdEncoder(enc)
		return enc.EncodeAll(data, scratch[:0]), nil
	default:
		return nil, nil
	}
}

func decompress(t Type, payload []byte, size uint32, dst []byte) ([]byte, error) {
	if uint32(cap(dst)) < size {
		dst = make([]byte, size)
	}
	dst = dst[:size]

	switch t {
	case LZ4:
		n, err := lz4.UncompressBlock(payload, dst)
		if err != nil {
			return nil, err
		}
		if uint32(n) != size {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorruptBlock)
		}
		return dst, nil
	case Zstd:
		dec := getZstdDecoder()
		defer putZstdDecoder(dec)
		decoded, err := dec.DecodeAll(payload, dst[:0])
		if err != nil {
			return nil, err
		}
		if uint32(len(decoded)) != size {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorruptBlock)
		}
		return decoded, nil
	default:
		return nil, fmt.Errorf("%w: compressed block in %s stream", ErrCorruptBlock, t)
	}
}

// Writer frames blocks onto an underlying writer.
type Writer struct {
	w       io.Writer
	typ     Type
	header  [HeaderSize]byte
	scratch []byte
	written int64
}

// NewWriter creates a new block writer.
func NewWriter(w io.Writer, t Type) *Writer {
	return &Writer{w: w, typ: t}
}

// WriteBlock compresses (if configured) and writes one block.
// Empty blocks are skipped.
func (c *Writer) WriteBlock(p []byte) error {
	if len(p) == 0 {
		return nil
	}

	payload, err := compress(c.typ, p, c.scratch)
	if err != nil {
		return err
	}
	if payload != nil {
		c.scratch = payload[:0]
	}

	// If compression doesn't help (ratio > 0.9), store uncompressed
	compressedSize := uint32(len(payload))
	if payload == nil || float64(len(payload)) > float64(len(p))*0.9 {
		payload = p
		compressedSize = 0
	}

	binary.LittleEndian.PutUint32(c.header[0:], uint32(len(p)))
	binary.LittleEndian.PutUint32(c.header[4:], compressedSize)
	binary.LittleEndian.PutUint32(c.header[8:], hash.CRC32C(p))
	if _, err := c.w.Write(c.header[:]); err != nil {
		return err
	}
	if _, err := c.w.Write(payload); err != nil {
		return err
	}
	c.written += int64(HeaderSize + len(payload))
	return nil
}

// BytesWritten returns the total framed bytes written.
func (c *Writer) BytesWritten() int64 {
	return c.written
}

// Reader reads framed blocks sequentially.
type Reader struct {
	r       io.Reader
	typ     Type
	header  [HeaderSize]byte
	payload []byte
	block   []byte
	read    int64
}

// NewReader creates a block reader over r.
func NewReader(r io.Reader, t Type) *Reader {
	return &Reader{r: r, typ: t}
}

// ReadBlock returns the next decoded block. The returned slice is only valid
// until the next call. It returns io.EOF at a clean block boundary and
// io.ErrUnexpectedEOF for a truncated block.
func (c *Reader) ReadBlock() ([]byte, error) {
	if _, err := io.ReadFull(c.r, c.header[:]); err != nil {
		return nil, err
	}
	size := binary.LittleEndian.Uint32(c.header[0:])
	compressedSize := binary.LittleEndian.Uint32(c.header[4:])
	sum := binary.LittleEndian.Uint32(c.header[8:])

	n := size
	if compressedSize != 0 {
		n = compressedSize
	}
	if uint32(cap(c.payload)) < n {
		c.payload = make([]byte, n)
	}
	payload := c.payload[:n]
	if _, err := io.ReadFull(c.r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	c.read += int64(HeaderSize) + int64(n)

	block := payload
	if compressedSize != 0 {
		decoded, err := decompress(c.typ, payload, size, c.block)
		if err != nil {
			return nil, err
		}
		c.block = decoded
		block = decoded
	}
	if hash.CRC32C(block) != sum {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorruptBlock)
	}
	return block, nil
}

// BytesRead returns the total framed bytes consumed.
func (c *Reader) BytesRead() int64 {
	return c.read
}
