package blockcodec

import (
	"bytes"
	"encoding/binary"
	"io"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func edgeLikeBlock(n int) []byte {
	// Headers and destination IDs with small deltas plus a constant weight,
	// the shape of real spill data.
	b := make([]byte, 0, n*4)
	for i := 0; i < n; i++ {
		b = binary.LittleEndian.AppendUint32(b, uint32(i%97))
		b = binary.LittleEndian.AppendUint32(b, 100000)
	}
	return b
}

func randomBlock(n int) []byte {
	rng := rand.New(rand.NewSource(42))
	b := make([]byte, n)
	_, _ = rng.Read(b)
	return b
}

func TestRoundTrip(t *testing.T) {
	blocks := [][]byte{edgeLikeBlock(4096), randomBlock(1000), edgeLikeBlock(3)}

	for _, typ := range []Type{None, LZ4, Zstd} {
		t.Run(typ.String(), func(t *testing.T) {
			var buf bytes.Buffer
			w := NewWriter(&buf, typ)
			for _, b := range blocks {
				require.NoError(t, w.WriteBlock(b))
			}
			require.NoError(t, w.WriteBlock(nil)) // skipped
			assert.Equal(t, int64(buf.Len()), w.BytesWritten())

			r := NewReader(&buf, typ)
			for _, want := range blocks {
				got, err := r.ReadBlock()
				require.NoError(t, err)
				assert.Equal(t, want, got)
			}
			_, err := r.ReadBlock()
			assert.ErrorIs(t, err, io.EOF)
			assert.Equal(t, w.BytesWritten(), r.BytesRead())
		})
	}
}

func TestCompressionShrinksEdgeData(t *testing.T) {
	data := edgeLikeBlock(16384)

	for _, typ := range []Type{LZ4, Zstd} {
		var buf bytes.Buffer
		require.NoError(t, NewWriter(&buf, typ).WriteBlock(data))
		assert.Less(t, buf.Len(), len(data)/2, typ.String())
	}
}

func TestIncompressibleStoredRaw(t *testing.T) {
	data := randomBlock(4096)

	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf, LZ4).WriteBlock(data))
	assert.Equal(t, HeaderSize+len(data), buf.Len())
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(buf.Bytes()[4:]))
}

func TestTruncatedBlock(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf, None).WriteBlock(edgeLikeBlock(10)))

	truncated := buf.Bytes()[:buf.Len()-3]
	_, err := NewReader(bytes.NewReader(truncated), None).ReadBlock()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	// A partial header is also unexpected.
	_, err = NewReader(bytes.NewReader(buf.Bytes()[:4]), None).ReadBlock()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestChecksumMismatch(t *testing.T) {
	for _, typ := range []Type{None, LZ4} {
		var buf bytes.Buffer
		require.NoError(t, NewWriter(&buf, typ).WriteBlock(edgeLikeBlock(64)))

		data := buf.Bytes()
		data[8] ^= 0xFF // stored checksum
		_, err := NewReader(bytes.NewReader(data), typ).ReadBlock()
		assert.ErrorIs(t, err, ErrCorruptBlock, typ.String())
	}
}

func TestCompressedBlockInPlainStream(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf, LZ4).WriteBlock(edgeLikeBlock(4096)))

	_, err := NewReader(&buf, None).ReadBlock()
	assert.ErrorIs(t, err, ErrCorruptBlock)
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in   string
		want Type
		err  bool
	}{
		{"", None, false},
		{"none", None, false},
		{"LZ4", LZ4, false},
		{" zstd ", Zstd, false},
		{"snappy", None, true},
	}
	for _, tt := range tests {
		got, err := ParseType(tt.in)
		if tt.err {
			assert.Error(t, err, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	assert.Equal(t, "Type(9)", Type(9).String())
}
