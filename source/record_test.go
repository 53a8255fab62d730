package source

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/hupe1980/rankgo/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeAll(t *testing.T, input string, c codec.Codec) ([]Record, error) {
	t.Helper()
	dec := NewDecoder(strings.NewReader(input), c)
	var recs []Record
	for {
		rec, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return recs, nil
		}
		if err != nil {
			return recs, err
		}
		recs = append(recs, rec)
	}
}

func TestDecoder(t *testing.T) {
	input := `{"source":1,"edges":[{"dest":2,"weight":0.5},{"dest":3}]}

  {"source":2,"bias":0.25}
{"source":3,"edges":[]}
`
	for _, c := range []codec.Codec{codec.GoJSON{}, codec.JSON{}} {
		t.Run(c.Name(), func(t *testing.T) {
			recs, err := decodeAll(t, input, c)
			require.NoError(t, err)
			require.Len(t, recs, 3)

			assert.Equal(t, int64(1), recs[0].Source)
			assert.Equal(t, []RecordEdge{{Dest: 2, Weight: 0.5}, {Dest: 3, Weight: 1}}, recs[0].Edges)
			assert.Nil(t, recs[0].Bias)

			require.NotNil(t, recs[1].Bias)
			assert.Equal(t, 0.25, *recs[1].Bias)
			assert.Empty(t, recs[1].Edges)

			assert.Equal(t, int64(3), recs[2].Source)
			assert.Empty(t, recs[2].Edges)
		})
	}
}

func TestDecoder_ExplicitZeroWeight(t *testing.T) {
	recs, err := decodeAll(t, `{"source":1,"edges":[{"dest":2,"weight":0}]}`, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, recs[0].Edges[0].Weight)
}

func TestDecoder_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
	}{
		{"Malformed", "{\"source\":1}\n{not json}\n", 2},
		{"MissingSource", "\n\n{\"edges\":[]}\n", 3},
		{"MissingDest", `{"source":1,"edges":[{"weight":2}]}`, 1},
		{"WrongType", `{"source":"a"}`, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeAll(t, tt.input, nil)
			var de *DecodeError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.line, de.Line)
			assert.Contains(t, de.Error(), "line")
		})
	}
}

func TestDecoder_Empty(t *testing.T) {
	recs, err := decodeAll(t, "\n  \n", nil)
	require.NoError(t, err)
	assert.Empty(t, recs)
}
