package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rankLine struct {
	Node int32   `json:"node"`
	Rank float32 `json:"rank"`
}

type record struct {
	Source int64    `json:"source"`
	Bias   *float64 `json:"bias,omitempty"`
}

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "go-json"} {
		c, ok := ByName(name)
		require.True(t, ok)
		assert.Equal(t, name, c.Name())
	}

	c, ok := ByName("")
	require.True(t, ok)
	assert.Equal(t, Default, c)

	_, ok = ByName("msgpack")
	assert.False(t, ok)
}

func TestAppendLine_SameBytes(t *testing.T) {
	bias := 0.5
	values := []any{
		rankLine{Node: -3, Rank: 0.25},
		record{Source: 7},
		record{Source: 8, Bias: &bias},
	}
	for _, v := range values {
		a, err := JSON{}.AppendLine(nil, v)
		require.NoError(t, err)
		b, err := GoJSON{}.AppendLine(nil, v)
		require.NoError(t, err)
		assert.Equal(t, string(a), string(b))
	}
}

func TestAppendLine_ReusesBuffer(t *testing.T) {
	for _, c := range []Codec{JSON{}, GoJSON{}} {
		buf := []byte("x")
		buf, err := c.AppendLine(buf, rankLine{Node: 1, Rank: 1})
		require.NoError(t, err)
		buf, err = c.AppendLine(buf, rankLine{Node: 2, Rank: 0.5})
		require.NoError(t, err)
		assert.Equal(t, "x{\"node\":1,\"rank\":1}\n{\"node\":2,\"rank\":0.5}\n", string(buf), c.Name())

		_, err = c.AppendLine(buf[:0], func() {})
		assert.Error(t, err, c.Name())
	}
}

func TestUnmarshal(t *testing.T) {
	for _, c := range []Codec{JSON{}, GoJSON{}} {
		t.Run(c.Name(), func(t *testing.T) {
			var got record
			require.NoError(t, c.Unmarshal([]byte(`{"source":42,"bias":2}`), &got))
			assert.Equal(t, int64(42), got.Source)
			require.NotNil(t, got.Bias)
			assert.Equal(t, 2.0, *got.Bias)

			assert.Error(t, c.Unmarshal([]byte(`{"source":`), &got))
		})
	}
}
