package conv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntToInt32(t *testing.T) {
	for _, v := range []int{0, -7, math.MaxInt32, math.MinInt32} {
		got, err := IntToInt32(v)
		require.NoError(t, err)
		assert.Equal(t, int64(v), int64(got))
	}

	_, err := IntToInt32(math.MaxInt32 + 1)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestInt64ToInt32(t *testing.T) {
	got, err := Int64ToInt32(-42)
	require.NoError(t, err)
	assert.Equal(t, int32(-42), got)

	_, err = Int64ToInt32(math.MaxInt64)
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = Int64ToInt32(math.MinInt32 - 1)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestInt32Uint32RoundTrip(t *testing.T) {
	for _, v := range []int32{0, 1, -1, math.MaxInt32, math.MinInt32} {
		assert.Equal(t, v, Uint32ToInt32(Int32ToUint32(v)))
	}
	assert.Equal(t, uint32(math.MaxUint32), Int32ToUint32(-1))
}
