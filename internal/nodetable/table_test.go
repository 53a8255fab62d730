package nodetable

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_Ensure(t *testing.T) {
	tbl := New(false)
	assert.Equal(t, 3, tbl.Stride())
	assert.False(t, tbl.Biased())

	i, created := tbl.Ensure(42)
	assert.True(t, created)
	assert.Equal(t, 0, i)

	j, created := tbl.Ensure(-7)
	assert.True(t, created)
	assert.Equal(t, 1, j)

	again, created := tbl.Ensure(42)
	assert.False(t, created)
	assert.Equal(t, 0, again)

	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, int32(-7), tbl.ID(1))
	assert.Equal(t, []int32{42, -7}, slices.Collect(tbl.IDs()))

	idx, ok := tbl.Index(-7)
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
	_, ok = tbl.Index(5)
	assert.False(t, ok)
}

func TestTable_ZeroInitializedFields(t *testing.T) {
	tbl := New(true)
	i, _ := tbl.Ensure(1)

	assert.Zero(t, tbl.Rank(i))
	assert.Zero(t, tbl.OutWeight(i))
	assert.Zero(t, tbl.Pending(i))
	b, err := tbl.Bias(i)
	require.NoError(t, err)
	assert.Zero(t, b)
}

func TestTable_FieldsAreIndependent(t *testing.T) {
	for _, biased := range []bool{false, true} {
		tbl := New(biased)
		for id := int32(0); id < 5; id++ {
			tbl.Ensure(id)
		}

		tbl.SetRank(2, 0.5)
		tbl.AddOutWeight(2, 3)
		tbl.AddOutWeight(2, 4)
		tbl.AddPending(2, 0.25)
		if biased {
			require.NoError(t, tbl.SetBias(2, 0.1))
		}

		assert.Equal(t, float32(0.5), tbl.Rank(2))
		assert.Equal(t, float32(7), tbl.OutWeight(2))
		assert.Equal(t, float32(0.25), tbl.Pending(2))

		// Neighbours untouched.
		for _, i := range []int{1, 3} {
			assert.Zero(t, tbl.Rank(i))
			assert.Zero(t, tbl.OutWeight(i))
			assert.Zero(t, tbl.Pending(i))
		}

		tbl.SetPending(2, 0)
		tbl.SetOutWeight(2, 1)
		assert.Zero(t, tbl.Pending(2))
		assert.Equal(t, float32(1), tbl.OutWeight(2))
	}
}

func TestTable_BiasDisabled(t *testing.T) {
	tbl := New(false)
	i, _ := tbl.Ensure(1)

	_, err := tbl.Bias(i)
	assert.ErrorIs(t, err, ErrBiasingDisabled)
	assert.ErrorIs(t, tbl.SetBias(i, 1), ErrBiasingDisabled)
}

func TestTable_ManyNodesAcrossSegments(t *testing.T) {
	tbl := New(false)
	const n = 70000 // stride 3 spans several 64K segments
	for id := int32(0); id < n; id++ {
		i, _ := tbl.Ensure(id * 2)
		tbl.SetRank(i, float32(id))
	}

	require.Equal(t, n, tbl.Len())
	for _, id := range []int32{0, 21845, 21846, n - 1} {
		i, ok := tbl.Index(id * 2)
		require.True(t, ok)
		assert.Equal(t, float32(id), tbl.Rank(i))
	}
}

func TestTable_Reset(t *testing.T) {
	tbl := New(false)
	tbl.Ensure(1)
	tbl.Ensure(2)
	tbl.Reset()

	assert.Equal(t, 0, tbl.Len())
	_, ok := tbl.Index(1)
	assert.False(t, ok)

	i, created := tbl.Ensure(2)
	assert.True(t, created)
	assert.Equal(t, 0, i)
	assert.Zero(t, tbl.Rank(i))
}
