package prommetrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hupe1980/rankgo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)
	boom := errors.New("boom")

	c.RecordAddNode(3, nil)
	c.RecordAddNode(5, boom)
	c.RecordInit(10, 3, time.Millisecond, nil)
	c.RecordIteration(0.25, time.Millisecond, nil)
	c.RecordIteration(0, 0, boom)
	c.RecordSpill(3, time.Millisecond, nil)
	c.RecordTopic(12, time.Second, nil)
	c.RecordTopic(0, time.Second, boom)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.addNodes.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.addNodes.WithLabelValues("error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.edgesAdded))
	assert.Equal(t, 10.0, testutil.ToFloat64(c.initNodes))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.iterations.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.iterations.WithLabelValues("error")))
	assert.Equal(t, 0.25, testutil.ToFloat64(c.lastRankChange))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.spills.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.topics.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.topics.WithLabelValues("error")))

	n, err := testutil.GatherAndCount(reg, "rankgo_topic_iterations")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCollector_Graph(t *testing.T) {
	ctx := context.Background()
	c := New(prometheus.NewRegistry())

	g, err := rankgo.New(rankgo.WithMetricsCollector(c))
	require.NoError(t, err)
	defer g.Close()

	for i := int32(0); i < 3; i++ {
		require.NoError(t, g.AddNode(ctx, i, []rankgo.Edge{{Dest: (i + 1) % 3, Weight: 1}}))
	}
	require.NoError(t, g.Init(ctx))
	res, err := rankgo.Iterate(ctx, g, rankgo.DriverOptions{MaxIterations: 4})
	require.NoError(t, err)

	assert.Equal(t, 3.0, testutil.ToFloat64(c.addNodes.WithLabelValues("ok")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.edgesAdded))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.initNodes))
	assert.Equal(t, float64(res.Iterations), testutil.ToFloat64(c.iterations.WithLabelValues("ok")))
}
