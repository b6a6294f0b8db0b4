package latency

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStats_Empty(t *testing.T) {
	t.Parallel()

	c := New()
	_, err := c.Stats()
	require.ErrorIs(t, err, ErrNoSamples)
}

func TestStats_KnownPercentiles(t *testing.T) {
	t.Parallel()

	c := New()
	for _, ms := range []int{10, 20, 30, 40, 50} {
		c.Record("search", time.Duration(ms)*time.Millisecond)
	}

	stats, err := c.Stats()
	require.NoError(t, err)

	assert.Equal(t, 5, stats.Count)
	assert.Equal(t, 10.0, stats.MinMS)
	assert.Equal(t, 50.0, stats.MaxMS)
	assert.Equal(t, 30.0, stats.P50MS)
	assert.Equal(t, 50.0, stats.P95MS)
	assert.Equal(t, 50.0, stats.P99MS)
	assert.Equal(t, 30.0, stats.MeanMS)
}

func TestStats_SingleSample(t *testing.T) {
	t.Parallel()

	c := New()
	c.Record("get", 7*time.Millisecond)

	stats, err := c.Stats()
	require.NoError(t, err)

	assert.Equal(t, 7.0, stats.MinMS)
	assert.Equal(t, 7.0, stats.P50MS)
	assert.Equal(t, 7.0, stats.P95MS)
	assert.Equal(t, 7.0, stats.P99MS)
	assert.Equal(t, 7.0, stats.MaxMS)
}

func TestStats_Ordering(t *testing.T) {
	t.Parallel()

	// For any sample set, min <= p50 <= p95 <= p99 <= max must hold.
	rng := rand.New(rand.NewSource(42))
	for _, n := range []int{1, 2, 3, 10, 97, 500} {
		c := New()
		for i := 0; i < n; i++ {
			c.Record("op", time.Duration(rng.Intn(100_000))*time.Microsecond)
		}

		stats, err := c.Stats()
		require.NoError(t, err)

		assert.LessOrEqual(t, stats.MinMS, stats.P50MS, "n=%d", n)
		assert.LessOrEqual(t, stats.P50MS, stats.P95MS, "n=%d", n)
		assert.LessOrEqual(t, stats.P95MS, stats.P99MS, "n=%d", n)
		assert.LessOrEqual(t, stats.P99MS, stats.MaxMS, "n=%d", n)
	}
}

func TestMeasure_RecordsOnError(t *testing.T) {
	t.Parallel()

	c := New()
	boom := errors.New("boom")

	err := c.Measure("write", func() error {
		time.Sleep(time.Millisecond)
		return boom
	})

	// The operation's error comes back unchanged, and timing still happened.
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, c.Count())

	stats, err := c.Stats()
	require.NoError(t, err)
	assert.Greater(t, stats.MinMS, 0.0)
}

func TestMeasure_Success(t *testing.T) {
	t.Parallel()

	c := New()
	require.NoError(t, c.Measure("read", func() error { return nil }))
	require.NoError(t, c.Measure("read", func() error { return nil }))
	assert.Equal(t, 2, c.Count())
}

func TestStatsFor_PerOperation(t *testing.T) {
	t.Parallel()

	c := New()
	c.Record("search", 10*time.Millisecond)
	c.Record("get", 1*time.Millisecond)
	c.Record("search", 20*time.Millisecond)

	assert.Equal(t, []string{"get", "search"}, c.Operations())

	stats, err := c.StatsFor("search")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Count)
	assert.Equal(t, 10.0, stats.MinMS)
	assert.Equal(t, 20.0, stats.MaxMS)

	_, err = c.StatsFor("delete")
	require.ErrorIs(t, err, ErrNoSamples)
}

func TestStats_DoesNotMutate(t *testing.T) {
	t.Parallel()

	c := New()
	c.Record("op", 30*time.Millisecond)
	c.Record("op", 10*time.Millisecond)

	first, err := c.Stats()
	require.NoError(t, err)
	second, err := c.Stats()
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Recorded order is preserved; Stats sorts a copy.
	assert.Equal(t, 30*time.Millisecond, c.samples[0].Elapsed)
}
