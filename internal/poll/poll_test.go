package poll

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoll_FirstAttemptSucceeds(t *testing.T) {
	t.Parallel()

	start := time.Now()
	out, err := Poll(context.Background(), Options[string]{
		Probe:    func(ctx context.Context) ([]string, error) { return []string{"doc-1"}, nil },
		Match:    NonEmpty[string],
		Interval: 50 * time.Millisecond,
		Deadline: time.Second,
		Target:   "doc-1",
	})
	require.NoError(t, err)

	assert.True(t, out.Found())
	assert.False(t, out.ViaFallback)
	assert.Equal(t, 1, out.Attempts)
	assert.Equal(t, []string{"doc-1"}, out.Records)
	// No sleep should have happened.
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestPoll_TimeoutIsNotAnError(t *testing.T) {
	t.Parallel()

	deadline := 60 * time.Millisecond
	interval := 20 * time.Millisecond

	start := time.Now()
	out, err := Poll(context.Background(), Options[string]{
		Probe:    func(ctx context.Context) ([]string, error) { return nil, nil },
		Match:    NonEmpty[string],
		Interval: interval,
		Deadline: deadline,
	})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.False(t, out.Found())
	assert.Empty(t, out.Records)
	assert.Greater(t, out.Attempts, 1)
	// Bounded within one interval of overshoot (plus scheduling slack).
	assert.Less(t, elapsed, deadline+interval+50*time.Millisecond)
}

func TestPoll_FallbackPath(t *testing.T) {
	t.Parallel()

	out, err := Poll(context.Background(), Options[string]{
		Probe:         func(ctx context.Context) ([]string, error) { return nil, nil },
		Match:         NonEmpty[string],
		Fallback:      func(ctx context.Context) ([]string, error) { return []string{"doc-2"}, nil },
		Interval:      10 * time.Millisecond,
		Deadline:      time.Second,
		FallbackAfter: 30 * time.Millisecond,
	})
	require.NoError(t, err)

	assert.True(t, out.Found())
	assert.True(t, out.ViaFallback)
	assert.Equal(t, []string{"doc-2"}, out.Records)
	assert.GreaterOrEqual(t, out.Elapsed, 30*time.Millisecond)
}

func TestPoll_FallbackTriedOnceAtDeadline(t *testing.T) {
	t.Parallel()

	// The grace period never elapses before the deadline, but expiry
	// still grants one final fallback attempt.
	fallbackCalls := 0
	out, err := Poll(context.Background(), Options[string]{
		Probe: func(ctx context.Context) ([]string, error) { return nil, nil },
		Match: NonEmpty[string],
		Fallback: func(ctx context.Context) ([]string, error) {
			fallbackCalls++
			return []string{"doc-3"}, nil
		},
		Interval:      10 * time.Millisecond,
		Deadline:      40 * time.Millisecond,
		FallbackAfter: time.Hour,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, fallbackCalls)
	assert.True(t, out.ViaFallback)
	assert.True(t, out.Found())
}

func TestPoll_FallbackEmptyMeansAbsence(t *testing.T) {
	t.Parallel()

	fallbackCalls := 0
	out, err := Poll(context.Background(), Options[string]{
		Probe: func(ctx context.Context) ([]string, error) { return nil, nil },
		Match: NonEmpty[string],
		Fallback: func(ctx context.Context) ([]string, error) {
			fallbackCalls++
			return nil, nil
		},
		Interval:      10 * time.Millisecond,
		Deadline:      50 * time.Millisecond,
		FallbackAfter: 0,
	})
	require.NoError(t, err)

	// An empty fallback result is inconclusive: polling continues, the
	// fallback is not retried, and expiry reports absence.
	assert.Equal(t, 1, fallbackCalls)
	assert.False(t, out.Found())
	assert.False(t, out.ViaFallback)
}

func TestPoll_TransientErrorsAreRetried(t *testing.T) {
	t.Parallel()

	calls := 0
	out, err := Poll(context.Background(), Options[string]{
		Probe: func(ctx context.Context) ([]string, error) {
			calls++
			if calls < 3 {
				return nil, errors.New("http 503")
			}
			return []string{"doc-4"}, nil
		},
		Match:    NonEmpty[string],
		Interval: 5 * time.Millisecond,
		Deadline: time.Second,
	})
	require.NoError(t, err)

	assert.True(t, out.Found())
	assert.False(t, out.ViaFallback)
	assert.Equal(t, 3, out.Attempts)
}

func TestPoll_EventualVisibility(t *testing.T) {
	t.Parallel()

	// The record becomes visible after three empty reads; the poller
	// finds it via the primary path on the fourth attempt.
	calls := 0
	out, err := Poll(context.Background(), Options[string]{
		Probe: func(ctx context.Context) ([]string, error) {
			calls++
			if calls <= 3 {
				return nil, nil
			}
			return []string{"doc-5"}, nil
		},
		Match:    NonEmpty[string],
		Interval: 10 * time.Millisecond,
		Deadline: time.Second,
	})
	require.NoError(t, err)

	assert.True(t, out.Found())
	assert.False(t, out.ViaFallback)
	assert.Equal(t, 4, out.Attempts)
}

func TestPoll_PastDeadlineSingleAttempt(t *testing.T) {
	t.Parallel()

	calls := 0
	out, err := Poll(context.Background(), Options[string]{
		Probe: func(ctx context.Context) ([]string, error) {
			calls++
			return nil, nil
		},
		Match:    NonEmpty[string],
		Interval: 10 * time.Millisecond,
		Deadline: 0,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.False(t, out.Found())
}

func TestPoll_InvalidArguments(t *testing.T) {
	t.Parallel()

	probe := func(ctx context.Context) ([]string, error) { return nil, nil }

	_, err := Poll(context.Background(), Options[string]{
		Probe: probe, Match: NonEmpty[string], Interval: 0, Deadline: time.Second,
	})
	require.ErrorContains(t, err, "interval must be positive")

	_, err = Poll(context.Background(), Options[string]{
		Match: NonEmpty[string], Interval: time.Millisecond, Deadline: time.Second,
	})
	require.ErrorContains(t, err, "probe is required")

	_, err = Poll(context.Background(), Options[string]{
		Probe: probe, Interval: time.Millisecond, Deadline: time.Second,
	})
	require.ErrorContains(t, err, "match is required")
}

func TestPoll_ContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := Poll(ctx, Options[string]{
		Probe:    func(ctx context.Context) ([]string, error) { return nil, nil },
		Match:    NonEmpty[string],
		Interval: 10 * time.Millisecond,
		Deadline: time.Minute,
	})
	require.ErrorIs(t, err, context.Canceled)
}
