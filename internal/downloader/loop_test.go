package downloader

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osudl/pkg/beatmap"
	errs "osudl/pkg/errors"
	"osudl/pkg/logger"
	"osudl/pkg/metrics"
)

// recordingSleep records pacing delays instead of sleeping
type recordingSleep struct {
	calls []time.Duration
}

func (r *recordingSleep) Sleep(ctx context.Context, d time.Duration) error {
	r.calls = append(r.calls, d)
	return ctx.Err()
}

func newTestLoop(sleep *recordingSleep, m *metrics.Metrics) *Loop {
	return NewLoop(LoopConfig{Sleep: sleep.Sleep, Metrics: m}, logger.NewNopLogger())
}

func threeSets() *beatmap.PendingSet {
	return beatmap.NewPendingSet(
		beatmap.New(1, "A", "One"),
		beatmap.New(2, "B", "Two"),
		beatmap.New(3, "C", "Three"),
	)
}

func TestLoopFinishes(t *testing.T) {
	sleep := &recordingSleep{}
	pending := threeSets()
	var seen []int64

	res, err := newTestLoop(sleep, nil).Run(context.Background(), pending, func(ctx context.Context, s beatmap.Set) (bool, error) {
		seen = append(seen, s.ID)
		return true, nil
	})

	require.NoError(t, err)
	assert.Equal(t, StateFinished, res.State)
	assert.Equal(t, 3, res.Downloaded)
	assert.Equal(t, 0, res.Remaining)
	assert.Equal(t, 0, pending.Len())
	assert.ElementsMatch(t, []int64{1, 2, 3}, seen)
	// no pacing delay after the last download
	assert.Equal(t, []time.Duration{DefaultPacingDelay, DefaultPacingDelay}, sleep.calls)
}

func TestLoopAbortsAfterConsecutiveFailures(t *testing.T) {
	sleep := &recordingSleep{}
	pending := threeSets()
	m := metrics.New()
	attempts := map[int64]int{}

	// the first two sets popped succeed, whichever they are
	succeeded := 0
	var failing int64
	res, err := newTestLoop(sleep, m).Run(context.Background(), pending, func(ctx context.Context, s beatmap.Set) (bool, error) {
		attempts[s.ID]++
		if succeeded < 2 && failing != s.ID {
			succeeded++
			return true, nil
		}
		failing = s.ID
		return false, nil
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDownloadLimitReached)
	assert.True(t, errs.IsType(err, errs.ErrorTypeRateLimit))

	assert.Equal(t, StateAborted, res.State)
	assert.Equal(t, 2, res.Downloaded)
	assert.Equal(t, 5, res.ConsecutiveFailures)
	assert.Equal(t, 1, res.Remaining)

	require.Equal(t, 1, pending.Len())
	assert.True(t, pending.Contains(failing))
	assert.Equal(t, 5, attempts[failing])
	assert.Len(t, sleep.calls, 2, "failures are not paced")
	assert.Equal(t, 5.0, testutil.ToFloat64(m.ConsecutiveFailures))
}

func TestLoopResetsFailuresOnSuccess(t *testing.T) {
	sleep := &recordingSleep{}
	pending := beatmap.NewPendingSet()
	for id := int64(1); id <= 6; id++ {
		pending.Add(beatmap.New(id, "A", "T"))
	}

	// alternate four failures with one success; the counter never passes 4
	calls := 0
	res, err := newTestLoop(sleep, nil).Run(context.Background(), pending, func(ctx context.Context, s beatmap.Set) (bool, error) {
		calls++
		return calls%5 == 0, nil
	})

	require.NoError(t, err)
	assert.Equal(t, StateFinished, res.State)
	assert.Equal(t, 6, res.Downloaded)
	assert.Equal(t, 24, res.TotalFailures)
	assert.Equal(t, 0, res.ConsecutiveFailures)
}

func TestLoopCustomThreshold(t *testing.T) {
	pending := beatmap.NewPendingSet(beatmap.New(1, "A", "T"))
	loop := NewLoop(LoopConfig{MaxConsecutiveFailures: 1, Sleep: (&recordingSleep{}).Sleep}, nil)
	assert.Equal(t, 1, loop.MaxConsecutiveFailures())
	assert.Equal(t, DefaultMaxConsecutiveFailures, NewLoop(LoopConfig{}, nil).MaxConsecutiveFailures())

	res, err := loop.Run(context.Background(), pending, func(ctx context.Context, s beatmap.Set) (bool, error) {
		return false, nil
	})

	assert.ErrorIs(t, err, ErrDownloadLimitReached)
	assert.Equal(t, 2, res.ConsecutiveFailures)
	assert.Equal(t, 1, pending.Len())
}

func TestLoopUnrecoverableError(t *testing.T) {
	pending := threeSets()
	diskFull := errs.Wrap(errs.ErrorTypeIO, "failed to write archive", errors.New("no space left on device"))
	log := logger.NewTestLogger()
	loop := NewLoop(LoopConfig{Sleep: (&recordingSleep{}).Sleep}, log)

	res, err := loop.Run(context.Background(), pending, func(ctx context.Context, s beatmap.Set) (bool, error) {
		return false, diskFull
	})

	assert.ErrorIs(t, err, diskFull)
	assert.Equal(t, StateAborted, res.State)
	assert.Equal(t, 3, pending.Len(), "the failed set is returned to pending")
	assert.Equal(t, 3, res.Remaining)
	assert.True(t, log.HasMessage("Unrecoverable download error"))
}

func TestLoopContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pending := threeSets()

	res, err := newTestLoop(&recordingSleep{}, nil).Run(ctx, pending, func(ctx context.Context, s beatmap.Set) (bool, error) {
		cancel()
		return false, ctx.Err()
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateAborted, res.State)
	assert.Equal(t, 3, pending.Len())
	assert.Equal(t, 0, res.TotalFailures)
}

func TestLoopCancelledDuringPacing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pending := threeSets()
	loop := NewLoop(LoopConfig{
		Sleep: func(ctx context.Context, d time.Duration) error {
			cancel()
			return ctx.Err()
		},
	}, nil)

	res, err := loop.Run(ctx, pending, func(ctx context.Context, s beatmap.Set) (bool, error) {
		return true, nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateAborted, res.State)
	assert.Equal(t, 1, res.Downloaded)
	assert.Equal(t, 2, pending.Len())
}

func TestLoopEmptyPending(t *testing.T) {
	res, err := NewLoop(LoopConfig{}, nil).Run(context.Background(), beatmap.NewPendingSet(), func(ctx context.Context, s beatmap.Set) (bool, error) {
		t.Fatal("download called on empty pending set")
		return false, nil
	})

	require.NoError(t, err)
	assert.Equal(t, StateFinished, res.State)
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "draining", StateDraining.String())
	assert.Equal(t, "aborted", StateAborted.String())
	assert.Equal(t, "finished", StateFinished.String())
	assert.Equal(t, "unknown", State(42).String())
}
