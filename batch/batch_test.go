package batch

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errOdd = errors.New("row failed")

func newProcessor(cpus int) *Processor {
	o := DefaultOptions()
	o.Cpus(cpus)
	return NewProcessor(o, nil, nil)
}

func TestCompleteness(t *testing.T) {
	const n = 50
	for _, cpus := range []int{1, 3, 8, 100} {
		out := make([]string, n)
		var finalized atomic.Int32
		var got Summary
		failing := 0
		for i := 0; i < n; i++ {
			if i%7 == 0 {
				failing++
			}
		}
		s, err := newProcessor(cpus).Run(context.Background(), n, func(_ context.Context, row int) error {
			if row%7 == 0 {
				return errOdd
			}
			out[row] = "done"
			return nil
		}, func(s Summary) {
			finalized.Add(1)
			got = s
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, int32(1), finalized.Load())
		assert.Equal(t, failing, got.Errors)
		assert.Equal(t, got.Errors, s.Errors)
		assert.Equal(t, n, s.Processed)
		assert.Equal(t, n, s.Claimed)
		assert.False(t, s.Cancelled)
		assert.NoError(t, s.Err())
		assert.NotEmpty(t, s.ID)
		written := 0
		for _, v := range out {
			if v != "" {
				written++
			}
		}
		assert.Equal(t, n-failing, written)
	}
}

func TestAllRowsFailed(t *testing.T) {
	s, err := newProcessor(4).Run(context.Background(), 10, func(context.Context, int) error {
		return errOdd
	}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 10, s.Errors)
	assert.ErrorIs(t, s.Err(), ErrAllRowsFailed)
}

func TestFinalizeExactlyOnce(t *testing.T) {
	const n = 8
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 1000; i++ {
		cpus := 1 + rng.Intn(n)
		delays := make([]time.Duration, n)
		for k := range delays {
			delays[k] = time.Duration(rng.Intn(50)) * time.Microsecond
		}
		var calls atomic.Int32
		_, err := newProcessor(cpus).Run(context.Background(), n, func(_ context.Context, row int) error {
			time.Sleep(delays[row])
			if row == 0 {
				return errOdd
			}
			return nil
		}, func(s Summary) {
			time.Sleep(delays[0])
			calls.Add(1)
		}, nil)
		require.NoError(t, err)
		require.Equal(t, int32(1), calls.Load(), "run %d with %d workers", i, cpus)
	}
}

func TestZeroRows(t *testing.T) {
	var calls atomic.Int32
	s, err := newProcessor(4).Run(context.Background(), 0, func(context.Context, int) error {
		t.Error("no row should be processed")
		return nil
	}, func(Summary) { calls.Add(1) }, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 0, s.Claimed)
	assert.NoError(t, s.Err())
}

func TestInvalidArguments(t *testing.T) {
	p := newProcessor(2)
	_, err := p.Run(context.Background(), -1, func(context.Context, int) error { return nil }, nil, nil)
	assert.Error(t, err)
	_, err = p.Run(context.Background(), 3, nil, nil, nil)
	assert.Error(t, err)
}

func TestPanicIsolation(t *testing.T) {
	var mu sync.Mutex
	done := make(map[int]bool)
	s, err := newProcessor(3).Run(context.Background(), 20, func(_ context.Context, row int) error {
		if row == 3 {
			panic("bad molecule")
		}
		mu.Lock()
		done[row] = true
		mu.Unlock()
		return nil
	}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Errors)
	assert.Equal(t, 20, s.Processed)
	assert.Len(t, done, 19)
}

func TestCancellationSingleWorker(t *testing.T) {
	p := NewProgress(nil)
	var started atomic.Int32
	var final Summary
	s, err := newProcessor(1).Run(context.Background(), 100, func(_ context.Context, row int) error {
		if started.Add(1) == 10 {
			p.Cancel()
		}
		return nil
	}, func(s Summary) { final = s }, p)
	require.NoError(t, err)
	assert.True(t, s.Cancelled)
	assert.True(t, final.Cancelled)
	assert.Equal(t, 10, s.Claimed)
	assert.Equal(t, 10, s.Processed)
	assert.Equal(t, int32(10), started.Load())
}

func TestCancellationInFlight(t *testing.T) {
	const cpus = 4
	p := NewProgress(nil)
	var started, finished atomic.Int32
	s, err := newProcessor(cpus).Run(context.Background(), 1000, func(_ context.Context, row int) error {
		if started.Add(1) == 20 {
			p.Cancel()
		}
		time.Sleep(time.Millisecond)
		finished.Add(1)
		return nil
	}, nil, p)
	require.NoError(t, err)
	assert.True(t, s.Cancelled)
	//rows in flight when the flag was set are completed
	assert.Equal(t, started.Load(), finished.Load())
	assert.Equal(t, int(started.Load()), s.Claimed)
	assert.LessOrEqual(t, s.Processed, s.Claimed)
	assert.LessOrEqual(t, s.Claimed, 20+cpus-1)
}

func TestContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var calls atomic.Int32
	s, err := newProcessor(4).Run(ctx, 10, func(context.Context, int) error { return nil },
		func(Summary) { calls.Add(1) }, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, s.Cancelled)
	assert.Equal(t, 0, s.Claimed)
}

func TestProgress(t *testing.T) {
	var mu sync.Mutex
	var reports []int64
	p := NewProgress(func(done int64) {
		mu.Lock()
		reports = append(reports, done)
		mu.Unlock()
	})
	_, err := newProcessor(1).Run(context.Background(), 40, func(context.Context, int) error { return nil }, nil, p)
	require.NoError(t, err)
	assert.Equal(t, []int64{16, 32, 40}, reports)
	assert.Equal(t, int64(40), p.Done())

	p = NewProgress(nil)
	o := DefaultOptions()
	o.Cpus(4)
	o.ProgressStep(0)
	_, err = NewProcessor(o, nil, nil).Run(context.Background(), 40, func(context.Context, int) error { return nil }, nil, p)
	require.NoError(t, err)
	assert.Equal(t, int64(40), p.Done())
	assert.Equal(t, int64(40), p.Updates())
}

func TestProgressNeverGoesBack(t *testing.T) {
	p := NewProgress(nil)
	p.UpdateProgress(32)
	p.UpdateProgress(16)
	assert.Equal(t, int64(32), p.Done())
	p.UpdateProgress(-1)
	assert.Equal(t, int64(33), p.Done())
}

func TestRowTimeout(t *testing.T) {
	o := DefaultOptions()
	o.Cpus(2)
	o.RowTimeout(5 * time.Millisecond)
	s, err := NewProcessor(o, nil, nil).Run(context.Background(), 4, func(ctx context.Context, row int) error {
		<-ctx.Done()
		return ctx.Err()
	}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, s.Errors)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)
	_, err = NewProcessor(nil, nil, m).Run(context.Background(), 10, func(_ context.Context, row int) error {
		switch row {
		case 1:
			return errOdd
		case 2:
			panic("boom")
		}
		return nil
	}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 8.0, testutil.ToFloat64(m.rows.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rows.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rows.WithLabelValues("panic")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.batches))
	obs := m.CacheObserver()
	obs(true)
	obs(false)
	obs(false)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")))
	_, err = NewMetrics(reg)
	assert.Error(t, err, "registering twice must fail")
	var nilMetrics *Metrics
	assert.Nil(t, nilMetrics.CacheObserver())
	nilMetrics.ObserveRow(Outcome{})
}
