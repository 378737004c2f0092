package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDelay = 40 * time.Millisecond

func newTestQueue(t *testing.T, timeout time.Duration) *Queue {
	t.Helper()
	q := NewQueue(QueueOptions{MinDelay: testDelay, Timeout: timeout})
	t.Cleanup(q.Stop)
	return q
}

type dispatchLog struct {
	mu     sync.Mutex
	order  []int
	starts []time.Time
}

func (l *dispatchLog) record(i int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.order = append(l.order, i)
	l.starts = append(l.starts, time.Now())
}

func TestQueue_SpacingAndOrder(t *testing.T) {
	q := newTestQueue(t, 0)
	log := &dispatchLog{}
	ctx := context.Background()

	const n = 5
	futures := make([]*Future, n)
	for i := 0; i < n; i++ {
		futures[i] = q.Enqueue(ctx, func(context.Context) error {
			log.record(i)
			return nil
		})
	}

	for _, f := range futures {
		require.NoError(t, f.Wait(ctx))
	}

	assert.Equal(t, []int{0, 1, 2, 3, 4}, log.order)
	for k := 1; k < len(log.starts); k++ {
		gap := log.starts[k].Sub(log.starts[k-1])
		assert.GreaterOrEqual(t, gap, testDelay, "dispatch %d started %v after the previous one", k, gap)
	}
}

func TestQueue_ConcurrentProducersNeverOverlap(t *testing.T) {
	q := newTestQueue(t, 0)
	ctx := context.Background()

	var (
		mu       sync.Mutex
		inFlight int
		maxSeen  int
	)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := q.Enqueue(ctx, func(context.Context) error {
				mu.Lock()
				inFlight++
				maxSeen = max(maxSeen, inFlight)
				mu.Unlock()

				time.Sleep(5 * time.Millisecond)

				mu.Lock()
				inFlight--
				mu.Unlock()
				return nil
			}).Wait(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
}

func TestQueue_FailureOnlyReachesItsCaller(t *testing.T) {
	q := newTestQueue(t, 0)
	ctx := context.Background()
	boom := errors.New("upstream returned 503")

	first := q.Enqueue(ctx, func(context.Context) error { return nil })
	failing := q.Enqueue(ctx, func(context.Context) error { return boom })
	last := q.Enqueue(ctx, func(context.Context) error { return nil })

	assert.NoError(t, first.Wait(ctx))
	assert.ErrorIs(t, failing.Wait(ctx), boom)
	assert.NoError(t, last.Wait(ctx))
}

func TestQueue_Do(t *testing.T) {
	q := newTestQueue(t, 0)

	got, err := Do(context.Background(), q, func(context.Context) ([]int, error) {
		return []int{13, 822}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, []int{13, 822}, got)
}

func TestQueue_TimeoutReleasesSlot(t *testing.T) {
	q := newTestQueue(t, 20*time.Millisecond)
	ctx := context.Background()

	block := make(chan struct{})
	defer close(block)

	stuck := q.Enqueue(ctx, func(context.Context) error {
		<-block
		return nil
	})
	next := q.Enqueue(ctx, func(context.Context) error { return nil })

	assert.ErrorIs(t, stuck.Wait(ctx), context.DeadlineExceeded)
	assert.NoError(t, next.Wait(ctx))
}

func TestQueue_CancelledBeforeDispatch(t *testing.T) {
	q := newTestQueue(t, 0)
	ctx := context.Background()

	first := q.Enqueue(ctx, func(context.Context) error { return nil })

	cancelled, cancel := context.WithCancel(ctx)
	ran := false
	abandoned := q.Enqueue(cancelled, func(context.Context) error {
		ran = true
		return nil
	})
	cancel()

	require.NoError(t, first.Wait(ctx))
	assert.ErrorIs(t, abandoned.Err(), context.Canceled)
	assert.False(t, ran)
}

func TestQueue_StopFailsPending(t *testing.T) {
	q := NewQueue(QueueOptions{MinDelay: time.Hour})
	ctx := context.Background()

	first := q.Enqueue(ctx, func(context.Context) error { return nil })
	require.NoError(t, first.Wait(ctx))

	// The next task waits on the hour-long spacing until Stop.
	pending := q.Enqueue(ctx, func(context.Context) error { return nil })
	q.Stop()

	assert.ErrorIs(t, pending.Err(), ErrQueueClosed)
	assert.ErrorIs(t, q.Enqueue(ctx, func(context.Context) error { return nil }).Err(), ErrQueueClosed)
}
