package analysis

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mattermost/mattermost/server/public/plugin/plugintest"
	"github.com/mattermost/mattermost/server/public/pluginapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newQueueLogger(t *testing.T) pluginapi.LogService {
	api := plugintest.NewAPI(t)
	api.On("LogError", mock.Anything, mock.Anything, mock.Anything).Maybe()
	client := pluginapi.NewClient(api, &plugintest.Driver{})
	return client.Log
}

func TestQueue_TasksNeverOverlap(t *testing.T) {
	q := NewQueue(newQueueLogger(t), time.Millisecond, time.Second)
	defer q.Close()

	var inFlight int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := q.Do(context.Background(), func(ctx context.Context) (any, error) {
				if n := atomic.AddInt32(&inFlight, 1); n != 1 {
					t.Errorf("observed %d concurrent tasks, want 1", n)
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&inFlight, -1)
				return nil, nil
			})
			assert.NoError(t, err)
		}()
	}

	wg.Wait()
}

func TestQueue_EnforcesMinimumGap(t *testing.T) {
	gap := 50 * time.Millisecond
	q := NewQueue(newQueueLogger(t), gap, time.Second)
	defer q.Close()

	var starts []time.Time
	for i := 0; i < 3; i++ {
		_, err := q.Do(context.Background(), func(ctx context.Context) (any, error) {
			starts = append(starts, time.Now())
			return nil, nil
		})
		require.NoError(t, err)
	}

	require.Len(t, starts, 3)
	for i := 1; i < len(starts); i++ {
		elapsed := starts[i].Sub(starts[i-1])
		assert.GreaterOrEqual(t, elapsed, gap,
			"consecutive task starts must be separated by at least the minimum gap")
	}
}

func TestQueue_ReturnsTaskResult(t *testing.T) {
	q := NewQueue(newQueueLogger(t), time.Millisecond, time.Second)
	defer q.Close()

	value, err := q.Do(context.Background(), func(ctx context.Context) (any, error) {
		return "result", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "result", value)
}

func TestQueue_PanicIsIsolated(t *testing.T) {
	api := plugintest.NewAPI(t)
	api.On("LogError", "Throttled task panicked", "panic", mock.Anything).Once()
	client := pluginapi.NewClient(api, &plugintest.Driver{})

	q := NewQueue(client.Log, time.Millisecond, time.Second)
	defer q.Close()

	_, err := q.Do(context.Background(), func(ctx context.Context) (any, error) {
		panic("provider exploded")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task panicked")

	// The worker loop survives and serves the next task
	value, err := q.Do(context.Background(), func(ctx context.Context) (any, error) {
		return "still alive", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "still alive", value)
}

func TestQueue_PerTaskTimeout(t *testing.T) {
	q := NewQueue(newQueueLogger(t), time.Millisecond, 30*time.Millisecond)
	defer q.Close()

	_, err := q.Do(context.Background(), func(ctx context.Context) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueue_CancelledContextGatesAdmission(t *testing.T) {
	q := NewQueue(newQueueLogger(t), time.Millisecond, time.Second)
	defer q.Close()

	// Occupy the worker so queued submissions stay in the channel.
	started := make(chan struct{})
	release := make(chan struct{})
	defer close(release)
	go func() {
		_, _ = q.Do(context.Background(), func(ctx context.Context) (any, error) {
			close(started)
			<-release
			return nil, nil
		})
	}()
	<-started

	// Fill the buffered channel so the next admission has to block.
	for i := 0; i < queueCapacity; i++ {
		go func() {
			_, _ = q.Do(context.Background(), func(ctx context.Context) (any, error) {
				return nil, nil
			})
		}()
	}
	require.Eventually(t, func() bool {
		return len(q.tasks) == queueCapacity
	}, time.Second, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := q.Do(ctx, func(ctx context.Context) (any, error) {
		return nil, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQueue_Close(t *testing.T) {
	t.Run("pending tasks fail with ErrQueueClosed", func(t *testing.T) {
		q := NewQueue(newQueueLogger(t), 10*time.Millisecond, time.Second)

		// Occupy the worker with a slow task so the second stays queued.
		started := make(chan struct{})
		release := make(chan struct{})
		go func() {
			_, _ = q.Do(context.Background(), func(ctx context.Context) (any, error) {
				close(started)
				<-release
				return nil, nil
			})
		}()
		<-started

		pendingErr := make(chan error, 1)
		go func() {
			_, err := q.Do(context.Background(), func(ctx context.Context) (any, error) {
				return nil, nil
			})
			pendingErr <- err
		}()
		time.Sleep(10 * time.Millisecond)

		close(release)
		q.Close()

		select {
		case err := <-pendingErr:
			if err != nil {
				assert.ErrorIs(t, err, ErrQueueClosed)
			}
		case <-time.After(time.Second):
			t.Fatal("pending task was not resolved by Close")
		}
	})

	t.Run("submission after close fails", func(t *testing.T) {
		q := NewQueue(newQueueLogger(t), time.Millisecond, time.Second)
		q.Close()

		_, err := q.Do(context.Background(), func(ctx context.Context) (any, error) {
			return nil, nil
		})
		assert.ErrorIs(t, err, ErrQueueClosed)
	})

	t.Run("close is idempotent", func(t *testing.T) {
		q := NewQueue(newQueueLogger(t), time.Millisecond, time.Second)
		q.Close()
		q.Close() // Must not panic
	})
}
