package batch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_RunsEveryTask(t *testing.T) {
	var mu sync.Mutex
	done := map[int]bool{}

	err := Runner{BatchSize: 3}.Run(context.Background(), 10, func(_ context.Context, i int) error {
		mu.Lock()
		done[i] = true
		mu.Unlock()
		return nil
	})

	require.NoError(t, err)
	assert.Len(t, done, 10)
}

func TestRunner_RespectsBatchSize(t *testing.T) {
	var current, peak int32

	err := Runner{BatchSize: 2}.Run(context.Background(), 9, func(_ context.Context, _ int) error {
		n := atomic.AddInt32(&current, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		atomic.AddInt32(&current, -1)
		return nil
	})

	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestRunner_TaskErrorStopsRun(t *testing.T) {
	boom := errors.New("boom")
	var executed int32

	err := Runner{BatchSize: 1}.Run(context.Background(), 5, func(_ context.Context, i int) error {
		atomic.AddInt32(&executed, 1)
		if i == 1 {
			return boom
		}
		return nil
	})

	require.ErrorIs(t, err, boom)
	// Упали на второй пачке, до остальных дело не дошло
	assert.EqualValues(t, 2, atomic.LoadInt32(&executed))
}

func TestRunner_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Runner{BatchSize: 2}.Run(ctx, 4, func(ctx context.Context, _ int) error {
		return ctx.Err()
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunner_ZeroBatchSizeDefaults(t *testing.T) {
	var executed int32
	err := Runner{}.Run(context.Background(), 4, func(_ context.Context, _ int) error {
		atomic.AddInt32(&executed, 1)
		return nil
	})
	require.NoError(t, err)
	assert.EqualValues(t, 4, atomic.LoadInt32(&executed))
}
