package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunBoundsConcurrency(t *testing.T) {
	var running, peak atomic.Int32
	items := make([]int, 20)

	err := Run(context.Background(), items, 3, func(context.Context, int) error {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		running.Add(-1)
		return nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestRunJoinsEveryError(t *testing.T) {
	errOdd := errors.New("odd")
	var calls atomic.Int32

	err := Run(context.Background(), []int{1, 2, 3, 4, 5}, 2, func(_ context.Context, n int) error {
		calls.Add(1)
		if n%2 == 1 {
			return fmt.Errorf("item %d: %w", n, errOdd)
		}
		return nil
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, errOdd)
	assert.Equal(t, int32(5), calls.Load(), "a failure does not stop other items")
	assert.Equal(t, "item 1: odd\nitem 3: odd\nitem 5: odd", err.Error())
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	err := Run(ctx, []int{1, 2, 3}, 1, func(context.Context, int) error {
		calls.Add(1)
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls.Load())
}

func TestRunEmpty(t *testing.T) {
	assert.NoError(t, Run(context.Background(), []string(nil), 4, func(context.Context, string) error {
		return errors.New("never called")
	}))
}
