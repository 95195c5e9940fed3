package pool

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferloop/datadrift/pkg/errors"
)

func TestRunFillsEverySlot(t *testing.T) {
	p := New(3, nil)
	results := make([]int, 50)

	err := p.Run(context.Background(), len(results), func(ctx context.Context, i int) error {
		results[i] = i * i
		return nil
	})
	require.NoError(t, err)

	for i, v := range results {
		assert.Equal(t, i*i, v)
	}
}

func TestRunReturnsTaskError(t *testing.T) {
	p := New(1, nil)
	var calls int32

	err := p.Run(context.Background(), 10, func(ctx context.Context, i int) error {
		atomic.AddInt32(&calls, 1)
		if i == 2 {
			return fmt.Errorf("column %d failed", i)
		}
		return nil
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "column 2 failed")
	assert.Less(t, int(atomic.LoadInt32(&calls)), 10)
}

func TestRunHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int32
	err := New(2, nil).Run(ctx, 5, func(ctx context.Context, i int) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrJobCancelled))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestNewDefaultsWorkers(t *testing.T) {
	assert.Greater(t, New(0, nil).Workers(), 0)
	assert.Equal(t, 4, New(4, nil).Workers())
}

func TestRunZeroTasks(t *testing.T) {
	assert.NoError(t, New(2, nil).Run(context.Background(), 0, nil))
}
