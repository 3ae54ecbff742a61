package retryutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	BaseDelay = time.Millisecond
	MaxDelay = 4 * time.Millisecond
}

func TestDoSucceedsWithoutRetry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(error) bool { return true }, func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoStopsImmediatelyWhenNotRetryable(t *testing.T) {
	calls := 0
	sentinel := errors.New("validation error")
	err := Do(context.Background(), func(error) bool { return false }, func() error {
		calls++
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesUpToMax(t *testing.T) {
	calls := 0
	sentinel := errors.New("transport error")
	err := Do(context.Background(), func(error) bool { return true }, func() error {
		calls++
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, MaxRetries+1, calls)
}

func TestDoRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Do(ctx, func(error) bool { return true }, func() error {
		calls++
		return errors.New("transport error")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}
