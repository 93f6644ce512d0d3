package lifecycle

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"ssw-corelog/config"
	"ssw-corelog/corelogerr"
)

func testOpts(t *testing.T) config.Resolved {
	t.Helper()
	return config.Resolved{
		Program:             "testprog",
		SinkPath:            filepath.Join(t.TempDir(), "out.log"),
		PollTimeout:         time.Hour,
		RetriesMax:          3,
		RetryDelay:          500 * time.Microsecond,
		DataChannelCapacity: 16,
	}
}

func TestInitFinalizeRoundTrip(t *testing.T) {
	c := New(nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	require.NoError(t, c.Init(ctx, testOpts(t)))
	assert.Equal(t, Initialized, c.State())

	require.NoError(t, c.Flush(ctx))

	require.NoError(t, c.Finalize(ctx))
	assert.Equal(t, Finalized, c.State())

	// Re-init from FINALIZED is legal (spec.md §4.5).
	require.NoError(t, c.Init(ctx, testOpts(t)))
	require.NoError(t, c.Finalize(ctx))
}

func TestInitIllegalWhileInitialized(t *testing.T) {
	c := New(nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	require.NoError(t, c.Init(ctx, testOpts(t)))
	defer c.Finalize(ctx)

	err := c.Init(ctx, testOpts(t))
	require.Error(t, err, "expected illegal-state error on double Init")

	ce, ok := err.(*corelogerr.CoreError)
	require.True(t, ok)
	assert.Equal(t, corelogerr.CodeIllegalState, ce.Code)
}

func TestFinalizeIllegalFromUnset(t *testing.T) {
	c := New(nil, nil)
	err := c.Finalize(context.Background())
	require.Error(t, err, "expected illegal-state error finalizing from UNSET")

	ce, ok := err.(*corelogerr.CoreError)
	require.True(t, ok)
	assert.Equal(t, corelogerr.CodeIllegalState, ce.Code)
}

func TestFlushNoopOutsideInitialized(t *testing.T) {
	c := New(nil, nil)
	assert.NoError(t, c.Flush(context.Background()), "Flush outside INITIALIZED should be a no-op")
}

// TestNoGoroutineLeaksAcrossInitFinalize verifies that the Internal
// Handler goroutine spawned by Init, and the sigwatch watcher goroutine
// alongside it, are both fully torn down by Finalize.
func TestNoGoroutineLeaksAcrossInitFinalize(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := New(nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	require.NoError(t, c.Init(ctx, testOpts(t)))
	require.NoError(t, c.Flush(ctx))
	require.NoError(t, c.Finalize(ctx))
}
