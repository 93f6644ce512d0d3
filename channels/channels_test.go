package channels

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssw-corelog/level"
	"ssw-corelog/record"
)

func TestDataChannelFIFO(t *testing.T) {
	d := NewDataChannel(4)
	for i := 0; i < 3; i++ {
		f, err := record.Encode(level.Info, int64(i), 0, false, 0, "f", i, "fn", "l", "m")
		require.NoError(t, err)
		require.True(t, d.TryEnqueue(f), "TryEnqueue %d should succeed", i)
	}
	for i := 0; i < 3; i++ {
		f := <-d.C()
		h, _, _, _, _, err := record.Decode(f)
		require.NoError(t, err)
		assert.EqualValues(t, i, h.TimestampNS, "out of order")
	}
}

func TestDataChannelOverrunTryEnqueueFails(t *testing.T) {
	d := NewDataChannel(1)
	f1, err := record.Encode(level.Info, 1, 0, false, 0, "f", 1, "fn", "l", "m")
	require.NoError(t, err)
	f2, err := record.Encode(level.Info, 2, 0, false, 0, "f", 2, "fn", "l", "m")
	require.NoError(t, err)

	assert.True(t, d.TryEnqueue(f1), "first enqueue should succeed")
	assert.False(t, d.TryEnqueue(f2), "second enqueue should fail on a full channel")
}

// TestDataChannelEnqueueBlocksUntilSpace covers the blocking fallback of
// spec.md §8 invariant 8: Enqueue waits for room rather than failing
// immediately, and succeeds as soon as a consumer drains one slot.
func TestDataChannelEnqueueBlocksUntilSpace(t *testing.T) {
	d := NewDataChannel(1)
	f1, err := record.Encode(level.Info, 1, 0, false, 0, "f", 1, "fn", "l", "m")
	require.NoError(t, err)
	f2, err := record.Encode(level.Info, 2, 0, false, 0, "f", 2, "fn", "l", "m")
	require.NoError(t, err)

	require.True(t, d.TryEnqueue(f1))

	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		done <- d.Enqueue(ctx, f2)
	}()

	<-d.C() // drain the one slot Enqueue is waiting on
	assert.NoError(t, <-done)
}

func TestDataChannelEnqueueRespectsContext(t *testing.T) {
	d := NewDataChannel(1)
	f1, err := record.Encode(level.Info, 1, 0, false, 0, "f", 1, "fn", "l", "m")
	require.NoError(t, err)
	f2, err := record.Encode(level.Info, 2, 0, false, 0, "f", 2, "fn", "l", "m")
	require.NoError(t, err)

	require.True(t, d.TryEnqueue(f1))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = d.Enqueue(ctx, f2)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestControlChannelRequestReply(t *testing.T) {
	c := NewControlChannel()
	done := make(chan struct{})
	go func() {
		req := <-c.Requests()
		assert.Equal(t, TagReadyRequest, req.Tag)
		req.Reply(TagReadyReply)
		close(done)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	reply, err := c.Send(ctx, TagReadyRequest)
	require.NoError(t, err)
	assert.Equal(t, TagReadyReply, reply)
	<-done
}
