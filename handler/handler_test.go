package handler

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssw-corelog/channels"
	"ssw-corelog/corelogerr"
	"ssw-corelog/level"
	"ssw-corelog/record"
	"ssw-corelog/sink"
)

func mustEncode(t *testing.T, msg string) *record.Frame {
	t.Helper()
	f, err := record.Encode(level.Info, time.Now().UnixNano(), 0, false, 0, "f.go", 10, "fn", "l", msg)
	require.NoError(t, err)
	return f
}

func newTestHandler(t *testing.T, sinkPath string) (*Handler, *channels.DataChannel, *channels.ControlChannel) {
	t.Helper()
	s, err := sink.Open(sinkPath)
	require.NoError(t, err)
	data := channels.NewDataChannel(16)
	control := channels.NewControlChannel()
	h := New(data, control, nil, s, Config{Program: "prog", PollTimeout: time.Hour}, nil, nil, nil)
	return h, data, control
}

func TestReadyHandshake(t *testing.T) {
	dir := t.TempDir()
	h, _, control := newTestHandler(t, filepath.Join(dir, "out.log"))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go h.Run(ctx)

	reply, err := control.Send(ctx, channels.TagReadyRequest)
	require.NoError(t, err)
	assert.Equal(t, channels.TagReadyReply, reply)

	_, err = control.Send(ctx, channels.TagExitRequest)
	require.NoError(t, err)
}

func TestWriteFlushAndExitDrainsQueue(t *testing.T) {
	dir := t.TempDir()
	sinkPath := filepath.Join(dir, "out.log")
	h, data, control := newTestHandler(t, sinkPath)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()

	require.True(t, data.TryEnqueue(mustEncode(t, "hello")))
	require.True(t, data.TryEnqueue(mustEncode(t, "line one\nline two")))

	require.NoError(t, control.SendAsync(ctx, channels.TagExitRequest))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not exit")
	}

	contents, err := os.ReadFile(sinkPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(contents), "\n"), "\n")
	require.Len(t, lines, 3, "contents: %q", contents)
	assert.Contains(t, lines[0], "|l|hello")
	assert.Contains(t, lines[1], "|l|line one")
	assert.Contains(t, lines[2], "|l|line two")
}

// TestFlushDrainsQueueBeforeSync is the regression test for flush?
// servicing the durable flush without first draining the data channel
// (spec.md §4.4.2, §4.4.5(a), and scenario S3's "all lines present
// before finalize").
func TestFlushDrainsQueueBeforeSync(t *testing.T) {
	dir := t.TempDir()
	sinkPath := filepath.Join(dir, "out.log")
	h, data, control := newTestHandler(t, sinkPath)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()

	const n = 20
	for i := 0; i < n; i++ {
		require.True(t, data.TryEnqueue(mustEncode(t, "x")))
	}

	reply, err := control.Send(ctx, channels.TagFlushRequest)
	require.NoError(t, err)
	assert.Equal(t, channels.TagFlushReply, reply)

	contents, err := os.ReadFile(sinkPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(contents), "\n"), "\n")
	assert.Len(t, lines, n, "flush must drain all pending records before replying")

	require.NoError(t, control.SendAsync(ctx, channels.TagExitRequest))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not exit")
	}
}

func TestErrorChainTripsBreaker(t *testing.T) {
	dir := t.TempDir()
	sinkPath := filepath.Join(dir, "out.log")
	h, data, _ := newTestHandler(t, sinkPath)

	// Close the sink's underlying file out from under the handler so
	// every write fails, forcing the error chain past MaxErrorDepth.
	h.sinkW.Close()

	for i := 0; i < corelogerr.MaxErrorDepth+2; i++ {
		require.True(t, data.TryEnqueue(mustEncode(t, "x")))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := h.Run(ctx)
	require.Error(t, err)

	ce, ok := err.(*corelogerr.CoreError)
	require.Truef(t, ok, "error is not a *corelogerr.CoreError: %T", err)
	assert.Equal(t, corelogerr.CodeTooManyErrors, ce.Code)
	assert.True(t, ce.TooManyErrors(), "TooManyErrors() = false on the returned error")
}
