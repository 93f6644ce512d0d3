// Package channels implements the three logical conduits of spec.md §3:
// a many-producer/one-consumer data channel, a request/reply control
// channel, and (see sigwatch for the signal side) the signal descriptor
// the Internal Handler polls alongside them.
package channels

import (
	"context"

	"ssw-corelog/record"
)

// DataChannel is the many-producers-to-one-consumer conduit for encoded
// record frames. Delivery is per-producer FIFO; there is no
// cross-producer total order (spec.md §3, §5).
type DataChannel struct {
	ch chan *record.Frame
}

// NewDataChannel creates a DataChannel with the given bounded capacity.
func NewDataChannel(capacity int) *DataChannel {
	return &DataChannel{ch: make(chan *record.Frame, capacity)}
}

// TryEnqueue attempts a non-blocking send, returning false on
// back-pressure (queue full). This is the primitive the producer
// submission path retries against (spec.md §4.3).
func (d *DataChannel) TryEnqueue(f *record.Frame) bool {
	select {
	case d.ch <- f:
		return true
	default:
		return false
	}
}

// Enqueue blocks until f is enqueued or ctx is done. This is the
// "blocking fallback" spec.md §4.3 allows once the initial non-blocking
// attempt and its RetriesMax retries have all failed.
func (d *DataChannel) Enqueue(ctx context.Context, f *record.Frame) error {
	select {
	case d.ch <- f:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// C exposes the receive side for the Internal Handler's select loop.
func (d *DataChannel) C() <-chan *record.Frame {
	return d.ch
}

// Len reports the number of frames currently queued. The Internal
// Handler publishes it as the queue-depth metric.
func (d *DataChannel) Len() int {
	return len(d.ch)
}
