package channels

import "context"

// Control-channel tags, exact strings per spec.md §6.
const (
	TagReadyRequest = "BC->IH: ready?"
	TagReadyReply   = "IH->BC: ready!"
	TagExitRequest  = "BC->IH: exit?"
	TagFlushRequest = "BC->IH: flush?"
	TagFlushReply   = "IH->BC: flushed!"
)

// Request is one outstanding control-channel request. A producer issues
// exactly one and blocks until Reply is called exactly once (spec.md §3).
type Request struct {
	Tag     string
	replyCh chan string
}

// Reply fulfills the request. Must be called exactly once, by the
// Internal Handler.
func (r *Request) Reply(tag string) {
	r.replyCh <- tag
}

// ControlChannel is the request/reply conduit for readiness handshakes,
// flush requests, and shutdown requests (spec.md §3).
type ControlChannel struct {
	ch chan *Request
}

// NewControlChannel creates an unbuffered control channel: send and
// dispatch rendezvous directly, matching the "blocks until reply"
// contract.
func NewControlChannel() *ControlChannel {
	return &ControlChannel{ch: make(chan *Request)}
}

// Send issues tag and blocks for the single reply, or until ctx is
// done. Exactly one outstanding request per producer (spec.md §3).
func (c *ControlChannel) Send(ctx context.Context, tag string) (string, error) {
	req := &Request{Tag: tag, replyCh: make(chan string, 1)}
	select {
	case c.ch <- req:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	select {
	case reply := <-req.replyCh:
		return reply, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// SendAsync delivers tag without waiting for a reply. Used for exit?,
// where spec.md §4.5 has the caller join the handler goroutine directly
// rather than wait on a control-channel reply; the handler still calls
// Reply, but into a buffered channel nobody reads.
func (c *ControlChannel) SendAsync(ctx context.Context, tag string) error {
	req := &Request{Tag: tag, replyCh: make(chan string, 1)}
	select {
	case c.ch <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Requests exposes the receive side for the Internal Handler's select
// loop.
func (c *ControlChannel) Requests() <-chan *Request {
	return c.ch
}
