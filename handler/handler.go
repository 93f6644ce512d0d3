// Package handler implements the Internal Handler (spec.md §4.4): the
// single dedicated goroutine that owns the sink and multiplexes the
// data channel, the control channel, a fatal-signal descriptor, and a
// periodic flush timer through one select loop. Grounded on the
// teacher's internal/dispatcher.Dispatcher main loop (select over
// queue/ctx.Done/ticker) and internal/dispatcher/retry_manager.go for
// the bounded-retry shape reused here as the error-chain breaker.
package handler

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"ssw-corelog/channels"
	"ssw-corelog/corelogerr"
	"ssw-corelog/level"
	"ssw-corelog/metrics"
	"ssw-corelog/record"
	"ssw-corelog/sink"
	"ssw-corelog/tracing"
)

// Config carries the handler's tunables, resolved from config.Options.
type Config struct {
	Program     string
	PollTimeout time.Duration
}

// Handler is the Internal Handler. It owns sinkW exclusively: no other
// goroutine may write to it (spec.md §5).
type Handler struct {
	data    *channels.DataChannel
	control *channels.ControlChannel
	sig     <-chan os.Signal
	sinkW   *sink.Sink

	program     string
	pid         int
	pollTimeout time.Duration

	diag    *logrus.Logger
	metrics *metrics.Collector
	tracer  *tracing.Tracer

	breaker *errorBreaker
	fatal   *corelogerr.CoreError
}

// New constructs a Handler. sig may be nil if the caller doesn't want
// the handler to own a fatal-signal descriptor (tests, or callers that
// route signals exclusively through sigwatch instead). diag, m, and tr
// may all be nil; every use of them is nil-safe.
func New(data *channels.DataChannel, control *channels.ControlChannel, sig <-chan os.Signal, sinkW *sink.Sink, cfg Config, diag *logrus.Logger, m *metrics.Collector, tr *tracing.Tracer) *Handler {
	if diag == nil {
		diag = logrus.New()
	}
	return &Handler{
		data:        data,
		control:     control,
		sig:         sig,
		sinkW:       sinkW,
		program:     cfg.Program,
		pid:         os.Getpid(),
		pollTimeout: cfg.PollTimeout,
		diag:        diag,
		metrics:     m,
		tracer:      tr,
		breaker:     newErrorBreaker(),
	}
}

// Run is the Internal Handler's body: it blocks until a control-channel
// exit? request is serviced, a fatal signal is handled, or the error
// chain trips the breaker. It is meant to be run as the sole goroutine
// reading h.data and h.control, started once by lifecycle.Init.
func (h *Handler) Run(ctx context.Context) error {
	timer := time.NewTimer(h.pollTimeout)
	defer timer.Stop()

	for {
		select {
		case f, ok := <-h.data.C():
			if !ok {
				return nil
			}
			h.writeFrame(f)
			metrics.SetQueueDepth(h.metrics, h.data.Len())

		case req, ok := <-h.control.Requests():
			if !ok {
				return nil
			}
			if done, err := h.handleRequest(ctx, req); done {
				return err
			}

		case sig, ok := <-h.sig:
			if !ok {
				// Signal descriptor closed; drop it so this case blocks
				// forever (a nil channel is never ready).
				h.sig = nil
				break
			}
			return h.handleSignal(ctx, sig)

		case <-timer.C:
			h.durableFlush(ctx)
		}

		if h.fatal != nil {
			return h.fatal
		}
		drainTimer(timer, h.pollTimeout)
	}
}

// handleRequest services one control-channel request. done is true once
// the handler must stop its loop (exit?).
func (h *Handler) handleRequest(ctx context.Context, req *channels.Request) (done bool, err error) {
	switch req.Tag {
	case channels.TagReadyRequest:
		req.Reply(channels.TagReadyReply)

	case channels.TagFlushRequest:
		h.drainAll()
		h.durableFlush(ctx)
		req.Reply(channels.TagFlushReply)

	case channels.TagExitRequest:
		h.drainAll()
		h.durableFlush(ctx)
		req.Reply(channels.TagFlushReply)
		h.sinkW.Close()
		if h.fatal != nil {
			return true, h.fatal
		}
		return true, nil

	default:
		h.onError(corelogerr.CodeProtocolMismatch, "handler", "control", fmt.Sprintf("unknown control tag %q", req.Tag))
	}
	return false, nil
}

// handleSignal implements spec.md §4.4.1's fatal path: drain whatever
// is queued, log one critical record describing the signal, durably
// flush, then restore default disposition and re-raise so the process
// terminates (or dumps core) exactly as it would without this handler
// installed. Note: this path only ever fires for signals asynchronously
// delivered via kill()/raise() — a genuine synchronous hardware fault
// (a real SIGSEGV from a bad memory access) is caught by the Go runtime
// itself before os/signal ever sees it, and cannot be intercepted this
// way; spec.md's platform source can trap it because it runs without a
// managed runtime in between.
func (h *Handler) handleSignal(ctx context.Context, sig os.Signal) error {
	sctx, span := h.tracer.StartSignalDrain(ctx)
	defer span.End()

	h.drainAll()
	h.logSignalRecord(sig)
	h.durableFlush(sctx)
	h.sinkW.Close()

	resetAndReraise(sig)
	return corelogerr.New(corelogerr.CodePlatformCallFailed, "handler", "signal", fmt.Sprintf("terminated by %s", sig))
}

// drainAll drinks the data channel without blocking, used before a
// flush or exit so nothing queued is lost to the flush boundary.
func (h *Handler) drainAll() {
	for {
		select {
		case f, ok := <-h.data.C():
			if !ok {
				return
			}
			h.writeFrame(f)
		default:
			return
		}
	}
}

// writeFrame decodes f, splits its message on newlines, renders one
// sink line per segment (spec.md §8 invariant 2), and writes each line.
// A short write falls back to stderr rather than silently truncating.
func (h *Handler) writeFrame(f *record.Frame) {
	hdr, file, fn, loggerName, message, err := record.Decode(f)
	if err != nil {
		h.onError(corelogerr.CodeProtocolMismatch, "handler", "decode", err.Error())
		return
	}

	for _, seg := range record.SplitMessage(message) {
		line := record.RenderLine(hdr, h.pid, file, fn, loggerName, h.program, seg)
		n, werr := h.sinkW.Write(line)
		if werr != nil {
			h.onError(corelogerr.CodePlatformCallFailed, "handler", "write", werr.Error())
			continue
		}
		if n < len(line) {
			writeFallback(os.Stderr, n, len(line), line)
		}
	}
}

// logSignalRecord builds and writes a critical-level record describing
// a fatal signal directly, bypassing the data channel (spec.md §4.4.1:
// "one record at critical describing the signal").
func (h *Handler) logSignalRecord(sig os.Signal) {
	msg := fmt.Sprintf("fatal signal received: %s (pid=%d)", sig, h.pid)
	f, err := record.Encode(level.Critical, time.Now().UnixNano(), 0, false, 0, "", 0, "", "signal", msg)
	if err != nil {
		return
	}
	h.writeFrame(f)
}

// durableFlush performs the sink's durable-write primitive and records
// the resulting latency and any error via the breaker.
func (h *Handler) durableFlush(ctx context.Context) error {
	_, span := h.tracer.StartFlush(ctx)
	defer span.End()

	start := time.Now()
	err := h.sinkW.Durable()
	metrics.ObserveFlush(h.metrics, time.Since(start).Seconds())
	if err != nil {
		h.onError(corelogerr.CodePlatformCallFailed, "handler", "durable-flush", err.Error())
		return err
	}
	h.breaker.reset()
	return nil
}

// onError folds err into the breaker's chain, logs it, and — once the
// chain trips — latches h.fatal so Run aborts after the current select
// branch returns (spec.md §4.4.4).
func (h *Handler) onError(code corelogerr.Code, component, operation, message string) {
	ce, trip := h.breaker.record(code, component, operation, message)
	h.diag.WithError(ce).WithField("code", code).Warn("handler error")
	metrics.IncHandlerError(h.metrics)
	if trip {
		h.fatal = corelogerr.Wrap(corelogerr.CodeTooManyErrors, component, operation, "error chain exceeded max depth", ce)
	}
}

// drainTimer resets timer to d, discarding any pending tick so the next
// fire is exactly d away from now rather than stacking up.
func drainTimer(timer *time.Timer, d time.Duration) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	timer.Reset(d)
}

// resetAndReraise restores sig's default disposition and re-raises it
// to self, mirroring sigwatch.restoreAndReraise for the handler's own
// signal descriptor.
func resetAndReraise(sig os.Signal) {
	signal.Reset(sig)
	if s, ok := sig.(syscall.Signal); ok {
		syscall.Kill(os.Getpid(), s)
	}
}
