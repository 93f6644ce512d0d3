// Package lifecycle implements the state machine and Init/Finalize/Flush
// operations of spec.md §4.5, wiring together the channels, the
// Internal Handler, the sink, and the signal/fork integrations behind
// one mutex. Grounded on the teacher's internal/app/app.go +
// internal/app/initialization.go: explicit state flags, Start/Stop
// guarded by a single mutex, global mutable state accessed only through
// that guard (spec.md §5: "the lifecycle state word is written only
// under the lifecycle mutex").
package lifecycle

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/sirupsen/logrus"

	"ssw-corelog/channels"
	"ssw-corelog/config"
	"ssw-corelog/corelogerr"
	"ssw-corelog/handler"
	"ssw-corelog/metrics"
	"ssw-corelog/sigwatch"
	"ssw-corelog/sink"
	"ssw-corelog/tracing"
)

// State is one node of spec.md §4.5's process-wide lifecycle enum.
type State int32

const (
	Unset State = iota
	Initializing
	Initialized
	Finalizing
	Finalized
	Forked
	Illegal
)

func (s State) String() string {
	switch s {
	case Unset:
		return "UNSET"
	case Initializing:
		return "INITIALIZING"
	case Initialized:
		return "INITIALIZED"
	case Finalizing:
		return "FINALIZING"
	case Finalized:
		return "FINALIZED"
	case Forked:
		return "FORKED"
	default:
		return "ILLEGAL"
	}
}

// signals the Internal Handler's own pollable descriptor watches:
// synchronous faults only (spec.md §4.6's "inside the handler" regime).
var handlerSignals = []os.Signal{syscall.SIGSEGV, syscall.SIGBUS, syscall.SIGFPE, syscall.SIGILL}

// Controller owns the process-wide lifecycle state and everything it
// gates: the channels, the handler goroutine, the sink, and the
// outside-the-handler signal watcher. There is exactly one Controller
// per process in normal use (spec.md §5's "global mutable state ...
// process-wide by necessity").
type Controller struct {
	mu    sync.Mutex
	state State

	diag    *logrus.Logger
	m       *metrics.Collector
	tracer  *tracing.Tracer

	program string

	data    *channels.DataChannel
	control *channels.ControlChannel
	sinkW   *sink.Sink
	sigCh   chan os.Signal
	watcher *sigwatch.Watcher

	handlerDone chan error
	cancel      context.CancelFunc
}

// New constructs an unstarted Controller. diag and m may be nil; both
// are optional ambient wiring.
func New(diag *logrus.Logger, m *metrics.Collector) *Controller {
	if diag == nil {
		diag = logrus.New()
	}
	return &Controller{state: Unset, diag: diag, m: m}
}

// State reports the current lifecycle state. Read-only access outside
// the mutex is advisory per spec.md §5; this method still takes the
// lock for a non-torn read.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Data exposes the producer-side data channel handle. Valid only once
// Init has completed; returns nil before then.
func (c *Controller) Data() *channels.DataChannel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data
}

// Init spawns the Internal Handler and waits for its readiness reply,
// valid only from UNSET or FINALIZED (spec.md §4.5).
func (c *Controller) Init(ctx context.Context, opts config.Resolved) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Unset && c.state != Finalized {
		return corelogerr.New(corelogerr.CodeIllegalState, "lifecycle", "init",
			fmt.Sprintf("init is only legal from UNSET or FINALIZED, current state is %s", c.state))
	}
	c.state = Initializing

	s, err := sink.Open(opts.SinkPath)
	if err != nil {
		c.state = Illegal
		return corelogerr.Wrap(corelogerr.CodeConfig, "lifecycle", "init", "opening sink", err)
	}

	tr, err := tracing.New(ctx, tracing.Backend(opts.TracingBackend), opts.TracingEndpoint, opts.Program)
	if err != nil {
		s.Close()
		c.state = Illegal
		return corelogerr.Wrap(corelogerr.CodeConfig, "lifecycle", "init", "starting tracer", err)
	}

	data := channels.NewDataChannel(opts.DataChannelCapacity)
	control := channels.NewControlChannel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, handlerSignals...)

	h := handler.New(data, control, sigCh, s, handler.Config{
		Program:     opts.Program,
		PollTimeout: opts.PollTimeout,
	}, c.diag, c.m, tr)

	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Run(runCtx) }()

	if _, err := control.Send(ctx, channels.TagReadyRequest); err != nil {
		cancel()
		signal.Stop(sigCh)
		s.Close()
		c.state = Illegal
		return corelogerr.Wrap(corelogerr.CodePlatformCallFailed, "lifecycle", "init", "waiting for handler readiness", err)
	}

	c.data = data
	c.control = control
	c.sinkW = s
	c.sigCh = sigCh
	c.tracer = tr
	c.handlerDone = done
	c.cancel = cancel
	c.program = opts.Program

	c.watcher = sigwatch.New(describeSignal, c.requestShutdown)

	c.state = Initialized
	return nil
}

// requestShutdown is sigwatch's ShutdownFunc: the outside-the-handler
// regime of spec.md §4.6 asks the handler to flush and stop. Finalize
// is run in a fresh background context since the watcher's goroutine
// has no caller context of its own to reuse.
func (c *Controller) requestShutdown() {
	c.Finalize(context.Background())
}

func describeSignal(sig os.Signal) string {
	return fmt.Sprintf("ssw-corelog: fatal signal %s received, flushing and terminating", sig)
}

// Finalize sends exit?, joins the handler, and publishes FINALIZED.
// Valid only from INITIALIZED (spec.md §4.5). Errors accumulated by the
// handler (spec.md §7: "Handler errors are accumulated and returned
// from finalize") are returned here.
func (c *Controller) Finalize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Initialized {
		return corelogerr.New(corelogerr.CodeIllegalState, "lifecycle", "finalize",
			fmt.Sprintf("finalize is only legal from INITIALIZED, current state is %s", c.state))
	}
	c.state = Finalizing

	var handlerErr error
	if err := c.control.SendAsync(ctx, channels.TagExitRequest); err != nil {
		handlerErr = corelogerr.Wrap(corelogerr.CodePlatformCallFailed, "lifecycle", "finalize", "sending exit?", err)
	} else {
		select {
		case handlerErr = <-c.handlerDone:
		case <-ctx.Done():
			handlerErr = corelogerr.Wrap(corelogerr.CodeRetriesExhausted, "lifecycle", "finalize", "joining handler", ctx.Err())
		}
	}

	if c.watcher != nil {
		c.watcher.Stop()
	}
	signal.Stop(c.sigCh)
	c.cancel()
	if c.tracer != nil {
		c.tracer.Shutdown(ctx)
	}

	c.data = nil
	c.control = nil
	c.sinkW = nil
	c.sigCh = nil
	c.watcher = nil
	c.handlerDone = nil
	c.cancel = nil

	c.state = Finalized
	return handlerErr
}

// Flush sends flush? and blocks for flushed!. A no-op outside
// INITIALIZED (spec.md §4.5).
func (c *Controller) Flush(ctx context.Context) error {
	c.mu.Lock()
	control := c.control
	state := c.state
	c.mu.Unlock()

	if state != Initialized {
		return nil
	}
	_, err := control.Send(ctx, channels.TagFlushRequest)
	if err != nil {
		return corelogerr.Wrap(corelogerr.CodePlatformCallFailed, "lifecycle", "flush", "sending flush?", err)
	}
	return nil
}
