// Package corelog is the public surface of the logging subsystem: a
// small number of process-wide entry points (Init, Log, Flush,
// Finalize, Configure) built on top of lifecycle, channels, record, and
// registry. Grounded on the teacher's internal/app.App as the
// process-wide facade a caller's main() drives (spec.md §1, §4.5).
package corelog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"ssw-corelog/config"
	"ssw-corelog/corelogerr"
	"ssw-corelog/level"
	"ssw-corelog/lifecycle"
	"ssw-corelog/metrics"
	"ssw-corelog/opsserver"
	"ssw-corelog/record"
	"ssw-corelog/registry"
)

var (
	diag    = logrus.New()
	promReg = prometheus.NewRegistry()
	coll    = metrics.NewCollector(promReg)
	reg     = registry.New()
	ctrl    = lifecycle.New(diag, coll)

	opsMu  sync.Mutex
	opsSrv *opsserver.Server

	retryMu    sync.Mutex
	retriesMax = 3
	retryDelay = 500 * time.Microsecond

	// producers is the lazily-populated per-goroutine state store
	// (spec.md §3's "per-thread state ... allocated lazily on first log
	// attempt, released on thread exit"). Go has no enumerable
	// thread-local storage or thread-exit hook, so state is keyed by the
	// calling goroutine's runtime-assigned id (see goroutineid.go,
	// grounded on ugorji-go-common/runtimeutil.GoroutineID) rather than a
	// true TLS slot, and is released explicitly via Producer.Close
	// instead of at goroutine exit.
	producers sync.Map // uint64 goroutine id -> *Producer
)

// Init starts the subsystem: spawns the Internal Handler, waits for its
// readiness reply, and publishes INITIALIZED (spec.md §4.5). Valid only
// from UNSET or FINALIZED.
func Init(ctx context.Context, opts config.Options) error {
	resolved, err := opts.Resolve()
	if err != nil {
		return corelogerr.Wrap(corelogerr.CodeConfig, "corelog", "init", "resolving options", err)
	}

	if err := ctrl.Init(ctx, resolved); err != nil {
		return err
	}

	retryMu.Lock()
	retriesMax = resolved.RetriesMax
	retryDelay = resolved.RetryDelay
	retryMu.Unlock()

	if resolved.OpsAddr != "" {
		opsMu.Lock()
		opsSrv = opsserver.New(resolved.OpsAddr, promReg, resolved.SinkPath)
		opsSrv.Start()
		opsMu.Unlock()
	}

	return nil
}

// Finalize stops the subsystem: sends exit?, joins the Internal
// Handler, and publishes FINALIZED. Valid only from INITIALIZED.
func Finalize(ctx context.Context) error {
	opsMu.Lock()
	if opsSrv != nil {
		opsSrv.Shutdown(ctx)
		opsSrv = nil
	}
	opsMu.Unlock()

	producers.Range(func(key, _ any) bool {
		producers.Delete(key)
		return true
	})

	return ctrl.Finalize(ctx)
}

// Flush sends flush? and blocks for flushed!. A no-op outside
// INITIALIZED.
func Flush(ctx context.Context) error {
	return ctrl.Flush(ctx)
}

// NewLogger registers and returns a named logger at the given initial
// level (spec.md §4.1).
func NewLogger(name string, initial level.Level) *registry.Logger {
	l := registry.NewLogger(name, initial)
	reg.Register(l)
	return l
}

// Unregister removes logger from the registry (legal only after
// finalize, per spec.md §3 — the registry does not enforce this).
func Unregister(logger *registry.Logger) {
	reg.Unregister(logger)
}

// Configure applies an ordered list of (prefix, level) rules to every
// registered logger (spec.md §4.1).
func Configure(rules []registry.Rule) {
	reg.Configure(rules)
}

// Log is the package-level producer submission path (spec.md §4.3),
// lazily attaching the calling goroutine's Producer state on first use.
// Most callers use this directly; AttachProducer is available for
// callers that need a stable handle to call SetRank.
func Log(logger *registry.Logger, lvl level.Level, file string, line int, fn string, format string, args ...any) error {
	if !logger.IsEnabledFor(lvl) {
		return nil
	}
	return producerFor(currentGoroutineID()).log(logger, lvl, file, line, fn, format, args...)
}

func producerFor(id uint64) *Producer {
	if v, ok := producers.Load(id); ok {
		return v.(*Producer)
	}
	p := newProducer()
	actual, _ := producers.LoadOrStore(id, p)
	return actual.(*Producer)
}

// Producer is a caller's stable handle onto its own per-goroutine state
// (spec.md §3): a scratch buffer, a rank, and cached thread identifiers.
// It holds no channel handle of its own; each log call fetches the
// shared data channel from the lifecycle controller. AttachProducer is optional — Log attaches
// one automatically — but holding a Producer lets a caller set its rank
// once and reuse it.
type Producer struct {
	scratch []byte
	rank    uint16
	ktid    uint32
	hasKTID bool
}

func newProducer() *Producer {
	p := &Producer{scratch: make([]byte, 0, 256)}
	if tid, ok := platformThreadID(); ok {
		p.ktid = tid
		p.hasKTID = true
	}
	return p
}

// AttachProducer returns the calling goroutine's Producer, creating it
// on first use.
func AttachProducer() *Producer {
	return producerFor(currentGoroutineID())
}

// SetRank overrides the default rank of 0 (DESIGN.md Open Question 2).
func (p *Producer) SetRank(rank uint16) {
	p.rank = rank
}

// Close releases the Producer's state, substituting for the
// release-on-thread-exit spec.md describes (Go has no thread-exit hook
// to key off of). Safe to call from any goroutine holding p, but
// intended to be called by the goroutine that attached it, immediately
// before it exits.
func (p *Producer) Close() {
	producers.Range(func(key, v any) bool {
		if v.(*Producer) == p {
			producers.Delete(key)
			return false
		}
		return true
	})
}

// Log is the Producer-scoped submission path, identical to the
// package-level Log but bound to a specific handle rather than the
// calling goroutine's lazily-attached one.
func (p *Producer) Log(logger *registry.Logger, lvl level.Level, file string, line int, fn string, format string, args ...any) error {
	if !logger.IsEnabledFor(lvl) {
		return nil
	}
	return p.log(logger, lvl, file, line, fn, format, args...)
}

func (p *Producer) log(logger *registry.Logger, lvl level.Level, file string, line int, fn string, format string, args ...any) error {
	if ctrl.State() != lifecycle.Initialized {
		// spec.md §4.3 step 1: discard silently and succeed.
		return nil
	}

	message := format
	if len(args) > 0 {
		message = fmt.Sprintf(format, args...)
	}
	p.scratch = append(p.scratch[:0], message...)

	f, err := record.Encode(lvl, time.Now().UnixNano(), p.ktid, p.hasKTID, p.rank, file, line, fn, logger.Name(), string(p.scratch))
	if err != nil {
		return corelogerr.Wrap(corelogerr.CodeProtocolMismatch, "corelog", "log", "encoding record", err)
	}

	data := ctrl.Data()
	if data == nil {
		return nil
	}

	maxRetries, delay := retryPolicy()
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if data.TryEnqueue(f) {
			metrics.IncEnqueued(coll)
			return nil
		}
		if attempt < maxRetries {
			time.Sleep(delay)
		}
	}

	// Non-blocking retries exhausted. spec.md §8 invariant 8: a producer
	// this far behind the handler either blocks as a fallback or returns
	// retries-exhausted, but never silently drops. Try the blocking
	// fallback bounded by one more retry budget's worth of time, so a
	// wedged handler still can't hang a producer forever.
	fallbackCtx, cancel := context.WithTimeout(context.Background(), time.Duration(maxRetries+1)*delay)
	defer cancel()
	if err := data.Enqueue(fallbackCtx, f); err == nil {
		metrics.IncEnqueued(coll)
		return nil
	}

	// Blocking fallback also exhausted. Log a warning recursively; the
	// non-blocking discipline in warnRetriesExhausted means this can
	// itself be silently dropped rather than deadlock (spec.md §4.3).
	p.warnRetriesExhausted(logger.Name())

	metrics.IncDropped(coll)
	return corelogerr.New(corelogerr.CodeRetriesExhausted, "corelog", "log", "data channel full after retries and blocking fallback")
}

func retryPolicy() (int, time.Duration) {
	retryMu.Lock()
	defer retryMu.Unlock()
	return retriesMax, retryDelay
}

// warnRetriesExhausted is the recursive warning of spec.md §4.3:
// "a warning about the retry count is itself logged recursively
// (recursion must not deadlock ... may be dropped)". It goes through
// the same non-blocking TryEnqueue as any other record and is never
// retried itself, so it cannot recurse more than one level deep.
func (p *Producer) warnRetriesExhausted(loggerName string) {
	data := ctrl.Data()
	if data == nil {
		return
	}
	msg := fmt.Sprintf("producer retries exhausted enqueuing for logger %q", loggerName)
	f, err := record.Encode(level.Warning, time.Now().UnixNano(), p.ktid, p.hasKTID, p.rank, "", 0, "", "corelog", msg)
	if err != nil {
		return
	}
	data.TryEnqueue(f)
}
