// Package sigwatch implements the "outside the Internal Handler" half
// of spec.md §4.6: every other goroutine's process-wide sigaction
// equivalent for SEGV, BUS, FPE, ILL, INT, TERM (not QUIT, to leave a
// user-invoked core-dump escape hatch). Adapted from the os/signal
// pattern seen in the pack's logger_core.go (the only example wiring
// os/signal into a logging component).
package sigwatch

import (
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

// watchedSignals are the signals this package installs a watcher for.
// SIGQUIT is deliberately excluded (spec.md §4.6).
var watchedSignals = []os.Signal{
	syscall.SIGSEGV, syscall.SIGBUS, syscall.SIGFPE, syscall.SIGILL,
	syscall.SIGINT, syscall.SIGTERM,
}

// ShutdownFunc requests the Internal Handler perform a final flush and
// shut down; it must not block longer than necessary.
type ShutdownFunc func()

// Watcher owns the single-shot re-entry guard described in spec.md
// §4.6: "A process-wide single-shot flag suppresses re-entry; re-entry
// terminates the process immediately."
type Watcher struct {
	ch       chan os.Signal
	stopOnce sync.Once
	fired    atomic.Bool
	describe func(os.Signal) string
	shutdown ShutdownFunc
	stderr   *os.File
}

// New installs the watcher. describe renders a human-readable
// description of the delivered signal, which the watcher writes to
// standard error before calling shutdown; the watcher itself logs no
// record to the sink. shutdown requests the Internal Handler's
// final-flush-then-stop sequence.
func New(describe func(os.Signal) string, shutdown ShutdownFunc) *Watcher {
	w := &Watcher{
		ch:       make(chan os.Signal, 1),
		describe: describe,
		shutdown: shutdown,
		stderr:   os.Stderr,
	}
	signal.Notify(w.ch, watchedSignals...)
	go w.loop()
	return w
}

func (w *Watcher) loop() {
	for sig := range w.ch {
		w.handle(sig)
	}
}

func (w *Watcher) handle(sig os.Signal) {
	if !w.fired.CompareAndSwap(false, true) {
		// Re-entry: terminate immediately per spec.md §4.6.
		os.Exit(1)
	}

	desc := "signal delivered"
	if w.describe != nil {
		desc = w.describe(sig)
	}
	w.stderr.WriteString(desc + "\n")

	if w.shutdown != nil {
		w.shutdown()
	}

	// Give the handler time to drain, interrupt-safe up to one second.
	time.Sleep(1 * time.Second)

	w.restoreAndReraise(sig)
}

// restoreAndReraise stops Go's interception of sig (restoring default
// disposition) and re-raises it to self, so the process terminates (or
// dumps core) exactly as it would have without this watcher installed.
func (w *Watcher) restoreAndReraise(sig os.Signal) {
	signal.Reset(sig)
	if s, ok := sig.(syscall.Signal); ok {
		syscall.Kill(os.Getpid(), s)
	}
}

// Stop disables the watcher without re-raising; used in tests and in
// orderly process shutdown paths that don't go through a fatal signal.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		signal.Stop(w.ch)
		close(w.ch)
	})
}
