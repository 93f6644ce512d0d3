// Package registry implements the name→level logger registry described
// in spec.md §4.1: registration, unregistration, snapshotting, and
// prefix-rule reconfiguration, plus a lock-free IsEnabledFor check.
package registry

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"

	"ssw-corelog/level"
)

// Logger is a named filter. Name is immutable after registration; Level
// is mutable and read atomically so IsEnabledFor never needs to lock
// (spec.md §4.1: "a torn read yields at worst one record mis-filtered,
// acceptable").
type Logger struct {
	name  string
	level atomic.Int32
}

// NewLogger constructs an unregistered Logger. Call Registry.Register to
// make it visible to Configure and Snapshot.
func NewLogger(name string, initial level.Level) *Logger {
	l := &Logger{name: name}
	l.level.Store(int32(initial))
	return l
}

func (l *Logger) Name() string { return l.name }

func (l *Logger) Level() level.Level { return level.Level(l.level.Load()) }

func (l *Logger) setLevel(lvl level.Level) { l.level.Store(int32(lvl)) }

// IsEnabledFor reports whether a record at lvl should be emitted by l,
// per spec.md §4.1: "level ≤ logger.level". Callable without locking.
func (l *Logger) IsEnabledFor(lvl level.Level) bool {
	return lvl <= l.Level()
}

// Rule is one (prefix, level) entry of a Configure call. An empty
// prefix matches every logger.
type Rule struct {
	Prefix string
	Level  level.Level
}

// Registry is the process-wide set of registered loggers, protected by
// one mutex (spec.md §3). It grows dynamically; duplicate names are
// permitted and documented, not an error.
type Registry struct {
	mu      sync.Mutex
	loggers []*Logger

	generation atomic.Int64
	cache      sync.Map // xxhash(name) -> cacheEntry
}

type cacheEntry struct {
	generation int64
	level      level.Level
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{}
}

// Register appends logger to the registry. The backing slice grows
// geometrically via Go's append, matching spec.md's "array grows
// geometrically."
func (r *Registry) Register(l *Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loggers = append(r.loggers, l)
}

// Unregister removes the first registered Logger equal to l by pointer
// identity. Legal only after finalize per spec.md §3; the registry
// itself does not enforce that precondition (it is a lifecycle
// concern), it only performs the removal.
func (r *Registry) Unregister(l *Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, cur := range r.loggers {
		if cur == l {
			r.loggers = append(r.loggers[:i], r.loggers[i+1:]...)
			return
		}
	}
}

// Snapshot returns a stable copy of the currently registered loggers.
func (r *Registry) Snapshot() []*Logger {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Logger, len(r.loggers))
	copy(out, r.loggers)
	return out
}

// Configure applies an ordered list of (prefix, level) rules: for each
// registered logger, the last matching rule by prefix wins, ties broken
// by rule order (spec.md §4.1). Complexity is O(n·m), acceptable
// because reconfiguration is rare. All resolved levels previously
// cached by LevelForName are invalidated.
func (r *Registry) Configure(rules []Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, l := range r.loggers {
		resolved, matched := resolve(l.name, rules)
		if matched {
			l.setLevel(resolved)
		}
	}
	r.generation.Add(1)
}

func resolve(name string, rules []Rule) (level.Level, bool) {
	var (
		resolved level.Level
		matched  bool
	)
	for _, rule := range rules {
		if strings.HasPrefix(name, rule.Prefix) {
			resolved = rule.Level
			matched = true
		}
	}
	return resolved, matched
}

// LevelForName resolves the currently configured level for a logger
// name without requiring the caller to hold a *Logger, caching the
// result keyed by xxhash.Sum64String(name) until the next Configure
// call bumps the generation counter (adapted from the teacher's
// pkg/backpressure cached-derived-state-behind-a-generation-counter
// pattern). Returns false if name matches no registered logger.
func (r *Registry) LevelForName(name string) (level.Level, bool) {
	key := xxhash.Sum64String(name)
	gen := r.generation.Load()

	if v, ok := r.cache.Load(key); ok {
		entry := v.(cacheEntry)
		if entry.generation == gen {
			return entry.level, true
		}
	}

	r.mu.Lock()
	var (
		found *Logger
	)
	for _, l := range r.loggers {
		if l.name == name {
			found = l
			break
		}
	}
	r.mu.Unlock()

	if found == nil {
		return 0, false
	}
	lvl := found.Level()
	r.cache.Store(key, cacheEntry{generation: gen, level: lvl})
	return lvl, true
}
