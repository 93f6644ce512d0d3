// Package sink implements sink selection and the durable-write primitive
// described in spec.md §4.4.1 and §6. A sink is modeled as the opaque
// byte stream the Internal Handler appends to; this package never
// parses or batches what it writes.
package sink

import (
	"errors"
	"os"
	"syscall"
)

// Sink is a single append-only destination owned exclusively by the
// Internal Handler goroutine (spec.md §5: "no producer writes to it").
type Sink struct {
	f    *os.File
	own  bool // true if Close should actually close the fd (not for stdout/stderr)
}

// Open selects a sink per spec.md §6: "-" maps to stdout, "+" to
// stderr, anything else to O_WRONLY|O_CREATE|O_APPEND with mode 0644.
func Open(path string) (*Sink, error) {
	switch path {
	case "-":
		return &Sink{f: os.Stdout}, nil
	case "+":
		return &Sink{f: os.Stderr}, nil
	default:
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		return &Sink{f: f, own: true}, nil
	}
}

// Write appends p to the sink, returning the number of bytes actually
// written so the caller can detect a short write (spec.md §4.4.2).
func (s *Sink) Write(p []byte) (int, error) {
	return s.f.Write(p)
}

// Durable performs the sink's durable-write primitive (fdatasync-
// equivalent). A flush is complete when this returns nil; per spec.md
// §4.4.5, EROFS and EINVAL (the latter typical of stdout/stderr, which
// aren't fsync-able) are benign "not supported" outcomes and treated as
// success.
func (s *Sink) Durable() error {
	err := s.f.Sync()
	if err == nil {
		return nil
	}
	if errors.Is(err, syscall.EROFS) || errors.Is(err, syscall.EINVAL) {
		return nil
	}
	return err
}

// Close releases the sink. Standard streams are never closed.
func (s *Sink) Close() error {
	if !s.own {
		return nil
	}
	return s.f.Close()
}
