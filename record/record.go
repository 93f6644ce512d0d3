// Package record implements the wire format described in spec.md §3 and
// §6: a fixed-size header followed by a variable tail
// (filename||funcname||logger-name||message), encoded into a single
// heap-allocated frame whose ownership transfers to the data channel
// without a second copy, and the renderer that turns a header plus one
// message segment into the exact sink line schema.
package record

import (
	"ssw-corelog/level"
)

// Header is the fixed-size prefix of a Record. It never allocates on
// its own; Frame owns the bytes it was decoded from.
type Header struct {
	Level      level.Level
	TimestampNS int64
	HasKTID    bool
	KTID       uint32 // kernel thread id; meaningful only if HasKTID
	Rank       uint16 // user thread rank
	Line       int32

	FilenameLen   uint16
	FuncnameLen   uint16
	LoggerNameLen uint16
	MessageLen    uint32
}

// Frame is a single opaque, heap-allocated buffer: header followed by
// the concatenated tail. It is the unit transferred across the data
// channel (spec.md §3 "Records are transferred as a single opaque
// frame").
type Frame struct {
	buf []byte
}
