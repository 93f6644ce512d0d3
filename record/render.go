package record

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// SplitMessage splits a (possibly multi-line) message on "\n" into the
// segments the Internal Handler renders as separate, header-sharing
// output lines (spec.md §4.4.2, §8 invariant 2).
func SplitMessage(message string) []string {
	return strings.Split(message, "\n")
}

// RenderLine produces exactly one output line for header h, the
// already-split message segment, and the process-wide program name.
// It implements the exact schema of spec.md §6:
//
//	L|YYYYMMDDTHHMMSS.NNNNNNNNN|PPPPP.TTTTT=RRRRR:PROG|FILE:LINE@FUNC|LOGGER|MESSAGE\n
//
// When h.HasKTID is false, the ".TTTTT" and "=" are dropped and the
// process/rank field becomes "PPPPP:RRRRR:PROG".
func RenderLine(h Header, pid int, file, fn, loggerName, program, messageSegment string) []byte {
	t := time.Unix(0, h.TimestampNS).UTC()
	timestamp := fmt.Sprintf("%04d%02d%02dT%02d%02d%02d.%09d",
		t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond())

	var procField string
	if h.HasKTID {
		procField = fmt.Sprintf("%05d.%05d=%05d:%s", pid, h.KTID, h.Rank, program)
	} else {
		procField = fmt.Sprintf("%05d:%05d:%s", pid, h.Rank, program)
	}

	base := path.Base(file)

	var b strings.Builder
	b.WriteByte(h.Level.Letter())
	b.WriteByte('|')
	b.WriteString(timestamp)
	b.WriteByte('|')
	b.WriteString(procField)
	b.WriteByte('|')
	b.WriteString(base)
	b.WriteByte(':')
	fmt.Fprintf(&b, "%d", h.Line)
	b.WriteByte('@')
	b.WriteString(fn)
	b.WriteByte('|')
	b.WriteString(loggerName)
	b.WriteByte('|')
	b.WriteString(messageSegment)
	b.WriteByte('\n')

	return []byte(b.String())
}
