package handler

import (
	"fmt"
	"os"
)

// writeFallback implements the stderr escape hatch of spec.md §4.4.2:
// a short write to the sink is reported, and the line that didn't make
// it is written to stderr so it isn't silently lost. Adapted from the
// teacher's pkg/dlq dead-letter escape hatch with its file persistence
// and reprocessing callback removed — there is nowhere for a rejected
// line to be replayed to, per spec.md's single-sink model.
func writeFallback(stderr *os.File, n, want int, line []byte) {
	fmt.Fprintf(stderr, "corelog: short write to sink (%d/%d bytes), falling back to stderr:\n", n, want)
	stderr.Write(line)
}
