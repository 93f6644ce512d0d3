// Package level implements the 12-level severity taxonomy shared by the
// logger registry, the record codec, and the Internal Handler's sink
// line renderer.
package level

import (
	"fmt"

	"ssw-corelog/corelogerr"
)

// Level is an ordered severity, most-to-least severe.
type Level int32

const (
	Panic Level = iota
	Alert
	Critical
	Error
	Warning
	Notice
	Output
	Info
	Debug
	Fine
	Trace
	Lowest
)

var names = [...]string{
	Panic:    "panic",
	Alert:    "alert",
	Critical: "critical",
	Error:    "error",
	Warning:  "warning",
	Notice:   "notice",
	Output:   "output",
	Info:     "info",
	Debug:    "debug",
	Fine:     "fine",
	Trace:    "trace",
	Lowest:   "lowest",
}

// letters are the single-byte sink line tags, in Level order: P A C E W N O I D F T L.
var letters = [...]byte{'P', 'A', 'C', 'E', 'W', 'N', 'O', 'I', 'D', 'F', 'T', 'L'}

// aliases maps documented alternate spellings onto their canonical level.
var aliases = map[string]Level{
	"emergency": Panic,
	"crit":      Critical,
	"err":       Error,
	"warn":      Warning,
	"out":       Output,
}

func (l Level) String() string {
	if l < Panic || l > Lowest {
		return fmt.Sprintf("level(%d)", int32(l))
	}
	return names[l]
}

// Letter returns the single-byte sink-line tag for l (spec.md §6).
func (l Level) Letter() byte {
	if l < Panic || l > Lowest {
		return '?'
	}
	return letters[l]
}

// Valid reports whether l is one of the 12 defined levels.
func (l Level) Valid() bool {
	return l >= Panic && l <= Lowest
}

// FromName parses a level name or documented alias. Unknown names fail
// with a config error (see corelogerr).
func FromName(name string) (Level, error) {
	for i, n := range names {
		if n == name {
			return Level(i), nil
		}
	}
	if lvl, ok := aliases[name]; ok {
		return lvl, nil
	}
	return 0, corelogerr.New(corelogerr.CodeConfig, "level", "from-name", fmt.Sprintf("unknown level name %q", name))
}
