//go:build linux

package corelog

import "syscall"

// platformThreadID returns the kernel thread id used in the "with KTID"
// sink line variant (spec.md §6), when the platform exposes one.
func platformThreadID() (uint32, bool) {
	return uint32(syscall.Gettid()), true
}
