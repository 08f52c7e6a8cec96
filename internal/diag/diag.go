// Package diag is the VM's diagnostic logging shim. Grounded on the
// teacher's own practice of bracketed-tag log lines (e.g. barn's
// "[COMPILE FAIL] ...", "[PROPERTY GET] ..." via fmt/log) rather than a
// structured-logging library — no repo in the example pack imports one, so
// embervm doesn't introduce one either.
package diag

import "log"

// Printf logs a message tagged with a bracketed subsystem name, e.g.
// diag.Printf("SCHED", "worker %d stole a task from worker %d", id, victim).
func Printf(tag, format string, args ...interface{}) {
	log.Printf("["+tag+"] "+format, args...)
}
