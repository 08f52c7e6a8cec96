package concurrency

import (
	"sync"
	"sync/atomic"

	"embervm/value"
)

// ErrorCollector accumulates task failures for a parallel/concurrent block
// (spec.md §4.6/§5): a mutex-guarded slice plus a lock-free atomic flag for
// probing whether any error has occurred yet, grounded on the teacher's own
// split between task.Task's mutex-guarded state and the atomic counters
// task/manager.go uses for id allocation.
type ErrorCollector struct {
	mu        sync.Mutex
	errs      []value.ErrorValue
	hasErrors int32
}

func NewErrorCollector() *ErrorCollector { return &ErrorCollector{} }

func (c *ErrorCollector) Add(ev value.ErrorValue) {
	c.mu.Lock()
	c.errs = append(c.errs, ev)
	c.mu.Unlock()
	atomic.StoreInt32(&c.hasErrors, 1)
}

func (c *ErrorCollector) HasErrors() bool { return atomic.LoadInt32(&c.hasErrors) != 0 }

func (c *ErrorCollector) Errors() []value.ErrorValue {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]value.ErrorValue, len(c.errs))
	copy(out, c.errs)
	return out
}
