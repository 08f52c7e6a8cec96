package value

import "sync/atomic"

// ChannelRef is the minimal surface a concurrency.Channel exposes to the
// value layer. Package value cannot import package concurrency (value sits
// below everything else in the dependency order from spec.md §2), so the
// relationship is inverted: concurrency.Channel implements this interface
// and a ChannelValue merely holds one.
type ChannelRef interface {
	Send(Value) error
	Receive() (Value, bool)
	Close()
	Name() string
}

type ChannelValue struct {
	Ref ChannelRef
}

func NewChannel(ref ChannelRef) ChannelValue { return ChannelValue{Ref: ref} }

func (c ChannelValue) Type() Tag      { return TagChannel }
func (c ChannelValue) String() string { return "channel:" + c.Ref.Name() }
func (c ChannelValue) Truthy() bool   { return true }
func (c ChannelValue) Equal(o Value) bool {
	oc, ok := o.(ChannelValue)
	return ok && oc.Ref == c.Ref
}

// AtomicValue holds a shared 64-bit counter supporting lock-free fetch-add,
// shared across every copy of the Value (the counter pointer, not the
// Value struct, carries the identity).
type AtomicValue struct {
	counter *int64
}

func NewAtomic(initial int64) AtomicValue {
	v := initial
	return AtomicValue{counter: &v}
}

func (a AtomicValue) Load() int64 { return atomic.LoadInt64(a.counter) }

func (a AtomicValue) Store(v int64) { atomic.StoreInt64(a.counter, v) }

// FetchAdd adds delta and returns the value immediately preceding the op,
// matching spec.md §5's "returning the pre-op value + the delta" framing.
func (a AtomicValue) FetchAdd(delta int64) int64 {
	return atomic.AddInt64(a.counter, delta) - delta
}

func (a AtomicValue) FetchSub(delta int64) int64 {
	return atomic.AddInt64(a.counter, -delta) + delta
}

func (a AtomicValue) Type() Tag      { return TagAtomic }
func (a AtomicValue) String() string { return NewInt64(a.Load()).String() }
func (a AtomicValue) Truthy() bool   { return a.Load() != 0 }
func (a AtomicValue) Equal(o Value) bool {
	oa, ok := o.(AtomicValue)
	return ok && oa.counter == a.counter
}
