package errmach

import "embervm/value"

// PoolSize is the fixed size of the error-value pool (spec.md §4.2: "an
// array of pre-constructed error slots with a free-list"). original_source
// pools fixed-size concurrency-state slots the same way; spec.md doesn't
// mandate a size, so 64 is chosen and documented here (see SPEC_FULL.md).
const PoolSize = 64

// Pool is a fixed-size free-list of pre-allocated ErrorValue slots. On
// acquisition the type/message are rewritten in place rather than
// allocating a new ErrorValue, keeping the hot success path allocation-free
// even when errors do occur elsewhere in the program.
type Pool struct {
	slots    [PoolSize]value.ErrorValue
	free     []int // indices of available slots
	hits     int64
	misses   int64
}

func NewPool() *Pool {
	p := &Pool{free: make([]int, PoolSize)}
	for i := range p.free {
		p.free[i] = i
	}
	return p
}

// Acquire rewrites a free pooled slot with the given type/message/args/
// location and returns a copy of it plus the slot index (a "hit"), or, when
// the pool is exhausted, a fresh value and index -1 (a "miss"). A slot stays
// taken until Release is called with its index. The interpreter's
// CONSTRUCT_ERROR never calls Release, so after PoolSize constructed errors
// every further Acquire on that Machine's pool is a miss.
func (p *Pool) Acquire(errType, message string, args []value.Value, sourceLoc int) (value.ErrorValue, int) {
	if len(p.free) == 0 {
		p.misses++
		return value.ErrorValue{ErrorType: errType, Message: message, Arguments: args, SourceLocation: sourceLoc}, -1
	}
	p.hits++
	idx := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	p.slots[idx] = value.ErrorValue{ErrorType: errType, Message: message, Arguments: args, SourceLocation: sourceLoc}
	return p.slots[idx], idx
}

// Release returns a slot to the free list. idx < 0 (a pool-miss value) is a
// no-op.
func (p *Pool) Release(idx int) {
	if idx < 0 || idx >= PoolSize {
		return
	}
	p.free = append(p.free, idx)
}

func (p *Pool) Hits() int64   { return p.hits }
func (p *Pool) Misses() int64 { return p.misses }
