package value

import "fmt"

// Iterator is a cursor over a sequence exposing HasNext/Next. No opcode of
// this VM creates or consumes one.
type Iterator struct {
	source []Value
	index  int
	kind   string // "range", "list", "map" — for String()/debugging
}

func NewListIterator(elems []Value) *Iterator {
	return &Iterator{source: elems, kind: "list"}
}

// NewRangeIterator builds an iterator over the half-open integer range
// [start,end) with the given positive step, yielding ceil((end-start)/step)
// values per spec.md §8's law for ordered integer ranges.
func NewRangeIterator(start, end, step int64) *Iterator {
	if step <= 0 {
		step = 1
	}
	var elems []Value
	for v := start; v < end; v += step {
		elems = append(elems, NewInt64(v))
	}
	return &Iterator{source: elems, kind: "range"}
}

func (it *Iterator) HasNext() bool { return it.index < len(it.source) }

func (it *Iterator) Next() (Value, bool) {
	if !it.HasNext() {
		return Nil, false
	}
	v := it.source[it.index]
	it.index++
	return v, true
}

func (it *Iterator) Type() Tag      { return TagIterator }
func (it *Iterator) String() string { return fmt.Sprintf("iterator<%s>", it.kind) }
func (it *Iterator) Truthy() bool   { return true }
func (it *Iterator) Equal(o Value) bool {
	oi, ok := o.(*Iterator)
	return ok && oi == it
}
