package value

import "strings"

// List is an ordered, copy-on-write sequence of values, following the
// teacher's MooList design: mutation returns a new List holding its own
// copy of the elements, so a reference captured elsewhere (e.g. in a closure's
// environment) is unaffected by a later mutating operation on another
// reference to "the same" list.
type List struct {
	elements []Value
}

func NewList(elems []Value) *List {
	cp := make([]Value, len(elems))
	copy(cp, elems)
	return &List{elements: cp}
}

func EmptyList() *List { return &List{} }

func (l *List) Len() int { return len(l.elements) }

// Get returns the 0-based element, or Nil if out of range.
func (l *List) Get(i int) Value {
	if i < 0 || i >= len(l.elements) {
		return Nil
	}
	return l.elements[i]
}

func (l *List) Elements() []Value {
	out := make([]Value, len(l.elements))
	copy(out, l.elements)
	return out
}

func (l *List) Set(i int, v Value) *List {
	if i < 0 || i >= len(l.elements) {
		return l
	}
	next := make([]Value, len(l.elements))
	copy(next, l.elements)
	next[i] = v
	return &List{elements: next}
}

func (l *List) Append(v Value) *List {
	next := make([]Value, len(l.elements)+1)
	copy(next, l.elements)
	next[len(l.elements)] = v
	return &List{elements: next}
}

func (l *List) Extend(src *List) *List {
	next := make([]Value, len(l.elements)+len(src.elements))
	copy(next, l.elements)
	copy(next[len(l.elements):], src.elements)
	return &List{elements: next}
}

// Slice returns a 0-based, end-exclusive sub-list, clamped to bounds.
func (l *List) Slice(start, end int) *List {
	if start < 0 {
		start = 0
	}
	if end > len(l.elements) {
		end = len(l.elements)
	}
	if start >= end {
		return &List{}
	}
	return NewList(l.elements[start:end])
}

func (l *List) Type() Tag { return TagList }

func (l *List) String() string {
	parts := make([]string, len(l.elements))
	for i, e := range l.elements {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (l *List) Truthy() bool { return len(l.elements) > 0 }

func (l *List) Equal(o Value) bool {
	other, ok := o.(*List)
	if !ok || other.Len() != l.Len() {
		return false
	}
	for i, e := range l.elements {
		if !e.Equal(other.elements[i]) {
			return false
		}
	}
	return true
}

// Tuple is an immutable fixed-arity sequence.
type Tuple struct {
	elements []Value
}

func NewTuple(elems []Value) *Tuple {
	cp := make([]Value, len(elems))
	copy(cp, elems)
	return &Tuple{elements: cp}
}

func (t *Tuple) Len() int          { return len(t.elements) }
func (t *Tuple) Get(i int) Value {
	if i < 0 || i >= len(t.elements) {
		return Nil
	}
	return t.elements[i]
}
func (t *Tuple) Elements() []Value {
	out := make([]Value, len(t.elements))
	copy(out, t.elements)
	return out
}

func (t *Tuple) Type() Tag { return TagTuple }

func (t *Tuple) String() string {
	parts := make([]string, len(t.elements))
	for i, e := range t.elements {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (t *Tuple) Truthy() bool { return len(t.elements) > 0 }

func (t *Tuple) Equal(o Value) bool {
	other, ok := o.(*Tuple)
	if !ok || other.Len() != t.Len() {
		return false
	}
	for i, e := range t.elements {
		if !e.Equal(other.elements[i]) {
			return false
		}
	}
	return true
}
