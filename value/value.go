package value

// Value is the interface every embervm runtime value implements. Copying
// a Value is shallow: structural kinds (List, Dict, Object, Closure) hold
// their contents through shared ownership, so copying the Value copies the
// reference, not the contents (spec.md §3).
type Value interface {
	Type() Tag
	String() string
	Equal(Value) bool
	Truthy() bool
}

// Truthy implements the standard coercion rule shared by `and`/`or`/`not`
// and by JUMP_IF_FALSE/JUMP_IF_TRUE: nil, zero, and the empty string are
// false, everything else is true. Most kinds answer this themselves via
// Value.Truthy; this helper exists for callers holding a possibly-nil Go
// value (e.g. an uninitialized slot).
func Truthy(v Value) bool {
	if v == nil {
		return false
	}
	return v.Truthy()
}

// Nil is the singleton Nil value.
type NilValue struct{}

var Nil Value = NilValue{}

func (NilValue) Type() Tag        { return TagNil }
func (NilValue) String() string   { return "nil" }
func (NilValue) Truthy() bool     { return false }
func (NilValue) Equal(o Value) bool {
	_, ok := o.(NilValue)
	return ok
}

// Bool wraps a boolean.
type BoolValue struct{ Val bool }

func NewBool(b bool) BoolValue { return BoolValue{Val: b} }

func (b BoolValue) Type() Tag      { return TagBool }
func (b BoolValue) Truthy() bool   { return b.Val }
func (b BoolValue) String() string {
	if b.Val {
		return "true"
	}
	return "false"
}
func (b BoolValue) Equal(o Value) bool {
	ob, ok := o.(BoolValue)
	return ok && ob.Val == b.Val
}
