package interp

import "embervm/value"

func (i *Interpreter) execMakeList(n int) error {
	if n < 0 || n > len(i.stack) {
		return fatalf("MAKE_LIST: invalid count %d", n)
	}
	elems := make([]value.Value, n)
	copy(elems, i.stack[len(i.stack)-n:])
	i.stack = i.stack[:len(i.stack)-n]
	i.push(value.NewList(elems))
	return nil
}

func (i *Interpreter) execMakeTuple(n int) error {
	if n < 0 || n > len(i.stack) {
		return fatalf("MAKE_TUPLE: invalid count %d", n)
	}
	elems := make([]value.Value, n)
	copy(elems, i.stack[len(i.stack)-n:])
	i.stack = i.stack[:len(i.stack)-n]
	i.push(value.NewTuple(elems))
	return nil
}

// execMakeDict pops n key/value pairs (2n stack slots, pushed key-then-value
// per pair) and builds a Dict.
func (i *Interpreter) execMakeDict(n int) error {
	if n < 0 || 2*n > len(i.stack) {
		return fatalf("MAKE_DICT: invalid pair count %d", n)
	}
	pairs := make([][2]value.Value, n)
	for k := n - 1; k >= 0; k-- {
		v := i.pop()
		key := i.pop()
		pairs[k] = [2]value.Value{key, v}
	}
	i.push(value.NewDict(pairs))
	return nil
}

func (i *Interpreter) execIndex() error {
	idx := i.pop()
	receiver := i.pop()
	switch r := receiver.(type) {
	case *value.List:
		n, ok := value.AsInt64(idx)
		if !ok {
			return fatalf("INDEX: list index must be numeric")
		}
		i.push(r.Get(int(n)))
		return nil
	case *value.Tuple:
		n, ok := value.AsInt64(idx)
		if !ok {
			return fatalf("INDEX: tuple index must be numeric")
		}
		i.push(r.Get(int(n)))
		return nil
	case *value.Dict:
		v, ok := r.Get(idx)
		if !ok {
			i.push(value.Nil)
			return nil
		}
		i.push(v)
		return nil
	case value.StringValue:
		n, ok := value.AsInt64(idx)
		if !ok || n < 0 || int(n) >= len(r.Val) {
			return fatalf("INDEX: string index out of bounds")
		}
		i.push(value.NewString(string(r.Val[n])))
		return nil
	default:
		return fatalf("INDEX: %s is not indexable", receiver.Type())
	}
}

func (i *Interpreter) execIndexSet() error {
	v := i.pop()
	idx := i.pop()
	receiver := i.pop()
	switch r := receiver.(type) {
	case *value.List:
		n, ok := value.AsInt64(idx)
		if !ok {
			return fatalf("INDEX_SET: list index must be numeric")
		}
		i.push(r.Set(int(n), v))
		return nil
	case *value.Dict:
		i.push(r.Set(idx, v))
		return nil
	default:
		return fatalf("INDEX_SET: %s does not support indexed assignment", receiver.Type())
	}
}

func (i *Interpreter) execLength() error {
	receiver := i.pop()
	switch r := receiver.(type) {
	case *value.List:
		i.push(value.NewInt64(int64(r.Len())))
	case *value.Tuple:
		i.push(value.NewInt64(int64(r.Len())))
	case *value.Dict:
		i.push(value.NewInt64(int64(r.Len())))
	case value.StringValue:
		i.push(value.NewInt64(int64(len(r.Val))))
	default:
		return fatalf("LENGTH: %s has no length", receiver.Type())
	}
	return nil
}
