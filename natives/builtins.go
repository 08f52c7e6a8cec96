package natives

import (
	"fmt"
	"strings"

	"embervm/interp"
	"embervm/value"
)

// Builtins is the language's own unchecked native surface (spec.md §6):
// every entry here is callable with any argument count and shape, the
// function itself is responsible for reporting a mismatch as an error.
var Builtins = map[string]interp.NativeFunc{
	"print":    nativePrint,
	"typeof":   nativeTypeof,
	"tostring": nativeToString,
	"assert":   nativeAssert,
}

// Validated holds the implementations of every native that ALSO has a
// declared arity in the manifest natives.yaml supplies — RegisterAll wires
// each one through the validated path instead of Builtins when present in
// the loaded manifest (spec.md §6's two-path split; see also builtins/
// registry.go's flat string-keyed table, the shape this generalizes).
var Validated = map[string]interp.NativeFunc{
	"length":   nativeLength,
	"abs":      nativeAbs,
	"upcase":   nativeUpcase,
	"downcase": nativeDowncase,
	"reverse":  nativeReverse,
}

func nativePrint(args []value.Value) (value.Value, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	fmt.Println(strings.Join(parts, " "))
	return value.Nil, nil
}

func nativeTypeof(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("typeof: expected 1 argument, got %d", len(args))
	}
	return value.NewString(args[0].Type().String()), nil
}

func nativeToString(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("tostring: expected 1 argument, got %d", len(args))
	}
	return value.NewString(args[0].String()), nil
}

// nativeAssert reports a failure for a falsy first argument; invokeNative
// (interp/calls.go) special-cases the name "assert" so this error is
// always fatal rather than captured as an error-union.
func nativeAssert(args []value.Value) (value.Value, error) {
	if len(args) == 0 || !args[0].Truthy() {
		msg := "assertion failed"
		if len(args) > 1 {
			msg = args[1].String()
		}
		return nil, fmt.Errorf("%s", msg)
	}
	return value.Nil, nil
}

func nativeLength(args []value.Value) (value.Value, error) {
	switch v := args[0].(type) {
	case value.StringValue:
		return value.NewInt64(int64(len(v.Val))), nil
	case *value.List:
		return value.NewInt64(int64(v.Len())), nil
	case *value.Tuple:
		return value.NewInt64(int64(v.Len())), nil
	case *value.Dict:
		return value.NewInt64(int64(v.Len())), nil
	default:
		return nil, fmt.Errorf("length: unsupported type %s", args[0].Type())
	}
}

func nativeAbs(args []value.Value) (value.Value, error) {
	switch v := args[0].(type) {
	case value.IntValue:
		n := v.Val
		if n < 0 {
			n = -n
		}
		return value.NewIntOfTag(v.Tag, n), nil
	case value.FloatValue:
		n := v.Val
		if n < 0 {
			n = -n
		}
		return value.NewFloatOfTag(v.Tag, n), nil
	default:
		f, ok := value.AsFloat64(args[0])
		if !ok {
			return nil, fmt.Errorf("abs: %s is not numeric", args[0].Type())
		}
		if f < 0 {
			f = -f
		}
		return value.NewFloat64(f), nil
	}
}

func nativeUpcase(args []value.Value) (value.Value, error) {
	s, ok := args[0].(value.StringValue)
	if !ok {
		return nil, fmt.Errorf("upcase: expected a string, got %s", args[0].Type())
	}
	return value.NewString(strings.ToUpper(s.Val)), nil
}

func nativeDowncase(args []value.Value) (value.Value, error) {
	s, ok := args[0].(value.StringValue)
	if !ok {
		return nil, fmt.Errorf("downcase: expected a string, got %s", args[0].Type())
	}
	return value.NewString(strings.ToLower(s.Val)), nil
}

// nativeReverse accepts a string or list, matching the teacher's own
// "reverse works on both strings and lists" builtins.go convention.
func nativeReverse(args []value.Value) (value.Value, error) {
	switch v := args[0].(type) {
	case value.StringValue:
		r := []rune(v.Val)
		for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
			r[i], r[j] = r[j], r[i]
		}
		return value.NewString(string(r)), nil
	case *value.List:
		elems := append([]value.Value(nil), v.Elements()...)
		for i, j := 0, len(elems)-1; i < j; i, j = i+1, j-1 {
			elems[i], elems[j] = elems[j], elems[i]
		}
		return value.NewList(elems), nil
	default:
		return nil, fmt.Errorf("reverse: unsupported type %s", args[0].Type())
	}
}
