// Package pattern implements MATCH_PATTERN dispatch (spec.md §4.7): a
// closed set of pattern shapes tested against a runtime value, each
// producing a match/no-match bool and a set of variable bindings on match.
// Grounded on the teacher's verb-argument dispatch (vm/verbs.go matches a
// call's argument shape against a verb's declared argspec before binding
// locals) generalized to value-level pattern matching.
package pattern

import (
	"strings"

	"embervm/value"
)

// Kind markers used by a __kind__ field to tag a composite pattern Value
// (spec.md §4.7's "marker values followed by operands" — the marker and
// its operands are pre-assembled into one Dict by the compiler, so a
// non-match still consumes exactly the one Value MATCH_PATTERN popped,
// trivially keeping the evaluation stack balanced).
const (
	KindDict       = "__dict_pattern__"
	KindList       = "__list_pattern__"
	KindTuple      = "__tuple_pattern__"
	KindVal        = "__val_pattern__"
	KindErr        = "__err_pattern__"
	KindErrorType  = "__error_type_pattern__"
)

// Match tests subject against pattern, returning whether it matched and any
// variable bindings the match produced. Non-composite patterns (a Nil
// value, a type-name string, or any other literal) are tested directly;
// composite patterns are Dicts carrying a "__kind__" field.
func Match(subject, patternVal value.Value) (bool, map[string]value.Value) {
	if _, ok := patternVal.(value.NilValue); ok {
		return true, nil // nil pattern: wildcard, always matches
	}

	if s, ok := patternVal.(value.StringValue); ok {
		return matchTypeName(subject, s.Val), nil
	}

	if d, ok := patternVal.(*value.Dict); ok {
		kindVal, ok := d.Get(value.NewString("__kind__"))
		if ok {
			if kind, ok := kindVal.(value.StringValue); ok {
				switch kind.Val {
				case KindDict:
					return matchDictPattern(subject, d)
				case KindList:
					return matchSequencePattern(subject, d, false)
				case KindTuple:
					return matchSequencePattern(subject, d, true)
				case KindVal:
					return matchValPattern(subject, d)
				case KindErr:
					return matchErrPattern(subject, d)
				case KindErrorType:
					return matchErrorTypePattern(subject, d)
				}
			}
		}
	}

	// Literal value: equality comparison.
	return subject.Equal(patternVal), nil
}

func matchTypeName(subject value.Value, name string) bool {
	name = strings.ToLower(name)
	switch name {
	case "int", "integer":
		return subject.Type().IsInteger()
	case "float":
		return subject.Type().IsFloat()
	case "string", "str":
		_, ok := subject.(value.StringValue)
		return ok
	case "bool", "boolean":
		_, ok := subject.(value.BoolValue)
		return ok
	case "list":
		_, ok := subject.(*value.List)
		return ok
	case "dict":
		_, ok := subject.(*value.Dict)
		return ok
	case "tuple":
		_, ok := subject.(*value.Tuple)
		return ok
	case "function":
		_, ok := subject.(value.FunctionValue)
		return ok
	case "closure":
		_, ok := subject.(*value.ClosureValue)
		return ok
	case "object":
		_, ok := subject.(value.ObjectValue)
		return ok
	case "class":
		_, ok := subject.(value.ClassValue)
		return ok
	case "module":
		_, ok := subject.(value.ModuleValue)
		return ok
	case "nil":
		_, ok := subject.(value.NilValue)
		return ok
	default:
		return strings.EqualFold(subject.Type().String(), name)
	}
}

func fieldNames(d *value.Dict, key string) []string {
	v, ok := d.Get(value.NewString(key))
	if !ok {
		return nil
	}
	list, ok := v.(*value.List)
	if !ok {
		return nil
	}
	out := make([]string, 0, list.Len())
	for _, e := range list.Elements() {
		if s, ok := e.(value.StringValue); ok {
			out = append(out, s.Val)
		}
	}
	return out
}

func stringField(d *value.Dict, key string) (string, bool) {
	v, ok := d.Get(value.NewString(key))
	if !ok {
		return "", false
	}
	s, ok := v.(value.StringValue)
	return s.Val, ok
}

// matchDictPattern matches subject as a Dict, binding listed field names to
// their values (fail if a listed field is absent) and optionally binding a
// "rest" name to a Dict of the remaining fields.
func matchDictPattern(subject value.Value, patternSpec *value.Dict) (bool, map[string]value.Value) {
	d, ok := subject.(*value.Dict)
	if !ok {
		return false, nil
	}
	fields := fieldNames(patternSpec, "fields")
	bindings := make(map[string]value.Value, len(fields))
	consumed := make(map[string]bool, len(fields))
	for _, name := range fields {
		v, ok := d.Get(value.NewString(name))
		if !ok {
			return false, nil
		}
		bindings[name] = v
		consumed[name] = true
	}
	if restName, ok := stringField(patternSpec, "rest"); ok && restName != "" {
		rest := value.NewEmptyDict()
		for _, p := range d.Pairs() {
			if s, ok := p[0].(value.StringValue); ok && consumed[s.Val] {
				continue
			}
			rest = rest.Set(p[0], p[1])
		}
		bindings[restName] = rest
	}
	return true, bindings
}

// matchSequencePattern matches subject as a List or Tuple of the exact
// length declared by the pattern, binding element names positionally.
func matchSequencePattern(subject value.Value, patternSpec *value.Dict, asTuple bool) (bool, map[string]value.Value) {
	names := fieldNames(patternSpec, "elements")
	var elems []value.Value
	if asTuple {
		t, ok := subject.(*value.Tuple)
		if !ok || t.Len() != len(names) {
			return false, nil
		}
		elems = t.Elements()
	} else {
		l, ok := subject.(*value.List)
		if !ok || l.Len() != len(names) {
			return false, nil
		}
		elems = l.Elements()
	}
	bindings := make(map[string]value.Value, len(names))
	for idx, name := range names {
		if name == "" || name == "_" {
			continue
		}
		bindings[name] = elems[idx]
	}
	return true, bindings
}

// matchValPattern matches a success error-union, binding the unwrapped
// value to the named variable.
func matchValPattern(subject value.Value, patternSpec *value.Dict) (bool, map[string]value.Value) {
	eu, ok := subject.(value.ErrorUnion)
	if !ok || eu.IsError {
		return false, nil
	}
	name, _ := stringField(patternSpec, "name")
	if name == "" {
		return true, nil
	}
	return true, map[string]value.Value{name: eu.Success}
}

// matchErrPattern matches an error error-union, optionally constrained to a
// specific error-type name, binding the error to the named variable.
func matchErrPattern(subject value.Value, patternSpec *value.Dict) (bool, map[string]value.Value) {
	eu, ok := subject.(value.ErrorUnion)
	if !ok || !eu.IsError {
		return false, nil
	}
	if wantType, ok := stringField(patternSpec, "errorType"); ok && wantType != "" {
		if eu.Failure.ErrorType != wantType {
			return false, nil
		}
	}
	name, _ := stringField(patternSpec, "name")
	if name == "" {
		return true, nil
	}
	return true, map[string]value.Value{name: eu.Failure}
}

// matchErrorTypePattern matches a specific error type (whether wrapped in
// an ErrorUnion or a bare ErrorValue), binding its argument list
// positionally.
func matchErrorTypePattern(subject value.Value, patternSpec *value.Dict) (bool, map[string]value.Value) {
	var ev value.ErrorValue
	switch v := subject.(type) {
	case value.ErrorUnion:
		if !v.IsError {
			return false, nil
		}
		ev = v.Failure
	case value.ErrorValue:
		ev = v
	default:
		return false, nil
	}
	wantType, _ := stringField(patternSpec, "errorType")
	if wantType != "" && ev.ErrorType != wantType {
		return false, nil
	}
	names := fieldNames(patternSpec, "args")
	bindings := make(map[string]value.Value, len(names))
	for idx, name := range names {
		if name == "" || name == "_" || idx >= len(ev.Arguments) {
			continue
		}
		bindings[name] = ev.Arguments[idx]
	}
	return true, bindings
}
