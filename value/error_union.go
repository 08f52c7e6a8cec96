package value

import (
	"fmt"
	"strings"
)

// ErrorValue is the failure payload of an ErrorUnion (spec.md §3).
type ErrorValue struct {
	ErrorType      string
	Message        string
	Arguments      []Value
	SourceLocation int // instruction index
}

func (e ErrorValue) Type() Tag { return TagErrorUnion } // only meaningful wrapped in a union; see ErrorUnion.Type
func (e ErrorValue) String() string {
	if e.Message == "" {
		return e.ErrorType
	}
	return fmt.Sprintf("%s: %s", e.ErrorType, e.Message)
}
func (e ErrorValue) Truthy() bool { return true }
func (e ErrorValue) Equal(o Value) bool {
	oe, ok := o.(ErrorValue)
	if !ok || oe.ErrorType != e.ErrorType || oe.Message != e.Message || len(oe.Arguments) != len(e.Arguments) {
		return false
	}
	for i, a := range e.Arguments {
		if !a.Equal(oe.Arguments[i]) {
			return false
		}
	}
	return true
}

// IsAssertionOrContractViolation reports whether this error's message
// carries one of the two fatal-only prefixes defined in spec.md §4.2/§7.
func (e ErrorValue) IsAssertionOrContractViolation() bool {
	return strings.Contains(e.Message, "Assertion failed:") || strings.Contains(e.Message, "Contract violation:")
}

// ErrorUnion is a success-or-failure union value. It additionally carries
// the declared set of error-type names a fallible function may produce and
// a "generic" flag (can fail with anything) — spec.md §3.
type ErrorUnion struct {
	IsError         bool
	Success         Value
	SuccessTypeTag  Tag
	Failure         ErrorValue
	DeclaredErrors  []string
	Generic         bool
}

func Ok(v Value) ErrorUnion {
	return ErrorUnion{IsError: false, Success: v, SuccessTypeTag: v.Type()}
}

func Fail(ev ErrorValue) ErrorUnion {
	return ErrorUnion{IsError: true, Failure: ev}
}

func (u ErrorUnion) Type() Tag { return TagErrorUnion }

func (u ErrorUnion) String() string {
	if u.IsError {
		return "error(" + u.Failure.String() + ")"
	}
	return "ok(" + u.Success.String() + ")"
}

func (u ErrorUnion) Truthy() bool {
	if u.IsError {
		return true
	}
	return u.Success.Truthy()
}

func (u ErrorUnion) Equal(o Value) bool {
	ou, ok := o.(ErrorUnion)
	if !ok || ou.IsError != u.IsError {
		return false
	}
	if u.IsError {
		return u.Failure.Equal(ou.Failure)
	}
	return u.Success.Equal(ou.Success)
}

// DeclaresErrorType reports whether name is among this union's declared
// error types, or the union is generic ("can fail with anything").
func (u ErrorUnion) DeclaresErrorType(name string) bool {
	if u.Generic {
		return true
	}
	for _, n := range u.DeclaredErrors {
		if n == name {
			return true
		}
	}
	return false
}
