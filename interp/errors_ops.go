package interp

import (
	"embervm/bytecode"
	"embervm/errmach"
	"embervm/value"
)

// errFrameFor builds the error frame pushed around a fallible call (spec.md
// §4.1/§4.2). The expected error type is left wildcard — the caller's
// compiled CHECK_ERROR/PROPAGATE_ERROR sequence decides, at the source
// level, which type it actually wants; the frame only needs to know where
// to resume and how far to truncate the stack.
func errFrameFor(functionName string, stackBase, handlerAddr int) errmach.Frame {
	return errmach.Frame{
		HandlerAddress:    handlerAddr,
		StackBase:         stackBase,
		ExpectedErrorType: errmach.GenericErrorUnionMarker,
		FunctionName:      functionName,
	}
}

func (i *Interpreter) execCheckError() error {
	top := i.peek()
	isErr := false
	if eu, ok := top.(value.ErrorUnion); ok {
		isErr = eu.IsError
	}
	i.push(value.NewBool(isErr))
	return nil
}

func (i *Interpreter) execConstructError(instr bytecode.Instruction) error {
	argc := int(instr.IntValue)
	if argc < 0 || argc > len(i.stack) {
		return fatalf("CONSTRUCT_ERROR: invalid argument count %d", argc)
	}
	args := make([]value.Value, argc)
	for k := argc - 1; k >= 0; k-- {
		args[k] = i.pop()
	}
	message := ""
	rest := args
	if len(args) > 0 {
		if s, ok := args[0].(value.StringValue); ok {
			message = s.Val
			rest = args[1:]
		}
	}
	ev, slot := i.Errors.Pool.Acquire(instr.StringValue, message, rest, i.ip)
	_ = slot // the slot is not released here or elsewhere; see errmach.Pool.Acquire
	i.lastError = ev
	i.push(value.Fail(ev))
	return nil
}

func (i *Interpreter) execConstructOk() error {
	v := i.pop()
	i.push(value.Ok(v))
	return nil
}

func (i *Interpreter) execIsError() error {
	v := i.pop()
	eu, ok := v.(value.ErrorUnion)
	i.push(value.NewBool(ok && eu.IsError))
	return nil
}

func (i *Interpreter) execIsSuccess() error {
	v := i.pop()
	eu, ok := v.(value.ErrorUnion)
	i.push(value.NewBool(!ok || !eu.IsError))
	return nil
}

// execUnwrapValue pops an error-union; on success pushes the underlying
// value, on failure pushes the error back and invokes propagation.
func (i *Interpreter) execUnwrapValue() error {
	v := i.pop()
	eu, ok := v.(value.ErrorUnion)
	if !ok {
		i.push(v)
		return nil
	}
	if !eu.IsError {
		i.push(eu.Success)
		return nil
	}
	i.push(v)
	return i.propagate(eu.Failure)
}

// execPropagateError initiates propagation with the top-of-stack error
// value, or the last thrown exception if the stack top isn't one.
func (i *Interpreter) execPropagateError() error {
	top := i.pop()
	var ev value.ErrorValue
	switch v := top.(type) {
	case value.ErrorUnion:
		if v.IsError {
			ev = v.Failure
		} else {
			ev = i.lastError
		}
	case value.ErrorValue:
		ev = v
	default:
		ev = i.lastError
	}
	return i.propagate(ev)
}

// propagate walks the error-frame stack (errmach.Machine.Propagate); on a
// match it truncates the stack and resumes at the handler. On no match, or
// on a fatal assertion/contract violation, it reports an unhandled error
// and terminates the current top-level execute.
func (i *Interpreter) propagate(ev value.ErrorValue) error {
	if errmach.IsFatal(ev) {
		return fatalf("fatal: %s", ev.String())
	}
	resumeIP, ok := i.Errors.Propagate(ev, i)
	if !ok {
		return fatalf("unhandled error: %s (at instruction %d)", ev.String(), ev.SourceLocation)
	}
	i.ip = resumeIP
	return nil
}
