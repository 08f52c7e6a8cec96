package interp

import (
	"testing"

	"embervm/bytecode"
	"embervm/errmach"
	"embervm/value"
)

func TestCheckErrorReportsErrorUnionState(t *testing.T) {
	i := newTestInterp()
	i.push(value.Ok(value.NewInt64(1)))
	if err := i.execCheckError(); err != nil {
		t.Fatalf("execCheckError: %v", err)
	}
	if got := i.pop(); !got.Equal(value.NewBool(false)) {
		t.Errorf("Ok union: expected false, got %v", got)
	}

	i.push(value.Fail(value.ErrorValue{ErrorType: "X"}))
	if err := i.execCheckError(); err != nil {
		t.Fatalf("execCheckError: %v", err)
	}
	if got := i.pop(); !got.Equal(value.NewBool(true)) {
		t.Errorf("Fail union: expected true, got %v", got)
	}
}

func TestConstructErrorSplitsMessageFromArguments(t *testing.T) {
	i := newTestInterp()
	i.push(value.NewString("out of range"))
	i.push(value.NewInt64(5))
	instr := bytecode.OpStrInt(bytecode.OP_CONSTRUCT_ERROR, "RangeError", 2)
	if err := i.execConstructError(instr); err != nil {
		t.Fatalf("execConstructError: %v", err)
	}
	got, ok := i.pop().(value.ErrorUnion)
	if !ok || !got.IsError {
		t.Fatalf("expected an error union, got %v", got)
	}
	if got.Failure.ErrorType != "RangeError" || got.Failure.Message != "out of range" {
		t.Errorf("expected RangeError(\"out of range\"), got %v", got.Failure)
	}
	if len(got.Failure.Arguments) != 1 || !got.Failure.Arguments[0].Equal(value.NewInt64(5)) {
		t.Errorf("expected one argument 5, got %v", got.Failure.Arguments)
	}
}

// PROPAGATE_ERROR finds the first frame whose expected type matches (or is
// wildcard), discarding every non-matching frame it walks past along the way
// (errmach.Machine.Propagate).
func TestPropagateErrorSkipsNonMatchingFrames(t *testing.T) {
	i := newTestInterp()
	i.Errors.PushFrame(errmach.Frame{HandlerAddress: 20, StackBase: 0, ExpectedErrorType: "RangeError"})
	i.Errors.PushFrame(errmach.Frame{HandlerAddress: 10, StackBase: 0, ExpectedErrorType: "OtherError"})

	i.push(value.Fail(value.ErrorValue{ErrorType: "RangeError", Message: "boom"}))
	if err := i.execPropagateError(); err != nil {
		t.Fatalf("execPropagateError: %v", err)
	}
	if i.ip != 19 {
		t.Errorf("expected resume ip 19 (handlerAddress-1), got %d", i.ip)
	}
	if n := i.Errors.Frames.Depth(); n != 0 {
		t.Errorf("expected both frames consumed, %d remain", n)
	}
	got, ok := i.peek().(value.ErrorUnion)
	if !ok || !got.IsError || got.Failure.ErrorType != "RangeError" {
		t.Errorf("expected the RangeError pushed back onto the stack, got %v", i.peek())
	}
}

func TestPropagateErrorWildcardFrameAlwaysCatches(t *testing.T) {
	i := newTestInterp()
	i.Errors.PushFrame(errmach.Frame{HandlerAddress: 5, StackBase: 0})

	i.push(value.Fail(value.ErrorValue{ErrorType: "Anything"}))
	if err := i.execPropagateError(); err != nil {
		t.Fatalf("execPropagateError: %v", err)
	}
	if i.ip != 4 {
		t.Errorf("expected resume ip 4, got %d", i.ip)
	}
}

func TestPropagateErrorWithNoMatchingFrameIsFatal(t *testing.T) {
	i := newTestInterp()
	i.Errors.PushFrame(errmach.Frame{HandlerAddress: 1, StackBase: 0, ExpectedErrorType: "OtherError"})

	i.push(value.Fail(value.ErrorValue{ErrorType: "RangeError"}))
	if err := i.execPropagateError(); err == nil {
		t.Fatal("expected an unhandled-error fatal, got nil")
	}
}

func TestPropagateErrorAssertionFailureIsAlwaysFatal(t *testing.T) {
	i := newTestInterp()
	i.Errors.PushFrame(errmach.Frame{HandlerAddress: 1, StackBase: 0}) // wildcard, would otherwise catch

	i.push(value.Fail(value.ErrorValue{ErrorType: "AssertionError", Message: "Assertion failed: x > 0"}))
	if err := i.execPropagateError(); err == nil {
		t.Fatal("expected assertion failures to bypass even a wildcard frame")
	}
}

func TestUnwrapValuePassesThroughNonUnionValues(t *testing.T) {
	i := newTestInterp()
	i.push(value.NewInt64(42))
	if err := i.execUnwrapValue(); err != nil {
		t.Fatalf("execUnwrapValue: %v", err)
	}
	if got := i.pop(); !got.Equal(value.NewInt64(42)) {
		t.Errorf("expected 42 unchanged, got %v", got)
	}
}

func TestUnwrapValueOnSuccessUnwraps(t *testing.T) {
	i := newTestInterp()
	i.push(value.Ok(value.NewInt64(7)))
	if err := i.execUnwrapValue(); err != nil {
		t.Fatalf("execUnwrapValue: %v", err)
	}
	if got := i.pop(); !got.Equal(value.NewInt64(7)) {
		t.Errorf("expected 7, got %v", got)
	}
}
