package interp

import (
	"strings"

	"embervm/bytecode"
	"embervm/env"
	"embervm/registry"
	"embervm/value"
)

// execBeginFunction handles a BEGIN_FUNCTION reached by ordinary top-to-
// bottom flow (never by a CALL jump, which targets bodyStart directly):
// register the signature — live, for non-lambdas; a no-op for lambdas
// already registered by the pre-pass — then push the definition stack so
// the body is skipped (spec.md §4.1).
func (i *Interpreter) execBeginFunction(instr bytecode.Instruction) error {
	end, params, optParams, defaults := scanFunctionSignature(i.Program, i.ip)
	name := instr.StringValue
	if len(i.classStack) > 0 {
		name = registry.MethodKey(i.classStack[len(i.classStack)-1], name)
	}
	i.Funcs.Register(&registry.FunctionSignature{
		Name:               name,
		Parameters:         params,
		OptionalParameters: optParams,
		DefaultValues:      defaults,
		DeclaredThrows:     instr.IntValue&FuncFlagThrows != 0,
		ReturnTypeFallible: instr.IntValue&FuncFlagFallibleReturn != 0,
		StartAddress:       i.ip,
		EndAddress:         end,
		IsLambda:           isLambdaName(instr.StringValue),
	})
	i.definitionStack = append(i.definitionStack, instr.StringValue)
	return nil
}

// execCall implements spec.md §4.1's 8-step CALL resolution. instr.
// StringValue is the callee name (empty when the callee is purely a stack
// value, steps 1-2); instr.IntValue is argc.
func (i *Interpreter) execCall(instr bytecode.Instruction) error {
	argc := int(instr.IntValue)
	name := instr.StringValue

	// (1) function-typed value on top of stack, (2) Closure value on top.
	if len(i.stack) > 0 {
		switch top := i.peek().(type) {
		case *value.ClosureValue:
			i.pop()
			return i.invokeClosure(top, argc)
		case value.ModuleFunctionValue:
			i.pop()
			return i.invokeModuleFunctionValue(top, argc)
		case value.FunctionValue:
			i.pop()
			return i.invokeNamedCallable(top.Name, argc)
		}
	}

	// (3) a local variable holding a closure or function value.
	if name != "" {
		if v, ok := i.curEnv.Get(name); ok {
			switch callee := v.(type) {
			case *value.ClosureValue:
				return i.invokeClosure(callee, argc)
			case value.ModuleFunctionValue:
				return i.invokeModuleFunctionValue(callee, argc)
			case value.FunctionValue:
				return i.invokeNamedCallable(callee.Name, argc)
			}
		}
	}

	// (4) the class registry (constructor calls).
	if name != "" {
		if _, ok := i.Classes.Lookup(name); ok {
			return i.invokeConstructor(name, argc)
		}
	}

	// (5) the method protocol.
	if strings.HasPrefix(name, "method:") {
		return i.invokeMethod(strings.TrimPrefix(name, "method:"), argc, false)
	}
	if strings.HasPrefix(name, "super:") {
		return i.invokeMethod(strings.TrimPrefix(name, "super:"), argc, true)
	}

	return i.invokeNamedCallable(name, argc)
}

// invokeNamedCallable covers CALL steps (6)-(8): user-defined function
// registry, native function registry, then a loaded module's function
// table.
func (i *Interpreter) invokeNamedCallable(name string, argc int) error {
	if sig, ok := i.Funcs.Lookup(name); ok {
		return i.invokeFunction(sig, argc)
	}
	if nat, ok := i.Natives[name]; ok {
		return i.invokeNative(name, nat, argc)
	}
	if ok, err := i.invokeModuleFunction(name, argc); ok {
		return err
	}
	return fatalf("CALL: %q does not resolve to any callable (function, native, or module function)", name)
}

func (i *Interpreter) invokeNative(name string, nat nativeEntry, argc int) error {
	if argc < 0 || argc > len(i.stack) {
		return fatalf("CALL %s: stack underflow for %d arguments", name, argc)
	}
	args := make([]value.Value, argc)
	for k := argc - 1; k >= 0; k-- {
		args[k] = i.pop()
	}
	if nat.validated && nat.arity >= 0 && nat.arity != argc {
		return fatalf("CALL %s: expected %d arguments, got %d", name, nat.arity, argc)
	}
	if i.Tracer != nil {
		i.Tracer.Call(name, args)
	}
	result, err := nat.fn(args)
	if err != nil {
		if i.Tracer != nil {
			i.Tracer.Error(name, err)
		}
		if name == "assert" {
			return fatalf("%v", err)
		}
		i.push(value.Fail(value.ErrorValue{ErrorType: "NativeError", Message: err.Error()}))
		return nil
	}
	if i.Tracer != nil {
		i.Tracer.Return(name, result)
	}
	i.push(result)
	return nil
}

// bindParameters pops argc arguments (in reverse, to preserve left-to-right
// evaluation order per spec.md §4.1) and binds them into a fresh call
// environment against sig's required/optional parameters, failing with an
// arity error before any frame is pushed.
func (i *Interpreter) bindParameters(sig *registry.FunctionSignature, argc int, parent *env.Environment) (*env.Environment, error) {
	minArgs, maxArgs := sig.Arity()
	if argc < minArgs || argc > maxArgs {
		return nil, fatalf("%s: expected between %d and %d arguments, got %d", sig.Name, minArgs, maxArgs, argc)
	}
	if argc > len(i.stack) {
		return nil, fatalf("%s: stack underflow for %d arguments", sig.Name, argc)
	}
	args := make([]value.Value, argc)
	for k := argc - 1; k >= 0; k-- {
		args[k] = i.pop()
	}

	callEnv := env.NewChild(parent)
	for idx, pname := range sig.Parameters {
		callEnv.Define(pname, args[idx], env.Private)
	}
	for idx, pname := range sig.OptionalParameters {
		pos := len(sig.Parameters) + idx
		if pos < len(args) {
			callEnv.Define(pname, args[pos], env.Private)
		} else if dv, ok := sig.DefaultValues[pname]; ok {
			callEnv.Define(pname, dv, env.Private)
		} else {
			callEnv.Define(pname, value.Nil, env.Private)
		}
	}
	return callEnv, nil
}

// invokeFunction pushes a call frame for an ordinary (non-closure) function
// call and jumps to its body start.
func (i *Interpreter) invokeFunction(sig *registry.FunctionSignature, argc int) error {
	var traceArgs []value.Value
	if i.Tracer != nil && argc <= len(i.stack) {
		traceArgs = append(traceArgs, i.stack[len(i.stack)-argc:]...)
	}
	callEnv, err := i.bindParameters(sig, argc, i.Globals)
	if err != nil {
		return err
	}
	if i.Tracer != nil {
		i.Tracer.Call(sig.Name, traceArgs)
	}
	i.pushCallFrame(sig, callEnv, false, nil)
	i.ip = bodyStart(i.Program.Instructions, sig.StartAddress) - 1 // loop increments
	return nil
}

// pushCallFrame pushes the call frame and, if the callee is fallible,
// the error frame covering its call site (spec.md §4.1's "push an error
// frame with handlerAddress = ip+1 before transferring control").
func (i *Interpreter) pushCallFrame(sig *registry.FunctionSignature, callEnv *env.Environment, isClosure bool, closureEnv *env.Environment) {
	i.frames = append(i.frames, CallFrame{
		FunctionName:  sig.Name,
		ReturnAddress: i.ip + 1,
		PreviousEnv:   i.curEnv,
		IsClosureCall: isClosure,
		ClosureEnv:    closureEnv,
	})
	i.curEnv = callEnv
	if sig.IsFallible() {
		i.Errors.PushFrame(errFrameFor(sig.Name, len(i.stack), i.ip+1))
	}
}

// execReturn implements spec.md §4.1's RETURN: pop the frame, restore the
// previous environment, resume at the return address. A constructor
// (function name ending "::init") discards its explicit return value and
// returns `this` instead — `this` was bound as a parameter of the
// constructor call by invokeConstructor.
func (i *Interpreter) execReturn() (halt bool, err error) {
	if len(i.frames) == 0 {
		// "RETURN outside a frame" — resolved Open Question: a no-op that
		// pushes Nil rather than halting (SPEC_FULL.md).
		i.push(value.Nil)
		return false, nil
	}
	frame := i.frames[len(i.frames)-1]
	i.frames = i.frames[:len(i.frames)-1]

	retVal := i.pop()
	if i.Tracer != nil {
		i.Tracer.Return(frame.FunctionName, retVal)
	}
	if registry.IsConstructor(frame.FunctionName) {
		if this, ok := i.curEnv.Get("this"); ok {
			retVal = this
		} else if this, ok := frame.PreviousEnv.Get("this"); ok {
			retVal = this
		}
	}

	if sig, ok := i.Funcs.Lookup(frame.FunctionName); ok && sig.IsFallible() {
		if eu, isUnion := retVal.(value.ErrorUnion); isUnion && eu.IsError {
			// Error return: frame retained, propagate further up.
			i.curEnv = frame.PreviousEnv
			i.push(retVal)
			i.ip = frame.ReturnAddress - 1
			i.afterReturn()
			return false, nil
		}
		// Successful return: the error frame pushed at call time is popped.
		if _, ok := i.Errors.Frames.Pop(); !ok {
			// Already consumed by an intervening PROPAGATE_ERROR; fine.
		}
	}

	i.curEnv = frame.PreviousEnv
	i.push(retVal)
	i.ip = frame.ReturnAddress - 1
	i.afterReturn()
	return false, nil
}

func (i *Interpreter) afterReturn() {
	i.returnsSinceGC++
	i.Closures.OnReturn()
}
