package interp

import (
	"embervm/closure"
	"embervm/env"
	"embervm/value"
)

// execPushLambda fetches the pre-registered lambda function signature and
// pushes a FunctionValue reference to it (spec.md §4.5); CREATE_CLOSURE
// later pairs it with captured variables.
func (i *Interpreter) execPushLambda(name string) error {
	if _, ok := i.Funcs.Lookup(name); !ok {
		return fatalf("PUSH_LAMBDA: %q was not found by the pre-pass", name)
	}
	i.push(value.NewFunction(name))
	return nil
}

// execCaptureVar pushes a (name, value) pair onto the stack as two
// consecutive pushes: the value first, then the name, so CREATE_CLOSURE
// pops them in a consistent order symmetric with how it pops n pairs.
func (i *Interpreter) execCaptureVar(name string) error {
	v, ok := i.curEnv.Get(name)
	if !ok {
		return fatalf("CAPTURE_VAR: undefined variable %q", name)
	}
	i.push(v)
	i.push(value.NewString(name))
	return nil
}

// execCreateClosure pops n (value, name) pairs, then the lambda function
// reference, and pushes a ClosureValue whose captured environment aliases
// the capturing scope's own bindings (spec.md §4.5): two closures created
// against the same enclosing variable share the same binding, so a STORE_VAR
// through either closure's body is visible to the other — the CAPTURE_VAR
// value push is only used as a fallback if the name has since gone out of
// scope by the time CREATE_CLOSURE runs.
func (i *Interpreter) execCreateClosure(n int) error {
	names := make([]string, n)
	vals := make([]value.Value, n)
	for k := n - 1; k >= 0; k-- {
		nameVal := i.pop()
		v := i.pop()
		ns, ok := nameVal.(value.StringValue)
		if !ok {
			return fatalf("CREATE_CLOSURE: expected a captured-variable name, got %s", nameVal.Type())
		}
		names[k] = ns.Val
		vals[k] = v
	}

	fnVal := i.pop()
	fn, ok := fnVal.(value.FunctionValue)
	if !ok {
		return fatalf("CREATE_CLOSURE: expected a lambda function reference, got %s", fnVal.Type())
	}
	sig, ok := i.Funcs.Lookup(fn.Name)
	if !ok {
		return fatalf("CREATE_CLOSURE: %q is not a registered lambda", fn.Name)
	}

	capturedEnv := env.NewChild(i.curEnv)
	for idx, name := range names {
		if !capturedEnv.CaptureRef(i.curEnv, name) {
			capturedEnv.CaptureVariable(name, vals[idx], env.Private)
		}
	}

	c := closure.NewClosure(fn.Name, sig.StartAddress, sig.EndAddress, capturedEnv, names)
	i.Closures.Register(c)
	i.detectCyclesAgainst(c)
	i.push(c)
	return nil
}

// detectCyclesAgainst checks whether any variable c just captured holds a
// closure whose own captured environment back-references c (spec.md §4.5's
// one-hop cycle detection).
func (i *Interpreter) detectCyclesAgainst(c *value.ClosureValue) {
	for _, name := range c.CapturedVars {
		v, ok := i.curEnv.Get(name)
		if !ok {
			continue
		}
		other, ok := v.(*value.ClosureValue)
		if !ok || other.ID == c.ID {
			continue
		}
		closure.DetectCycle(c, other)
	}
}

// invokeClosure implements spec.md §4.5's closure call: find the lambda in
// the function registry, create a call environment parented to the
// closure's captured environment, bind parameters, push a closure call
// frame, and jump to the body start (skipping nested lambda definitions).
func (i *Interpreter) invokeClosure(c *value.ClosureValue, argc int) error {
	sig, ok := i.Funcs.Lookup(c.FunctionName)
	if !ok {
		return fatalf("CALL: closure %q's function was not found", c.FunctionName)
	}
	capturedEnv, _ := c.CapturedEnv.(*env.Environment)
	if capturedEnv == nil {
		capturedEnv = i.Globals
	}

	callEnv, err := i.bindParameters(sig, argc, capturedEnv)
	if err != nil {
		return err
	}
	i.pushCallFrame(sig, callEnv, true, capturedEnv)
	i.ip = bodyStart(i.Program.Instructions, sig.StartAddress) - 1
	return nil
}
