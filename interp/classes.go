package interp

import (
	"embervm/env"
	"embervm/registry"
	"embervm/value"
)

func (i *Interpreter) execBeginClass(name string) error {
	i.Classes.Define(name)
	i.classStack = append(i.classStack, name)
	return nil
}

func (i *Interpreter) execEndClass() error {
	if n := len(i.classStack); n > 0 {
		i.classStack = i.classStack[:n-1]
	}
	return nil
}

// execDefineField pops a default-value expression result and records it
// under the class currently open on classStack (spec.md §4.3).
func (i *Interpreter) execDefineField(name string) error {
	if len(i.classStack) == 0 {
		return fatalf("DEFINE_FIELD %q: no class is currently open", name)
	}
	def := i.pop()
	className := i.classStack[len(i.classStack)-1]
	i.Classes.AddField(className, registry.FieldDefault{Name: name, Default: def})
	return nil
}

func (i *Interpreter) execSetSuperclass(superName string) error {
	if len(i.classStack) == 0 {
		return fatalf("SET_SUPERCLASS %q: no class is currently open", superName)
	}
	className := i.classStack[len(i.classStack)-1]
	i.Classes.SetSuperclass(className, superName)
	return nil
}

// execGetProperty implements the receiver-dependent read half of spec.md
// §4.1/§4.3/§4.4: an Object field, or a Module binding (wrapped as
// ModuleFunctionValue when the binding is callable, so a subsequent CALL
// can find the owning module per spec.md §4.4).
func (i *Interpreter) execGetProperty(name string) error {
	receiver := i.pop()
	switch r := receiver.(type) {
	case value.ObjectValue:
		v, ok := r.GetField(name)
		if !ok {
			return fatalf("GET_PROPERTY: %s has no field %q", r.Data.ClassName, name)
		}
		i.push(v)
		return nil
	case value.ModuleValue:
		modEnv, _ := r.Env.(*env.Environment)
		if modEnv == nil {
			return fatalf("GET_PROPERTY: module %q has no environment", r.Path)
		}
		v, ok := modEnv.Get(name)
		if !ok {
			return fatalf("GET_PROPERTY: module %q has no member %q", r.Path, name)
		}
		if _, isFn := v.(value.FunctionValue); isFn {
			mfv := value.ModuleFunctionValue{ModulePath: r.Path, Name: name}
			i.resolvedModuleFuncs[name] = mfv
			i.push(mfv)
			return nil
		}
		i.push(v)
		return nil
	default:
		return fatalf("GET_PROPERTY: %s is not a property-bearing value", receiver.Type())
	}
}

func (i *Interpreter) execSetProperty(name string) error {
	v := i.pop()
	receiver := i.pop()
	obj, ok := receiver.(value.ObjectValue)
	if !ok {
		return fatalf("SET_PROPERTY: %s is not an object", receiver.Type())
	}
	obj.SetField(name, v)
	return nil
}

func isObjectReceiver(v value.Value) bool {
	_, ok := v.(value.ObjectValue)
	return ok
}

// invokeConstructor implements spec.md §4.1's constructor protocol: a
// fresh Object with class-registry-declared field defaults, pushed as
// `this`; if an `init` method exists it is invoked (and its RETURN, per
// execReturn's constructor rule, discards the explicit return value in
// favor of `this`); otherwise the object is pushed directly.
func (i *Interpreter) invokeConstructor(className string, argc int) error {
	fields := i.Classes.DefaultFields(className)
	obj := value.NewObject(className, fields)

	sig, _, hasInit := i.Classes.ResolveMethod(className, "init", i.Funcs)
	if !hasInit {
		if argc > 0 {
			return fatalf("%s(): constructor takes no arguments (no init method defined)", className)
		}
		i.push(obj)
		return nil
	}

	callEnv, err := i.bindParameters(sig, argc, i.Globals)
	if err != nil {
		return err
	}
	callEnv.Define("this", obj, env.Private)
	i.pushCallFrame(sig, callEnv, false, nil)
	i.ip = bodyStart(i.Program.Instructions, sig.StartAddress) - 1
	return nil
}

// invokeMethod implements spec.md §4.1/§4.3's method call: the receiver may
// be separately pushed (checked first) or be the call's last argument
// (checked as a fallback), per the "both shapes must be accepted" rule.
func (i *Interpreter) invokeMethod(methodName string, argc int, isSuper bool) error {
	if argc < 0 || argc > len(i.stack) {
		return fatalf("CALL method:%s: stack underflow for %d arguments", methodName, argc)
	}
	args := make([]value.Value, argc)
	for k := argc - 1; k >= 0; k-- {
		args[k] = i.pop()
	}

	var receiver value.ObjectValue
	switch {
	case len(i.stack) > 0 && isObjectReceiver(i.peek()):
		receiver = i.pop().(value.ObjectValue)
	case len(args) > 0 && isObjectReceiver(args[len(args)-1]):
		receiver = args[len(args)-1].(value.ObjectValue)
		args = args[:len(args)-1]
	default:
		return fatalf("CALL method:%s: no object receiver found", methodName)
	}

	var sig *registry.FunctionSignature
	var ok bool
	if isSuper {
		sig, _, ok = i.Classes.ResolveSuperMethod(receiver.Data.ClassName, methodName, i.Funcs)
	} else {
		sig, _, ok = i.Classes.ResolveMethod(receiver.Data.ClassName, methodName, i.Funcs)
	}
	if !ok {
		return fatalf("CALL method:%s: not found on class %s", methodName, receiver.Data.ClassName)
	}

	for _, a := range args {
		i.push(a)
	}
	callEnv, err := i.bindParameters(sig, len(args), i.Globals)
	if err != nil {
		return err
	}
	callEnv.Define("this", receiver, env.Private)
	i.pushCallFrame(sig, callEnv, false, nil)
	i.ip = bodyStart(i.Program.Instructions, sig.StartAddress) - 1
	return nil
}
