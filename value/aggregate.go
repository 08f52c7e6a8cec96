package value

import "fmt"

// FunctionValue is a reference to a user-defined function by name
// (spec.md §3). Resolution against the function registry happens at CALL
// time, not at PUSH time.
type FunctionValue struct {
	Name string
}

func NewFunction(name string) FunctionValue { return FunctionValue{Name: name} }

func (f FunctionValue) Type() Tag      { return TagFunction }
func (f FunctionValue) String() string { return "function:" + f.Name }
func (f FunctionValue) Truthy() bool   { return true }
func (f FunctionValue) Equal(o Value) bool {
	of, ok := o.(FunctionValue)
	return ok && of.Name == f.Name
}

// ClosureValue is a function reference plus the environment it captured at
// construction (spec.md §4.5). CapturedEnv is stored as interface{} rather
// than a concrete *env.Environment to avoid a value<->env import cycle —
// the same trick the teacher uses for Task.Evaluator/Task.Code "to avoid
// circular imports" (task/task.go). Callers in package interp/closure type-
// assert it back to *env.Environment.
type ClosureValue struct {
	ID             string // uuid
	FunctionName   string
	StartAddress   int
	EndAddress     int
	CapturedEnv    interface{}
	CapturedVars   []string
	Circular       bool // flagged by the closure tracker's one-hop cycle check
}

func (c *ClosureValue) Type() Tag      { return TagClosure }
func (c *ClosureValue) String() string { return fmt.Sprintf("closure:%s", c.FunctionName) }
func (c *ClosureValue) Truthy() bool   { return true }
func (c *ClosureValue) Equal(o Value) bool {
	oc, ok := o.(*ClosureValue)
	return ok && oc.ID == c.ID
}

// ObjectData is the shared, mutable backing store of an Object instance.
// Multiple ObjectValue references (copies of the Value) share one
// ObjectData, so field writes through any reference are visible via all of
// them (spec.md §3: "Copying a value is shallow").
type ObjectData struct {
	ClassName string
	Fields    map[string]Value
}

type ObjectValue struct {
	Data *ObjectData
}

func NewObject(className string, fields map[string]Value) ObjectValue {
	if fields == nil {
		fields = make(map[string]Value)
	}
	return ObjectValue{Data: &ObjectData{ClassName: className, Fields: fields}}
}

func (o ObjectValue) Type() Tag      { return TagObject }
func (o ObjectValue) String() string { return fmt.Sprintf("<%s instance>", o.Data.ClassName) }
func (o ObjectValue) Truthy() bool   { return true }
func (o ObjectValue) Equal(other Value) bool {
	oo, ok := other.(ObjectValue)
	return ok && oo.Data == o.Data // reference identity, matching shared ownership
}

func (o ObjectValue) GetField(name string) (Value, bool) {
	v, ok := o.Data.Fields[name]
	return v, ok
}

func (o ObjectValue) SetField(name string, v Value) {
	o.Data.Fields[name] = v
}

// ClassValue is a reference to a class descriptor kept in the class
// registry (spec.md §4.3); the descriptor itself lives in
// registry.ClassRegistry, not here, to keep package value free of a
// dependency on package registry.
type ClassValue struct {
	Name string
}

func (c ClassValue) Type() Tag      { return TagClass }
func (c ClassValue) String() string { return "class:" + c.Name }
func (c ClassValue) Truthy() bool   { return true }
func (c ClassValue) Equal(o Value) bool {
	oc, ok := o.(ClassValue)
	return ok && oc.Name == c.Name
}

// ModuleValue is an environment plus the bytecode that produced it
// (spec.md §4.4). Env and Code are interface{} for the same
// import-cycle-avoidance reason as ClosureValue.CapturedEnv.
type ModuleValue struct {
	Path string
	Env  interface{}
	Code interface{}
}

func (m ModuleValue) Type() Tag      { return TagModule }
func (m ModuleValue) String() string { return "module:" + m.Path }
func (m ModuleValue) Truthy() bool   { return true }
func (m ModuleValue) Equal(o Value) bool {
	om, ok := o.(ModuleValue)
	return ok && om.Path == m.Path
}

// ModuleFunctionValue is the specially-tagged value GET_PROPERTY returns
// when a Module property resolves to a function, so a subsequent CALL can
// find the owning module (spec.md §4.4).
type ModuleFunctionValue struct {
	ModulePath string
	Name       string
}

func (m ModuleFunctionValue) Type() Tag      { return TagFunction }
func (m ModuleFunctionValue) String() string { return fmt.Sprintf("module_function:%s", m.Name) }
func (m ModuleFunctionValue) Truthy() bool   { return true }
func (m ModuleFunctionValue) Equal(o Value) bool {
	om, ok := o.(ModuleFunctionValue)
	return ok && om.ModulePath == m.ModulePath && om.Name == m.Name
}

// EnumValue is a variant tag plus an optional payload.
type EnumValue struct {
	TypeName string
	Variant  string
	Payload  Value
}

func (e EnumValue) Type() Tag { return TagEnum }
func (e EnumValue) String() string {
	if e.Payload == nil {
		return e.TypeName + "." + e.Variant
	}
	return fmt.Sprintf("%s.%s(%s)", e.TypeName, e.Variant, e.Payload.String())
}
func (e EnumValue) Truthy() bool { return true }
func (e EnumValue) Equal(o Value) bool {
	oe, ok := o.(EnumValue)
	if !ok || oe.TypeName != e.TypeName || oe.Variant != e.Variant {
		return false
	}
	if e.Payload == nil || oe.Payload == nil {
		return e.Payload == nil && oe.Payload == nil
	}
	return e.Payload.Equal(oe.Payload)
}

// AnyValue wraps an arbitrary Value to satisfy a declared-Any slot; it is
// transparent for equality/truthiness/printing, existing only so the type
// tag TagAny can be reported where a signature demands it.
type AnyValue struct {
	Inner Value
}

func (a AnyValue) Type() Tag      { return TagAny }
func (a AnyValue) String() string { return a.Inner.String() }
func (a AnyValue) Truthy() bool   { return a.Inner.Truthy() }
func (a AnyValue) Equal(o Value) bool {
	if oa, ok := o.(AnyValue); ok {
		return a.Inner.Equal(oa.Inner)
	}
	return a.Inner.Equal(o)
}
