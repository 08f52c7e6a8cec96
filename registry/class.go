package registry

import (
	"sync"

	"embervm/value"
)

// FieldDefault is a single declared field's name and default-value
// constructor expression result.
type FieldDefault struct {
	Name    string
	Default value.Value
}

// ClassDescriptor maps a class name to its fields, methods, and superclass
// (spec.md §4.3).
type ClassDescriptor struct {
	Name         string
	Fields       []FieldDefault
	Methods      []string
	SuperClass   string // empty if none
	FieldOffsets map[string]int
}

type ClassRegistry struct {
	mu      sync.RWMutex
	classes map[string]*ClassDescriptor
}

func NewClassRegistry() *ClassRegistry {
	return &ClassRegistry{classes: make(map[string]*ClassDescriptor)}
}

func (r *ClassRegistry) Define(name string) *ClassDescriptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.classes[name]; ok {
		return existing
	}
	desc := &ClassDescriptor{Name: name, FieldOffsets: make(map[string]int)}
	r.classes[name] = desc
	return desc
}

func (r *ClassRegistry) Lookup(name string) (*ClassDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.classes[name]
	return c, ok
}

func (r *ClassRegistry) SetSuperclass(className, superName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.classes[className]; ok {
		c.SuperClass = superName
	}
}

func (r *ClassRegistry) AddField(className string, field FieldDefault) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.classes[className]
	if !ok {
		c = &ClassDescriptor{Name: className, FieldOffsets: make(map[string]int)}
		r.classes[className] = c
	}
	c.FieldOffsets[field.Name] = len(c.Fields)
	c.Fields = append(c.Fields, field)
}

func (r *ClassRegistry) AddMethod(className, methodName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.classes[className]
	if !ok {
		c = &ClassDescriptor{Name: className, FieldOffsets: make(map[string]int)}
		r.classes[className] = c
	}
	c.Methods = append(c.Methods, methodName)
}

// DefaultFields builds the initial field map for a freshly constructed
// instance, walking the superclass chain so inherited field defaults are
// applied before the class's own (spec.md §4.1 constructor protocol).
func (r *ClassRegistry) DefaultFields(className string) map[string]value.Value {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fields := make(map[string]value.Value)
	var chain []*ClassDescriptor
	for name := className; name != ""; {
		c, ok := r.classes[name]
		if !ok {
			break
		}
		chain = append(chain, c)
		name = c.SuperClass
	}
	// Apply from the root superclass down, so the most-derived class's
	// own default wins when names collide.
	for i := len(chain) - 1; i >= 0; i-- {
		for _, f := range chain[i].Fields {
			fields[f.Name] = f.Default
		}
	}
	return fields
}

// ResolveMethod implements spec.md §4.3's dispatch: search the receiver's
// class, then its superclass, then the superclass's superclass, and so on.
func (r *ClassRegistry) ResolveMethod(className, methodName string, funcs *FunctionRegistry) (*FunctionSignature, string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for name := className; name != ""; {
		c, ok := r.classes[name]
		if !ok {
			break
		}
		if sig, ok := funcs.Lookup(MethodKey(name, methodName)); ok {
			return sig, name, true
		}
		name = c.SuperClass
	}
	return nil, "", false
}

// ResolveSuperMethod implements "super:name": start the search at the
// receiver's superclass rather than its own class.
func (r *ClassRegistry) ResolveSuperMethod(className, methodName string, funcs *FunctionRegistry) (*FunctionSignature, string, bool) {
	r.mu.RLock()
	c, ok := r.classes[className]
	r.mu.RUnlock()
	if !ok || c.SuperClass == "" {
		return nil, "", false
	}
	return r.ResolveMethod(c.SuperClass, methodName, funcs)
}
