// Package natives registers the VM's native function surface (spec.md §6):
// validated natives, whose argument count is checked against a declared
// arity before invocation, and builtins, which are not. Grounded on the
// teacher's builtins.Registry (builtins/registry.go), which registers a
// large, flat table of Go functions under string names against a
// *types.TaskContext — generalized here from MOO's task-context-carrying
// builtins to this VM's (args []value.Value) (value.Value, error) shape,
// with the validated/unvalidated split spec.md §6 adds on top.
package natives

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"embervm/interp"
)

// Spec is one validated native's declared signature, as read from a YAML
// manifest (SPEC_FULL.md's domain-stack wiring: "natives package: the
// validated native registration path reads a natives.yaml manifest
// describing each native's declared parameter arity").
type Spec struct {
	Arity int `yaml:"arity"`
}

// Manifest maps a validated native's name to its declared Spec.
type Manifest map[string]Spec

// LoadManifest reads a YAML file of the form:
//
//	length: {arity: 1}
//	abs:    {arity: 1}
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("natives: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("natives: parsing %s: %w", path, err)
	}
	return m, nil
}

// RegisterAll registers every native in Builtins (the language's always-
// unchecked standard library surface) and, for every name in manifest that
// also has an implementation in Validated, registers it arity-checked
// instead of plain. Names present only in Validated and absent from
// manifest are skipped — a native with no declared arity has no validated
// path to register it onto (spec.md §6's two paths are mutually exclusive
// per name).
func RegisterAll(vm *interp.Interpreter, manifest Manifest) {
	for name, fn := range Builtins {
		if _, validated := Validated[name]; validated {
			continue
		}
		vm.RegisterBuiltin(name, fn)
	}
	for name, fn := range Validated {
		spec, ok := manifest[name]
		if !ok {
			continue
		}
		vm.RegisterValidated(name, spec.Arity, fn)
	}
}
