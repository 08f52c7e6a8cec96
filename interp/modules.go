package interp

import (
	"strings"

	"embervm/bytecode"
	"embervm/env"
	"embervm/errmach"
	"embervm/registry"
	"embervm/value"
)

// ModuleCode is what a Module value's Code field holds (spec.md §4.4):
// the child VM's compiled program plus its own function/class registries,
// so a later module-function CALL can resolve and execute it without
// merging instruction spaces with the importing VM. Built by package
// moduleloader after running the child VM to completion.
type ModuleCode struct {
	Program *bytecode.Program
	Funcs   *registry.FunctionRegistry
	Classes *registry.ClassRegistry
}

// importSequence accumulates the state of one IMPORT_MODULE ...
// IMPORT_EXECUTE run (spec.md §4.4).
type importSequence struct {
	path        string
	alias       string
	show        []string
	hide        []string
	identifiers []string
}

func (i *Interpreter) execImportOp(instr bytecode.Instruction) error {
	switch instr.Op {
	case bytecode.OP_IMPORT_MODULE:
		i.importSeq = &importSequence{path: instr.StringValue}
		return nil
	case bytecode.OP_IMPORT_ALIAS:
		if i.importSeq == nil {
			return fatalf("IMPORT_ALIAS outside an import sequence")
		}
		i.importSeq.alias = instr.StringValue
		return nil
	case bytecode.OP_IMPORT_FILTER_SHOW:
		if i.importSeq == nil {
			return fatalf("IMPORT_FILTER_SHOW outside an import sequence")
		}
		i.importSeq.show = append(i.importSeq.show, instr.StringValue)
		return nil
	case bytecode.OP_IMPORT_FILTER_HIDE:
		if i.importSeq == nil {
			return fatalf("IMPORT_FILTER_HIDE outside an import sequence")
		}
		i.importSeq.hide = append(i.importSeq.hide, instr.StringValue)
		return nil
	case bytecode.OP_IMPORT_ADD_IDENTIFIER:
		if i.importSeq == nil {
			return fatalf("IMPORT_ADD_IDENTIFIER outside an import sequence")
		}
		i.importSeq.identifiers = append(i.importSeq.identifiers, instr.StringValue)
		return nil
	case bytecode.OP_IMPORT_EXECUTE:
		return i.execImportExecute()
	default:
		return fatalf("execImportOp: unexpected opcode %s", instr.Op)
	}
}

// execImportExecute resolves the accumulated import sequence to a Module
// value (spec.md §4.4): resolve path, check the cache, otherwise ask the
// ModuleLoader to instantiate and run a child VM, apply the Show/Hide
// filter, and bind the result under the alias (or the module's basename).
func (i *Interpreter) execImportExecute() error {
	seq := i.importSeq
	i.importSeq = nil
	if seq == nil {
		return fatalf("IMPORT_EXECUTE without a preceding IMPORT_MODULE")
	}

	mod, ok := i.moduleCache[seq.path]
	if !ok {
		if i.Loader == nil {
			return fatalf("import %q: no module loader configured", seq.path)
		}
		loaded, err := i.Loader.Load(seq.path)
		if err != nil {
			return fatalf("import %q: %v", seq.path, err)
		}
		mod = loaded
		i.moduleCache[seq.path] = mod
	}

	filtered, err := applyImportFilter(mod, seq)
	if err != nil {
		return err
	}

	alias := seq.alias
	if alias == "" {
		alias = basename(seq.path)
	}
	i.curEnv.Define(alias, filtered, env.Public)
	return nil
}

func applyImportFilter(mod value.ModuleValue, seq *importSequence) (value.ModuleValue, error) {
	if len(seq.show) == 0 && len(seq.hide) == 0 {
		return mod, nil
	}
	modEnv, _ := mod.Env.(*env.Environment)
	if modEnv == nil {
		return mod, nil
	}
	filteredEnv := env.New()

	if len(seq.show) > 0 {
		for _, name := range seq.show {
			v, ok := modEnv.Get(name)
			if !ok {
				return value.ModuleValue{}, fatalf("import %q: show list names undefined member %q", mod.Path, name)
			}
			filteredEnv.Define(name, v, env.Public)
		}
	} else {
		hidden := make(map[string]bool, len(seq.hide))
		for _, name := range seq.hide {
			hidden[name] = true
		}
		for _, name := range modEnv.Names() {
			if hidden[name] {
				continue
			}
			v, _ := modEnv.Get(name)
			filteredEnv.Define(name, v, env.Public)
		}
	}
	for _, name := range seq.identifiers {
		if v, ok := modEnv.Get(name); ok {
			filteredEnv.Define(name, v, env.Public)
		}
	}

	return value.ModuleValue{Path: mod.Path, Env: filteredEnv, Code: mod.Code}, nil
}

// basename returns the last dotted segment of an import path, e.g.
// "a.b.c" -> "c" (spec.md §4.4's default binding name).
func basename(path string) string {
	idx := strings.LastIndex(path, ".")
	if idx < 0 {
		return path
	}
	return path[idx+1:]
}

// invokeModuleFunction implements CALL step (8): a previously-resolved
// module function table lookup. It looks name up in resolvedModuleFuncs,
// which GET_PROPERTY fills whenever a module member resolves to a function;
// on a hit it runs that function via invokeModuleFunctionValue, otherwise it
// reports no match. A ModuleFunctionValue on the stack is handled directly
// in execCall by invokeModuleFunctionValue.
func (i *Interpreter) invokeModuleFunction(name string, argc int) (bool, error) {
	mfv, ok := i.resolvedModuleFuncs[name]
	if !ok {
		return false, nil
	}
	return true, i.invokeModuleFunctionValue(mfv, argc)
}

// invokeModuleFunctionValue runs a module's function to completion in a
// transient sub-interpreter scoped to that module's own program and
// registries, mirroring the task-VM idiom (package concurrency) of running
// a subordinate Interpreter instance rather than splicing instruction
// spaces together.
func (i *Interpreter) invokeModuleFunctionValue(mfv value.ModuleFunctionValue, argc int) error {
	mod, ok := i.moduleCache[mfv.ModulePath]
	if !ok {
		return fatalf("CALL: module %q is not loaded", mfv.ModulePath)
	}
	code, ok := mod.Code.(ModuleCode)
	if !ok || code.Funcs == nil {
		return fatalf("CALL: module %q has no executable code", mfv.ModulePath)
	}
	sig, ok := code.Funcs.Lookup(mfv.Name)
	if !ok {
		return fatalf("CALL: module %q has no function %q", mfv.ModulePath, mfv.Name)
	}
	if argc < 0 || argc > len(i.stack) {
		return fatalf("CALL %s.%s: stack underflow for %d arguments", mfv.ModulePath, mfv.Name, argc)
	}
	args := make([]value.Value, argc)
	for k := argc - 1; k >= 0; k-- {
		args[k] = i.pop()
	}

	sub := &Interpreter{
		Program:     code.Program,
		Funcs:       code.Funcs,
		Classes:     code.Classes,
		Closures:    i.Closures,
		Errors:      errmach.NewMachine(),
		Globals:     i.Globals,
		Natives:     i.Natives,
		Loader:      i.Loader,
		Runner:      i.Runner,
		curEnv:      i.Globals,
		moduleCache: i.moduleCache,
	}
	for _, a := range args {
		sub.push(a)
	}
	callEnv, err := sub.bindParameters(sig, argc, sub.Globals)
	if err != nil {
		return err
	}
	sub.pushCallFrame(sig, callEnv, false, nil)
	sub.ip = bodyStart(sub.Program.Instructions, sig.StartAddress)

	result, err := sub.Run()
	if err != nil {
		return err
	}
	i.push(result)
	return nil
}
