package main

import (
	"os"
	"path/filepath"
	"strings"

	"embervm/bytecode"
	"embervm/concurrency"
	"embervm/config"
	"embervm/env"
	"embervm/interp"
	"embervm/moduleloader"
	"embervm/natives"
	"embervm/trace"
)

// traceEnabled and traceFilter back the --trace flag shared by run/repl
// (registered in cmd.go), mirroring stackedboxes-romualdo's cmd_run.go
// runDebugTraceExecution flag.
var (
	traceEnabled bool
	traceFilter  string
)

// buildVM wires one Interpreter instance with the full ambient stack: a
// loaded (or default) config, the work-stealing concurrency runtime, the
// native function tables, a module loader rooted next to the program being
// run, and — when --trace is set — a CALL/RETURN tracer on stderr.
func buildVM(prog *bytecode.Program, programPath string) (*interp.Interpreter, *concurrency.WorkStealingPool, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, nil, err
		}
		cfg = loaded
	}

	globals := env.New()
	vm := interp.New(prog, globals)

	if traceEnabled {
		var filters []string
		if traceFilter != "" {
			filters = strings.Split(traceFilter, ",")
		}
		vm.Tracer = trace.New(true, filters, os.Stderr)
	}

	manifest, err := natives.LoadManifest(nativesManifestPath)
	if err != nil {
		manifest = natives.Manifest{}
	}
	natives.RegisterAll(vm, manifest)

	chans := concurrency.NewChannelManager()
	sched := concurrency.NewScheduler(64)
	pool := concurrency.NewWorkStealingPool(cfg.WorkerCount, sched)
	runner := concurrency.NewRunner(vm, pool, sched, chans, cfg.RetryLimit)
	vm.Runner = runner

	loader := moduleloader.NewFileLoader(filepath.Dir(programPath), globals, moduleloader.LoadGob)
	loader.Runner = runner
	vm.Loader = loader

	return vm, pool, nil
}
