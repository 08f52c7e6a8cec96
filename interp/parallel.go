package interp

import "embervm/bytecode"

// execBeginBlock handles BEGIN_PARALLEL/BEGIN_CONCURRENT: instr.StringValue
// carries the "key=value,..." parameter string (spec.md §4.6/§6).
func (i *Interpreter) execBeginBlock(instr bytecode.Instruction) error {
	if i.Runner == nil {
		return fatalf("%s: no concurrency runtime configured", instr.Op)
	}
	kind := "parallel"
	if instr.Op == bytecode.OP_BEGIN_CONCURRENT {
		kind = "concurrent"
	}
	return i.Runner.BeginBlock(kind, instr.StringValue)
}

func (i *Interpreter) execEndBlock() error {
	if i.Runner == nil {
		return fatalf("END_PARALLEL/END_CONCURRENT: no concurrency runtime configured")
	}
	return i.Runner.EndBlock()
}

func (i *Interpreter) execBeginTask(varName string) error {
	if i.Runner == nil {
		return fatalf("BEGIN_TASK: no concurrency runtime configured")
	}
	i.Runner.BeginTask(varName)
	return nil
}

func (i *Interpreter) execStoreIterable() error {
	if i.Runner == nil {
		return fatalf("STORE_ITERABLE: no concurrency runtime configured")
	}
	return i.Runner.StoreIterable(i.pop())
}

func (i *Interpreter) execEndTask() error {
	if i.Runner == nil {
		return fatalf("END_TASK: no concurrency runtime configured")
	}
	i.Runner.EndTask()
	return nil
}
