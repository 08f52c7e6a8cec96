package bytecode

import (
	"fmt"
	"io"
)

// Disassemble writes a human-readable listing of prog to out, one line per
// instruction, in the teacher's "offset: MNEMONIC operand" convention
// (romualdo's DisassembleInstruction; barn's vm disassembly prints are more
// ad hoc, romualdo's is the cleaner grounding for a dedicated disassembler).
func Disassemble(prog *Program, out io.Writer, name string) {
	fmt.Fprintf(out, "== %s ==\n", name)
	for i, instr := range prog.Instructions {
		disassembleOne(out, prog, i, instr)
	}
}

func disassembleOne(out io.Writer, prog *Program, offset int, instr Instruction) {
	fmt.Fprintf(out, "%04d %-24s", offset, instr.Op.String())
	switch {
	case instr.StringValue != "":
		fmt.Fprintf(out, " %q", instr.StringValue)
		if instr.IntValue != 0 {
			fmt.Fprintf(out, " %d", instr.IntValue)
		}
	case instr.Op == OP_PUSH_CONST:
		if int(instr.IntValue) >= 0 && int(instr.IntValue) < len(prog.Constants) {
			fmt.Fprintf(out, " %s", prog.Constants[instr.IntValue].String())
		} else {
			fmt.Fprintf(out, " const#%d", instr.IntValue)
		}
	case instr.IntValue != 0:
		fmt.Fprintf(out, " %d", instr.IntValue)
	case instr.FloatValue != 0:
		fmt.Fprintf(out, " %g", instr.FloatValue)
	case instr.BoolValue:
		fmt.Fprintf(out, " %v", instr.BoolValue)
	}
	if instr.Line != 0 {
		fmt.Fprintf(out, "   ; line %d", instr.Line)
	}
	fmt.Fprintln(out)
}
