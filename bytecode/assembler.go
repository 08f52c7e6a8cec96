package bytecode

import (
	"fmt"
	"strconv"
	"strings"
)

var nameToOpCode = func() map[string]OpCode {
	m := make(map[string]OpCode, len(opCodeNames))
	for op, name := range opCodeNames {
		m[name] = op
	}
	return m
}()

// Assemble parses one textual instruction line of the form
// "MNEMONIC [operand]" into an Instruction, using the mnemonics the
// disassembler prints (it does not read back a Disassemble line: there is no
// address column, and PUSH_CONST takes a constant index where Disassemble
// prints the constant's value), used by the repl to accept a hand-typed instruction at a time (spec.md
// §6's instruction encoding is exactly this record shape; Assemble just
// gives it a line-oriented textual surface). The operand is a double-quoted
// string, an integer, a float (if it contains a '.'), or "true"/"false".
func Assemble(line string) (Instruction, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Instruction{}, fmt.Errorf("assemble: empty line")
	}
	fields := strings.SplitN(line, " ", 2)
	mnemonic := strings.ToUpper(fields[0])
	op, ok := nameToOpCode[mnemonic]
	if !ok {
		return Instruction{}, fmt.Errorf("assemble: unknown mnemonic %q", fields[0])
	}
	if len(fields) == 1 {
		return Op(op), nil
	}
	operand := strings.TrimSpace(fields[1])

	if strings.HasPrefix(operand, "\"") && strings.HasSuffix(operand, "\"") && len(operand) >= 2 {
		return OpStr(op, operand[1:len(operand)-1]), nil
	}
	if operand == "true" {
		return OpBool(op, true), nil
	}
	if operand == "false" {
		return OpBool(op, false), nil
	}
	if strings.Contains(operand, ".") {
		f, err := strconv.ParseFloat(operand, 64)
		if err != nil {
			return Instruction{}, fmt.Errorf("assemble: %q: %w", operand, err)
		}
		return OpFloat(op, f), nil
	}
	n, err := strconv.ParseInt(operand, 10, 64)
	if err != nil {
		return Instruction{}, fmt.Errorf("assemble: %q: %w", operand, err)
	}
	return OpInt(op, n), nil
}
