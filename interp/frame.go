package interp

import (
	"embervm/bytecode"
	"embervm/env"
	"embervm/registry"
	"embervm/value"
)

// CallFrame is pushed by CALL and popped by RETURN (spec.md §3's Call Frame
// record). previousEnv is restored verbatim on pop; closureEnv is non-nil
// only for calls into a closure body.
type CallFrame struct {
	FunctionName  string
	ReturnAddress int
	PreviousEnv   *env.Environment
	IsClosureCall bool
	ClosureEnv    *env.Environment
}

// Function-definition flag bits packed into BEGIN_FUNCTION's IntValue, since
// Instruction has no dedicated field for a function's declared-throws /
// fallible-return pair.
const (
	FuncFlagThrows         int64 = 1 << 0
	FuncFlagFallibleReturn int64 = 1 << 1
)

// runPrepass scans instrs once, registering every lambda-marked
// BEGIN_FUNCTION found anywhere in the program (spec.md §4.1) — including
// ones nested inside an enclosing non-lambda function's body, which is why
// this walks every instruction rather than jumping past an outer function's
// span once its own end is found.
func runPrepass(prog *bytecode.Program, funcs *registry.FunctionRegistry) {
	instrs := prog.Instructions
	for i := 0; i < len(instrs); i++ {
		instr := instrs[i]
		if instr.Op != bytecode.OP_BEGIN_FUNCTION || !isLambdaName(instr.StringValue) {
			continue
		}
		end, params, optParams, defaults := scanFunctionSignature(prog, i)
		funcs.Register(&registry.FunctionSignature{
			Name:               instr.StringValue,
			Parameters:         params,
			OptionalParameters: optParams,
			DefaultValues:      defaults,
			DeclaredThrows:     instr.IntValue&FuncFlagThrows != 0,
			ReturnTypeFallible: instr.IntValue&FuncFlagFallibleReturn != 0,
			StartAddress:       i,
			EndAddress:         end,
			IsLambda:           true,
		})
	}
}

func isLambdaName(name string) bool {
	if len(name) < len(bytecode.LambdaMarker) {
		return false
	}
	return name[:len(bytecode.LambdaMarker)] == bytecode.LambdaMarker
}

// scanFunctionSignature walks from a BEGIN_FUNCTION at startAddr to its
// matching END_FUNCTION (tracking nesting depth for nested function
// definitions), collecting the flat parameter/optional-parameter lists and
// any default values set by SET_DEFAULT_VALUE at the top nesting level.
// Defaults are required to be constant expressions: the instruction
// immediately preceding SET_DEFAULT_VALUE must be PUSH_CONST (see
// SPEC_FULL.md's resolution of default-value evaluation during a
// non-executing pre-pass).
func scanFunctionSignature(prog *bytecode.Program, startAddr int) (end int, params, optParams []string, defaults map[string]value.Value) {
	instrs := prog.Instructions
	defaults = make(map[string]value.Value)
	depth := 1
	i := startAddr + 1
	var lastOptional string
	for i < len(instrs) && depth > 0 {
		instr := instrs[i]
		switch instr.Op {
		case bytecode.OP_BEGIN_FUNCTION:
			depth++
		case bytecode.OP_END_FUNCTION:
			depth--
			if depth == 0 {
				return i, params, optParams, defaults
			}
		case bytecode.OP_DEFINE_PARAM:
			if depth == 1 {
				params = append(params, instr.StringValue)
			}
		case bytecode.OP_DEFINE_OPTIONAL_PARAM:
			if depth == 1 {
				optParams = append(optParams, instr.StringValue)
				lastOptional = instr.StringValue
			}
		case bytecode.OP_SET_DEFAULT_VALUE:
			if depth == 1 && lastOptional != "" && i > 0 && instrs[i-1].Op == bytecode.OP_PUSH_CONST {
				idx := instrs[i-1].IntValue
				if idx >= 0 && int(idx) < len(prog.Constants) {
					defaults[lastOptional] = prog.Constants[idx]
				}
			}
		}
		i++
	}
	return i, params, optParams, defaults
}

// bodyStart scans forward from a BEGIN_FUNCTION (or CREATE_CLOSURE target)
// at startAddr past parameter-definition opcodes and past any nested
// BEGIN_FUNCTION/END_FUNCTION pairs, returning the index of the first real
// body instruction (spec.md §4.5's closure-call body-start computation,
// reused for ordinary function calls too).
func bodyStart(instrs []bytecode.Instruction, startAddr int) int {
	i := startAddr + 1
	for i < len(instrs) {
		switch instrs[i].Op {
		case bytecode.OP_DEFINE_PARAM, bytecode.OP_DEFINE_OPTIONAL_PARAM, bytecode.OP_SET_DEFAULT_VALUE:
			i++
		case bytecode.OP_BEGIN_FUNCTION:
			depth := 1
			i++
			for depth > 0 && i < len(instrs) {
				switch instrs[i].Op {
				case bytecode.OP_BEGIN_FUNCTION:
					depth++
				case bytecode.OP_END_FUNCTION:
					depth--
				}
				i++
			}
		default:
			return i
		}
	}
	return i
}
