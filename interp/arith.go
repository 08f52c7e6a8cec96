package interp

import (
	"strings"

	"embervm/bytecode"
	"embervm/value"
)

// execArith implements ADD/SUB/MUL/DIV/MOD (spec.md §4.1): operands popped
// right-then-left, numeric promotion per value.Promote, string-`+`-anything
// concatenation, String*Int/Int*String repetition, division/mod-by-zero as
// a recoverable DivisionByZero error-union rather than an opcode panic, and
// fixed-width overflow as a recoverable ArithmeticError. UInt64 results are
// not range-checked and wrap.
func (i *Interpreter) execArith(op bytecode.OpCode) error {
	right := i.pop()
	left := i.pop()

	if atomicVal, ok := left.(value.AtomicValue); ok && op == bytecode.OP_ADD {
		if delta, ok := value.AsInt64(right); ok {
			i.push(value.NewInt64(atomicVal.FetchAdd(delta)))
			return nil
		}
	}
	if atomicVal, ok := left.(value.AtomicValue); ok && op == bytecode.OP_SUB {
		if delta, ok := value.AsInt64(right); ok {
			i.push(value.NewInt64(atomicVal.FetchSub(delta)))
			return nil
		}
	}

	if op == bytecode.OP_ADD {
		if ls, ok := left.(value.StringValue); ok {
			i.push(value.NewString(ls.Val + right.String()))
			return nil
		}
		if rs, ok := right.(value.StringValue); ok {
			if _, leftIsStr := left.(value.StringValue); !leftIsStr {
				i.push(value.NewString(left.String() + rs.Val))
				return nil
			}
		}
	}

	if op == bytecode.OP_MUL {
		if ls, ok := left.(value.StringValue); ok {
			return i.pushStringRepeat(ls.Val, right)
		}
		if rs, ok := right.(value.StringValue); ok {
			return i.pushStringRepeat(rs.Val, left)
		}
	}

	tag, ok := value.Promote(left, right)
	if !ok {
		i.push(value.Fail(value.ErrorValue{ErrorType: "TypeError", Message: "arithmetic requires numeric operands"}))
		return nil
	}

	lf, _ := value.AsFloat64(left)
	rf, _ := value.AsFloat64(right)

	if tag.IsFloat() {
		var result float64
		switch op {
		case bytecode.OP_ADD:
			result = lf + rf
		case bytecode.OP_SUB:
			result = lf - rf
		case bytecode.OP_MUL:
			result = lf * rf
		case bytecode.OP_DIV:
			if rf == 0 {
				i.push(value.Fail(value.ErrorValue{ErrorType: "DivisionByZero", Message: "division by zero"}))
				return nil
			}
			result = lf / rf
		case bytecode.OP_MOD:
			if rf == 0 {
				i.push(value.Fail(value.ErrorValue{ErrorType: "DivisionByZero", Message: "modulo by zero"}))
				return nil
			}
			result = float64(int64(lf) % int64(rf))
		}
		i.push(value.NewFloatOfTag(tag, result))
		return nil
	}

	li, _ := value.AsInt64(left)
	ri, _ := value.AsInt64(right)
	var result int64
	wrapped := false // signed 64-bit overflow, which overflows() cannot see
	switch op {
	case bytecode.OP_ADD:
		result = li + ri
		wrapped = (ri > 0 && result < li) || (ri < 0 && result > li)
	case bytecode.OP_SUB:
		result = li - ri
		wrapped = (ri > 0 && result > li) || (ri < 0 && result < li)
	case bytecode.OP_MUL:
		result = li * ri
		wrapped = li != 0 && (result/li != ri || (li == -1 && ri != 0 && ri == -ri))
	case bytecode.OP_DIV:
		if ri == 0 {
			i.push(value.Fail(value.ErrorValue{ErrorType: "DivisionByZero", Message: "division by zero"}))
			return nil
		}
		result = li / ri
		wrapped = ri == -1 && li != 0 && li == -li
	case bytecode.OP_MOD:
		if ri == 0 {
			i.push(value.Fail(value.ErrorValue{ErrorType: "DivisionByZero", Message: "modulo by zero"}))
			return nil
		}
		result = li % ri
	}
	if width := value.IntWidth(tag); (width > 0 && width < 64 && overflows(result, width, tag.IsUnsigned())) || (tag == value.TagInt64 && wrapped) {
		i.push(value.Fail(value.ErrorValue{ErrorType: "ArithmeticError", Message: "integer overflow"}))
		return nil
	}
	i.push(value.NewIntOfTag(tag, result))
	return nil
}

func overflows(v int64, width int, unsigned bool) bool {
	if unsigned {
		max := int64(1)<<uint(width) - 1
		return v < 0 || v > max
	}
	max := int64(1)<<uint(width-1) - 1
	min := -(int64(1) << uint(width-1))
	return v < min || v > max
}

func (i *Interpreter) pushStringRepeat(s string, countVal value.Value) error {
	n, ok := value.AsInt64(countVal)
	if !ok {
		i.push(value.Fail(value.ErrorValue{ErrorType: "TypeError", Message: "string repeat count must be numeric"}))
		return nil
	}
	if n < 0 {
		i.push(value.Fail(value.ErrorValue{ErrorType: "TypeError", Message: "string repeat count must not be negative"}))
		return nil
	}
	i.push(value.NewString(strings.Repeat(s, int(n))))
	return nil
}

func (i *Interpreter) execNeg() error {
	v := i.pop()
	switch n := v.(type) {
	case value.IntValue:
		i.push(value.NewIntOfTag(n.Tag, -n.Val))
	case value.FloatValue:
		i.push(value.NewFloatOfTag(n.Tag, -n.Val))
	default:
		i.push(value.Fail(value.ErrorValue{ErrorType: "TypeError", Message: "negation requires a numeric operand"}))
	}
	return nil
}

// execCompare implements EQ/NE/LT/LE/GT/GE (spec.md §4.1): numeric
// promotion for numerics, lexicographic for strings, reference/structural
// Equal for everything else (ordering across non-numeric types fails with
// a type error), `nil == nil` true.
func (i *Interpreter) execCompare(op bytecode.OpCode) error {
	right := i.pop()
	left := i.pop()

	if op == bytecode.OP_EQ {
		i.push(value.NewBool(left.Equal(right)))
		return nil
	}
	if op == bytecode.OP_NE {
		i.push(value.NewBool(!left.Equal(right)))
		return nil
	}

	if ls, lok := left.(value.StringValue); lok {
		if rs, rok := right.(value.StringValue); rok {
			i.push(value.NewBool(compareOrdering(op, strings.Compare(ls.Val, rs.Val))))
			return nil
		}
	}

	if _, ok := value.Promote(left, right); ok {
		lf, _ := value.AsFloat64(left)
		rf, _ := value.AsFloat64(right)
		cmp := 0
		switch {
		case lf < rf:
			cmp = -1
		case lf > rf:
			cmp = 1
		}
		i.push(value.NewBool(compareOrdering(op, cmp)))
		return nil
	}

	i.push(value.Fail(value.ErrorValue{ErrorType: "TypeError", Message: "ordering requires comparable operands"}))
	return nil
}

func compareOrdering(op bytecode.OpCode, cmp int) bool {
	switch op {
	case bytecode.OP_LT:
		return cmp < 0
	case bytecode.OP_LE:
		return cmp <= 0
	case bytecode.OP_GT:
		return cmp > 0
	case bytecode.OP_GE:
		return cmp >= 0
	default:
		return false
	}
}

// execLogical implements `and`/`or` (spec.md §4.1): both operands are
// evaluated (short-circuiting is expressed in the bytecode via conditional
// jumps, not here), coerced to bool by standard truthiness.
func (i *Interpreter) execLogical(op bytecode.OpCode) error {
	right := i.pop()
	left := i.pop()
	lt, rt := value.Truthy(left), value.Truthy(right)
	if op == bytecode.OP_AND {
		i.push(value.NewBool(lt && rt))
	} else {
		i.push(value.NewBool(lt || rt))
	}
	return nil
}
