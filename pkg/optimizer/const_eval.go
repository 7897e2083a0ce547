package optimizer

import (
	"dpc/pkg/ir"
	"dpc/pkg/mir"
)

// foldConstBinary evaluates dest-op-arg at compile time when both
// sides are literals, returning the folded literal and true. It
// refuses to fold division or modulo by a literal zero — that stays
// as a real instruction so codegen reproduces the game's own error
// behavior instead of the compiler silently picking a result.
func foldConstBinary(op mir.Opcode, dest, arg ir.Value) (ir.Value, bool) {
	if !dest.IsConst() || !arg.IsConst() {
		return ir.Value{}, false
	}
	t := dest.Type

	if t.IsFloat() {
		a, b := constFloat(dest), constFloat(arg)
		switch op {
		case mir.OpAdd:
			return ir.ConstFloat(t, a+b), true
		case mir.OpSub:
			return ir.ConstFloat(t, a-b), true
		case mir.OpMul:
			return ir.ConstFloat(t, a*b), true
		case mir.OpDiv:
			if b == 0 {
				return ir.Value{}, false
			}
			return ir.ConstFloat(t, a/b), true
		case mir.OpMin:
			if a < b {
				return ir.ConstFloat(t, a), true
			}
			return ir.ConstFloat(t, b), true
		case mir.OpMax:
			if a > b {
				return ir.ConstFloat(t, a), true
			}
			return ir.ConstFloat(t, b), true
		default:
			return ir.Value{}, false
		}
	}

	a, b := dest.ConstInt, arg.ConstInt
	switch op {
	case mir.OpAdd:
		return ir.ConstInt(t, a+b), true
	case mir.OpSub:
		return ir.ConstInt(t, a-b), true
	case mir.OpMul:
		return ir.ConstInt(t, a*b), true
	case mir.OpDiv:
		if b == 0 {
			return ir.Value{}, false
		}
		return ir.ConstInt(t, a/b), true
	case mir.OpMod:
		if b == 0 {
			return ir.Value{}, false
		}
		return ir.ConstInt(t, a%b), true
	case mir.OpMin:
		if a < b {
			return ir.ConstInt(t, a), true
		}
		return ir.ConstInt(t, b), true
	case mir.OpMax:
		if a > b {
			return ir.ConstInt(t, a), true
		}
		return ir.ConstInt(t, b), true
	case mir.OpAnd:
		return ir.ConstInt(t, a&b), true
	case mir.OpOr:
		return ir.ConstInt(t, a|b), true
	case mir.OpXor:
		return ir.ConstInt(t, a^b), true
	default:
		return ir.Value{}, false
	}
}

func constFloat(v ir.Value) float64 {
	if v.Type.IsFloat() {
		return v.ConstFloat
	}
	return float64(v.ConstInt)
}

// foldConstCompare evaluates a CmpOp over two literals.
func foldConstCompare(op ir.CmpOp, a, b ir.Value) bool {
	af, bf := constFloat(a), constFloat(b)
	switch op {
	case ir.CmpEq:
		return af == bf
	case ir.CmpNe:
		return af != bf
	case ir.CmpLt:
		return af < bf
	case ir.CmpLe:
		return af <= bf
	case ir.CmpGt:
		return af > bf
	case ir.CmpGe:
		return af >= bf
	default:
		return false
	}
}

// foldConstCondition tries to resolve a condition tree to a literal
// bool; ok is false wherever a leaf is not a known literal or the
// condition kind reads live game state (predicate/data/block/biome
// checks, which CondRaw-folding never touches).
func foldConstCondition(c *ir.Condition) (bool, bool) {
	switch c.Kind {
	case ir.CondRaw:
		return c.Bool, true
	case ir.CondCompare:
		if !c.A.IsConst() || !c.B.IsConst() {
			return false, false
		}
		return foldConstCompare(c.Op, c.A, c.B), true
	case ir.CondNot:
		v, ok := foldConstCondition(c.Operand)
		return !v, ok
	case ir.CondAnd:
		for _, ch := range c.Children {
			v, ok := foldConstCondition(ch)
			if !ok {
				return false, false
			}
			if !v {
				return false, true
			}
		}
		return true, true
	case ir.CondOr:
		for _, ch := range c.Children {
			v, ok := foldConstCondition(ch)
			if !ok {
				return false, false
			}
			if v {
				return true, true
			}
		}
		return false, true
	case ir.CondXor:
		count := 0
		for _, ch := range c.Children {
			v, ok := foldConstCondition(ch)
			if !ok {
				return false, false
			}
			if v {
				count++
			}
		}
		return count%2 == 1, true
	default:
		return false, false
	}
}
