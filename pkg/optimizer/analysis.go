package optimizer

import (
	"fmt"

	"dpc/pkg/ir"
	"dpc/pkg/mir"
)

// regKey returns the dataflow key a trackable Value occupies: a
// function-local register, namespaced so ifbody_N/while helper
// functions share their parent's slots, or a globally-shared named
// slot (ArgSlot/ReturnSlot), which is already a unique string.
// Scoreboard cells, NBT paths and call-site arg placeholders read
// live game state and are never trackable.
func regKey(fn *mir.Function, v ir.Value) (string, bool) {
	switch v.Kind {
	case ir.VReg:
		return fmt.Sprintf("%s.r%d", fn.Namespace(), v.Reg), true
	case ir.VNamedSlot:
		return v.SlotName, true
	default:
		return "", false
	}
}

// conditionOperands collects every leaf Value a condition tree reads.
func conditionOperands(c *ir.Condition) []ir.Value {
	if c == nil {
		return nil
	}
	switch c.Kind {
	case ir.CondCompare:
		return []ir.Value{c.A, c.B}
	case ir.CondExists:
		return []ir.Value{c.Value}
	case ir.CondAnd, ir.CondOr, ir.CondXor:
		var out []ir.Value
		for _, ch := range c.Children {
			out = append(out, conditionOperands(ch)...)
		}
		return out
	case ir.CondNot:
		return conditionOperands(c.Operand)
	default:
		return nil
	}
}

// mapCondition returns a deep copy of c with every leaf Value passed
// through f — used to substitute known-constant registers into a
// guard before trying to fold it.
func mapCondition(c *ir.Condition, f func(ir.Value) ir.Value) *ir.Condition {
	if c == nil {
		return nil
	}
	cp := c.Clone()
	switch cp.Kind {
	case ir.CondCompare:
		cp.A, cp.B = f(cp.A), f(cp.B)
	case ir.CondExists:
		cp.Value = f(cp.Value)
	case ir.CondAnd, ir.CondOr, ir.CondXor:
		for i, ch := range cp.Children {
			cp.Children[i] = mapCondition(ch, f)
		}
	case ir.CondNot:
		cp.Operand = mapCondition(cp.Operand, f)
	}
	return cp
}

// instrReads reports every Value an instruction reads: its argument
// list, the implicit current value of Dest for in-place arithmetic
// ops, and every leaf of every modifier's condition.
func instrReads(inst mir.Instruction) []ir.Value {
	var out []ir.Value
	out = append(out, inst.Args...)
	if inst.Op.IsBinaryArith() {
		out = append(out, inst.Dest)
	}
	for _, m := range inst.Modifiers {
		out = append(out, conditionOperands(m.Cond)...)
	}
	return out
}

// instrDef returns the Value an instruction defines, if any.
func instrDef(inst mir.Instruction) (ir.Value, bool) {
	switch inst.Op {
	case mir.OpSet, mir.OpMove, mir.OpAdd, mir.OpSub, mir.OpMul, mir.OpDiv, mir.OpMod,
		mir.OpMin, mir.OpMax, mir.OpAnd, mir.OpOr, mir.OpXor, mir.OpMerge:
		return inst.Dest, true
	default:
		return ir.Value{}, false
	}
}
