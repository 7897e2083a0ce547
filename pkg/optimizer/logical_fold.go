package optimizer

import (
	"dpc/pkg/ir"
	"dpc/pkg/mir"
)

// canonicalizeCondition flattens nested And/Or of the same kind into
// one flat child list, unwraps singleton combinators, and cancels
// double negation — a fixed point so any equivalent way of writing
// the same boolean tree normalizes to the same shape.
func canonicalizeCondition(c *ir.Condition) *ir.Condition {
	if c == nil {
		return nil
	}
	switch c.Kind {
	case ir.CondNot:
		inner := canonicalizeCondition(c.Operand)
		if inner.Kind == ir.CondNot {
			return inner.Operand
		}
		return &ir.Condition{Kind: ir.CondNot, Operand: inner}
	case ir.CondAnd, ir.CondOr, ir.CondXor:
		var flat []*ir.Condition
		for _, ch := range c.Children {
			cc := canonicalizeCondition(ch)
			if cc.Kind == c.Kind {
				flat = append(flat, cc.Children...)
			} else {
				flat = append(flat, cc)
			}
		}
		if len(flat) == 1 {
			return flat[0]
		}
		return &ir.Condition{Kind: c.Kind, Children: flat}
	default:
		return c
	}
}

func coreEqual(a, b mir.Instruction) bool {
	if a.Op != b.Op || a.Target != b.Target || a.Raw != b.Raw {
		return false
	}
	if !sameValue(a.Dest, b.Dest) {
		return false
	}
	if len(a.Args) != len(b.Args) {
		return false
	}
	for i := range a.Args {
		if !sameValue(a.Args[i], b.Args[i]) {
			return false
		}
	}
	return true
}

func soleIfCond(inst mir.Instruction) (*ir.Condition, bool) {
	if len(inst.Modifiers) != 1 || inst.Modifiers[0].Kind != ir.ModIf {
		return nil, false
	}
	return inst.Modifiers[0].Cond, true
}

// LogicalFoldPass canonicalizes condition trees and merges adjacent
// instructions that are identical except for a single If-guard into
// one instruction guarded by their Or — the transform a hand-written
// "if A { X } if B { X }" pattern (spec §4.2's manual-OR fold) needs
// to collapse into a single conditional command.
type LogicalFoldPass struct{}

func NewLogicalFoldPass() Pass { return &LogicalFoldPass{} }

func (p *LogicalFoldPass) Name() string { return "logical pattern fold" }

func (p *LogicalFoldPass) Run(m *mir.Module, fn *mir.Function) (bool, error) {
	changed := false

	for i := range fn.Instrs {
		for mi := range fn.Instrs[i].Modifiers {
			if fn.Instrs[i].Modifiers[mi].Cond == nil {
				continue
			}
			cc := canonicalizeCondition(fn.Instrs[i].Modifiers[mi].Cond)
			if cc != fn.Instrs[i].Modifiers[mi].Cond {
				fn.Instrs[i].Modifiers[mi].Cond = cc
				changed = true
			}
		}
	}

	out := make([]mir.Instruction, 0, len(fn.Instrs))
	for _, inst := range fn.Instrs {
		if len(out) > 0 && coreEqual(out[len(out)-1], inst) {
			prevCond, prevOK := soleIfCond(out[len(out)-1])
			curCond, curOK := soleIfCond(inst)
			if prevOK && curOK {
				merged := canonicalizeCondition(ir.Or(prevCond, curCond))
				out[len(out)-1].Modifiers = []ir.Modifier{{Kind: ir.ModIf, Cond: merged}}
				changed = true
				continue
			}
		}
		out = append(out, inst)
	}

	fn.Instrs = out
	return changed, nil
}
