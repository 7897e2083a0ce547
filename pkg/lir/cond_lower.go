package lir

import (
	"dpc/pkg/ir"
	"dpc/pkg/types"
)

// lowerModifiers replaces every If/Unless modifier's condition tree
// with the execute-modifier clauses codegen can emit directly (spec
// §4.3): AND becomes several chained if/unless clauses on the same
// instruction (vanilla execute already ANDs consecutive clauses), OR
// becomes a scratch counter incremented once per true child and
// guarded on "count >= 1", XOR the same counter reduced mod 2 and
// guarded on "count == 1". Clauses preceding an If/Unless in the
// original stack (as/at/positioned/store) pass through untouched.
func (c *lowerCtx) lowerModifiers(mods []ir.Modifier) ([]Instruction, []ir.Modifier) {
	var pre []Instruction
	var out []ir.Modifier
	for _, mod := range mods {
		if mod.Kind != ir.ModIf && mod.Kind != ir.ModUnless {
			out = append(out, mod)
			continue
		}
		wantTrue := mod.Kind == ir.ModIf
		p, clauses := c.lowerCondition(mod.Cond, wantTrue)
		pre = append(pre, p...)
		out = append(out, clauses...)
	}
	return pre, out
}

func (c *lowerCtx) lowerCondition(cond *ir.Condition, wantTrue bool) ([]Instruction, []ir.Modifier) {
	if cond == nil {
		return nil, nil
	}
	switch cond.Kind {
	case ir.CondNot:
		return c.lowerCondition(cond.Operand, !wantTrue)

	case ir.CondAnd:
		if !wantTrue {
			return c.lowerCondition(deMorgan(cond, ir.CondOr), true)
		}
		var pre []Instruction
		var clauses []ir.Modifier
		for _, ch := range cond.Children {
			p, cl := c.lowerCondition(ch, true)
			pre = append(pre, p...)
			clauses = append(clauses, cl...)
		}
		return pre, clauses

	case ir.CondOr:
		if !wantTrue {
			return c.lowerCondition(deMorgan(cond, ir.CondAnd), true)
		}
		return c.lowerCounterGuard(cond.Children, false)

	case ir.CondXor:
		pre, clauses := c.lowerCounterGuard(cond.Children, true)
		if !wantTrue {
			// flip the final parity comparison: != 1 instead of == 1
			for i := range clauses {
				if clauses[i].Cond != nil && clauses[i].Cond.Kind == ir.CondCompare {
					clauses[i].Cond.Op = clauses[i].Cond.Op.Negate()
				}
			}
		}
		return pre, clauses

	default: // leaf: compare / exists / predicate / data-present / block / biome / raw
		leaf, bridgePre := c.bridgeLeafCondition(cond)
		kind := ir.ModIf
		if !wantTrue {
			kind = ir.ModUnless
		}
		return bridgePre, []ir.Modifier{{Kind: kind, Cond: leaf}}
	}
}

func deMorgan(cond *ir.Condition, newKind ir.CondKind) *ir.Condition {
	children := make([]*ir.Condition, len(cond.Children))
	for i, ch := range cond.Children {
		children[i] = ir.Not(ch)
	}
	return &ir.Condition{Kind: newKind, Children: children}
}

// lowerCounterGuard materializes a scratch scoreboard counter,
// incremented by one for every child condition that holds, then
// guards on count>=1 (OR) or count==1 after reducing mod 2 (XOR).
func (c *lowerCtx) lowerCounterGuard(children []*ir.Condition, xor bool) ([]Instruction, []ir.Modifier) {
	counter := ir.RegVal(types.Score, c.fn.AllocReg())
	pre := []Instruction{{Op: OpScoreSet, Dest: counter, Args: []ir.Value{ir.ConstInt(types.Score, 0)}}}

	for _, ch := range children {
		p, clauses := c.lowerCondition(ch, true)
		pre = append(pre, p...)
		pre = append(pre, Instruction{
			Op:        OpScoreAdd,
			Dest:      counter,
			Args:      []ir.Value{ir.ConstInt(types.Score, 1)},
			Modifiers: clauses,
		})
	}

	op := ir.CmpGe
	target := int64(1)
	if xor {
		pre = append(pre, Instruction{Op: OpScoreMod, Dest: counter, Args: []ir.Value{ir.ConstInt(types.Score, 2)}})
		op = ir.CmpEq
	}
	guard := ir.Compare(op, counter, ir.ConstInt(types.Score, target))
	return pre, []ir.Modifier{{Kind: ir.ModIf, Cond: guard}}
}

// bridgeLeafCondition rewrites any NBT-domain operand of a leaf
// condition into a scratch scoreboard register (mirrors
// bridgeCondition's old per-leaf behavior, now reached only at
// genuine leaves since And/Or/Xor/Not are structurally resolved
// above it).
func (c *lowerCtx) bridgeLeafCondition(cond *ir.Condition) (*ir.Condition, []Instruction) {
	if cond.Kind != ir.CondCompare {
		return cond, nil
	}
	var pre []Instruction
	a, pa := c.bridgeOperand(cond.A, nil)
	pre = append(pre, pa...)
	b, pb := c.bridgeOperand(cond.B, nil)
	pre = append(pre, pb...)
	return &ir.Condition{Kind: ir.CondCompare, Op: cond.Op, A: a, B: b}, pre
}
