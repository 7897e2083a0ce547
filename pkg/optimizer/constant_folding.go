package optimizer

import (
	"dpc/pkg/ir"
	"dpc/pkg/mir"
)

// ConstantFoldingPass propagates known-literal registers forward
// through a function, folds binary ops whose operands are both
// literals, and resolves execute guards whose condition is fully
// literal — dropping the instruction when the guard can never hold
// and stripping the modifier when it always does (spec §4.2).
type ConstantFoldingPass struct{}

func NewConstantFoldingPass() Pass { return &ConstantFoldingPass{} }

func (p *ConstantFoldingPass) Name() string { return "constant folding" }

func (p *ConstantFoldingPass) Run(m *mir.Module, fn *mir.Function) (bool, error) {
	known := make(map[string]ir.Value)
	changed := false
	out := make([]mir.Instruction, 0, len(fn.Instrs))

	substitute := func(v ir.Value) ir.Value {
		if k, ok := regKey(fn, v); ok {
			if cv, ok2 := known[k]; ok2 {
				changed = true
				return cv
			}
		}
		return v
	}

	for _, orig := range fn.Instrs {
		inst := orig.Clone()

		for i, a := range inst.Args {
			inst.Args[i] = substitute(a)
		}
		for mi := range inst.Modifiers {
			if inst.Modifiers[mi].Cond != nil {
				inst.Modifiers[mi].Cond = mapCondition(inst.Modifiers[mi].Cond, substitute)
			}
		}

		if mod, idx := inst.IfGuard(); mod != nil {
			if val, ok := foldConstCondition(mod.Cond); ok {
				holds := val
				if mod.Kind == ir.ModUnless {
					holds = !val
				}
				changed = true
				if !holds {
					continue // guard never holds: drop the instruction
				}
				inst.Modifiers = append(append([]ir.Modifier{}, inst.Modifiers[:idx]...), inst.Modifiers[idx+1:]...)
			}
		}

		// A write under a remaining modifier may not run, so the
		// register's value afterwards is not known.
		conditional := len(inst.Modifiers) > 0

		if inst.Op.IsBinaryArith() {
			if destKey, ok := regKey(fn, inst.Dest); ok {
				if destVal, ok2 := known[destKey]; ok2 && !conditional {
					if result, folded := foldConstBinary(inst.Op, destVal, inst.Args[0]); folded {
						inst.Op = mir.OpSet
						inst.Args = []ir.Value{result}
						known[destKey] = result
						changed = true
						out = append(out, inst)
						continue
					}
				}
				delete(known, destKey)
			}
			out = append(out, inst)
			continue
		}

		switch inst.Op {
		case mir.OpSet, mir.OpMove:
			if destKey, ok := regKey(fn, inst.Dest); ok {
				if inst.Args[0].IsConst() && !conditional {
					known[destKey] = inst.Args[0]
				} else {
					delete(known, destKey)
				}
			}
		case mir.OpCall, mir.OpCallX:
			// A callee may write into this function's register
			// namespace (ifbody_N/while helpers share it), so every
			// tracked constant is suspect after a call.
			known = make(map[string]ir.Value)
		default:
			if d, ok := instrDef(inst); ok {
				if destKey, ok2 := regKey(fn, d); ok2 {
					delete(known, destKey)
				}
			}
		}

		out = append(out, inst)
	}

	fn.Instrs = out
	return changed, nil
}
