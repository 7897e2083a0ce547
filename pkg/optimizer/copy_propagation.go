package optimizer

import (
	"dpc/pkg/ir"
	"dpc/pkg/mir"
)

// CopyPropagationPass follows chains of "set/move dest, src" and
// rewrites later reads of dest directly from src, so a subsequent
// dead-code pass can drop the now-redundant intermediate register
// (spec §4.2's copy propagation / register reuse entry).
type CopyPropagationPass struct{}

func NewCopyPropagationPass() Pass { return &CopyPropagationPass{} }

func (p *CopyPropagationPass) Name() string { return "copy propagation" }

func (p *CopyPropagationPass) Run(m *mir.Module, fn *mir.Function) (bool, error) {
	copyOf := make(map[string]ir.Value)
	changed := false
	out := make([]mir.Instruction, 0, len(fn.Instrs))

	substitute := func(v ir.Value) ir.Value {
		if k, ok := regKey(fn, v); ok {
			if src, ok2 := copyOf[k]; ok2 {
				changed = true
				return src
			}
		}
		return v
	}

	invalidate := func(key string) {
		delete(copyOf, key)
		for k, v := range copyOf {
			if sk, ok := regKey(fn, v); ok && sk == key {
				delete(copyOf, k)
			}
		}
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
		if inst.Op.IsBinaryArith() {
			inst.Dest = substitute(inst.Dest)
		}

		switch inst.Op {
		case mir.OpSet, mir.OpMove:
			destKey, ok := regKey(fn, inst.Dest)
			if ok {
				invalidate(destKey)
				src := inst.Args[0]
				if src.Kind == ir.VReg || src.Kind == ir.VNamedSlot {
					copyOf[destKey] = src
				}
			}
		case mir.OpCall, mir.OpCallX:
			copyOf = make(map[string]ir.Value)
		default:
			if d, ok := instrDef(inst); ok {
				if dk, ok2 := regKey(fn, d); ok2 {
					invalidate(dk)
				}
			}
		}

		out = append(out, inst)
	}

	fn.Instrs = out
	return changed, nil
}
