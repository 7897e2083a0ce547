package lir

import "dpc/pkg/ir"

// StoreFusionPass matches a scratch-register write immediately
// followed by the one instruction that reads it (and nothing else
// ever reads it again): the producer gets a `store result` modifier
// aimed at the consumer's destination and the consumer's materializing
// instruction is deleted, turning a compute-then-store pair into the
// single `execute store result ... run ...` command the game already
// supports natively (spec §4.4).
type StoreFusionPass struct{}

func (StoreFusionPass) Name() string { return "store-fusion" }

func (p StoreFusionPass) Run(m *Module, fn *Function) (bool, error) {
	changed := false
	out := make([]Instruction, 0, len(fn.Instrs))

	for i := 0; i < len(fn.Instrs); i++ {
		inst := fn.Instrs[i]
		if i+1 < len(fn.Instrs) {
			next := fn.Instrs[i+1]
			if _, ok := fusable(inst, next, fn.Instrs[i+2:]); ok {
				fused := inst
				fused.Modifiers = append(append([]ir.Modifier(nil), inst.Modifiers...), ir.Modifier{
					Kind:    ir.ModStoreResult,
					StoreTo: next.Dest,
				})
				fused.Modifiers = append(fused.Modifiers, next.Modifiers...)
				out = append(out, fused)
				i++ // consume the fused consumer instruction
				changed = true
				continue
			}
		}
		out = append(out, inst)
	}

	if changed {
		fn.Instrs = out
	}
	return changed, nil
}

// fusable reports whether producer writes a VReg scratch that
// consumer reads as its sole argument, with no guard of its own on
// either side (a store-result modifier can't itself be conditional
// without duplicating the guard check), and that register is never
// referenced again afterward.
func fusable(producer, consumer Instruction, rest []Instruction) (ir.Value, bool) {
	if producer.Dest.Kind != ir.VReg || len(consumer.Args) != 1 {
		return ir.Value{}, false
	}
	if !sameReg(producer.Dest, consumer.Args[0]) {
		return ir.Value{}, false
	}
	if hasGuard(producer.Modifiers) || hasGuard(consumer.Modifiers) {
		return ir.Value{}, false
	}
	if consumer.Op != OpScoreSet && consumer.Op != OpNBTSet {
		return ir.Value{}, false
	}
	for _, later := range rest {
		dead := true
		forEachOperand(later, func(v ir.Value) {
			if sameReg(v, producer.Dest) {
				dead = false
			}
		})
		if !dead {
			return ir.Value{}, false
		}
	}
	return producer.Dest, true
}

func sameReg(a, b ir.Value) bool {
	return a.Kind == ir.VReg && b.Kind == ir.VReg && a.Reg == b.Reg
}

func hasGuard(mods []ir.Modifier) bool {
	for _, m := range mods {
		if m.Kind == ir.ModIf || m.Kind == ir.ModUnless {
			return true
		}
	}
	return false
}
