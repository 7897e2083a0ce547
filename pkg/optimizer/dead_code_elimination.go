package optimizer

import (
	"dpc/pkg/ir"
	"dpc/pkg/mir"
)

// isLocalRegister reports whether v is a plain function-local
// register: the only Value kind dead-store elimination is allowed to
// remove writes to. ArgSlot/ReturnSlot are shared across calls and
// observable to the caller even when this function never reads them
// back itself.
func isLocalRegister(v ir.Value) bool { return v.Kind == ir.VReg }

// DeadCodeEliminationPass drops instructions whose result is never
// read again and that have no other observable effect: dead register
// stores, and OpNoop placeholders earlier passes left behind.
type DeadCodeEliminationPass struct{}

func NewDeadCodeEliminationPass() Pass { return &DeadCodeEliminationPass{} }

func (p *DeadCodeEliminationPass) Name() string { return "dead code elimination" }

func (p *DeadCodeEliminationPass) Run(m *mir.Module, fn *mir.Function) (bool, error) {
	live := make(map[string]bool)
	changed := false

	kept := make([]mir.Instruction, 0, len(fn.Instrs))
	for i := len(fn.Instrs) - 1; i >= 0; i-- {
		inst := fn.Instrs[i]

		if inst.Op == mir.OpNoop {
			changed = true
			continue
		}

		keep := true
		if d, ok := instrDef(inst); ok {
			if dk, ok2 := regKey(fn, d); ok2 {
				if !live[dk] && !inst.Op.HasSideEffect() && isLocalRegister(d) {
					keep = false
				}
				delete(live, dk)
			}
		}

		if !keep {
			changed = true
			continue
		}

		for _, r := range instrReads(inst) {
			if k, ok := regKey(fn, r); ok {
				live[k] = true
			}
		}
		kept = append(kept, inst)
	}

	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	fn.Instrs = kept
	return changed, nil
}
