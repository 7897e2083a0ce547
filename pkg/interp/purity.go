// Package interp adapts the teacher's compile-time execution engine
// (pkg/ctie in oisee-minz: ConstTracker + PurityAnalyzer +
// CompileTimeExecutor, a Z80-IR stack machine) to DPC's flat MIR, to
// give the constant-call-folding transform spec.md's worked sine/sqrt
// examples require a concrete mechanism (see SPEC_FULL.md §5).
package interp

import "dpc/pkg/mir"

// Purity decides whether a MIR function can be evaluated at compile
// time: it must not touch game state (no say/cmd/tp/kill/xp/merge),
// and every function it calls must be pure in turn.
type Purity struct {
	module *mir.Module
	memo   map[string]bool
	onPath map[string]bool // cycle guard while computing memo
}

func NewPurity(m *mir.Module) *Purity {
	return &Purity{module: m, memo: make(map[string]bool), onPath: make(map[string]bool)}
}

// IsPure reports whether fn can be folded at compile time given
// constant arguments. Recursive or mutually-recursive functions are
// never considered pure: they would need an unbounded interpreter
// budget to prove termination, and the self-calling guard pattern
// while-loops lower to is exactly this shape, so most loops are
// correctly excluded.
func (p *Purity) IsPure(fn *mir.Function) bool {
	if pure, ok := p.memo[fn.ID]; ok {
		return pure
	}
	if p.onPath[fn.ID] {
		// Found fn on its own call path: treat as impure rather than
		// looping the analysis forever.
		return false
	}
	p.onPath[fn.ID] = true
	defer delete(p.onPath, fn.ID)

	pure := true
	for _, inst := range fn.Instrs {
		if inst.Op.HasSideEffect() && inst.Op != mir.OpCall && inst.Op != mir.OpCallX {
			pure = false
			break
		}
		if inst.Op == mir.OpCall || inst.Op == mir.OpCallX {
			callee, ok := p.module.Functions[inst.Target]
			if !ok || !p.IsPure(callee) {
				pure = false
				break
			}
		}
	}

	p.memo[fn.ID] = pure
	return pure
}
