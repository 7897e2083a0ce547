package optimizer

import (
	"fmt"

	"dpc/pkg/interp"
	"dpc/pkg/ir"
	"dpc/pkg/mir"
)

func numToValue(n interp.Num, t ir.Value) ir.Value {
	if t.Type.IsFloat() {
		return ir.ConstFloat(t.Type, n.AsFloat())
	}
	return ir.ConstInt(t.Type, n.AsInt())
}

func countCallSites(m *mir.Module) map[string]int {
	counts := make(map[string]int)
	for _, fn := range m.Functions {
		for _, inst := range fn.Instrs {
			if inst.Op == mir.OpCall || inst.Op == mir.OpCallX {
				counts[inst.Target]++
			}
		}
	}
	return counts
}

func condEqual(a, b *ir.Condition) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case ir.CondCompare:
		return a.Op == b.Op && sameValue(a.A, b.A) && sameValue(a.B, b.B)
	case ir.CondExists:
		return sameValue(a.Value, b.Value)
	case ir.CondPredicate:
		return a.Predicate == b.Predicate
	case ir.CondDataPresent:
		return a.Path == b.Path
	case ir.CondBlock, ir.CondBiome:
		return a.Pos == b.Pos && a.Name == b.Name
	case ir.CondRaw:
		return a.Bool == b.Bool
	case ir.CondAnd, ir.CondOr, ir.CondXor:
		if len(a.Children) != len(b.Children) {
			return false
		}
		for i := range a.Children {
			if !condEqual(a.Children[i], b.Children[i]) {
				return false
			}
		}
		return true
	case ir.CondNot:
		return condEqual(a.Operand, b.Operand)
	default:
		return false
	}
}

func modifiersEqual(a, b []ir.Modifier) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Kind != b[i].Kind || !condEqual(a[i].Cond, b[i].Cond) {
			return false
		}
	}
	return true
}

// argsMatchModifiers reports whether the n instructions immediately
// before a call are exactly the argument-slot moves lowerCall emits
// for target, each guarded the same way as the call itself.
func argsMatchModifiers(argSeq []mir.Instruction, target string, n int, callMods []ir.Modifier) bool {
	if len(argSeq) != n {
		return false
	}
	for idx, a := range argSeq {
		want := ir.ArgSlotOf(target, idx, a.Dest.Type)
		if a.Op != mir.OpMove || !sameValue(a.Dest, want) || len(a.Args) != 1 {
			return false
		}
		if !modifiersEqual(a.Modifiers, callMods) {
			return false
		}
	}
	return true
}

func isReturnMove(inst mir.Instruction, target string) bool {
	if inst.Op != mir.OpMove || len(inst.Args) != 1 {
		return false
	}
	src := inst.Args[0]
	return src.Kind == ir.VNamedSlot && src.SlotName == "R:"+target
}

func hasCall(fn *mir.Function) bool {
	for _, inst := range fn.Instrs {
		if inst.Op == mir.OpCall || inst.Op == mir.OpCallX {
			return true
		}
	}
	return false
}

// remapValue rewrites a callee-scoped Value for splicing into a
// caller: local registers are renumbered into the caller's free
// range, the callee's own ArgSlots become the literal values passed
// at the call site, and its ReturnSlot becomes the caller's Dest.
func remapValue(v ir.Value, regOffset ir.Register, calleeID string, args []ir.Value, retDest *ir.Value) ir.Value {
	switch v.Kind {
	case ir.VReg:
		v.Reg += regOffset
		return v
	case ir.VNamedSlot:
		for i, a := range args {
			if v.SlotName == fmt.Sprintf("A:%s.%d", calleeID, i) {
				return a
			}
		}
		if v.SlotName == "R:"+calleeID && retDest != nil {
			return *retDest
		}
		return v
	default:
		return v
	}
}

func remapCondition(c *ir.Condition, regOffset ir.Register, calleeID string, args []ir.Value, retDest *ir.Value) *ir.Condition {
	return mapCondition(c, func(v ir.Value) ir.Value {
		return remapValue(v, regOffset, calleeID, args, retDest)
	})
}

// spliceInline copies callee's body into the caller, fully remapped,
// with the original call's guard applied to every copied instruction.
func spliceInline(caller *mir.Function, callee *mir.Function, args []ir.Value, retDest *ir.Value, callMods []ir.Modifier) []mir.Instruction {
	regOffset := caller.NextReg
	caller.NextReg += callee.NextReg

	out := make([]mir.Instruction, 0, len(callee.Instrs))
	for _, inst := range callee.Instrs {
		cp := inst.Clone()
		cp.Dest = remapValue(cp.Dest, regOffset, callee.ID, args, retDest)
		for i, a := range cp.Args {
			cp.Args[i] = remapValue(a, regOffset, callee.ID, args, retDest)
		}
		for mi := range cp.Modifiers {
			if cp.Modifiers[mi].Cond != nil {
				cp.Modifiers[mi].Cond = remapCondition(cp.Modifiers[mi].Cond, regOffset, callee.ID, args, retDest)
			}
		}
		if len(callMods) > 0 {
			merged := make([]ir.Modifier, 0, len(callMods)+len(cp.Modifiers))
			merged = append(merged, callMods...)
			merged = append(merged, cp.Modifiers...)
			cp.Modifiers = merged
		}

		if retDest == nil {
			if d, ok := instrDef(cp); ok && d.Kind == ir.VNamedSlot && d.SlotName == "R:"+callee.ID {
				continue // result discarded, and this write has no other effect
			}
		}
		out = append(out, cp)
	}
	return out
}

// InliningPass resolves each call site two ways: if every argument is
// a literal and the callee is pure, it evaluates the call at compile
// time via pkg/interp and replaces it with the literal result (spec
// §8's sine/sqrt scenarios); otherwise, if the callee has exactly one
// call site in the whole module and calls nothing itself, its body is
// spliced directly into the caller.
type InliningPass struct{}

func NewInliningPass() Pass { return &InliningPass{} }

func (p *InliningPass) Name() string { return "inlining" }

func (p *InliningPass) Run(m *mir.Module, fn *mir.Function) (bool, error) {
	ex := interp.NewExecutor(m)
	callSites := countCallSites(m)
	changed := false

	out := make([]mir.Instruction, 0, len(fn.Instrs))
	i := 0
	for i < len(fn.Instrs) {
		inst := fn.Instrs[i]
		if inst.Op != mir.OpCall && inst.Op != mir.OpCallX {
			out = append(out, inst)
			i++
			continue
		}

		callee, ok := m.Functions[inst.Target]
		nParams := 0
		if ok {
			nParams = len(callee.Params)
		}
		if !ok || nParams > len(out) {
			out = append(out, inst)
			i++
			continue
		}

		argSeq := out[len(out)-nParams:]
		if !argsMatchModifiers(argSeq, inst.Target, nParams, inst.Modifiers) {
			out = append(out, inst)
			i++
			continue
		}

		args := make([]ir.Value, nParams)
		allConst := true
		for k, a := range argSeq {
			args[k] = a.Args[0]
			if !a.Args[0].IsConst() {
				allConst = false
			}
		}

		var retDest *ir.Value
		consumedNext := false
		if i+1 < len(fn.Instrs) {
			nxt := fn.Instrs[i+1]
			if isReturnMove(nxt, inst.Target) && modifiersEqual(nxt.Modifiers, inst.Modifiers) {
				d := nxt.Dest
				retDest = &d
				consumedNext = true
			}
		}

		if allConst && len(inst.Modifiers) == 0 {
			if result, err := ex.Eval(inst.Target, args); err == nil {
				out = out[:len(out)-nParams]
				if retDest != nil {
					out = append(out, mir.Instruction{Op: mir.OpSet, Dest: *retDest, Args: []ir.Value{numToValue(result, *retDest)}})
				}
				changed = true
				if consumedNext {
					i += 2
				} else {
					i++
				}
				continue
			}
		}

		if callSites[inst.Target] == 1 && !callee.Preserved() && !callee.NoStrip() && !hasCall(callee) {
			spliced := spliceInline(fn, callee, args, retDest, inst.Modifiers)
			out = out[:len(out)-nParams]
			out = append(out, spliced...)
			delete(m.Functions, inst.Target)
			changed = true
			if consumedNext {
				i += 2
			} else {
				i++
			}
			continue
		}

		out = append(out, inst)
		i++
	}

	fn.Instrs = out
	return changed, nil
}
