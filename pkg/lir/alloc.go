package lir

import (
	"fmt"
	"sort"

	"dpc/pkg/ir"
)

// Allocate assigns every VReg and VNamedSlot operand in the module a
// concrete scoreboard player (Score domain) or NBT storage path
// (NBT domain), per spec §4.4. Registers that share a namespace across
// more than one function (an `ifbody_N`/while helper and its parent)
// are never coalesced — the namespace could be entered through either
// function, so a whole-namespace liveness join would be required to
// prove disjointness safely, and this implementation doesn't attempt
// one. A namespace used by exactly one function gets real interval
// coalescing: registers whose live ranges don't overlap share a slot.
func Allocate(m *Module) {
	byNamespace := map[string][]*Function{}
	for _, id := range m.SortedIDs() {
		fn := m.Functions[id]
		byNamespace[fn.Namespace()] = append(byNamespace[fn.Namespace()], fn)
	}

	regAddr := map[allocKey]ir.Value{}
	for ns, fns := range byNamespace {
		sort.Slice(fns, func(i, j int) bool { return fns[i].ID < fns[j].ID })
		for k, v := range allocateNamespace(ns, fns) {
			regAddr[k] = v
		}
	}

	slotAddr := allocateNamedSlots(m)

	for _, id := range m.SortedIDs() {
		fn := m.Functions[id]
		ns := fn.Namespace()
		rewriteWithRegLookup(fn, func(v ir.Value) ir.Value {
			switch v.Kind {
			case ir.VReg:
				if nv, ok := regAddr[allocKey{ns, v.Reg}]; ok {
					return nv
				}
			case ir.VNamedSlot:
				if nv, ok := slotAddr[v.SlotName]; ok {
					return nv
				}
			}
			return v
		})
	}
}

type allocKey struct {
	ns  string
	reg ir.Register
}

// allocateNamespace returns the concrete Value each distinct register
// in the namespace resolves to.
func allocateNamespace(ns string, fns []*Function) map[allocKey]ir.Value {
	nbtDomain := map[ir.Register]bool{}
	firstSeen := map[ir.Register]bool{}
	var order []ir.Register
	for _, fn := range fns {
		walkRegs(fn, func(v ir.Value) {
			if !firstSeen[v.Reg] {
				firstSeen[v.Reg] = true
				order = append(order, v.Reg)
				nbtDomain[v.Reg] = v.Type.IsNBT()
			}
		})
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	var index map[ir.Register]int
	if len(fns) == 1 {
		index = coalesceIntervals(fns[0], order)
	} else {
		index = map[ir.Register]int{}
		for i, r := range order {
			index[r] = i
		}
	}

	out := map[allocKey]ir.Value{}
	for _, r := range order {
		out[allocKey{ns, r}] = regAddress(ns, index[r], nbtDomain[r])
	}
	return out
}

func regAddress(ns string, idx int, nbt bool) ir.Value {
	if nbt {
		return ir.NBTVal(ir.NBTPath{
			Target: ir.NBTTarget{Kind: ir.NBTStorage, Name: StorageObject},
			Path:   fmt.Sprintf("%s.r%d", ns, idx),
		})
	}
	return ir.ScoreVal(ir.ScoreName{
		Selector:  fmt.Sprintf("%%r%s.%d", ns, idx),
		Objective: RegObjective,
	})
}

// coalesceIntervals computes [firstDef, lastUse] instruction indices
// per register in program order and greedily reuses a slot once its
// previous occupant's range has ended — the classic linear-scan
// register allocation algorithm, sound here because program order
// within one function is the only order a register can be live across
// (calls to other namespaces can't touch this function's registers).
func coalesceIntervals(fn *Function, order []ir.Register) map[ir.Register]int {
	first := map[ir.Register]int{}
	last := map[ir.Register]int{}
	for i, inst := range fn.Instrs {
		forEachOperand(inst, func(v ir.Value) {
			if v.Kind != ir.VReg {
				return
			}
			if _, ok := first[v.Reg]; !ok {
				first[v.Reg] = i
			}
			last[v.Reg] = i
		})
	}

	sorted := append([]ir.Register(nil), order...)
	sort.Slice(sorted, func(i, j int) bool { return first[sorted[i]] < first[sorted[j]] })

	type slot struct {
		idx int
		end int
	}
	var slots []slot
	index := map[ir.Register]int{}
	for _, r := range sorted {
		placed := false
		for i := range slots {
			if slots[i].end < first[r] {
				index[r] = slots[i].idx
				slots[i].end = last[r]
				placed = true
				break
			}
		}
		if !placed {
			idx := len(slots)
			slots = append(slots, slot{idx: idx, end: last[r]})
			index[r] = idx
		}
	}
	return index
}

func allocateNamedSlots(m *Module) map[string]ir.Value {
	nbtDomain := map[string]bool{}
	seen := map[string]bool{}
	for _, id := range m.SortedIDs() {
		walkNamedSlots(m.Functions[id], func(v ir.Value) {
			if !seen[v.SlotName] {
				seen[v.SlotName] = true
				nbtDomain[v.SlotName] = v.Type.IsNBT()
			}
		})
	}
	out := map[string]ir.Value{}
	for name, isNBT := range nbtDomain {
		out[name] = namedSlotAddress(name, isNBT)
	}
	return out
}

// namedSlotAddress parses the "A:<fnID>.<i>" / "R:<fnID>" shape minted
// by ir.ArgSlotOf / ir.ReturnSlotOf and derives its fixed address.
func namedSlotAddress(slotName string, nbt bool) ir.Value {
	var tail string
	if len(slotName) > 2 && slotName[:2] == "A:" {
		rest := slotName[2:]
		dot := lastIndexByte(rest, '.')
		tail = fmt.Sprintf("%s.a%s", rest[:dot], rest[dot+1:])
		if nbt {
			return ir.NBTVal(ir.NBTPath{Target: ir.NBTTarget{Kind: ir.NBTStorage, Name: StorageObject}, Path: tail})
		}
		return ir.ScoreVal(ir.ScoreName{Selector: "%a" + tail, Objective: RegObjective})
	}
	fnID := slotName[2:] // "R:<fnID>"
	tail = fnID + ".ret"
	if nbt {
		return ir.NBTVal(ir.NBTPath{Target: ir.NBTTarget{Kind: ir.NBTStorage, Name: StorageObject}, Path: tail})
	}
	return ir.ScoreVal(ir.ScoreName{Selector: "%R" + fnID, Objective: RegObjective})
}

func lastIndexByte(s string, b byte) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == b {
			return i
		}
	}
	return -1
}

func walkRegs(fn *Function, visit func(ir.Value)) {
	for _, inst := range fn.Instrs {
		forEachOperand(inst, func(v ir.Value) {
			if v.Kind == ir.VReg {
				visit(v)
			}
		})
	}
}

func walkNamedSlots(fn *Function, visit func(ir.Value)) {
	for _, inst := range fn.Instrs {
		forEachOperand(inst, func(v ir.Value) {
			if v.Kind == ir.VNamedSlot {
				visit(v)
			}
		})
	}
}

func forEachOperand(inst Instruction, visit func(ir.Value)) {
	visit(inst.Dest)
	for _, a := range inst.Args {
		visit(a)
	}
	for _, mod := range inst.Modifiers {
		walkCondOperands(mod.Cond, visit)
		if mod.Kind == ir.ModStoreResult || mod.Kind == ir.ModStoreSuccess {
			visit(mod.StoreTo)
		}
	}
}

func walkCondOperands(c *ir.Condition, visit func(ir.Value)) {
	if c == nil {
		return
	}
	switch c.Kind {
	case ir.CondCompare:
		visit(c.A)
		visit(c.B)
	case ir.CondExists:
		visit(c.Value)
	case ir.CondAnd, ir.CondOr, ir.CondXor:
		for _, ch := range c.Children {
			walkCondOperands(ch, visit)
		}
	case ir.CondNot:
		walkCondOperands(c.Operand, visit)
	}
}

func rewriteWithRegLookup(fn *Function, replace func(ir.Value) ir.Value) {
	for i := range fn.Instrs {
		fn.Instrs[i].Dest = replace(fn.Instrs[i].Dest)
		for j := range fn.Instrs[i].Args {
			fn.Instrs[i].Args[j] = replace(fn.Instrs[i].Args[j])
		}
		for j := range fn.Instrs[i].Modifiers {
			fn.Instrs[i].Modifiers[j].Cond = rewriteCond(fn.Instrs[i].Modifiers[j].Cond, replace)
			if fn.Instrs[i].Modifiers[j].Kind == ir.ModStoreResult || fn.Instrs[i].Modifiers[j].Kind == ir.ModStoreSuccess {
				fn.Instrs[i].Modifiers[j].StoreTo = replace(fn.Instrs[i].Modifiers[j].StoreTo)
			}
		}
	}
}

func rewriteCond(c *ir.Condition, replace func(ir.Value) ir.Value) *ir.Condition {
	if c == nil {
		return nil
	}
	switch c.Kind {
	case ir.CondCompare:
		return &ir.Condition{Kind: ir.CondCompare, Op: c.Op, A: replace(c.A), B: replace(c.B)}
	case ir.CondExists:
		return &ir.Condition{Kind: ir.CondExists, Value: replace(c.Value)}
	case ir.CondAnd, ir.CondOr, ir.CondXor:
		children := make([]*ir.Condition, len(c.Children))
		for i, ch := range c.Children {
			children[i] = rewriteCond(ch, replace)
		}
		return &ir.Condition{Kind: c.Kind, Children: children}
	case ir.CondNot:
		return &ir.Condition{Kind: ir.CondNot, Operand: rewriteCond(c.Operand, replace)}
	default:
		return c
	}
}
