package lir

import (
	"testing"

	"dpc/pkg/ir"
	"dpc/pkg/mir"
	"dpc/pkg/types"
)

func scoreReg(r ir.Register) ir.Value { return ir.RegVal(types.Score, r) }
func nbtReg(r ir.Register) ir.Value   { return ir.RegVal(types.NInt, r) }

func TestLowerArithmeticStaysOnScoreboard(t *testing.T) {
	fn := mir.NewFunction("test:add", nil, nil)
	fn.Instrs = []mir.Instruction{
		{Op: mir.OpSet, Dest: scoreReg(0), Args: []ir.Value{ir.ConstInt(types.Score, 1)}},
		{Op: mir.OpAdd, Dest: scoreReg(0), Args: []ir.Value{ir.ConstInt(types.Score, 2)}},
	}
	m := mir.NewModule()
	m.Functions[fn.ID] = fn

	lm, err := Lower(m)
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	out := lm.Functions["test:add"]
	if len(out.Instrs) != 2 {
		t.Fatalf("got %d instructions, want 2: %+v", len(out.Instrs), out.Instrs)
	}
	if out.Instrs[0].Op != OpScoreSet || out.Instrs[1].Op != OpScoreAdd {
		t.Fatalf("unexpected ops: %v, %v", out.Instrs[0].Op, out.Instrs[1].Op)
	}
}

func TestLowerNBTArithmeticBouncesThroughScratch(t *testing.T) {
	fn := mir.NewFunction("test:nbtadd", nil, nil)
	fn.Instrs = []mir.Instruction{
		{Op: mir.OpAdd, Dest: nbtReg(0), Args: []ir.Value{ir.ConstInt(types.NInt, 1)}},
	}
	m := mir.NewModule()
	m.Functions[fn.ID] = fn

	lm, err := Lower(m)
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	out := lm.Functions["test:nbtadd"]
	if len(out.Instrs) != 3 {
		t.Fatalf("got %d instructions, want 3 (nbt_get, score_add, nbt_set): %+v", len(out.Instrs), out.Instrs)
	}
	if out.Instrs[0].Op != OpNBTGet || out.Instrs[1].Op != OpScoreAdd || out.Instrs[2].Op != OpNBTSet {
		t.Fatalf("unexpected op sequence: %v, %v, %v", out.Instrs[0].Op, out.Instrs[1].Op, out.Instrs[2].Op)
	}
}

func TestLowerNBTCopySkipsScoreboard(t *testing.T) {
	fn := mir.NewFunction("test:copy", nil, nil)
	fn.Instrs = []mir.Instruction{
		{Op: mir.OpSet, Dest: nbtReg(0), Args: []ir.Value{nbtReg(1)}},
	}
	m := mir.NewModule()
	m.Functions[fn.ID] = fn

	lm, err := Lower(m)
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	out := lm.Functions["test:copy"]
	if len(out.Instrs) != 1 || out.Instrs[0].Op != OpNBTCopy {
		t.Fatalf("want a single nbt_copy, got %+v", out.Instrs)
	}
}

func TestSelectorReorderPutsCheapFiltersFirst(t *testing.T) {
	fn := &Function{ID: "test:fn", Instrs: []Instruction{
		{Op: OpCall, Target: "test:other", Modifiers: []ir.Modifier{
			{Kind: ir.ModAs, Selector: "@e[distance=..5,tag=foo,type=cow]"},
		}},
	}}
	changed, err := SelectorReorderPass{}.Run(NewModule(), fn)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !changed {
		t.Fatalf("expected reordering to report a change")
	}
	got := fn.Instrs[0].Modifiers[0].Selector
	want := "@e[tag=foo,type=cow,distance=..5]"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestLowerOrConditionMaterializesCounterGuard(t *testing.T) {
	fn := mir.NewFunction("test:orguard", nil, nil)
	fn.Instrs = []mir.Instruction{
		{
			Op:  mir.OpSay,
			Raw: "hi",
			Modifiers: []ir.Modifier{{
				Kind: ir.ModIf,
				Cond: ir.Or(
					ir.Compare(ir.CmpEq, scoreReg(0), ir.ConstInt(types.Score, 1)),
					ir.Compare(ir.CmpEq, scoreReg(1), ir.ConstInt(types.Score, 2)),
				),
			}},
		},
	}
	m := mir.NewModule()
	m.Functions[fn.ID] = fn

	lm, err := Lower(m)
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	out := lm.Functions["test:orguard"].Instrs
	if len(out) < 4 {
		t.Fatalf("expected counter-init, two guarded increments and the final say, got %+v", out)
	}
	last := out[len(out)-1]
	if last.Op != OpSay {
		t.Fatalf("last instruction should be the say, got %v", last.Op)
	}
	if len(last.Modifiers) != 1 || last.Modifiers[0].Kind != ir.ModIf {
		t.Fatalf("expected a single if-guard on the counter, got %+v", last.Modifiers)
	}
	if last.Modifiers[0].Cond.Op != ir.CmpGe {
		t.Fatalf("expected a >= comparison for the OR guard, got %v", last.Modifiers[0].Cond.Op)
	}
}

func TestModifierMergeDropsRedundantAsSelf(t *testing.T) {
	fn := &Function{ID: "test:fn", Instrs: []Instruction{
		{Op: OpSay, Raw: "hi", Modifiers: []ir.Modifier{{Kind: ir.ModAs, Selector: "@s"}}},
	}}
	changed, err := ModifierMergePass{}.Run(NewModule(), fn)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !changed || len(fn.Instrs[0].Modifiers) != 0 {
		t.Fatalf("expected redundant as @s to be dropped, got %+v", fn.Instrs[0].Modifiers)
	}
}

func TestStoreFusionMergesComputeThenStore(t *testing.T) {
	scratch := ir.RegVal(types.Score, 9)
	destPath := ir.NBTVal(ir.NBTPath{Target: ir.NBTTarget{Kind: ir.NBTStorage, Name: "dpc:internal"}, Path: "x", Kind: types.NInt})
	fn := &Function{ID: "test:fn", Instrs: []Instruction{
		{Op: OpNBTGet, Dest: scratch, Args: []ir.Value{destPath}},
		{Op: OpScoreAdd, Dest: scratch, Args: []ir.Value{ir.ConstInt(types.Score, 1)}},
		{Op: OpNBTSet, Dest: destPath, Args: []ir.Value{scratch}},
	}}
	changed, err := StoreFusionPass{}.Run(NewModule(), fn)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !changed {
		t.Fatalf("expected store fusion to fire")
	}
	if len(fn.Instrs) != 2 {
		t.Fatalf("got %d instructions, want 2: %+v", len(fn.Instrs), fn.Instrs)
	}
	last := fn.Instrs[1]
	if len(last.Modifiers) != 1 || last.Modifiers[0].Kind != ir.ModStoreResult {
		t.Fatalf("expected a store result modifier on the arithmetic op, got %+v", last.Modifiers)
	}
}

func TestAllocateAssignsDistinctScoreSlots(t *testing.T) {
	fn := &Function{ID: "test:fn", Instrs: []Instruction{
		{Op: OpScoreSet, Dest: scoreReg(0), Args: []ir.Value{ir.ConstInt(types.Score, 1)}},
		{Op: OpScoreSet, Dest: scoreReg(1), Args: []ir.Value{ir.ConstInt(types.Score, 2)}},
		{Op: OpScoreAdd, Dest: scoreReg(0), Args: []ir.Value{scoreReg(1)}},
	}, NextReg: 2}
	m := NewModule()
	m.Functions[fn.ID] = fn

	Allocate(m)

	out := m.Functions["test:fn"]
	if out.Instrs[0].Dest.Kind != ir.VScore || out.Instrs[1].Dest.Kind != ir.VScore {
		t.Fatalf("expected every register to resolve to a scoreboard value, got %+v", out.Instrs)
	}
	if out.Instrs[0].Dest.Score.Objective != RegObjective {
		t.Fatalf("got objective %q, want %q", out.Instrs[0].Dest.Score.Objective, RegObjective)
	}
	if out.Instrs[0].Dest.Score.Selector == out.Instrs[1].Dest.Score.Selector {
		t.Fatalf("distinct live registers must not share a slot: %+v", out.Instrs)
	}
}

func TestShortenIdentifiersSkipsPreservedFunctions(t *testing.T) {
	keep := &Function{ID: "test:keep_me", Annotations: map[string]bool{"preserve": true}}
	short := &Function{ID: "test:verbose_name"}
	caller := &Function{ID: "test:caller", Annotations: map[string]bool{"no_strip": true}, Instrs: []Instruction{
		{Op: OpCall, Target: "test:verbose_name"},
		{Op: OpCall, Target: "test:verbose_name"},
	}}
	m := NewModule()
	for _, fn := range []*Function{keep, short, caller} {
		m.Functions[fn.ID] = fn
	}

	ShortenIdentifiers(m)

	if _, ok := m.Functions["test:keep_me"]; !ok {
		t.Fatalf("preserved function must keep its identifier")
	}
	if _, ok := m.Functions["test:verbose_name"]; ok {
		t.Fatalf("expected test:verbose_name to be renamed to something shorter")
	}
	found := false
	for id := range m.Functions {
		if id != "test:keep_me" && id != "test:caller" {
			found = true
			if len(id) >= len("test:verbose_name") {
				t.Fatalf("new identifier %q is not shorter than the original", id)
			}
		}
	}
	if !found {
		t.Fatalf("renamed function missing from module")
	}
	if m.Functions["test:caller"].Instrs[0].Target == "test:verbose_name" {
		t.Fatalf("call site was not rewritten to the new identifier")
	}
}

func TestVerifyArgSlotDisciplineRejectsCycles(t *testing.T) {
	a := &Function{ID: "test:a", Instrs: []Instruction{{Op: OpCall, Target: "test:b"}}}
	b := &Function{ID: "test:b", Instrs: []Instruction{{Op: OpCall, Target: "test:a"}}}
	m := NewModule()
	m.Functions[a.ID] = a
	m.Functions[b.ID] = b

	if err := VerifyArgSlotDiscipline(m); err == nil {
		t.Fatalf("expected a recursion violation error for a mutually recursive pair")
	}
}

func TestVerifyArgSlotDisciplineAcceptsZeroSlotSelfCall(t *testing.T) {
	loop := &Function{ID: "dpc:whileloop_0", Instrs: []Instruction{{Op: OpCallX, Target: "dpc:whileloop_0"}}}
	m := NewModule()
	m.Functions[loop.ID] = loop

	if err := VerifyArgSlotDiscipline(m); err != nil {
		t.Fatalf("expected a zero-param, zero-return self-call (the while-loop helper shape) to be accepted, got: %v", err)
	}
}

func TestVerifyArgSlotDisciplineRejectsSelfCallWithSlots(t *testing.T) {
	fn := &Function{ID: "test:recur", Params: []types.Kind{types.Score}, Instrs: []Instruction{{Op: OpCall, Target: "test:recur"}}}
	m := NewModule()
	m.Functions[fn.ID] = fn

	if err := VerifyArgSlotDiscipline(m); err == nil {
		t.Fatalf("expected a self-call from a function with argument slots to be rejected")
	}
}

func TestVerifyArgSlotDisciplineAcceptsAcyclicCalls(t *testing.T) {
	a := &Function{ID: "test:a", Instrs: []Instruction{{Op: OpCall, Target: "test:b"}}}
	b := &Function{ID: "test:b"}
	m := NewModule()
	m.Functions[a.ID] = a
	m.Functions[b.ID] = b

	if err := VerifyArgSlotDiscipline(m); err != nil {
		t.Fatalf("unexpected error for an acyclic call graph: %v", err)
	}
}
