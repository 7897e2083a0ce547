package interp

import (
	"testing"

	"dpc/pkg/ir"
	"dpc/pkg/mir"
	"dpc/pkg/types"
)

func double(id string) *mir.Function {
	fn := mir.NewFunction(id, []types.Kind{types.Score}, ptr(types.Score))
	fn.Instrs = []mir.Instruction{
		{Op: mir.OpMove, Dest: ir.ReturnSlotOf(id, types.Score), Args: []ir.Value{ir.ArgSlotOf(id, 0, types.Score)}},
		{Op: mir.OpAdd, Dest: ir.ReturnSlotOf(id, types.Score), Args: []ir.Value{ir.ArgSlotOf(id, 0, types.Score)}},
	}
	return fn
}

func ptr(k types.Kind) *types.Kind { return &k }

func TestExecutorEvalPureArithmetic(t *testing.T) {
	m := mir.NewModule()
	m.Functions["test:double"] = double("test:double")

	ex := NewExecutor(m)
	result, err := ex.Eval("test:double", []ir.Value{ir.ConstInt(types.Score, 21)})
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if result.AsInt() != 42 {
		t.Fatalf("double(21) = %d, want 42", result.AsInt())
	}
}

func TestExecutorRefusesImpureCall(t *testing.T) {
	m := mir.NewModule()
	fn := mir.NewFunction("test:announce", []types.Kind{types.Score}, ptr(types.Score))
	fn.Instrs = []mir.Instruction{
		{Op: mir.OpSay, Raw: "hi"},
		{Op: mir.OpMove, Dest: ir.ReturnSlotOf("test:announce", types.Score), Args: []ir.Value{ir.ArgSlotOf("test:announce", 0, types.Score)}},
	}
	m.Functions["test:announce"] = fn

	ex := NewExecutor(m)
	if _, err := ex.Eval("test:announce", []ir.Value{ir.ConstInt(types.Score, 1)}); err == nil {
		t.Fatal("expected impure call to refuse folding")
	}
}

func TestExecutorRefusesNonConstArgs(t *testing.T) {
	m := mir.NewModule()
	m.Functions["test:double"] = double("test:double")

	ex := NewExecutor(m)
	reg := ir.RegVal(types.Score, 1)
	if _, err := ex.Eval("test:double", []ir.Value{reg}); err == nil {
		t.Fatal("expected non-constant argument to refuse folding")
	}
}

func TestExecutorGuardedBranch(t *testing.T) {
	id := "test:abs"
	fn := mir.NewFunction(id, []types.Kind{types.Score}, ptr(types.Score))
	arg := ir.ArgSlotOf(id, 0, types.Score)
	ret := ir.ReturnSlotOf(id, types.Score)
	cond := ir.Compare(ir.CmpLt, arg, ir.ConstInt(types.Score, 0))
	fn.Instrs = []mir.Instruction{
		{Op: mir.OpMove, Dest: ret, Args: []ir.Value{arg}, Modifiers: []ir.Modifier{{Kind: ir.ModUnless, Cond: cond}}},
		{Op: mir.OpMove, Dest: ret, Args: []ir.Value{ir.ConstInt(types.Score, 0)}, Modifiers: []ir.Modifier{{Kind: ir.ModIf, Cond: cond}}},
		{Op: mir.OpSub, Dest: ret, Args: []ir.Value{arg}, Modifiers: []ir.Modifier{{Kind: ir.ModIf, Cond: cond}}},
	}
	m := mir.NewModule()
	m.Functions[id] = fn

	ex := NewExecutor(m)
	result, err := ex.Eval(id, []ir.Value{ir.ConstInt(types.Score, -7)})
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if result.AsInt() != 7 {
		t.Fatalf("abs(-7) = %d, want 7", result.AsInt())
	}
}
