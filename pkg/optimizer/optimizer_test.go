package optimizer

import (
	"testing"

	"dpc/pkg/ir"
	"dpc/pkg/mir"
	"dpc/pkg/types"
)

func scoreReg(r ir.Register) ir.Value { return ir.RegVal(types.Score, r) }

func TestConstantFoldingPass(t *testing.T) {
	tests := []struct {
		name    string
		instrs  []mir.Instruction
		want    []mir.Instruction
		changed bool
	}{
		{
			name: "fold addition of two known registers",
			instrs: []mir.Instruction{
				{Op: mir.OpSet, Dest: scoreReg(1), Args: []ir.Value{ir.ConstInt(types.Score, 10)}},
				{Op: mir.OpSet, Dest: scoreReg(2), Args: []ir.Value{ir.ConstInt(types.Score, 20)}},
				{Op: mir.OpAdd, Dest: scoreReg(1), Args: []ir.Value{scoreReg(2)}},
			},
			want: []mir.Instruction{
				{Op: mir.OpSet, Dest: scoreReg(1), Args: []ir.Value{ir.ConstInt(types.Score, 10)}},
				{Op: mir.OpSet, Dest: scoreReg(2), Args: []ir.Value{ir.ConstInt(types.Score, 20)}},
				{Op: mir.OpSet, Dest: scoreReg(1), Args: []ir.Value{ir.ConstInt(types.Score, 30)}},
			},
			changed: true,
		},
		{
			name: "guard that is always false drops the instruction",
			instrs: []mir.Instruction{
				{
					Op:        mir.OpSay,
					Raw:       "hi",
					Modifiers: []ir.Modifier{{Kind: ir.ModIf, Cond: ir.RawBool(false)}},
				},
			},
			want:    nil,
			changed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := mir.NewFunction("test:fn", nil, nil)
			fn.Instrs = tt.instrs
			changed, err := NewConstantFoldingPass().Run(mir.NewModule(), fn)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if changed != tt.changed {
				t.Fatalf("changed = %v, want %v", changed, tt.changed)
			}
			if len(fn.Instrs) != len(tt.want) {
				t.Fatalf("got %d instructions, want %d: %+v", len(fn.Instrs), len(tt.want), fn.Instrs)
			}
			for i := range tt.want {
				if fn.Instrs[i].Op != tt.want[i].Op {
					t.Errorf("instr %d op = %v, want %v", i, fn.Instrs[i].Op, tt.want[i].Op)
				}
			}
		})
	}
}

func TestPeepholePassIdentities(t *testing.T) {
	tests := []struct {
		name   string
		instr  mir.Instruction
		wantOp mir.Opcode
		drop   bool
	}{
		{"add zero is dropped", mir.Instruction{Op: mir.OpAdd, Dest: scoreReg(1), Args: []ir.Value{ir.ConstInt(types.Score, 0)}}, mir.OpAdd, true},
		{"mul zero becomes set zero", mir.Instruction{Op: mir.OpMul, Dest: scoreReg(1), Args: []ir.Value{ir.ConstInt(types.Score, 0)}}, mir.OpSet, false},
		{"mod one becomes set zero", mir.Instruction{Op: mir.OpMod, Dest: scoreReg(1), Args: []ir.Value{ir.ConstInt(types.Score, 1)}}, mir.OpSet, false},
		{"and zero becomes set zero", mir.Instruction{Op: mir.OpAnd, Dest: scoreReg(1), Args: []ir.Value{ir.ConstInt(types.Score, 0)}}, mir.OpSet, false},
		{"div by self becomes set one", mir.Instruction{Op: mir.OpDiv, Dest: scoreReg(1), Args: []ir.Value{scoreReg(1)}}, mir.OpSet, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := mir.NewFunction("test:fn", nil, nil)
			fn.Instrs = []mir.Instruction{tt.instr}
			changed, err := NewPeepholePass().Run(mir.NewModule(), fn)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if !changed {
				t.Fatal("expected a change")
			}
			if tt.drop {
				if len(fn.Instrs) != 0 {
					t.Fatalf("expected instruction to be dropped, got %+v", fn.Instrs)
				}
				return
			}
			if len(fn.Instrs) != 1 || fn.Instrs[0].Op != tt.wantOp {
				t.Fatalf("got %+v, want op %v", fn.Instrs, tt.wantOp)
			}
		})
	}
}

func TestDeadCodeEliminationDropsUnreadRegister(t *testing.T) {
	fn := mir.NewFunction("test:fn", nil, nil)
	fn.Instrs = []mir.Instruction{
		{Op: mir.OpSet, Dest: scoreReg(5), Args: []ir.Value{ir.ConstInt(types.Score, 1)}},
		{Op: mir.OpSay, Raw: "done"},
	}
	changed, err := NewDeadCodeEliminationPass().Run(mir.NewModule(), fn)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !changed {
		t.Fatal("expected dead store to be removed")
	}
	if len(fn.Instrs) != 1 || fn.Instrs[0].Op != mir.OpSay {
		t.Fatalf("got %+v", fn.Instrs)
	}
}

func TestLogicalFoldMergesDuplicateGuardedInstructions(t *testing.T) {
	condA := ir.Compare(ir.CmpEq, scoreReg(1), ir.ConstInt(types.Score, 1))
	condB := ir.Compare(ir.CmpEq, scoreReg(1), ir.ConstInt(types.Score, 2))

	fn := mir.NewFunction("test:fn", nil, nil)
	fn.Instrs = []mir.Instruction{
		{Op: mir.OpSet, Dest: scoreReg(2), Args: []ir.Value{ir.ConstInt(types.Score, 1)}, Modifiers: []ir.Modifier{{Kind: ir.ModIf, Cond: condA}}},
		{Op: mir.OpSet, Dest: scoreReg(2), Args: []ir.Value{ir.ConstInt(types.Score, 1)}, Modifiers: []ir.Modifier{{Kind: ir.ModIf, Cond: condB}}},
	}

	changed, err := NewLogicalFoldPass().Run(mir.NewModule(), fn)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !changed {
		t.Fatal("expected merge")
	}
	if len(fn.Instrs) != 1 {
		t.Fatalf("expected one merged instruction, got %+v", fn.Instrs)
	}
	mod := fn.Instrs[0].Modifiers[0]
	if mod.Cond.Kind != ir.CondOr || len(mod.Cond.Children) != 2 {
		t.Fatalf("expected an Or of the two guards, got %+v", mod.Cond)
	}
}

func TestInliningFoldsConstantCall(t *testing.T) {
	m := mir.NewModule()
	retT := types.Score
	double := mir.NewFunction("test:double", []types.Kind{types.Score}, &retT)
	double.Instrs = []mir.Instruction{
		{Op: mir.OpMove, Dest: ir.ReturnSlotOf("test:double", types.Score), Args: []ir.Value{ir.ArgSlotOf("test:double", 0, types.Score)}},
		{Op: mir.OpAdd, Dest: ir.ReturnSlotOf("test:double", types.Score), Args: []ir.Value{ir.ArgSlotOf("test:double", 0, types.Score)}},
	}
	m.Functions["test:double"] = double

	caller := mir.NewFunction("test:main", nil, nil)
	caller.Instrs = []mir.Instruction{
		{Op: mir.OpMove, Dest: ir.ArgSlotOf("test:double", 0, types.Score), Args: []ir.Value{ir.ConstInt(types.Score, 21)}},
		{Op: mir.OpCall, Target: "test:double"},
		{Op: mir.OpMove, Dest: scoreReg(1), Args: []ir.Value{ir.ReturnSlotOf("test:double", types.Score)}},
	}
	m.Functions["test:main"] = caller

	changed, err := NewInliningPass().Run(m, caller)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !changed {
		t.Fatal("expected the call to fold")
	}
	if len(caller.Instrs) != 1 || caller.Instrs[0].Op != mir.OpSet {
		t.Fatalf("got %+v", caller.Instrs)
	}
	if caller.Instrs[0].Args[0].ConstInt != 42 {
		t.Fatalf("double(21) folded to %v, want 42", caller.Instrs[0].Args[0])
	}
}

func TestOptimizerReachesFixedPoint(t *testing.T) {
	m := mir.NewModule()
	fn := mir.NewFunction("test:fn", nil, nil)
	fn.Instrs = []mir.Instruction{
		{Op: mir.OpSet, Dest: scoreReg(1), Args: []ir.Value{ir.ConstInt(types.Score, 0)}},
		{Op: mir.OpAdd, Dest: scoreReg(1), Args: []ir.Value{ir.ConstInt(types.Score, 5)}},
		{Op: mir.OpMul, Dest: scoreReg(1), Args: []ir.Value{ir.ConstInt(types.Score, 0)}},
	}
	m.Functions["test:fn"] = fn

	if err := New(LevelFull).Optimize(m); err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if len(fn.Instrs) != 0 {
		t.Fatalf("expected the whole dead chain to collapse away, got %+v", fn.Instrs)
	}
}
