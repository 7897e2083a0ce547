package ir

import (
	"testing"

	"dpc/pkg/types"
)

func TestCmpOpNegateIsInvolution(t *testing.T) {
	for op := CmpEq; op <= CmpGe; op++ {
		if got := op.Negate().Negate(); got != op {
			t.Fatalf("Negate(Negate(%s)) = %s, want %s", op, got, op)
		}
	}
}

func TestCmpOpNegateFlipsMeaning(t *testing.T) {
	tests := map[CmpOp]CmpOp{
		CmpEq: CmpNe,
		CmpNe: CmpEq,
		CmpLt: CmpGe,
		CmpLe: CmpGt,
		CmpGt: CmpLe,
		CmpGe: CmpLt,
	}
	for op, want := range tests {
		if got := op.Negate(); got != want {
			t.Errorf("%s.Negate() = %s, want %s", op, got, want)
		}
	}
}

func TestConditionCloneIsDeepNotShared(t *testing.T) {
	leaf := Compare(CmpEq, ConstInt(types.Score, 1), ConstInt(types.Score, 1))
	tree := And(leaf, Not(leaf))

	cp := tree.Clone()
	cp.Children[0].Op = CmpNe

	if tree.Children[0].Op != CmpEq {
		t.Fatalf("Clone aliased the original condition tree")
	}
	if cp.Operand != nil {
		t.Fatalf("And has no Operand field populated")
	}
}

func TestConditionCloneOfNotPreservesOperand(t *testing.T) {
	leaf := Compare(CmpLt, ConstInt(types.Score, 0), ConstInt(types.Score, 10))
	tree := Not(leaf)

	cp := tree.Clone()
	cp.Operand.Op = CmpGe

	if tree.Operand.Op != CmpLt {
		t.Fatalf("Clone aliased the Not operand")
	}
}

func TestValueConstructors(t *testing.T) {
	c := ConstInt(types.Score, 42)
	if !c.IsConst() || c.ConstInt != 42 {
		t.Fatalf("ConstInt built %+v", c)
	}

	r := RegVal(types.Bool, 3)
	if r.Kind != VReg || r.Reg != 3 {
		t.Fatalf("RegVal built %+v", r)
	}

	s := ScoreVal(ScoreName{Selector: "@s", Objective: "vars"})
	if s.Kind != VScore || s.Type != types.Score {
		t.Fatalf("ScoreVal built %+v", s)
	}

	arg := ArgVal(types.NInt, 2)
	if arg.Kind != VArg || arg.ArgIndex != 2 {
		t.Fatalf("ArgVal built %+v", arg)
	}
}

func TestArgSlotAndReturnSlotNaming(t *testing.T) {
	ret := ReturnSlotOf("ns:fn", types.Score)
	if ret.Kind != VNamedSlot || ret.SlotName != "R:ns:fn" {
		t.Fatalf("ReturnSlotOf built %+v", ret)
	}

	arg := ArgSlotOf("ns:fn", 1, types.Score)
	if arg.Kind != VNamedSlot || arg.SlotName != "A:ns:fn.1" {
		t.Fatalf("ArgSlotOf built %+v", arg)
	}
}
