// Package fixtures builds the end-to-end example programs spec §8
// names by hand, using the pkg/ir builder API directly: the IR text
// grammar a real frontend would parse is explicitly out of scope, so
// these stand in for parsed source the way the teacher's own
// testdata/*.minz golden inputs would, just constructed in Go instead
// of a text file.
package fixtures

import (
	"dpc/pkg/ir"
	"dpc/pkg/types"
)

func scoreType(t types.Kind) *types.Kind { return &t }

// Sine approximates the shape of spec §8's `test:sine` scenario: a
// pure single-argument function called three times with constant
// arguments from `test:main`, the mechanism constant-arg call folding
// (pkg/optimizer's inlining pass, via pkg/interp) collapses into
// three literal results when optimization is enabled. The body here
// is a simple deterministic transform rather than a literal sine
// table — the scenario exercises the folding mechanism, not a
// specific numeric series.
func Sine() *ir.Module {
	m := ir.NewModule()

	sine := ir.NewFunction("test:sine", []types.Kind{types.Score}, scoreType(types.Score))
	arg := ir.ArgVal(types.Score, 0)
	r0 := sine.AllocReg()
	sine.Body = ir.Block{
		{Op: ir.OpLet, Dest: ir.RegVal(types.Score, r0), Args: []ir.Value{arg}},
		{Op: ir.OpDiv, Dest: ir.RegVal(types.Score, r0), Args: []ir.Value{ir.ConstInt(types.Score, 6)}},
		{Op: ir.OpRetv, Args: []ir.Value{ir.RegVal(types.Score, r0)}},
	}
	_ = m.AddFunction(sine)

	main := ir.NewFunction("test:main", nil, nil)
	r1, r2, r3 := main.AllocReg(), main.AllocReg(), main.AllocReg()
	main.Body = ir.Block{
		{Op: ir.OpCall, Dest: ir.RegVal(types.Score, r1), Target: "test:sine", Args: []ir.Value{ir.ConstInt(types.Score, 104)}},
		{Op: ir.OpCall, Dest: ir.RegVal(types.Score, r2), Target: "test:sine", Args: []ir.Value{ir.ConstInt(types.Score, 104)}},
		{Op: ir.OpCall, Dest: ir.RegVal(types.Score, r3), Target: "test:sine", Args: []ir.Value{ir.ConstInt(types.Score, 1660)}},
		{Op: ir.OpSay, Raw: "sine results computed"},
	}
	_ = m.AddFunction(main)

	return m
}

// Sqrt models spec §8's `test:sqrt` scenario: a piecewise function
// whose body is three branches, each returning a different literal.
// `retv` is a plain move into the return slot, not an early exit, so
// the branches run from the widest range to the narrowest and the
// last one that matches decides the result. Constant-arg calls from
// `test:main` fold to the literal the matching branch returns.
func Sqrt() *ir.Module {
	m := ir.NewModule()

	sqrt := ir.NewFunction("test:sqrt", []types.Kind{types.Score}, scoreType(types.Score))
	arg := ir.ArgVal(types.Score, 0)
	sqrt.Body = ir.Block{
		{Op: ir.OpRetv, Args: []ir.Value{ir.ConstInt(types.Score, -1)}},
		{
			Op:   ir.OpIf,
			Cond: ir.Compare(ir.CmpLe, arg, ir.ConstInt(types.Score, 25)),
			Body: ir.Block{{Op: ir.OpRetv, Args: []ir.Value{ir.ConstInt(types.Score, 5)}}},
		},
		{
			Op:   ir.OpIf,
			Cond: ir.Compare(ir.CmpLe, arg, ir.ConstInt(types.Score, 4)),
			Body: ir.Block{{Op: ir.OpRetv, Args: []ir.Value{ir.ConstInt(types.Score, 2)}}},
		},
	}
	_ = m.AddFunction(sqrt)

	main := ir.NewFunction("test:main", nil, nil)
	r1, r2 := main.AllocReg(), main.AllocReg()
	main.Body = ir.Block{
		{Op: ir.OpCall, Dest: ir.RegVal(types.Score, r1), Target: "test:sqrt", Args: []ir.Value{ir.ConstInt(types.Score, 4)}},
		{Op: ir.OpCall, Dest: ir.RegVal(types.Score, r2), Target: "test:sqrt", Args: []ir.Value{ir.ConstInt(types.Score, 25)}},
		{Op: ir.OpSay, Raw: "sqrt results computed"},
	}
	_ = m.AddFunction(main)

	return m
}

// ManualOrFold hand-writes the `set 0/if: add 1/if: add 1/if >=1` shape
// the OR-canonicalization lowering would itself produce from
// `if A or B`, to check the optimizer recognizes it as already
// canonical instead of wrapping it in a second counter.
func ManualOrFold() *ir.Module {
	m := ir.NewModule()
	fn := ir.NewFunction("fold:manual_or", nil, nil)
	a := ir.ScoreVal(ir.ScoreName{Selector: "@s", Objective: "vars"})
	b := ir.ScoreVal(ir.ScoreName{Selector: "@s", Objective: "flags"})
	counterReg := fn.AllocReg()
	counter := ir.RegVal(types.Score, counterReg)

	fn.Body = ir.Block{
		{Op: ir.OpSet, Dest: counter, Args: []ir.Value{ir.ConstInt(types.Score, 0)}},
		{
			Op:   ir.OpIf,
			Cond: ir.Compare(ir.CmpEq, a, ir.ConstInt(types.Score, 1)),
			Body: ir.Block{{Op: ir.OpAdd, Dest: counter, Args: []ir.Value{ir.ConstInt(types.Score, 1)}}},
		},
		{
			Op:   ir.OpIf,
			Cond: ir.Compare(ir.CmpEq, b, ir.ConstInt(types.Score, 1)),
			Body: ir.Block{{Op: ir.OpAdd, Dest: counter, Args: []ir.Value{ir.ConstInt(types.Score, 1)}}},
		},
		{
			Op:   ir.OpIf,
			Cond: ir.Compare(ir.CmpGe, counter, ir.ConstInt(types.Score, 1)),
			Body: ir.Block{{Op: ir.OpSay, Raw: "either flag set"}},
		},
	}
	_ = m.AddFunction(fn)
	return m
}

// ShouldBeShortest models spec §8's identifier-shortening scenario:
// three equal-size anonymous-style functions plus one already-short
// identifier (`sh:ort`), called with different frequencies. The
// most-called function must receive the shortest generated name.
func ShouldBeShortest() *ir.Module {
	m := ir.NewModule()

	names := []string{"dpc:helper_one", "dpc:helper_two", "dpc:helper_three"}
	for _, n := range names {
		fn := ir.NewFunction(n, nil, nil)
		fn.Body = ir.Block{{Op: ir.OpSay, Raw: "from " + n}}
		_ = m.AddFunction(fn)
	}
	short := ir.NewFunction("sh:ort", nil, nil)
	short.Body = ir.Block{{Op: ir.OpSay, Raw: "already short"}}
	_ = m.AddFunction(short)

	main := ir.NewFunction("test:main", nil, nil)
	var calls []ir.Instruction
	// helper_one is called the most; helper_two and helper_three tie.
	for i := 0; i < 3; i++ {
		calls = append(calls, ir.Instruction{Op: ir.OpCallX, Target: "dpc:helper_one"})
	}
	calls = append(calls, ir.Instruction{Op: ir.OpCallX, Target: "dpc:helper_two"})
	calls = append(calls, ir.Instruction{Op: ir.OpCallX, Target: "dpc:helper_three"})
	calls = append(calls, ir.Instruction{Op: ir.OpCallX, Target: "sh:ort"})
	main.Body = calls
	_ = m.AddFunction(main)

	return m
}

// NotAnd models spec §8's `test:not_and` scenario: `if not (A and B)`
// must push the negation through the conjunction (De Morgan) into
// `unless A or unless B`, which the OR canonicalization then lowers
// to a counter `set 0`, `unless A: add 1`, `unless B: add 1`, `if >=1`
// chain; the counter is reset with a plain set, not a store success.
func NotAnd() *ir.Module {
	m := ir.NewModule()
	fn := ir.NewFunction("test:not_and", nil, nil)
	a := ir.ScoreVal(ir.ScoreName{Selector: "@s", Objective: "a"})
	b := ir.ScoreVal(ir.ScoreName{Selector: "@s", Objective: "b"})

	fn.Body = ir.Block{
		{
			Op: ir.OpIf,
			Cond: ir.Not(ir.And(
				ir.Compare(ir.CmpEq, a, ir.ConstInt(types.Score, 1)),
				ir.Compare(ir.CmpEq, b, ir.ConstInt(types.Score, 1)),
			)),
			Body: ir.Block{{Op: ir.OpSay, Raw: "not both set"}},
		},
	}
	_ = m.AddFunction(fn)
	return m
}

// CopyPropMultiple models spec §8's `test:copy_prop_multiple`
// scenario: the same source register is copied into three registers
// in a row. None of the copies is read afterwards, so under
// optimization dead-code elimination removes them together with the
// source; no chained-store sequence is produced.
func CopyPropMultiple() *ir.Module {
	m := ir.NewModule()
	fn := ir.NewFunction("test:copy_prop_multiple", nil, nil)
	src := ir.RegVal(types.Score, fn.AllocReg())
	d1 := ir.RegVal(types.Score, fn.AllocReg())
	d2 := ir.RegVal(types.Score, fn.AllocReg())
	d3 := ir.RegVal(types.Score, fn.AllocReg())

	fn.Body = ir.Block{
		{Op: ir.OpSet, Dest: src, Args: []ir.Value{ir.ConstInt(types.Score, 7)}},
		{Op: ir.OpSet, Dest: d1, Args: []ir.Value{src}},
		{Op: ir.OpSet, Dest: d2, Args: []ir.Value{src}},
		{Op: ir.OpSet, Dest: d3, Args: []ir.Value{src}},
		{Op: ir.OpSay, Raw: "copies taken"},
	}
	_ = m.AddFunction(fn)
	return m
}
