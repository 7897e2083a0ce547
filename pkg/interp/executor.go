package interp

import (
	"fmt"

	"dpc/pkg/ir"
	"dpc/pkg/mir"
	"dpc/pkg/types"
)

// Num is a compile-time scalar: an integer or float tagged with its
// declared Kind, the same vocabulary types.Kind already classifies.
type Num struct {
	I int64
	F float64
	T types.Kind
}

func (n Num) AsFloat() float64 {
	if n.T.IsFloat() {
		return n.F
	}
	return float64(n.I)
}

func (n Num) AsInt() int64 {
	if n.T.IsFloat() {
		return int64(n.F)
	}
	return n.I
}

func (n Num) Bool() bool { return n.AsInt() != 0 }

func numFromValue(v ir.Value) Num {
	if v.Type.IsFloat() {
		return Num{F: v.ConstFloat, T: v.Type}
	}
	return Num{I: v.ConstInt, T: v.Type}
}

// ErrNotConst means evaluation hit something that cannot be resolved
// to a literal at compile time (a scoreboard read, an unbound game
// condition, an impure call) — the caller should leave the call site
// untouched rather than treat this as a compiler error.
var ErrNotConst = fmt.Errorf("not a compile-time constant")

// Executor interprets pure MIR functions over constant arguments. It
// bounds call depth and instruction count exactly like the teacher's
// CompileTimeExecutor, so a pathological input cannot hang the
// optimizer — it just gives up and leaves the call unfolded.
type Executor struct {
	module   *mir.Module
	purity   *Purity
	maxDepth int
	maxSteps int
}

func NewExecutor(m *mir.Module) *Executor {
	return &Executor{
		module:   m,
		purity:   NewPurity(m),
		maxDepth: 64,
		maxSteps: 10_000,
	}
}

// Eval evaluates target(args...) at compile time. Every arg must
// already be a literal; target must be pure (spec's sine/sqrt
// scenarios only fold calls whose arguments are all known constants).
func (e *Executor) Eval(target string, args []ir.Value) (Num, error) {
	fn, ok := e.module.Functions[target]
	if !ok {
		return Num{}, fmt.Errorf("%w: undefined function %q", ErrNotConst, target)
	}
	if !e.purity.IsPure(fn) {
		return Num{}, fmt.Errorf("%w: %q is not pure", ErrNotConst, target)
	}
	for _, a := range args {
		if !a.IsConst() {
			return Num{}, ErrNotConst
		}
	}

	state := make(map[string]Num)
	for i, a := range args {
		state[fmt.Sprintf("A:%s.%d", target, i)] = numFromValue(a)
	}
	if err := e.run(fn, state, 0); err != nil {
		return Num{}, err
	}

	if fn.Ret == nil {
		return Num{}, fmt.Errorf("%w: %q has no return value", ErrNotConst, target)
	}
	result, ok := state["R:"+target]
	if !ok {
		return Num{}, fmt.Errorf("%w: %q never wrote its return slot", ErrNotConst, target)
	}
	return result, nil
}

func (e *Executor) run(fn *mir.Function, state map[string]Num, depth int) error {
	if depth > e.maxDepth {
		return fmt.Errorf("%w: max call depth exceeded evaluating %q", ErrNotConst, fn.ID)
	}
	steps := 0
	for _, inst := range fn.Instrs {
		steps++
		if steps > e.maxSteps {
			return fmt.Errorf("%w: step budget exceeded evaluating %q", ErrNotConst, fn.ID)
		}

		ok, err := e.guardHolds(inst, state, fn)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		if err := e.step(inst, state, fn, depth); err != nil {
			return err
		}
	}
	return nil
}

func (e *Executor) guardHolds(inst mir.Instruction, state map[string]Num, fn *mir.Function) (bool, error) {
	mod, _ := inst.IfGuard()
	if mod == nil {
		return true, nil
	}
	v, err := e.evalCond(mod.Cond, state, fn)
	if err != nil {
		return false, err
	}
	if mod.Kind == ir.ModUnless {
		return !v, nil
	}
	return v, nil
}

func (e *Executor) evalCond(c *ir.Condition, state map[string]Num, fn *mir.Function) (bool, error) {
	switch c.Kind {
	case ir.CondRaw:
		return c.Bool, nil
	case ir.CondCompare:
		a, err := e.read(c.A, state, fn)
		if err != nil {
			return false, err
		}
		b, err := e.read(c.B, state, fn)
		if err != nil {
			return false, err
		}
		return compare(c.Op, a, b), nil
	case ir.CondNot:
		v, err := e.evalCond(c.Operand, state, fn)
		return !v, err
	case ir.CondAnd:
		for _, ch := range c.Children {
			v, err := e.evalCond(ch, state, fn)
			if err != nil || !v {
				return false, err
			}
		}
		return true, nil
	case ir.CondOr:
		for _, ch := range c.Children {
			v, err := e.evalCond(ch, state, fn)
			if err != nil {
				return false, err
			}
			if v {
				return true, nil
			}
		}
		return false, nil
	case ir.CondXor:
		count := 0
		for _, ch := range c.Children {
			v, err := e.evalCond(ch, state, fn)
			if err != nil {
				return false, err
			}
			if v {
				count++
			}
		}
		return count%2 == 1, nil
	default:
		// Predicate / data-presence / block / biome checks depend on
		// live game state and cannot be folded.
		return false, ErrNotConst
	}
}

func compare(op ir.CmpOp, a, b Num) bool {
	af, bf := a.AsFloat(), b.AsFloat()
	switch op {
	case ir.CmpEq:
		return af == bf
	case ir.CmpNe:
		return af != bf
	case ir.CmpLt:
		return af < bf
	case ir.CmpLe:
		return af <= bf
	case ir.CmpGt:
		return af > bf
	case ir.CmpGe:
		return af >= bf
	default:
		return false
	}
}

func (e *Executor) read(v ir.Value, state map[string]Num, fn *mir.Function) (Num, error) {
	switch v.Kind {
	case ir.VConst:
		return numFromValue(v), nil
	case ir.VReg:
		key := fmt.Sprintf("%s.r%d", fn.Namespace(), v.Reg)
		n, ok := state[key]
		if !ok {
			return Num{}, fmt.Errorf("%w: register %%r%d read before write", ErrNotConst, v.Reg)
		}
		return n, nil
	case ir.VNamedSlot:
		n, ok := state[v.SlotName]
		if !ok {
			return Num{}, fmt.Errorf("%w: slot %s read before write", ErrNotConst, v.SlotName)
		}
		return n, nil
	default:
		return Num{}, fmt.Errorf("%w: value kind %v depends on live game state", ErrNotConst, v.Kind)
	}
}

func (e *Executor) write(v ir.Value, n Num, state map[string]Num, fn *mir.Function) error {
	switch v.Kind {
	case ir.VReg:
		state[fmt.Sprintf("%s.r%d", fn.Namespace(), v.Reg)] = n
		return nil
	case ir.VNamedSlot:
		state[v.SlotName] = n
		return nil
	default:
		return fmt.Errorf("%w: cannot write to value kind %v at compile time", ErrNotConst, v.Kind)
	}
}

func (e *Executor) step(inst mir.Instruction, state map[string]Num, fn *mir.Function, depth int) error {
	switch inst.Op {
	case mir.OpNoop:
		return nil
	case mir.OpSet, mir.OpMove:
		v, err := e.read(inst.Args[0], state, fn)
		if err != nil {
			return err
		}
		return e.write(inst.Dest, v, state, fn)
	case mir.OpAdd, mir.OpSub, mir.OpMul, mir.OpDiv, mir.OpMod, mir.OpMin, mir.OpMax,
		mir.OpAnd, mir.OpOr, mir.OpXor:
		a, err := e.read(inst.Dest, state, fn) // in-place op: dest is also the first operand
		if err != nil {
			// first write to dest: treat as zero value of its type
			a = Num{T: inst.Dest.Type}
		}
		b, err := e.read(inst.Args[0], state, fn)
		if err != nil {
			return err
		}
		result, err := apply(inst.Op, a, b)
		if err != nil {
			return err
		}
		return e.write(inst.Dest, result, state, fn)
	case mir.OpCall, mir.OpCallX:
		callee, ok := e.module.Functions[inst.Target]
		if !ok {
			return fmt.Errorf("%w: undefined function %q", ErrNotConst, inst.Target)
		}
		if !e.purity.IsPure(callee) {
			return fmt.Errorf("%w: %q is not pure", ErrNotConst, inst.Target)
		}
		return e.run(callee, state, depth+1)
	default:
		return fmt.Errorf("%w: opcode %v has an observable effect", ErrNotConst, inst.Op)
	}
}

func apply(op mir.Opcode, a, b Num) (Num, error) {
	if a.T.IsFloat() || b.T.IsFloat() {
		af, bf := a.AsFloat(), b.AsFloat()
		t := a.T
		if !t.IsFloat() {
			t = b.T
		}
		switch op {
		case mir.OpAdd:
			return Num{F: af + bf, T: t}, nil
		case mir.OpSub:
			return Num{F: af - bf, T: t}, nil
		case mir.OpMul:
			return Num{F: af * bf, T: t}, nil
		case mir.OpDiv:
			if bf == 0 {
				return Num{}, fmt.Errorf("%w: division by zero", ErrNotConst)
			}
			return Num{F: af / bf, T: t}, nil
		case mir.OpMin:
			if af < bf {
				return Num{F: af, T: t}, nil
			}
			return Num{F: bf, T: t}, nil
		case mir.OpMax:
			if af > bf {
				return Num{F: af, T: t}, nil
			}
			return Num{F: bf, T: t}, nil
		default:
			return Num{}, fmt.Errorf("%w: opcode %v undefined on floats", ErrNotConst, op)
		}
	}

	ai, bi := a.AsInt(), b.AsInt()
	switch op {
	case mir.OpAdd:
		return Num{I: ai + bi, T: a.T}, nil
	case mir.OpSub:
		return Num{I: ai - bi, T: a.T}, nil
	case mir.OpMul:
		return Num{I: ai * bi, T: a.T}, nil
	case mir.OpDiv:
		if bi == 0 {
			return Num{}, fmt.Errorf("%w: division by zero", ErrNotConst)
		}
		return Num{I: ai / bi, T: a.T}, nil
	case mir.OpMod:
		if bi == 0 {
			return Num{}, fmt.Errorf("%w: modulo by zero", ErrNotConst)
		}
		return Num{I: ai % bi, T: a.T}, nil
	case mir.OpMin:
		if ai < bi {
			return Num{I: ai, T: a.T}, nil
		}
		return Num{I: bi, T: a.T}, nil
	case mir.OpMax:
		if ai > bi {
			return Num{I: ai, T: a.T}, nil
		}
		return Num{I: bi, T: a.T}, nil
	case mir.OpAnd:
		return Num{I: ai & bi, T: a.T}, nil
	case mir.OpOr:
		return Num{I: ai | bi, T: a.T}, nil
	case mir.OpXor:
		return Num{I: ai ^ bi, T: a.T}, nil
	default:
		return Num{}, fmt.Errorf("%w: opcode %v undefined on integers", ErrNotConst, op)
	}
}
