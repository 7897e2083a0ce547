package mir

import (
	"fmt"

	"dpc/pkg/dpcerr"
	"dpc/pkg/ir"
	"dpc/pkg/types"
)

// Lower desugars every structured-control-flow construct in m into the
// flat conditional-call form MIR passes analyze (spec §4.1):
//
//   - nested blocks are hoisted into the enclosing sequence, each
//     inner instruction prefixed with the outer modifier stack;
//   - if_else becomes two conditional calls to freshly-minted
//     internal functions ifbody_N, one guarded by the condition and
//     one by its negation;
//   - while becomes a self-calling guard function: the call into the
//     helper and its trailing self-call are both guarded by the
//     condition, and the body between them runs unguarded;
//   - a function with a declared return type gets an implicit
//     ReturnSlot; `retv` becomes a move into it, and a value-returning
//     `call` becomes argument-slot moves, the call, and a move out of
//     the callee's ReturnSlot.
//
// ifbody_N/while helper functions are artifacts of lowering their
// parent, not independent source functions: they share the parent's
// register namespace (Function.RegNamespace) so a register written in
// one and read in the other names the same scoreboard cell once LIR
// register allocation runs.
func Lower(m *ir.Module) (*Module, error) {
	l := &lowerer{
		out:     NewModule(),
		counter: 0,
		calls:   make(map[string]bool),
	}

	for _, id := range m.SortedIDs() {
		if err := l.lowerFunction(m.Functions[id]); err != nil {
			return nil, err
		}
	}

	for target := range l.calls {
		if _, ok := l.out.Functions[target]; !ok {
			return nil, dpcerr.New(dpcerr.UndefinedFunction, target, "call target never defined")
		}
	}

	return l.out, nil
}

type lowerer struct {
	out     *Module
	counter int
	calls   map[string]bool
}

func (l *lowerer) freshName(prefix string) string {
	n := fmt.Sprintf("dpc:%s_%d", prefix, l.counter)
	l.counter++
	return n
}

func (l *lowerer) lowerFunction(fn *ir.Function) error {
	out := NewFunction(fn.ID, fn.Params, fn.Ret)
	out.Annotations = fn.Annotations

	ctx := &fnLowerCtx{
		l:      l,
		root:   out,
		retTy:  fn.Ret,
		nextRg: &out.NextReg,
	}

	instrs, err := ctx.flatten(fn.Body, nil)
	if err != nil {
		return err
	}
	out.Instrs = instrs

	l.out.Functions[out.ID] = out
	return nil
}

// fnLowerCtx threads the root function identifier, its shared
// register counter, and its declared return type through recursive
// flattening and the helper functions it spawns.
type fnLowerCtx struct {
	l      *lowerer
	root   *Function
	retTy  *types.Kind
	nextRg *ir.Register
}

func (c *fnLowerCtx) allocReg() ir.Register {
	r := *c.nextRg
	*c.nextRg++
	return r
}

// flatten lowers a structured Block into a flat instruction list,
// prefixing every emitted instruction with outerMods.
func (c *fnLowerCtx) flatten(body ir.Block, outerMods []ir.Modifier) ([]Instruction, error) {
	var out []Instruction
	for _, instr := range body {
		lowered, err := c.lowerOne(instr, outerMods)
		if err != nil {
			return nil, err
		}
		out = append(out, lowered...)
	}
	return out, nil
}

func withMod(outer []ir.Modifier, m ir.Modifier) []ir.Modifier {
	out := make([]ir.Modifier, 0, len(outer)+1)
	out = append(out, outer...)
	out = append(out, m)
	return out
}

func (c *fnLowerCtx) lowerOne(instr ir.Instruction, outerMods []ir.Modifier) ([]Instruction, error) {
	switch instr.Op {
	case ir.OpBlock:
		return c.flatten(instr.Body, outerMods)

	case ir.OpModify:
		mods := outerMods
		for _, m := range instr.Modifiers {
			mods = withMod(mods, m)
		}
		return c.flatten(instr.Body, mods)

	case ir.OpIf:
		mods := withMod(outerMods, ir.Modifier{Kind: ir.ModIf, Cond: instr.Cond})
		return c.flatten(instr.Body, mods)

	case ir.OpIfElse:
		return c.lowerIfElse(instr, outerMods)

	case ir.OpWhile:
		return c.lowerWhile(instr, outerMods)

	case ir.OpCall:
		return c.lowerCall(instr, outerMods, true)

	case ir.OpCallX:
		return c.lowerCall(instr, outerMods, false)

	case ir.OpRetv:
		if c.retTy == nil {
			return nil, dpcerr.New(dpcerr.TypeMismatch, c.root.ID, "retv in a function with no declared return type")
		}
		return []Instruction{{
			Op:        OpMove,
			Dest:      ir.ReturnSlotOf(c.root.ID, *c.retTy),
			Args:      []ir.Value{instr.Args[0]},
			Modifiers: outerMods,
			Comment:   instr.Comment,
		}}, nil

	case ir.OpLet, ir.OpSet:
		if instr.Dest.Type == types.NAny && len(instr.Args) > 0 && instr.Args[0].Kind != ir.VNBT {
			return nil, dpcerr.New(dpcerr.UnsupportedType, c.root.ID, "set on nany from a non-NBT source")
		}
		return []Instruction{{Op: OpSet, Dest: instr.Dest, Args: instr.Args, Modifiers: outerMods, Comment: instr.Comment}}, nil

	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv, ir.OpMod, ir.OpMin, ir.OpMax:
		if err := checkArith(c.root.ID, instr.Dest.Type); err != nil {
			return nil, err
		}
		return []Instruction{{Op: arithOp(instr.Op), Dest: instr.Dest, Args: instr.Args, Modifiers: outerMods, Comment: instr.Comment}}, nil

	case ir.OpAnd, ir.OpOr, ir.OpXor:
		if instr.Dest.Type != types.Bool && instr.Dest.Type != types.Score {
			return nil, dpcerr.New(dpcerr.UnsupportedType, c.root.ID, "boolean op on "+instr.Dest.Type.String())
		}
		return []Instruction{{Op: arithOp(instr.Op), Dest: instr.Dest, Args: instr.Args, Modifiers: outerMods, Comment: instr.Comment}}, nil

	case ir.OpMerge:
		if instr.Dest.Type != types.NAny {
			return nil, dpcerr.New(dpcerr.UnsupportedType, c.root.ID, "mrg on non-nany destination")
		}
		return []Instruction{{Op: OpMerge, Dest: instr.Dest, Args: instr.Args, Modifiers: outerMods, Raw: instr.Raw, Comment: instr.Comment}}, nil

	case ir.OpSay, ir.OpCmd, ir.OpTp, ir.OpKill, ir.OpXpSet, ir.OpXpAdd:
		return []Instruction{{Op: rawOp(instr.Op), Args: instr.Args, Modifiers: outerMods, Raw: instr.Raw, Comment: instr.Comment}}, nil

	default:
		return nil, dpcerr.New(dpcerr.Internal, c.root.ID, fmt.Sprintf("unhandled IR opcode %v during lowering", instr.Op))
	}
}

func checkArith(fn string, t types.Kind) error {
	if t == types.NAny {
		return dpcerr.New(dpcerr.UnsupportedType, fn, "arithmetic on nany")
	}
	if !t.Numeric() && t != types.Bool {
		return dpcerr.New(dpcerr.UnsupportedType, fn, "arithmetic on "+t.String())
	}
	return nil
}

func arithOp(op ir.Opcode) Opcode {
	switch op {
	case ir.OpAdd:
		return OpAdd
	case ir.OpSub:
		return OpSub
	case ir.OpMul:
		return OpMul
	case ir.OpDiv:
		return OpDiv
	case ir.OpMod:
		return OpMod
	case ir.OpMin:
		return OpMin
	case ir.OpMax:
		return OpMax
	case ir.OpAnd:
		return OpAnd
	case ir.OpOr:
		return OpOr
	case ir.OpXor:
		return OpXor
	default:
		panic("arithOp: not an arithmetic opcode")
	}
}

func rawOp(op ir.Opcode) Opcode {
	switch op {
	case ir.OpSay:
		return OpSay
	case ir.OpCmd:
		return OpCmd
	case ir.OpTp:
		return OpTp
	case ir.OpKill:
		return OpKill
	case ir.OpXpSet:
		return OpXpSet
	case ir.OpXpAdd:
		return OpXpAdd
	default:
		panic("rawOp: not a raw game op")
	}
}

// lowerIfElse materializes both arms as internal ifbody_N functions
// and replaces the construct with two conditional calls (spec §4.1).
func (c *fnLowerCtx) lowerIfElse(instr ir.Instruction, outerMods []ir.Modifier) ([]Instruction, error) {
	thenName := c.l.freshName("ifbody")
	elseName := c.l.freshName("ifbody")

	if err := c.spawnHelper(thenName, instr.Body); err != nil {
		return nil, err
	}
	if len(instr.Else) > 0 {
		if err := c.spawnHelper(elseName, instr.Else); err != nil {
			return nil, err
		}
	}

	out := []Instruction{{
		Op:        OpCallX,
		Target:    thenName,
		Modifiers: withMod(outerMods, ir.Modifier{Kind: ir.ModIf, Cond: instr.Cond}),
	}}
	if len(instr.Else) > 0 {
		out = append(out, Instruction{
			Op:        OpCallX,
			Target:    elseName,
			Modifiers: withMod(outerMods, ir.Modifier{Kind: ir.ModUnless, Cond: instr.Cond}),
		})
	}
	c.l.calls[thenName] = true
	if len(instr.Else) > 0 {
		c.l.calls[elseName] = true
	}
	return out, nil
}

// lowerWhile materializes a self-calling guard function: Cond is tested
// before entering it, and if true the whole body runs, then Cond is
// tested again before it recurses.
func (c *fnLowerCtx) lowerWhile(instr ir.Instruction, outerMods []ir.Modifier) ([]Instruction, error) {
	name := c.l.freshName("whileloop")

	bodyInstrs, err := c.flatten(instr.Body, nil)
	if err != nil {
		return nil, err
	}
	selfCall := Instruction{
		Op:        OpCallX,
		Target:    name,
		Modifiers: []ir.Modifier{{Kind: ir.ModIf, Cond: instr.Cond}},
	}

	helper := NewFunction(name, nil, nil)
	helper.RegNamespace = c.root.ID
	helper.Instrs = append(bodyInstrs, selfCall)
	c.l.out.Functions[name] = helper
	c.l.calls[name] = true

	return []Instruction{{Op: OpCallX, Target: name, Modifiers: withMod(outerMods, ir.Modifier{Kind: ir.ModIf, Cond: instr.Cond})}}, nil
}

func (c *fnLowerCtx) spawnHelper(name string, body ir.Block) error {
	instrs, err := c.flatten(body, nil)
	if err != nil {
		return err
	}
	helper := NewFunction(name, nil, nil)
	helper.RegNamespace = c.root.ID
	helper.Instrs = instrs
	c.l.out.Functions[name] = helper
	return nil
}

// lowerCall materializes the calling convention: arguments are moved
// into the callee's globally-shared ArgSlots, the call is made, and —
// for value-returning calls — the result is moved out of the callee's
// ReturnSlot into Dest.
func (c *fnLowerCtx) lowerCall(instr ir.Instruction, outerMods []ir.Modifier, wantsReturn bool) ([]Instruction, error) {
	var out []Instruction
	for i, arg := range instr.Args {
		out = append(out, Instruction{
			Op:        OpMove,
			Dest:      ir.ArgSlotOf(instr.Target, i, arg.Type),
			Args:      []ir.Value{arg},
			Modifiers: outerMods,
		})
	}
	out = append(out, Instruction{Op: OpCall, Target: instr.Target, Modifiers: outerMods, Comment: instr.Comment})
	c.l.calls[instr.Target] = true

	if wantsReturn && instr.Dest.Kind != ir.VConst {
		out = append(out, Instruction{
			Op:        OpMove,
			Dest:      instr.Dest,
			Args:      []ir.Value{ir.ReturnSlotOf(instr.Target, instr.Dest.Type)},
			Modifiers: outerMods,
		})
	}
	return out, nil
}
