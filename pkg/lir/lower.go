package lir

import (
	"dpc/pkg/ir"
	"dpc/pkg/mir"
	"dpc/pkg/types"
)

// Lower specializes every MIR instruction onto the scoreboard/NBT
// opcode set, bridging NBT-domain operands through scratch scoreboard
// registers wherever arithmetic or a comparison needs them (spec
// §4.3). Register/slot allocation runs as a later pass, so VReg and
// VNamedSlot values pass through untouched here.
func Lower(m *mir.Module) (*Module, error) {
	out := NewModule()
	for _, id := range m.SortedIDs() {
		fn, err := lowerFunction(m.Functions[id])
		if err != nil {
			return nil, err
		}
		out.Functions[fn.ID] = fn
	}
	return out, nil
}

func lowerFunction(mfn *mir.Function) (*Function, error) {
	out := NewFunction(mfn.ID, mfn.Params, mfn.Ret)
	out.Annotations = mfn.Annotations
	out.RegNamespace = mfn.RegNamespace
	out.NextReg = mfn.NextReg

	ctx := &lowerCtx{fn: out}
	for _, inst := range mfn.Instrs {
		out.Instrs = append(out.Instrs, ctx.lowerInstr(inst)...)
	}
	return out, nil
}

type lowerCtx struct {
	fn *Function
}

func nonGuardMods(mods []ir.Modifier) []ir.Modifier {
	var out []ir.Modifier
	for _, m := range mods {
		if m.Kind != ir.ModIf && m.Kind != ir.ModUnless {
			out = append(out, m)
		}
	}
	return out
}

func (c *lowerCtx) bridgeOperand(v ir.Value, ctxMods []ir.Modifier) (ir.Value, []Instruction) {
	if !v.Type.IsNBT() || v.IsConst() {
		return v, nil
	}
	scratch := ir.RegVal(types.Score, c.fn.AllocReg())
	return scratch, []Instruction{{Op: OpNBTGet, Dest: scratch, Args: []ir.Value{v}, Modifiers: nonGuardMods(ctxMods)}}
}

func (c *lowerCtx) resolveScoreOperand(v ir.Value, ctxMods []ir.Modifier) (ir.Value, []Instruction) {
	return c.bridgeOperand(v, ctxMods)
}

func (c *lowerCtx) lowerInstr(inst mir.Instruction) []Instruction {
	pre, mods := c.lowerModifiers(inst.Modifiers)
	inst.Modifiers = mods

	var body []Instruction
	switch inst.Op {
	case mir.OpNoop:
		// nothing to emit

	case mir.OpCall:
		body = []Instruction{{Op: OpCall, Target: inst.Target, Modifiers: inst.Modifiers, Comment: inst.Comment}}
	case mir.OpCallX:
		body = []Instruction{{Op: OpCallX, Target: inst.Target, Modifiers: inst.Modifiers, Comment: inst.Comment}}

	case mir.OpSay:
		body = []Instruction{{Op: OpSay, Raw: inst.Raw, Modifiers: inst.Modifiers, Comment: inst.Comment}}
	case mir.OpCmd:
		body = []Instruction{{Op: OpCmd, Raw: inst.Raw, Modifiers: inst.Modifiers, Comment: inst.Comment}}
	case mir.OpTp:
		body = []Instruction{{Op: OpTp, Raw: inst.Raw, Modifiers: inst.Modifiers, Comment: inst.Comment}}
	case mir.OpKill:
		body = []Instruction{{Op: OpKill, Raw: inst.Raw, Modifiers: inst.Modifiers, Comment: inst.Comment}}
	case mir.OpXpSet:
		body = []Instruction{{Op: OpXpSet, Args: inst.Args, Raw: inst.Raw, Modifiers: inst.Modifiers, Comment: inst.Comment}}
	case mir.OpXpAdd:
		body = []Instruction{{Op: OpXpAdd, Args: inst.Args, Raw: inst.Raw, Modifiers: inst.Modifiers, Comment: inst.Comment}}

	case mir.OpMerge:
		body = []Instruction{{Op: OpNBTMerge, Dest: inst.Dest, Args: inst.Args, Raw: inst.Raw, Modifiers: inst.Modifiers, Comment: inst.Comment}}

	case mir.OpSet, mir.OpMove:
		body = c.lowerSet(inst)

	default:
		body = c.lowerArith(inst)
	}

	return append(pre, body...)
}

func (c *lowerCtx) lowerSet(inst mir.Instruction) []Instruction {
	dest, src := inst.Dest, inst.Args[0]

	if !dest.Type.IsNBT() {
		if src.Type.IsNBT() && !src.IsConst() {
			return []Instruction{{Op: OpNBTGet, Dest: dest, Args: []ir.Value{src}, Modifiers: inst.Modifiers, Comment: inst.Comment}}
		}
		return []Instruction{{Op: OpScoreSet, Dest: dest, Args: []ir.Value{src}, Modifiers: inst.Modifiers, Comment: inst.Comment}}
	}

	if !src.IsConst() && src.Type.IsNBT() {
		return []Instruction{{Op: OpNBTCopy, Dest: dest, Args: []ir.Value{src}, Modifiers: inst.Modifiers, Comment: inst.Comment}}
	}
	return []Instruction{{Op: OpNBTSet, Dest: dest, Args: []ir.Value{src}, Modifiers: inst.Modifiers, Comment: inst.Comment}}
}

var scoreArithOp = map[mir.Opcode]Opcode{
	mir.OpAdd: OpScoreAdd, mir.OpSub: OpScoreSub, mir.OpMul: OpScoreMul,
	mir.OpDiv: OpScoreDiv, mir.OpMod: OpScoreMod, mir.OpMin: OpScoreMin,
	mir.OpMax: OpScoreMax, mir.OpAnd: OpScoreAnd, mir.OpOr: OpScoreOr, mir.OpXor: OpScoreXor,
}

func (c *lowerCtx) lowerArith(inst mir.Instruction) []Instruction {
	op := scoreArithOp[inst.Op]
	dest := inst.Dest

	if !dest.Type.IsNBT() {
		arg, bridge := c.resolveScoreOperand(inst.Args[0], inst.Modifiers)
		out := append(bridge, Instruction{Op: op, Dest: dest, Args: []ir.Value{arg}, Modifiers: inst.Modifiers, Comment: inst.Comment})
		return out
	}

	scratch := ir.RegVal(types.Score, c.fn.AllocReg())
	var out []Instruction
	out = append(out, Instruction{Op: OpNBTGet, Dest: scratch, Args: []ir.Value{dest}, Modifiers: nonGuardMods(inst.Modifiers)})
	arg, bridge := c.resolveScoreOperand(inst.Args[0], inst.Modifiers)
	out = append(out, bridge...)
	out = append(out, Instruction{Op: op, Dest: scratch, Args: []ir.Value{arg}, Modifiers: inst.Modifiers, Comment: inst.Comment})
	out = append(out, Instruction{Op: OpNBTSet, Dest: dest, Args: []ir.Value{scratch}, Modifiers: inst.Modifiers})
	return out
}
