// Package lir is the type-specialized tier MIR lowers into: every
// polymorphic MIR opcode becomes either a scoreboard operation or an
// NBT storage operation depending on the operand's declared kind
// (spec §4.3), registers and named slots are assigned concrete
// scoreboard players or NBT storage paths, and a handful of
// target-aware passes (selector argument reordering, execute-modifier
// merging, store fusion) run before codegen turns each instruction
// into literal command text.
package lir

import "dpc/pkg/ir"

// Opcode is the LIR instruction tag. Arithmetic is scoreboard-only —
// Minecraft's scoreboard is the only place integer arithmetic happens
// natively — so an NBT-kind value is bridged through a scratch
// scoreboard register (NBTGet/NBTSet) around a Score op. A plain
// NBT-to-NBT copy never needs to touch a scoreboard at all.
type Opcode uint8

const (
	OpNoop Opcode = iota
	OpScoreSet
	OpScoreAdd
	OpScoreSub
	OpScoreMul
	OpScoreDiv
	OpScoreMod
	OpScoreMin
	OpScoreMax
	OpScoreAnd
	OpScoreOr
	OpScoreXor
	OpNBTSet    // data modify ... set value <const>, or store result from a score
	OpNBTGet    // execute store result score <dest> run data get <src> <scale>
	OpNBTCopy   // data modify <dest> set from <src> (no scoreboard bounce)
	OpNBTMerge  // data merge <dest> <compound>
	OpCall
	OpCallX
	OpSay
	OpCmd
	OpTp
	OpKill
	OpXpSet
	OpXpAdd
)

func (op Opcode) String() string {
	names := [...]string{
		"noop", "score_set", "score_add", "score_sub", "score_mul", "score_div",
		"score_mod", "score_min", "score_max", "score_and", "score_or", "score_xor",
		"nbt_set", "nbt_get", "nbt_copy", "nbt_merge",
		"call", "callx", "say", "cmd", "tp", "kill", "xp_set", "xp_add",
	}
	if int(op) < len(names) {
		return names[op]
	}
	return "?"
}

// IsScoreArith reports whether op is a scoreboard binary operation —
// the shape store fusion and selector reordering both match against.
func (op Opcode) IsScoreArith() bool {
	switch op {
	case OpScoreAdd, OpScoreSub, OpScoreMul, OpScoreDiv, OpScoreMod,
		OpScoreMin, OpScoreMax, OpScoreAnd, OpScoreOr, OpScoreXor:
		return true
	default:
		return false
	}
}

func (op Opcode) HasSideEffect() bool {
	switch op {
	case OpCall, OpCallX, OpSay, OpCmd, OpTp, OpKill, OpXpSet, OpXpAdd, OpNBTMerge:
		return true
	default:
		return false
	}
}

// Instruction is one LIR statement: operands are still ir.Value so
// the condition/modifier vocabulary carries over unchanged from
// pkg/ir and pkg/mir, but by the time codegen runs every Dest/Arg/
// Cond leaf has been resolved off VReg/VNamedSlot onto a concrete
// VScore or VNBT address by the register allocation pass.
type Instruction struct {
	Op Opcode

	Dest ir.Value
	Args []ir.Value

	Modifiers []ir.Modifier

	Target string
	Raw    string

	Comment string
}

func (i Instruction) Clone() Instruction {
	cp := i
	if i.Args != nil {
		cp.Args = append([]ir.Value(nil), i.Args...)
	}
	if i.Modifiers != nil {
		cp.Modifiers = make([]ir.Modifier, len(i.Modifiers))
		for idx, m := range i.Modifiers {
			cm := m
			cm.Cond = m.Cond.Clone()
			cp.Modifiers[idx] = cm
		}
	}
	return cp
}

func (i Instruction) IfGuard() (*ir.Modifier, int) {
	for idx := range i.Modifiers {
		if i.Modifiers[idx].Kind == ir.ModIf || i.Modifiers[idx].Kind == ir.ModUnless {
			return &i.Modifiers[idx], idx
		}
	}
	return nil, -1
}
