// Package mir is the flattened tier produced by lowering pkg/ir:
// structured control flow has been desugared into straight-line
// instruction lists guarded by execute modifiers and conditional
// calls, which makes dataflow analysis (the MIR optimizer's job)
// tractable. Operand vocabulary (Value, Condition, Modifier) is
// shared with pkg/ir; only the instruction shape and opcode set
// change tier to tier.
package mir

import "dpc/pkg/ir"

// Opcode is the MIR instruction tag: the same polymorphic arithmetic
// family as pkg/ir, minus every structured-control-flow opcode, plus
// Move (materializes return/copy assignment) and Noop (a folded-away
// instruction kept as a placeholder until dead-code elimination runs).
type Opcode uint8

const (
	OpNoop Opcode = iota
	OpSet
	OpMove
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpMin
	OpMax
	OpAnd
	OpOr
	OpXor
	OpMerge
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
		"noop", "set", "move", "add", "sub", "mul", "div", "mod",
		"min", "max", "and", "or", "xor", "mrg", "call", "callx",
		"say", "cmd", "tp", "kill", "xp_set", "xp_add",
	}
	if int(op) < len(names) {
		return names[op]
	}
	return "?"
}

// IsBinaryArith reports whether op reads exactly two operands and
// writes Dest — the shape constant folding and algebraic
// simplification both match against.
func (op Opcode) IsBinaryArith() bool {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv, OpMod, OpMin, OpMax, OpAnd, OpOr, OpXor:
		return true
	default:
		return false
	}
}

// HasSideEffect reports whether an instruction of this opcode must
// never be deleted purely because its destination is unused.
func (op Opcode) HasSideEffect() bool {
	switch op {
	case OpCall, OpCallX, OpSay, OpCmd, OpTp, OpKill, OpXpSet, OpXpAdd, OpMerge:
		return true
	default:
		return false
	}
}

// Instruction is one flat MIR statement.
type Instruction struct {
	Op Opcode

	Dest ir.Value
	Args []ir.Value

	Modifiers []ir.Modifier

	Target string // OpCall / OpCallX function identifier
	Raw    string // OpSay / OpCmd / OpTp / OpKill / OpXpSet / OpXpAdd text

	Comment string
}

// Clone returns an independent copy safe to mutate without aliasing
// the Modifiers/Args slices of the original.
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

// IfGuard returns the first If/Unless modifier on the instruction, if
// any — the guard constant folding evaluates.
func (i Instruction) IfGuard() (*ir.Modifier, int) {
	for idx := range i.Modifiers {
		if i.Modifiers[idx].Kind == ir.ModIf || i.Modifiers[idx].Kind == ir.ModUnless {
			return &i.Modifiers[idx], idx
		}
	}
	return nil, -1
}
