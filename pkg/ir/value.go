// Package ir is the public, stable surface frontends build against:
// structured control flow over typed registers, scoreboard names, NBT
// paths and the game's execute modifiers. It is lowered to pkg/mir by
// Lower.
package ir

import (
	"fmt"

	"dpc/pkg/types"
)

// Register is a function-local SSA-ish handle. Registers are not
// guaranteed to be in SSA form — reassignment is legal — but every
// use must be dominated by at least one definition on every path, and
// a register's type is fixed at its first definition.
type Register int

// NBTTargetKind selects what an NBTPath addresses.
type NBTTargetKind uint8

const (
	NBTEntity NBTTargetKind = iota
	NBTStorage
	NBTBlock
)

// NBTTarget names the entity selector, storage id or block position an
// NBTPath is rooted at.
type NBTTarget struct {
	Kind NBTTargetKind
	Name string // selector, storage id ("ns:name"), or "x y z"
}

// NBTPath addresses a scalar or subtree inside a target's NBT data,
// e.g. Target=entity "@s", Path="Inventory[0].Count".
type NBTPath struct {
	Target NBTTarget
	Path   string
	Kind   types.Kind
}

func (p NBTPath) String() string {
	return fmt.Sprintf("%v:%s %s", p.Target.Kind, p.Target.Name, p.Path)
}

// ScoreName is an (entity-selector, objective) pair addressing one
// scoreboard cell.
type ScoreName struct {
	Selector  string
	Objective string
}

func (s ScoreName) String() string { return s.Selector + " " + s.Objective }

// ValueKind tags which variant a Value holds.
type ValueKind uint8

const (
	VConst ValueKind = iota
	VReg
	VScore
	VNBT
	VArg
	VReturn
	VNamedSlot // a globally-shared slot: a callee's ArgSlot or ReturnSlot
)

// Value is a tagged union over the operand forms the IR accepts: a
// literal, a register reference, a scoreboard cell, an NBT path, a
// call-site argument slot, or the callee's return slot.
type Value struct {
	Kind ValueKind

	Type types.Kind

	ConstInt   int64
	ConstFloat float64

	Reg Register

	Score ScoreName
	NBT   NBTPath

	ArgIndex int

	SlotName string // VNamedSlot: e.g. "R:ns:fn" or "A:ns:fn.0"
}

func ConstInt(t types.Kind, v int64) Value   { return Value{Kind: VConst, Type: t, ConstInt: v} }
func ConstFloat(t types.Kind, v float64) Value { return Value{Kind: VConst, Type: t, ConstFloat: v} }
func RegVal(t types.Kind, r Register) Value  { return Value{Kind: VReg, Type: t, Reg: r} }
func ScoreVal(s ScoreName) Value             { return Value{Kind: VScore, Type: types.Score, Score: s} }
func NBTVal(p NBTPath) Value                 { return Value{Kind: VNBT, Type: p.Kind, NBT: p} }
func ArgVal(t types.Kind, i int) Value       { return Value{Kind: VArg, Type: t, ArgIndex: i} }
func ReturnVal(t types.Kind) Value           { return Value{Kind: VReturn, Type: t} }

// ReturnSlotOf names the globally-shared slot a function's return
// value is written to before the caller reads it.
func ReturnSlotOf(fnID string, t types.Kind) Value {
	return Value{Kind: VNamedSlot, Type: t, SlotName: "R:" + fnID}
}

// ArgSlotOf names the globally-shared slot holding a callee's i-th
// parameter. Argument slots are shared across every call site to the
// same callee — there is no re-entrancy (spec §4.4).
func ArgSlotOf(fnID string, i int, t types.Kind) Value {
	return Value{Kind: VNamedSlot, Type: t, SlotName: fmt.Sprintf("A:%s.%d", fnID, i)}
}

// IsConst reports whether the value is a compile-time literal.
func (v Value) IsConst() bool { return v.Kind == VConst }

func (v Value) String() string {
	switch v.Kind {
	case VConst:
		if v.Type.IsFloat() {
			return fmt.Sprintf("%g", v.ConstFloat)
		}
		return fmt.Sprintf("%d", v.ConstInt)
	case VReg:
		return fmt.Sprintf("%%r%d", v.Reg)
	case VScore:
		return "score(" + v.Score.String() + ")"
	case VNBT:
		return "nbt(" + v.NBT.String() + ")"
	case VArg:
		return fmt.Sprintf("arg(%d)", v.ArgIndex)
	case VReturn:
		return "return"
	case VNamedSlot:
		return "%" + v.SlotName
	default:
		return "?"
	}
}
