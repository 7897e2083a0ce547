package codegen

import (
	"fmt"
	"strings"

	"dpc/pkg/dpcerr"
	"dpc/pkg/ir"
	"dpc/pkg/lir"
	"dpc/pkg/types"
)

// emitter turns LIR instructions into command-text lines, minting
// literal-pool slots as it goes. Literal-pool slot names are assigned
// in first-seen order, which would be nondeterministic under real
// concurrency — Generate avoids that by running one sequential
// warm-up pass that fully populates the pool before any parallel pass
// runs, so every slot() call during the parallel pass is a pure
// lookup and pool/usesStg are never written concurrently (spec §5
// determinism).
type emitter struct {
	pool    *literalPool
	usesStg bool // saw a write/read against StorageObject; init must exist it
}

func newEmitter(pool *literalPool) *emitter { return &emitter{pool: pool} }

func (e *emitter) function(fn *lir.Function) ([]string, error) {
	lines := make([]string, 0, len(fn.Instrs))
	for _, inst := range fn.Instrs {
		bodies, err := e.body(inst)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fn.ID, err)
		}
		if len(bodies) == 0 {
			continue
		}
		prefix, ok, err := e.modifierPrefix(inst.Modifiers)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fn.ID, err)
		}
		if !ok {
			continue // a statically-false guard; instruction never runs
		}
		for _, b := range bodies {
			if prefix == "" {
				lines = append(lines, b)
			} else {
				lines = append(lines, prefix+" run "+b)
			}
		}
	}
	return lines, nil
}

// body renders the instruction's own command(s), without any execute
// prefix. Most opcodes render one line; the bool and/or/xor synthesis
// needs two sequential commands, both guarded identically by the
// caller.
func (e *emitter) body(inst lir.Instruction) ([]string, error) {
	line, err := e.bodyLine(inst)
	if err != nil {
		return nil, err
	}
	if line == "" {
		return nil, nil
	}
	return strings.Split(line, "\n"), nil
}

func (e *emitter) bodyLine(inst lir.Instruction) (string, error) {
	switch inst.Op {
	case lir.OpScoreSet:
		return e.scoreAssign(inst.Dest, inst.Args[0])
	case lir.OpScoreAdd:
		return e.scoreAccumulate(inst.Dest, inst.Args[0], "add", "remove")
	case lir.OpScoreSub:
		return e.scoreAccumulate(inst.Dest, inst.Args[0], "remove", "add")
	case lir.OpScoreMul:
		return e.scoreOperation(inst.Dest, inst.Args[0], "*=")
	case lir.OpScoreDiv:
		return e.scoreOperation(inst.Dest, inst.Args[0], "/=")
	case lir.OpScoreMod:
		return e.scoreOperation(inst.Dest, inst.Args[0], "%=")
	case lir.OpScoreMin:
		return e.scoreOperation(inst.Dest, inst.Args[0], "<")
	case lir.OpScoreMax:
		return e.scoreOperation(inst.Dest, inst.Args[0], ">")
	case lir.OpScoreAnd:
		return e.boolOp(inst.Dest, inst.Args[0], "and")
	case lir.OpScoreOr:
		return e.boolOp(inst.Dest, inst.Args[0], "or")
	case lir.OpScoreXor:
		return e.boolOp(inst.Dest, inst.Args[0], "xor")
	case lir.OpNBTSet:
		return e.nbtSet(inst.Dest, inst.Args[0])
	case lir.OpNBTGet:
		return e.nbtGet(inst.Dest, inst.Args[0])
	case lir.OpNBTCopy:
		return e.nbtCopy(inst.Dest, inst.Args[0])
	case lir.OpNBTMerge:
		target, err := e.nbtTargetClause(inst.Dest.NBT.Target)
		if err != nil {
			return "", err
		}
		return "data merge " + target + " " + inst.Raw, nil
	case lir.OpCall:
		return "function " + inst.Target, nil
	case lir.OpCallX:
		return "function " + inst.Target, nil
	case lir.OpSay:
		return "say " + inst.Raw, nil
	case lir.OpCmd:
		return inst.Raw, nil
	case lir.OpTp:
		return "tp " + inst.Raw, nil
	case lir.OpKill:
		if inst.Raw == "" {
			return "kill", nil
		}
		return "kill " + inst.Raw, nil
	case lir.OpXpSet:
		return "experience set " + inst.Raw, nil
	case lir.OpXpAdd:
		return "experience add " + inst.Raw, nil
	case lir.OpNoop:
		return "", nil
	default:
		return "", dpcerr.New(dpcerr.Internal, "", fmt.Sprintf("codegen: unhandled lir opcode %v", inst.Op))
	}
}

func (e *emitter) scoreClause(v ir.Value) (string, error) {
	if v.Kind != ir.VScore {
		return "", dpcerr.New(dpcerr.Internal, "", "codegen: expected an allocated scoreboard value, got "+v.String())
	}
	return v.Score.Selector + " " + v.Score.Objective, nil
}

func (e *emitter) scoreAssign(dest, src ir.Value) (string, error) {
	d, err := e.scoreClause(dest)
	if err != nil {
		return "", err
	}
	if src.IsConst() {
		return fmt.Sprintf("scoreboard players set %s %d", d, src.ConstInt), nil
	}
	s, err := e.scoreClause(src)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("scoreboard players operation %s = %s", d, s), nil
}

// scoreAccumulate renders add/sub as the `add`/`remove` shorthand for
// a literal operand (shorter than a full `operation` line, and the
// form spec §4.6 calls out by name), falling back to `operation` for
// a register operand. A negative literal flips to the other verb so
// the emitted magnitude is always non-negative.
func (e *emitter) scoreAccumulate(dest, src ir.Value, verb, negVerb string) (string, error) {
	d, err := e.scoreClause(dest)
	if err != nil {
		return "", err
	}
	if src.IsConst() {
		n := src.ConstInt
		v := verb
		if n < 0 {
			v = negVerb
			n = -n
		}
		return fmt.Sprintf("scoreboard players %s %s %d", v, d, n), nil
	}
	s, err := e.scoreClause(src)
	if err != nil {
		return "", err
	}
	op := "+="
	if verb == "remove" {
		op = "-="
	}
	return fmt.Sprintf("scoreboard players operation %s %s %s", d, op, s), nil
}

// scoreOperation renders the opcodes with no set/add/remove shorthand
// at all: `scoreboard players operation` always needs a second
// scoreboard operand, so a literal argument is materialized into the
// literal pool first.
func (e *emitter) scoreOperation(dest, src ir.Value, op string) (string, error) {
	d, err := e.scoreClause(dest)
	if err != nil {
		return "", err
	}
	s, err := e.operandViaPool(src)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("scoreboard players operation %s %s %s", d, op, s), nil
}

func (e *emitter) operandViaPool(v ir.Value) (string, error) {
	if v.IsConst() {
		return e.pool.slot(v.ConstInt) + " " + lir.LiteralObjective, nil
	}
	return e.scoreClause(v)
}

// boolOp synthesizes and/or/xor on 0/1-valued scores: vanilla
// scoreboard has no native bitwise operation mode (only the six
// arithmetic/comparison verbs), so a general bitwise and/or/xor over
// an arbitrary Score never maps to one command. DPC restricts these
// opcodes to the Bool domain, where they reduce to the matching
// arithmetic identity: AND is multiplication, OR is addition clamped
// back to 1, XOR is addition reduced mod 2. See DESIGN.md.
func (e *emitter) boolOp(dest, src ir.Value, kind string) (string, error) {
	if dest.Type != types.Bool {
		return "", dpcerr.New(dpcerr.UnsupportedType, "",
			"codegen: "+kind+" has no native scoreboard bitwise form outside the bool domain")
	}
	d, err := e.scoreClause(dest)
	if err != nil {
		return "", err
	}
	s, err := e.operandViaPool(src)
	if err != nil {
		return "", err
	}
	switch kind {
	case "and":
		return fmt.Sprintf("scoreboard players operation %s *= %s", d, s), nil
	case "or":
		// dest += src, then clamp back into {0,1} against a 1-slot.
		one := e.pool.slot(1)
		return fmt.Sprintf("scoreboard players operation %s += %s\nscoreboard players operation %s < %s %s",
			d, s, d, one, lir.LiteralObjective), nil
	case "xor":
		two := e.pool.slot(2)
		return fmt.Sprintf("scoreboard players operation %s += %s\nscoreboard players operation %s %%= %s %s",
			d, s, d, two, lir.LiteralObjective), nil
	default:
		return "", dpcerr.New(dpcerr.Internal, "", "codegen: unknown bool op "+kind)
	}
}

func (e *emitter) nbtTargetClause(t ir.NBTTarget) (string, error) {
	switch t.Kind {
	case ir.NBTEntity:
		return "entity " + t.Name, nil
	case ir.NBTStorage:
		if t.Name == lir.StorageObject && !e.usesStg {
			e.usesStg = true
		}
		return "storage " + t.Name, nil
	case ir.NBTBlock:
		return "block " + t.Name, nil
	default:
		return "", dpcerr.New(dpcerr.Internal, "", "codegen: unknown nbt target kind")
	}
}

func (e *emitter) nbtPathClause(p ir.NBTPath) (string, error) {
	target, err := e.nbtTargetClause(p.Target)
	if err != nil {
		return "", err
	}
	if p.Path == "" {
		return target, nil
	}
	return target + " " + p.Path, nil
}

func nbtTypeWord(k types.Kind) (string, error) {
	switch k {
	case types.NByte, types.Bool:
		return "byte", nil
	case types.NShort:
		return "short", nil
	case types.NInt:
		return "int", nil
	case types.NLong:
		return "long", nil
	case types.NFloat:
		return "float", nil
	case types.NDouble:
		return "double", nil
	default:
		return "", dpcerr.New(dpcerr.UnsupportedType, "", "codegen: "+k.String()+" has no scalar NBT store type")
	}
}

func nbtLiteral(v ir.Value) (string, error) {
	word, err := nbtTypeWord(v.Type)
	if err != nil {
		if v.Type == types.NAny {
			return "", dpcerr.New(dpcerr.UnsupportedType, "", "codegen: nany has no literal form")
		}
		return "", err
	}
	if v.Type.IsFloat() {
		return fmt.Sprintf("%g%s", v.ConstFloat, word[:1]), nil
	}
	suffix := map[string]string{"byte": "b", "short": "s", "int": "", "long": "L"}[word]
	return fmt.Sprintf("%d%s", v.ConstInt, suffix), nil
}

func (e *emitter) nbtSet(dest, src ir.Value) (string, error) {
	target, err := e.nbtPathClause(dest.NBT)
	if err != nil {
		return "", err
	}
	if src.IsConst() {
		lit, err := nbtLiteral(src)
		if err != nil {
			return "", err
		}
		return "data modify " + target + " set value " + lit, nil
	}
	if src.Kind == ir.VScore {
		word, err := nbtTypeWord(dest.NBT.Kind)
		if err != nil {
			return "", err
		}
		s, err := e.scoreClause(src)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("execute store result %s %s 1 run scoreboard players get %s", target, word, s), nil
	}
	return "", dpcerr.New(dpcerr.Internal, "", "codegen: nbt_set from an unresolved operand")
}

func (e *emitter) nbtGet(dest, src ir.Value) (string, error) {
	d, err := e.scoreClause(dest)
	if err != nil {
		return "", err
	}
	path, err := e.nbtPathClause(src.NBT)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("execute store result score %s run data get %s 1", d, path), nil
}

func (e *emitter) nbtCopy(dest, src ir.Value) (string, error) {
	d, err := e.nbtPathClause(dest.NBT)
	if err != nil {
		return "", err
	}
	s, err := e.nbtPathClause(src.NBT)
	if err != nil {
		return "", err
	}
	return "data modify " + d + " set from " + s, nil
}

// modifierPrefix renders the execute-modifier stack preceding an
// instruction's own command. The second return is false when a
// guard is a compile-time-false CondRaw, meaning the instruction
// never executes and the caller should drop the line entirely.
func (e *emitter) modifierPrefix(mods []ir.Modifier) (string, bool, error) {
	var clauses []string
	for _, m := range mods {
		switch m.Kind {
		case ir.ModAs:
			clauses = append(clauses, "as "+m.Selector)
		case ir.ModAt:
			clauses = append(clauses, "at "+m.Pos)
		case ir.ModPositioned:
			clauses = append(clauses, "positioned "+m.Pos)
		case ir.ModStoreResult, ir.ModStoreSuccess:
			verb := "result"
			if m.Kind == ir.ModStoreSuccess {
				verb = "success"
			}
			store, err := e.storeTargetClause(m.StoreTo)
			if err != nil {
				return "", false, err
			}
			clauses = append(clauses, "store "+verb+" "+store)
		case ir.ModIf, ir.ModUnless:
			clause, ok, err := e.guardClause(m.Kind == ir.ModIf, m.Cond)
			if err != nil {
				return "", false, err
			}
			if !ok {
				return "", false, nil
			}
			if clause != "" {
				clauses = append(clauses, clause)
			}
		default:
			return "", false, dpcerr.New(dpcerr.Internal, "", "codegen: unknown modifier kind")
		}
	}
	if len(clauses) == 0 {
		return "", true, nil
	}
	return "execute " + strings.Join(clauses, " "), true, nil
}

// guardClause renders one if/unless clause for a condition leaf.
// wantIf says which keyword the modifier nominally asked for; for a
// comparison this package always picks whichever of the if/unless
// phrasing produces the shorter command text, flipping the keyword
// when that is shorter (spec §4.6).
func (e *emitter) guardClause(wantIf bool, cond *ir.Condition) (string, bool, error) {
	word := "unless"
	if wantIf {
		word = "if"
	}
	switch cond.Kind {
	case ir.CondRaw:
		if cond.Bool == wantIf {
			return "", true, nil // always satisfied, no clause needed
		}
		return "", false, nil // never satisfied, instruction is dead
	case ir.CondCompare:
		return e.compareClause(word, cond)
	case ir.CondExists:
		target, err := e.existsClause(cond.Value)
		if err != nil {
			return "", false, err
		}
		return word + " " + target, true, nil
	case ir.CondPredicate:
		return word + " predicate " + cond.Predicate, true, nil
	case ir.CondDataPresent:
		path, err := e.nbtPathClause(cond.Path)
		if err != nil {
			return "", false, err
		}
		return word + " data " + path, true, nil
	case ir.CondBlock:
		return word + " block " + cond.Pos + " " + cond.Name, true, nil
	case ir.CondBiome:
		return word + " biome " + cond.Pos + " " + cond.Name, true, nil
	default:
		return "", false, dpcerr.New(dpcerr.Internal, "",
			"codegen: condition tree reached codegen unresolved: "+cond.Kind.String())
	}
}

func (e *emitter) existsClause(v ir.Value) (string, error) {
	if v.Kind == ir.VScore {
		s, err := e.scoreClause(v)
		if err != nil {
			return "", err
		}
		return "score " + s + " matches ..", nil
	}
	if v.Kind == ir.VNBT {
		path, err := e.nbtPathClause(v.NBT)
		if err != nil {
			return "", err
		}
		return "data " + path, nil
	}
	return "", dpcerr.New(dpcerr.Internal, "", "codegen: exists condition on an unresolved operand")
}

// compareClause picks the shorter of the direct and keyword-flipped
// phrasing of a scalar comparison, per spec §4.6.
func (e *emitter) compareClause(word string, cond *ir.Condition) (string, bool, error) {
	a, err := e.scoreClause(cond.A)
	if err != nil {
		return "", false, err
	}
	if cond.B.IsConst() {
		rng, kw := bestRangeAndWord(word, cond.Op, cond.B.ConstInt)
		return kw + " score " + a + " matches " + rng, true, nil
	}
	b, err := e.scoreClause(cond.B)
	if err != nil {
		return "", false, err
	}
	kw, sym := bestRelOp(word, cond.Op)
	return kw + " score " + a + " " + sym + " " + b, true, nil
}

// pureRange renders the single vanilla `matches` range expressing
// "x op n" directly; ok is false for Ne, which has no single range.
func pureRange(op ir.CmpOp, n int64) (string, bool) {
	switch op {
	case ir.CmpEq:
		return fmt.Sprintf("%d", n), true
	case ir.CmpLt:
		return fmt.Sprintf("..%d", n-1), true
	case ir.CmpLe:
		return fmt.Sprintf("..%d", n), true
	case ir.CmpGt:
		return fmt.Sprintf("%d..", n+1), true
	case ir.CmpGe:
		return fmt.Sprintf("%d..", n), true
	default:
		return "", false
	}
}

// bestRangeAndWord picks whichever of (word, direct range) / (flipped
// word, negated-op range) renders shorter; see compareClause.
func bestRangeAndWord(word string, op ir.CmpOp, n int64) (string, string) {
	if direct, ok := pureRange(op, n); ok {
		if flipped, ok2 := pureRange(op.Negate(), n); ok2 {
			flipWord := "if"
			if word == "if" {
				flipWord = "unless"
			}
			if len(flipWord+flipped) < len(word+direct) {
				return flipped, flipWord
			}
		}
		return direct, word
	}
	// op has no pure range of its own (CmpNe); its negation (Eq) does.
	flipped, _ := pureRange(op.Negate(), n)
	flipWord := "if"
	if word == "if" {
		flipWord = "unless"
	}
	return flipped, flipWord
}

func bestRelOp(word string, op ir.CmpOp) (string, string) {
	direct := relSymbol(op)
	if direct != "" {
		flipped := relSymbol(op.Negate())
		flipWord := "if"
		if word == "if" {
			flipWord = "unless"
		}
		if flipped != "" && len(flipWord+flipped) < len(word+direct) {
			return flipWord, flipped
		}
		return word, direct
	}
	flipped := relSymbol(op.Negate())
	flipWord := "if"
	if word == "if" {
		flipWord = "unless"
	}
	return flipWord, flipped
}

// relSymbol renders the two-score-operand execute comparator; "" for
// Ne, which vanilla execute has no direct symbol for.
func relSymbol(op ir.CmpOp) string {
	switch op {
	case ir.CmpEq:
		return "="
	case ir.CmpLt:
		return "<"
	case ir.CmpLe:
		return "<="
	case ir.CmpGt:
		return ">"
	case ir.CmpGe:
		return ">="
	default:
		return ""
	}
}

func (e *emitter) storeTargetClause(v ir.Value) (string, error) {
	if v.Kind == ir.VScore {
		s, err := e.scoreClause(v)
		if err != nil {
			return "", err
		}
		return "score " + s, nil
	}
	if v.Kind == ir.VNBT {
		word, err := nbtTypeWord(v.NBT.Kind)
		if err != nil {
			return "", err
		}
		path, err := e.nbtPathClause(v.NBT)
		if err != nil {
			return "", err
		}
		return path + " " + word + " 1", nil
	}
	return "", dpcerr.New(dpcerr.Internal, "", "codegen: store target is neither score nor nbt")
}
