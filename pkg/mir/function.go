package mir

import (
	"dpc/pkg/ir"
	"dpc/pkg/types"
)

// Function mirrors ir.Function's signature and annotations over a
// flat instruction list instead of a block tree. Parameters are not
// bound to registers; NewFunction only starts NextReg at
// len(Params)+1, leaving registers 1..len(Params) unallocated.
type Function struct {
	ID          string
	Params      []types.Kind
	Ret         *types.Kind
	Annotations map[string]bool
	Instrs      []Instruction

	NextReg ir.Register

	// RegNamespace is the function identifier LIR register allocation
	// keys scoreboard slot names on. Empty means "use ID itself".
	// ifbody_N/loop helper functions set this to their parent's ID,
	// since they are control-flow lowering artifacts that share the
	// parent's variables, not independently-scoped functions.
	RegNamespace string
}

// Namespace returns the identifier register allocation should key
// this function's local scoreboard slots on.
func (f *Function) Namespace() string {
	if f.RegNamespace != "" {
		return f.RegNamespace
	}
	return f.ID
}

func NewFunction(id string, params []types.Kind, ret *types.Kind) *Function {
	return &Function{
		ID:          id,
		Params:      params,
		Ret:         ret,
		Annotations: make(map[string]bool),
		NextReg:     ir.Register(len(params) + 1),
	}
}

func (f *Function) Preserved() bool { return f.Annotations["preserve"] }
func (f *Function) NoStrip() bool   { return f.Annotations["no_strip"] || f.Preserved() }

// AllocReg reserves a fresh function-local register.
func (f *Function) AllocReg() ir.Register {
	r := f.NextReg
	f.NextReg++
	return r
}
