package lir

import (
	"dpc/pkg/ir"
	"dpc/pkg/types"
)

// Function mirrors mir.Function over lir.Instruction. NextReg keeps
// minting scratch registers for the NBT/scoreboard bridging MIR→LIR
// lowering inserts; register allocation consumes every VReg this
// function ever held, scratch or source, in one pass.
type Function struct {
	ID          string
	Params      []types.Kind
	Ret         *types.Kind
	Annotations map[string]bool
	Instrs      []Instruction

	NextReg ir.Register

	RegNamespace string
}

func (f *Function) Namespace() string {
	if f.RegNamespace != "" {
		return f.RegNamespace
	}
	return f.ID
}

func NewFunction(id string, params []types.Kind, ret *types.Kind) *Function {
	return &Function{ID: id, Params: params, Ret: ret, Annotations: make(map[string]bool)}
}

func (f *Function) Preserved() bool { return f.Annotations["preserve"] }
func (f *Function) NoStrip() bool   { return f.Annotations["no_strip"] || f.Preserved() }

func (f *Function) AllocReg() ir.Register {
	r := f.NextReg
	f.NextReg++
	return r
}
