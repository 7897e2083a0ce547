package ir

import "dpc/pkg/types"

// Annotation names recognized on a Function. Preserve pins identity
// and existence through optimization; NoStrip pins identity (survives
// renaming) but still allows dead-code elimination of the body's
// unreachable parts and inlining of call sites into it.
const (
	AnnPreserve = "preserve"
	AnnNoStrip  = "no_strip"
)

// Function is one compilation unit: a signature, annotations, and a
// nested-block body. Function identifiers ("ns:path/name") are unique
// within a Module.
type Function struct {
	ID          string
	Params      []types.Kind
	ParamNames  []string
	Ret         *types.Kind
	Annotations map[string]bool
	Body        Block

	nextReg Register
}

// NewFunction creates an empty function with the given signature.
func NewFunction(id string, params []types.Kind, ret *types.Kind) *Function {
	return &Function{
		ID:          id,
		Params:      params,
		Ret:         ret,
		Annotations: make(map[string]bool),
		nextReg:     1,
	}
}

// AllocReg reserves a fresh function-local register identifier.
func (f *Function) AllocReg() Register {
	r := f.nextReg
	f.nextReg++
	return r
}

// Preserved reports whether the function is pinned by @preserve.
func (f *Function) Preserved() bool { return f.Annotations[AnnPreserve] }

// NoStrip reports whether the function's identifier must survive
// renaming (implied by Preserved).
func (f *Function) NoStrip() bool {
	return f.Annotations[AnnNoStrip] || f.Annotations[AnnPreserve]
}
