package ir

import (
	"sort"

	"dpc/pkg/dpcerr"
)

// Module owns every Function by its fully-qualified identifier. It is
// a flat mapping: functions reference each other by identifier
// string, never by pointer, so recursion never forms an object cycle.
type Module struct {
	Functions map[string]*Function
}

// NewModule creates an empty module.
func NewModule() *Module {
	return &Module{Functions: make(map[string]*Function)}
}

// AddFunction registers fn under fn.ID, failing if the identifier is
// already taken.
func (m *Module) AddFunction(fn *Function) error {
	if _, exists := m.Functions[fn.ID]; exists {
		return dpcerr.New(dpcerr.Internal, fn.ID, "duplicate function identifier")
	}
	m.Functions[fn.ID] = fn
	return nil
}

// SortedIDs returns function identifiers in sorted order, the
// visitation order every pass and lowering stage must use (spec §5).
func (m *Module) SortedIDs() []string {
	ids := make([]string, 0, len(m.Functions))
	for id := range m.Functions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
