package mir

import "sort"

// Module owns every MIR Function by identifier, same flat-map shape
// as ir.Module.
type Module struct {
	Functions map[string]*Function
}

func NewModule() *Module {
	return &Module{Functions: make(map[string]*Function)}
}

func (m *Module) SortedIDs() []string {
	ids := make([]string, 0, len(m.Functions))
	for id := range m.Functions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
