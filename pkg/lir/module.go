package lir

import "sort"

// Module owns every LIR function by identifier. Objective and storage
// names are fixed constants rather than per-module configuration:
// every compiled datapack shares the same internal register objective
// and scratch storage object, namespaced by function/slot key so two
// programs' internals never collide within one world.
const (
	RegObjective     = "_r"
	LiteralObjective = "_l"
	StorageObject    = "dpc:internal"
	InitFunctionID   = "dpc:init"
)

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
