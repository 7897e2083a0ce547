package lir

import (
	"sort"

	"dpc/pkg/dpcerr"
)

// VerifyArgSlotDiscipline rejects any module where a function is
// reachable from itself through the call graph (spec.md §9 open
// question, resolved: argument and return slots are globally shared
// per callee, so a recursive path would overwrite the slot an
// outstanding call is still waiting to read back). It runs before
// register allocation's named-slot addressing is relied upon by
// codegen, since that addressing is only sound for non-reentrant
// calls.
//
// A direct self-call from a function with no parameters and no return
// value is exempt: lowerWhile (spec §4.1) lowers every while loop to
// exactly this shape, a zero-slot helper that calls itself to iterate,
// and it has no argument/return slot a re-entrant call could clobber.
// Any other cycle — mutual recursion, or a self-call from a function
// that does carry slots — is still rejected.
func VerifyArgSlotDiscipline(m *Module) error {
	graph := callGraph(m)
	cyclic := findCyclicFunctions(graph)

	ids := make([]string, 0, len(cyclic))
	for id := range cyclic {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if len(ids) > 0 {
		return dpcerr.New(dpcerr.RecursionViolation, ids[0],
			"function is reachable from itself through the call graph; its argument/return slots are shared across every call site and cannot be safely re-entered")
	}
	return nil
}

// hasSharedSlots reports whether fn has an ArgSlot or ReturnSlot a
// re-entrant call could clobber.
func hasSharedSlots(fn *Function) bool {
	return len(fn.Params) > 0 || fn.Ret != nil
}

func callGraph(m *Module) map[string][]string {
	g := map[string][]string{}
	for _, id := range m.SortedIDs() {
		fn := m.Functions[id]
		var callees []string
		for _, inst := range fn.Instrs {
			if inst.Op != OpCall && inst.Op != OpCallX {
				continue
			}
			if inst.Target == id && !hasSharedSlots(fn) {
				// The endorsed while-loop self-call: no slots to
				// clobber, so it is not a cycle edge for this check.
				continue
			}
			callees = append(callees, inst.Target)
		}
		g[id] = callees
	}
	return g
}

// findCyclicFunctions returns every function that lies on a cycle of
// the call graph (including direct self-calls), via plain DFS with a
// recursion-stack marker — small call graphs, no need for a full
// Tarjan SCC.
func findCyclicFunctions(graph map[string][]string) map[string]bool {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := map[string]int{}
	cyclic := map[string]bool{}

	ids := make([]string, 0, len(graph))
	for id := range graph {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var visit func(id string, stack []string)
	visit = func(id string, stack []string) {
		if color[id] == black {
			return
		}
		if color[id] == gray {
			// id appears again while still on the stack: everything
			// from its first occurrence onward is in the cycle.
			for i := len(stack) - 1; i >= 0; i-- {
				cyclic[stack[i]] = true
				if stack[i] == id {
					break
				}
			}
			return
		}
		color[id] = gray
		stack = append(stack, id)
		for _, callee := range graph[id] {
			if _, ok := graph[callee]; ok {
				visit(callee, stack)
			}
		}
		color[id] = black
	}

	for _, id := range ids {
		if color[id] == white {
			visit(id, nil)
		}
	}
	return cyclic
}
