package lir

import (
	"strings"

	"dpc/pkg/ir"
)

// selectorCost ranks common selector argument keys from cheapest to
// most expensive to evaluate. Unknown keys sort as medium cost so an
// unrecognized argument doesn't get shuffled to either extreme.
var selectorCost = map[string]int{
	"tag": 0, "team": 0,
	"type": 1, "name": 1, "gamemode": 1, "advancements": 1,
	"x": 2, "y": 2, "z": 2, "dx": 2, "dy": 2, "dz": 2,
	"distance": 3, "scores": 3, "nbt": 3, "predicate": 3,
	"sort": 4, "limit": 4,
}

func costOf(key string) int {
	if c, ok := selectorCost[key]; ok {
		return c
	}
	return 2
}

// SelectorReorderPass reorders each execute-modifier selector's
// bracketed arguments, cheapest filters first, to shrink the average
// evaluation cost without changing which entities match (spec §4.4).
type SelectorReorderPass struct{}

func (SelectorReorderPass) Name() string { return "selector-reorder" }

func (p SelectorReorderPass) Run(m *Module, fn *Function) (bool, error) {
	changed := false
	for i := range fn.Instrs {
		for j := range fn.Instrs[i].Modifiers {
			mod := &fn.Instrs[i].Modifiers[j]
			if mod.Kind != ir.ModAs {
				continue
			}
			reordered := reorderSelector(mod.Selector)
			if reordered != mod.Selector {
				mod.Selector = reordered
				changed = true
			}
		}
	}
	return changed, nil
}

// reorderSelector rewrites "@e[k1=v1,k2=v2,...]" with its bracketed
// arguments stably sorted by cost. Selectors with no bracket, or a
// malformed one, pass through unchanged.
func reorderSelector(sel string) string {
	open := strings.IndexByte(sel, '[')
	if open < 0 || !strings.HasSuffix(sel, "]") {
		return sel
	}
	base := sel[:open]
	body := sel[open+1 : len(sel)-1]
	args := splitSelectorArgs(body)
	if len(args) < 2 {
		return sel
	}

	type arg struct {
		raw  string
		key  string
		cost int
	}
	parsed := make([]arg, len(args))
	for i, a := range args {
		key := a
		if eq := strings.IndexByte(a, '='); eq >= 0 {
			key = a[:eq]
		}
		parsed[i] = arg{raw: a, key: key, cost: costOf(key)}
	}

	stableSortArgs(parsed, func(i, j int) bool { return parsed[i].cost < parsed[j].cost })
	var out []string
	for _, a := range parsed {
		out = append(out, a.raw)
	}
	return base + "[" + strings.Join(out, ",") + "]"
}

// splitSelectorArgs splits on top-level commas, treating [, {, ( as
// depth-increasing so a bracketed nbt or compound sub-argument is
// never split across its comma boundaries.
func splitSelectorArgs(body string) []string {
	var out []string
	depth := 0
	start := 0
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '[', '{', '(':
			depth++
		case ']', '}', ')':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, body[start:i])
				start = i + 1
			}
		}
	}
	out = append(out, body[start:])
	return out
}

// stableSortArgs is a tiny insertion sort — the argument lists here
// are a handful of entries at most, and insertion sort is naturally
// stable, which a selector reorder must be to avoid reshuffling
// same-cost arguments relative to each other.
func stableSortArgs[T any](s []T, less func(i, j int) bool) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && less(j, j-1); j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}
