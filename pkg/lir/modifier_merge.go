package lir

import "dpc/pkg/ir"

// ModifierMergePass drops redundant execute modifiers: a leading
// `as @s` is a no-op since the executing entity is already @s by
// default, and a modifier immediately repeating the one before it
// (same kind, same payload) never changes context the second time.
type ModifierMergePass struct{}

func (ModifierMergePass) Name() string { return "modifier-merge" }

func (p ModifierMergePass) Run(m *Module, fn *Function) (bool, error) {
	changed := false
	for i := range fn.Instrs {
		mods := fn.Instrs[i].Modifiers
		if len(mods) == 0 {
			continue
		}
		var kept []ir.Modifier
		for j, mod := range mods {
			if j == 0 && mod.Kind == ir.ModAs && mod.Selector == "@s" {
				changed = true
				continue
			}
			if len(kept) > 0 && modifierEqual(kept[len(kept)-1], mod) {
				changed = true
				continue
			}
			kept = append(kept, mod)
		}
		if changed {
			fn.Instrs[i].Modifiers = kept
		}
	}
	return changed, nil
}

func modifierEqual(a, b ir.Modifier) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case ir.ModAs:
		return a.Selector == b.Selector
	case ir.ModAt, ir.ModPositioned:
		return a.Pos == b.Pos
	case ir.ModIf, ir.ModUnless:
		return false // conditions are structural; never treated as duplicates here
	case ir.ModStoreResult, ir.ModStoreSuccess:
		return false // distinct store targets always matter
	default:
		return false
	}
}
