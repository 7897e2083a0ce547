package lir

import (
	"sort"
	"strings"

	"dpc/pkg/ir"
)

// ShortenIdentifiers renames every non-@preserve, non-@no_strip
// function to the shortest unused identifier in its own namespace,
// highest call-frequency functions getting the shortest names first;
// ties keep the functions' original sorted-identifier order (spec
// §4.5). A function already at least as short as the candidate it
// would receive keeps its name.
func ShortenIdentifiers(m *Module) {
	freq := callFrequency(m)

	type candidate struct {
		oldID string
		ns    string
		path  string
	}
	var targets []candidate
	for _, id := range m.SortedIDs() {
		fn := m.Functions[id]
		if fn.Preserved() || fn.NoStrip() {
			continue
		}
		ns, path, ok := splitNamespace(id)
		if !ok {
			continue
		}
		targets = append(targets, candidate{oldID: id, ns: ns, path: path})
	}
	sort.SliceStable(targets, func(i, j int) bool {
		return freq[targets[i].oldID] > freq[targets[j].oldID]
	})

	reserved := map[string]map[string]bool{}
	for _, id := range m.SortedIDs() {
		ns, path, ok := splitNamespace(id)
		if !ok {
			continue
		}
		if reserved[ns] == nil {
			reserved[ns] = map[string]bool{}
		}
		reserved[ns][path] = true
	}

	counter := map[string]int{}
	rename := map[string]string{}
	for _, t := range targets {
		newPath := nextShortName(reserved[t.ns], counter, t.ns)
		if len(newPath) >= len(t.path) {
			continue
		}
		delete(reserved[t.ns], t.path)
		reserved[t.ns][newPath] = true
		rename[t.oldID] = t.ns + ":" + newPath
	}

	applyRename(m, rename)
}

func splitNamespace(id string) (ns, path string, ok bool) {
	i := strings.IndexByte(id, ':')
	if i < 0 {
		return "", "", false
	}
	return id[:i], id[i+1:], true
}

func callFrequency(m *Module) map[string]int {
	freq := map[string]int{}
	for _, id := range m.SortedIDs() {
		for _, inst := range m.Functions[id].Instrs {
			if inst.Op == OpCall || inst.Op == OpCallX {
				freq[inst.Target]++
			}
		}
	}
	return freq
}

func genShortName(i int) string {
	if i < 26 {
		return string(rune('a' + i))
	}
	return genShortName(i/26-1) + string(rune('a'+i%26))
}

func nextShortName(used map[string]bool, counter map[string]int, ns string) string {
	for {
		n := genShortName(counter[ns])
		counter[ns]++
		if !used[n] {
			return n
		}
	}
}

func applyRename(m *Module, rename map[string]string) {
	if len(rename) == 0 {
		return
	}

	for oldID, newID := range rename {
		fn := m.Functions[oldID]
		delete(m.Functions, oldID)
		fn.ID = newID
		if fn.RegNamespace == oldID {
			fn.RegNamespace = newID
		}
		m.Functions[newID] = fn
	}

	for _, ns := range allNamespaceRenames(rename) {
		for _, id := range m.SortedIDs() {
			fn := m.Functions[id]
			if fn.RegNamespace == ns.old {
				fn.RegNamespace = ns.new
			}
		}
	}

	for _, id := range m.SortedIDs() {
		fn := m.Functions[id]
		for i := range fn.Instrs {
			if fn.Instrs[i].Op == OpCall || fn.Instrs[i].Op == OpCallX {
				if newTarget, ok := rename[fn.Instrs[i].Target]; ok {
					fn.Instrs[i].Target = newTarget
				}
			}
		}
		rewriteWithRegLookup(fn, func(v ir.Value) ir.Value {
			if v.Kind != ir.VNamedSlot {
				return v
			}
			v.SlotName = renameSlotName(v.SlotName, rename)
			return v
		})
	}
}

type nsRename struct{ old, new string }

func allNamespaceRenames(rename map[string]string) []nsRename {
	out := make([]nsRename, 0, len(rename))
	for old, new := range rename {
		out = append(out, nsRename{old, new})
	}
	return out
}

func renameSlotName(slot string, rename map[string]string) string {
	if strings.HasPrefix(slot, "R:") {
		fnID := slot[2:]
		if newID, ok := rename[fnID]; ok {
			return "R:" + newID
		}
		return slot
	}
	if strings.HasPrefix(slot, "A:") {
		rest := slot[2:]
		dot := lastIndexByte(rest, '.')
		if dot < 0 {
			return slot
		}
		fnID, idx := rest[:dot], rest[dot:]
		if newID, ok := rename[fnID]; ok {
			return "A:" + newID + idx
		}
	}
	return slot
}
