package codegen

import (
	"fmt"
	"sort"

	"dpc/pkg/lir"
)

// literalPool assigns a deterministic fake-player name on the _l
// objective to every integer constant codegen needs as a scoreboard
// operand for `scoreboard players operation` (which, unlike `set`/
// `add`/`remove`, never accepts a literal RHS directly). Slots are
// named in first-seen order so two runs over the same module produce
// the same names (spec §5 ordering guarantee).
type literalPool struct {
	order []int64
	names map[int64]string
}

func newLiteralPool() *literalPool {
	return &literalPool{names: make(map[int64]string)}
}

// slot returns the fake-player name for n, minting one on first use.
func (p *literalPool) slot(n int64) string {
	if name, ok := p.names[n]; ok {
		return name
	}
	name := fmt.Sprintf("%%l%d", len(p.order))
	p.names[n] = name
	p.order = append(p.order, n)
	return name
}

// initLines renders the `dpc:init` lines that bring every minted
// literal slot into existence with its value.
func (p *literalPool) initLines() []string {
	if len(p.order) == 0 {
		return nil
	}
	vals := append([]int64(nil), p.order...)
	sort.Slice(vals, func(i, j int) bool { return p.names[vals[i]] < p.names[vals[j]] })
	lines := make([]string, 0, len(vals))
	for _, n := range vals {
		lines = append(lines, fmt.Sprintf("scoreboard players set %s %s %d", p.names[n], lir.LiteralObjective, n))
	}
	return lines
}
