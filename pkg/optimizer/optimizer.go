// Package optimizer runs the MIR-tier optimization passes: constant
// folding and guard propagation, dead-code/dead-store elimination,
// inlining (including compile-time call folding via pkg/interp), and
// algebraic peephole simplification. Passes run to a fixed point per
// spec §4.2, skipping functions an earlier iteration left unchanged.
package optimizer

import (
	"fmt"

	"dpc/pkg/mir"
)

// Level selects which pass groups run, mirroring the teacher's
// tiered optimization levels.
type Level int

const (
	LevelNone  Level = 0
	LevelBasic Level = 1
	LevelFull  Level = 2
)

// Pass is one optimization transform over a single function. Dirty
// tracking at the Optimizer level uses the returned bool to decide
// whether a function needs another iteration.
type Pass interface {
	Name() string
	Run(m *mir.Module, fn *mir.Function) (bool, error)
}

// Optimizer orchestrates a fixed pass order to a fixed point.
type Optimizer struct {
	level  Level
	passes []Pass

	// MaxIterations bounds the fixed-point loop so a pass bug cannot
	// hang compilation; 10 rounds is more than any realistic program
	// needs to stabilize.
	MaxIterations int
}

func New(level Level) *Optimizer {
	o := &Optimizer{level: level, MaxIterations: 10}

	if level >= LevelBasic {
		o.passes = append(o.passes,
			NewConstantFoldingPass(),
			NewCopyPropagationPass(),
			NewDeadCodeEliminationPass(),
		)
	}
	if level >= LevelFull {
		o.passes = append(o.passes,
			NewPeepholePass(),
			NewLogicalFoldPass(),
			NewInliningPass(),
		)
	}
	return o
}

// Optimize runs every configured pass over every function to a fixed
// point, skipping functions no pass touched on the previous round.
func (o *Optimizer) Optimize(m *mir.Module) error {
	if o.level == LevelNone {
		return nil
	}

	dirty := make(map[string]bool, len(m.Functions))
	for id := range m.Functions {
		dirty[id] = true
	}

	for iter := 0; iter < o.MaxIterations; iter++ {
		anyChanged := false
		next := make(map[string]bool)

		for _, id := range m.SortedIDs() {
			if !dirty[id] {
				continue
			}
			fn := m.Functions[id]
			if fn == nil {
				continue // absorbed by single-call-site inlining earlier this round
			}
			fnChanged := false
			for _, pass := range o.passes {
				changed, err := pass.Run(m, fn)
				if err != nil {
					return fmt.Errorf("optimization pass %s on %s: %w", pass.Name(), id, err)
				}
				if changed {
					fnChanged = true
				}
			}
			if fnChanged {
				anyChanged = true
				next[id] = true
			}
		}

		if !anyChanged {
			break
		}
		dirty = next
	}

	return nil
}
