package lir

import "fmt"

// Pass is one LIR-tier transform over a single function.
type Pass interface {
	Name() string
	Run(m *Module, fn *Function) (bool, error)
}

// Optimizer runs the target-aware LIR passes (spec §4.4) to a fixed
// point, mirroring pkg/optimizer's per-function dirty tracking.
type Optimizer struct {
	passes        []Pass
	MaxIterations int
}

func NewOptimizer() *Optimizer {
	return &Optimizer{
		passes: []Pass{
			SelectorReorderPass{},
			ModifierMergePass{},
			StoreFusionPass{},
		},
		MaxIterations: 10,
	}
}

func (o *Optimizer) Optimize(m *Module) error {
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
			fnChanged := false
			for _, pass := range o.passes {
				changed, err := pass.Run(m, fn)
				if err != nil {
					return fmt.Errorf("lir pass %s on %s: %w", pass.Name(), id, err)
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
