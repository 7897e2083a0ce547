// Package codegen turns an allocated, optimized lir.Module into the
// command text a Minecraft datapack ships: one line per command, one
// file per function, plus the `dpc:init` function every datapack
// needs to declare its scoreboard objectives and literal constants
// (spec §6.2). Unlike minzc's pkg/codegen, which picks among several
// CPU backends through a registry (backend.go/base_backend.go), DPC
// only ever targets one machine — the command interpreter — so
// Generate replaces that registry with a single entry point. The
// target game version travels in Config, but every version gets the
// same command forms: pkg/gameversion's capability methods are not
// consulted here.
package codegen

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"dpc/pkg/gameversion"
	"dpc/pkg/lir"
)

// Config selects the target dialect and behavior for a Generate call.
type Config struct {
	Version gameversion.Target
	Debug   bool

	// Parallel emits independent functions concurrently via
	// x/sync/errgroup once the literal pool has been deterministically
	// pre-populated by a sequential warm-up pass. Safe per spec §5:
	// functions share no mutable state once the pool is warm, so
	// output is byte-identical to the sequential path.
	Parallel bool
}

// Output is the in-memory result of codegen: one function identifier
// maps to its path and its command lines.
type Output struct {
	Files map[string]*FunctionFile
	Order []string // function IDs in emission order (sorted, init first)
}

// FunctionFile is one `.mcfunction` file's content.
type FunctionFile struct {
	Path  string
	Lines []string
}

// Generate lowers every function in m to command text. Functions are
// visited in sorted identifier order (spec §5); `dpc:init` is
// synthesized last, once every function has had a chance to mint
// literal-pool slots, and always emitted first in Output.Order.
func Generate(m *lir.Module, cfg Config) (*Output, error) {
	if cfg.Version.String() == "unknown" {
		cfg.Version = gameversion.Latest()
	}
	pool := newLiteralPool()
	e := newEmitter(pool)

	out := &Output{Files: make(map[string]*FunctionFile)}
	ids := m.SortedIDs()
	targets := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != lir.InitFunctionID {
			targets = append(targets, id)
		}
	}

	if cfg.Parallel {
		// Sequential warm-up: fix the literal pool's slot assignment
		// order before any goroutine can race on minting one.
		for _, id := range targets {
			if _, err := e.function(m.Functions[id]); err != nil {
				return nil, err
			}
		}
		lines := make([][]string, len(targets))
		g, _ := errgroup.WithContext(context.Background())
		for i, id := range targets {
			i, id := i, id
			g.Go(func() error {
				fnLines, err := e.function(m.Functions[id])
				lines[i] = fnLines
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		for i, id := range targets {
			out.Files[id] = &FunctionFile{Path: functionPath(id), Lines: lines[i]}
		}
	} else {
		for _, id := range targets {
			fn := m.Functions[id]
			lines, err := e.function(fn)
			if err != nil {
				return nil, err
			}
			out.Files[id] = &FunctionFile{Path: functionPath(id), Lines: lines}
		}
	}

	initLines := initFunctionLines(pool, e.usesStg)
	if user, ok := m.Functions[lir.InitFunctionID]; ok {
		userLines, err := e.function(user)
		if err != nil {
			return nil, err
		}
		initLines = append(initLines, userLines...)
	}
	out.Files[lir.InitFunctionID] = &FunctionFile{Path: functionPath(lir.InitFunctionID), Lines: initLines}

	out.Order = append([]string{lir.InitFunctionID}, ids...)
	sort.Strings(out.Order[1:])
	// de-dup: ids may already contain InitFunctionID if the module
	// carries user-authored init logic.
	dedup := out.Order[:0]
	seen := make(map[string]bool)
	for _, id := range out.Order {
		if seen[id] {
			continue
		}
		seen[id] = true
		dedup = append(dedup, id)
	}
	out.Order = dedup

	return out, nil
}

func functionPath(id string) string {
	ns, path, ok := strings.Cut(id, ":")
	if !ok {
		ns, path = "dpc", id
	}
	return ns + "/functions/" + path + ".mcfunction"
}

func initFunctionLines(pool *literalPool, usesStorage bool) []string {
	lines := []string{
		"scoreboard objectives add " + lir.RegObjective + " dummy",
		"scoreboard objectives add " + lir.LiteralObjective + " dummy",
	}
	lines = append(lines, pool.initLines()...)
	if usesStorage {
		lines = append(lines, "data merge storage "+lir.StorageObject+" {}")
	}
	return lines
}

// Merge concatenates every function's lines into one document, for
// golden-file tests that compare a whole module's output at once
// (spec §4.6's `# === <ns:name> === #` header per section).
func (o *Output) Merge() string {
	var b strings.Builder
	for _, id := range o.Order {
		f := o.Files[id]
		if f == nil {
			continue
		}
		fmt.Fprintf(&b, "# === %s === #\n", id)
		for _, line := range f.Lines {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return b.String()
}
