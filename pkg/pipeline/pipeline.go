// Package pipeline is the single library entry point the spec's
// "core has no I/O, no CLI" scoping asks for (spec §5): it owns the
// fixed IR → MIR → MIR-opt → LIR → LIR-opt → codegen sequence,
// mirroring the orchestration teacher's cmd/minzc/main.go inlines
// directly into its CLI command instead of exposing as a function.
package pipeline

import (
	"dpc/pkg/codegen"
	"dpc/pkg/gameversion"
	"dpc/pkg/ir"
	"dpc/pkg/lir"
	"dpc/pkg/mir"
	"dpc/pkg/optimizer"
)

// Config selects which pass groups run and how codegen targets its
// output. The zero value runs no MIR optimization, no LIR optimizer
// and no identifier shortening, and codegen targets the latest known
// game version; DefaultConfig turns every pass on.
type Config struct {
	// MIRLevel selects the MIR-tier pass group (optimizer.LevelNone
	// skips MIR optimization entirely — this is also Config{}'s zero
	// value, so callers that want every pass should start from
	// DefaultConfig rather than a bare Config{}).
	MIRLevel optimizer.Level

	RunLIROptimizer bool
	ShortenIdents   bool

	Version  gameversion.Target
	Debug    bool
	Parallel bool // run codegen's per-function emission concurrently (pkg/codegen)
}

// DefaultConfig is the configuration spec §8's end-to-end scenarios
// compile against: every pass enabled, full MIR optimization,
// identifier shortening on, latest game version.
func DefaultConfig() Config {
	return Config{
		MIRLevel:        optimizer.LevelFull,
		RunLIROptimizer: true,
		ShortenIdents:   true,
		Version:         gameversion.Latest(),
	}
}

// Result is everything a caller needs out of a Compile run: the final
// command-text output plus the intermediate tiers, kept around so a
// debug trace (cmd/dpc's `--debug`) or a test can inspect any stage
// without recompiling.
type Result struct {
	MIR    *mir.Module
	LIR    *lir.Module
	Output *codegen.Output
}

// Compile runs the full pipeline over a structured-IR module. Pass
// order is fixed (spec §5): structural lowering, MIR optimization,
// MIR→LIR lowering, arg-slot-discipline verification, LIR
// optimization, register allocation, optional identifier shortening,
// then codegen.
func Compile(m *ir.Module, cfg Config) (*Result, error) {
	mirMod, err := mir.Lower(m)
	if err != nil {
		return nil, err
	}

	if err := optimizer.New(cfg.MIRLevel).Optimize(mirMod); err != nil {
		return nil, err
	}

	lirMod, err := lir.Lower(mirMod)
	if err != nil {
		return nil, err
	}

	if err := lir.VerifyArgSlotDiscipline(lirMod); err != nil {
		return nil, err
	}

	// The LIR optimizer (in particular StoreFusionPass) must run before
	// Allocate: fusable() only matches a producer still writing a VReg
	// scratch register, and Allocate rewrites every VReg/VNamedSlot
	// operand onto a concrete scoreboard player or NBT path, after
	// which that match can never fire.
	if cfg.RunLIROptimizer {
		if err := lir.NewOptimizer().Optimize(lirMod); err != nil {
			return nil, err
		}
	}

	lir.Allocate(lirMod)

	if cfg.ShortenIdents {
		lir.ShortenIdentifiers(lirMod)
	}

	out, err := codegen.Generate(lirMod, codegen.Config{
		Version:  cfg.Version,
		Debug:    cfg.Debug,
		Parallel: cfg.Parallel,
	})
	if err != nil {
		return nil, err
	}

	return &Result{MIR: mirMod, LIR: lirMod, Output: out}, nil
}
