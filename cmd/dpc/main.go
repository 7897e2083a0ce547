package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"dpc/pkg/fixtures"
	"dpc/pkg/gameversion"
	"dpc/pkg/ir"
	"dpc/pkg/optimizer"
	"dpc/pkg/pipeline"
	"dpc/pkg/version"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	optimize    bool
	debug       bool
	parallel    bool
	targetVer   string
	outputFile  string
	showVersion bool
)

// fixtureSet is the catalog dpc run dispatches to. There is no text
// frontend (parsing a .dpc source file is out of scope; see spec's
// Non-goals), so the only programs this CLI can compile are the
// hand-built pkg/fixtures modules that stand in for spec §8's named
// end-to-end scenarios.
var fixtureSet = map[string]func() *ir.Module{
	"sine":               fixtures.Sine,
	"sqrt":               fixtures.Sqrt,
	"manual_or":          fixtures.ManualOrFold,
	"should_be_shortest": fixtures.ShouldBeShortest,
	"not_and":            fixtures.NotAnd,
	"copy_prop_multiple": fixtures.CopyPropMultiple,
}

var rootCmd = &cobra.Command{
	Use:   "dpc",
	Short: "DPC " + version.GetVersion() + " - Minecraft datapack command compiler",
	Long: `DPC compiles a generic imperative IR down to Minecraft .mcfunction
command text through three tiers: IR, MIR, LIR, then codegen.

There is no source-text frontend: this CLI drives the library
(pkg/pipeline) against the named example programs in pkg/fixtures.

EXAMPLES:
  dpc run sine                  # compile the test:sine scenario, unoptimized
  dpc run sqrt --optimize        # same, with every MIR/LIR pass enabled
  dpc run not_and --debug        # print the config and MIR/LIR/output counts
  dpc passes                     # list the optimizer passes each level runs`,
	Run: func(cmd *cobra.Command, args []string) {
		if showVersion {
			fmt.Println(version.GetFullVersion())
			return
		}
		cmd.Help()
	},
}

var runCmd = &cobra.Command{
	Use:   "run <fixture>",
	Short: "compile a named fixture module to command text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFixture(args[0])
	},
}

var passesCmd = &cobra.Command{
	Use:   "passes",
	Short: "list the optimizer passes each MIR level runs",
	Run: func(cmd *cobra.Command, args []string) {
		listPasses()
	},
}

func init() {
	rootCmd.Flags().BoolVarP(&showVersion, "version", "v", false, "show version")

	runCmd.Flags().BoolVarP(&optimize, "optimize", "O", false, "enable full MIR/LIR optimization and identifier shortening")
	runCmd.Flags().BoolVarP(&debug, "debug", "d", false, "print the compile configuration and MIR/LIR/output counts")
	runCmd.Flags().BoolVar(&parallel, "parallel", false, "emit function bodies concurrently (output is byte-identical to sequential)")
	runCmd.Flags().StringVar(&targetVer, "target", "", "target game version, e.g. 1.20.5 (default: latest known)")
	runCmd.Flags().StringVarP(&outputFile, "output", "o", "", "write merged command text here instead of stdout")

	rootCmd.AddCommand(runCmd, passesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runFixture(name string) error {
	build, ok := fixtureSet[name]
	if !ok {
		names := make([]string, 0, len(fixtureSet))
		for n := range fixtureSet {
			names = append(names, n)
		}
		sort.Strings(names)
		return fmt.Errorf("unknown fixture %q, available: %s", name, strings.Join(names, ", "))
	}

	cfg := pipeline.Config{}
	if optimize {
		cfg = pipeline.DefaultConfig()
	}
	cfg.Debug = debug
	cfg.Parallel = parallel
	if targetVer != "" {
		v, err := gameversion.Parse(targetVer)
		if err != nil {
			return fmt.Errorf("parsing --target: %w", err)
		}
		cfg.Version = v
	} else if cfg.Version.String() == "unknown" {
		cfg.Version = gameversion.Latest()
	}

	if debug {
		traceConfig(name, cfg)
	}

	m := build()
	res, err := pipeline.Compile(m, cfg)
	if err != nil {
		return err
	}

	if debug {
		traceResult(res)
	}

	doc := res.Output.Merge()
	if outputFile == "" {
		fmt.Print(doc)
		return nil
	}
	return os.WriteFile(outputFile, []byte(doc), 0644)
}

func traceConfig(fixture string, cfg pipeline.Config) {
	bold := color.New(color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	fmt.Fprintf(os.Stderr, "%s %s\n", bold("compiling"), cyan(fixture))
	fmt.Fprintf(os.Stderr, "  mir level:  %d\n", cfg.MIRLevel)
	fmt.Fprintf(os.Stderr, "  lir opt:    %v\n", cfg.RunLIROptimizer)
	fmt.Fprintf(os.Stderr, "  shorten:    %v\n", cfg.ShortenIdents)
	fmt.Fprintf(os.Stderr, "  version:    %s\n", cfg.Version)
	fmt.Fprintf(os.Stderr, "  parallel:   %v\n", cfg.Parallel)
}

func traceResult(res *pipeline.Result) {
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintf(os.Stderr, "%s mir functions: %d\n", green("=>"), len(res.MIR.Functions))
	fmt.Fprintf(os.Stderr, "%s lir functions: %d\n", green("=>"), len(res.LIR.Functions))
	fmt.Fprintf(os.Stderr, "%s output files:  %d\n", green("=>"), len(res.Output.Files))
}

func listPasses() {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Printf("%s  (%d): no MIR optimization\n", bold("LevelNone"), optimizer.LevelNone)
	fmt.Printf("%s (%d): constant folding, copy propagation, dead code elimination\n", bold("LevelBasic"), optimizer.LevelBasic)
	fmt.Printf("%s  (%d): + peephole, logical fold, inlining (including compile-time call folding)\n", bold("LevelFull"), optimizer.LevelFull)
	fmt.Println()
	fmt.Println("dpc run --optimize selects LevelFull plus the LIR optimizer and identifier shortening.")
}
