package fixtures

import (
	"strings"
	"testing"

	"dpc/pkg/pipeline"
)

func TestSineCallsFoldUnderOptimization(t *testing.T) {
	m := Sine()

	unopt := pipeline.Config{}
	res, err := pipeline.Compile(m, unopt)
	if err != nil {
		t.Fatalf("Compile (unoptimized): %v", err)
	}
	doc := res.Output.Merge()
	if strings.Count(doc, "function test:sine") != 3 {
		t.Fatalf("expected three unfolded calls to test:sine, got:\n%s", doc)
	}

	optRes, err := pipeline.Compile(m, pipeline.DefaultConfig())
	if err != nil {
		t.Fatalf("Compile (optimized): %v", err)
	}
	optDoc := optRes.Output.Merge()
	if strings.Contains(optDoc, "function test:sine") {
		t.Fatalf("expected constant-arg calls to test:sine to fold away under optimization, got:\n%s", optDoc)
	}
}

func TestSqrtBranchesStayDistinctUnoptimized(t *testing.T) {
	m := Sqrt()
	res, err := pipeline.Compile(m, pipeline.Config{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	doc := res.Output.Merge()
	if !strings.Contains(doc, "test:sqrt") {
		t.Fatalf("expected the unoptimized module to still contain test:sqrt, got:\n%s", doc)
	}
}

func TestManualOrFoldStaysOneCounter(t *testing.T) {
	m := ManualOrFold()
	res, err := pipeline.Compile(m, pipeline.DefaultConfig())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	doc := res.Output.Merge()
	if strings.Count(doc, "scoreboard players set") > 1 {
		t.Fatalf("expected the hand-written OR counter to stay a single reset, got:\n%s", doc)
	}
}

func TestShouldBeShortestPicksMostCalledFunctionForShortestName(t *testing.T) {
	m := ShouldBeShortest()
	res, err := pipeline.Compile(m, pipeline.DefaultConfig())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if _, stillNamed := res.LIR.Functions["dpc:helper_one"]; stillNamed {
		t.Fatalf("expected the most-called helper to be renamed to something shorter")
	}
	if _, stillShort := res.LIR.Functions["sh:ort"]; !stillShort {
		t.Fatalf("expected the already-short identifier sh:ort to be kept")
	}
}

func TestNotAndPushesNegationThroughConjunction(t *testing.T) {
	m := NotAnd()
	res, err := pipeline.Compile(m, pipeline.Config{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	doc := res.Output.Merge()
	if !strings.Contains(doc, "unless") {
		t.Fatalf("expected De Morgan's law to produce an unless clause, got:\n%s", doc)
	}
}

func TestCopyPropMultipleCompiles(t *testing.T) {
	m := CopyPropMultiple()
	res, err := pipeline.Compile(m, pipeline.DefaultConfig())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	doc := res.Output.Merge()
	if !strings.Contains(doc, "copies taken") {
		t.Fatalf("expected the say command to survive, got:\n%s", doc)
	}
}
