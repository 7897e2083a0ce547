package dpcerr

import (
	"errors"
	"testing"
)

func TestNewFormatsFunctionContext(t *testing.T) {
	err := New(UnsupportedType, "ns:fn", "arithmetic on nany")
	want := "UnsupportedType in \"ns:fn\": arithmetic on nany"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestNewWithoutFunctionOmitsContext(t *testing.T) {
	err := New(UndefinedFunction, "", "call target never defined")
	want := "UndefinedFunction: call target never defined"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(Internal, "ns:fn", "pass failed", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected Wrap to preserve the cause for errors.Is")
	}
}

func TestKindStringIsExhaustive(t *testing.T) {
	kinds := []Kind{UnsupportedType, UndefinedFunction, TypeMismatch, RecursionViolation, InvalidCondition, Internal}
	seen := make(map[string]bool)
	for _, k := range kinds {
		s := k.String()
		if s == "Unknown" {
			t.Fatalf("kind %d stringified to Unknown", k)
		}
		if seen[s] {
			t.Fatalf("kind %d reused string %q", k, s)
		}
		seen[s] = true
	}
}
