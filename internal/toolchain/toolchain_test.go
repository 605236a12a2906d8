package toolchain

import (
	"strings"
	"testing"

	"github.com/verbalang/verbac/internal/ast"
)

func TestSynthesizeEntryUsesDistinctFormatConstant(t *testing.T) {
	prog := &ast.Program{
		Functions: []*ast.FunctionDefinition{
			{Name: "add", Params: []string{"a", "b"}},
		},
	}
	entry := synthesizeEntry(prog)
	if !strings.Contains(entry, `@.fmt = private constant`) {
		t.Fatalf("expected a dedicated entry format constant, got:\n%s", entry)
	}
	if strings.Contains(entry, "@.fmt_num") || strings.Contains(entry, "@.fmt_str") {
		t.Fatalf("entry format constant must not collide with the program's own preamble constants:\n%s", entry)
	}
	if !strings.Contains(entry, "@.name0") {
		t.Fatalf("expected a per-function name constant, got:\n%s", entry)
	}
	if !strings.Contains(entry, "call double @add(double 5.0, double 3.0)") {
		t.Fatalf("expected the fixed test-argument vector (5, 3, ...), got:\n%s", entry)
	}
}

func TestTestArgVector(t *testing.T) {
	cases := map[int]float64{0: 5, 1: 3, 2: 1, 3: 1}
	for idx, want := range cases {
		if got := testArg(idx); got != want {
			t.Fatalf("testArg(%d) = %g, want %g", idx, got, want)
		}
	}
}

func TestNewDefaultsToClang(t *testing.T) {
	tc := New("", nil)
	if tc.Compiler != "clang" {
		t.Fatalf("expected default compiler clang, got %q", tc.Compiler)
	}
}
