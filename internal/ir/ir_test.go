package ir

import (
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/verbalang/verbac/internal/lexer"
	"github.com/verbalang/verbac/internal/parser"
)

func emit(t *testing.T, src string) string {
	t.Helper()
	p := parser.New(lexer.New(src))
	prog, errs := p.Parse()
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors for %q: %v", src, errs)
	}
	out, err := New().Emit(prog)
	if err != nil {
		t.Fatalf("unexpected emit error for %q: %v", src, err)
	}
	return out
}

func TestPreambleHasExactlyTwoFormatConstants(t *testing.T) {
	out := emit(t, "fn f\nret zero\n")
	if strings.Count(out, "private constant") != 2 {
		t.Fatalf("expected exactly 2 private constants (fmt_num, fmt_str), got:\n%s", out)
	}
	if strings.Contains(out, "fmt_int") {
		t.Fatalf("unexpected dead .fmt_int constant in preamble:\n%s", out)
	}
	if !strings.Contains(out, `@.fmt_num = private constant [4 x i8] c"%g\0A\00"`) {
		t.Fatalf("missing .fmt_num constant:\n%s", out)
	}
	if !strings.Contains(out, `@.fmt_str = private constant [4 x i8] c"%s\0A\00"`) {
		t.Fatalf("missing .fmt_str constant:\n%s", out)
	}
}

// S1: a two-parameter function adding its arguments.
func TestScenarioAdd(t *testing.T) {
	out := emit(t, "fn add a b\nret a plus b\n")
	snaps.MatchSnapshot(t, "scenario_add", out)
	if !strings.Contains(out, "define double @add(double %arg0, double %arg1) {") {
		t.Fatalf("unexpected signature:\n%s", out)
	}
	if !strings.Contains(out, "fadd double") {
		t.Fatalf("expected an fadd instruction:\n%s", out)
	}
}

// S2: a string-literal out and the string table index it assigns.
func TestScenarioOutString(t *testing.T) {
	out := emit(t, `fn main
out "hello"
ret zero
`)
	snaps.MatchSnapshot(t, "scenario_out_string", out)
	if !strings.Contains(out, `@.str0 = private constant [6 x i8] c"hello\00"`) {
		t.Fatalf("expected hello at string index 0:\n%s", out)
	}
	if !strings.Contains(out, "@.fmt_str") {
		t.Fatalf("expected a fmt_str printf call:\n%s", out)
	}
}

// S3: a repeat loop computing a triangular sum.
func TestScenarioRepeat(t *testing.T) {
	src := "fn f n\nlet s zero\nrepeat n times as i\ninc s i\ndone\nret s\n"
	out := emit(t, src)
	snaps.MatchSnapshot(t, "scenario_repeat", out)
	for _, want := range []string{"loop_start0:", "loop_body0:", "loop_end0:"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing label %q:\n%s", want, out)
		}
	}
}

// S4: both if/else arms return, so no branch into the end label is
// emitted by either arm, yet the end label itself is still present.
func TestScenarioIfElseBothReturn(t *testing.T) {
	out := emit(t, "fn g x\nif x gt zero ret ok x else ret err zero\n")
	snaps.MatchSnapshot(t, "scenario_if_else_both_return", out)

	thenIdx := strings.Index(out, "then0:")
	elseIdx := strings.Index(out, "else1:")
	endIdx := strings.Index(out, "end2:")
	if thenIdx < 0 || elseIdx < 0 || endIdx < 0 {
		t.Fatalf("expected then0/else1/end2 labels:\n%s", out)
	}
	between := out[thenIdx:elseIdx]
	if strings.Contains(between, "br label %end2") {
		t.Fatalf("then-arm should not branch to end since it returns:\n%s", between)
	}
	afterElse := out[elseIdx:endIdx]
	if strings.Contains(afterElse, "br label %end2") {
		t.Fatalf("else-arm should not branch to end since it returns:\n%s", afterElse)
	}
}

// S5: a while loop re-evaluating its condition every iteration.
func TestScenarioWhile(t *testing.T) {
	out := emit(t, "fn h\nlet i ten\nwhile i gt zero\ndec i\ndone\nret i\n")
	snaps.MatchSnapshot(t, "scenario_while", out)
	for _, want := range []string{"while_start0:", "while_body0:", "while_end0:"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing label %q:\n%s", want, out)
		}
	}
}

// S6: a math-module call lowers to the square-root intrinsic.
func TestScenarioMathSqrt(t *testing.T) {
	out := emit(t, "fn m x\nret math sqrt x\n")
	snaps.MatchSnapshot(t, "scenario_math_sqrt", out)
	if !strings.Contains(out, "call double @llvm.sqrt.f64(double") {
		t.Fatalf("expected a sqrt intrinsic call:\n%s", out)
	}
}

// Property 4: rebinding a let reuses the same stack slot.
func TestLetRebindingReusesSlot(t *testing.T) {
	out := emit(t, "fn f\nlet x one\nlet x two\nret x\n")
	if strings.Count(out, "alloca double") != 1 {
		t.Fatalf("expected exactly one alloca for rebound x:\n%s", out)
	}
	if strings.Count(out, "store double") != 2 {
		t.Fatalf("expected two stores (initial bind + rebind):\n%s", out)
	}
}

// Property 5: a positional reference lowers identically to the named
// parameter occupying the same slot.
func TestPositionalMatchesNamedParam(t *testing.T) {
	out := emit(t, "fn f a b c d\nret third\n")
	if !strings.Contains(out, "fadd double 0.0, %arg2") {
		t.Fatalf("expected `third` to reference %%arg2:\n%s", out)
	}
	named := emit(t, "fn f a b c d\nret c\n")
	if named != out {
		t.Fatalf("expected `third` and `c` to lower identically:\n%s\nvs\n%s", out, named)
	}
}

// Property 6: every basic block this emitter writes ends in exactly one
// terminator (a ret or an unconditional/conditional branch).
func TestBlocksEndInOneTerminator(t *testing.T) {
	out := emit(t, "fn f n\nlet s zero\nrepeat n times as i\ninc s i\ndone\nif s gt zero\nout s\ndone\nret s\n")
	lines := strings.Split(out, "\n")
	terminatorCount := 0
	sawLabel := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		isLabel := strings.HasSuffix(trimmed, ":") && !strings.Contains(trimmed, " ")
		isTerminator := strings.HasPrefix(trimmed, "ret ") || strings.HasPrefix(trimmed, "br ")
		if isLabel || trimmed == "}" {
			if sawLabel && terminatorCount != 1 {
				t.Fatalf("block before %q had %d terminators, want 1:\n%s", trimmed, terminatorCount, out)
			}
			sawLabel = isLabel
			terminatorCount = 0
			continue
		}
		if isTerminator {
			terminatorCount++
		}
	}
}

func TestUnknownVariableInIncIsAnError(t *testing.T) {
	p := parser.New(lexer.New("fn f\ninc missing\nret zero\n"))
	prog, errs := p.Parse()
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	_, err := New().Emit(prog)
	if err == nil {
		t.Fatalf("expected an emission error for an unknown variable")
	}
}

func TestStringTableOrderMatchesDocumentOrder(t *testing.T) {
	out := emit(t, `fn main
out "first"
out "second"
ret zero
`)
	firstIdx := strings.Index(out, `@.str0 = private constant [6 x i8] c"first\00"`)
	secondIdx := strings.Index(out, `@.str1 = private constant [7 x i8] c"second\00"`)
	if firstIdx < 0 || secondIdx < 0 || firstIdx > secondIdx {
		t.Fatalf("expected str0=first before str1=second:\n%s", out)
	}
}
