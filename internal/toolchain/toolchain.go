// Package toolchain drives the native compiler that turns emitted IR into
// an executable: synthesizing a throwaway entry routine for `run` mode,
// shelling out to the configured compiler, and cleaning up every temporary
// artifact it creates regardless of how the invocation ends.
package toolchain

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/verbalang/verbac/internal/ast"
)

// Toolchain shells out to a native compiler (clang by default) to turn
// textual IR into a binary.
type Toolchain struct {
	// Compiler is the executable invoked on the combined IR, e.g. "clang".
	Compiler string
	// Flags are passed ahead of the input/output file arguments.
	Flags []string
}

// New returns a Toolchain using compiler, or "clang" when compiler is empty.
func New(compiler string, flags []string) *Toolchain {
	if compiler == "" {
		compiler = "clang"
	}
	return &Toolchain{Compiler: compiler, Flags: flags}
}

// Compile writes ir to outPath verbatim; `compile` mode does no further
// processing beyond the lowering internal/ir already performed.
func Compile(ir, outPath string) error {
	return os.WriteFile(outPath, []byte(ir), 0o644)
}

// testArg returns the fixed test-argument value `run` mode feeds to the
// function parameter at index: position 0 gets 5, position 1 gets 3, every
// later position gets 1.
func testArg(index int) float64 {
	switch index {
	case 0:
		return 5
	case 1:
		return 3
	default:
		return 1
	}
}

// synthesizeEntry builds the `main` routine that calls every top-level
// function once with the fixed test-argument vector and prints
// "NAME = VALUE" for each, using its own format constant distinct from the
// program's own out-statement preamble constants.
func synthesizeEntry(prog *ast.Program) string {
	var buf bytes.Buffer

	buf.WriteString(`@.fmt = private constant [11 x i8] c"%s = %.0f\0A\00"` + "\n")
	for i, fn := range prog.Functions {
		escaped := fn.Name
		buf.WriteString(fmt.Sprintf(`@.name%d = private constant [%d x i8] c"%s\00"`+"\n", i, len(escaped)+1, escaped))
	}
	buf.WriteString("\n")

	buf.WriteString("define i32 @main() {\n")
	buf.WriteString("entry:\n")
	for i, fn := range prog.Functions {
		args := make([]string, len(fn.Params))
		for j := range fn.Params {
			args[j] = fmt.Sprintf("double %.1f", testArg(j))
		}
		resultReg := fmt.Sprintf("%%r%d", i)
		nameReg := fmt.Sprintf("%%n%d", i)
		buf.WriteString(fmt.Sprintf("  %s = call double @%s(%s)\n", resultReg, fn.Name, strings.Join(args, ", ")))
		buf.WriteString(fmt.Sprintf("  %s = getelementptr [%d x i8], [%d x i8]* @.name%d, i32 0, i32 0\n",
			nameReg, len(fn.Name)+1, len(fn.Name)+1, i))
		buf.WriteString(fmt.Sprintf("  %%fmt%d = getelementptr [11 x i8], [11 x i8]* @.fmt, i32 0, i32 0\n", i))
		buf.WriteString(fmt.Sprintf("  call i32 (i8*, ...) @printf(i8* %%fmt%d, i8* %s, double %s)\n", i, nameReg, resultReg))
	}
	buf.WriteString("  ret i32 0\n")
	buf.WriteString("}\n")
	return buf.String()
}

// Run concatenates ir with a synthesized test-harness entry routine,
// compiles the result, executes it, and streams its stdout to stdout.
// Every temporary file it creates is removed before Run returns, whether
// or not the run succeeds.
func (tc *Toolchain) Run(ir string, prog *ast.Program, stdout, stderr *bytes.Buffer) error {
	dir, err := os.MkdirTemp("", "verbac-")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	id := uuid.NewString()
	irPath := filepath.Join(dir, id+"-out.ll")
	entryPath := filepath.Join(dir, id+"-entry.ll")
	combinedPath := filepath.Join(dir, id+"-combined.ll")
	binPath := filepath.Join(dir, id+"-bin")

	if err := os.WriteFile(irPath, []byte(ir), 0o644); err != nil {
		return fmt.Errorf("write ir: %w", err)
	}
	if err := os.WriteFile(entryPath, []byte(synthesizeEntry(prog)), 0o644); err != nil {
		return fmt.Errorf("write entry: %w", err)
	}

	combined, err := concat(irPath, entryPath)
	if err != nil {
		return fmt.Errorf("combine ir: %w", err)
	}
	if err := os.WriteFile(combinedPath, combined, 0o644); err != nil {
		return fmt.Errorf("write combined ir: %w", err)
	}

	compileArgs := append(append([]string{}, tc.Flags...), "-w", combinedPath, "-o", binPath)
	compileCmd := exec.Command(tc.Compiler, compileArgs...)
	compileCmd.Stderr = stderr
	if err := compileCmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w", tc.Compiler, err)
	}

	runCmd := exec.Command(binPath)
	runCmd.Stdout = stdout
	runCmd.Stderr = stderr
	return runCmd.Run()
}

func concat(paths ...string) ([]byte, error) {
	var buf bytes.Buffer
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}
