package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verbalang/verbac/internal/ast"
	"github.com/verbalang/verbac/internal/config"
	"github.com/verbalang/verbac/internal/diagnostics"
	"github.com/verbalang/verbac/internal/ir"
	"github.com/verbalang/verbac/internal/lexer"
	"github.com/verbalang/verbac/internal/parser"
	"github.com/verbalang/verbac/internal/token"
	"github.com/verbalang/verbac/internal/toolchain"
)

var compileOut string

var compileCmd = &cobra.Command{
	Use:   "compile FILE",
	Short: "Emit LLVM IR for a source file",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)
	compileCmd.Flags().StringVarP(&compileOut, "output", "o", "", "output path (default: FILE with .ll extension)")
}

func defaultOutputPath(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + ".ll"
}

func compileFile(filename string) (string, *ast.Program, error) {
	source, err := os.ReadFile(filename)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}

	logVerbose("lexing %s", filename)
	l := lexer.New(string(source))
	p := parser.New(l)

	logVerbose("parsing %s", filename)
	prog, errs := p.Parse()
	if lexErrs := l.Errors(); len(lexErrs) > 0 {
		diags := diagnostics.FromErrors(filename, string(source), lexErrs, func(e lexer.Error) (token.Position, string) {
			return e.Pos, e.Message
		})
		diagnostics.Report(os.Stderr, diags)
		return "", nil, fmt.Errorf("%d lexical error(s) in %s", len(lexErrs), filename)
	}
	if len(errs) > 0 {
		diags := diagnostics.FromErrors(filename, string(source), errs, func(e *parser.Error) (token.Position, string) {
			return e.Pos, e.Message
		})
		diagnostics.Report(os.Stderr, diags)
		return "", nil, fmt.Errorf("%d parse error(s) in %s", len(errs), filename)
	}

	logVerbose("emitting IR for %s", filename)
	text, err := ir.New().Emit(prog)
	if err != nil {
		return "", nil, err
	}
	return text, prog, nil
}

func runCompile(_ *cobra.Command, args []string) error {
	filename := args[0]
	text, _, err := compileFile(filename)
	if err != nil {
		return err
	}

	out := compileOut
	if out == "" {
		out = defaultOutputPath(filename)
		cfg, err := config.Load(".")
		if err != nil {
			return fmt.Errorf("failed to load .verbac.yaml: %w", err)
		}
		if cfg.OutputDir != "" {
			out = filepath.Join(cfg.OutputDir, filepath.Base(out))
		}
	}

	if err := toolchain.Compile(text, out); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}

	fmt.Printf("Compiled %s -> %s\n", filename, out)
	return nil
}
