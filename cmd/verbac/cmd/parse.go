package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verbalang/verbac/internal/ast"
	"github.com/verbalang/verbac/internal/diagnostics"
	"github.com/verbalang/verbac/internal/lexer"
	"github.com/verbalang/verbac/internal/parser"
	"github.com/verbalang/verbac/internal/token"
)

var parseCmd = &cobra.Command{
	Use:   "parse FILE",
	Short: "Print the parsed syntax tree for a source file",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
}

func runParse(_ *cobra.Command, args []string) error {
	filename := args[0]
	source, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filename, err)
	}

	logVerbose("parsing %s", filename)
	l := lexer.New(string(source))
	p := parser.New(l)
	prog, errs := p.Parse()
	if lexErrs := l.Errors(); len(lexErrs) > 0 {
		diags := diagnostics.FromErrors(filename, string(source), lexErrs, func(e lexer.Error) (token.Position, string) {
			return e.Pos, e.Message
		})
		diagnostics.Report(os.Stderr, diags)
		return fmt.Errorf("%d lexical error(s) in %s", len(lexErrs), filename)
	}
	if len(errs) > 0 {
		diags := diagnostics.FromErrors(filename, string(source), errs, func(e *parser.Error) (token.Position, string) {
			return e.Pos, e.Message
		})
		diagnostics.Report(os.Stderr, diags)
		return fmt.Errorf("%d parse error(s) in %s", len(errs), filename)
	}

	fmt.Println("=== AST ===")
	dumpProgram(prog)
	return nil
}

func indent(n int) string { return strings.Repeat("  ", n) }

func dumpProgram(p *ast.Program) {
	fmt.Println("Program")
	for _, t := range p.Types {
		dumpType(t, 1)
	}
	for _, fn := range p.Functions {
		dumpFunction(fn, 1)
	}
}

func dumpFunction(fn *ast.FunctionDefinition, depth int) {
	fmt.Printf("%sFunction: %s (%s)\n", indent(depth), fn.Name, strings.Join(fn.Params, ", "))
	for _, s := range fn.Body {
		dumpStmt(s, depth+1)
	}
}

func dumpType(t *ast.TypeDefinition, depth int) {
	kind := "struct"
	if t.IsUnion {
		kind = "union"
	}
	fmt.Printf("%sType: %s (%s)\n", indent(depth), t.Name, kind)
}

func dumpStmt(s ast.Statement, depth int) {
	switch n := s.(type) {
	case *ast.Return:
		fmt.Print(indent(depth) + "Return")
		switch n.Variant {
		case ast.ReturnOk:
			fmt.Print(" ok")
		case ast.ReturnErr:
			fmt.Print(" err")
		}
		fmt.Println()
		dumpExpr(n.Value, depth+1)

	case *ast.If:
		fmt.Println(indent(depth) + "If")
		fmt.Println(indent(depth+1) + "Condition:")
		dumpExpr(n.Condition, depth+2)
		fmt.Println(indent(depth+1) + "Then:")
		for _, st := range n.Then {
			dumpStmt(st, depth+2)
		}
		if n.Else != nil {
			fmt.Println(indent(depth+1) + "Else:")
			for _, st := range n.Else {
				dumpStmt(st, depth+2)
			}
		}

	case *ast.Let:
		fmt.Println(indent(depth) + "Let: " + n.Name)
		dumpExpr(n.Value, depth+1)

	case *ast.ExprStmt:
		fmt.Println(indent(depth) + "ExprStmt")
		dumpExpr(n.Value, depth+1)

	case *ast.Out:
		fmt.Println(indent(depth) + "Out")
		dumpExpr(n.Value, depth+1)

	case *ast.Repeat:
		name := n.LoopVar
		if name == "" {
			name = "(no var)"
		}
		fmt.Println(indent(depth) + "Repeat " + name)
		fmt.Println(indent(depth+1) + "Count:")
		dumpExpr(n.Count, depth+2)
		fmt.Println(indent(depth+1) + "Body:")
		for _, st := range n.Body {
			dumpStmt(st, depth+2)
		}

	case *ast.While:
		fmt.Println(indent(depth) + "While")
		fmt.Println(indent(depth+1) + "Condition:")
		dumpExpr(n.Condition, depth+2)
		fmt.Println(indent(depth+1) + "Body:")
		for _, st := range n.Body {
			dumpStmt(st, depth+2)
		}

	case *ast.IncDec:
		verb := "Inc"
		if n.Negate {
			verb = "Dec"
		}
		fmt.Println(indent(depth) + verb + ": " + n.Name)
		if n.Amount != nil {
			dumpExpr(n.Amount, depth+1)
		}

	default:
		fmt.Printf("%sUnknown statement %T\n", indent(depth), s)
	}
}

func dumpExpr(e ast.Expression, depth int) {
	switch n := e.(type) {
	case *ast.BinOp:
		fmt.Println(indent(depth) + "BinOp: " + n.Operator)
		dumpExpr(n.Left, depth+1)
		dumpExpr(n.Right, depth+1)

	case *ast.UnaryOp:
		fmt.Println(indent(depth) + "UnaryOp: " + n.Operator)
		dumpExpr(n.Operand, depth+1)

	case *ast.Call:
		fmt.Printf("%sCall: %s.%s\n", indent(depth), n.Module, n.Name)
		for _, a := range n.Args {
			dumpExpr(a, depth+1)
		}

	case *ast.Num:
		fmt.Println(indent(depth) + "Num: " + strconv.FormatFloat(n.Value, 'g', -1, 64))

	case *ast.Str:
		fmt.Println(indent(depth) + "Str: \"" + n.Value + "\"")

	case *ast.Bool:
		fmt.Println(indent(depth) + "Bool: " + strconv.FormatBool(n.Value))

	case *ast.Var:
		fmt.Println(indent(depth) + "Var: " + n.Name)

	case *ast.Positional:
		fmt.Println(indent(depth) + "Positional: " + strconv.Itoa(n.Index))

	default:
		fmt.Printf("%sUnknown expression %T\n", indent(depth), e)
	}
}
