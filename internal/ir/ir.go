// Package ir lowers a parsed program into a textual SSA-style IR: one
// module preamble, a table of string-literal constants, and one function
// per source function. Every value is a double; control flow is a plain
// graph of labelled basic blocks joined by branch and return terminators.
package ir

import (
	"bytes"
	"fmt"
	"math"

	"github.com/verbalang/verbac/internal/ast"
	"github.com/verbalang/verbac/internal/token"
)

// Error is a failure encountered while lowering a program, tagged with the
// source position of the node that caused it.
type Error struct {
	Message string
	Pos     token.Position
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

// Emitter lowers one ast.Program into IR text. It is reusable across
// calls to Emit; each call resets all per-program state.
type Emitter struct {
	buf *bytes.Buffer

	tempCounter  int
	labelCounter int

	localSlots map[string]int
	localCount int
	params     map[string]int

	stringCounter int
}

// New returns a ready-to-use Emitter.
func New() *Emitter {
	return &Emitter{}
}

// Emit lowers program to IR text, or returns the first error encountered.
func (e *Emitter) Emit(program *ast.Program) (string, error) {
	e.buf = &bytes.Buffer{}
	e.stringCounter = 0

	e.writeHeader()
	e.writeIntrinsics()
	e.writeFormatConstants()

	strs := collectStrings(program)
	e.writeStringTable(strs)

	for _, fn := range program.Functions {
		if err := e.emitFunction(fn); err != nil {
			return "", err
		}
	}

	return e.buf.String(), nil
}

func (e *Emitter) writeHeader() {
	fmt.Fprintln(e.buf, "; Generated IR, not meant for human editing.")
	fmt.Fprintln(e.buf)
}

func (e *Emitter) writeIntrinsics() {
	fmt.Fprintln(e.buf, "declare double @llvm.fabs.f64(double)")
	fmt.Fprintln(e.buf, "declare double @llvm.sqrt.f64(double)")
	fmt.Fprintln(e.buf, "declare double @llvm.floor.f64(double)")
	fmt.Fprintln(e.buf, "declare double @llvm.ceil.f64(double)")
	fmt.Fprintln(e.buf, "declare double @llvm.sin.f64(double)")
	fmt.Fprintln(e.buf, "declare double @llvm.cos.f64(double)")
	fmt.Fprintln(e.buf, "declare double @llvm.pow.f64(double, double)")
	fmt.Fprintln(e.buf, "declare double @llvm.minnum.f64(double, double)")
	fmt.Fprintln(e.buf, "declare double @llvm.maxnum.f64(double, double)")
	fmt.Fprintln(e.buf)
	fmt.Fprintln(e.buf, "declare i32 @printf(i8*, ...)")
	fmt.Fprintln(e.buf)
}

// writeFormatConstants emits the two printf format strings `out` uses.
// The number/string split is exhaustive: there is no third format constant.
func (e *Emitter) writeFormatConstants() {
	fmt.Fprintln(e.buf, `@.fmt_num = private constant [4 x i8] c"%g\0A\00"`)
	fmt.Fprintln(e.buf, `@.fmt_str = private constant [4 x i8] c"%s\0A\00"`)
	fmt.Fprintln(e.buf)
}

func (e *Emitter) writeStringTable(strs []string) {
	for i, s := range strs {
		fmt.Fprintf(e.buf, "@.str%d = private constant [%d x i8] c\"", i, len(s)+1)
		for _, b := range []byte(s) {
			if b == '\\' || b == '"' || b < 32 || b >= 127 {
				fmt.Fprintf(e.buf, "\\%02X", b)
			} else {
				e.buf.WriteByte(b)
			}
		}
		fmt.Fprintln(e.buf, `\00"`)
	}
	if len(strs) > 0 {
		fmt.Fprintln(e.buf)
	}
}

// collectStrings walks the program in document order and returns every
// string literal it encounters, in the order `out` lowering will consume
// them. The traversal here must visit nodes in exactly the same order
// emitFunction does, since Out lowering assigns indices by a running
// counter rather than by re-deriving them from content.
func collectStrings(program *ast.Program) []string {
	var out []string
	for _, fn := range program.Functions {
		for _, stmt := range fn.Body {
			collectStringsStmt(stmt, &out)
		}
	}
	return out
}

func collectStringsStmt(stmt ast.Statement, out *[]string) {
	switch s := stmt.(type) {
	case *ast.Out:
		collectStringsExpr(s.Value, out)
	case *ast.Return:
		collectStringsExpr(s.Value, out)
	case *ast.If:
		collectStringsExpr(s.Condition, out)
		for _, t := range s.Then {
			collectStringsStmt(t, out)
		}
		for _, t := range s.Else {
			collectStringsStmt(t, out)
		}
	case *ast.Let:
		collectStringsExpr(s.Value, out)
	case *ast.ExprStmt:
		collectStringsExpr(s.Value, out)
	case *ast.Repeat:
		collectStringsExpr(s.Count, out)
		for _, b := range s.Body {
			collectStringsStmt(b, out)
		}
	case *ast.While:
		collectStringsExpr(s.Condition, out)
		for _, b := range s.Body {
			collectStringsStmt(b, out)
		}
	case *ast.IncDec:
		if s.Amount != nil {
			collectStringsExpr(s.Amount, out)
		}
	}
}

func collectStringsExpr(expr ast.Expression, out *[]string) {
	switch e := expr.(type) {
	case *ast.Str:
		*out = append(*out, e.Value)
	case *ast.BinOp:
		collectStringsExpr(e.Left, out)
		collectStringsExpr(e.Right, out)
	case *ast.UnaryOp:
		collectStringsExpr(e.Operand, out)
	case *ast.Call:
		for _, a := range e.Args {
			collectStringsExpr(a, out)
		}
	}
}

func (e *Emitter) temp() string {
	n := e.tempCounter
	e.tempCounter++
	return fmt.Sprintf("%%t%d", n)
}

func (e *Emitter) label() int {
	n := e.labelCounter
	e.labelCounter++
	return n
}

// emitFunction resets per-function counters: temps and labels each start
// fresh at every function, locals do not carry over, but the string
// counter is program-global since the string table itself is.
func (e *Emitter) emitFunction(fn *ast.FunctionDefinition) error {
	e.tempCounter = 0
	e.labelCounter = 0
	e.localSlots = make(map[string]int)
	e.localCount = 0

	e.params = make(map[string]int, len(fn.Params))
	for i, p := range fn.Params {
		e.params[p] = i
	}

	fmt.Fprintf(e.buf, "define double @%s(", fn.Name)
	for i := range fn.Params {
		if i > 0 {
			fmt.Fprint(e.buf, ", ")
		}
		fmt.Fprintf(e.buf, "double %%arg%d", i)
	}
	fmt.Fprintln(e.buf, ") {")
	fmt.Fprintln(e.buf, "entry:")

	hasReturn := false
	for _, stmt := range fn.Body {
		if err := e.emitStmt(stmt); err != nil {
			return err
		}
		if _, ok := stmt.(*ast.Return); ok {
			hasReturn = true
		}
	}
	if !hasReturn {
		fmt.Fprintln(e.buf, "  ret double 0.0")
	}
	fmt.Fprintln(e.buf, "}")
	fmt.Fprintln(e.buf)
	return nil
}

// emitBlock lowers a statement list and reports whether it is guaranteed
// to terminate via its last statement being a Return. This generalises the
// bootstrap's single-statement check to the full statement list a block
// now carries.
func (e *Emitter) emitBlock(stmts []ast.Statement) (bool, error) {
	for _, s := range stmts {
		if err := e.emitStmt(s); err != nil {
			return false, err
		}
	}
	if len(stmts) == 0 {
		return false, nil
	}
	_, ok := stmts[len(stmts)-1].(*ast.Return)
	return ok, nil
}

func (e *Emitter) emitStmt(stmt ast.Statement) error {
	switch s := stmt.(type) {
	case *ast.Return:
		val, err := e.emitExpr(s.Value)
		if err != nil {
			return err
		}
		fmt.Fprintf(e.buf, "  ret double %s\n", val)
		return nil

	case *ast.If:
		return e.emitIf(s)

	case *ast.Let:
		val, err := e.emitExpr(s.Value)
		if err != nil {
			return err
		}
		if slot, ok := e.localSlots[s.Name]; ok {
			fmt.Fprintf(e.buf, "  store double %s, double* %%local%d\n", val, slot)
			return nil
		}
		slot := e.localCount
		e.localCount++
		fmt.Fprintf(e.buf, "  %%local%d = alloca double\n", slot)
		fmt.Fprintf(e.buf, "  store double %s, double* %%local%d\n", val, slot)
		e.localSlots[s.Name] = slot
		return nil

	case *ast.ExprStmt:
		_, err := e.emitExpr(s.Value)
		return err

	case *ast.Out:
		return e.emitOut(s)

	case *ast.Repeat:
		return e.emitRepeat(s)

	case *ast.While:
		return e.emitWhile(s)

	case *ast.IncDec:
		return e.emitIncDec(s)

	default:
		return &Error{Message: fmt.Sprintf("unknown statement %T", stmt)}
	}
}

func (e *Emitter) emitIf(s *ast.If) error {
	cond, err := e.emitExpr(s.Condition)
	if err != nil {
		return err
	}
	boolReg := e.temp()
	fmt.Fprintf(e.buf, "  %s = fcmp one double %s, 0.0\n", boolReg, cond)

	thenLabel := e.label()
	elseLabel := e.label()
	endLabel := e.label()

	if s.Else != nil {
		fmt.Fprintf(e.buf, "  br i1 %s, label %%then%d, label %%else%d\n", boolReg, thenLabel, elseLabel)
		fmt.Fprintf(e.buf, "then%d:\n", thenLabel)
		thenReturns, err := e.emitBlock(s.Then)
		if err != nil {
			return err
		}
		if !thenReturns {
			fmt.Fprintf(e.buf, "  br label %%end%d\n", endLabel)
		}
		fmt.Fprintf(e.buf, "else%d:\n", elseLabel)
		elseReturns, err := e.emitBlock(s.Else)
		if err != nil {
			return err
		}
		if !elseReturns {
			fmt.Fprintf(e.buf, "  br label %%end%d\n", endLabel)
		}
		fmt.Fprintf(e.buf, "end%d:\n", endLabel)
		return nil
	}

	fmt.Fprintf(e.buf, "  br i1 %s, label %%then%d, label %%end%d\n", boolReg, thenLabel, endLabel)
	fmt.Fprintf(e.buf, "then%d:\n", thenLabel)
	thenReturns, err := e.emitBlock(s.Then)
	if err != nil {
		return err
	}
	if !thenReturns {
		fmt.Fprintf(e.buf, "  br label %%end%d\n", endLabel)
	}
	fmt.Fprintf(e.buf, "end%d:\n", endLabel)
	return nil
}

func (e *Emitter) emitRepeat(s *ast.Repeat) error {
	count, err := e.emitExpr(s.Count)
	if err != nil {
		return err
	}

	k := e.label()
	loopStart, loopBody, loopEnd := k, k, k

	counterSlot := e.localCount
	e.localCount++
	fmt.Fprintf(e.buf, "  %%local%d = alloca double\n", counterSlot)
	fmt.Fprintf(e.buf, "  store double 1.0, double* %%local%d\n", counterSlot)
	if s.LoopVar != "" {
		e.localSlots[s.LoopVar] = counterSlot
	}

	fmt.Fprintf(e.buf, "  br label %%loop_start%d\n", loopStart)
	fmt.Fprintf(e.buf, "loop_start%d:\n", loopStart)

	counterVal := e.temp()
	fmt.Fprintf(e.buf, "  %s = load double, double* %%local%d\n", counterVal, counterSlot)
	cmp := e.temp()
	fmt.Fprintf(e.buf, "  %s = fcmp ole double %s, %s\n", cmp, counterVal, count)
	fmt.Fprintf(e.buf, "  br i1 %s, label %%loop_body%d, label %%loop_end%d\n", cmp, loopBody, loopEnd)

	fmt.Fprintf(e.buf, "loop_body%d:\n", loopBody)
	for _, stmt := range s.Body {
		if err := e.emitStmt(stmt); err != nil {
			return err
		}
	}

	incLoad := e.temp()
	fmt.Fprintf(e.buf, "  %s = load double, double* %%local%d\n", incLoad, counterSlot)
	incAdd := e.temp()
	fmt.Fprintf(e.buf, "  %s = fadd double %s, 1.0\n", incAdd, incLoad)
	fmt.Fprintf(e.buf, "  store double %s, double* %%local%d\n", incAdd, counterSlot)
	fmt.Fprintf(e.buf, "  br label %%loop_start%d\n", loopStart)

	fmt.Fprintf(e.buf, "loop_end%d:\n", loopEnd)
	return nil
}

func (e *Emitter) emitWhile(s *ast.While) error {
	k := e.label()
	loopStart, loopBody, loopEnd := k, k, k

	fmt.Fprintf(e.buf, "  br label %%while_start%d\n", loopStart)
	fmt.Fprintf(e.buf, "while_start%d:\n", loopStart)

	cond, err := e.emitExpr(s.Condition)
	if err != nil {
		return err
	}
	boolReg := e.temp()
	fmt.Fprintf(e.buf, "  %s = fcmp one double %s, 0.0\n", boolReg, cond)
	fmt.Fprintf(e.buf, "  br i1 %s, label %%while_body%d, label %%while_end%d\n", boolReg, loopBody, loopEnd)

	fmt.Fprintf(e.buf, "while_body%d:\n", loopBody)
	for _, stmt := range s.Body {
		if err := e.emitStmt(stmt); err != nil {
			return err
		}
	}
	fmt.Fprintf(e.buf, "  br label %%while_start%d\n", loopStart)

	fmt.Fprintf(e.buf, "while_end%d:\n", loopEnd)
	return nil
}

func (e *Emitter) emitIncDec(s *ast.IncDec) error {
	slot, ok := e.localSlots[s.Name]
	if !ok {
		return &Error{Message: fmt.Sprintf("unknown variable %q", s.Name), Pos: s.Token.Pos}
	}

	loadReg := e.temp()
	fmt.Fprintf(e.buf, "  %s = load double, double* %%local%d\n", loadReg, slot)

	var amount string
	if s.Amount != nil {
		var err error
		amount, err = e.emitExpr(s.Amount)
		if err != nil {
			return err
		}
	} else {
		amount = e.temp()
		fmt.Fprintf(e.buf, "  %s = fadd double 0.0, 1.0\n", amount)
	}

	op := "fadd"
	if s.Negate {
		op = "fsub"
	}
	result := e.temp()
	fmt.Fprintf(e.buf, "  %s = %s double %s, %s\n", result, op, loadReg, amount)
	fmt.Fprintf(e.buf, "  store double %s, double* %%local%d\n", result, slot)
	return nil
}

func (e *Emitter) emitOut(s *ast.Out) error {
	if str, ok := s.Value.(*ast.Str); ok {
		id := e.stringCounter
		e.stringCounter++
		n := len(str.Value) + 1

		ptr := e.temp()
		fmt.Fprintf(e.buf, "  %s = getelementptr [%d x i8], [%d x i8]* @.str%d, i32 0, i32 0\n", ptr, n, n, id)
		fmt.Fprintf(e.buf, "  call i32 (i8*, ...) @printf(i8* getelementptr ([4 x i8], [4 x i8]* @.fmt_str, i32 0, i32 0), i8* %s)\n", ptr)
		return nil
	}

	val, err := e.emitExpr(s.Value)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.buf, "  call i32 (i8*, ...) @printf(i8* getelementptr ([4 x i8], [4 x i8]* @.fmt_num, i32 0, i32 0), double %s)\n", val)
	return nil
}

func (e *Emitter) emitExpr(expr ast.Expression) (string, error) {
	switch n := expr.(type) {
	case *ast.Num:
		reg := e.temp()
		if n.Value == math.Trunc(n.Value) && n.Value >= -1e15 && n.Value <= 1e15 {
			fmt.Fprintf(e.buf, "  %s = fadd double 0.0, %.1f\n", reg, n.Value)
		} else {
			fmt.Fprintf(e.buf, "  %s = fadd double 0.0, %e\n", reg, n.Value)
		}
		return reg, nil

	case *ast.Str:
		// A string literal used as a value (not the direct argument of
		// `out`) has nowhere to go in this bootstrap; it lowers to 0.0.
		reg := e.temp()
		fmt.Fprintf(e.buf, "  ; string %q used as a value\n", n.Value)
		fmt.Fprintf(e.buf, "  %s = fadd double 0.0, 0.0\n", reg)
		return reg, nil

	case *ast.Bool:
		reg := e.temp()
		v := 0
		if n.Value {
			v = 1
		}
		fmt.Fprintf(e.buf, "  %s = fadd double 0.0, %d.0\n", reg, v)
		return reg, nil

	case *ast.Var:
		if slot, ok := e.localSlots[n.Name]; ok {
			reg := e.temp()
			fmt.Fprintf(e.buf, "  %s = load double, double* %%local%d\n", reg, slot)
			return reg, nil
		}
		if idx, ok := e.params[n.Name]; ok {
			reg := e.temp()
			fmt.Fprintf(e.buf, "  %s = fadd double 0.0, %%arg%d\n", reg, idx)
			return reg, nil
		}
		return "", &Error{Message: fmt.Sprintf("unknown identifier %q", n.Name), Pos: n.Token.Pos}

	case *ast.Positional:
		reg := e.temp()
		fmt.Fprintf(e.buf, "  %s = fadd double 0.0, %%arg%d\n", reg, n.Index)
		return reg, nil

	case *ast.BinOp:
		return e.emitBinOp(n)

	case *ast.UnaryOp:
		return e.emitUnary(n)

	case *ast.Call:
		return e.emitCall(n)

	default:
		return "", &Error{Message: fmt.Sprintf("unknown expression %T", expr)}
	}
}

func (e *Emitter) emitBinOp(b *ast.BinOp) (string, error) {
	left, err := e.emitExpr(b.Left)
	if err != nil {
		return "", err
	}
	right, err := e.emitExpr(b.Right)
	if err != nil {
		return "", err
	}

	switch b.Operator {
	case "plus":
		return e.arith("fadd", left, right), nil
	case "minus":
		return e.arith("fsub", left, right), nil
	case "times":
		return e.arith("fmul", left, right), nil
	case "over":
		return e.arith("fdiv", left, right), nil
	case "mod":
		return e.arith("frem", left, right), nil
	case "eq":
		return e.compare("oeq", left, right), nil
	case "neq":
		return e.compare("one", left, right), nil
	case "lt":
		return e.compare("olt", left, right), nil
	case "gt":
		return e.compare("ogt", left, right), nil
	case "lte":
		return e.compare("ole", left, right), nil
	case "gte":
		return e.compare("oge", left, right), nil
	case "and":
		return e.logical("and", left, right), nil
	case "or":
		return e.logical("or", left, right), nil
	default:
		return "", &Error{Message: fmt.Sprintf("unknown operator %q", b.Operator), Pos: b.Token.Pos}
	}
}

func (e *Emitter) arith(op, left, right string) string {
	reg := e.temp()
	fmt.Fprintf(e.buf, "  %s = %s double %s, %s\n", reg, op, left, right)
	return reg
}

func (e *Emitter) compare(pred, left, right string) string {
	cmp := e.temp()
	fmt.Fprintf(e.buf, "  %s = fcmp %s double %s, %s\n", cmp, pred, left, right)
	result := e.temp()
	fmt.Fprintf(e.buf, "  %s = uitofp i1 %s to double\n", result, cmp)
	return result
}

// logical implements strict and/or: both operands are widened to i1 by
// comparing against zero, combined with the given bitwise op, then
// widened back to double.
func (e *Emitter) logical(op, left, right string) string {
	leftBool := e.temp()
	fmt.Fprintf(e.buf, "  %s = fcmp one double %s, 0.0\n", leftBool, left)
	rightBool := e.temp()
	fmt.Fprintf(e.buf, "  %s = fcmp one double %s, 0.0\n", rightBool, right)
	combined := e.temp()
	fmt.Fprintf(e.buf, "  %s = %s i1 %s, %s\n", combined, op, leftBool, rightBool)
	result := e.temp()
	fmt.Fprintf(e.buf, "  %s = uitofp i1 %s to double\n", result, combined)
	return result
}

func (e *Emitter) emitUnary(u *ast.UnaryOp) (string, error) {
	operand, err := e.emitExpr(u.Operand)
	if err != nil {
		return "", err
	}

	switch u.Operator {
	case "not":
		b := e.temp()
		fmt.Fprintf(e.buf, "  %s = fcmp oeq double %s, 0.0\n", b, operand)
		result := e.temp()
		fmt.Fprintf(e.buf, "  %s = uitofp i1 %s to double\n", result, b)
		return result, nil
	case "neg":
		result := e.temp()
		fmt.Fprintf(e.buf, "  %s = fsub double 0.0, %s\n", result, operand)
		return result, nil
	default:
		return "", &Error{Message: fmt.Sprintf("unknown unary operator %q", u.Operator), Pos: u.Token.Pos}
	}
}

var mathUnary = map[string]string{
	"abs":   "llvm.fabs.f64",
	"sqrt":  "llvm.sqrt.f64",
	"floor": "llvm.floor.f64",
	"ceil":  "llvm.ceil.f64",
	"sin":   "llvm.sin.f64",
	"cos":   "llvm.cos.f64",
}

var mathBinary = map[string]string{
	"min": "llvm.minnum.f64",
	"max": "llvm.maxnum.f64",
	"pow": "llvm.pow.f64",
}

// emitCall lowers both user calls (`call NAME ARG*`) and module calls
// (`MODULE NAME ARG*`). The result register is reserved before any
// argument is evaluated, mirroring the bootstrap's allocation order; since
// registers here are named rather than positional this has no effect on
// validity, only on which number a given temp carries.
func (e *Emitter) emitCall(c *ast.Call) (string, error) {
	result := e.temp()

	if c.Module == "" {
		fmt.Fprintf(e.buf, "  ; call %s\n", c.Name)
		argRegs := make([]string, len(c.Args))
		for i, a := range c.Args {
			reg, err := e.emitExpr(a)
			if err != nil {
				return "", err
			}
			argRegs[i] = reg
		}
		fmt.Fprintf(e.buf, "  %s = call double @%s(", result, c.Name)
		for i, reg := range argRegs {
			if i > 0 {
				fmt.Fprint(e.buf, ", ")
			}
			fmt.Fprintf(e.buf, "double %s", reg)
		}
		fmt.Fprintln(e.buf, ")")
		return result, nil
	}

	fmt.Fprintf(e.buf, "  ; call %s.%s\n", c.Module, c.Name)

	if c.Module == "math" && len(c.Args) > 0 {
		arg0, err := e.emitExpr(c.Args[0])
		if err != nil {
			return "", err
		}
		if intrinsic, ok := mathUnary[c.Name]; ok {
			fmt.Fprintf(e.buf, "  %s = call double @%s(double %s)\n", result, intrinsic, arg0)
			return result, nil
		}
		if len(c.Args) > 1 {
			arg1, err := e.emitExpr(c.Args[1])
			if err != nil {
				return "", err
			}
			if intrinsic, ok := mathBinary[c.Name]; ok {
				fmt.Fprintf(e.buf, "  %s = call double @%s(double %s, double %s)\n", result, intrinsic, arg0, arg1)
				return result, nil
			}
		}
	}

	// Every other module/function combination lowers to the constant 0.0.
	fmt.Fprintf(e.buf, "  %s = fadd double 0.0, 0.0\n", result)
	return result, nil
}
