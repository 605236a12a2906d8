// Package ast defines the syntax tree produced by the parser: one
// discriminated Go type per construct named in the language grammar.
package ast

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/verbalang/verbac/internal/token"
)

// Node is the root interface every tree element satisfies.
type Node interface {
	TokenLiteral() string
	String() string
}

// Statement is any node that can appear in a function or block body.
type Statement interface {
	Node
	statementNode()
}

// Expression is any node that yields a value when lowered.
type Expression interface {
	Node
	expressionNode()
}

// Program is the root of a parsed source file: its type definitions and
// function definitions in document order.
type Program struct {
	Types     []*TypeDefinition
	Functions []*FunctionDefinition
}

func (p *Program) TokenLiteral() string {
	if len(p.Functions) > 0 {
		return p.Functions[0].TokenLiteral()
	}
	if len(p.Types) > 0 {
		return p.Types[0].TokenLiteral()
	}
	return ""
}

func (p *Program) String() string {
	var buf bytes.Buffer
	for _, t := range p.Types {
		buf.WriteString(t.String())
		buf.WriteByte('\n')
	}
	for _, fn := range p.Functions {
		buf.WriteString(fn.String())
		buf.WriteByte('\n')
	}
	return buf.String()
}

// FunctionDefinition is `fn NAME PARAM* NEWLINE STMT*`.
type FunctionDefinition struct {
	Token  token.Token // the `fn` token
	Name   string
	Params []string
	Body   []Statement
}

func (f *FunctionDefinition) TokenLiteral() string { return f.Token.Lexeme }
func (f *FunctionDefinition) String() string {
	var buf bytes.Buffer
	buf.WriteString("fn ")
	buf.WriteString(f.Name)
	for _, p := range f.Params {
		buf.WriteByte(' ')
		buf.WriteString(p)
	}
	buf.WriteByte('\n')
	for _, s := range f.Body {
		buf.WriteString("  ")
		buf.WriteString(s.String())
		buf.WriteByte('\n')
	}
	return buf.String()
}

// TypeDefinition is `type NAME ...`, either a union (ok/err) form or a
// struct-shaped field list. Fields are accepted syntactically only.
type TypeDefinition struct {
	Token token.Token // the `type` token
	Name  string

	IsUnion bool
	OkType  string // valid when IsUnion
	ErrType string // valid when IsUnion

	Fields []string // valid when !IsUnion; raw field/type tokens in order
}

func (t *TypeDefinition) TokenLiteral() string { return t.Token.Lexeme }
func (t *TypeDefinition) String() string {
	if t.IsUnion {
		return fmt.Sprintf("type %s ok %s or err %s", t.Name, t.OkType, t.ErrType)
	}
	return fmt.Sprintf("type %s %s", t.Name, strings.Join(t.Fields, " "))
}

// ReturnVariant tags the union arm a Return statement belongs to.
type ReturnVariant int

const (
	ReturnPlain ReturnVariant = iota
	ReturnOk
	ReturnErr
)

func (v ReturnVariant) String() string {
	switch v {
	case ReturnOk:
		return "ok"
	case ReturnErr:
		return "err"
	default:
		return ""
	}
}

// Return is `ret [ok|err] EXPR`.
type Return struct {
	Token   token.Token
	Variant ReturnVariant
	Value   Expression
}

func (r *Return) statementNode()       {}
func (r *Return) TokenLiteral() string { return r.Token.Lexeme }
func (r *Return) String() string {
	if r.Variant == ReturnPlain {
		return "ret " + r.Value.String()
	}
	return "ret " + r.Variant.String() + " " + r.Value.String()
}

// If is both the single-line and block forms of `if`; in single-line form
// Then/Else hold exactly one statement each.
type If struct {
	Token     token.Token
	Condition Expression
	Then      []Statement
	Else      []Statement // nil when no else arm
}

func (i *If) statementNode()       {}
func (i *If) TokenLiteral() string { return i.Token.Lexeme }
func (i *If) String() string {
	var buf bytes.Buffer
	buf.WriteString("if ")
	buf.WriteString(i.Condition.String())
	for _, s := range i.Then {
		buf.WriteString(" ")
		buf.WriteString(s.String())
	}
	if i.Else != nil {
		buf.WriteString(" else")
		for _, s := range i.Else {
			buf.WriteString(" ")
			buf.WriteString(s.String())
		}
	}
	return buf.String()
}

// Let is `let NAME EXPR`; rebinding an existing name is permitted and
// reuses the same storage slot at emission time.
type Let struct {
	Token token.Token
	Name  string
	Value Expression
}

func (l *Let) statementNode()       {}
func (l *Let) TokenLiteral() string { return l.Token.Lexeme }
func (l *Let) String() string       { return "let " + l.Name + " " + l.Value.String() }

// ExprStmt is an expression evaluated for effect and discarded.
type ExprStmt struct {
	Token token.Token
	Value Expression
}

func (e *ExprStmt) statementNode()       {}
func (e *ExprStmt) TokenLiteral() string { return e.Token.Lexeme }
func (e *ExprStmt) String() string       { return e.Value.String() }

// Out is `out EXPR`.
type Out struct {
	Token token.Token
	Value Expression
}

func (o *Out) statementNode()       {}
func (o *Out) TokenLiteral() string { return o.Token.Lexeme }
func (o *Out) String() string       { return "out " + o.Value.String() }

// Repeat is `repeat EXPR times [as NAME] NEWLINE STMT* done`.
type Repeat struct {
	Token    token.Token
	Count    Expression
	LoopVar  string // "" when no `as NAME` clause
	Body     []Statement
}

func (r *Repeat) statementNode()       {}
func (r *Repeat) TokenLiteral() string { return r.Token.Lexeme }
func (r *Repeat) String() string {
	var buf bytes.Buffer
	buf.WriteString("repeat ")
	buf.WriteString(r.Count.String())
	buf.WriteString(" times")
	if r.LoopVar != "" {
		buf.WriteString(" as " + r.LoopVar)
	}
	for _, s := range r.Body {
		buf.WriteString(" ")
		buf.WriteString(s.String())
	}
	return buf.String()
}

// While is `while COND NEWLINE STMT* done`.
type While struct {
	Token     token.Token
	Condition Expression
	Body      []Statement
}

func (w *While) statementNode()       {}
func (w *While) TokenLiteral() string { return w.Token.Lexeme }
func (w *While) String() string {
	var buf bytes.Buffer
	buf.WriteString("while ")
	buf.WriteString(w.Condition.String())
	for _, s := range w.Body {
		buf.WriteString(" ")
		buf.WriteString(s.String())
	}
	return buf.String()
}

// IncDec is `inc NAME [EXPR]` / `dec NAME [EXPR]`; Amount is nil when the
// default increment of 1 applies.
type IncDec struct {
	Token   token.Token
	Negate  bool // true for dec
	Name    string
	Amount  Expression
}

func (i *IncDec) statementNode()       {}
func (i *IncDec) TokenLiteral() string { return i.Token.Lexeme }
func (i *IncDec) String() string {
	verb := "inc"
	if i.Negate {
		verb = "dec"
	}
	if i.Amount == nil {
		return verb + " " + i.Name
	}
	return verb + " " + i.Name + " " + i.Amount.String()
}

// BinOp is a left-associative binary expression tagged with its operator's
// source lexeme (e.g. "plus", "eq", "and").
type BinOp struct {
	Token    token.Token
	Operator string
	Left     Expression
	Right    Expression
}

func (b *BinOp) expressionNode()      {}
func (b *BinOp) TokenLiteral() string { return b.Token.Lexeme }
func (b *BinOp) String() string {
	return "(" + b.Left.String() + " " + b.Operator + " " + b.Right.String() + ")"
}

// UnaryOp is `not EXPR` or `neg EXPR`.
type UnaryOp struct {
	Token    token.Token
	Operator string // "not" or "neg"
	Operand  Expression
}

func (u *UnaryOp) expressionNode()      {}
func (u *UnaryOp) TokenLiteral() string { return u.Token.Lexeme }
func (u *UnaryOp) String() string       { return "(" + u.Operator + " " + u.Operand.String() + ")" }

// Call is `call NAME ARG*` (Module == "") or `MODULE NAME ARG*`.
type Call struct {
	Token    token.Token
	Module   string // "" for a user-defined call
	Name     string
	Args     []Expression
}

func (c *Call) expressionNode()      {}
func (c *Call) TokenLiteral() string { return c.Token.Lexeme }
func (c *Call) String() string {
	var buf bytes.Buffer
	if c.Module != "" {
		buf.WriteString(c.Module)
		buf.WriteByte(' ')
	} else {
		buf.WriteString("call ")
	}
	buf.WriteString(c.Name)
	for _, a := range c.Args {
		buf.WriteByte(' ')
		buf.WriteString(a.String())
	}
	return buf.String()
}

// Num is a numeric literal or a number word lowered to its constant value.
type Num struct {
	Token token.Token
	Value float64
}

func (n *Num) expressionNode()      {}
func (n *Num) TokenLiteral() string { return n.Token.Lexeme }
func (n *Num) String() string       { return n.Token.Lexeme }

// Str is a string literal's raw (unescaped-at-parse-time) text.
type Str struct {
	Token token.Token
	Value string
}

func (s *Str) expressionNode()      {}
func (s *Str) TokenLiteral() string { return s.Token.Lexeme }
func (s *Str) String() string       { return `"` + s.Value + `"` }

// Bool is the `true`/`false` identifier recognised by text.
type Bool struct {
	Token token.Token
	Value bool
}

func (b *Bool) expressionNode()      {}
func (b *Bool) TokenLiteral() string { return b.Token.Lexeme }
func (b *Bool) String() string       { return b.Token.Lexeme }

// Var is a reference to a parameter or a Let-bound local by name.
type Var struct {
	Token token.Token
	Name  string
}

func (v *Var) expressionNode()      {}
func (v *Var) TokenLiteral() string { return v.Token.Lexeme }
func (v *Var) String() string       { return v.Name }

// Positional is a `first`..`fourth` reference, pre-resolved to a zero-based
// parameter index by the parser.
type Positional struct {
	Token token.Token
	Index int
}

func (p *Positional) expressionNode()      {}
func (p *Positional) TokenLiteral() string { return p.Token.Lexeme }
func (p *Positional) String() string       { return p.Token.Lexeme }
