// Package parser builds a syntax tree from a token stream using
// recursive descent with precedence climbing for expressions.
package parser

import (
	"fmt"
	"strconv"

	"github.com/verbalang/verbac/internal/ast"
	"github.com/verbalang/verbac/internal/lexer"
	"github.com/verbalang/verbac/internal/token"
)

// Error is a single parse failure, tagged with the source position where
// it was detected.
type Error struct {
	Message string
	Pos     token.Position
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

// Parser consumes a full token stream and produces an *ast.Program.
// Parsing stops at the first failure: the failing construct returns nil
// up the call chain and Parse returns at once, so at most one error is
// ever recorded.
type Parser struct {
	tokens []token.Token
	pos    int
	errors []*Error
}

// New tokenizes l to completion and returns a Parser positioned at the
// first token.
func New(l *lexer.Lexer) *Parser {
	var toks []token.Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return &Parser{tokens: toks}
}

// NewFromTokens builds a Parser directly over an already-scanned token
// slice, useful for tests that want to hand-construct input.
func NewFromTokens(toks []token.Token) *Parser {
	return &Parser{tokens: toks}
}

// Errors returns every parse error accumulated so far.
func (p *Parser) Errors() []*Error { return p.errors }

func (p *Parser) current() token.Token {
	if p.pos >= len(p.tokens) {
		return token.Token{Kind: token.EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) check(k token.Kind) bool { return p.current().Kind == k }

func (p *Parser) atEnd() bool { return p.check(token.EOF) }

func (p *Parser) atEndOfLine() bool { return p.check(token.NEWLINE) || p.check(token.EOF) }

func (p *Parser) advance() token.Token {
	tok := p.current()
	if tok.Kind != token.EOF {
		p.pos++
	}
	return tok
}

func (p *Parser) match(k token.Kind) bool {
	if p.check(k) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(k token.Kind, msg string) (token.Token, bool) {
	if p.check(k) {
		return p.advance(), true
	}
	p.errorf(msg+" (got %s)", p.current().Kind)
	return token.Token{}, false
}

func (p *Parser) errorf(format string, args ...interface{}) {
	p.errors = append(p.errors, &Error{
		Message: fmt.Sprintf(format, args...),
		Pos:     p.current().Pos,
	})
}

func (p *Parser) skipNewlines() {
	for p.match(token.NEWLINE) {
	}
}

// isTypeToken reports whether the current token names a primitive type,
// accepted syntactically in struct field lists and union arms.
func (p *Parser) isTypeToken() bool {
	switch p.current().Kind {
	case token.NUM, token.INT, token.STR, token.BOOL, token.VOID, token.LIST:
		return true
	default:
		return false
	}
}

// isModuleToken reports whether the current token opens a module call.
// TOK_ERR is included here exactly as in the grammar this was resolved
// from: `err` doubles as a module-call qualifier position, disambiguated
// positionally from its use as a return-variant tag.
func (p *Parser) isModuleToken() bool {
	switch p.current().Kind {
	case token.MATH, token.STR, token.LIST, token.TIME, token.HTTP, token.JSON, token.ERR:
		return true
	default:
		return false
	}
}

// isEndOfExpr reports whether the current token ends a greedily-absorbing
// call-argument list: end of line, any binary operator, or any
// statement-level keyword. This boundary set is deliberately reproduced
// verbatim so `call f a plus b` parses as `(call f a) plus b`.
func (p *Parser) isEndOfExpr() bool {
	if p.atEndOfLine() {
		return true
	}
	switch p.current().Kind {
	case token.PLUS, token.MINUS, token.TIMES, token.OVER, token.MOD,
		token.EQ, token.NEQ, token.LT, token.GT, token.LTE, token.GTE,
		token.AND, token.OR,
		token.RET, token.LET, token.IF, token.ELSE, token.CALL, token.OUT,
		token.DONE, token.REPEAT, token.AS, token.WHILE:
		return true
	default:
		return false
	}
}

// Parse consumes the whole token stream and returns the resulting
// Program. Partial results may be returned alongside errors.
func (p *Parser) Parse() (*ast.Program, []*Error) {
	program := &ast.Program{}
	p.skipNewlines()

	for !p.atEnd() {
		switch {
		case p.check(token.TYPE):
			if td := p.parseTypeDefinition(); td != nil {
				program.Types = append(program.Types, td)
			} else {
				return program, p.errors
			}
		case p.check(token.FN):
			if fn := p.parseFunctionDefinition(); fn != nil {
				program.Functions = append(program.Functions, fn)
			} else {
				return program, p.errors
			}
		case p.match(token.NEWLINE):
			continue
		default:
			p.errorf("unexpected token at top level: %s", p.current().Kind)
			return program, p.errors
		}
		p.skipNewlines()
	}

	return program, p.errors
}

func (p *Parser) parseTypeDefinition() *ast.TypeDefinition {
	tok, ok := p.expect(token.TYPE, "expected 'type'")
	if !ok {
		return nil
	}
	nameTok, ok := p.expect(token.IDENT, "expected type name")
	if !ok {
		return nil
	}

	td := &ast.TypeDefinition{Token: tok, Name: nameTok.Lexeme}

	if p.match(token.OK) {
		td.IsUnion = true
		if p.isTypeToken() {
			td.OkType = p.advance().Lexeme
		}
		if _, ok := p.expect(token.OR, "expected 'or' in union type"); !ok {
			return nil
		}
		if _, ok := p.expect(token.ERR, "expected 'err' in union type"); !ok {
			return nil
		}
		if p.isTypeToken() {
			td.ErrType = p.advance().Lexeme
		}
	} else {
		for !p.atEndOfLine() {
			if p.isTypeToken() || p.check(token.IDENT) {
				td.Fields = append(td.Fields, p.advance().Lexeme)
			} else {
				break
			}
		}
	}

	p.match(token.NEWLINE)
	return td
}

func (p *Parser) parseFunctionDefinition() *ast.FunctionDefinition {
	tok, ok := p.expect(token.FN, "expected 'fn'")
	if !ok {
		return nil
	}
	nameTok, ok := p.expect(token.IDENT, "expected function name")
	if !ok {
		return nil
	}

	fn := &ast.FunctionDefinition{Token: tok, Name: nameTok.Lexeme}

	for !p.atEndOfLine() && p.check(token.IDENT) {
		fn.Params = append(fn.Params, p.advance().Lexeme)
	}

	p.match(token.NEWLINE)
	p.skipNewlines()

	for !p.atEnd() && !p.check(token.FN) && !p.check(token.TYPE) {
		if p.match(token.NEWLINE) {
			continue
		}
		stmt := p.parseStatement()
		if stmt == nil {
			return nil
		}
		fn.Body = append(fn.Body, stmt)
		p.skipNewlines()
	}

	return fn
}

// parseBlock parses statements until one of the given terminators is
// reached (without consuming the terminator), skipping blank lines. The
// second return value is false only on a genuine parse failure; an empty
// block is reported as (nil, true).
func (p *Parser) parseBlock(terminators ...token.Kind) ([]ast.Statement, bool) {
	var stmts []ast.Statement
	for !p.atEnd() && !p.atAnyOf(terminators...) {
		if p.match(token.NEWLINE) {
			continue
		}
		stmt := p.parseStatement()
		if stmt == nil {
			return nil, false
		}
		stmts = append(stmts, stmt)
		p.skipNewlines()
	}
	return stmts, true
}

func (p *Parser) atAnyOf(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			return true
		}
	}
	return false
}

// parseStatement parses a full statement, including block forms (if,
// repeat, while) that consume their own trailing `done`.
func (p *Parser) parseStatement() ast.Statement {
	tok := p.current()

	switch tok.Kind {
	case token.RET:
		p.advance()
		return p.finishReturn(tok, true)
	case token.OUT:
		p.advance()
		return p.finishOut(tok, true)
	case token.INC, token.DEC:
		p.advance()
		return p.finishIncDec(tok)
	case token.IF:
		p.advance()
		return p.finishIf(tok)
	case token.LET:
		p.advance()
		return p.finishLet(tok, true)
	case token.REPEAT:
		p.advance()
		return p.finishRepeat(tok)
	case token.WHILE:
		p.advance()
		return p.finishWhile(tok)
	}

	expr := p.parseExpr()
	if expr == nil {
		return nil
	}
	stmt := &ast.ExprStmt{Token: tok, Value: expr}
	p.match(token.NEWLINE)
	return stmt
}

// parseInlineStmt parses the single statement following an inline `if
// COND STMT` (no `done` consumption, no block forms).
func (p *Parser) parseInlineStmt() ast.Statement {
	tok := p.current()

	switch tok.Kind {
	case token.RET:
		p.advance()
		return p.finishReturn(tok, false)
	case token.OUT:
		p.advance()
		return p.finishOut(tok, false)
	case token.LET:
		p.advance()
		return p.finishLet(tok, false)
	}

	expr := p.parseExpr()
	if expr == nil {
		return nil
	}
	return &ast.ExprStmt{Token: tok, Value: expr}
}

func (p *Parser) finishReturn(tok token.Token, consumeNewline bool) ast.Statement {
	variant := ast.ReturnPlain
	if p.match(token.OK) {
		variant = ast.ReturnOk
	} else if p.match(token.ERR) {
		variant = ast.ReturnErr
	}

	value := p.parseExpr()
	if value == nil {
		return nil
	}
	if consumeNewline {
		p.match(token.NEWLINE)
	}
	return &ast.Return{Token: tok, Variant: variant, Value: value}
}

func (p *Parser) finishOut(tok token.Token, consumeNewline bool) ast.Statement {
	value := p.parseExpr()
	if value == nil {
		return nil
	}
	if consumeNewline {
		p.match(token.NEWLINE)
	}
	return &ast.Out{Token: tok, Value: value}
}

func (p *Parser) finishLet(tok token.Token, consumeNewline bool) ast.Statement {
	nameTok, ok := p.expect(token.IDENT, "expected variable name")
	if !ok {
		return nil
	}
	value := p.parseExpr()
	if value == nil {
		return nil
	}
	if consumeNewline {
		p.match(token.NEWLINE)
	}
	return &ast.Let{Token: tok, Name: nameTok.Lexeme, Value: value}
}

func (p *Parser) finishIncDec(tok token.Token) ast.Statement {
	negate := tok.Kind == token.DEC
	verb := "inc"
	if negate {
		verb = "dec"
	}
	nameTok, ok := p.expect(token.IDENT, "expected variable name after '"+verb+"'")
	if !ok {
		return nil
	}

	var amount ast.Expression
	if !p.atEndOfLine() {
		amount = p.parseExpr()
		if amount == nil {
			return nil
		}
	}
	p.match(token.NEWLINE)
	return &ast.IncDec{Token: tok, Negate: negate, Name: nameTok.Lexeme, Amount: amount}
}

func (p *Parser) finishIf(tok token.Token) ast.Statement {
	// The condition is parsed at comparison precedence, not full expression
	// precedence, matching the grammar's if/while condition parser.
	condition := p.parseComparison()
	if condition == nil {
		return nil
	}

	node := &ast.If{Token: tok, Condition: condition}

	if p.check(token.NEWLINE) {
		p.match(token.NEWLINE)
		p.skipNewlines()

		then, ok := p.parseBlock(token.ELSE, token.DONE)
		if !ok {
			return nil
		}
		node.Then = then

		if p.match(token.ELSE) {
			p.match(token.NEWLINE)
			p.skipNewlines()

			if p.check(token.IF) {
				p.advance()
				elseIf := p.finishIf(tok)
				if elseIf == nil {
					return nil
				}
				node.Else = []ast.Statement{elseIf}
			} else {
				elseBody, ok := p.parseBlock(token.DONE)
				if !ok {
					return nil
				}
				node.Else = elseBody
			}
		}

		if !p.check(token.IF) {
			if _, ok := p.expect(token.DONE, "expected 'done' to end if block"); !ok {
				return nil
			}
			p.match(token.NEWLINE)
		}
	} else {
		then := p.parseInlineStmt()
		if then == nil {
			return nil
		}
		node.Then = []ast.Statement{then}

		if p.match(token.ELSE) {
			if p.check(token.IF) {
				p.advance()
				elseIf := p.finishIf(tok)
				if elseIf == nil {
					return nil
				}
				node.Else = []ast.Statement{elseIf}
			} else {
				elseStmt := p.parseInlineStmt()
				if elseStmt == nil {
					return nil
				}
				node.Else = []ast.Statement{elseStmt}
				p.match(token.NEWLINE)
			}
		} else {
			p.match(token.NEWLINE)
		}
	}

	return node
}

func (p *Parser) finishRepeat(tok token.Token) ast.Statement {
	count := p.parsePrimary()
	if count == nil {
		return nil
	}
	if _, ok := p.expect(token.TIMES, "expected 'times' after repeat count"); !ok {
		return nil
	}

	node := &ast.Repeat{Token: tok, Count: count}

	if p.match(token.AS) {
		nameTok, ok := p.expect(token.IDENT, "expected variable name after 'as'")
		if !ok {
			return nil
		}
		node.LoopVar = nameTok.Lexeme
	}

	p.match(token.NEWLINE)
	p.skipNewlines()

	body, ok := p.parseBlock(token.DONE)
	if !ok {
		return nil
	}
	node.Body = body
	if _, ok := p.expect(token.DONE, "expected 'done' to end repeat block"); !ok {
		return nil
	}
	p.match(token.NEWLINE)
	return node
}

func (p *Parser) finishWhile(tok token.Token) ast.Statement {
	condition := p.parseComparison()
	if condition == nil {
		return nil
	}

	node := &ast.While{Token: tok, Condition: condition}

	p.match(token.NEWLINE)
	p.skipNewlines()

	body, ok := p.parseBlock(token.DONE)
	if !ok {
		return nil
	}
	node.Body = body
	if _, ok := p.expect(token.DONE, "expected 'done' to end while block"); !ok {
		return nil
	}
	p.match(token.NEWLINE)
	return node
}

// Expression grammar, tightest binding last: or < and < comparison <
// additive < multiplicative < unary < call/primary.

func (p *Parser) parseExpr() ast.Expression { return p.parseOr() }

func (p *Parser) parseOr() ast.Expression {
	left := p.parseAnd()
	if left == nil {
		return nil
	}
	for p.check(token.OR) && !p.atEndOfLine() {
		tok := p.advance()
		right := p.parseAnd()
		if right == nil {
			return nil
		}
		left = &ast.BinOp{Token: tok, Operator: "or", Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseAnd() ast.Expression {
	left := p.parseComparison()
	if left == nil {
		return nil
	}
	for p.match(token.AND) {
		tok := p.tokens[p.pos-1]
		right := p.parseComparison()
		if right == nil {
			return nil
		}
		left = &ast.BinOp{Token: tok, Operator: "and", Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseComparison() ast.Expression {
	left := p.parseAdditive()
	if left == nil {
		return nil
	}
	for p.atAnyOf(token.EQ, token.NEQ, token.LT, token.GT, token.LTE, token.GTE) {
		tok := p.advance()
		right := p.parseAdditive()
		if right == nil {
			return nil
		}
		left = &ast.BinOp{Token: tok, Operator: tok.Lexeme, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseAdditive() ast.Expression {
	left := p.parseMultiplicative()
	if left == nil {
		return nil
	}
	for p.atAnyOf(token.PLUS, token.MINUS) {
		tok := p.advance()
		right := p.parseMultiplicative()
		if right == nil {
			return nil
		}
		left = &ast.BinOp{Token: tok, Operator: tok.Lexeme, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseMultiplicative() ast.Expression {
	left := p.parseUnary()
	if left == nil {
		return nil
	}
	for p.atAnyOf(token.TIMES, token.OVER, token.MOD) {
		tok := p.advance()
		right := p.parseUnary()
		if right == nil {
			return nil
		}
		left = &ast.BinOp{Token: tok, Operator: tok.Lexeme, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseUnary() ast.Expression {
	if p.match(token.NOT) {
		tok := p.tokens[p.pos-1]
		operand := p.parseUnary()
		if operand == nil {
			return nil
		}
		return &ast.UnaryOp{Token: tok, Operator: "not", Operand: operand}
	}
	if p.match(token.NEG) {
		tok := p.tokens[p.pos-1]
		operand := p.parseUnary()
		if operand == nil {
			return nil
		}
		return &ast.UnaryOp{Token: tok, Operator: "neg", Operand: operand}
	}
	return p.parseCall()
}

// parseCall recognizes the two call shapes (`call NAME ARG*` and `MODULE
// NAME ARG*`), greedily absorbing unary-level arguments until isEndOfExpr.
func (p *Parser) parseCall() ast.Expression {
	if p.match(token.CALL) {
		tok := p.tokens[p.pos-1]
		nameTok, ok := p.expect(token.IDENT, "expected function name after 'call'")
		if !ok {
			return nil
		}
		call := &ast.Call{Token: tok, Name: nameTok.Lexeme}
		for !p.isEndOfExpr() {
			arg := p.parseUnary()
			if arg == nil {
				return nil
			}
			call.Args = append(call.Args, arg)
		}
		return call
	}

	if p.isModuleToken() {
		modTok := p.advance()
		nameTok, ok := p.expect(token.IDENT, "expected function name after module")
		if !ok {
			return nil
		}
		call := &ast.Call{Token: modTok, Module: modTok.Lexeme, Name: nameTok.Lexeme}
		for !p.isEndOfExpr() {
			arg := p.parseUnary()
			if arg == nil {
				return nil
			}
			call.Args = append(call.Args, arg)
		}
		return call
	}

	return p.parsePrimary()
}

func (p *Parser) parsePrimary() ast.Expression {
	tok := p.current()

	if p.check(token.NUMBER) {
		p.advance()
		v, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			p.errorf("invalid numeric literal %q", tok.Lexeme)
			return nil
		}
		return &ast.Num{Token: tok, Value: v}
	}

	if p.check(token.STRING) {
		p.advance()
		return &ast.Str{Token: tok, Value: tok.Lexeme}
	}

	if v, ok := token.NumberWordValue(tok.Kind); ok {
		p.advance()
		return &ast.Num{Token: tok, Value: v}
	}

	if idx, ok := token.PositionalIndex(tok.Kind); ok {
		p.advance()
		return &ast.Positional{Token: tok, Index: idx}
	}

	if p.check(token.IDENT) {
		switch tok.Lexeme {
		case "true":
			p.advance()
			return &ast.Bool{Token: tok, Value: true}
		case "false":
			p.advance()
			return &ast.Bool{Token: tok, Value: false}
		}
		p.advance()
		return &ast.Var{Token: tok, Name: tok.Lexeme}
	}

	p.errorf("unexpected token in expression: %s", tok.Kind)
	return nil
}
