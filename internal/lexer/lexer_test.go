package lexer

import (
	"testing"

	"github.com/verbalang/verbac/internal/token"
)

func TestNextToken(t *testing.T) {
	input := `fn add a num b num
	ret a plus b
done
`

	tests := []struct {
		expectedKind   token.Kind
		expectedLexeme string
	}{
		{token.FN, "fn"},
		{token.IDENT, "add"},
		{token.IDENT, "a"},
		{token.NUM, "num"},
		{token.IDENT, "b"},
		{token.NUM, "num"},
		{token.NEWLINE, "\n"},
		{token.RET, "ret"},
		{token.IDENT, "a"},
		{token.PLUS, "plus"},
		{token.IDENT, "b"},
		{token.NEWLINE, "\n"},
		{token.DONE, "done"},
		{token.NEWLINE, "\n"},
		{token.EOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Kind != tt.expectedKind {
			t.Fatalf("tests[%d] - kind wrong. expected=%s, got=%s (lexeme=%q)",
				i, tt.expectedKind, tok.Kind, tok.Lexeme)
		}
		if tok.Lexeme != tt.expectedLexeme {
			t.Fatalf("tests[%d] - lexeme wrong. expected=%q, got=%q", i, tt.expectedLexeme, tok.Lexeme)
		}
	}
}

func TestNumberWords(t *testing.T) {
	input := "zero one two three four five six seven eight nine ten"
	l := New(input)
	want := []token.Kind{
		token.ZERO, token.ONE, token.TWO, token.THREE, token.FOUR,
		token.FIVE, token.SIX, token.SEVEN, token.EIGHT, token.NINE, token.TEN,
	}
	for i, k := range want {
		tok := l.NextToken()
		if tok.Kind != k {
			t.Fatalf("word[%d]: expected %s, got %s", i, k, tok.Kind)
		}
	}
}

func TestPositionalReferences(t *testing.T) {
	input := "first second third fourth"
	l := New(input)
	want := []token.Kind{token.FIRST, token.SECOND, token.THIRD, token.FOURTH}
	for i, k := range want {
		tok := l.NextToken()
		if tok.Kind != k {
			t.Fatalf("positional[%d]: expected %s, got %s", i, k, tok.Kind)
		}
	}
}

func TestComments(t *testing.T) {
	input := "let x 5 -- trailing comment\n# full line comment\nlet y 1\n"
	toks, errs := Tokenize(input)
	if len(errs) != 0 {
		t.Fatalf("unexpected lexer errors: %v", errs)
	}
	var kinds []token.Kind
	for _, tk := range toks {
		kinds = append(kinds, tk.Kind)
	}
	want := []token.Kind{
		token.LET, token.IDENT, token.NUMBER, token.NEWLINE,
		token.NEWLINE,
		token.LET, token.IDENT, token.NUMBER, token.NEWLINE,
		token.EOF,
	}
	if len(kinds) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %v", len(want), len(kinds), kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("token[%d]: expected %s, got %s", i, want[i], kinds[i])
		}
	}
}

func TestStringLiteral(t *testing.T) {
	l := New(`out "hello \"world\""`)
	tok := l.NextToken()
	if tok.Kind != token.OUT {
		t.Fatalf("expected OUT, got %s", tok.Kind)
	}
	tok = l.NextToken()
	if tok.Kind != token.STRING {
		t.Fatalf("expected STRING, got %s", tok.Kind)
	}
	if tok.Lexeme != `hello \"world\"` {
		t.Fatalf("unexpected string lexeme: %q", tok.Lexeme)
	}
}

func TestUnterminatedString(t *testing.T) {
	l := New(`let x "oops`)
	for {
		tok := l.NextToken()
		if tok.Kind == token.EOF {
			break
		}
	}
	if len(l.Errors()) == 0 {
		t.Fatalf("expected an unterminated string error")
	}
}

func TestNumberLiteral(t *testing.T) {
	tests := []string{"5", "5.5", "0.25", "100"}
	for _, in := range tests {
		l := New(in)
		tok := l.NextToken()
		if tok.Kind != token.NUMBER || tok.Lexeme != in {
			t.Fatalf("number %q: got kind=%s lexeme=%q", in, tok.Kind, tok.Lexeme)
		}
	}
}

func TestModuleNames(t *testing.T) {
	input := "math list time http json"
	l := New(input)
	want := []token.Kind{token.MATH, token.LIST, token.TIME, token.HTTP, token.JSON}
	for i, k := range want {
		tok := l.NextToken()
		if tok.Kind != k {
			t.Fatalf("module[%d]: expected %s, got %s", i, k, tok.Kind)
		}
		if !token.IsModule(tok.Kind) {
			t.Fatalf("module[%d]: %s should report IsModule", i, k)
		}
	}
}
