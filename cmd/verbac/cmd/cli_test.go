package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.vb")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func TestCompileFileScenarioAdd(t *testing.T) {
	path := writeScript(t, "fn add a b\nret a plus b\n")
	text, prog, err := compileFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(prog.Functions) != 1 || prog.Functions[0].Name != "add" {
		t.Fatalf("unexpected program: %#v", prog)
	}
	snaps.MatchSnapshot(t, text)
}

func TestCompileFileDefaultOutputPath(t *testing.T) {
	if got := defaultOutputPath("program.vb"); got != "program.ll" {
		t.Fatalf("expected program.ll, got %q", got)
	}
	if got := defaultOutputPath("program"); got != "program.ll" {
		t.Fatalf("expected program.ll for extensionless input, got %q", got)
	}
}

func TestCompileFileReportsParseErrors(t *testing.T) {
	path := writeScript(t, "fn broken\nret plus\n")
	_, _, err := compileFile(path)
	if err == nil {
		t.Fatal("expected a parse error")
	}
	if !strings.Contains(err.Error(), "parse error") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCompileFileReportsLexicalErrors(t *testing.T) {
	path := writeScript(t, "fn broken\nret \"unterminated\nret zero\n")
	_, _, err := compileFile(path)
	if err == nil {
		t.Fatal("expected a lexical error for the unterminated string")
	}
	if !strings.Contains(err.Error(), "lexical error") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunParseReportsLexicalErrors(t *testing.T) {
	path := writeScript(t, "fn broken\nret \"unterminated\nret zero\n")
	err := runParse(nil, []string{path})
	if err == nil {
		t.Fatal("expected a lexical error for the unterminated string")
	}
	if !strings.Contains(err.Error(), "lexical error") {
		t.Fatalf("unexpected error: %v", err)
	}
}
