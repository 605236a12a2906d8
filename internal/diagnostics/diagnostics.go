// Package diagnostics formats compiler errors from any pipeline stage
// (lexer, parser, IR emitter) into a consistent file:line:column report
// with a source excerpt and a caret pointing at the offending column.
package diagnostics

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/verbalang/verbac/internal/token"
)

var (
	boldRed = color.New(color.FgRed, color.Bold)
	bold    = color.New(color.Bold)
)

// Diagnostic is a single positioned failure message.
type Diagnostic struct {
	File    string
	Source  string
	Pos     token.Position
	Message string
}

// New builds a Diagnostic for the given source and position.
func New(file, source string, pos token.Position, message string) *Diagnostic {
	return &Diagnostic{File: file, Source: source, Pos: pos, Message: message}
}

// Error implements the error interface with an uncolored rendering.
func (d *Diagnostic) Error() string {
	return d.format(false)
}

// Format renders the diagnostic, colorizing the header and caret when
// color is true. Color is otherwise left to fatih/color's own TTY
// detection when callers use Fprint on the package-level colorizers.
func (d *Diagnostic) Format(colorize bool) string {
	return d.format(colorize)
}

func (d *Diagnostic) format(colorize bool) string {
	var sb strings.Builder

	header := fmt.Sprintf("%s:%d:%d: %s", d.File, d.Pos.Line, d.Pos.Column, d.Message)
	if colorize {
		sb.WriteString(boldRed.Sprint(header))
	} else {
		sb.WriteString(header)
	}

	line := sourceLine(d.Source, d.Pos.Line)
	if line == "" {
		return sb.String()
	}
	sb.WriteByte('\n')

	gutter := fmt.Sprintf("%4d | ", d.Pos.Line)
	sb.WriteString(gutter)
	sb.WriteString(line)
	sb.WriteByte('\n')

	sb.WriteString(strings.Repeat(" ", len(gutter)+d.Pos.Column-1))
	caret := "^"
	if colorize {
		caret = boldRed.Sprint(caret)
	}
	sb.WriteString(caret)
	return sb.String()
}

func sourceLine(source string, n int) string {
	if source == "" || n < 1 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if n > len(lines) {
		return ""
	}
	return lines[n-1]
}

// Report prints every diagnostic in order to the given writer, one per
// message, colorized unless color.NoColor has been set (fatih/color's own
// non-TTY detection already handles that for the package colorizers).
func Report(w interface{ Write([]byte) (int, error) }, diags []*Diagnostic) {
	for _, d := range diags {
		fmt.Fprintln(w, d.Format(!color.NoColor))
	}
}

// FromErrors adapts any slice of positioned errors (lexer.Error,
// parser.Error) into Diagnostics, given the source file name and text.
// fn extracts the position and message from each element.
func FromErrors[T any](file, source string, errs []T, fn func(T) (token.Position, string)) []*Diagnostic {
	out := make([]*Diagnostic, 0, len(errs))
	for _, e := range errs {
		pos, msg := fn(e)
		out = append(out, New(file, source, pos, msg))
	}
	return out
}
