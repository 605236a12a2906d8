package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verbalang/verbac/internal/lexer"
	"github.com/verbalang/verbac/internal/token"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens FILE",
	Short: "Print the token stream for a source file",
	Args:  cobra.ExactArgs(1),
	RunE:  runTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)
}

func runTokens(_ *cobra.Command, args []string) error {
	source, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	logVerbose("tokenizing %s", args[0])
	toks, errs := lexer.Tokenize(string(source))
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, e.Error())
		}
		return fmt.Errorf("%d lexical error(s) in %s", len(errs), args[0])
	}

	var parts []string
	for _, t := range toks {
		if t.Kind == token.NEWLINE {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s(%s)", t.Kind, t.Lexeme))
	}

	fmt.Println("=== Tokens ===")
	fmt.Println(strings.Join(parts, " "))
	return nil
}
