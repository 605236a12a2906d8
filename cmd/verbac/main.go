// Command verbac is the driver for the verbac bootstrap compiler: lex,
// parse, emit IR, and optionally hand the result to a native compiler.
package main

import (
	"fmt"
	"os"

	"github.com/verbalang/verbac/cmd/verbac/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
