package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "0.1.0-dev"

var verbose bool
var showVersion bool

var rootCmd = &cobra.Command{
	Use:   "verbac",
	Short: "A compiler for the all-English bootstrap language",
	Long: `verbac compiles programs whose entire surface syntax is plain
English keywords ("fn", "ret", "repeat ... times", "plus", "math sqrt", ...)
to textual LLVM IR, and can hand that IR to a native compiler to build and
run an executable directly.`,
	Version: Version,
	RunE: func(c *cobra.Command, args []string) error {
		return c.Help()
	},
	PersistentPreRunE: func(c *cobra.Command, args []string) error {
		if showVersion {
			fmt.Println(c.Root().Version)
			os.Exit(0)
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s\n" .Version}}`)
	if f := rootCmd.Flags().Lookup("version"); f != nil {
		f.Shorthand = "v"
	}
	rootCmd.PersistentFlags().BoolVarP(&showVersion, "cap-version", "V", false, "print version and exit")
	rootCmd.PersistentFlags().Lookup("cap-version").Hidden = true
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "print pipeline progress to stderr")
}

func logVerbose(format string, args ...any) {
	if verbose {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
