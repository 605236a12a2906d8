package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/verbalang/verbac/internal/config"
	"github.com/verbalang/verbac/internal/toolchain"
)

var runCmd = &cobra.Command{
	Use:   "run FILE",
	Short: "Compile, synthesize a test harness, link, and execute",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(_ *cobra.Command, args []string) error {
	filename := args[0]
	text, prog, err := compileFile(filename)
	if err != nil {
		return err
	}

	cfg, err := config.Load(".")
	if err != nil {
		return fmt.Errorf("failed to load .verbac.yaml: %w", err)
	}

	logVerbose("compiling and running %s with %s", filename, cfg.Toolchain)
	tc := toolchain.New(cfg.Toolchain, cfg.ToolchainFlags)

	var stdout, stderr bytes.Buffer
	runErr := tc.Run(text, prog, &stdout, &stderr)
	os.Stdout.Write(stdout.Bytes())
	os.Stderr.Write(stderr.Bytes())

	// The compiled program's own exit status is propagated as-is, rather
	// than being folded into the generic exit(1) every other command
	// failure produces.
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		os.Exit(exitErr.ExitCode())
	}
	if runErr != nil {
		return fmt.Errorf("run failed: %w", runErr)
	}
	return nil
}
