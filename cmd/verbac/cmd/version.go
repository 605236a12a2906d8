package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the verbac version",
	Run: func(c *cobra.Command, args []string) {
		fmt.Println(c.Root().Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
