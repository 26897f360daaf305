package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pullxml",
	Short: "A pull-based streaming XML 1.0/1.1 parser",
	Long: `pullxml drives a streaming, pull-based XML event parser over a
file, reporting StartElement/EndElement/Characters/... events one at a
time without ever buffering a whole document tree.`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {}
