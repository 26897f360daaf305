package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arbor-xml/pullxml/htmlseed"
)

var convertOutput string

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert [html_file]",
	Short: "Convert an HTML document into well-formed XML",
	Long:  `Parse an HTML file with a lenient HTML5 parser and re-render it as well-formed XML, suitable as input to "parse" or "stats".`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		f, err := os.Open(args[0])
		if err != nil {
			fmt.Printf("Error opening file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()

		converted, err := htmlseed.Convert(f)
		if err != nil {
			fmt.Printf("Error converting: %v\n", err)
			os.Exit(1)
		}

		if convertOutput == "" {
			fmt.Println(converted)
			return
		}
		if err := os.WriteFile(convertOutput, []byte(converted), 0644); err != nil {
			fmt.Printf("Error writing output file: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "Write the converted XML to a file instead of stdout")
}
