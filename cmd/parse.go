package cmd

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/arbor-xml/pullxml/xmlevent"
	"github.com/arbor-xml/pullxml/xmllex"
	"github.com/arbor-xml/pullxml/xmlsource"
)

var (
	configPath  string
	showRunID   bool
)

// parseCmd represents the parse command
var parseCmd = &cobra.Command{
	Use:   "parse [xml_file]",
	Short: "Pull and print every event from an XML file",
	Long:  `Parse an XML file and print each event the streaming parser pulls, in order, until EndDocument or Error.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		f, err := os.Open(args[0])
		if err != nil {
			fmt.Printf("Error opening file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()

		config := xmlevent.DefaultConfig()
		if configPath != "" {
			config, err = xmlevent.LoadConfig(configPath)
			if err != nil {
				fmt.Printf("Error loading config: %v\n", err)
				os.Exit(1)
			}
		}

		src, err := xmlsource.Open(f)
		if err != nil {
			fmt.Printf("Error opening source: %v\n", err)
			os.Exit(1)
		}

		runID := uuid.NewString()
		lexer := xmllex.New(src)
		parser := xmlevent.NewParser(lexer, config)

		count := 0
		for {
			ev := parser.Next()
			count++
			if ev.Kind == xmlevent.Error {
				ev.RunID = runID
			}
			fmt.Println(ev.String())
			if ev.Kind == xmlevent.Error {
				if showRunID {
					fmt.Printf("run %s: failed after %d events\n", runID, count)
				}
				os.Exit(1)
			}
			if ev.Kind == xmlevent.EndDocument {
				break
			}
		}
		if showRunID {
			fmt.Printf("run %s: %d events\n", runID, count)
		}
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to a YAML parser config file")
	parseCmd.Flags().BoolVar(&showRunID, "run-id", false, "Print a correlation ID for this parse run")
}
