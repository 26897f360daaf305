package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"github.com/spf13/cobra"

	"github.com/arbor-xml/pullxml/xmlevent"
	"github.com/arbor-xml/pullxml/xmllex"
	"github.com/arbor-xml/pullxml/xmlsource"
)

var (
	statsConfigPath string
	statsEncoding   string
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats [xml_file]",
	Short: "Summarize element counts and content token counts in an XML file",
	Long: `Parse an XML file and report how many elements, comments, processing
instructions and text runs it produced, along with a tiktoken count over the text content (Characters, Whitespace,
CData, and attribute values) — a stand-in for how much of this document an
LLM-facing pipeline would actually have to read.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		f, err := os.Open(args[0])
		if err != nil {
			fmt.Printf("Error opening file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()

		config := xmlevent.DefaultConfig()
		if statsConfigPath != "" {
			config, err = xmlevent.LoadConfig(statsConfigPath)
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

		enc, err := tiktoken.GetEncoding(statsEncoding)
		if err != nil {
			fmt.Printf("Error loading token encoding %q: %v\n", statsEncoding, err)
			os.Exit(1)
		}

		lexer := xmllex.New(src)
		parser := xmlevent.NewParser(lexer, config)

		counts := map[xmlevent.EventKind]int{}
		var content strings.Builder

		for {
			ev := parser.Next()
			counts[ev.Kind]++

			switch ev.Kind {
			case xmlevent.Characters, xmlevent.Whitespace, xmlevent.CData:
				content.WriteString(ev.Text)
				content.WriteByte('\n')
			case xmlevent.StartElement:
				for _, a := range ev.Attributes {
					content.WriteString(a.Value)
					content.WriteByte('\n')
				}
			case xmlevent.Error:
				fmt.Printf("Error: %s @%s\n", ev.Message, ev.Pos)
				os.Exit(1)
			}

			if ev.Kind == xmlevent.EndDocument {
				break
			}
		}

		tokens := enc.Encode(content.String(), nil, nil)

		fmt.Printf("Elements:    %d\n", counts[xmlevent.StartElement])
		fmt.Printf("Comments:    %d\n", counts[xmlevent.Comment])
		fmt.Printf("PIs:         %d\n", counts[xmlevent.ProcessingInstruction])
		fmt.Printf("Text runs:   %d\n", counts[xmlevent.Characters]+counts[xmlevent.Whitespace]+counts[xmlevent.CData])
		fmt.Printf("Content tokens (%s): %d\n", statsEncoding, len(tokens))
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().StringVarP(&statsConfigPath, "config", "c", "", "Path to a YAML parser config file")
	statsCmd.Flags().StringVar(&statsEncoding, "encoding", "cl100k_base", "tiktoken encoding to count content tokens with")
}
