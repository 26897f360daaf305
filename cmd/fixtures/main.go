// Command fixtures regenerates XML renderings of htmlseed/testdata/*.html
// (one .xml beside each input), the way the teacher's cmd/update-golden regenerated its decoded
// golden files from testdata/*.html. Run it after changing htmlseed's
// conversion rules, then check the resulting testdata/*.xml into the repo.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/arbor-xml/pullxml/htmlseed"
)

func main() {
	inputs, err := filepath.Glob("htmlseed/testdata/*.html")
	if err != nil {
		log.Fatalf("failed to glob files: %v", err)
	}

	for _, inputFile := range inputs {
		outputFile := strings.TrimSuffix(inputFile, ".html") + ".xml"

		fmt.Printf("Processing %s -> %s\n", inputFile, outputFile)
		f, err := os.Open(inputFile)
		if err != nil {
			log.Printf("failed to open input file %s: %v", inputFile, err)
			continue
		}

		converted, err := htmlseed.Convert(f)
		f.Close()
		if err != nil {
			log.Printf("conversion failed for %s: %v", inputFile, err)
			continue
		}

		if err := os.WriteFile(outputFile, []byte(converted), 0644); err != nil {
			log.Printf("failed to write output file %s: %v", outputFile, err)
			continue
		}
	}

	fmt.Println("Done. Fixtures updated.")
}
