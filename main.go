package main

import "github.com/arbor-xml/pullxml/cmd"

func main() {
	cmd.Execute()
}
