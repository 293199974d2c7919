// Command talvosdis disassembles a SPIR-V compute shader binary to
// text, reusing the spirv package's decoder and opcode tables instead
// of keeping its own copy of the instruction grammar.
//
// Usage:
//
//	talvosdis shader.spv
package main

import (
	"fmt"
	"os"

	"github.com/gogpu/talvos/spirv"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: talvosdis <file.spv>")
		os.Exit(1)
	}

	f, err := os.Open(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	words, err := spirv.ReadWords(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	module, err := spirv.Load(words)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Print(module.Disassemble())
}
