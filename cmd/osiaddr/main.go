package main

import (
	"fmt"
	"io"
	"os"
)

// stdout receives command output.
var stdout io.Writer = os.Stdout

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "resolve":
		err = cmdResolve(os.Args[2:])
	case "units":
		err = cmdUnits(os.Args[2:])
	case "listing":
		err = cmdListing(os.Args[2:])
	case "graph":
		err = cmdGraph(os.Args[2:])
	case "help", "-h", "--help":
		usage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `osiaddr — resolve addresses in disassembled resources

Usage:
  osiaddr resolve [source] [--json] [--strict] <address>...   Name the unit and instruction at each address
  osiaddr units   [source]                                    List code units and their symbols
  osiaddr listing [source] --addr <address>                   List the unit containing an address
  osiaddr graph   [source] --out <file.dot>                   Write the symbol ownership graph

Source (one of):
  --res <file.json>                          Decoded resource document
  --bin <code.bin> --base <addr> --syms <f>  Raw ARM64 code image + symbol manifest
  --elf <file> [--syms <f>]                  ARM64 ELF .text section (+ optional manifest)

Flags:
  --follow-calls     Split ARM64 images at BL targets
  --no-color         Disable colored output
`)
}
