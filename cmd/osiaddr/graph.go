package main

import (
	"flag"
	"fmt"
	"os"

	"osiaddr/internal/output"
	"osiaddr/internal/symgraph"
)

func cmdGraph(args []string) error {
	fs := flag.NewFlagSet("graph", flag.ExitOnError)
	src := addSourceFlags(fs)
	outPath := fs.String("out", "", "output DOT file")
	title := fs.String("title", "symbols", "graph title")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *outPath == "" {
		return fmt.Errorf("--out is required")
	}

	res, err := src.load()
	if err != nil {
		return err
	}

	g := symgraph.Build(res)
	if err := output.WriteFile(*outPath, []byte(symgraph.DOT(g, *title))); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %s (%d nodes, %d edges)\n", *outPath, len(g.Nodes), len(g.Edges))
	return nil
}
