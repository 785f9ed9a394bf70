package main

import (
	"flag"
	"fmt"

	"osiaddr/internal/output"
	"osiaddr/internal/resolve"
)

func cmdResolve(args []string) error {
	fs := flag.NewFlagSet("resolve", flag.ExitOnError)
	src := addSourceFlags(fs)
	jsonOut := fs.Bool("json", false, "output as JSON")
	strict := fs.Bool("strict", false, "fail when the unit has no symbol")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("at least one address is required")
	}

	addrs := make([]int64, fs.NArg())
	for i, s := range fs.Args() {
		a, err := parseAddress(s)
		if err != nil {
			return err
		}
		addrs[i] = a
	}

	res, err := src.load()
	if err != nil {
		return err
	}

	r := resolve.New(res)
	r.Strict = *strict
	reps, resolveErr := r.ResolveAll(addrs)

	if *jsonOut {
		if err := output.WriteReportsJSON(stdout, reps); err != nil {
			return err
		}
		return resolveErr
	}
	for _, rep := range reps {
		if err := output.WriteReport(stdout, rep); err != nil {
			return err
		}
	}
	return resolveErr
}
