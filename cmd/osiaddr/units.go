package main

import (
	"flag"

	"osiaddr/internal/output"
)

func cmdUnits(args []string) error {
	fs := flag.NewFlagSet("units", flag.ExitOnError)
	src := addSourceFlags(fs)

	if err := fs.Parse(args); err != nil {
		return err
	}

	res, err := src.load()
	if err != nil {
		return err
	}
	return output.WriteUnits(stdout, res)
}
