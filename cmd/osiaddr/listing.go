package main

import (
	"flag"
	"fmt"

	"osiaddr/internal/output"
	"osiaddr/internal/resolve"
)

func cmdListing(args []string) error {
	fs := flag.NewFlagSet("listing", flag.ExitOnError)
	src := addSourceFlags(fs)
	addrStr := fs.String("addr", "", "address inside the unit to list")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *addrStr == "" {
		return fmt.Errorf("--addr is required")
	}
	addr, err := parseAddress(*addrStr)
	if err != nil {
		return err
	}

	res, err := src.load()
	if err != nil {
		return err
	}
	rep, err := resolve.New(res).Resolve(addr)
	if err != nil {
		return err
	}
	return output.WriteListing(stdout, rep)
}
