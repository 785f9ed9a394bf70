package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"osiaddr/internal/loader"
	"osiaddr/internal/model"
)

// sourceFlags selects where a resource is loaded from. Shared by every command.
type sourceFlags struct {
	res         *string
	bin         *string
	elf         *string
	syms        *string
	base        *string
	followCalls *bool
	noColor     *bool
}

func addSourceFlags(fs *flag.FlagSet) *sourceFlags {
	return &sourceFlags{
		res:         fs.String("res", "", "path to a JSON resource document"),
		bin:         fs.String("bin", "", "path to a raw ARM64 code image"),
		elf:         fs.String("elf", "", "path to an ARM64 ELF file"),
		syms:        fs.String("syms", "", "path to a JSON symbol manifest (with --bin or --elf)"),
		base:        fs.String("base", "0", "load address of --bin"),
		followCalls: fs.Bool("follow-calls", false, "split ARM64 images at BL targets"),
		noColor:     fs.Bool("no-color", false, "disable colored output"),
	}
}

func (s *sourceFlags) load() (*model.Resource, error) {
	if *s.noColor {
		color.NoColor = true
	}

	n := 0
	for _, p := range []string{*s.res, *s.bin, *s.elf} {
		if p != "" {
			n++
		}
	}
	if n != 1 {
		return nil, fmt.Errorf("exactly one of --res, --bin or --elf is required")
	}

	if *s.res != "" {
		res, err := loader.LoadResource(*s.res)
		if err != nil {
			return nil, fmt.Errorf("load: %w", err)
		}
		fmt.Fprintf(os.Stderr, "resource: %d units, %d bytes at 0x%x\n", len(res.Units), res.Size, res.Base)
		return res, nil
	}

	var m *loader.Manifest
	if *s.syms != "" {
		var err error
		m, err = loader.LoadManifest(*s.syms)
		if err != nil {
			return nil, fmt.Errorf("manifest: %w", err)
		}
	}
	if *s.followCalls {
		if m == nil {
			m = &loader.Manifest{}
		}
		m.FollowCalls = true
	}

	var res *model.Resource
	if *s.elf != "" {
		var err error
		res, err = loader.LoadELF(*s.elf, m)
		if err != nil {
			return nil, fmt.Errorf("elf: %w", err)
		}
	} else {
		if m == nil {
			return nil, fmt.Errorf("--syms or --follow-calls is required with --bin")
		}
		base, err := strconv.ParseUint(*s.base, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("--base: %w", err)
		}
		code, err := os.ReadFile(*s.bin)
		if err != nil {
			return nil, fmt.Errorf("read: %w", err)
		}
		res, err = loader.FromARM64(code, base, m)
		if err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
	}
	fmt.Fprintf(os.Stderr, "code region: %d bytes at VA 0x%x, %d units\n", res.Size, res.Base, len(res.Units))
	return res, nil
}

// parseAddress accepts decimal and 0x/0o/0b prefixed integers.
func parseAddress(s string) (int64, error) {
	a, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("address not an integer: %s", s)
	}
	return a, nil
}
