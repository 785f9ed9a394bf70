package loader

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"osiaddr/internal/disasm"
	"osiaddr/internal/elfx"
	"osiaddr/internal/model"
)

// Manifest names the code units of a raw ARM64 image. Offsets are absolute
// addresses in the image's address space.
type Manifest struct {
	Functions []model.FunctionEntry
	Classes   []model.ClassEntry
	Symbols   model.SymbolTable
	Units     []uint64 // extra anonymous unit starts

	// FollowCalls adds the target of every BL inside the image as an
	// anonymous unit start.
	FollowCalls bool
}

type manifestDoc struct {
	tablesDoc
	Units       []uint64 `json:"units"`
	FollowCalls bool     `json:"follow_calls"`
}

// LoadManifest reads a JSON symbol manifest from path.
func LoadManifest(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: open: %w", err)
	}
	defer f.Close()
	return ReadManifest(f)
}

// ReadManifest decodes a JSON symbol manifest.
func ReadManifest(r io.Reader) (*Manifest, error) {
	var doc manifestDoc
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("loader: decode manifest: %w", err)
	}
	h := doc.tablesDoc.header()
	return &Manifest{
		Functions:   h.Functions,
		Classes:     h.Classes,
		Symbols:     h.Symbols,
		Units:       doc.Units,
		FollowCalls: doc.FollowCalls,
	}, nil
}

// FromARM64 decodes code, mapped at base, into a resource. Unit starts are the
// union of the manifest's function offsets, method offsets and extra unit
// starts (plus BL targets when FollowCalls is set); each unit runs to the next
// start or the end of the image. Starts outside the image or not on a 4-byte
// instruction boundary are ignored. Bytes before the first start belong to no
// unit.
func FromARM64(code []byte, base uint64, m *Manifest) (*model.Resource, error) {
	return fromARM64(code, base, m, len(code)/4+1)
}

// fromARM64 decodes at most maxSteps instructions. Units starting past the
// last decoded instruction are left empty.
func fromARM64(code []byte, base uint64, m *Manifest, maxSteps int) (*model.Resource, error) {
	if m == nil {
		m = &Manifest{}
	}
	end := base + uint64(len(code))
	insts := disasm.Disassemble(code, disasm.Options{BaseAddr: base, MaxSteps: maxSteps})

	seen := make(map[uint64]bool)
	var starts []uint64
	add := func(off uint64) {
		if off < base || off >= end || (off-base)%4 != 0 || seen[off] {
			return
		}
		seen[off] = true
		starts = append(starts, off)
	}
	for _, f := range m.Functions {
		add(f.Offset)
	}
	for _, c := range m.Classes {
		for _, me := range c.Methods {
			add(me.Offset)
		}
	}
	for _, off := range m.Units {
		add(off)
	}
	if m.FollowCalls {
		for _, t := range disasm.CallTargets(insts, base, end) {
			add(t)
		}
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })

	res := &model.Resource{
		Base: base,
		Size: uint64(len(code)),
		Header: model.Header{
			Functions: m.Functions,
			Classes:   m.Classes,
			Symbols:   m.Symbols,
		},
	}
	for i, start := range starts {
		stop := end
		if i+1 < len(starts) {
			stop = starts[i+1]
		}
		u := &model.CodeUnit{Offset: start}
		idx := (start - base) / 4
		if idx >= uint64(len(insts)) {
			res.Units = append(res.Units, u)
			continue
		}
		for _, inst := range insts[idx:] {
			if inst.Addr+uint64(inst.Size) > stop {
				break
			}
			u.Instructions = append(u.Instructions, inst.Instruction())
		}
		res.Units = append(res.Units, u)
	}

	if err := Validate(res); err != nil {
		return nil, err
	}
	return res, nil
}

// LoadELF decodes the .text section of an ARM64 ELF. Function symbols from
// the ELF name units the manifest leaves unnamed.
func LoadELF(path string, m *Manifest) (*model.Resource, error) {
	ef, err := elfx.Open(path)
	if err != nil {
		return nil, err
	}
	defer ef.Close()

	addr, code, err := ef.Text()
	if err != nil {
		return nil, err
	}
	funcs, err := ef.Functions()
	if err != nil {
		return nil, err
	}

	merged := &Manifest{}
	if m != nil {
		*merged = *m
		merged.Functions = append([]model.FunctionEntry(nil), m.Functions...)
	}
	named := make(map[uint64]bool)
	for _, f := range merged.Functions {
		named[f.Offset] = true
	}
	for _, c := range merged.Classes {
		for _, me := range c.Methods {
			named[me.Offset] = true
		}
	}
	for _, f := range funcs {
		if named[f.Addr] {
			continue
		}
		named[f.Addr] = true
		merged.Functions = append(merged.Functions, model.FunctionEntry{Name: f.Name, Offset: f.Addr})
	}
	return FromARM64(code, addr, merged)
}
