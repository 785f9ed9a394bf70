// Package elfx provides ELF loading helpers for ARM64 code images.
package elfx

import (
	"debug/elf"
	"errors"
	"fmt"
	"os"
	"sort"
)

var (
	ErrNotELF       = errors.New("elfx: not an ELF file")
	ErrNotARM64     = errors.New("elfx: not ARM64 (EM_AARCH64)")
	ErrNot64Bit     = errors.New("elfx: not 64-bit ELF")
	ErrNotLoadable  = errors.New("elfx: not an executable or shared object")
	ErrNoSection    = errors.New("elfx: section not found")
	ErrSectionNoBit = errors.New("elfx: section has no file data")
)

// File wraps a debug/elf.File opened from disk.
type File struct {
	ELF *elf.File
	f   *os.File
}

// Open opens an ELF file and validates it is a 64-bit ARM64 executable or
// shared object.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("elfx: open: %w", err)
	}

	ef, err := elf.NewFile(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", ErrNotELF, err)
	}

	if ef.Class != elf.ELFCLASS64 {
		f.Close()
		return nil, ErrNot64Bit
	}
	if ef.Machine != elf.EM_AARCH64 {
		f.Close()
		return nil, ErrNotARM64
	}
	if ef.Type != elf.ET_DYN && ef.Type != elf.ET_EXEC {
		f.Close()
		return nil, ErrNotLoadable
	}

	return &File{ELF: ef, f: f}, nil
}

// Close releases resources. elf.NewFile does not own the os.File, so it is
// closed here.
func (f *File) Close() error {
	return f.f.Close()
}

// Section returns the virtual address and contents of the named section.
func (f *File) Section(name string) (addr uint64, data []byte, err error) {
	s := f.ELF.Section(name)
	if s == nil {
		return 0, nil, fmt.Errorf("%w: %s", ErrNoSection, name)
	}
	if s.Type == elf.SHT_NOBITS {
		return 0, nil, fmt.Errorf("%w: %s", ErrSectionNoBit, name)
	}
	data, err = s.Data()
	if err != nil {
		return 0, nil, fmt.Errorf("elfx: read %s: %w", name, err)
	}
	return s.Addr, data, nil
}

// Text returns the address and contents of the .text section.
func (f *File) Text() (uint64, []byte, error) {
	return f.Section(".text")
}

// Func is a function symbol.
type Func struct {
	Name string
	Addr uint64
	Size uint64
}

// Functions returns the named STT_FUNC symbols from .symtab and .dynsym,
// sorted by address. A missing table is not an error; an address named in
// both tables keeps the .symtab name.
func (f *File) Functions() ([]Func, error) {
	seen := make(map[uint64]bool)
	var funcs []Func
	for _, read := range []func() ([]elf.Symbol, error){f.ELF.Symbols, f.ELF.DynamicSymbols} {
		syms, err := read()
		if err != nil {
			if errors.Is(err, elf.ErrNoSymbols) {
				continue
			}
			return nil, fmt.Errorf("elfx: symbols: %w", err)
		}
		for _, s := range syms {
			if elf.ST_TYPE(s.Info) != elf.STT_FUNC || s.Name == "" || s.Value == 0 || seen[s.Value] {
				continue
			}
			seen[s.Value] = true
			funcs = append(funcs, Func{Name: s.Name, Addr: s.Value, Size: s.Size})
		}
	}
	sort.Slice(funcs, func(i, j int) bool { return funcs[i].Addr < funcs[j].Addr })
	return funcs, nil
}
