// Package model holds the decoded, read-only view of a disassembled resource:
// code units with their instructions, and the function, class and symbol
// tables that name them.
package model

import (
	"fmt"
	"strings"
)

// Resource is the root of a decoded resource. It is built once by a loader
// and never mutated afterwards, so it can be shared across goroutines.
type Resource struct {
	Base   uint64      // address of the first byte of the resource
	Size   uint64      // total byte size of the resource
	Units  []*CodeUnit // in declared table order
	Header Header
}

// End returns the address one past the last byte of the resource.
func (r *Resource) End() uint64 { return r.Base + r.Size }

// FirstOffset returns the smallest code unit start offset.
// Returns (0, false) if the resource has no units.
func (r *Resource) FirstOffset() (uint64, bool) {
	if len(r.Units) == 0 {
		return 0, false
	}
	first := r.Units[0].Offset
	for _, u := range r.Units[1:] {
		if u.Offset < first {
			first = u.Offset
		}
	}
	return first, true
}

// Header carries the symbolic tables of a resource.
type Header struct {
	Functions FunctionTable
	Classes   ClassTable
	Symbols   SymbolTable // shared by class methods only
}

// CodeUnit is one disassembled routine.
type CodeUnit struct {
	Offset       uint64 // absolute start, unique across units
	Instructions []Instruction
}

// Size returns the total byte length of the unit's instructions.
func (u *CodeUnit) Size() uint64 {
	var n uint64
	for _, inst := range u.Instructions {
		n += uint64(inst.Size)
	}
	return n
}

// End returns the absolute address one past the unit's last byte.
func (u *CodeUnit) End() uint64 { return u.Offset + u.Size() }

// Contains reports whether addr falls inside [Offset, End).
func (u *CodeUnit) Contains(addr uint64) bool {
	return addr >= u.Offset && addr < u.End()
}

// Instruction is a single decoded op.
type Instruction struct {
	Size     int // bytes occupied, always > 0
	Name     string
	Operands []Operand
}

// String renders the mnemonic followed by comma separated operands.
func (i Instruction) String() string {
	if len(i.Operands) == 0 {
		return i.Name
	}
	args := make([]string, len(i.Operands))
	for k, op := range i.Operands {
		args[k] = op.String()
	}
	return i.Name + " " + strings.Join(args, ", ")
}

// FunctionEntry names a top-level routine by the start offset of its unit.
type FunctionEntry struct {
	Name   string
	Offset uint64
}

// FunctionTable maps named top-level routines to code units by offset.
type FunctionTable []FunctionEntry

// MethodEntry names a class method: Symbol indexes the shared SymbolTable.
type MethodEntry struct {
	Symbol int
	Offset uint64
}

// ClassEntry is a named class and its method table.
type ClassEntry struct {
	Name    string
	Methods []MethodEntry
}

// ClassTable is the ordered list of classes.
type ClassTable []ClassEntry

// SymbolTable is a flat list of names referenced by index.
type SymbolTable []string

// Name returns the symbol at index i, or ("", false) if i is out of range.
func (t SymbolTable) Name(i int) (string, bool) {
	if i < 0 || i >= len(t) {
		return "", false
	}
	return t[i], true
}

// Placeholder returns the name used for a symbol index that is not in the table.
func Placeholder(i int) string {
	return fmt.Sprintf("sym_%d", i)
}
