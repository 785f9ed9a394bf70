// Package resolve turns an absolute address into a report naming the code
// unit, the instruction and the symbol that own it.
package resolve

import (
	"errors"
	"fmt"

	"osiaddr/internal/locate"
	"osiaddr/internal/model"
	"osiaddr/internal/symbol"
)

var (
	ErrOutOfRange      = errors.New("resolve: address outside resource range")
	ErrBeforeFirstUnit = fmt.Errorf("%w: address before first code unit", ErrOutOfRange)
	ErrNoUnit          = errors.New("resolve: no code unit")
	ErrNoInstruction   = errors.New("resolve: no instruction at offset")
	ErrNoSymbol        = errors.New("resolve: not found")
)

// Report is the resolution of one address.
type Report struct {
	Address     uint64
	Unit        *model.CodeUnit
	UnitIndex   int    // position of Unit in the resource's unit table
	Relative    uint64 // Address - Unit.Offset
	Instruction locate.InstructionHit
	Symbol      symbol.Match
}

// Resolver answers address queries against one resource. It holds no
// mutable state and is safe for concurrent use.
type Resolver struct {
	res *model.Resource

	// Strict makes an anonymous unit an error (ErrNoSymbol). The report is
	// still returned alongside the error.
	Strict bool
}

// New returns a Resolver over res.
func New(res *model.Resource) *Resolver {
	return &Resolver{res: res}
}

// Resource returns the resource being queried.
func (r *Resolver) Resource() *model.Resource { return r.res }

// Validate checks addr against the resource bounds. The address one past the
// last byte is accepted; it fails later at instruction lookup.
func (r *Resolver) Validate(addr int64) error {
	// Compare against Size rather than End so that Base+Size may exceed 2^64.
	if addr < 0 || uint64(addr) < r.res.Base || uint64(addr)-r.res.Base > r.res.Size {
		return fmt.Errorf("%w: %#x not in base %#x + size %#x", ErrOutOfRange, addr, r.res.Base, r.res.Size)
	}
	if first, ok := r.res.FirstOffset(); ok && uint64(addr) < first {
		return fmt.Errorf("%w: %#x < %#x", ErrBeforeFirstUnit, addr, first)
	}
	return nil
}

// Resolve locates the unit, instruction and symbol for addr.
func (r *Resolver) Resolve(addr int64) (*Report, error) {
	if err := r.Validate(addr); err != nil {
		return nil, err
	}
	a := uint64(addr)

	unit, ok := locate.FindCodeUnit(r.res.Units, a)
	if !ok {
		return nil, fmt.Errorf("%w: 0x%x", ErrNoUnit, a)
	}
	rel := a - unit.Offset

	hit, ok := locate.FindInstruction(unit, rel)
	if !ok {
		return nil, fmt.Errorf("%w: 0x%x (unit 0x%x, +0x%x, size 0x%x)", ErrNoInstruction, a, unit.Offset, rel, unit.Size())
	}

	rep := &Report{
		Address:     a,
		Unit:        unit,
		UnitIndex:   locate.IndexOf(r.res.Units, unit),
		Relative:    rel,
		Instruction: hit,
		Symbol:      symbol.Resolve(&r.res.Header, unit),
	}
	if r.Strict && !rep.Symbol.Found() {
		return rep, fmt.Errorf("%w: unit 0x%x", ErrNoSymbol, unit.Offset)
	}
	return rep, nil
}

// ResolveAll resolves addrs in order and stops at the first error. Reports
// resolved before the failure are returned with it, followed by the failing
// address's own report when there is one (a strict symbol miss).
func (r *Resolver) ResolveAll(addrs []int64) ([]*Report, error) {
	reports := make([]*Report, 0, len(addrs))
	for _, a := range addrs {
		rep, err := r.Resolve(a)
		if rep != nil {
			reports = append(reports, rep)
		}
		if err != nil {
			return reports, err
		}
	}
	return reports, nil
}
