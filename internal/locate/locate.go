// Package locate maps addresses to code units and relative offsets to
// instructions. Both lookups are linear folds over the decoded tables and
// never mutate their input.
package locate

import "osiaddr/internal/model"

// FindCodeUnit returns the unit that owns addr: the unit with the greatest
// start offset that is at or before addr. A unit starting exactly at addr
// owns it. Units are scanned in declared order and on duplicate offsets the
// first one encountered wins. Returns (nil, false) when no unit starts at or
// before addr, including when units is empty.
func FindCodeUnit(units []*model.CodeUnit, addr uint64) (*model.CodeUnit, bool) {
	var best *model.CodeUnit
	for _, u := range units {
		if u == nil || u.Offset > addr {
			continue
		}
		if best == nil || u.Offset > best.Offset {
			best = u
		}
	}
	return best, best != nil
}

// IndexOf returns the position of unit in units, or -1.
func IndexOf(units []*model.CodeUnit, unit *model.CodeUnit) int {
	for i, u := range units {
		if u == unit {
			return i
		}
	}
	return -1
}

// InstructionHit is an instruction located inside a unit.
type InstructionHit struct {
	Index       int    // position in the unit's instruction sequence
	Offset      uint64 // start of the instruction relative to the unit
	Instruction model.Instruction
}

// FindInstruction returns the instruction whose byte range [start, start+size)
// contains rel, a byte offset relative to the unit's start. Returns false when
// rel is at or past the end of the unit.
func FindInstruction(unit *model.CodeUnit, rel uint64) (InstructionHit, bool) {
	if unit == nil {
		return InstructionHit{}, false
	}
	var cursor uint64
	for i, inst := range unit.Instructions {
		end := cursor + uint64(inst.Size)
		if rel >= cursor && rel < end {
			return InstructionHit{Index: i, Offset: cursor, Instruction: inst}, true
		}
		cursor = end
	}
	return InstructionHit{}, false
}
