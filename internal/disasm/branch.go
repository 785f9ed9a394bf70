package disasm

// DecodeCall returns the absolute target of a BL instruction at pc.
// Returns false for anything other than BL.
//
// Encoding: 100101 imm26
func DecodeCall(raw uint32, pc uint64) (uint64, bool) {
	if raw&0xFC000000 != 0x94000000 {
		return 0, false
	}
	offset := signExtend(raw&0x03FFFFFF, 26) * 4
	return uint64(int64(pc) + int64(offset)), true
}

// CallTargets returns the distinct BL targets in insts that land inside
// [lo, hi), in first-seen order.
func CallTargets(insts []Inst, lo, hi uint64) []uint64 {
	seen := make(map[uint64]bool)
	var targets []uint64
	for _, inst := range insts {
		target, ok := DecodeCall(inst.Raw, inst.Addr)
		if !ok || target < lo || target >= hi || seen[target] {
			continue
		}
		seen[target] = true
		targets = append(targets, target)
	}
	return targets
}

// signExtend sign-extends a value from the given bit width to int32.
func signExtend(val uint32, bits int) int32 {
	sign := uint32(1) << (bits - 1)
	mask := sign - 1
	if val&sign != 0 {
		return int32(val | ^mask) // negative
	}
	return int32(val & mask)
}
