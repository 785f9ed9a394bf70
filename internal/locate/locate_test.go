package locate

import (
	"math/rand"
	"testing"
	"testing/quick"

	"osiaddr/internal/model"
)

func unitWithSizes(off uint64, sizes ...int) *model.CodeUnit {
	u := &model.CodeUnit{Offset: off}
	for i, s := range sizes {
		u.Instructions = append(u.Instructions, model.Instruction{
			Size:     s,
			Name:     "op",
			Operands: []model.Operand{model.Int(i)},
		})
	}
	return u
}

func TestFindCodeUnitExample(t *testing.T) {
	units := []*model.CodeUnit{unitWithSizes(0, 2, 3), unitWithSizes(5, 1, 4)}

	u, ok := FindCodeUnit(units, 7)
	if !ok {
		t.Fatal("no unit for address 7")
	}
	if u.Offset != 5 {
		t.Fatalf("unit offset = %d, want 5", u.Offset)
	}

	hit, ok := FindInstruction(u, 7-u.Offset)
	if !ok {
		t.Fatal("no instruction at relative offset 2")
	}
	if hit.Index != 1 || hit.Instruction.Size != 4 || hit.Offset != 1 {
		t.Errorf("hit = %+v, want index 1, size 4, offset 1", hit)
	}
}

func TestFindCodeUnitExactStart(t *testing.T) {
	units := []*model.CodeUnit{unitWithSizes(0, 5), unitWithSizes(5, 5), unitWithSizes(10, 5)}
	for _, addr := range []uint64{0, 5, 10} {
		u, ok := FindCodeUnit(units, addr)
		if !ok || u.Offset != addr {
			t.Errorf("FindCodeUnit(%d) = %v, %v, want unit at %d", addr, u, ok, addr)
		}
	}
}

func TestFindCodeUnitUnordered(t *testing.T) {
	units := []*model.CodeUnit{unitWithSizes(20, 4), unitWithSizes(0, 10), unitWithSizes(10, 10)}
	u, ok := FindCodeUnit(units, 15)
	if !ok || u.Offset != 10 {
		t.Fatalf("FindCodeUnit(15) = %v, %v, want unit at 10", u, ok)
	}
	if got := IndexOf(units, u); got != 2 {
		t.Errorf("IndexOf = %d, want 2", got)
	}
}

func TestFindCodeUnitDuplicateKeepsFirst(t *testing.T) {
	a := unitWithSizes(8, 1)
	b := unitWithSizes(8, 2)
	u, ok := FindCodeUnit([]*model.CodeUnit{a, b}, 9)
	if !ok || u != a {
		t.Errorf("expected first declared unit on duplicate offsets")
	}
}

func TestFindCodeUnitNotFound(t *testing.T) {
	if _, ok := FindCodeUnit(nil, 0); ok {
		t.Error("empty unit table returned a unit")
	}
	units := []*model.CodeUnit{unitWithSizes(16, 4)}
	if _, ok := FindCodeUnit(units, 15); ok {
		t.Error("address before the first unit returned a unit")
	}
	if IndexOf(units, unitWithSizes(16, 4)) != -1 {
		t.Error("IndexOf matched a unit that is not in the table")
	}
}

func TestFindInstructionPastEnd(t *testing.T) {
	u := unitWithSizes(0, 2, 3)
	if _, ok := FindInstruction(u, 5); ok {
		t.Error("offset equal to unit size returned an instruction")
	}
	if _, ok := FindInstruction(u, 100); ok {
		t.Error("offset past unit end returned an instruction")
	}
	if _, ok := FindInstruction(&model.CodeUnit{}, 0); ok {
		t.Error("empty unit returned an instruction")
	}
	if _, ok := FindInstruction(nil, 0); ok {
		t.Error("nil unit returned an instruction")
	}
}

func TestFindInstructionLastByte(t *testing.T) {
	u := unitWithSizes(0, 2, 3, 4)
	hit, ok := FindInstruction(u, u.Size()-1)
	if !ok || hit.Index != 2 {
		t.Errorf("last byte resolved to %+v, %v, want index 2", hit, ok)
	}
}

// randomSizes returns n positive instruction sizes in [1, 8].
func randomSizes(r *rand.Rand, n int) []int {
	sizes := make([]int, n)
	for i := range sizes {
		sizes[i] = 1 + r.Intn(8)
	}
	return sizes
}

func TestFindInstructionCoversUnit(t *testing.T) {
	f := func(seed int64) bool {
		r := rand.New(rand.NewSource(seed))
		sizes := randomSizes(r, 1+r.Intn(32))
		u := unitWithSizes(uint64(r.Intn(1<<16)), sizes...)

		// Every byte belongs to exactly one instruction, ranges are visited
		// in order and the index matches the declared position.
		var start uint64
		for i, s := range sizes {
			for o := start; o < start+uint64(s); o++ {
				hit, ok := FindInstruction(u, o)
				if !ok || hit.Index != i || hit.Offset != start {
					t.Logf("seed %d: offset %d -> %+v, %v; want index %d at %d", seed, o, hit, ok, i, start)
					return false
				}
			}
			start += uint64(s)
		}
		if start != u.Size() {
			return false
		}
		_, ok := FindInstruction(u, start)
		return !ok
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestFindCodeUnitCoversUnits(t *testing.T) {
	f := func(seed int64) bool {
		r := rand.New(rand.NewSource(seed))
		n := 1 + r.Intn(10)
		var units []*model.CodeUnit
		off := uint64(r.Intn(64))
		for i := 0; i < n; i++ {
			u := unitWithSizes(off, randomSizes(r, 1+r.Intn(6))...)
			units = append(units, u)
			off = u.End()
		}
		r.Shuffle(len(units), func(i, j int) { units[i], units[j] = units[j], units[i] })

		for _, want := range units {
			for a := want.Offset; a < want.End(); a++ {
				got, ok := FindCodeUnit(units, a)
				if !ok || got != want {
					t.Logf("seed %d: address %d resolved to %v, want unit at %d", seed, a, got, want.Offset)
					return false
				}
			}
		}
		return true
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestFindIdempotent(t *testing.T) {
	units := []*model.CodeUnit{unitWithSizes(0, 2, 3), unitWithSizes(5, 1, 4)}
	u1, _ := FindCodeUnit(units, 8)
	u2, _ := FindCodeUnit(units, 8)
	if u1 != u2 {
		t.Error("repeated FindCodeUnit returned different units")
	}
	h1, _ := FindInstruction(u1, 3)
	h2, _ := FindInstruction(u1, 3)
	if h1.Index != h2.Index || h1.Offset != h2.Offset {
		t.Error("repeated FindInstruction returned different hits")
	}
}
