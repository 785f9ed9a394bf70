package resolve

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"osiaddr/internal/locate"
	"osiaddr/internal/model"
	"osiaddr/internal/symbol"
)

func inst(name string, size int, ops ...model.Operand) model.Instruction {
	return model.Instruction{Name: name, Size: size, Operands: ops}
}

// testResource lays out three units back to back starting at 0x10:
// Init [0x10,0x15), Player.jump [0x15,0x1a), anonymous [0x1a,0x1e).
func testResource() *model.Resource {
	return &model.Resource{
		Size: 0x1e,
		Units: []*model.CodeUnit{
			{Offset: 0x10, Instructions: []model.Instruction{inst("push", 2, model.Int(1)), inst("call", 3, model.String("print"))}},
			{Offset: 0x15, Instructions: []model.Instruction{inst("nop", 1), inst("jmp", 4, model.Int(-3))}},
			{Offset: 0x1a, Instructions: []model.Instruction{inst("ret", 4)}},
		},
		Header: model.Header{
			Functions: model.FunctionTable{{Name: "Init", Offset: 0x10}},
			Classes:   model.ClassTable{{Name: "Player", Methods: []model.MethodEntry{{Symbol: 0, Offset: 0x15}}}},
			Symbols:   model.SymbolTable{"jump"},
		},
	}
}

func TestResolveMethod(t *testing.T) {
	res := testResource()
	rep, err := New(res).Resolve(0x17)
	if err != nil {
		t.Fatal(err)
	}
	want := &Report{
		Address:   0x17,
		Unit:      res.Units[1],
		UnitIndex: 1,
		Relative:  2,
		Instruction: locate.InstructionHit{
			Index:       1,
			Offset:      1,
			Instruction: inst("jmp", 4, model.Int(-3)),
		},
		Symbol: symbol.Match{Kind: symbol.KindMethod, Name: "jump", Class: "Player"},
	}
	if diff := cmp.Diff(want, rep); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveFunctionAtUnitStart(t *testing.T) {
	rep, err := New(testResource()).Resolve(0x10)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Symbol.String() != "Init" || rep.Instruction.Index != 0 || rep.Relative != 0 {
		t.Errorf("got %s [%d] +%d, want Init [0] +0", rep.Symbol, rep.Instruction.Index, rep.Relative)
	}
}

func TestResolveLastByte(t *testing.T) {
	res := testResource()
	rep, err := New(res).Resolve(int64(res.Size - 1))
	if err != nil {
		t.Fatal(err)
	}
	if rep.Unit != res.Units[2] || rep.Instruction.Index != 0 {
		t.Errorf("last byte resolved to unit 0x%x [%d]", rep.Unit.Offset, rep.Instruction.Index)
	}
	if rep.Symbol.Found() {
		t.Errorf("anonymous unit matched %s", rep.Symbol)
	}
}

func TestResolveBoundaries(t *testing.T) {
	res := testResource()
	tests := []struct {
		name string
		addr int64
		want error
	}{
		{"negative", -1, ErrOutOfRange},
		{"past end", int64(res.Size) + 1, ErrOutOfRange},
		{"before first unit", 0x0f, ErrBeforeFirstUnit},
		{"one past end", int64(res.Size), ErrNoInstruction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep, err := New(res).Resolve(tt.addr)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if rep != nil {
				t.Errorf("unexpected report %+v", rep)
			}
		})
	}
	if !errors.Is(ErrBeforeFirstUnit, ErrOutOfRange) {
		t.Error("ErrBeforeFirstUnit does not wrap ErrOutOfRange")
	}
}

func TestResolveBase(t *testing.T) {
	res := testResource()
	res.Base = 0x10
	res.Size = 0x0e
	r := New(res)
	if _, err := r.Resolve(0x0f); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("address below base: err = %v", err)
	}
	if _, err := r.Resolve(0x1d); err != nil {
		t.Errorf("address inside based resource: %v", err)
	}
}

func TestResolveSizeOverflowsEnd(t *testing.T) {
	const base = 1 << 62
	res := &model.Resource{
		Base:  base,
		Size:  math.MaxUint64 - base + 100, // Base+Size wraps past 2^64
		Units: []*model.CodeUnit{{Offset: base, Instructions: []model.Instruction{inst("ret", 4)}}},
	}
	r := New(res)
	rep, err := r.Resolve(base + 1)
	if err != nil {
		t.Fatalf("Resolve(base+1): %v", err)
	}
	if rep.Unit != res.Units[0] || rep.Relative != 1 {
		t.Errorf("got unit 0x%x +%d, want 0x%x +1", rep.Unit.Offset, rep.Relative, uint64(base))
	}
	if _, err := r.Resolve(base - 1); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("address below base: err = %v", err)
	}
}

func TestResolveEmpty(t *testing.T) {
	_, err := New(&model.Resource{Size: 8}).Resolve(4)
	if !errors.Is(err, ErrNoUnit) {
		t.Errorf("err = %v, want ErrNoUnit", err)
	}
}

func TestResolveStrict(t *testing.T) {
	r := New(testResource())
	r.Strict = true
	rep, err := r.Resolve(0x1b)
	if !errors.Is(err, ErrNoSymbol) {
		t.Fatalf("err = %v, want ErrNoSymbol", err)
	}
	if rep == nil || rep.Unit.Offset != 0x1a {
		t.Errorf("strict failure should still return the report, got %+v", rep)
	}
	if _, err := r.Resolve(0x11); err != nil {
		t.Errorf("named unit in strict mode: %v", err)
	}
}

func TestResolveAll(t *testing.T) {
	r := New(testResource())
	reps, err := r.ResolveAll([]int64{0x10, 0x15, 0x1a})
	if err != nil {
		t.Fatal(err)
	}
	got := make([]string, len(reps))
	for i, rep := range reps {
		got[i] = rep.Symbol.String()
	}
	if diff := cmp.Diff([]string{"Init", "Player.jump", ""}, got); diff != "" {
		t.Errorf("symbols mismatch (-want +got):\n%s", diff)
	}

	reps, err = r.ResolveAll([]int64{0x10, 0x100, 0x15})
	if !errors.Is(err, ErrOutOfRange) || len(reps) != 1 {
		t.Errorf("got %d reports, err %v; want 1 report and ErrOutOfRange", len(reps), err)
	}

	r.Strict = true
	reps, err = r.ResolveAll([]int64{0x10, 0x1c, 0x15})
	if !errors.Is(err, ErrNoSymbol) || len(reps) != 2 {
		t.Fatalf("got %d reports, err %v; want 2 reports and ErrNoSymbol", len(reps), err)
	}
	if reps[1].Unit.Offset != 0x1a {
		t.Errorf("failing report unit = 0x%x, want 0x1a", reps[1].Unit.Offset)
	}
}

func TestResolveConcurrent(t *testing.T) {
	res := testResource()
	r := New(res)
	want, err := r.Resolve(0x18)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := r.Resolve(0x18)
			if err != nil {
				errs <- err
				return
			}
			if diff := cmp.Diff(want, got); diff != "" {
				errs <- errors.New(diff)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
