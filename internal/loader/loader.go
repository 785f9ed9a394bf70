// Package loader materializes resources from disk: JSON resource documents,
// and ARM64 code images paired with a JSON symbol manifest.
package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"osiaddr/internal/model"
)

var (
	ErrInvalidResource = errors.New("loader: invalid resource")
	ErrInvalidOperand  = errors.New("loader: invalid operand")
)

type resourceDoc struct {
	Base  uint64    `json:"base"`
	Size  *uint64   `json:"size,omitempty"`
	Units []unitDoc `json:"units"`
	tablesDoc
}

type tablesDoc struct {
	Functions []functionDoc `json:"functions"`
	Classes   []classDoc    `json:"classes"`
	Symbols   []string      `json:"symbols"`
}

type unitDoc struct {
	Offset       uint64    `json:"offset"`
	Instructions []instDoc `json:"instructions"`
}

type instDoc struct {
	Name     string            `json:"name"`
	Size     int               `json:"size"`
	Operands []json.RawMessage `json:"operands,omitempty"`
}

type functionDoc struct {
	Name   string `json:"name"`
	Offset uint64 `json:"offset"`
}

type classDoc struct {
	Name    string      `json:"name"`
	Methods []methodDoc `json:"methods"`
}

type methodDoc struct {
	Symbol int    `json:"symbol"`
	Offset uint64 `json:"offset"`
}

// LoadResource reads a JSON resource document from path.
func LoadResource(path string) (*model.Resource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: open: %w", err)
	}
	defer f.Close()
	return ReadResource(f)
}

// ReadResource decodes and validates a JSON resource document. When size is
// omitted it defaults to the end of the furthest unit.
func ReadResource(r io.Reader) (*model.Resource, error) {
	var doc resourceDoc
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("loader: decode resource: %w", err)
	}

	res := &model.Resource{Base: doc.Base, Header: doc.tablesDoc.header()}
	for ui, ud := range doc.Units {
		u := &model.CodeUnit{Offset: ud.Offset}
		for ii, id := range ud.Instructions {
			if id.Size <= 0 {
				return nil, fmt.Errorf("%w: unit %d instruction %d: size %d", ErrInvalidResource, ui, ii, id.Size)
			}
			inst := model.Instruction{Size: id.Size, Name: id.Name}
			for oi, raw := range id.Operands {
				op, err := decodeOperand(raw)
				if err != nil {
					return nil, fmt.Errorf("unit %d instruction %d operand %d: %w", ui, ii, oi, err)
				}
				inst.Operands = append(inst.Operands, op)
			}
			u.Instructions = append(u.Instructions, inst)
		}
		res.Units = append(res.Units, u)
	}

	if doc.Size != nil {
		res.Size = *doc.Size
	} else {
		for _, u := range res.Units {
			if end := u.End(); end > res.End() {
				res.Size = end - res.Base
			}
		}
	}

	if err := Validate(res); err != nil {
		return nil, err
	}
	return res, nil
}

func (t tablesDoc) header() model.Header {
	h := model.Header{Symbols: model.SymbolTable(t.Symbols)}
	for _, f := range t.Functions {
		h.Functions = append(h.Functions, model.FunctionEntry{Name: f.Name, Offset: f.Offset})
	}
	for _, c := range t.Classes {
		ce := model.ClassEntry{Name: c.Name}
		for _, m := range c.Methods {
			ce.Methods = append(ce.Methods, model.MethodEntry{Symbol: m.Symbol, Offset: m.Offset})
		}
		h.Classes = append(h.Classes, ce)
	}
	return h
}

// decodeOperand maps a JSON scalar to an operand. A number written without a
// fraction or exponent becomes model.Int, or model.Uint above MaxInt64; any
// other number becomes model.Float, so 1.0 stays a float. Strings become
// model.String and booleans model.Bool.
func decodeOperand(raw json.RawMessage) (model.Operand, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOperand, err)
	}
	switch v := v.(type) {
	case json.Number:
		if !strings.ContainsAny(v.String(), ".eE") {
			if i, err := v.Int64(); err == nil {
				return model.Int(i), nil
			}
			if u, err := strconv.ParseUint(v.String(), 10, 64); err == nil {
				return model.Uint(u), nil
			}
		}
		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidOperand, v)
		}
		return model.Float(f), nil
	case string:
		return model.String(v), nil
	case bool:
		return model.Bool(v), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrInvalidOperand, raw)
}

// Validate checks the structural invariants the locators rely on: positive
// instruction sizes, unique and non-overlapping units, and every unit inside
// [Base, Base+Size].
func Validate(res *model.Resource) error {
	units := make([]*model.CodeUnit, 0, len(res.Units))
	for i, u := range res.Units {
		if u == nil {
			return fmt.Errorf("%w: unit %d is nil", ErrInvalidResource, i)
		}
		for k, inst := range u.Instructions {
			if inst.Size <= 0 {
				return fmt.Errorf("%w: unit 0x%x instruction %d: size %d", ErrInvalidResource, u.Offset, k, inst.Size)
			}
		}
		if u.Offset < res.Base {
			return fmt.Errorf("%w: unit 0x%x before base 0x%x", ErrInvalidResource, u.Offset, res.Base)
		}
		if u.End() > res.End() {
			return fmt.Errorf("%w: unit 0x%x ends at 0x%x past resource end 0x%x", ErrInvalidResource, u.Offset, u.End(), res.End())
		}
		units = append(units, u)
	}

	sort.SliceStable(units, func(i, j int) bool { return units[i].Offset < units[j].Offset })
	for i := 1; i < len(units); i++ {
		prev, cur := units[i-1], units[i]
		if prev.Offset == cur.Offset {
			return fmt.Errorf("%w: duplicate unit offset 0x%x", ErrInvalidResource, cur.Offset)
		}
		if prev.End() > cur.Offset {
			return fmt.Errorf("%w: unit 0x%x overlaps unit 0x%x", ErrInvalidResource, prev.Offset, cur.Offset)
		}
	}
	return nil
}
