// Package symbol names code units by matching their start offset against the
// function table and the class method tables of a resource header.
package symbol

import "osiaddr/internal/model"

// Kind tags the outcome of a symbol lookup.
type Kind int

const (
	KindNotFound Kind = iota
	KindFunction
	KindMethod
)

func (k Kind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindMethod:
		return "method"
	default:
		return "none"
	}
}

// Match is the result of Resolve. Class is only set for KindMethod.
type Match struct {
	Kind  Kind
	Name  string
	Class string
}

// Found reports whether the unit is named.
func (m Match) Found() bool { return m.Kind != KindNotFound }

// String returns the function name, Class.method, or "" for anonymous units.
func (m Match) String() string {
	switch m.Kind {
	case KindFunction:
		return m.Name
	case KindMethod:
		return m.Class + "." + m.Name
	}
	return ""
}

// Resolve names unit. Function entries take precedence over class methods;
// within each table the first entry in declared order wins. A method whose
// symbol index is not in the symbol table is named by model.Placeholder.
func Resolve(h *model.Header, unit *model.CodeUnit) Match {
	if h == nil || unit == nil {
		return Match{}
	}
	for _, f := range h.Functions {
		if f.Offset == unit.Offset {
			return Match{Kind: KindFunction, Name: f.Name}
		}
	}
	for _, c := range h.Classes {
		for _, m := range c.Methods {
			if m.Offset != unit.Offset {
				continue
			}
			name, ok := h.Symbols.Name(m.Symbol)
			if !ok {
				name = model.Placeholder(m.Symbol)
			}
			return Match{Kind: KindMethod, Name: name, Class: c.Name}
		}
	}
	return Match{}
}

// Lookup returns a name for every named unit start, using the same
// precedence as Resolve.
func Lookup(h *model.Header) map[uint64]Match {
	names := make(map[uint64]Match)
	for i := len(h.Classes) - 1; i >= 0; i-- {
		c := h.Classes[i]
		for j := len(c.Methods) - 1; j >= 0; j-- {
			m := c.Methods[j]
			name, ok := h.Symbols.Name(m.Symbol)
			if !ok {
				name = model.Placeholder(m.Symbol)
			}
			names[m.Offset] = Match{Kind: KindMethod, Name: name, Class: c.Name}
		}
	}
	for i := len(h.Functions) - 1; i >= 0; i-- {
		f := h.Functions[i]
		names[f.Offset] = Match{Kind: KindFunction, Name: f.Name}
	}
	return names
}
