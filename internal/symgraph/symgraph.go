// Package symgraph builds the symbol ownership graph of a resource: classes
// own methods, and every symbol owns the code unit it names.
package symgraph

import (
	"fmt"

	"github.com/zboralski/lattice"
	"github.com/zboralski/lattice/render"
	"osiaddr/internal/model"
	"osiaddr/internal/symbol"
)

// UnitLabel is the node name of a code unit.
func UnitLabel(u *model.CodeUnit) string {
	return fmt.Sprintf("unit_%x", u.Offset)
}

// Build constructs a lattice.Graph from the resource tables.
// Each class, function, method and unit becomes a node. Edges run
// class → Class.method and symbol → unit. Table entries whose offset names no
// unit keep their node but get no unit edge.
func Build(res *model.Resource) *lattice.Graph {
	g := &lattice.Graph{}
	units := make(map[uint64]*model.CodeUnit, len(res.Units))
	for _, u := range res.Units {
		if _, dup := units[u.Offset]; !dup {
			units[u.Offset] = u
		}
	}

	own := func(name string, off uint64) {
		g.Nodes = append(g.Nodes, name)
		if u, ok := units[off]; ok {
			g.Edges = append(g.Edges, lattice.Edge{Caller: name, Callee: UnitLabel(u)})
		}
	}

	for _, f := range res.Header.Functions {
		own(f.Name, f.Offset)
	}
	for _, c := range res.Header.Classes {
		g.Nodes = append(g.Nodes, c.Name)
		for _, m := range c.Methods {
			name, ok := res.Header.Symbols.Name(m.Symbol)
			if !ok {
				name = model.Placeholder(m.Symbol)
			}
			qualified := symbol.Match{Kind: symbol.KindMethod, Name: name, Class: c.Name}.String()
			g.Edges = append(g.Edges, lattice.Edge{Caller: c.Name, Callee: qualified})
			own(qualified, m.Offset)
		}
	}
	for _, u := range res.Units {
		g.Nodes = append(g.Nodes, UnitLabel(u))
	}
	g.Dedup()
	return g
}

// DOT renders an ownership graph built by Build.
func DOT(g *lattice.Graph, title string) string {
	return render.DOT(g, title)
}
