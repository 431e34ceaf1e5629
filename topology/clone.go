package topology

import (
	"sort"

	"github.com/radekizk-sketch/mvgrid-core/entity"
)

// Clone returns a deep, independent copy of g: every branch is cloned
// through entity.Branch.Clone; nodes, switches, inverter sources,
// loads, and generators are plain value types, so a fresh map copy is
// already a deep copy. This is the copy-on-write primitive the action
// package uses to produce a child snapshot's graph without ever
// mutating the parent.
func (g *Graph) Clone() *Graph {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := &Graph{
		parallelEdgePolicy: g.parallelEdgePolicy,
		nodes:              make(map[string]entity.Node, len(g.nodes)),
		branches:           make(map[string]entity.Branch, len(g.branches)),
		switches:           make(map[string]entity.Switch, len(g.switches)),
		inverters:          make(map[string]entity.InverterSource, len(g.inverters)),
		loads:              make(map[string]entity.Load, len(g.loads)),
		generators:         make(map[string]entity.Generator, len(g.generators)),
	}
	for id, n := range g.nodes {
		out.nodes[id] = n
	}
	for id, b := range g.branches {
		out.branches[id] = b.Clone()
	}
	for id, s := range g.switches {
		out.switches[id] = s
	}
	for id, s := range g.inverters {
		out.inverters[id] = s
	}
	for id, l := range g.loads {
		out.loads[id] = l
	}
	for id, gen := range g.generators {
		out.generators[id] = gen
	}
	if g.pccNodeID != nil {
		id := *g.pccNodeID
		out.pccNodeID = &id
	}
	return out
}

func sortSwitches(s []entity.Switch) {
	sort.Slice(s, func(i, j int) bool { return s[i].ID < s[j].ID })
}

func sortInverters(s []entity.InverterSource) {
	sort.Slice(s, func(i, j int) bool { return s[i].ID < s[j].ID })
}
