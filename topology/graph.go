package topology

import (
	"fmt"
	"sync"

	"github.com/radekizk-sketch/mvgrid-core/entity"
)

// ParallelEdgePolicy selects how Graph treats a second element between
// an already-connected node pair.
type ParallelEdgePolicy int

const (
	// StrictNoParallel forbids any second branch or switch between a
	// node pair that already has one. This is the default.
	StrictNoParallel ParallelEdgePolicy = iota
	// PermissiveSwitchExempt allows a second element between a node
	// pair when at least one of the two elements is a Switch (treating
	// a line-plus-switch pairing as functionally non-parallel).
	PermissiveSwitchExempt
)

// Option configures a Graph at construction time.
type Option func(*Graph)

// WithParallelEdgePolicy overrides the default StrictNoParallel policy.
func WithParallelEdgePolicy(p ParallelEdgePolicy) Option {
	return func(g *Graph) { g.parallelEdgePolicy = p }
}

// Graph is the mutable container for one network's entities. The zero
// value is not usable; construct with NewGraph.
type Graph struct {
	mu sync.RWMutex

	parallelEdgePolicy ParallelEdgePolicy

	nodes      map[string]entity.Node
	branches   map[string]entity.Branch
	switches   map[string]entity.Switch
	inverters  map[string]entity.InverterSource
	loads      map[string]entity.Load
	generators map[string]entity.Generator

	pccNodeID *string
}

// NewGraph constructs an empty Graph.
func NewGraph(opts ...Option) *Graph {
	g := &Graph{
		nodes:      make(map[string]entity.Node),
		branches:   make(map[string]entity.Branch),
		switches:   make(map[string]entity.Switch),
		inverters:  make(map[string]entity.InverterSource),
		loads:      make(map[string]entity.Load),
		generators: make(map[string]entity.Generator),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// BuildGraph assembles a Graph from whole collections in one call,
// in a single call. Every element is
// validated and the graph invariants are enforced in the same order
// AddNode/AddBranch/AddSwitch/AddInverterSource would apply them.
func BuildGraph(nodes []entity.Node, branches []entity.Branch, switches []entity.Switch, inverters []entity.InverterSource, opts ...Option) (*Graph, error) {
	g := NewGraph(opts...)
	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			return nil, err
		}
	}
	for _, b := range branches {
		if err := g.AddBranch(b, false); err != nil {
			return nil, err
		}
	}
	for _, s := range switches {
		if err := g.AddSwitch(s); err != nil {
			return nil, err
		}
	}
	for _, s := range inverters {
		if err := g.AddInverterSource(s); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// AddNode inserts n. Fails on duplicate id, failed entity validation,
// or a second SLACK node; on any failure the graph is left unchanged.
func (g *Graph) AddNode(n entity.Node) error {
	if err := n.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEntity, err)
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[n.ID]; exists {
		return fmt.Errorf("%w: node %q", ErrDuplicateID, n.ID)
	}
	if n.NodeType == entity.Slack {
		for _, existing := range g.nodes {
			if existing.NodeType == entity.Slack {
				return fmt.Errorf("%w: node %q", ErrMultipleSlack, n.ID)
			}
		}
	}
	g.nodes[n.ID] = n
	return nil
}

// RemoveNode deletes the node identified by id. Fails if any branch or
// switch still references it; callers must remove those first.
func (g *Graph) RemoveNode(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.nodes[id]; !ok {
		return fmt.Errorf("%w: %q", ErrNodeNotFound, id)
	}
	for _, b := range g.branches {
		c := b.Common()
		if c.FromNodeID == id || c.ToNodeID == id {
			return fmt.Errorf("%w: node %q referenced by branch %q", ErrNodeInUse, id, c.ID)
		}
	}
	for _, s := range g.switches {
		if s.FromNodeID == id || s.ToNodeID == id {
			return fmt.Errorf("%w: node %q referenced by switch %q", ErrNodeInUse, id, s.ID)
		}
	}
	delete(g.nodes, id)
	return nil
}

// GetNode returns the node identified by id.
func (g *Graph) GetNode(id string) (entity.Node, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	if !ok {
		return entity.Node{}, fmt.Errorf("%w: %q", ErrNodeNotFound, id)
	}
	return n, nil
}

// SlackNode returns the network's single SLACK node.
func (g *Graph) SlackNode() (entity.Node, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, n := range g.nodes {
		if n.NodeType == entity.Slack {
			return n, nil
		}
	}
	return entity.Node{}, fmt.Errorf("%w: no SLACK node in graph", ErrNodeNotFound)
}

// NodeCount returns the number of nodes currently in the graph.
func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// endpointPair normalizes an unordered node pair for parallel-edge bookkeeping.
func endpointPair(a, b string) [2]string {
	if a <= b {
		return [2]string{a, b}
	}
	return [2]string{b, a}
}

// pairHasBranch reports whether any existing branch (excluding
// excludeID) connects the unordered pair (a,b).
func (g *Graph) pairHasBranch(a, b, excludeID string) bool {
	want := endpointPair(a, b)
	for id, br := range g.branches {
		if id == excludeID {
			continue
		}
		c := br.Common()
		if endpointPair(c.FromNodeID, c.ToNodeID) == want {
			return true
		}
	}
	return false
}

// pairHasSwitch reports whether any existing switch (excluding
// excludeID) connects the unordered pair (a,b).
func (g *Graph) pairHasSwitch(a, b, excludeID string) bool {
	want := endpointPair(a, b)
	for id, sw := range g.switches {
		if id == excludeID {
			continue
		}
		if endpointPair(sw.FromNodeID, sw.ToNodeID) == want {
			return true
		}
	}
	return false
}

func (g *Graph) checkParallel(from, to string, addingSwitch bool) error {
	hasBranch := g.pairHasBranch(from, to, "")
	hasSwitch := g.pairHasSwitch(from, to, "")
	if !hasBranch && !hasSwitch {
		return nil
	}
	switch g.parallelEdgePolicy {
	case PermissiveSwitchExempt:
		if addingSwitch {
			// A switch is always exempt against any existing element.
			return nil
		}
		// Adding a branch: only exempt if every existing element on the
		// pair is a switch (no existing impedance branch).
		if !hasBranch {
			return nil
		}
		return fmt.Errorf("%w: %s-%s", ErrParallelEdge, from, to)
	default: // StrictNoParallel
		return fmt.Errorf("%w: %s-%s", ErrParallelEdge, from, to)
	}
}

// AddBranch inserts b. Fails on duplicate id, missing endpoint,
// self-loop, a parallel-edge policy violation, or (when
// enforceConnected is true) if the resulting in-service graph is not
// fully connected, in which case the insertion is rolled back and the
// graph is left exactly as it was.
func (g *Graph) AddBranch(b entity.Branch, enforceConnected bool) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEntity, err)
	}
	c := b.Common()

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.branches[c.ID]; exists {
		return fmt.Errorf("%w: branch %q", ErrDuplicateID, c.ID)
	}
	if _, ok := g.nodes[c.FromNodeID]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEndpoint, c.FromNodeID)
	}
	if _, ok := g.nodes[c.ToNodeID]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEndpoint, c.ToNodeID)
	}
	if c.FromNodeID == c.ToNodeID {
		return fmt.Errorf("%w: branch %q", ErrSelfLoop, c.ID)
	}
	if err := g.checkParallel(c.FromNodeID, c.ToNodeID, false); err != nil {
		return err
	}

	g.branches[c.ID] = b

	if enforceConnected && !g.isConnectedLocked(true) {
		delete(g.branches, c.ID)
		return fmt.Errorf("%w: branch %q", ErrWouldDisconnect, c.ID)
	}
	return nil
}

// RemoveBranch deletes the branch identified by id.
func (g *Graph) RemoveBranch(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.branches[id]; !ok {
		return fmt.Errorf("%w: %q", ErrBranchNotFound, id)
	}
	delete(g.branches, id)
	return nil
}

// GetBranch returns the branch identified by id.
func (g *Graph) GetBranch(id string) (entity.Branch, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	b, ok := g.branches[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBranchNotFound, id)
	}
	return b, nil
}

// SetBranchInService toggles a branch's in-service flag. The
// active-edge set follows along, computed lazily the next time a
// connectivity query runs.
func (g *Graph) SetBranchInService(id string, inService bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	b, ok := g.branches[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrBranchNotFound, id)
	}
	clone := b.Clone()
	switch v := clone.(type) {
	case *entity.LineBranch:
		v.InService = inService
	case *entity.TransformerBranch:
		v.InService = inService
	}
	g.branches[id] = clone
	return nil
}

// Branches returns every branch in the graph, in arbitrary order.
func (g *Graph) Branches() []entity.Branch {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]entity.Branch, 0, len(g.branches))
	for _, b := range g.branches {
		out = append(out, b)
	}
	return out
}

// AddSwitch inserts s, subject to the same endpoint/self-loop/parallel
// rules as AddBranch.
func (g *Graph) AddSwitch(s entity.Switch) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEntity, err)
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.switches[s.ID]; exists {
		return fmt.Errorf("%w: switch %q", ErrDuplicateID, s.ID)
	}
	if _, ok := g.nodes[s.FromNodeID]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEndpoint, s.FromNodeID)
	}
	if _, ok := g.nodes[s.ToNodeID]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEndpoint, s.ToNodeID)
	}
	if s.FromNodeID == s.ToNodeID {
		return fmt.Errorf("%w: switch %q", ErrSelfLoop, s.ID)
	}
	if err := g.checkParallel(s.FromNodeID, s.ToNodeID, true); err != nil {
		return err
	}
	g.switches[s.ID] = s
	return nil
}

// RemoveSwitch deletes the switch identified by id.
func (g *Graph) RemoveSwitch(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.switches[id]; !ok {
		return fmt.Errorf("%w: %q", ErrSwitchNotFound, id)
	}
	delete(g.switches, id)
	return nil
}

// GetSwitch returns the switch identified by id.
func (g *Graph) GetSwitch(id string) (entity.Switch, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	s, ok := g.switches[id]
	if !ok {
		return entity.Switch{}, fmt.Errorf("%w: %q", ErrSwitchNotFound, id)
	}
	return s, nil
}

// SetSwitchState toggles a switch's open/closed state.
func (g *Graph) SetSwitchState(id string, state entity.SwitchState) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.switches[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrSwitchNotFound, id)
	}
	s.State = state
	g.switches[id] = s
	return nil
}

// SetSwitchInService toggles a switch's in-service flag, independent
// of its open/closed state.
func (g *Graph) SetSwitchInService(id string, inService bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.switches[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrSwitchNotFound, id)
	}
	s.InService = inService
	g.switches[id] = s
	return nil
}

// Switches returns every switch in the graph, sorted by id.
func (g *Graph) Switches() []entity.Switch {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]entity.Switch, 0, len(g.switches))
	for _, s := range g.switches {
		out = append(out, s)
	}
	sortSwitches(out)
	return out
}

// AddInverterSource inserts an inverter-based fault source.
func (g *Graph) AddInverterSource(s entity.InverterSource) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEntity, err)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.inverters[s.ID]; exists {
		return fmt.Errorf("%w: inverter source %q", ErrDuplicateID, s.ID)
	}
	if _, ok := g.nodes[s.NodeID]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEndpoint, s.NodeID)
	}
	g.inverters[s.ID] = s
	return nil
}

// RemoveInverterSource deletes the inverter source identified by id.
func (g *Graph) RemoveInverterSource(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.inverters[id]; !ok {
		return fmt.Errorf("%w: %q", ErrInverterNotFound, id)
	}
	delete(g.inverters, id)
	return nil
}

// GetInverterSourcesAtNode returns the in-service inverter sources
// attached to nodeID, sorted by id.
func (g *Graph) GetInverterSourcesAtNode(nodeID string) ([]entity.InverterSource, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if _, ok := g.nodes[nodeID]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrNodeNotFound, nodeID)
	}
	var out []entity.InverterSource
	for _, s := range g.inverters {
		if s.NodeID == nodeID && s.InService {
			out = append(out, s)
		}
	}
	sortInverters(out)
	return out, nil
}

// AllInverterSources returns every inverter source regardless of its
// in-service flag, sorted by id. Serialization uses this view so an
// out-of-service source survives a snapshot round-trip.
func (g *Graph) AllInverterSources() []entity.InverterSource {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]entity.InverterSource, 0, len(g.inverters))
	for _, s := range g.inverters {
		out = append(out, s)
	}
	sortInverters(out)
	return out
}

// InverterSources returns every in-service inverter source, sorted by id.
func (g *Graph) InverterSources() []entity.InverterSource {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []entity.InverterSource
	for _, s := range g.inverters {
		if s.InService {
			out = append(out, s)
		}
	}
	sortInverters(out)
	return out
}

// AddLoad attaches a Load to an existing node.
func (g *Graph) AddLoad(l entity.Load) error {
	if err := l.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEntity, err)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.loads[l.ID]; exists {
		return fmt.Errorf("%w: load %q", ErrDuplicateID, l.ID)
	}
	if _, ok := g.nodes[l.NodeID]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEndpoint, l.NodeID)
	}
	g.loads[l.ID] = l
	return nil
}

// RemoveLoad deletes the load identified by id.
func (g *Graph) RemoveLoad(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.loads[id]; !ok {
		return fmt.Errorf("%w: %q", ErrLoadNotFound, id)
	}
	delete(g.loads, id)
	return nil
}

// Loads returns every load in the graph.
func (g *Graph) Loads() []entity.Load {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]entity.Load, 0, len(g.loads))
	for _, l := range g.loads {
		out = append(out, l)
	}
	return out
}

// AddGenerator attaches a Generator to an existing node.
func (g *Graph) AddGenerator(gen entity.Generator) error {
	if err := gen.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEntity, err)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.generators[gen.ID]; exists {
		return fmt.Errorf("%w: generator %q", ErrDuplicateID, gen.ID)
	}
	if _, ok := g.nodes[gen.NodeID]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEndpoint, gen.NodeID)
	}
	g.generators[gen.ID] = gen
	return nil
}

// RemoveGenerator deletes the generator identified by id.
func (g *Graph) RemoveGenerator(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.generators[id]; !ok {
		return fmt.Errorf("%w: %q", ErrGeneratorNotFound, id)
	}
	delete(g.generators, id)
	return nil
}

// Generators returns every generator in the graph.
func (g *Graph) Generators() []entity.Generator {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]entity.Generator, 0, len(g.generators))
	for _, gen := range g.generators {
		out = append(out, gen)
	}
	return out
}

// SetPCC marks id as the network's point of common coupling. The node
// must already exist; SetPCC does not create it.
func (g *Graph) SetPCC(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.nodes[id]; !ok {
		return fmt.Errorf("%w: %q", ErrNodeNotFound, id)
	}
	g.pccNodeID = &id
	return nil
}

// PCC returns the current point-of-common-coupling node id, if set.
func (g *Graph) PCC() (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.pccNodeID == nil {
		return "", false
	}
	return *g.pccNodeID, true
}

// Nodes returns every node in the graph, in arbitrary order.
func (g *Graph) Nodes() []entity.Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]entity.Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	return out
}
