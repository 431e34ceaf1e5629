package topology

import "sort"

// activeAdjacency projects the owning maps to a simple (no parallel
// edges, no self-loops) undirected adjacency list of the currently
// active elements: in-service branches, plus, when includeSwitches is
// true, closed in-service switches. It is rebuilt on every call
// rather than maintained incrementally, since Graph
// mutation is single-threaded and connectivity queries are comparatively
// rare next to mutation.
func (g *Graph) activeAdjacency(includeSwitches bool) map[string]map[string]bool {
	adj := make(map[string]map[string]bool, len(g.nodes))
	for id := range g.nodes {
		adj[id] = make(map[string]bool)
	}
	addEdge := func(a, b string) {
		if _, ok := adj[a]; !ok {
			adj[a] = make(map[string]bool)
		}
		if _, ok := adj[b]; !ok {
			adj[b] = make(map[string]bool)
		}
		adj[a][b] = true
		adj[b][a] = true
	}
	for _, b := range g.branches {
		c := b.Common()
		if c.InService {
			addEdge(c.FromNodeID, c.ToNodeID)
		}
	}
	if includeSwitches {
		for _, s := range g.switches {
			if s.IsActive() {
				addEdge(s.FromNodeID, s.ToNodeID)
			}
		}
	}
	return adj
}

// components returns the connected components of adj as sorted id
// lists, each internally sorted lexically, using a breadth-first
// traversal.
func components(adj map[string]map[string]bool) [][]string {
	visited := make(map[string]bool, len(adj))
	var comps [][]string

	ids := make([]string, 0, len(adj))
	for id := range adj {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, start := range ids {
		if visited[start] {
			continue
		}
		queue := []string{start}
		visited[start] = true
		var comp []string
		for head := 0; head < len(queue); head++ {
			cur := queue[head]
			comp = append(comp, cur)
			neighbors := make([]string, 0, len(adj[cur]))
			for n := range adj[cur] {
				neighbors = append(neighbors, n)
			}
			sort.Strings(neighbors)
			for _, n := range neighbors {
				if !visited[n] {
					visited[n] = true
					queue = append(queue, n)
				}
			}
		}
		sort.Strings(comp)
		comps = append(comps, comp)
	}
	return comps
}

// sortIslands orders islands by the deterministic secondary rule: shorter islands first, then lexical comparison of the (already
// sorted) member lists.
func sortIslands(comps [][]string) {
	sort.Slice(comps, func(i, j int) bool {
		if len(comps[i]) != len(comps[j]) {
			return len(comps[i]) < len(comps[j])
		}
		for k := range comps[i] {
			if comps[i][k] != comps[j][k] {
				return comps[i][k] < comps[j][k]
			}
		}
		return false
	})
}

func (g *Graph) isConnectedLocked(inServiceOnly bool) bool {
	if len(g.nodes) == 0 {
		return false
	}
	comps := components(g.activeAdjacency(true))
	return len(comps) <= 1
}

// IsConnected reports whether every node in the graph is reachable from
// every other node through the active multigraph (in-service branches
// plus closed in-service switches), projected to a simple graph so
// parallel edges don't affect the result. inServiceOnly is accepted
// for caller convenience; the active view is always in-service-only
// by construction, so it has no additional effect.
func (g *Graph) IsConnected(inServiceOnly bool) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.isConnectedLocked(inServiceOnly)
}

// FindIslands returns the connected components of the active topology
// as sorted node-id lists, themselves ordered shorter-first then
// lexically.
func (g *Graph) FindIslands(inServiceOnly bool) [][]string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if len(g.nodes) == 0 {
		return nil
	}
	comps := components(g.activeAdjacency(true))
	sortIslands(comps)
	return comps
}

// GetConnectedNodes returns the node ids directly adjacent to nodeID in
// the active topology, sorted lexically.
func (g *Graph) GetConnectedNodes(nodeID string, inServiceOnly bool) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if _, ok := g.nodes[nodeID]; !ok {
		return nil, ErrNodeNotFound
	}
	adj := g.activeAdjacency(true)
	neighbors := make([]string, 0, len(adj[nodeID]))
	for n := range adj[nodeID] {
		neighbors = append(neighbors, n)
	}
	sort.Strings(neighbors)
	return neighbors, nil
}

// uniqueEdgeCount counts the distinct (unordered) node pairs connected
// by at least one active branch or switch, the E_unique term of the
// cycle test E_unique > V - C.
func (g *Graph) uniqueEdgeCount() int {
	seen := make(map[[2]string]bool)
	for _, b := range g.branches {
		c := b.Common()
		if c.InService {
			seen[endpointPair(c.FromNodeID, c.ToNodeID)] = true
		}
	}
	for _, s := range g.switches {
		if s.IsActive() {
			seen[endpointPair(s.FromNodeID, s.ToNodeID)] = true
		}
	}
	return len(seen)
}

// HasCycle reports whether the active topology contains a cycle, using
// E_unique > V - C (unique edges exceed the spanning-forest edge count
// given C connected components, including isolated nodes).
func (g *Graph) HasCycle() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if len(g.nodes) == 0 {
		return false
	}
	comps := components(g.activeAdjacency(true))
	v := len(g.nodes)
	c := len(comps)
	return g.uniqueEdgeCount() > v-c
}
