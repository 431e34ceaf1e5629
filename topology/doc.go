// Package topology is the authoritative in-memory container for a
// network's nodes, branches, switches, inverter sources, loads and
// generators. It enforces structural invariants (unique ids,
// referential integrity, single slack, parallel-edge policy) and
// exposes connectivity queries over the undirected multigraph formed
// by in-service branches and closed in-service switches.
//
// A single sync.RWMutex guards all maps; mutation is expected to be
// single-threaded by contract, and reads may run concurrently. Unlike
// a general-purpose graph library, Graph does not maintain a live
// adjacency index: the active-edge view is recomputed from the owning
// maps on every connectivity query, so toggling a branch's in_service
// flag or a switch's state can never leave a stale edge behind.
package topology
