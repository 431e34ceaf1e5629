package snapshot

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/radekizk-sketch/mvgrid-core/topology"
)

// Meta is the lineage block of a Snapshot.
type Meta struct {
	SnapshotID       string
	ParentSnapshotID string // empty for a root snapshot
	CreatedAt        time.Time
	SchemaVersion    string
	NetworkModelID   string
}

// Snapshot is an immutable, hashable capture of one network state at a
// point in time: its graph plus lineage metadata. A Snapshot never
// mutates; the action package produces a new one via copy-on-write.
type Snapshot struct {
	Meta  Meta
	Graph *topology.Graph
}

// NewID returns a fresh random 128-bit hex identifier, used wherever
// an opaque id is needed (snapshot_id, action_id, ...) and no
// parent/action id is available to derive one from deterministically.
func NewID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand.Read on every supported platform only fails when
		// the OS entropy source itself is broken; there is no sane
		// fallback, so surface it as a panic rather than return a
		// predictable id.
		panic(fmt.Errorf("snapshot: failed to generate id: %w", err))
	}
	return hex.EncodeToString(b[:])
}

// CreateSnapshot builds a new root-or-child Snapshot wrapping graph.
// parentID is empty for a root snapshot. Deriving a child snapshot
// from an accepted action envelope instead goes through the action
// package, which sets SnapshotID from the action id so replays are
// deterministic.
func CreateSnapshot(graph *topology.Graph, parentID, schemaVersion, networkModelID string) Snapshot {
	return Snapshot{
		Meta: Meta{
			SnapshotID:       NewID(),
			ParentSnapshotID: parentID,
			CreatedAt:        time.Now().UTC(),
			SchemaVersion:    schemaVersion,
			NetworkModelID:   networkModelID,
		},
		Graph: graph,
	}
}

// ToDict renders the snapshot as a plain, JSON-ready tree:
// {meta:{...}, graph:{nodes[], branches[], switches[],
// inverter_sources[], loads[], generators[], pcc_node_id}}.
func (s Snapshot) ToDict() map[string]any {
	nodes := s.Graph.Nodes()
	nodeList := make([]any, 0, len(nodes))
	for _, n := range nodes {
		nodeList = append(nodeList, n.ToCanonical())
	}

	branches := s.Graph.Branches()
	branchList := make([]any, 0, len(branches))
	for _, b := range branches {
		branchList = append(branchList, b.ToCanonical())
	}

	switches := s.Graph.Switches()
	switchList := make([]any, 0, len(switches))
	for _, sw := range switches {
		switchList = append(switchList, sw.ToCanonical())
	}

	inverters := s.Graph.AllInverterSources()
	inverterList := make([]any, 0, len(inverters))
	for _, iv := range inverters {
		inverterList = append(inverterList, iv.ToCanonical())
	}

	loads := s.Graph.Loads()
	loadList := make([]any, 0, len(loads))
	for _, l := range loads {
		loadList = append(loadList, l.ToCanonical())
	}

	generators := s.Graph.Generators()
	generatorList := make([]any, 0, len(generators))
	for _, gen := range generators {
		generatorList = append(generatorList, gen.ToCanonical())
	}

	var pcc any
	if id, ok := s.Graph.PCC(); ok {
		pcc = id
	}

	return map[string]any{
		"meta": map[string]any{
			"snapshot_id":        s.Meta.SnapshotID,
			"parent_snapshot_id": s.Meta.ParentSnapshotID,
			"created_at":         s.Meta.CreatedAt.Format(time.RFC3339Nano),
			"schema_version":     s.Meta.SchemaVersion,
			"network_model_id":  s.Meta.NetworkModelID,
		},
		"graph": map[string]any{
			"nodes":            nodeList,
			"branches":         branchList,
			"switches":         switchList,
			"inverter_sources": inverterList,
			"loads":            loadList,
			"generators":       generatorList,
			"pcc_node_id":      pcc,
		},
	}
}
