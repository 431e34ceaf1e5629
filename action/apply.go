package action

import (
	"fmt"

	"github.com/radekizk-sketch/mvgrid-core/snapshot"
	"github.com/radekizk-sketch/mvgrid-core/topology"
)

// ApplyAction validates env against parent and, if accepted, returns
// the child snapshot produced by applying it to a clone of parent's
// graph. The parent is never mutated: the returned
// snapshot wraps a fresh Graph, and parent.Graph is left untouched
// even on rejection.
//
// The child snapshot's id is derived from the action id rather than
// drawn fresh, so replaying the same accepted envelope against the
// same parent always yields the same snapshot id.
func ApplyAction(env Envelope, parent snapshot.Snapshot) (snapshot.Snapshot, ActionResult, error) {
	result := ValidateAction(env, parent)
	if !result.Accepted {
		return snapshot.Snapshot{}, result, fmt.Errorf("%w: %s", ErrNotAccepted, result.RejectCode)
	}

	clone := parent.Graph.Clone()
	if err := mutate(env, clone); err != nil {
		return snapshot.Snapshot{}, reject("domain_invariant_violation", err), fmt.Errorf("%w: %v", ErrNotAccepted, err)
	}

	createdAt := env.CreatedAt
	if createdAt.IsZero() {
		createdAt = parent.Meta.CreatedAt
	}
	child := snapshot.Snapshot{
		Meta: snapshot.Meta{
			SnapshotID:       env.ActionID,
			ParentSnapshotID: parent.Meta.SnapshotID,
			CreatedAt:        createdAt,
			SchemaVersion:    parent.Meta.SchemaVersion,
			NetworkModelID:   parent.Meta.NetworkModelID,
		},
		Graph: clone,
	}
	return child, result, nil
}

// mutate applies env's already-validated payload to g. It assumes
// ValidateAction has already accepted env against the snapshot g was
// cloned from, so errors here indicate the clone diverged from the
// validated state (e.g. a concurrent caller on the same parent), not a
// malformed envelope.
func mutate(env Envelope, g *topology.Graph) error {
	switch env.ActionType {
	case CreateNode:
		payload, err := DecodeCreateNode(env.Payload)
		if err != nil {
			return err
		}
		return g.AddNode(payload.ToNode(nodeID(payload.ID, env.ActionID)))
	case CreateBranch:
		payload, err := DecodeCreateBranch(env.Payload)
		if err != nil {
			return err
		}
		branch, err := payload.ToBranch(nodeID(payload.ID, env.ActionID))
		if err != nil {
			return err
		}
		return g.AddBranch(branch, true)
	case SetInService:
		payload, err := DecodeSetInService(env.Payload)
		if err != nil {
			return err
		}
		switch payload.EntityType {
		case "branch":
			return g.SetBranchInService(payload.EntityID, payload.InService)
		case "switch":
			return g.SetSwitchInService(payload.EntityID, payload.InService)
		default:
			return fmt.Errorf("%w: entity_type %q", ErrInvalidValue, payload.EntityType)
		}
	case SetPCC:
		payload, err := DecodeSetPCC(env.Payload)
		if err != nil {
			return err
		}
		return g.SetPCC(payload.NodeID)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownActionType, env.ActionType)
	}
}
