package action

import (
	"fmt"

	"github.com/radekizk-sketch/mvgrid-core/obslog"
	"github.com/radekizk-sketch/mvgrid-core/snapshot"
)

func reject(code string, errs ...error) ActionResult {
	issues := make([]string, 0, len(errs))
	for _, e := range errs {
		if e != nil {
			issues = append(issues, e.Error())
		}
	}
	return ActionResult{Accepted: false, RejectCode: code, Issues: issues}
}

// ValidateAction runs the four-stage check every envelope must pass
// before it may be applied: structural shape, payload decoding, parent
// graph referential integrity, and the domain invariants the resulting
// mutation would leave behind. The earlier stages only read
// parent.Graph; the domain-invariant stage applies the mutation to a
// disposable clone, so validation itself never mutates the parent.
func ValidateAction(env Envelope, parent snapshot.Snapshot) ActionResult {
	return ValidateActionWithLog(env, parent, obslog.Nop())
}

// ValidateActionWithLog is ValidateAction with an attached observational
// logger: every rejection is logged as a structured debug event naming
// the action id and reject code, purely for operator visibility. The
// returned ActionResult is identical regardless of the logger attached.
func ValidateActionWithLog(env Envelope, parent snapshot.Snapshot, log obslog.Logger) ActionResult {
	res := validateAction(env, parent)
	if !res.Accepted {
		log.Event("debug", "action_rejected").
			Str("action_id", env.ActionID).Str("reject_code", res.RejectCode).Send()
	}
	return res
}

func validateAction(env Envelope, parent snapshot.Snapshot) ActionResult {
	if env.ActionID == "" {
		return reject("structural_invalid", fmt.Errorf("%w: action_id", ErrMissingField))
	}
	if env.ParentSnapshotID == "" {
		return reject("structural_invalid", fmt.Errorf("%w: parent_snapshot_id", ErrMissingField))
	}
	if env.ParentSnapshotID != parent.Meta.SnapshotID {
		return reject("structural_invalid", fmt.Errorf("%w: parent_snapshot_id %q does not match snapshot %q", ErrInvalidValue, env.ParentSnapshotID, parent.Meta.SnapshotID))
	}

	switch env.ActionType {
	case CreateNode:
		return validateCreateNode(env, parent)
	case CreateBranch:
		return validateCreateBranch(env, parent)
	case SetInService:
		return validateSetInService(env, parent)
	case SetPCC:
		return validateSetPCC(env, parent)
	default:
		return reject("unknown_action_type", fmt.Errorf("%w: %q", ErrUnknownActionType, env.ActionType))
	}
}

func nodeID(payloadID, actionID string) string {
	if payloadID != "" {
		return payloadID
	}
	return actionID
}

func validateCreateNode(env Envelope, parent snapshot.Snapshot) ActionResult {
	payload, err := DecodeCreateNode(env.Payload)
	if err != nil {
		return reject("payload_invalid", err)
	}
	id := nodeID(payload.ID, env.ActionID)
	if _, err := parent.Graph.GetNode(id); err == nil {
		return reject("referential_invalid", fmt.Errorf("node %q already exists", id))
	}

	clone := parent.Graph.Clone()
	if err := clone.AddNode(payload.ToNode(id)); err != nil {
		return reject("domain_invariant_violation", err)
	}
	return ActionResult{Accepted: true}
}

func validateCreateBranch(env Envelope, parent snapshot.Snapshot) ActionResult {
	payload, err := DecodeCreateBranch(env.Payload)
	if err != nil {
		return reject("payload_invalid", err)
	}
	if _, err := parent.Graph.GetNode(payload.FromNodeID); err != nil {
		return reject("unknown_node", fmt.Errorf("%w: from_node_id %q", ErrUnknownNode, payload.FromNodeID))
	}
	if _, err := parent.Graph.GetNode(payload.ToNodeID); err != nil {
		return reject("unknown_node", fmt.Errorf("%w: to_node_id %q", ErrUnknownNode, payload.ToNodeID))
	}
	id := nodeID(payload.ID, env.ActionID)
	if _, err := parent.Graph.GetBranch(id); err == nil {
		return reject("referential_invalid", fmt.Errorf("branch %q already exists", id))
	}

	branch, err := payload.ToBranch(id)
	if err != nil {
		return reject("payload_invalid", err)
	}
	clone := parent.Graph.Clone()
	if err := clone.AddBranch(branch, true); err != nil {
		return reject("domain_invariant_violation", err)
	}
	return ActionResult{Accepted: true}
}

func validateSetInService(env Envelope, parent snapshot.Snapshot) ActionResult {
	payload, err := DecodeSetInService(env.Payload)
	if err != nil {
		return reject("payload_invalid", err)
	}

	clone := parent.Graph.Clone()
	switch payload.EntityType {
	case "branch":
		if _, err := parent.Graph.GetBranch(payload.EntityID); err != nil {
			return reject("unknown_entity", fmt.Errorf("%w: branch %q", ErrUnknownEntity, payload.EntityID))
		}
		if err := clone.SetBranchInService(payload.EntityID, payload.InService); err != nil {
			return reject("domain_invariant_violation", err)
		}
	case "switch":
		if _, err := parent.Graph.GetSwitch(payload.EntityID); err != nil {
			return reject("unknown_entity", fmt.Errorf("%w: switch %q", ErrUnknownEntity, payload.EntityID))
		}
		if err := clone.SetSwitchInService(payload.EntityID, payload.InService); err != nil {
			return reject("domain_invariant_violation", err)
		}
	default:
		return reject("payload_invalid", fmt.Errorf("%w: entity_type %q", ErrInvalidValue, payload.EntityType))
	}
	return ActionResult{Accepted: true}
}

func validateSetPCC(env Envelope, parent snapshot.Snapshot) ActionResult {
	payload, err := DecodeSetPCC(env.Payload)
	if err != nil {
		return reject("payload_invalid", err)
	}
	if _, err := parent.Graph.GetNode(payload.NodeID); err != nil {
		return reject("unknown_node", fmt.Errorf("%w: node %q", ErrUnknownNode, payload.NodeID))
	}

	clone := parent.Graph.Clone()
	if err := clone.SetPCC(payload.NodeID); err != nil {
		return reject("domain_invariant_violation", err)
	}
	return ActionResult{Accepted: true}
}
