package action

import "time"

// Type enumerates the supported action_type values.
type Type string

const (
	CreateNode    Type = "create_node"
	CreateBranch  Type = "create_branch"
	SetInService  Type = "set_in_service"
	SetPCC        Type = "set_pcc"
)

// Status is the lifecycle state of an Envelope.
type Status string

const (
	Pending  Status = "pending"
	Accepted Status = "accepted"
	Rejected Status = "rejected"
)

// Envelope is a typed description of a single proposed edit and the
// snapshot it targets.
type Envelope struct {
	ActionID         string
	ParentSnapshotID string
	ActionType       Type
	Payload          map[string]any
	CreatedAt        time.Time
	Status           Status
	Actor            *string
	SchemaVersion    *string
}

// ActionResult is the outcome of ValidateAction.
type ActionResult struct {
	Accepted   bool
	RejectCode string
	Issues     []string
}
