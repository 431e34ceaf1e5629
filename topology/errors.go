package topology

import "errors"

// Sentinel errors returned by Graph mutation and lookup methods.
// Callers match with errors.Is; none of these are ever panics.
var (
	ErrDuplicateID       = errors.New("topology: duplicate id")
	ErrNodeNotFound      = errors.New("topology: node not found")
	ErrBranchNotFound    = errors.New("topology: branch not found")
	ErrSwitchNotFound    = errors.New("topology: switch not found")
	ErrInverterNotFound  = errors.New("topology: inverter source not found")
	ErrLoadNotFound      = errors.New("topology: load not found")
	ErrGeneratorNotFound = errors.New("topology: generator not found")

	ErrUnknownEndpoint = errors.New("topology: endpoint node does not exist")
	ErrSelfLoop        = errors.New("topology: element cannot connect a node to itself")
	ErrMultipleSlack   = errors.New("topology: at most one SLACK node is allowed")
	ErrParallelEdge    = errors.New("topology: parallel edge between node pair not allowed")
	ErrWouldDisconnect = errors.New("topology: addition would leave the in-service graph disconnected")
	ErrNodeInUse       = errors.New("topology: node is referenced by a branch or switch")
	ErrInvalidEntity   = errors.New("topology: entity failed validation")
)
