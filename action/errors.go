package action

import "errors"

// Sentinel rejection-cause errors, matching the failure-mode vocabulary
// of envelope validation. ValidateAction reports a rejection as
// ActionResult's RejectCode string plus the error text in Issues (so it
// survives the envelope/JSON boundary). The error ApplyAction returns
// wraps only ErrNotAccepted; the cause appears in its message.
var (
	ErrMissingField      = errors.New("action: missing_field")
	ErrInvalidType       = errors.New("action: invalid_type")
	ErrMissingPayloadKey = errors.New("action: missing_payload_key")
	ErrInvalidValue      = errors.New("action: invalid_value")
	ErrUnknownActionType = errors.New("action: unknown_action_type")
	ErrUnknownNode       = errors.New("action: unknown_node")
	ErrUnknownEntity     = errors.New("action: unknown_entity")

	// ErrNotAccepted is returned by ApplyAction when re-running
	// validation at apply time rejects the envelope or the mutation of
	// the cloned graph fails. The envelope's Status field is not read.
	ErrNotAccepted = errors.New("action: envelope is not accepted")
)
