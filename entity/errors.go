package entity

import "errors"

// Sentinel validation errors. Callers match with errors.Is; messages
// returned from Validate wrap these with fmt.Errorf("%w: ...") so the
// offending field is visible to a human without losing the sentinel.
var (
	// ErrMissingField indicates a field required by the entity's variant
	// or type is unset (nil pointer, empty string where an id is required).
	ErrMissingField = errors.New("entity: required field missing")

	// ErrInvalidValue indicates a field is present but violates a range
	// or sign invariant (e.g. voltage_level_kv <= 0).
	ErrInvalidValue = errors.New("entity: invalid field value")

	// ErrSelfLoop indicates a branch or switch has identical from/to node ids.
	ErrSelfLoop = errors.New("entity: from and to node must differ")

	// ErrZeroImpedance indicates a line/cable branch resolves to a zero
	// series impedance, which cannot be inverted into an admittance.
	ErrZeroImpedance = errors.New("entity: branch impedance is zero")

	// ErrNegativeDiscriminant indicates a transformer's short-circuit
	// reactance cannot be derived because (uk%)^2 < (pk/Sn)^2.
	ErrNegativeDiscriminant = errors.New("entity: transformer impedance discriminant negative")

	// ErrUnknownEnumValue indicates a string did not match any known
	// enum member for the field being parsed.
	ErrUnknownEnumValue = errors.New("entity: unknown enum value")
)
