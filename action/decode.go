package action

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

// validate is a single shared validator instance. validator.Validate
// caches struct metadata internally and registers no mutable state
// beyond that cache, so sharing one instance across decodes is the
// idiomatic pattern (see the package's own README).
var validate = validator.New()

// decodePayload decodes a raw payload map into a typed struct with
// mapstructure (weakly-typed, so a JSON number arriving as float64
// still binds to an int field) and then checks the result against its
// `validate` struct tags.
func decodePayload(raw map[string]any, out any) error {
	if raw == nil {
		return fmt.Errorf("%w: empty payload", ErrMissingField)
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      false,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("action: building decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidType, err)
	}
	if err := validate.Struct(out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return nil
}

// DecodeCreateNode decodes and validates a create_node payload.
func DecodeCreateNode(raw map[string]any) (CreateNodePayload, error) {
	var p CreateNodePayload
	if err := decodePayload(raw, &p); err != nil {
		return p, err
	}
	if err := p.RequireFieldsForType(); err != nil {
		return p, err
	}
	return p, nil
}

// DecodeCreateBranch decodes and validates a create_branch payload.
func DecodeCreateBranch(raw map[string]any) (CreateBranchPayload, error) {
	var p CreateBranchPayload
	if err := decodePayload(raw, &p); err != nil {
		return p, err
	}
	return p, nil
}

// DecodeSetInService decodes and validates a set_in_service payload.
func DecodeSetInService(raw map[string]any) (SetInServicePayload, error) {
	var p SetInServicePayload
	if err := decodePayload(raw, &p); err != nil {
		return p, err
	}
	return p, nil
}

// DecodeSetPCC decodes and validates a set_pcc payload.
func DecodeSetPCC(raw map[string]any) (SetPCCPayload, error) {
	var p SetPCCPayload
	if err := decodePayload(raw, &p); err != nil {
		return p, err
	}
	return p, nil
}
