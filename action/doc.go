// Package action implements the typed edit envelope: a
// single proposed mutation over a parent snapshot, validated through
// structural, payload, referential, and domain-invariant checks before
// it is ever applied, and applied only through a copy-on-write clone of
// the parent graph so the parent is never mutated.
//
// The dynamic `map[string]any` payload a caller supplies is decoded
// into a typed, tagged variant with github.com/mitchellh/mapstructure
// and checked with github.com/go-playground/validator/v10 struct tags,
// turning "dynamic payload
// dictionaries" into tagged variants so illegal combinations become
// unrepresentable once decoding succeeds.
package action
