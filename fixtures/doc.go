// Package fixtures builds deterministic synthetic networks for tests
// and examples: radial feeders, rings, stars, and meshes, each built
// by a closure-based Constructor so call sites compose a topology with
// options and get back fully-formed entity.Node/entity.Branch/
// entity.Switch sets.
package fixtures
