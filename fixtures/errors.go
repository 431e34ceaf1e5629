package fixtures

import "errors"

var ErrTooFewNodes = errors.New("fixtures: n is too small for this topology")
