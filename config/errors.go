package config

import "errors"

var ErrInvalidProfile = errors.New("config: invalid profile")
