// Package config loads solver default profiles from YAML through a
// pure loader function rather than a package-level global: every call returns an independent Profile, so
// concurrent solver runs with different profiles never interfere.
package config
