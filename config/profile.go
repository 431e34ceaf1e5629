package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// NewtonRaphsonDefaults mirrors powerflow.Options.
type NewtonRaphsonDefaults struct {
	MaxIter    int     `yaml:"max_iter"`
	Tolerance  float64 `yaml:"tolerance"`
	Damping    float64 `yaml:"damping"`
	TraceLevel string  `yaml:"trace_level"`
}

// FastDecoupledDefaults mirrors powerflow.FastDecoupledOptions.
type FastDecoupledDefaults struct {
	MaxIter               int     `yaml:"max_iter"`
	Tolerance             float64 `yaml:"tolerance"`
	Method                string  `yaml:"method"`
	AngleDamping          float64 `yaml:"angle_damping"`
	VoltageDamping        float64 `yaml:"voltage_damping"`
	RebuildMatricesEvery  int     `yaml:"rebuild_matrices_every"`
}

// SolverDefaults groups both solvers' tunables under one profile.
type SolverDefaults struct {
	NewtonRaphson NewtonRaphsonDefaults `yaml:"newton_raphson"`
	FastDecoupled FastDecoupledDefaults `yaml:"fast_decoupled"`
}

// Profile is one named solver configuration: a base power and the two
// solvers' default tunables.
type Profile struct {
	Name    string         `yaml:"name"`
	BaseMVA float64        `yaml:"base_mva"`
	Solvers SolverDefaults `yaml:"solvers"`
}

// Load reads and parses a Profile from path.
func Load(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("config: reading %q: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a Profile from raw YAML bytes.
func Parse(data []byte) (Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("config: parsing profile: %w", err)
	}
	if p.BaseMVA <= 0 {
		return Profile{}, fmt.Errorf("%w: base_mva must be > 0", ErrInvalidProfile)
	}
	return p, nil
}

// Default returns the built-in fallback profile used when no file is
// supplied: a 10 MVA base with conservative iteration limits.
func Default() Profile {
	return Profile{
		Name:    "default",
		BaseMVA: 10,
		Solvers: SolverDefaults{
			NewtonRaphson: NewtonRaphsonDefaults{
				MaxIter:    20,
				Tolerance:  1e-6,
				Damping:    1.0,
				TraceLevel: "minimal",
			},
			FastDecoupled: FastDecoupledDefaults{
				MaxIter:              30,
				Tolerance:            1e-6,
				Method:               "BX",
				AngleDamping:         1.0,
				VoltageDamping:       1.0,
				RebuildMatricesEvery: 0,
			},
		},
	}
}
