package fixtures

import (
	"fmt"

	"github.com/radekizk-sketch/mvgrid-core/topology"
)

// Constructor applies a deterministic mutation to g using cfg.
type Constructor func(g *topology.Graph, cfg config) error

// config holds the resolved, immutable parameters every topology
// constructor draws from. There is no package-level mutable state;
// every knob flows through this struct.
type config struct {
	voltageLevelKV float64

	rOhmPerKm     float64
	xOhmPerKm     float64
	bUsPerKm      float64
	lengthKm      float64
	ratedCurrentA float64

	loadPMW    float64
	loadQMvar  float64
	slackUPU   float64
	idPrefix   string
}

func defaultConfig() config {
	return config{
		voltageLevelKV: 20.0,
		rOhmPerKm:      0.32,
		xOhmPerKm:      0.35,
		bUsPerKm:       3.0,
		lengthKm:       1.0,
		ratedCurrentA:  300.0,
		loadPMW:        0.5,
		loadQMvar:      0.15,
		slackUPU:       1.0,
		idPrefix:       "N",
	}
}

// Option customizes a config before a topology is built.
type Option func(*config)

func WithVoltageLevelKV(kv float64) Option {
	return func(c *config) { c.voltageLevelKV = kv }
}

func WithLineParams(rOhmPerKm, xOhmPerKm, bUsPerKm, lengthKm, ratedCurrentA float64) Option {
	return func(c *config) {
		c.rOhmPerKm = rOhmPerKm
		c.xOhmPerKm = xOhmPerKm
		c.bUsPerKm = bUsPerKm
		c.lengthKm = lengthKm
		c.ratedCurrentA = ratedCurrentA
	}
}

func WithUniformLoad(pMW, qMvar float64) Option {
	return func(c *config) {
		c.loadPMW = pMW
		c.loadQMvar = qMvar
	}
}

func WithSlackVoltagePU(u float64) Option {
	return func(c *config) { c.slackUPU = u }
}

func WithIDPrefix(prefix string) Option {
	return func(c *config) { c.idPrefix = prefix }
}

func nodeID(cfg config, i int) string {
	return fmt.Sprintf("%s%d", cfg.idPrefix, i)
}

func branchID(cfg config, i int) string {
	return fmt.Sprintf("%sL%d", cfg.idPrefix, i)
}

// Build creates a new topology.Graph and applies each constructor in
// order, wrapping the first failure with its index.
func Build(opts []Option, cons ...Constructor) (*topology.Graph, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	g := topology.NewGraph()
	for i, c := range cons {
		if err := c(g, cfg); err != nil {
			return nil, fmt.Errorf("fixtures: constructor %d: %w", i, err)
		}
	}
	return g, nil
}
