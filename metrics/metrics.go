// Package metrics provides optional Prometheus instrumentation for the
// solvers, grounded on jhkimqd-chaos-utils's use of
// github.com/prometheus/client_golang. The engine never imports a
// global registry: callers register a Sink's collectors on
// their own *prometheus.Registry and pass the Sink into powerflow
// calls that want counters incremented. A nil Sink (the default,
// powerflow.Input.Metrics unset) means instrumentation is skipped
// entirely with no performance or behavioral difference.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Sink is the narrow interface powerflow instruments against. Production code satisfies it with *Collectors; tests can
// satisfy it with a fake that just counts calls.
type Sink interface {
	ObserveIterations(method string, n int)
	IncConvergenceFailure(method string, cause string)
	IncPVToPQSwitch()
}

// Collectors bundles the Prometheus metrics the engine can emit. The
// zero value is unusable; build one with NewCollectors and register it
// on a registry before attaching it to a solver call.
type Collectors struct {
	iterations         *prometheus.HistogramVec
	convergenceFailures *prometheus.CounterVec
	pvToPQSwitches     prometheus.Counter
}

// NewCollectors constructs a Collectors with fresh metric vectors. The
// caller registers the returned Collectors on a *prometheus.Registry
// via MustRegister before use.
func NewCollectors() *Collectors {
	return &Collectors{
		iterations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mvgrid",
			Subsystem: "powerflow",
			Name:      "solver_iterations",
			Help:      "Iterations consumed by a power-flow solve, by method.",
			Buckets:   prometheus.LinearBuckets(1, 2, 15),
		}, []string{"method"}),
		convergenceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mvgrid",
			Subsystem: "powerflow",
			Name:      "solver_convergence_failures_total",
			Help:      "Power-flow solves that did not converge, by method and cause.",
		}, []string{"method", "cause"}),
		pvToPQSwitches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mvgrid",
			Subsystem: "powerflow",
			Name:      "pv_to_pq_switches_total",
			Help:      "PV->PQ bus conversions across all solves.",
		}),
	}
}

// MustRegister registers every collector on reg, panicking on a
// duplicate-registration error the same way prometheus.MustRegister
// does; callers that need graceful handling should register the
// individual fields themselves with reg.Register.
func (c *Collectors) MustRegister(reg *prometheus.Registry) {
	reg.MustRegister(c.iterations, c.convergenceFailures, c.pvToPQSwitches)
}

func (c *Collectors) ObserveIterations(method string, n int) {
	c.iterations.WithLabelValues(method).Observe(float64(n))
}

func (c *Collectors) IncConvergenceFailure(method, cause string) {
	c.convergenceFailures.WithLabelValues(method, cause).Inc()
}

func (c *Collectors) IncPVToPQSwitch() {
	c.pvToPQSwitches.Inc()
}
