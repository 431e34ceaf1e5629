package powerflow

import "errors"

// Sentinel preflight failure causes. Each PreflightError wraps one of
// these with the offending id.
var (
	ErrBaseMVA            = errors.New("powerflow: base_mva must be > 0")
	ErrSlackNotInGraph    = errors.New("powerflow: slack node not in graph")
	ErrDuplicateID        = errors.New("powerflow: duplicate id across pq/pv/shunts/limits/taps")
	ErrSlackAlsoPQOrPV    = errors.New("powerflow: slack node also listed as pq or pv")
	ErrBusBothPQAndPV     = errors.New("powerflow: node classified as both pq and pv")
	ErrQLimitsInverted    = errors.New("powerflow: q_min must be <= q_max")
	ErrULimitsInverted    = errors.New("powerflow: u_min must be < u_max")
	ErrTapNotTransformer  = errors.New("powerflow: tap refers to a non-transformer branch")
	ErrUnknownBranchLimit = errors.New("powerflow: branch limit refers to an unknown branch")
)

// PreflightError is one failed preflight check.
type PreflightError struct {
	Cause error
	ID    string
}

func (e PreflightError) Error() string {
	if e.ID == "" {
		return e.Cause.Error()
	}
	return e.Cause.Error() + ": " + e.ID
}

func (e PreflightError) Unwrap() error { return e.Cause }
