package metrics

import (
	"math"

	"github.com/apogee-sim/airbrakes/internal/sim"
)

// ApogeeError tracks the highest altitude seen and reports its
// absolute miss distance from the target apogee.
type ApogeeError struct {
	name   string
	target float64
	peak   float64
}

func NewApogeeError(target float64) *ApogeeError {
	return &ApogeeError{
		name:   "apogee_error",
		target: target,
		peak:   math.Inf(-1),
	}
}

func (a *ApogeeError) Name() string {
	return a.name
}

func (a *ApogeeError) Observe(x sim.State, u sim.Control, t float64) {
	if len(x) > 0 && x[0] > a.peak {
		a.peak = x[0]
	}
}

func (a *ApogeeError) Value() float64 {
	if math.IsInf(a.peak, -1) {
		return 0
	}
	return math.Abs(a.peak - a.target)
}

func (a *ApogeeError) Reset() {
	a.peak = math.Inf(-1)
}
