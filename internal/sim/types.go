package sim

import (
	"fmt"
	"math"

	"github.com/apogee-sim/airbrakes/internal/control"
)

// State is the flight state vector. For the coast model it is
// {altitude m AGL, vertical velocity m/s}.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Control carries the realized airbrake deployment fraction to the
// dynamics model.
type Control []float64

type Dynamics interface {
	Derivative(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

type Integrator interface {
	Step(dyn Dynamics, x State, u Control, t float64, dt float64) State
}

type Metric interface {
	Name() string
	Observe(x State, u Control, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(x State, u Control, t float64)
}

type Config struct {
	Dt       float64 // physics step, independent of the control period
	Duration float64 // max simulated coast time
	Seed     int64

	// 1-sigma Gaussian noise added to the sensor samples fed to the
	// controller. Zero disables noise.
	AltNoise float64
	VelNoise float64

	ValidateState bool
}

type SimError struct {
	Time    float64
	Step    int
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("sim error at t=%.4f (step %d): %s", e.Time, e.Step, e.Message)
}

type Result struct {
	Times       []float64
	States      []State
	Deployments []float64 // realized deployment per step
	Predictions []float64 // controller apogee prediction per step

	Apogee     float64 // highest altitude reached
	ApogeeTime float64

	Metrics    map[string]float64
	Diag       control.Diagnostics
	Errors     []error
	StepsTaken int
}
