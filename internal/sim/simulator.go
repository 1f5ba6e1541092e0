package sim

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/apogee-sim/airbrakes/internal/control"
)

// Simulator couples the coast dynamics, an integrator, and one control
// loop for a single flight. The controller is sampled every physics
// step with noisy sensor readings; its own period gating decides when
// the control law actually runs.
type Simulator struct {
	dyn        Dynamics
	integrator Integrator
	loop       *control.Loop
	metrics    []Metric
	observers  []Observer
}

func New(dyn Dynamics, integrator Integrator, loop *control.Loop) *Simulator {
	return &Simulator{
		dyn:        dyn,
		integrator: integrator,
		loop:       loop,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Loop exposes the controller, e.g. for post-run diagnostics.
func (s *Simulator) Loop() *control.Loop { return s.loop }

// Run simulates a coast from x0 = {altitude, velocity} until apogee or
// cfg.Duration, whichever comes first. The controller is armed from
// t=0: the harness models the coast phase only, boost is over before
// it starts.
func (s *Simulator) Run(ctx context.Context, x0 State, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}
	if len(x0) < 2 {
		return nil, fmt.Errorf("coast state needs {altitude, velocity}, got %d values", len(x0))
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	steps := int(cfg.Duration / cfg.Dt)
	result := &Result{
		Times:       make([]float64, 0, steps+1),
		States:      make([]State, 0, steps+1),
		Deployments: make([]float64, 0, steps+1),
		Predictions: make([]float64, 0, steps+1),
		Metrics:     make(map[string]float64),
		Errors:      make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	x := x0.Clone()
	t := 0.0
	result.Apogee = x[0]

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		rawAlt := x[0]
		rawVel := x[1]
		if cfg.AltNoise > 0 {
			rawAlt += rng.NormFloat64() * cfg.AltNoise
		}
		if cfg.VelNoise > 0 {
			rawVel += rng.NormFloat64() * cfg.VelNoise
		}

		d := s.loop.Update(t, rawAlt, rawVel, true)
		u := Control{d}

		for _, m := range s.metrics {
			m.Observe(x, u, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(x, u, t)
		}

		result.Times = append(result.Times, t)
		result.States = append(result.States, x.Clone())
		result.Deployments = append(result.Deployments, d)
		result.Predictions = append(result.Predictions, s.loop.Predicted())

		x = s.integrator.Step(s.dyn, x, u, t, cfg.Dt)
		t += cfg.Dt
		result.StepsTaken++

		if cfg.ValidateState && !x.IsValid() {
			err := SimError{Time: t, Step: i, Message: "invalid state (NaN/Inf)"}
			result.Errors = append(result.Errors, err)
			break
		}

		if x[0] > result.Apogee {
			result.Apogee = x[0]
			result.ApogeeTime = t
		}

		// Past apogee and the controller has noticed: the coast is over.
		if x[1] <= 0 && s.loop.Locked() {
			break
		}
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	result.Diag = s.loop.Diag()

	return result, nil
}

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	if cfg.AltNoise < 0 || cfg.VelNoise < 0 {
		return fmt.Errorf("noise sigmas must be non-negative")
	}
	return nil
}
