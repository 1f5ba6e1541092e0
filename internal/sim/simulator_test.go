package sim

import (
	"context"
	"math"
	"testing"

	"github.com/apogee-sim/airbrakes/internal/control"
)

// ballistic is a minimal drag-free test plant so the harness can be
// exercised without the flight package (which would be an import
// cycle from here anyway).
type ballistic struct{}

func (b *ballistic) Derivative(x State, u Control, t float64) State {
	return State{x[1], -9.80665}
}
func (b *ballistic) StateDim() int   { return 2 }
func (b *ballistic) ControlDim() int { return 1 }

type eulerStep struct{}

func (e *eulerStep) Step(dyn Dynamics, x State, u Control, t float64, dt float64) State {
	dx := dyn.Derivative(x, u, t)
	out := make(State, len(x))
	for i := range x {
		out[i] = x[i] + dt*dx[i]
	}
	return out
}

func testLoop(t *testing.T) *control.Loop {
	t.Helper()
	loop, err := control.New(control.Config{
		Kind:           control.KindPID,
		TargetApogee:   3000,
		SamplingRateHz: 10,
		MaxDeployment:  1.0,
		RateLimit:      0.5,
		AltitudeAlpha:  1.0,
		VelocityAlpha:  1.0,
		Kp:             0.002,
		Ki:             0.0001,
		Kd:             0.01,
		DragTable: control.DragTable{
			{Deployment: 0, Cd: 0.45},
			{Deployment: 1, Cd: 1.30},
		},
		ReferenceArea: 0.012,
		Mass:          20,
	})
	if err != nil {
		t.Fatalf("controller construction failed: %v", err)
	}
	return loop
}

func TestSimulatorRun(t *testing.T) {
	s := New(&ballistic{}, &eulerStep{}, testLoop(t))

	cfg := Config{Dt: 0.01, Duration: 60, ValidateState: true}
	x0 := State{1800, 180}

	result, err := s.Run(context.Background(), x0, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.Times) == 0 || len(result.Times) != len(result.States) {
		t.Fatalf("inconsistent history lengths: %d times, %d states", len(result.Times), len(result.States))
	}
	if len(result.Deployments) != len(result.Times) {
		t.Errorf("deployment history mismatch: %d vs %d", len(result.Deployments), len(result.Times))
	}

	// Drag-free apogee from 1800 m at 180 m/s.
	expected := 1800 + 180*180/(2*9.80665)
	if math.Abs(result.Apogee-expected) > 25 {
		t.Errorf("ballistic apogee %f, expected about %f", result.Apogee, expected)
	}

	// The run should stop shortly after apogee, not burn the full
	// duration.
	if result.StepsTaken >= int(cfg.Duration/cfg.Dt) {
		t.Error("run never detected apogee")
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	s := New(&ballistic{}, &eulerStep{}, testLoop(t))

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero dt", Config{Dt: 0, Duration: 1}},
		{"negative dt", Config{Dt: -0.1, Duration: 1}},
		{"zero duration", Config{Dt: 0.1, Duration: 0}},
		{"negative noise", Config{Dt: 0.1, Duration: 1, AltNoise: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Run(context.Background(), State{1800, 180}, tt.cfg); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestSimulatorShortState(t *testing.T) {
	s := New(&ballistic{}, &eulerStep{}, testLoop(t))
	if _, err := s.Run(context.Background(), State{1800}, Config{Dt: 0.01, Duration: 1}); err == nil {
		t.Error("expected error for 1-element state")
	}
}

func TestSimulatorCancellation(t *testing.T) {
	s := New(&ballistic{}, &eulerStep{}, testLoop(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Run(ctx, State{1800, 180}, Config{Dt: 0.01, Duration: 60})
	if err == nil {
		t.Error("expected context error")
	}
}

func TestSimulatorNoiseDeterminism(t *testing.T) {
	cfg := Config{Dt: 0.01, Duration: 60, Seed: 42, AltNoise: 5, VelNoise: 1}

	run := func() *Result {
		s := New(&ballistic{}, &eulerStep{}, testLoop(t))
		r, err := s.Run(context.Background(), State{1800, 180}, cfg)
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
		return r
	}

	a := run()
	b := run()
	if a.Apogee != b.Apogee || a.StepsTaken != b.StepsTaken {
		t.Errorf("identical seeds diverged: apogee %f vs %f", a.Apogee, b.Apogee)
	}
	for i := range a.Deployments {
		if a.Deployments[i] != b.Deployments[i] {
			t.Fatalf("deployment histories diverged at step %d", i)
		}
	}
}

func TestSimulatorMetrics(t *testing.T) {
	s := New(&ballistic{}, &eulerStep{}, testLoop(t))

	m := &countingMetric{}
	s.AddMetric(m)

	result, err := s.Run(context.Background(), State{1800, 180}, Config{Dt: 0.01, Duration: 60})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if _, ok := result.Metrics["count"]; !ok {
		t.Error("metric missing from result")
	}
	if m.count != result.StepsTaken {
		t.Errorf("metric observed %d steps, simulator took %d", m.count, result.StepsTaken)
	}
}

type countingMetric struct {
	count int
}

func (c *countingMetric) Name() string                          { return "count" }
func (c *countingMetric) Observe(x State, u Control, t float64) { c.count++ }
func (c *countingMetric) Value() float64                        { return float64(c.count) }
func (c *countingMetric) Reset()                                { c.count = 0 }
