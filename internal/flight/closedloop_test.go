package flight

import (
	"context"
	"math"
	"testing"

	"github.com/apogee-sim/airbrakes/internal/control"
	"github.com/apogee-sim/airbrakes/internal/metrics"
	"github.com/apogee-sim/airbrakes/internal/sim"
)

// Closed-loop flights with the plant and the predictor sharing the same
// drag table and a uniform atmosphere, so the controller's model of the
// rocket is exact and any miss is the control law's own doing.

const (
	clMass = 20.0
	clArea = 0.012
	clRho  = 1.225
)

func closedLoop(t *testing.T, cfg control.Config, table control.DragTable) (*sim.Simulator, *control.Loop) {
	t.Helper()

	cfg.MaxDeployment = 1.0
	cfg.RateLimit = 0.5
	cfg.SamplingRateHz = 10
	cfg.AltitudeAlpha = 1.0
	cfg.VelocityAlpha = 1.0
	cfg.DragTable = table
	cfg.ReferenceArea = clArea
	cfg.Mass = clMass
	cfg.AirDensity = clRho

	loop, err := control.New(cfg)
	if err != nil {
		t.Fatalf("controller construction failed: %v", err)
	}

	plant := NewCoast(clMass, clArea, table)
	plant.Atmos = UniformAtmosphere(clRho)

	return sim.New(plant, NewRK4(), loop), loop
}

func TestClosedLoopPIDHitsTarget(t *testing.T) {
	table := control.DragTable{
		{Deployment: 0, Cd: 0.6},
		{Deployment: 1, Cd: 1.6},
	}
	s, loop := closedLoop(t, control.Config{
		Kind:         control.KindPID,
		TargetApogee: 3000,
		Kp:           0.002,
		Ki:           0.0001,
		Kd:           0.01,
	}, table)

	result, err := s.Run(context.Background(), sim.State{1800, 180}, sim.Config{Dt: 0.005, Duration: 40})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	// Brakes come out within the first five control ticks.
	period := loop.Config().Period()
	ticks5 := int(5 * period / 0.005)
	deployed := false
	for i := 0; i < ticks5 && i < len(result.Deployments); i++ {
		if result.Deployments[i] > 0 {
			deployed = true
			break
		}
	}
	if !deployed {
		t.Error("deployment never rose within the first five ticks")
	}

	// The clean airframe would coast well past the target; the
	// controller must pull it back to within 1%.
	if math.Abs(result.Apogee-3000) > 30 {
		t.Errorf("apogee %f missed 3000 m by more than 1%%", result.Apogee)
	}
	final := result.Predictions[len(result.Predictions)-1]
	if math.Abs(final-3000) > 30 {
		t.Errorf("final prediction %f missed 3000 m by more than 1%%", final)
	}
	if !loop.Locked() {
		t.Error("loop should be locked after apogee")
	}
}

func TestClosedLoopPIDBeatsCleanFlight(t *testing.T) {
	table := control.DragTable{
		{Deployment: 0, Cd: 0.6},
		{Deployment: 1, Cd: 1.6},
	}

	// Clean reference flight: brakes held in.
	plant := NewCoast(clMass, clArea, table)
	plant.Atmos = UniformAtmosphere(clRho)
	integ := NewRK4()
	x := sim.State{1800, 180}
	var clean float64
	for t0 := 0.0; t0 < 40; t0 += 0.005 {
		x = integ.Step(plant, x, sim.Control{0}, t0, 0.005)
		if x[0] > clean {
			clean = x[0]
		}
		if x[1] <= 0 {
			break
		}
	}
	if clean <= 3010 {
		t.Fatalf("scenario broken: clean apogee %f should overshoot the target", clean)
	}

	s, _ := closedLoop(t, control.Config{
		Kind:         control.KindPID,
		TargetApogee: 3000,
		Kp:           0.002,
		Ki:           0.0001,
		Kd:           0.01,
	}, table)
	result, err := s.Run(context.Background(), sim.State{1800, 180}, sim.Config{Dt: 0.005, Duration: 40})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if result.Apogee >= clean {
		t.Errorf("braked apogee %f did not improve on clean %f", result.Apogee, clean)
	}
}

func TestClosedLoopBangBangNoChatter(t *testing.T) {
	// Authority is deliberately modest here: even full brakes barely
	// reach the target, so the command saturates high and the hysteresis
	// band never flips it back. Deployment must not reverse direction.
	table := control.DragTable{
		{Deployment: 0, Cd: 0.60},
		{Deployment: 1, Cd: 0.68},
	}
	s, loop := closedLoop(t, control.Config{
		Kind:         control.KindBangBang,
		TargetApogee: 3000,
		Hysteresis:   5,
	}, table)

	toggles := metrics.NewToggles(0.01)
	s.AddMetric(toggles)

	result, err := s.Run(context.Background(), sim.State{1800, 180}, sim.Config{Dt: 0.005, Duration: 40})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if toggles.Value() > 2 {
		t.Errorf("bang-bang toggled %v times, want at most 2", toggles.Value())
	}
	if result.Apogee < 2990 || result.Apogee > 3035 {
		t.Errorf("bang-bang apogee %f out of expected band", result.Apogee)
	}
	if !loop.Locked() {
		t.Error("loop should be locked after apogee")
	}
}

func TestClosedLoopMPCRespectsRateLimit(t *testing.T) {
	table := control.DragTable{
		{Deployment: 0, Cd: 0.6},
		{Deployment: 1, Cd: 1.6},
	}
	s, loop := closedLoop(t, control.Config{
		Kind:         control.KindMPC,
		TargetApogee: 3000,
		Horizon:      0.5,
		Candidates:   11,
	}, table)

	result, err := s.Run(context.Background(), sim.State{1800, 180}, sim.Config{Dt: 0.005, Duration: 40})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	rate := loop.Config().RateLimit
	for i := 1; i < len(result.Deployments); i++ {
		delta := math.Abs(result.Deployments[i] - result.Deployments[i-1])
		if delta > rate*0.005+1e-9 {
			t.Fatalf("deployment slew %f at step %d exceeds the rate limit", delta, i)
		}
	}
	if result.Apogee > 3080 {
		t.Errorf("MPC left apogee at %f, expected braking toward 3000", result.Apogee)
	}
}
