package control

import (
	"math"
	"testing"
)

func testPredictor() *Predictor {
	return NewPredictor(validConfig().withDefaults())
}

func TestPredictorPastApogee(t *testing.T) {
	p := testPredictor()

	if got := p.Apogee(2500, 0, 0.5); got != 2500 {
		t.Errorf("v=0 should return current altitude, got %f", got)
	}
	if got := p.Apogee(2500, -15, 0.5); got != 2500 {
		t.Errorf("descending should return current altitude, got %f", got)
	}
}

func TestPredictorVacuumLimit(t *testing.T) {
	cfg := validConfig().withDefaults()
	cfg.DragTable = DragTable{{Deployment: 0, Cd: 0}, {Deployment: 1, Cd: 0}}
	p := NewPredictor(cfg)

	alt, vel := 1000.0, 100.0
	expected := alt + vel*vel/(2*cfg.Gravity)
	got := p.Apogee(alt, vel, 0)
	if math.Abs(got-expected) > 1e-6 {
		t.Errorf("zero drag apogee = %f, expected %f", got, expected)
	}
}

func TestPredictorMonotonicInDeployment(t *testing.T) {
	p := testPredictor()

	prev := math.Inf(1)
	for _, d := range []float64{0, 0.25, 0.5, 0.75, 1.0} {
		apogee := p.Apogee(1800, 180, d)
		if apogee > prev {
			t.Errorf("apogee should not increase with deployment: d=%.2f gave %f after %f", d, apogee, prev)
		}
		prev = apogee
	}
}

// referenceApogee integrates the coast numerically with a very fine
// step to check the closed-form solution.
func referenceApogee(p *Predictor, alt, vel, deployment float64) float64 {
	k := p.dragFactor(deployment)
	h, v := alt, vel
	dt := 1e-4
	for v > 0 {
		a := -p.gravity - k*v*v/p.mass
		h += v * dt
		v += a * dt
	}
	return h
}

func TestPredictorAgainstReference(t *testing.T) {
	p := testPredictor()

	tests := []struct {
		alt, vel, d float64
	}{
		{1800, 180, 0.0},
		{1800, 180, 0.5},
		{1800, 180, 1.0},
		{400, 95, 0.3},
		{2900, 30, 1.0},
		{1000, 250, 0.7}, // near Mach 0.8
	}

	for _, tt := range tests {
		got := p.Apogee(tt.alt, tt.vel, tt.d)
		ref := referenceApogee(p, tt.alt, tt.vel, tt.d)
		rise := ref - tt.alt
		if rise <= 0 {
			t.Fatalf("reference produced no rise for %+v", tt)
		}
		relErr := math.Abs(got-ref) / rise
		if relErr > 0.02 {
			t.Errorf("apogee(%.0f, %.0f, %.2f) = %.2f, reference %.2f, rel err %.4f > 2%%",
				tt.alt, tt.vel, tt.d, got, ref, relErr)
		}
	}
}

func TestPredictorClean(t *testing.T) {
	p := testPredictor()
	if p.Clean(1800, 180) != p.Apogee(1800, 180, 0) {
		t.Error("Clean should equal Apogee at zero deployment")
	}
}
