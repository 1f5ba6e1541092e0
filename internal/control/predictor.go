package control

import "math"

// Predictor extrapolates the remaining ballistic coast to apogee under
// a held deployment fraction. With quadratic drag the vertical equation
//
//	dv/dt = -g - k*v^2/m,  k = 0.5*rho*Cd(d)*A
//
// has a closed-form altitude gain to v=0:
//
//	rise = (m / 2k) * ln(1 + k*v^2 / (m*g))
//
// which is exact while Cd stays constant, so no per-tick numeric
// integration is needed.
type Predictor struct {
	table   DragTable
	area    float64
	mass    float64
	density float64
	gravity float64
}

func NewPredictor(cfg Config) *Predictor {
	return &Predictor{
		table:   cfg.DragTable,
		area:    cfg.ReferenceArea,
		mass:    cfg.Mass,
		density: cfg.AirDensity,
		gravity: cfg.Gravity,
	}
}

// dragFactor is k in the coast equation above.
func (p *Predictor) dragFactor(deployment float64) float64 {
	return 0.5 * p.density * p.table.Cd(deployment) * p.area
}

// Apogee predicts the apogee altitude from filtered altitude alt and
// vertical velocity vel, assuming deployment stays fixed. A
// non-positive velocity means the vehicle is already past apogee; the
// current altitude is returned and the caller treats that as the
// apogee-detection event.
func (p *Predictor) Apogee(alt, vel, deployment float64) float64 {
	if vel <= 0 {
		return alt
	}
	k := p.dragFactor(deployment)
	if k < 1e-12 {
		// Vacuum limit of the log expression.
		return alt + vel*vel/(2*p.gravity)
	}
	return alt + (p.mass/(2*k))*math.Log1p(k*vel*vel/(p.mass*p.gravity))
}

// Clean returns the apogee prediction with the brakes retracted. The
// spread between Clean and Apogee at full deployment is the control
// authority left at the current state.
func (p *Predictor) Clean(alt, vel float64) float64 {
	return p.Apogee(alt, vel, 0)
}
