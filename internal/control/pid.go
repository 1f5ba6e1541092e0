package control

// pidLaw is a reverse-acting PID on predicted apogee error: predicting
// above the target means more braking, so the error is taken as
// predicted minus target. Anti-windup is conditional integration: the
// integral freezes whenever the output is pinned at a travel limit and
// the error would push it further past that limit.
type pidLaw struct {
	kp, ki, kd float64
	max        float64

	integral float64
	prevErr  float64
	first    bool
}

func (p *pidLaw) Compute(in LawInput) float64 {
	err := in.PredictedApogee - in.Target

	if p.first || in.Dt <= 0 {
		p.prevErr = err
		p.first = false
		return clamp(p.kp*err, 0, p.max)
	}

	derivative := (err - p.prevErr) / in.Dt

	trial := p.integral + err*in.Dt
	u := p.kp*err + p.ki*trial + p.kd*derivative

	switch {
	case u > p.max && err > 0:
		// Output saturated high and error still pushing up: hold the
		// integral at its previous value.
		u = p.kp*err + p.ki*p.integral + p.kd*derivative
	case u < 0 && err < 0:
		u = p.kp*err + p.ki*p.integral + p.kd*derivative
	default:
		p.integral = trial
	}

	p.prevErr = err
	return clamp(u, 0, p.max)
}

func (p *pidLaw) Reset() {
	p.integral = 0
	p.prevErr = 0
	p.first = true
}
