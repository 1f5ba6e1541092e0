package control

import "math"

// mpcLaw is a receding-horizon candidate search: every tick it scores a
// fixed set of constant-deployment levels through the apogee predictor
// and commands the level whose predicted apogee lands closest to the
// target. Levels the actuator cannot reach from the current deployment
// within one horizon are excluded, so the selected command is always
// feasible under the rate limit. Cost per tick is one predictor call
// per level.
type mpcLaw struct {
	pred      *Predictor
	levels    int
	max       float64
	rateLimit float64
	horizon   float64
}

func (m *mpcLaw) Compute(in LawInput) float64 {
	reach := m.rateLimit * m.horizon

	best := in.Actual
	bestCost := math.Inf(1)

	step := m.max / float64(m.levels-1)
	for i := 0; i < m.levels; i++ {
		level := float64(i) * step
		if math.Abs(level-in.Actual) > reach {
			continue
		}
		apogee := m.pred.Apogee(in.Altitude, in.Velocity, level)
		cost := math.Abs(apogee - in.Target)
		if cost < bestCost {
			bestCost = cost
			best = level
		}
	}

	// Every level can be out of reach only if the actual deployment
	// drifted outside the grid spacing; holding position is then the
	// only feasible move.
	return clamp(best, 0, m.max)
}

func (m *mpcLaw) Reset() {}
