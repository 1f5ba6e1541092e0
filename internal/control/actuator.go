package control

// Actuator turns a desired deployment into the physically achievable
// one: travel clamped to [0,max], slew limited to rateLimit fractions
// per second, and optionally delayed by a fixed number of control
// ticks to model servo/computation lag.
//
// The lag line is a fixed-capacity ring buffer sized at construction;
// pushing and popping commands never allocates.
type Actuator struct {
	rateLimit float64
	max       float64

	lag   []float64 // ring of pending commands, len = lagTicks
	head  int
	count int

	target    float64 // last matured command the limiter slews toward
	hasTarget bool
}

func NewActuator(cfg Config) *Actuator {
	a := &Actuator{
		rateLimit: cfg.RateLimit,
		max:       cfg.MaxDeployment,
	}
	if cfg.LagTicks > 0 {
		a.lag = make([]float64, cfg.LagTicks)
	}
	return a
}

// Command enqueues a freshly computed deployment command. With lag, the
// command matures lagTicks pushes later; until the first command
// matures the limiter holds position.
func (a *Actuator) Command(desired float64) {
	if len(a.lag) == 0 {
		a.target = desired
		a.hasTarget = true
		return
	}
	if a.count == len(a.lag) {
		a.target = a.lag[a.head]
		a.hasTarget = true
		a.head = (a.head + 1) % len(a.lag)
		a.count--
	}
	a.lag[(a.head+a.count)%len(a.lag)] = desired
	a.count++
}

// Target reports the command currently presented to the rate limiter
// and whether any command has matured yet.
func (a *Actuator) Target() (float64, bool) {
	return a.target, a.hasTarget
}

// Track moves the realized deployment toward the matured command,
// honoring the rate limit over dt and the travel range. It reports the
// next position and whether the limiter had to truncate the request.
func (a *Actuator) Track(current, dt float64) (float64, bool) {
	if !a.hasTarget || dt <= 0 {
		return current, false
	}
	delta := a.target - current
	maxDelta := a.rateLimit * dt
	limited := false
	if delta > maxDelta {
		delta = maxDelta
		limited = true
	} else if delta < -maxDelta {
		delta = -maxDelta
		limited = true
	}
	return clamp(current+delta, 0, a.max), limited
}

// Override discards any pending lag-line commands and presents v to
// the rate limiter immediately. Used when the loop locks with
// retract-on-lock configured.
func (a *Actuator) Override(v float64) {
	a.head = 0
	a.count = 0
	a.target = v
	a.hasTarget = true
}

// Reset discards all pending and matured commands.
func (a *Actuator) Reset() {
	a.head = 0
	a.count = 0
	a.target = 0
	a.hasTarget = false
	for i := range a.lag {
		a.lag[i] = 0
	}
}
