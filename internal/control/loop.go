package control

import "math"

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseActive
	PhaseLocked
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseActive:
		return "active"
	case PhaseLocked:
		return "locked"
	default:
		return "unknown"
	}
}

// State is the full mutable state of one control loop. It is owned
// exclusively by its Loop; parallel trials must each hold their own
// Loop instance (or call Reset between runs), never share one.
type State struct {
	FilteredAltitude float64
	FilteredVelocity float64
	Commanded        float64 // last law output, before actuator shaping
	Actual           float64 // realized deployment, the value with physical effect
	Predicted        float64 // last apogee prediction

	lastTick float64 // time of the last law evaluation
	lastCall float64 // time of the last Update call, for slew dt
	phase    Phase
	seeded   bool // filters initialized from the first finite sample
	started  bool // at least one Update call seen
}

// Loop runs the airbrake control pipeline at a fixed period,
// independent of the flight integrator's step size: sensor smoothing,
// apogee prediction, control law, actuator shaping. The integrator
// calls Update every physics step and applies the returned deployment
// fraction to its drag model.
type Loop struct {
	cfg  Config
	pred *Predictor
	law  Law
	act  *Actuator
	st   State
	diag Diagnostics
}

// New validates cfg and builds a loop in the Idle phase. On any
// configuration contract violation it returns a *ConfigError and no
// loop.
func New(cfg Config) (*Loop, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pred := NewPredictor(cfg)
	l := &Loop{
		cfg:  cfg,
		pred: pred,
		law:  newLaw(cfg, pred),
		act:  NewActuator(cfg),
	}
	l.st.lastTick = math.Inf(-1)
	return l, nil
}

// Update advances the loop to time t given raw sensor samples. armed
// reports whether the coast/control phase has begun; before that the
// brakes are held retracted. The return value is the realized
// deployment fraction in [0, MaxDeployment].
//
// Calling Update after the loop has locked at apogee is a caller
// contract violation; it is absorbed as a no-op (the frozen deployment
// is returned) and counted in Diagnostics.LockedCalls.
func (l *Loop) Update(t, rawAlt, rawVel float64, armed bool) float64 {
	if !l.st.started {
		l.st.lastCall = t
		l.st.started = true
	}
	dt := t - l.st.lastCall
	l.st.lastCall = t

	if l.st.phase == PhaseLocked {
		l.diag.LockedCalls++
		if l.cfg.RetractOnLock {
			l.st.Actual, _ = l.act.Track(l.st.Actual, dt)
		}
		return l.st.Actual
	}

	l.ingest(rawAlt, rawVel)

	if l.st.phase == PhaseIdle {
		if armed {
			l.st.phase = PhaseActive
		} else {
			return 0
		}
	}

	if t-l.st.lastTick >= l.cfg.Period()-1e-9 {
		l.tick(t)
		if l.st.phase == PhaseLocked {
			return l.st.Actual
		}
	}

	actual, limited := l.act.Track(l.st.Actual, dt)
	if limited {
		l.diag.Saturation++
	}
	l.st.Actual = actual
	return actual
}

// ingest runs the sensor filter. Non-finite samples skip the filter
// step, keeping the previous filtered values; the event is counted but
// never fatal.
func (l *Loop) ingest(rawAlt, rawVel float64) {
	if !finite(rawAlt) || !finite(rawVel) {
		l.diag.BadSamples++
		return
	}
	if !l.st.seeded {
		l.st.FilteredAltitude = rawAlt
		l.st.FilteredVelocity = rawVel
		l.st.seeded = true
		return
	}
	l.st.FilteredAltitude = Smooth(l.st.FilteredAltitude, rawAlt, l.cfg.AltitudeAlpha)
	l.st.FilteredVelocity = Smooth(l.st.FilteredVelocity, rawVel, l.cfg.VelocityAlpha)
}

// tick is one scheduled control-law evaluation.
func (l *Loop) tick(t float64) {
	l.st.Predicted = l.pred.Apogee(l.st.FilteredAltitude, l.st.FilteredVelocity, l.st.Actual)

	if l.st.FilteredVelocity <= 0 {
		// Apogee: freeze the brakes, or send them home if configured.
		l.st.phase = PhaseLocked
		if l.cfg.RetractOnLock {
			l.act.Override(0)
		}
		return
	}

	lawDt := t - l.st.lastTick
	if math.IsInf(lawDt, 1) {
		lawDt = l.cfg.Period()
	}
	desired := l.law.Compute(LawInput{
		Altitude:        l.st.FilteredAltitude,
		Velocity:        l.st.FilteredVelocity,
		PredictedApogee: l.st.Predicted,
		Target:          l.cfg.OvershootBias * l.cfg.TargetApogee,
		Actual:          l.st.Actual,
		Dt:              lawDt,
	})
	l.st.Commanded = clamp(desired, 0, l.cfg.MaxDeployment)
	l.act.Command(l.st.Commanded)
	l.st.lastTick = t
}

// Reset returns the loop to its initial Idle state. Every field of
// State, the law's internal terms, the actuator's pending commands,
// and the diagnostics counters are restored, so a reset loop fed the
// same samples reproduces the same outputs.
func (l *Loop) Reset() {
	l.st = State{lastTick: math.Inf(-1)}
	l.diag = Diagnostics{}
	l.law.Reset()
	l.act.Reset()
}

// Deployment reports the last realized deployment fraction.
func (l *Loop) Deployment() float64 { return l.st.Actual }

// Commanded reports the last control-law output before actuator shaping.
func (l *Loop) Commanded() float64 { return l.st.Commanded }

// Predicted reports the last apogee prediction.
func (l *Loop) Predicted() float64 { return l.st.Predicted }

// Phase reports the loop's lifecycle phase.
func (l *Loop) Phase() Phase { return l.st.phase }

// Locked reports whether apogee has been detected; the integrator may
// stop calling Update once true.
func (l *Loop) Locked() bool { return l.st.phase == PhaseLocked }

// State returns a copy of the loop's mutable state.
func (l *Loop) State() State { return l.st }

// Diag returns the diagnostics counters accumulated since the last
// reset.
func (l *Loop) Diag() Diagnostics { return l.diag }

// Config returns the loop's configuration with defaults applied.
func (l *Loop) Config() Config { return l.cfg }

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
