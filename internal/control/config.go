package control

import "math"

type Kind string

const (
	KindPID      Kind = "pid"
	KindBangBang Kind = "bangbang"
	KindMPC      Kind = "mpc"
)

// DragPoint maps a deployment fraction to the drag coefficient the
// airframe presents at that brake extension.
type DragPoint struct {
	Deployment float64
	Cd         float64
}

// DragTable is an ordered sequence of DragPoints covering [0,1],
// non-decreasing in both columns.
type DragTable []DragPoint

// Cd interpolates the drag coefficient at deployment fraction d,
// clamping outside the table's range.
func (t DragTable) Cd(d float64) float64 {
	if len(t) == 0 {
		return 0
	}
	if d <= t[0].Deployment {
		return t[0].Cd
	}
	last := t[len(t)-1]
	if d >= last.Deployment {
		return last.Cd
	}
	for i := 1; i < len(t); i++ {
		if d <= t[i].Deployment {
			lo, hi := t[i-1], t[i]
			span := hi.Deployment - lo.Deployment
			if span <= 0 {
				return lo.Cd
			}
			frac := (d - lo.Deployment) / span
			return lo.Cd + frac*(hi.Cd-lo.Cd)
		}
	}
	return last.Cd
}

func (t DragTable) validate() *ConfigError {
	if len(t) == 0 {
		return &ConfigError{Field: "drag_table", Reason: "must not be empty"}
	}
	for i, p := range t {
		if p.Deployment < 0 || p.Deployment > 1 {
			return &ConfigError{Field: "drag_table", Reason: "deployment fractions must lie in [0,1]"}
		}
		if p.Cd < 0 || math.IsNaN(p.Cd) {
			return &ConfigError{Field: "drag_table", Reason: "drag coefficients must be non-negative"}
		}
		if i > 0 {
			if p.Deployment <= t[i-1].Deployment {
				return &ConfigError{Field: "drag_table", Reason: "deployment fractions must be strictly increasing"}
			}
			if p.Cd < t[i-1].Cd {
				return &ConfigError{Field: "drag_table", Reason: "drag coefficients must be non-decreasing"}
			}
		}
	}
	return nil
}

// Config holds every parameter of the control loop. It is treated as an
// immutable value: the loop copies it at construction and never writes
// back.
type Config struct {
	Kind Kind

	TargetApogee   float64 // m AGL
	SamplingRateHz float64 // control-law evaluations per second
	MaxDeployment  float64 // fraction of full travel, (0,1]
	RateLimit      float64 // fraction of full travel per second

	AltitudeAlpha float64 // exponential smoothing, (0,1]
	VelocityAlpha float64
	OvershootBias float64 // multiplies the target; 1 = no bias

	// PID gains.
	Kp, Ki, Kd float64

	// Bang-bang hysteresis half-band, meters of predicted apogee.
	Hysteresis float64

	// MPC receding-horizon parameters.
	Horizon    float64 // s
	Candidates int     // constant-deployment levels searched per tick

	// Actuator servo/computation lag, in whole control ticks.
	LagTicks int

	// RetractOnLock commands the brakes back to zero after apogee
	// instead of freezing them at their last position.
	RetractOnLock bool

	DragTable     DragTable
	ReferenceArea float64 // m^2
	Mass          float64 // kg, coast (burnout) mass
	AirDensity    float64 // kg/m^3 used by the predictor
	Gravity       float64 // m/s^2
}

const (
	defaultOvershootBias = 1.0
	defaultCandidates    = 11
	defaultAirDensity    = 1.225
	defaultGravity       = 9.80665
)

// withDefaults fills the zero-value optional fields. Mandatory fields
// are left alone so Validate can reject them.
func (c Config) withDefaults() Config {
	if c.OvershootBias == 0 {
		c.OvershootBias = defaultOvershootBias
	}
	if c.Candidates == 0 {
		c.Candidates = defaultCandidates
	}
	if c.AirDensity == 0 {
		c.AirDensity = defaultAirDensity
	}
	if c.Gravity == 0 {
		c.Gravity = defaultGravity
	}
	return c
}

// Period returns the control-loop period in seconds.
func (c Config) Period() float64 { return 1.0 / c.SamplingRateHz }

// Validate checks every construction-time contract. A non-nil result
// means no controller may be built from this config.
func (c Config) Validate() error {
	switch c.Kind {
	case KindPID, KindBangBang, KindMPC:
	default:
		return &ConfigError{Field: "kind", Reason: "unknown controller kind " + string(c.Kind)}
	}
	if c.TargetApogee <= 0 {
		return &ConfigError{Field: "target_apogee", Reason: "must be positive"}
	}
	if c.SamplingRateHz <= 0 {
		return &ConfigError{Field: "sampling_rate_hz", Reason: "must be positive"}
	}
	if c.MaxDeployment <= 0 || c.MaxDeployment > 1 {
		return &ConfigError{Field: "max_deployment", Reason: "must lie in (0,1]"}
	}
	if c.RateLimit <= 0 {
		return &ConfigError{Field: "rate_limit", Reason: "must be positive"}
	}
	if c.AltitudeAlpha <= 0 || c.AltitudeAlpha > 1 {
		return &ConfigError{Field: "altitude_alpha", Reason: "must lie in (0,1]"}
	}
	if c.VelocityAlpha <= 0 || c.VelocityAlpha > 1 {
		return &ConfigError{Field: "velocity_alpha", Reason: "must lie in (0,1]"}
	}
	if c.OvershootBias < 0 {
		return &ConfigError{Field: "overshoot_bias", Reason: "must be non-negative"}
	}
	if c.Kind == KindBangBang && c.Hysteresis < 0 {
		return &ConfigError{Field: "hysteresis", Reason: "must be non-negative"}
	}
	if c.Kind == KindMPC {
		if c.Horizon <= 0 {
			return &ConfigError{Field: "horizon", Reason: "must be positive"}
		}
		if c.Candidates < 2 {
			return &ConfigError{Field: "candidates", Reason: "need at least 2 levels"}
		}
	}
	if c.LagTicks < 0 {
		return &ConfigError{Field: "lag_ticks", Reason: "must be non-negative"}
	}
	if err := c.DragTable.validate(); err != nil {
		return err
	}
	if c.ReferenceArea <= 0 {
		return &ConfigError{Field: "reference_area", Reason: "must be positive"}
	}
	if c.Mass <= 0 {
		return &ConfigError{Field: "mass", Reason: "must be positive"}
	}
	if c.AirDensity <= 0 {
		return &ConfigError{Field: "air_density", Reason: "must be positive"}
	}
	if c.Gravity <= 0 {
		return &ConfigError{Field: "gravity", Reason: "must be positive"}
	}
	return nil
}
