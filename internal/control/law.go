package control

// LawInput is the filtered state handed to a control law once per
// scheduled tick.
type LawInput struct {
	Altitude        float64 // filtered, m AGL
	Velocity        float64 // filtered, m/s, positive ascending
	PredictedApogee float64 // predictor output at the current actual deployment
	Target          float64 // configured target apogee, bias already applied
	Actual          float64 // last realized deployment fraction
	Dt              float64 // time since the previous law evaluation
}

// Law maps filtered state and predicted apogee error to a desired
// deployment fraction in [0, max]. Implementations keep only their own
// state and must restore it fully on Reset.
type Law interface {
	Compute(in LawInput) float64
	Reset()
}

// newLaw selects the concrete law for the configured kind. The set is
// closed; Config.Validate has already rejected unknown kinds.
func newLaw(cfg Config, pred *Predictor) Law {
	switch cfg.Kind {
	case KindBangBang:
		return &bangBangLaw{band: cfg.Hysteresis, max: cfg.MaxDeployment}
	case KindMPC:
		return &mpcLaw{
			pred:      pred,
			levels:    cfg.Candidates,
			max:       cfg.MaxDeployment,
			rateLimit: cfg.RateLimit,
			horizon:   cfg.Horizon,
		}
	default:
		return &pidLaw{kp: cfg.Kp, ki: cfg.Ki, kd: cfg.Kd, max: cfg.MaxDeployment, first: true}
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
