package control

// bangBangLaw is a two-position law with a hysteresis band around the
// target: fully deploy when the predicted apogee is more than band
// above target, fully retract when more than band below, and hold the
// previous command inside the band so the output cannot chatter on an
// error hovering near zero.
type bangBangLaw struct {
	band float64
	max  float64

	prev float64
}

func (b *bangBangLaw) Compute(in LawInput) float64 {
	switch {
	case in.PredictedApogee > in.Target+b.band:
		b.prev = b.max
	case in.PredictedApogee < in.Target-b.band:
		b.prev = 0
	}
	return b.prev
}

func (b *bangBangLaw) Reset() {
	b.prev = 0
}
