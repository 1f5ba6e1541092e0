package control

// Smooth applies one step of exponential smoothing. Higher alpha
// follows the raw sample more closely and passes more noise; alpha=1
// disables filtering. The caller owns the previous value; Smooth has
// no state of its own.
func Smooth(prev, raw, alpha float64) float64 {
	return alpha*raw + (1-alpha)*prev
}
