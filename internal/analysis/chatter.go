// Package analysis post-processes flight histories: spectral analysis
// of the deployment trace to quantify actuator chatter.
package analysis

import (
	"math"
	"math/cmplx"
)

// FFT computes the discrete Fourier transform via radix-2
// Cooley-Tukey. Input length must be a power of two; use pad for
// arbitrary histories.
func FFT(data []float64) []complex128 {
	n := len(data)
	if n <= 1 {
		result := make([]complex128, n)
		for i := range data {
			result[i] = complex(data[i], 0)
		}
		return result
	}

	if n%2 != 0 {
		panic("fft requires power of 2 length")
	}

	even := make([]float64, n/2)
	odd := make([]float64, n/2)

	for i := 0; i < n/2; i++ {
		even[i] = data[2*i]
		odd[i] = data[2*i+1]
	}

	feven := FFT(even)
	fodd := FFT(odd)

	result := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n)))
		result[k] = feven[k] + w*fodd[k]
		result[k+n/2] = feven[k] - w*fodd[k]
	}

	return result
}

// PowerSpectrum returns the one-sided magnitude spectrum of the mean-
// removed, zero-padded input.
func PowerSpectrum(data []float64) []float64 {
	fft := FFT(pad(detrend(data)))
	ps := make([]float64, len(fft)/2)

	for i := range ps {
		ps[i] = cmplx.Abs(fft[i])
	}

	return ps
}

// ChatterFrequency finds the dominant oscillation frequency (Hz) of a
// deployment history sampled every dt seconds. Returns 0 when the
// trace has no oscillatory content worth reporting, e.g. a smooth
// one-way ramp.
func ChatterFrequency(deployments []float64, dt float64) float64 {
	if len(deployments) < 4 || dt <= 0 {
		return 0
	}

	ps := PowerSpectrum(deployments)
	if len(ps) < 2 {
		return 0
	}

	// The lowest bins hold residual trend (the ramp out and back over
	// the whole flight), not chatter; search above them.
	if len(ps) < 5 {
		return 0
	}
	peak := 3
	for i := 4; i < len(ps); i++ {
		if ps[i] > ps[peak] {
			peak = i
		}
	}

	var total float64
	for i := 1; i < len(ps); i++ {
		total += ps[i]
	}
	if total == 0 || ps[peak]/total < 0.1 {
		return 0
	}

	n := len(ps) * 2
	return float64(peak) / (float64(n) * dt)
}

func detrend(data []float64) []float64 {
	var mean float64
	for _, v := range data {
		mean += v
	}
	mean /= float64(len(data))

	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = v - mean
	}
	return out
}

func pad(data []float64) []float64 {
	n := 1
	for n < len(data) {
		n <<= 1
	}
	if n == len(data) {
		return data
	}
	out := make([]float64, n)
	copy(out, data)
	return out
}
