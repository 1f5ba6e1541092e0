package sim

import (
	"context"
	"math"
	"math/rand"
	"sync"
)

// Builder constructs a fresh simulator, including a fresh control
// loop. Every ensemble trial gets its own: controller state (PID
// integral, actuator position, lock flag) must never be shared between
// trials, so the ensemble never reuses an instance across goroutines.
type Builder func() (*Simulator, error)

// Ensemble runs independent Monte-Carlo trials of the same flight in
// parallel, dispersing the initial state and the sensor noise seed per
// trial.
type Ensemble struct {
	build     Builder
	numRuns   int
	seedStart int64

	// 1-sigma dispersion applied to the initial altitude and velocity.
	AltSigma float64
	VelSigma float64
}

func NewEnsemble(build Builder, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{build: build, numRuns: numRuns, seedStart: seedStart}
}

func (e *Ensemble) Run(ctx context.Context, x0 State, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			cfgCopy := cfg
			cfgCopy.Seed = e.seedStart + int64(idx)

			sim, err := e.build()
			if err != nil {
				errs[idx] = err
				return
			}

			start := x0.Clone()
			if e.AltSigma > 0 || e.VelSigma > 0 {
				rng := rand.New(rand.NewSource(cfgCopy.Seed ^ 0x5eed))
				start[0] += rng.NormFloat64() * e.AltSigma
				start[1] += rng.NormFloat64() * e.VelSigma
			}

			results[idx], errs[idx] = sim.Run(ctx, start, cfgCopy)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}

// Stats summarizes apogee dispersion across ensemble results.
type Stats struct {
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
	N      int
}

func Summarize(results []*Result) Stats {
	s := Stats{Min: math.Inf(1), Max: math.Inf(-1)}
	for _, r := range results {
		if r == nil {
			continue
		}
		s.N++
		s.Mean += r.Apogee
		if r.Apogee < s.Min {
			s.Min = r.Apogee
		}
		if r.Apogee > s.Max {
			s.Max = r.Apogee
		}
	}
	if s.N == 0 {
		return Stats{}
	}
	s.Mean /= float64(s.N)
	var ss float64
	for _, r := range results {
		if r == nil {
			continue
		}
		d := r.Apogee - s.Mean
		ss += d * d
	}
	s.StdDev = math.Sqrt(ss / float64(s.N))
	return s
}
