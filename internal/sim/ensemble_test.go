package sim

import (
	"context"
	"testing"
)

func TestEnsembleIsolation(t *testing.T) {
	// Every trial builds its own simulator and controller; two
	// ensembles with the same seeds must therefore be bit-identical,
	// proving no state leaks between concurrent trials.
	build := func() (*Simulator, error) {
		return New(&ballistic{}, &eulerStep{}, testLoop(t)), nil
	}

	cfg := Config{Dt: 0.01, Duration: 60, AltNoise: 5, VelNoise: 1}
	x0 := State{1800, 180}

	runEnsemble := func() []*Result {
		ens := NewEnsemble(build, 8, 1000)
		ens.AltSigma = 10
		ens.VelSigma = 2
		results, err := ens.Run(context.Background(), x0, cfg)
		if err != nil {
			t.Fatalf("ensemble failed: %v", err)
		}
		return results
	}

	a := runEnsemble()
	b := runEnsemble()

	for i := range a {
		if a[i].Apogee != b[i].Apogee {
			t.Errorf("trial %d diverged between ensembles: %f vs %f", i, a[i].Apogee, b[i].Apogee)
		}
	}
}

func TestEnsembleTrialsDiffer(t *testing.T) {
	build := func() (*Simulator, error) {
		return New(&ballistic{}, &eulerStep{}, testLoop(t)), nil
	}

	ens := NewEnsemble(build, 8, 7)
	ens.AltSigma = 20
	ens.VelSigma = 5

	results, err := ens.Run(context.Background(), State{1800, 180}, Config{Dt: 0.01, Duration: 60})
	if err != nil {
		t.Fatalf("ensemble failed: %v", err)
	}

	distinct := map[float64]bool{}
	for _, r := range results {
		distinct[r.Apogee] = true
	}
	if len(distinct) < 2 {
		t.Error("dispersed trials all produced the same apogee")
	}
}

func TestSummarize(t *testing.T) {
	results := []*Result{
		{Apogee: 2990},
		{Apogee: 3010},
		{Apogee: 3000},
	}

	stats := Summarize(results)
	if stats.N != 3 {
		t.Errorf("expected 3 trials, got %d", stats.N)
	}
	if stats.Mean != 3000 {
		t.Errorf("expected mean 3000, got %f", stats.Mean)
	}
	if stats.Min != 2990 || stats.Max != 3010 {
		t.Errorf("bad min/max: %f / %f", stats.Min, stats.Max)
	}
	if stats.StdDev <= 0 {
		t.Error("expected positive stddev")
	}
}

func TestSummarizeEmpty(t *testing.T) {
	stats := Summarize(nil)
	if stats.N != 0 || stats.Mean != 0 {
		t.Errorf("empty summary should be zero, got %+v", stats)
	}
}
