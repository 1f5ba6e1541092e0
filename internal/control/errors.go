package control

import "fmt"

// ConfigError reports an invalid controller parameter at construction
// time. Construction never returns a partially initialized loop.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid controller config: %s %s", e.Field, e.Reason)
}

// Diagnostics counts recoverable runtime conditions. None of them stop
// a flight; the harness reads them after a run.
type Diagnostics struct {
	// BadSamples counts ticks whose raw altitude or velocity was
	// NaN/Inf. The filter step is skipped for those ticks.
	BadSamples int
	// Saturation counts ticks where the requested deployment could not
	// be realized, either clipped to [0,max] or truncated by the rate
	// limiter.
	Saturation int
	// LockedCalls counts Update calls made after the loop locked at
	// apogee. Updating a locked loop is a caller contract violation;
	// it is absorbed as a counted no-op rather than a panic.
	LockedCalls int
}
