package metrics

import (
	"math"

	"github.com/apogee-sim/airbrakes/internal/sim"
)

// Toggles counts direction reversals of the deployment command. A
// chattering controller shows up here immediately; a well-damped one
// toggles a handful of times per flight.
type Toggles struct {
	name      string
	threshold float64
	prev      float64
	prevDir   int
	count     int
	seeded    bool
}

func NewToggles(threshold float64) *Toggles {
	return &Toggles{name: "toggles", threshold: threshold}
}

func (m *Toggles) Name() string {
	return m.name
}

func (m *Toggles) Observe(x sim.State, u sim.Control, t float64) {
	if len(u) == 0 {
		return
	}
	d := u[0]
	if !m.seeded {
		m.prev = d
		m.seeded = true
		return
	}
	delta := d - m.prev
	if math.Abs(delta) < m.threshold {
		return
	}
	dir := 1
	if delta < 0 {
		dir = -1
	}
	if m.prevDir != 0 && dir != m.prevDir {
		m.count++
	}
	m.prevDir = dir
	m.prev = d
}

func (m *Toggles) Value() float64 {
	return float64(m.count)
}

func (m *Toggles) Reset() {
	m.prev = 0
	m.prevDir = 0
	m.count = 0
	m.seeded = false
}
