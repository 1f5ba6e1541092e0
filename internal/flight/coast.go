package flight

import (
	"github.com/apogee-sim/airbrakes/internal/control"
	"github.com/apogee-sim/airbrakes/internal/sim"
)

// Coast is the 1-DOF vertical ballistic coast of a rocket after
// burnout. State is {altitude m AGL, vertical velocity m/s}; the
// single control input is the airbrake deployment fraction, mapped to
// the airframe's total drag coefficient through the same table the
// controller holds (the row at deployment 0 is the clean airframe).
type Coast struct {
	Mass          float64 // kg, burnout mass
	ReferenceArea float64 // m^2
	DragTable     control.DragTable
	Atmos         *Atmosphere
	GroundASL     float64 // launch site altitude ASL, for density lookup
}

func NewCoast(mass, area float64, table control.DragTable) *Coast {
	return &Coast{
		Mass:          mass,
		ReferenceArea: area,
		DragTable:     table,
		Atmos:         StandardAtmosphere(),
	}
}

func (c *Coast) StateDim() int   { return 2 }
func (c *Coast) ControlDim() int { return 1 }

func (c *Coast) Derivative(x sim.State, u sim.Control, t float64) sim.State {
	alt := x[0]
	vel := x[1]

	deployment := 0.0
	if len(u) > 0 {
		deployment = u[0]
	}

	cd := c.DragTable.Cd(deployment)
	rho := c.Atmos.Density(c.GroundASL + alt)

	// Drag always opposes motion.
	drag := 0.5 * rho * cd * c.ReferenceArea * vel * vel / c.Mass
	accel := -c.Atmos.Gravity
	if vel > 0 {
		accel -= drag
	} else {
		accel += drag
	}

	return sim.State{vel, accel}
}
