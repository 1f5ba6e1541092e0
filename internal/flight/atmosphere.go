package flight

import "math"

// Atmosphere models ISA troposphere density. Good to ~11 km, which
// covers any coast this controller will see.
type Atmosphere struct {
	SeaLevelDensity float64 // kg/m^3
	SeaLevelTemp    float64 // K
	LapseRate       float64 // K/m
	Gravity         float64 // m/s^2
}

const gasConstantAir = 287.053 // J/(kg K)

func StandardAtmosphere() *Atmosphere {
	return &Atmosphere{
		SeaLevelDensity: 1.225,
		SeaLevelTemp:    288.15,
		LapseRate:       0.0065,
		Gravity:         9.80665,
	}
}

// UniformAtmosphere has the same density at every altitude. Useful
// when the plant should match the controller's constant-density
// predictor exactly, e.g. in verification runs.
func UniformAtmosphere(density float64) *Atmosphere {
	return &Atmosphere{
		SeaLevelDensity: density,
		SeaLevelTemp:    288.15,
		LapseRate:       0,
		Gravity:         9.80665,
	}
}

// Density returns air density at altitude h meters ASL.
func (a *Atmosphere) Density(h float64) float64 {
	if h < 0 {
		h = 0
	}
	if a.LapseRate == 0 {
		return a.SeaLevelDensity
	}
	temp := a.SeaLevelTemp - a.LapseRate*h
	if temp <= 0 {
		return 0
	}
	exp := a.Gravity/(a.LapseRate*gasConstantAir) - 1
	return a.SeaLevelDensity * math.Pow(temp/a.SeaLevelTemp, exp)
}
