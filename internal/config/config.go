package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/apogee-sim/airbrakes/internal/control"
)

const (
	DefaultTargetApogee  = 3000.0
	DefaultSamplingRate  = 10.0
	DefaultMaxDeployment = 1.0
	DefaultRateLimit     = 0.5
	DefaultAlpha         = 0.6
	DefaultKp            = 0.002
	DefaultKi            = 0.0001
	DefaultKd            = 0.01
	DefaultHysteresis    = 5.0
	DefaultHorizon       = 2.0
	DefaultDt            = 0.005
	DefaultDuration      = 40.0
)

type Config struct {
	Controller     string  `yaml:"controller"`
	TargetApogee   float64 `yaml:"target_apogee"`
	SamplingRateHz float64 `yaml:"sampling_rate_hz"`
	MaxDeployment  float64 `yaml:"max_deployment"`
	RateLimit      float64 `yaml:"rate_limit"`
	AltitudeAlpha  float64 `yaml:"altitude_alpha"`
	VelocityAlpha  float64 `yaml:"velocity_alpha"`
	OvershootBias  float64 `yaml:"overshoot_bias"`
	Hysteresis     float64 `yaml:"hysteresis"`
	LagTicks       int     `yaml:"lag_ticks"`
	RetractOnLock  bool    `yaml:"retract_on_lock"`

	Gains  GainsConfig  `yaml:"gains"`
	MPC    MPCConfig    `yaml:"mpc"`
	Rocket RocketConfig `yaml:"rocket"`
	Drag   []DragRow    `yaml:"drag_table"`
	Init   InitConfig   `yaml:"init"`
	Sim    SimConfig    `yaml:"sim"`
}

type GainsConfig struct {
	Kp float64 `yaml:"kp"`
	Ki float64 `yaml:"ki"`
	Kd float64 `yaml:"kd"`
}

type MPCConfig struct {
	Horizon    float64 `yaml:"horizon"`
	Candidates int     `yaml:"candidates"`
}

type RocketConfig struct {
	Mass          float64 `yaml:"mass"`
	ReferenceArea float64 `yaml:"reference_area"`
	GroundASL     float64 `yaml:"ground_asl"`
}

type DragRow struct {
	Deployment float64 `yaml:"deployment"`
	Cd         float64 `yaml:"cd"`
}

type InitConfig struct {
	Altitude float64 `yaml:"altitude"`
	Velocity float64 `yaml:"velocity"`
}

type SimConfig struct {
	Dt         float64 `yaml:"dt"`
	Duration   float64 `yaml:"duration"`
	Seed       int64   `yaml:"seed"`
	AltNoise   float64 `yaml:"alt_noise"`
	VelNoise   float64 `yaml:"vel_noise"`
	Integrator string  `yaml:"integrator"`
}

func DefaultConfig() *Config {
	return &Config{
		Controller:     "pid",
		TargetApogee:   DefaultTargetApogee,
		SamplingRateHz: DefaultSamplingRate,
		MaxDeployment:  DefaultMaxDeployment,
		RateLimit:      DefaultRateLimit,
		AltitudeAlpha:  DefaultAlpha,
		VelocityAlpha:  DefaultAlpha,
		OvershootBias:  1.0,
		Hysteresis:     DefaultHysteresis,
		Gains:          GainsConfig{Kp: DefaultKp, Ki: DefaultKi, Kd: DefaultKd},
		MPC:            MPCConfig{Horizon: DefaultHorizon, Candidates: 11},
		Rocket:         RocketConfig{Mass: 20.0, ReferenceArea: 0.012},
		Drag: []DragRow{
			{Deployment: 0.0, Cd: 0.45},
			{Deployment: 0.25, Cd: 0.62},
			{Deployment: 0.5, Cd: 0.83},
			{Deployment: 0.75, Cd: 1.05},
			{Deployment: 1.0, Cd: 1.30},
		},
		Init: InitConfig{Altitude: 1800.0, Velocity: 180.0},
		Sim:  SimConfig{Dt: DefaultDt, Duration: DefaultDuration, Integrator: "rk4"},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// DragTable converts the YAML rows to the controller's table type.
func (c *Config) DragTable() control.DragTable {
	table := make(control.DragTable, len(c.Drag))
	for i, row := range c.Drag {
		table[i] = control.DragPoint{Deployment: row.Deployment, Cd: row.Cd}
	}
	return table
}

// ControlConfig maps the file onto the controller's construction
// parameters. Validation happens in control.New; nothing is clamped
// here.
func (c *Config) ControlConfig() control.Config {
	return control.Config{
		Kind:           control.Kind(c.Controller),
		TargetApogee:   c.TargetApogee,
		SamplingRateHz: c.SamplingRateHz,
		MaxDeployment:  c.MaxDeployment,
		RateLimit:      c.RateLimit,
		AltitudeAlpha:  c.AltitudeAlpha,
		VelocityAlpha:  c.VelocityAlpha,
		OvershootBias:  c.OvershootBias,
		Kp:             c.Gains.Kp,
		Ki:             c.Gains.Ki,
		Kd:             c.Gains.Kd,
		Hysteresis:     c.Hysteresis,
		Horizon:        c.MPC.Horizon,
		Candidates:     c.MPC.Candidates,
		LagTicks:       c.LagTicks,
		RetractOnLock:  c.RetractOnLock,
		DragTable:      c.DragTable(),
		ReferenceArea:  c.Rocket.ReferenceArea,
		Mass:           c.Rocket.Mass,
	}
}
