package config

// Presets are ready-to-fly configurations by rocket class and control
// law. Values come back as a copy of the defaults with the preset
// overrides applied, so editing a returned config never mutates the
// preset table.
var Presets = map[string]map[string]func(*Config){
	"subscale": {
		"pid": func(c *Config) {
			c.Controller = "pid"
			c.TargetApogee = 800
			c.Rocket = RocketConfig{Mass: 3.2, ReferenceArea: 0.0049}
			c.Init = InitConfig{Altitude: 420, Velocity: 95}
			c.Gains = GainsConfig{Kp: 0.004, Ki: 0.0002, Kd: 0.015}
		},
		"bangbang": func(c *Config) {
			c.Controller = "bangbang"
			c.TargetApogee = 800
			c.Rocket = RocketConfig{Mass: 3.2, ReferenceArea: 0.0049}
			c.Init = InitConfig{Altitude: 420, Velocity: 95}
			c.Hysteresis = 3
		},
	},
	"competition": {
		"pid": func(c *Config) {
			c.Controller = "pid"
		},
		"bangbang": func(c *Config) {
			c.Controller = "bangbang"
		},
		"mpc": func(c *Config) {
			c.Controller = "mpc"
			c.MPC = MPCConfig{Horizon: 2.0, Candidates: 21}
		},
	},
}

func GetPreset(class, name string) *Config {
	group, ok := Presets[class]
	if !ok {
		return nil
	}
	apply, ok := group[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets(class string) []string {
	group, ok := Presets[class]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(group))
	for name := range group {
		names = append(names, name)
	}
	return names
}
