package config

import "slices"

func preset(fn func(c *Config)) *Config {
	c := DefaultConfig()
	fn(c)
	return c
}

// Presets are grouped by spawner kind.
var Presets = map[string]map[string]*Config{
	"fountain": {
		"classic": DefaultConfig(),
		"small": preset(func(c *Config) {
			c.Width, c.Height = 800, 600
			c.MaxParticles = 2000
			c.Spawner.X = 400
			c.Frames = 900
		}),
		"bowl": preset(func(c *Config) {
			c.Boundary = "circle"
			c.MaxParticles = 4000
			c.Spawner.Y = 300
		}),
	},
	"rain": {
		"light": preset(func(c *Config) {
			c.Spawner = SpawnerConfig{Kind: "rain", Rate: 200}
			c.MaxParticles = 3000
		}),
		"heavy": preset(func(c *Config) {
			c.Spawner = SpawnerConfig{Kind: "rain", Rate: 2000}
			c.Restitution = 0.3
		}),
	},
	"block": {
		"drop": preset(func(c *Config) {
			c.Spawner = SpawnerConfig{Kind: "block", X: 700, Y: 100, Cols: 50, Rows: 40}
			c.MinRadius, c.MaxRadius = 5, 5
		}),
		"naive": preset(func(c *Config) {
			c.Width, c.Height = 600, 400
			c.Spawner = SpawnerConfig{Kind: "block", X: 100, Y: 50, Cols: 20, Rows: 10}
			c.MinRadius, c.MaxRadius = 5, 5
			c.MaxParticles = 200
			c.Broadphase = "naive"
		}),
	},
	"pair": {
		"overlap": preset(func(c *Config) {
			c.Spawner = SpawnerConfig{Kind: "pair"}
			c.Gravity = Vec{}
			c.MaxParticles = 2
			c.Frames = 60
		}),
	},
}

func GetPreset(group, name string) *Config {
	groupPresets, ok := Presets[group]
	if !ok {
		return nil
	}
	cfg, ok := groupPresets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(group string) []string {
	groupPresets, ok := Presets[group]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(groupPresets))
	for name := range groupPresets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func ListGroups() []string {
	groups := make([]string, 0, len(Presets))
	for g := range Presets {
		groups = append(groups, g)
	}
	slices.Sort(groups)
	return groups
}
