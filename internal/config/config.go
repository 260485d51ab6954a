package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     Server     `yaml:"server" json:"server"`
	Recurrence Recurrence `yaml:"recurrence" json:"recurrence"`
	Rollover   Rollover   `yaml:"rollover" json:"rollover"`
	Streak     Streak     `yaml:"streak" json:"streak"`
}

type Server struct {
	Addr string `yaml:"addr" json:"addr"`
}

type Recurrence struct {
	// MaxOccurrences bounds expansion of rules with no end date.
	MaxOccurrences int `yaml:"max_occurrences" json:"max_occurrences"`
}

type Rollover struct {
	TickSeconds int `yaml:"tick_seconds" json:"tick_seconds"`
}

type Streak struct {
	SeedSavers         int `yaml:"seed_savers" json:"seed_savers"`
	SeedWeeksCompleted int `yaml:"seed_weeks_completed" json:"seed_weeks_completed"`
	HoldSeconds        int `yaml:"hold_seconds" json:"hold_seconds"`
}

func Default() *Config {
	c := &Config{}
	c.ApplyDefaults()
	return c
}

func (c *Config) ApplyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8923"
	}
	if c.Recurrence.MaxOccurrences <= 0 {
		c.Recurrence.MaxOccurrences = 1000
	}
	if c.Rollover.TickSeconds <= 0 {
		c.Rollover.TickSeconds = 60
	}
	if c.Streak.SeedSavers <= 0 {
		c.Streak.SeedSavers = 2
	}
	if c.Streak.SeedWeeksCompleted <= 0 {
		c.Streak.SeedWeeksCompleted = 1
	}
	if c.Streak.HoldSeconds <= 0 {
		c.Streak.HoldSeconds = 3
	}
}

// Load reads a yaml config file. A missing file is not an error; defaults
// apply.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	var r Config
	if err := yaml.Unmarshal(b, &r); err != nil {
		return nil, err
	}
	r.ApplyDefaults()
	return &r, nil
}
