package aggregation

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CapScope selects where the per-day-per-shift cap is applied. Historical
// deployments disagreed; both semantics stay available behind config.
type CapScope string

const (
	// CapScopeArea caps each area's raw count before summation.
	CapScopeArea CapScope = "area"
	// CapScopeGlobal caps the summed count across areas.
	CapScopeGlobal CapScope = "global"
)

// Config carries every scoring constant explicitly. Nothing in the
// aggregation path reads ambient state.
type Config struct {
	Timezone           string   `yaml:"timezone"`
	Boundary           string   `yaml:"boundary"`
	CapPerDay          int      `yaml:"cap_per_day"`
	GoalPerShiftPerDay int      `yaml:"goal_per_shift_per_day"`
	CapScope           CapScope `yaml:"cap_scope"`
	// DenominatorPerArea multiplies the percentage denominator by the area
	// count, for deployments that state the goal per area.
	DenominatorPerArea bool `yaml:"denominator_per_area"`

	WindowMinutes    int `yaml:"window_minutes"`
	ToleranceMinutes int `yaml:"tolerance_minutes"`
}

// DefaultConfig returns the canonical deployment constants.
func DefaultConfig() Config {
	return Config{
		Timezone:           "America/Chicago",
		Boundary:           "05:00",
		CapPerDay:          8,
		GoalPerShiftPerDay: 7,
		CapScope:           CapScopeArea,
		DenominatorPerArea: false,
		WindowMinutes:      60,
		ToleranceMinutes:   10,
	}
}

// LoadConfig returns defaults overlaid with an optional YAML file.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the scoring constants.
func (c Config) Validate() error {
	if c.Timezone == "" {
		return errors.New("aggregation config: timezone required")
	}
	if c.Boundary == "" {
		return errors.New("aggregation config: boundary required")
	}
	if c.CapPerDay <= 0 {
		return errors.New("aggregation config: cap_per_day must be positive")
	}
	if c.GoalPerShiftPerDay <= 0 {
		return errors.New("aggregation config: goal_per_shift_per_day must be positive")
	}
	switch c.CapScope {
	case CapScopeArea, CapScopeGlobal:
	default:
		return fmt.Errorf("aggregation config: unknown cap_scope %q", c.CapScope)
	}
	if c.WindowMinutes <= 0 {
		return errors.New("aggregation config: window_minutes must be positive")
	}
	if c.ToleranceMinutes < 0 || c.ToleranceMinutes > c.WindowMinutes {
		return errors.New("aggregation config: tolerance_minutes out of range")
	}
	return nil
}
