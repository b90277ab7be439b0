// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	World       WorldConfig       `yaml:"world"`
	Sim         SimConfig         `yaml:"sim"`
	Satiety     SatietyConfig     `yaml:"satiety"`
	Exploration ExplorationConfig `yaml:"exploration"`
	Idle        IdleConfig        `yaml:"idle"`
	Archetypes  []ArchetypeConfig `yaml:"archetypes"`
	Grass       GrassConfig       `yaml:"grass"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Observer    ObserverConfig    `yaml:"observer"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds map dimensions. A level file overrides these.
type WorldConfig struct {
	Width    int     `yaml:"width"`     // cells per row
	Height   int     `yaml:"height"`    // rows
	CellSize float64 `yaml:"cell_size"` // centre to corner, world units
}

// SimConfig holds tick timing.
type SimConfig struct {
	DT         float64 `yaml:"dt"`          // seconds per tick
	DecayEvery int     `yaml:"decay_every"` // apply satiety decay every N ticks
}

// SatietyConfig holds hunger thresholds. All values are hundredths of a unit.
type SatietyConfig struct {
	Initial       int  `yaml:"initial"`
	ForageBelow   int  `yaml:"forage_below"`   // at or below: forced into Foraging
	SatedAt       int  `yaml:"sated_at"`       // at or above: Foraging returns to Idle
	ConsumeAmount int  `yaml:"consume_amount"` // added per meal
	Starvation    bool `yaml:"starvation"`     // remove agents that reach StarveAt
	StarveAt      int  `yaml:"starve_at"`
}

// ExplorationConfig holds RandomMove scoring parameters.
type ExplorationConfig struct {
	Strength     float64 `yaml:"strength"`      // preference weight in neighbour scoring
	Stability    float64 `yaml:"stability"`     // share of the old direction kept per step
	MinSteps     int     `yaml:"min_steps"`     // inclusive
	MaxSteps     int     `yaml:"max_steps"`     // exclusive
	RiskPenalty  float64 `yaml:"risk_penalty"`  // weight subtracted per unit of collision risk
	OccupiedRisk float64 `yaml:"occupied_risk"` // risk when the neighbour itself is occupied
	CrowdRisk    float64 `yaml:"crowd_risk"`    // risk per entity around the neighbour
	MinWeight    float64 `yaml:"min_weight"`
}

// IdleConfig holds the Idle -> RandomMove transition chance, in percent.
type IdleConfig struct {
	BaseChance int `yaml:"base_chance"`
	StreakStep int `yaml:"streak_step"`
	MaxChance  int `yaml:"max_chance"`
}

// ArchetypeConfig defines an agent kind.
type ArchetypeConfig struct {
	Name         string  `yaml:"name"`          // matches a components.Kind name
	Food         string  `yaml:"food"`          // kind this archetype forages
	DecayRate    float64 `yaml:"decay_rate"`    // satiety units lost per second
	MoveCooldown float64 `yaml:"move_cooldown"` // seconds between actions
	FleeRadius   int     `yaml:"flee_radius"`   // hex distance, 0 disables Flee
	Initial      int     `yaml:"initial"`       // count for generated levels
}

// GrassConfig holds resource regrowth parameters.
type GrassConfig struct {
	Initial            int     `yaml:"initial"`
	Max                int     `yaml:"max"`
	RegrowInterval     float64 `yaml:"regrow_interval"` // seconds
	RegrowBatch        int     `yaml:"regrow_batch"`
	FertilityScale     float64 `yaml:"fertility_scale"`     // noise frequency per cell
	FertilityThreshold float64 `yaml:"fertility_threshold"` // 0..1
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow float64 `yaml:"stats_window"` // seconds
	PerfWindow  int     `yaml:"perf_window"`  // ticks
}

// ObserverConfig holds the websocket feed parameters.
type ObserverConfig struct {
	PublishEvery int `yaml:"publish_every"` // ticks between frames
	ClientBuffer int `yaml:"client_buffer"` // frames queued per client before dropping
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32           float32             // Sim.DT as float32
	CellSize32     float32             // World.CellSize as float32
	ArchetypeIndex map[string]int      // name -> index into Archetypes
	PredatorsOf    map[string][]string // food name -> archetype names that eat it
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	cfg.computeDerived()

	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.World.Width <= 0 || c.World.Height <= 0 {
		errs = append(errs, fmt.Errorf("world size must be positive, got %dx%d", c.World.Width, c.World.Height))
	}
	if c.World.CellSize <= 0 {
		errs = append(errs, errors.New("world.cell_size must be positive"))
	}
	if c.Sim.DT <= 0 {
		errs = append(errs, errors.New("sim.dt must be positive"))
	}
	if c.Sim.DecayEvery <= 0 {
		errs = append(errs, errors.New("sim.decay_every must be positive"))
	}
	if c.Satiety.ForageBelow >= c.Satiety.SatedAt {
		errs = append(errs, fmt.Errorf("satiety.forage_below (%d) must be below satiety.sated_at (%d)",
			c.Satiety.ForageBelow, c.Satiety.SatedAt))
	}
	if c.Exploration.MinSteps < 0 || c.Exploration.MaxSteps <= c.Exploration.MinSteps {
		errs = append(errs, fmt.Errorf("exploration steps range [%d,%d) is empty",
			c.Exploration.MinSteps, c.Exploration.MaxSteps))
	}
	if c.Exploration.MaxSteps > 127 {
		errs = append(errs, errors.New("exploration.max_steps must fit in int8"))
	}
	if c.Exploration.MinWeight <= 0 {
		errs = append(errs, errors.New("exploration.min_weight must be positive"))
	}
	seen := make(map[string]bool, len(c.Archetypes))
	for _, a := range c.Archetypes {
		if a.Name == "" {
			errs = append(errs, errors.New("archetype without name"))
			continue
		}
		if seen[a.Name] {
			errs = append(errs, fmt.Errorf("duplicate archetype %q", a.Name))
		}
		seen[a.Name] = true
	}
	return errors.Join(errs...)
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.Sim.DT)
	c.Derived.CellSize32 = float32(c.World.CellSize)

	c.Derived.ArchetypeIndex = make(map[string]int, len(c.Archetypes))
	c.Derived.PredatorsOf = make(map[string][]string)
	for i, arch := range c.Archetypes {
		c.Derived.ArchetypeIndex[arch.Name] = i
		if arch.Food != "" {
			c.Derived.PredatorsOf[arch.Food] = append(c.Derived.PredatorsOf[arch.Food], arch.Name)
		}
	}
}

// Archetype returns the archetype with the given name.
func (c *Config) Archetype(name string) (*ArchetypeConfig, bool) {
	i, ok := c.Derived.ArchetypeIndex[name]
	if !ok {
		return nil, false
	}
	return &c.Archetypes[i], true
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
