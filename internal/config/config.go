// Package config loads the run configuration: built-in defaults, then an
// optional YAML file checked against an embedded JSON Schema, then MINER_*
// environment overrides.
package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/nTorre/HolyCrabUI/internal/agents"
	"github.com/nTorre/HolyCrabUI/internal/world"
)

//go:embed schema.json
var schemaJSON string

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

type Config struct {
	LogLevel string        `yaml:"log_level"`
	World    WorldConfig   `yaml:"world"`
	Agent    AgentConfig   `yaml:"agent"`
	Engine   EngineConfig  `yaml:"engine"`
	Storage  StorageConfig `yaml:"storage"`
	API      APIConfig     `yaml:"api"`
}

type WorldConfig struct {
	Size          int     `yaml:"size"`
	Seed          int64   `yaml:"seed"` // 0 = pick one at startup
	SeaLevel      float64 `yaml:"sea_level"`
	ShallowLevel  float64 `yaml:"shallow_level"`
	MountainLevel float64 `yaml:"mountain_level"`
	LavaLevel     float64 `yaml:"lava_level"`
	RockDensity   float64 `yaml:"rock_density"`
	MapFile       string  `yaml:"map_file"` // Overrides generation when set
}

type AgentConfig struct {
	Name           string  `yaml:"name"`
	GoalQuantity   int     `yaml:"goal_quantity"`
	EnergyBudget   int     `yaml:"energy_budget"`
	ViewThreshold  float64 `yaml:"view_threshold"`
	ScanDistance   int     `yaml:"scan_distance"`
	ScanIncrease   int     `yaml:"scan_increase"`
	MinEnergy      int     `yaml:"min_energy"`
	MaxConvergence int     `yaml:"max_convergence"`
	CollectRange   int     `yaml:"collect_range"`
	FullKnowledge  bool    `yaml:"full_knowledge"`
}

type EngineConfig struct {
	TickInterval    time.Duration `yaml:"tick_interval"`
	MaxTicks        uint64        `yaml:"max_ticks"`        // 0 = unlimited
	CheckpointEvery uint64        `yaml:"checkpoint_every"` // 0 = shutdown only
}

type StorageConfig struct {
	DBPath string `yaml:"db_path"` // Empty disables the journal
}

type APIConfig struct {
	Port     int    `yaml:"port"` // 0 disables the API
	AdminKey string `yaml:"admin_key"`
}

// Default returns the built-in configuration.
func Default() *Config {
	gen := world.DefaultGenConfig()
	p := agents.DefaultParams()
	return &Config{
		LogLevel: "info",
		World: WorldConfig{
			Size:          gen.Size,
			Seed:          gen.Seed,
			SeaLevel:      gen.SeaLevel,
			ShallowLevel:  gen.ShallowLevel,
			MountainLevel: gen.MountainLvl,
			LavaLevel:     gen.LavaLevel,
			RockDensity:   gen.RockDensity,
		},
		Agent: AgentConfig{
			Name:           "miner",
			GoalQuantity:   p.GoalQuantity,
			EnergyBudget:   p.EnergyBudget,
			ViewThreshold:  p.ViewThreshold,
			ScanDistance:   p.ScanDistance,
			ScanIncrease:   p.ScanIncrease,
			MinEnergy:      p.MinEnergy,
			MaxConvergence: p.MaxConvergence,
			CollectRange:   p.CollectRange,
		},
		Engine: EngineConfig{
			TickInterval:    2 * time.Second,
			CheckpointEvery: 50,
		},
		Storage: StorageConfig{DBPath: "minersim.db"},
		API:     APIConfig{Port: 8080},
	}
}

// Load builds the configuration. An empty path falls back to MINER_CONFIG;
// with neither set only defaults and environment overrides apply.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("MINER_CONFIG")
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := Parse(raw, cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse checks a YAML document against the schema and overlays it on cfg.
func Parse(raw []byte, cfg *Config) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("yaml: %w", err)
	}
	if doc == nil {
		return nil // empty file
	}
	if err := validateDocument(doc); err != nil {
		return err
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("yaml: %w", err)
	}
	return nil
}

// validateDocument runs the schema over a decoded YAML document. The
// document goes through JSON first so numbers have the types the validator
// expects.
func validateDocument(doc any) error {
	schema, err := jsonschema.CompileString("schema.json", schemaJSON)
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// applyEnv overlays MINER_* variables.
func applyEnv(cfg *Config) error {
	if v := os.Getenv("MINER_SEED"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: MINER_SEED: %v", ErrInvalid, err)
		}
		cfg.World.Seed = n
	}
	if v := os.Getenv("MINER_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: MINER_SIZE: %v", ErrInvalid, err)
		}
		cfg.World.Size = n
	}
	if v := os.Getenv("MINER_PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: MINER_PORT: %v", ErrInvalid, err)
		}
		cfg.API.Port = n
	}
	if v := os.Getenv("MINER_TICK_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: MINER_TICK_INTERVAL: %v", ErrInvalid, err)
		}
		cfg.Engine.TickInterval = d
	}
	if v, ok := os.LookupEnv("MINER_DB"); ok {
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv("MINER_ADMIN_KEY"); v != "" {
		cfg.API.AdminKey = v
	}
	if v := os.Getenv("MINER_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	return nil
}

// Validate checks the merged configuration, including values that came
// from the environment.
func (c *Config) Validate() error {
	var problems []string
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("log_level %q", c.LogLevel))
	}
	if c.World.MapFile == "" && c.World.Size < 5 {
		problems = append(problems, fmt.Sprintf("world.size %d below 5", c.World.Size))
	}
	if c.World.SeaLevel > c.World.ShallowLevel {
		problems = append(problems, "world.sea_level above shallow_level")
	}
	if c.Agent.ScanIncrease < 1 || c.Agent.ScanDistance < 1 {
		problems = append(problems, "agent scan distances must be positive")
	}
	if c.Agent.MaxConvergence < 1 {
		problems = append(problems, "agent.max_convergence must be positive")
	}
	if c.Engine.TickInterval < 0 {
		problems = append(problems, "engine.tick_interval negative")
	}
	if c.API.Port < 0 || c.API.Port > 65535 {
		problems = append(problems, fmt.Sprintf("api.port %d", c.API.Port))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// GenConfig returns the terrain generator settings.
func (c *Config) GenConfig() world.GenConfig {
	return world.GenConfig{
		Size:         c.World.Size,
		Seed:         c.World.Seed,
		SeaLevel:     c.World.SeaLevel,
		ShallowLevel: c.World.ShallowLevel,
		MountainLvl:  c.World.MountainLevel,
		LavaLevel:    c.World.LavaLevel,
		RockDensity:  c.World.RockDensity,
	}
}

// MinerParams returns the miner tuning.
func (c *Config) MinerParams() agents.Params {
	p := agents.DefaultParams()
	p.GoalQuantity = c.Agent.GoalQuantity
	p.EnergyBudget = c.Agent.EnergyBudget
	p.ViewThreshold = c.Agent.ViewThreshold
	p.ScanDistance = c.Agent.ScanDistance
	p.ScanIncrease = c.Agent.ScanIncrease
	p.MinEnergy = c.Agent.MinEnergy
	p.MaxConvergence = c.Agent.MaxConvergence
	p.CollectRange = c.Agent.CollectRange
	return p
}
