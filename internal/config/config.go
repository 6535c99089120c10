// Package config loads the server configuration from YAML, falling back to
// environment variables and then to built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/world-simulator/core"
	"github.com/signalsfoundry/world-simulator/internal/observability"
	"github.com/signalsfoundry/world-simulator/internal/sim/entities"
	"github.com/signalsfoundry/world-simulator/kb"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the root of the configuration file.
type Config struct {
	Server  ServerConfig                `yaml:"server"`
	World   WorldConfig                 `yaml:"world"`
	Journal JournalConfig               `yaml:"journal"`
	Log     LogConfig                   `yaml:"log"`
	Tracing observability.TracingConfig `yaml:"tracing"`
}

type ServerConfig struct {
	ListenAddr  string `yaml:"listen_addr"`
	MetricsAddr string `yaml:"metrics_addr"`
	HealthAddr  string `yaml:"health_addr"`
}

// WorldConfig describes the simulated world.
type WorldConfig struct {
	Terrain     core.TerrainParams  `yaml:"terrain"`
	Population  entities.Population `yaml:"population"`
	RecipesPath string              `yaml:"recipes_path"`
	SpawnRadius float64             `yaml:"spawn_radius"`
	// Seed drives entity ids and autonomous behavior. Zero picks a random
	// seed at startup.
	Seed uint64 `yaml:"seed"`
}

// JournalConfig enables the action journal when Dir is set.
type JournalConfig struct {
	Dir    string `yaml:"dir"`
	Prefix string `yaml:"prefix"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a complete configuration for a small local world.
func Default() *Config {
	return &Config{
		World: WorldConfig{
			Terrain:     core.DefaultTerrainParams(1000, 1),
			Population:  entities.DefaultPopulation(),
			SpawnRadius: 5,
		},
		Journal: JournalConfig{Prefix: "actions"},
		Tracing: observability.TracingConfig{
			ServiceName: "world-simulator",
			Exporter:    "stdout",
			SampleRatio: 1,
		},
	}
}

// Load reads a YAML configuration file over the defaults. If path is empty
// it tries WORLD_CONFIG and otherwise returns Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		path = os.Getenv("WORLD_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the values Load cannot fix up.
func (c *Config) Validate() error {
	if c.World.Terrain.Radius <= 0 {
		return fmt.Errorf("%w: world.terrain.radius must be positive", ErrInvalid)
	}
	if c.World.SpawnRadius < 0 {
		return fmt.Errorf("%w: world.spawn_radius must not be negative", ErrInvalid)
	}
	if c.World.Population.Spread < 0 {
		return fmt.Errorf("%w: world.population.spread must not be negative", ErrInvalid)
	}
	for _, s := range c.World.Population.Spawns {
		if s.Codename == "" || s.Count < 0 || s.Quantity < 0 {
			return fmt.Errorf("%w: bad population entry %+v", ErrInvalid, s)
		}
	}
	if r := c.Tracing.SampleRatio; r < 0 || r > 1 {
		return fmt.Errorf("%w: tracing.sample_ratio must be within [0, 1]", ErrInvalid)
	}
	return nil
}

// Recipes loads the recipe catalog, using the built-in one when no path is
// configured.
func (w WorldConfig) Recipes() (*kb.RecipeBook, error) {
	if w.RecipesPath == "" {
		return kb.DefaultRecipes(), nil
	}
	return kb.LoadRecipesFile(w.RecipesPath)
}

// GetListenAddr returns the websocket address: config -> WORLD_LISTEN_ADDR -> :8080.
func (s *ServerConfig) GetListenAddr() string {
	return addrWithEnvFallback(s.ListenAddr, "WORLD_LISTEN_ADDR", ":8080")
}

// GetMetricsAddr returns the Prometheus address: config -> WORLD_METRICS_ADDR -> :2112.
func (s *ServerConfig) GetMetricsAddr() string {
	return addrWithEnvFallback(s.MetricsAddr, "WORLD_METRICS_ADDR", ":2112")
}

// GetHealthAddr returns the gRPC health address: config -> WORLD_HEALTH_ADDR -> :50051.
func (s *ServerConfig) GetHealthAddr() string {
	return addrWithEnvFallback(s.HealthAddr, "WORLD_HEALTH_ADDR", ":50051")
}

// GetJournalDir returns the journal directory: config -> WORLD_JOURNAL_DIR.
// Empty disables the journal.
func (j *JournalConfig) GetJournalDir() string {
	return stringWithEnvFallback(j.Dir, "WORLD_JOURNAL_DIR", "")
}

// LevelOrEnv returns the log level: config -> LOG_LEVEL -> info.
func (l *LogConfig) LevelOrEnv() string {
	return stringWithEnvFallback(l.Level, "LOG_LEVEL", "info")
}

// FormatOrEnv returns the log format: config -> LOG_FORMAT -> text.
func (l *LogConfig) FormatOrEnv() string {
	return stringWithEnvFallback(l.Format, "LOG_FORMAT", "text")
}

// addrWithEnvFallback resolves config -> env -> default. A bare port number
// from the environment is turned into ":port".
func addrWithEnvFallback(configured, envVar, def string) string {
	addr := stringWithEnvFallback(configured, envVar, def)
	if port, err := strconv.Atoi(addr); err == nil && port > 0 {
		return fmt.Sprintf(":%d", port)
	}
	return addr
}

func stringWithEnvFallback(configured, envVar, def string) string {
	if configured != "" {
		return configured
	}
	if v := strings.TrimSpace(os.Getenv(envVar)); v != "" {
		return v
	}
	return def
}
