package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the CLI looks for lattice.yml when --config is not set.
const DefaultPath = "lattice.yml"

// Defaults applied by Validate.
const (
	DefaultInstance    = "default"
	DefaultRedisURL    = "redis://localhost:6379/0"
	DefaultModel       = "gemini-2.5-flash"
	DefaultAPIKeyEnv   = "GEMINI_API_KEY"
	DefaultTimeout     = "60s"
	DefaultTemperature = 0.6
	DefaultTopK        = 40
	DefaultLogLevel    = "info"
)

// MaxInstanceNameLength is the maximum length for an instance name.
const MaxInstanceNameLength = 63

var instanceNamePattern = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]*[a-z0-9])?$`)

// RedisConfig specifies where the blackboard lives
type RedisConfig struct {
	URL string `yaml:"url"`
}

// GenerationConfig specifies the content-generation model and its limits
type GenerationConfig struct {
	Model       string   `yaml:"model,omitempty"`
	APIKeyEnv   string   `yaml:"api_key_env,omitempty"` // Name of the environment variable holding the key
	Timeout     string   `yaml:"timeout,omitempty"`     // Go duration, applied to every generation call
	Temperature *float32 `yaml:"temperature,omitempty"`
	TopK        *int     `yaml:"top_k,omitempty"`
}

// LatticeConfig represents the top-level lattice.yml configuration
type LatticeConfig struct {
	Version    string            `yaml:"version"`
	Instance   string            `yaml:"instance,omitempty"` // Redis key namespace
	Redis      *RedisConfig      `yaml:"redis,omitempty"`
	Generation *GenerationConfig `yaml:"generation,omitempty"`
	Catalog    string            `yaml:"catalog,omitempty"` // Optional catalog file replacing the embedded one
	LogLevel   string            `yaml:"log_level,omitempty"`
}

// Default returns the configuration used when no lattice.yml exists.
func Default() *LatticeConfig {
	c := &LatticeConfig{Version: "1.0"}
	if err := c.Validate(); err != nil {
		panic(fmt.Sprintf("default config is invalid: %v", err))
	}
	return c
}

// Validate performs strict validation on the configuration and fills in
// defaults for omitted sections.
func (c *LatticeConfig) Validate() error {
	// Required: version
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	if c.Instance == "" {
		c.Instance = DefaultInstance
	}
	if err := ValidateInstanceName(c.Instance); err != nil {
		return err
	}

	if c.Redis == nil {
		c.Redis = &RedisConfig{}
	}
	if c.Redis.URL == "" {
		c.Redis.URL = DefaultRedisURL
	}
	if _, err := redis.ParseURL(c.Redis.URL); err != nil {
		return fmt.Errorf("invalid redis.url: %w", err)
	}

	if c.Generation == nil {
		c.Generation = &GenerationConfig{}
	}
	if err := c.Generation.Validate(); err != nil {
		return err
	}

	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level: %s (must be 'debug', 'info', 'warn', or 'error')", c.LogLevel)
	}

	if c.Catalog != "" {
		if _, err := os.Stat(c.Catalog); os.IsNotExist(err) {
			return fmt.Errorf("catalog file does not exist: %s", c.Catalog)
		}
	}

	return nil
}

// ValidateInstanceName checks that an instance name is safe to embed in
// Redis keys: lowercase alphanumeric with inner hyphens, at most 63
// characters.
func ValidateInstanceName(name string) error {
	if name == "" {
		return fmt.Errorf("instance name cannot be empty")
	}

	if len(name) > MaxInstanceNameLength {
		return fmt.Errorf("instance name too long: %d characters (max: %d)", len(name), MaxInstanceNameLength)
	}

	if !instanceNamePattern.MatchString(name) {
		return fmt.Errorf("invalid instance name '%s': must be lowercase alphanumeric with hyphens (not at start/end)", name)
	}

	return nil
}

// Validate fills in generation defaults and checks the limits.
func (g *GenerationConfig) Validate() error {
	if g.Model == "" {
		g.Model = DefaultModel
	}
	if g.APIKeyEnv == "" {
		g.APIKeyEnv = DefaultAPIKeyEnv
	}
	if g.Timeout == "" {
		g.Timeout = DefaultTimeout
	}
	d, err := time.ParseDuration(g.Timeout)
	if err != nil {
		return fmt.Errorf("generation.timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("generation.timeout must be > 0, got %s", g.Timeout)
	}

	if g.Temperature == nil {
		t := float32(DefaultTemperature)
		g.Temperature = &t
	}
	if *g.Temperature < 0 || *g.Temperature > 2 {
		return fmt.Errorf("generation.temperature must be between 0 and 2, got %g", *g.Temperature)
	}

	if g.TopK == nil {
		k := DefaultTopK
		g.TopK = &k
	}
	if *g.TopK < 0 {
		return fmt.Errorf("generation.top_k must be >= 0, got %d", *g.TopK)
	}

	return nil
}

// TimeoutDuration returns the parsed generation timeout. Only valid after
// Validate.
func (g *GenerationConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(g.Timeout)
	return d
}

// APIKey reads the generation API key from the configured environment
// variable. An empty result means generation runs offline.
func (g *GenerationConfig) APIKey() string {
	return os.Getenv(g.APIKeyEnv)
}

// RedisOptions converts the configured URL to go-redis options.
func (c *LatticeConfig) RedisOptions() (*redis.Options, error) {
	opts, err := redis.ParseURL(c.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis.url: %w", err)
	}
	return opts, nil
}

// Load reads and validates lattice.yml from the specified path
func Load(path string) (*LatticeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config LatticeConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// A relative catalog path is relative to the config file.
	if config.Catalog != "" && !filepath.IsAbs(config.Catalog) {
		config.Catalog = filepath.Join(filepath.Dir(path), config.Catalog)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// LoadOrDefault behaves like Load but returns Default when the file does not
// exist.
func LoadOrDefault(path string) (*LatticeConfig, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}
