package core

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/deerking0923/prj-sketch-backend/internal/backend/pixel"
	"github.com/deerking0923/prj-sketch-backend/internal/backend/styles"
	"gopkg.in/yaml.v3"
)

// StyleConfig overrides the parameter defaults of one style
type StyleConfig struct {
	Name   string         `yaml:"name"`
	Params map[string]any `yaml:",inline"`
}

type Database struct {
	Type             string `yaml:"type"`
	ConnectionString string `yaml:"connectionString"`
}

type Redis struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type RateLimit struct {
	Enabled  bool          `yaml:"enabled"`
	Capacity int           `yaml:"capacity"`
	Window   time.Duration `yaml:"window"`
	// Header identifying the client; requests without it share one bucket
	SubjectHeader string `yaml:"subjectHeader"`
}

type Conversion struct {
	DefaultStyle   string        `yaml:"defaultStyle"`
	OutputFormat   string        `yaml:"outputFormat"`
	MaxUploadBytes int64         `yaml:"maxUploadBytes"`
	MaxPixels      int           `yaml:"maxPixels"`
	Workers        int           `yaml:"workers"`
	Timeout        time.Duration `yaml:"timeout"`
}

type Cache struct {
	Enabled bool          `yaml:"enabled"`
	MaxCost int64         `yaml:"maxCost"`
	TTL     time.Duration `yaml:"ttl"`
}

type ServiceConfig struct {
	Port       int           `yaml:"port"`
	Database   Database      `yaml:"database"`
	Redis      Redis         `yaml:"redis"`
	RateLimit  RateLimit     `yaml:"rateLimit"`
	Conversion Conversion    `yaml:"conversion"`
	Cache      Cache         `yaml:"cache"`
	Styles     []StyleConfig `yaml:"styles"`
}

// DefaultConfig returns the configuration used for every key a config file
// leaves out.
func DefaultConfig() *ServiceConfig {
	return &ServiceConfig{
		Port: 8080,
		Database: Database{
			Type:             "sqlite",
			ConnectionString: ":memory:",
		},
		RateLimit: RateLimit{
			Capacity:      30,
			Window:        time.Minute,
			SubjectHeader: "X-Client-ID",
		},
		Conversion: Conversion{
			DefaultStyle:   styles.DefaultStyle,
			OutputFormat:   "png",
			MaxUploadBytes: 10 << 20,
			MaxPixels:      pixel.DefaultMaxPixels,
			Workers:        runtime.NumCPU(),
			Timeout:        30 * time.Second,
		},
		Cache: Cache{
			Enabled: true,
			MaxCost: 64 << 20,
			TTL:     10 * time.Minute,
		},
	}
}

// LoadConfig loads configuration from the specified YAML file
func LoadConfig(configPath string) (*ServiceConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	config, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}
	return config, nil
}

// ParseConfig decodes YAML on top of DefaultConfig and validates the result.
func ParseConfig(data []byte) (*ServiceConfig, error) {
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if config.Conversion.Workers <= 0 {
		config.Conversion.Workers = runtime.NumCPU()
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// StyleOverrides returns the per style default overrides keyed by style name.
func (c *ServiceConfig) StyleOverrides() map[string]map[string]any {
	overrides := make(map[string]map[string]any, len(c.Styles))
	for _, s := range c.Styles {
		overrides[s.Name] = s.Params
	}
	return overrides
}

func (c *ServiceConfig) validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.Database.Type == "" {
		return fmt.Errorf("database type is required")
	}
	if c.RateLimit.Enabled {
		if c.Redis.Address == "" {
			return fmt.Errorf("rate limiting requires a redis address")
		}
		if c.RateLimit.Capacity <= 0 {
			return fmt.Errorf("rate limit capacity must be positive")
		}
		if c.RateLimit.Window <= 0 {
			return fmt.Errorf("rate limit window must be positive")
		}
	}
	if _, err := pixel.ParseFormat(c.Conversion.OutputFormat); err != nil {
		return fmt.Errorf("unsupported output format %q", c.Conversion.OutputFormat)
	}
	if c.Conversion.MaxUploadBytes <= 0 {
		return fmt.Errorf("maxUploadBytes must be positive")
	}
	if c.Conversion.MaxPixels <= 0 {
		return fmt.Errorf("maxPixels must be positive")
	}
	if c.Conversion.Timeout <= 0 {
		return fmt.Errorf("conversion timeout must be positive")
	}
	if c.Cache.Enabled && (c.Cache.MaxCost <= 0 || c.Cache.TTL <= 0) {
		return fmt.Errorf("cache maxCost and ttl must be positive")
	}
	return validateStyles(c.Styles)
}

// validateStyles ensures all style overrides have a unique name
func validateStyles(overrides []StyleConfig) error {
	seenNames := make(map[string]bool)

	for i, s := range overrides {
		if s.Name == "" {
			return fmt.Errorf("style override at index %d has empty name", i)
		}
		if seenNames[s.Name] {
			return fmt.Errorf("duplicate style override: %s", s.Name)
		}
		seenNames[s.Name] = true
	}

	return nil
}
