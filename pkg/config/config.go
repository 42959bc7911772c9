package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultMaxPixels caps the decoded size of a source image at 40 megapixels
const DefaultMaxPixels = 40_000_000

// APIKeyEnv is the environment variable that carries the catalog API key
const APIKeyEnv = "OPENSEA_API_KEY"

// DefaultGatewayHosts is the ordered list of IPFS mirrors tried for content-addressed images.
// The order is the resolution priority; cf-ipfs.com appears twice on purpose.
var DefaultGatewayHosts = []string{
	"gateway.pinata.cloud",
	"gateway.ipfs.io",
	"storry.tv",
	"4everland.io",
	"cloudflare-ipfs.com",
	"ipfs.eth.aragon.network",
	"cf-ipfs.com",
	"w3s.link",
	"cf-ipfs.com",
	"gw3.io",
	"dweb.eu.org",
	"video.oneloveipfs.com",
	"permaweb.eu.org",
}

// Config holds all configuration options for a harvest run
type Config struct {
	// Catalog API settings
	Catalog CatalogConfig `yaml:"catalog" json:"catalog"`

	// Content-addressed image mirrors
	Gateway GatewayConfig `yaml:"gateway" json:"gateway"`

	// Random sample settings
	Sampling SamplingConfig `yaml:"sampling" json:"sampling"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Politeness delays
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// CatalogConfig holds catalog API configuration
type CatalogConfig struct {
	BaseURL        string        `yaml:"base_url" json:"base_url"`
	APIKey         string        `yaml:"api_key" json:"api_key"`
	PageSize       int           `yaml:"page_size" json:"page_size"`
	TargetCount    int           `yaml:"target_count" json:"target_count"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
	Eligibility    string        `yaml:"eligibility" json:"eligibility"`
}

// GatewayConfig holds mirror host configuration
type GatewayConfig struct {
	Hosts   []string      `yaml:"hosts" json:"hosts"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// SamplingConfig holds sampler configuration
type SamplingConfig struct {
	Size int `yaml:"size" json:"size"`
	// Seed makes the selection reproducible; 0 seeds from the clock
	Seed int64 `yaml:"seed" json:"seed"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
	Subdirectory  string `yaml:"subdirectory" json:"subdirectory"`
	ThumbnailSize int    `yaml:"thumbnail_size" json:"thumbnail_size"`
	// MaxPixels rejects source images whose declared width*height exceeds it
	MaxPixels int64 `yaml:"max_pixels" json:"max_pixels"`
}

// RateLimitConfig holds the pauses applied around external calls
type RateLimitConfig struct {
	FetchInterval time.Duration `yaml:"fetch_interval" json:"fetch_interval"`
	CrawlPause    time.Duration `yaml:"crawl_pause" json:"crawl_pause"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	hosts := make([]string, len(DefaultGatewayHosts))
	copy(hosts, DefaultGatewayHosts)

	return &Config{
		Catalog: CatalogConfig{
			BaseURL:        "https://api.opensea.io/api/v2",
			PageSize:       100,
			TargetCount:    2000,
			RequestTimeout: 30 * time.Second,
			Eligibility:    "uri-scheme",
		},
		Gateway: GatewayConfig{
			Hosts:   hosts,
			Timeout: 5 * time.Second,
		},
		Sampling: SamplingConfig{
			Size: 200,
			Seed: 0,
		},
		Output: OutputConfig{
			BaseDirectory: "./outputs",
			Subdirectory:  "pfps",
			ThumbnailSize: 256,
			MaxPixels:     DefaultMaxPixels,
		},
		RateLimit: RateLimitConfig{
			FetchInterval: 500 * time.Millisecond,
			CrawlPause:    500 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if apiKey := os.Getenv(APIKeyEnv); apiKey != "" {
		c.Catalog.APIKey = apiKey
	}
	if baseURL := os.Getenv("PFPHARVEST_BASE_URL"); baseURL != "" {
		c.Catalog.BaseURL = baseURL
	}
	if eligibility := os.Getenv("PFPHARVEST_ELIGIBILITY"); eligibility != "" {
		c.Catalog.Eligibility = eligibility
	}

	if size := os.Getenv("PFPHARVEST_SAMPLE_SIZE"); size != "" {
		val, err := strconv.Atoi(size)
		if err != nil {
			errs = append(errs, fmt.Errorf("PFPHARVEST_SAMPLE_SIZE: %w", err))
		} else if val > 0 {
			c.Sampling.Size = val
		}
	}

	if target := os.Getenv("PFPHARVEST_TARGET_COUNT"); target != "" {
		val, err := strconv.Atoi(target)
		if err != nil {
			errs = append(errs, fmt.Errorf("PFPHARVEST_TARGET_COUNT: %w", err))
		} else if val > 0 {
			c.Catalog.TargetCount = val
		}
	}

	if seed := os.Getenv("PFPHARVEST_SEED"); seed != "" {
		val, err := strconv.ParseInt(seed, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("PFPHARVEST_SEED: %w", err))
		} else {
			c.Sampling.Seed = val
		}
	}

	if outputDir := os.Getenv("PFPHARVEST_OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}

	if logLevel := os.Getenv("PFPHARVEST_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile := os.Getenv("PFPHARVEST_LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		"pfpharvest.yaml",
		".pfpharvest.yaml",
		".pfpharvest.yml",
		filepath.Join(home, ".config", "pfpharvest", "config.yaml"),
		filepath.Join(home, ".config", "pfpharvest", "config.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	// Catalog
	if c.Catalog.BaseURL == "" {
		errs = append(errs, errors.New("catalog base URL is required"))
	}
	if c.Catalog.PageSize <= 0 {
		errs = append(errs, errors.New("page size must be positive"))
	}
	if c.Catalog.TargetCount <= 0 {
		errs = append(errs, errors.New("target count must be positive"))
	}
	if c.Catalog.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	validPolicies := map[string]bool{
		"uri-scheme": true, "http-substring": true, "non-empty": true, "ipfs-only": true,
	}
	if !validPolicies[strings.ToLower(c.Catalog.Eligibility)] {
		errs = append(errs, fmt.Errorf("invalid eligibility policy %q", c.Catalog.Eligibility))
	}

	// Gateway
	if len(c.Gateway.Hosts) == 0 {
		errs = append(errs, errors.New("at least one gateway host is required"))
	}
	for _, host := range c.Gateway.Hosts {
		if strings.TrimSpace(host) == "" || strings.Contains(host, "/") {
			errs = append(errs, fmt.Errorf("invalid gateway host %q", host))
		}
	}
	if c.Gateway.Timeout <= 0 {
		errs = append(errs, errors.New("gateway timeout must be positive"))
	}

	// Sampling
	if c.Sampling.Size <= 0 {
		errs = append(errs, errors.New("sample size must be positive"))
	}
	if c.Sampling.Size > c.Catalog.TargetCount {
		errs = append(errs, errors.New("sample size cannot exceed the crawl target count"))
	}

	// Output
	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Output.Subdirectory == "" || strings.ContainsAny(c.Output.Subdirectory, `/\`) {
		errs = append(errs, errors.New("output subdirectory must be a single path element"))
	}
	if c.Output.ThumbnailSize <= 0 {
		errs = append(errs, errors.New("thumbnail size must be positive"))
	}
	if c.Output.MaxPixels <= 0 {
		errs = append(errs, errors.New("max pixels must be positive"))
	}

	// Rate limiting
	if c.RateLimit.FetchInterval < 0 || c.RateLimit.CrawlPause < 0 {
		errs = append(errs, errors.New("rate limit delays cannot be negative"))
	}

	// Logging
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// PFPDirectory returns the directory thumbnails are written to
func (c *Config) PFPDirectory() string {
	return filepath.Join(c.Output.BaseDirectory, c.Output.Subdirectory)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if size, ok := flags["sample-size"].(int); ok && size > 0 {
		c.Sampling.Size = size
	}
	if target, ok := flags["target-count"].(int); ok && target > 0 {
		c.Catalog.TargetCount = target
	}
	if seed, ok := flags["seed"].(int64); ok {
		c.Sampling.Seed = seed
	}
	if eligibility, ok := flags["eligibility"].(string); ok && eligibility != "" {
		c.Catalog.Eligibility = eligibility
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// godotenv never overrides variables that are already set
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".pfpharvest.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
