package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME and the working directory at a fresh temp dir so
// no real config or .env file leaks into the test
func isolate(t *testing.T) string {
	t.Helper()
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)

	oldDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tempDir))
	t.Cleanup(func() { _ = os.Chdir(oldDir) })

	return tempDir
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "https://api.opensea.io/api/v2", cfg.Catalog.BaseURL)
	assert.Equal(t, 100, cfg.Catalog.PageSize)
	assert.Equal(t, 2000, cfg.Catalog.TargetCount)
	assert.Equal(t, 30*time.Second, cfg.Catalog.RequestTimeout)
	assert.Equal(t, "uri-scheme", cfg.Catalog.Eligibility)
	assert.Empty(t, cfg.Catalog.APIKey)

	assert.Len(t, cfg.Gateway.Hosts, 13)
	assert.Equal(t, "gateway.pinata.cloud", cfg.Gateway.Hosts[0])
	assert.Equal(t, "permaweb.eu.org", cfg.Gateway.Hosts[12])
	assert.Equal(t, 5*time.Second, cfg.Gateway.Timeout)

	assert.Equal(t, 200, cfg.Sampling.Size)
	assert.Equal(t, int64(0), cfg.Sampling.Seed)

	assert.Equal(t, "./outputs", cfg.Output.BaseDirectory)
	assert.Equal(t, "pfps", cfg.Output.Subdirectory)
	assert.Equal(t, 256, cfg.Output.ThumbnailSize)
	assert.Equal(t, int64(DefaultMaxPixels), cfg.Output.MaxPixels)

	assert.Equal(t, 500*time.Millisecond, cfg.RateLimit.FetchInterval)
	assert.Equal(t, 500*time.Millisecond, cfg.RateLimit.CrawlPause)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestDefaultConfigCopiesHosts(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Gateway.Hosts[0] = "mutated.example"

	assert.Equal(t, "gateway.pinata.cloud", DefaultGatewayHosts[0])
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv(APIKeyEnv, "env-key")
	t.Setenv("PFPHARVEST_BASE_URL", "http://localhost:9999/api/v2")
	t.Setenv("PFPHARVEST_SAMPLE_SIZE", "25")
	t.Setenv("PFPHARVEST_TARGET_COUNT", "300")
	t.Setenv("PFPHARVEST_OUTPUT_DIR", "/tmp/harvest")
	t.Setenv("PFPHARVEST_SEED", "42")
	t.Setenv("PFPHARVEST_ELIGIBILITY", "ipfs-only")
	t.Setenv("PFPHARVEST_LOG_LEVEL", "debug")
	t.Setenv("PFPHARVEST_LOG_FILE", "/tmp/harvest/errors.log")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "env-key", cfg.Catalog.APIKey)
	assert.Equal(t, "http://localhost:9999/api/v2", cfg.Catalog.BaseURL)
	assert.Equal(t, 25, cfg.Sampling.Size)
	assert.Equal(t, 300, cfg.Catalog.TargetCount)
	assert.Equal(t, "/tmp/harvest", cfg.Output.BaseDirectory)
	assert.Equal(t, int64(42), cfg.Sampling.Seed)
	assert.Equal(t, "ipfs-only", cfg.Catalog.Eligibility)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/tmp/harvest/errors.log", cfg.Logging.File)
}

func TestLoadFromEnvInvalidNumbers(t *testing.T) {
	t.Setenv("PFPHARVEST_SAMPLE_SIZE", "many")
	t.Setenv("PFPHARVEST_SEED", "0x")

	cfg := DefaultConfig()
	err := cfg.LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PFPHARVEST_SAMPLE_SIZE")
	assert.Contains(t, err.Error(), "PFPHARVEST_SEED")
	assert.Equal(t, 200, cfg.Sampling.Size)
}

func TestLoadFromFile(t *testing.T) {
	t.Run("valid yaml file", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "pfpharvest.yaml")
		content := `
catalog:
  base_url: http://catalog.local/api/v2
  page_size: 50
  target_count: 400
  request_timeout: 10s
  eligibility: http-substring
gateway:
  hosts:
    - mirror-a.local
    - mirror-b.local
  timeout: 2s
sampling:
  size: 20
  seed: 7
output:
  base_directory: /file/output
  subdirectory: thumbs
  thumbnail_size: 128
rate_limit:
  fetch_interval: 100ms
  crawl_pause: 0s
logging:
  level: warn
`
		require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

		cfg := DefaultConfig()
		require.NoError(t, cfg.LoadFromFile(configPath))

		assert.Equal(t, "http://catalog.local/api/v2", cfg.Catalog.BaseURL)
		assert.Equal(t, 50, cfg.Catalog.PageSize)
		assert.Equal(t, 400, cfg.Catalog.TargetCount)
		assert.Equal(t, 10*time.Second, cfg.Catalog.RequestTimeout)
		assert.Equal(t, "http-substring", cfg.Catalog.Eligibility)
		assert.Equal(t, []string{"mirror-a.local", "mirror-b.local"}, cfg.Gateway.Hosts)
		assert.Equal(t, 2*time.Second, cfg.Gateway.Timeout)
		assert.Equal(t, 20, cfg.Sampling.Size)
		assert.Equal(t, int64(7), cfg.Sampling.Seed)
		assert.Equal(t, "/file/output", cfg.Output.BaseDirectory)
		assert.Equal(t, "thumbs", cfg.Output.Subdirectory)
		assert.Equal(t, 128, cfg.Output.ThumbnailSize)
		assert.Equal(t, 100*time.Millisecond, cfg.RateLimit.FetchInterval)
		assert.Equal(t, time.Duration(0), cfg.RateLimit.CrawlPause)
		assert.Equal(t, "warn", cfg.Logging.Level)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "invalid.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("catalog:\n  base_url: [broken\n"), 0644))

		cfg := DefaultConfig()
		err := cfg.LoadFromFile(configPath)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})

	t.Run("non-existent file", func(t *testing.T) {
		cfg := DefaultConfig()
		err := cfg.LoadFromFile("/non/existent/path/config.yaml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config file")
	})

	t.Run("empty path without config file", func(t *testing.T) {
		isolate(t)
		cfg := DefaultConfig()
		assert.NoError(t, cfg.LoadFromFile(""))
	})
}

func TestFindConfigFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".pfpharvest.yaml"), []byte("sampling:\n  size: 5\n"), 0644))

	cfg := DefaultConfig()
	assert.Equal(t, ".pfpharvest.yaml", cfg.findConfigFile())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "missing api key is allowed", mutate: func(c *Config) { c.Catalog.APIKey = "" }},
		{
			name:    "empty base url",
			mutate:  func(c *Config) { c.Catalog.BaseURL = "" },
			wantErr: "catalog base URL is required",
		},
		{
			name:    "zero page size",
			mutate:  func(c *Config) { c.Catalog.PageSize = 0 },
			wantErr: "page size must be positive",
		},
		{
			name:    "unknown eligibility",
			mutate:  func(c *Config) { c.Catalog.Eligibility = "anything" },
			wantErr: "invalid eligibility policy",
		},
		{
			name:    "no gateway hosts",
			mutate:  func(c *Config) { c.Gateway.Hosts = nil },
			wantErr: "at least one gateway host is required",
		},
		{
			name:    "gateway host with path",
			mutate:  func(c *Config) { c.Gateway.Hosts = []string{"ipfs.io/ipfs"} },
			wantErr: "invalid gateway host",
		},
		{
			name:    "sample larger than target",
			mutate:  func(c *Config) { c.Sampling.Size = 5000 },
			wantErr: "sample size cannot exceed the crawl target count",
		},
		{
			name:    "nested subdirectory",
			mutate:  func(c *Config) { c.Output.Subdirectory = "a/b" },
			wantErr: "output subdirectory must be a single path element",
		},
		{
			name:    "negative delay",
			mutate:  func(c *Config) { c.RateLimit.FetchInterval = -time.Second },
			wantErr: "rate limit delays cannot be negative",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Catalog.BaseURL = ""
	cfg.Output.ThumbnailSize = 0
	cfg.Output.MaxPixels = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog base URL is required")
	assert.Contains(t, err.Error(), "thumbnail size must be positive")
	assert.Contains(t, err.Error(), "max pixels must be positive")
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"output":       "/flag/output",
		"sample-size":  10,
		"target-count": 100,
		"seed":         int64(99),
		"eligibility":  "non-empty",
		"log-level":    "error",
	})

	assert.Equal(t, "/flag/output", cfg.Output.BaseDirectory)
	assert.Equal(t, 10, cfg.Sampling.Size)
	assert.Equal(t, 100, cfg.Catalog.TargetCount)
	assert.Equal(t, int64(99), cfg.Sampling.Seed)
	assert.Equal(t, "non-empty", cfg.Catalog.Eligibility)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestMergeCommandLineFlagsIgnoresZeroValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"output":      "",
		"sample-size": 0,
	})

	assert.Equal(t, "./outputs", cfg.Output.BaseDirectory)
	assert.Equal(t, 200, cfg.Sampling.Size)
}

func TestSaveAndLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	original := DefaultConfig()
	original.Sampling.Size = 33
	original.Gateway.Hosts = []string{"one.local", "two.local"}
	require.NoError(t, original.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, 33, loaded.Sampling.Size)
	assert.Equal(t, []string{"one.local", "two.local"}, loaded.Gateway.Hosts)
}

func TestPFPDirectory(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output.BaseDirectory = "/data"
	assert.Equal(t, filepath.Join("/data", "pfps"), cfg.PFPDirectory())
}

func TestLoad(t *testing.T) {
	t.Run("precedence order", func(t *testing.T) {
		dir := isolate(t)
		configPath := filepath.Join(dir, "config.yaml")
		content := `
sampling:
  size: 40
output:
  base_directory: /file/output
logging:
  level: warn
`
		require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

		t.Setenv("PFPHARVEST_OUTPUT_DIR", "/env/output")
		t.Setenv("PFPHARVEST_LOG_LEVEL", "debug")

		cfg, err := Load(configPath, map[string]interface{}{"log-level": "error"})
		require.NoError(t, err)

		assert.Equal(t, 40, cfg.Sampling.Size)                   // file
		assert.Equal(t, "/env/output", cfg.Output.BaseDirectory) // env over file
		assert.Equal(t, "error", cfg.Logging.Level)              // flag over env
	})

	t.Run("validation failure", func(t *testing.T) {
		isolate(t)
		cfg, err := Load("", map[string]interface{}{"sample-size": 999999})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration validation failed")
		assert.Nil(t, cfg)
	})

	t.Run("loads .env file", func(t *testing.T) {
		isolate(t)
		require.NoError(t, os.WriteFile(".env", []byte("OPENSEA_API_KEY=dotenv-key\nPFPHARVEST_SEED=11\n"), 0644))

		require.NoError(t, os.Unsetenv(APIKeyEnv))
		require.NoError(t, os.Unsetenv("PFPHARVEST_SEED"))
		t.Cleanup(func() {
			_ = os.Unsetenv(APIKeyEnv)
			_ = os.Unsetenv("PFPHARVEST_SEED")
		})

		cfg, err := Load("", nil)
		require.NoError(t, err)
		assert.Equal(t, "dotenv-key", cfg.Catalog.APIKey)
		assert.Equal(t, int64(11), cfg.Sampling.Seed)
	})
}
