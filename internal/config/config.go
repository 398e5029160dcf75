// ABOUTME: Runtime configuration for the converter CLI and server
// ABOUTME: Defaults, YAML file loading, SPACECONVERT_* environment overrides and validation
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all runtime configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Redis     RedisConfig     `yaml:"redis"`
	Convert   ConvertConfig   `yaml:"convert"`
	Discovery DiscoveryConfig `yaml:"discovery"`

	// LogFile, when set, receives a copy of all log output
	LogFile string `yaml:"log_file"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Port           int     `yaml:"port"`
	RateLimit      float64 `yaml:"rate_limit"` // requests per second, 0 disables
	RateBurst      int     `yaml:"rate_burst"`
	MaxUploadBytes int64   `yaml:"max_upload_bytes"`
	Metrics        bool    `yaml:"metrics"`
}

// RedisConfig configures the job store. An empty Addr keeps jobs in memory.
type RedisConfig struct {
	Addr   string        `yaml:"addr"`
	JobTTL time.Duration `yaml:"job_ttl"`
}

// ConvertConfig configures the conversion pipeline
type ConvertConfig struct {
	TargetRate int           `yaml:"target_rate"` // 0 keeps the source rate
	StepDelay  time.Duration `yaml:"step_delay"`
	OutputDir  string        `yaml:"output_dir"`
	CacheDir   string        `yaml:"cache_dir"`
}

// DiscoveryConfig configures mDNS advertisement
type DiscoveryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Name    string `yaml:"name"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			RateLimit:      5,
			RateBurst:      10,
			MaxUploadBytes: 100 << 20,
			Metrics:        true,
		},
		Redis: RedisConfig{
			JobTTL: time.Hour,
		},
		Convert: ConvertConfig{
			StepDelay: 500 * time.Millisecond,
			OutputDir: ".",
			CacheDir:  defaultCacheDir(),
		},
		Discovery: DiscoveryConfig{
			Enabled: true,
			Name:    "SpaceConvert",
		},
	}
}

func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return dir + string(os.PathSeparator) + "spaceconvert"
	}
	return os.TempDir() + string(os.PathSeparator) + "spaceconvert"
}

// Load builds a configuration from defaults, the YAML file at path (if any)
// and the environment, in that order
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open config %q: %w", path, err)
		}
		defer f.Close()

		if err := cfg.decode(f); err != nil {
			return nil, fmt.Errorf("failed to parse config %q: %w", path, err)
		}
	}

	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromReader decodes YAML on top of the defaults and validates the result
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(r); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode yaml: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from SPACECONVERT_* environment variables
func (c *Config) ApplyEnv() {
	c.Server.Port = envInt("SPACECONVERT_PORT", c.Server.Port)
	c.Server.RateLimit = envFloat("SPACECONVERT_RATE_LIMIT", c.Server.RateLimit)
	c.Server.RateBurst = envInt("SPACECONVERT_RATE_BURST", c.Server.RateBurst)
	c.Server.MaxUploadBytes = int64(envInt("SPACECONVERT_MAX_UPLOAD_BYTES", int(c.Server.MaxUploadBytes)))
	c.Server.Metrics = envBool("SPACECONVERT_METRICS", c.Server.Metrics)

	c.Redis.Addr = envStr("SPACECONVERT_REDIS_ADDR", c.Redis.Addr)
	c.Redis.JobTTL = envDuration("SPACECONVERT_JOB_TTL", c.Redis.JobTTL)

	c.Convert.TargetRate = envInt("SPACECONVERT_TARGET_RATE", c.Convert.TargetRate)
	c.Convert.StepDelay = envDuration("SPACECONVERT_STEP_DELAY", c.Convert.StepDelay)
	c.Convert.OutputDir = envStr("SPACECONVERT_OUTPUT_DIR", c.Convert.OutputDir)
	c.Convert.CacheDir = envStr("SPACECONVERT_CACHE_DIR", c.Convert.CacheDir)

	c.Discovery.Enabled = envBool("SPACECONVERT_MDNS", c.Discovery.Enabled)
	c.Discovery.Name = envStr("SPACECONVERT_NAME", c.Discovery.Name)

	c.LogFile = envStr("SPACECONVERT_LOG_FILE", c.LogFile)
}

// Validate reports every invalid value at once
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("server.rate_limit must not be negative"))
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst < 1 {
		errs = append(errs, fmt.Errorf("server.rate_burst must be at least 1 when rate limiting"))
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("server.max_upload_bytes must be positive"))
	}
	if c.Redis.JobTTL < 0 {
		errs = append(errs, fmt.Errorf("redis.job_ttl must not be negative"))
	}
	if c.Convert.TargetRate < 0 || c.Convert.TargetRate > 384000 {
		errs = append(errs, fmt.Errorf("convert.target_rate %d out of range", c.Convert.TargetRate))
	}
	if c.Convert.StepDelay < 0 {
		errs = append(errs, fmt.Errorf("convert.step_delay must not be negative"))
	}

	return errors.Join(errs...)
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
