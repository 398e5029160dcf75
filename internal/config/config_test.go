// ABOUTME: Tests for configuration loading
// ABOUTME: Tests defaults, YAML decoding, environment overrides and validation
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadFromReader(t *testing.T) {
	yaml := `
server:
  port: 9090
  rate_limit: 0
redis:
  addr: localhost:6379
  job_ttl: 30m
convert:
  target_rate: 48000
  step_delay: 0s
discovery:
  enabled: false
`
	cfg, err := LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("LoadFromReader() failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.RateLimit != 0 {
		t.Errorf("rate_limit = %v, want 0", cfg.Server.RateLimit)
	}
	if cfg.Server.RateBurst != 10 {
		t.Errorf("rate_burst should keep its default, got %d", cfg.Server.RateBurst)
	}
	if cfg.Redis.Addr != "localhost:6379" || cfg.Redis.JobTTL != 30*time.Minute {
		t.Errorf("unexpected redis config: %+v", cfg.Redis)
	}
	if cfg.Convert.TargetRate != 48000 || cfg.Convert.StepDelay != 0 {
		t.Errorf("unexpected convert config: %+v", cfg.Convert)
	}
	if cfg.Discovery.Enabled {
		t.Error("discovery should be disabled")
	}
}

func TestLoadFromReaderEmpty(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("empty config should load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want default 8080", cfg.Server.Port)
	}
}

func TestLoadFromReaderUnknownField(t *testing.T) {
	if _, err := LoadFromReader(strings.NewReader("bogus: 1\n")); err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spaceconvert.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 7000\n"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SPACECONVERT_PORT", "7100")
	t.Setenv("SPACECONVERT_MDNS", "false")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != 7100 {
		t.Errorf("environment should override file, got port %d", cfg.Server.Port)
	}
	if cfg.Discovery.Enabled {
		t.Error("SPACECONVERT_MDNS=false should disable discovery")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("SPACECONVERT_REDIS_ADDR", "redis:6379")
	t.Setenv("SPACECONVERT_JOB_TTL", "2h")
	t.Setenv("SPACECONVERT_TARGET_RATE", "22050")
	t.Setenv("SPACECONVERT_RATE_LIMIT", "1.5")
	t.Setenv("SPACECONVERT_STEP_DELAY", "not-a-duration")

	cfg := Default()
	cfg.ApplyEnv()

	if cfg.Redis.Addr != "redis:6379" {
		t.Errorf("redis addr = %q", cfg.Redis.Addr)
	}
	if cfg.Redis.JobTTL != 2*time.Hour {
		t.Errorf("job ttl = %v", cfg.Redis.JobTTL)
	}
	if cfg.Convert.TargetRate != 22050 {
		t.Errorf("target rate = %d", cfg.Convert.TargetRate)
	}
	if cfg.Server.RateLimit != 1.5 {
		t.Errorf("rate limit = %v", cfg.Server.RateLimit)
	}
	if cfg.Convert.StepDelay != 500*time.Millisecond {
		t.Errorf("unparseable value should keep the default, got %v", cfg.Convert.StepDelay)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"negative rate", func(c *Config) { c.Server.RateLimit = -1 }, "server.rate_limit"},
		{"zero burst", func(c *Config) { c.Server.RateBurst = 0 }, "server.rate_burst"},
		{"zero upload", func(c *Config) { c.Server.MaxUploadBytes = 0 }, "server.max_upload_bytes"},
		{"negative ttl", func(c *Config) { c.Redis.JobTTL = -time.Second }, "redis.job_ttl"},
		{"huge rate", func(c *Config) { c.Convert.TargetRate = 1000000 }, "convert.target_rate"},
		{"negative delay", func(c *Config) { c.Convert.StepDelay = -1 }, "convert.step_delay"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateReportsAll(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = -1
	cfg.Convert.TargetRate = -1

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "server.port") || !strings.Contains(err.Error(), "convert.target_rate") {
		t.Errorf("expected both failures reported, got %q", err)
	}
}
