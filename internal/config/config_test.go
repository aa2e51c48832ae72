package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Port:                   "8082",
		DataDir:                "/tmp/fintrack",
		TrendThreshold:         0.10,
		RecurringMinOccurrence: 3,
		CacheSize:              128,
		CacheTTL:               5 * time.Minute,
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Port = "abc" },
			wantErr: "invalid port",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Port = "70000" },
			wantErr: "invalid port",
		},
		{
			name:    "empty data dir",
			mutate:  func(c *Config) { c.DataDir = "" },
			wantErr: "data directory",
		},
		{
			name:    "trend threshold too big",
			mutate:  func(c *Config) { c.TrendThreshold = 1.5 },
			wantErr: "trend threshold",
		},
		{
			name:    "min occurrences too small",
			mutate:  func(c *Config) { c.RecurringMinOccurrence = 1 },
			wantErr: "recurring minimum occurrences",
		},
		{
			name:    "cache TTL too small",
			mutate:  func(c *Config) { c.CacheTTL = time.Millisecond },
			wantErr: "cache TTL",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestValidateAccumulatesErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Port = "abc"
	cfg.DataDir = ""
	cfg.CacheSize = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want error")
	}
	for _, want := range []string{"invalid port", "data directory", "cache size"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("Validate() error %q missing %q", err, want)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Port != "8082" {
		t.Fatalf("default port = %q, want 8082", cfg.Port)
	}
	if cfg.TrendThreshold != 0.10 {
		t.Fatalf("default trend threshold = %v, want 0.10", cfg.TrendThreshold)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}
