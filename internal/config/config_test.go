package config

import "testing"

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.BatchSize != 1000000 {
		t.Errorf("expected BatchSize 1000000, got %d", cfg.BatchSize)
	}
	if cfg.InputLo != -1.0 || cfg.InputHi != 9.0 {
		t.Errorf("expected input range [-1, 9), got [%g, %g)", cfg.InputLo, cfg.InputHi)
	}
	if cfg.RelErrTol != 1e-4 {
		t.Errorf("expected RelErrTol 1e-4, got %g", cfg.RelErrTol)
	}
	if cfg.ULPTol != 2 {
		t.Errorf("expected ULPTol 2, got %d", cfg.ULPTol)
	}
	if cfg.FMAMulStages != 3 || cfg.FMAAddStages != 2 {
		t.Errorf("expected FMA staging 3+2, got %d+%d", cfg.FMAMulStages, cfg.FMAAddStages)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "console" {
		t.Errorf("expected info/console logging, got %s/%s", cfg.LogLevel, cfg.LogFormat)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := Default()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid config", func(c *Config) {}, false},
		{"zero batch size", func(c *Config) { c.BatchSize = 0 }, true},
		{"negative batch size", func(c *Config) { c.BatchSize = -5 }, true},
		{"inverted range", func(c *Config) { c.InputLo, c.InputHi = 9, -1 }, true},
		{"empty range", func(c *Config) { c.InputHi = c.InputLo }, true},
		{"zero tolerance", func(c *Config) { c.RelErrTol = 0 }, true},
		{"zero ULP tolerance is allowed", func(c *Config) { c.ULPTol = 0 }, false},
		{"zero mul stages", func(c *Config) { c.FMAMulStages = 0 }, true},
		{"zero add stages", func(c *Config) { c.FMAAddStages = 0 }, true},
		{"unknown log level", func(c *Config) { c.LogLevel = "verbose" }, true},
		{"empty log level", func(c *Config) { c.LogLevel = "" }, true},
		{"uppercase log level", func(c *Config) { c.LogLevel = "DEBUG" }, false},
		{"unknown log format", func(c *Config) { c.LogFormat = "xml" }, true},
		{"json log format", func(c *Config) { c.LogFormat = "json" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
