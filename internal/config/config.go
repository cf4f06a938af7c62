package config

import (
	"fmt"
	"strings"
)

// Config carries everything the driver needs: batch shape, input range,
// accuracy thresholds, and pipeline staging. The thresholds are
// calibration constants tied to the coefficient fit, so they live here
// rather than in the harness.
type Config struct {
	// Random sweep shape.
	BatchSize int
	InputLo   float64
	InputHi   float64
	Seed      int64

	// Accuracy pass criterion.
	RelErrTol float64
	ULPTol    uint64

	// FMA sub-stage depths; total pipeline latency follows from these.
	FMAMulStages int
	FMAAddStages int

	// External collaborators.
	CoeffPath    string // offline-fitted table; empty selects the built-in fit
	FlightAddr   string // accelerator reference service; empty disables it
	ArtifactPath string // per-sample result records; empty disables the artifact

	MetricsAddr string
	LogLevel    string
	LogFormat   string

	// Itemize failing samples in the log.
	DebugFailures bool
}

func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("invalid batch_size: %d (must be positive)", c.BatchSize)
	}
	if c.InputHi <= c.InputLo {
		return fmt.Errorf("invalid input range: [%g, %g)", c.InputLo, c.InputHi)
	}
	if c.RelErrTol <= 0 {
		return fmt.Errorf("invalid rel_err_tol: %g (must be positive)", c.RelErrTol)
	}
	if c.FMAMulStages <= 0 {
		return fmt.Errorf("invalid fma_mul_stages: %d (must be positive)", c.FMAMulStages)
	}
	if c.FMAAddStages <= 0 {
		return fmt.Errorf("invalid fma_add_stages: %d (must be positive)", c.FMAAddStages)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level: %q", c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log_format: %q", c.LogFormat)
	}
	return nil
}

func Default() Config {
	return Config{
		BatchSize: 1000000,
		InputLo:   -1.0,
		InputHi:   9.0,
		Seed:      1,

		RelErrTol: 1e-4,
		ULPTol:    2,

		FMAMulStages: 3,
		FMAAddStages: 2,

		MetricsAddr: ":9090",
		LogLevel:    "info",
		LogFormat:   "console",

		DebugFailures: true,
	}
}
