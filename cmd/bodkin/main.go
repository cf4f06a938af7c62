package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/23skdu/longbow-bodkin/internal/coeff"
	"github.com/23skdu/longbow-bodkin/internal/config"
	"github.com/23skdu/longbow-bodkin/internal/harness"
	"github.com/23skdu/longbow-bodkin/internal/logger"
	"github.com/23skdu/longbow-bodkin/internal/pipeline"
	"github.com/23skdu/longbow-bodkin/internal/reference"
)

var (
	batchSize   = flag.Int("n", 1000000, "Number of random samples to verify")
	inputLo     = flag.Float64("lo", -1.0, "Lower bound of the random sweep (inclusive)")
	inputHi     = flag.Float64("hi", 9.0, "Upper bound of the random sweep (exclusive)")
	seed        = flag.Int64("seed", 1, "Seed for the random sweep")
	relErrTol   = flag.Float64("rel-err", 1e-4, "Relative error tolerance")
	ulpTol      = flag.Uint64("ulp", 2, "ULP distance tolerance")
	coeffPath   = flag.String("coeff", "", "Path to a coefficient table (fitted at startup when empty)")
	flightAddr  = flag.String("flight", "", "Arrow Flight reference service address (optional)")
	artifact    = flag.String("artifact", "", "Path to write the per-sample CSV artifact (optional)")
	metricsAddr = flag.String("metrics", ":9090", "Address to serve Prometheus metrics")
	logLevel    = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	logFormat   = flag.String("log-format", "console", "Log format: console or json")
	debugFail   = flag.Bool("debug-failures", true, "Log every sample outside tolerance")
)

func main() {
	flag.Parse()

	cfg := config.Default()
	cfg.BatchSize = *batchSize
	cfg.InputLo = *inputLo
	cfg.InputHi = *inputHi
	cfg.Seed = *seed
	cfg.RelErrTol = *relErrTol
	cfg.ULPTol = *ulpTol
	cfg.CoeffPath = *coeffPath
	cfg.FlightAddr = *flightAddr
	cfg.ArtifactPath = *artifact
	cfg.MetricsAddr = *metricsAddr
	cfg.LogLevel = *logLevel
	cfg.LogFormat = *logFormat
	cfg.DebugFailures = *debugFail
	logger.Setup(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		logger.Log.Fatal("invalid configuration", "error", err)
	}

	go func() {
		http.Handle("/metrics", promhttp.Handler())
		logger.Log.Info("metrics serving", "addr", cfg.MetricsAddr)
		if err := http.ListenAndServe(cfg.MetricsAddr, nil); err != nil {
			logger.Log.Error("metrics server error", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	table := loadTable(cfg.CoeffPath)
	pipe := pipeline.New(table, pipeline.Latencies{
		Classify: 1, Index: 1, Lookup: 1,
		FMAMul: cfg.FMAMulStages, FMAAdd: cfg.FMAAddStages,
		Resolve: 1,
	})
	logger.Log.Info("pipeline configured", "latency", pipe.Latency())

	gens := []reference.Generator{reference.Scalar{}}
	if cfg.FlightAddr != "" {
		fg := reference.NewFlight(cfg.FlightAddr)
		if err := fg.Connect(ctx); err != nil {
			logger.Log.Fatal("connecting to flight reference", "addr", cfg.FlightAddr, "error", err)
		}
		defer fg.Close()
		gens = append(gens, fg)
		logger.Log.Info("flight reference connected", "addr", cfg.FlightAddr)
	}

	h, err := harness.New(pipe, harness.Tolerance{RelErr: cfg.RelErrTol, ULP: cfg.ULPTol}, gens...)
	if err != nil {
		logger.Log.Fatal("building harness", "error", err)
	}
	h.SetDebugFailures(cfg.DebugFailures)

	exit := 0
	if rep := runBatch(ctx, h, "edge-cases", harness.EdgeCases()); rep == nil {
		exit = 1
	}

	sweep := harness.RandomSweep(cfg.BatchSize, cfg.InputLo, cfg.InputHi, cfg.Seed)
	rep := runBatch(ctx, h, "random-sweep", sweep)
	if rep == nil {
		exit = 1
	} else if cfg.ArtifactPath != "" {
		if err := writeArtifact(cfg.ArtifactPath, rep); err != nil {
			logger.Log.Error("writing artifact", "path", cfg.ArtifactPath, "error", err)
			exit = 1
		} else {
			logger.Log.Info("artifact written", "path", cfg.ArtifactPath, "records", len(rep.Records))
		}
	}
	os.Exit(exit)
}

func loadTable(path string) *coeff.Table {
	if path == "" {
		logger.Log.Info("fitting coefficient table at startup")
		return coeff.Default()
	}
	f, err := os.Open(path)
	if err != nil {
		logger.Log.Fatal("opening coefficient table", "path", path, "error", err)
	}
	defer f.Close()
	table, err := coeff.Parse(f)
	if err != nil {
		logger.Log.Fatal("parsing coefficient table", "path", path, "error", err)
	}
	logger.Log.Info("coefficient table loaded", "path", path)
	return table
}

func runBatch(ctx context.Context, h *harness.Harness, name string, inputs []float32) *harness.Report {
	logger.Log.Info("batch starting", "batch", name, "samples", len(inputs))
	rep, err := h.Run(ctx, name, inputs)
	if err != nil {
		logger.Log.Error("batch aborted", "batch", name, "error", err)
		return nil
	}
	logger.Log.Info("batch complete",
		"batch", name,
		"run_id", rep.ID.String(),
		"total", rep.Stats.Total,
		"pass", rep.Stats.Pass,
		"fail", rep.Stats.Fail,
		"pass_rate", fmt.Sprintf("%.4f%%", rep.Stats.PassRate()),
		"avg_rel_err", rep.Stats.AvgErr,
		"max_rel_err", rep.Stats.MaxErr,
		"avg_ulp", rep.Stats.AvgULP,
		"max_ulp", rep.Stats.MaxULP,
		"cycles", rep.Stats.Cycles,
		"elapsed", rep.Elapsed,
	)
	return rep
}

func writeArtifact(path string, rep *harness.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := harness.WriteArtifact(f, rep); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
