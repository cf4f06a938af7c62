package main

import (
	"flag"
	"os"

	"github.com/23skdu/longbow-bodkin/internal/coeff"
	"github.com/23skdu/longbow-bodkin/internal/logger"
)

var (
	outPath   = flag.String("out", "lut.txt", "Path to write the coefficient table")
	logLevel  = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	logFormat = flag.String("log-format", "console", "Log format: console or json")
)

func main() {
	flag.Parse()
	logger.Setup(*logLevel, *logFormat)

	table := coeff.Fit()

	f, err := os.Create(*outPath)
	if err != nil {
		logger.Log.Fatal("creating output file", "path", *outPath, "error", err)
	}
	if _, err := table.WriteTo(f); err != nil {
		f.Close()
		logger.Log.Fatal("writing coefficient table", "path", *outPath, "error", err)
	}
	if err := f.Close(); err != nil {
		logger.Log.Fatal("closing output file", "path", *outPath, "error", err)
	}
	logger.Log.Info("coefficient table written", "path", *outPath, "segments", coeff.Segments)
}
