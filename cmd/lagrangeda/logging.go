package main

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/zhongruiw/lagrangeda"
)

// LogConfig selects where diagnostics go.
type LogConfig struct {
	Filename   string // empty logs to stderr
	MaxSize    int    // megabytes
	MaxBackups int
	MaxAge     int // days
	Verbose    bool
}

// setupLogging routes the library logger and returns a closer for the log file.
// Without Verbose the library stays silent and only the CLI reports.
func setupLogging(cfg LogConfig) (*log.Logger, io.Closer) {
	var w io.Writer = os.Stderr
	var closer io.Closer = io.NopCloser(nil)
	if cfg.Filename != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			LocalTime:  true,
		}
		w, closer = lj, lj
	}
	logger := log.New(w, "", log.LstdFlags|log.Lmicroseconds)
	if cfg.Verbose {
		lagrangeda.SetLogger(logger.Printf)
	} else {
		lagrangeda.SetLogger(nil)
	}
	return logger, closer
}
