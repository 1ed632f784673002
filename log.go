package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
)

// setupLog sends log output to a file so it never interleaves with the
// progress report on stdout.
func setupLog() (func() error, error) {
	log.SetOutput(os.Stderr)
	e, err := parseEnv()
	if err != nil {
		return nil, err
	}

	level, err := log.ParseLevel(e.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}

	logFile := e.LogFile
	if logFile == "" {
		dir, err := gap.NewScope(gap.User, appName).CacheDir()
		if err != nil {
			return nil, fmt.Errorf("unable to find cache directory: %w", err)
		}
		logFile = filepath.Join(dir, appName+".log")
	}

	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil { //nolint:gosec
		return nil, fmt.Errorf("unable to create log directory: %w", err)
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("unable to open log file: %w", err)
	}

	log.SetOutput(f)
	log.SetLevel(level)
	log.SetReportTimestamp(true)
	log.SetPrefix(appName)
	return f.Close, nil
}
