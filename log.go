package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
)

// setupLog configures the global logger. Logs go to stderr; set
// DASHBOARD_LOGFILE to append them to a file instead, and DASHBOARD_DEBUG
// for debug level. The returned closer flushes the log file, if any.
func setupLog() (func() error, error) {
	log.SetReportTimestamp(true)
	if os.Getenv("DASHBOARD_DEBUG") != "" {
		log.SetLevel(log.DebugLevel)
	}

	path := os.Getenv("DASHBOARD_LOGFILE")
	if path == "" {
		return func() error { return nil }, nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("unable to open log file: %w", err)
	}
	log.SetOutput(f)
	return f.Close, nil
}
