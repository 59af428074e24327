// Package config provides shared configuration utilities.
package config

import (
	"os"

	"github.com/charmbracelet/log"
)

// GetEnv returns the value of the environment variable named by the key,
// or fallback if the variable is not set.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// NewLogger builds the process logger. The level comes from LOG_LEVEL
// (debug, info, warn, error) and defaults to info.
func NewLogger(prefix string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
	})
	if level, err := log.ParseLevel(GetEnv("LOG_LEVEL", "info")); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warn("invalid LOG_LEVEL, using info", "err", err)
	}
	return logger
}
