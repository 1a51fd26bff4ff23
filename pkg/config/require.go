package config

import (
	"log/slog"
	"os"
)

func MustNonEmpty(value, envName string) {
	if value == "" {
		slog.Error("missing required env", "env", envName)
		os.Exit(1)
	}
}

func MustNonEmptyBytes(value []byte, envName string) {
	MustNonEmpty(string(value), envName)
}
