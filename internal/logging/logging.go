// Package logging builds the process-wide zap logger.
package logging

import (
	"go.uber.org/zap"
)

// New builds a production or development zap logger depending on env.
// Mirrors libs/go/logger's InitLogger(env) entry point.
func New(env string) (*zap.Logger, error) {
	if env == "production" {
		cfg := zap.NewProductionConfig()
		cfg.DisableStacktrace = true
		return cfg.Build()
	}
	return zap.NewDevelopment()
}

// Must panics if New fails; used from cmd/ entrypoints where a logger is a
// hard prerequisite to doing anything else.
func Must(env string) *zap.Logger {
	l, err := New(env)
	if err != nil {
		panic(err)
	}
	return l
}
