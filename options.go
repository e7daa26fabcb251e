package fixt

import (
	"log/slog"
	"time"
)

// CreateObserver is notified after every producer invocation with the
// fixture's local name, scope, build duration, and the producer's error.
// Cache hits do not invoke producers and are not observed.
type CreateObserver func(name string, scope Scope, duration time.Duration, err error)

type engineConfig struct {
	logger   *slog.Logger
	onCreate []CreateObserver
}

type Option func(*engineConfig)

func WithLogger(logger *slog.Logger) Option {
	return func(cfg *engineConfig) {
		cfg.logger = logger
	}
}

func WithCreateObserver(observer CreateObserver) Option {
	return func(cfg *engineConfig) {
		cfg.onCreate = append(cfg.onCreate, observer)
	}
}
