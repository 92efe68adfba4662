package app

import (
	"github.com/google/wire"

	"github.com/zeusync/sandbox/internal/config"
	"github.com/zeusync/sandbox/internal/core/observability/log"
	"github.com/zeusync/sandbox/internal/game"
)

var ProviderSet = wire.NewSet(
	ProvideLogger,
	game.DefaultRegistries,
	New,
)

// ProvideLogger builds the zap backed logger described by cfg. The cleanup
// flushes buffered entries.
func ProvideLogger(cfg config.Config) (log.Log, func(), error) {
	logger, err := log.NewWithOptions(log.Options{
		Level:       cfg.LogLevel(),
		Development: cfg.Log.Development,
	})
	if err != nil {
		return nil, nil, err
	}
	return logger, func() { _ = logger.Sync() }, nil
}
