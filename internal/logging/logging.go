// Package logging constructs the production ectologger.Logger backing for
// whatever process embeds this core, mirroring config.Load as the other
// half of "constructed once, passed in" initialization (SPEC_FULL.md §1b).
// Grounded on orchid/pkg/repositories/integration_repository_test.go's
// zapadapter.NewZapEctoLogger(zapLogger, nil) construction, generalized
// from a fixed zap.NewDevelopment() test logger to one that honors
// config.Config's PrettyLogs/LogLevel fields.
package logging

import (
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Ramsey-B/meridian/config"
)

// New builds an ectologger.Logger from cfg: PrettyLogs selects zap's
// human-readable development encoder over its default JSON production
// encoder, and LogLevel sets the minimum enabled level.
func New(cfg config.Config) (ectologger.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.PrettyLogs {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	zapLogger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil), nil
}
