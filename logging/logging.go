// Package logging configures the process-wide zap logger, mirroring the
// teacher's util.SetupLog idiom: a package-level Setup call wires
// zap.ReplaceGlobals so the rest of the codebase can just call zap.S().
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Setup builds and installs the global zap logger. debug selects a
// development encoder config (colorized level, caller) over the
// production JSON encoder used for normal daemon operation.
func Setup(debug bool) (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	logger, err := cfg.Build(zap.AddCallerSkip(0))
	if err != nil {
		return nil, fmt.Errorf("logging: building zap logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return logger.Sugar(), nil
}
