package env

import (
	zap "go.uber.org/zap"
)

// MakeLogger builds the process-wide zap logger. Verbose switches to
// the human readable development encoder at debug level, which also
// surfaces the wire traffic the client logs at debug.
func MakeLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}

	logConfig := zap.NewProductionConfig()
	logConfig.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	logConfig.Encoding = "json"

	return logConfig.Build()
}
