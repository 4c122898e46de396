package engine

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the logger shared by goja engines.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger configures the logger shared by goja engines.
// This must be called before the first module is loaded.
func SetLogger(l *zap.Logger) {
	logger = l
}

// traceLoads logs every module load at debug level.
var traceLoads = false

func debugf(format string, args ...any) {
	if traceLoads {
		Logger().Sugar().Debugf(format, args...)
	}
}
