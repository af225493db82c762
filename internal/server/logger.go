// Package server holds the process-wide structured logger shared by the
// registry and handlers.
package server

import (
	"sync"

	"go.uber.org/zap"
)

var (
	loggerMu     sync.RWMutex
	activeLogger = zap.NewNop()
)

// SetLogger installs the logger used by the server package. Passing nil
// resets to a no-op logger, which is the default and what tests run with.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	loggerMu.Lock()
	activeLogger = l
	loggerMu.Unlock()
}

func serverLogger() *zap.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return activeLogger
}
