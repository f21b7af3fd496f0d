package threadsync

import (
	"sync"
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/logiface"
)

var (
	// package logger, used by primitives constructed without WithLogger
	globalLogger struct {
		sync.RWMutex
		logger *logiface.Logger[logiface.Event]
	}

	// limits warnings per category (the primitive name), e.g. contention
	warningLimiter = catrate.NewLimiter(map[time.Duration]int{
		time.Second: 1,
		time.Minute: 10,
	})
)

// SetLogger sets the package logger, used by primitives constructed after the
// call that were not given WithLogger. A nil logger (the default) disables
// logging.
func SetLogger(logger *logiface.Logger[logiface.Event]) {
	globalLogger.Lock()
	defer globalLogger.Unlock()
	globalLogger.logger = logger
}

func getLogger() *logiface.Logger[logiface.Event] {
	globalLogger.RLock()
	defer globalLogger.RUnlock()
	return globalLogger.logger
}

// warning returns a warning builder for the given category, or nil if
// warnings for the category are currently rate limited, or logging is
// disabled. Callers must treat nil as a valid (no-op) builder.
func warning(logger *logiface.Logger[logiface.Event], category string) *logiface.Builder[logiface.Event] {
	b := logger.Warning()
	if !b.Enabled() {
		return nil
	}
	if _, ok := warningLimiter.Allow(category); !ok {
		b.Release()
		return nil
	}
	return b
}
