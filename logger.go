package metrics

import (
	"fmt"
	"sync/atomic"
)

// Logger is the logging surface used by the library. *zap.SugaredLogger
// satisfies it.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

func newNoopLogger() Logger {
	return noopLogger{}
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...interface{}) {}
func (noopLogger) Infof(string, ...interface{})  {}
func (noopLogger) Warnf(string, ...interface{})  {}
func (noopLogger) Errorf(string, ...interface{}) {}

type loggerHolder struct{ l Logger }

var invariantLogger atomic.Pointer[loggerHolder]

// SetInvariantLogger routes invariant violations (for example a negative
// increment on a counter) to l. A nil l restores the noop logger.
func SetInvariantLogger(l Logger) {
	if l == nil {
		l = newNoopLogger()
	}
	invariantLogger.Store(&loggerHolder{l: l})
}

// reportInvariantViolation flags a programmer error. In debug builds it
// panics to fail fast; otherwise it is logged and the operation is dropped.
func reportInvariantViolation(format string, args ...interface{}) {
	if isDebugBuild() {
		panic(fmt.Sprintf("[metrics] invariant violation: "+format, args...))
	}
	if h := invariantLogger.Load(); h != nil {
		h.l.Warnf("[metrics] invariant violation: "+format, args...)
	}
}

// isDebugBuild reports whether the debug build tag is set.
func isDebugBuild() bool {
	return debugBuild
}
