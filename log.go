package telemetry

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Logger is the minimal diagnostic sink the core reports capture-pipeline
// outcomes through when Options.Debug is set.
type Logger interface {
	Log(keyVal ...interface{}) error
}

// NopLogger discards everything logged to it.
type NopLogger struct{}

// Log implements Logger.
func (NopLogger) Log(...interface{}) error { return nil }

// zapLogger adapts a *zap.Logger to the Logger contract, rendering
// alternating key/value pairs as zap.Any fields.
type zapLogger struct {
	z *zap.Logger
}

// NewZapLogger wraps z as a Logger.
func NewZapLogger(z *zap.Logger) Logger {
	return &zapLogger{z: z}
}

// Log implements Logger.
func (l *zapLogger) Log(keyVal ...interface{}) error {
	fields := make([]zap.Field, 0, len(keyVal)/2)
	for i := 0; i+1 < len(keyVal); i += 2 {
		key, ok := keyVal[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", keyVal[i])
		}
		fields = append(fields, zap.Any(key, keyVal[i+1]))
	}
	l.z.Debug("telemetry", fields...)
	return nil
}

var errNoError = fmt.Errorf("telemetry: not an error")

// stateLogger suppresses repeat logging of the same error within interval,
// so a persistently failing transport does not flood the diagnostic log.
type stateLogger struct {
	mu            sync.Mutex
	logger        Logger
	interval      time.Duration
	lastError     error
	lastErrorTime time.Time
}

func newStateLogger(logger Logger, interval time.Duration) *stateLogger {
	return &stateLogger{logger: logger, interval: interval, lastError: errNoError}
}

func (s *stateLogger) logError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == s.lastError && time.Since(s.lastErrorTime) < s.interval {
		return
	}
	_ = s.logger.Log("err", err.Error())
	s.lastError = err
	s.lastErrorTime = time.Now()
}
