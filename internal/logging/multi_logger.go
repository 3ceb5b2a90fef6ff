package logging

import "context"

// MultiLogger fans log calls out to several loggers
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger creates a logger that writes to all given loggers
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	return &MultiLogger{loggers: loggers}
}

func (l *MultiLogger) Debug(msg string, fields ...Field) {
	for _, lg := range l.loggers {
		lg.Debug(msg, fields...)
	}
}

func (l *MultiLogger) Info(msg string, fields ...Field) {
	for _, lg := range l.loggers {
		lg.Info(msg, fields...)
	}
}

func (l *MultiLogger) Warn(msg string, fields ...Field) {
	for _, lg := range l.loggers {
		lg.Warn(msg, fields...)
	}
}

func (l *MultiLogger) Error(msg string, fields ...Field) {
	for _, lg := range l.loggers {
		lg.Error(msg, fields...)
	}
}

// WithTraceID returns a new MultiLogger with the trace ID applied to every sink
func (l *MultiLogger) WithTraceID(traceID string) Logger {
	traced := make([]Logger, len(l.loggers))
	for i, lg := range l.loggers {
		traced[i] = lg.WithTraceID(traceID)
	}
	return &MultiLogger{loggers: traced}
}

// WithContext returns a new logger that extracts trace ID from context
func (l *MultiLogger) WithContext(ctx context.Context) Logger {
	traceID := TraceIDFromContext(ctx)
	if traceID == "" {
		return l
	}
	return l.WithTraceID(traceID)
}

// SetLevel sets the minimum level on every sink
func (l *MultiLogger) SetLevel(level LogLevel) {
	for _, lg := range l.loggers {
		lg.SetLevel(level)
	}
}

// Close closes every sink, returning the first error encountered
func (l *MultiLogger) Close() error {
	var firstErr error
	for _, lg := range l.loggers {
		if err := lg.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
