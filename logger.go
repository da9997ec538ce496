package bapi

import (
	"log"
	"sync/atomic"
	"testing"
)

// Logger can be implemented to get informed about important states.
type Logger interface {
	LogUnhandledServeError(err error)
	LogImplicitFlushError(err error)
	LogInternalFailure(endpoint string, err error)
}

type stdLogger struct{ *log.Logger }

func (l stdLogger) LogUnhandledServeError(err error) {
	l.Logger.Printf("bapi: unhandled server error: %s", err)
}

func (l stdLogger) LogImplicitFlushError(err error) {
	l.Logger.Printf("bapi: error while flushing implicitly: %s", err)
}

func (l stdLogger) LogInternalFailure(endpoint string, err error) {
	l.Logger.Printf("bapi: internal failure in endpoint %q: %s", endpoint, err)
}

func NewStdLogger(l *log.Logger) Logger {
	return stdLogger{l}
}

type TestLogger struct {
	tb testing.TB

	NumLogUnhandledServeError int64
	NumLogImplicitFlushError  int64
	NumLogInternalFailure     int64
}

func NewTestLogger(tb testing.TB) *TestLogger {
	return &TestLogger{tb: tb}
}

func (l *TestLogger) LogUnhandledServeError(err error) {
	atomic.AddInt64(&l.NumLogUnhandledServeError, 1)
	l.logf("bapi: unhandled server error: %s", err)
}

func (l *TestLogger) LogImplicitFlushError(err error) {
	atomic.AddInt64(&l.NumLogImplicitFlushError, 1)
	l.logf("bapi: error while flushing implicitly: %s", err)
}

func (l *TestLogger) LogInternalFailure(endpoint string, err error) {
	atomic.AddInt64(&l.NumLogInternalFailure, 1)
	l.logf("bapi: internal failure in endpoint %q: %s", endpoint, err)
}

func (l *TestLogger) logf(format string, args ...any) {
	if l.tb == nil {
		return
	}

	l.tb.Logf(format, args...)
}

var _ Logger = &TestLogger{}
