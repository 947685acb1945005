// Package logger wires the application to the Uber zap logging library.
// It exposes a process-wide sugared logger and an HTTP middleware that
// records every request.
package logger

import (
	"errors"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
)

// Log is the global SugaredLogger used across the application.
// It must be initialized via Init() before use.
var Log *zap.SugaredLogger = zap.NewNop().Sugar()

// Init builds the global logger with the given level ("debug", "info", ...).
func Init(level string) error {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return err
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = lvl
	zl, err := cfg.Build()
	if err != nil {
		return err
	}
	Log = zl.Sugar()

	return nil
}

// Sync flushes buffered log entries. Call it on shutdown.
func Sync() error {
	if err := Log.Sync(); err != nil && !errors.Is(err, os.ErrInvalid) {
		return err
	}

	return nil
}

type responseInfo struct {
	status int
	size   int
}

type observedResponseWriter struct {
	http.ResponseWriter
	info *responseInfo
}

func (w *observedResponseWriter) Write(b []byte) (int, error) {
	size, err := w.ResponseWriter.Write(b)
	w.info.size += size
	return size, err
}

func (w *observedResponseWriter) WriteHeader(statusCode int) {
	w.ResponseWriter.WriteHeader(statusCode)
	w.info.status = statusCode
}

// WithLoggingHTTPMiddleware logs method, URI, status, duration and
// response size for every request passing through it.
func WithLoggingHTTPMiddleware(h http.Handler) http.Handler {
	logFn := func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		info := &responseInfo{status: http.StatusOK}
		h.ServeHTTP(&observedResponseWriter{ResponseWriter: w, info: info}, r)

		Log.Infoln(
			"uri", r.RequestURI,
			"method", r.Method,
			"status", info.status,
			"duration", time.Since(start),
			"size", info.size,
		)
	}

	return http.HandlerFunc(logFn)
}
