// Package observability provides logging and metrics.
package observability

import (
	"context"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// ServiceName tags every log line.
const ServiceName = "joints"

// global accessible logger
var (
	logger *logrus.Logger
	Log    *logrus.Entry
)

// Unit tests construct repositories without going through main, so the
// logger must be usable before InitLogger is called explicitly.
func init() {
	InitLogger("info", true)
}

// InitLogger configures the global logger. Development output is text for
// readability; everything else is JSON.
func InitLogger(level string, development bool) {
	logger = logrus.New()
	logger.SetOutput(os.Stderr)

	if development {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	Log = logger.WithFields(logrus.Fields{"service": ServiceName, "is_development": development})
}

// SetOutputDiscard silences the logger. Tests use it to keep output clean.
func SetOutputDiscard() {
	logger.SetOutput(io.Discard)
}

type ctxKey string

// RequestIDKey is the context key carrying the HTTP request id.
const RequestIDKey ctxKey = "request_id"

// WithRequestID returns a new context with the given request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// RequestID retrieves the request id from the context.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// RepoLogger provides structured logging for operations on one collection.
type RepoLogger struct {
	collection string
}

// NewRepoLogger creates a new RepoLogger for the given collection.
func NewRepoLogger(collection string) *RepoLogger {
	return &RepoLogger{collection: collection}
}

func (l *RepoLogger) entry(ctx context.Context, operation string, fields logrus.Fields) *logrus.Entry {
	e := Log.WithFields(logrus.Fields{
		"collection": l.collection,
		"operation":  operation,
	})
	if id := RequestID(ctx); id != "" {
		e = e.WithField("request_id", id)
	}
	if len(fields) > 0 {
		e = e.WithFields(fields)
	}
	return e
}

// LogCreate logs a record creation.
func (l *RepoLogger) LogCreate(ctx context.Context, fields logrus.Fields) {
	l.entry(ctx, "create", fields).Info("repository create")
}

// LogUpdate logs a record mutation.
func (l *RepoLogger) LogUpdate(ctx context.Context, fields logrus.Fields) {
	l.entry(ctx, "update", fields).Info("repository update")
}

// LogDelete logs a record removal.
func (l *RepoLogger) LogDelete(ctx context.Context, fields logrus.Fields) {
	l.entry(ctx, "delete", fields).Info("repository delete")
}

// LogNormalize logs a schema fix-up that was written back.
func (l *RepoLogger) LogNormalize(ctx context.Context) {
	l.entry(ctx, "normalize", nil).Warn("legacy records normalized and persisted")
}

// LogError logs a failed operation.
func (l *RepoLogger) LogError(ctx context.Context, err error, operation string) {
	l.entry(ctx, operation, nil).WithError(err).Error("repository error")
}
