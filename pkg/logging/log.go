// Package logging provides the process-wide structured logger used by
// every netdiscover component.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the global logger instance.
var Logger = logrus.New()

func init() {
	Logger.SetOutput(os.Stderr)
	Logger.SetLevel(logrus.InfoLevel)
	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
}

// SetLevel sets the logging level from a string (e.g. "debug", "info").
func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	Logger.SetLevel(lvl)
	return nil
}

// SetOutput redirects log output.
func SetOutput(w io.Writer) {
	Logger.SetOutput(w)
}

// SetJSONFormat switches to JSON-formatted log lines.
func SetJSONFormat() {
	Logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05Z07:00",
	})
}

// WithDevice returns a logger entry scoped to a device hostname.
func WithDevice(hostname string) *logrus.Entry {
	return Logger.WithField("device", hostname)
}

// WithSession returns a logger entry scoped to a discovery session id.
func WithSession(sessionID int64) *logrus.Entry {
	return Logger.WithField("session", sessionID)
}

// WithOperation returns a logger entry scoped to a named operation.
func WithOperation(operation string) *logrus.Entry {
	return Logger.WithField("operation", operation)
}
