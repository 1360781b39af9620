// Package logger builds the process-wide structured logger.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// New returns a JSON logrus logger at the given level. Unknown levels fall
// back to info.
func New(level string) *logrus.Logger {
	return newWithOutput(level, os.Stdout)
}

func newWithOutput(level string, out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	l.AddHook(serviceHook{name: "journey-dispatch"})
	return l
}

// Discard returns a logger that writes nowhere. Used in tests.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// serviceHook stamps every entry with the service name.
type serviceHook struct {
	name string
}

func (h serviceHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h serviceHook) Fire(e *logrus.Entry) error {
	e.Data["service"] = h.name
	return nil
}
