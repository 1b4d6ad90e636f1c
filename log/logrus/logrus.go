// Package logrus adapts github.com/sirupsen/logrus to shopmirror.Logger.
package logrus

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/shopmirror"
)

type LogrusLogger struct{ E *logrus.Entry }

var _ shopmirror.Logger = LogrusLogger{}

// New returns a JSON logger writing to w at level.
func New(w io.Writer, level string) (LogrusLogger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return LogrusLogger{}, err
	}
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(lvl)
	l.SetFormatter(&logrus.JSONFormatter{})
	return LogrusLogger{E: l.WithField("component", "shopmirror")}, nil
}

func (l LogrusLogger) Debug(msg string, f shopmirror.Fields) { l.with(f).Debug(msg) }
func (l LogrusLogger) Info(msg string, f shopmirror.Fields)  { l.with(f).Info(msg) }
func (l LogrusLogger) Warn(msg string, f shopmirror.Fields)  { l.with(f).Warn(msg) }
func (l LogrusLogger) Error(msg string, f shopmirror.Fields) { l.with(f).Error(msg) }

func (l LogrusLogger) with(f shopmirror.Fields) *logrus.Entry {
	if len(f) == 0 {
		return l.E
	}
	if err, ok := f["err"].(error); ok {
		rest := make(logrus.Fields, len(f)-1)
		for k, v := range f {
			if k != "err" {
				rest[k] = v
			}
		}
		return l.E.WithError(err).WithFields(rest)
	}
	return l.E.WithFields(logrus.Fields(f))
}
