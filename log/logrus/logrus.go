// Package logrus adapts a *logrus.Entry to catalogcache.Logger.
package logrus

import (
	"github.com/sirupsen/logrus"
	"github.com/unkn0wn-root/catalogcache"
)

type LogrusLogger struct{ E *logrus.Entry }

var _ catalogcache.Logger = LogrusLogger{}

func New(l *logrus.Logger) LogrusLogger {
	return LogrusLogger{E: l.WithField("component", "catalogcache")}
}

func (l LogrusLogger) Debug(msg string, f catalogcache.Fields) {
	l.E.WithFields(logrus.Fields(f)).Debug(msg)
}
func (l LogrusLogger) Info(msg string, f catalogcache.Fields) { l.E.WithFields(logrus.Fields(f)).Info(msg) }
func (l LogrusLogger) Warn(msg string, f catalogcache.Fields) { l.E.WithFields(logrus.Fields(f)).Warn(msg) }
func (l LogrusLogger) Error(msg string, f catalogcache.Fields) {
	l.E.WithFields(logrus.Fields(f)).Error(msg)
}
