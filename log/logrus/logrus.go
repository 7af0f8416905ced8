// Package logrus adapts a *logrus.Entry to recordcache.Logger.
package logrus

import (
	"github.com/sirupsen/logrus"
	"github.com/unkn0wn-root/recordcache"
)

var _ recordcache.Logger = Logger{}

type Logger struct{ E *logrus.Entry }

// New tags every line from l with component=recordcache.
func New(l *logrus.Logger) Logger {
	return Logger{E: l.WithField("component", "recordcache")}
}

func (l Logger) Debug(msg string, f recordcache.Fields) { l.with(f).Debug(msg) }
func (l Logger) Info(msg string, f recordcache.Fields)  { l.with(f).Info(msg) }
func (l Logger) Warn(msg string, f recordcache.Fields)  { l.with(f).Warn(msg) }
func (l Logger) Error(msg string, f recordcache.Fields) { l.with(f).Error(msg) }

func (l Logger) with(f recordcache.Fields) *logrus.Entry {
	if len(f) == 0 {
		return l.E
	}
	out := make(logrus.Fields, len(f))
	for k, v := range f {
		// logrus only renders errors specially under ErrorKey
		if err, ok := v.(error); ok && k == "err" {
			out[logrus.ErrorKey] = err
			continue
		}
		out[k] = v
	}
	return l.E.WithFields(out)
}
