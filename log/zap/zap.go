// Package zap adapts a *zap.Logger to recordcache.Logger.
package zap

import (
	"github.com/unkn0wn-root/recordcache"
	"go.uber.org/zap"
)

var _ recordcache.Logger = Logger{}

type Logger struct{ L *zap.Logger }

// New wraps l, naming it "recordcache". A nil l yields a no-op logger.
func New(l *zap.Logger) Logger {
	if l == nil {
		return Logger{L: zap.NewNop()}
	}
	return Logger{L: l.Named("recordcache")}
}

func (z Logger) Debug(msg string, f recordcache.Fields) { z.L.Debug(msg, fields(f)...) }
func (z Logger) Info(msg string, f recordcache.Fields)  { z.L.Info(msg, fields(f)...) }
func (z Logger) Warn(msg string, f recordcache.Fields)  { z.L.Warn(msg, fields(f)...) }
func (z Logger) Error(msg string, f recordcache.Fields) { z.L.Error(msg, fields(f)...) }

func fields(f recordcache.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(f))
	for k, v := range f {
		if err, ok := v.(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, v))
	}
	return out
}
