// Package zap adapts a *zap.Logger to catalogcache.Logger.
package zap

import (
	"github.com/unkn0wn-root/catalogcache"
	"go.uber.org/zap"
)

type ZapLogger struct{ L *zap.Logger }

var _ catalogcache.Logger = ZapLogger{}

// New names the logger "catalogcache" so its lines are easy to filter.
func New(l *zap.Logger) ZapLogger { return ZapLogger{L: l.Named("catalogcache")} }

func (z ZapLogger) Debug(msg string, f catalogcache.Fields) { z.L.Debug(msg, zf(f)...) }
func (z ZapLogger) Info(msg string, f catalogcache.Fields)  { z.L.Info(msg, zf(f)...) }
func (z ZapLogger) Warn(msg string, f catalogcache.Fields)  { z.L.Warn(msg, zf(f)...) }
func (z ZapLogger) Error(msg string, f catalogcache.Fields) { z.L.Error(msg, zf(f)...) }

func zf(f catalogcache.Fields) []zap.Field {
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
