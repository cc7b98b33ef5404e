package observability

import (
	"context"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
)

type ctxKey string

const (
	ctxKeyRequestID ctxKey = "request_id"
)

// ZapLogger is a thin structured-logging wrapper over zap's SugaredLogger.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

// NewLogger builds a logger for mode: "production"/"prod" logs JSON at info,
// "nop" discards everything, anything else is a development console logger.
func NewLogger(mode string) (*ZapLogger, error) {
	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "nop":
		return &ZapLogger{sugar: zap.NewNop().Sugar()}, nil
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &ZapLogger{sugar: z.Sugar()}, nil
}

func (l *ZapLogger) Debug(msg string, kv ...any) { l.sugar.Debugw(msg, kv...) }
func (l *ZapLogger) Info(msg string, kv ...any)  { l.sugar.Infow(msg, kv...) }
func (l *ZapLogger) Warn(msg string, kv ...any)  { l.sugar.Warnw(msg, kv...) }
func (l *ZapLogger) Error(msg string, kv ...any) { l.sugar.Errorw(msg, kv...) }

// With returns a child logger carrying kv on every entry.
func (l *ZapLogger) With(kv ...any) *ZapLogger {
	return &ZapLogger{sugar: l.sugar.With(kv...)}
}

func (l *ZapLogger) Sync() {
	_ = l.sugar.Sync()
}

// basic global logger, JSON to stdout until SetLogger is called.
var global atomic.Pointer[ZapLogger]

func init() {
	l, err := NewLogger("production")
	if err != nil {
		l = &ZapLogger{sugar: zap.NewNop().Sugar()}
	}
	global.Store(l)
}

// SetLogger replaces the global logger.
func SetLogger(l *ZapLogger) {
	if l != nil {
		global.Store(l)
	}
}

func Logger() *ZapLogger {
	return global.Load()
}

// WithFields returns a logger with additional fields.
func WithFields(kv ...any) *ZapLogger {
	return Logger().With(kv...)
}

// WithRequestID stores a request_id in the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, requestID)
}

// RequestIDFromContext returns the request_id stored by WithRequestID, if any.
func RequestIDFromContext(ctx context.Context) string {
	reqID, _ := ctx.Value(ctxKeyRequestID).(string)
	return reqID
}

// LoggerFromContext adds request_id if present.
func LoggerFromContext(ctx context.Context) *ZapLogger {
	reqID := RequestIDFromContext(ctx)
	if reqID == "" {
		return Logger()
	}
	return Logger().With("request_id", reqID)
}
