package logger

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the process-wide logger. It discards everything until Initialize runs.
var Log = zap.NewNop()

const (
	RequestIDKey    = "request_id"
	RequestIDHeader = "X-Request-ID"
)

// Initialize builds the logger for env ("production" gets JSON output).
func Initialize(env string) {
	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if env == "production" {
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	l, err := config.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	Log = l.With(zap.String("env", env))
}

func Sync() {
	_ = Log.Sync()
}

// RequestLogger tags each request with an id and logs it once it completes:
// client errors at warn, server errors at error.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String(RequestIDKey, requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		}
		if q := c.Request.URL.RawQuery; q != "" {
			fields = append(fields, zap.String("query", q))
		}

		switch {
		case status >= http.StatusInternalServerError:
			Log.Error("Request completed", fields...)
		case status >= http.StatusBadRequest:
			Log.Warn("Request completed", fields...)
		default:
			Log.Info("Request completed", fields...)
		}
	}
}

func Error(ctx context.Context, msg string, err error, fields ...zap.Field) {
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	Log.Error(msg, withRequest(ctx, fields)...)
}

func Info(ctx context.Context, msg string, fields ...zap.Field) {
	Log.Info(msg, withRequest(ctx, fields)...)
}

func Warn(ctx context.Context, msg string, fields ...zap.Field) {
	Log.Warn(msg, withRequest(ctx, fields)...)
}

// withRequest adds the request id when ctx belongs to an HTTP request. Startup
// work such as connecting backends logs without one.
func withRequest(ctx context.Context, fields []zap.Field) []zap.Field {
	if id := requestID(ctx); id != "" {
		return append(fields, zap.String(RequestIDKey, id))
	}
	return fields
}

func requestID(ctx context.Context) string {
	c, ok := ctx.(*gin.Context)
	if !ok {
		return ""
	}
	return c.GetString(RequestIDKey)
}
