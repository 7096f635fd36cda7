package logger

import (
	"context"
	"os"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

var logger *zap.Logger

func init() {
	var err error
	if os.Getenv("DEBUG") == "true" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		logger = zap.NewNop()
	}
}

// L returns the process logger.
func L() *zap.Logger {
	return logger
}

// WithCtx enriches the logger with request scoped fields.
func WithCtx(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return logger
	}
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		return logger.With(zap.String("request_id", reqID))
	}
	return logger
}

// With returns a child logger carrying fields.
func With(fields ...zap.Field) *zap.Logger {
	return logger.With(fields...)
}

// Sync flushes buffered entries; call before exit.
func Sync() {
	_ = logger.Sync()
}
