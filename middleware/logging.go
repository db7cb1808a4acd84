// Package middleware provides interceptors for gateway services.
package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/broady/gateway"
)

// LoggingInterceptor logs the start and end of each call with its duration,
// caller roles and, on failure, the error and its code.
func LoggingInterceptor(logger *slog.Logger) gateway.UnaryInterceptor {
	if logger == nil {
		logger = slog.Default()
	}

	return func(ctx context.Context, req any, info *gateway.RPCInfo, handler gateway.HandlerFunc) (any, error) {
		start := time.Now()
		endpoint := slog.String("endpoint", info.EndpointID())

		logger.DebugContext(ctx, "request started", endpoint, slog.Any("roles", info.Roles))

		res, err := handler(ctx, req)
		duration := time.Since(start)

		if err != nil {
			logger.ErrorContext(ctx, "request failed",
				endpoint,
				slog.Duration("duration", duration),
				slog.String("code", string(gateway.DefaultErrorTransformer(err).Code)),
				slog.Any("error", err),
			)
		} else {
			logger.InfoContext(ctx, "request completed",
				endpoint,
				slog.Duration("duration", duration),
			)
		}

		return res, err
	}
}
