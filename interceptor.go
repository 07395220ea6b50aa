package routegen

import (
	"context"
	"log/slog"
	"time"
)

// CallInfo describes one outgoing call as it reaches the dispatch stage.
// Validation and interpolation have already succeeded by the time
// interceptors see it.
type CallInfo struct {
	ID         string
	URL        string
	Attributes map[string]any
	Params     Params
	Options    Options
}

// DispatchHandler is the next stage in an interceptor chain. It is passed
// to DispatchInterceptor functions to invoke the next interceptor or the
// dispatcher itself.
type DispatchHandler func(ctx context.Context, info *CallInfo) (any, error)

// DispatchInterceptor wraps dispatch execution. Interceptors can inspect or
// modify the call before invoking handler, inspect the result afterwards,
// short-circuit by returning without calling handler, or add values to the
// context. They run in the order added, outermost first.
type DispatchInterceptor func(ctx context.Context, info *CallInfo, handler DispatchHandler) (any, error)

func chainInterceptors(interceptors []DispatchInterceptor) DispatchInterceptor {
	if len(interceptors) == 0 {
		return nil
	}
	if len(interceptors) == 1 {
		return interceptors[0]
	}
	return func(ctx context.Context, info *CallInfo, handler DispatchHandler) (any, error) {
		// Chain: i[0] -> i[1] -> ... -> handler
		chain := handler
		for i := len(interceptors) - 1; i >= 0; i-- {
			current := interceptors[i]
			next := chain
			chain = func(ctx context.Context, info *CallInfo) (any, error) {
				return current(ctx, info, next)
			}
		}
		return chain(ctx, info)
	}
}

// LoggingInterceptor creates an interceptor that logs dispatched calls using
// slog. It logs the start and end of each call, including duration and error
// status.
func LoggingInterceptor(logger *slog.Logger) DispatchInterceptor {
	if logger == nil {
		logger = slog.Default()
	}

	return func(ctx context.Context, info *CallInfo, handler DispatchHandler) (any, error) {
		start := time.Now()

		logger.InfoContext(ctx, "dispatch started",
			slog.String("endpoint", info.ID),
			slog.String("url", info.URL),
		)

		res, err := handler(ctx, info)
		duration := time.Since(start)

		if err != nil {
			logger.ErrorContext(ctx, "dispatch failed",
				slog.String("endpoint", info.ID),
				slog.Duration("duration", duration),
				slog.Any("error", err),
			)
		} else {
			logger.InfoContext(ctx, "dispatch completed",
				slog.String("endpoint", info.ID),
				slog.Duration("duration", duration),
			)
		}

		return res, err
	}
}
