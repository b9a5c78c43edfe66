package lifecycle

import (
	"context"
	"time"

	"github.com/provkit/provkit/logger"
	"github.com/provkit/provkit/observability"
)

// Middleware wraps a RunFunc with cross-cutting behavior. The first
// middleware passed to NewRunner is outermost.
type Middleware func(RunFunc) RunFunc

// WithLogging returns a Middleware that logs each operation with its
// duration and resulting status.
func WithLogging(log *logger.Logger) Middleware {
	return func(inner RunFunc) RunFunc {
		return func(ctx context.Context, op Operation, infra Infrastructure) Result {
			start := time.Now()
			result := inner(ctx, op, infra)
			duration := time.Since(start)

			fields := map[string]interface{}{
				logger.FieldOperation: string(op),
				logger.FieldStatus:    string(result.Status),
				logger.FieldDuration:  duration.Milliseconds(),
			}
			if result.Error != "" {
				fields[logger.FieldError] = result.Error
				log.Error("lifecycle operation failed", fields)
			} else {
				log.Info("lifecycle operation complete", fields)
			}
			return result
		}
	}
}

// WithTracing returns a Middleware that creates an OpenTelemetry span
// around each operation. The span name is "{service}.{operation}".
func WithTracing(serviceName string) Middleware {
	return func(inner RunFunc) RunFunc {
		return func(ctx context.Context, op Operation, infra Infrastructure) Result {
			ctx, span := observability.StartSpan(ctx, serviceName+"."+string(op))
			defer span.End()

			observability.SetSpanAttribute(ctx, observability.AttrOperationName, string(op))

			result := inner(ctx, op, infra)

			observability.SetSpanAttribute(ctx, observability.AttrStatus, string(result.Status))
			if result.Error != "" {
				observability.SetSpanAttribute(ctx, observability.AttrErrorMessage, result.Error)
			}
			return result
		}
	}
}

// WithMetrics returns a Middleware that records one operation count
// and duration per invocation.
func WithMetrics(metrics *observability.Metrics) Middleware {
	return func(inner RunFunc) RunFunc {
		return func(ctx context.Context, op Operation, infra Infrastructure) Result {
			start := time.Now()
			result := inner(ctx, op, infra)
			metrics.RecordLifecycleOp(ctx, string(op), string(result.Status), time.Since(start))
			return result
		}
	}
}
