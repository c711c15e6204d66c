package tracing

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const TraceIDField = "traceId"

// InjectTraceID returns ctx carrying a logger tagged with a fresh trace id,
// so every log line of one run or command can be correlated.
func InjectTraceID(ctx context.Context) context.Context {
	id := uuid.New().String()
	logger := log.With().Str(TraceIDField, id).Logger()
	return logger.WithContext(ctx)
}
