package postgresql

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.7.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/David-Orizu31/todolist/internal"
	"github.com/David-Orizu31/todolist/internal/postgresql/db"
)

const otelName = "github.com/David-Orizu31/todolist/internal/postgresql"

func convertPriority(p db.Priority) (internal.Priority, error) {
	switch p {
	case db.PriorityLow:
		return internal.PriorityLow, nil
	case db.PriorityMedium:
		return internal.PriorityMedium, nil
	case db.PriorityHigh:
		return internal.PriorityHigh, nil
	}

	return internal.Priority(-1), fmt.Errorf("unknown value: %s", p)
}

func newPriority(p internal.Priority) db.Priority {
	switch p {
	case internal.PriorityLow:
		return db.PriorityLow
	case internal.PriorityMedium:
		return db.PriorityMedium
	case internal.PriorityHigh:
		return db.PriorityHigh
	}

	return "invalid"
}

func newOTELSpan(ctx context.Context, name string) trace.Span {
	_, span := otel.Tracer(otelName).Start(ctx, name)

	span.SetAttributes(semconv.DBSystemPostgreSQL)

	return span
}
