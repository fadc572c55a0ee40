package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/notabot/notabot/pkg/eventbus"
	"github.com/notabot/notabot/pkg/metrics"
	"github.com/notabot/notabot/pkg/otelhelper"
	"github.com/notabot/notabot/pkg/runtime"
)

// Dispatcher is the queue's single consumer. Events are processed strictly
// in arrival order: route, run the bound workflow to completion, ack, next.
// Per-event failures are logged and counted, never fatal.
type Dispatcher struct {
	runtime *runtime.Runtime
	logger  *slog.Logger
	tracer  trace.Tracer
}

func NewDispatcher(rt *runtime.Runtime, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		runtime: rt,
		logger:  logger.With("module", "dispatcher"),
		tracer:  otel.Tracer("notabot/dispatcher"),
	}
}

// Run consumes messages until the subscription channel closes. Every
// message is acked, success or not: an event that failed to route or run
// is dropped, not redelivered.
func (d *Dispatcher) Run(ctx context.Context, messages <-chan *message.Message) {
	d.logger.Info("Dispatcher started")

	for msg := range messages {
		d.handle(ctx, msg)
		msg.Ack()
	}

	d.logger.Info("Dispatcher stopped")
}

func (d *Dispatcher) handle(ctx context.Context, msg *message.Message) {
	event, err := eventbus.Decode(msg)
	if err != nil {
		metrics.EventsDropped.WithLabelValues("malformed").Inc()
		d.logger.Error("Dropping undecodable event", "message_id", msg.UUID, "error", err)

		return
	}

	logger := d.logger.With(
		"source_id", event.SourceID,
		"event_type", event.EventType())

	ctx, span := otelhelper.StartSpan(ctx, d.tracer, "event.dispatch",
		attribute.String(otelhelper.EventTypeKey, event.EventType()),
		attribute.String(otelhelper.SourceIDKey, event.SourceID),
		attribute.String(otelhelper.SourceTypeKey, event.SourceType),
	)
	defer span.End()

	err = d.runtime.HandleEvent(ctx, event.Payload)
	if err == nil {
		return
	}

	otelhelper.SetError(span, err)

	switch {
	case errors.Is(err, runtime.ErrMissingType):
		metrics.EventsDropped.WithLabelValues("missing_type").Inc()
		logger.Warn("Dropping event without a usable type", "error", err)
	case errors.Is(err, runtime.ErrNoBinding):
		metrics.EventsDropped.WithLabelValues("no_binding").Inc()
		logger.Warn("Dropping event with no workflow binding", "error", err)
	case errors.Is(err, runtime.ErrVarNotFound):
		metrics.EventsDropped.WithLabelValues("strict_vars").Inc()
		logger.Warn("Dropping event, strict variable mapping failed", "error", err)
	default:
		// Run failures are already counted by the runtime's metrics.
		logger.Error("Workflow run failed", "error", err)
	}
}
