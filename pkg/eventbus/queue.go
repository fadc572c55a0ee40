// Package eventbus provides the single bounded in-memory queue that
// connects every event source to the dispatcher.
package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/notabot/notabot/pkg/events"
	"github.com/notabot/notabot/pkg/metrics"
)

// Topic is the single queue topic shared by all sources.
const Topic = "notabot.events"

// ErrClosed is returned by Publish after the queue has been closed. Sources
// treat it as the signal to stop producing.
var ErrClosed = errors.New("event queue closed")

const (
	metadataSourceID   = "source_id"
	metadataSourceType = "source_type"
)

// Queue is a bounded FIFO event queue backed by a watermill GoChannel
// pub/sub. Delivery is ack-gated: Publish blocks until the dispatcher has
// acknowledged the event, so a producer can never run ahead of the consumer
// and events from the same source are always delivered in publish order.
//
// Subscribe must be called before the first Publish; events published with
// no subscriber are dropped by the channel.
type Queue struct {
	pubSub *gochannel.GoChannel
	logger *slog.Logger
	closed atomic.Bool
	depth  atomic.Int64
}

// NewQueue creates a queue with the given buffer capacity. Capacity must be
// positive; the config loader guarantees that.
func NewQueue(capacity int, logger *slog.Logger) *Queue {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            int64(capacity),
			Persistent:                     false,
			BlockPublishUntilSubscriberAck: true,
		},
		watermill.NewSlogLogger(logger),
	)

	return &Queue{
		pubSub: pubSub,
		logger: logger.With("module", "eventbus"),
	}
}

// Publish wraps the event in a watermill message and blocks until the
// dispatcher acknowledges it. Returns ErrClosed once Close has been called.
func (q *Queue) Publish(ctx context.Context, event *events.SourceEvent) error {
	if q.closed.Load() {
		return ErrClosed
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := event.Validate(); err != nil {
		return fmt.Errorf("invalid source event: %w", err)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal source event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(metadataSourceID, event.SourceID)
	msg.Metadata.Set(metadataSourceType, event.SourceType)

	q.depth.Add(1)
	metrics.QueueDepth.Inc()

	defer func() {
		q.depth.Add(-1)
		metrics.QueueDepth.Dec()
	}()

	err = q.pubSub.Publish(Topic, msg)
	if err != nil {
		if q.closed.Load() {
			return ErrClosed
		}

		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// Subscribe returns the dispatcher's message channel. The channel is closed
// when the queue is closed or the context is cancelled.
func (q *Queue) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	messages, err := q.pubSub.Subscribe(ctx, Topic)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", Topic, err)
	}

	return messages, nil
}

// Decode unmarshals a queued message back into its source event.
func Decode(msg *message.Message) (*events.SourceEvent, error) {
	var event events.SourceEvent

	err := json.Unmarshal(msg.Payload, &event)
	if err != nil {
		return nil, fmt.Errorf("failed to decode source event %s: %w", msg.UUID, err)
	}

	return &event, nil
}

// Depth reports the number of events currently buffered or awaiting
// acknowledgement.
func (q *Queue) Depth() int64 {
	return q.depth.Load()
}

// Close shuts the queue down. Producers blocked in Publish unblock, and
// their next Publish returns ErrClosed. Safe to call more than once.
func (q *Queue) Close() error {
	if !q.closed.CompareAndSwap(false, true) {
		return nil
	}

	q.logger.Debug("Closing event queue")

	err := q.pubSub.Close()
	if err != nil {
		return fmt.Errorf("failed to close event queue: %w", err)
	}

	return nil
}
