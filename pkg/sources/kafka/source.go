// Package kafka implements an event source consuming JSON events from a
// Kafka topic through a consumer group.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"github.com/notabot/notabot/pkg/protocol"
)

const (
	sessionTimeout    = 10 * time.Second
	heartbeatInterval = 3 * time.Second
	consumeRetryDelay = 5 * time.Second
)

// Source consumes one topic as a member of a consumer group. Each message
// body is parsed as one JSON event; malformed message bodies are logged,
// marked and skipped. Offsets are committed only after the event has been
// handed to the queue, giving at-least-once delivery.
type Source struct {
	brokers []string
	topic   string
	group   string

	consumer sarama.ConsumerGroup
	cancel   context.CancelFunc
	callback protocol.EventCallback
	logger   *slog.Logger
	wg       sync.WaitGroup
}

// Start creates the consumer group and launches the consume loop.
func (s *Source) Start(ctx context.Context, callback protocol.EventCallback) error {
	s.callback = callback

	config := sarama.NewConfig()
	config.Version = sarama.V2_6_0_0
	config.Consumer.Group.Session.Timeout = sessionTimeout
	config.Consumer.Group.Heartbeat.Interval = heartbeatInterval
	config.Consumer.Offsets.Initial = sarama.OffsetNewest
	config.Consumer.Return.Errors = true

	consumer, err := sarama.NewConsumerGroup(s.brokers, s.group, config)
	if err != nil {
		return fmt.Errorf("failed to create kafka consumer group: %w", err)
	}

	s.consumer = consumer

	consumeCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.logger.Info("Starting kafka source",
		"brokers", s.brokers,
		"topic", s.topic,
		"consumer_group", s.group)

	s.wg.Add(2)

	go s.consumeLoop(consumeCtx)
	go s.monitorErrors(consumeCtx)

	return nil
}

// Stop leaves the consumer group and waits for the loops to join.
func (s *Source) Stop(ctx context.Context) error {
	if s.consumer == nil {
		return nil
	}

	s.logger.Info("Stopping kafka source")

	s.cancel()

	if err := s.consumer.Close(); err != nil {
		s.logger.Error("Error closing kafka consumer", "error", err)
	}

	done := make(chan struct{})

	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Validate checks the source configuration without starting it.
func (s *Source) Validate() error {
	if len(s.brokers) == 0 {
		return errors.New("kafka source requires 'brokers'")
	}

	if s.topic == "" {
		return errors.New("kafka source requires a 'topic'")
	}

	if s.group == "" {
		return errors.New("kafka source requires a 'consumer_group'")
	}

	return nil
}

func (s *Source) consumeLoop(ctx context.Context) {
	defer s.wg.Done()

	handler := &consumerGroupHandler{source: s}

	for {
		select {
		case <-ctx.Done():
			return
		default:
			// Consume blocks for the lifetime of a group session and
			// returns on rebalance, so it is called in a loop.
			if err := s.consumer.Consume(ctx, []string{s.topic}, handler); err != nil {
				if errors.Is(err, sarama.ErrClosedConsumerGroup) || errors.Is(err, context.Canceled) {
					return
				}

				s.logger.Error("Kafka consume error", "error", err)
				time.Sleep(consumeRetryDelay)
			}
		}
	}
}

func (s *Source) monitorErrors(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case err, ok := <-s.consumer.Errors():
			if !ok {
				return
			}

			if err != nil {
				s.logger.Error("Kafka consumer group error", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// consumerGroupHandler implements sarama.ConsumerGroupHandler.
type consumerGroupHandler struct {
	source *Source
}

func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error {
	h.source.logger.Info("Kafka consumer group session started")

	return nil
}

func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	h.source.logger.Info("Kafka consumer group session ended")

	return nil
}

func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		var payload any
		if err := json.Unmarshal(message.Value, &payload); err != nil {
			h.source.logger.Warn("Skipping malformed kafka message",
				"topic", message.Topic,
				"partition", message.Partition,
				"offset", message.Offset,
				"error", err)
			session.MarkMessage(message, "")

			continue
		}

		if err := h.source.callback(session.Context(), payload); err != nil {
			h.source.logger.Error("Failed to dispatch kafka message",
				"topic", message.Topic,
				"offset", message.Offset,
				"error", err)

			return err
		}

		session.MarkMessage(message, "")
	}

	return nil
}

var _ protocol.Source = (*Source)(nil)
