// Package redis implements an event source that pops JSON events off a
// Redis list.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/notabot/notabot/pkg/protocol"
)

const (
	connectTimeout = 5 * time.Second
	popTimeout     = time.Second
	errorRetryWait = time.Second
)

// Source consumes a Redis list with BLPOP, treating each element as one
// JSON event. Producers LPUSH/RPUSH onto the list; popping is the
// acknowledgement, so a malformed element is logged and lost rather than
// retried.
type Source struct {
	addr     string
	list     string
	password string
	db       int

	client   *redis.Client
	callback protocol.EventCallback
	logger   *slog.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Start connects to Redis and launches the consume loop. A failed
// connection is returned to the caller and leaves the source not running.
func (s *Source) Start(ctx context.Context, callback protocol.EventCallback) error {
	s.callback = callback

	s.client = redis.NewClient(&redis.Options{
		Addr:     s.addr,
		Password: s.password,
		DB:       s.db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := s.client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis source failed to connect to %s: %w", s.addr, err)
	}

	s.logger.Info("Starting redis source", "addr", s.addr, "list", s.list, "db", s.db)

	s.wg.Add(1)

	go s.consume(ctx)

	return nil
}

// Stop terminates the consume loop, waits for it to join and closes the
// client.
func (s *Source) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})

	done := make(chan struct{})

	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if s.client != nil {
		return s.client.Close()
	}

	return nil
}

// Validate checks the source configuration without starting it.
func (s *Source) Validate() error {
	if s.list == "" {
		return errors.New("redis source requires a 'list' name")
	}

	return nil
}

func (s *Source) consume(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-s.stopCh:
			s.logger.Info("Redis source stopped", "list", s.list)

			return
		case <-ctx.Done():
			return
		default:
			if err := s.popOnce(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}

				s.logger.Error("Failed to process redis list element", "error", err)
				time.Sleep(errorRetryWait)
			}
		}
	}
}

// popOnce blocks on the list for up to popTimeout and dispatches the
// popped element, if any.
func (s *Source) popOnce(ctx context.Context) error {
	result, err := s.client.BLPop(ctx, popTimeout, s.list).Result()
	if errors.Is(err, redis.Nil) {
		// Timeout with no element: poll again.
		return nil
	}

	if err != nil {
		return err
	}

	if len(result) < 2 {
		return nil
	}

	var payload any
	if err := json.Unmarshal([]byte(result[1]), &payload); err != nil {
		s.logger.Warn("Skipping malformed redis list element",
			"list", s.list,
			"error", err)

		return nil
	}

	if err := s.callback(ctx, payload); err != nil {
		return fmt.Errorf("event dispatch failed: %w", err)
	}

	s.logger.Debug("Dispatched event from redis list", "list", s.list)

	return nil
}

var _ protocol.Source = (*Source)(nil)
