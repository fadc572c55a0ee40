package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"reflect"
	"syscall"
	"time"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/notabot/notabot/pkg/cmd"
	"github.com/notabot/notabot/pkg/config"
	"github.com/notabot/notabot/pkg/eventbus"
	"github.com/notabot/notabot/pkg/log"
	"github.com/notabot/notabot/pkg/metrics"
	"github.com/notabot/notabot/pkg/models"
	"github.com/notabot/notabot/pkg/otelhelper"
	"github.com/notabot/notabot/pkg/runtime"
)

const shutdownTimeout = 10 * time.Second

func runBot(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"), command.String("log-format"))

	botID := command.String("bot-id")
	if botID == "" {
		botID = "bot-" + uuid.New().String()[:8]
	}

	logger := log.WithModule("notabot").With("bot_id", botID)

	configPath := command.String("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if command.Bool("tracing") {
		tracerProvider, err := otelhelper.InitTracer(ctx, "notabot")
		if err != nil {
			return fmt.Errorf("failed to initialize tracer: %w", err)
		}

		defer func() {
			if err := tracerProvider.Shutdown(context.Background()); err != nil {
				logger.Error("Failed to shutdown tracer provider", "error", err)
			}
		}()
	}

	logger.Info("Initializing notabot",
		"config", configPath,
		"sources", len(cfg.Sources),
		"workflows", len(cfg.Workflows),
		"events", len(cfg.Events),
		"dry_run", command.Bool("dry-run"))

	runCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if addr := command.String("metrics-addr"); addr != "" {
		if err := metrics.Serve(runCtx, addr, logger); err != nil {
			return fmt.Errorf("failed to start metrics endpoint: %w", err)
		}
	}

	provider := cmd.NewCapabilityProvider(command.Bool("dry-run"), logger)
	rt := runtime.NewRuntime(cfg, provider, logger)

	queue := eventbus.NewQueue(cfg.EffectiveQueueSize(), logger)

	// The dispatcher must be subscribed before any source publishes: events
	// published with no subscriber are dropped by the channel. The background
	// context keeps the subscription draining through shutdown; queue.Close
	// is what ends it.
	messages, err := queue.Subscribe(context.Background())
	if err != nil {
		return err
	}

	dispatcher := NewDispatcher(rt, logger)

	dispatcherDone := make(chan struct{})

	go func() {
		defer close(dispatcherDone)

		dispatcher.Run(context.Background(), messages)
	}()

	manager := NewSourceManager(cmd.NewRegistry(logger), queue, logger)

	if err := manager.CreateAll(cfg.Sources); err != nil {
		_ = queue.Close()

		return fmt.Errorf("failed to create sources: %w", err)
	}

	manager.StartAll(runCtx)

	if command.Bool("watch") {
		stopWatch, err := config.Watch(configPath, logger, func(next *models.Config) {
			applyConfig(rt, next, logger)
		})
		if err != nil {
			_ = queue.Close()

			return fmt.Errorf("failed to start config watcher: %w", err)
		}

		defer stopWatch()
	}

	handleReloadSignal(runCtx, configPath, rt, logger)

	logger.Info("notabot started, waiting for events", "queue_size", cfg.EffectiveQueueSize())

	<-runCtx.Done()

	logger.Info("Shutting down gracefully...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	manager.StopAll(shutdownCtx)

	if err := queue.Close(); err != nil {
		logger.Error("Failed to close event queue", "error", err)
	}

	select {
	case <-dispatcherDone:
	case <-shutdownCtx.Done():
		logger.Warn("Dispatcher did not drain in time, exiting anyway")
	}

	logger.Info("Shutdown complete")

	return nil
}

// applyConfig swaps the runtime tables for a freshly validated configuration.
// Sources and the queue are wired once at startup; changes there take effect
// on the next restart.
func applyConfig(rt *runtime.Runtime, next *models.Config, logger *slog.Logger) {
	current := rt.Config()

	if !reflect.DeepEqual(current.Sources, next.Sources) {
		logger.Warn("Source definitions changed, restart the bot to apply them")
	}

	if current.EffectiveQueueSize() != next.EffectiveQueueSize() {
		logger.Warn("Queue size changed, restart the bot to apply it")
	}

	rt.Swap(next)
}

// handleReloadSignal reloads the configuration on SIGHUP, mirroring what the
// --watch file watcher does on write.
func handleReloadSignal(ctx context.Context, path string, rt *runtime.Runtime, logger *slog.Logger) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGHUP)

	go func() {
		defer signal.Stop(signals)

		for {
			select {
			case <-ctx.Done():
				return
			case <-signals:
				logger.Info("Received SIGHUP, reloading configuration", "path", path)

				next, err := config.Load(path)
				if err != nil {
					logger.Error("Config reload failed, keeping previous configuration", "error", err)

					continue
				}

				applyConfig(rt, next, logger)
			}
		}
	}()
}
