// Package runtime interprets action trees against incoming events. It owns
// event routing (binding lookup, variable extraction), workflow execution
// and the delegation of leaf effects to a capability provider.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/notabot/notabot/pkg/capabilities"
	"github.com/notabot/notabot/pkg/interpolation"
	"github.com/notabot/notabot/pkg/metrics"
	"github.com/notabot/notabot/pkg/models"
	"github.com/notabot/notabot/pkg/otelhelper"
)

// MaxDepth bounds action nesting to protect against ref cycles.
const MaxDepth = 64

var (
	// ErrMissingType rejects events that are not objects carrying a
	// string "type" field.
	ErrMissingType = errors.New("event is missing string field 'type'")

	// ErrNoBinding means no entry in the events table matches the type.
	ErrNoBinding = errors.New("no event binding found")

	// ErrVarNotFound drops an event in strict mode when a vars_map path
	// cannot be resolved.
	ErrVarNotFound = errors.New("event field not found for variable mapping")

	// ErrUnknownWorkflow means a binding or caller referenced a workflow
	// that is not in the workflows table.
	ErrUnknownWorkflow = errors.New("unknown workflow")

	// ErrActionNotFound means a ref step named a missing actions entry.
	ErrActionNotFound = errors.New("referenced action not found")

	// ErrMaxDepth aborts a run whose action nesting exceeds MaxDepth.
	ErrMaxDepth = fmt.Errorf("maximum action nesting depth (%d) exceeded (possible cycle)", MaxDepth)
)

// Runtime executes workflows against the current configuration. The
// configuration is swapped wholesale on reload; a run in flight keeps the
// table set it started with.
type Runtime struct {
	config   atomic.Pointer[models.Config]
	provider capabilities.Provider
	logger   *slog.Logger
	tracer   trace.Tracer
}

func NewRuntime(config *models.Config, provider capabilities.Provider, logger *slog.Logger) *Runtime {
	r := &Runtime{
		provider: provider,
		logger:   logger.With("module", "runtime"),
		tracer:   otel.Tracer("notabot/runtime"),
	}
	r.config.Store(config)

	return r
}

// Config returns the current table set.
func (r *Runtime) Config() *models.Config {
	return r.config.Load()
}

// Swap atomically replaces the table set. Runs already started are not
// affected.
func (r *Runtime) Swap(config *models.Config) {
	r.config.Store(config)
	r.logger.Info("Configuration swapped",
		"workflows", len(config.Workflows),
		"events", len(config.Events),
		"actions", len(config.Actions))
}

// HandleEvent routes one decoded event: the "type" field selects the
// binding, vars_map seeds the run variables and the bound workflow runs to
// completion. Routing failures are returned unwrapped so callers can
// distinguish them from run failures.
func (r *Runtime) HandleEvent(ctx context.Context, event any) error {
	config := r.config.Load()

	object, ok := event.(map[string]any)
	if !ok {
		return ErrMissingType
	}

	eventType, ok := object["type"].(string)
	if !ok {
		return ErrMissingType
	}

	binding, ok := config.Events[eventType]
	if !ok {
		return fmt.Errorf("%w for type %q", ErrNoBinding, eventType)
	}

	vars, err := r.varsFromEvent(config, binding, event)
	if err != nil {
		return err
	}

	return r.runWorkflow(ctx, config, binding.Workflow, vars)
}

// RunWorkflow executes a named workflow with caller-provided variables,
// bypassing event routing. Used for direct invocation.
func (r *Runtime) RunWorkflow(ctx context.Context, name string, vars map[string]string) error {
	if vars == nil {
		vars = make(map[string]string)
	}

	return r.runWorkflow(ctx, r.config.Load(), name, vars)
}

// varsFromEvent builds the run variables from the binding's vars_map. A
// path that resolves nothing yields an empty string and a warning, unless
// the binding is strict, in which case the event is rejected.
func (r *Runtime) varsFromEvent(config *models.Config, binding models.EventBinding, event any) (map[string]string, error) {
	strict := config.StrictFor(binding)
	vars := make(map[string]string, len(binding.VarsMap))

	for name, path := range binding.VarsMap {
		value, found := interpolation.LookupPath(event, path)
		if !found {
			if strict {
				return nil, fmt.Errorf("%w: variable %q from path %q", ErrVarNotFound, name, path)
			}

			r.logger.Warn("Event field not found for variable mapping, using empty string",
				"variable", name, "path", path)

			vars[name] = ""

			continue
		}

		vars[name] = interpolation.Stringify(value)
	}

	return vars, nil
}

func (r *Runtime) runWorkflow(ctx context.Context, config *models.Config, name string, vars map[string]string) error {
	workflow, ok := config.Workflows[name]
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownWorkflow, name)
	}

	runID := "run-" + uuid.New().String()[:8]

	ctx, span := otelhelper.StartSpan(ctx, r.tracer, "workflow.run",
		attribute.String(otelhelper.WorkflowNameKey, name),
		attribute.String(otelhelper.RunIDKey, runID),
	)
	defer span.End()

	logger := r.logger.With("workflow", name, "run_id", runID)
	logger.Info("Starting workflow", "steps", len(workflow))

	start := time.Now()

	for i, step := range workflow {
		err := r.executeAction(ctx, config, step, vars, 0, logger)
		if err != nil {
			wrapped := fmt.Errorf("workflow %q failed at step %d: %w", name, i, err)
			otelhelper.SetError(span, wrapped)
			metrics.RunsTotal.WithLabelValues(name, "failure").Inc()

			return wrapped
		}
	}

	elapsed := time.Since(start)
	metrics.RunsTotal.WithLabelValues(name, "success").Inc()
	metrics.RunDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	logger.Info("Workflow completed", "duration", elapsed)

	return nil
}

//nolint:cyclop // one arm per action kind; splitting would obscure the dispatch.
func (r *Runtime) executeAction(ctx context.Context, config *models.Config, action models.Action, vars map[string]string, depth int, logger *slog.Logger) error {
	if depth > MaxDepth {
		return ErrMaxDepth
	}

	switch a := action.(type) {
	case *models.Sequence:
		for _, step := range a.Steps {
			err := r.executeAction(ctx, config, step, vars, depth+1, logger)
			if err != nil {
				return err
			}
		}

		return nil

	case *models.Ref:
		referenced, ok := config.Actions[a.Name]
		if !ok {
			return fmt.Errorf("%w: %q", ErrActionNotFound, a.Name)
		}

		return r.executeAction(ctx, config, referenced, vars, depth+1, logger)

	case *models.MouseMove:
		return r.provider.MoveTo(ctx, a.X, a.Y)

	case *models.MouseClick:
		return r.provider.Click(ctx, a.Button, a.Count)

	case *models.MouseScroll:
		return r.provider.Scroll(ctx, a.DeltaX, a.DeltaY)

	case *models.KeySeq:
		return r.provider.SendKeys(ctx, r.interp(config, a.Text, vars))

	case *models.TypeText:
		return r.provider.TypeText(ctx, r.interp(config, a.Text, vars))

	case *models.SleepMs:
		return r.provider.Sleep(ctx, a.Ms)

	case *models.SleepRandMs:
		return r.provider.Sleep(ctx, randomDelay(a.Min, a.Max))

	case *models.FocusWindow:
		title := r.interp(config, a.TitleContains, vars)

		focused, err := r.provider.FocusWindow(ctx, title)
		if err != nil {
			return err
		}

		if !focused {
			logger.Warn("focus_window reported no matching window", "title_contains", title)
		}

		return nil

	case *models.SetVar:
		name := r.interp(config, a.Name, vars)
		value := r.interp(config, a.Value, vars)
		vars[name] = value
		logger.Debug("Variable set", "name", name, "value", value)

		return nil

	case *models.Conditional:
		lhs := r.interp(config, a.When, vars)
		rhs := r.interp(config, a.Equals, vars)
		logger.Debug("Conditional evaluation", "when", lhs, "equals", rhs, "depth", depth)

		if lhs == rhs {
			return r.executeAction(ctx, config, a.Then, vars, depth+1, logger)
		}

		if a.Else != nil {
			return r.executeAction(ctx, config, a.Else, vars, depth+1, logger)
		}

		return nil

	case *models.Log:
		r.logMessage(logger, a.Level, r.interp(config, a.Message, vars))

		return nil

	case *models.OcrCheck:
		// The result does not influence control flow yet.
		_, err := r.provider.OcrCheck(ctx, a.Region, r.interp(config, a.MustContain, vars))

		return err

	case *models.CaptureScreen:
		return r.provider.CaptureScreen(ctx, r.interp(config, a.Path, vars), a.Region)

	default:
		return fmt.Errorf("%w: %q", models.ErrUnknownActionType, action.Kind())
	}
}

func (r *Runtime) interp(config *models.Config, s string, vars map[string]string) string {
	return interpolation.Interpolate(s, vars, config.Globals)
}

// logMessage maps workflow log levels onto slog; trace folds into debug
// with a marker attribute since slog has no trace level.
func (r *Runtime) logMessage(logger *slog.Logger, level models.LogLevel, message string) {
	switch level {
	case models.LevelTrace:
		logger.Debug(message, "trace", true)
	case models.LevelDebug:
		logger.Debug(message)
	case models.LevelWarn:
		logger.Warn(message)
	case models.LevelError:
		logger.Error(message)
	case models.LevelInfo:
		logger.Info(message)
	default:
		logger.Info(message)
	}
}

// randomDelay picks a duration in [min, max] milliseconds, swapping
// reversed bounds.
func randomDelay(minMs, maxMs int64) int64 {
	lo, hi := minMs, maxMs
	if lo > hi {
		lo, hi = hi, lo
	}

	if lo == hi {
		return lo
	}

	return lo + rand.Int64N(hi-lo+1)
}
