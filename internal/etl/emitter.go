package etl

import (
	"context"
	"log/slog"
	"sync"
)

// ─────────────────────────────────────────────────────────────
// Reporter: the pipeline's observability collaborator
// ─────────────────────────────────────────────────────────────

// Event names emitted by the pipeline stages.
const (
	EventLoadStarted    = "load:started"
	EventFileLoaded     = "load:file-loaded"
	EventFileFailed     = "load:file-failed"
	EventNoInput        = "normalize:no-input"
	EventRowsDropped    = "normalize:rows-dropped"
	EventNormalized     = "normalize:complete"
	EventNoData         = "materialize:no-data"
	EventWritten        = "materialize:written"
	EventWriteFailed    = "materialize:failed"
	EventRunCompleted   = "run:completed"
	EventRunFailed      = "run:failed"
	EventTriggerFired   = "trigger:fired"
	EventTriggerSkipped = "trigger:skipped"
	EventTriggerFailed  = "trigger:failed"
)

// Reporter receives pipeline events. Components take a Reporter instead
// of logging through a package-level logger, so tests can swap in a
// MockReporter and assert on what was emitted.
type Reporter interface {
	Emit(ctx context.Context, event string, data any)
}

// Fields is the usual payload of an emitted event.
type Fields map[string]any

// eventLevels maps events to the slog level LogReporter writes them at.
// Unlisted events are logged at info.
var eventLevels = map[string]slog.Level{
	EventFileFailed:     slog.LevelError,
	EventNoInput:        slog.LevelWarn,
	EventRowsDropped:    slog.LevelWarn,
	EventNoData:         slog.LevelError,
	EventWriteFailed:    slog.LevelError,
	EventRunFailed:      slog.LevelError,
	EventTriggerSkipped: slog.LevelWarn,
	EventTriggerFailed:  slog.LevelError,
}

// LevelFor returns the slog level an event is reported at.
func LevelFor(event string) slog.Level {
	if lvl, ok := eventLevels[event]; ok {
		return lvl
	}
	return slog.LevelInfo
}

// LogReporter writes events to a slog.Logger.
type LogReporter struct {
	Logger *slog.Logger
}

// NewLogReporter returns a reporter writing to logger, or to slog.Default
// when logger is nil.
func NewLogReporter(logger *slog.Logger) *LogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogReporter{Logger: logger}
}

func (r *LogReporter) Emit(ctx context.Context, event string, data any) {
	attrs := []slog.Attr{}
	if runID := RunIDFrom(ctx); runID != "" {
		attrs = append(attrs, slog.String("run_id", runID))
	}
	switch d := data.(type) {
	case nil:
	case Fields:
		for k, v := range d {
			attrs = append(attrs, slog.Any(k, v))
		}
	default:
		attrs = append(attrs, slog.Any("data", d))
	}
	r.Logger.LogAttrs(ctx, LevelFor(event), event, attrs...)
}

// NopReporter discards every event.
type NopReporter struct{}

func (NopReporter) Emit(context.Context, string, any) {}

// MockReporter is a test-friendly Reporter that records all calls.
type MockReporter struct {
	mu     sync.Mutex
	Events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	RunID string
	Data  any
}

func (m *MockReporter) Emit(ctx context.Context, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, EmittedEvent{Event: event, RunID: RunIDFrom(ctx), Data: data})
}

// Named returns the recorded events with the given name, in order.
func (m *MockReporter) Named(event string) []EmittedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []EmittedEvent
	for _, e := range m.Events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

// ── Run ID propagation ─────────────────────────────────────

type runIDKey struct{}

// WithRunID attaches a run id to ctx; every event emitted under ctx
// carries it.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunIDFrom returns the run id attached to ctx, or "".
func RunIDFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

func reporterOrNop(r Reporter) Reporter {
	if r == nil {
		return NopReporter{}
	}
	return r
}
