// Package filter implements the debug-instrumentation filter itself: the
// inlet/outlet/stream lifecycle entry points the host chat pipeline invokes.
//
// DESIGN: The filter owns its collaborators (correlator, renderer, sanitizer,
// redactor, sink dispatcher) for the lifetime of the instance; nothing lives
// in package-level state. Correlation is keyed by user ID; the host must not
// run two phases for the same user concurrently (see the session package).
//
// FLOW:
//  1. Inlet strips old reports from history, captures and stores a snapshot
//  2. Stream accumulates chunk events per user
//  3. Outlet takes both, captures its own snapshot, renders the unified
//     report, dispatches it to sinks, and appends it to the last assistant
//     message
//
// Every entry point is wrapped so that no internal failure, panics included,
// can abort the host pipeline: the worst case is a report that is missing
// from this turn.
package filter

import (
	"context"
	"os"

	"github.com/rex-nihilo/chatlens/internal/config"
	"github.com/rex-nihilo/chatlens/internal/monitoring"
	"github.com/rex-nihilo/chatlens/internal/redact"
	"github.com/rex-nihilo/chatlens/internal/render"
	"github.com/rex-nihilo/chatlens/internal/session"
	"github.com/rex-nihilo/chatlens/internal/sinks"
	"github.com/rex-nihilo/chatlens/internal/snapshot"
)

// defaultUserID keys correlation entries when the host supplies no user.
const defaultUserID = "default"

// NotificationData is the payload of a status event.
type NotificationData struct {
	Description string `json:"description"`
	Done        bool   `json:"done"`
	Hidden      bool   `json:"hidden"`
}

// NotificationEvent is what the host's status channel accepts.
type NotificationEvent struct {
	Type string           `json:"type"`
	Data NotificationData `json:"data"`
}

// Notifier is the host's async status channel. Failures are swallowed by the
// filter; a nil Notifier disables notifications.
type Notifier func(ctx context.Context, event NotificationEvent) error

// ActionCaller is the host's action channel, captured into snapshots but
// never invoked by the filter.
type ActionCaller func(ctx context.Context, event map[string]any) (any, error)

// PhaseContext bundles the host-supplied context for one lifecycle call.
type PhaseContext struct {
	User       map[string]any
	Metadata   map[string]any
	Model      map[string]any
	Messages   []any
	ChatID     string
	SessionID  string
	MessageID  string
	Notifier   Notifier
	ActionCall ActionCaller
	Files      []any
	Request    any
	Task       string
	TaskBody   map[string]any
	Tools      any
}

// Filter intercepts the chat pipeline lifecycle for debug capture.
type Filter struct {
	cfg        *config.Config
	logger     *monitoring.Logger
	redactor   *redact.Redactor
	renderer   *render.Renderer
	sanitizer  *render.Sanitizer
	correlator *session.Correlator
	dispatcher *sinks.Dispatcher
	fileSink   *sinks.FileSink
}

// New creates a Filter from config. A nil logger builds one from the
// config's logging section.
func New(cfg *config.Config, logger *monitoring.Logger) *Filter {
	if logger == nil {
		logger = monitoring.New(cfg.Logging)
	}

	var sinkList []sinks.Sink
	var fileSink *sinks.FileSink
	if cfg.Sinks.Console {
		sinkList = append(sinkList, sinks.NewConsoleSink(os.Stdout))
	}
	if cfg.Sinks.File {
		fileSink = sinks.NewFileSink(cfg.Sinks)
		sinkList = append(sinkList, fileSink)
	}

	return &Filter{
		cfg:        cfg,
		logger:     logger,
		redactor:   redact.New(cfg.Redact),
		renderer:   render.NewRenderer(cfg.Report),
		sanitizer:  render.NewSanitizer(cfg.Report.MarkerBegin, cfg.Report.MarkerEnd),
		correlator: session.NewCorrelator(),
		dispatcher: sinks.NewDispatcher(sinkList...),
		fileSink:   fileSink,
	}
}

// Close releases the file sink, if any.
func (f *Filter) Close() error {
	if f.fileSink != nil {
		return f.fileSink.Close()
	}
	return nil
}

// userID extracts the correlation key from the phase context.
func userID(pc *PhaseContext) string {
	if pc == nil || pc.User == nil {
		return defaultUserID
	}
	if id, ok := pc.User["id"].(string); ok && id != "" {
		return id
	}
	return defaultUserID
}

// modelName extracts the display model name from the phase context.
func modelName(pc *PhaseContext) string {
	if pc != nil && pc.Model != nil {
		if name, ok := pc.Model["name"].(string); ok {
			return name
		}
	}
	return "UNKNOWN"
}

// notify emits a status event on the host channel. Failures, panics
// included, are downgraded to a diagnostic warning.
func (f *Filter) notify(ctx context.Context, pc *PhaseContext, description string, done bool) {
	if pc == nil || pc.Notifier == nil || !f.cfg.Status.Enabled {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			f.logger.Warn().Interface("panic", r).Msg("filter: status notifier panicked")
		}
	}()

	err := pc.Notifier(ctx, NotificationEvent{
		Type: "status",
		Data: NotificationData{Description: description, Done: done},
	})
	if err != nil {
		f.logger.Warn().Err(err).Msg("filter: status notification failed")
	}
}

// renderValue applies redaction (when enabled) and safe conversion, then
// renders indented JSON.
func (f *Filter) renderValue(value any) string {
	if f.cfg.Redact.Enabled {
		value = f.redactor.Redact(value)
	}
	return render.Render(render.Safe(value))
}

// buildSnapshot assembles the full snapshot for one phase from the decoded
// body and the host context.
func (f *Filter) buildSnapshot(body map[string]any, pc *PhaseContext) *snapshot.Snapshot {
	if pc == nil {
		pc = &PhaseContext{}
	}
	return &snapshot.Snapshot{
		Body:         body,
		User:         pc.User,
		Metadata:     pc.Metadata,
		Model:        pc.Model,
		Messages:     pc.Messages,
		ChatID:       pc.ChatID,
		SessionID:    pc.SessionID,
		MessageID:    pc.MessageID,
		EventEmitter: notifierValue(pc.Notifier),
		EventCall:    actionValue(pc.ActionCall),
		Files:        pc.Files,
		Request:      pc.Request,
		Task:         pc.Task,
		TaskBody:     pc.TaskBody,
		Tools:        pc.Tools,
	}
}

// notifierValue keeps a nil func from becoming a non-nil any.
func notifierValue(n Notifier) any {
	if n == nil {
		return nil
	}
	return n
}

func actionValue(a ActionCaller) any {
	if a == nil {
		return nil
	}
	return a
}
