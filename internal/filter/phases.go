package filter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/rex-nihilo/chatlens/internal/monitoring"
	"github.com/rex-nihilo/chatlens/internal/render"
	"github.com/rex-nihilo/chatlens/internal/session"
	"github.com/rex-nihilo/chatlens/internal/sinks"
	"github.com/rex-nihilo/chatlens/internal/snapshot"
)

// Phase names as they appear in summaries and report headers.
const (
	phaseInlet  = "INLET"
	phaseOutlet = "OUTLET"
	phaseStream = "STREAM"
)

const timestampLayout = "2006-01-02 15:04:05"

// stopFinishReason is the sentinel marking the final chunk of a stream.
const stopFinishReason = "stop"

// Inlet intercepts an incoming request. It strips previously injected
// reports from the message history, captures the inlet snapshot, and stores
// it for the outlet phase. The returned body is the input with at most the
// report spans removed; on any internal failure the input comes back as-is.
func (f *Filter) Inlet(ctx context.Context, body []byte, pc *PhaseContext) (out []byte) {
	out = body
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error().Interface("panic", r).Msg("filter: inlet processing failed")
			out = body
		}
	}()

	f.notify(ctx, pc, f.cfg.Status.Start, false)

	ts := time.Now().Format(timestampLayout)
	uid := userID(pc)
	f.correlator.BeginInlet(uid)

	if f.cfg.Report.CleanHistory {
		out = f.sanitizer.CleanBody(out)
	}

	if !f.cfg.Capture.Inlet {
		return out
	}

	f.notify(ctx, pc, f.cfg.Status.InletStart, false)

	sel := f.capture(out, pc, phaseInlet, ts)
	f.dispatcher.Emit(sinks.Entry{
		Message: fmt.Sprintf("%s [%s]", f.cfg.Report.TitleInlet, ts),
		Data:    f.renderValue(sel),
		Delims:  sinks.DelimAll,
	})
	f.correlator.StoreInlet(uid, &session.InletRecord{Selection: sel, Timestamp: ts})

	f.notify(ctx, pc, f.cfg.Status.InletOK, false)
	f.logger.Debug().Str("user", uid).Int("priority", f.cfg.Priority).Msg("filter: inlet captured")

	return out
}

// Outlet intercepts an outgoing response. It retrieves the correlated inlet
// and stream captures, captures the outlet snapshot, and when the chat sink
// is enabled appends the rendered report to the last assistant message. On
// any internal failure the input body is returned unmodified.
func (f *Filter) Outlet(ctx context.Context, body []byte, pc *PhaseContext) []byte {
	out := f.outlet(ctx, body, pc)

	// The completion status is emitted even when the outlet work failed.
	f.notify(ctx, pc, f.cfg.Status.Completed, true)

	return out
}

func (f *Filter) outlet(ctx context.Context, body []byte, pc *PhaseContext) (out []byte) {
	out = body
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error().Interface("panic", r).Msg("filter: outlet processing failed")
			out = body
		}
	}()

	ts := time.Now().Format(timestampLayout)
	uid := userID(pc)
	reportID := uuid.NewString()
	ctx = monitoring.WithReportIDContext(ctx, reportID)

	if f.cfg.Report.RemoveOld {
		out = f.sanitizer.CleanBody(out)
	}

	inletRec, streamRec := f.correlator.Take(uid)

	var outletSel map[string]any
	if f.cfg.Capture.Outlet {
		f.notify(ctx, pc, f.cfg.Status.OutletStart, false)

		outletSel = f.capture(out, pc, phaseOutlet, ts)
		f.dispatcher.Emit(sinks.Entry{
			Message: fmt.Sprintf("%s [%s]", f.cfg.Report.TitleOutlet, ts),
			Data:    f.renderValue(outletSel),
			Delims:  sinks.DelimAll,
		})

		f.notify(ctx, pc, f.cfg.Status.OutletOK, false)
	}

	if f.cfg.Sinks.Chat {
		out = f.injectReport(out, pc, inletRec, streamRec, outletSel, ts)
	}

	f.logger.Debug().
		Str("report_id", monitoring.ReportIDFromContext(ctx)).
		Str("user", uid).
		Msg("filter: outlet processed")

	return out
}

// Stream intercepts one streamed chunk. The event always comes back
// unchanged; capture failures clear the partial stream record and are
// logged, never raised.
func (f *Filter) Stream(ctx context.Context, event []byte, pc *PhaseContext) []byte {
	if len(event) == 0 {
		return event
	}

	uid := userID(pc)
	defer func() {
		if r := recover(); r != nil {
			f.correlator.ClearStream(uid)
			f.logger.Error().Interface("panic", r).Msg("filter: stream processing failed")
		}
	}()

	if !f.cfg.Capture.Stream {
		if f.correlator.MarkStreamNotice(uid) {
			f.notify(ctx, pc, f.cfg.Status.StreamWait, false)
		}
		return event
	}

	ts := time.Now().Format(timestampLayout)

	var eventValue any
	var eventMap map[string]any
	if err := json.Unmarshal(event, &eventMap); err != nil {
		f.logger.Warn().Err(err).Msg("filter: undecodable stream event, storing raw text")
		eventValue = string(event)
	} else {
		eventValue = eventMap
	}

	first, _ := f.correlator.AppendStream(uid, eventValue)
	if first {
		f.dispatcher.Emit(sinks.Entry{
			Message: fmt.Sprintf("%s [%s]", f.cfg.Report.TitleStream, ts),
			Delims:  sinks.DelimTop,
		})
		f.notify(ctx, pc, f.cfg.Status.StreamStart, false)
	}

	f.dispatcher.Emit(sinks.Entry{
		Message: fmt.Sprintf("%s | %s", phaseStream, ts),
		Data:    f.renderValue(eventValue),
	})

	if gjson.GetBytes(event, "choices.0.finish_reason").String() == stopFinishReason {
		f.dispatcher.Emit(sinks.Entry{Delims: sinks.DelimBottom})
		f.notify(ctx, pc, f.cfg.Status.StreamOK, false)
		f.logger.Debug().Str("user", uid).Msg("filter: stream finished")
	}

	return event
}

// capture decodes the body, builds the phase snapshot (with summary when
// enabled), and selects the configured fields. Returns nil when selection
// fails; a nil selection renders as an empty object downstream.
func (f *Filter) capture(body []byte, pc *PhaseContext, phase, ts string) map[string]any {
	var bodyMap map[string]any
	if len(body) > 0 {
		if err := json.Unmarshal(body, &bodyMap); err != nil {
			f.logger.Warn().Err(err).Str("phase", phase).Msg("filter: undecodable body, capturing context only")
		}
	}

	snap := f.buildSnapshot(bodyMap, pc)
	if f.cfg.Fields.Summary {
		snap.Summary = snap.BuildSummary(phase, f.cfg.Priority, ts)
	}

	sel, err := snapshot.Select(snap, f.cfg.Fields)
	if err != nil {
		f.logger.Error().Err(err).Str("phase", phase).Msg("filter: field selection failed")
		return nil
	}
	return sel
}

// injectReport renders the unified report and appends it to the last
// assistant message's text. The body is returned unchanged when there is no
// assistant message to carry the report or patching fails.
func (f *Filter) injectReport(body []byte, pc *PhaseContext, inletRec *session.InletRecord, streamRec *session.StreamRecord, outletSel map[string]any, ts string) []byte {
	count := gjson.GetBytes(body, "messages.#").Int()
	if count == 0 {
		return body
	}

	lastIdx := count - 1
	last := gjson.GetBytes(body, fmt.Sprintf("messages.%d", lastIdx))
	if last.Get("role").String() != "assistant" {
		return body
	}
	content := last.Get("content")
	if content.Exists() && content.Type != gjson.String {
		// Multimodal content, nowhere to append text.
		return body
	}

	rep := &render.Report{
		ModelName:     modelName(pc),
		Phases:        f.capturedPhases(),
		Sinks:         f.activeSinks(),
		MessageNumber: int(count),
	}

	if f.cfg.Capture.Inlet || f.cfg.Capture.Outlet {
		rep.Fields = snapshot.ShownFields(f.cfg.Fields)
	} else if f.cfg.Capture.Stream {
		rep.FieldsNote = "Stream info only"
	} else {
		rep.FieldsNote = "-"
	}

	if f.cfg.Capture.Inlet {
		rep.Inlet = f.inletSection(inletRec)
	}
	if f.cfg.Capture.Outlet {
		rep.Outlet = &render.Section{
			Label: ts,
			Body:  f.renderValue(outletSel),
			Size:  render.ByteSize(outletSel),
		}
	}
	if f.cfg.Capture.Stream {
		rep.Stream = f.streamSection(streamRec)
	}

	newContent := content.String() + "\n" + f.renderer.Render(rep) + "\n"
	patched, err := sjson.SetBytes(body, fmt.Sprintf("messages.%d.content", lastIdx), newContent)
	if err != nil {
		f.logger.Warn().Err(err).Msg("filter: failed to append report to message")
		return body
	}
	return patched
}

// inletSection renders the stored inlet capture, or a placeholder when no
// inlet preceded this outlet.
func (f *Filter) inletSection(rec *session.InletRecord) *render.Section {
	if rec == nil {
		return &render.Section{Label: "no captured inlet", Body: "{}"}
	}
	return &render.Section{
		Label: rec.Timestamp,
		Body:  f.renderValue(rec.Selection),
		Size:  render.ByteSize(rec.Selection),
	}
}

// streamSection renders the accumulated stream events with an item count.
func (f *Filter) streamSection(rec *session.StreamRecord) *render.Section {
	if rec == nil || len(rec.Events) == 0 {
		return &render.Section{Label: "0 items", Body: "[]"}
	}

	label := fmt.Sprintf("%d items", len(rec.Events))
	if len(rec.Events) == 1 {
		label = "1 item"
	}
	return &render.Section{
		Label: label,
		Body:  f.renderValue(rec.Events),
		Size:  render.ByteSize(rec.Events),
	}
}

// capturedPhases lists the enabled phases for the report header.
func (f *Filter) capturedPhases() []string {
	phases := []string{}
	if f.cfg.Capture.Inlet {
		phases = append(phases, phaseInlet)
	}
	if f.cfg.Capture.Outlet {
		phases = append(phases, phaseOutlet)
	}
	if f.cfg.Capture.Stream {
		phases = append(phases, phaseStream)
	}
	return phases
}

// activeSinks lists the enabled sinks for the report header.
func (f *Filter) activeSinks() []string {
	active := []string{}
	if f.cfg.Sinks.Chat {
		active = append(active, "CHAT")
	}
	if f.cfg.Sinks.Console {
		active = append(active, "CONSOLE")
	}
	if f.cfg.Sinks.File {
		active = append(active, "FILE")
	}
	return active
}
