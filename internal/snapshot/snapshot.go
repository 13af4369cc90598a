// Package snapshot captures the contextual fields available at a lifecycle
// phase and selects the configured subset for rendering.
//
// DESIGN: A Snapshot is taken fresh at each phase invocation from the raw
// body plus the host-supplied context. Values are decoded JSON
// (map[string]any / []any) except the host handles, which stay as opaque Go
// values for the serializer to tag. Selection copies enabled fields verbatim;
// a configured custom path is resolved against the full snapshot and falls
// back to a fixed not-found sentinel.
package snapshot

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rex-nihilo/chatlens/internal/config"
	"github.com/rex-nihilo/chatlens/internal/pathkey"
)

// Sentinel values used by the selector.
const (
	CustomKeyPrefix   = "CUSTOM KEY "
	CustomKeyNotFound = "**** CUSTOM KEY NOT FOUND ****"
)

// Snapshot holds every contextual field available at one phase invocation.
type Snapshot struct {
	Summary      map[string]any
	Body         map[string]any
	User         map[string]any
	Metadata     map[string]any
	Model        map[string]any
	Messages     []any
	ChatID       string
	SessionID    string
	MessageID    string
	EventEmitter any
	EventCall    any
	Files        []any
	Request      any
	Task         string
	TaskBody     map[string]any
	Tools        any
}

// AsMap returns the snapshot as a flat field map keyed by the names used in
// configuration and in rendered output.
func (s *Snapshot) AsMap() map[string]any {
	return map[string]any{
		"summary":       s.Summary,
		"body":          anyOrNil(s.Body),
		"user":          anyOrNil(s.User),
		"metadata":      anyOrNil(s.Metadata),
		"model":         anyOrNil(s.Model),
		"messages":      anyOrNilSlice(s.Messages),
		"chat_id":       s.ChatID,
		"session_id":    s.SessionID,
		"message_id":    s.MessageID,
		"event_emitter": s.EventEmitter,
		"event_call":    s.EventCall,
		"files":         anyOrNilSlice(s.Files),
		"request":       s.Request,
		"task":          s.Task,
		"task_body":     anyOrNil(s.TaskBody),
		"tools":         s.Tools,
	}
}

// anyOrNil keeps a typed nil map from becoming a non-nil any.
func anyOrNil(m map[string]any) any {
	if m == nil {
		return nil
	}
	return m
}

func anyOrNilSlice(l []any) any {
	if l == nil {
		return nil
	}
	return l
}

// BuildSummary produces the human-oriented summary block for a phase:
// phase type with priority and timestamp, model and user identity, message
// count, and the top-level key lists of the main structures.
func (s *Snapshot) BuildSummary(phase string, priority int, timestamp string) map[string]any {
	modelName, modelID := nameAndID(s.Model)
	userName, userID := nameAndID(s.User)

	messageCount := 0
	if msgs, ok := s.Body["messages"].([]any); ok {
		messageCount = len(msgs)
	}

	return map[string]any{
		"TYPE":             fmt.Sprintf("%s (Priority: %d) [%s]", phase, priority, timestamp),
		"MODEL":            fmt.Sprintf("%s [%s]", modelName, modelID),
		"USER":             fmt.Sprintf("%s [%s]", userName, userID),
		"MESSAGES COUNT":   messageCount,
		"KEYS OF body":     joinKeys(s.Body),
		"KEYS OF user":     joinKeys(s.User),
		"KEYS OF metadata": joinKeys(s.Metadata),
		"KEYS OF model":    joinKeys(s.Model),
		"KEYS OF messages": joinMessageKeys(s.Messages),
	}
}

// nameAndID extracts "name"/"id" with the UNKNOWN/- fallbacks.
func nameAndID(m map[string]any) (string, string) {
	name := "UNKNOWN"
	id := "-"
	if m != nil {
		if v, ok := m["name"].(string); ok {
			name = v
		}
		if v, ok := m["id"].(string); ok {
			id = v
		}
	}
	return name, id
}

// joinKeys returns the sorted, comma-joined top-level keys of a map.
func joinKeys(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}

// joinMessageKeys collects the union of keys across history messages.
func joinMessageKeys(messages []any) string {
	seen := map[string]bool{}
	for _, msg := range messages {
		m, ok := msg.(map[string]any)
		if !ok {
			continue
		}
		for k := range m {
			seen[k] = true
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}

// Select copies the enabled fields of the snapshot into a render subset.
// Disabled fields are omitted; enabled-but-absent fields appear as nil.
// A non-empty custom path is resolved against the full snapshot; failed
// resolution inserts the not-found sentinel instead of erroring.
func Select(snap *Snapshot, fields config.FieldsConfig) (map[string]any, error) {
	if snap == nil {
		return nil, fmt.Errorf("nil snapshot")
	}

	full := snap.AsMap()
	selected := make(map[string]any)

	for _, f := range []struct {
		enabled bool
		key     string
	}{
		{fields.Summary, "summary"},
		{fields.Body, "body"},
		{fields.User, "user"},
		{fields.Metadata, "metadata"},
		{fields.Model, "model"},
		{fields.Messages, "messages"},
		{fields.ChatID, "chat_id"},
		{fields.SessionID, "session_id"},
		{fields.MessageID, "message_id"},
		{fields.EventEmitter, "event_emitter"},
		{fields.EventCall, "event_call"},
		{fields.Files, "files"},
		{fields.Request, "request"},
		{fields.Task, "task"},
		{fields.TaskBody, "task_body"},
		{fields.Tools, "tools"},
	} {
		if f.enabled {
			selected[f.key] = full[f.key]
		}
	}

	if fields.CustomPath != "" {
		display := CustomKeyPrefix + fields.CustomPath
		if value, ok := pathkey.Resolve(full, fields.CustomPath); ok {
			selected[display] = value
		} else {
			selected[display] = CustomKeyNotFound
		}
	}

	return selected, nil
}

// ShownFields lists the names of the enabled field toggles in display order,
// for the report header.
func ShownFields(fields config.FieldsConfig) []string {
	names := []string{}
	for _, f := range []struct {
		enabled bool
		name    string
	}{
		{fields.Summary, "summary"},
		{fields.Body, "body"},
		{fields.User, "user"},
		{fields.Metadata, "metadata"},
		{fields.Model, "model"},
		{fields.Messages, "messages"},
		{fields.ChatID, "chat_id"},
		{fields.SessionID, "session_id"},
		{fields.MessageID, "message_id"},
		{fields.EventEmitter, "event_emitter"},
		{fields.EventCall, "event_call"},
		{fields.Files, "files"},
		{fields.Request, "request"},
		{fields.Task, "task"},
		{fields.TaskBody, "task_body"},
		{fields.Tools, "tools"},
	} {
		if f.enabled {
			names = append(names, f.name)
		}
	}
	return names
}
