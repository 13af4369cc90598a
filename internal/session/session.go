// Package session correlates per-user captures across lifecycle phases.
//
// DESIGN: One round trip per user key. The inlet phase stores its selected
// snapshot; the stream phase accumulates chunk events; the outlet phase takes
// and clears both in one locked step. There is no TTL: an abandoned request
// leaves at most one stale entry per user, overwritten by that user's next
// inlet. The mutex makes individual operations safe, but two overlapping
// requests for the same user still overwrite each other (last writer wins);
// serialized per-user invocation is a host precondition, not something
// enforced here.
package session

import "sync"

// InletRecord is the snapshot stored at inlet time for the outlet to render.
type InletRecord struct {
	Selection map[string]any // selected snapshot fields
	Timestamp string         // capture time, already formatted for display
}

// StreamRecord accumulates stream events for one round trip.
type StreamRecord struct {
	Events []any
}

// Correlator holds per-user transient state between phases.
type Correlator struct {
	mu      sync.Mutex
	inlet   map[string]*InletRecord
	stream  map[string]*StreamRecord
	noticed map[string]bool // "wait while streaming" notice already emitted
}

// NewCorrelator creates an empty correlator.
func NewCorrelator() *Correlator {
	return &Correlator{
		inlet:   make(map[string]*InletRecord),
		stream:  make(map[string]*StreamRecord),
		noticed: make(map[string]bool),
	}
}

// BeginInlet resets all state for the user, starting a fresh round trip.
// Idempotent.
func (c *Correlator) BeginInlet(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.inlet, userID)
	delete(c.stream, userID)
	delete(c.noticed, userID)
}

// StoreInlet records the inlet capture for the user.
func (c *Correlator) StoreInlet(userID string, rec *InletRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.inlet[userID] = rec
}

// AppendStream adds one stream event for the user. Returns whether this was
// the first event of the round trip and the accumulated count.
func (c *Correlator) AppendStream(userID string, event any) (first bool, count int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.stream[userID]
	if !ok {
		rec = &StreamRecord{}
		c.stream[userID] = rec
		first = true
	}
	rec.Events = append(rec.Events, event)
	return first, len(rec.Events)
}

// ClearStream drops the user's stream record. Best-effort cleanup when a
// stream phase fails partway.
func (c *Correlator) ClearStream(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.stream, userID)
}

// Take returns and removes both the inlet and stream records for the user in
// one locked step. Either may be nil when that phase captured nothing.
func (c *Correlator) Take(userID string) (*InletRecord, *StreamRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	inlet := c.inlet[userID]
	stream := c.stream[userID]
	delete(c.inlet, userID)
	delete(c.stream, userID)
	delete(c.noticed, userID)
	return inlet, stream
}

// MarkStreamNotice reports whether the streaming-in-progress notice still
// needs to be emitted for the user, marking it emitted. Used when stream
// capture is disabled but chunks are arriving.
func (c *Correlator) MarkStreamNotice(userID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.noticed[userID] {
		return false
	}
	c.noticed[userID] = true
	return true
}
