package events

import (
	"sync"

	"capitafund/core/types"
)

// Recorder buffers the payload of every emitted event. The node uses one
// recorder per transaction so events are only published once the state
// changes that produced them have been committed.
type Recorder struct {
	mu     sync.Mutex
	events []*types.Event
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder { return &Recorder{} }

// Emit implements the Emitter interface. Events without a payload are dropped.
func (r *Recorder) Emit(evt Event) {
	if r == nil || evt == nil {
		return
	}
	payload, ok := evt.(Payload)
	if !ok || payload.Event() == nil {
		return
	}
	r.mu.Lock()
	r.events = append(r.events, payload.Event().Clone())
	r.mu.Unlock()
}

// Len reports the number of buffered events.
func (r *Recorder) Len() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Truncate drops every event recorded after the first n.
func (r *Recorder) Truncate(n int) {
	if r == nil || n < 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if n < len(r.events) {
		r.events = r.events[:n]
	}
}

// Events returns a copy of the buffered events in emission order.
func (r *Recorder) Events() []*types.Event {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*types.Event, 0, len(r.events))
	for _, evt := range r.events {
		out = append(out, evt.Clone())
	}
	return out
}

// Reset discards all buffered events.
func (r *Recorder) Reset() {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

// Filter returns the buffered events with the supplied type.
func (r *Recorder) Filter(eventType string) []*types.Event {
	var out []*types.Event
	for _, evt := range r.Events() {
		if evt.Type == eventType {
			out = append(out, evt)
		}
	}
	return out
}
