package state

import (
	"sort"

	"capitafund/core/types"
)

// storedEvent is the RLP form of an event; RLP has no map support so the
// attributes are flattened into sorted key/value slices.
type storedEvent struct {
	Type   string
	Keys   []string
	Values []string
	Height uint64
}

// EventRecord is an event as read back from the log.
type EventRecord struct {
	Sequence uint64       `json:"sequence"`
	Height   uint64       `json:"height"`
	Event    *types.Event `json:"event"`
}

// AppendEvent appends evt to the persistent event log. height is the sequence
// number of the transaction that produced it.
func (m *Manager) AppendEvent(height uint64, evt *types.Event) (uint64, error) {
	if evt == nil {
		return 0, nil
	}
	keys := make([]string, 0, len(evt.Attributes))
	for key := range evt.Attributes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	values := make([]string, len(keys))
	for i, key := range keys {
		values[i] = evt.Attributes[key]
	}
	return m.IndexedAppend(eventLogKey, &storedEvent{Type: evt.Type, Keys: keys, Values: values, Height: height})
}

// EventCount returns the number of events in the log.
func (m *Manager) EventCount() (uint64, error) {
	return m.IndexedLen(eventLogKey)
}

// Events returns up to limit events starting at offset.
func (m *Manager) Events(offset, limit uint64) ([]EventRecord, error) {
	total, err := m.EventCount()
	if err != nil {
		return nil, err
	}
	if offset >= total || limit == 0 {
		return []EventRecord{}, nil
	}
	end := offset + limit
	if end > total || end < offset {
		end = total
	}
	out := make([]EventRecord, 0, end-offset)
	for i := offset; i < end; i++ {
		var stored storedEvent
		if _, err := m.IndexedGet(eventLogKey, i, &stored); err != nil {
			return nil, err
		}
		evt := &types.Event{Type: stored.Type, Attributes: make(map[string]string, len(stored.Keys))}
		for j, key := range stored.Keys {
			if j < len(stored.Values) {
				evt.Attributes[key] = stored.Values[j]
			}
		}
		out = append(out, EventRecord{Sequence: i, Height: stored.Height, Event: evt})
	}
	return out, nil
}

// Height returns the number of committed transactions.
func (m *Manager) Height() (uint64, error) {
	var height uint64
	if _, err := m.KVGet(heightKey, &height); err != nil {
		return 0, err
	}
	return height, nil
}

// SetHeight records the number of committed transactions.
func (m *Manager) SetHeight(height uint64) error {
	return m.KVPut(heightKey, height)
}
