package state

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"capitafund/storage"
)

var errNilDatabase = errors.New("state: database not configured")

// Manager is a journaled write overlay on top of a key-value database. Reads
// observe pending writes, Snapshot/RevertToSnapshot roll back a suffix of the
// pending writes and Commit flushes them in a single batch. A manager is
// scoped to one transaction and is not safe for concurrent use.
type Manager struct {
	db      storage.Database
	dirty   map[string]pendingValue
	journal []journalEntry
}

type pendingValue struct {
	value   []byte
	deleted bool
}

type journalEntry struct {
	key     string
	prev    pendingValue
	hadPrev bool
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db, dirty: make(map[string]pendingValue)}
}

func kvKey(key []byte) []byte {
	return ethcrypto.Keccak256(key)
}

func (m *Manager) read(hashed []byte) ([]byte, error) {
	if m == nil || m.db == nil {
		return nil, errNilDatabase
	}
	if pending, ok := m.dirty[string(hashed)]; ok {
		if pending.deleted {
			return nil, nil
		}
		return pending.value, nil
	}
	data, err := m.db.Get(hashed)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return data, err
}

func (m *Manager) write(hashed []byte, value []byte, deleted bool) {
	key := string(hashed)
	prev, had := m.dirty[key]
	m.journal = append(m.journal, journalEntry{key: key, prev: prev, hadPrev: had})
	m.dirty[key] = pendingValue{value: value, deleted: deleted}
}

// KVPut RLP-encodes value and stores it under the supplied key.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	if m == nil || m.db == nil {
		return errNilDatabase
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	m.write(kvKey(key), encoded, false)
	return nil
}

// KVGet retrieves the value stored under the supplied key and decodes it into
// the provided destination. The boolean return value indicates whether the key
// existed in state.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	data, err := m.read(kvKey(key))
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// KVDelete removes the value stored under key.
func (m *Manager) KVDelete(key []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	if m == nil || m.db == nil {
		return errNilDatabase
	}
	m.write(kvKey(key), nil, true)
	return nil
}

func indexedLenKey(prefix []byte) []byte {
	return append(append([]byte{}, prefix...), []byte("/len")...)
}

func indexedItemKey(prefix []byte, index uint64) []byte {
	buf := make([]byte, len(prefix)+1+8)
	copy(buf, prefix)
	buf[len(prefix)] = '#'
	binary.BigEndian.PutUint64(buf[len(prefix)+1:], index)
	return buf
}

// IndexedLen returns the number of entries of the append-only sequence stored
// under prefix.
func (m *Manager) IndexedLen(prefix []byte) (uint64, error) {
	var length uint64
	if _, err := m.KVGet(indexedLenKey(prefix), &length); err != nil {
		return 0, err
	}
	return length, nil
}

// IndexedAppend appends value to the sequence stored under prefix and returns
// the index it was written at. Entries are never removed or reordered.
func (m *Manager) IndexedAppend(prefix []byte, value interface{}) (uint64, error) {
	length, err := m.IndexedLen(prefix)
	if err != nil {
		return 0, err
	}
	if err := m.KVPut(indexedItemKey(prefix, length), value); err != nil {
		return 0, err
	}
	if err := m.KVPut(indexedLenKey(prefix), length+1); err != nil {
		return 0, err
	}
	return length, nil
}

// IndexedGet decodes the entry at index into out.
func (m *Manager) IndexedGet(prefix []byte, index uint64, out interface{}) (bool, error) {
	return m.KVGet(indexedItemKey(prefix, index), out)
}

// Snapshot returns an identifier for the current pending write set.
func (m *Manager) Snapshot() int {
	if m == nil {
		return 0
	}
	return len(m.journal)
}

// RevertToSnapshot undoes every write performed after the snapshot was taken.
func (m *Manager) RevertToSnapshot(id int) {
	if m == nil || id < 0 || id > len(m.journal) {
		return
	}
	for i := len(m.journal) - 1; i >= id; i-- {
		entry := m.journal[i]
		if entry.hadPrev {
			m.dirty[entry.key] = entry.prev
		} else {
			delete(m.dirty, entry.key)
		}
	}
	m.journal = m.journal[:id]
}

// Pending reports the number of keys with uncommitted writes.
func (m *Manager) Pending() int {
	if m == nil {
		return 0
	}
	return len(m.dirty)
}

// Commit flushes all pending writes to the database atomically and resets
// the journal.
func (m *Manager) Commit() error {
	if m == nil || m.db == nil {
		return errNilDatabase
	}
	if len(m.dirty) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m.dirty))
	for key := range m.dirty {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	batch := m.db.NewBatch()
	for _, key := range keys {
		pending := m.dirty[key]
		if pending.deleted {
			batch.Delete([]byte(key))
			continue
		}
		batch.Put([]byte(key), pending.value)
	}
	if err := batch.Write(); err != nil {
		return fmt.Errorf("state: commit: %w", err)
	}
	m.Discard()
	return nil
}

// Discard drops every pending write.
func (m *Manager) Discard() {
	if m == nil {
		return
	}
	m.dirty = make(map[string]pendingValue)
	m.journal = nil
}
