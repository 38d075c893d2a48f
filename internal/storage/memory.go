package storage

import (
	"context"
	"sort"
	"sync"
)

// memoryArea is the data shared by every MemoryStore handle opened on it.
type memoryArea struct {
	mu       sync.Mutex
	data     map[string][]byte
	quota    int64
	watchers map[*MemoryStore][]chan Change
}

// MemoryStore is an in-process area. Each handle acts as a separate context:
// writes through one handle are reported to watchers on its siblings only.
type MemoryStore struct {
	area     *memoryArea
	mu       sync.Mutex
	writeErr error
}

// NewMemoryStore creates an empty in-memory area and returns its first handle.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{area: &memoryArea{
		data:     make(map[string][]byte),
		watchers: make(map[*MemoryStore][]chan Change),
	}}
}

// Sibling opens another context on the same area.
func (m *MemoryStore) Sibling() *MemoryStore {
	return &MemoryStore{area: m.area}
}

// SetQuota limits the total bytes held by the area. Zero disables the limit.
func (m *MemoryStore) SetQuota(quota int64) {
	m.area.mu.Lock()
	m.area.quota = quota
	m.area.mu.Unlock()
}

// SetWriteError makes every subsequent Set and Remove through this handle fail with err.
// Pass nil to restore normal behavior.
func (m *MemoryStore) SetWriteError(err error) {
	m.mu.Lock()
	m.writeErr = err
	m.mu.Unlock()
}

func (m *MemoryStore) injected() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writeErr
}

// Get returns a copy of the value at key.
func (m *MemoryStore) Get(key string) ([]byte, error) {
	m.area.mu.Lock()
	defer m.area.mu.Unlock()
	v, ok := m.area.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Set stores a copy of value at key.
func (m *MemoryStore) Set(key string, value []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := m.injected(); err != nil {
		return err
	}

	m.area.mu.Lock()
	defer m.area.mu.Unlock()
	if m.area.quota > 0 {
		var total int64
		for k, v := range m.area.data {
			if k != key {
				total += int64(len(v))
			}
		}
		if total+int64(len(value)) > m.area.quota {
			return ErrQuotaExceeded
		}
	}
	stored := append([]byte(nil), value...)
	m.area.data[key] = stored
	m.broadcastLocked(Change{Key: key, Value: stored})
	return nil
}

// Remove deletes key.
func (m *MemoryStore) Remove(key string) error {
	if err := m.injected(); err != nil {
		return err
	}
	m.area.mu.Lock()
	defer m.area.mu.Unlock()
	if _, ok := m.area.data[key]; !ok {
		return nil
	}
	delete(m.area.data, key)
	m.broadcastLocked(Change{Key: key, Removed: true})
	return nil
}

// Keys lists stored keys in sorted order.
func (m *MemoryStore) Keys() ([]string, error) {
	m.area.mu.Lock()
	defer m.area.mu.Unlock()
	keys := make([]string, 0, len(m.area.data))
	for k := range m.area.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close releases this handle's watchers.
func (m *MemoryStore) Close() error {
	m.area.mu.Lock()
	defer m.area.mu.Unlock()
	for _, ch := range m.area.watchers[m] {
		close(ch)
	}
	delete(m.area.watchers, m)
	return nil
}

// Watch reports writes made through sibling handles until ctx is done.
// Slow readers miss changes once the channel buffer is full.
func (m *MemoryStore) Watch(ctx context.Context) (<-chan Change, error) {
	ch := make(chan Change, 64)
	m.area.mu.Lock()
	m.area.watchers[m] = append(m.area.watchers[m], ch)
	m.area.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.area.mu.Lock()
		defer m.area.mu.Unlock()
		list := m.area.watchers[m]
		for i, c := range list {
			if c == ch {
				m.area.watchers[m] = append(list[:i], list[i+1:]...)
				close(ch)
				break
			}
		}
	}()
	return ch, nil
}

func (m *MemoryStore) broadcastLocked(c Change) {
	for owner, chans := range m.area.watchers {
		if owner == m {
			continue
		}
		for _, ch := range chans {
			select {
			case ch <- c:
			default:
			}
		}
	}
}
