package store

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// NewMemory returns a Persistence that lives only in memory. Watchers are
// told about every write.
func NewMemory() Persistence {
	return &persistence{b: &memoryBackend{data: make(map[string][]byte)}}
}

type memoryBackend struct {
	mu       sync.Mutex
	data     map[string][]byte
	watchers []chan Event
}

func (m *memoryBackend) read(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *memoryBackend) write(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := make([]byte, len(data))
	copy(v, data)
	m.data[key] = v
	m.notify(eventForKey(key))
	return nil
}

func (m *memoryBackend) erase(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		delete(m.data, key)
		m.notify(eventForKey(key))
	}
	return nil
}

func (m *memoryBackend) keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *memoryBackend) watch(ctx context.Context) (<-chan Event, error) {
	ch := make(chan Event, 64)
	m.mu.Lock()
	m.watchers = append(m.watchers, ch)
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, w := range m.watchers {
			if w == ch {
				m.watchers = append(m.watchers[:i], m.watchers[i+1:]...)
				break
			}
		}
		close(ch)
	}()
	return ch, nil
}

func (m *memoryBackend) close() error {
	return nil
}

// notify must be called with m.mu held.
func (m *memoryBackend) notify(ev Event) {
	for _, w := range m.watchers {
		select {
		case w <- ev:
		default:
		}
	}
}
