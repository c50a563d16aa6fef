package history

import (
	"context"
	"sync"
)

// InMemoryBackend keeps the serialized history in process memory for local/dev use.
type InMemoryBackend struct {
	mu   sync.RWMutex
	data []byte
}

func NewInMemoryBackend() *InMemoryBackend {
	return &InMemoryBackend{}
}

func (b *InMemoryBackend) Load(_ context.Context) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.data == nil {
		return nil, nil
	}
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out, nil
}

func (b *InMemoryBackend) Store(_ context.Context, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = make([]byte, len(data))
	copy(b.data, data)
	return nil
}

func (b *InMemoryBackend) Remove(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = nil
	return nil
}

func (b *InMemoryBackend) Mode() string { return "in-memory" }

func (b *InMemoryBackend) Close() error { return nil }
