package chunkstore

import (
	"context"
	"sync"
)

// MemoryBackend keeps payloads in process memory.
type MemoryBackend struct {
	mu      sync.Mutex
	headers map[string]Header
	chunks  map[string]map[int]Chunk
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		headers: map[string]Header{},
		chunks:  map[string]map[int]Chunk{},
	}
}

func (m *MemoryBackend) Purge(_ context.Context, fp string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.headers, fp)
	delete(m.chunks, fp)
	return nil
}

func (m *MemoryBackend) PutChunk(_ context.Context, fp string, c Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.chunks[fp] == nil {
		m.chunks[fp] = map[int]Chunk{}
	}
	m.chunks[fp][c.Index] = c
	return nil
}

func (m *MemoryBackend) PutHeader(_ context.Context, h Header) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.headers[h.Fingerprint] = h
	return nil
}

func (m *MemoryBackend) GetHeader(_ context.Context, fp string) (*Header, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.headers[fp]
	if !ok {
		return nil, ErrNotFound
	}
	return &h, nil
}

func (m *MemoryBackend) Chunks(_ context.Context, fp string) ([]Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Chunk, 0, len(m.chunks[fp]))
	for _, c := range m.chunks[fp] {
		out = append(out, c)
	}
	return out, nil
}

// DropChunk deletes one chunk, leaving the header in place.
func (m *MemoryBackend) DropChunk(fp string, index int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.chunks[fp], index)
}
