package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemoryDocuments is an in-memory implementation of Documents. It counts
// creates and updates so tests can observe remote writes. Safe for
// concurrent use.
type MemoryDocuments struct {
	mu      sync.RWMutex
	order   []string          // ids in creation order
	names   map[string]string // id -> name
	content map[string][]byte // id -> body
	creates int
	updates int
	nextID  int
}

var _ Documents = (*MemoryDocuments)(nil)

// NewMemoryDocuments creates an empty MemoryDocuments.
func NewMemoryDocuments() *MemoryDocuments {
	return &MemoryDocuments{
		names:   make(map[string]string),
		content: make(map[string][]byte),
	}
}

func (m *MemoryDocuments) FindByName(_ context.Context, name string) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Document
	for _, id := range m.order {
		if m.names[id] == name {
			out = append(out, Document{ID: id, Name: name})
		}
	}
	return out, nil
}

func (m *MemoryDocuments) Create(_ context.Context, name string, body []byte) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := fmt.Sprintf("doc-%d", m.nextID)
	m.order = append(m.order, id)
	m.names[id] = name
	m.content[id] = append([]byte(nil), body...)
	m.creates++
	return Document{ID: id, Name: name}, nil
}

func (m *MemoryDocuments) Read(_ context.Context, id string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	body, ok := m.content[id]
	if !ok {
		return nil, fmt.Errorf("document not found: %s", id)
	}
	return append([]byte(nil), body...), nil
}

func (m *MemoryDocuments) Update(_ context.Context, id, name string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.content[id]; !ok {
		return fmt.Errorf("document not found: %s", id)
	}
	m.names[id] = name
	m.content[id] = append([]byte(nil), body...)
	m.updates++
	return nil
}

// Put stores body under id directly, bypassing Create. Tests use it to seed
// pre-existing or corrupt documents.
func (m *MemoryDocuments) Put(id, name string, body []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.content[id]; !ok {
		m.order = append(m.order, id)
	}
	m.names[id] = name
	m.content[id] = append([]byte(nil), body...)
}

// Creates returns how many documents were created through Create.
func (m *MemoryDocuments) Creates() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creates
}

// Updates returns how many times Update succeeded.
func (m *MemoryDocuments) Updates() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.updates
}
