package index

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/motivaitor/insight/internal/activity"
)

type docKey struct {
	owner activity.OwnerID
	id    string
}

// MemoryStore is a Store held in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[docKey]StoredDocument
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[docKey]StoredDocument)}
}

// UpsertDocument replaces the document under (owner, doc.ID). Concurrent
// writes to the same key resolve last-write-wins.
func (m *MemoryStore) UpsertDocument(_ context.Context, owner activity.OwnerID, doc Document, embedding []float64, model string) error {
	if !owner.Valid() {
		return activity.ErrEmptyOwner
	}
	doc.OwnerID = owner
	stored := StoredDocument{
		Document:  doc,
		Embedding: append([]float64(nil), embedding...),
		Model:     model,
		UpdatedAt: time.Now(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[docKey{owner, doc.ID}] = stored
	return nil
}

// OwnerDocuments returns the owner's documents sorted by id.
func (m *MemoryStore) OwnerDocuments(_ context.Context, owner activity.OwnerID) ([]StoredDocument, error) {
	if !owner.Valid() {
		return nil, activity.ErrEmptyOwner
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []StoredDocument
	for k, d := range m.docs {
		if k.owner == owner {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Len returns the number of stored documents across all owners.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}
