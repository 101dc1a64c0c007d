package storage

import (
	"context"
	"sync"

	"waitlist-api/pkg/models"
)

// MemoryStore is an in-memory Store, used by tests
type MemoryStore struct {
	mu          sync.Mutex
	submissions []models.Submission

	// LoadErr and SaveErr, when set, are returned instead of touching the data
	LoadErr error
	SaveErr error
	Saves   int
}

// NewMemoryStore creates a store holding a copy of seed
func NewMemoryStore(seed ...models.Submission) *MemoryStore {
	return &MemoryStore{submissions: cloneSubmissions(seed)}
}

func (m *MemoryStore) Load(_ context.Context) ([]models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	return cloneSubmissions(m.submissions), nil
}

func (m *MemoryStore) Save(_ context.Context, submissions []models.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.submissions = cloneSubmissions(submissions)
	m.Saves++
	return nil
}
