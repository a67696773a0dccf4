package study

import (
	"sync"

	"github.com/vytor/studyflash/internal/authority"
	"github.com/vytor/studyflash/internal/repository"
)

// Manager owns one Orchestrator per learner. Orchestrators live for the
// lifetime of the process; paused sessions survive restarts through the store.
type Manager struct {
	mu          sync.Mutex
	repo        repository.SessionRepository
	client      authority.ClientInterface
	levels      *LevelSync
	reviewBatch int
	learners    map[string]*Orchestrator
}

func NewManager(repo repository.SessionRepository, client authority.ClientInterface, levels *LevelSync, reviewBatch int) *Manager {
	return &Manager{
		repo:        repo,
		client:      client,
		levels:      levels,
		reviewBatch: reviewBatch,
		learners:    make(map[string]*Orchestrator),
	}
}

// For returns the learner's orchestrator, creating it on first use.
func (m *Manager) For(learnerID string) *Orchestrator {
	m.mu.Lock()
	defer m.mu.Unlock()

	if o, ok := m.learners[learnerID]; ok {
		return o
	}
	store := m.Store(learnerID)
	o := NewOrchestrator(
		NewLauncher(m.client, store, m.reviewBatch),
		m.levels,
		store,
		NewResumeResolver(store),
	)
	m.learners[learnerID] = o
	return o
}

// Store returns a session store scoped to the learner.
func (m *Manager) Store(learnerID string) *Store {
	return NewStore(m.repo, learnerID)
}

// Learners returns how many learners have an orchestrator in memory.
func (m *Manager) Learners() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.learners)
}
