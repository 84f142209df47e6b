package session

import (
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/speech-steps/backend/internal/config"
	"github.com/speech-steps/backend/internal/media"
	"github.com/speech-steps/backend/internal/models"
)

// Manager tracks the live sessions of this process.
type Manager struct {
	deps Deps

	mu       sync.Mutex
	sessions map[string]*Orchestrator
}

func NewManager(deps Deps) *Manager {
	return &Manager{
		deps:     deps,
		sessions: make(map[string]*Orchestrator),
	}
}

func (m *Manager) Pipeline() *config.Pipeline {
	return m.deps.Pipeline
}

// Open starts a session for topic. The session is forgotten once it is done.
func (m *Manager) Open(topic *models.SessionTopic, out media.Presenter) (*Orchestrator, error) {
	o := New(uuid.NewString(), topic, out, m.deps)
	if err := o.Start(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[o.ID()] = o
	m.mu.Unlock()

	go func() {
		<-o.Done()
		m.mu.Lock()
		delete(m.sessions, o.ID())
		m.mu.Unlock()
	}()

	log.Printf("[session] %s: opened for %q (owner %d)", o.ID(), topic.Word(), topic.OwnerID)
	return o, nil
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Shutdown closes every live session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	live := make([]*Orchestrator, 0, len(m.sessions))
	for _, o := range m.sessions {
		live = append(live, o)
	}
	m.mu.Unlock()

	for _, o := range live {
		o.Close()
	}
}
