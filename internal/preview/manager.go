package preview

import (
	"log/slog"
	"sync"

	"github.com/prateekraiger/buildmeCV/internal/store"
	"github.com/prateekraiger/buildmeCV/internal/templates"
)

// Manager 按会话保存预览面板，通常作为 store.Registry 的 OnOpen 钩子挂载。
type Manager struct {
	registry *templates.Registry
	logger   *slog.Logger

	mu       sync.RWMutex
	surfaces map[string]*Surface
}

// NewManager creates an empty manager.
func NewManager(registry *templates.Registry, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{registry: registry, logger: logger, surfaces: map[string]*Surface{}}
}

// Attach creates the session's surface, replacing any previous one.
func (m *Manager) Attach(sessionID string, s *store.Store) {
	surface := Attach(s, m.registry, m.logger.With(slog.String("session_id", sessionID)))
	m.mu.Lock()
	old := m.surfaces[sessionID]
	m.surfaces[sessionID] = surface
	m.mu.Unlock()
	if old != nil {
		old.Detach()
	}
}

// Get returns the session's surface.
func (m *Manager) Get(sessionID string) (*Surface, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.surfaces[sessionID]
	return s, ok
}

// Detach removes the session's surface.
func (m *Manager) Detach(sessionID string) {
	m.mu.Lock()
	s := m.surfaces[sessionID]
	delete(m.surfaces, sessionID)
	m.mu.Unlock()
	if s != nil {
		s.Detach()
	}
}
