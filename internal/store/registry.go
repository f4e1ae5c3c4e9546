package store

import (
	"context"
	"log/slog"
	"sync"
)

// Registry 按会话缓存已打开的 Store，服务进程内每个会话只有一个实例。
type Registry struct {
	mu        sync.Mutex
	persister Persister
	logger    *slog.Logger
	stores    map[string]*Store
	onOpen    []func(sessionID string, s *Store)
}

// NewRegistry creates a registry backed by p.
func NewRegistry(p Persister, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		persister: p,
		logger:    logger,
		stores:    map[string]*Store{},
	}
}

// OnOpen registers a hook invoked once for every newly opened store, before
// it is handed to any caller.
func (r *Registry) OnOpen(fn func(sessionID string, s *Store)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onOpen = append(r.onOpen, fn)
}

// Get returns the session's store, opening it on first use.
func (r *Registry) Get(ctx context.Context, sessionID string) (*Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.stores[sessionID]; ok {
		return s, nil
	}
	s, err := Open(ctx, r.persister, SessionKey(sessionID), r.logger.With(slog.String("session_id", sessionID)))
	if err != nil {
		return nil, err
	}
	for _, fn := range r.onOpen {
		fn(sessionID, s)
	}
	r.stores[sessionID] = s
	return s, nil
}

// Lookup returns an already opened store without touching the persister.
func (r *Registry) Lookup(sessionID string) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stores[sessionID]
	return s, ok
}

// Evict closes and forgets the session's store. The persisted snapshot stays.
func (r *Registry) Evict(sessionID string) {
	r.mu.Lock()
	s, ok := r.stores[sessionID]
	delete(r.stores, sessionID)
	r.mu.Unlock()
	if ok {
		s.Close()
	}
}

// Close closes every open store.
func (r *Registry) Close() {
	r.mu.Lock()
	stores := r.stores
	r.stores = map[string]*Store{}
	r.mu.Unlock()
	for _, s := range stores {
		s.Close()
	}
}
