// Package preview 为每个会话维护实时预览：订阅 Store，每次提交后同步重新渲染 HTML。
package preview

import (
	"bytes"
	"log/slog"
	"sync"

	"github.com/prateekraiger/buildmeCV/internal/metrics"
	"github.com/prateekraiger/buildmeCV/internal/resume"
	"github.com/prateekraiger/buildmeCV/internal/store"
	"github.com/prateekraiger/buildmeCV/internal/templates"
)

// Update is pushed to watchers after every re-render.
type Update struct {
	Type       string              `json:"type"`
	Version    uint64              `json:"version"`
	Template   resume.TemplateKey  `json:"template"`
	Completion int                 `json:"completion"`
	Sections   []resume.SectionKey `json:"sections"`
}

// UpdateType is the Update.Type of preview notifications.
const UpdateType = "preview"

// Surface holds the latest rendered preview of one store.
type Surface struct {
	registry *templates.Registry
	logger   *slog.Logger

	mu       sync.RWMutex
	html     []byte
	version  uint64
	last     Update
	err      error
	watchers map[int]chan Update
	nextID   int
	detach   func()
}

// Attach renders the store's current document and re-renders on every
// committed mutation, before that mutation returns to its caller.
func Attach(s *store.Store, registry *templates.Registry, logger *slog.Logger) *Surface {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Surface{
		registry: registry,
		logger:   logger,
		watchers: map[int]chan Update{},
	}
	doc, version, unsubscribe := s.Watch(p.apply)
	p.apply(doc, version)

	p.mu.Lock()
	p.detach = unsubscribe
	p.mu.Unlock()
	return p
}

// apply 渲染 doc；版本号不大于已渲染版本时忽略。
func (p *Surface) apply(doc resume.ResumeData, version uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.html != nil && version <= p.version {
		return
	}

	tpl := p.registry.Lookup(doc.Template)
	var buf bytes.Buffer
	keys, err := tpl.Screen.Page(&buf, tpl.Tree(doc))
	metrics.ObservePreview(err)
	if err != nil {
		// 保留上一版可用的预览
		p.err = err
		p.logger.Error("render preview failed",
			slog.Uint64("version", version),
			slog.Any("error", err),
		)
		return
	}

	p.html, p.version, p.err = buf.Bytes(), version, nil
	p.last = Update{
		Type:       UpdateType,
		Version:    version,
		Template:   tpl.Key,
		Completion: resume.Completion(doc),
		Sections:   keys,
	}
	for _, ch := range p.watchers {
		offer(ch, p.last)
	}
}

// offer delivers u, replacing a pending older update if the watcher lags.
func offer(ch chan Update, u Update) {
	select {
	case ch <- u:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- u:
	default:
	}
}

// HTML returns the latest full preview page and the store version it shows.
func (p *Surface) HTML() ([]byte, uint64) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.html, p.version
}

// Version returns the store version of the current preview.
func (p *Surface) Version() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.version
}

// Last returns the update describing the current preview.
func (p *Surface) Last() Update {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last
}

// Err returns the error of the most recent failed render, if the failure
// has not since been superseded by a successful one.
func (p *Surface) Err() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.err
}

// Watch returns a channel that always holds the newest pending update.
// The current state is delivered immediately. Call the returned function
// to stop watching; the channel is closed then.
func (p *Surface) Watch() (<-chan Update, func()) {
	ch := make(chan Update, 1)
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.watchers[id] = ch
	if p.html != nil {
		ch <- p.last
	}
	p.mu.Unlock()

	return ch, func() {
		p.mu.Lock()
		_, ok := p.watchers[id]
		delete(p.watchers, id)
		p.mu.Unlock()
		// Detach 可能已经关闭了它
		if ok {
			close(ch)
		}
	}
}

// Detach stops following the store and closes every watcher.
func (p *Surface) Detach() {
	p.mu.Lock()
	detach := p.detach
	p.detach = nil
	watchers := p.watchers
	p.watchers = map[int]chan Update{}
	p.mu.Unlock()

	if detach != nil {
		detach()
	}
	for _, ch := range watchers {
		close(ch)
	}
}
