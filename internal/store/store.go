package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prateekraiger/buildmeCV/internal/resume"
)

// StorageKey 是简历快照的固定存储键，会话键在其后追加 ":<session>"。
const StorageKey = "buildmecv-resume-storage"

// SessionKey returns the storage key of one session.
func SessionKey(sessionID string) string {
	if sessionID == "" {
		return StorageKey
	}
	return StorageKey + ":" + sessionID
}

var (
	ErrUnknownField     = errors.New("unknown field")
	ErrInvalidValue     = errors.New("invalid value")
	ErrUnknownSection   = errors.New("unknown section")
	ErrItemNotFound     = errors.New("item not found")
	ErrInvalidDirection = errors.New("invalid direction")
	ErrClosed           = errors.New("store closed")
)

// Direction moves a section within sectionOrder.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Listener receives every committed snapshot together with its version.
// Listeners run synchronously while the store is locked and must not call
// back into the Store.
type Listener func(doc resume.ResumeData, version uint64)

type envelope struct {
	Resume  json.RawMessage `json:"resume"`
	Version uint64          `json:"version"`
	SavedAt time.Time       `json:"savedAt"`
}

// Store 持有一个会话的简历文档。所有变更串行执行，并在返回前写入 Persister，
// 因此持久化顺序与变更顺序一致。
type Store struct {
	mu        sync.Mutex
	key       string
	persister Persister
	logger    *slog.Logger
	now       func() time.Time

	doc       resume.ResumeData
	version   uint64
	listeners map[int]Listener
	nextSub   int
	closed    bool
}

// Open 从 persister 加载 key 对应的快照。键不存在、内容无法解析或结构无效时
// 静默回退到默认文档（仅记录 warn 日志）；只有后端 I/O 错误才会返回。
func Open(ctx context.Context, p Persister, key string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		key:       key,
		persister: p,
		logger:    logger,
		now:       time.Now,
		listeners: map[int]Listener{},
	}

	raw, err := p.Load(ctx, key)
	switch {
	case errors.Is(err, ErrNotFound):
		s.doc = resume.Default()
	case err != nil:
		return nil, fmt.Errorf("load resume %s: %w", key, err)
	default:
		doc, version, decodeErr := decodeEnvelope(raw)
		if decodeErr != nil {
			logger.Warn("stored resume unreadable, falling back to default",
				slog.String("key", key),
				slog.Any("error", decodeErr),
			)
			doc, version = resume.Default(), 0
		}
		s.doc, s.version = doc, version
	}
	return s, nil
}

func decodeEnvelope(raw []byte) (resume.ResumeData, uint64, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return resume.ResumeData{}, 0, fmt.Errorf("decode envelope: %w", err)
	}
	if len(env.Resume) == 0 || string(env.Resume) == "null" {
		return resume.ResumeData{}, 0, errors.New("envelope has no resume")
	}
	var doc resume.ResumeData
	if err := json.Unmarshal(env.Resume, &doc); err != nil {
		return resume.ResumeData{}, 0, fmt.Errorf("decode resume: %w", err)
	}
	return resume.Normalize(doc), env.Version, nil
}

// Key returns the storage key the store persists under.
func (s *Store) Key() string { return s.key }

// Snapshot returns an independent copy of the current document.
func (s *Store) Snapshot() resume.ResumeData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// Version 每次成功变更递增一次。
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Completion returns the completion percentage of the current document.
func (s *Store) Completion() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return resume.Completion(s.doc)
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unsubscriber(s.addListenerLocked(fn))
}

func (s *Store) addListenerLocked(fn Listener) int {
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	return id
}

func (s *Store) unsubscriber(id int) func() {
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// Watch 原子地返回当前快照与版本并注册 fn，之后的每次提交都会通知 fn。
func (s *Store) Watch(fn Listener) (resume.ResumeData, uint64, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.addListenerLocked(fn)
	return s.doc.Clone(), s.version, s.unsubscriber(id)
}

// Close detaches every listener; later mutations fail with ErrClosed.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.listeners = map[int]Listener{}
}

// SetResume replaces the whole document.
func (s *Store) SetResume(ctx context.Context, doc resume.ResumeData) error {
	return s.mutate(ctx, func(d *resume.ResumeData) error {
		*d = doc.Clone()
		return nil
	})
}

// Reset restores the built-in default document.
func (s *Store) Reset(ctx context.Context) error {
	return s.mutate(ctx, func(d *resume.ResumeData) error {
		*d = resume.Default()
		return nil
	})
}

// SetTemplate switches the active template.
func (s *Store) SetTemplate(ctx context.Context, key resume.TemplateKey) error {
	if !resume.ValidTemplate(key) {
		return fmt.Errorf("%w: template %q", ErrInvalidValue, key)
	}
	return s.mutate(ctx, func(d *resume.ResumeData) error {
		d.Template = key
		return nil
	})
}

// SetAccentColor sets the theme color; only #rgb and #rrggbb are accepted.
func (s *Store) SetAccentColor(ctx context.Context, color string) error {
	if !resume.ValidAccentColor(color) {
		return fmt.Errorf("%w: accent color %q", ErrInvalidValue, color)
	}
	return s.mutate(ctx, func(d *resume.ResumeData) error {
		d.AccentColor = color
		return nil
	})
}

// MoveSection swaps key with its neighbor. At either boundary it is a no-op
// and no new version is committed.
func (s *Store) MoveSection(ctx context.Context, key resume.SectionKey, dir Direction) error {
	if dir != Up && dir != Down {
		return fmt.Errorf("%w: %q", ErrInvalidDirection, dir)
	}
	if !key.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownSection, key)
	}
	return s.mutate(ctx, func(d *resume.ResumeData) error {
		idx := -1
		for i, k := range d.SectionOrder {
			if k == key {
				idx = i
				break
			}
		}
		target := idx - 1
		if dir == Down {
			target = idx + 1
		}
		if idx < 0 || target < 0 || target >= len(d.SectionOrder) {
			return errNoChange
		}
		d.SectionOrder[idx], d.SectionOrder[target] = d.SectionOrder[target], d.SectionOrder[idx]
		return nil
	})
}

// errNoChange aborts a mutation without committing or reporting an error.
var errNoChange = errors.New("no change")

// mutate 在锁内对文档副本执行 fn，规范化后提交、持久化并通知订阅者。
// fn 返回错误时文档保持不变。
func (s *Store) mutate(ctx context.Context, fn func(d *resume.ResumeData) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	next := s.doc.Clone()
	if err := fn(&next); err != nil {
		if errors.Is(err, errNoChange) {
			return nil
		}
		return err
	}
	s.doc = resume.Normalize(next)
	s.version++
	s.persistLocked(ctx)

	snapshot := s.doc.Clone()
	for _, l := range s.listeners {
		l(snapshot, s.version)
	}
	return nil
}

func (s *Store) persistLocked(ctx context.Context) {
	doc, err := json.Marshal(s.doc)
	if err == nil {
		var data []byte
		data, err = json.Marshal(envelope{Resume: doc, Version: s.version, SavedAt: s.now().UTC()})
		if err == nil {
			err = s.persister.Save(ctx, s.key, data)
		}
	}
	if err != nil {
		s.logger.Error("persist resume failed",
			slog.String("key", s.key),
			slog.Uint64("version", s.version),
			slog.Any("error", err),
		)
	}
}
