package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/prateekraiger/buildmeCV/internal/database"
)

// ErrNotFound is returned by a Persister when the key holds nothing.
var ErrNotFound = errors.New("store: key not found")

// Persister 是简历快照的唯一持久化出口，只有 Store 会调用它。
type Persister interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// MemoryPersister keeps envelopes in process memory.
type MemoryPersister struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryPersister returns an empty in-memory persister.
func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{data: map[string][]byte{}}
}

func (m *MemoryPersister) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), b...), nil
}

func (m *MemoryPersister) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryPersister) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

type redisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisPersister 把快照写入 Redis 字符串键；ttl 为 0 表示永不过期，每次保存都会刷新过期时间。
type RedisPersister struct {
	client redisKV
	ttl    time.Duration
}

// NewRedisPersister wraps a go-redis client.
func NewRedisPersister(client redisKV, ttl time.Duration) *RedisPersister {
	return &RedisPersister{client: client, ttl: ttl}
}

func (r *RedisPersister) Load(ctx context.Context, key string) ([]byte, error) {
	b, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return b, nil
}

func (r *RedisPersister) Save(ctx context.Context, key string, data []byte) error {
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *RedisPersister) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// GormPersister 把快照写入 documents 表，按 key 做 upsert。
type GormPersister struct {
	db *gorm.DB
}

// NewGormPersister expects the documents table to be migrated.
func NewGormPersister(db *gorm.DB) *GormPersister {
	return &GormPersister{db: db}
}

func (g *GormPersister) Load(ctx context.Context, key string) ([]byte, error) {
	var doc database.Document
	err := g.db.WithContext(ctx).Where(map[string]any{"key": key}).Take(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query document %s: %w", key, err)
	}
	return []byte(doc.Payload), nil
}

func (g *GormPersister) Save(ctx context.Context, key string, data []byte) error {
	doc := database.Document{Key: key, Payload: data}
	err := g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&doc).Error
	if err != nil {
		return fmt.Errorf("upsert document %s: %w", key, err)
	}
	return nil
}

func (g *GormPersister) Delete(ctx context.Context, key string) error {
	if err := g.db.WithContext(ctx).Where(map[string]any{"key": key}).Delete(&database.Document{}).Error; err != nil {
		return fmt.Errorf("delete document %s: %w", key, err)
	}
	return nil
}
