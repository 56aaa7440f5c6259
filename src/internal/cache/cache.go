package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/viper"
)

// ErrMiss is returned when a key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Cache interface defines caching operations
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
	Close() error
}

// RedisCache implements Cache interface using Redis
type RedisCache struct {
	client *redis.Client
}

// MemoryCache implements Cache interface using in-memory storage (fallback)
type MemoryCache struct {
	data map[string]cacheItem
	mu   sync.RWMutex
}

type cacheItem struct {
	value     string
	expiresAt time.Time
}

// Manager fronts Redis when configured and always keeps an in-memory
// fallback. All keys are namespaced with the configured prefix.
type Manager struct {
	primary   Cache
	fallback  Cache
	enabled   bool
	keyPrefix string
	ttl       time.Duration
}

// NewManager creates a new cache manager
func NewManager(cfg *viper.Viper) *Manager {
	manager := &Manager{
		enabled:   cfg.GetBool("cache.enabled"),
		keyPrefix: cfg.GetString("cache.key_prefix"),
		ttl:       cfg.GetDuration("cache.ttl"),
	}

	if manager.keyPrefix == "" {
		manager.keyPrefix = "cascontacts:"
	}
	if manager.ttl <= 0 {
		manager.ttl = 5 * time.Minute
	}

	// Try to connect to Redis
	if manager.enabled && cfg.GetBool("redis.enabled") {
		redisCache, err := NewRedisCache(cfg)
		if err == nil {
			manager.primary = redisCache
		}
	}

	// Always have memory cache as fallback
	manager.fallback = NewMemoryCache()

	return manager
}

// NewRedisCache creates a new Redis cache instance
func NewRedisCache(cfg *viper.Viper) (*RedisCache, error) {
	addr := cfg.GetString("redis.addr")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.GetString("redis.password"),
		DB:           cfg.GetInt("redis.db"),
		DialTimeout:  time.Second * 5,
		ReadTimeout:  time.Second * 3,
		WriteTimeout: time.Second * 3,
		PoolSize:     10,
		PoolTimeout:  time.Second * 4,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// NewMemoryCache creates a new in-memory cache instance
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		data: make(map[string]cacheItem),
	}
}

// Manager methods

func (m *Manager) key(key string) string {
	return m.keyPrefix + key
}

// Enabled reports whether reads and writes reach a backend.
func (m *Manager) Enabled() bool {
	return m != nil && m.enabled
}

// Backend names the active store, for health output.
func (m *Manager) Backend() string {
	switch {
	case !m.Enabled():
		return "disabled"
	case m.primary != nil:
		return "redis"
	default:
		return "memory"
	}
}

func (m *Manager) GetJSON(ctx context.Context, key string, dest interface{}) error {
	if !m.Enabled() {
		return ErrMiss
	}

	fullKey := m.key(key)
	var (
		value string
		err   = ErrMiss
	)
	if m.primary != nil {
		value, err = m.primary.Get(ctx, fullKey)
	}
	if err != nil {
		value, err = m.fallback.Get(ctx, fullKey)
		if err != nil {
			return err
		}
	}

	return json.Unmarshal([]byte(value), dest)
}

func (m *Manager) SetJSON(ctx context.Context, key string, value interface{}) error {
	if !m.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	fullKey := m.key(key)
	if m.primary != nil {
		if err := m.primary.Set(ctx, fullKey, string(data), m.ttl); err == nil {
			return nil
		}
	}
	return m.fallback.Set(ctx, fullKey, string(data), m.ttl)
}

func (m *Manager) Delete(ctx context.Context, keys ...string) error {
	if !m.Enabled() {
		return nil
	}

	fullKeys := make([]string, len(keys))
	for i, k := range keys {
		fullKeys[i] = m.key(k)
	}

	var primaryErr error
	if m.primary != nil {
		primaryErr = m.primary.Delete(ctx, fullKeys...)
	}
	return errors.Join(primaryErr, m.fallback.Delete(ctx, fullKeys...))
}

func (m *Manager) DeletePrefix(ctx context.Context, prefix string) error {
	if !m.Enabled() {
		return nil
	}

	var primaryErr error
	if m.primary != nil {
		primaryErr = m.primary.DeletePrefix(ctx, m.key(prefix))
	}
	return errors.Join(primaryErr, m.fallback.DeletePrefix(ctx, m.key(prefix)))
}

func (m *Manager) Close() error {
	if m.primary != nil {
		return m.primary.Close()
	}
	return nil
}

// RedisCache methods

func (rc *RedisCache) Get(ctx context.Context, key string) (string, error) {
	value, err := rc.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return value, err
}

func (rc *RedisCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return rc.client.Set(ctx, key, value, ttl).Err()
}

func (rc *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return rc.client.Del(ctx, keys...).Err()
}

func (rc *RedisCache) DeletePrefix(ctx context.Context, prefix string) error {
	iter := rc.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return rc.Delete(ctx, keys...)
}

func (rc *RedisCache) Close() error {
	return rc.client.Close()
}

// MemoryCache methods

func (mc *MemoryCache) Get(ctx context.Context, key string) (string, error) {
	mc.mu.RLock()
	item, ok := mc.data[key]
	mc.mu.RUnlock()

	if !ok {
		return "", ErrMiss
	}
	if !item.expiresAt.IsZero() && time.Now().After(item.expiresAt) {
		mc.mu.Lock()
		delete(mc.data, key)
		mc.mu.Unlock()
		return "", ErrMiss
	}
	return item.value, nil
}

func (mc *MemoryCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	item := cacheItem{value: value}
	if ttl > 0 {
		item.expiresAt = time.Now().Add(ttl)
	}

	mc.mu.Lock()
	mc.data[key] = item
	mc.mu.Unlock()
	return nil
}

func (mc *MemoryCache) Delete(ctx context.Context, keys ...string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	for _, k := range keys {
		delete(mc.data, k)
	}
	return nil
}

func (mc *MemoryCache) DeletePrefix(ctx context.Context, prefix string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	for k := range mc.data {
		if strings.HasPrefix(k, prefix) {
			delete(mc.data, k)
		}
	}
	return nil
}

func (mc *MemoryCache) Close() error {
	return nil
}

// Key helpers

func TagKey(accountID, tagID string) string {
	return fmt.Sprintf("account:%s:tag:%s", accountID, tagID)
}

func AccountTagsPrefix(accountID string) string {
	return fmt.Sprintf("account:%s:tag:", accountID)
}
