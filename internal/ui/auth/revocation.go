package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

// Prometheus-метрики отзыва токенов.
var (
	revocationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sc_session_revocations_total",
		Help: "Количество отозванных токенов сессий.",
	}, []string{"store"})
	revokedHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sc_session_revoked_hits_total",
		Help: "Количество запросов с уже отозванным токеном.",
	}, []string{"store"})
)

// RevocationStore — множество отозванных токенов (по SHA-256 отпечатку).
// Отозванный токен больше никогда не передаётся в API бота.
type RevocationStore interface {
	// Revoke помечает токен отозванным на ttl.
	// first == true только для вызова, который отозвал токен впервые.
	Revoke(ctx context.Context, token string, ttl time.Duration) (first bool, err error)
	// Revoked сообщает, отозван ли токен.
	Revoked(ctx context.Context, token string) (bool, error)
}

// MemoryRevocations — отзыв токенов в памяти процесса (LRU с TTL).
// Подходит для одной реплики консоли.
type MemoryRevocations struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, time.Time]
	now   func() time.Time
}

// NewMemoryRevocations создаёт хранилище на size записей.
// maxTTL — верхняя граница срока хранения записи.
func NewMemoryRevocations(size int, maxTTL time.Duration) *MemoryRevocations {
	if size <= 0 {
		size = 10000
	}
	return &MemoryRevocations{
		cache: expirable.NewLRU[string, time.Time](size, nil, maxTTL),
		now:   time.Now,
	}
}

// Revoke реализует RevocationStore.
func (m *MemoryRevocations) Revoke(_ context.Context, token string, ttl time.Duration) (bool, error) {
	key := Fingerprint(token)
	m.mu.Lock()
	defer m.mu.Unlock()

	if until, ok := m.cache.Peek(key); ok && m.now().Before(until) {
		return false, nil
	}
	m.cache.Add(key, m.now().Add(ttl))
	revocationsTotal.WithLabelValues("memory").Inc()
	return true, nil
}

// Revoked реализует RevocationStore.
func (m *MemoryRevocations) Revoked(_ context.Context, token string) (bool, error) {
	key := Fingerprint(token)
	m.mu.Lock()
	defer m.mu.Unlock()

	until, ok := m.cache.Get(key)
	if !ok {
		return false, nil
	}
	if !m.now().Before(until) {
		m.cache.Remove(key)
		return false, nil
	}
	revokedHitsTotal.WithLabelValues("memory").Inc()
	return true, nil
}

// Len возвращает число записей.
func (m *MemoryRevocations) Len() int {
	return m.cache.Len()
}

// redisKeyPrefix — префикс ключей отзыва в Redis.
const redisKeyPrefix = "sc:revoked:"

// RedisRevocations — отзыв токенов в Redis, общий для всех реплик консоли.
type RedisRevocations struct {
	client *redis.Client
}

// NewRedisRevocations создаёт хранилище поверх клиента Redis.
func NewRedisRevocations(client *redis.Client) *RedisRevocations {
	return &RedisRevocations{client: client}
}

// Revoke реализует RevocationStore через SET NX с TTL.
func (r *RedisRevocations) Revoke(ctx context.Context, token string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, redisKeyPrefix+Fingerprint(token), 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("отзыв токена в Redis: %w", err)
	}
	if ok {
		revocationsTotal.WithLabelValues("redis").Inc()
	}
	return ok, nil
}

// Revoked реализует RevocationStore.
func (r *RedisRevocations) Revoked(ctx context.Context, token string) (bool, error) {
	n, err := r.client.Exists(ctx, redisKeyPrefix+Fingerprint(token)).Result()
	if err != nil {
		return false, fmt.Errorf("проверка отзыва токена в Redis: %w", err)
	}
	if n > 0 {
		revokedHitsTotal.WithLabelValues("redis").Inc()
	}
	return n > 0, nil
}
