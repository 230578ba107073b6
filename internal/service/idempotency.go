// idempotency.go — кэш результатов сохранения по Idempotency-Key.
// Обёртка над hashicorp/golang-lru/v2/expirable: повтор запроса с тем же
// ключом в пределах TTL возвращает ID первой записи без повторного Append.
package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var idempotencyHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "ip_idempotency_hits_total",
	Help: "Количество повторных запросов, обслуженных из кэша Idempotency-Key.",
})

// IdempotencyCache — per-instance кэш ключей идемпотентности.
// Ключ кэша — пара (операция, Idempotency-Key).
type IdempotencyCache struct {
	cache *expirable.LRU[string, string]
}

// NewIdempotencyCache создаёт кэш на maxSize ключей с временем жизни ttl.
func NewIdempotencyCache(maxSize int, ttl time.Duration) *IdempotencyCache {
	return &IdempotencyCache{
		cache: expirable.NewLRU[string, string](maxSize, nil, ttl),
	}
}

// Lookup возвращает ID записи, сохранённой ранее с тем же ключом.
func (c *IdempotencyCache) Lookup(op, key string) (string, bool) {
	id, ok := c.cache.Get(cacheKey(op, key))
	if ok {
		idempotencyHitsTotal.Inc()
	}
	return id, ok
}

// Remember запоминает ID записи для ключа.
func (c *IdempotencyCache) Remember(op, key, id string) {
	c.cache.Add(cacheKey(op, key), id)
}

// Forget удаляет ключи, указывающие на удалённую запись.
func (c *IdempotencyCache) Forget(id string) {
	for _, k := range c.cache.Keys() {
		if v, ok := c.cache.Peek(k); ok && v == id {
			c.cache.Remove(k)
		}
	}
}

// Len возвращает количество живых ключей.
func (c *IdempotencyCache) Len() int {
	return c.cache.Len()
}

func cacheKey(op, key string) string {
	return op + "\x00" + key
}
