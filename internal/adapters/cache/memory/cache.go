// Package memory es un cache en memoria con TTL detrás de domain.Cache.
package memory

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

type Cache struct {
	c *gocache.Cache
}

// New devuelve un cache cuyas entradas vencen a los defaultTTL, salvo que Set
// indique otro valor.
func New(defaultTTL time.Duration) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	return &Cache{c: gocache.New(defaultTTL, 2*defaultTTL)}
}

func (m *Cache) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	v, ok := m.c.Get(key)
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	return s, ok, nil
}

func (m *Cache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	m.c.Set(key, value, ttl)
	return nil
}

func (m *Cache) Delete(ctx context.Context, key string) error {
	m.c.Delete(key)
	return nil
}
