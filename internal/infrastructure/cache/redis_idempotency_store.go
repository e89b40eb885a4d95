package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/Vendas-api/internal/application/fiscal"
)

// pendingValue marca una clave reservada que aún no tiene documento.
const pendingValue = "-"

// RedisIdempotencyStore Idempotency-Key compartida entre instancias.
type RedisIdempotencyStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

var _ fiscal.IdempotencyStore = (*RedisIdempotencyStore)(nil)

// NewRedisIdempotencyStore crea el store; ttl <= 0 usa 24h.
func NewRedisIdempotencyStore(client redis.UniversalClient, ttl time.Duration) *RedisIdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisIdempotencyStore{client: client, ttl: ttl}
}

func (s *RedisIdempotencyStore) key(k string) string {
	return keyPrefix + "idempotency:" + k
}

// Claim reserva la clave con SETNX. Si ya existía devuelve el documento
// asociado, o "" si la primera llamada sigue en curso.
func (s *RedisIdempotencyStore) Claim(ctx context.Context, key string) (string, bool, error) {
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := s.client.SetNX(ctx, s.key(key), pendingValue, s.ttl).Result()
		if err != nil {
			return "", false, fmt.Errorf("cache: reservar %s: %w", key, err)
		}
		if ok {
			return "", true, nil
		}
		val, err := s.client.Get(ctx, s.key(key)).Result()
		if errors.Is(err, redis.Nil) {
			// venció entre SETNX y GET
			continue
		}
		if err != nil {
			return "", false, fmt.Errorf("cache: leer %s: %w", key, err)
		}
		if val == pendingValue {
			return "", false, nil
		}
		return val, false, nil
	}
	return "", false, fmt.Errorf("cache: no se pudo reservar %s", key)
}

// Bind asocia el documento a la clave y renueva el TTL.
func (s *RedisIdempotencyStore) Bind(ctx context.Context, key, documentID string) error {
	if err := s.client.Set(ctx, s.key(key), documentID, s.ttl).Err(); err != nil {
		return fmt.Errorf("cache: asociar %s: %w", key, err)
	}
	return nil
}

// Release borra una reserva que no llegó a crear documento.
func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("cache: liberar %s: %w", key, err)
	}
	return nil
}
