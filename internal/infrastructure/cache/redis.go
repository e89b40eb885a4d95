// Package cache implementa con Redis el bloqueo distribuido por pedido y la
// deduplicación de Idempotency-Key, para despliegues con varias instancias.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/Vendas-api/pkg/config"
)

// keyPrefix antepone el nombre del servicio a todas las claves.
const keyPrefix = "vendas:"

// NewClient conecta y verifica con PING.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache: conectar a Redis %s: %w", cfg.Addr, err)
	}
	return client, nil
}
