package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/Vendas-api/internal/application/sales"
	"github.com/jhoicas/Vendas-api/pkg/logger"
)

// unlockScript borra la clave solo si el token sigue siendo el nuestro.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

const (
	lockPollMin = 10 * time.Millisecond
	lockPollMax = 200 * time.Millisecond
)

// RedisOrderLocker bloqueo por pedido con SET NX PX. El TTL evita que un
// proceso caído deje el pedido bloqueado para siempre.
type RedisOrderLocker struct {
	client redis.UniversalClient
	ttl    time.Duration
	log    *logger.Logger
}

var _ sales.OrderLocker = (*RedisOrderLocker)(nil)

// NewRedisOrderLocker crea el locker; ttl <= 0 usa 60s.
func NewRedisOrderLocker(client redis.UniversalClient, ttl time.Duration, log *logger.Logger) *RedisOrderLocker {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &RedisOrderLocker{client: client, ttl: ttl, log: log.Component("cache.locker")}
}

// Lock espera el bloqueo de orderID hasta obtenerlo o hasta que se cancele ctx.
func (l *RedisOrderLocker) Lock(ctx context.Context, orderID string) (func(), error) {
	key := keyPrefix + "lock:order:" + orderID
	token := uuid.NewString()
	wait := lockPollMin
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("cache: bloquear pedido %s: %w", orderID, err)
		}
		if ok {
			break
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		if wait < lockPollMax {
			wait *= 2
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
			defer cancel()
			if err := unlockScript.Run(rctx, l.client, []string{key}, token).Err(); err != nil {
				l.log.Warn().Err(err).Str("order_id", orderID).Msg("no se pudo liberar el bloqueo")
			}
		})
	}, nil
}
