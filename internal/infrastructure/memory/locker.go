// Package memory implementaciones en proceso de los puertos de persistencia y
// del bloqueo por pedido. El bloqueo se usa en producción cuando no hay Redis;
// los repositorios sirven para tests y ejecución local sin base de datos.
package memory

import (
	"context"
	"sync"
)

// OrderLocker mutex por clave. Las entradas se liberan cuando nadie las espera.
type OrderLocker struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	ch   chan struct{}
	refs int
}

// NewOrderLocker crea el locker.
func NewOrderLocker() *OrderLocker {
	return &OrderLocker{locks: make(map[string]*lockEntry)}
}

// Lock bloquea orderID hasta que se llame a unlock o se cancele ctx.
func (l *OrderLocker) Lock(ctx context.Context, orderID string) (func(), error) {
	l.mu.Lock()
	e, ok := l.locks[orderID]
	if !ok {
		e = &lockEntry{ch: make(chan struct{}, 1)}
		l.locks[orderID] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(orderID, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.release(orderID, e)
		})
	}, nil
}

func (l *OrderLocker) release(orderID string, e *lockEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, orderID)
	}
}
