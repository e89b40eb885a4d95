package memory

import "sync"

// table mapa protegido que guarda y devuelve copias superficiales.
type table[T any] struct {
	mu   sync.RWMutex
	rows map[string]*T
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[string]*T)}
}

func (t *table[T]) put(id string, v *T) {
	c := *v
	t.mu.Lock()
	t.rows[id] = &c
	t.mu.Unlock()
}

func (t *table[T]) get(id string) *T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.rows[id]
	if !ok {
		return nil
	}
	c := *v
	return &c
}
