package memory

import (
	"context"
	"sync"
	"time"
)

type idemEntry struct {
	documentID string
	expiresAt  time.Time
}

// IdempotencyStore Idempotency-Key en proceso, para despliegues de un solo nodo.
// Las entradas vencidas se reemplazan al reclamarlas de nuevo.
type IdempotencyStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]idemEntry
	now     func() time.Time
}

// NewIdempotencyStore crea el store; ttl <= 0 usa 24h.
func NewIdempotencyStore(ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{ttl: ttl, entries: make(map[string]idemEntry), now: time.Now}
}

// Claim reserva la clave. Si ya existe devuelve el documento asociado.
func (s *IdempotencyStore) Claim(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok && s.now().Before(e.expiresAt) {
		return e.documentID, false, nil
	}
	s.entries[key] = idemEntry{expiresAt: s.now().Add(s.ttl)}
	return "", true, nil
}

// Bind asocia el documento creado a la clave reservada.
func (s *IdempotencyStore) Bind(_ context.Context, key, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = idemEntry{documentID: documentID, expiresAt: s.now().Add(s.ttl)}
	return nil
}

// Release libera una clave reservada que no llegó a crear documento.
func (s *IdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}
