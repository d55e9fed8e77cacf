package cart

import (
	"context"
	"sync"

	"storefront/internal/model"
)

// Store persists carts keyed by session ID. Get returns an empty cart for an
// unknown session.
type Store interface {
	Get(ctx context.Context, sessionID string) (*model.Cart, error)
	Save(ctx context.Context, sessionID string, cart *model.Cart) error
	Clear(ctx context.Context, sessionID string) error
}

// MemoryStore keeps carts in process memory. Used when no Redis address is
// configured and in tests.
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[string][]model.CartLine
}

// NewMemoryStore creates an empty in-memory cart store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string][]model.CartLine)}
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (*model.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &model.Cart{Lines: copyLines(s.carts[sessionID])}, nil
}

func (s *MemoryStore) Save(_ context.Context, sessionID string, cart *model.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cart.IsEmpty() {
		delete(s.carts, sessionID)
		return nil
	}
	s.carts[sessionID] = copyLines(cart.Lines)
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, sessionID)
	return nil
}

func copyLines(lines []model.CartLine) []model.CartLine {
	if len(lines) == 0 {
		return nil
	}
	out := make([]model.CartLine, len(lines))
	for i, line := range lines {
		out[i] = line
		if line.VariantID != nil {
			id := *line.VariantID
			out[i].VariantID = &id
		}
	}
	return out
}
