package storage

// Guard is a scoped exclusive-access handle over a store's document. While a
// guard is held no other guard over the same store may proceed. Callers must
// not retain the document pointer past Release.
type Guard[T any] struct {
	store    *Store[T]
	persist  bool
	released bool
}

// Acquire blocks until the store's lock is free and returns a writable guard.
// Releasing it persists the document unless the serialized content is
// unchanged.
func (s *Store[T]) Acquire() *Guard[T] {
	s.mu.Lock()
	return &Guard[T]{store: s, persist: true}
}

// AcquireRead blocks until the store's lock is free and returns a guard whose
// release never writes to disk. Read paths use this to avoid paying a write
// cost on every request.
func (s *Store[T]) AcquireRead() *Guard[T] {
	s.mu.Lock()
	return &Guard[T]{store: s}
}

// Doc returns the live mutable document. Mutations are visible to all later
// guards immediately; persistence happens on Release or Save.
func (g *Guard[T]) Doc() *T {
	return &g.store.value
}

// Save persists the document mid-scope using the lock this guard already
// holds. Use it when a caller wants to flush before doing further work inside
// the same scope.
func (g *Guard[T]) Save() error {
	if g.released {
		return nil
	}
	return g.store.persistLocked()
}

// Release persists the document when the guard is writable, then unlocks the
// store. A persist failure is returned after the lock has been released so a
// failing disk never wedges the store. Release is idempotent.
func (g *Guard[T]) Release() error {
	if g.released {
		return nil
	}
	g.released = true

	var err error
	if g.persist {
		err = g.store.persistLocked()
	}
	g.store.mu.Unlock()
	return err
}
