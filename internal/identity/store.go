package identity

// Store delivers the current identity and subsequent changes. A nil update
// means the user logged out and any active binding should be torn down.
type Store interface {
	// Current returns the identity known at call time, or nil when logged out.
	Current() *Identity

	// Updates returns a channel of identity changes. Implementations send the
	// new identity value, or nil on logout. The channel is closed when the
	// store is stopped.
	Updates() <-chan *Identity
}

// StaticStore holds a fixed identity that never changes. Useful for tools and
// tests that bind once and exit.
type StaticStore struct {
	id      *Identity
	updates chan *Identity
}

// NewStaticStore creates a store pinned to the given identity. Pass nil for a
// permanently logged-out store.
func NewStaticStore(id *Identity) *StaticStore {
	return &StaticStore{
		id:      id,
		updates: make(chan *Identity),
	}
}

// Current returns the fixed identity.
func (s *StaticStore) Current() *Identity {
	return s.id
}

// Updates returns a channel that never delivers; the identity is fixed.
func (s *StaticStore) Updates() <-chan *Identity {
	return s.updates
}
