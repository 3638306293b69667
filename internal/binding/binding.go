// Package binding glues an identity store to the connection manager: while
// the host runs, the session always tracks the logged-in user.
package binding

import (
	"context"
	"log/slog"

	"github.com/luminacrm/pulse/internal/identity"
)

// Binder is the manager surface the binding drives.
type Binder interface {
	Bind(id identity.Identity) error
	Unbind()
}

// HostBinding consumes identity updates and reconciles the session. Mounted
// once near the host root; Run blocks until the context is cancelled or the
// store closes.
type HostBinding struct {
	store   identity.Store
	manager Binder
	logger  *slog.Logger

	applied *identity.Identity
}

// New creates a host binding.
func New(store identity.Store, manager Binder, logger *slog.Logger) *HostBinding {
	if logger == nil {
		logger = slog.Default()
	}
	return &HostBinding{
		store:   store,
		manager: manager,
		logger:  logger,
	}
}

// Run applies the current identity, then follows updates. Unbind is
// guaranteed on every exit path, so no session outlives the binding.
func (b *HostBinding) Run(ctx context.Context) error {
	defer b.manager.Unbind()

	b.apply(b.store.Current())

	for {
		select {
		case <-ctx.Done():
			return nil

		case id, ok := <-b.store.Updates():
			if !ok {
				return nil
			}
			b.apply(id)
		}
	}
}

// apply reconciles one identity value. Comparison is by value so unrelated
// refreshes of the same user never bounce the connection.
func (b *HostBinding) apply(id *identity.Identity) {
	if id == nil || id.UserID == "" {
		if b.applied != nil {
			b.logger.Info("identity cleared, unbinding")
		}
		b.applied = nil
		b.manager.Unbind()
		return
	}

	if b.applied != nil && b.applied.Equal(*id) {
		return
	}

	if err := b.manager.Bind(*id); err != nil {
		b.logger.Error("binding identity", "user_id", id.UserID, "error", err)
		return
	}
	b.applied = id
}
