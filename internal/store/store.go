// Package store provides the profile storage interface and SQLite implementation.
package store

import (
	"context"

	"github.com/xielang86/mindora-user/internal/model"
)

// Store maps a uid to its serialized profile.
type Store interface {
	// Get returns the profile stored for uid. A missing profile is reported
	// with ok == false and a nil error.
	Get(ctx context.Context, uid string) (p *model.UserProfile, ok bool, err error)

	// Put overwrites the record for p.UID. The write is durable when Put
	// returns.
	Put(ctx context.Context, p *model.UserProfile) error

	// Close flushes pending store state and closes the store.
	Close() error
}
