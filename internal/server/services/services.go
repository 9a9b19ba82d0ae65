// Package services contains server-side business logic: user accounts,
// principal resolution and the owner-scoped list and item operations.
//
// Every operation runs as one unit of work through a dbx.Transactor, with
// repositories bound to the transaction by a repomanager.RepositoryManager.
package services

import (
	"time"

	"github.com/dmitrijs2005/gophtodo/internal/dbx"
	"github.com/dmitrijs2005/gophtodo/internal/server/repositories/repomanager"
)

// Option configures a service.
type Option func(*store)

// WithClock replaces the time source used for created/modified timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *store) { s.now = now }
}

// store bundles the collaborators every service needs.
type store struct {
	tx    dbx.Transactor
	repos repomanager.RepositoryManager
	now   func() time.Time
}

func newStore(tx dbx.Transactor, repos repomanager.RepositoryManager, opts []Option) store {
	s := store{tx: tx, repos: repos, now: time.Now}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// timestamp returns the current time in UTC at the precision PostgreSQL
// stores.
func (s store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}
