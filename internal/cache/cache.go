// Package cache holds rendered views between requests and drops them when
// the underlying data changes.
package cache

import "sync"

// Invalidator marks a user's cached views stale after a successful mutation.
type Invalidator interface {
	Invalidate(userID string)
}

// Noop is an Invalidator that does nothing.
type Noop struct{}

func (Noop) Invalidate(string) {}

type userViews[V any] struct {
	generation uint64
	views      map[string]V
}

// ViewCache stores one value per (user, key). Every Invalidate bumps the
// user's generation; Set with an older generation is dropped, so a read that
// raced a mutation cannot repopulate stale data. Cached values are shared
// between readers and must not be mutated.
//
// The cache is process local. Writes made through another instance never
// invalidate it, so it must only be enabled for single-instance deployments.
// A nil *ViewCache is valid and caches nothing.
type ViewCache[V any] struct {
	mu    sync.RWMutex
	users map[string]*userViews[V]
}

// NewViewCache creates an empty ViewCache.
func NewViewCache[V any]() *ViewCache[V] {
	return &ViewCache[V]{
		users: make(map[string]*userViews[V]),
	}
}

// Get returns the cached value for the user and key along with the user's
// current generation, to be passed back to Set after a miss.
func (c *ViewCache[V]) Get(userID, key string) (V, uint64, bool) {
	var zero V
	if c == nil {
		return zero, 0, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	u, ok := c.users[userID]
	if !ok {
		return zero, 0, false
	}
	v, ok := u.views[key]
	return v, u.generation, ok
}

// Set stores a value unless the user was invalidated after generation was read.
func (c *ViewCache[V]) Set(userID, key string, generation uint64, v V) bool {
	if c == nil {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	u, ok := c.users[userID]
	if !ok {
		u = &userViews[V]{views: make(map[string]V)}
		c.users[userID] = u
	}
	if u.generation != generation {
		return false
	}
	u.views[key] = v
	return true
}

// Invalidate drops every cached value of the user.
func (c *ViewCache[V]) Invalidate(userID string) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	u, ok := c.users[userID]
	if !ok {
		u = &userViews[V]{}
		c.users[userID] = u
	}
	u.generation++
	u.views = make(map[string]V)
}
