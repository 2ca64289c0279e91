/*
Package chat contains the core logic of the realtime gateway.

This file defines the Registry, the process-local presence and membership state:
a bidirectional mapping between user ids and active connections, plus the set of
conversation/room keys each user has joined (used for cleanup on disconnect).
The Registry is owned by a Gateway instance and injected at construction, so
independent gateways (e.g., in tests) never share state. It is rebuilt from
empty on process restart and is not valid across multiple instances.
*/
package chat

import (
	"sort"
	"sync"
)

// Registry tracks which users are connected and what they have joined.
type Registry struct {
	// mu protects both maps.
	mu sync.RWMutex

	// clients maps userID to the single active connection for that user.
	// A later connection replaces the earlier entry (last-connect-wins).
	clients map[string]*Client

	// membership maps userID to the set of membership keys (see ConversationKey
	// and RoomKey) the user's connection has joined.
	membership map[string]map[string]struct{}
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		clients:    make(map[string]*Client),
		membership: make(map[string]map[string]struct{}),
	}
}

// Register stores the client as the active connection for its user and returns
// the connection it replaced, if any.
func (r *Registry) Register(c *Client) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	replaced := r.clients[c.user.ID]
	if replaced == c {
		replaced = nil
	}

	r.clients[c.user.ID] = c
	return replaced
}

// Unregister removes the client's presence entry and reports whether it was the
// current connection for its user. A stale connection (already replaced by a
// newer one) is ignored so it cannot tear down the replacement's state.
func (r *Registry) Unregister(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.clients[c.user.ID]
	if !ok || current != c {
		return false
	}

	delete(r.clients, c.user.ID)
	return true
}

// Get returns the active connection for the user, or nil if the user is offline.
func (r *Registry) Get(userID string) *Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.clients[userID]
}

// OnlineUserIDs returns the ids of all connected users, sorted for stable output.
func (r *Registry) OnlineUserIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.clients))
	for id := range r.clients {
		ids = append(ids, id)
	}

	sort.Strings(ids)
	return ids
}

// Clients returns a snapshot of all active connections.
func (r *Registry) Clients() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clients := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		clients = append(clients, c)
	}
	return clients
}

// Track records that the user's connection joined the given membership key.
func (r *Registry) Track(userID, key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys, ok := r.membership[userID]
	if !ok {
		keys = make(map[string]struct{})
		r.membership[userID] = keys
	}
	keys[key] = struct{}{}
}

// Untrack removes a single membership key for the user.
func (r *Registry) Untrack(userID, key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if keys, ok := r.membership[userID]; ok {
		delete(keys, key)
		if len(keys) == 0 {
			delete(r.membership, userID)
		}
	}
}

// MembershipKeys returns a snapshot of the keys the user's connection has joined.
func (r *Registry) MembershipKeys(userID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.membership[userID]))
	for key := range r.membership[userID] {
		keys = append(keys, key)
	}

	sort.Strings(keys)
	return keys
}

// ClearMembership drops the user's entire membership entry.
func (r *Registry) ClearMembership(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.membership, userID)
}
