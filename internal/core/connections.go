package core

import "sync"

// ConnectionRegistry tracks every live connection process-wide, independent
// of classroom membership, and enforces the global connection ceiling.
type ConnectionRegistry struct {
	mu      sync.RWMutex
	max     int
	clients map[string]*Client
}

// NewConnectionRegistry builds a registry with the given ceiling. Zero or
// negative means unlimited.
func NewConnectionRegistry(max int) *ConnectionRegistry {
	return &ConnectionRegistry{
		max:     max,
		clients: make(map[string]*Client),
	}
}

// Admit registers the client unless the ceiling is reached, in which case
// ErrServerFull is returned and the registry is left unchanged.
func (r *ConnectionRegistry) Admit(client *Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.max > 0 && len(r.clients) >= r.max {
		return ErrServerFull
	}
	r.clients[client.ID] = client
	return nil
}

// Remove deletes the client by id. Removing an absent id is a no-op so a
// double disconnect race cannot fail.
func (r *ConnectionRegistry) Remove(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, clientID)
}

// Count returns the number of admitted connections.
func (r *ConnectionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
