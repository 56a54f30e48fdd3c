// Package registry tracks live WebSocket connections and their session
// metadata. Removal here never cascades into party state; that is the
// lifecycle manager's job on disconnect.
package registry

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/psds-microservice/watchparty-service/pkg/model"
)

// ConnectionRegistry is an in-memory table of open connections keyed by
// connection id.
type ConnectionRegistry struct {
	mu    sync.RWMutex
	conns map[string]*model.Connection
}

// New creates an empty registry.
func New() *ConnectionRegistry {
	return &ConnectionRegistry{conns: make(map[string]*model.Connection)}
}

// Register allocates an identity for a freshly opened transport.
func (r *ConnectionRegistry) Register() *model.Connection {
	now := time.Now().UTC()
	conn := &model.Connection{
		ID:             uuid.New().String(),
		ConnectedAt:    now,
		LastLivenessAt: now,
	}
	r.mu.Lock()
	r.conns[conn.ID] = conn
	r.mu.Unlock()
	return conn
}

// Lookup returns a copy of the connection state, or false if unknown.
// Callers get a value, not the live record; mutation goes through Update.
func (r *ConnectionRegistry) Lookup(id string) (model.Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[id]
	if !ok {
		return model.Connection{}, false
	}
	return *conn, true
}

// Update applies the mutator to the connection under the registry lock.
// Returns false if the connection is unknown.
func (r *ConnectionRegistry) Update(id string, fn func(*model.Connection)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.conns[id]
	if !ok {
		return false
	}
	fn(conn)
	return true
}

// Touch records liveness evidence (pong or application heartbeat).
func (r *ConnectionRegistry) Touch(id string) bool {
	return r.Update(id, func(c *model.Connection) {
		c.LastLivenessAt = time.Now().UTC()
	})
}

// Remove drops the connection record. No party cascade happens here.
func (r *ConnectionRegistry) Remove(id string) {
	r.mu.Lock()
	delete(r.conns, id)
	r.mu.Unlock()
}

// Count returns the number of live connections.
func (r *ConnectionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
