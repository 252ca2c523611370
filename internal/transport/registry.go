package transport

import (
	"sync"

	"github.com/worldforge-go/simcore/internal/eid"
	"github.com/worldforge-go/simcore/internal/op"
)

// Registry maps mind entity ids to their live session, the send-to-client
// boundary for whichever ops the router addresses to a mind (Sight,
// Appearance, Error replies, ...).
type Registry struct {
	mu       sync.RWMutex
	sessions map[eid.ID]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[eid.ID]*Session)}
}

// Bind associates mindID (controlling bodyID) with sess, replacing any
// prior binding.
func (r *Registry) Bind(mindID, bodyID eid.ID, sess *Session) {
	sess.BindMind(mindID)
	sess.BindBody(bodyID)
	r.mu.Lock()
	r.sessions[mindID] = sess
	r.mu.Unlock()
}

// Unbind removes mindID's session association, if any.
func (r *Registry) Unbind(mindID eid.ID) {
	r.mu.Lock()
	delete(r.sessions, mindID)
	r.mu.Unlock()
}

// SendToClient delivers o to mindID's session, if one is bound. Returns
// false if mindID has no live session (e.g. an NPC mind, or a client that
// has already disconnected) — callers should treat that as a no-op, not
// an error.
func (r *Registry) SendToClient(mindID eid.ID, o op.Op) bool {
	r.mu.RLock()
	sess, ok := r.sessions[mindID]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	sess.Send(o)
	return true
}
