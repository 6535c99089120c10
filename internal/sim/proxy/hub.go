package proxy

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/signalsfoundry/world-simulator/internal/logging"
	"github.com/signalsfoundry/world-simulator/internal/sim/actions"
	"github.com/signalsfoundry/world-simulator/model"
)

// Client is one connected player session.
type Client interface {
	ID() string
	// Send queues an action for delivery. It must not block on network I/O.
	Send(a actions.Action) error
}

type session struct {
	client Client
	hero   model.EntityID
}

// Hub routes actions to connected clients. Actions that concern specific
// entities only reach the clients controlling them; all others are
// broadcast. Hub is safe for concurrent use.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]session

	log logging.Logger
}

// NewHub returns a hub with no clients.
func NewHub(log logging.Logger) *Hub {
	if log == nil {
		log = logging.Noop()
	}
	return &Hub{sessions: make(map[string]session), log: log}
}

// Attach registers c as controlling hero, replacing any previous session
// with the same id.
func (h *Hub) Attach(c Client, hero model.EntityID) {
	h.mu.Lock()
	h.sessions[c.ID()] = session{client: c, hero: hero}
	h.mu.Unlock()
}

// Detach removes a session and returns the hero it controlled.
func (h *Hub) Detach(id string) (model.EntityID, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[id]
	if !ok {
		return 0, false
	}
	delete(h.sessions, id)
	return s.hero, true
}

// Hero returns the hero controlled by the session.
func (h *Hub) Hero(id string) (model.EntityID, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[id]
	return s.hero, ok
}

// Len returns the number of attached sessions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// SendAction delivers a to every interested client.
func (h *Hub) SendAction(a actions.Action) {
	recipients := actions.Recipients(a)
	for _, s := range h.snapshot() {
		if recipients != nil && !slices.Contains(recipients, s.hero) {
			continue
		}
		h.deliver(s.client, a)
	}
}

func (h *Hub) deliver(c Client, a actions.Action) {
	if err := c.Send(a); err != nil {
		h.log.Warn(context.Background(), "dropping action for client",
			logging.String("connection_id", c.ID()),
			logging.String("action", a.Kind()),
			logging.Err(err),
		)
	}
}

// snapshot copies the session table so sends happen without the lock, in a
// stable order.
func (h *Hub) snapshot() []session {
	h.mu.RLock()
	out := make([]session, 0, len(h.sessions))
	for _, s := range h.sessions {
		out = append(out, s)
	}
	h.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].client.ID() < out[j].client.ID() })
	return out
}
