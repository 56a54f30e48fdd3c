package service

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Peer represents one WebSocket connection attached to the hub.
type Peer struct {
	ConnID string
	Conn   *websocket.Conn
	Send   chan []byte
}

// PartyHub owns the per-connection send channels and does the fan-out.
// It knows nothing about party membership; callers pass the member ids.
type PartyHub struct {
	mu    sync.RWMutex
	peers map[string]*Peer // connection id -> peer
	log   *zap.Logger
}

// NewPartyHub creates an empty hub.
func NewPartyHub(log *zap.Logger) *PartyHub {
	return &PartyHub{
		peers: make(map[string]*Peer),
		log:   log,
	}
}

// Register attaches a connection to the hub and returns the peer plus a
// cleanup function that detaches it and closes its send channel.
func (h *PartyHub) Register(connID string, conn *websocket.Conn) (*Peer, func()) {
	p := &Peer{
		ConnID: connID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
	}
	h.mu.Lock()
	h.peers[connID] = p
	h.mu.Unlock()

	h.log.Info("peer registered", zap.String("conn_id", connID))

	cleanup := func() {
		h.unregister(connID)
	}
	return p, cleanup
}

func (h *PartyHub) unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.peers[connID]
	if !ok {
		return
	}
	delete(h.peers, connID)
	close(p.Send)
	h.log.Info("peer unregistered", zap.String("conn_id", connID))
}

// Send delivers one frame to a single connection. Sends are non-blocking;
// a full buffer drops the frame (individual sends may fail independently).
func (h *PartyHub) Send(connID string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		h.log.Error("marshal frame", zap.Error(err))
		return
	}
	h.mu.RLock()
	p, ok := h.peers[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	h.push(p, data)
}

// SendTo fans one frame out to the given connection ids, skipping exclude.
// The frame is marshaled once.
func (h *PartyHub) SendTo(connIDs []string, v any, exclude string) {
	data, err := json.Marshal(v)
	if err != nil {
		h.log.Error("marshal frame", zap.Error(err))
		return
	}

	h.mu.RLock()
	peers := make([]*Peer, 0, len(connIDs))
	for _, id := range connIDs {
		if id == exclude {
			continue
		}
		if p, ok := h.peers[id]; ok {
			peers = append(peers, p)
		}
	}
	h.mu.RUnlock()

	for _, p := range peers {
		h.push(p, data)
	}
}

func (h *PartyHub) push(p *Peer, data []byte) {
	select {
	case p.Send <- data:
	default:
		h.log.Warn("send buffer full, dropping frame", zap.String("conn_id", p.ConnID))
	}
}

// PeerCount returns the number of attached peers (for debugging).
func (h *PartyHub) PeerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}
