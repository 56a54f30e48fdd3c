package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/psds-microservice/watchparty-service/internal/config"
	"github.com/psds-microservice/watchparty-service/internal/registry"
	"github.com/psds-microservice/watchparty-service/internal/service"
	"github.com/psds-microservice/watchparty-service/pkg/protocol"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

// PartyWSHandler handles the persistent party connection on /ws.
type PartyWSHandler struct {
	hub      *service.PartyHub
	reg      *registry.ConnectionRegistry
	mgr      *service.LifecycleManager
	relay    *service.EventRelay
	cfg      *config.Config
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewPartyWSHandler creates the WebSocket party handler.
func NewPartyWSHandler(hub *service.PartyHub, reg *registry.ConnectionRegistry, mgr *service.LifecycleManager, relay *service.EventRelay, cfg *config.Config, logger *zap.Logger) *PartyWSHandler {
	return &PartyWSHandler{
		hub:   hub,
		reg:   reg,
		mgr:   mgr,
		relay: relay,
		cfg:   cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.WSReadBufferSize,
			WriteBufferSize: cfg.WSWriteBufferSize,
			// Allow all origins for dev; in prod set CheckOrigin.
		},
		logger: logger,
	}
}

// ServeWS upgrades the request and runs the connection until it closes.
// The disconnect cascade (party leave, host election) runs on exit no
// matter how the transport went away.
func (h *PartyWSHandler) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	if h.cfg.WSMaxMessageSize > 0 {
		conn.SetReadLimit(h.cfg.WSMaxMessageSize)
	}

	client := h.reg.Register()
	peer, cleanup := h.hub.Register(client.ID, conn)

	conn.SetPongHandler(func(string) error {
		h.reg.Touch(client.ID)
		return nil
	})

	h.hub.Send(client.ID, protocol.NewConnected(client.ID))

	go h.writePump(peer)
	h.readPump(peer)

	h.mgr.Disconnect(client.ID)
	cleanup()
}

// readPump processes inbound frames one at a time, so messages from a
// single connection are handled in the order sent.
func (h *PartyWSHandler) readPump(p *service.Peer) {
	for {
		_, data, err := p.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.logger.Debug("read error", zap.String("conn_id", p.ConnID), zap.Error(err))
			}
			return
		}
		h.dispatch(p.ConnID, data)
	}
}

// writePump owns all writes on the connection: queued frames plus the
// periodic transport ping.
func (h *PartyWSHandler) writePump(p *service.Peer) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = p.Conn.Close()
	}()
	for {
		select {
		case data, ok := <-p.Send:
			_ = p.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = p.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := p.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = p.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dispatch routes one decoded message to its handler. Errors are answered
// with a non-fatal ERROR frame; the connection stays open. Malformed input
// from one connection never affects another.
func (h *PartyWSHandler) dispatch(connID string, data []byte) {
	msg, err := protocol.Decode(data)
	if err != nil {
		h.hub.Send(connID, protocol.NewError(err.Error()))
		return
	}

	switch m := msg.(type) {
	case protocol.CreateParty:
		if err := h.mgr.CreateParty(connID, m); err != nil {
			h.hub.Send(connID, protocol.NewError(err.Error()))
		}
	case protocol.JoinParty:
		if err := h.mgr.JoinParty(connID, m); err != nil {
			h.hub.Send(connID, protocol.NewError(err.Error()))
		}
	case protocol.LeaveParty:
		h.mgr.LeaveParty(connID)
	case protocol.PlayerEvent:
		h.relay.HandlePlayerEvent(connID, m.Event)
	case protocol.Chat:
		if err := h.relay.HandleChat(connID, m.Message); err != nil {
			h.hub.Send(connID, protocol.NewError(err.Error()))
		}
	case protocol.SyncRequest:
		h.relay.HandleSync(connID)
	case protocol.Heartbeat:
		h.relay.HandleHeartbeat(connID)
	}
}
