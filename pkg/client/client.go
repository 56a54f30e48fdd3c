// Package client is the peer-side synchronization adapter: it maintains the
// party connection, reconciles received events against the embedded player
// through a message bridge, and reconnects with a fixed backoff after an
// abnormal close.
package client

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/psds-microservice/watchparty-service/pkg/model"
	"github.com/psds-microservice/watchparty-service/pkg/protocol"
	"go.uber.org/zap"
)

// State is the client session state.
//
// Disconnected -> Connecting -> Connected -> (Joined | Hosting)
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateJoined       State = "joined"
	StateHosting      State = "hosting"
)

const (
	defaultReconnectBackoff  = 3 * time.Second
	defaultHeartbeatInterval = 30 * time.Second
)

// Callbacks notify the embedding application. All fields are optional.
type Callbacks struct {
	OnStateChange       func(State)
	OnParty             func(model.PartySnapshot)
	OnParticipantJoined func(model.Participant)
	OnParticipantLeft   func(userID, displayName string)
	OnChat              func(model.ChatMessage)
	OnError             func(message string)
}

// Client maintains one persistent party connection.
type Client struct {
	url    string
	bridge PlayerBridge
	cb     Callbacks
	log    *zap.Logger
	dialer *websocket.Dialer

	backoff   time.Duration
	heartbeat time.Duration

	mu        sync.Mutex
	state     State
	conn      *websocket.Conn
	done      chan struct{} // closed when the current connection dies
	clientID  string
	partyID   string
	isHost    bool
	closed    bool        // intentional close, no reconnect
	reconnect *time.Timer // single pending reconnect timer

	writeMu sync.Mutex
}

// New creates a client for the given WebSocket URL. bridge may be nil when
// there is no embedded player to drive (chat-only participants).
func New(url string, bridge PlayerBridge, cb Callbacks, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Client{
		url:       url,
		bridge:    bridge,
		cb:        cb,
		log:       log,
		dialer:    websocket.DefaultDialer,
		backoff:   defaultReconnectBackoff,
		heartbeat: defaultHeartbeatInterval,
		state:     StateDisconnected,
	}
	if bridge != nil {
		go c.bridgeLoop()
	}
	return c
}

// State returns the current session state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ClientID returns the server-assigned connection id, empty before the
// connected frame arrives.
func (c *Client) ClientID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clientID
}

// PartyID returns the current party code, empty when not in a party.
func (c *Client) PartyID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.partyID
}

// Connect dials the server. On failure (and after any later abnormal close)
// a single reconnect attempt is scheduled after the backoff, unless Close
// was called.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	// A Connecting state means another Connect owns the dial; admitting a
	// second caller here would leak whichever connection loses the race.
	if c.conn != nil || c.state == StateConnecting {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.closed = false
	c.setStateLocked(StateConnecting)
	c.mu.Unlock()

	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		c.mu.Lock()
		c.setStateLocked(StateDisconnected)
		c.scheduleReconnectLocked()
		c.mu.Unlock()
		return err
	}

	done := make(chan struct{})
	c.mu.Lock()
	c.conn = conn
	c.done = done
	c.setStateLocked(StateConnected)
	c.mu.Unlock()

	go c.readLoop(conn, done)
	go c.heartbeatLoop(done)
	return nil
}

// Close tears the connection down intentionally. No reconnect follows.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	if c.reconnect != nil {
		c.reconnect.Stop()
		c.reconnect = nil
	}
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	c.writeMu.Lock()
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	return conn.Close()
}

// CreateParty asks the server for a new party with this client as host.
func (c *Client) CreateParty(displayName, contentID, contentType string, season, episode *int) error {
	return c.writeJSON(map[string]any{
		"type":        protocol.TypeCreateParty,
		"displayName": displayName,
		"contentId":   contentID,
		"contentType": contentType,
		"season":      season,
		"episode":     episode,
	})
}

// JoinParty joins an existing party by code.
func (c *Client) JoinParty(partyID, displayName string) error {
	return c.writeJSON(map[string]any{
		"type":        protocol.TypeJoinParty,
		"partyId":     partyID,
		"displayName": displayName,
	})
}

// LeaveParty leaves the current party but keeps the connection open.
func (c *Client) LeaveParty() error {
	c.mu.Lock()
	partyID := c.partyID
	c.partyID = ""
	c.isHost = false
	if c.state == StateJoined || c.state == StateHosting {
		c.setStateLocked(StateConnected)
	}
	c.mu.Unlock()

	return c.writeJSON(map[string]any{
		"type":    protocol.TypeLeaveParty,
		"partyId": partyID,
	})
}

// SendChat posts a chat message to the current party.
func (c *Client) SendChat(text string) error {
	c.mu.Lock()
	partyID := c.partyID
	c.mu.Unlock()
	return c.writeJSON(map[string]any{
		"type":    protocol.TypeChatMessage,
		"partyId": partyID,
		"message": map[string]string{"text": text},
	})
}

// RequestSync asks for a fresh state snapshot (late join or after
// reconnect).
func (c *Client) RequestSync() error {
	c.mu.Lock()
	partyID := c.partyID
	c.mu.Unlock()
	return c.writeJSON(map[string]any{
		"type":    protocol.TypeSyncRequest,
		"partyId": partyID,
	})
}

func (c *Client) writeJSON(v any) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteJSON(v)
}

func (c *Client) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleClosed(conn)
			return
		}
		c.handleFrame(data)
	}
}

// handleClosed runs when the transport dies. Intentional closes stop here;
// anything else schedules the reconnect attempt.
func (c *Client) handleClosed(conn *websocket.Conn) {
	_ = conn.Close()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != conn {
		return
	}
	c.conn = nil
	c.done = nil
	c.clientID = ""
	c.partyID = ""
	c.isHost = false
	c.setStateLocked(StateDisconnected)
	if !c.closed {
		c.scheduleReconnectLocked()
	}
}

// scheduleReconnectLocked arms the reconnect timer unless one is already
// pending. Caller holds c.mu.
func (c *Client) scheduleReconnectLocked() {
	if c.reconnect != nil {
		return
	}
	c.log.Info("scheduling reconnect", zap.Duration("backoff", c.backoff))
	c.reconnect = time.AfterFunc(c.backoff, func() {
		c.mu.Lock()
		c.reconnect = nil
		closed := c.closed
		c.mu.Unlock()
		if closed {
			return
		}
		if err := c.Connect(context.Background()); err != nil {
			c.log.Warn("reconnect failed", zap.Error(err))
		}
	})
}

func (c *Client) heartbeatLoop(done chan struct{}) {
	ticker := time.NewTicker(c.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := c.writeJSON(map[string]string{"type": protocol.TypeHeartbeat}); err != nil {
				return
			}
		}
	}
}

// bridgeLoop forwards the embedded player's own events to the server, but
// only while this client is the host; everyone else's player is driven, not
// listened to.
func (c *Client) bridgeLoop() {
	for ev := range c.bridge.Events() {
		c.mu.Lock()
		hosting := c.state == StateHosting
		partyID := c.partyID
		c.mu.Unlock()
		if !hosting {
			continue
		}
		err := c.writeJSON(map[string]any{
			"type":    protocol.TypePlayerEvent,
			"partyId": partyID,
			"event": protocol.PlayerEventPayload{
				EventType:   ev.EventType,
				CurrentTime: ev.CurrentTime,
				Duration:    ev.Duration,
				Timestamp:   time.Now().UTC().Format(time.RFC3339),
			},
		})
		if err != nil {
			c.log.Warn("forward player event failed", zap.Error(err))
		}
	}
}

// inboundFrame is the superset of server-to-client fields.
type inboundFrame struct {
	Type        string               `json:"type"`
	ClientID    string               `json:"clientId"`
	PartyID     string               `json:"partyId"`
	UserID      string               `json:"userId"`
	DisplayName string               `json:"displayName"`
	Party       *model.PartySnapshot `json:"party"`
	Participant *model.Participant   `json:"participant"`
	HostID      string               `json:"hostId"`
	HostName    string               `json:"hostName"`
	Status      model.PartyStatus    `json:"status"`
	CurrentTime float64              `json:"currentTime"`
	Duration    float64              `json:"duration"`
	// Message is a ChatMessage object on CHAT_MESSAGE frames and a plain
	// string on ERROR frames; decoded per type.
	Message json.RawMessage              `json:"message"`
	Event   *protocol.PlayerEventPayload `json:"event"`
}

func (c *Client) handleFrame(data []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		c.log.Warn("bad frame from server", zap.Error(err))
		return
	}

	switch frame.Type {
	case protocol.TypeConnected:
		c.mu.Lock()
		c.clientID = frame.ClientID
		c.mu.Unlock()

	case protocol.TypePartyCreated:
		c.mu.Lock()
		c.partyID = frame.PartyID
		c.isHost = true
		c.setStateLocked(StateHosting)
		c.mu.Unlock()
		if c.cb.OnParty != nil && frame.Party != nil {
			c.cb.OnParty(*frame.Party)
		}

	case protocol.TypePartyJoined:
		c.mu.Lock()
		c.partyID = frame.PartyID
		c.isHost = false
		c.setStateLocked(StateJoined)
		c.mu.Unlock()
		if c.cb.OnParty != nil && frame.Party != nil {
			c.cb.OnParty(*frame.Party)
		}

	case protocol.TypeParticipantJoined:
		if c.cb.OnParticipantJoined != nil && frame.Participant != nil {
			c.cb.OnParticipantJoined(*frame.Participant)
		}

	case protocol.TypeParticipantLeft:
		if c.cb.OnParticipantLeft != nil {
			c.cb.OnParticipantLeft(frame.UserID, frame.DisplayName)
		}

	case protocol.TypeHostAssigned:
		c.mu.Lock()
		c.isHost = true
		c.setStateLocked(StateHosting)
		c.mu.Unlock()

	case protocol.TypeNewHost:
		c.mu.Lock()
		if frame.HostID == c.clientID {
			c.isHost = true
			c.setStateLocked(StateHosting)
		} else if c.isHost {
			c.isHost = false
			c.setStateLocked(StateJoined)
		}
		c.mu.Unlock()

	case protocol.TypeSyncState:
		c.reconcile(PlayerCommand{
			Action:      string(frame.Status),
			CurrentTime: frame.CurrentTime,
		})

	case protocol.TypePlayerEvent:
		if frame.Event != nil {
			c.reconcile(PlayerCommand{
				Action:      frame.Event.EventType,
				CurrentTime: frame.Event.CurrentTime,
			})
		}

	case protocol.TypeChatMessage:
		if c.cb.OnChat != nil && len(frame.Message) > 0 {
			var chat model.ChatMessage
			if err := json.Unmarshal(frame.Message, &chat); err == nil {
				c.cb.OnChat(chat)
			}
		}

	case protocol.TypeHeartbeatAck:
		// liveness evidence only

	case protocol.TypeError:
		var msg string
		_ = json.Unmarshal(frame.Message, &msg)
		c.log.Warn("server error", zap.String("message", msg))
		if c.cb.OnError != nil {
			c.cb.OnError(msg)
		}

	default:
		c.log.Warn("unknown frame type", zap.String("type", frame.Type))
	}
}

// reconcile drives the embedded player from a remote event or snapshot.
// Hosts never reconcile; their player is the source of truth.
func (c *Client) reconcile(cmd PlayerCommand) {
	c.mu.Lock()
	isHost := c.isHost
	c.mu.Unlock()
	if isHost || c.bridge == nil {
		return
	}
	if err := c.bridge.Command(cmd); err != nil {
		c.log.Warn("bridge command failed", zap.Error(err))
	}
}

// setStateLocked updates the state and fires the callback. Caller holds
// c.mu; the callback runs on a fresh goroutine so it can call back into the
// client.
func (c *Client) setStateLocked(s State) {
	if c.state == s {
		return
	}
	c.state = s
	if c.cb.OnStateChange != nil {
		go c.cb.OnStateChange(s)
	}
}
