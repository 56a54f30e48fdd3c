package service

import (
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/psds-microservice/watchparty-service/internal/errs"
	"github.com/psds-microservice/watchparty-service/pkg/model"
	"github.com/psds-microservice/watchparty-service/pkg/protocol"
	"go.uber.org/zap"
)

// EventRelay validates and broadcasts playback and chat events under the
// lifecycle manager's lock, so relay and lifecycle mutations never
// interleave.
type EventRelay struct {
	mgr *LifecycleManager
	log *zap.Logger
}

// NewEventRelay creates the relay on top of the lifecycle manager.
func NewEventRelay(mgr *LifecycleManager, log *zap.Logger) *EventRelay {
	return &EventRelay{mgr: mgr, log: log}
}

// HandlePlayerEvent applies a playback event from the party host and relays
// it to every other participant. Events from non-hosts are silently dropped:
// no state change, no broadcast, no error reply.
func (r *EventRelay) HandlePlayerEvent(connID string, ev protocol.PlayerEventPayload) {
	r.mgr.mu.Lock()
	defer r.mgr.mu.Unlock()

	conn, ok := r.mgr.registry.Lookup(connID)
	if !ok || !conn.InParty() || !conn.IsHost {
		return
	}
	party, ok := r.mgr.store.Get(conn.PartyID)
	if !ok {
		return
	}

	// Zero values leave the stored position untouched; a timeupdate at 0
	// must not rewind the authoritative state.
	if ev.CurrentTime > 0 {
		party.CurrentTime = ev.CurrentTime
	}
	if ev.Duration > 0 {
		party.Duration = ev.Duration
	}
	switch ev.EventType {
	case "play":
		party.Status = model.PartyStatusPlaying
	case "pause":
		party.Status = model.PartyStatusPaused
	}
	party.LastActivityAt = time.Now().UTC()

	r.mgr.broadcastLocked(party, protocol.NewPlayerEventBroadcast(ev), connID)

	r.log.Debug("player event relayed",
		zap.String("party_id", party.ID),
		zap.String("event_type", ev.EventType),
		zap.Float64("current_time", ev.CurrentTime))
}

// HandleChat appends a chat message to the party's bounded log and
// broadcasts it to all participants, sender included, so every client
// renders from the same authoritative log.
func (r *EventRelay) HandleChat(connID string, msg protocol.ChatPayload) error {
	if msg.Text == "" {
		return errs.ErrInvalidRequest
	}

	r.mgr.mu.Lock()
	defer r.mgr.mu.Unlock()

	conn, ok := r.mgr.registry.Lookup(connID)
	if !ok || !conn.InParty() {
		return nil
	}
	party, ok := r.mgr.store.Get(conn.PartyID)
	if !ok {
		return nil
	}

	entry := model.ChatMessage{
		ID:        ulid.Make().String(),
		Sender:    conn.DisplayName,
		Text:      msg.Text,
		Timestamp: time.Now().UTC(),
	}
	party.AppendChat(entry, r.mgr.cfg.ChatHistoryLimit)
	party.LastActivityAt = entry.Timestamp

	r.mgr.broadcastLocked(party, protocol.NewChatBroadcast(entry), "")
	return nil
}

// HandleSync answers a SYNC_REQUEST with the authoritative playback state,
// to the requester only.
func (r *EventRelay) HandleSync(connID string) {
	r.mgr.mu.Lock()
	defer r.mgr.mu.Unlock()

	conn, ok := r.mgr.registry.Lookup(connID)
	if !ok || !conn.InParty() {
		return
	}
	party, ok := r.mgr.store.Get(conn.PartyID)
	if !ok {
		return
	}

	r.mgr.hub.Send(connID, protocol.NewSyncState(party.Status, party.CurrentTime, party.Duration))
}

// HandleHeartbeat records liveness and acks the probe.
func (r *EventRelay) HandleHeartbeat(connID string) {
	r.mgr.registry.Touch(connID)
	r.mgr.hub.Send(connID, protocol.NewHeartbeatAck())
}
