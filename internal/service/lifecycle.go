package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/psds-microservice/watchparty-service/internal/config"
	"github.com/psds-microservice/watchparty-service/internal/errs"
	"github.com/psds-microservice/watchparty-service/internal/registry"
	"github.com/psds-microservice/watchparty-service/internal/store"
	"github.com/psds-microservice/watchparty-service/pkg/model"
	"github.com/psds-microservice/watchparty-service/pkg/protocol"
	"go.uber.org/zap"
)

// LifecycleManager owns party lifecycle: create, join, leave, host election,
// disconnect cascade and the idle sweep. All party/connection mutation runs
// under a single mutex, so every operation is an atomic critical section;
// the event relay shares the same lock.
type LifecycleManager struct {
	mu        sync.Mutex
	store     *store.PartyStore
	registry  *registry.ConnectionRegistry
	hub       *PartyHub
	cfg       *config.Config
	log       *zap.Logger
	startedAt time.Time
}

// NewLifecycleManager creates the lifecycle manager.
func NewLifecycleManager(st *store.PartyStore, reg *registry.ConnectionRegistry, hub *PartyHub, cfg *config.Config, log *zap.Logger) *LifecycleManager {
	return &LifecycleManager{
		store:     st,
		registry:  reg,
		hub:       hub,
		cfg:       cfg,
		log:       log,
		startedAt: time.Now(),
	}
}

// CreateParty creates a party with the sender as sole participant and host,
// then replies PARTY_CREATED to the creator only.
func (m *LifecycleManager) CreateParty(connID string, req protocol.CreateParty) error {
	if req.DisplayName == "" || req.ContentID == "" {
		return errs.ErrInvalidRequest
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	conn, ok := m.registry.Lookup(connID)
	if !ok {
		return errs.ErrUnknownConn
	}
	if conn.InParty() {
		return errs.ErrAlreadyInParty
	}

	code, err := m.allocatePartyCode()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	party := &model.Party{
		ID:     code,
		HostID: connID,
		Participants: []model.Participant{{
			ID:       connID,
			Name:     req.DisplayName,
			IsHost:   true,
			JoinedAt: now,
		}},
		Status: model.PartyStatusWaiting,
		Content: model.Content{
			ContentID:   req.ContentID,
			ContentType: req.ContentType,
			Season:      req.Season,
			Episode:     req.Episode,
		},
		CreatedAt:      now,
		LastActivityAt: now,
	}
	m.store.Put(party)
	m.registry.Update(connID, func(c *model.Connection) {
		c.PartyID = code
		c.DisplayName = req.DisplayName
		c.IsHost = true
	})

	m.hub.Send(connID, protocol.NewPartyCreated(code, connID, party.Snapshot(m.cfg.ChatHistoryLimit)))

	m.log.Info("party created",
		zap.String("party_id", code),
		zap.String("conn_id", connID),
		zap.String("display_name", req.DisplayName),
		zap.String("content_id", req.ContentID))
	return nil
}

// JoinParty appends the sender as a non-host participant, replies
// PARTY_JOINED to the joiner and broadcasts PARTICIPANT_JOINED to the rest.
func (m *LifecycleManager) JoinParty(connID string, req protocol.JoinParty) error {
	if req.PartyID == "" || req.DisplayName == "" {
		return errs.ErrInvalidRequest
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	conn, ok := m.registry.Lookup(connID)
	if !ok {
		return errs.ErrUnknownConn
	}
	party, ok := m.store.Get(req.PartyID)
	if !ok {
		return errs.ErrPartyNotFound
	}
	if conn.InParty() {
		return errs.ErrAlreadyInParty
	}
	if len(party.Participants) >= m.cfg.PartyMaxParticipants {
		return errs.ErrPartyFull
	}
	if party.HasName(req.DisplayName) {
		return errs.ErrNameTaken
	}

	participant := model.Participant{
		ID:       connID,
		Name:     req.DisplayName,
		JoinedAt: time.Now().UTC(),
	}
	party.Participants = append(party.Participants, participant)
	party.LastActivityAt = participant.JoinedAt
	m.registry.Update(connID, func(c *model.Connection) {
		c.PartyID = party.ID
		c.DisplayName = req.DisplayName
	})

	m.hub.Send(connID, protocol.NewPartyJoined(party.ID, connID, party.Snapshot(m.cfg.ChatHistoryLimit)))
	m.broadcastLocked(party, protocol.NewParticipantJoined(participant), connID)

	m.log.Info("participant joined",
		zap.String("party_id", party.ID),
		zap.String("conn_id", connID),
		zap.String("display_name", req.DisplayName))
	return nil
}

// LeaveParty removes the sender from its party. No-op if the sender is not
// in one.
func (m *LifecycleManager) LeaveParty(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaveLocked(connID)
}

// Disconnect handles transport close: leave cascade, then registry removal.
func (m *LifecycleManager) Disconnect(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaveLocked(connID)
	m.registry.Remove(connID)
}

// leaveLocked is the leave cascade. Caller holds m.mu.
func (m *LifecycleManager) leaveLocked(connID string) {
	conn, ok := m.registry.Lookup(connID)
	if !ok || !conn.InParty() {
		return
	}

	defer m.registry.Update(connID, func(c *model.Connection) {
		c.PartyID = ""
		c.DisplayName = ""
		c.IsHost = false
	})

	party, ok := m.store.Get(conn.PartyID)
	if !ok {
		return
	}

	party.RemoveParticipant(connID)
	party.LastActivityAt = time.Now().UTC()

	m.broadcastLocked(party, protocol.NewParticipantLeft(connID, conn.DisplayName), "")

	if conn.IsHost {
		if len(party.Participants) > 0 {
			m.promoteLocked(party)
		} else {
			m.store.Delete(party.ID)
			m.log.Info("party deleted", zap.String("party_id", party.ID))
		}
	} else if len(party.Participants) == 0 {
		// Defensive: a non-host should never be the last member, but an
		// empty party must not outlive the handler that emptied it.
		m.store.Delete(party.ID)
		m.log.Info("party deleted", zap.String("party_id", party.ID))
	}

	m.log.Info("participant left",
		zap.String("party_id", party.ID),
		zap.String("conn_id", connID),
		zap.String("display_name", conn.DisplayName))
}

// promoteLocked elects the earliest-joined remaining participant as host.
// Caller holds m.mu.
func (m *LifecycleManager) promoteLocked(party *model.Party) {
	newHost := &party.Participants[0]
	newHost.IsHost = true
	party.HostID = newHost.ID

	m.registry.Update(newHost.ID, func(c *model.Connection) {
		c.IsHost = true
	})

	m.hub.Send(newHost.ID, protocol.NewHostAssigned())
	m.broadcastLocked(party, protocol.NewNewHost(newHost.ID, newHost.Name), "")

	m.log.Info("new host assigned",
		zap.String("party_id", party.ID),
		zap.String("host_id", newHost.ID),
		zap.String("host_name", newHost.Name))
}

// SweepExpired deletes parties idle past the TTL, regardless of participant
// count (defensive against orphaned state). Returns the number swept.
func (m *LifecycleManager) SweepExpired(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := m.store.Expired(now, m.cfg.PartyTTL)
	for _, id := range ids {
		m.store.Delete(id)
		m.log.Info("swept expired party", zap.String("party_id", id))
	}
	return len(ids)
}

// Stats returns aggregate counters for the health endpoint. It takes the
// manager lock: ActiveLen walks participant slices that JoinParty and
// leaveLocked mutate under m.mu only.
func (m *LifecycleManager) Stats() model.Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	return model.Stats{
		TotalParties:  m.store.Len(),
		ActiveParties: m.store.ActiveLen(),
		TotalClients:  m.registry.Count(),
		Uptime:        time.Since(m.startedAt).Seconds(),
	}
}

// Summary returns the public view of a party without mutating state.
func (m *LifecycleManager) Summary(partyID string) (model.PartySummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	party, ok := m.store.Get(partyID)
	if !ok {
		return model.PartySummary{}, errs.ErrPartyNotFound
	}
	return model.PartySummary{
		PartyID:      party.ID,
		Participants: len(party.Participants),
		Status:       party.Status,
		CreatedAt:    party.CreatedAt,
	}, nil
}

// broadcastLocked fans a frame out to the party's current participants,
// excluding the given connection id when non-empty. Caller holds m.mu.
func (m *LifecycleManager) broadcastLocked(party *model.Party, v any, exclude string) {
	ids := make([]string, 0, len(party.Participants))
	for _, p := range party.Participants {
		ids = append(ids, p.ID)
	}
	m.hub.SendTo(ids, v, exclude)
}

func (m *LifecycleManager) allocatePartyCode() (string, error) {
	for attempt := 0; attempt < 10; attempt++ {
		code, err := newPartyCode()
		if err != nil {
			return "", err
		}
		if !m.store.Exists(code) {
			return code, nil
		}
	}
	return "", fmt.Errorf("party code space exhausted")
}
