package protocol

import (
	"time"

	"github.com/psds-microservice/watchparty-service/pkg/model"
)

// Connected confirms the connection and hands out the client id.
type Connected struct {
	Type      string    `json:"type"`
	ClientID  string    `json:"clientId"`
	Timestamp time.Time `json:"timestamp"`
}

// PartyCreated is sent to the creator only.
type PartyCreated struct {
	Type    string              `json:"type"`
	PartyID string              `json:"partyId"`
	UserID  string              `json:"userId"`
	Party   model.PartySnapshot `json:"party"`
}

// PartyJoined is sent to the joiner only.
type PartyJoined struct {
	Type    string              `json:"type"`
	PartyID string              `json:"partyId"`
	UserID  string              `json:"userId"`
	Party   model.PartySnapshot `json:"party"`
}

// ParticipantJoined notifies existing members of a new participant.
type ParticipantJoined struct {
	Type        string            `json:"type"`
	Participant model.Participant `json:"participant"`
}

// ParticipantLeft notifies remaining members of a departure.
type ParticipantLeft struct {
	Type        string `json:"type"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

// HostAssigned is sent privately to a newly promoted host.
type HostAssigned struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewHost announces the promoted host to the whole party.
type NewHost struct {
	Type     string `json:"type"`
	HostID   string `json:"hostId"`
	HostName string `json:"hostName"`
}

// SyncState is the authoritative playback state, sent to one requester.
type SyncState struct {
	Type        string            `json:"type"`
	Status      model.PartyStatus `json:"status"`
	CurrentTime float64           `json:"currentTime"`
	Duration    float64           `json:"duration"`
	Timestamp   time.Time         `json:"timestamp"`
}

// ChatBroadcast carries an appended chat message to all members.
type ChatBroadcast struct {
	Type    string            `json:"type"`
	Message model.ChatMessage `json:"message"`
}

// PlayerEventBroadcast relays a host playback event to the other members.
type PlayerEventBroadcast struct {
	Type      string             `json:"type"`
	Event     PlayerEventPayload `json:"event"`
	Timestamp time.Time          `json:"timestamp"`
}

// HeartbeatAck answers an application-level heartbeat. Timestamp is unix
// milliseconds, matching what clients expect.
type HeartbeatAck struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}

// ErrorMessage is a non-fatal error reply; the connection stays open.
type ErrorMessage struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func NewConnected(clientID string) Connected {
	return Connected{Type: TypeConnected, ClientID: clientID, Timestamp: time.Now().UTC()}
}

func NewPartyCreated(partyID, userID string, snap model.PartySnapshot) PartyCreated {
	return PartyCreated{Type: TypePartyCreated, PartyID: partyID, UserID: userID, Party: snap}
}

func NewPartyJoined(partyID, userID string, snap model.PartySnapshot) PartyJoined {
	return PartyJoined{Type: TypePartyJoined, PartyID: partyID, UserID: userID, Party: snap}
}

func NewParticipantJoined(p model.Participant) ParticipantJoined {
	return ParticipantJoined{Type: TypeParticipantJoined, Participant: p}
}

func NewParticipantLeft(userID, displayName string) ParticipantLeft {
	return ParticipantLeft{Type: TypeParticipantLeft, UserID: userID, DisplayName: displayName}
}

func NewHostAssigned() HostAssigned {
	return HostAssigned{Type: TypeHostAssigned, Message: "You are now the host"}
}

func NewNewHost(hostID, hostName string) NewHost {
	return NewHost{Type: TypeNewHost, HostID: hostID, HostName: hostName}
}

func NewSyncState(status model.PartyStatus, currentTime, duration float64) SyncState {
	return SyncState{
		Type:        TypeSyncState,
		Status:      status,
		CurrentTime: currentTime,
		Duration:    duration,
		Timestamp:   time.Now().UTC(),
	}
}

func NewChatBroadcast(msg model.ChatMessage) ChatBroadcast {
	return ChatBroadcast{Type: TypeChatMessage, Message: msg}
}

func NewPlayerEventBroadcast(ev PlayerEventPayload) PlayerEventBroadcast {
	return PlayerEventBroadcast{Type: TypePlayerEvent, Event: ev, Timestamp: time.Now().UTC()}
}

func NewHeartbeatAck() HeartbeatAck {
	return HeartbeatAck{Type: TypeHeartbeatAck, Timestamp: time.Now().UnixMilli()}
}

func NewError(message string) ErrorMessage {
	return ErrorMessage{Type: TypeError, Message: message, Timestamp: time.Now().UTC()}
}
