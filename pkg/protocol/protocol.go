// Package protocol defines the WebSocket message catalog: the closed set of
// client-to-server messages with a decoder, and typed server-to-client
// frames. Every frame is a UTF-8 JSON record with a "type" discriminator.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Protocol-level errors. Both are non-fatal to the connection; the server
// answers with an ERROR frame and keeps reading.
var (
	ErrMalformedMessage = errors.New("invalid message format")
	ErrUnknownMessage   = errors.New("unknown message type")
)

// Client-to-server message types.
const (
	TypeCreateParty = "CREATE_PARTY"
	TypeJoinParty   = "JOIN_PARTY"
	TypeLeaveParty  = "LEAVE_PARTY"
	TypePlayerEvent = "PLAYER_EVENT"
	TypeChatMessage = "CHAT_MESSAGE"
	TypeSyncRequest = "SYNC_REQUEST"
	TypeHeartbeat   = "HEARTBEAT"
)

// Server-to-client message types.
const (
	TypeConnected         = "connected"
	TypePartyCreated      = "PARTY_CREATED"
	TypePartyJoined       = "PARTY_JOINED"
	TypeParticipantJoined = "PARTICIPANT_JOINED"
	TypeParticipantLeft   = "PARTICIPANT_LEFT"
	TypeHostAssigned      = "HOST_ASSIGNED"
	TypeNewHost           = "NEW_HOST"
	TypeSyncState         = "SYNC_STATE"
	TypeHeartbeatAck      = "HEARTBEAT_ACK"
	TypeError             = "ERROR"
)

// PlayerEventPayload carries one playback event (play, pause, seeked,
// timeupdate, ended) from the host's embedded player.
type PlayerEventPayload struct {
	EventType   string      `json:"eventType"`
	CurrentTime float64     `json:"currentTime"`
	Duration    float64     `json:"duration"`
	TmdbID      json.Number `json:"tmdbId,omitempty"`
	MediaType   string      `json:"mediaType,omitempty"`
	Season      *int        `json:"season,omitempty"`
	Episode     *int        `json:"episode,omitempty"`
	Timestamp   string      `json:"timestamp,omitempty"`
}

// ChatPayload is the chat message body sent by a client.
type ChatPayload struct {
	Text string `json:"text"`
}

// Message is a decoded client-to-server message. The set of implementations
// is closed; dispatch switches over it exhaustively.
type Message interface{ isMessage() }

// CreateParty requests a new party with the sender as host.
type CreateParty struct {
	DisplayName string
	ContentID   string
	ContentType string
	Season      *int
	Episode     *int
}

// JoinParty requests membership in an existing party.
type JoinParty struct {
	PartyID     string
	DisplayName string
}

// LeaveParty leaves the sender's current party.
type LeaveParty struct {
	PartyID string
}

// PlayerEvent relays a playback event from the party host.
type PlayerEvent struct {
	PartyID string
	Event   PlayerEventPayload
}

// Chat posts a chat message to the sender's party.
type Chat struct {
	PartyID string
	Message ChatPayload
}

// SyncRequest asks for a fresh state snapshot.
type SyncRequest struct {
	PartyID string
}

// Heartbeat is the application-level liveness probe.
type Heartbeat struct{}

func (CreateParty) isMessage() {}
func (JoinParty) isMessage()   {}
func (LeaveParty) isMessage()  {}
func (PlayerEvent) isMessage() {}
func (Chat) isMessage()        {}
func (SyncRequest) isMessage() {}
func (Heartbeat) isMessage()   {}

// envelope is the superset of inbound fields; Decode narrows it by type.
type envelope struct {
	Type        string              `json:"type"`
	DisplayName string              `json:"displayName"`
	ContentID   string              `json:"contentId"`
	ContentType string              `json:"contentType"`
	Season      *int                `json:"season"`
	Episode     *int                `json:"episode"`
	PartyID     string              `json:"partyId"`
	Event       *PlayerEventPayload `json:"event"`
	Message     *ChatPayload        `json:"message"`
}

// Decode parses a raw frame into one of the Message variants. It returns
// ErrMalformedMessage for unparseable input and ErrUnknownMessage for an
// unrecognized type.
func Decode(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, ErrMalformedMessage
	}
	switch env.Type {
	case TypeCreateParty:
		return CreateParty{
			DisplayName: env.DisplayName,
			ContentID:   env.ContentID,
			ContentType: env.ContentType,
			Season:      env.Season,
			Episode:     env.Episode,
		}, nil
	case TypeJoinParty:
		return JoinParty{PartyID: env.PartyID, DisplayName: env.DisplayName}, nil
	case TypeLeaveParty:
		return LeaveParty{PartyID: env.PartyID}, nil
	case TypePlayerEvent:
		msg := PlayerEvent{PartyID: env.PartyID}
		if env.Event != nil {
			msg.Event = *env.Event
		}
		return msg, nil
	case TypeChatMessage:
		msg := Chat{PartyID: env.PartyID}
		if env.Message != nil {
			msg.Message = *env.Message
		}
		return msg, nil
	case TypeSyncRequest:
		return SyncRequest{PartyID: env.PartyID}, nil
	case TypeHeartbeat:
		return Heartbeat{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMessage, env.Type)
	}
}
