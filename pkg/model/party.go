package model

import "time"

// PartyStatus represents the shared playback state of a party.
type PartyStatus string

const (
	PartyStatusWaiting PartyStatus = "waiting"
	PartyStatusPlaying PartyStatus = "playing"
	PartyStatusPaused  PartyStatus = "paused"
)

// Content is the media item a party is watching.
type Content struct {
	ContentID   string `json:"contentId"`
	ContentType string `json:"contentType"`
	Season      *int   `json:"season"`
	Episode     *int   `json:"episode"`
}

// Participant is a member of a party. Its ID equals the owning connection's
// ID; the two records relate by id only and are looked up independently.
type Participant struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	IsHost   bool      `json:"isHost"`
	JoinedAt time.Time `json:"joinedAt"`
}

// ChatMessage is a single entry in a party's bounded chat log.
type ChatMessage struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Party is an active watch party. Participants keep insertion order, which
// is the join order used for host election.
type Party struct {
	ID             string
	HostID         string
	Participants   []Participant
	Status         PartyStatus
	Content        Content
	CurrentTime    float64
	Duration       float64
	ChatLog        []ChatMessage
	CreatedAt      time.Time
	LastActivityAt time.Time
}

// HasName reports whether a participant with the given display name exists.
func (p *Party) HasName(name string) bool {
	for _, m := range p.Participants {
		if m.Name == name {
			return true
		}
	}
	return false
}

// RemoveParticipant removes the participant with the given id, preserving
// join order of the rest. Returns false if no such participant exists.
func (p *Party) RemoveParticipant(id string) bool {
	for i, m := range p.Participants {
		if m.ID == id {
			p.Participants = append(p.Participants[:i], p.Participants[i+1:]...)
			return true
		}
	}
	return false
}

// AppendChat appends a message to the chat log, evicting the oldest entries
// beyond limit.
func (p *Party) AppendChat(msg ChatMessage, limit int) {
	p.ChatLog = append(p.ChatLog, msg)
	if limit > 0 && len(p.ChatLog) > limit {
		p.ChatLog = p.ChatLog[len(p.ChatLog)-limit:]
	}
}

// PartySnapshot is the wire view of a party sent on create/join.
type PartySnapshot struct {
	ID           string        `json:"id"`
	Participants []Participant `json:"participants"`
	Status       PartyStatus   `json:"status"`
	ContentID    string        `json:"contentId"`
	ContentType  string        `json:"contentType"`
	Season       *int          `json:"season"`
	Episode      *int          `json:"episode"`
	CurrentTime  float64       `json:"currentTime"`
	Duration     float64       `json:"duration"`
	ChatMessages []ChatMessage `json:"chatMessages"`
}

// Snapshot builds the wire view of the party with at most chatLimit chat
// messages (the most recent ones).
func (p *Party) Snapshot(chatLimit int) PartySnapshot {
	participants := make([]Participant, len(p.Participants))
	copy(participants, p.Participants)

	chat := p.ChatLog
	if chatLimit > 0 && len(chat) > chatLimit {
		chat = chat[len(chat)-chatLimit:]
	}
	chatCopy := make([]ChatMessage, len(chat))
	copy(chatCopy, chat)

	return PartySnapshot{
		ID:           p.ID,
		Participants: participants,
		Status:       p.Status,
		ContentID:    p.Content.ContentID,
		ContentType:  p.Content.ContentType,
		Season:       p.Content.Season,
		Episode:      p.Content.Episode,
		CurrentTime:  p.CurrentTime,
		Duration:     p.Duration,
		ChatMessages: chatCopy,
	}
}

// PartySummary is the public REST view of a party (GET /api/party/:id).
type PartySummary struct {
	PartyID      string      `json:"partyId"`
	Participants int         `json:"participants"`
	Status       PartyStatus `json:"status"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// Stats is the aggregate counters payload for the health endpoint.
type Stats struct {
	TotalParties  int     `json:"totalParties"`
	ActiveParties int     `json:"activeParties"`
	TotalClients  int     `json:"totalClients"`
	Uptime        float64 `json:"uptime"`
}
