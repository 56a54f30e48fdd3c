package model

import "time"

// Connection is the per-transport state of one WebSocket client. It lives
// exactly as long as the transport; PartyID/DisplayName/IsHost are cleared
// when the client leaves its party.
type Connection struct {
	ID             string
	PartyID        string // empty when not in a party
	DisplayName    string
	IsHost         bool
	ConnectedAt    time.Time
	LastLivenessAt time.Time
}

// InParty reports whether the connection currently belongs to a party.
func (c *Connection) InParty() bool { return c.PartyID != "" }
