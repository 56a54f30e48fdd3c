package client

// PlayerCommand is pushed across the message bridge to the embedded player.
// Action is a party status ("playing", "paused") for snapshot sync, or a
// raw event type ("play", "pause", "seeked") for relayed host events.
type PlayerCommand struct {
	Action      string  `json:"action"`
	CurrentTime float64 `json:"currentTime"`
}

// PlayerEvent is a playback event emitted by the embedded player.
type PlayerEvent struct {
	EventType   string  `json:"eventType"`
	CurrentTime float64 `json:"currentTime"`
	Duration    float64 `json:"duration"`
}

// PlayerBridge is the boundary to the embedded video player. The player is
// an opaque cross-origin peer: commands go in, events come out, nothing
// else is assumed about it.
type PlayerBridge interface {
	// Command instructs the player (seek, play, pause).
	Command(cmd PlayerCommand) error
	// Events yields the player's own playback events. The channel is
	// closed by the bridge owner when the player goes away.
	Events() <-chan PlayerEvent
}
