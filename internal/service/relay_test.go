package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/psds-microservice/watchparty-service/internal/errs"
	"github.com/psds-microservice/watchparty-service/pkg/model"
	"github.com/psds-microservice/watchparty-service/pkg/protocol"
)

// partyOfTwo sets up Alice hosting and Bob joined, with both peers drained.
func partyOfTwo(t *testing.T) (r *rig, partyID, hostID string, hostPeer *Peer, bobID string, bobPeer *Peer) {
	t.Helper()
	r = newRig()
	hostID, hostPeer = r.connect()
	partyID = createTestParty(t, r, hostID, "Alice")
	readFrame(t, hostPeer)

	bobID, bobPeer = r.connect()
	joinTestParty(t, r, bobID, partyID, "Bob")
	readFrame(t, bobPeer)
	readFrame(t, hostPeer)
	return r, partyID, hostID, hostPeer, bobID, bobPeer
}

func TestPlayerEventFromHost(t *testing.T) {
	r, partyID, hostID, hostPeer, _, bobPeer := partyOfTwo(t)

	r.relay.HandlePlayerEvent(hostID, protocol.PlayerEventPayload{
		EventType:   "play",
		CurrentTime: 12.5,
		Duration:    5400,
	})

	party, _ := r.st.Get(partyID)
	if party.Status != model.PartyStatusPlaying {
		t.Errorf("status = %s, want playing", party.Status)
	}
	if party.CurrentTime != 12.5 || party.Duration != 5400 {
		t.Errorf("position = %f/%f, want 12.5/5400", party.CurrentTime, party.Duration)
	}

	// Relayed to others, not echoed to the sender.
	f := readFrame(t, bobPeer)
	if f.Type != protocol.TypePlayerEvent {
		t.Fatalf("bob frame = %s, want PLAYER_EVENT", f.Type)
	}
	if f.Event == nil || f.Event.EventType != "play" || f.Event.CurrentTime != 12.5 {
		t.Errorf("event = %+v", f.Event)
	}
	assertNoFrame(t, hostPeer)
}

func TestPlayerEventFromNonHostDropped(t *testing.T) {
	r, partyID, _, hostPeer, bobID, bobPeer := partyOfTwo(t)

	r.relay.HandlePlayerEvent(bobID, protocol.PlayerEventPayload{
		EventType:   "play",
		CurrentTime: 99,
	})

	party, _ := r.st.Get(partyID)
	if party.Status != model.PartyStatusWaiting || party.CurrentTime != 0 {
		t.Errorf("non-host event mutated state: status=%s time=%f", party.Status, party.CurrentTime)
	}
	assertNoFrame(t, hostPeer)
	assertNoFrame(t, bobPeer)
}

func TestPlayerEventZeroKeepsPosition(t *testing.T) {
	r, partyID, hostID, _, _, bobPeer := partyOfTwo(t)

	r.relay.HandlePlayerEvent(hostID, protocol.PlayerEventPayload{EventType: "play", CurrentTime: 42, Duration: 5400})
	readFrame(t, bobPeer)

	// A timeupdate carrying zeroes must not rewind stored state.
	r.relay.HandlePlayerEvent(hostID, protocol.PlayerEventPayload{EventType: "timeupdate"})
	readFrame(t, bobPeer)

	party, _ := r.st.Get(partyID)
	if party.CurrentTime != 42 || party.Duration != 5400 {
		t.Errorf("position = %f/%f, want 42/5400", party.CurrentTime, party.Duration)
	}
	if party.Status != model.PartyStatusPlaying {
		t.Errorf("timeupdate changed status to %s", party.Status)
	}
}

func TestPauseDerivesStatus(t *testing.T) {
	r, partyID, hostID, _, _, bobPeer := partyOfTwo(t)

	r.relay.HandlePlayerEvent(hostID, protocol.PlayerEventPayload{EventType: "play", CurrentTime: 10})
	readFrame(t, bobPeer)
	r.relay.HandlePlayerEvent(hostID, protocol.PlayerEventPayload{EventType: "pause", CurrentTime: 15})
	f := readFrame(t, bobPeer)

	if f.Event == nil || f.Event.EventType != "pause" {
		t.Fatalf("event = %+v, want pause", f.Event)
	}
	party, _ := r.st.Get(partyID)
	if party.Status != model.PartyStatusPaused {
		t.Errorf("status = %s, want paused", party.Status)
	}
	if party.CurrentTime != 15 {
		t.Errorf("currentTime = %f, want 15", party.CurrentTime)
	}
}

func TestChatBroadcastsToAllIncludingSender(t *testing.T) {
	r, partyID, _, hostPeer, bobID, bobPeer := partyOfTwo(t)

	if err := r.relay.HandleChat(bobID, protocol.ChatPayload{Text: "hello"}); err != nil {
		t.Fatalf("HandleChat: %v", err)
	}

	for _, peer := range []*Peer{hostPeer, bobPeer} {
		f := readFrame(t, peer)
		if f.Type != protocol.TypeChatMessage {
			t.Fatalf("frame = %s, want CHAT_MESSAGE", f.Type)
		}
		var msg model.ChatMessage
		if err := json.Unmarshal(f.Message, &msg); err != nil {
			t.Fatalf("decode chat message: %v", err)
		}
		if msg.Sender != "Bob" || msg.Text != "hello" || msg.ID == "" {
			t.Errorf("message = %+v", msg)
		}
	}

	party, _ := r.st.Get(partyID)
	if len(party.ChatLog) != 1 {
		t.Errorf("chat log = %d entries, want 1", len(party.ChatLog))
	}
}

func TestChatHistoryBounded(t *testing.T) {
	r, partyID, hostID, hostPeer, _, bobPeer := partyOfTwo(t)

	for i := 0; i < 60; i++ {
		if err := r.relay.HandleChat(hostID, protocol.ChatPayload{Text: fmt.Sprintf("msg %d", i)}); err != nil {
			t.Fatalf("HandleChat(%d): %v", i, err)
		}
		readFrame(t, hostPeer)
		readFrame(t, bobPeer)
	}

	party, _ := r.st.Get(partyID)
	if len(party.ChatLog) != 50 {
		t.Fatalf("chat log = %d entries, want 50", len(party.ChatLog))
	}
	if party.ChatLog[0].Text != "msg 10" {
		t.Errorf("oldest retained = %q, want 'msg 10'", party.ChatLog[0].Text)
	}
	if party.ChatLog[49].Text != "msg 59" {
		t.Errorf("newest = %q, want 'msg 59'", party.ChatLog[49].Text)
	}
}

func TestChatEmptyTextRejected(t *testing.T) {
	r, _, hostID, hostPeer, _, bobPeer := partyOfTwo(t)

	if err := r.relay.HandleChat(hostID, protocol.ChatPayload{}); !errors.Is(err, errs.ErrInvalidRequest) {
		t.Fatalf("HandleChat(empty) = %v, want ErrInvalidRequest", err)
	}
	assertNoFrame(t, hostPeer)
	assertNoFrame(t, bobPeer)
}

func TestChatOutsidePartyIgnored(t *testing.T) {
	r := newRig()
	connID, peer := r.connect()

	if err := r.relay.HandleChat(connID, protocol.ChatPayload{Text: "anyone?"}); err != nil {
		t.Fatalf("HandleChat: %v", err)
	}
	assertNoFrame(t, peer)
}

func TestSyncStateToRequesterOnly(t *testing.T) {
	r, _, hostID, hostPeer, bobID, bobPeer := partyOfTwo(t)

	r.relay.HandlePlayerEvent(hostID, protocol.PlayerEventPayload{EventType: "play", CurrentTime: 33, Duration: 5400})
	readFrame(t, bobPeer)

	r.relay.HandleSync(bobID)

	f := readFrame(t, bobPeer)
	if f.Type != protocol.TypeSyncState {
		t.Fatalf("frame = %s, want SYNC_STATE", f.Type)
	}
	if f.Status != string(model.PartyStatusPlaying) || f.CurrentTime != 33 || f.Duration != 5400 {
		t.Errorf("sync = %+v", f)
	}
	assertNoFrame(t, hostPeer)
}

func TestHeartbeatAck(t *testing.T) {
	r := newRig()
	connID, peer := r.connect()
	before, _ := r.reg.Lookup(connID)

	r.relay.HandleHeartbeat(connID)

	f := readFrame(t, peer)
	if f.Type != protocol.TypeHeartbeatAck {
		t.Fatalf("frame = %s, want HEARTBEAT_ACK", f.Type)
	}
	var millis int64
	if err := json.Unmarshal(f.Timestamp, &millis); err != nil || millis <= 0 {
		t.Errorf("timestamp = %s (err %v), want unix millis", f.Timestamp, err)
	}

	after, _ := r.reg.Lookup(connID)
	if after.LastLivenessAt.Before(before.LastLivenessAt) {
		t.Error("heartbeat did not refresh liveness")
	}
}
