package protocol

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/psds-microservice/watchparty-service/pkg/model"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want any
	}{
		{
			"create party",
			`{"type":"CREATE_PARTY","displayName":"Alice","contentId":"42","contentType":"movie","season":1,"episode":3}`,
			CreateParty{DisplayName: "Alice", ContentID: "42", ContentType: "movie", Season: intPtr(1), Episode: intPtr(3)},
		},
		{
			"join party",
			`{"type":"JOIN_PARTY","partyId":"ABCD1234","displayName":"Bob"}`,
			JoinParty{PartyID: "ABCD1234", DisplayName: "Bob"},
		},
		{
			"leave party",
			`{"type":"LEAVE_PARTY","partyId":"ABCD1234"}`,
			LeaveParty{PartyID: "ABCD1234"},
		},
		{
			"sync request",
			`{"type":"SYNC_REQUEST","partyId":"ABCD1234"}`,
			SyncRequest{PartyID: "ABCD1234"},
		},
		{
			"heartbeat",
			`{"type":"HEARTBEAT"}`,
			Heartbeat{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.raw))
			if err != nil {
				t.Fatalf("Decode() error: %v", err)
			}
			switch want := tt.want.(type) {
			case CreateParty:
				m := got.(CreateParty)
				if m.DisplayName != want.DisplayName || m.ContentID != want.ContentID || m.ContentType != want.ContentType {
					t.Errorf("Decode() = %+v, want %+v", m, want)
				}
				if m.Season == nil || *m.Season != *want.Season {
					t.Errorf("Season = %v, want %v", m.Season, want.Season)
				}
			case JoinParty:
				if got.(JoinParty) != want {
					t.Errorf("Decode() = %+v, want %+v", got, want)
				}
			case LeaveParty:
				if got.(LeaveParty) != want {
					t.Errorf("Decode() = %+v, want %+v", got, want)
				}
			case SyncRequest:
				if got.(SyncRequest) != want {
					t.Errorf("Decode() = %+v, want %+v", got, want)
				}
			case Heartbeat:
				if _, ok := got.(Heartbeat); !ok {
					t.Errorf("Decode() = %T, want Heartbeat", got)
				}
			}
		})
	}
}

func TestDecodePlayerEvent(t *testing.T) {
	raw := `{"type":"PLAYER_EVENT","partyId":"ABCD1234","event":{"eventType":"play","currentTime":12.5,"duration":5400}}`
	got, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	ev, ok := got.(PlayerEvent)
	if !ok {
		t.Fatalf("Decode() = %T, want PlayerEvent", got)
	}
	if ev.Event.EventType != "play" || ev.Event.CurrentTime != 12.5 || ev.Event.Duration != 5400 {
		t.Errorf("event = %+v", ev.Event)
	}
}

func TestDecodeChat(t *testing.T) {
	raw := `{"type":"CHAT_MESSAGE","partyId":"ABCD1234","message":{"text":"hello"}}`
	got, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	chat, ok := got.(Chat)
	if !ok {
		t.Fatalf("Decode() = %T, want Chat", got)
	}
	if chat.Message.Text != "hello" {
		t.Errorf("text = %q, want %q", chat.Message.Text, "hello")
	}
}

func TestDecodeUnknownType(t *testing.T) {
	_, err := Decode([]byte(`{"type":"TELEPORT"}`))
	if !errors.Is(err, ErrUnknownMessage) {
		t.Fatalf("err = %v, want ErrUnknownMessage", err)
	}
}

func TestDecodeMalformed(t *testing.T) {
	_, err := Decode([]byte(`{not json`))
	if !errors.Is(err, ErrMalformedMessage) {
		t.Fatalf("err = %v, want ErrMalformedMessage", err)
	}
}

func TestOutboundTypeTags(t *testing.T) {
	frames := map[string]any{
		TypeConnected:       NewConnected("c1"),
		TypePartyCreated:    NewPartyCreated("ABCD1234", "c1", model.PartySnapshot{}),
		TypeParticipantLeft: NewParticipantLeft("c1", "Alice"),
		TypeHostAssigned:    NewHostAssigned(),
		TypeNewHost:         NewNewHost("c2", "Bob"),
		TypeSyncState:       NewSyncState(model.PartyStatusPlaying, 12.5, 5400),
		TypeHeartbeatAck:    NewHeartbeatAck(),
		TypeError:           NewError("boom"),
	}
	for wantType, frame := range frames {
		data, err := json.Marshal(frame)
		if err != nil {
			t.Fatalf("marshal %s: %v", wantType, err)
		}
		var env struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &env); err != nil {
			t.Fatalf("unmarshal %s: %v", wantType, err)
		}
		if env.Type != wantType {
			t.Errorf("type tag = %q, want %q", env.Type, wantType)
		}
	}
}

func intPtr(v int) *int { return &v }
