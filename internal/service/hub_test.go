package service

import (
	"testing"

	"go.uber.org/zap"
)

func TestHubSendToExcludes(t *testing.T) {
	h := NewPartyHub(zap.NewNop())
	a, _ := h.Register("a", nil)
	b, _ := h.Register("b", nil)
	c, _ := h.Register("c", nil)

	h.SendTo([]string{"a", "b", "c"}, map[string]string{"type": "x"}, "b")

	if len(a.Send) != 1 || len(c.Send) != 1 {
		t.Errorf("a=%d c=%d frames, want 1 each", len(a.Send), len(c.Send))
	}
	if len(b.Send) != 0 {
		t.Errorf("excluded peer got %d frames", len(b.Send))
	}
}

func TestHubSendToUnknownPeer(t *testing.T) {
	h := NewPartyHub(zap.NewNop())
	a, _ := h.Register("a", nil)

	// Unknown ids are skipped without affecting delivery to the rest.
	h.SendTo([]string{"a", "ghost"}, map[string]string{"type": "x"}, "")
	if len(a.Send) != 1 {
		t.Errorf("a got %d frames, want 1", len(a.Send))
	}
}

func TestHubFullBufferDropsFrame(t *testing.T) {
	h := NewPartyHub(zap.NewNop())
	p, _ := h.Register("a", nil)

	for i := 0; i < cap(p.Send)+10; i++ {
		h.Send("a", map[string]int{"n": i})
	}
	if len(p.Send) != cap(p.Send) {
		t.Errorf("queued = %d, want %d (overflow dropped)", len(p.Send), cap(p.Send))
	}
}

func TestHubCleanupClosesSend(t *testing.T) {
	h := NewPartyHub(zap.NewNop())
	p, cleanup := h.Register("a", nil)
	cleanup()

	if _, open := <-p.Send; open {
		t.Error("send channel still open after cleanup")
	}
	if h.PeerCount() != 0 {
		t.Errorf("PeerCount = %d, want 0", h.PeerCount())
	}
	// Second cleanup is a no-op, not a double close.
	cleanup()

	h.Send("a", map[string]string{"type": "x"})
}
