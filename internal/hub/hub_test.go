package hub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastReachesTopicSubscribersOnly(t *testing.T) {
	h := NewHub()

	a := h.Subscribe("room:1", "alice")
	b := h.Subscribe("room:1", "bob")
	other := h.Subscribe("room:2", "carol")

	h.Broadcast("room:1", Event{Type: "ping", Payload: "hi"})

	for _, c := range []Client{a, b} {
		select {
		case raw := <-c:
			assert.Contains(t, string(raw), `"ping"`)
		default:
			t.Fatal("subscriber did not receive the broadcast")
		}
	}

	select {
	case <-other:
		t.Fatal("subscriber on another topic received the broadcast")
	default:
	}
}

func TestBroadcastToEmptyTopic(t *testing.T) {
	h := NewHub()
	// Must not panic or block.
	h.Broadcast("nobody-home", Event{Type: "ping"})
}

func TestResubscribeReplacesConsumer(t *testing.T) {
	h := NewHub()

	first := h.Subscribe("room:1", "alice")
	second := h.Subscribe("room:1", "alice")

	_, open := <-first
	require.False(t, open, "old client should be closed when its consumer reconnects")

	h.Broadcast("room:1", Event{Type: "ping"})
	select {
	case _, ok := <-second:
		assert.True(t, ok)
	default:
		t.Fatal("replacement client did not receive the broadcast")
	}
}

func TestDistinctConsumersCoexist(t *testing.T) {
	h := NewHub()

	web := h.Subscribe("room:1", "alice-web")
	mobile := h.Subscribe("room:1", "alice-mobile")

	h.Broadcast("room:1", Event{Type: "ping"})

	for _, c := range []Client{web, mobile} {
		select {
		case <-c:
		default:
			t.Fatal("every distinct consumer should receive the broadcast")
		}
	}
}

func TestUnsubscribeClosesClient(t *testing.T) {
	h := NewHub()

	c := h.Subscribe("room:1", "alice")
	h.Unsubscribe("room:1", c)

	_, open := <-c
	assert.False(t, open)

	// Double unsubscribe is a no-op.
	h.Unsubscribe("room:1", c)
}

func TestSlowClientDoesNotBlockBroadcast(t *testing.T) {
	h := NewHub()

	c := h.Subscribe("room:1", "slow")
	for i := 0; i < cap(c)+5; i++ {
		h.Broadcast("room:1", Event{Type: "ping"})
	}
	// The channel is full; the extra broadcasts were dropped, not queued.
	assert.Len(t, c, cap(c))
}
