package realtime

import (
	"encoding/json"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub() *Hub {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewHub(logger)
}

func newTestClient(hub *Hub, userID uint) *Client {
	return NewClient(hub, nil, userID)
}

func receive(t *testing.T, client *Client) Event {
	t.Helper()

	select {
	case raw := <-client.send:
		var event Event
		require.NoError(t, json.Unmarshal(raw, &event))
		return event
	default:
		t.Fatal("expected a buffered event")
		return Event{}
	}
}

func assertEmpty(t *testing.T, client *Client) {
	t.Helper()

	select {
	case raw := <-client.send:
		t.Fatalf("unexpected event: %s", raw)
	default:
	}
}

func TestHubPublish(t *testing.T) {
	t.Run("delivers to every room subscriber", func(t *testing.T) {
		hub := newTestHub()
		first := newTestClient(hub, 1)
		second := newTestClient(hub, 2)
		outsider := newTestClient(hub, 3)
		hub.Register(first)
		hub.Register(second)
		hub.Register(outsider)

		hub.Join(first, []uint{7})
		hub.Join(second, []uint{7})
		hub.Join(outsider, []uint{8})

		hub.PublishTaskChanged(7, map[string]interface{}{"id": 42})

		for _, client := range []*Client{first, second} {
			event := receive(t, client)
			assert.Equal(t, EventTaskChanged, event.Type)
			assert.Equal(t, uint(7), event.TeamID)
		}
		assertEmpty(t, outsider)
	})

	t.Run("empty room is a no-op", func(t *testing.T) {
		hub := newTestHub()
		hub.PublishTeamChanged(99, nil)
	})

	t.Run("unregistered client receives nothing", func(t *testing.T) {
		hub := newTestHub()
		client := newTestClient(hub, 1)
		hub.Register(client)
		hub.Join(client, []uint{7})
		hub.Unregister(client)

		hub.PublishTaskChanged(7, nil)

		_, open := <-client.send
		assert.False(t, open)
	})
}

func TestHubJoin(t *testing.T) {
	t.Run("joining twice delivers once", func(t *testing.T) {
		hub := newTestHub()
		client := newTestClient(hub, 1)
		hub.Register(client)

		hub.Join(client, []uint{7})
		hub.Join(client, []uint{7, 7})

		hub.PublishTeamChanged(7, nil)

		event := receive(t, client)
		assert.Equal(t, EventTeamChanged, event.Type)
		assertEmpty(t, client)
	})

	t.Run("join before register is ignored", func(t *testing.T) {
		hub := newTestHub()
		client := newTestClient(hub, 1)

		hub.Join(client, []uint{7})
		hub.PublishTeamChanged(7, nil)
		assertEmpty(t, client)
	})
}

func TestHubRelay(t *testing.T) {
	hub := newTestHub()
	origin := newTestClient(hub, 1)
	peer := newTestClient(hub, 2)
	hub.Register(origin)
	hub.Register(peer)
	hub.Join(origin, []uint{7})
	hub.Join(peer, []uint{7})

	hub.relay(Event{Type: EventTaskChanged, TeamID: 7}, origin)

	event := receive(t, peer)
	assert.Equal(t, EventTaskChanged, event.Type)
	assertEmpty(t, origin)
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := newTestHub()
	slow := newTestClient(hub, 1)
	slow.send = make(chan []byte, 1)
	hub.Register(slow)
	hub.Join(slow, []uint{7})

	hub.PublishTaskChanged(7, nil)
	hub.PublishTaskChanged(7, nil)

	hub.mu.RLock()
	_, registered := hub.clients[slow]
	hub.mu.RUnlock()
	assert.False(t, registered)
}
