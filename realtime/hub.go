package realtime

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"
)

const (
	EventTaskChanged = "task-changed"
	EventTeamChanged = "team-changed"
)

// Event is the envelope broadcast to team room subscribers.
type Event struct {
	Type    string      `json:"type"`
	TeamID  uint        `json:"team_id"`
	Payload interface{} `json:"payload"`
}

// Hub tracks connected clients and their team room subscriptions, and
// fans events out to room members. Sends never block; a client whose
// buffer is full is dropped.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]map[uint]struct{}
	rooms   map[uint]map[*Client]struct{}
	logger  *logrus.Entry
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]map[uint]struct{}),
		rooms:   make(map[uint]map[*Client]struct{}),
		logger:  logger.WithField("component", "realtime-hub"),
	}
}

// Register adds a client with no subscriptions.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client] = make(map[uint]struct{})
	h.mu.Unlock()

	h.logger.WithField("user_id", client.userID).Debug("client connected")
}

// Unregister removes the client from every room and closes its send
// channel. Safe to call more than once.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	teams, ok := h.clients[client]
	if ok {
		for teamID := range teams {
			delete(h.rooms[teamID], client)
			if len(h.rooms[teamID]) == 0 {
				delete(h.rooms, teamID)
			}
		}
		delete(h.clients, client)
		close(client.send)
	}
	h.mu.Unlock()

	if ok {
		h.logger.WithField("user_id", client.userID).Debug("client disconnected")
	}
}

// Join subscribes the client to the given team rooms. Joining a room
// the client is already in is a no-op.
func (h *Hub) Join(client *Client, teamIDs []uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	teams, ok := h.clients[client]
	if !ok {
		return
	}
	for _, teamID := range teamIDs {
		teams[teamID] = struct{}{}
		if h.rooms[teamID] == nil {
			h.rooms[teamID] = make(map[*Client]struct{})
		}
		h.rooms[teamID][client] = struct{}{}
	}
}

// Publish sends the event to every subscriber of its team room.
func (h *Hub) Publish(event Event) {
	h.deliver(event, nil)
}

// relay sends the event to the team room, excluding the origin client.
func (h *Hub) relay(event Event, origin *Client) {
	h.deliver(event, origin)
}

func (h *Hub) deliver(event Event, exclude *Client) {
	message, err := json.Marshal(event)
	if err != nil {
		h.logger.WithError(err).Error("failed to encode event")
		return
	}

	var dead []*Client
	h.mu.RLock()
	for client := range h.rooms[event.TeamID] {
		if client == exclude {
			continue
		}
		select {
		case client.send <- message:
		default:
			dead = append(dead, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range dead {
		h.logger.WithField("user_id", client.userID).Warn("dropping slow client")
		h.Unregister(client)
	}
}

// PublishTaskChanged implements the broadcaster seam used by the
// task service.
func (h *Hub) PublishTaskChanged(teamID uint, payload interface{}) {
	h.Publish(Event{Type: EventTaskChanged, TeamID: teamID, Payload: payload})
}

// PublishTeamChanged implements the broadcaster seam used by the
// team service.
func (h *Hub) PublishTeamChanged(teamID uint, payload interface{}) {
	h.Publish(Event{Type: EventTeamChanged, TeamID: teamID, Payload: payload})
}
