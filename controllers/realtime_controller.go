package controllers

import (
	"github.com/gofiber/websocket/v2"

	"taskflow/models"
	"taskflow/realtime"
)

type RealtimeController struct {
	hub *realtime.Hub
}

func NewRealtimeController(hub *realtime.Hub) *RealtimeController {
	return &RealtimeController{hub: hub}
}

// HandleConnection upgrades an authenticated request into a hub client.
// It blocks on the read pump for the lifetime of the connection.
func (rc *RealtimeController) HandleConnection(conn *websocket.Conn) {
	user, ok := conn.Locals("user").(*models.User)
	if !ok {
		conn.Close()
		return
	}

	client := realtime.NewClient(rc.hub, conn, user.ID)
	rc.hub.Register(client)

	go client.WritePump()
	client.ReadPump()
}
