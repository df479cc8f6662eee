package websocket

import (
	"medichain-be/pkg/rag/session"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// Upgrade rejects plain HTTP requests on the socket route.
func Upgrade(ctx *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(ctx) {
		return ctx.Next()
	}
	return fiber.ErrUpgradeRequired
}

// ChatHandler serves /ws/chat?session_id=...
func ChatHandler(hub *Hub, asker Asker) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		ServeWs(hub, c, asker, session.NormalizeID(c.Query("session_id")))
	})
}

// ServeWs handles websocket requests from the peer.
func ServeWs(hub *Hub, c *websocket.Conn, asker Asker, sessionID string) {
	client := &Client{Hub: hub, Conn: c, SessionID: sessionID, Send: make(chan []byte, 16), asker: asker}
	if !hub.Register(client) {
		c.Close()
		return
	}

	go client.writePump()
	client.readPump()
}
