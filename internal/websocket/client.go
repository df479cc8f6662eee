package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"medichain-be/internal/dto"
	"medichain-be/internal/pkg/serverutils"
	"medichain-be/pkg/apperror"
	"medichain-be/pkg/rag/session"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
	askTimeout     = 3 * time.Minute
)

// Asker answers one chat question.
type Asker interface {
	Ask(ctx context.Context, request *dto.AskRequest) (*dto.AskResponse, error)
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	Hub *Hub

	Conn *websocket.Conn

	// SessionID the socket was opened for
	SessionID string

	// Buffered channel of outbound messages.
	Send chan []byte

	asker  Asker
	mu     sync.Mutex
	closed bool
}

func (c *Client) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// readPump reads question frames and answers them in order.
func (c *Client) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("WEBSOCKET", "Unexpected close", map[string]interface{}{
					"session_id": c.SessionID,
					"error":      err.Error(),
				})
			}
			break
		}

		ctx, cancel := context.WithTimeout(context.Background(), askTimeout)
		sessionID, reply := answer(ctx, c.asker, c.SessionID, raw)
		cancel()

		if sessionID == c.SessionID {
			c.Hub.Publish(context.Background(), sessionID, reply)
		} else if !c.enqueue(reply) {
			break
		}
	}
}

// answer handles one inbound frame. The returned session id is the one the
// reply belongs to.
func answer(ctx context.Context, asker Asker, defaultSession string, raw []byte) (string, []byte) {
	var req dto.SocketRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return defaultSession, mustJSON(dto.SocketError{SessionId: defaultSession, Error: "malformed frame"})
	}
	if req.SessionId == "" {
		req.SessionId = defaultSession
	}
	req.SessionId = session.NormalizeID(req.SessionId)

	res, err := asker.Ask(ctx, &dto.AskRequest{SessionId: req.SessionId, Query: req.Query})
	if err != nil {
		_, msg := serverutils.ClientMessage(err)
		return req.SessionId, mustJSON(dto.SocketError{
			SessionId: req.SessionId,
			Error:     msg,
			Retryable: apperror.IsRetryable(err),
		})
	}
	return req.SessionId, mustJSON(res)
}

func mustJSON(v interface{}) []byte {
	b, _ := json.Marshal(v)
	return b
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
