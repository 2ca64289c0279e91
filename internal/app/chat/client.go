/*
Package chat contains the core logic of the realtime gateway.

This file defines the Client struct, representing an active WebSocket connection
with its resolved identity attached. It manages the connection lifecycle and the
message communication loops (ReadPump and WritePump).
*/
package chat

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/zechsoft/global-backfinal-sub000/internal/app/user"
	"github.com/zechsoft/global-backfinal-sub000/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a frame sent by the client.
	maxMessageSize = 8192

	// MaxContentBytes is the maximum allowed size (in bytes) for message content.
	MaxContentBytes = 5000

	// WsCloseCodeSessionReplaced is a custom WebSocket Close Code (4000-4999 range)
	// used to signal the client that the session was replaced by a new connection.
	WsCloseCodeSessionReplaced = 4001
)

// Client represents an active, authenticated WebSocket connection.
// The identity attached at handshake time is immutable for the connection's lifetime.
type Client struct {
	// the gateway that owns this connection.
	gateway *Gateway

	// underlying WebSocket connection object.
	conn *websocket.Conn

	// resolved identity of the connected user.
	user user.User

	// a buffered channel used to queue messages waiting to be sent to the client.
	send chan []byte

	// closeOnce guards the send channel close so Kick and Close can race safely.
	closeOnce sync.Once

	// structured logger with client context.
	logger zerolog.Logger
}

// NewClient constructs and returns a new Client instance.
func NewClient(gateway *Gateway, wsConn *websocket.Conn, u user.User) *Client {
	clientLogger := logx.Logger().With().
		Str("user_id", u.ID).
		Logger()

	return &Client{
		gateway: gateway,
		conn:    wsConn,
		user:    u,
		send:    make(chan []byte, 256),
		logger:  clientLogger,
	}
}

// User returns the identity attached to the connection.
func (c *Client) User() user.User {
	return c.user
}

// ReadPump handles reading frames from the WebSocket connection.
// It handles heartbeats (Pong), event dispatch, and performs cleanup upon
// connection closure.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (Client close/going away)")
			}
			break
		}

		c.gateway.dispatch(c, frame)
	}
}

// cleanupOnDisconnect handles the necessary cleanup steps when the client's ReadPump terminates.
func (c *Client) cleanupOnDisconnect() {
	c.logger.Info().Msg("Client connection cleanup starting.")

	c.gateway.handleDisconnect(c)

	if err := c.conn.Close(); err != nil {
		c.logger.Error().Err(err).Msg("Client connection close error")
	}
}

// WritePump handles writing messages from the Client.send channel to the WebSocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		// ensure the connection is closed on exit
		if err := c.conn.Close(); err != nil {
			c.logger.Error().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !c.writeQueuedMessage(message, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedMessage handles messages pulled from the send channel, writing them to the WebSocket.
// Returns true if the WritePump loop should continue, false if it should terminate.
func (c *Client) writeQueuedMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			c.logger.Error().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		c.logger.Error().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

// writePingMessage sends a periodic WebSocket Ping message to maintain the connection heartbeat.
// Returns false if the WritePump loop should terminate due to write failure.
func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Error().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}

// sendEvent marshals the event and attempts to queue it on the client's send channel.
func (c *Client) sendEvent(eventType EventType, payload any) error {
	frame, err := json.Marshal(Event{Type: eventType, Payload: payload})
	if err != nil {
		c.logger.Error().Err(err).Str("event", string(eventType)).Msg("Error marshaling event for client")
		return err
	}

	select {
	case c.send <- frame:
		return nil
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Client send channel full, dropping event")
		return fmt.Errorf("client send queue full")
	}
}

// queue attempts a non-blocking push of a pre-marshaled frame to the send channel.
// Used by fan-out so the frame is marshaled once per event, not once per recipient.
func (c *Client) queue(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Client send channel full, dropping frame")
		return false
	}
}

// sendError emits an `error` event to this connection only.
func (c *Client) sendError(message string) {
	if err := c.sendEvent(EventError, ErrorPayload{Message: message}); err != nil {
		c.logger.Error().Err(err).Msg("Failed to queue error event")
	}
}

// sendMessageError emits a `message-error` event carrying the client-supplied
// tempId so the client can mark its optimistic message as failed.
func (c *Client) sendMessageError(tempID, message string) {
	if err := c.sendEvent(EventMessageError, MessageErrorPayload{TempID: tempID, Error: message}); err != nil {
		c.logger.Error().Err(err).Msg("Failed to queue message-error event")
	}
}

// Close shuts the connection down for server shutdown. Closing the send channel
// makes WritePump emit a close frame and terminate, which in turn unblocks
// ReadPump and triggers the normal disconnect cleanup. Frames already queued
// stay readable; WritePump drains them before it sees the close.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// Kick gracefully closes the client's connection by sending a custom WebSocket
// Close Frame (Code 4001) indicating that the session was replaced.
func (c *Client) Kick(reason string) {
	c.logger.Warn().
		Int("close_code", WsCloseCodeSessionReplaced).
		Str("reason", reason).
		Msg("Sending WS Kick message and closing connection.")

	if c.conn != nil {
		closeMessage := websocket.FormatCloseMessage(WsCloseCodeSessionReplaced, reason)

		c.conn.SetWriteDeadline(time.Now().Add(writeWait))

		if err := c.conn.WriteMessage(websocket.CloseMessage, closeMessage); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to send WS 4001 Close Message.")
		}
	}

	c.Close()
}
