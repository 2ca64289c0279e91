/*
Package chat contains the core logic of the realtime gateway.

This file defines the Gateway, which orchestrates the other components: it
registers authenticated connections in the Registry, routes inbound events to
store operations, and fans resulting state changes out to the correct subset of
connected clients. Delivery is always scoped to the participant list fetched
from the store at send time, never to a cached roster, so a message can never
reach a non-participant and a stale delivery-group entry can never leak.
*/
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/zechsoft/global-backfinal-sub000/internal/app/store"
	"github.com/zechsoft/global-backfinal-sub000/internal/pkg/errs"
	"github.com/zechsoft/global-backfinal-sub000/internal/pkg/logx"
)

// storeTimeout bounds every store call made from an event handler, so a hung
// persistence call surfaces as an error event instead of a stuck operation.
const storeTimeout = 5 * time.Second

// Store is the persistence surface the gateway needs. Implemented by
// *store.Store; tests substitute an in-memory fake.
type Store interface {
	GetConversation(ctx context.Context, id string) (*store.Conversation, error)
	GetRoom(ctx context.Context, id string) (*store.Room, error)
	AppendConversationMessage(ctx context.Context, conversationID, senderID, content string) (*store.Message, error)
	AppendRoomMessage(ctx context.Context, roomID, senderID, content string) (*store.Message, error)
}

// Gateway accepts authenticated connections and routes their events.
type Gateway struct {
	store    Store
	registry *Registry
	logger   zerolog.Logger
}

// NewGateway constructs a Gateway with its own injected Registry.
func NewGateway(st Store, registry *Registry) *Gateway {
	return &Gateway{
		store:    st,
		registry: registry,
		logger:   logx.Logger().With().Str("component", "Gateway").Logger(),
	}
}

// Registry exposes the gateway's presence/membership registry.
func (g *Gateway) Registry() *Registry {
	return g.registry
}

// HandleConnect registers a freshly authenticated connection. The previous
// connection for the same user, if any, is kicked (last-connect-wins), and the
// updated online-user list is broadcast to everyone.
func (g *Gateway) HandleConnect(c *Client) {
	if replaced := g.registry.Register(c); replaced != nil {
		replaced.Kick(errs.NewError(errs.ErrSessionReplaced).Message)
	}

	g.logger.Info().Str("user_id", c.user.ID).Msg("Client connected and registered.")

	g.broadcastOnlineUsers()
}

// handleDisconnect tears down a closing connection: presence entry removed,
// every joined room notified of the departure, membership entry dropped, and
// the refreshed online-user list broadcast. A stale connection (one already
// replaced by a newer one for the same user) is ignored entirely.
func (g *Gateway) handleDisconnect(c *Client) {
	if !g.registry.Unregister(c) {
		g.logger.Info().Str("user_id", c.user.ID).Msg("Ignoring disconnect for stale connection.")
		return
	}

	for _, key := range g.registry.MembershipKeys(c.user.ID) {
		if roomID, ok := strings.CutPrefix(key, roomKeyPrefix); ok {
			g.notifyRoomMembers(c, roomID, EventUserLeft)
		}
	}

	g.registry.ClearMembership(c.user.ID)

	g.logger.Info().Str("user_id", c.user.ID).Msg("Client disconnected and cleaned up.")

	g.broadcastOnlineUsers()
}

// dispatch routes one inbound frame to its handler. Each event is validated and
// handled independently: a failure is reported back to the initiating
// connection only and never tears down the connection or the process.
func (g *Gateway) dispatch(c *Client, frame []byte) {
	defer func() {
		if rec := recover(); rec != nil {
			g.logger.Error().
				Str("user_id", c.user.ID).
				Interface("panic", rec).
				Msg("Recovered from panic in event handler.")
			c.sendError(errs.NewError(errs.ErrUnknown).Message)
		}
	}()

	var inbound struct {
		Type    EventType       `json:"type"`
		Payload json.RawMessage `json:"payload,omitempty"`
	}

	if err := json.Unmarshal(frame, &inbound); err != nil {
		c.logger.Warn().Err(err).Bytes("frame", frame).Msg("Client sent invalid JSON")
		return
	}

	switch inbound.Type {
	case EventAddUser:
		g.handleAddUser(c)

	case EventJoinConversation:
		g.handleJoinConversation(c, inbound.Payload)

	case EventJoinRoom:
		g.handleJoinRoom(c, inbound.Payload)

	case EventLeaveConversation:
		g.handleLeaveConversation(c, inbound.Payload)

	case EventLeaveRoom:
		g.handleLeaveRoom(c, inbound.Payload)

	case EventSendPrivateMessage:
		g.handleSendPrivateMessage(c, inbound.Payload)

	case EventSendRoomMessage:
		g.handleSendRoomMessage(c, inbound.Payload)

	case EventTypingStart:
		g.handleTyping(c, inbound.Payload, true)

	case EventTypingStop:
		g.handleTyping(c, inbound.Payload, false)

	case EventMarkMessagesRead:
		g.handleMarkMessagesRead(c, inbound.Payload)

	default:
		c.logger.Warn().Str("event", string(inbound.Type)).Msg("Client sent unsupported event type")
	}
}

// storeCtx returns a bounded context for a single store call.
func storeCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), storeTimeout)
}

// handleAddUser re-registers the presence entry for legacy clients that emit an
// explicit add-user after connecting. Registration already happened at
// handshake time, so this only re-broadcasts the online list.
func (g *Gateway) handleAddUser(c *Client) {
	g.registry.Register(c)
	g.broadcastOnlineUsers()
}

// handleJoinConversation verifies the conversation exists and the caller
// participates in it, then records the membership for disconnect cleanup.
func (g *Gateway) handleJoinConversation(c *Client, raw json.RawMessage) {
	var payload JoinConversationPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.ConversationID == "" {
		c.sendError(errs.NewError(errs.ErrInvalidParams).Message)
		return
	}

	ctx, cancel := storeCtx()
	defer cancel()

	conv, err := g.store.GetConversation(ctx, payload.ConversationID)
	if err != nil {
		c.sendError(g.conversationErrMessage(err))
		return
	}

	if !conv.HasParticipant(c.user.ID) {
		c.sendError(errs.NewError(errs.ErrNotParticipant).Message)
		return
	}

	g.registry.Track(c.user.ID, ConversationKey(conv.ID))
}

// handleJoinRoom verifies the room exists and the caller participates in it,
// records the membership, and notifies the other room members of the join.
func (g *Gateway) handleJoinRoom(c *Client, raw json.RawMessage) {
	var payload JoinRoomPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.RoomID == "" {
		c.sendError(errs.NewError(errs.ErrInvalidParams).Message)
		return
	}

	ctx, cancel := storeCtx()
	defer cancel()

	room, err := g.store.GetRoom(ctx, payload.RoomID)
	if err != nil {
		c.sendError(g.roomErrMessage(err))
		return
	}

	if !room.HasParticipant(c.user.ID) {
		c.sendError(errs.NewError(errs.ErrNotParticipant).Message)
		return
	}

	g.registry.Track(c.user.ID, RoomKey(room.ID))

	g.fanOut(room.ParticipantIDs(), c.user.ID, EventUserJoined, UserEventPayload{
		UserID:   c.user.ID,
		UserName: c.user.DisplayName,
		RoomID:   room.ID,
	})
}

// handleLeaveConversation drops the membership entry. No error path: leaving
// something never joined is a no-op.
func (g *Gateway) handleLeaveConversation(c *Client, raw json.RawMessage) {
	var payload JoinConversationPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.ConversationID == "" {
		return
	}

	g.registry.Untrack(c.user.ID, ConversationKey(payload.ConversationID))
}

// handleLeaveRoom drops the membership entry and notifies the remaining room
// members. Failures are silent toward the caller.
func (g *Gateway) handleLeaveRoom(c *Client, raw json.RawMessage) {
	var payload JoinRoomPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.RoomID == "" {
		return
	}

	g.registry.Untrack(c.user.ID, RoomKey(payload.RoomID))

	g.notifyRoomMembers(c, payload.RoomID, EventUserLeft)
}

// handleSendPrivateMessage validates, persists, and fans out a conversation
// message. On any failure the caller gets a message-error carrying its tempId.
func (g *Gateway) handleSendPrivateMessage(c *Client, raw json.RawMessage) {
	var payload SendPrivateMessagePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		c.sendMessageError("", errs.NewError(errs.ErrInvalidParams).Message)
		return
	}

	if payload.ConversationID == "" || payload.Content == "" {
		c.sendMessageError(payload.TempID, errs.NewError(errs.ErrEmptyContent).Message)
		return
	}

	if len(payload.Content) > MaxContentBytes {
		c.sendMessageError(payload.TempID, errs.NewError(errs.ErrMessageContentTooLong).Message)
		return
	}

	ctx, cancel := storeCtx()
	defer cancel()

	conv, err := g.store.GetConversation(ctx, payload.ConversationID)
	if err != nil {
		c.sendMessageError(payload.TempID, g.conversationErrMessage(err))
		return
	}

	if !conv.HasParticipant(c.user.ID) {
		c.sendMessageError(payload.TempID, errs.NewError(errs.ErrNotParticipant).Message)
		return
	}

	msg, err := g.store.AppendConversationMessage(ctx, conv.ID, c.user.ID, payload.Content)
	if err != nil {
		g.logger.Error().Err(err).Str("conversation_id", conv.ID).Msg("Failed to persist private message.")
		c.sendMessageError(payload.TempID, errs.NewError(errs.ErrPersistence).Message)
		return
	}

	// Delivery scope: the participant list fetched from the store at send time.
	// The sender is included so it receives the authoritative echo.
	g.fanOut(conv.ParticipantIDs(), "", EventReceivePrivateMessage, PrivateMessagePayload{
		ConversationID: conv.ID,
		Message:        msg,
		TempID:         payload.TempID,
	})

	g.pushConversationUpdate(conv.ID)
}

// handleSendRoomMessage validates, persists, and fans out a room message.
func (g *Gateway) handleSendRoomMessage(c *Client, raw json.RawMessage) {
	var payload SendRoomMessagePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		c.sendMessageError("", errs.NewError(errs.ErrInvalidParams).Message)
		return
	}

	if payload.RoomID == "" || payload.Content == "" {
		c.sendMessageError(payload.TempID, errs.NewError(errs.ErrEmptyContent).Message)
		return
	}

	if len(payload.Content) > MaxContentBytes {
		c.sendMessageError(payload.TempID, errs.NewError(errs.ErrMessageContentTooLong).Message)
		return
	}

	ctx, cancel := storeCtx()
	defer cancel()

	room, err := g.store.GetRoom(ctx, payload.RoomID)
	if err != nil {
		c.sendMessageError(payload.TempID, g.roomErrMessage(err))
		return
	}

	if !room.HasParticipant(c.user.ID) {
		c.sendMessageError(payload.TempID, errs.NewError(errs.ErrNotParticipant).Message)
		return
	}

	msg, err := g.store.AppendRoomMessage(ctx, room.ID, c.user.ID, payload.Content)
	if err != nil {
		g.logger.Error().Err(err).Str("room_id", room.ID).Msg("Failed to persist room message.")
		c.sendMessageError(payload.TempID, errs.NewError(errs.ErrPersistence).Message)
		return
	}

	g.fanOut(room.ParticipantIDs(), "", EventReceiveRoomMessage, RoomMessagePayload{
		RoomID:  room.ID,
		Message: msg,
		TempID:  payload.TempID,
	})

	g.pushRoomUpdate(room.ID)
}

// handleTyping broadcasts a typing notification to the other members of the
// target conversation or room. The target is exactly one of the two; the
// notification never reaches the sender or anyone outside the persisted
// participant list.
func (g *Gateway) handleTyping(c *Client, raw json.RawMessage, started bool) {
	payload, ok := g.parseTarget(c, raw)
	if !ok {
		return
	}

	eventType := EventUserTyping
	if !started {
		eventType = EventUserStoppedTyping
	}

	participants, ok := g.targetParticipants(payload)
	if !ok {
		return
	}

	g.fanOut(participants, c.user.ID, eventType, TypingEventPayload{
		UserID:         c.user.ID,
		UserName:       c.user.DisplayName,
		ConversationID: payload.ConversationID,
		RoomID:         payload.RoomID,
	})
}

// handleMarkMessagesRead broadcasts a read receipt to the other members of the
// target conversation or room.
func (g *Gateway) handleMarkMessagesRead(c *Client, raw json.RawMessage) {
	payload, ok := g.parseTarget(c, raw)
	if !ok {
		return
	}

	participants, ok := g.targetParticipants(payload)
	if !ok {
		return
	}

	g.fanOut(participants, c.user.ID, EventMessagesRead, MessagesReadPayload{
		UserID:         c.user.ID,
		ConversationID: payload.ConversationID,
		RoomID:         payload.RoomID,
	})
}

// parseTarget decodes a conversation-XOR-room payload. Invalid targets are
// dropped silently, matching the no-error contract of typing/read events.
func (g *Gateway) parseTarget(c *Client, raw json.RawMessage) (TargetPayload, bool) {
	var payload TargetPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return payload, false
	}

	hasConversation := payload.ConversationID != ""
	hasRoom := payload.RoomID != ""
	if hasConversation == hasRoom {
		c.logger.Warn().Msg("Target payload must address exactly one of conversation or room.")
		return payload, false
	}

	return payload, true
}

// targetParticipants resolves the persisted participant list of the target.
func (g *Gateway) targetParticipants(payload TargetPayload) ([]string, bool) {
	ctx, cancel := storeCtx()
	defer cancel()

	if payload.ConversationID != "" {
		conv, err := g.store.GetConversation(ctx, payload.ConversationID)
		if err != nil {
			return nil, false
		}
		return conv.ParticipantIDs(), true
	}

	room, err := g.store.GetRoom(ctx, payload.RoomID)
	if err != nil {
		return nil, false
	}
	return room.ParticipantIDs(), true
}

// pushConversationUpdate sends the refreshed conversation (with its updated
// last-message summary) to every connected participant.
func (g *Gateway) pushConversationUpdate(conversationID string) {
	ctx, cancel := storeCtx()
	defer cancel()

	conv, err := g.store.GetConversation(ctx, conversationID)
	if err != nil {
		g.logger.Error().Err(err).Str("conversation_id", conversationID).Msg("Failed to load conversation for update push.")
		return
	}

	g.fanOut(conv.ParticipantIDs(), "", EventConversationUpdated, conv)
}

// pushRoomUpdate sends the refreshed room to every connected participant.
func (g *Gateway) pushRoomUpdate(roomID string) {
	ctx, cancel := storeCtx()
	defer cancel()

	room, err := g.store.GetRoom(ctx, roomID)
	if err != nil {
		g.logger.Error().Err(err).Str("room_id", roomID).Msg("Failed to load room for update push.")
		return
	}

	g.fanOut(room.ParticipantIDs(), "", EventRoomUpdated, room)
}

// notifyRoomMembers tells the other members of a room that the client joined or
// left. Used by leave-room and disconnect cleanup; lookup failures only log.
func (g *Gateway) notifyRoomMembers(c *Client, roomID string, eventType EventType) {
	ctx, cancel := storeCtx()
	defer cancel()

	room, err := g.store.GetRoom(ctx, roomID)
	if err != nil {
		g.logger.Warn().Err(err).Str("room_id", roomID).Msg("Failed to load room for member notification.")
		return
	}

	g.fanOut(room.ParticipantIDs(), c.user.ID, eventType, UserEventPayload{
		UserID:   c.user.ID,
		UserName: c.user.DisplayName,
		RoomID:   room.ID,
	})
}

// fanOut delivers one event to the connections of the given participants,
// resolving each through the presence registry. A participant with no active
// connection is skipped, and one full send queue never blocks delivery to the
// remaining participants. excludeUserID (when non-empty) is left out, which is
// how sender-excluded broadcasts are built.
func (g *Gateway) fanOut(participantIDs []string, excludeUserID string, eventType EventType, payload any) {
	frame, err := json.Marshal(Event{Type: eventType, Payload: payload})
	if err != nil {
		g.logger.Error().Err(err).Str("event", string(eventType)).Msg("Error marshaling event for fan-out.")
		return
	}

	for _, id := range participantIDs {
		if id == excludeUserID {
			continue
		}

		client := g.registry.Get(id)
		if client == nil {
			continue
		}

		client.queue(frame)
	}
}

// broadcastOnlineUsers sends the full list of online user ids to every connection.
func (g *Gateway) broadcastOnlineUsers() {
	frame, err := json.Marshal(Event{Type: EventOnlineUsers, Payload: g.registry.OnlineUserIDs()})
	if err != nil {
		g.logger.Error().Err(err).Msg("Error marshaling online-users event.")
		return
	}

	for _, client := range g.registry.Clients() {
		client.queue(frame)
	}
}

// Shutdown closes every active connection. New connections are expected to be
// refused upstream (the HTTP server has stopped accepting) before this runs.
func (g *Gateway) Shutdown() {
	g.logger.Info().Msg("Shutting down gateway, closing active connections...")

	for _, client := range g.registry.Clients() {
		client.Close()
	}

	g.logger.Info().Msg("Gateway shutdown complete.")
}

// conversationErrMessage maps a store error from a conversation lookup to a
// client-facing message.
func (g *Gateway) conversationErrMessage(err error) string {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return errs.NewError(errs.ErrConversationNotFound).Message
	case errors.Is(err, store.ErrInvalidID):
		return errs.NewError(errs.ErrInvalidParams).Message
	default:
		g.logger.Error().Err(err).Msg("Conversation lookup failed.")
		return errs.NewError(errs.ErrPersistence).Message
	}
}

// roomErrMessage maps a store error from a room lookup to a client-facing message.
func (g *Gateway) roomErrMessage(err error) string {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return errs.NewError(errs.ErrRoomNotFound).Message
	case errors.Is(err, store.ErrInvalidID):
		return errs.NewError(errs.ErrInvalidParams).Message
	default:
		g.logger.Error().Err(err).Msg("Room lookup failed.")
		return errs.NewError(errs.ErrPersistence).Message
	}
}