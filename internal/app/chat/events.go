/*
Package chat contains the core logic of the realtime gateway: authenticated
connections, presence and membership tracking, and store-scoped message fan-out.

This file defines the closed set of event types exchanged with clients and the
payload shape associated with each one. Inbound frames are `{type, payload}`
envelopes; every inbound type is handled explicitly by the gateway dispatcher.
*/
package chat

import (
	"github.com/zechsoft/global-backfinal-sub000/internal/app/store"
)

// EventType names a WebSocket event. The sets below are closed: the dispatcher
// rejects anything outside the inbound set, and the server emits nothing
// outside the outbound set.
type EventType string

// Client -> server events.
const (
	EventAddUser            EventType = "add-user"
	EventJoinConversation   EventType = "join-conversation"
	EventJoinRoom           EventType = "join-room"
	EventLeaveConversation  EventType = "leave-conversation"
	EventLeaveRoom          EventType = "leave-room"
	EventSendPrivateMessage EventType = "send-private-message"
	EventSendRoomMessage    EventType = "send-room-message"
	EventTypingStart        EventType = "typing-start"
	EventTypingStop         EventType = "typing-stop"
	EventMarkMessagesRead   EventType = "mark-messages-read"
)

// Server -> client events.
const (
	EventOnlineUsers           EventType = "online-users"
	EventReceivePrivateMessage EventType = "receive-private-message"
	EventConversationUpdated   EventType = "conversation-updated"
	EventReceiveRoomMessage    EventType = "receive-room-message"
	EventRoomUpdated           EventType = "room-updated"
	EventUserJoined            EventType = "user-joined"
	EventUserLeft              EventType = "user-left"
	EventUserTyping            EventType = "user-typing"
	EventUserStoppedTyping     EventType = "user-stopped-typing"
	EventMessagesRead          EventType = "messages-read"
	EventError                 EventType = "error"
	EventMessageError          EventType = "message-error"
)

// Event is the wire envelope for both directions.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload,omitempty"`
}

// JoinConversationPayload asks to join a conversation's delivery group.
type JoinConversationPayload struct {
	ConversationID string `json:"conversationId"`
}

// JoinRoomPayload asks to join a room's delivery group.
type JoinRoomPayload struct {
	RoomID string `json:"roomId"`
}

// SendPrivateMessagePayload carries a message for a two-party conversation.
// TempID is the client-generated correlation id echoed back for optimistic-UI
// reconciliation.
type SendPrivateMessagePayload struct {
	ConversationID string `json:"conversationId"`
	Content        string `json:"content"`
	TempID         string `json:"tempId"`
}

// SendRoomMessagePayload carries a message for a multi-party room.
type SendRoomMessagePayload struct {
	RoomID  string `json:"roomId"`
	Content string `json:"content"`
	TempID  string `json:"tempId"`
}

// TargetPayload addresses exactly one of a conversation or a room. Used by the
// typing and read-receipt events.
type TargetPayload struct {
	ConversationID string `json:"conversationId,omitempty"`
	RoomID         string `json:"roomId,omitempty"`
}

// PrivateMessagePayload is pushed to every connected conversation participant
// after a successful append.
type PrivateMessagePayload struct {
	ConversationID string         `json:"conversationId"`
	Message        *store.Message `json:"message"`
	TempID         string         `json:"tempId,omitempty"`
}

// RoomMessagePayload is pushed to every connected room participant after a
// successful append.
type RoomMessagePayload struct {
	RoomID  string         `json:"roomId"`
	Message *store.Message `json:"message"`
	TempID  string         `json:"tempId,omitempty"`
}

// UserEventPayload announces a user joining or leaving a room.
type UserEventPayload struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName,omitempty"`
	RoomID   string `json:"roomId"`
}

// TypingEventPayload notifies the other members of a conversation or room that
// a user started or stopped typing.
type TypingEventPayload struct {
	UserID         string `json:"userId"`
	UserName       string `json:"userName,omitempty"`
	ConversationID string `json:"conversationId,omitempty"`
	RoomID         string `json:"roomId,omitempty"`
}

// MessagesReadPayload notifies the other members that a user read the thread.
type MessagesReadPayload struct {
	UserID         string `json:"userId"`
	ConversationID string `json:"conversationId,omitempty"`
	RoomID         string `json:"roomId,omitempty"`
}

// ErrorPayload reports a failed operation to the initiating connection only.
type ErrorPayload struct {
	Message string `json:"message"`
}

// MessageErrorPayload reports a failed send so the client can mark its
// optimistic message as failed and offer a retry.
type MessageErrorPayload struct {
	TempID string `json:"tempId"`
	Error  string `json:"error"`
}

// Membership keys disambiguate conversation and room entries in the tracker.
const (
	conversationKeyPrefix = "conversation-"
	roomKeyPrefix         = "room-"
)

// ConversationKey builds the membership-tracker key for a conversation.
func ConversationKey(id string) string {
	return conversationKeyPrefix + id
}

// RoomKey builds the membership-tracker key for a room.
func RoomKey(id string) string {
	return roomKeyPrefix + id
}
