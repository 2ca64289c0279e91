/*
Package store provides durable persistence for conversations, chat rooms, and their
messages on PostgreSQL.

It is the sole authority on participant membership: every authorization check in the
gateway and the REST API reads persisted state through this package, never a cache.
*/
package store

import (
	"errors"
	"time"

	"github.com/zechsoft/global-backfinal-sub000/internal/app/user"
)

// Sentinel errors returned by store operations. Callers map these to the
// application error taxonomy.
var (
	// ErrNotFound indicates that the requested conversation, room, or user does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrDuplicateName indicates that a room with the requested name already exists.
	ErrDuplicateName = errors.New("store: room name already exists")

	// ErrAlreadyMember indicates that the user already participates in the room.
	ErrAlreadyMember = errors.New("store: already a member")

	// ErrNotMember indicates that the user does not participate in the room.
	ErrNotMember = errors.New("store: not a member")

	// ErrInvalidID indicates that a supplied identifier is not a valid UUID.
	ErrInvalidID = errors.New("store: invalid id")
)

// Message is a single chat message. Messages are append-only; the database
// sequence number (not the timestamp) is the authoritative ordering within a
// conversation or room.
type Message struct {
	ID        string    `json:"id"`
	Sender    user.User `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// LastMessage is the denormalized summary of the most recent message in a
// conversation, maintained by the send operation.
type LastMessage struct {
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is a private two-party message thread. Participants always has
// exactly two entries and is unique per unordered pair of users.
type Conversation struct {
	ID           string       `json:"id"`
	Participants []user.User  `json:"participants"`
	LastMessage  *LastMessage `json:"lastMessage,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// ParticipantIDs returns the user ids of the conversation's two participants.
func (c *Conversation) ParticipantIDs() []string {
	ids := make([]string, 0, len(c.Participants))
	for _, p := range c.Participants {
		ids = append(ids, p.ID)
	}
	return ids
}

// HasParticipant reports whether the given user participates in the conversation.
func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}

// Room is a named multi-party message thread with explicit join/leave.
// The creator is automatically a participant at creation and the name is
// globally unique.
type Room struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	CreatedBy    string      `json:"createdBy"`
	Participants []user.User `json:"participants"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// ParticipantIDs returns the user ids of all room participants in join order.
func (r *Room) ParticipantIDs() []string {
	ids := make([]string, 0, len(r.Participants))
	for _, p := range r.Participants {
		ids = append(ids, p.ID)
	}
	return ids
}

// HasParticipant reports whether the given user participates in the room.
func (r *Room) HasParticipant(userID string) bool {
	for _, p := range r.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}

// RoomSummary is the list-view projection of a room, without the full
// participant roster.
type RoomSummary struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	CreatedBy        string    `json:"createdBy"`
	ParticipantCount int       `json:"participantCount"`
	CreatedAt        time.Time `json:"createdAt"`
}
