package handler

import (
	"context"

	"github.com/zechsoft/global-backfinal-sub000/internal/app/chat"
	"github.com/zechsoft/global-backfinal-sub000/internal/app/identity"
	"github.com/zechsoft/global-backfinal-sub000/internal/app/store"
	"github.com/zechsoft/global-backfinal-sub000/internal/app/user"
	"github.com/zechsoft/global-backfinal-sub000/internal/configs"
)

// Store is the persistence surface the REST handlers need. Implemented by
// *store.Store; tests substitute an in-memory fake.
type Store interface {
	GetUserByID(ctx context.Context, id string) (user.User, error)

	FindOrCreateConversation(ctx context.Context, userA, userB string) (*store.Conversation, error)
	GetConversation(ctx context.Context, id string) (*store.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]*store.Conversation, error)
	ListConversationMessages(ctx context.Context, conversationID string) ([]*store.Message, error)
	AppendConversationMessage(ctx context.Context, conversationID, senderID, content string) (*store.Message, error)

	CreateRoom(ctx context.Context, name, description, creatorID string) (*store.Room, error)
	GetRoom(ctx context.Context, id string) (*store.Room, error)
	ListRooms(ctx context.Context) ([]*store.RoomSummary, error)
	JoinRoom(ctx context.Context, roomID, userID string) error
	LeaveRoom(ctx context.Context, roomID, userID string) error
	ListRoomMessages(ctx context.Context, roomID string) ([]*store.Message, error)
	AppendRoomMessage(ctx context.Context, roomID, senderID, content string) (*store.Message, error)
}

type AppDeps struct {
	Gateway  *chat.Gateway
	Verifier *identity.Verifier
	Store    Store
	Config   *configs.AppConfig
}
