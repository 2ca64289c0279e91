package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zechsoft/global-backfinal-sub000/internal/app/store"
	"github.com/zechsoft/global-backfinal-sub000/internal/app/user"
)

// fakeStore is an in-memory Store used to exercise the gateway without a database.
type fakeStore struct {
	conversations map[string]*store.Conversation
	rooms         map[string]*store.Room
	appendCalls   int
	failAppend    bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		conversations: make(map[string]*store.Conversation),
		rooms:         make(map[string]*store.Room),
	}
}

func (f *fakeStore) GetConversation(_ context.Context, id string) (*store.Conversation, error) {
	if conv, ok := f.conversations[id]; ok {
		return conv, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) GetRoom(_ context.Context, id string) (*store.Room, error) {
	if room, ok := f.rooms[id]; ok {
		return room, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) AppendConversationMessage(_ context.Context, conversationID, senderID, content string) (*store.Message, error) {
	if f.failAppend {
		return nil, fmt.Errorf("fake append failure")
	}
	f.appendCalls++
	return &store.Message{
		ID:        fmt.Sprintf("msg-%d", f.appendCalls),
		Sender:    user.User{ID: senderID},
		Content:   content,
		Timestamp: time.Now(),
	}, nil
}

func (f *fakeStore) AppendRoomMessage(_ context.Context, roomID, senderID, content string) (*store.Message, error) {
	return f.AppendConversationMessage(nil, roomID, senderID, content)
}

func participants(userIDs ...string) []user.User {
	users := make([]user.User, 0, len(userIDs))
	for _, id := range userIDs {
		users = append(users, user.User{ID: id, DisplayName: id})
	}
	return users
}

// envelope mirrors the wire shape of outbound frames for assertions.
type envelope struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// nextEvent pops one queued frame off the client's send channel.
func nextEvent(t *testing.T, c *Client) envelope {
	t.Helper()

	select {
	case frame := <-c.send:
		var env envelope
		require.NoError(t, json.Unmarshal(frame, &env))
		return env
	default:
		t.Fatal("expected a queued event, got none")
		return envelope{}
	}
}

func assertNoEvent(t *testing.T, c *Client) {
	t.Helper()

	select {
	case frame := <-c.send:
		t.Fatalf("unexpected event queued: %s", frame)
	default:
	}
}

// connect registers a client directly in the gateway's registry, skipping the
// online-users broadcast so tests only see the events they trigger.
func connect(g *Gateway, userID string) *Client {
	c := NewClient(g, nil, user.User{ID: userID, DisplayName: userID})
	g.registry.Register(c)
	return c
}

func frame(t *testing.T, eventType EventType, payload any) []byte {
	t.Helper()

	raw, err := json.Marshal(Event{Type: eventType, Payload: payload})
	require.NoError(t, err)
	return raw
}

// TestHandleConnectBroadcastsOnlineUsers verifies every connection learns the
// full online list when someone connects.
func TestHandleConnectBroadcastsOnlineUsers(t *testing.T) {
	g := NewGateway(newFakeStore(), NewRegistry())

	alice := NewClient(g, nil, user.User{ID: "alice"})
	g.HandleConnect(alice)

	env := nextEvent(t, alice)
	assert.Equal(t, EventOnlineUsers, env.Type)

	var online []string
	require.NoError(t, json.Unmarshal(env.Payload, &online))
	assert.Equal(t, []string{"alice"}, online)

	bob := NewClient(g, nil, user.User{ID: "bob"})
	g.HandleConnect(bob)

	env = nextEvent(t, alice)
	require.NoError(t, json.Unmarshal(env.Payload, &online))
	assert.Equal(t, []string{"alice", "bob"}, online)
}

// TestHandleConnectReplacesSession verifies last-connect-wins: a second
// connection for the same user displaces the first.
func TestHandleConnectReplacesSession(t *testing.T) {
	g := NewGateway(newFakeStore(), NewRegistry())

	first := NewClient(g, nil, user.User{ID: "alice"})
	g.HandleConnect(first)

	second := NewClient(g, nil, user.User{ID: "alice"})
	g.HandleConnect(second)

	assert.Same(t, second, g.registry.Get("alice"))

	// The replaced connection is kicked: its buffered frames stay readable and
	// then its queue is closed, which terminates its WritePump.
	_, open := <-first.send // online-users from the first connect
	assert.True(t, open)
	_, open = <-first.send
	assert.False(t, open)

	// The stale connection's disconnect must not remove the replacement.
	g.handleDisconnect(first)
	assert.Same(t, second, g.registry.Get("alice"))
}

// TestPrivateMessageFanOut verifies a persisted message reaches both connected
// participants (sender included, carrying its tempId) and nobody else.
func TestPrivateMessageFanOut(t *testing.T) {
	fs := newFakeStore()
	fs.conversations["c1"] = &store.Conversation{ID: "c1", Participants: participants("alice", "bob")}

	g := NewGateway(fs, NewRegistry())
	alice := connect(g, "alice")
	bob := connect(g, "bob")
	carol := connect(g, "carol")

	g.dispatch(alice, frame(t, EventSendPrivateMessage, SendPrivateMessagePayload{
		ConversationID: "c1",
		Content:        "hello",
		TempID:         "tmp-1",
	}))

	for _, c := range []*Client{alice, bob} {
		env := nextEvent(t, c)
		assert.Equal(t, EventReceivePrivateMessage, env.Type)

		var payload PrivateMessagePayload
		require.NoError(t, json.Unmarshal(env.Payload, &payload))
		assert.Equal(t, "c1", payload.ConversationID)
		assert.Equal(t, "tmp-1", payload.TempID)
		require.NotNil(t, payload.Message)
		assert.Equal(t, "hello", payload.Message.Content)
		assert.Equal(t, "alice", payload.Message.Sender.ID)

		// Conversation update follows the message.
		env = nextEvent(t, c)
		assert.Equal(t, EventConversationUpdated, env.Type)
	}

	assertNoEvent(t, carol)
	assert.Equal(t, 1, fs.appendCalls)
}

// TestPrivateMessageRejectsNonParticipant verifies outsiders cannot write into
// a conversation: nothing is persisted and only the sender hears about it.
func TestPrivateMessageRejectsNonParticipant(t *testing.T) {
	fs := newFakeStore()
	fs.conversations["c1"] = &store.Conversation{ID: "c1", Participants: participants("alice", "bob")}

	g := NewGateway(fs, NewRegistry())
	bob := connect(g, "bob")
	carol := connect(g, "carol")

	g.dispatch(carol, frame(t, EventSendPrivateMessage, SendPrivateMessagePayload{
		ConversationID: "c1",
		Content:        "sneaky",
		TempID:         "tmp-9",
	}))

	env := nextEvent(t, carol)
	assert.Equal(t, EventMessageError, env.Type)

	var payload MessageErrorPayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, "tmp-9", payload.TempID)

	assertNoEvent(t, bob)
	assert.Zero(t, fs.appendCalls)
}

// TestPrivateMessageValidation verifies empty and oversized content is rejected
// before any store call.
func TestPrivateMessageValidation(t *testing.T) {
	fs := newFakeStore()
	fs.conversations["c1"] = &store.Conversation{ID: "c1", Participants: participants("alice", "bob")}

	g := NewGateway(fs, NewRegistry())
	alice := connect(g, "alice")

	tests := []struct {
		name    string
		content string
	}{
		{"empty content", ""},
		{"oversized content", string(make([]byte, MaxContentBytes+1))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g.dispatch(alice, frame(t, EventSendPrivateMessage, SendPrivateMessagePayload{
				ConversationID: "c1",
				Content:        tt.content,
				TempID:         "tmp-1",
			}))

			env := nextEvent(t, alice)
			assert.Equal(t, EventMessageError, env.Type)
		})
	}

	assert.Zero(t, fs.appendCalls)
}

// TestPrivateMessagePersistenceFailure verifies a failed append surfaces as a
// message-error and nothing is fanned out.
func TestPrivateMessagePersistenceFailure(t *testing.T) {
	fs := newFakeStore()
	fs.failAppend = true
	fs.conversations["c1"] = &store.Conversation{ID: "c1", Participants: participants("alice", "bob")}

	g := NewGateway(fs, NewRegistry())
	alice := connect(g, "alice")
	bob := connect(g, "bob")

	g.dispatch(alice, frame(t, EventSendPrivateMessage, SendPrivateMessagePayload{
		ConversationID: "c1",
		Content:        "hello",
		TempID:         "tmp-1",
	}))

	env := nextEvent(t, alice)
	assert.Equal(t, EventMessageError, env.Type)
	assertNoEvent(t, bob)
}

// TestPrivateMessageSkipsOfflineParticipant verifies delivery silently skips
// participants without an active connection.
func TestPrivateMessageSkipsOfflineParticipant(t *testing.T) {
	fs := newFakeStore()
	fs.conversations["c1"] = &store.Conversation{ID: "c1", Participants: participants("alice", "bob")}

	g := NewGateway(fs, NewRegistry())
	alice := connect(g, "alice")
	// bob stays offline

	g.dispatch(alice, frame(t, EventSendPrivateMessage, SendPrivateMessagePayload{
		ConversationID: "c1",
		Content:        "hello",
		TempID:         "tmp-1",
	}))

	env := nextEvent(t, alice)
	assert.Equal(t, EventReceivePrivateMessage, env.Type)
	assert.Equal(t, 1, fs.appendCalls)
}

// TestRoomMessageFanOut verifies room delivery is scoped to the persisted
// participant list, not to whoever is connected.
func TestRoomMessageFanOut(t *testing.T) {
	fs := newFakeStore()
	fs.rooms["r1"] = &store.Room{ID: "r1", Name: "general", Participants: participants("alice", "bob")}

	g := NewGateway(fs, NewRegistry())
	alice := connect(g, "alice")
	bob := connect(g, "bob")
	carol := connect(g, "carol")

	g.dispatch(alice, frame(t, EventSendRoomMessage, SendRoomMessagePayload{
		RoomID:  "r1",
		Content: "hey all",
		TempID:  "tmp-2",
	}))

	for _, c := range []*Client{alice, bob} {
		env := nextEvent(t, c)
		assert.Equal(t, EventReceiveRoomMessage, env.Type)

		var payload RoomMessagePayload
		require.NoError(t, json.Unmarshal(env.Payload, &payload))
		assert.Equal(t, "r1", payload.RoomID)
		assert.Equal(t, "tmp-2", payload.TempID)

		env = nextEvent(t, c)
		assert.Equal(t, EventRoomUpdated, env.Type)
	}

	assertNoEvent(t, carol)
}

// TestRoomMessageRejectsNonMember verifies a non-member send fails without persisting.
func TestRoomMessageRejectsNonMember(t *testing.T) {
	fs := newFakeStore()
	fs.rooms["r1"] = &store.Room{ID: "r1", Name: "general", Participants: participants("alice", "bob")}

	g := NewGateway(fs, NewRegistry())
	carol := connect(g, "carol")

	g.dispatch(carol, frame(t, EventSendRoomMessage, SendRoomMessagePayload{
		RoomID:  "r1",
		Content: "let me in",
		TempID:  "tmp-3",
	}))

	env := nextEvent(t, carol)
	assert.Equal(t, EventMessageError, env.Type)
	assert.Zero(t, fs.appendCalls)
}

// TestJoinRoomNotifiesMembers verifies joining announces the user to the other
// members and records the membership for disconnect cleanup.
func TestJoinRoomNotifiesMembers(t *testing.T) {
	fs := newFakeStore()
	fs.rooms["r1"] = &store.Room{ID: "r1", Name: "general", Participants: participants("alice", "bob")}

	g := NewGateway(fs, NewRegistry())
	alice := connect(g, "alice")
	bob := connect(g, "bob")

	g.dispatch(alice, frame(t, EventJoinRoom, JoinRoomPayload{RoomID: "r1"}))

	env := nextEvent(t, bob)
	assert.Equal(t, EventUserJoined, env.Type)

	var payload UserEventPayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, "alice", payload.UserID)
	assert.Equal(t, "r1", payload.RoomID)

	assertNoEvent(t, alice)
	assert.Equal(t, []string{RoomKey("r1")}, g.registry.MembershipKeys("alice"))
}

// TestJoinRejectsNonParticipant verifies join attempts against threads the user
// does not belong to fail with an error event and no tracked membership.
func TestJoinRejectsNonParticipant(t *testing.T) {
	fs := newFakeStore()
	fs.conversations["c1"] = &store.Conversation{ID: "c1", Participants: participants("alice", "bob")}
	fs.rooms["r1"] = &store.Room{ID: "r1", Name: "general", Participants: participants("alice", "bob")}

	g := NewGateway(fs, NewRegistry())
	carol := connect(g, "carol")

	g.dispatch(carol, frame(t, EventJoinConversation, JoinConversationPayload{ConversationID: "c1"}))
	env := nextEvent(t, carol)
	assert.Equal(t, EventError, env.Type)

	g.dispatch(carol, frame(t, EventJoinRoom, JoinRoomPayload{RoomID: "r1"}))
	env = nextEvent(t, carol)
	assert.Equal(t, EventError, env.Type)

	assert.Empty(t, g.registry.MembershipKeys("carol"))
}

// TestTypingExcludesSender verifies typing notifications go to the other
// participants only.
func TestTypingExcludesSender(t *testing.T) {
	fs := newFakeStore()
	fs.conversations["c1"] = &store.Conversation{ID: "c1", Participants: participants("alice", "bob")}

	g := NewGateway(fs, NewRegistry())
	alice := connect(g, "alice")
	bob := connect(g, "bob")

	g.dispatch(alice, frame(t, EventTypingStart, TargetPayload{ConversationID: "c1"}))

	env := nextEvent(t, bob)
	assert.Equal(t, EventUserTyping, env.Type)

	var payload TypingEventPayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, "alice", payload.UserID)
	assert.Equal(t, "c1", payload.ConversationID)

	assertNoEvent(t, alice)

	g.dispatch(alice, frame(t, EventTypingStop, TargetPayload{ConversationID: "c1"}))
	env = nextEvent(t, bob)
	assert.Equal(t, EventUserStoppedTyping, env.Type)
}

// TestTypingTargetMustBeExclusive verifies ambiguous or empty targets are dropped.
func TestTypingTargetMustBeExclusive(t *testing.T) {
	fs := newFakeStore()
	fs.conversations["c1"] = &store.Conversation{ID: "c1", Participants: participants("alice", "bob")}
	fs.rooms["r1"] = &store.Room{ID: "r1", Name: "general", Participants: participants("alice", "bob")}

	g := NewGateway(fs, NewRegistry())
	alice := connect(g, "alice")
	bob := connect(g, "bob")

	g.dispatch(alice, frame(t, EventTypingStart, TargetPayload{ConversationID: "c1", RoomID: "r1"}))
	assertNoEvent(t, bob)

	g.dispatch(alice, frame(t, EventTypingStart, TargetPayload{}))
	assertNoEvent(t, bob)
}

// TestMarkMessagesRead verifies read receipts reach the other participants only.
func TestMarkMessagesRead(t *testing.T) {
	fs := newFakeStore()
	fs.rooms["r1"] = &store.Room{ID: "r1", Name: "general", Participants: participants("alice", "bob", "carol")}

	g := NewGateway(fs, NewRegistry())
	alice := connect(g, "alice")
	bob := connect(g, "bob")

	g.dispatch(alice, frame(t, EventMarkMessagesRead, TargetPayload{RoomID: "r1"}))

	env := nextEvent(t, bob)
	assert.Equal(t, EventMessagesRead, env.Type)

	var payload MessagesReadPayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, "alice", payload.UserID)
	assert.Equal(t, "r1", payload.RoomID)

	assertNoEvent(t, alice)
}

// TestDisconnectCleanup verifies disconnect notifies joined rooms, clears the
// membership entry, and rebroadcasts the online list.
func TestDisconnectCleanup(t *testing.T) {
	fs := newFakeStore()
	fs.rooms["r1"] = &store.Room{ID: "r1", Name: "general", Participants: participants("alice", "bob")}

	g := NewGateway(fs, NewRegistry())
	alice := connect(g, "alice")
	bob := connect(g, "bob")

	g.registry.Track("alice", RoomKey("r1"))
	g.registry.Track("alice", ConversationKey("c1"))

	g.handleDisconnect(alice)

	env := nextEvent(t, bob)
	assert.Equal(t, EventUserLeft, env.Type)

	env = nextEvent(t, bob)
	assert.Equal(t, EventOnlineUsers, env.Type)

	var online []string
	require.NoError(t, json.Unmarshal(env.Payload, &online))
	assert.Equal(t, []string{"bob"}, online)

	assert.Nil(t, g.registry.Get("alice"))
	assert.Empty(t, g.registry.MembershipKeys("alice"))
}

// TestDispatchMalformedFrames verifies invalid JSON and unknown event types are
// dropped without panicking or emitting events.
func TestDispatchMalformedFrames(t *testing.T) {
	g := NewGateway(newFakeStore(), NewRegistry())
	alice := connect(g, "alice")

	g.dispatch(alice, []byte("not json at all"))
	assertNoEvent(t, alice)

	g.dispatch(alice, frame(t, EventType("definitely-unknown"), nil))
	assertNoEvent(t, alice)
}

// TestLeaveRoomNotifiesMembers verifies leaving drops the membership and tells
// the remaining members.
func TestLeaveRoomNotifiesMembers(t *testing.T) {
	fs := newFakeStore()
	fs.rooms["r1"] = &store.Room{ID: "r1", Name: "general", Participants: participants("alice", "bob")}

	g := NewGateway(fs, NewRegistry())
	alice := connect(g, "alice")
	bob := connect(g, "bob")

	g.registry.Track("alice", RoomKey("r1"))

	g.dispatch(alice, frame(t, EventLeaveRoom, JoinRoomPayload{RoomID: "r1"}))

	env := nextEvent(t, bob)
	assert.Equal(t, EventUserLeft, env.Type)

	assertNoEvent(t, alice)
	assert.Empty(t, g.registry.MembershipKeys("alice"))
}
