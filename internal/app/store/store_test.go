package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zechsoft/global-backfinal-sub000/internal/app/user"
)

// TestNormalizePair verifies both orderings of a pair map to the same tuple.
func TestNormalizePair(t *testing.T) {
	a, b := NormalizePair("user-b", "user-a")
	assert.Equal(t, "user-a", a)
	assert.Equal(t, "user-b", b)

	a, b = NormalizePair("user-a", "user-b")
	assert.Equal(t, "user-a", a)
	assert.Equal(t, "user-b", b)
}

func TestParseID(t *testing.T) {
	canonical, err := parseID("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	require.NoError(t, err)
	assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", canonical)

	// Uppercase input normalizes to the canonical lowercase form.
	canonical, err = parseID("6BA7B810-9DAD-11D1-80B4-00C04FD430C8")
	require.NoError(t, err)
	assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", canonical)

	_, err = parseID("not-a-uuid")
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = parseID("")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestConversationParticipants(t *testing.T) {
	conv := &Conversation{
		ID: "c1",
		Participants: []user.User{
			{ID: "alice"},
			{ID: "bob"},
		},
	}

	assert.Equal(t, []string{"alice", "bob"}, conv.ParticipantIDs())
	assert.True(t, conv.HasParticipant("alice"))
	assert.False(t, conv.HasParticipant("carol"))
}

func TestRoomParticipants(t *testing.T) {
	room := &Room{
		ID:   "r1",
		Name: "general",
		Participants: []user.User{
			{ID: "alice"},
			{ID: "bob"},
			{ID: "carol"},
		},
	}

	assert.Equal(t, []string{"alice", "bob", "carol"}, room.ParticipantIDs())
	assert.True(t, room.HasParticipant("carol"))
	assert.False(t, room.HasParticipant("dave"))

	empty := &Room{ID: "r2"}
	assert.Empty(t, empty.ParticipantIDs())
	assert.False(t, empty.HasParticipant("alice"))
}
