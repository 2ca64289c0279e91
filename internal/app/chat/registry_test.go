package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zechsoft/global-backfinal-sub000/internal/app/user"
)

func newRegisteredClient(r *Registry, userID string) *Client {
	c := NewClient(nil, nil, user.User{ID: userID, DisplayName: userID})
	r.Register(c)
	return c
}

// TestRegisterReplacesPreviousConnection verifies last-connect-wins semantics.
func TestRegisterReplacesPreviousConnection(t *testing.T) {
	r := NewRegistry()

	first := NewClient(nil, nil, user.User{ID: "alice"})
	second := NewClient(nil, nil, user.User{ID: "alice"})

	assert.Nil(t, r.Register(first))
	assert.Same(t, first, r.Register(second))
	assert.Same(t, second, r.Get("alice"))
}

// TestRegisterSameConnectionTwice verifies that re-registering the active
// connection does not report it as replaced.
func TestRegisterSameConnectionTwice(t *testing.T) {
	r := NewRegistry()

	c := NewClient(nil, nil, user.User{ID: "alice"})
	r.Register(c)

	assert.Nil(t, r.Register(c))
	assert.Same(t, c, r.Get("alice"))
}

// TestUnregisterIgnoresStaleConnection verifies that a replaced connection
// cannot tear down its replacement's presence entry.
func TestUnregisterIgnoresStaleConnection(t *testing.T) {
	r := NewRegistry()

	stale := NewClient(nil, nil, user.User{ID: "alice"})
	current := NewClient(nil, nil, user.User{ID: "alice"})

	r.Register(stale)
	r.Register(current)

	assert.False(t, r.Unregister(stale))
	assert.Same(t, current, r.Get("alice"))

	assert.True(t, r.Unregister(current))
	assert.Nil(t, r.Get("alice"))
}

// TestOnlineUserIDsSorted verifies the online list is stable across map iteration order.
func TestOnlineUserIDsSorted(t *testing.T) {
	r := NewRegistry()

	newRegisteredClient(r, "carol")
	newRegisteredClient(r, "alice")
	newRegisteredClient(r, "bob")

	assert.Equal(t, []string{"alice", "bob", "carol"}, r.OnlineUserIDs())
}

// TestMembershipTracking verifies track/untrack/clear behavior.
func TestMembershipTracking(t *testing.T) {
	r := NewRegistry()

	r.Track("alice", ConversationKey("c1"))
	r.Track("alice", RoomKey("r1"))
	r.Track("alice", RoomKey("r1")) // idempotent

	assert.Equal(t, []string{ConversationKey("c1"), RoomKey("r1")}, r.MembershipKeys("alice"))

	r.Untrack("alice", ConversationKey("c1"))
	assert.Equal(t, []string{RoomKey("r1")}, r.MembershipKeys("alice"))

	r.ClearMembership("alice")
	assert.Empty(t, r.MembershipKeys("alice"))
}

// TestUntrackUnknownUser verifies untracking without a prior track is a no-op.
func TestUntrackUnknownUser(t *testing.T) {
	r := NewRegistry()

	r.Untrack("ghost", RoomKey("r1"))
	assert.Empty(t, r.MembershipKeys("ghost"))
}
