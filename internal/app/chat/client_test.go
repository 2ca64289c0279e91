package chat

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zechsoft/global-backfinal-sub000/internal/app/user"
)

// TestCloseKeepsQueuedFrames verifies closing does not drop frames already
// queued: they stay readable ahead of the channel-closed signal WritePump
// turns into a close frame.
func TestCloseKeepsQueuedFrames(t *testing.T) {
	c := NewClient(nil, nil, user.User{ID: "alice"})

	require.True(t, c.queue([]byte(`{"type":"online-users"}`)))
	c.Close()

	frame, open := <-c.send
	assert.True(t, open)
	assert.Equal(t, `{"type":"online-users"}`, string(frame))

	_, open = <-c.send
	assert.False(t, open)
}

// TestCloseAndKickAreIdempotent verifies repeated and interleaved shutdown
// calls never double-close the send channel.
func TestCloseAndKickAreIdempotent(t *testing.T) {
	c := NewClient(nil, nil, user.User{ID: "alice"})

	assert.NotPanics(t, func() {
		c.Close()
		c.Close()
		c.Kick("replaced")
	})
}

// TestCloseIsSafeUnderConcurrency verifies a shutdown Close racing a Kick on
// the same connection is safe.
func TestCloseIsSafeUnderConcurrency(t *testing.T) {
	c := NewClient(nil, nil, user.User{ID: "alice"})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Close()
		}()
	}
	wg.Wait()

	_, open := <-c.send
	assert.False(t, open)
}
