// Package unit contains unit tests for individual components of the Roomchat server.
//
// These tests focus on testing specific functions and methods in isolation,
// using the exported server API so they exercise the same surface the
// handlers do. Unit tests ensure that each component behaves correctly under
// various conditions.
package unit

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomchat/internal/server"
)

func configureBacklog(t *testing.T, backlog int) {
	t.Helper()
	cfg := server.NewConfig()
	cfg.RoomBacklog = backlog
	server.SetConfig(cfg)
	t.Cleanup(func() {
		server.SetConfig(nil)
	})
}

func drain(sub *server.Subscription, max int) []string {
	var out []string
	for len(out) < max {
		select {
		case msg, ok := <-sub.C():
			if !ok {
				return out
			}
			out = append(out, msg)
		case <-time.After(100 * time.Millisecond):
			return out
		}
	}
	return out
}

// TestJoinRejectsDuplicateUsername verifies that a second join under an
// already-present username fails without mutating membership.
func TestJoinRejectsDuplicateUsername(t *testing.T) {
	reg := server.NewRegistry()
	room := reg.GetOrCreate("lobby")

	sub, err := room.Join("alice")
	require.NoError(t, err)
	require.NotNil(t, sub)
	require.Equal(t, 1, room.MemberCount())

	dup, err := room.Join("alice")
	assert.ErrorIs(t, err, server.ErrUsernameTaken)
	assert.Nil(t, dup)
	assert.Equal(t, 1, room.MemberCount())

	// The failed attempt must not have produced any broadcast either.
	select {
	case msg := <-sub.C():
		t.Fatalf("Unexpected broadcast after failed join: %q", msg)
	default:
	}
}

// TestLeaveIsIdempotent verifies that removing an absent member is a no-op.
func TestLeaveIsIdempotent(t *testing.T) {
	reg := server.NewRegistry()
	room := reg.GetOrCreate("lobby")

	_, err := room.Join("alice")
	require.NoError(t, err)

	room.Leave("bob")
	assert.Equal(t, 1, room.MemberCount())

	room.Leave("alice")
	room.Leave("alice")
	assert.Equal(t, 0, room.MemberCount())
}

// TestBroadcastOrdering verifies that a subscriber observes messages in the
// order Broadcast was invoked.
func TestBroadcastOrdering(t *testing.T) {
	reg := server.NewRegistry()
	room := reg.GetOrCreate("lobby")

	sub, err := room.Join("alice")
	require.NoError(t, err)

	messages := []string{"one", "two", "three", "four", "five"}
	for _, msg := range messages {
		room.Broadcast(msg)
	}

	assert.Equal(t, messages, drain(sub, len(messages)))
}

// TestBroadcastDropsOldestWhenBacklogFull verifies the overflow policy: a
// subscriber that is not consuming loses its oldest queued messages first and
// the sender never blocks.
func TestBroadcastDropsOldestWhenBacklogFull(t *testing.T) {
	configureBacklog(t, 3)

	reg := server.NewRegistry()
	room := reg.GetOrCreate("lobby")

	sub, err := room.Join("alice")
	require.NoError(t, err)

	for _, msg := range []string{"m1", "m2", "m3", "m4", "m5"} {
		room.Broadcast(msg)
	}

	assert.Equal(t, []string{"m3", "m4", "m5"}, drain(sub, 3))
}

// TestBroadcastIsolationBetweenRooms verifies that messages broadcast in one
// room are never observed by a subscriber of another room.
func TestBroadcastIsolationBetweenRooms(t *testing.T) {
	reg := server.NewRegistry()
	roomX := reg.GetOrCreate("x")
	roomY := reg.GetOrCreate("y")

	subX, err := roomX.Join("alice")
	require.NoError(t, err)
	subY, err := roomY.Join("bob")
	require.NoError(t, err)

	roomX.Broadcast("only for x")

	assert.Equal(t, []string{"only for x"}, drain(subX, 1))
	select {
	case msg := <-subY.C():
		t.Fatalf("Room y subscriber received foreign message %q", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

// TestUnsubscribeClosesStream verifies that a detached subscription's channel
// is closed and that a second Unsubscribe is a no-op.
func TestUnsubscribeClosesStream(t *testing.T) {
	reg := server.NewRegistry()
	room := reg.GetOrCreate("lobby")

	sub, err := room.Join("alice")
	require.NoError(t, err)

	room.Unsubscribe(sub)
	room.Unsubscribe(sub)

	_, open := <-sub.C()
	assert.False(t, open, "Expected subscription channel to be closed")

	// Broadcasting after the detach must not panic or deliver.
	room.Broadcast("late")
}

// TestConcurrentJoinsSameUsername verifies the join race: many connections
// attempting the same username concurrently yield exactly one member.
func TestConcurrentJoinsSameUsername(t *testing.T) {
	reg := server.NewRegistry()
	room := reg.GetOrCreate("r")

	const attempts = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		failures  int
	)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := room.Join("carol")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if errors.Is(err, server.ErrUsernameTaken) {
				failures++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes, "Exactly one join should succeed")
	assert.Equal(t, attempts-1, failures)
	assert.Equal(t, 1, room.MemberCount())
}

// TestConcurrentDistinctJoinsStayDistinct verifies that member names within a
// room are pairwise distinct under concurrent joins of different names.
func TestConcurrentDistinctJoinsStayDistinct(t *testing.T) {
	reg := server.NewRegistry()
	room := reg.GetOrCreate("r")

	const members = 20
	var wg sync.WaitGroup
	for i := 0; i < members; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := room.Join(string(rune('a' + n)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, members, room.MemberCount())
}
