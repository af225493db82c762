// Package server implements room membership and best-effort message fan-out
// for the Roomchat WebSocket system.
package server

import (
	"errors"
	"sync"
)

var (
	// ErrUsernameTaken is returned by Room.Join when the requested username
	// is already a member of the room. The room is left unchanged.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrRoomClosed is returned by Room.Join when the room has been retired
	// by the registry. Callers should obtain a fresh room via GetOrCreate
	// and retry.
	ErrRoomClosed = errors.New("room closed")
)

// Subscription is a private read-handle on a room's fan-out stream. It is
// owned by exactly one connection for the duration of its membership and is
// closed by Room.Unsubscribe or when the room is retired.
type Subscription struct {
	ch chan string
}

// C returns the channel on which broadcast messages are delivered. The
// channel is closed when the subscription is detached from its room.
func (s *Subscription) C() <-chan string {
	return s.ch
}

// Room is a named, independently lockable group of connections sharing one
// fan-out stream. A single mutex guards the member set, the subscriber set,
// and the closed flag; it is never held across I/O. Delivery is best-effort:
// each subscription carries a bounded backlog and a subscriber that is not
// consuming loses its oldest queued messages first. The sender never blocks.
type Room struct {
	name    string
	backlog int

	mu      sync.Mutex
	members map[string]struct{}
	subs    map[*Subscription]struct{}
	closed  bool
}

func newRoom(name string, backlog int) *Room {
	if backlog <= 0 {
		backlog = defaultRoomBacklog
	}
	return &Room{
		name:    name,
		backlog: backlog,
		members: make(map[string]struct{}),
		subs:    make(map[*Subscription]struct{}),
	}
}

// Name returns the room's registry key.
func (r *Room) Name() string {
	return r.name
}

// Join atomically checks username uniqueness and inserts the member. On
// success it returns a fresh subscription attached to the room's fan-out
// stream. On ErrUsernameTaken or ErrRoomClosed no state is mutated.
func (r *Room) Join(username string) (*Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrRoomClosed
	}
	if _, taken := r.members[username]; taken {
		return nil, ErrUsernameTaken
	}

	r.members[username] = struct{}{}
	sub := &Subscription{ch: make(chan string, r.backlog)}
	r.subs[sub] = struct{}{}
	return sub, nil
}

// Leave removes username from the member set. Removing an absent name is a
// no-op.
func (r *Room) Leave(username string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.members, username)
}

// Unsubscribe detaches sub from the room and closes its channel. Calling it
// for a subscription that is already detached is a no-op, so it is safe to
// invoke after the registry has retired the room.
func (r *Room) Unsubscribe(sub *Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.subs[sub]; !ok {
		return
	}
	delete(r.subs, sub)
	close(sub.ch)
}

// Broadcast delivers text to every subscription currently attached to the
// room. All sends happen under the room mutex, so every subscriber observes
// messages in Broadcast invocation order. A full backlog drops the oldest
// queued message to make space; the send itself never blocks.
func (r *Room) Broadcast(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for sub := range r.subs {
		select {
		case sub.ch <- text:
		default:
			// Backlog full: evict the oldest entry, then retry once. The
			// retry can still lose against a concurrently draining reader,
			// in which case the message is dropped for this subscriber only.
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- text:
			default:
			}
		}
	}
}

// MemberCount reports the current number of members.
func (r *Room) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.members)
}

// closeIfEmpty marks the room closed when it has no members, detaching any
// remaining subscriptions. It re-reads membership under the room's own lock,
// so the caller never acts on a stale count. Returns true when the room was
// closed by this call or a previous one.
func (r *Room) closeIfEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return true
	}
	if len(r.members) != 0 {
		return false
	}
	r.retireLocked()
	return true
}

// retire closes the room unconditionally, closing every attached
// subscription. Used during process shutdown.
func (r *Room) retire() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.retireLocked()
}

func (r *Room) retireLocked() {
	r.closed = true
	for sub := range r.subs {
		delete(r.subs, sub)
		close(sub.ch)
	}
}
