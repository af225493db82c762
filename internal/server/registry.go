// Package server coordinates the process-wide room registry: rooms are
// created lazily on first join and pruned when their last member leaves.
package server

import (
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Registry maps room names to active rooms. A single coarse mutex serializes
// map mutations and snapshots; it is held only for the duration of the map
// operation plus, in RemoveIfEmpty, one short-held room-internal check. Lock
// ordering is always registry first, then at most one room; no Room method
// ever calls back into the registry.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room
}

// NewRegistry creates an empty registry. Rooms pick up the fan-out backlog
// capacity from the active configuration at creation time.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// GetOrCreate returns the room for name, inserting a new empty one if none
// exists. It never fails. The returned room may have since been retired by a
// concurrent RemoveIfEmpty; Join reports that as ErrRoomClosed and the caller
// retries through GetOrCreate.
func (reg *Registry) GetOrCreate(name string) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room, ok := reg.rooms[name]
	if !ok {
		room = newRoom(name, currentConfig().RoomBacklog)
		reg.rooms[name] = room
		serverLogger().Info("room created", zap.String("room", name))
	}
	return room
}

// RemoveIfEmpty deletes the room entry when its member count is zero; it is
// a no-op otherwise. The count is re-read under the room's own lock, and an
// empty room is marked closed before the entry is deleted, so a join racing
// with the removal either lands before the check or observes ErrRoomClosed
// and retries.
func (reg *Registry) RemoveIfEmpty(name string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room, ok := reg.rooms[name]
	if !ok {
		return
	}
	if room.closeIfEmpty() {
		delete(reg.rooms, name)
		serverLogger().Info("room removed", zap.String("room", name))
	}
}

// ListRoomNames returns a snapshot of the current room names. The snapshot
// is weakly consistent with concurrent joins and leaves, which is acceptable
// for the directory view. No ordering guarantee.
func (reg *Registry) ListRoomNames() []string {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	return lo.Keys(reg.rooms)
}

// RoomCount reports the number of active rooms at the moment of the call.
func (reg *Registry) RoomCount() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	return len(reg.rooms)
}

// CloseAll retires every room and clears the registry. Closing the fan-out
// streams unblocks the outbound loop of every connected session, which lets
// sessions run their cleanup during graceful shutdown.
func (reg *Registry) CloseAll() {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	for name, room := range reg.rooms {
		room.retire()
		delete(reg.rooms, name)
	}
}

var registry = NewRegistry()

// GetRegistry returns the process-wide registry instance used by the HTTP
// handlers. Exposed for shutdown coordination and tests.
func GetRegistry() *Registry {
	return registry
}
