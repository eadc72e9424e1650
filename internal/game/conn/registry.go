// Package conn tracks live player connections and their transport handles.
package conn

import "sync"

// Sender delivers one encoded message to a connected client. Implementations
// must not block on a slow client; enqueue and report failure instead.
type Sender interface {
	Send(data []byte) error
}

// Binding associates a connected player with its transport handle and the
// room it currently occupies. A binding exists only while the underlying
// transport is open.
type Binding struct {
	PlayerID string
	RoomCode string
	Sender   Sender
}

// Registry maps player ids to connection bindings. All methods are safe for
// concurrent use.
type Registry struct {
	mu       sync.RWMutex
	bindings map[string]Binding
}

// NewRegistry creates an empty connection Registry.
func NewRegistry() *Registry {
	return &Registry{
		bindings: make(map[string]Binding),
	}
}

// Register records the binding for a player that created or joined a room.
//
// Precondition: playerID and roomCode must be non-empty; sender must be non-nil.
func (r *Registry) Register(playerID string, sender Sender, roomCode string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings[playerID] = Binding{
		PlayerID: playerID,
		RoomCode: roomCode,
		Sender:   sender,
	}
}

// Unregister atomically removes and returns the player's binding. The second
// of two racing callers observes ok=false, which makes it the idempotency
// gate for disconnect cleanup.
//
// Postcondition: Returns (binding, true) exactly once per registered binding.
func (r *Registry) Unregister(playerID string) (Binding, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bindings[playerID]
	if ok {
		delete(r.bindings, playerID)
	}
	return b, ok
}

// Lookup returns the transport handle for the given player.
//
// Postcondition: Returns (sender, true) if the player is connected, or
// (nil, false) otherwise.
func (r *Registry) Lookup(playerID string) (Sender, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bindings[playerID]
	if !ok {
		return nil, false
	}
	return b.Sender, true
}

// Count returns the number of active connection bindings.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bindings)
}
