package room

import (
	"encoding/json"
	"errors"
	"sync"
	"time"
)

var (
	// ErrRoomNotFound indicates the requested room code is not live.
	ErrRoomNotFound = errors.New("room not found")
	// ErrRoomFull indicates the room already holds the maximum number of players.
	ErrRoomFull = errors.New("room full")
)

// Registry owns the collection of live rooms, their membership, and shared
// game state. All methods are safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	rooms      map[string]*room
	maxPlayers int
	codeLength int
	src        Source
	now        func() time.Time
}

// NewRegistry creates an empty room Registry.
//
// Precondition: maxPlayers >= 2, codeLength >= 4, src must be non-nil.
func NewRegistry(maxPlayers, codeLength int, src Source) *Registry {
	return &Registry{
		rooms:      make(map[string]*room),
		maxPlayers: maxPlayers,
		codeLength: codeLength,
		src:        src,
		now:        time.Now,
	}
}

// CreateRoom constructs a new waiting room with a fresh code and the given
// host as its sole member.
//
// Postcondition: The returned Player has the host flag set; the returned
// code is unique among live rooms (generation re-rolls on collision).
func (r *Registry) CreateRoom(hostName, hostColor string) (Player, string) {
	host := Player{
		ID:       NewPlayerID(),
		Name:     hostName,
		Color:    hostColor,
		IsHost:   true,
		JoinedAt: r.now().UnixMilli(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	code := generateCode(r.src, r.codeLength)
	for _, exists := r.rooms[code]; exists; _, exists = r.rooms[code] {
		code = generateCode(r.src, r.codeLength)
	}

	r.rooms[code] = &room{
		code:      code,
		createdAt: r.now(),
		status:    StatusWaiting,
		players:   map[string]Player{host.ID: host},
	}
	return host, code
}

// JoinRoom inserts a new non-host player into the room with the given code.
//
// Postcondition: Returns the created Player and a membership snapshot that
// includes them, or ErrRoomNotFound / ErrRoomFull.
func (r *Registry) JoinRoom(code, name, color string) (Player, Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[code]
	if !ok {
		return Player{}, Snapshot{}, ErrRoomNotFound
	}
	if len(rm.players) >= r.maxPlayers {
		return Player{}, Snapshot{}, ErrRoomFull
	}

	p := Player{
		ID:       NewPlayerID(),
		Name:     name,
		Color:    color,
		JoinedAt: r.now().UnixMilli(),
	}
	rm.players[p.ID] = p
	return p, rm.snapshot(), nil
}

// RemovePlayer removes a player from the room with the given code. If the
// room's membership becomes empty, the room is deleted immediately.
//
// Postcondition: Returns the removed Player and a post-removal snapshot,
// or ok=false if the room or player is unknown.
func (r *Registry) RemovePlayer(code, playerID string) (Player, Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[code]
	if !ok {
		return Player{}, Snapshot{}, false
	}
	p, ok := rm.players[playerID]
	if !ok {
		return Player{}, Snapshot{}, false
	}

	delete(rm.players, playerID)
	snap := rm.snapshot()
	if len(rm.players) == 0 {
		delete(r.rooms, code)
	}
	return p, snap, true
}

// ApplyDiceRoll overwrites the room's dice value and current-player index.
// Turn order is not validated; rule enforcement is a client concern.
//
// Postcondition: Returns false if the room code is not live.
func (r *Registry) ApplyDiceRoll(code string, diceValue, currentPlayer int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[code]
	if !ok {
		return false
	}
	rm.state.DiceValue = diceValue
	rm.state.CurrentPlayer = currentPlayer
	return true
}

// ApplyMove overwrites the room's piece positions and current-player index.
// Move legality is not validated; rule enforcement is a client concern.
//
// Postcondition: Returns false if the room code is not live.
func (r *Registry) ApplyMove(code string, pieces []json.RawMessage, currentPlayer int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[code]
	if !ok {
		return false
	}
	rm.state.Pieces = pieces
	rm.state.CurrentPlayer = currentPlayer
	return true
}

// ReapIdleRooms deletes rooms with zero members older than the threshold.
// Normal empty-room deletion happens immediately on the last leave; this is
// the safety net for rooms that escaped it.
//
// Postcondition: Returns the codes of the deleted rooms.
func (r *Registry) ReapIdleRooms(threshold time.Duration) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	var reaped []string
	for code, rm := range r.rooms {
		if len(rm.players) == 0 && now.Sub(rm.createdAt) > threshold {
			delete(r.rooms, code)
			reaped = append(reaped, code)
		}
	}
	return reaped
}

// Snapshot returns a point-in-time copy of the room's membership and state.
//
// Postcondition: Returns (snapshot, true) if the room is live, or
// (zero, false) otherwise.
func (r *Registry) Snapshot(code string) (Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[code]
	if !ok {
		return Snapshot{}, false
	}
	return rm.snapshot(), true
}

// MemberIDs returns the player ids currently in the room.
//
// Postcondition: Returns nil if the room is not live.
func (r *Registry) MemberIDs(code string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[code]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(rm.players))
	for id := range rm.players {
		ids = append(ids, id)
	}
	return ids
}

// PublicRooms lists joinable rooms: waiting status with open seats.
func (r *Registry) PublicRooms() []Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summaries := make([]Summary, 0)
	for code, rm := range r.rooms {
		if rm.status != StatusWaiting || len(rm.players) >= r.maxPlayers {
			continue
		}
		hostName := "unknown"
		if host, ok := rm.host(); ok {
			hostName = host.Name
		}
		summaries = append(summaries, Summary{
			RoomCode:    code,
			HostName:    hostName,
			PlayerCount: len(rm.players),
			MaxPlayers:  r.maxPlayers,
			Status:      rm.status,
			CreatedAt:   rm.createdAt.UnixMilli(),
		})
	}
	return summaries
}

// RoomCount returns the number of live rooms.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
