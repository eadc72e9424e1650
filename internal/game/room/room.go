// Package room provides the room registry and shared game-state data model
// for the session coordinator.
package room

import (
	"encoding/json"
	"sort"
	"time"
)

// Status is the advisory lifecycle phase of a room. The registry stores it
// but does not enforce transitions.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Player is a member of a room. Players are immutable after creation and
// are removed implicitly on disconnect.
type Player struct {
	// ID is the opaque unique player identifier.
	ID string `json:"id"`
	// Name is the display name shown to other players.
	Name string `json:"name"`
	// Color is the client-selected piece color.
	Color string `json:"color"`
	// IsHost marks the player that created the room.
	IsHost bool `json:"isHost"`
	// JoinedAt is the join timestamp in Unix milliseconds.
	JoinedAt int64 `json:"joinedAt"`
}

// GameState is the room-scoped mutable turn state. The server is a relay:
// dice values and piece positions are trusted as reported by clients.
type GameState struct {
	CurrentPlayer int               `json:"currentPlayer"`
	DiceValue     int               `json:"diceValue"`
	Pieces        []json.RawMessage `json:"pieces"`
	GameStarted   bool              `json:"gameStarted"`
	GameEnded     bool              `json:"gameEnded"`
}

// Snapshot is a point-in-time copy of a room's membership and game state,
// suitable for embedding in outbound messages. Players are ordered by join
// time.
type Snapshot struct {
	Players   []Player  `json:"players"`
	GameState GameState `json:"gameState"`
}

// Summary describes a joinable room in a public room listing.
type Summary struct {
	RoomCode    string `json:"roomCode"`
	HostName    string `json:"hostName"`
	PlayerCount int    `json:"playerCount"`
	MaxPlayers  int    `json:"maxPlayers"`
	Status      Status `json:"status"`
	CreatedAt   int64  `json:"createdAt"`
}

// room is the registry-internal record. All access goes through Registry
// methods under the registry lock.
type room struct {
	code      string
	createdAt time.Time
	status    Status
	players   map[string]Player
	state     GameState
}

// snapshot copies the room's membership and game state.
// Caller must hold the registry lock.
func (r *room) snapshot() Snapshot {
	players := make([]Player, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].JoinedAt != players[j].JoinedAt {
			return players[i].JoinedAt < players[j].JoinedAt
		}
		return players[i].ID < players[j].ID
	})

	state := r.state
	if r.state.Pieces != nil {
		state.Pieces = make([]json.RawMessage, len(r.state.Pieces))
		copy(state.Pieces, r.state.Pieces)
	}

	return Snapshot{Players: players, GameState: state}
}

// host returns the room's host player, or false if none is present.
// Caller must hold the registry lock.
func (r *room) host() (Player, bool) {
	for _, p := range r.players {
		if p.IsHost {
			return p, true
		}
	}
	return Player{}, false
}
