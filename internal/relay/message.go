// Package relay routes inbound client messages to room/connection state
// mutations and outbound broadcasts.
package relay

import (
	"encoding/json"

	"github.com/parchis-reverse/server/internal/game/room"
)

// Inbound message types.
const (
	typeCreateRoom     = "create_room"
	typeJoinRoom       = "join_room"
	typeLeaveRoom      = "leave_room"
	typeDiceRoll       = "dice_roll"
	typeGameMove       = "game_move"
	typeGetPublicRooms = "get_public_rooms"
)

// Outbound message types.
const (
	typeRoomCreated  = "room_created"
	typeRoomJoined   = "room_joined"
	typePlayerJoined = "player_joined"
	typePlayerLeft   = "player_left"
	typeDiceRolled   = "dice_rolled"
	typeGameMoved    = "game_move"
	typePublicRooms  = "public_rooms"
	typeError        = "error"
)

// Client-facing defaults for omitted player fields.
const (
	defaultPlayerName  = "Jugador"
	defaultCreateColor = "red"
	defaultJoinColor   = "blue"
)

// envelope carries the required type tag of every inbound message.
type envelope struct {
	Type string `json:"type"`
}

type createRoomPayload struct {
	PlayerName  string `json:"playerName"`
	PlayerColor string `json:"playerColor"`
}

type joinRoomPayload struct {
	RoomCode    string `json:"roomCode"`
	PlayerName  string `json:"playerName"`
	PlayerColor string `json:"playerColor"`
}

type diceRollPayload struct {
	DiceValue     int `json:"diceValue"`
	CurrentPlayer int `json:"currentPlayer"`
}

type gameMovePayload struct {
	Pieces        []json.RawMessage `json:"pieces"`
	CurrentPlayer int               `json:"currentPlayer"`
}

type roomCreatedMsg struct {
	Type       string      `json:"type"`
	RoomCode   string      `json:"roomCode"`
	PlayerID   string      `json:"playerId"`
	PlayerData room.Player `json:"playerData"`
}

type roomJoinedMsg struct {
	Type       string        `json:"type"`
	RoomCode   string        `json:"roomCode"`
	PlayerID   string        `json:"playerId"`
	PlayerData room.Player   `json:"playerData"`
	RoomData   room.Snapshot `json:"roomData"`
}

type playerJoinedMsg struct {
	Type       string        `json:"type"`
	PlayerData room.Player   `json:"playerData"`
	RoomData   room.Snapshot `json:"roomData"`
}

type playerLeftMsg struct {
	Type     string        `json:"type"`
	PlayerID string        `json:"playerId"`
	RoomData room.Snapshot `json:"roomData"`
}

type diceRolledMsg struct {
	Type          string `json:"type"`
	DiceValue     int    `json:"diceValue"`
	CurrentPlayer int    `json:"currentPlayer"`
	PlayerID      string `json:"playerId"`
}

type gameMoveMsg struct {
	Type          string            `json:"type"`
	Pieces        []json.RawMessage `json:"pieces"`
	CurrentPlayer int               `json:"currentPlayer"`
	PlayerID      string            `json:"playerId"`
}

type publicRoomsMsg struct {
	Type  string         `json:"type"`
	Rooms []room.Summary `json:"rooms"`
}

type errorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
