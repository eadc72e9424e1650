package relay

import (
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/parchis-reverse/server/internal/game/conn"
	"github.com/parchis-reverse/server/internal/game/room"
)

// Router interprets inbound client messages, mutates the registries, and
// triggers broadcasts. One Router serves all connections; per-connection
// state lives in a Session.
type Router struct {
	rooms  *room.Registry
	conns  *conn.Registry
	bcast  *Broadcaster
	logger *zap.Logger
}

// NewRouter creates a Router over the given registries and broadcaster.
//
// Precondition: all arguments must be non-nil.
func NewRouter(rooms *room.Registry, conns *conn.Registry, bcast *Broadcaster, logger *zap.Logger) *Router {
	return &Router{
		rooms:  rooms,
		conns:  conns,
		bcast:  bcast,
		logger: logger,
	}
}

// Session is the routing state of a single client connection. It is not
// safe for concurrent use: the transport must call HandleMessage serially,
// in arrival order, and Close exactly when the connection ends.
type Session struct {
	router   *Router
	sender   conn.Sender
	playerID string
	roomCode string
}

// NewSession creates the routing state for a newly accepted connection.
//
// Precondition: sender must be non-nil.
func (r *Router) NewSession(sender conn.Sender) *Session {
	return &Session{router: r, sender: sender}
}

// HandleMessage decodes one inbound message and dispatches it by type.
// Faults are contained: a malformed body, unknown type, or handler panic is
// logged and the session keeps processing subsequent messages.
func (s *Session) HandleMessage(data []byte) {
	defer func() {
		if rec := recover(); rec != nil {
			s.router.logger.Error("message handler fault",
				zap.Any("panic", rec),
				zap.String("player_id", s.playerID),
			)
		}
	}()

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		s.router.logger.Warn("malformed message", zap.Error(err))
		return
	}
	if env.Type == "" {
		s.router.logger.Warn("message missing type")
		return
	}

	switch env.Type {
	case typeCreateRoom:
		s.handleCreateRoom(data)
	case typeJoinRoom:
		s.handleJoinRoom(data)
	case typeLeaveRoom:
		s.handleLeaveRoom()
	case typeDiceRoll:
		s.handleDiceRoll(data)
	case typeGameMove:
		s.handleGameMove(data)
	case typeGetPublicRooms:
		s.handleGetPublicRooms()
	default:
		s.router.logger.Debug("unknown message type",
			zap.String("msg_type", env.Type),
		)
	}
}

// Close runs disconnect cleanup for the session's player, if any. The
// transport must call it when the connection ends, regardless of cause.
// Safe to call more than once.
func (s *Session) Close() {
	if s.playerID == "" {
		return
	}
	s.router.disconnect(s.playerID)
	s.playerID, s.roomCode = "", ""
}

func (s *Session) handleCreateRoom(data []byte) {
	var p createRoomPayload
	if err := json.Unmarshal(data, &p); err != nil {
		s.router.logger.Warn("malformed create_room payload", zap.Error(err))
		return
	}
	if p.PlayerName == "" {
		p.PlayerName = defaultPlayerName
	}
	if p.PlayerColor == "" {
		p.PlayerColor = defaultCreateColor
	}

	player, code := s.router.rooms.CreateRoom(p.PlayerName, p.PlayerColor)

	// A session that was already in a room leaves it first.
	s.Close()

	s.router.conns.Register(player.ID, s.sender, code)
	s.playerID, s.roomCode = player.ID, code

	s.send(roomCreatedMsg{
		Type:       typeRoomCreated,
		RoomCode:   code,
		PlayerID:   player.ID,
		PlayerData: player,
	})

	s.router.logger.Info("room created",
		zap.String("room_code", code),
		zap.String("player_id", player.ID),
		zap.String("player_name", player.Name),
	)
}

func (s *Session) handleJoinRoom(data []byte) {
	var p joinRoomPayload
	if err := json.Unmarshal(data, &p); err != nil {
		s.router.logger.Warn("malformed join_room payload", zap.Error(err))
		return
	}
	if p.PlayerName == "" {
		p.PlayerName = defaultPlayerName
	}
	if p.PlayerColor == "" {
		p.PlayerColor = defaultJoinColor
	}

	player, snap, err := s.router.rooms.JoinRoom(p.RoomCode, p.PlayerName, p.PlayerColor)
	switch {
	case errors.Is(err, room.ErrRoomNotFound):
		s.sendError("room not found")
		return
	case errors.Is(err, room.ErrRoomFull):
		s.sendError("room full")
		return
	case err != nil:
		s.router.logger.Error("joining room", zap.String("room_code", p.RoomCode), zap.Error(err))
		return
	}

	// A session that was already in a room leaves it first.
	s.Close()

	s.router.conns.Register(player.ID, s.sender, p.RoomCode)
	s.playerID, s.roomCode = player.ID, p.RoomCode

	s.send(roomJoinedMsg{
		Type:       typeRoomJoined,
		RoomCode:   p.RoomCode,
		PlayerID:   player.ID,
		PlayerData: player,
		RoomData:   snap,
	})

	failed := s.router.bcast.Broadcast(p.RoomCode, playerJoinedMsg{
		Type:       typePlayerJoined,
		PlayerData: player,
		RoomData:   snap,
	}, player.ID)
	s.router.cleanupFailed(failed)

	s.router.logger.Info("player joined room",
		zap.String("room_code", p.RoomCode),
		zap.String("player_id", player.ID),
		zap.String("player_name", player.Name),
	)
}

func (s *Session) handleLeaveRoom() {
	s.Close()
}

// inRoom reports whether the session still holds a live connection binding.
// Disconnect cleanup can claim the binding out from under a session (for
// example when its send buffer fills during a broadcast); after that, the
// session must stop relaying into a room it was removed from.
func (s *Session) inRoom() bool {
	if s.roomCode == "" {
		return false
	}
	if _, ok := s.router.conns.Lookup(s.playerID); !ok {
		s.playerID, s.roomCode = "", ""
		return false
	}
	return true
}

func (s *Session) handleDiceRoll(data []byte) {
	if !s.inRoom() {
		return
	}
	var p diceRollPayload
	if err := json.Unmarshal(data, &p); err != nil {
		s.router.logger.Warn("malformed dice_roll payload", zap.Error(err))
		return
	}
	if !s.router.rooms.ApplyDiceRoll(s.roomCode, p.DiceValue, p.CurrentPlayer) {
		return
	}

	failed := s.router.bcast.Broadcast(s.roomCode, diceRolledMsg{
		Type:          typeDiceRolled,
		DiceValue:     p.DiceValue,
		CurrentPlayer: p.CurrentPlayer,
		PlayerID:      s.playerID,
	}, "")
	s.router.cleanupFailed(failed)

	s.router.logger.Debug("dice rolled",
		zap.String("room_code", s.roomCode),
		zap.String("player_id", s.playerID),
		zap.Int("dice_value", p.DiceValue),
	)
}

func (s *Session) handleGameMove(data []byte) {
	if !s.inRoom() {
		return
	}
	var p gameMovePayload
	if err := json.Unmarshal(data, &p); err != nil {
		s.router.logger.Warn("malformed game_move payload", zap.Error(err))
		return
	}
	if !s.router.rooms.ApplyMove(s.roomCode, p.Pieces, p.CurrentPlayer) {
		return
	}

	failed := s.router.bcast.Broadcast(s.roomCode, gameMoveMsg{
		Type:          typeGameMoved,
		Pieces:        p.Pieces,
		CurrentPlayer: p.CurrentPlayer,
		PlayerID:      s.playerID,
	}, "")
	s.router.cleanupFailed(failed)

	s.router.logger.Debug("game move",
		zap.String("room_code", s.roomCode),
		zap.String("player_id", s.playerID),
	)
}

func (s *Session) handleGetPublicRooms() {
	s.send(publicRoomsMsg{
		Type:  typePublicRooms,
		Rooms: s.router.rooms.PublicRooms(),
	})
}

// send encodes and delivers a message to this session's own client. Delivery
// failure here is not fatal; the transport close path cleans up.
func (s *Session) send(msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.router.logger.Error("encoding response", zap.Error(err))
		return
	}
	if err := s.sender.Send(data); err != nil {
		s.router.logger.Debug("send to own session failed",
			zap.String("player_id", s.playerID),
			zap.Error(err),
		)
	}
}

func (s *Session) sendError(text string) {
	s.send(errorMsg{Type: typeError, Message: text})
}

// disconnect is the shared cleanup for explicit leave, transport close, and
// broadcast send failure. It is idempotent per player id: unregistering the
// connection binding atomically claims the cleanup, so concurrent triggers
// produce exactly one player_left broadcast.
func (r *Router) disconnect(playerID string) {
	binding, ok := r.conns.Unregister(playerID)
	if !ok {
		return
	}

	player, snap, removed := r.rooms.RemovePlayer(binding.RoomCode, playerID)
	if !removed {
		return
	}

	r.logger.Info("player left room",
		zap.String("room_code", binding.RoomCode),
		zap.String("player_id", playerID),
		zap.String("player_name", player.Name),
	)

	if len(snap.Players) == 0 {
		r.logger.Info("room deleted", zap.String("room_code", binding.RoomCode))
		return
	}

	failed := r.bcast.Broadcast(binding.RoomCode, playerLeftMsg{
		Type:     typePlayerLeft,
		PlayerID: playerID,
		RoomData: snap,
	}, "")
	r.cleanupFailed(failed)
}

// cleanupFailed runs disconnect cleanup for every recipient whose broadcast
// send failed. Recursion terminates because each disconnect claims its
// binding exactly once.
func (r *Router) cleanupFailed(playerIDs []string) {
	for _, id := range playerIDs {
		r.disconnect(id)
	}
}
