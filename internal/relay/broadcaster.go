package relay

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/parchis-reverse/server/internal/game/conn"
	"github.com/parchis-reverse/server/internal/game/room"
)

// Broadcaster fans an outbound message out to the members of a room, using
// the connection registry to resolve live transport handles.
type Broadcaster struct {
	rooms  *room.Registry
	conns  *conn.Registry
	logger *zap.Logger
}

// NewBroadcaster creates a Broadcaster over the given registries.
//
// Precondition: rooms, conns, and logger must be non-nil.
func NewBroadcaster(rooms *room.Registry, conns *conn.Registry, logger *zap.Logger) *Broadcaster {
	return &Broadcaster{
		rooms:  rooms,
		conns:  conns,
		logger: logger,
	}
}

// Broadcast sends msg to every member of the room except excludePlayerID.
// The recipient set is a snapshot of membership taken at call time; members
// joining or leaving afterwards are not affected. A failed send does not
// abort delivery to the remaining members.
//
// Postcondition: Returns the ids of members whose send failed, so the caller
// can run disconnect cleanup for them.
func (b *Broadcaster) Broadcast(roomCode string, msg any, excludePlayerID string) []string {
	data, err := json.Marshal(msg)
	if err != nil {
		b.logger.Error("encoding broadcast message",
			zap.String("room_code", roomCode),
			zap.Error(err),
		)
		return nil
	}

	var failed []string
	for _, id := range b.rooms.MemberIDs(roomCode) {
		if id == excludePlayerID {
			continue
		}
		sender, ok := b.conns.Lookup(id)
		if !ok {
			// Member with no live binding; its cleanup is already underway.
			continue
		}
		if err := sender.Send(data); err != nil {
			b.logger.Info("send failed during broadcast",
				zap.String("room_code", roomCode),
				zap.String("player_id", id),
				zap.Error(err),
			)
			failed = append(failed, id)
		}
	}
	return failed
}
