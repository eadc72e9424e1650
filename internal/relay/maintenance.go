package relay

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// RoomStore is the subset of the room registry the maintenance tasks use.
type RoomStore interface {
	RoomCount() int
	ReapIdleRooms(threshold time.Duration) []string
}

// ConnStore is the subset of the connection registry the maintenance tasks use.
type ConnStore interface {
	Count() int
}

// StatsReporter periodically logs the current room and connection counts.
// It implements server.Service and has no side effects on state.
type StatsReporter struct {
	rooms    RoomStore
	conns    ConnStore
	logger   *zap.Logger
	interval time.Duration

	quit     chan struct{}
	stopOnce sync.Once
}

// NewStatsReporter creates a StatsReporter ticking at the given interval.
//
// Precondition: rooms, conns, and logger must be non-nil; interval must be positive.
func NewStatsReporter(rooms RoomStore, conns ConnStore, logger *zap.Logger, interval time.Duration) *StatsReporter {
	return &StatsReporter{
		rooms:    rooms,
		conns:    conns,
		logger:   logger,
		interval: interval,
		quit:     make(chan struct{}),
	}
}

// Start runs the reporting loop until Stop is called.
func (s *StatsReporter) Start() error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.logger.Info("server stats",
				zap.Int("rooms", s.rooms.RoomCount()),
				zap.Int("connections", s.conns.Count()),
			)
		case <-s.quit:
			return nil
		}
	}
}

// Stop terminates the reporting loop. Safe to call more than once.
func (s *StatsReporter) Stop() {
	s.stopOnce.Do(func() { close(s.quit) })
}

// IdleReaper periodically deletes long-empty rooms. Normal empty-room
// deletion happens immediately on the last leave; the reaper is the safety
// net for rooms that escaped it. It implements server.Service.
type IdleReaper struct {
	rooms     RoomStore
	logger    *zap.Logger
	interval  time.Duration
	threshold time.Duration

	quit     chan struct{}
	stopOnce sync.Once
}

// NewIdleReaper creates an IdleReaper that scans every interval and deletes
// empty rooms older than threshold.
//
// Precondition: rooms and logger must be non-nil; interval and threshold must be positive.
func NewIdleReaper(rooms RoomStore, logger *zap.Logger, interval, threshold time.Duration) *IdleReaper {
	return &IdleReaper{
		rooms:     rooms,
		logger:    logger,
		interval:  interval,
		threshold: threshold,
		quit:      make(chan struct{}),
	}
}

// Start runs the reaping loop until Stop is called.
func (r *IdleReaper) Start() error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			reaped := r.rooms.ReapIdleRooms(r.threshold)
			for _, code := range reaped {
				r.logger.Info("idle room reaped",
					zap.String("room_code", code),
				)
			}
		case <-r.quit:
			return nil
		}
	}
}

// Stop terminates the reaping loop. Safe to call more than once.
func (r *IdleReaper) Stop() {
	r.stopOnce.Do(func() { close(r.quit) })
}
