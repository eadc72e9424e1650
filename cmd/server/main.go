// Package main provides the Parchís session server. It serves the
// websocket endpoint clients use for room coordination and gameplay
// relay, plus an HTTP health check.
package main

import (
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/parchis-reverse/server/internal/config"
	"github.com/parchis-reverse/server/internal/game/conn"
	"github.com/parchis-reverse/server/internal/game/room"
	"github.com/parchis-reverse/server/internal/observability"
	"github.com/parchis-reverse/server/internal/relay"
	"github.com/parchis-reverse/server/internal/server"
	"github.com/parchis-reverse/server/internal/transport/ws"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	// A local .env file may override environment variables in development.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting parchis server",
		zap.String("addr", cfg.Server.Addr()),
		zap.Int("max_players", cfg.Game.MaxPlayers),
	)

	// Build services
	rooms := room.NewRegistry(cfg.Game.MaxPlayers, cfg.Game.RoomCodeLength, room.NewCryptoSource())
	conns := conn.NewRegistry()
	bcast := relay.NewBroadcaster(rooms, conns, logger)
	router := relay.NewRouter(rooms, conns, bcast, logger)
	acceptor := ws.NewAcceptor(cfg.Server, router, rooms, conns, logger)
	stats := relay.NewStatsReporter(rooms, conns, logger, cfg.Maintenance.StatsInterval)
	reaper := relay.NewIdleReaper(rooms, logger, cfg.Maintenance.ReapInterval, cfg.Maintenance.IdleThreshold)

	// Wire lifecycle
	lifecycle := server.NewLifecycle(logger)

	lifecycle.Add("websocket", &server.FuncService{
		StartFn: acceptor.ListenAndServe,
		StopFn:  acceptor.Stop,
	})

	lifecycle.Add("stats", &server.FuncService{
		StartFn: stats.Start,
		StopFn:  stats.Stop,
	})

	lifecycle.Add("reaper", &server.FuncService{
		StartFn: reaper.Start,
		StopFn:  reaper.Stop,
	})

	logger.Info("server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("addr", cfg.Server.Addr()),
	)

	if err := lifecycle.Run(); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
