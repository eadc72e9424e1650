package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/parchis-reverse/server/internal/config"
	"github.com/parchis-reverse/server/internal/relay"
)

// RoomCounter reports how many rooms currently exist.
type RoomCounter interface {
	RoomCount() int
}

// ConnCounter reports how many players are currently connected.
type ConnCounter interface {
	Count() int
}

// Acceptor serves the websocket endpoint and the health check. Each
// upgraded connection gets its own relay session driven by a read loop.
type Acceptor struct {
	cfg      config.ServerConfig
	router   *relay.Router
	rooms    RoomCounter
	conns    ConnCounter
	logger   *zap.Logger
	upgrader websocket.Upgrader

	wg       sync.WaitGroup
	mu       sync.Mutex
	srv      *http.Server
	active   map[*Conn]struct{}
	stopping bool
}

// NewAcceptor creates a websocket acceptor with the given configuration.
//
// Precondition: cfg must have a valid port; router, rooms, conns, and logger must be non-nil.
// Postcondition: Returns an Acceptor ready to be started with ListenAndServe.
func NewAcceptor(cfg config.ServerConfig, router *relay.Router, rooms RoomCounter, conns ConnCounter, logger *zap.Logger) *Acceptor {
	return &Acceptor{
		cfg:    cfg,
		router: router,
		rooms:  rooms,
		conns:  conns,
		logger: logger,
		active: make(map[*Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Clients connect from arbitrary origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handler returns the HTTP handler serving the websocket and health routes.
func (a *Acceptor) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", a.handleUpgrade)
	mux.HandleFunc("/health", a.handleHealth)
	mux.HandleFunc("/", a.handleHealth)
	return mux
}

// ListenAndServe starts the HTTP server and blocks until Stop is called.
//
// Precondition: The acceptor must not already be running.
// Postcondition: The server is shut down when this method returns.
func (a *Acceptor) ListenAndServe() error {
	start := time.Now()

	srv := &http.Server{
		Addr:    a.cfg.Addr(),
		Handler: a.Handler(),
	}

	a.mu.Lock()
	a.srv = srv
	a.mu.Unlock()

	a.logger.Info("websocket acceptor listening",
		zap.String("addr", srv.Addr),
		zap.Duration("startup", time.Since(start)),
	)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serving on %s: %w", srv.Addr, err)
	}
	return nil
}

// Stop gracefully stops the acceptor: it stops accepting upgrades, closes
// every live connection, shuts down the HTTP server, and waits for all
// serve goroutines to exit. Server.Shutdown alone is not enough here:
// hijacked websocket connections outlive it, and a client that answers
// pings keeps its read loop alive indefinitely.
//
// Postcondition: All connections are closed and goroutines have exited.
func (a *Acceptor) Stop() {
	a.mu.Lock()
	if a.stopping {
		a.mu.Unlock()
		return
	}
	a.stopping = true
	srv := a.srv
	for c := range a.active {
		c.Close()
	}
	a.mu.Unlock()

	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			a.logger.Error("shutting down http server", zap.Error(err))
		}
	}
	a.wg.Wait()

	a.logger.Info("websocket acceptor stopped")
}

// handleUpgrade upgrades the HTTP request and hands the connection to a
// dedicated serve goroutine. The connection is tracked under the acceptor
// lock so Stop can close it, and so no goroutine starts after Stop has
// begun waiting.
func (a *Acceptor) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	wsConn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.logger.Error("upgrading connection",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	c := NewConn(wsConn, a.cfg.WriteTimeout, a.cfg.PongTimeout, a.cfg.SendBuffer)

	a.mu.Lock()
	if a.stopping {
		a.mu.Unlock()
		wsConn.Close()
		return
	}
	a.active[c] = struct{}{}
	a.wg.Add(1)
	a.mu.Unlock()

	go a.serveConn(c, wsConn)
}

// serveConn runs the read loop for a single client. Messages are handled
// serially; when the loop ends for any reason the session's room state is
// cleaned up exactly once. Closing c ends the loop: the write pump closes
// the underlying socket on its way out, which unblocks ReadMessage.
func (a *Acceptor) serveConn(c *Conn, wsConn *websocket.Conn) {
	defer func() {
		a.mu.Lock()
		delete(a.active, c)
		a.mu.Unlock()
		a.wg.Done()
	}()
	start := time.Now()
	addr := wsConn.RemoteAddr().String()

	a.logger.Info("client connected",
		zap.String("remote_addr", addr),
	)

	go c.writePump()
	defer c.Close()

	session := a.router.NewSession(c)
	defer session.Close()

	_ = wsConn.SetReadDeadline(time.Now().Add(a.cfg.PongTimeout))
	wsConn.SetPongHandler(func(string) error {
		return wsConn.SetReadDeadline(time.Now().Add(a.cfg.PongTimeout))
	})

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				a.logger.Debug("session ended",
					zap.String("remote_addr", addr),
					zap.Error(err),
					zap.Duration("duration", time.Since(start)),
				)
			} else {
				a.logger.Info("session ended cleanly",
					zap.String("remote_addr", addr),
					zap.Duration("duration", time.Since(start)),
				)
			}
			return
		}
		session.HandleMessage(data)
	}
}

type healthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
	Rooms     int    `json:"rooms"`
	Players   int    `json:"players"`
}

func (a *Acceptor) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(healthResponse{
		Status:    "healthy",
		Service:   "parchis-server",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Rooms:     a.rooms.RoomCount(),
		Players:   a.conns.Count(),
	})
}
