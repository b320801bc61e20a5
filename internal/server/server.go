package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/elestrals-showdown/game-server/internal/cards"
	"github.com/elestrals-showdown/game-server/internal/dice"
	"github.com/elestrals-showdown/game-server/internal/game"
	"github.com/elestrals-showdown/game-server/internal/matchlog"
	"github.com/elestrals-showdown/game-server/internal/roomid"
)

// Server is the WebSocket front end. It upgrades connections, routes
// inbound messages into sessions through the registry, and delivers
// session outbound events back to the right socket. It implements
// game.Sender.
type Server struct {
	addr     string
	upgrader websocket.Upgrader
	catalog  cards.Catalog
	registry *Registry
	logger   *log.Logger

	mu      sync.RWMutex
	players map[game.PlayerID]*Connection

	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a WebSocket server from the given configuration.
func NewServer(cfg *ServerConfig, catalog cards.Catalog, logger *log.Logger, opts ...game.SessionOption) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		addr: cfg.GetServerAddress(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// For development, allow all origins
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		catalog: catalog,
		logger:  logger.WithPrefix("server"),
		players: make(map[game.PlayerID]*Connection),
		ctx:     ctx,
		cancel:  cancel,
	}
	sessionOpts := append([]game.SessionOption{
		game.WithRoller(dice.NewRoller(dice.WithSides(cfg.Game.DiceSides))),
	}, opts...)
	if cfg.Server.MatchLogDir != "" {
		writer, err := matchlog.NewWriter(cfg.Server.MatchLogDir, logger)
		if err != nil {
			s.logger.Error("Match logging disabled", "error", err)
		} else {
			sessionOpts = append(sessionOpts, game.WithResultFunc(func(res game.RoundResult) {
				if err := writer.Write(matchlog.FromResult(res)); err != nil {
					s.logger.Error("Failed to record round", "room", res.Room, "error", err)
				}
			}))
		}
	}
	s.registry = NewRegistry(s, cfg.GameConfig(), cfg.RoomTimeoutDuration(), quartz.NewReal(), logger, sessionOpts...)
	return s
}

// Registry exposes the session registry, mainly for the sweeper and
// tests.
func (s *Server) Registry() *Registry { return s.registry }

// Start starts the WebSocket server and blocks until it fails or the
// context given to the listener is cancelled.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	httpServer := &http.Server{Addr: s.addr, Handler: mux}

	go func() {
		select {
		case <-ctx.Done():
		case <-s.ctx.Done():
		}
		_ = httpServer.Close()
	}()
	go s.registry.RunSweeper(ctx)

	s.logger.Info("Starting WebSocket server", "addr", s.addr)
	err := httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop stops the WebSocket server and closes every connection.
func (s *Server) Stop() error {
	s.cancel()

	s.mu.Lock()
	for _, conn := range s.players {
		_ = conn.Close()
	}
	s.mu.Unlock()

	return nil
}

// Send delivers a session outbound event to a player's socket. Events for
// players whose socket already dropped are discarded; the session learns
// about the disconnect separately.
func (s *Server) Send(to game.PlayerID, event game.Outbound) {
	s.mu.RLock()
	conn := s.players[to]
	s.mu.RUnlock()
	if conn == nil {
		s.logger.Debug("dropping event for disconnected player", "player", to, "type", event.OutboundType())
		return
	}

	msg, err := NewOutboundMessage(event)
	if err != nil {
		s.logger.Error("Failed to encode outbound event", "type", event.OutboundType(), "error", err)
		return
	}
	_ = conn.SendMessage(msg)
}

// bind routes a player's outbound events to this connection. A player ID
// already routed to another live connection is refused.
func (s *Server) bind(c *Connection) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.players[c.PlayerID()]; ok && cur != c {
		return false
	}
	s.players[c.PlayerID()] = c
	return true
}

// unbind removes the player's route if it still points at this
// connection.
func (s *Server) unbind(c *Connection) {
	s.mu.Lock()
	if s.players[c.PlayerID()] == c {
		delete(s.players, c.PlayerID())
	}
	s.mu.Unlock()
}

// handleWebSocket handles WebSocket upgrade requests. The room comes from
// the query string; omitting it opens a fresh room the client can share.
// The player ID is client-supplied or generated.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room")
	if roomID == "" {
		roomID = roomid.New()
	} else if len(roomID) > 64 {
		http.Error(w, "room name too long", http.StatusBadRequest)
		return
	}
	playerID := r.URL.Query().Get("player")
	if playerID == "" {
		playerID = uuid.NewString()
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(conn, game.PlayerID(playerID), roomID, s, s.logger)
	s.logger.Info("Client connected", "player", playerID, "room", roomID)
	client.Start()
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}
