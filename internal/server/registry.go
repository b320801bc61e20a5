package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/elestrals-showdown/game-server/internal/game"
	"github.com/elestrals-showdown/game-server/internal/randutil"
)

// ErrSessionFull is returned when a room already has two seated players.
var ErrSessionFull = errors.New("session is full")

// Registry owns the active sessions, keyed by room ID. Connecting to an
// unknown room creates its session; connecting to a full room is refused.
// Waiting rooms that never fill are swept after a timeout.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*registryEntry

	sender      game.Sender
	gameConfig  game.Config
	roomTimeout time.Duration
	clock       quartz.Clock
	logger      *log.Logger
	opts        []game.SessionOption
}

type registryEntry struct {
	session   *game.Session
	createdAt time.Time
}

// NewRegistry creates a session registry. Sessions created through it
// send their outbound events via sender and share gameConfig.
func NewRegistry(sender game.Sender, gameConfig game.Config, roomTimeout time.Duration, clock quartz.Clock, logger *log.Logger, opts ...game.SessionOption) *Registry {
	return &Registry{
		sessions:    make(map[string]*registryEntry),
		sender:      sender,
		gameConfig:  gameConfig,
		roomTimeout: roomTimeout,
		clock:       clock,
		logger:      logger.WithPrefix("registry"),
		opts:        opts,
	}
}

// ConnectOrCreate returns the session for roomID with one seat reserved
// for the caller, creating the session if the room is new. It returns
// ErrSessionFull when both seats are taken or the game already started.
func (r *Registry) ConnectOrCreate(roomID string) (*game.Session, error) {
	r.mu.Lock()
	entry, ok := r.sessions[roomID]
	if !ok {
		entry = &registryEntry{
			session:   r.newSession(roomID),
			createdAt: r.clock.Now(),
		}
		r.sessions[roomID] = entry
		go entry.session.Run()
		r.logger.Info("session created", "room", roomID)
	}
	r.mu.Unlock()

	if !entry.session.Accepting() || !entry.session.TryReserveSeat() {
		return nil, ErrSessionFull
	}
	return entry.session, nil
}

func (r *Registry) newSession(roomID string) *game.Session {
	state := game.NewState(r.gameConfig, randutil.New(r.clock.Now().UnixNano()))
	opts := append([]game.SessionOption{game.WithTerminateFunc(r.remove)}, r.opts...)
	return game.NewSession(roomID, r.sender, r.gameConfig, state, r.logger, opts...)
}

// Get returns the session for a room, or nil.
func (r *Registry) Get(roomID string) *game.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if entry, ok := r.sessions[roomID]; ok {
		return entry.session
	}
	return nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// remove drops a terminated session. Registered as the terminate callback
// on every session the registry creates.
func (r *Registry) remove(roomID string) {
	r.mu.Lock()
	delete(r.sessions, roomID)
	r.mu.Unlock()
	r.logger.Info("session removed", "room", roomID)
}

// RunSweeper closes waiting rooms that never filled. It ticks at the room
// timeout interval until the context is cancelled.
func (r *Registry) RunSweeper(ctx context.Context) {
	ticker := r.clock.TickerFunc(ctx, r.roomTimeout, func() error {
		r.sweepOnce()
		return nil
	}, "sweeper")
	_ = ticker.Wait()
}

// sweepOnce closes every session still accepting players past the room
// timeout. Sessions remove themselves via the terminate callback.
func (r *Registry) sweepOnce() {
	cutoff := r.clock.Now().Add(-r.roomTimeout)

	r.mu.RLock()
	var stale []*game.Session
	for _, entry := range r.sessions {
		if entry.session.Accepting() && entry.createdAt.Before(cutoff) {
			stale = append(stale, entry.session)
		}
	}
	r.mu.RUnlock()

	for _, s := range stale {
		r.logger.Info("sweeping idle waiting room", "room", s.RoomID())
		s.Close()
	}
}
