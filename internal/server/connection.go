package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/elestrals-showdown/game-server/internal/game"
)

// Connection represents a WebSocket connection to a client.
type Connection struct {
	conn      *websocket.Conn
	send      chan *Message
	playerID  game.PlayerID
	roomID    string
	server    *Server
	session   *game.Session
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	closeOnce sync.Once
}

// NewConnection creates a new connection wrapper. The player ID and room
// come from the upgrade request; the session is attached once the client
// sends its deck.
func NewConnection(conn *websocket.Conn, playerID game.PlayerID, roomID string, server *Server, logger *log.Logger) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:     conn,
		send:     make(chan *Message, 256),
		playerID: playerID,
		roomID:   roomID,
		server:   server,
		logger:   logger.WithPrefix("conn").With("player", playerID, "room", roomID),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins handling the connection.
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// SendMessage sends a message to the client.
func (c *Connection) SendMessage(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			// Channel was closed, expected during shutdown.
			c.logger.Debug("send on closed connection", "error", r)
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// PlayerID returns the player this connection serves.
func (c *Connection) PlayerID() game.PlayerID { return c.playerID }

func (c *Connection) getSession() *game.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

func (c *Connection) setSession(s *game.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 65536
)

var ErrConnectionClosed = websocket.ErrCloseSent

// readPump handles incoming messages from the client.
func (c *Connection) readPump() {
	defer func() {
		c.leaveSession()
		_ = c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			break
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client.
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage processes incoming messages from the client. The first
// message must be player_connecting with the player's deck; everything
// else is forwarded into the session as a game event.
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("received message", "type", msg.Type)

	if msg.Type == MessageTypePlayerConnecting {
		var data PlayerConnectingData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse player connecting data")
			return
		}
		c.handlePlayerConnecting(data)
		return
	}

	session := c.getSession()
	if session == nil {
		c.sendError("not_connected", "Send player_connecting first")
		return
	}

	switch msg.Type {
	case MessageTypePlayerConnected:
		session.Post(game.PlayerConnectedEvent{Player: c.playerID})

	case MessageTypeStartingPlayerPicked:
		var data StartingPlayerPickedData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse starting player data")
			return
		}
		session.Post(game.StartingPlayerPickedEvent{
			Player:         c.playerID,
			StartingPlayer: game.PlayerID(data.StartingPlayer),
		})

	case MessageTypeMulligan:
		var data MulliganData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse mulligan data")
			return
		}
		session.Post(game.MulliganEvent{Player: c.playerID, SpiritIndices: data.SpiritIndices})

	case MessageTypeNoMulligan:
		session.Post(game.NoMulliganEvent{Player: c.playerID})

	case MessageTypeNormalCastElestral:
		var data NormalCastElestralData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse cast data")
			return
		}
		session.Post(game.NormalCastElestralEvent{
			Player:      c.playerID,
			HandIndex:   data.HandIndex,
			CostSources: data.CostSources,
			Position:    data.Position,
		})

	case MessageTypeCastRune:
		var data CastRuneData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse cast data")
			return
		}
		session.Post(game.CastRuneEvent{
			Player:      c.playerID,
			HandIndex:   data.HandIndex,
			CostSources: data.CostSources,
		})

	case MessageTypeEndTurn:
		session.Post(game.EndTurnEvent{Player: c.playerID})

	default:
		c.sendError("unknown_message_type", "Unknown message type: "+msg.Type.String())
	}
}

// handlePlayerConnecting validates the deck, claims a seat in the room
// and registers the player with the session.
func (c *Connection) handlePlayerConnecting(data PlayerConnectingData) {
	if c.getSession() != nil {
		c.sendError("already_connected", "Already joined a game")
		return
	}

	deck, err := c.server.catalog.BuildDeck(data.Deck)
	if err != nil {
		c.sendError("invalid_deck", err.Error())
		return
	}

	// Claim the outbound route before touching the room. A second socket
	// reusing a live player's ID must not reach the session at all, or its
	// eventual close would be taken for the real player leaving.
	if !c.server.bind(c) {
		c.sendError("player_id_in_use", "Player ID is already connected")
		return
	}

	session, err := c.server.registry.ConnectOrCreate(c.roomID)
	if err != nil {
		c.server.unbind(c)
		c.sendError("game_is_full", "Game is full")
		return
	}

	c.setSession(session)
	session.Post(game.PlayerConnectingEvent{Player: c.playerID, Deck: deck})

	if msg, err := NewMessage(MessageTypeJoined, JoinedData{
		PlayerID: string(c.playerID),
		Room:     c.roomID,
	}); err == nil {
		_ = c.SendMessage(msg)
	}
}

// leaveSession tells the session the player is gone. Called exactly once
// when the read pump exits.
func (c *Connection) leaveSession() {
	if session := c.getSession(); session != nil {
		session.Post(game.PlayerDisconnectedEvent{Player: c.playerID})
		c.server.unbind(c)
	}
}

// sendError sends an error message to the client.
func (c *Connection) sendError(code, message string) {
	errorMsg, err := NewMessage(MessageTypeError, ErrorData{
		Code:    code,
		Message: message,
	})
	if err != nil {
		c.logger.Error("Failed to create error message", "error", err)
		return
	}
	_ = c.SendMessage(errorMsg)
}
