package server

import (
	"encoding/json"
	"time"

	"github.com/elestrals-showdown/game-server/internal/cards"
	"github.com/elestrals-showdown/game-server/internal/game"
)

// Message represents the base WebSocket message structure.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a new message with the current timestamp.
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// NewOutboundMessage wraps a session outbound event for the wire. The
// message type is the event's own type name.
func NewOutboundMessage(out game.Outbound) (*Message, error) {
	return NewMessage(MessageType(out.OutboundType()), out)
}

// Client → Server Messages

type PlayerConnectingData struct {
	Deck cards.DeckList `json:"deck"`
}

type StartingPlayerPickedData struct {
	StartingPlayer string `json:"startingPlayer"`
}

type MulliganData struct {
	SpiritIndices []int `json:"spiritIndices"`
}

type NormalCastElestralData struct {
	HandIndex   int               `json:"handIndex"`
	CostSources []game.CostSource `json:"costSources"`
	Position    int               `json:"position"`
}

type CastRuneData struct {
	HandIndex   int               `json:"handIndex"`
	CostSources []game.CostSource `json:"costSources"`
}

// Server → Client Messages

type JoinedData struct {
	PlayerID string `json:"playerId"`
	Room     string `json:"room"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
