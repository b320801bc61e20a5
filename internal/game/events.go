package game

import (
	"github.com/elestrals-showdown/game-server/internal/cards"
	"github.com/elestrals-showdown/game-server/internal/dice"
)

// EventType identifies an inbound session event.
type EventType string

const (
	EventPlayerConnecting     EventType = "player_connecting"
	EventPlayerConnected      EventType = "player_connected"
	EventStartingPlayerPicked EventType = "starting_player_picked"
	EventMulligan             EventType = "mulligan"
	EventNoMulligan           EventType = "no_mulligan"
	EventNormalCastElestral   EventType = "normal_cast_elestral"
	EventCastRune             EventType = "cast_rune"
	EventEndTurn              EventType = "end_turn"
	EventPlayerDisconnected   EventType = "player_disconnected"

	// Internal self-signals, never accepted from the transport.
	eventDiceRolled   EventType = "dice_rolled"
	eventDeckOut      EventType = "deck_out"
	eventCloseSession EventType = "close_session"
)

// String returns the string representation of the event type.
func (et EventType) String() string { return string(et) }

// Event is any inbound session event. The sender identity is attached by
// the transport layer; internal self-signals report an empty sender.
type Event interface {
	EventType() EventType
	From() PlayerID
}

// CostSource names one cost payment source: either a spirit-deck card or
// a spirit already expended onto one of the caster's field slots.
type CostSource struct {
	Zone        CostZone `json:"zone"`
	Index       int      `json:"index,omitempty"`       // spirit deck only
	SlotType    SlotType `json:"slotType,omitempty"`    // field only
	SlotIndex   int      `json:"slotIndex,omitempty"`   // field only
	SpiritIndex int      `json:"spiritIndex,omitempty"` // field only
}

// CostZone distinguishes the two legal cost source zones.
type CostZone string

const (
	CostZoneSpiritDeck CostZone = "spirit_deck"
	CostZoneField      CostZone = "field"
)

// PlayerConnectingEvent announces a new player with their validated deck.
// It is synthesized by the transport when the socket opens.
type PlayerConnectingEvent struct {
	Player PlayerID
	Deck   cards.Deck
}

func (e PlayerConnectingEvent) EventType() EventType { return EventPlayerConnecting }
func (e PlayerConnectingEvent) From() PlayerID       { return e.Player }

// PlayerConnectedEvent confirms a player is ready to be counted towards
// the two-player threshold.
type PlayerConnectedEvent struct {
	Player PlayerID
}

func (e PlayerConnectedEvent) EventType() EventType { return EventPlayerConnected }
func (e PlayerConnectedEvent) From() PlayerID       { return e.Player }

// StartingPlayerPickedEvent is the dice winner's choice of who goes first.
type StartingPlayerPickedEvent struct {
	Player         PlayerID
	StartingPlayer PlayerID `json:"startingPlayer"`
}

func (e StartingPlayerPickedEvent) EventType() EventType { return EventStartingPlayerPicked }
func (e StartingPlayerPickedEvent) From() PlayerID       { return e.Player }

// MulliganEvent asks to redraw the opening hand, naming the spirit-deck
// cards to expend as the fee.
type MulliganEvent struct {
	Player        PlayerID
	SpiritIndices []int `json:"spiritIndices"`
}

func (e MulliganEvent) EventType() EventType { return EventMulligan }
func (e MulliganEvent) From() PlayerID       { return e.Player }

// NoMulliganEvent keeps the opening hand.
type NoMulliganEvent struct {
	Player PlayerID
}

func (e NoMulliganEvent) EventType() EventType { return EventNoMulligan }
func (e NoMulliganEvent) From() PlayerID       { return e.Player }

// NormalCastElestralEvent casts an elestral from hand into a chosen
// elestral slot, consuming the once-per-turn allowance.
type NormalCastElestralEvent struct {
	Player      PlayerID
	HandIndex   int          `json:"handIndex"`
	CostSources []CostSource `json:"costSources"`
	Position    int          `json:"position"`
}

func (e NormalCastElestralEvent) EventType() EventType { return EventNormalCastElestral }
func (e NormalCastElestralEvent) From() PlayerID       { return e.Player }

// CastRuneEvent casts a rune from hand into the first free rune slot.
type CastRuneEvent struct {
	Player      PlayerID
	HandIndex   int          `json:"handIndex"`
	CostSources []CostSource `json:"costSources"`
}

func (e CastRuneEvent) EventType() EventType { return EventCastRune }
func (e CastRuneEvent) From() PlayerID       { return e.Player }

// EndTurnEvent ends the active player's main phase.
type EndTurnEvent struct {
	Player PlayerID
}

func (e EndTurnEvent) EventType() EventType { return EventEndTurn }
func (e EndTurnEvent) From() PlayerID       { return e.Player }

// PlayerDisconnectedEvent is synthesized by the transport when a player's
// socket closes.
type PlayerDisconnectedEvent struct {
	Player PlayerID
}

func (e PlayerDisconnectedEvent) EventType() EventType { return EventPlayerDisconnected }
func (e PlayerDisconnectedEvent) From() PlayerID       { return e.Player }

// diceRolledEvent delivers the dice tiebreak outcome back into the
// session's event stream.
type diceRolledEvent struct {
	winner  PlayerID
	results []dice.Result
}

func (e diceRolledEvent) EventType() EventType { return eventDiceRolled }
func (e diceRolledEvent) From() PlayerID       { return "" }

// deckOutEvent signals that the active player failed their draw.
type deckOutEvent struct {
	player PlayerID
}

func (e deckOutEvent) EventType() EventType { return eventDeckOut }
func (e deckOutEvent) From() PlayerID       { return e.player }

// closeSessionEvent tears the session down, used by the registry when a
// waiting room times out.
type closeSessionEvent struct{}

func (e closeSessionEvent) EventType() EventType { return eventCloseSession }
func (e closeSessionEvent) From() PlayerID       { return "" }
