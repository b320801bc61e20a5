package server

// Note: Session outbound events (dice_roll_result, sync_state, etc.) are
// defined in internal/game/outbound.go and are also sent as WebSocket
// messages under their own type names.

// MessageType represents a WebSocket message type with type safety.
type MessageType string

// WebSocket message type constants used for client-server communication.
const (
	// Client to server messages
	MessageTypePlayerConnecting     MessageType = "player_connecting"
	MessageTypePlayerConnected      MessageType = "player_connected"
	MessageTypeStartingPlayerPicked MessageType = "starting_player_picked"
	MessageTypeMulligan             MessageType = "mulligan"
	MessageTypeNoMulligan           MessageType = "no_mulligan"
	MessageTypeNormalCastElestral   MessageType = "normal_cast_elestral"
	MessageTypeCastRune             MessageType = "cast_rune"
	MessageTypeEndTurn              MessageType = "end_turn"

	// Server to client messages
	MessageTypeJoined MessageType = "joined"
	MessageTypeError  MessageType = "error"
)

// String returns the string representation of the message type.
func (mt MessageType) String() string {
	return string(mt)
}
