package game

import "github.com/elestrals-showdown/game-server/internal/dice"

// OutboundType identifies an event sent to players.
type OutboundType string

const (
	OutPlayerConnected      OutboundType = "player_connected"
	OutEnoughPlayers        OutboundType = "enough_players"
	OutDiceRollResult       OutboundType = "dice_roll_result"
	OutChooseStartingPlayer OutboundType = "choose_starting_player"
	OutGameRoundStart       OutboundType = "game_round_start"
	OutSyncState            OutboundType = "sync_state"
	OutMainPhase            OutboundType = "main_phase"
	OutEndPhase             OutboundType = "end_phase"
	OutNextPlayerTurn       OutboundType = "next_player_turn"
	OutGameRoundOver        OutboundType = "game_round_over"
)

// String returns the string representation of the outbound type.
func (ot OutboundType) String() string { return string(ot) }

// Outbound is any event the session emits through the transport. Clients
// only ever receive well-formed domain events, never internal errors.
type Outbound interface {
	OutboundType() OutboundType
}

// Sender delivers outbound events to a single player. The transport layer
// implements it; the session never touches sockets directly.
type Sender interface {
	Send(to PlayerID, event Outbound)
}

// PlayerConnectedData announces the current roster to everyone.
type PlayerConnectedData struct {
	Players []PlayerID `json:"players"`
}

func (PlayerConnectedData) OutboundType() OutboundType { return OutPlayerConnected }

// EnoughPlayersData marks the transition out of the waiting room.
type EnoughPlayersData struct{}

func (EnoughPlayersData) OutboundType() OutboundType { return OutEnoughPlayers }

// DiceRollResultData carries every player's final tiebreak roll.
type DiceRollResultData struct {
	Results []dice.Result `json:"results"`
}

func (DiceRollResultData) OutboundType() OutboundType { return OutDiceRollResult }

// ChooseStartingPlayerData prompts the dice winner, and only the winner,
// to pick who goes first.
type ChooseStartingPlayerData struct{}

func (ChooseStartingPlayerData) OutboundType() OutboundType { return OutChooseStartingPlayer }

// GameRoundStartData announces that mulligans are settled and play begins.
type GameRoundStartData struct{}

func (GameRoundStartData) OutboundType() OutboundType { return OutGameRoundStart }

// SyncStateData carries the recipient's filtered view of the game state.
type SyncStateData struct {
	View View `json:"view"`
}

func (SyncStateData) OutboundType() OutboundType { return OutSyncState }

// MainPhaseData announces the start of the active player's main phase.
type MainPhaseData struct{}

func (MainPhaseData) OutboundType() OutboundType { return OutMainPhase }

// EndPhaseData announces the active player's end phase.
type EndPhaseData struct{}

func (EndPhaseData) OutboundType() OutboundType { return OutEndPhase }

// NextPlayerTurnData announces the new active player after an advance.
type NextPlayerTurnData struct {
	NextActivePlayer PlayerID `json:"nextActivePlayer"`
}

func (NextPlayerTurnData) OutboundType() OutboundType { return OutNextPlayerTurn }

// GameRoundOverData reports the round winner. Winner is empty when no
// winner could be determined (all players out at once, or a disconnect
// before the round started).
type GameRoundOverData struct {
	Winner PlayerID `json:"winner,omitempty"`
}

func (GameRoundOverData) OutboundType() OutboundType { return OutGameRoundOver }
