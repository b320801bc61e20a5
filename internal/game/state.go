// Package game implements the authoritative match engine: the session
// lifecycle machine, the shared game state, and the per-player view
// projection. All state lives behind a single session goroutine; the
// package exposes no locks.
package game

import (
	rand "math/rand/v2"

	"github.com/elestrals-showdown/game-server/internal/cards"
)

// PlayerID identifies a player within a session. The transport assigns
// it, either from the client or generated on connect.
type PlayerID string

// Status is a player's lifecycle status within the session.
type Status string

const (
	StatusConnecting Status = "connecting"
	StatusConnected  Status = "connected"
	StatusPreparing  Status = "preparing"
	StatusReady      Status = "ready"
	StatusOut        Status = "out"
)

// OutReason records why a player fell out of the round.
type OutReason string

const (
	OutReasonDeckOut   OutReason = "deck out"
	OutReasonSpiritOut OutReason = "spirit out"
)

// Phase is a phase of the active player's turn.
type Phase string

const (
	PhaseDraw   Phase = "Draw Phase"
	PhaseMain   Phase = "Main Phase"
	PhaseBattle Phase = "Battle Phase"
	PhaseEnd    Phase = "End Phase"
)

// TurnState names the active player and their current phase.
type TurnState struct {
	ActivePlayer PlayerID `json:"activePlayer"`
	Phase        Phase    `json:"phase"`
}

// SlotType is the kind of field slot.
type SlotType string

const (
	SlotElestral SlotType = "elestral"
	SlotRune     SlotType = "rune"
	SlotStadium  SlotType = "stadium"
)

// SlotContents is an occupied slot: the cast card, the spirits expended
// to pay its cost, and whether it was set face down.
type SlotContents struct {
	Card    cards.Card   `json:"card"`
	Spirits []cards.Card `json:"spirits"`
	Set     bool         `json:"set,omitempty"`
}

// FieldSlot is one position on the shared field. Contents is nil while
// the slot is empty.
type FieldSlot struct {
	Type     SlotType      `json:"type"`
	Owner    PlayerID      `json:"owner"`
	Index    int           `json:"index"`
	Contents *SlotContents `json:"contents,omitempty"`
}

// PlayerState is everything the engine tracks for one player. Hand,
// MainDeck and SpiritDeck orderings are secret; Underworld is public.
type PlayerState struct {
	Status     Status
	OutReason  OutReason
	Hand       []cards.Card
	MainDeck   []cards.Card
	SpiritDeck []cards.Card
	Underworld []cards.Card

	// deck holds the submitted deck until shuffle and deal.
	deck cards.Deck
}

// Config carries the tunable rule parameters.
type Config struct {
	OpeningHandSize   int
	ElestralSlots     int
	RuneSlots         int
	StadiumSlots      int
	MulliganSpiritFee int
}

// DefaultConfig returns the standard two-player rules.
func DefaultConfig() Config {
	return Config{
		OpeningHandSize:   5,
		ElestralSlots:     4,
		RuneSlots:         4,
		StadiumSlots:      1,
		MulliganSpiritFee: 2,
	}
}

// State is the authoritative game state for one session. It is not safe
// for concurrent use; the owning session serialises all access.
type State struct {
	cfg      Config
	turn     TurnState
	field    []FieldSlot
	players  map[PlayerID]*PlayerState
	rotation []PlayerID
	rng      *rand.Rand
}

// NewState creates an empty game state. The rng drives deck shuffles and
// must be seeded by the caller.
func NewState(cfg Config, rng *rand.Rand) *State {
	return &State{
		cfg:     cfg,
		players: make(map[PlayerID]*PlayerState),
		rng:     rng,
	}
}

// AddPlayer registers a player with their validated deck, appending them
// to the turn rotation in join order.
func (s *State) AddPlayer(id PlayerID, deck cards.Deck) {
	s.players[id] = &PlayerState{Status: StatusConnecting, deck: deck}
	s.rotation = append(s.rotation, id)
}

// SetStatus updates a player's lifecycle status.
func (s *State) SetStatus(id PlayerID, status Status) {
	if p := s.players[id]; p != nil {
		p.Status = status
	}
}

// MarkOut removes a player from contention, recording why. Their zones
// stay as they were; only status changes.
func (s *State) MarkOut(id PlayerID, reason OutReason) {
	if p := s.players[id]; p != nil {
		p.Status = StatusOut
		p.OutReason = reason
	}
}

// ShuffleAndDeal shuffles every player's decks, deals opening hands, lays
// out the field and opens the first turn for startingPlayer. Players move
// to preparing, ready to answer the mulligan check.
func (s *State) ShuffleAndDeal(startingPlayer PlayerID) {
	for _, id := range s.rotation {
		p := s.players[id]
		p.MainDeck = cards.Shuffle(p.deck.Main, s.rng)
		p.SpiritDeck = cards.Shuffle(p.deck.Spirit, s.rng)
		p.Hand = nil
		s.Draw(id, s.cfg.OpeningHandSize)
		p.Status = StatusPreparing
	}

	// Rune slots first, then elestrals, then the stadium.
	s.field = s.field[:0]
	for _, id := range s.rotation {
		for i := 0; i < s.cfg.RuneSlots; i++ {
			s.field = append(s.field, FieldSlot{Type: SlotRune, Owner: id, Index: i})
		}
		for i := 0; i < s.cfg.ElestralSlots; i++ {
			s.field = append(s.field, FieldSlot{Type: SlotElestral, Owner: id, Index: i})
		}
		for i := 0; i < s.cfg.StadiumSlots; i++ {
			s.field = append(s.field, FieldSlot{Type: SlotStadium, Owner: id, Index: i})
		}
	}

	s.turn = TurnState{ActivePlayer: startingPlayer, Phase: PhaseMain}
}

// Turn returns the current turn state.
func (s *State) Turn() TurnState { return s.turn }

// SetPhase moves the current turn to the given phase.
func (s *State) SetPhase(phase Phase) { s.turn.Phase = phase }

// SetActivePlayer hands the turn to the given player.
func (s *State) SetActivePlayer(id PlayerID) { s.turn.ActivePlayer = id }

// Player returns the state for one player, or nil if unknown.
func (s *State) Player(id PlayerID) *PlayerState { return s.players[id] }

// Field returns the live field slots. Callers must not mutate them.
func (s *State) Field() []FieldSlot { return s.field }

// Rotation returns the players still seated, in turn order.
func (s *State) Rotation() []PlayerID {
	out := make([]PlayerID, len(s.rotation))
	copy(out, s.rotation)
	return out
}

// DropFromRotation removes a player from the seat order, used on
// disconnect. Unlike MarkOut the player stops receiving broadcasts, but
// their state stays behind for scoring.
func (s *State) DropFromRotation(id PlayerID) {
	for i, pid := range s.rotation {
		if pid == id {
			s.rotation = append(s.rotation[:i], s.rotation[i+1:]...)
			break
		}
	}
}

// RemovePlayer erases a player entirely, freeing their ID for reuse. Only
// valid before the round starts.
func (s *State) RemovePlayer(id PlayerID) {
	s.DropFromRotation(id)
	delete(s.players, id)
}

// RemainingPlayers returns the seated players not yet out, in turn order.
func (s *State) RemainingPlayers() []PlayerID {
	var out []PlayerID
	for _, id := range s.rotation {
		if s.players[id].Status != StatusOut {
			out = append(out, id)
		}
	}
	return out
}

// NextActive returns the next player after current in rotation order,
// wrapping around and skipping players who are out. It reports false when
// nobody is eligible.
func (s *State) NextActive(current PlayerID) (PlayerID, bool) {
	if len(s.rotation) == 0 {
		return "", false
	}
	start := 0
	for i, id := range s.rotation {
		if id == current {
			start = i
			break
		}
	}
	for i := 1; i <= len(s.rotation); i++ {
		id := s.rotation[(start+i)%len(s.rotation)]
		if s.players[id].Status != StatusOut {
			return id, true
		}
	}
	return "", false
}

// Slot returns the owner's slot of the given type and index, or nil.
func (s *State) Slot(owner PlayerID, typ SlotType, index int) *FieldSlot {
	for i := range s.field {
		slot := &s.field[i]
		if slot.Owner == owner && slot.Type == typ && slot.Index == index {
			return slot
		}
	}
	return nil
}

// FirstFreeSlot returns the owner's empty slot of the given type with the
// lowest index, or nil when all are occupied.
func (s *State) FirstFreeSlot(owner PlayerID, typ SlotType) *FieldSlot {
	var best *FieldSlot
	for i := range s.field {
		slot := &s.field[i]
		if slot.Owner != owner || slot.Type != typ || slot.Contents != nil {
			continue
		}
		if best == nil || slot.Index < best.Index {
			best = slot
		}
	}
	return best
}
