package game

import (
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/elestrals-showdown/game-server/internal/cards"
	"github.com/elestrals-showdown/game-server/internal/dice"
)

// SessionState is the top-level state of the match lifecycle machine.
type SessionState string

const (
	StateWaitingForPlayers    SessionState = "Waiting for Players"
	StateRollingDice          SessionState = "Rolling Dice"
	StateChooseStartingPlayer SessionState = "Choose Starting Player"
	StateCheckMulligans       SessionState = "Check for Mulligans"
	StateGameRound            SessionState = "Game Round"
	StateRoundOver            SessionState = "Game Round Over"
)

// maxSeats is the room capacity. Sessions are two-slot rooms; the state
// model itself handles any roster size.
const maxSeats = 2

// actionState is the actions region of the main phase. Casting exists for
// multi-step resolution but resolves immediately in this engine.
type actionState string

const (
	actionIdle    actionState = "idle"
	actionCasting actionState = "casting"
)

// mainPhase holds the two independent regions that run concurrently under
// the main phase: the once-per-turn normal-cast allowance and the actions
// region. Each region transitions on its own; neither ending completes
// the phase.
type mainPhase struct {
	normalCastUsed bool
	action         actionState
}

func newMainPhase() mainPhase {
	return mainPhase{action: actionIdle}
}

// Session is the actor owning one match. Events are processed one at a
// time from the mailbox, so all state mutation is serialised; nothing
// outside the Run loop may touch the game state.
type Session struct {
	roomID string
	logger *log.Logger
	sender Sender
	roller *dice.Roller
	cfg    Config

	events chan Event
	done   chan struct{}

	state      SessionState
	game       *State
	diceWinner PlayerID
	main       mainPhase

	// Round record, assembled as the match progresses.
	roster         []PlayerID
	diceResults    []dice.Result
	startingPlayer PlayerID
	turns          int

	seats       atomic.Int32
	accepting   atomic.Bool
	onTerminate func(roomID string)
	onResult    func(result RoundResult)
}

// RoundResult summarises a finished round for recording.
type RoundResult struct {
	Room           string
	Players        []PlayerID
	DiceResults    []dice.Result
	StartingPlayer PlayerID
	Winner         PlayerID
	Turns          int
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithRoller substitutes the dice roller, typically with a deterministic
// source in tests.
func WithRoller(r *dice.Roller) SessionOption {
	return func(s *Session) { s.roller = r }
}

// WithTerminateFunc registers a callback invoked once when the session
// reaches a terminal state, so the registry can drop its room entry.
func WithTerminateFunc(fn func(roomID string)) SessionOption {
	return func(s *Session) { s.onTerminate = fn }
}

// WithResultFunc registers a callback invoked with the round summary when
// a round that actually started reaches its end.
func WithResultFunc(fn func(result RoundResult)) SessionOption {
	return func(s *Session) { s.onResult = fn }
}

// NewSession creates a session for one room. The caller posts events into
// it and must call Run (usually in its own goroutine) to process them.
func NewSession(roomID string, sender Sender, cfg Config, state *State, logger *log.Logger, opts ...SessionOption) *Session {
	s := &Session{
		roomID: roomID,
		logger: logger.WithPrefix("session").With("room", roomID),
		sender: sender,
		roller: dice.NewRoller(),
		cfg:    cfg,
		events: make(chan Event, 64),
		done:   make(chan struct{}),
		state:  StateWaitingForPlayers,
		game:   state,
		main:   newMainPhase(),
	}
	s.accepting.Store(true)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run processes events until the session terminates. It must be the only
// goroutine calling dispatch.
func (s *Session) Run() {
	for {
		select {
		case ev := <-s.events:
			s.dispatch(ev)
		case <-s.done:
			return
		}
	}
}

// Post queues an event for the session. It reports false once the session
// has terminated.
func (s *Session) Post(ev Event) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}

// Close tears the session down without a result, used when a waiting room
// times out.
func (s *Session) Close() {
	s.Post(closeSessionEvent{})
}

// Done is closed when the session has terminated.
func (s *Session) Done() <-chan struct{} { return s.done }

// RoomID returns the room this session serves.
func (s *Session) RoomID() string { return s.roomID }

// State returns the current lifecycle state. Only meaningful from within
// the session's own event loop or after Done.
func (s *Session) State() SessionState { return s.state }

// Accepting reports whether the session is still in the waiting room.
// Safe to call from any goroutine.
func (s *Session) Accepting() bool { return s.accepting.Load() }

// TryReserveSeat atomically claims one of the room's seats. The registry
// calls it before forwarding a connecting player so a third client is
// refused without racing the event loop.
func (s *Session) TryReserveSeat() bool {
	for {
		n := s.seats.Load()
		if n >= maxSeats {
			return false
		}
		if s.seats.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// dispatch applies a single event against the current state. Events that
// do not match the current state or fail a guard are ignored: stale and
// adversarial clients are expected, not faults.
func (s *Session) dispatch(ev Event) {
	s.logger.Debug("event", "type", ev.EventType(), "from", ev.From(), "state", s.state)

	switch e := ev.(type) {
	case PlayerConnectingEvent:
		s.handlePlayerConnecting(e)
	case PlayerConnectedEvent:
		s.handlePlayerConnected(e)
	case diceRolledEvent:
		s.handleDiceRolled(e)
	case StartingPlayerPickedEvent:
		s.handleStartingPlayerPicked(e)
	case MulliganEvent:
		s.handleMulligan(e)
	case NoMulliganEvent:
		s.handleNoMulligan(e)
	case NormalCastElestralEvent:
		s.handleNormalCastElestral(e)
	case CastRuneEvent:
		s.handleCastRune(e)
	case EndTurnEvent:
		s.handleEndTurn(e)
	case deckOutEvent:
		s.handleDeckOut(e)
	case PlayerDisconnectedEvent:
		s.handlePlayerDisconnected(e)
	case closeSessionEvent:
		s.terminate()
	default:
		s.logger.Warn("unknown event", "type", ev.EventType())
	}
}

// broadcast sends an event to every player still in the roster.
func (s *Session) broadcast(out Outbound) {
	for _, id := range s.game.Rotation() {
		s.sender.Send(id, out)
	}
}

// broadcastViews re-derives and sends each player's filtered view. Views
// are always built fresh, never cached.
func (s *Session) broadcastViews() {
	for _, id := range s.game.Rotation() {
		s.sender.Send(id, SyncStateData{View: s.game.ViewFor(id)})
	}
}

func (s *Session) handlePlayerConnecting(e PlayerConnectingEvent) {
	if s.state != StateWaitingForPlayers {
		return
	}
	if len(s.game.Rotation()) >= maxSeats || s.game.Player(e.Player) != nil {
		return
	}
	s.game.AddPlayer(e.Player, e.Deck)
	s.logger.Info("player connecting", "player", e.Player)
}

func (s *Session) handlePlayerConnected(e PlayerConnectedEvent) {
	if s.state != StateWaitingForPlayers {
		return
	}
	p := s.game.Player(e.Player)
	if p == nil || p.Status != StatusConnecting {
		return
	}
	s.game.SetStatus(e.Player, StatusConnected)
	s.broadcast(PlayerConnectedData{Players: s.game.Rotation()})

	connected := 0
	for _, id := range s.game.Rotation() {
		if s.game.Player(id).Status == StatusConnected {
			connected++
		}
	}
	if connected == maxSeats {
		s.accepting.Store(false)
		s.broadcast(EnoughPlayersData{})
		s.enterRollingDice()
	}
}

// enterRollingDice runs the dice tiebreak sub-process. The roll is
// CPU-bound, so it is invoked synchronously and its result delivered as a
// self-signal through the same dispatch path.
func (s *Session) enterRollingDice() {
	s.state = StateRollingDice
	winner, results, err := s.roller.Tiebreak(playerNames(s.game.Rotation()))
	if err != nil {
		s.logger.Error("dice tiebreak failed", "error", err)
		s.terminate()
		return
	}
	s.dispatch(diceRolledEvent{winner: PlayerID(winner), results: results})
}

func (s *Session) handleDiceRolled(e diceRolledEvent) {
	if s.state != StateRollingDice {
		return
	}
	s.diceWinner = e.winner
	s.diceResults = e.results
	s.broadcast(DiceRollResultData{Results: e.results})
	s.state = StateChooseStartingPlayer
	s.sender.Send(e.winner, ChooseStartingPlayerData{})
	s.logger.Info("dice tiebreak settled", "winner", e.winner)
}

func (s *Session) handleStartingPlayerPicked(e StartingPlayerPickedEvent) {
	if s.state != StateChooseStartingPlayer {
		return
	}
	if e.Player != s.diceWinner {
		return
	}
	if s.game.Player(e.StartingPlayer) == nil {
		return
	}

	// Shuffle and Draw runs synchronously and falls through to the
	// mulligan check.
	s.game.ShuffleAndDeal(e.StartingPlayer)
	s.startingPlayer = e.StartingPlayer
	s.roster = s.game.Rotation()
	s.state = StateCheckMulligans
	s.broadcastViews()
	s.logger.Info("decks dealt", "startingPlayer", e.StartingPlayer)
}

func (s *Session) handleMulligan(e MulliganEvent) {
	if s.state != StateCheckMulligans {
		return
	}
	p := s.game.Player(e.Player)
	if p == nil || p.Status != StatusPreparing {
		return
	}

	if len(p.SpiritDeck) <= s.cfg.MulliganSpiritFee {
		// Cannot pay the fee: out of the round, hand untouched.
		s.game.MarkOut(e.Player, OutReasonSpiritOut)
		s.logger.Info("player out", "player", e.Player, "reason", OutReasonSpiritOut)
		if s.checkRoundOver() {
			return
		}
		s.broadcastViews()
		s.maybeStartRound()
		return
	}

	sel := s.game.mulliganSelection(e.Player)
	picked, ok := selectSpiritIndices(sel, e.SpiritIndices)
	if !ok {
		s.logger.Debug("mulligan rejected", "player", e.Player, "indices", e.SpiritIndices)
		return
	}
	indices := make([]int, len(picked))
	for i, item := range picked {
		indices[i] = item.Index
	}

	s.game.ShuffleHandIntoDeck(e.Player)
	s.game.ExpendSpirits(e.Player, indices)
	s.game.Draw(e.Player, s.cfg.OpeningHandSize)
	s.broadcastViews()
	s.logger.Info("mulligan taken", "player", e.Player)
}

func (s *Session) handleNoMulligan(e NoMulliganEvent) {
	if s.state != StateCheckMulligans {
		return
	}
	p := s.game.Player(e.Player)
	if p == nil || p.Status != StatusPreparing {
		return
	}
	s.game.SetStatus(e.Player, StatusReady)
	s.maybeStartRound()
}

// maybeStartRound begins the round once every remaining player is ready.
func (s *Session) maybeStartRound() {
	if s.state != StateCheckMulligans {
		return
	}
	for _, id := range s.game.Rotation() {
		if s.game.Player(id).Status == StatusPreparing {
			return
		}
	}
	s.state = StateGameRound
	s.broadcast(GameRoundStartData{})

	// The chosen starting player may have mulliganed out; skip them.
	active := s.game.Turn().ActivePlayer
	if s.game.Player(active).Status == StatusOut {
		next, ok := s.game.NextActive(active)
		if !ok {
			s.enterRoundOver("")
			return
		}
		s.game.SetActivePlayer(next)
	}
	s.beginTurn()
}

// beginTurn runs the draw phase for the active player and, if they
// survive it, opens their main phase with fresh regions.
func (s *Session) beginTurn() {
	active := s.game.Turn().ActivePlayer
	s.turns++
	s.game.SetPhase(PhaseDraw)

	if len(s.game.Player(active).MainDeck) == 0 {
		s.dispatch(deckOutEvent{player: active})
		return
	}
	s.game.Draw(active, 1)

	s.game.SetPhase(PhaseMain)
	s.main = newMainPhase()
	s.broadcast(MainPhaseData{})
	s.broadcastViews()
}

func (s *Session) handleDeckOut(e deckOutEvent) {
	if s.state != StateGameRound {
		return
	}
	s.game.MarkOut(e.player, OutReasonDeckOut)
	s.logger.Info("player out", "player", e.player, "reason", OutReasonDeckOut)
	s.completeTurn()
}

func (s *Session) handleNormalCastElestral(e NormalCastElestralEvent) {
	if !s.inMainPhase(e.Player) {
		return
	}
	if s.main.normalCastUsed {
		return
	}
	p := s.game.Player(e.Player)
	if e.HandIndex < 0 || e.HandIndex >= len(p.Hand) {
		return
	}
	card := p.Hand[e.HandIndex]
	if card.Class != cards.ClassElestral {
		return
	}
	slot := s.game.Slot(e.Player, SlotElestral, e.Position)
	if slot == nil || slot.Contents != nil {
		return
	}

	sel := s.game.castCostSelection(e.Player, card)
	picked, ok := selectCostSources(sel, e.CostSources)
	if !ok {
		s.logger.Debug("elestral cast rejected", "player", e.Player, "card", card.ID)
		return
	}

	spirits := s.collectCostSpirits(e.Player, picked)
	s.game.placeOnField(e.Player, e.HandIndex, slot, spirits, false)
	s.main.normalCastUsed = true
	s.broadcastViews()
	s.logger.Info("elestral cast", "player", e.Player, "card", card.ID, "slot", slot.Index)
}

func (s *Session) handleCastRune(e CastRuneEvent) {
	if !s.inMainPhase(e.Player) {
		return
	}
	p := s.game.Player(e.Player)
	if e.HandIndex < 0 || e.HandIndex >= len(p.Hand) {
		return
	}
	card := p.Hand[e.HandIndex]
	if card.Class != cards.ClassRune {
		return
	}
	slot := s.game.FirstFreeSlot(e.Player, SlotRune)
	if slot == nil {
		return
	}
	if len(e.CostSources) != len(card.Cost) {
		return
	}

	sel := s.game.castCostSelection(e.Player, card)
	picked, ok := selectCostSources(sel, e.CostSources)
	if !ok {
		s.logger.Debug("rune cast rejected", "player", e.Player, "card", card.ID)
		return
	}

	// The actions region enters Casting and resolves immediately; a
	// pending sub-state exists for future multi-step resolution.
	s.main.action = actionCasting
	spirits := s.collectCostSpirits(e.Player, picked)
	s.game.placeOnField(e.Player, e.HandIndex, slot, spirits, false)
	s.main.action = actionIdle

	s.broadcastViews()
	s.logger.Info("rune cast", "player", e.Player, "card", card.ID, "slot", slot.Index)
}

// collectCostSpirits moves the confirmed cost sources out of their zones,
// returning the spirits to attach to the newly cast card. Sources from
// the same zone are removed together so one removal cannot invalidate the
// indices of another.
func (s *Session) collectCostSpirits(id PlayerID, picked []SelectionItem[CostCandidate]) []cards.Card {
	var deckIndices []int
	slotIndices := make(map[*FieldSlot][]int)
	for _, item := range picked {
		src := item.Item.Source
		switch src.Zone {
		case CostZoneSpiritDeck:
			deckIndices = append(deckIndices, src.Index)
		case CostZoneField:
			slot := s.game.Slot(id, src.SlotType, src.SlotIndex)
			slotIndices[slot] = append(slotIndices[slot], src.SpiritIndex)
		}
	}

	spirits := s.game.takeSpiritsFromDeck(id, deckIndices)
	for slot, indices := range slotIndices {
		spirits = append(spirits, takeSpiritsFromSlot(slot, indices)...)
	}
	return spirits
}

func (s *Session) inMainPhase(from PlayerID) bool {
	if s.state != StateGameRound {
		return false
	}
	turn := s.game.Turn()
	return turn.Phase == PhaseMain && turn.ActivePlayer == from
}

func (s *Session) handleEndTurn(e EndTurnEvent) {
	if !s.inMainPhase(e.Player) {
		return
	}

	// Battle phase is a placeholder: no actions are defined, it always
	// proceeds straight to the end phase.
	s.game.SetPhase(PhaseBattle)

	s.game.SetPhase(PhaseEnd)
	s.broadcast(EndPhaseData{})
	s.broadcastViews()

	s.completeTurn()
}

// completeTurn closes out the active player's round and either ends the
// game or advances to the next eligible player.
func (s *Session) completeTurn() {
	if s.checkRoundOver() {
		return
	}
	next, ok := s.game.NextActive(s.game.Turn().ActivePlayer)
	if !ok {
		s.enterRoundOver("")
		return
	}
	s.game.SetActivePlayer(next)
	s.broadcast(NextPlayerTurnData{NextActivePlayer: next})
	s.broadcastViews()
	s.beginTurn()
}

// checkRoundOver fires round-over exactly when at most one non-out player
// remains. With zero remaining no winner is reported; the tie semantics
// are deliberately unspecified.
func (s *Session) checkRoundOver() bool {
	remaining := s.game.RemainingPlayers()
	if len(remaining) > 1 {
		return false
	}
	var winner PlayerID
	if len(remaining) == 1 {
		winner = remaining[0]
	}
	s.enterRoundOver(winner)
	return true
}

func (s *Session) enterRoundOver(winner PlayerID) {
	s.state = StateRoundOver
	s.broadcastViews()
	s.broadcast(GameRoundOverData{Winner: winner})
	s.logger.Info("round over", "winner", winner)

	// Only rounds that were dealt get recorded; abandoned waiting rooms
	// produce nothing.
	if s.onResult != nil && len(s.roster) > 0 {
		s.onResult(RoundResult{
			Room:           s.roomID,
			Players:        s.roster,
			DiceResults:    s.diceResults,
			StartingPlayer: s.startingPlayer,
			Winner:         winner,
			Turns:          s.turns,
		})
	}
	s.terminate()
}

func (s *Session) handlePlayerDisconnected(e PlayerDisconnectedEvent) {
	p := s.game.Player(e.Player)
	if p == nil {
		return
	}

	preRound := p.Status == StatusConnecting || p.Status == StatusConnected
	wasActive := s.game.Turn().ActivePlayer == e.Player
	if s.state == StateWaitingForPlayers {
		// A leaver in the waiting room may come back under the same ID.
		s.game.RemovePlayer(e.Player)
	} else {
		s.game.DropFromRotation(e.Player)
	}
	s.seats.Add(-1)
	s.logger.Info("player disconnected", "player", e.Player, "status", p.Status)

	if s.state == StateRoundOver {
		return
	}
	if len(s.game.Rotation()) == 0 {
		s.terminate()
		return
	}

	switch {
	case s.state == StateWaitingForPlayers:
		// Seat freed; the room keeps waiting.
	case preRound:
		// The round never started; there is no winner to compute.
		s.enterRoundOver("")
	default:
		if s.checkRoundOver() {
			return
		}
		if s.state == StateCheckMulligans {
			// The leaver may have been the last player still deciding.
			s.maybeStartRound()
			return
		}
		if wasActive {
			next, ok := s.game.NextActive(e.Player)
			if !ok {
				s.enterRoundOver("")
				return
			}
			s.game.SetActivePlayer(next)
			s.broadcast(NextPlayerTurnData{NextActivePlayer: next})
			s.beginTurn()
		}
	}
}

// terminate closes the mailbox side of the session and notifies the
// registry exactly once.
func (s *Session) terminate() {
	select {
	case <-s.done:
		return
	default:
	}
	s.accepting.Store(false)
	close(s.done)
	if s.onTerminate != nil {
		s.onTerminate(s.roomID)
	}
}

func playerNames(ids []PlayerID) []string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = string(id)
	}
	return names
}
