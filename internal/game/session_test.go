package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitingRoomFillsAndRollsDice(t *testing.T) {
	t.Parallel()
	s, sender := newTestSession(t)

	deck := standardDeck(t, "teratlas")
	s.dispatch(PlayerConnectingEvent{Player: "p1", Deck: deck})
	s.dispatch(PlayerConnectedEvent{Player: "p1"})
	assert.Equal(t, StateWaitingForPlayers, s.State())
	assert.True(t, s.Accepting())

	s.dispatch(PlayerConnectingEvent{Player: "p2", Deck: deck})
	s.dispatch(PlayerConnectedEvent{Player: "p2"})

	// Both seated: dice roll ran and the winner was prompted.
	assert.Equal(t, StateChooseStartingPlayer, s.State())
	assert.False(t, s.Accepting())
	assert.NotEmpty(t, sender.byType("p1", OutEnoughPlayers))
	assert.NotEmpty(t, sender.byType("p2", OutEnoughPlayers))

	rolls := sender.byType("p1", OutDiceRollResult)
	require.Len(t, rolls, 1)
	results := rolls[0].(DiceRollResultData).Results
	require.Len(t, results, 2)

	assert.NotEmpty(t, sender.byType("p1", OutChooseStartingPlayer))
	assert.Empty(t, sender.byType("p2", OutChooseStartingPlayer))
}

func TestSeatReservation(t *testing.T) {
	t.Parallel()
	s, _ := newTestSession(t)

	assert.True(t, s.TryReserveSeat())
	assert.True(t, s.TryReserveSeat())
	assert.False(t, s.TryReserveSeat())
}

func TestOnlyDiceWinnerPicksStartingPlayer(t *testing.T) {
	t.Parallel()
	s, _ := newTestSession(t)
	deck := standardDeck(t, "teratlas")
	connectTwo(s, deck, deck)

	// p2 lost the roll; their pick is ignored.
	s.dispatch(StartingPlayerPickedEvent{Player: "p2", StartingPlayer: "p2"})
	assert.Equal(t, StateChooseStartingPlayer, s.State())

	s.dispatch(StartingPlayerPickedEvent{Player: "p1", StartingPlayer: "p2"})
	assert.Equal(t, StateCheckMulligans, s.State())
	assert.Equal(t, PlayerID("p2"), s.game.Turn().ActivePlayer)
}

func TestDealGivesOpeningHands(t *testing.T) {
	t.Parallel()
	s, sender := newTestSession(t)
	deck := standardDeck(t, "teratlas")
	connectTwo(s, deck, deck)
	s.dispatch(StartingPlayerPickedEvent{Player: "p1", StartingPlayer: "p1"})

	for _, id := range []PlayerID{"p1", "p2"} {
		p := s.game.Player(id)
		assert.Len(t, p.Hand, 5)
		assert.Len(t, p.MainDeck, 15)
		assert.Len(t, p.SpiritDeck, 10)
		assert.Equal(t, StatusPreparing, p.Status)

		view := sender.lastView(t, id)
		assert.Len(t, view.Hand, 5)
		assert.Equal(t, 15, view.MainDeckCount)
	}

	// Per-player field: 4 runes, 4 elestrals, 1 stadium each.
	assert.Len(t, s.game.Field(), 18)
}

func TestMulliganRedrawsHand(t *testing.T) {
	t.Parallel()
	s, _ := newTestSession(t)
	deck := standardDeck(t, "teratlas")
	connectTwo(s, deck, deck)
	s.dispatch(StartingPlayerPickedEvent{Player: "p1", StartingPlayer: "p1"})

	s.dispatch(MulliganEvent{Player: "p1", SpiritIndices: []int{0, 3}})

	p := s.game.Player("p1")
	assert.Len(t, p.Hand, 5)
	assert.Len(t, p.MainDeck, 15)
	assert.Len(t, p.SpiritDeck, 8)
	assert.Len(t, p.Underworld, 2)
	// Still preparing: the player may mulligan again or keep the hand.
	assert.Equal(t, StatusPreparing, p.Status)
	assert.Equal(t, StateCheckMulligans, s.State())
}

func TestMulliganWrongFeeRejected(t *testing.T) {
	t.Parallel()
	s, _ := newTestSession(t)
	deck := standardDeck(t, "teratlas")
	connectTwo(s, deck, deck)
	s.dispatch(StartingPlayerPickedEvent{Player: "p1", StartingPlayer: "p1"})

	s.dispatch(MulliganEvent{Player: "p1", SpiritIndices: []int{0}})
	s.dispatch(MulliganEvent{Player: "p1", SpiritIndices: []int{0, 0}})
	s.dispatch(MulliganEvent{Player: "p1", SpiritIndices: []int{0, 1, 2}})

	p := s.game.Player("p1")
	assert.Len(t, p.SpiritDeck, 10)
	assert.Empty(t, p.Underworld)
}

func TestMulliganWithoutSpiritsPutsPlayerOut(t *testing.T) {
	t.Parallel()
	s, sender := newTestSession(t)
	poor := buildDeck(t,
		map[string]int{"teratlas": 20},
		map[string]int{"spirit-earth": 2},
	)
	connectTwo(s, poor, standardDeck(t, "teratlas"))
	s.dispatch(StartingPlayerPickedEvent{Player: "p1", StartingPlayer: "p1"})

	s.dispatch(MulliganEvent{Player: "p1", SpiritIndices: []int{0, 1}})

	p := s.game.Player("p1")
	assert.Equal(t, StatusOut, p.Status)
	assert.Equal(t, OutReasonSpiritOut, p.OutReason)
	// Hand unchanged: the failed mulligan never touched it.
	assert.Len(t, p.Hand, 5)

	require.Equal(t, StateRoundOver, s.State())
	overs := sender.byType("p2", OutGameRoundOver)
	require.Len(t, overs, 1)
	assert.Equal(t, PlayerID("p2"), overs[0].(GameRoundOverData).Winner)
}

func TestRoundStartDrawsForActivePlayer(t *testing.T) {
	t.Parallel()
	s, sender := newTestSession(t)
	deck := standardDeck(t, "teratlas")
	startRound(t, s, deck, deck)

	assert.Equal(t, PhaseMain, s.game.Turn().Phase)
	assert.Equal(t, PlayerID("p1"), s.game.Turn().ActivePlayer)
	assert.Len(t, s.game.Player("p1").Hand, 6)
	assert.Len(t, s.game.Player("p2").Hand, 5)
	assert.NotEmpty(t, sender.byType("p1", OutGameRoundStart))
	assert.NotEmpty(t, sender.byType("p2", OutMainPhase))
}

func TestNormalCastElestral(t *testing.T) {
	t.Parallel()
	s, _ := newTestSession(t)
	deck := standardDeck(t, "teratlas")
	startRound(t, s, deck, deck)

	s.dispatch(NormalCastElestralEvent{
		Player:      "p1",
		HandIndex:   0,
		CostSources: []CostSource{{Zone: CostZoneSpiritDeck, Index: 0}},
		Position:    2,
	})

	p := s.game.Player("p1")
	assert.Len(t, p.Hand, 5)
	assert.Len(t, p.SpiritDeck, 9)

	slot := s.game.Slot("p1", SlotElestral, 2)
	require.NotNil(t, slot.Contents)
	assert.Equal(t, "teratlas", slot.Contents.Card.ID)
	require.Len(t, slot.Contents.Spirits, 1)
	assert.Equal(t, "spirit-earth", slot.Contents.Spirits[0].ID)
}

func TestNormalCastOncePerTurn(t *testing.T) {
	t.Parallel()
	s, _ := newTestSession(t)
	deck := standardDeck(t, "teratlas")
	startRound(t, s, deck, deck)

	s.dispatch(NormalCastElestralEvent{
		Player:      "p1",
		HandIndex:   0,
		CostSources: []CostSource{{Zone: CostZoneSpiritDeck, Index: 0}},
		Position:    0,
	})
	s.dispatch(NormalCastElestralEvent{
		Player:      "p1",
		HandIndex:   0,
		CostSources: []CostSource{{Zone: CostZoneSpiritDeck, Index: 0}},
		Position:    1,
	})

	assert.NotNil(t, s.game.Slot("p1", SlotElestral, 0).Contents)
	assert.Nil(t, s.game.Slot("p1", SlotElestral, 1).Contents)
	assert.Len(t, s.game.Player("p1").Hand, 5)
}

func TestNormalCastAllowanceResetsNextTurn(t *testing.T) {
	t.Parallel()
	s, _ := newTestSession(t)
	deck := standardDeck(t, "teratlas")
	startRound(t, s, deck, deck)

	s.dispatch(NormalCastElestralEvent{
		Player:      "p1",
		HandIndex:   0,
		CostSources: []CostSource{{Zone: CostZoneSpiritDeck, Index: 0}},
		Position:    0,
	})
	s.dispatch(EndTurnEvent{Player: "p1"})
	s.dispatch(EndTurnEvent{Player: "p2"})

	// Back to p1 with a fresh allowance.
	require.Equal(t, PlayerID("p1"), s.game.Turn().ActivePlayer)
	s.dispatch(NormalCastElestralEvent{
		Player:      "p1",
		HandIndex:   0,
		CostSources: []CostSource{{Zone: CostZoneSpiritDeck, Index: 0}},
		Position:    1,
	})
	assert.NotNil(t, s.game.Slot("p1", SlotElestral, 1).Contents)
}

func TestCastRuneTakesLowestFreeSlot(t *testing.T) {
	t.Parallel()
	s, _ := newTestSession(t)
	deck := standardDeck(t, "ancient-relic")
	startRound(t, s, deck, deck)

	s.dispatch(CastRuneEvent{
		Player:      "p1",
		HandIndex:   0,
		CostSources: []CostSource{{Zone: CostZoneSpiritDeck, Index: 0}},
	})
	s.dispatch(CastRuneEvent{
		Player:      "p1",
		HandIndex:   0,
		CostSources: []CostSource{{Zone: CostZoneSpiritDeck, Index: 0}},
	})

	assert.NotNil(t, s.game.Slot("p1", SlotRune, 0).Contents)
	assert.NotNil(t, s.game.Slot("p1", SlotRune, 1).Contents)
	assert.Nil(t, s.game.Slot("p1", SlotRune, 2).Contents)
	assert.Len(t, s.game.Player("p1").SpiritDeck, 8)
}

func TestCastIgnoredFromInactivePlayer(t *testing.T) {
	t.Parallel()
	s, _ := newTestSession(t)
	deck := standardDeck(t, "teratlas")
	startRound(t, s, deck, deck)

	s.dispatch(NormalCastElestralEvent{
		Player:      "p2",
		HandIndex:   0,
		CostSources: []CostSource{{Zone: CostZoneSpiritDeck, Index: 0}},
		Position:    0,
	})
	assert.Nil(t, s.game.Slot("p2", SlotElestral, 0).Contents)
}

func TestCastWithWrongCostCountRejected(t *testing.T) {
	t.Parallel()
	s, _ := newTestSession(t)
	deck := standardDeck(t, "teratlas")
	startRound(t, s, deck, deck)

	// Teratlas costs one spirit; paying two is a rule violation.
	s.dispatch(NormalCastElestralEvent{
		Player:    "p1",
		HandIndex: 0,
		CostSources: []CostSource{
			{Zone: CostZoneSpiritDeck, Index: 0},
			{Zone: CostZoneSpiritDeck, Index: 1},
		},
		Position: 0,
	})

	assert.Nil(t, s.game.Slot("p1", SlotElestral, 0).Contents)
	assert.Len(t, s.game.Player("p1").SpiritDeck, 10)
}

func TestEndTurnAdvancesToNextPlayer(t *testing.T) {
	t.Parallel()
	s, sender := newTestSession(t)
	deck := standardDeck(t, "teratlas")
	startRound(t, s, deck, deck)

	s.dispatch(EndTurnEvent{Player: "p1"})

	turn := s.game.Turn()
	assert.Equal(t, PlayerID("p2"), turn.ActivePlayer)
	assert.Equal(t, PhaseMain, turn.Phase)
	assert.Len(t, s.game.Player("p2").Hand, 6)

	nexts := sender.byType("p1", OutNextPlayerTurn)
	require.Len(t, nexts, 1)
	assert.Equal(t, PlayerID("p2"), nexts[0].(NextPlayerTurnData).NextActivePlayer)
	assert.NotEmpty(t, sender.byType("p2", OutEndPhase))
}

func TestEndTurnIgnoredFromInactivePlayer(t *testing.T) {
	t.Parallel()
	s, _ := newTestSession(t)
	deck := standardDeck(t, "teratlas")
	startRound(t, s, deck, deck)

	s.dispatch(EndTurnEvent{Player: "p2"})
	assert.Equal(t, PlayerID("p1"), s.game.Turn().ActivePlayer)
}

func TestDeckOutEndsRound(t *testing.T) {
	t.Parallel()
	s, sender := newTestSession(t)

	// p1's whole main deck is dealt as the opening hand, so their first
	// draw phase fails.
	thin := buildDeck(t,
		map[string]int{"teratlas": 5},
		map[string]int{"spirit-earth": 10},
	)
	connectTwo(s, thin, standardDeck(t, "teratlas"))
	s.dispatch(StartingPlayerPickedEvent{Player: "p1", StartingPlayer: "p1"})
	s.dispatch(NoMulliganEvent{Player: "p1"})
	s.dispatch(NoMulliganEvent{Player: "p2"})

	p := s.game.Player("p1")
	assert.Equal(t, StatusOut, p.Status)
	assert.Equal(t, OutReasonDeckOut, p.OutReason)

	require.Equal(t, StateRoundOver, s.State())
	overs := sender.byType("p2", OutGameRoundOver)
	require.Len(t, overs, 1)
	assert.Equal(t, PlayerID("p2"), overs[0].(GameRoundOverData).Winner)
}

func TestDisconnectBeforeRoundStartEndsWithoutWinner(t *testing.T) {
	t.Parallel()
	s, sender := newTestSession(t)
	deck := standardDeck(t, "teratlas")
	connectTwo(s, deck, deck)
	require.Equal(t, StateChooseStartingPlayer, s.State())

	s.dispatch(PlayerDisconnectedEvent{Player: "p1"})

	require.Equal(t, StateRoundOver, s.State())
	overs := sender.byType("p2", OutGameRoundOver)
	require.Len(t, overs, 1)
	assert.Empty(t, overs[0].(GameRoundOverData).Winner)

	select {
	case <-s.Done():
	default:
		t.Fatal("session should have terminated")
	}
}

func TestDisconnectMidRoundGivesWinToRemainingPlayer(t *testing.T) {
	t.Parallel()
	s, sender := newTestSession(t)
	deck := standardDeck(t, "teratlas")
	startRound(t, s, deck, deck)

	s.dispatch(PlayerDisconnectedEvent{Player: "p2"})

	require.Equal(t, StateRoundOver, s.State())
	overs := sender.byType("p1", OutGameRoundOver)
	require.Len(t, overs, 1)
	assert.Equal(t, PlayerID("p1"), overs[0].(GameRoundOverData).Winner)

	// The leaver's state survives for scoring even though they no longer
	// hold a seat.
	assert.NotNil(t, s.game.Player("p2"))
	assert.NotContains(t, s.game.Rotation(), PlayerID("p2"))
}

func TestDisconnectInWaitingRoomFreesSeat(t *testing.T) {
	t.Parallel()
	s, _ := newTestSession(t)
	deck := standardDeck(t, "teratlas")

	require.True(t, s.TryReserveSeat())
	s.dispatch(PlayerConnectingEvent{Player: "p1", Deck: deck})
	s.dispatch(PlayerConnectedEvent{Player: "p1"})

	require.True(t, s.TryReserveSeat())
	s.dispatch(PlayerConnectingEvent{Player: "p2", Deck: deck})
	s.dispatch(PlayerDisconnectedEvent{Player: "p2"})

	assert.Equal(t, StateWaitingForPlayers, s.State())
	assert.True(t, s.Accepting())
	assert.True(t, s.TryReserveSeat())

	// The same identity can take the freed seat again.
	s.dispatch(PlayerConnectingEvent{Player: "p2", Deck: deck})
	require.NotNil(t, s.game.Player("p2"))
}

func TestLastLeaverTearsDownWaitingRoom(t *testing.T) {
	t.Parallel()
	s, _ := newTestSession(t)
	deck := standardDeck(t, "teratlas")

	require.True(t, s.TryReserveSeat())
	s.dispatch(PlayerConnectingEvent{Player: "p1", Deck: deck})
	s.dispatch(PlayerConnectedEvent{Player: "p1"})
	s.dispatch(PlayerDisconnectedEvent{Player: "p1"})

	select {
	case <-s.Done():
	default:
		t.Fatal("session should have terminated")
	}
	assert.False(t, s.Accepting())
}

func TestCloseTearsDownWaitingRoom(t *testing.T) {
	t.Parallel()
	s, _ := newTestSession(t)

	go s.Run()
	s.Close()

	<-s.Done()
	assert.False(t, s.Accepting())
	assert.False(t, s.Post(EndTurnEvent{Player: "p1"}))
}
